package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qs3c/wpr_server/config"
	"github.com/qs3c/wpr_server/internal/api"
	"github.com/qs3c/wpr_server/internal/api/handler"
	"github.com/qs3c/wpr_server/internal/pkg/llm"
	"github.com/qs3c/wpr_server/internal/pkg/pubsub"
	"github.com/qs3c/wpr_server/internal/service"
)

func newSubmitCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Start the report submission server",
		Long:  "Serves the weekly report form and JSON API. Each submission is stored, analysed and emailed to the submitter and HR.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubmit(cmd, port)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (default server.submit_port)")
	return cmd
}

func runSubmit(cmd *cobra.Command, port int) error {
	a, err := newApp(cmd, config.NeedAI|config.NeedEmail)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signalContext()
	defer cancel()

	gen, err := llm.New(ctx, &a.cfg.AI)
	if err != nil {
		return fmt.Errorf("init %s generator: %w", a.cfg.AI.Provider, err)
	}

	var invalidator service.WeekInvalidator
	var publisher service.EventPublisher
	if c := a.cache(); c != nil {
		invalidator = c
		publisher = pubsub.NewPublisher(a.rdb)
	}

	reportService := service.NewReportService(a.reportRepo, a.cfg, invalidator, a.log)
	analysisService := service.NewAnalysisService(a.reportRepo, a.analysisRepo, gen, a.cfg.AI.MaxTokens, invalidator, a.log)
	flow := service.NewSubmissionFlow(reportService, analysisService, a.notifier(), publisher,
		a.cfg.Organization.HRRecipients, a.log)

	router := api.NewSubmitRouter(
		handler.NewReportHandler(flow, reportService),
		handler.NewPageHandler(flow, reportService, a.cfg.Organization.Members(), a.log),
		handler.NewHealthHandler(a.db),
		a.cfg,
		a.log,
	)
	engine, err := router.Setup()
	if err != nil {
		return err
	}

	if port <= 0 {
		port = a.cfg.Server.SubmitPort
	}
	return serve(ctx, fmt.Sprintf("%s:%d", a.cfg.Server.Host, port), engine, a.log)
}
