package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qs3c/wpr_server/internal/api"
	"github.com/qs3c/wpr_server/internal/api/handler"
	"github.com/qs3c/wpr_server/internal/pkg/logger"
	"github.com/qs3c/wpr_server/internal/pkg/pubsub"
	"github.com/qs3c/wpr_server/internal/pkg/ws"
)

func newDashboardCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Start the read-only web dashboard",
		Long:  "Serves the HR dashboard and its JSON API. With Redis enabled, new submissions are pushed to open dashboards over a websocket.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDashboard(cmd, port)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (default server.dashboard_port)")
	return cmd
}

func runDashboard(cmd *cobra.Command, port int) error {
	a, err := newApp(cmd, 0)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signalContext()
	defer cancel()

	hub := ws.NewHub(a.log)
	if a.rdb != nil {
		sub := pubsub.NewSubscriber(a.rdb)
		go func() {
			err := sub.Subscribe(ctx, forwardEvent(hub, a.log))
			if err != nil && !errors.Is(err, context.Canceled) {
				a.log.Error("report event subscription ended", "error", err)
			}
		}()
	} else {
		a.log.Warn("redis disabled, dashboards will not receive live updates")
	}

	router := api.NewDashboardRouter(
		handler.NewDashboardHandler(a.dashboardService(), a.cfg.Dashboard.TrendWeeks),
		handler.NewWebSocketHandler(hub, a.cfg.CORS.AllowedOrigins, a.log),
		handler.NewHealthHandler(a.db),
		a.cfg,
		a.log,
	)
	engine, err := router.Setup()
	if err != nil {
		return err
	}

	if port <= 0 {
		port = a.cfg.Server.DashboardPort
	}
	return serve(ctx, fmt.Sprintf("%s:%d", a.cfg.Server.Host, port), engine, a.log)
}

// forwardEvent 把提交进程发布的事件推给订阅该周的看板
func forwardEvent(hub *ws.Hub, log *logger.Logger) func(*pubsub.ReportEvent) {
	return func(evt *pubsub.ReportEvent) {
		topic := ws.WeekTopic(evt.WeekNumber, evt.Year)
		if !hub.HasViewers(topic) {
			return
		}
		if err := hub.Broadcast(topic, &ws.Message{Type: evt.Type, Data: evt}); err != nil {
			log.Warn("broadcast report event", "type", evt.Type, "report_id", evt.ReportID, "error", err)
		}
	}
}
