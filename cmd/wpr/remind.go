package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qs3c/wpr_server/config"
	"github.com/qs3c/wpr_server/internal/pkg/cron"
	"github.com/qs3c/wpr_server/internal/service"
)

func newRemindCmd() *cobra.Command {
	var (
		once     bool
		week     int
		year     int
		schedule string
	)

	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Remind HR about team members who have not submitted",
		Long: "Sends HR the list of roster members missing a report for the week, mirrored to Slack/Discord when configured.\n" +
			"Runs on remind.schedule until interrupted, or once with --once.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemind(cmd, once, week, year, schedule)
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "send one reminder and exit")
	cmd.Flags().IntVar(&week, "week", 0, "ISO week for --once (default current week)")
	cmd.Flags().IntVar(&year, "year", 0, "ISO year for --once (default current year)")
	cmd.Flags().StringVar(&schedule, "schedule", "", "5-field cron expression (default remind.schedule)")
	return cmd
}

func runRemind(cmd *cobra.Command, once bool, week, year int, schedule string) error {
	a, err := newApp(cmd, config.NeedEmail)
	if err != nil {
		return err
	}
	defer a.Close()

	reminders := service.NewReminderService(a.dashboardService(), a.notifier(), a.cfg.Organization.HRRecipients, a.log)

	remind := func(ctx context.Context, week, year int) error {
		if week == 0 || year == 0 {
			week, year = reminders.CurrentPeriod()
		}
		missing, err := reminders.RemindMissing(ctx, week, year)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Week %d, %d: %d missing\n", week, year, len(missing.Members))
		return nil
	}

	ctx, cancel := signalContext()
	defer cancel()

	if once {
		return remind(ctx, week, year)
	}

	if schedule == "" {
		schedule = a.cfg.Remind.Schedule
	}
	job, err := cron.NewService("remind", schedule, func(ctx context.Context) error {
		return remind(ctx, 0, 0)
	}, a.log)
	if err != nil {
		return err
	}

	job.Start(ctx)
	<-ctx.Done()
	job.Stop()
	return nil
}
