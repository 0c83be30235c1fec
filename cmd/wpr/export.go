package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/qs3c/wpr_server/config"
	"github.com/qs3c/wpr_server/internal/pkg/oss"
	"github.com/qs3c/wpr_server/internal/service"
)

func newExportCmd() *cobra.Command {
	var (
		week   int
		year   int
		output string
		upload bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export one week of reports as CSV",
		Long:  "Writes the week's reports as CSV to stdout or --output, or archives it to OSS with --upload and prints a signed link.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, week, year, output, upload)
		},
	}

	cmd.Flags().IntVar(&week, "week", 0, "ISO week (default current week)")
	cmd.Flags().IntVar(&year, "year", 0, "ISO year (default current year)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write CSV to this file instead of stdout")
	cmd.Flags().BoolVar(&upload, "upload", false, "upload the CSV to OSS")
	return cmd
}

func runExport(cmd *cobra.Command, week, year int, output string, upload bool) error {
	var needs config.Need
	if upload {
		needs = config.NeedOSS
	}
	a, err := newApp(cmd, needs)
	if err != nil {
		return err
	}
	defer a.Close()

	if week == 0 || year == 0 {
		year, week = time.Now().ISOWeek()
	}

	ctx, cancel := signalContext()
	defer cancel()

	dashboard := a.dashboardService()

	if upload {
		client, err := oss.NewClient(&a.cfg.OSS)
		if err != nil {
			return err
		}
		resp, err := service.NewExportService(dashboard, client, a.log).Archive(ctx, week, year)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %d reports to %s\n%s\n", resp.Rows, resp.ObjectKey, resp.URL)
		return nil
	}

	data, rows, err := dashboard.ExportCSV(ctx, week, year)
	if err != nil {
		return err
	}

	if output == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d reports to %s\n", rows, output)
	return nil
}
