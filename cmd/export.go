package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"nryli/cmd/buildCFG"
	"nryli/internal/dashboard"
)

func newExportCmd() *cobra.Command {
	var (
		out    string
		filter dashboard.Filter
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write registrations to a CSV file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			defer a.Close()

			exportCfg, err := buildCFG.BuildExportConfig(a.cfg)
			if err != nil {
				return err
			}
			exporter := dashboard.NewExporter(exportCfg.Location)

			ctx, cancel := a.storeContext(cmd.Context())
			defer cancel()
			all, err := a.repo.ListAll(ctx)
			if err != nil {
				return fmt.Errorf("failed to load registrations: %w", err)
			}
			visible := filter.Apply(all)

			if out == "" {
				out = exporter.Filename(time.Now())
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := exporter.Write(f, visible); err != nil {
				_ = f.Close()
				return fmt.Errorf("failed to write export: %w", err)
			}
			if err := f.Close(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d registration(s) to %s\n", len(visible), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default nryli_registrations_<date>.csv)")
	cmd.Flags().StringVar(&filter.Search, "search", "", "Only registrations whose id, name or institution contains this text")
	cmd.Flags().StringVar(&filter.Region, "region", "", "Only registrations from this region cluster")
	return cmd
}
