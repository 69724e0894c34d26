package main

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"nryli/internal/dashboard"
	"nryli/internal/dto"
)

func newStatsCmd() *cobra.Command {
	var by string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print registration counts",
		Long: `Without --by, prints the dashboard aggregate (total, per region, per
delegate type). With --by, counts the values of one field, e.g. --by tshirtSize.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := a.storeContext(cmd.Context())
			defer cancel()

			if by == "" {
				stats, err := a.repo.Stats(ctx)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(stats)
			}

			column, ok := dto.StorageField(by)
			if !ok {
				return fmt.Errorf("unknown field %q", by)
			}
			values, err := a.repo.ListField(ctx, column)
			if err != nil {
				return err
			}
			printCounts(cmd, column, dashboard.CountValues(values))
			return nil
		},
	}
	cmd.Flags().StringVar(&by, "by", "", "Field to count, client or column name")
	return cmd
}

func printCounts(cmd *cobra.Command, column string, counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})

	name := column
	if client, ok := dto.ClientField(column); ok {
		name = client
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s\n", name)
	for _, k := range keys {
		fmt.Fprintf(w, "  %-24s %d\n", k, counts[k])
	}
}
