package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administrative commands",
	}
	cmd.AddCommand(adminHealthCmd())
	cmd.AddCommand(adminStatsCmd())
	return cmd
}

func adminHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		Run: func(cmd *cobra.Command, args []string) {
			resp, err := apiClient.Health(context.Background())
			if err != nil {
				fatal("health", err)
			}
			output(resp, resp.Status)
		},
	}
}

func adminStatsCmd() *cobra.Command {
	var namespace string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show saved-object counts per type",
		Run: func(cmd *cobra.Command, args []string) {
			resp, err := apiClient.Stats(context.Background(), namespace)
			if err != nil {
				fatal("stats", err)
			}
			if flagFmt == "table" {
				types := make([]string, 0, len(resp.ByType))
				for t := range resp.ByType {
					types = append(types, t)
				}
				sort.Strings(types)
				rows := [][]string{{"(total)", fmt.Sprintf("%d", resp.Total)}}
				for _, t := range types {
					rows = append(rows, []string{t, fmt.Sprintf("%d", resp.ByType[t])})
				}
				formatTable([]string{"TYPE", "COUNT"}, rows)
				return
			}
			output(resp, fmt.Sprintf("%d", resp.Total))
		},
	}
	cmd.Flags().StringVar(&namespace, "namespace", "", "Count objects in this namespace only")
	return cmd
}
