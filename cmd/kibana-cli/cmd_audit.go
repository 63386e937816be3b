package main

import (
	"context"
	"fmt"
	"time"

	"github.com/RobinsGarden/kibana/client"
	"github.com/spf13/cobra"
)

func newAuditCmd() *cobra.Command {
	var objectType, objectID, action, since string
	var limit int
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Query the audit log",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := &client.AuditQueryOptions{
				ObjectType: objectType,
				ObjectID:   objectID,
				Action:     action,
				Limit:      limit,
			}
			if since != "" {
				ts, err := time.Parse(time.RFC3339, since)
				if err != nil {
					return fmt.Errorf("parsing --since (want RFC3339, e.g. 2026-08-01T00:00:00Z): %w", err)
				}
				opts.Since = &ts
			}
			entries, _, err := apiClient.Audit.Query(context.Background(), opts)
			if err != nil {
				return fmt.Errorf("audit query: %w", err)
			}
			if flagFmt == "table" {
				headers := []string{"ID", "ACTION", "OBJECT_TYPE", "OBJECT_ID", "CREATED_AT"}
				var rows [][]string
				for _, e := range entries {
					rows = append(rows, []string{
						fmt.Sprintf("%d", e.ID), e.Action, e.ObjectType, e.ObjectID,
						e.CreatedAt.Format("2006-01-02 15:04:05"),
					})
				}
				formatTable(headers, rows)
				return nil
			}
			output(entries, "")
			return nil
		},
	}
	cmd.Flags().StringVar(&objectType, "object-type", "", "Filter by object type")
	cmd.Flags().StringVar(&objectID, "object-id", "", "Filter by object ID")
	cmd.Flags().StringVar(&action, "action", "", "Filter by action (create, overwrite, delete, import, export)")
	cmd.Flags().StringVar(&since, "since", "", "Only entries at or after this RFC3339 timestamp")
	cmd.Flags().IntVar(&limit, "limit", 0, "Max results")

	cmd.AddCommand(auditPurgeCmd())
	return cmd
}

func auditPurgeCmd() *cobra.Command {
	var retentionDays int
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Purge old audit entries",
		Run: func(cmd *cobra.Command, args []string) {
			deleted, err := apiClient.Audit.Purge(context.Background(), retentionDays)
			if err != nil {
				fatal("audit purge", err)
			}
			output(map[string]int{"deleted": deleted}, fmt.Sprintf("%d", deleted))
		},
	}
	cmd.Flags().IntVar(&retentionDays, "retention-days", 90, "Delete entries older than N days")
	return cmd
}
