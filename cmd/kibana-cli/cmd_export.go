package main

import (
	"fmt"
	"os"
	"time"

	"github.com/RobinsGarden/kibana/client"
	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	var (
		types          []string
		namespace      string
		excludeDetails bool
		outputPath     string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export saved objects to an NDJSON file",
		Long: `Export saved objects of the given types to a portable NDJSON file.
Each line is one object; the last line is a summary with the exported count
and any references that point outside the export. Use 'kibana import' to
restore.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if len(types) == 0 {
				return fmt.Errorf("at least one --type is required")
			}

			if outputPath == "" {
				outputPath = fmt.Sprintf("export-%s.ndjson",
					time.Now().UTC().Format("20060102T150405Z"))
			}

			out := os.Stdout
			if outputPath != "-" {
				f, err := os.OpenFile(outputPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
				if err != nil {
					return fmt.Errorf("creating export file: %w", err)
				}
				defer f.Close()
				out = f
			}

			req := client.ExportRequest{
				Types:                types,
				Namespace:            namespace,
				ExcludeExportDetails: excludeDetails,
			}
			if err := apiClient.Export(ctx, req, out); err != nil {
				return fmt.Errorf("export failed: %w", err)
			}

			if outputPath != "-" {
				fmt.Fprintf(os.Stderr, "Exported %v to %s\n", types, outputPath)
			}

			return nil
		},
	}

	cmd.Flags().StringArrayVar(&types, "type", nil, "Object type to export (repeatable)")
	cmd.Flags().StringVar(&namespace, "namespace", "", "Namespace to export from")
	cmd.Flags().BoolVar(&excludeDetails, "exclude-details", false, "Omit the trailing export-details line")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (default: export-<timestamp>.ndjson, use - for stdout)")

	return cmd
}
