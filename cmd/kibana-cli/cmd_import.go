package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/RobinsGarden/kibana/client"
	"github.com/spf13/cobra"
)

func newImportCmd() *cobra.Command {
	var (
		overwrite       bool
		createNewCopies bool
		namespace       string
		retriesPath     string
	)

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import saved objects from an NDJSON file",
		Long: `Import saved objects from an NDJSON export file (use - for stdin).
By default, objects that already exist are reported as conflicts. Use
--overwrite to replace them, or --create-new-copies to import everything
under fresh ids with references rewritten.

A failed import can be retried with --retries <file.json>, where the file
holds the per-object decisions (overwrite, destination id, reference
replacements) for the objects that errored.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			in, closeIn, err := openInput(args[0])
			if err != nil {
				return fmt.Errorf("reading file: %w", err)
			}
			defer closeIn()

			opts := client.ImportOptions{
				Overwrite:       overwrite,
				CreateNewCopies: createNewCopies,
				Namespace:       namespace,
			}

			var resp *client.ImportResponse
			if retriesPath != "" {
				retries, err := readRetries(retriesPath)
				if err != nil {
					return err
				}
				resp, err = apiClient.ResolveImportErrors(ctx, in, retries, opts)
				if err != nil {
					return fmt.Errorf("retry import failed: %w", err)
				}
			} else {
				resp, err = apiClient.Import(ctx, in, opts)
				if err != nil {
					return fmt.Errorf("import failed: %w", err)
				}
			}

			fmt.Fprintf(os.Stderr, "Imported %d object(s)\n", resp.SuccessCount)

			if len(resp.Errors) > 0 {
				fmt.Fprintf(os.Stderr, "%d error(s):\n", len(resp.Errors))
				for _, e := range resp.Errors {
					fmt.Fprintf(os.Stderr, "  - %s:%s — %s: %s\n", e.Type, e.ID, e.Error.Kind, e.Error.Message)
				}
				return fmt.Errorf("import finished with %d error(s)", len(resp.Errors))
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace existing objects instead of reporting conflicts")
	cmd.Flags().BoolVar(&createNewCopies, "create-new-copies", false, "Import everything under fresh ids")
	cmd.Flags().StringVar(&namespace, "namespace", "", "Target namespace")
	cmd.Flags().StringVar(&retriesPath, "retries", "", "JSON file of retry decisions from a previous failed import")

	return cmd
}

// openInput opens path for reading, treating "-" as stdin.
func openInput(path string) (io.Reader, func(), error) {
	if path == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

func readRetries(path string) ([]client.RetryOperation, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading retries file: %w", err)
	}
	var retries []client.RetryOperation
	if err := json.Unmarshal(raw, &retries); err != nil {
		return nil, fmt.Errorf("parsing retries file: %w", err)
	}
	return retries, nil
}
