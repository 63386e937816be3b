package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/RobinsGarden/kibana/client"
	"github.com/spf13/cobra"
)

func newObjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "object",
		Short: "Manage saved objects",
	}
	cmd.AddCommand(objectCreateCmd())
	cmd.AddCommand(objectGetCmd())
	cmd.AddCommand(objectDeleteCmd())
	cmd.AddCommand(objectListCmd())
	return cmd
}

func objectCreateCmd() *cobra.Command {
	var id, namespace, attrsJSON string
	var overwrite bool
	cmd := &cobra.Command{
		Use:   "create <type>",
		Short: "Create a saved object",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			req := &client.CreateObjectRequest{
				Type:       args[0],
				ID:         id,
				Attributes: json.RawMessage(`{}`),
			}
			if attrsJSON != "" {
				if !json.Valid([]byte(attrsJSON)) {
					fatal("parse attrs", fmt.Errorf("not valid JSON"))
				}
				req.Attributes = json.RawMessage(attrsJSON)
			}
			opts := &client.CreateOptions{Namespace: namespace, Overwrite: overwrite}
			obj, err := apiClient.Objects.Create(context.Background(), req, opts)
			if err != nil {
				fatal("create object", err)
			}
			output(obj, obj.ID)
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Object ID (server generates one when omitted)")
	cmd.Flags().StringVar(&attrsJSON, "attrs", "", "Attributes as JSON")
	cmd.Flags().StringVar(&namespace, "namespace", "", "Target namespace")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing object with the same type and id")
	return cmd
}

func objectGetCmd() *cobra.Command {
	var namespace string
	cmd := &cobra.Command{
		Use:   "get <type> <id>",
		Short: "Get a saved object by type and id",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			obj, err := apiClient.Objects.Get(context.Background(), args[0], args[1], namespace)
			if err != nil {
				fatal("get object", err)
			}
			output(obj, obj.ID)
		},
	}
	cmd.Flags().StringVar(&namespace, "namespace", "", "Namespace to look in")
	return cmd
}

func objectDeleteCmd() *cobra.Command {
	var namespace string
	cmd := &cobra.Command{
		Use:   "delete <type> <id>",
		Short: "Delete a saved object",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			if err := apiClient.Objects.Delete(context.Background(), args[0], args[1], namespace); err != nil {
				fatal("delete object", err)
			}
			fmt.Println("deleted")
		},
	}
	cmd.Flags().StringVar(&namespace, "namespace", "", "Namespace to look in")
	return cmd
}

func objectListCmd() *cobra.Command {
	var objType, namespace string
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved objects",
		Run: func(cmd *cobra.Command, args []string) {
			if limit < 0 {
				fmt.Fprintf(os.Stderr, "Error: --limit must be non-negative\n")
				os.Exit(1)
			}
			if offset < 0 {
				fmt.Fprintf(os.Stderr, "Error: --offset must be non-negative\n")
				os.Exit(1)
			}
			opts := &client.ObjectListOptions{
				Type:      objType,
				Namespace: namespace,
				Limit:     limit,
				Offset:    offset,
			}
			objects, _, err := apiClient.Objects.List(context.Background(), opts)
			if err != nil {
				fatal("list objects", err)
			}
			if flagFmt == "table" {
				headers := []string{"TYPE", "ID", "VERSION", "UPDATED_AT"}
				var rows [][]string
				for _, o := range objects {
					updated := ""
					if o.UpdatedAt != nil {
						updated = o.UpdatedAt.Format("2006-01-02 15:04:05")
					}
					rows = append(rows, []string{o.Type, o.ID, fmt.Sprintf("%d", o.Version), updated})
				}
				formatTable(headers, rows)
				return
			}
			if flagFmt == "quiet" {
				for _, o := range objects {
					fmt.Printf("%s:%s\n", o.Type, o.ID)
				}
				return
			}
			output(objects, "")
		},
	}
	cmd.Flags().StringVar(&objType, "type", "", "Filter by object type")
	cmd.Flags().StringVar(&namespace, "namespace", "", "Filter by namespace")
	cmd.Flags().IntVar(&limit, "limit", 0, "Max results")
	cmd.Flags().IntVar(&offset, "offset", 0, "Offset")
	return cmd
}
