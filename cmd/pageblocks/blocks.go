package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/artpar/pageblocks/core/info"
	"github.com/artpar/pageblocks/core/schema"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

func (c *cli) newBlocksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "blocks",
		Aliases: []string{"block"},
		Short:   "Inspect registered block types",
	}

	var output string
	list := &cobra.Command{
		Use:   "list",
		Short: "List enabled block types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			descriptors := a.Content.ListBlocks(cmd.Context())
			if output == outputJSON {
				return writeJSON(cmd.OutOrStdout(), descriptors)
			}
			renderBlockTable(cmd.OutOrStdout(), descriptors)
			return nil
		},
	}
	list.Flags().StringVarP(&output, "output", "o", outputTable, "output format: table or json")

	var infoOutput string
	describe := &cobra.Command{
		Use:     "info KEY",
		Aliases: []string{"describe"},
		Short:   "Describe one block type",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			d, err := a.Content.DescribeBlock(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if infoOutput == outputJSON {
				return writeJSON(cmd.OutOrStdout(), d)
			}
			renderBlockInfo(cmd.OutOrStdout(), d)
			return nil
		},
	}
	describe.Flags().StringVarP(&infoOutput, "output", "o", outputTable, "output format: table or json")

	cmd.AddCommand(list, describe)
	return cmd
}

func renderBlockTable(w io.Writer, descriptors []info.Descriptor) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Key", "Description", "Group", "Order", "Fields"})
	for _, d := range descriptors {
		t.AppendRow(table.Row{d.Key, d.Description, d.Group, d.Order, len(d.Fields)})
	}
	style := table.StyleLight
	style.Options.DrawBorder = false
	t.SetStyle(style)
	t.Render()
}

func renderBlockInfo(w io.Writer, d info.Descriptor) {
	fmt.Fprintf(w, "%s: %s\n", d.Key, d.Description)
	if d.Group != "" {
		fmt.Fprintf(w, "group: %s\n", d.Group)
	}
	fmt.Fprintln(w)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Field", "Kind", "Required"})
	appendFieldRows(t, d.Fields, "")
	style := table.StyleLight
	style.Options.DrawBorder = false
	t.SetStyle(style)
	t.Render()

	if len(d.Example) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "example:")
		data, _ := json.MarshalIndent(d.Example, "  ", "  ")
		fmt.Fprintf(w, "  %s\n", data)
	}
}

// appendFieldRows flattens nested fields into dotted paths; array element
// fields are shown under name[].
func appendFieldRows(t table.Writer, fields []schema.Field, prefix string) {
	for _, f := range fields {
		name := prefix + f.Name
		required := ""
		if f.Required {
			required = "yes"
		}
		t.AppendRow(table.Row{name, string(f.Kind), required})
		if f.HasChildren() {
			appendFieldRows(t, f.Children, name+".")
		}
		if f.HasItems() {
			appendFieldRows(t, f.Items, name+"[].")
		}
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
