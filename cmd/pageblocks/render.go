package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func (c *cli) newRenderCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Transform a list of sections",
		Long: `Run a JSON list of {"type", "data"} sections through the transformation
pipeline and print the result. Sections whose transform fails keep their raw
data; unknown types pass through or are dropped per filter_missing_blocks.

Examples:
  pageblocks render --file sections.json
  echo '[{"type":"quote","data":{"text":"Hi"}}]' | pageblocks render`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, file)
			if err != nil {
				return fmt.Errorf("read sections: %w", err)
			}

			var sections any
			if err := json.Unmarshal(raw, &sections); err != nil {
				return fmt.Errorf("sections must be JSON: %w", err)
			}

			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			return writeJSON(cmd.OutOrStdout(), a.Content.Render(cmd.Context(), sections))
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "read sections from a file (- for stdin)")
	return cmd
}

func (c *cli) newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the block discovery cache",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Drop the discovery cache so the next lookup rescans",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Content.ClearCache(cmd.Context()); err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "  %s discovery cache cleared\n", checkMark)
			return nil
		},
	})
	return cmd
}
