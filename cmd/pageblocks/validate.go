package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

const (
	checkMark = "✓"
	crossMark = "✗"
)

// errInvalid makes the process exit non-zero after the violation is printed.
var errInvalid = errors.New("payload is invalid")

func (c *cli) newValidateCmd() *cobra.Command {
	var (
		data string
		file string
	)

	cmd := &cobra.Command{
		Use:   "validate KEY",
		Short: "Validate a section payload against a block type",
		Long: `Validate a section payload against the fields of a block type.

The payload is a JSON object given with --data, read from --file, or read
from stdin. Only the first violation is reported.

Examples:
  pageblocks validate hero --data '{"title":"Welcome"}'
  pageblocks validate quote --file quote.json
  echo '{"text":"Hi"}' | pageblocks validate quote`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := []byte(data)
			if data == "" {
				var err error
				if raw, err = readInput(cmd, file); err != nil {
					return fmt.Errorf("read payload: %w", err)
				}
			}

			var payload map[string]any
			if err := json.Unmarshal(raw, &payload); err != nil {
				return fmt.Errorf("payload must be a JSON object: %w", err)
			}
			if payload == nil {
				payload = map[string]any{}
			}

			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.Content.ValidateSection(cmd.Context(), args[0], payload)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if res.Valid {
				fmt.Fprintf(out, "  %s %s payload valid\n", checkMark, args[0])
				return nil
			}
			fmt.Fprintf(out, "  %s %s (%s)\n", crossMark, res.Message, res.Code)
			return errInvalid
		},
	}

	cmd.Flags().StringVarP(&data, "data", "d", "", "payload as a JSON object")
	cmd.Flags().StringVarP(&file, "file", "f", "", "read the payload from a file (- for stdin)")
	return cmd
}
