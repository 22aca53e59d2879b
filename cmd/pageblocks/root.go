package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/artpar/pageblocks/bootstrap"
)

// cli carries the global flags shared by every subcommand.
type cli struct {
	cfgFile string
}

// newRootCmd builds the command tree.
func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "pageblocks",
		Short: "Content block type registry and rendering service",
		Long: `pageblocks manages page content built from typed blocks.

Block types are discovered from built-in and host definitions, cached, and
used to validate section payloads and transform them for delivery.

Quick start:
  pageblocks serve          # Start the HTTP API
  pageblocks blocks list    # Show available block types
  pageblocks mcp            # Serve MCP tools on stdio`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&c.cfgFile, "config", "c", "pageblocks.yaml", "config file path (optional)")

	root.AddCommand(
		c.newServeCmd(),
		c.newBlocksCmd(),
		c.newValidateCmd(),
		c.newRenderCmd(),
		c.newCacheCmd(),
		c.newMCPCmd(),
		newVersionCmd(),
	)
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// open initializes the application with logs on stderr so command output
// stays clean.
func (c *cli) open(cmd *cobra.Command) (*bootstrap.App, error) {
	a, err := bootstrap.New(bootstrap.Options{
		ConfigPath: c.cfgFile,
		Version:    version,
		LogOutput:  cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, fmt.Errorf("error initializing: %w", err)
	}
	return a, nil
}

// readInput reads a file, or stdin when path is empty or "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}
