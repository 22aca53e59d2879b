package main

import (
	"github.com/spf13/cobra"
)

func (c *cli) newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the pageblocks HTTP API.

The server will:
  - Load configuration from pageblocks.yaml (or --config), if present
  - Apply PAGEBLOCKS_* environment variable overrides
  - Open and migrate the SQLite database
  - Watch the config file and SIGHUP for reloadable settings
  - Purge expired discovery cache entries on the configured schedule

Environment variables:
  PAGEBLOCKS_DATABASE_DSN         - Database path (default: pageblocks.db)
  PAGEBLOCKS_SERVER_PORT          - Server port (default: 8080)
  PAGEBLOCKS_ENVIRONMENT          - "local" bypasses the discovery cache
  PAGEBLOCKS_DISABLED_BLOCKS      - Comma separated block keys to hide
  PAGEBLOCKS_LOG_LEVEL            - Log level: debug, info, warn, error

Examples:
  pageblocks serve
  pageblocks serve --config /etc/pageblocks/config.yaml
  PAGEBLOCKS_ENVIRONMENT=local pageblocks serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			// Run blocks until shutdown
			return a.Run()
		},
	}
}

func (c *cli) newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve block tools over MCP on stdin/stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			a.StartBackground()
			return a.MCP().ServeStdio()
		},
	}
}
