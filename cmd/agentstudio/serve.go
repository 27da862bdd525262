package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	agentstudio "github.com/AhmedFT-hub/FT-Agent-Studio"
	"github.com/AhmedFT-hub/FT-Agent-Studio/internal/config"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, change stream and MCP endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			level := opts.logLevel
			if level == "" {
				level = cfg.LogLevel
			}
			// The server logs to stdout, as container runtimes expect.
			logger := newLogger(os.Stdout, level)
			slog.SetDefault(logger)

			app, err := agentstudio.New(cmd.Context(),
				agentstudio.WithConfig(cfg),
				agentstudio.WithPort(port),
				agentstudio.WithLogger(logger),
				agentstudio.WithVersion(version),
			)
			if err != nil {
				return err
			}
			return app.Run(cmd.Context())
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "listen port (default $AGENTSTUDIO_PORT or 8080)")
	return cmd
}
