// Command agentstudio serves the agent catalog over HTTP and MCP and offers
// a few maintenance subcommands that work against the same stores.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run0())
}

func run0() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}

// rootOptions are the persistent flags shared by every subcommand.
type rootOptions struct {
	envFile  string
	logLevel string
	logger   *slog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "agentstudio",
		Short: "Agent Studio: a catalog of operations agents",
		Long: `Agent Studio serves the agent gallery's directory: the default agents,
their stored edits and the custom agents users add.

Configuration comes from environment variables (AGENTSTUDIO_*, DATABASE_URL,
MINIO_*, OTEL_*). A .env file in the working directory is loaded first.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Non-fatal: production has no .env.
			if opts.envFile != "" {
				if err := godotenv.Load(opts.envFile); err != nil {
					return fmt.Errorf("load %s: %w", opts.envFile, err)
				}
			} else {
				_ = godotenv.Load()
			}
			level := opts.logLevel
			if level == "" {
				level = os.Getenv("AGENTSTUDIO_LOG_LEVEL")
			}
			opts.logger = newLogger(cmd.ErrOrStderr(), level)
			slog.SetDefault(opts.logger)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "dotenv file to load (default .env if present)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error (default $AGENTSTUDIO_LOG_LEVEL or info)")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newMigrateCmd(opts))
	cmd.AddCommand(newAgentsCmd(opts))
	cmd.AddCommand(newVersionCmd())
	return cmd
}

// newLogger returns a JSON logger at the named level. Unknown names log at info.
func newLogger(w io.Writer, level string) *slog.Logger {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn", "warning":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: l}))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of agentstudio",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "agentstudio", version)
		},
	}
}
