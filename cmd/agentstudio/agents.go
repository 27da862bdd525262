package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/AhmedFT-hub/FT-Agent-Studio/internal/catalog"
	"github.com/AhmedFT-hub/FT-Agent-Studio/internal/config"
	"github.com/AhmedFT-hub/FT-Agent-Studio/internal/model"
	"github.com/AhmedFT-hub/FT-Agent-Studio/internal/service/directory"
	"github.com/AhmedFT-hub/FT-Agent-Studio/internal/storage/backend"
)

func newAgentsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agents",
		Short: "Inspect and maintain the catalog",
	}
	cmd.AddCommand(newAgentsListCmd(opts))
	cmd.AddCommand(newAgentsShowCmd(opts))
	cmd.AddCommand(newAgentsRemoveCmd(opts))
	return cmd
}

// withDirectory opens the configured stores for the duration of fn.
func withDirectory(ctx context.Context, opts *rootOptions, fn func(*directory.Service) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	b, err := backend.Open(ctx, cfg, opts.logger, backend.Options{})
	if err != nil {
		return err
	}
	defer b.Close()
	return fn(directory.New(b.Store, opts.logger))
}

type listOptions struct {
	json  bool
	quiet bool
}

func newAgentsListCmd(opts *rootOptions) *cobra.Command {
	var lo listOptions
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every agent as the gallery shows it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDirectory(cmd.Context(), opts, func(dir *directory.Service) error {
				return listAgents(cmd.Context(), dir, cmd.OutOrStdout(), lo)
			})
		},
	}
	cmd.Flags().BoolVar(&lo.json, "json", false, "print the full listing as JSON")
	cmd.Flags().BoolVarP(&lo.quiet, "quiet", "q", false, "print ids only")
	return cmd
}

func listAgents(ctx context.Context, dir *directory.Service, w io.Writer, lo listOptions) error {
	listing, err := dir.List(ctx)
	if err != nil {
		return err
	}

	switch {
	case lo.json:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(model.ListAgentsResponse{
			Agents:         listing.Agents,
			CustomAgents:   listing.CustomAgents,
			Overrides:      listing.Overrides,
			AgentOverrides: listing.Overrides,
		})
	case lo.quiet:
		for _, a := range listing.Agents {
			if _, err := fmt.Fprintln(w, a.ID); err != nil {
				return err
			}
		}
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tSTATUS\tKIND")
	for _, a := range listing.Agents {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", a.ID, a.Name, a.Category, a.Status, agentKind(a.ID, listing.Overrides))
	}
	return tw.Flush()
}

// agentKind labels a row: default, edited (default with an override) or custom.
func agentKind(id string, overrides map[string]model.AgentPatch) string {
	if !catalog.IsSeedID(id) {
		return "custom"
	}
	if _, ok := overrides[id]; ok {
		return "edited"
	}
	return "default"
}

func newAgentsShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print one agent as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDirectory(cmd.Context(), opts, func(dir *directory.Service) error {
				return showAgent(cmd.Context(), dir, cmd.OutOrStdout(), args[0])
			})
		},
	}
}

func showAgent(ctx context.Context, dir *directory.Service, w io.Writer, id string) error {
	agent, err := dir.Get(ctx, id)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(agent); err != nil {
		return fmt.Errorf("encode agent: %w", err)
	}
	return enc.Close()
}

func newAgentsRemoveCmd(opts *rootOptions) *cobra.Command {
	var reset bool
	cmd := &cobra.Command{
		Use:   "remove <id>",
		Short: "Delete a custom agent, or reset a default agent with --reset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDirectory(cmd.Context(), opts, func(dir *directory.Service) error {
				return removeAgent(cmd.Context(), dir, cmd.OutOrStdout(), args[0], reset)
			})
		},
	}
	cmd.Flags().BoolVar(&reset, "reset", false, "discard the stored edits of a default agent")
	return cmd
}

func removeAgent(ctx context.Context, dir *directory.Service, w io.Writer, id string, reset bool) error {
	id = strings.TrimSpace(id)
	if !reset && catalog.IsSeedID(id) {
		return fmt.Errorf("agent %s is a default agent; use --reset to discard its edits", id)
	}
	if err := dir.RemoveAgent(ctx, id, reset); err != nil {
		return err
	}
	verb := "removed"
	if reset {
		verb = "reset"
	}
	_, err := fmt.Fprintln(w, verb, id)
	return err
}
