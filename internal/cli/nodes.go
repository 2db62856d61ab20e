package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lazypower/mindgraph/internal/engine"
	"github.com/lazypower/mindgraph/internal/graph"
)

func newNodesCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "nodes",
		Aliases: []string{"node"},
		Short:   "Manage notes and commitments",
	}
	cmd.AddCommand(newNodesAddCmd(g), newNodesListCmd(g), newNodesRmCmd(g), newNodesTouchCmd(g))
	return cmd
}

func newNodesAddCmd(g *globals) *cobra.Command {
	var (
		tags []string
		kind string
	)
	cmd := &cobra.Command{
		Use:   "add <title...>",
		Short: "Add a node",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer s.Close()

			n, err := s.engine.AddNode(cmd.Context(), engine.NodeInput{
				Title: strings.Join(args, " "),
				Tags:  tags,
				Kind:  graph.Kind(kind),
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			good.Fprint(out, "added ")
			fmt.Fprintf(out, "%s %s\n", n.ID, n.Title)
			if n.Connections > 0 {
				subtle.Fprintf(out, "  linked to %d node(s)\n", n.Connections)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "tag (repeatable or comma separated)")
	cmd.Flags().StringVarP(&kind, "kind", "k", string(graph.KindNote), "note or commitment")
	return cmd
}

func newNodesListCmd(g *globals) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List nodes",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer s.Close()

			nodes := s.engine.Nodes()
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(nodes)
			}
			if len(nodes) == 0 {
				fmt.Fprintln(out, "No nodes yet. Add one with 'mindgraph nodes add'.")
				return nil
			}

			now := time.Now()
			rows := make([][]string, len(nodes))
			for i, n := range nodes {
				state := ""
				if graph.Stagnant(n.LastTouchedAt, now) {
					state = warn.Sprint("stagnant")
				}
				rows[i] = []string{
					shortID(n.ID),
					string(n.Kind),
					n.Title,
					strings.Join(n.Tags, ","),
					strconv.Itoa(n.Connections),
					state,
				}
			}
			table(out, []string{"ID", "KIND", "TITLE", "TAGS", "LINKS", "STATE"}, rows)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newNodesRmCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a node",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer s.Close()

			id, err := resolveID(s.engine, args[0])
			if err != nil {
				return err
			}
			if err := s.engine.DeleteNode(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", id)
			return nil
		},
	}
}

func newNodesTouchCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "touch <id>",
		Short: "Mark a node as visited now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer s.Close()

			id, err := resolveID(s.engine, args[0])
			if err != nil {
				return err
			}
			n, err := s.engine.TouchNode(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "touched %s %s\n", shortID(n.ID), n.Title)
			return nil
		},
	}
}

// resolveID accepts a full node ID or an unambiguous prefix of one.
func resolveID(eng *engine.Engine, arg string) (string, error) {
	if _, err := eng.Node(arg); err == nil {
		return arg, nil
	}
	var match string
	for _, n := range eng.Nodes() {
		if !strings.HasPrefix(n.ID, arg) {
			continue
		}
		if match != "" {
			return "", fmt.Errorf("%w: %q matches more than one node", engine.ErrInvalidInput, arg)
		}
		match = n.ID
	}
	if match == "" {
		return "", fmt.Errorf("%w: %s", engine.ErrNodeNotFound, arg)
	}
	return match, nil
}
