package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/lazypower/mindgraph/internal/engine"
)

func newExportCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write the graph as a YAML document (stdout by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer s.Close()

			doc := s.engine.Export()
			if len(args) == 0 || args[0] == "-" {
				return engine.WriteDocument(cmd.OutOrStdout(), doc)
			}

			f, err := os.Create(args[0])
			if err != nil {
				return fmt.Errorf("create %s: %w", args[0], err)
			}
			if err := engine.WriteDocument(f, doc); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "exported %d node(s) to %s\n", len(doc.Nodes), args[0])
			return nil
		},
	}
}

func newImportCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Merge a YAML or JSON document into the graph ('-' reads stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open %s: %w", args[0], err)
				}
				defer f.Close()
				r = f
			}
			doc, err := engine.ReadDocument(r)
			if err != nil {
				return err
			}

			s, err := g.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer s.Close()

			stats, err := s.engine.Import(cmd.Context(), doc)
			if err != nil {
				return err
			}
			good.Fprint(cmd.OutOrStdout(), "imported ")
			fmt.Fprintf(cmd.OutOrStdout(), "%d created, %d updated\n", stats.Created, stats.Updated)
			return nil
		},
	}
}
