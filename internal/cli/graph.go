package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lazypower/mindgraph/internal/engine"
	"github.com/lazypower/mindgraph/internal/graph"
)

func newLinksCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "links",
		Short: "List inferred links",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer s.Close()

			links := s.engine.Links()
			out := cmd.OutOrStdout()
			if len(links) == 0 {
				fmt.Fprintln(out, "No links. Nodes link when they share a tag.")
				return nil
			}
			titles := titleIndex(s.engine)
			rows := make([][]string, len(links))
			for i, l := range links {
				rows[i] = []string{
					titles[l.Source],
					titles[l.Target],
					strconv.Itoa(l.Weight),
					strings.Join(l.SharedTerms, ","),
				}
			}
			table(out, []string{"SOURCE", "TARGET", "WEIGHT", "SHARED"}, rows)
			return nil
		},
	}
}

func newTraceCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "trace <from> <to>",
		Short: "Show the shortest chain of links between two nodes",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer s.Close()

			from, err := resolveID(s.engine, args[0])
			if err != nil {
				return err
			}
			to, err := resolveID(s.engine, args[1])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			path := s.engine.Trace(from, to)
			if len(path) == 0 {
				warn.Fprintln(out, "no path")
				return nil
			}
			titles := titleIndex(s.engine)
			steps := make([]string, len(path))
			for i, id := range path {
				steps[i] = titles[id]
			}
			fmt.Fprintln(out, strings.Join(steps, info.Sprint(" → ")))
			subtle.Fprintf(out, "%d hop(s)\n", len(path)-1)
			return nil
		},
	}
}

func newLayoutCmd(g *globals) *cobra.Command {
	var (
		ticks   int
		untilOK bool
	)
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Run the force simulation offline and save positions",
		RunE: func(cmd *cobra.Command, args []string) error {
			if ticks <= 0 {
				return fmt.Errorf("%w: --ticks must be positive", engine.ErrInvalidInput)
			}
			s, err := g.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer s.Close()

			const batch = 50
			ran := 0
			var energy float64
			for ran < ticks {
				n := min(batch, ticks-ran)
				energy = s.engine.Step(n)
				ran += n
				if untilOK && s.engine.Settled() {
					break
				}
			}
			if err := s.engine.PersistPositions(cmd.Context()); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ran %d tick(s), kinetic energy %.3f", ran, energy)
			if s.engine.Settled() {
				good.Fprint(out, " settled")
			}
			fmt.Fprintln(out)
			return nil
		},
	}
	cmd.Flags().IntVarP(&ticks, "ticks", "n", 600, "maximum number of ticks")
	cmd.Flags().BoolVar(&untilOK, "until-settled", false, "stop early once the layout settles")
	return cmd
}

func newClustersCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clusters",
		Short: "Manage thematic clusters",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set <theme=id,id...>...",
		Short: "Replace all clusters",
		Long:  "Replace all clusters. Each argument names a theme and its member node IDs (or ID prefixes), e.g. 'Systems=3f2a,9bc1'. No arguments clears the clusters.",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer s.Close()

			clusters := make([]graph.Cluster, 0, len(args))
			for _, arg := range args {
				c, err := parseClusterArg(arg)
				if err != nil {
					return err
				}
				for i, m := range c.NodeIDs {
					if c.NodeIDs[i], err = resolveID(s.engine, m); err != nil {
						return err
					}
				}
				clusters = append(clusters, c)
			}
			if err := s.engine.SetClusters(cmd.Context(), clusters); err != nil {
				return err
			}
			printClusters(cmd, s.engine)
			return nil
		},
	}, &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List clusters and their anchors",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer s.Close()
			printClusters(cmd, s.engine)
			return nil
		},
	})
	return cmd
}

// parseClusterArg parses "Theme Name=id1,id2". The cluster ID is the
// lowercased theme with spaces replaced by dashes.
func parseClusterArg(arg string) (graph.Cluster, error) {
	theme, members, _ := strings.Cut(arg, "=")
	theme = strings.TrimSpace(theme)
	if theme == "" {
		return graph.Cluster{}, fmt.Errorf("%w: cluster %q has no theme", engine.ErrInvalidInput, arg)
	}
	c := graph.Cluster{
		ID:        strings.Join(strings.Fields(strings.ToLower(theme)), "-"),
		ThemeName: theme,
		NodeIDs:   []string{},
	}
	for _, m := range strings.Split(members, ",") {
		if m = strings.TrimSpace(m); m != "" {
			c.NodeIDs = append(c.NodeIDs, m)
		}
	}
	return c, nil
}

func printClusters(cmd *cobra.Command, eng *engine.Engine) {
	out := cmd.OutOrStdout()
	anchors := eng.Snapshot().Anchors
	if len(anchors) == 0 {
		fmt.Fprintln(out, "No clusters.")
		return
	}
	clusters := eng.Clusters()
	rows := make([][]string, len(anchors))
	for i, a := range anchors {
		rows[i] = []string{
			a.ClusterID,
			a.ThemeName,
			strconv.Itoa(len(clusters[i].NodeIDs)),
			fmt.Sprintf("(%.0f, %.0f)", a.X, a.Y),
			a.Color,
		}
	}
	table(out, []string{"ID", "THEME", "MEMBERS", "ANCHOR", "COLOR"}, rows)
}

func titleIndex(eng *engine.Engine) map[string]string {
	nodes := eng.Nodes()
	titles := make(map[string]string, len(nodes))
	for _, n := range nodes {
		titles[n.ID] = n.Title
	}
	return titles
}
