package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/lazypower/mindgraph/internal/engine"
)

func newReviewCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Spaced repetition over nodes",
	}
	cmd.AddCommand(newReviewGradeCmd(g), newReviewDueCmd(g))
	return cmd
}

func newReviewGradeCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "grade <id> <quality 0-5>",
		Short: "Record how well a node was recalled",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			quality, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("%w: quality %q is not a number", engine.ErrInvalidInput, args[1])
			}
			s, err := g.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer s.Close()

			id, err := resolveID(s.engine, args[0])
			if err != nil {
				return err
			}
			card, err := s.engine.Review(cmd.Context(), id, quality)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "next review in %d day(s) on %s (ease %.2f)\n",
				card.Interval, card.DueAt.Format("2006-01-02"), card.EaseFactor)
			return nil
		},
	}
}

func newReviewDueCmd(g *globals) *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "due",
		Short: "List nodes due for review",
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()
			if at != "" {
				t, err := time.ParseInLocation("2006-01-02", at, time.Local)
				if err != nil {
					return fmt.Errorf("%w: --at must be YYYY-MM-DD", engine.ErrInvalidInput)
				}
				now = t.Add(24*time.Hour - time.Nanosecond)
			}

			s, err := g.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer s.Close()

			due, err := s.engine.DueReviews(cmd.Context(), now)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(due) == 0 {
				fmt.Fprintln(out, "Nothing due.")
				return nil
			}
			rows := make([][]string, len(due))
			for i, d := range due {
				rows[i] = []string{
					shortID(d.Node.ID),
					d.Node.Title,
					d.Card.DueAt.Format("2006-01-02"),
					strconv.Itoa(d.Card.Repetitions),
				}
			}
			table(out, []string{"ID", "TITLE", "DUE", "REPS"}, rows)
			return nil
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "list what is due by the end of this day (YYYY-MM-DD)")
	return cmd
}
