package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/hailam/connectplay/internal/board"
	"github.com/hailam/connectplay/internal/engine"
)

type analysisResult struct {
	Moves      string        `json:"moves"`
	Hash       string        `json:"hash"`
	Score      int           `json:"score"`
	ScoreText  string        `json:"score_text"`
	BestColumn int           `json:"best_column"` // 1-7, 0 when unknown
	Nodes      int           `json:"nodes"`
	Exact      bool          `json:"exact"`
	Elapsed    time.Duration `json:"elapsed_ns"`
}

func (a *app) analyzeCommand() *cobra.Command {
	var (
		moves  string
		limit  time.Duration
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a position for a fixed time and print the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := board.FromMoves(moves)
			if err != nil {
				return fmt.Errorf("invalid --moves: %w", err)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), limit)
			defer cancel()

			start := time.Now()
			last, err := a.analyze(ctx, root)
			if err != nil {
				return err
			}

			res := analysisResult{
				Moves:      moves,
				Hash:       fmt.Sprintf("%016x", root.Hash()),
				Score:      last.Score,
				ScoreText:  engine.FormatScore(last.Score),
				BestColumn: last.Column + 1,
				Nodes:      last.Nodes,
				Exact:      last.Exhausted,
				Elapsed:    time.Since(start),
			}
			return printAnalysis(cmd.OutOrStdout(), root, res, asJSON)
		},
	}
	cmd.Flags().StringVar(&moves, "moves", "", "position to analyze as column digits, e.g. 4453")
	cmd.Flags().DurationVar(&limit, "for", 5*time.Second, "maximum analysis time")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

// analyze runs an analyzer on root until its subtree is exhausted or ctx
// is done, and returns the last report for root.
func (a *app) analyze(ctx context.Context, root board.Board) (engine.Report, error) {
	rep := engine.NewChanReporter()
	analyzer := engine.New(root, rep, a.engineOptions())

	last := engine.Report{Root: root, Column: engine.NoRecommendation}
	err := runTogether(ctx, analyzer, func(ctx context.Context) error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case r := <-rep.Reports():
				if r.Root != root {
					continue
				}
				last = r
				if r.Exhausted {
					return nil
				}
			}
		}
	})
	return last, err
}

func printAnalysis(w io.Writer, root board.Board, res analysisResult, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	best := "none"
	if res.BestColumn > 0 {
		best = fmt.Sprint(res.BestColumn)
	}
	exact := "no"
	if res.Exact {
		exact = "yes"
	}
	fmt.Fprintf(w, "%s\n\n", root)
	fmt.Fprintf(w, "score:  %s\n", res.ScoreText)
	fmt.Fprintf(w, "best:   %s\n", best)
	fmt.Fprintf(w, "nodes:  %d\n", res.Nodes)
	fmt.Fprintf(w, "exact:  %s\n", exact)
	fmt.Fprintf(w, "time:   %s\n", res.Elapsed.Round(time.Millisecond))
	return nil
}
