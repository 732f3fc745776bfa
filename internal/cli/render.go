package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/hailam/connectplay/internal/board"
	"github.com/hailam/connectplay/internal/render"
)

func (a *app) renderCommand() *cobra.Command {
	var (
		moves     string
		grid      string
		output    string
		cell      int
		highlight int
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Draw a position as a PNG image",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				b   board.Board
				err error
			)
			if grid != "" {
				b, err = board.ParseGrid(grid)
			} else {
				b, err = board.FromMoves(moves)
			}
			if err != nil {
				return fmt.Errorf("invalid position: %w", err)
			}
			if highlight < 0 || highlight > board.Cols {
				return fmt.Errorf("--highlight must be between 0 and %d", board.Cols)
			}

			opts := &render.Options{CellSize: cell, Highlight: highlight - 1}

			var w io.Writer = cmd.OutOrStdout()
			if output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			if err := render.PNG(w, b, opts); err != nil {
				return err
			}
			a.log.Debug().Str("output", output).Msg("board-rendered")
			return nil
		},
	}
	cmd.Flags().StringVar(&moves, "moves", "", "position as column digits")
	cmd.Flags().StringVar(&grid, "grid", "", "position as a grid, rows top first separated by '/'")
	cmd.Flags().StringVarP(&output, "output", "o", "board.png", "output file, - for stdout")
	cmd.Flags().IntVar(&cell, "cell", render.DefaultCellSize, "cell size in pixels")
	cmd.Flags().IntVar(&highlight, "highlight", 0, "column 1-7 to highlight, 0 for none")
	return cmd
}
