package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func (a *app) statsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show statistics of finished games",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStorage()
			if err != nil {
				return err
			}
			if store == nil {
				return errors.New("storage is disabled")
			}
			defer store.Close()

			stats, err := store.LoadStats()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "games played:  %d\n", stats.GamesPlayed)
			fmt.Fprintf(w, "red wins:      %d (%.1f%%)\n", stats.RedWins, stats.RedWinRate())
			fmt.Fprintf(w, "yellow wins:   %d\n", stats.YellowWins)
			fmt.Fprintf(w, "draws:         %d\n", stats.Draws)
			fmt.Fprintf(w, "longest game:  %d moves\n", stats.LongestGame)
			if stats.ShortestWin > 0 {
				fmt.Fprintf(w, "shortest win:  %d moves\n", stats.ShortestWin)
			}
			fmt.Fprintf(w, "time played:   %s\n", stats.TotalPlayTime.Round(time.Second))

			if saved, found, err := store.LoadGame(); err == nil && found {
				fmt.Fprintf(w, "saved game:    %s\n", saved.Moves)
			}
			return nil
		},
	}
}
