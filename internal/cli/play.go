package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hailam/connectplay/internal/board"
	"github.com/hailam/connectplay/internal/console"
	"github.com/hailam/connectplay/internal/engine"
	"github.com/hailam/connectplay/internal/storage"
)

func (a *app) playCommand() *cobra.Command {
	var (
		moves      string
		human      string
		noAnalysis bool
	)
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play an interactive game with live analysis",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, err := a.openStorage()
			if err != nil {
				a.log.Warn().Err(err).Msg("storage-unavailable")
				store = nil
			}
			if store != nil {
				defer store.Close()
			}

			opts := console.Options{
				Human:        a.cfg.Game.Human,
				ShowAnalysis: a.cfg.Game.ShowAnalysis && !noAnalysis,
				ThinkTime:    a.cfg.Game.ThinkTime,
				Moves:        moves,
				Logger:       &a.log,
			}
			if cmd.Flags().Changed("human") {
				opts.Human = human
			}
			if store != nil {
				opts.Store = store
				a.restore(cmd, store, &opts)
			}

			start, err := board.FromMoves(opts.Moves)
			if err != nil {
				return fmt.Errorf("invalid --moves: %w", err)
			}
			rep := engine.NewChanReporter()
			analyzer := engine.New(start, rep, a.engineOptions())
			c, err := console.New(cmd.InOrStdin(), cmd.OutOrStdout(), analyzer, rep.Reports(), opts)
			if err != nil {
				return err
			}

			err = runTogether(ctx, analyzer, func(ctx context.Context) error {
				return c.Run(ctx)
			})

			if store != nil {
				prefs := &storage.Preferences{Human: opts.Human, ShowAnalysis: opts.ShowAnalysis}
				if serr := store.SavePreferences(prefs); serr != nil {
					a.log.Warn().Err(serr).Msg("save-preferences-failed")
				}
			}
			return err
		},
	}
	cmd.Flags().StringVar(&moves, "moves", "", "start from the position reached by these columns, e.g. 4453")
	cmd.Flags().StringVar(&human, "human", "both", "side(s) played from the keyboard: red, yellow or both")
	cmd.Flags().BoolVar(&noAnalysis, "no-analysis", false, "do not print solved positions")
	return cmd
}

// restore fills in the saved game and welcome text from storage.
func (a *app) restore(cmd *cobra.Command, store *storage.Storage, opts *console.Options) {
	if first, err := store.IsFirstLaunch(); err == nil && first {
		opts.ShowHelp = true
		if err := store.MarkFirstLaunchComplete(); err != nil {
			a.log.Warn().Err(err).Msg("mark-first-launch-failed")
		}
	}
	if cmd.Flags().Changed("moves") {
		return
	}
	saved, found, err := store.LoadGame()
	if err != nil {
		a.log.Warn().Err(err).Msg("load-game-failed")
		return
	}
	if !found || saved.Moves == "" {
		return
	}
	if _, err := board.FromMoves(saved.Moves); err != nil {
		a.log.Warn().Err(err).Str("moves", saved.Moves).Msg("saved-game-invalid")
		store.ClearGame()
		return
	}
	opts.Moves = saved.Moves
	fmt.Fprintf(cmd.OutOrStdout(), "resuming game saved %s\n", saved.SavedAt.Format("2006-01-02 15:04"))
}

// runTogether runs the analyzer alongside a foreground task and stops the
// analyzer once the task returns.
func runTogether(ctx context.Context, analyzer *engine.Analyzer, fg func(context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return analyzer.Run(gctx)
	})
	g.Go(func() error {
		defer analyzer.Close()
		return fg(gctx)
	})
	return g.Wait()
}
