package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hailam/connectplay/internal/board"
	"github.com/hailam/connectplay/internal/engine"
	"github.com/hailam/connectplay/internal/feed"
)

func (a *app) serveCommand() *cobra.Command {
	var (
		addr  string
		moves string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve live analysis over HTTP and websockets",
		Long: `serve runs the analyzer headless and publishes its reports:

  GET  /api/status        current position and latest report
  POST /api/position      {"moves":"4453"} or {"grid":"..."} sets the position
  GET  /api/position.png  the current position as an image
  GET  /ws/analysis       websocket stream of status and report messages
  GET  /metrics           Prometheus metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("addr") {
				addr = a.cfg.Server.Addr
			}
			start, err := board.FromMoves(moves)
			if err != nil {
				return fmt.Errorf("invalid --moves: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rep := engine.NewChanReporter()
			analyzer := engine.New(start, rep, a.engineOptions())
			srv, err := feed.New(analyzer, feed.Options{
				Session: analyzer.Session(),
				Moves:   moves,
				Logger:  &a.log,
			})
			if err != nil {
				return err
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return analyzer.Run(gctx)
			})
			g.Go(func() error {
				return srv.Run(gctx, rep.Reports())
			})
			g.Go(func() error {
				// Any exit of the HTTP server ends the session.
				defer analyzer.Close()
				defer stop()
				return srv.ListenAndServe(gctx, addr)
			})
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address, overrides the config file")
	cmd.Flags().StringVar(&moves, "moves", "", "starting position as column digits")
	return cmd
}
