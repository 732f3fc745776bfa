// Package cli implements the connectplay command line.
package cli

import (
	"fmt"
	"os"
	"runtime/pprof"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hailam/connectplay/internal/config"
	"github.com/hailam/connectplay/internal/engine"
	"github.com/hailam/connectplay/internal/logging"
	"github.com/hailam/connectplay/internal/storage"
)

// app is the state shared by every subcommand.
type app struct {
	configPath string
	logLevel   string
	cpuprofile string

	cfg     config.Config
	log     zerolog.Logger
	profile *os.File
}

// Execute runs the command line with os.Args.
func Execute() error {
	return NewRootCommand().Execute()
}

// NewRootCommand builds the full command tree.
func NewRootCommand() *cobra.Command {
	a := &app{log: zerolog.Nop()}

	root := &cobra.Command{
		Use:   "connectplay",
		Short: "Connect four with a live analysis engine",
		Long: `connectplay plays connect four on a 7x6 board while an analysis engine
explores the game tree in the background and keeps a running evaluation
and recommended move for the current position.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			a.stopProfile()
			return nil
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (YAML or JSON)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level, overrides the config file")
	root.PersistentFlags().StringVar(&a.cpuprofile, "cpuprofile", "", "write cpu profile to file")

	root.AddCommand(
		a.playCommand(),
		a.analyzeCommand(),
		a.serveCommand(),
		a.renderCommand(),
		a.statsCommand(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	a.cfg = cfg

	a.log, err = logging.New(cfg.Logging)
	if err != nil {
		return err
	}

	// Start CPU profiling if requested (via flag or environment variable)
	profilePath := a.cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			return fmt.Errorf("could not create CPU profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			f.Close()
			return fmt.Errorf("could not start CPU profile: %w", err)
		}
		a.profile = f
		a.log.Info().Str("path", profilePath).Msg("cpu-profiling-enabled")
	}
	return nil
}

func (a *app) stopProfile() {
	if a.profile == nil {
		return
	}
	pprof.StopCPUProfile()
	a.profile.Close()
	a.profile = nil
}

// engineOptions maps the analysis config onto the analyzer.
func (a *app) engineOptions() engine.Options {
	return engine.Options{
		ReportInterval: a.cfg.Analysis.ReportInterval,
		IdlePoll:       a.cfg.Analysis.IdlePoll,
		MaxNodes:       a.cfg.Analysis.MaxNodes,
		Logger:         &a.log,
	}
}

// openStorage opens the configured database, or returns nil when storage
// is disabled.
func (a *app) openStorage() (*storage.Storage, error) {
	if a.cfg.Storage.Disabled {
		return nil, nil
	}
	return storage.Open(a.cfg.Storage.Dir)
}
