package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"raven/internal/config"
	"raven/internal/observ"
	"raven/internal/prof"
)

// run holds what setupRun prepared for the command being executed.
var run struct {
	log     *slog.Logger
	closer  io.Closer
	timer   *observ.Timer
	timings bool
	profile *prof.Session
}

func setupRun(cmd *cobra.Command, _ []string) error {
	flags := cmd.Root().PersistentFlags()
	colorMode, _ := flags.GetString("color")
	switch strings.ToLower(colorMode) {
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	case "", "auto":
		color.NoColor = color.NoColor || !isTerminal(os.Stdout)
	default:
		return fmt.Errorf("invalid --color value %q (expected auto|on|off)", colorMode)
	}

	var opts prof.Options
	opts.CPU, _ = flags.GetString("cpuprofile")
	opts.Mem, _ = flags.GetString("memprofile")
	opts.Trace, _ = flags.GetString("trace")
	if opts.Enabled() {
		session, err := prof.Start(opts)
		if err != nil {
			return err
		}
		run.profile = session
	}

	run.timings, _ = flags.GetBool("timings")
	run.timer = observ.NewTimer()
	run.log, run.closer = newLogger(cmd)
	return nil
}

func finishRun(*cobra.Command, []string) error {
	if run.timings && len(run.timer.Report().Phases) > 0 {
		fmt.Fprint(os.Stderr, run.timer.Summary())
	}
	var err error
	if run.profile != nil {
		err = run.profile.Stop()
	}
	if run.closer != nil {
		if cerr := run.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// newLogger builds the logger from the log section of the effective
// config, with the command-line flags on top. stdout is never used.
func newLogger(cmd *cobra.Command) (*slog.Logger, io.Closer) {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	cfg, err := config.NewLoader(cwd, nil).Load()
	if err != nil {
		cfg = config.Default()
	}
	flags := cmd.Root().PersistentFlags()
	if level, _ := flags.GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}
	if file, _ := flags.GetString("log-file"); file != "" {
		cfg.Log.File = file
	}
	verbose, _ := flags.GetBool("verbose")
	return config.NewLogger(cfg.Log, verbose, os.Stderr)
}
