package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/apply-pilot/internal/answers"
	"github.com/jonathan/apply-pilot/internal/scheduler"
)

var (
	daemonInterval  time.Duration
	daemonMaxPerRun int
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the pipeline continuously",
	Long: `Tick the approved queue on an interval until interrupted. The answers
file is watched for changes, so lookup table edits apply without a restart.
SIGINT/SIGTERM stop the daemon between jobs, never mid-transition.`,
	RunE: runDaemon,
}

func init() {
	daemonCmd.Flags().DurationVar(&daemonInterval, "interval", 0, "Time between ticks (0 = config value)")
	daemonCmd.Flags().IntVar(&daemonMaxPerRun, "max-per-run", 0, "Cap on jobs per tick (0 = config value)")
	daemonCmd.Flags().BoolVar(&runAutoSubmit, "auto-submit", false, "Submit immediately after a successful fill")
	daemonCmd.Flags().BoolVar(&runNoTailor, "no-tailor", false, "Skip resume tailoring")
	rootCmd.AddCommand(daemonCmd)
}

func runDaemon(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.cfg.AnswersFile != "" {
		go func() {
			if err := answers.Watch(ctx, a.cfg.AnswersFile, a.resolver, a.log); err != nil && ctx.Err() == nil {
				a.log.Warnw("Answers file watch stopped", "error", err)
			}
		}()
	}

	runMaxPerRun = daemonMaxPerRun
	interval := a.cfg.Interval()
	if daemonInterval > 0 {
		interval = daemonInterval
	}

	s := scheduler.New(a.store, a.orch, a.schedulerOptions(), a.log)
	a.log.Infow("Daemon starting", "interval", interval)
	err = s.Run(ctx, interval)
	if err == nil || err == context.Canceled {
		a.log.Infow("Daemon stopped")
		return nil
	}
	return err
}
