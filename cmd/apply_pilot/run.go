package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/apply-pilot/internal/scheduler"
)

var (
	runDryRun     bool
	runAutoSubmit bool
	runNoTailor   bool
	runMaxPerRun  int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process the approved queue once",
	Long: `Process up to --max-per-run approved jobs: tailor a resume where one is
missing, fill the application form, and leave each job ready for review (or
submitted with --auto-submit). Failed jobs stay approved for the next run.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Log what would happen without touching anything")
	runCmd.Flags().BoolVar(&runAutoSubmit, "auto-submit", false, "Submit immediately after a successful fill")
	runCmd.Flags().BoolVar(&runNoTailor, "no-tailor", false, "Skip resume tailoring")
	runCmd.Flags().IntVar(&runMaxPerRun, "max-per-run", 0, "Cap on jobs processed (0 = config value)")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	s := scheduler.New(a.store, a.orch, a.schedulerOptions(), a.log)
	res, err := s.Tick(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Considered %d, attempted %d, succeeded %d, failed %d, auto-rejected %d\n",
		res.Considered, res.Attempted, res.Succeeded, res.Failed, res.AutoRejected)
	return nil
}

func (a *app) schedulerOptions() scheduler.Options {
	maxPerRun := a.cfg.MaxPerRun
	if runMaxPerRun > 0 {
		maxPerRun = runMaxPerRun
	}
	return scheduler.Options{
		MaxPerRun:  maxPerRun,
		JobDelay:   a.cfg.JobDelay(),
		AutoSubmit: runAutoSubmit || a.cfg.AutoSubmit,
		Tailor:     !runNoTailor,
		DryRun:     runDryRun,
		Policy:     scheduler.Policy{MaxAttempts: a.cfg.MaxAttempts},
	}
}
