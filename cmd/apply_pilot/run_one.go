package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	runOneSubmit   bool
	runOneNoTailor bool
)

var runOneCmd = &cobra.Command{
	Use:   "run-one <id>",
	Short: "Process a single approved job",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunOne,
}

var submitCmd = &cobra.Command{
	Use:   "submit <id>",
	Short: "Submit a job that was filled and reviewed",
	Args:  cobra.ExactArgs(1),
	RunE:  runSubmit,
}

var tailorCmd = &cobra.Command{
	Use:   "tailor <id>",
	Short: "Generate a tailored resume for a job",
	Args:  cobra.ExactArgs(1),
	RunE:  runTailor,
}

func init() {
	runOneCmd.Flags().BoolVar(&runOneSubmit, "submit", false, "Submit immediately after filling")
	runOneCmd.Flags().BoolVar(&runOneNoTailor, "no-tailor", false, "Skip resume tailoring")
	rootCmd.AddCommand(runOneCmd, submitCmd, tailorCmd)
}

func runRunOne(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	id, err := a.resolveJobID(ctx, args[0])
	if err != nil {
		return err
	}

	job, err := a.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if !runOneNoTailor && job.ResumePath == "" {
		if _, err := a.orch.Tailor(ctx, id); err != nil {
			return fmt.Errorf("tailoring failed: %w", err)
		}
	}

	rec, err := a.orch.Fill(ctx, id, runOneSubmit)
	if err != nil {
		return err
	}
	fmt.Printf("%s is now %s (attempt %d)\n", shortID(rec.ID), rec.State, rec.AttemptCount)
	return nil
}

func runSubmit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	id, err := a.resolveJobID(ctx, args[0])
	if err != nil {
		return err
	}
	rec, err := a.orch.Submit(ctx, id)
	if err != nil {
		return err
	}
	fmt.Printf("Submitted %s (%s at %s)\n", shortID(rec.ID), rec.RoleTitle, rec.Company)
	return nil
}

func runTailor(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	id, err := a.resolveJobID(ctx, args[0])
	if err != nil {
		return err
	}
	rec, err := a.orch.Tailor(ctx, id)
	if err != nil {
		return err
	}
	fmt.Printf("Tailored resume for %s: %s\n", shortID(rec.ID), rec.ResumePath)
	return nil
}
