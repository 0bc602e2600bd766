package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/apply-pilot/internal/store"
)

var (
	approveAll   bool
	rejectReason string
)

var approveCmd = &cobra.Command{
	Use:   "approve [id]",
	Short: "Approve a scraped job for processing",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runApprove,
}

var skipCmd = &cobra.Command{
	Use:   "skip <id>",
	Short: "Skip a job (operator pass)",
	Args:  cobra.ExactArgs(1),
	RunE:  runSkip,
}

var rejectCmd = &cobra.Command{
	Use:   "reject <id>",
	Short: "Reject a job permanently",
	Args:  cobra.ExactArgs(1),
	RunE:  runReject,
}

func init() {
	approveCmd.Flags().BoolVar(&approveAll, "all", false, "Approve every scraped job")
	rejectCmd.Flags().StringVar(&rejectReason, "reason", "", "Why the job is rejected")
	rootCmd.AddCommand(approveCmd, skipCmd, rejectCmd)
}

func runApprove(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if approveAll {
		if len(args) > 0 {
			return fmt.Errorf("--all takes no job argument")
		}
		jobs, err := a.store.List(ctx, store.Filter{State: store.StateScraped})
		if err != nil {
			return fmt.Errorf("failed to list scraped jobs: %w", err)
		}
		approved := 0
		for _, j := range jobs {
			if _, err := a.orch.Approve(ctx, j.ID); err != nil {
				fmt.Fprintf(os.Stderr, "skipping %s: %v\n", shortID(j.ID), err)
				continue
			}
			approved++
		}
		fmt.Printf("Approved %d of %d scraped jobs\n", approved, len(jobs))
		return nil
	}

	if len(args) != 1 {
		return fmt.Errorf("provide a job ID or --all")
	}
	id, err := a.resolveJobID(ctx, args[0])
	if err != nil {
		return err
	}
	rec, err := a.orch.Approve(ctx, id)
	if err != nil {
		return err
	}
	fmt.Printf("Approved %s (%s at %s)\n", shortID(rec.ID), rec.RoleTitle, rec.Company)
	return nil
}

func runSkip(cmd *cobra.Command, args []string) error {
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
	rec, err := a.orch.Skip(ctx, id)
	if err != nil {
		return err
	}
	fmt.Printf("Skipped %s\n", shortID(rec.ID))
	return nil
}

func runReject(cmd *cobra.Command, args []string) error {
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
	rec, err := a.orch.Reject(ctx, id, rejectReason)
	if err != nil {
		return err
	}
	fmt.Printf("Rejected %s\n", shortID(rec.ID))
	return nil
}
