package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/apply-pilot/internal/store"
)

var queueState string

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "List tracked jobs",
	RunE:  runQueue,
}

func init() {
	queueCmd.Flags().StringVar(&queueState, "state", "", "Filter by state (scraped, approved, ready, submitted, skipped, rejected)")
	rootCmd.AddCommand(queueCmd)
}

func runQueue(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	var filter store.Filter
	if queueState != "" {
		state := store.State(queueState)
		if !state.Valid() {
			return fmt.Errorf("invalid state %q", queueState)
		}
		filter.State = state
	}

	jobs, err := a.store.List(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to list jobs: %w", err)
	}
	if len(jobs) == 0 {
		fmt.Println("No jobs.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATE\tPLATFORM\tCOMPANY\tROLE\tATTEMPTS\tLAST ERROR")
	for _, j := range jobs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			shortID(j.ID), j.State, j.Platform,
			clip(j.Company, 24), clip(j.RoleTitle, 32),
			j.AttemptCount, clip(j.LastError, 40))
	}
	return w.Flush()
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}

func clip(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
