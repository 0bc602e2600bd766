package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/apply-pilot/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show pipeline statistics",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	counts, err := a.store.Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to read stats: %w", err)
	}

	total := 0
	max := 0
	for _, n := range counts {
		total += n
		if n > max {
			max = n
		}
	}
	if total == 0 {
		fmt.Println("No jobs tracked yet.")
		return nil
	}

	for _, state := range store.States() {
		n := counts[state]
		bar := ""
		if max > 0 {
			bar = strings.Repeat("█", n*30/max)
		}
		fmt.Printf("%-10s %4d  %s\n", state, n, bar)
	}

	submitted := counts[store.StateSubmitted]
	attempted := submitted + counts[store.StateRejected]
	fmt.Printf("\nTotal: %d", total)
	if attempted > 0 {
		fmt.Printf("  Success rate: %.0f%%", 100*float64(submitted)/float64(attempted))
	}
	fmt.Println()
	return nil
}
