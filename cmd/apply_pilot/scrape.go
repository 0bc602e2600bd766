package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/apply-pilot/internal/scrape"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape <backend:target> [more targets...]",
	Short: "Scrape job sources into the queue",
	Long: `Scrape one or more sources. Targets take the form backend:value, e.g.

  apply_pilot scrape lever:acme greenhouse:widgets
  apply_pilot scrape hackernews:"go engineer"
  apply_pilot scrape hackernews

Backends: lever, greenhouse, ashby (value = board slug),
hackernews (value = optional role filter).`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)
}

func runScrape(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	targets := make([]scrape.Target, 0, len(args))
	for _, arg := range args {
		t, err := scrape.ParseTarget(arg)
		if err != nil {
			return err
		}
		targets = append(targets, t)
	}

	res, err := a.scraper.RunAll(ctx, targets)
	if res != nil {
		fmt.Printf("Found %d postings: %d new, %d already tracked\n",
			res.Found, res.Inserted, res.Skipped)
	}
	if err != nil {
		return fmt.Errorf("scrape finished with errors (backends: %s): %w",
			strings.Join(a.scraper.Backends(), ", "), err)
	}
	return nil
}
