// Package main provides the apply_pilot CLI: a job application pipeline that
// scrapes postings, queues them for operator review, and drives tailored
// applications through headless browser sessions.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	flagConfig  string
	flagVerbose bool
	flagJSONLog bool
)

var rootCmd = &cobra.Command{
	Use:   "apply_pilot",
	Short: "Job application pipeline",
	Long: `apply_pilot scrapes job postings, keeps them in a reviewable queue, and
applies to approved ones: tailoring a resume per posting, filling the ATS
form, and answering screening questions from an operator lookup table with
an AI fallback.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to JSON config file")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&flagJSONLog, "json-log", false, "Emit JSON logs")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
