package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/apply-pilot/internal/platform"
)

var detectCmd = &cobra.Command{
	Use:   "detect <url>",
	Short: "Show which platform a posting URL maps to",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		p := platform.Detect(args[0])
		fmt.Println(p)
		if p == platform.Unknown {
			return fmt.Errorf("no supported platform matches %s", args[0])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(detectCmd)
}
