package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/apply-pilot/internal/platform"
	"github.com/jonathan/apply-pilot/internal/store"
)

var (
	addCompany string
	addRole    string
	addJDFile  string
)

var addCmd = &cobra.Command{
	Use:   "add <url>",
	Short: "Add a job posting by URL",
	Args:  cobra.ExactArgs(1),
	RunE:  runAdd,
}

func init() {
	addCmd.Flags().StringVar(&addCompany, "company", "", "Company name")
	addCmd.Flags().StringVar(&addRole, "role", "", "Role title")
	addCmd.Flags().StringVar(&addJDFile, "jd-file", "", "Path to a file with the job description text")
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	jdText, err := readOptionalFile(addJDFile)
	if err != nil {
		return err
	}

	url := args[0]
	rec, created, err := a.store.Insert(ctx, store.InsertInput{
		URL:       url,
		Company:   addCompany,
		RoleTitle: addRole,
		JDText:    jdText,
		Platform:  platform.Detect(url),
		Source:    "manual",
	})
	if err != nil {
		return fmt.Errorf("failed to add job: %w", err)
	}

	if !created {
		fmt.Printf("Already tracked: %s (%s)\n", shortID(rec.ID), rec.State)
		return nil
	}
	fmt.Printf("Added %s  platform=%s\n", shortID(rec.ID), rec.Platform)
	if rec.Platform == platform.Unknown {
		fmt.Println("Platform not recognized; this job can be reviewed but not auto-filled.")
	}
	return nil
}

// readOptionalFile reads the file at path, or returns "" when no path was
// given.
func readOptionalFile(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}
