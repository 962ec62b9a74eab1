package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/worklog/internal/record"
)

var viewTracking string

var viewCmd = &cobra.Command{
	Use:   "view [file]",
	Short: "Display a session record",
	Long: "Parses a session record file and prints it. With --tracking, shows\n" +
		"the most recent record in the tracking repository instead.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var path string
		switch {
		case len(args) == 1:
			path = args[0]
		case viewTracking != "":
			latest, err := latestRecord(viewTracking)
			if err != nil {
				return err
			}
			path = latest
		default:
			return fmt.Errorf("pass a record file or --tracking")
		}

		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("file not found: %s", path)
			}
			return err
		}

		r, err := record.Parse(data)
		if err != nil {
			return err
		}
		printRecord(cmd, r)
		return nil
	},
}

// latestRecord returns the newest record file in the tracking repository.
// Record names sort chronologically by construction.
func latestRecord(tracking string) (string, error) {
	pattern := filepath.Join(tracking, "sessions", "*.md")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no session records under %s", tracking)
	}
	sort.Strings(matches)
	return matches[len(matches)-1], nil
}

func printRecord(cmd *cobra.Command, r *record.Record) {
	cmd.Printf("%s %s\n", styled(labelStyle, "Session:"), r.ID)
	cmd.Printf("%s %s\n", styled(labelStyle, "Source:"), r.SourceRepo)
	cmd.Printf("%s %s\n", styled(labelStyle, "When:"), r.Timestamp.Format("2006-01-02 15:04:05 MST"))
	if r.Truncated {
		cmd.Println(styled(dimStyle, "(changeset was truncated to fit request limits)"))
	}
	cmd.Println()
	for i, e := range r.Entries {
		cmd.Printf("%d. %s (%s)\n", i+1, e.Path, e.Kind)
		for _, b := range e.Bullets {
			cmd.Printf("   - %s\n", b)
		}
	}
	cmd.Println()
	cmd.Println(styled(labelStyle, "Summary:"))
	cmd.Println(r.Summary)
}

func init() {
	viewCmd.Flags().StringVar(&viewTracking, "tracking", "", "path to the tracking repository")
	rootCmd.AddCommand(viewCmd)
}
