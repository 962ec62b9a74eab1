package cmd

import (
	"errors"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/worklog/internal/snapshot"
)

var statusSource string

var (
	labelStyle = lipgloss.NewStyle().Bold(true)
	dimStyle   = lipgloss.NewStyle().Faint(true)
)

// styled applies s only when stdout is an interactive terminal.
func styled(s lipgloss.Style, text string) string {
	if !term.IsTerminal(os.Stdout.Fd()) {
		return text
	}
	return s.Render(text)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the snapshot marker state for a source repository",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := snapshot.NewStore(statusSource)
		if err != nil {
			return err
		}

		m, err := store.Load()
		if err != nil {
			if errors.Is(err, snapshot.ErrNoMarker) {
				cmd.Println("no sessions recorded yet")
				return nil
			}
			return err
		}

		cmd.Printf("%s %s (%s)\n",
			styled(labelStyle, "Last session:"),
			m.Timestamp.Format("2006-01-02 15:04:05 MST"),
			humanize.Time(m.Timestamp),
		)
		cmd.Printf("%s %d\n", styled(labelStyle, "Tracked dirty paths:"), len(m.Digests))
		cmd.Printf("%s %s\n", styled(labelStyle, "Marker:"), styled(dimStyle, store.Path()))
		return nil
	},
}

func init() {
	statusCmd.Flags().StringVar(&statusSource, "source", ".", "path to the monitored repository")
	rootCmd.AddCommand(statusCmd)
}
