package cmd

import (
	"github.com/spf13/cobra"
)

var (
	onceSource   string
	onceTracking string
)

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run exactly one session and exit",
	Long: "Runs a single extract-summarize-record session against the source\n" +
		"repository and exits. Exits non-zero when the session fails, which\n" +
		"makes it usable from cron or scripts.",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := buildController(cmd.Context(), onceSource, onceTracking, 0)
		if err != nil {
			return err
		}
		return c.RunSession(cmd.Context())
	},
}

func init() {
	onceCmd.Flags().StringVar(&onceSource, "source", "", "path to the monitored repository")
	onceCmd.Flags().StringVar(&onceTracking, "tracking", "", "path to the destination repository")
	onceCmd.MarkFlagRequired("source")
	onceCmd.MarkFlagRequired("tracking")
	rootCmd.AddCommand(onceCmd)
}
