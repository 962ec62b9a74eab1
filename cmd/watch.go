package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/worklog/internal/logging"
)

var (
	watchSource   string
	watchTracking string
	watchInterval int
	watchFS       bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll the source repository and record session summaries",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logging.NewLogger("worklog")
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		c, err := buildController(ctx, watchSource, watchTracking, intervalFromFlag(watchInterval))
		if err != nil {
			return err
		}

		if watchFS {
			go func() {
				if err := c.WatchFS(ctx, watchSource); err != nil {
					log.WithError(err).Warn("file watcher stopped")
				}
			}()
		}

		log.WithFields(logrus.Fields{
			"source":   watchSource,
			"tracking": watchTracking,
			"interval": c.Interval,
		}).Info("watching repository")

		return c.Run(ctx)
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchSource, "source", "", "path to the monitored repository")
	watchCmd.Flags().StringVar(&watchTracking, "tracking", "", "path to the destination repository")
	watchCmd.Flags().IntVar(&watchInterval, "interval", 0, "seconds between sessions (default 1800)")
	watchCmd.Flags().BoolVar(&watchFS, "watch-fs", false, "trigger early sessions on file changes")
	watchCmd.MarkFlagRequired("source")
	watchCmd.MarkFlagRequired("tracking")
	rootCmd.AddCommand(watchCmd)
}
