package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/coursegen/internal/config"
	"github.com/Iron-Ham/coursegen/internal/event"
	"github.com/Iron-Ham/coursegen/internal/tui"
	"github.com/Iron-Ham/coursegen/internal/workflow"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the current session in a live view",
	Long: `Follow the current session while the service works on it. The view
shows the step, the lessons being rendered and recent notifications.

Edits to the config file's polling intervals take effect for loops started
afterwards, without restarting the view.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

var watchExit bool

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().BoolVar(&watchExit, "exit", false, "quit once nothing is left to wait for")
}

func runWatch(cmd *cobra.Command, args []string) error {
	return withSession(cmd, func(ctx context.Context, a *app, sess *workflow.Session) error {
		// notifications are rendered by the view instead
		a.muteNotifications()
		config.Watch(viper.GetViper(), a.applyConfig)

		var opts []tui.ModelOption
		if watchExit {
			opts = append(opts, tui.WithExitWhenIdle())
		}
		return tui.New(a.orch, a.styles, opts...).Run(ctx)
	})
}

// applyConfig takes over reloaded polling intervals. An invalid file keeps
// the running configuration.
func (a *app) applyConfig(cfg *config.Config, err error) {
	bus := a.orch.Bus()
	if err != nil {
		a.logger.Warn("config reload rejected", "error", err)
		bus.Publish(event.NewNotificationEvent(event.LevelWarn, "Config not reloaded", err.Error()))
		return
	}
	a.orch.Scheduler().SetIntervals(intervals(cfg.Polling))
	a.logger.Info("config reloaded",
		"session_interval", cfg.Polling.SessionInterval,
		"presentation_interval", cfg.Polling.PresentationInterval,
		"video_interval", cfg.Polling.VideoInterval)
	bus.Publish(event.NewNotificationEvent(event.LevelInfo, "Config reloaded", ""))
}
