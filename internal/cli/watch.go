package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

const defaultSchedule = "@every 1m"

var errNoCities = errors.New("at least one city is required")

func newWatchCmd(rt *runtime) *cobra.Command {
	var schedule string

	cmd := &cobra.Command{
		Use:   "watch city [city...]",
		Short: "Fetch the cities now and again on every schedule tick",
		Example: "  weather-threads watch --schedule \"@every 30s\" Paris Lviv\n" +
			"  weather-threads watch --schedule \"0 */15 * * * *\" Kyiv",
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errNoCities
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.app.Watch(cmd.Context(), schedule, args, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVar(&schedule, "schedule", defaultSchedule, "cron expression or descriptor such as @every 5m")

	return cmd
}
