package cli

import (
	"github.com/spf13/cobra"
)

func newServeCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve GET /weather?city=... and /metrics over HTTP",
		Long: "Starts an HTTP server on WEATHER_SERVER_HOST:WEATHER_SERVER_PORT. Every\n" +
			"GET /weather request fans out one fetch per city query value.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rt.app.Serve(cmd.Context())
		},
	}
}
