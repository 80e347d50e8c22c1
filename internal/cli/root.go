package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Nazarious-ucu/weather-threads/internal/app"
	"github.com/Nazarious-ucu/weather-threads/internal/config"
	"github.com/Nazarious-ucu/weather-threads/internal/services/metrics"
	"github.com/Nazarious-ucu/weather-threads/pkg/logger"
)

const (
	serviceName    = "weather-threads"
	metricsName    = "weather_threads"
	defaultEnvFile = ".env"
)

const (
	ExitOK = iota
	ExitPartialFailure
	ExitSetupError
)

// ErrPartialFailure is returned when at least one city could not be fetched.
var ErrPartialFailure = errors.New("weather could not be fetched for every city")

type options struct {
	envFile     string
	timeout     time.Duration
	concurrency int
	logLevel    string
}

type runtime struct {
	cfg *config.Config
	l   zerolog.Logger
	app *app.App
}

// NewRootCmd builds the weather-threads command tree. Extra app options are
// applied to every App the commands create.
func NewRootCmd(appOpts ...app.Option) *cobra.Command {
	opts := &options{}
	rt := &runtime{}

	root := &cobra.Command{
		Use:   "weather-threads [city...]",
		Short: "Fetch current weather for many cities concurrently",
		Long: "Fetches the current weather of every city argument from OpenWeatherMap,\n" +
			"one concurrent request per city, and prints one line per city as soon\n" +
			"as its answer arrives.",
		Example:       "  OPEN_WEATHER_MAP_API_KEY=... weather-threads Paris Lviv \"New York\"",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return rt.load(cmd, opts, appOpts)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := rt.app.Run(cmd.Context(), args, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if !summary.OK() {
				return fmt.Errorf("%w: %d of %d failed", ErrPartialFailure, summary.Failed, summary.Total)
			}
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.envFile, "env-file", defaultEnvFile, "dotenv file to load before reading the environment")
	flags.DurationVar(&opts.timeout, "timeout", 0, "per-city request timeout (overrides WEATHER_REQUEST_TIMEOUT)")
	flags.IntVar(&opts.concurrency, "concurrency", 0,
		"maximum requests in flight, 0 for unbounded (overrides WEATHER_MAX_CONCURRENCY)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")

	root.AddCommand(newWatchCmd(rt), newServeCmd(rt))

	return root
}

func (rt *runtime) load(cmd *cobra.Command, opts *options, appOpts []app.Option) error {
	envErr := godotenv.Load(opts.envFile)
	if envErr != nil && (cmd.Flags().Changed("env-file") || !errors.Is(envErr, os.ErrNotExist)) {
		return fmt.Errorf("load %s: %w", opts.envFile, envErr)
	}

	cfg, err := config.NewConfig()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("timeout") {
		cfg.Fetch.RequestTimeout = opts.timeout
	}
	if flags.Changed("concurrency") {
		cfg.Fetch.MaxConcurrency = opts.concurrency
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = opts.logLevel
	}

	rt.cfg = cfg
	rt.l = logger.NewLogger(cmd.ErrOrStderr(), cfg.Log.Path, serviceName, logger.ParseLevel(cfg.Log.Level))
	rt.app = app.New(*cfg, rt.l, metrics.NewMetrics(metricsName), appOpts...)

	if envErr != nil {
		rt.l.Debug().Str("env_file", opts.envFile).Msg("no dotenv file found")
	}
	return nil
}

// ExitCode maps a command error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrPartialFailure):
		return ExitPartialFailure
	default:
		return ExitSetupError
	}
}

// Run executes the command tree with args and returns the exit status.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer, appOpts ...app.Option) int {
	root := NewRootCmd(appOpts...)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err != nil && !errors.Is(err, ErrPartialFailure) {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return ExitCode(err)
}

// Execute runs the CLI against the process arguments until it finishes or
// SIGINT/SIGTERM arrives.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
}
