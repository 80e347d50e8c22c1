package dispatcher

import (
	"context"

	"github.com/Nazarious-ucu/weather-threads/internal/models"
)

// Sink receives results in arrival order, one call at a time.
type Sink interface {
	Handle(ctx context.Context, r models.Result) error
}

type SinkFunc func(ctx context.Context, r models.Result) error

func (f SinkFunc) Handle(ctx context.Context, r models.Result) error {
	return f(ctx, r)
}

// Summary counts the outcome of an aggregated run.
type Summary struct {
	RunID        string
	Total        int
	Succeeded    int
	Failed       int
	FailedCities []string
}

func (s Summary) OK() bool {
	return s.Failed == 0
}

// Aggregate receives exactly run.Size() results and hands each to every
// sink as soon as it arrives. A sink error is logged and does not stop
// the remaining receives.
func (d *Dispatcher) Aggregate(ctx context.Context, run *Run, sinks ...Sink) Summary {
	summary := Summary{RunID: run.ID, Total: run.Size()}

	for i := 0; i < run.Size(); i++ {
		res := <-run.Results()

		if res.OK() {
			summary.Succeeded++
		} else {
			summary.Failed++
			summary.FailedCities = append(summary.FailedCities, res.Query)
		}

		for _, sink := range sinks {
			if err := sink.Handle(ctx, res); err != nil {
				d.logger.Error().
					Err(err).
					Str("run_id", run.ID).
					Str("city", res.Query).
					Msg("result sink failed")
			}
		}
	}

	return summary
}

// Execute dispatches cities, aggregates every result into sinks and joins
// all units before returning.
func (d *Dispatcher) Execute(ctx context.Context, cities []string, sinks ...Sink) (Summary, error) {
	run := d.Dispatch(ctx, cities)
	summary := d.Aggregate(ctx, run, sinks...)
	if err := run.Wait(); err != nil {
		return summary, err
	}

	d.logger.Info().
		Str("run_id", run.ID).
		Int("total", summary.Total).
		Int("succeeded", summary.Succeeded).
		Int("failed", summary.Failed).
		Msg("run complete")

	return summary, nil
}

// Collect is Execute with the results also gathered in arrival order.
func (d *Dispatcher) Collect(ctx context.Context, cities []string, sinks ...Sink) ([]models.Result, error) {
	results := make([]models.Result, 0, len(cities))
	gather := SinkFunc(func(_ context.Context, r models.Result) error {
		results = append(results, r)
		return nil
	})
	_, err := d.Execute(ctx, cities, append([]Sink{gather}, sinks...)...)
	return results, err
}
