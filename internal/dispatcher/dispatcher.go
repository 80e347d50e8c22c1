package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/Nazarious-ucu/weather-threads/internal/models"
)

var ErrUnitPanicked = errors.New("fetch unit panicked")

type weatherFetcher interface {
	Fetch(ctx context.Context, city string) (models.CallResult, error)
}

type Options struct {
	// UnitTimeout bounds each fetch, not the wait for a free slot. Zero
	// means no timeout.
	UnitTimeout time.Duration
	// MaxConcurrency bounds how many units fetch at once. Zero means one
	// running unit per city.
	MaxConcurrency int
}

// Dispatcher fans a list of cities out to one goroutine each.
type Dispatcher struct {
	fetcher weatherFetcher
	opts    Options
	sem     *semaphore.Weighted
	logger  zerolog.Logger
}

func New(fetcher weatherFetcher, opts Options, logger zerolog.Logger) *Dispatcher {
	d := &Dispatcher{
		fetcher: fetcher,
		opts:    opts,
		logger:  logger.With().Str("component", "Dispatcher").Logger(),
	}
	if opts.MaxConcurrency > 0 {
		d.sem = semaphore.NewWeighted(int64(opts.MaxConcurrency))
	}
	return d
}

// Run is one fan-out. Exactly Size results are delivered on Results.
type Run struct {
	ID      string
	size    int
	results chan models.Result
	group   *errgroup.Group
}

func (r *Run) Size() int {
	return r.size
}

func (r *Run) Results() <-chan models.Result {
	return r.results
}

// Wait blocks until every unit of the run has returned.
func (r *Run) Wait() error {
	return r.group.Wait()
}

// Dispatch starts one unit per city, duplicates included, and returns
// without waiting for any of them.
func (d *Dispatcher) Dispatch(ctx context.Context, cities []string) *Run {
	run := &Run{
		ID:      uuid.NewString(),
		size:    len(cities),
		results: make(chan models.Result, len(cities)),
		group:   &errgroup.Group{},
	}

	d.logger.Debug().
		Str("run_id", run.ID).
		Int("units", run.size).
		Int("max_concurrency", d.opts.MaxConcurrency).
		Msg("dispatching fetch units")

	for _, city := range cities {
		run.group.Go(func() error {
			d.unit(ctx, run.ID, city, run.results)
			return nil
		})
	}

	return run
}

// unit sends exactly one result on out, whatever happens inside Fetch.
func (d *Dispatcher) unit(ctx context.Context, runID, city string, out chan<- models.Result) {
	var res models.Result

	defer func() {
		if p := recover(); p != nil {
			d.logger.Error().
				Str("run_id", runID).
				Str("city", city).
				Interface("panic", p).
				Msg("fetch unit panicked")
			res = models.Failure(city, fmt.Errorf("%w: %v", ErrUnitPanicked, p))
		}
		res.RunID = runID
		out <- res
	}()

	if d.sem != nil {
		if err := d.sem.Acquire(ctx, 1); err != nil {
			res = models.Failure(city, fmt.Errorf("waiting for a free fetch slot: %w", err))
			return
		}
		defer d.sem.Release(1)
	}

	if d.opts.UnitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.opts.UnitTimeout)
		defer cancel()
	}

	data, err := d.fetcher.Fetch(ctx, city)
	if err != nil {
		res = models.Failure(city, err)
		return
	}
	res = models.Success(city, data)
}
