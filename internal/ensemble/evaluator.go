package ensemble

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrZeroWeight is returned when the weights of all members sum to zero, leaving
// the weighted average undefined.
var ErrZeroWeight = errors.New("ensemble weights sum to zero")

// ErrEmpty is returned when an evaluator is built over an ensemble without usable models.
var ErrEmpty = errors.New("ensemble has no usable models")

// MetricsInterface defines metrics methods needed by the evaluator
type MetricsInterface interface {
	EvaluationsInc()
	EvaluationLatencyObserve(float64)
}

// Config controls how per-model terms are spread over goroutines.
type Config struct {
	Workers           int // Maximum concurrent goroutines per point, 0 means runtime.NumCPU().
	MinParallelModels int // Ensembles smaller than this are reduced sequentially.
}

// DefaultConfig sizes the pool to the available hardware parallelism.
func DefaultConfig() Config {
	return Config{
		Workers:           runtime.NumCPU(),
		MinParallelModels: 8,
	}
}

// Evaluator computes the weighted average density of an ensemble at a point.
type Evaluator struct {
	ens     *Ensemble
	cfg     Config
	metrics MetricsInterface
}

// NewEvaluator checks that ens can be evaluated. metrics may be nil.
func NewEvaluator(ens *Ensemble, cfg Config, metrics MetricsInterface) (*Evaluator, error) {
	if ens == nil || ens.Len() == 0 || ens.DataWidth() == 0 {
		return nil, ErrEmpty
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.MinParallelModels < 1 {
		cfg.MinParallelModels = 1
	}
	return &Evaluator{ens: ens, cfg: cfg, metrics: metrics}, nil
}

// DataWidth is the point width the evaluator expects.
func (e *Evaluator) DataWidth() int {
	return e.ens.DataWidth()
}

// Workers reports the effective pool size.
func (e *Evaluator) Workers() int {
	return e.cfg.Workers
}

// Evaluate returns (Σ v_m*w_m) / (Σ w_m) over all models at point.
func (e *Evaluator) Evaluate(ctx context.Context, point []float64) (float64, error) {
	start := time.Now()

	total, err := e.reduce(ctx, point)
	if err != nil {
		return 0, fmt.Errorf("evaluate ensemble: %w", err)
	}

	if e.metrics != nil {
		e.metrics.EvaluationsInc()
		e.metrics.EvaluationLatencyObserve(time.Since(start).Seconds())
	}

	return total.quotient()
}

// reduce splits the models into contiguous chunks, one partial sum per chunk,
// and merges the partials after all workers are done.
func (e *Evaluator) reduce(ctx context.Context, point []float64) (partial, error) {
	models := e.ens.models
	n := len(models)

	if e.cfg.Workers == 1 || n < e.cfg.MinParallelModels {
		var total partial
		for _, m := range models {
			total.add(m.ValueAt(point), m.TrainingPartitionSize())
		}
		return total, nil
	}

	chunk := (n + e.cfg.Workers - 1) / e.cfg.Workers
	partials := make([]partial, (n+chunk-1)/chunk)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)
	for i := range partials {
		i := i // per-iteration copy; go directive is 1.21
		lo := i * chunk
		hi := min(lo+chunk, n)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p := &partials[i]
			for _, m := range models[lo:hi] {
				p.add(m.ValueAt(point), m.TrainingPartitionSize())
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return partial{}, err
	}

	var total partial
	for _, p := range partials {
		total.merge(p)
	}
	return total, nil
}
