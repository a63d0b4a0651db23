// Package stream drives the record loop: one test point per input line, one
// density estimate per output line, in input order.
package stream

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"det-ensemble/internal/ensemble"

	"github.com/rs/zerolog/log"
)

// ZeroWeightPolicy decides what happens to a record whose ensemble weight is zero.
type ZeroWeightPolicy string

const (
	// ZeroWeightNaN writes NaN for the record and keeps going.
	ZeroWeightNaN ZeroWeightPolicy = "nan"
	// ZeroWeightFail aborts the run.
	ZeroWeightFail ZeroWeightPolicy = "fail"
)

// ParseZeroWeightPolicy validates a policy name.
func ParseZeroWeightPolicy(s string) (ZeroWeightPolicy, error) {
	switch p := ZeroWeightPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case ZeroWeightNaN, ZeroWeightFail:
		return p, nil
	case "":
		return ZeroWeightNaN, nil
	default:
		return "", fmt.Errorf("unknown zero weight policy %q (want nan or fail)", s)
	}
}

// Evaluator is the per-point estimator the processor drives.
type Evaluator interface {
	Evaluate(ctx context.Context, point []float64) (float64, error)
	DataWidth() int
}

// MetricsInterface defines metrics methods needed by the processor
type MetricsInterface interface {
	RecordsInc()
	ZeroWeightInc()
}

// Config controls output formatting and error policy.
type Config struct {
	Precision  int // Significant digits for 'g' formatting, -1 for shortest round-trip.
	ZeroWeight ZeroWeightPolicy
}

// DefaultConfig writes exact shortest representations and NaN for zero weight.
func DefaultConfig() Config {
	return Config{Precision: -1, ZeroWeight: ZeroWeightNaN}
}

// Stats summarizes a Run.
type Stats struct {
	Records    int
	ZeroWeight int
	Elapsed    time.Duration
}

// Processor reads records, evaluates them and writes estimates.
type Processor struct {
	eval    Evaluator
	cfg     Config
	metrics MetricsInterface
}

// New creates a processor. metrics may be nil.
func New(eval Evaluator, cfg Config, metrics MetricsInterface) *Processor {
	if cfg.ZeroWeight == "" {
		cfg.ZeroWeight = ZeroWeightNaN
	}
	return &Processor{eval: eval, cfg: cfg, metrics: metrics}
}

// Run processes r until end of input or the first empty line, writing one line
// per record to w and flushing after each one. Input is never buffered beyond
// the current line.
func (p *Processor) Run(ctx context.Context, r io.Reader, w io.Writer) (stats Stats, err error) {
	start := time.Now()
	defer func() {
		stats.Elapsed = time.Since(start)
	}()

	br := bufio.NewReader(r)
	bw := bufio.NewWriter(w)
	point := make([]float64, p.eval.DataWidth())
	var buf []byte

	for {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return stats, ctxErr
		}

		line, readErr := br.ReadString('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return stats, fmt.Errorf("read record %d: %w", stats.Records+1, readErr)
		}
		atEOF := readErr != nil
		if atEOF && line == "" {
			break
		}

		line = strings.TrimSuffix(line, "\n")
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			break
		}

		ParsePoint(line, point)

		value, evalErr := p.eval.Evaluate(ctx, point)
		if evalErr != nil {
			if !errors.Is(evalErr, ensemble.ErrZeroWeight) || p.cfg.ZeroWeight == ZeroWeightFail {
				return stats, fmt.Errorf("record %d: %w", stats.Records+1, evalErr)
			}
			log.Warn().Int("record", stats.Records+1).Msg("ensemble weight is zero, writing NaN")
			value = math.NaN()
			stats.ZeroWeight++
			if p.metrics != nil {
				p.metrics.ZeroWeightInc()
			}
		}

		buf = strconv.AppendFloat(buf[:0], value, 'g', p.cfg.Precision, 64)
		buf = append(buf, '\n')
		if _, werr := bw.Write(buf); werr != nil {
			return stats, fmt.Errorf("write estimate %d: %w", stats.Records+1, werr)
		}
		if ferr := bw.Flush(); ferr != nil {
			return stats, fmt.Errorf("write estimate %d: %w", stats.Records+1, ferr)
		}

		stats.Records++
		if p.metrics != nil {
			p.metrics.RecordsInc()
		}

		if atEOF {
			break
		}
	}

	log.Info().
		Int("records", stats.Records).
		Int("zero_weight", stats.ZeroWeight).
		Dur("elapsed", time.Since(start)).
		Msg("processing finished")

	return stats, nil
}
