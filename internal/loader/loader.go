// Package loader turns model resource identifiers into a loaded ensemble.
//
// A resource is a file path, an http(s) URL, or a model in a BoltDB model store
// written as bolt:<db-path>#<model-name>. Individual failures are logged and
// skipped; only an ensemble with no usable model is an error.
package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"det-ensemble/internal/det"
	"det-ensemble/internal/ensemble"
	"det-ensemble/internal/storage"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

const boltScheme = "bolt:"

var (
	// ErrNoModels is returned when no model resource was supplied at all.
	ErrNoModels = errors.New("no model resources given")

	// ErrEmptyEnsemble is returned when every supplied resource failed to load.
	ErrEmptyEnsemble = errors.New("no model could be loaded")
)

// MetricsInterface defines metrics methods needed by the loader
type MetricsInterface interface {
	ModelRequestedInc()
	ModelLoadFailedInc()
	ModelsLoadedSet(float64)
	DataWidthSet(float64)
}

// Options configures remote fetching.
type Options struct {
	HTTPTimeout   time.Duration
	HTTPRetries   int
	HTTPRetryWait time.Duration
}

// DefaultOptions mirror the REST client settings used for other remote calls.
func DefaultOptions() Options {
	return Options{
		HTTPTimeout:   30 * time.Second,
		HTTPRetries:   3,
		HTTPRetryWait: 500 * time.Millisecond,
	}
}

// Failure records one resource that could not be loaded.
type Failure struct {
	Resource string
	Err      error
}

// Report summarizes a Load call.
type Report struct {
	Requested int
	Loaded    int
	DataWidth int
	Failures  []Failure
	Elapsed   time.Duration
}

// Loader deserializes model resources.
type Loader struct {
	client  *resty.Client
	metrics MetricsInterface
}

// New creates a loader. metrics may be nil.
func New(opts Options, metrics MetricsInterface) *Loader {
	client := resty.New()
	client.SetTimeout(opts.HTTPTimeout)
	client.SetRetryCount(opts.HTTPRetries)
	client.SetRetryWaitTime(opts.HTTPRetryWait)
	client.AddRetryCondition(func(r *resty.Response, err error) bool {
		return r != nil && r.StatusCode() >= 500
	})

	return &Loader{
		client:  client,
		metrics: metrics,
	}
}

// Load attempts every resource in order. The returned ensemble holds the models
// that loaded; the report is filled in even when an error is returned.
func (l *Loader) Load(ctx context.Context, resources []string) (*ensemble.Ensemble, Report, error) {
	report := Report{Requested: len(resources)}
	if len(resources) == 0 {
		return nil, report, ErrNoModels
	}

	log.Info().Int("count", len(resources)).Msg("models provided")

	start := time.Now()
	stores := make(map[string]*storage.Store)
	defer func() {
		for path, s := range stores {
			if err := s.Close(); err != nil {
				log.Warn().Err(err).Str("db", path).Msg("failed to close model store")
			}
		}
	}()

	ens := ensemble.New()
	for _, resource := range resources {
		if l.metrics != nil {
			l.metrics.ModelRequestedInc()
		}
		log.Info().Str("resource", resource).Msg("loading model")

		err := ctx.Err()
		if err == nil {
			var model det.DensityModel
			model, err = l.load(ctx, resource, stores)
			if err == nil {
				err = ens.Add(resource, model)
			}
		}
		if err != nil {
			log.Warn().Err(err).Str("resource", resource).Msg("failed loading model")
			report.Failures = append(report.Failures, Failure{Resource: resource, Err: err})
			if l.metrics != nil {
				l.metrics.ModelLoadFailedInc()
			}
			continue
		}
		log.Info().Str("resource", resource).Msg("model loaded")
	}

	report.Loaded = ens.Len()
	report.DataWidth = ens.DataWidth()
	report.Elapsed = time.Since(start)

	if l.metrics != nil {
		l.metrics.ModelsLoadedSet(float64(report.Loaded))
		l.metrics.DataWidthSet(float64(report.DataWidth))
	}

	log.Info().
		Int("requested", report.Requested).
		Int("loaded", report.Loaded).
		Int("failed", len(report.Failures)).
		Int("data_width", report.DataWidth).
		Dur("elapsed", report.Elapsed).
		Msg("models loading finished")

	if report.Loaded == 0 || report.DataWidth == 0 {
		return ens, report, ErrEmptyEnsemble
	}
	return ens, report, nil
}

// LoadModel loads a single resource.
func (l *Loader) LoadModel(ctx context.Context, resource string) (det.DensityModel, error) {
	stores := make(map[string]*storage.Store)
	defer func() {
		for _, s := range stores {
			s.Close()
		}
	}()
	return l.load(ctx, resource, stores)
}

func (l *Loader) load(ctx context.Context, resource string, stores map[string]*storage.Store) (det.DensityModel, error) {
	switch {
	case resource == "":
		return nil, fmt.Errorf("empty model resource")
	case strings.HasPrefix(resource, boltScheme):
		return l.loadBolt(resource, stores)
	case strings.HasPrefix(resource, "http://"), strings.HasPrefix(resource, "https://"):
		return l.loadHTTP(ctx, resource)
	default:
		return loadFile(resource)
	}
}

func loadFile(path string) (det.DensityModel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open model file: %w", err)
	}
	defer f.Close()

	tree, err := det.Decode(f, det.FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return tree, nil
}

func (l *Loader) loadHTTP(ctx context.Context, resource string) (det.DensityModel, error) {
	u, err := url.Parse(resource)
	if err != nil {
		return nil, fmt.Errorf("parse model url: %w", err)
	}

	resp, err := l.client.R().SetContext(ctx).Get(resource)
	if err != nil {
		return nil, fmt.Errorf("fetch model: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch model: unexpected status %d", resp.StatusCode())
	}

	tree, err := det.Decode(bytes.NewReader(resp.Body()), det.FormatFromPath(u.Path))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", resource, err)
	}
	return tree, nil
}

// parseBoltResource splits bolt:<db-path>#<model-name>.
func parseBoltResource(resource string) (dbPath, name string, err error) {
	rest := strings.TrimPrefix(resource, boltScheme)
	idx := strings.LastIndex(rest, "#")
	if idx <= 0 || idx == len(rest)-1 {
		return "", "", fmt.Errorf("bolt resource %q must look like bolt:<db-path>#<model-name>", resource)
	}
	return rest[:idx], rest[idx+1:], nil
}

func (l *Loader) loadBolt(resource string, stores map[string]*storage.Store) (det.DensityModel, error) {
	dbPath, name, err := parseBoltResource(resource)
	if err != nil {
		return nil, err
	}

	store, ok := stores[dbPath]
	if !ok {
		store, err = storage.Open(dbPath, true)
		if err != nil {
			return nil, err
		}
		stores[dbPath] = store
	}

	record, err := store.GetModel(name)
	if err != nil {
		return nil, err
	}

	tree, err := det.Decode(bytes.NewReader(record.Payload), det.Format(record.Format))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", resource, err)
	}
	return tree, nil
}
