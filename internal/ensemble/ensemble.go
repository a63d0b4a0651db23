// Package ensemble combines loaded density estimation trees into a single estimator.
//
// The Ensemble owns its models for its whole lifetime and never mutates them after
// loading, so an Evaluator may read them from many goroutines without locking.
package ensemble

import (
	"fmt"

	"det-ensemble/internal/det"
)

// Ensemble is the set of loaded models. Member order never affects results.
type Ensemble struct {
	models    []det.DensityModel
	resources []string
	dataWidth int
}

// ModelInfo describes one member for reporting.
type ModelInfo struct {
	Resource       string `json:"resource"`
	Name           string `json:"name,omitempty"`
	DimensionBound int    `json:"dimension_bound"`
	Weight         uint64 `json:"weight"`
}

// New returns an empty ensemble.
func New() *Ensemble {
	return &Ensemble{}
}

// Add takes ownership of m. Models without dimensions are rejected.
func (e *Ensemble) Add(resource string, m det.DensityModel) error {
	if m == nil {
		return fmt.Errorf("model %s is nil", resource)
	}
	d := m.DimensionBound()
	if d <= 0 {
		return fmt.Errorf("model %s has dimension bound %d", resource, d)
	}

	e.models = append(e.models, m)
	e.resources = append(e.resources, resource)
	e.dataWidth = max(e.dataWidth, d)
	return nil
}

// Len returns the number of models.
func (e *Ensemble) Len() int {
	return len(e.models)
}

// DataWidth is the largest dimension bound over all members, zero when empty.
func (e *Ensemble) DataWidth() int {
	return e.dataWidth
}

// TotalWeight sums the training partition sizes of all members.
func (e *Ensemble) TotalWeight() uint64 {
	var total uint64
	for _, m := range e.models {
		total += m.TrainingPartitionSize()
	}
	return total
}

// Info lists the members in load order.
func (e *Ensemble) Info() []ModelInfo {
	out := make([]ModelInfo, len(e.models))
	for i, m := range e.models {
		info := ModelInfo{
			Resource:       e.resources[i],
			DimensionBound: m.DimensionBound(),
			Weight:         m.TrainingPartitionSize(),
		}
		if named, ok := m.(det.Named); ok {
			info.Name = named.Name()
		}
		out[i] = info
	}
	return out
}
