// Package det holds the density estimation tree model consumed by the ensemble evaluator.
// Trees are trained elsewhere; this package only decodes their serialized form and
// answers density queries against it.
package det

// DensityModel is the capability every ensemble member must provide.
// Implementations must be safe for concurrent reads once loaded.
type DensityModel interface {
	// ValueAt returns the non-negative density estimate at point.
	// Coordinates beyond DimensionBound are ignored, missing ones read as zero.
	ValueAt(point []float64) float64

	// DimensionBound is the number of coordinates the model was trained on.
	DimensionBound() int

	// TrainingPartitionSize is the number of training samples in the model's
	// active region. The ensemble uses it as the combination weight.
	TrainingPartitionSize() uint64
}

// Named is implemented by models that carry a human readable label.
type Named interface {
	Name() string
}
