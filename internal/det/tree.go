package det

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format selects the serialized encoding of a tree.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the codec from a file name or URL path. Anything that
// is not .yaml/.yml is treated as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// ErrInvalidTree is returned when a decoded tree violates its structural invariants.
var ErrInvalidTree = errors.New("invalid density estimation tree")

// Node is one node of a density estimation tree. A node without children is a leaf.
type Node struct {
	Ratio      float64 `json:"ratio" yaml:"ratio"`
	LogVolume  float64 `json:"log_volume" yaml:"log_volume"`
	SplitDim   int     `json:"split_dim" yaml:"split_dim"`
	SplitValue float64 `json:"split_value" yaml:"split_value"`
	Left       *Node   `json:"left,omitempty" yaml:"left,omitempty"`
	Right      *Node   `json:"right,omitempty" yaml:"right,omitempty"`
}

func (n *Node) leaf() bool {
	return n.Left == nil && n.Right == nil
}

// Tree is a trained density estimation tree as handed over by the trainer.
type Tree struct {
	Label   string    `json:"name,omitempty" yaml:"name,omitempty"`
	MinVals []float64 `json:"min_vals" yaml:"min_vals"`
	MaxVals []float64 `json:"max_vals" yaml:"max_vals"`
	Start   int       `json:"start" yaml:"start"`
	End     int       `json:"end" yaml:"end"`
	Root    *Node     `json:"root" yaml:"root"`
}

var _ DensityModel = (*Tree)(nil)

// Decode reads one tree from r in the given format and validates it.
func Decode(r io.Reader, format Format) (*Tree, error) {
	var t Tree
	switch format {
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&t); err != nil {
			return nil, fmt.Errorf("decode yaml tree: %w", err)
		}
	case FormatJSON, "":
		if err := json.NewDecoder(r).Decode(&t); err != nil {
			return nil, fmt.Errorf("decode json tree: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported tree format %q", format)
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Validate checks the structural invariants the evaluator relies on.
func (t *Tree) Validate() error {
	d := len(t.MaxVals)
	if d == 0 {
		return fmt.Errorf("%w: no dimensions", ErrInvalidTree)
	}
	if len(t.MinVals) != d {
		return fmt.Errorf("%w: min_vals has %d entries, max_vals has %d", ErrInvalidTree, len(t.MinVals), d)
	}
	if t.End < t.Start {
		return fmt.Errorf("%w: partition end %d before start %d", ErrInvalidTree, t.End, t.Start)
	}
	if t.Root == nil {
		return fmt.Errorf("%w: missing root", ErrInvalidTree)
	}
	return validateNode(t.Root, d, 0)
}

func validateNode(n *Node, d, depth int) error {
	if n.leaf() {
		if n.Ratio < 0 || math.IsNaN(n.Ratio) {
			return fmt.Errorf("%w: leaf at depth %d has ratio %v", ErrInvalidTree, depth, n.Ratio)
		}
		return nil
	}
	if n.Left == nil || n.Right == nil {
		return fmt.Errorf("%w: node at depth %d has a single child", ErrInvalidTree, depth)
	}
	if n.SplitDim < 0 || n.SplitDim >= d {
		return fmt.Errorf("%w: split dimension %d out of range [0,%d)", ErrInvalidTree, n.SplitDim, d)
	}
	if err := validateNode(n.Left, d, depth+1); err != nil {
		return err
	}
	return validateNode(n.Right, d, depth+1)
}

// ValueAt returns zero outside the training bounding box, otherwise the density
// of the leaf the point falls into.
func (t *Tree) ValueAt(point []float64) float64 {
	for i := range t.MaxVals {
		v := coord(point, i)
		if v > t.MaxVals[i] || v < t.MinVals[i] {
			return 0
		}
	}

	n := t.Root
	for !n.leaf() {
		if coord(point, n.SplitDim) <= n.SplitValue {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	// exp(log(ratio) - log_volume), without rounding ratio through log and exp.
	return n.Ratio * math.Exp(-n.LogVolume)
}

// DimensionBound implements DensityModel.
func (t *Tree) DimensionBound() int {
	return len(t.MaxVals)
}

// TrainingPartitionSize implements DensityModel.
func (t *Tree) TrainingPartitionSize() uint64 {
	return uint64(t.End - t.Start)
}

// Name implements Named.
func (t *Tree) Name() string {
	return t.Label
}

func coord(point []float64, i int) float64 {
	if i < len(point) {
		return point[i]
	}
	return 0
}
