// Package stats derives print statistics from a mesh. Every numeric field of
// the result is finite and the volume is always positive.
package stats

import (
	"errors"
	"math"

	"github.com/go-logr/logr"

	"github.com/philipparndt/goslice/internal/geometry"
	"github.com/philipparndt/goslice/internal/mesh"
	"github.com/philipparndt/goslice/internal/models"
)

const (
	// PLADensity is the material density in g/cm³
	PLADensity = 1.24
	// FilamentDiameter is the filament diameter in mm
	FilamentDiameter = 1.75
	// DefaultExtent replaces dimensions that cannot be computed
	DefaultExtent = 100.0
	// MinExtent is the smallest dimension used by the terminal volume estimate
	MinExtent = 0.01
	// MaxVolume caps the terminal volume estimate when the product overflows
	MaxVolume = math.MaxFloat64
)

// Rule names reported in Estimation.Rule
const (
	RuleExact  = "exact"
	RuleBBox80 = "bbox-80"
	RuleBBox30 = "bbox-30"
	RuleDims30 = "dims-30"
)

// Estimation is the estimated stats together with the volume rule that won
type Estimation struct {
	Stats models.ModelStats
	Rule  string
}

// input is what every volume rule may look at
type input struct {
	mesh       *mesh.Mesh
	bbox       *geometry.BoundingBox
	dims       models.Dimensions
	watertight bool
}

type volumeRule struct {
	name    string
	applies func(in input) bool
	volume  func(in input) (float64, error)
}

var errNoBoundingBox = errors.New("no bounding box")

// volumeRules is evaluated top to bottom; the first applicable rule whose
// formula succeeds provides the volume. The last rule always succeeds.
var volumeRules = []volumeRule{
	{
		name:    RuleExact,
		applies: func(in input) bool { return in.watertight },
		volume:  func(in input) (float64, error) { return in.mesh.Volume() },
	},
	{
		name:    RuleBBox80,
		applies: func(in input) bool { return !in.watertight },
		volume:  func(in input) (float64, error) { return scaledBBoxVolume(in, 0.8) },
	},
	{
		name:    RuleBBox30,
		applies: func(in input) bool { return true },
		volume:  func(in input) (float64, error) { return scaledBBoxVolume(in, 0.3) },
	},
	{
		name:    RuleDims30,
		applies: func(in input) bool { return true },
		volume:  func(in input) (float64, error) { return dimsVolume(in.dims), nil },
	},
}

func scaledBBoxVolume(in input, factor float64) (float64, error) {
	if in.bbox == nil {
		return 0, errNoBoundingBox
	}
	return in.bbox.Volume() * factor, nil
}

func dimsVolume(d models.Dimensions) float64 {
	v := math.Max(d.Width, MinExtent) * math.Max(d.Depth, MinExtent) * math.Max(d.Height, MinExtent) * 0.3
	return math.Min(v, MaxVolume)
}

// Estimator computes ModelStats
type Estimator struct {
	log logr.Logger
}

// NewEstimator creates a new stats estimator
func NewEstimator(log logr.Logger) *Estimator {
	return &Estimator{log: log.WithName("stats")}
}

// Estimate derives statistics from m. It never fails.
func (e *Estimator) Estimate(m *mesh.Mesh) Estimation {
	in := input{mesh: m, watertight: m.IsWatertight()}

	bbox, err := m.BoundingBox()
	if err != nil {
		e.log.Info("Cannot compute dimensions, using default extent", "error", err.Error(), "extent", DefaultExtent)
		in.dims = models.Dimensions{Width: DefaultExtent, Depth: DefaultExtent, Height: DefaultExtent}
	} else {
		in.bbox = bbox
		in.dims = models.Dimensions{Width: bbox.Width(), Depth: bbox.Depth(), Height: bbox.Height()}
	}
	if !in.watertight {
		e.log.V(1).Info("Mesh is not watertight, volume will be approximated")
	}

	volume, rule := e.volume(in)
	if !validVolume(volume) {
		e.log.Info("Volume is not valid, estimating from dimensions", "volume", volume, "rule", rule)
		volume, rule = dimsVolume(in.dims), RuleDims30
	}

	return Estimation{
		Stats: Derive(in.dims, volume, m.TriangleCount()),
		Rule:  rule,
	}
}

func (e *Estimator) volume(in input) (float64, string) {
	for _, rule := range volumeRules {
		if !rule.applies(in) {
			continue
		}
		v, err := rule.volume(in)
		if err != nil {
			e.log.V(1).Info("Volume rule failed", "rule", rule.name, "error", err.Error())
			continue
		}
		return v, rule.name
	}
	// unreachable: the last rule always applies and succeeds
	return dimsVolume(in.dims), RuleDims30
}

func validVolume(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}

// Derive fills in the weight and filament estimates for a known volume
func Derive(dims models.Dimensions, volume float64, triangles int) models.ModelStats {
	return models.ModelStats{
		Dimensions:         dims,
		Volume:             volume,
		TriangleCount:      triangles,
		EstimatedWeightG:   WeightGrams(volume),
		EstimatedFilamentM: FilamentMeters(volume),
	}
}

// WeightGrams converts a volume in mm³ to grams of PLA
func WeightGrams(volume float64) float64 {
	return (volume / 1000) * PLADensity
}

// FilamentMeters converts a volume in mm³ to metres of 1.75 mm filament
func FilamentMeters(volume float64) float64 {
	radius := FilamentDiameter / 2
	return volume / (math.Pi * radius * radius) / 1000
}
