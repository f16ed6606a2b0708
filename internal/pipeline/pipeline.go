// Package pipeline chains mesh loading, statistics and G-code generation.
package pipeline

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/philipparndt/goslice/internal/gcode"
	"github.com/philipparndt/goslice/internal/mesh"
	"github.com/philipparndt/goslice/internal/models"
	"github.com/philipparndt/goslice/internal/stats"
)

// Mode selects which document variant is generated
type Mode int

const (
	ModeFull Mode = iota
	ModePreview
	// ModeStats stops after the statistics, Result.Document stays nil
	ModeStats
)

func (m Mode) String() string {
	switch m {
	case ModePreview:
		return "preview"
	case ModeStats:
		return "stats"
	default:
		return "full"
	}
}

// Result is everything produced by one run
type Result struct {
	Load     mesh.LoadResult
	Stats    models.ModelStats
	Rule     string
	Document *gcode.Document
}

// Pipeline holds the stateless stages. It is safe for concurrent use.
type Pipeline struct {
	log       logr.Logger
	loader    *mesh.Loader
	estimator *stats.Estimator
	generator *gcode.Generator
}

// New creates a new pipeline. opts configure the document generator.
func New(log logr.Logger, opts ...gcode.Option) *Pipeline {
	return &Pipeline{
		log:       log.WithName("pipeline"),
		loader:    mesh.NewLoader(log),
		estimator: stats.NewEstimator(log),
		generator: gcode.NewGenerator(log, opts...),
	}
}

// Run turns mesh bytes into statistics and, depending on mode, a document.
// Mesh decoding never fails; errors come from cancellation or from toolpath
// generation.
func (p *Pipeline) Run(ctx context.Context, data []byte, params models.PrintParameters, mode Mode) (*Result, error) {
	load := p.loader.Load(data)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	est := p.estimator.Estimate(load.Mesh)
	result := &Result{Load: load, Stats: est.Stats, Rule: est.Rule}
	p.log.V(1).Info("Estimated model", "strategy", load.Strategy, "rule", est.Rule,
		"volume", est.Stats.Volume, "triangles", est.Stats.TriangleCount)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch mode {
	case ModeStats:
	case ModePreview:
		result.Document = p.generator.Preview(params, est.Stats)
	default:
		doc, err := p.generator.Full(params, est.Stats)
		if err != nil {
			return nil, fmt.Errorf("pipeline failed: %w", err)
		}
		result.Document = doc
	}

	return result, nil
}
