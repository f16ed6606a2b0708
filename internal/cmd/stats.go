package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/philipparndt/goslice/internal/config"
	"github.com/philipparndt/goslice/internal/mesh"
	"github.com/philipparndt/goslice/internal/models"
	"github.com/philipparndt/goslice/internal/pipeline"
	"github.com/philipparndt/goslice/internal/preconditions"
	"github.com/philipparndt/goslice/internal/ui"
)

type StatsCmd struct {
	Patterns []string `arg:"" help:"Mesh files or glob patterns (** is supported)"`
	Params   string   `help:"Print parameters file (YAML or JSON)" short:"p" type:"existingfile"`
	JSON     bool     `help:"Print the statistics as JSON" name:"json"`
	Jobs     int      `help:"Number of meshes processed in parallel (default: number of CPUs)" short:"j"`
}

// meshStats is one row of the stats output
type meshStats struct {
	File     string            `json:"file"`
	Strategy string            `json:"strategy"`
	Fallback bool              `json:"fallback"`
	Rule     string            `json:"volume_rule"`
	Stats    models.ModelStats `json:"stats"`
}

func (c *StatsCmd) Run(g *Globals) error {
	files, err := expandPatterns(c.Patterns)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no mesh files match %v", c.Patterns)
	}
	if err := preconditions.Check(preconditions.MeshFiles(files...)); err != nil {
		return err
	}

	params, err := config.NewLoader().LoadParams(c.Params)
	if err != nil {
		return err
	}

	jobs := c.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}

	rows, err := collectStats(context.Background(), pipeline.New(g.logger()), files, params, jobs)
	if err != nil {
		return err
	}

	if c.JSON {
		enc := json.NewEncoder(ui.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}
	printStatsTable(rows)
	return nil
}

// expandPatterns resolves globs and keeps only mesh files. Plain paths are
// passed through so that a missing file is reported by the preconditions.
func expandPatterns(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, pattern := range patterns {
		if _, err := os.Stat(pattern); err == nil {
			add(pattern)
			continue
		}
		if !doublestar.ValidatePathPattern(filepath.ToSlash(pattern)) {
			return nil, fmt.Errorf("invalid pattern %q", pattern)
		}
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("failed to expand %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			add(pattern)
			continue
		}
		for _, m := range matches {
			if preconditions.IsMeshFile(m) {
				add(m)
			}
		}
	}

	sort.Strings(files)
	return files, nil
}

// collectStats runs the stats pipeline for every file with at most jobs
// files in flight. Rows keep the order of files.
func collectStats(ctx context.Context, p *pipeline.Pipeline, files []string, params models.PrintParameters, jobs int) ([]meshStats, error) {
	rows := make([]meshStats, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, file := range files {
		g.Go(func() error {
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", file, err)
			}
			res, err := p.Run(ctx, data, params, pipeline.ModeStats)
			if err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}
			rows[i] = meshStats{
				File:     file,
				Strategy: res.Load.Strategy,
				Fallback: res.Load.Outcome == mesh.OutcomeExhausted,
				Rule:     res.Rule,
				Stats:    res.Stats,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}

func printStatsTable(rows []meshStats) {
	ui.PrintHeader(fmt.Sprintf("%d mesh files", len(rows)))
	table := ui.Table{Widths: []int{28, 24, 12, 10, 10, 10}}
	table.Header("File", "Size (mm)", "Volume", "Triangles", "Weight", "Filament")

	var weight, filament float64
	for _, r := range rows {
		s := r.Stats
		name := filepath.Base(r.File)
		if r.Fallback {
			name += " *"
		}
		table.Row(
			name,
			fmt.Sprintf("%.1f x %.1f x %.1f", s.Dimensions.Width, s.Dimensions.Depth, s.Dimensions.Height),
			humanize.CommafWithDigits(s.Volume, 0),
			humanize.Comma(int64(s.TriangleCount)),
			fmt.Sprintf("%.1f g", s.EstimatedWeightG),
			fmt.Sprintf("%.2f m", s.EstimatedFilamentM),
		)
		weight += s.EstimatedWeightG
		filament += s.EstimatedFilamentM
	}

	ui.PrintKeyValue("Total weight", fmt.Sprintf("%.1f g", weight))
	ui.PrintKeyValue("Total filament", fmt.Sprintf("%.2f m", filament))
	for _, r := range rows {
		if r.Fallback {
			ui.PrintInfo("* could not be decoded, statistics are for the fallback cube")
			break
		}
	}
}
