package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/philipparndt/goslice/internal/models"
)

// ErrInvalidParams marks parameter blobs that parse but fail validation
var ErrInvalidParams = errors.New("invalid print parameters")

// Loader handles loading and validating print parameter files
type Loader struct{}

// NewLoader creates a new config loader
func NewLoader() *Loader {
	return &Loader{}
}

// LoadParams reads a YAML or JSON parameter file. An empty path yields the
// defaults.
func (l *Loader) LoadParams(path string) (models.PrintParameters, error) {
	if path == "" {
		return models.DefaultPrintParameters(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return models.PrintParameters{}, fmt.Errorf("failed to read params file: %w", err)
	}

	return l.ParseParams(data)
}

// ParseParams decodes a parameter blob. JSON is accepted as a subset of YAML.
// Absent fields keep their defaults.
func (l *Loader) ParseParams(data []byte) (models.PrintParameters, error) {
	params := models.DefaultPrintParameters()

	if strings.TrimSpace(string(data)) != "" {
		if err := yaml.Unmarshal(data, &params); err != nil {
			return models.PrintParameters{}, fmt.Errorf("failed to parse params: %w", err)
		}
	}

	if params.InfillPattern == "" {
		params.InfillPattern = models.InfillGrid
	}

	if err := l.Validate(params); err != nil {
		return models.PrintParameters{}, err
	}

	return params, nil
}

// Validate checks if the parameters are usable for toolpath generation
func (l *Loader) Validate(p models.PrintParameters) error {
	fields := []struct {
		name  string
		value float64
	}{
		{"layer_height", p.LayerHeight},
		{"nozzle_temp", p.NozzleTemp},
		{"bed_temp", p.BedTemp},
		{"print_speed", p.PrintSpeed},
		{"infill_density", p.InfillDensity},
		{"retraction_distance", p.RetractionDistance},
		{"retraction_speed", p.RetractionSpeed},
	}

	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Errorf("%w: %s must be a finite number", ErrInvalidParams, f.name)
		}
	}

	if p.LayerHeight <= 0 {
		return fmt.Errorf("%w: layer_height must be greater than 0", ErrInvalidParams)
	}
	if p.PrintSpeed <= 0 {
		return fmt.Errorf("%w: print_speed must be greater than 0", ErrInvalidParams)
	}
	if p.RetractionDistance < 0 {
		return fmt.Errorf("%w: retraction_distance must not be negative", ErrInvalidParams)
	}
	if p.RetractionSpeed < 0 {
		return fmt.Errorf("%w: retraction_speed must not be negative", ErrInvalidParams)
	}
	if !p.InfillPattern.Valid() {
		return fmt.Errorf("%w: infill_pattern %q is not one of %s", ErrInvalidParams, p.InfillPattern, patternList())
	}

	return nil
}

func patternList() string {
	names := make([]string, len(models.InfillPatterns))
	for i, p := range models.InfillPatterns {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}
