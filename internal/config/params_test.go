package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/philipparndt/goslice/internal/models"
)

// TestParseParams tests decoding of YAML and JSON parameter blobs
func TestParseParams(t *testing.T) {
	defaults := models.DefaultPrintParameters()

	tests := []struct {
		name     string
		input    string
		expected func() models.PrintParameters
	}{
		{
			name:     "empty blob",
			input:    "",
			expected: func() models.PrintParameters { return defaults },
		},
		{
			name:  "json subset",
			input: `{"layer_height": 0.3, "infill_pattern": "lines"}`,
			expected: func() models.PrintParameters {
				p := defaults
				p.LayerHeight = 0.3
				p.InfillPattern = models.InfillLines
				return p
			},
		},
		{
			name: "yaml full",
			input: `
layer_height: 0.12
nozzle_temp: 220
bed_temp: 70
print_speed: 45
infill_density: 35
infill_pattern: triangles
retraction_distance: 1.5
retraction_speed: 30
`,
			expected: func() models.PrintParameters {
				return models.PrintParameters{
					LayerHeight:        0.12,
					NozzleTemp:         220,
					BedTemp:            70,
					PrintSpeed:         45,
					InfillDensity:      35,
					InfillPattern:      models.InfillTriangles,
					RetractionDistance: 1.5,
					RetractionSpeed:    30,
				}
			},
		},
		{
			name:  "empty pattern falls back to grid",
			input: `{"infill_pattern": ""}`,
			expected: func() models.PrintParameters {
				return defaults
			},
		},
		{
			name:  "unknown fields are ignored",
			input: `{"support": true, "bed_temp": 0}`,
			expected: func() models.PrintParameters {
				p := defaults
				p.BedTemp = 0
				return p
			},
		},
	}

	loader := NewLoader()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := loader.ParseParams([]byte(tt.input))
			if err != nil {
				t.Fatalf("ParseParams() error = %v", err)
			}
			if got != tt.expected() {
				t.Errorf("ParseParams() = %+v, want %+v", got, tt.expected())
			}
		})
	}
}

// TestParseParams_Invalid tests that validation failures are reported
func TestParseParams_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		invalid bool
	}{
		{"zero layer height", `{"layer_height": 0}`, true},
		{"negative layer height", `{"layer_height": -0.2}`, true},
		{"zero print speed", `{"print_speed": 0}`, true},
		{"negative retraction", `{"retraction_distance": -1}`, true},
		{"negative retraction speed", `{"retraction_speed": -1}`, true},
		{"unknown pattern", `{"infill_pattern": "gyroid"}`, true},
		{"not a number", `layer_height: .nan`, true},
		{"infinite", `print_speed: .inf`, true},
		{"malformed", `{"layer_height": `, false},
		{"wrong type", `{"layer_height": "thin"}`, false},
	}

	loader := NewLoader()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loader.ParseParams([]byte(tt.input))
			if err == nil {
				t.Fatal("expected error")
			}
			if errors.Is(err, ErrInvalidParams) != tt.invalid {
				t.Errorf("errors.Is(err, ErrInvalidParams) = %v, want %v (err: %v)", !tt.invalid, tt.invalid, err)
			}
		})
	}
}

func TestLoadParams(t *testing.T) {
	loader := NewLoader()

	got, err := loader.LoadParams("")
	if err != nil {
		t.Fatalf("LoadParams(\"\") error = %v", err)
	}
	if got != models.DefaultPrintParameters() {
		t.Errorf("LoadParams(\"\") = %+v, want defaults", got)
	}

	path := filepath.Join(t.TempDir(), "params.yaml")
	if err := os.WriteFile(path, []byte("nozzle_temp: 240\n"), 0644); err != nil {
		t.Fatal(err)
	}
	got, err = loader.LoadParams(path)
	if err != nil {
		t.Fatalf("LoadParams() error = %v", err)
	}
	if got.NozzleTemp != 240 {
		t.Errorf("NozzleTemp = %v, want 240", got.NozzleTemp)
	}

	if _, err := loader.LoadParams(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
