package models

// InfillPattern selects how the interior of a layer is filled
type InfillPattern string

const (
	InfillGrid      InfillPattern = "grid"
	InfillLines     InfillPattern = "lines"
	InfillTriangles InfillPattern = "triangles"
)

// InfillPatterns lists the supported patterns in display order
var InfillPatterns = []InfillPattern{InfillGrid, InfillLines, InfillTriangles}

// Valid reports whether p is a known infill pattern
func (p InfillPattern) Valid() bool {
	for _, known := range InfillPatterns {
		if p == known {
			return true
		}
	}
	return false
}

// PrintParameters holds the user supplied print settings
type PrintParameters struct {
	LayerHeight        float64       `yaml:"layer_height" json:"layer_height"`
	NozzleTemp         float64       `yaml:"nozzle_temp" json:"nozzle_temp"`
	BedTemp            float64       `yaml:"bed_temp" json:"bed_temp"`
	PrintSpeed         float64       `yaml:"print_speed" json:"print_speed"`
	InfillDensity      float64       `yaml:"infill_density" json:"infill_density"`
	InfillPattern      InfillPattern `yaml:"infill_pattern" json:"infill_pattern"`
	RetractionDistance float64       `yaml:"retraction_distance" json:"retraction_distance"`
	RetractionSpeed    float64       `yaml:"retraction_speed" json:"retraction_speed"`
}

// DefaultPrintParameters returns the settings used for every absent field
func DefaultPrintParameters() PrintParameters {
	return PrintParameters{
		LayerHeight:        0.2,
		NozzleTemp:         210,
		BedTemp:            60,
		PrintSpeed:         60,
		InfillDensity:      20,
		InfillPattern:      InfillGrid,
		RetractionDistance: 5.0,
		RetractionSpeed:    45.0,
	}
}

// Dimensions are the bounding extents of a model in millimetres
type Dimensions struct {
	Width  float64 `json:"width" yaml:"width"`
	Depth  float64 `json:"depth" yaml:"depth"`
	Height float64 `json:"height" yaml:"height"`
}

// Product returns width * depth * height
func (d Dimensions) Product() float64 {
	return d.Width * d.Depth * d.Height
}

// ModelStats summarises a mesh for printing
type ModelStats struct {
	Dimensions         Dimensions `json:"dimensions" yaml:"dimensions"`
	Volume             float64    `json:"volume" yaml:"volume"`
	TriangleCount      int        `json:"triangle_count" yaml:"triangle_count"`
	EstimatedWeightG   float64    `json:"estimated_weight_g" yaml:"estimated_weight_g"`
	EstimatedFilamentM float64    `json:"estimated_filament_m" yaml:"estimated_filament_m"`
}
