package gcode

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-logr/logr"

	"github.com/philipparndt/goslice/internal/models"
)

const (
	// MaxLayers caps the number of emitted layers
	MaxLayers = 3
	// PerimeterOffset is the X and Y position of the perimeter origin
	PerimeterOffset = 10.0
	// WallScale shrinks the model footprint to approximate the wall inset
	WallScale = 0.8
	// ZHop is the lift after the retraction at the end of a layer
	ZHop = 0.4
	// ExtrusionConstant converts line cross-section to filament length for 1.75 mm filament
	ExtrusionConstant = 0.0432
)

// ErrNonFinite is returned when a toolpath value is NaN or infinite
var ErrNonFinite = errors.New("non-finite value in toolpath")

// LayerCount returns ceil(height / layerHeight), or 0 when the result is not
// a positive finite number. The quotient is not rounded first, so 2.1/0.3
// (7.000000000000001) needs 8 layers.
func LayerCount(height, layerHeight float64) int {
	n := math.Ceil(height / layerHeight)
	if math.IsNaN(n) || math.IsInf(n, 0) || n <= 0 {
		return 0
	}
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(n)
}

// ExtrusionPerMM returns the filament length fed per mm of extruded line
func ExtrusionPerMM(layerHeight float64) float64 {
	return layerHeight * (layerHeight * 1.2) * ExtrusionConstant
}

// Footprint returns the perimeter rectangle for a model footprint
func Footprint(d models.Dimensions) Rect {
	return Rect{
		Min: Point{PerimeterOffset, PerimeterOffset},
		Max: Point{PerimeterOffset + d.Width*WallScale, PerimeterOffset + d.Depth*WallScale},
	}
}

// TruncationNotice returns the comment lines appended when layers were cut
func TruncationNotice(layerCount int) []string {
	return []string{
		Comment("[... G-code truncated for demonstration ...]"),
		Comment(fmt.Sprintf("[... The complete model would have %d layers ...]", layerCount)),
	}
}

// Synthesizer builds the per layer toolpath
type Synthesizer struct {
	log logr.Logger
}

// NewSynthesizer creates a new toolpath synthesizer
func NewSynthesizer(log logr.Logger) *Synthesizer {
	return &Synthesizer{log: log.WithName("toolpath")}
}

// Layers returns the layer blocks for at most MaxLayers layers followed by a
// truncation notice when the model needs more. Every layer retraction is
// followed by a prime before extrusion resumes.
func (s *Synthesizer) Layers(p models.PrintParameters, st models.ModelStats) ([]string, error) {
	w := &writer{}
	w.finite("layer height", p.LayerHeight)
	w.finite("print speed", p.PrintSpeed)
	w.finite("retraction distance", p.RetractionDistance)
	w.finite("retraction speed", p.RetractionSpeed)
	w.finite("width", st.Dimensions.Width)
	w.finite("depth", st.Dimensions.Depth)
	if w.err != nil {
		return nil, w.err
	}

	total := LayerCount(st.Dimensions.Height, p.LayerHeight)
	emitted := min(total, MaxLayers)
	s.log.V(1).Info("Synthesizing layers", "layers", total, "emitted", emitted, "pattern", string(p.InfillPattern))

	rect := Footprint(st.Dimensions)
	infill := Infill(p.InfillPattern, rect)
	if InfillCapped(p.InfillPattern, rect) {
		s.log.V(1).Info("Infill sweep count capped", "pattern", string(p.InfillPattern), "max", MaxSweeps,
			"width", rect.Width(), "depth", rect.Height())
	}
	perMM := w.finite("extrusion per mm", ExtrusionPerMM(p.LayerHeight))
	printFeed := w.finite("print feed", p.PrintSpeed*60)
	retract := p.RetractionDistance > 0

	for n := 1; n <= emitted; n++ {
		z := float64(n) * p.LayerHeight

		if n > 1 {
			w.blank()
		}
		w.line(Comment(fmt.Sprintf("LAYER %d - %smm", n, FormatNumber(round(z, 4)))))
		w.cmd(Cmd("G1").Fixed('Z', w.finite("layer z", z), 3).Num('F', TravelFeed).Note("Move to layer height"))
		w.travel(rect.Min, "Travel to perimeter start")
		if n > 1 && retract {
			w.prime(p)
		}

		w.line(Comment("Perimeter"))
		corners := rect.Corners()
		for i := 1; i < len(corners); i++ {
			w.extrude(Segment{corners[i-1], corners[i]}, perMM, printFeed)
		}

		w.line(Comment("Infill: " + string(p.InfillPattern)))
		for _, seg := range infill {
			w.travel(seg.From, "")
			w.extrude(seg, perMM, printFeed)
		}

		if retract {
			w.cmd(Cmd("G1").Fixed('E', -p.RetractionDistance, 2).Fixed('F', p.RetractionSpeed*60, 0).Note("Retract"))
		}
		w.cmd(Cmd("G1").Fixed('Z', w.finite("z hop", z+ZHop), 3).Num('F', TravelFeed).Note("Z hop"))
	}

	if emitted > 0 && retract {
		w.prime(p)
	}
	if total > MaxLayers {
		w.blank()
		w.line(TruncationNotice(total)...)
	}

	if w.err != nil {
		return nil, fmt.Errorf("failed to synthesize layers: %w", w.err)
	}
	return w.lines, nil
}

func round(v float64, decimals int) float64 {
	f := math.Pow(10, float64(decimals))
	return math.Round(v*f) / f
}

// writer accumulates lines and remembers the first non-finite value seen
type writer struct {
	lines []string
	err   error
}

func (w *writer) finite(name string, v float64) float64 {
	if w.err == nil && (math.IsNaN(v) || math.IsInf(v, 0)) {
		w.err = fmt.Errorf("%s is %v: %w", name, v, ErrNonFinite)
	}
	return v
}

func (w *writer) line(lines ...string) {
	w.lines = append(w.lines, lines...)
}

func (w *writer) blank() {
	w.lines = append(w.lines, "")
}

func (w *writer) cmd(c Command) {
	w.lines = append(w.lines, c.String())
}

func (w *writer) travel(to Point, note string) {
	w.finite("x", to.X)
	w.finite("y", to.Y)
	w.cmd(Cmd("G1").Fixed('X', to.X, 2).Fixed('Y', to.Y, 2).Num('F', TravelFeed).Note(note))
}

func (w *writer) extrude(seg Segment, perMM, feed float64) {
	e := w.finite("extrusion", seg.Length()*perMM)
	w.finite("x", seg.To.X)
	w.finite("y", seg.To.Y)
	w.cmd(Cmd("G1").Fixed('X', seg.To.X, 2).Fixed('Y', seg.To.Y, 2).Fixed('E', e, 4).Num('F', feed))
}

func (w *writer) prime(p models.PrintParameters) {
	w.cmd(Cmd("G1").Fixed('E', p.RetractionDistance, 2).Fixed('F', p.RetractionSpeed*60, 0).Note("Prime"))
}
