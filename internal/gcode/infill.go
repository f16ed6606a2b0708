package gcode

import (
	"math"

	"github.com/philipparndt/goslice/internal/models"
)

const (
	// InfillPitch is the distance between parallel infill sweeps in mm
	InfillPitch = 5.0
	// TriangleSpacing is the distance between diagonals of the triangles pattern
	TriangleSpacing = InfillPitch * 1.5

	// MaxSweeps bounds the sweeps of one infill family so that absurd
	// footprints cannot grow the document without limit
	MaxSweeps = 10000

	eps = 1e-9
)

// Point is a position on the build plate
type Point struct {
	X, Y float64
}

// Segment is one straight extruded move
type Segment struct {
	From, To Point
}

// Length returns the euclidean length of the segment
func (s Segment) Length() float64 {
	return math.Hypot(s.To.X-s.From.X, s.To.Y-s.From.Y)
}

// Rect is an axis aligned rectangle with Min at the lower left corner
type Rect struct {
	Min, Max Point
}

// Width returns the extent along X
func (r Rect) Width() float64 { return r.Max.X - r.Min.X }

// Height returns the extent along Y
func (r Rect) Height() float64 { return r.Max.Y - r.Min.Y }

// Corners returns the closed perimeter loop starting and ending at Min
func (r Rect) Corners() []Point {
	return []Point{
		r.Min,
		{r.Max.X, r.Min.Y},
		r.Max,
		{r.Min.X, r.Max.Y},
		r.Min,
	}
}

// SweepCount returns how many interior sweeps fit into span at pitch:
// floor((span - pitch) / pitch), never negative and at most MaxSweeps.
func SweepCount(span, pitch float64) int {
	n := rawSweeps(span, pitch)
	if !(n > 0) {
		return 0
	}
	return int(math.Min(n, MaxSweeps))
}

func rawSweeps(span, pitch float64) float64 {
	return math.Floor((span-pitch)/pitch + eps)
}

// InfillCapped reports whether MaxSweeps cut the sweep count of any family
// that Infill lays into r for pattern
func InfillCapped(pattern models.InfillPattern, r Rect) bool {
	switch pattern {
	case models.InfillLines:
		return rawSweeps(r.Height(), InfillPitch) > MaxSweeps
	case models.InfillTriangles:
		return math.Ceil((r.Width()+r.Height())/TriangleSpacing) > MaxSweeps
	default:
		return rawSweeps(r.Height(), InfillPitch) > MaxSweeps || rawSweeps(r.Width(), InfillPitch) > MaxSweeps
	}
}

// Infill returns the infill segments of r for pattern, in print order
func Infill(pattern models.InfillPattern, r Rect) []Segment {
	switch pattern {
	case models.InfillLines:
		return lines(r)
	case models.InfillTriangles:
		return triangles(r)
	default:
		return grid(r)
	}
}

// grid sweeps the full width at every pitch step, then the full depth
func grid(r Rect) []Segment {
	var segs []Segment
	for i := 1; i <= SweepCount(r.Height(), InfillPitch); i++ {
		y := r.Min.Y + float64(i)*InfillPitch
		segs = append(segs, Segment{Point{r.Min.X, y}, Point{r.Max.X, y}})
	}
	for i := 1; i <= SweepCount(r.Width(), InfillPitch); i++ {
		x := r.Min.X + float64(i)*InfillPitch
		segs = append(segs, Segment{Point{x, r.Min.Y}, Point{x, r.Max.Y}})
	}
	return segs
}

// lines sweeps horizontally only; even sweeps run left to right, odd sweeps
// right to left
func lines(r Rect) []Segment {
	var segs []Segment
	for i := 1; i <= SweepCount(r.Height(), InfillPitch); i++ {
		y := r.Min.Y + float64(i)*InfillPitch
		left, right := Point{r.Min.X, y}, Point{r.Max.X, y}
		if i%2 == 0 {
			segs = append(segs, Segment{left, right})
		} else {
			segs = append(segs, Segment{right, left})
		}
	}
	return segs
}

// triangles lays a rising and a falling family of 45° diagonals, each clipped
// to r. Diagonal k of a family sits at offset k*TriangleSpacing measured along
// the rectangle border.
func triangles(r Rect) []Segment {
	w, h := r.Width(), r.Height()
	var segs []Segment

	diagonals := int(math.Min(math.Ceil((w+h)/TriangleSpacing), MaxSweeps))

	// rising: x - y = offset - h, relative to Min
	for i := 1; i < diagonals; i++ {
		o := float64(i) * TriangleSpacing
		k := o - h
		start := Point{r.Min.X + math.Max(0, k), r.Min.Y + math.Max(0, -k)}
		t := math.Min(w-math.Max(0, k), h-math.Max(0, -k))
		if t <= eps {
			continue
		}
		segs = append(segs, Segment{start, Point{start.X + t, start.Y + t}})
	}

	// falling: x + y = offset, relative to Min
	for i := 1; i < diagonals; i++ {
		o := float64(i) * TriangleSpacing
		dx := math.Min(o, w)
		start := Point{r.Min.X + dx, r.Min.Y + (o - dx)}
		t := math.Min(start.X-r.Min.X, r.Max.Y-start.Y)
		if t <= eps {
			continue
		}
		segs = append(segs, Segment{start, Point{start.X - t, start.Y + t}})
	}

	return segs
}
