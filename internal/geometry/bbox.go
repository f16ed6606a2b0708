package geometry

import (
	"errors"
	"fmt"
	"math"
)

// ErrNoVertices is returned when a bounding box is requested for an empty point set
var ErrNoVertices = errors.New("no vertices")

// BoundingBox represents an axis aligned 3D bounding box
type BoundingBox struct {
	MinX, MinY, MinZ float64
	MaxX, MaxY, MaxZ float64
}

// Width returns the width (X dimension) of the bounding box
func (b *BoundingBox) Width() float64 {
	return b.MaxX - b.MinX
}

// Depth returns the depth (Y dimension) of the bounding box
func (b *BoundingBox) Depth() float64 {
	return b.MaxY - b.MinY
}

// Height returns the height (Z dimension) of the bounding box
func (b *BoundingBox) Height() float64 {
	return b.MaxZ - b.MinZ
}

// Volume returns the volume enclosed by the bounding box
func (b *BoundingBox) Volume() float64 {
	return b.Width() * b.Depth() * b.Height()
}

// CalculateBoundingBox calculates the bounding box of a set of vertices.
// Non-finite extents are reported as an error.
func CalculateBoundingBox(vertices []Vector3) (*BoundingBox, error) {
	if len(vertices) == 0 {
		return nil, ErrNoVertices
	}

	first := vertices[0]
	bbox := &BoundingBox{
		MinX: first.X,
		MinY: first.Y,
		MinZ: first.Z,
		MaxX: first.X,
		MaxY: first.Y,
		MaxZ: first.Z,
	}

	for _, v := range vertices[1:] {
		bbox.MinX = math.Min(bbox.MinX, v.X)
		bbox.MinY = math.Min(bbox.MinY, v.Y)
		bbox.MinZ = math.Min(bbox.MinZ, v.Z)
		bbox.MaxX = math.Max(bbox.MaxX, v.X)
		bbox.MaxY = math.Max(bbox.MaxY, v.Y)
		bbox.MaxZ = math.Max(bbox.MaxZ, v.Z)
	}

	for _, extent := range []float64{bbox.Width(), bbox.Depth(), bbox.Height()} {
		if !isFinite(extent) {
			return nil, fmt.Errorf("bounding box has non-finite extent %v", extent)
		}
	}

	return bbox, nil
}
