package geometry

import (
	"errors"
	"fmt"
)

// Face is a triangle referencing three vertex indices
type Face [3]int

// ErrNoFaces is returned when a volume is requested for a mesh without faces
var ErrNoFaces = errors.New("no faces")

// SignedVolume sums the signed tetrahedra formed by the origin and every face.
// For a closed, consistently wound surface this is the enclosed volume.
func SignedVolume(vertices []Vector3, faces []Face) (float64, error) {
	if len(faces) == 0 {
		return 0, ErrNoFaces
	}

	total := 0.0
	for i, f := range faces {
		for _, idx := range f {
			if idx < 0 || idx >= len(vertices) {
				return 0, fmt.Errorf("face %d references vertex %d out of range", i, idx)
			}
		}
		a, b, c := vertices[f[0]], vertices[f[1]], vertices[f[2]]
		total += a.Dot(b.Cross(c))
	}

	volume := total / 6.0
	if !isFinite(volume) {
		return 0, fmt.Errorf("volume is not finite: %v", volume)
	}
	return volume, nil
}

type edge struct{ a, b int }

func newEdge(a, b int) edge {
	if a > b {
		a, b = b, a
	}
	return edge{a, b}
}

// IsWatertight reports whether every edge of the surface is shared by exactly
// two faces.
func IsWatertight(faces []Face) bool {
	if len(faces) == 0 {
		return false
	}

	counts := make(map[edge]int, len(faces)*3/2)
	for _, f := range faces {
		counts[newEdge(f[0], f[1])]++
		counts[newEdge(f[1], f[2])]++
		counts[newEdge(f[2], f[0])]++
	}

	for _, n := range counts {
		if n != 2 {
			return false
		}
	}
	return true
}
