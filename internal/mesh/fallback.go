package mesh

import "github.com/philipparndt/goslice/internal/geometry"

// FallbackEdge is the edge length in millimetres of the substitute cube
const FallbackEdge = 100.0

var (
	fallbackCorners = [8][3]float64{
		{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
		{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1},
	}

	fallbackFaces = [12]geometry.Face{
		{0, 1, 2}, {0, 2, 3}, {4, 5, 6}, {4, 6, 7},
		{0, 1, 5}, {0, 5, 4}, {1, 2, 6}, {1, 6, 5},
		{2, 3, 7}, {2, 7, 6}, {3, 0, 4}, {3, 4, 7},
	}
)

// Fallback returns the cube substituted when no loader strategy succeeds.
// A fresh copy is returned on every call.
func Fallback() *Mesh {
	m := &Mesh{
		Vertices: make([]geometry.Vector3, len(fallbackCorners)),
		Faces:    make([]geometry.Face, len(fallbackFaces)),
	}
	for i, c := range fallbackCorners {
		m.Vertices[i] = geometry.NewVector3(c[0]*FallbackEdge, c[1]*FallbackEdge, c[2]*FallbackEdge)
	}
	copy(m.Faces, fallbackFaces[:])
	return m
}
