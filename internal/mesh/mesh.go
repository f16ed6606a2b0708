// Package mesh holds the in-memory triangle mesh and the loader that turns
// untrusted bytes into one.
package mesh

import (
	"math"

	"github.com/philipparndt/goslice/internal/geometry"
	"github.com/philipparndt/goslice/internal/obj"
	"github.com/philipparndt/goslice/internal/stl"
)

// Mesh is an indexed triangle mesh. It is built once per request and treated
// as read-only afterwards.
type Mesh struct {
	Vertices []geometry.Vector3
	Faces    []geometry.Face
}

// FromSTL converts an unindexed STL triangle list into a mesh where every
// triangle owns its three vertices
func FromSTL(s *stl.Mesh) *Mesh {
	m := &Mesh{
		Vertices: make([]geometry.Vector3, 0, len(s.Triangles)*3),
		Faces:    make([]geometry.Face, 0, len(s.Triangles)),
	}
	for _, tri := range s.Triangles {
		base := len(m.Vertices)
		m.Vertices = append(m.Vertices, tri.V1, tri.V2, tri.V3)
		m.Faces = append(m.Faces, geometry.Face{base, base + 1, base + 2})
	}
	return m
}

// ToSTL flattens the mesh into an STL triangle list. Normals follow the
// counter-clockwise winding; degenerate faces get a zero normal.
func (m *Mesh) ToSTL(name string) *stl.Mesh {
	out := &stl.Mesh{Name: name, Triangles: make([]stl.Triangle, 0, len(m.Faces))}
	for _, f := range m.Faces {
		a, b, c := m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]
		out.Triangles = append(out.Triangles, stl.Triangle{Normal: faceNormal(a, b, c), V1: a, V2: b, V3: c})
	}
	return out
}

func faceNormal(a, b, c geometry.Vector3) geometry.Vector3 {
	n := b.Sub(a).Cross(c.Sub(a))
	l := math.Sqrt(n.Dot(n))
	if l == 0 || math.IsNaN(l) || math.IsInf(l, 0) {
		return geometry.Vector3{}
	}
	return geometry.NewVector3(n.X/l, n.Y/l, n.Z/l)
}

// FromOBJ wraps a decoded OBJ mesh
func FromOBJ(o *obj.Mesh) *Mesh {
	return &Mesh{Vertices: o.Vertices, Faces: o.Faces}
}

// TriangleCount returns the number of faces
func (m *Mesh) TriangleCount() int {
	return len(m.Faces)
}

// BoundingBox returns the axis aligned bounds of the vertices
func (m *Mesh) BoundingBox() (*geometry.BoundingBox, error) {
	return geometry.CalculateBoundingBox(m.Vertices)
}

// Volume returns the signed enclosed volume
func (m *Mesh) Volume() (float64, error) {
	return geometry.SignedVolume(m.Vertices, m.Faces)
}

// IsWatertight reports whether every edge is shared by exactly two faces
func (m *Mesh) IsWatertight() bool {
	return geometry.IsWatertight(m.Faces)
}

// Process repairs a freshly parsed mesh: bit-identical vertices are merged,
// faces touching a non-finite vertex are dropped, as are degenerate faces and
// repeated faces. The receiver is not modified.
func (m *Mesh) Process() *Mesh {
	out := &Mesh{}
	remap := make([]int, len(m.Vertices))
	seen := make(map[geometry.Vector3]int, len(m.Vertices))

	for i, v := range m.Vertices {
		if !v.IsFinite() {
			remap[i] = -1
			continue
		}
		idx, ok := seen[v]
		if !ok {
			idx = len(out.Vertices)
			seen[v] = idx
			out.Vertices = append(out.Vertices, v)
		}
		remap[i] = idx
	}

	faces := make(map[[3]int]bool, len(m.Faces))
	for _, f := range m.Faces {
		a, b, c := remapIndex(remap, f[0]), remapIndex(remap, f[1]), remapIndex(remap, f[2])
		if a < 0 || b < 0 || c < 0 {
			continue
		}
		if a == b || b == c || a == c {
			continue
		}
		key := sortedKey(a, b, c)
		if faces[key] {
			continue
		}
		faces[key] = true
		out.Faces = append(out.Faces, geometry.Face{a, b, c})
	}

	return out.compact()
}

func remapIndex(remap []int, idx int) int {
	if idx < 0 || idx >= len(remap) {
		return -1
	}
	return remap[idx]
}

func sortedKey(a, b, c int) [3]int {
	if a > b {
		a, b = b, a
	}
	if b > c {
		b, c = c, b
	}
	if a > b {
		a, b = b, a
	}
	return [3]int{a, b, c}
}

// compact drops vertices that no face references
func (m *Mesh) compact() *Mesh {
	used := make([]int, len(m.Vertices))
	for i := range used {
		used[i] = -1
	}

	out := &Mesh{Faces: make([]geometry.Face, len(m.Faces))}
	for i, f := range m.Faces {
		for j, idx := range f {
			if used[idx] < 0 {
				used[idx] = len(out.Vertices)
				out.Vertices = append(out.Vertices, m.Vertices[idx])
			}
			out.Faces[i][j] = used[idx]
		}
	}
	return out
}
