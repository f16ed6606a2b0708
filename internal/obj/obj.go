// Package obj reads Wavefront OBJ polygon meshes.
package obj

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/philipparndt/goslice/internal/geometry"
)

// ErrNoFaces is returned when the payload declares no polygons
var ErrNoFaces = errors.New("no faces")

// Mesh is an indexed triangle mesh decoded from OBJ. Polygons with more than
// three corners are fan triangulated.
type Mesh struct {
	Vertices []geometry.Vector3
	Faces    []geometry.Face
}

// statements that carry no geometry we use
var ignored = map[string]bool{
	"vn": true, "vt": true, "vp": true,
	"g": true, "o": true, "s": true,
	"mtllib": true, "usemtl": true,
	"l": true, "p": true,
}

// Parse decodes an OBJ payload
func Parse(data []byte) (*Mesh, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	mesh := &Mesh{}
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		switch fields[0] {
		case "v":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: vertex needs three coordinates", lineNo)
			}
			var c [3]float64
			for i := range c {
				v, err := strconv.ParseFloat(fields[i+1], 64)
				if err != nil {
					return nil, fmt.Errorf("line %d: invalid coordinate: %w", lineNo, err)
				}
				c[i] = v
			}
			mesh.Vertices = append(mesh.Vertices, geometry.NewVector3(c[0], c[1], c[2]))
		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: face needs at least three corners", lineNo)
			}
			corners := make([]int, 0, len(fields)-1)
			for _, ref := range fields[1:] {
				idx, err := resolveIndex(ref, len(mesh.Vertices))
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", lineNo, err)
				}
				corners = append(corners, idx)
			}
			for i := 1; i+1 < len(corners); i++ {
				mesh.Faces = append(mesh.Faces, geometry.Face{corners[0], corners[i], corners[i+1]})
			}
		default:
			if !ignored[fields[0]] {
				return nil, fmt.Errorf("line %d: unknown statement %q", lineNo, fields[0])
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading OBJ: %w", err)
	}
	if len(mesh.Faces) == 0 {
		return nil, ErrNoFaces
	}

	return mesh, nil
}

// resolveIndex converts a face corner such as "3", "3/1" or "-1//2" into a
// zero based vertex index
func resolveIndex(ref string, vertexCount int) (int, error) {
	head, _, _ := strings.Cut(ref, "/")
	n, err := strconv.Atoi(head)
	if err != nil {
		return 0, fmt.Errorf("invalid face index %q", ref)
	}

	var idx int
	switch {
	case n > 0:
		idx = n - 1
	case n < 0:
		idx = vertexCount + n
	default:
		return 0, fmt.Errorf("face index 0 is not allowed")
	}

	if idx < 0 || idx >= vertexCount {
		return 0, fmt.Errorf("face index %d out of range (%d vertices)", n, vertexCount)
	}
	return idx, nil
}
