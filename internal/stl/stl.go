package stl

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/philipparndt/goslice/internal/geometry"
)

const (
	headerSize   = 80
	countSize    = 4
	triangleSize = 50
	sniffSize    = 100
)

// Format is the encoding of an STL payload
type Format int

const (
	FormatBinary Format = iota
	FormatASCII
)

func (f Format) String() string {
	if f == FormatASCII {
		return "ascii"
	}
	return "binary"
}

// Opposite returns the other STL encoding
func (f Format) Opposite() Format {
	if f == FormatASCII {
		return FormatBinary
	}
	return FormatASCII
}

// ErrNoTriangles is returned when a payload parses but describes no geometry
var ErrNoTriangles = errors.New("no triangles")

// Triangle represents a triangle in 3D space
type Triangle struct {
	Normal     geometry.Vector3
	V1, V2, V3 geometry.Vector3
}

// Mesh represents an STL mesh as an unindexed triangle list
type Mesh struct {
	Name      string
	Triangles []Triangle
}

// DetectFormat classifies a payload by sniffing its first bytes. The payload
// is ASCII when "solid" appears within the first five bytes and the sniffed
// window holds no NUL byte.
func DetectFormat(data []byte) Format {
	window := data
	if len(window) > sniffSize {
		window = window[:sniffSize]
	}

	lead := window
	if len(lead) > 5 {
		lead = lead[:5]
	}

	if bytes.Contains(lead, []byte("solid")) && bytes.IndexByte(window, 0) < 0 {
		return FormatASCII
	}
	return FormatBinary
}

// ParseFormat parses data in the given encoding
func ParseFormat(data []byte, format Format) (*Mesh, error) {
	if format == FormatASCII {
		return ParseASCII(data)
	}
	return ParseBinary(data)
}

// Parse infers the encoding from the payload size and content
func Parse(data []byte) (*Mesh, error) {
	if expectedBinarySize(data) == len(data) {
		return ParseBinary(data)
	}
	if strings.HasPrefix(strings.TrimSpace(string(peek(data, sniffSize))), "solid") {
		return ParseASCII(data)
	}
	return ParseBinary(data)
}

func peek(data []byte, n int) []byte {
	if len(data) > n {
		return data[:n]
	}
	return data
}

// expectedBinarySize returns the size a binary payload should have according
// to its triangle count, or -1 when the payload is too short to tell
func expectedBinarySize(data []byte) int {
	if len(data) < headerSize+countSize {
		return -1
	}
	count := binary.LittleEndian.Uint32(data[headerSize:])
	return headerSize + countSize + int(count)*triangleSize
}

// ParseASCII parses an ASCII STL payload
func ParseASCII(data []byte) (*Mesh, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	mesh := &Mesh{}

	var current Triangle
	var vertices []geometry.Vector3
	inFacet := false
	sawSolid := false
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "solid":
			sawSolid = true
			if len(fields) > 1 {
				mesh.Name = strings.Join(fields[1:], " ")
			}
		case "facet":
			if inFacet {
				return nil, fmt.Errorf("line %d: facet inside facet", lineNo)
			}
			inFacet = true
			vertices = vertices[:0]
			current = Triangle{}
			if len(fields) >= 5 && fields[1] == "normal" {
				normal, err := parseVector(fields[2:5])
				if err != nil {
					return nil, fmt.Errorf("line %d: invalid normal: %w", lineNo, err)
				}
				current.Normal = normal
			}
		case "vertex":
			if !inFacet {
				return nil, fmt.Errorf("line %d: vertex outside facet", lineNo)
			}
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: vertex needs three coordinates", lineNo)
			}
			v, err := parseVector(fields[1:4])
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid vertex: %w", lineNo, err)
			}
			vertices = append(vertices, v)
		case "endfacet":
			if len(vertices) != 3 {
				return nil, fmt.Errorf("line %d: facet has %d vertices, want 3", lineNo, len(vertices))
			}
			current.V1, current.V2, current.V3 = vertices[0], vertices[1], vertices[2]
			mesh.Triangles = append(mesh.Triangles, current)
			inFacet = false
		case "outer", "endloop", "endsolid":
		default:
			return nil, fmt.Errorf("line %d: unexpected token %q", lineNo, fields[0])
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading ASCII STL: %w", err)
	}
	if !sawSolid {
		return nil, fmt.Errorf("missing solid keyword")
	}
	if inFacet {
		return nil, fmt.Errorf("unterminated facet")
	}
	if len(mesh.Triangles) == 0 {
		return nil, ErrNoTriangles
	}

	return mesh, nil
}

func parseVector(fields []string) (geometry.Vector3, error) {
	var c [3]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return geometry.Vector3{}, err
		}
		c[i] = v
	}
	return geometry.NewVector3(c[0], c[1], c[2]), nil
}

// ParseBinary parses a binary STL payload. The payload must be at least as
// long as its triangle count claims.
func ParseBinary(data []byte) (*Mesh, error) {
	if len(data) < headerSize+countSize {
		return nil, fmt.Errorf("binary STL too short: %d bytes", len(data))
	}

	expected := expectedBinarySize(data)
	if expected > len(data) {
		return nil, fmt.Errorf("binary STL truncated: header claims %d bytes, got %d", expected, len(data))
	}

	triangleCount := binary.LittleEndian.Uint32(data[headerSize:])
	if triangleCount == 0 {
		return nil, ErrNoTriangles
	}

	mesh := &Mesh{
		Name:      string(bytes.TrimRight(data[:headerSize], "\x00 ")),
		Triangles: make([]Triangle, triangleCount),
	}

	offset := headerSize + countSize
	for i := range mesh.Triangles {
		record := data[offset : offset+triangleSize]
		mesh.Triangles[i] = Triangle{
			Normal: readVector(record[0:]),
			V1:     readVector(record[12:]),
			V2:     readVector(record[24:]),
			V3:     readVector(record[36:]),
		}
		// trailing two bytes are the unused attribute byte count
		offset += triangleSize
	}

	return mesh, nil
}

func readVector(b []byte) geometry.Vector3 {
	return geometry.NewVector3(
		float64(math.Float32frombits(binary.LittleEndian.Uint32(b[0:]))),
		float64(math.Float32frombits(binary.LittleEndian.Uint32(b[4:]))),
		float64(math.Float32frombits(binary.LittleEndian.Uint32(b[8:]))),
	)
}

// WriteBinary encodes a mesh as binary STL
func WriteBinary(w io.Writer, mesh *Mesh) error {
	header := make([]byte, headerSize)
	copy(header, mesh.Name)
	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("error writing header: %w", err)
	}

	if err := binary.Write(w, binary.LittleEndian, uint32(len(mesh.Triangles))); err != nil {
		return fmt.Errorf("error writing triangle count: %w", err)
	}

	record := make([]byte, triangleSize)
	for i, tri := range mesh.Triangles {
		for j, v := range []geometry.Vector3{tri.Normal, tri.V1, tri.V2, tri.V3} {
			binary.LittleEndian.PutUint32(record[j*12:], math.Float32bits(float32(v.X)))
			binary.LittleEndian.PutUint32(record[j*12+4:], math.Float32bits(float32(v.Y)))
			binary.LittleEndian.PutUint32(record[j*12+8:], math.Float32bits(float32(v.Z)))
		}
		if _, err := w.Write(record); err != nil {
			return fmt.Errorf("error writing triangle %d: %w", i, err)
		}
	}

	return nil
}

// WriteASCII encodes a mesh as ASCII STL
func WriteASCII(w io.Writer, mesh *Mesh) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "solid %s\n", mesh.Name)
	for _, tri := range mesh.Triangles {
		fmt.Fprintf(bw, "  facet normal %g %g %g\n", tri.Normal.X, tri.Normal.Y, tri.Normal.Z)
		fmt.Fprintf(bw, "    outer loop\n")
		for _, v := range []geometry.Vector3{tri.V1, tri.V2, tri.V3} {
			fmt.Fprintf(bw, "      vertex %g %g %g\n", v.X, v.Y, v.Z)
		}
		fmt.Fprintf(bw, "    endloop\n")
		fmt.Fprintf(bw, "  endfacet\n")
	}
	fmt.Fprintf(bw, "endsolid %s\n", mesh.Name)

	return bw.Flush()
}
