package inspect

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/philipparndt/goslice/internal/gcode"
)

// Summary describes a G-code document
type Summary struct {
	Lines    int
	Commands int
	Comments int

	// Layers counts the distinct "LAYER n" markers
	Layers int
	// DeclaredLayers is the layer count named by a truncation notice, 0 if absent
	DeclaredLayers int
	MaxZ           float64

	Extruded    float64
	Retractions int
	Primes      int
	Codes       map[string]int
}

// Truncated reports whether the document announced more layers than it holds
func (s *Summary) Truncated() bool {
	return s.DeclaredLayers > s.Layers
}

// Inspector provides functionality to inspect G-code files
type Inspector struct{}

// NewInspector creates a new Inspector
func NewInspector() *Inspector {
	return &Inspector{}
}

// Inspect reads and displays a summary of a G-code file
func (i *Inspector) Inspect(filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("file not found: %s", filename)
	}
	defer f.Close()

	summary, err := Analyze(f)
	if err != nil {
		return fmt.Errorf("error reading G-code file: %w", err)
	}

	NewSummaryPrinter().Print(filename, summary)
	return nil
}

// Analyze tokenises every line of r. Extrusion is summed assuming relative
// extruder mode; an E move without X or Y that follows a retraction is a prime.
func Analyze(r io.Reader) (*Summary, error) {
	s := &Summary{Codes: make(map[string]int)}
	layers := make(map[int]bool)
	retracted := false

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		s.Lines++
		line, err := gcode.ParseLine(scanner.Text())
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", s.Lines, err)
		}

		if line.IsComment() {
			if line.Comment != "" {
				s.Comments++
				scanComment(line.Comment, s, layers)
			}
			continue
		}

		s.Commands++
		code := line.Code()
		s.Codes[code]++
		if code != "G0" && code != "G1" {
			continue
		}

		if z, ok := line.Value('Z'); ok {
			s.MaxZ = math.Max(s.MaxZ, z)
		}
		e, ok := line.Value('E')
		if !ok {
			continue
		}
		_, hasX := line.Value('X')
		_, hasY := line.Value('Y')
		switch {
		case e < 0:
			s.Retractions++
			retracted = true
		case retracted && !hasX && !hasY:
			s.Primes++
			retracted = false
		case e > 0:
			s.Extruded += e
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	s.Layers = len(layers)
	return s, nil
}

func scanComment(comment string, s *Summary, layers map[int]bool) {
	var n int
	if strings.HasPrefix(comment, "LAYER ") {
		if _, err := fmt.Sscanf(comment, "LAYER %d", &n); err == nil {
			layers[n] = true
		}
		return
	}
	const notice = "The complete model would have "
	if idx := strings.Index(comment, notice); idx >= 0 {
		if _, err := fmt.Sscanf(comment[idx+len(notice):], "%d", &n); err == nil {
			s.DeclaredLayers = n
		}
	}
}
