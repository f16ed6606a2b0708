package mesh

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/go-logr/logr"

	"github.com/philipparndt/goslice/internal/obj"
	"github.com/philipparndt/goslice/internal/stl"
)

const (
	minVertices = 4
	minFaces    = 4
)

// Outcome tells whether a strategy produced the mesh or the fallback was used
type Outcome int

const (
	OutcomeLoaded Outcome = iota
	OutcomeExhausted
)

func (o Outcome) String() string {
	if o == OutcomeExhausted {
		return "exhausted"
	}
	return "loaded"
}

// AttemptError records why one strategy was rejected
type AttemptError struct {
	Strategy string
	Err      error
}

func (e AttemptError) Error() string {
	return fmt.Sprintf("%s: %v", e.Strategy, e.Err)
}

// LoadResult is the outcome of Loader.Load. Mesh is always usable: for
// OutcomeLoaded it comes from Strategy, for OutcomeExhausted it is the
// fallback cube and Errors lists every rejected attempt.
type LoadResult struct {
	Outcome  Outcome
	Mesh     *Mesh
	Strategy string
	Attempt  int
	Format   stl.Format
	Errors   []AttemptError
}

// Strategy is a single way of decoding mesh bytes
type Strategy struct {
	Name string
	Load func(data []byte) (*Mesh, error)
}

// Loader resolves mesh bytes of uncertain format into a Mesh
type Loader struct {
	log logr.Logger
}

// NewLoader creates a new mesh loader
func NewLoader(log logr.Logger) *Loader {
	return &Loader{log: log.WithName("mesh-loader")}
}

// Strategies returns the ordered decoding attempts for a payload sniffed as format
func Strategies(format stl.Format) []Strategy {
	return []Strategy{
		{Name: "stl-" + format.String(), Load: stlLoader(format, true)},
		{Name: "stl-" + format.Opposite().String(), Load: stlLoader(format.Opposite(), true)},
		{Name: "stl-auto", Load: func(data []byte) (*Mesh, error) {
			s, err := stl.Parse(data)
			if err != nil {
				return nil, err
			}
			return FromSTL(s).Process(), nil
		}},
		{Name: "stl-binary-raw", Load: stlLoader(stl.FormatBinary, false)},
		{Name: "stl-ascii-raw", Load: stlLoader(stl.FormatASCII, false)},
		{Name: "obj", Load: func(data []byte) (*Mesh, error) {
			o, err := obj.Parse(data)
			if err != nil {
				return nil, err
			}
			return FromOBJ(o).Process(), nil
		}},
	}
}

func stlLoader(format stl.Format, process bool) func([]byte) (*Mesh, error) {
	return func(data []byte) (*Mesh, error) {
		s, err := stl.ParseFormat(data, format)
		if err != nil {
			return nil, err
		}
		m := FromSTL(s)
		if process {
			m = m.Process()
		}
		return m, nil
	}
}

// Load tries every strategy in order and returns the first usable mesh. It
// never fails: when all strategies are rejected the fallback cube is returned.
func (l *Loader) Load(data []byte) LoadResult {
	format := stl.DetectFormat(data)
	log := l.log.WithValues("size", humanize.Bytes(uint64(len(data))), "format", format.String())
	log.V(1).Info("Loading mesh")

	result := LoadResult{Format: format}
	for i, strategy := range Strategies(format) {
		m, err := attempt(strategy, data)
		if err != nil {
			log.V(1).Info("Load attempt failed", "attempt", i+1, "strategy", strategy.Name, "error", err.Error())
			result.Errors = append(result.Errors, AttemptError{Strategy: strategy.Name, Err: err})
			continue
		}

		log.V(1).Info("Mesh loaded", "attempt", i+1, "strategy", strategy.Name,
			"vertices", len(m.Vertices), "faces", len(m.Faces))
		result.Outcome = OutcomeLoaded
		result.Mesh = m
		result.Strategy = strategy.Name
		result.Attempt = i + 1
		return result
	}

	log.Info("All load attempts failed, using fallback cube", "attempts", len(result.Errors))
	result.Outcome = OutcomeExhausted
	result.Mesh = Fallback()
	result.Strategy = "fallback"
	return result
}

// attempt runs one strategy, converting panics and unusable meshes into errors
func attempt(strategy Strategy, data []byte) (m *Mesh, err error) {
	defer func() {
		if r := recover(); r != nil {
			m, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()

	m, err = strategy.Load(data)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("no mesh produced")
	}
	if len(m.Vertices) < minVertices || len(m.Faces) < minFaces {
		return nil, fmt.Errorf("mesh too small: %d vertices, %d faces", len(m.Vertices), len(m.Faces))
	}
	return m, nil
}
