package gcode

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/philipparndt/goslice/internal/models"
)

func cubeStats(edge float64) models.ModelStats {
	return models.ModelStats{
		Dimensions:    models.Dimensions{Width: edge, Depth: edge, Height: edge},
		Volume:        edge * edge * edge,
		TriangleCount: 12,
	}
}

func layerComments(lines []string) []string {
	var out []string
	for _, l := range lines {
		if strings.HasPrefix(l, "; LAYER ") {
			out = append(out, l)
		}
	}
	return out
}

func TestLayerCount(t *testing.T) {
	tests := []struct {
		height, layer float64
		want          int
	}{
		{10, 0.2, 50},
		{100, 0.2, 500},
		{0.5, 0.2, 3},
		{0.4, 0.2, 2},
		{0.2, 0.2, 1},
		{0.1, 0.2, 1},
		{1.1, 0.1, 11},
		{2.1, 0.3, 8},
		{1.32, 0.12, 12},
		{0.6, 0.2, 3},
		{0, 0.2, 0},
		{-1, 0.2, 0},
		{10, 0, 0},
		{math.NaN(), 0.2, 0},
		{math.Inf(1), 0.2, 0},
	}
	for _, tt := range tests {
		if got := LayerCount(tt.height, tt.layer); got != tt.want {
			t.Errorf("LayerCount(%v, %v) = %d, want %d", tt.height, tt.layer, got, tt.want)
		}
	}
}

func TestExtrusionPerMM(t *testing.T) {
	assert.InDelta(t, 0.2*0.24*0.0432, ExtrusionPerMM(0.2), 1e-12)
}

func TestLayers_Truncated(t *testing.T) {
	s := NewSynthesizer(logr.Discard())
	st := cubeStats(10)

	lines, err := s.Layers(models.DefaultPrintParameters(), st)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"; LAYER 1 - 0.2mm",
		"; LAYER 2 - 0.4mm",
		"; LAYER 3 - 0.6mm",
	}, layerComments(lines))
	assert.Equal(t, TruncationNotice(50), lines[len(lines)-2:])
	assert.Contains(t, lines[len(lines)-1], "50 layers")
}

func TestLayers_FewLayers(t *testing.T) {
	s := NewSynthesizer(logr.Discard())
	st := cubeStats(50)
	st.Dimensions.Height = 0.4

	lines, err := s.Layers(models.DefaultPrintParameters(), st)
	require.NoError(t, err)

	assert.Len(t, layerComments(lines), 2)
	for _, l := range lines {
		assert.NotContains(t, l, "truncated")
	}
}

func TestLayers_ZeroHeight(t *testing.T) {
	s := NewSynthesizer(logr.Discard())
	st := cubeStats(50)
	st.Dimensions.Height = 0

	lines, err := s.Layers(models.DefaultPrintParameters(), st)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestLayers_ZStrictlyIncreases(t *testing.T) {
	s := NewSynthesizer(logr.Discard())
	p := models.DefaultPrintParameters()
	p.LayerHeight = 0.12

	lines, err := s.Layers(p, cubeStats(20))
	require.NoError(t, err)

	var zs []float64
	for _, l := range lines {
		parsed, err := ParseLine(l)
		require.NoError(t, err, l)
		if parsed.Comment == "Move to layer height" {
			z, ok := parsed.Value('Z')
			require.True(t, ok)
			zs = append(zs, z)
		}
	}
	require.Len(t, zs, MaxLayers)
	for i := 1; i < len(zs); i++ {
		assert.Greater(t, zs[i], zs[i-1])
	}
	assert.InDelta(t, 0.36, zs[2], 1e-9)
}

func TestLayers_RetractionIsPaired(t *testing.T) {
	s := NewSynthesizer(logr.Discard())
	p := models.DefaultPrintParameters()

	for _, pattern := range models.InfillPatterns {
		t.Run(string(pattern), func(t *testing.T) {
			p.InfillPattern = pattern
			lines, err := s.Layers(p, cubeStats(30))
			require.NoError(t, err)

			var retractions, primes int
			retracted := false
			for _, l := range lines {
				parsed, err := ParseLine(l)
				require.NoError(t, err, l)
				e, ok := parsed.Value('E')
				if !ok {
					continue
				}
				_, hasX := parsed.Value('X')
				switch {
				case e < 0:
					assert.False(t, retracted, "retracted twice: %s", l)
					retracted = true
					retractions++
				case retracted:
					assert.False(t, hasX, "extruding move while retracted: %s", l)
					assert.Equal(t, p.RetractionDistance, e)
					retracted = false
					primes++
				}
			}
			assert.False(t, retracted)
			assert.Equal(t, MaxLayers, retractions)
			assert.Equal(t, retractions, primes)
		})
	}
}

func TestLayers_NoRetraction(t *testing.T) {
	s := NewSynthesizer(logr.Discard())
	p := models.DefaultPrintParameters()
	p.RetractionDistance = 0

	lines, err := s.Layers(p, cubeStats(30))
	require.NoError(t, err)

	joined := strings.Join(lines, "\n")
	assert.NotContains(t, joined, "Retract")
	assert.NotContains(t, joined, "Prime")
	assert.Contains(t, joined, "Z hop")
}

func TestLayers_Perimeter(t *testing.T) {
	s := NewSynthesizer(logr.Discard())
	p := models.DefaultPrintParameters()

	lines, err := s.Layers(p, cubeStats(100))
	require.NoError(t, err)

	i := 0
	for ; i < len(lines) && lines[i] != "; Perimeter"; i++ {
	}
	require.Less(t, i+4, len(lines))

	// 80 mm edges at 0.2 mm layers: 80 * 0.2 * 0.24 * 0.0432
	assert.Equal(t, []string{
		"G1 X90.00 Y10.00 E0.1659 F3600",
		"G1 X90.00 Y90.00 E0.1659 F3600",
		"G1 X10.00 Y90.00 E0.1659 F3600",
		"G1 X10.00 Y10.00 E0.1659 F3600",
	}, lines[i+1:i+5])
	assert.Equal(t, "G1 X10.00 Y10.00 F3000 ; Travel to perimeter start", lines[i-1])
}

func TestLayers_NonFinite(t *testing.T) {
	s := NewSynthesizer(logr.Discard())

	tests := []struct {
		name   string
		params func(*models.PrintParameters)
		stats  func(*models.ModelStats)
	}{
		{"nan width", nil, func(st *models.ModelStats) { st.Dimensions.Width = math.NaN() }},
		{"infinite depth", nil, func(st *models.ModelStats) { st.Dimensions.Depth = math.Inf(1) }},
		{"nan layer height", func(p *models.PrintParameters) { p.LayerHeight = math.NaN() }, nil},
		{"infinite speed", func(p *models.PrintParameters) { p.PrintSpeed = math.Inf(-1) }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := models.DefaultPrintParameters()
			st := cubeStats(10)
			if tt.params != nil {
				tt.params(&p)
			}
			if tt.stats != nil {
				tt.stats(&st)
			}

			lines, err := s.Layers(p, st)
			assert.Nil(t, lines)
			assert.True(t, errors.Is(err, ErrNonFinite), "err = %v", err)
		})
	}
}

func TestLayers_LogsCappedInfill(t *testing.T) {
	var messages []string
	log := funcr.New(func(_, args string) {
		messages = append(messages, args)
	}, funcr.Options{Verbosity: 1})

	p := models.DefaultPrintParameters()
	p.InfillPattern = models.InfillLines
	st := models.ModelStats{Dimensions: models.Dimensions{Width: 100, Depth: 1e6, Height: 0.2}}

	lines, err := NewSynthesizer(log).Layers(p, st)
	require.NoError(t, err)
	assert.NotEmpty(t, lines)
	assert.True(t, containsMessage(messages, "Infill sweep count capped"), messages)

	messages = nil
	_, err = NewSynthesizer(log).Layers(p, cubeStats(10))
	require.NoError(t, err)
	assert.False(t, containsMessage(messages, "Infill sweep count capped"), messages)
}

func containsMessage(messages []string, msg string) bool {
	for _, m := range messages {
		if strings.Contains(m, msg) {
			return true
		}
	}
	return false
}
