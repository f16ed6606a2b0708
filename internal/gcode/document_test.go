package gcode

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/philipparndt/goslice/internal/models"
)

var fixedTime = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

func newTestGenerator() *Generator {
	return NewGenerator(logr.Discard(),
		WithClock(func() time.Time { return fixedTime }),
		WithSlicer("goslice test"),
	)
}

func TestHeader(t *testing.T) {
	tmpl := &Template{Slicer: "goslice test", Clock: func() time.Time { return fixedTime }}
	st := cubeStats(100)
	st.EstimatedWeightG = 1240
	st.EstimatedFilamentM = 415.9637

	header := strings.Join(tmpl.Header(models.DefaultPrintParameters(), st), "\n")

	for _, want := range []string{
		"; Date: 14/03/2025 09:26:53",
		"; Slicer: goslice test",
		"; Layer Height: 0.2 mm",
		"; Infill Pattern: grid",
		"; Dimensions: 100.00 x 100.00 x 100.00 mm",
		"; Volume: 1000000.00 mm³",
		"; Estimated Weight: 1240.00 g",
		"; Estimated Filament: 415.96 m",
		"; Estimated Print Time: 8h 20m",
		"M104 S210 T0 ; Preheat nozzle",
		"M190 S60 ; Wait for bed temperature",
		"G1 X5 Y150 E15 F1800 ; Purge line",
		"G92 E0 ; Reset extruder",
		"; LAYER 1 - 0.2mm",
		"G1 Z0.2 F3000 ; Move to first layer height",
	} {
		assert.Contains(t, header, want)
	}
}

func TestFooter(t *testing.T) {
	tmpl := &Template{Slicer: "goslice test", Clock: time.Now}
	footer := tmpl.Footer(models.DefaultPrintParameters(), cubeStats(10))

	assert.Equal(t, "; FINISH", footer[0])
	assert.Equal(t, "G1 E-5 F2700 ; Final retraction", footer[1])
	assert.Equal(t, "G1 Z20.00 F3000 ; Lift Z clear of the print", footer[2])
	assert.Equal(t, "; PRINT COMPLETE", footer[len(footer)-1])
}

func TestSplitMinutes(t *testing.T) {
	tests := []struct {
		total         float64
		hours, minute int
	}{
		{500, 8, 20},
		{59.9, 0, 59},
		{60, 1, 0},
		{0, 0, 0},
		{-5, 0, 0},
		{math.NaN(), 0, 0},
		{math.Inf(1), math.MaxInt32, 0},
		{1e300, math.MaxInt32, 0},
	}
	for _, tt := range tests {
		h, m := SplitMinutes(tt.total)
		if h != tt.hours || m != tt.minute {
			t.Errorf("SplitMinutes(%v) = %d, %d, want %d, %d", tt.total, h, m, tt.hours, tt.minute)
		}
	}
	assert.InDelta(t, 500, EstimatePrintMinutes(1e6, 60), 1e-9)
}

func TestFullAndPreviewShareHeaderAndFooter(t *testing.T) {
	g := newTestGenerator()
	p := models.DefaultPrintParameters()
	st := cubeStats(10)

	full, err := g.Full(p, st)
	require.NoError(t, err)
	preview := g.Preview(p, st)

	for _, name := range []string{SectionHeader, SectionFooter} {
		a, ok := full.Section(name)
		require.True(t, ok, name)
		b, ok := preview.Section(name)
		require.True(t, ok, name)
		assert.Equal(t, strings.Join(a.Lines, "\n"), strings.Join(b.Lines, "\n"), name)
	}

	_, ok := full.Section(SectionLayers)
	assert.True(t, ok)
	_, ok = preview.Section(SectionLayers)
	assert.False(t, ok)

	body, ok := preview.Section(SectionPreview)
	require.True(t, ok)
	assert.Equal(t, PreviewNotice(), body.Lines)
	for _, l := range preview.Lines() {
		assert.NotContains(t, l, "Perimeter")
	}
}

func TestFullIsDeterministic(t *testing.T) {
	p := models.DefaultPrintParameters()
	p.InfillPattern = models.InfillTriangles
	st := cubeStats(40)

	a, err := newTestGenerator().Full(p, st)
	require.NoError(t, err)
	b, err := newTestGenerator().Full(p, st)
	require.NoError(t, err)

	assert.Equal(t, a.String(), b.String())
}

func TestFullLinesTokenise(t *testing.T) {
	for _, pattern := range models.InfillPatterns {
		p := models.DefaultPrintParameters()
		p.InfillPattern = pattern

		doc, err := newTestGenerator().Full(p, cubeStats(25))
		require.NoError(t, err)

		for _, l := range doc.Lines() {
			_, err := ParseLine(l)
			assert.NoError(t, err, "line %q", l)
		}
	}
}

func TestDocumentWriteTo(t *testing.T) {
	doc := &Document{Sections: []Section{
		{Name: SectionHeader, Lines: []string{"; a", "G28"}},
		{Name: SectionFooter, Lines: []string{"M84"}},
	}}

	var buf bytes.Buffer
	n, err := doc.WriteTo(&buf)
	require.NoError(t, err)

	assert.Equal(t, "; a\nG28\nM84\n", buf.String())
	assert.Equal(t, int64(buf.Len()), n)
	assert.Equal(t, buf.String(), doc.String())
	assert.Equal(t, []string{"; a", "G28", "M84"}, doc.Lines())
}

func TestFullNonFinite(t *testing.T) {
	st := cubeStats(10)
	st.Dimensions.Width = math.NaN()

	_, err := newTestGenerator().Full(models.DefaultPrintParameters(), st)
	assert.True(t, errors.Is(err, ErrNonFinite))
}

func TestHighlight(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Highlight(&buf, "G1 X10.00 Y20.00 E1.2345 F3600 ; move\n", "monokai"))

	out := buf.String()
	assert.Contains(t, out, "\x1b[")
	assert.Contains(t, out, "G1")
	assert.Contains(t, out, "; move")
}
