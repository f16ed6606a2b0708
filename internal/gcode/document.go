package gcode

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-logr/logr"

	"github.com/philipparndt/goslice/internal/models"
	"github.com/philipparndt/goslice/version"
)

// Section names of a Document
const (
	SectionHeader  = "header"
	SectionLayers  = "layers"
	SectionPreview = "preview"
	SectionFooter  = "footer"
)

// Section is a named block of consecutive lines
type Section struct {
	Name  string
	Lines []string
}

// Document is an ordered list of sections. It is not modified after the
// generator returns it.
type Document struct {
	Sections []Section
}

// Section returns the section called name
func (d *Document) Section(name string) (Section, bool) {
	for _, s := range d.Sections {
		if s.Name == name {
			return s, true
		}
	}
	return Section{}, false
}

// Lines returns all lines in order
func (d *Document) Lines() []string {
	var n int
	for _, s := range d.Sections {
		n += len(s.Lines)
	}
	lines := make([]string, 0, n)
	for _, s := range d.Sections {
		lines = append(lines, s.Lines...)
	}
	return lines
}

// String renders the document with a newline after every line
func (d *Document) String() string {
	var b strings.Builder
	_, _ = d.WriteTo(&b)
	return b.String()
}

// WriteTo writes the rendered document to w
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, s := range d.Sections {
		for _, line := range s.Lines {
			n, err := io.WriteString(w, line+"\n")
			total += int64(n)
			if err != nil {
				return total, err
			}
		}
	}
	return total, nil
}

// PreviewNotice is placed between header and footer of a preview
func PreviewNotice() []string {
	return []string{
		"",
		Comment("[... Full G-code would continue with the actual head movements ...]"),
		Comment("[... This is a preview only, the full file includes every layer ...]"),
		"",
	}
}

// Generator assembles complete documents
type Generator struct {
	template    *Template
	synthesizer *Synthesizer
}

// Option configures a Generator
type Option func(*Template)

// WithClock sets the clock used for the date in the banner
func WithClock(clock func() time.Time) Option {
	return func(t *Template) { t.Clock = clock }
}

// WithSlicer overrides the slicer name written to the banner
func WithSlicer(name string) Option {
	return func(t *Template) { t.Slicer = name }
}

// NewGenerator creates a new document generator
func NewGenerator(log logr.Logger, opts ...Option) *Generator {
	t := &Template{
		Slicer: "goslice " + version.Get().Version,
		Clock:  time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return &Generator{template: t, synthesizer: NewSynthesizer(log)}
}

// Full returns header, layers and footer
func (g *Generator) Full(p models.PrintParameters, s models.ModelStats) (*Document, error) {
	layers, err := g.synthesizer.Layers(p, s)
	if err != nil {
		return nil, fmt.Errorf("failed to generate G-code: %w", err)
	}
	return g.assemble(p, s, Section{Name: SectionLayers, Lines: append(layers, "")}), nil
}

// Preview returns header and footer around a short notice, without layers
func (g *Generator) Preview(p models.PrintParameters, s models.ModelStats) *Document {
	return g.assemble(p, s, Section{Name: SectionPreview, Lines: PreviewNotice()})
}

func (g *Generator) assemble(p models.PrintParameters, s models.ModelStats, body Section) *Document {
	return &Document{Sections: []Section{
		{Name: SectionHeader, Lines: g.template.Header(p, s)},
		body,
		{Name: SectionFooter, Lines: g.template.Footer(p, s)},
	}}
}
