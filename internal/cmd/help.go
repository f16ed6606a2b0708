package cmd

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/philipparndt/goslice/internal/gcode"
	"github.com/philipparndt/goslice/internal/models"
)

var (
	helpTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			MarginTop(1)

	helpSectionStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("10"))

	helpCommandStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("14"))

	helpCommentStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("8")).
				Italic(true)

	helpFlagStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))
)

// renderSliceHelp renders the examples and the parameter file reference
// shown by "goslice slice --help"
func renderSliceHelp() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(helpTitleStyle.Render("Examples"))
	b.WriteString("\n\n")

	b.WriteString(helpSectionStyle.Render("Slice with default parameters"))
	b.WriteString("\n")
	b.WriteString("  " + helpCommandStyle.Render("goslice slice model.stl -o model.gcode"))
	b.WriteString("\n\n")

	b.WriteString(helpSectionStyle.Render("Slice with a parameter file"))
	b.WriteString("\n")
	b.WriteString("  " + helpCommandStyle.Render("goslice slice model.stl -p pla.yaml --open"))
	b.WriteString("\n\n")

	b.WriteString(helpSectionStyle.Render("Parameter file keys (YAML or JSON):"))
	b.WriteString("\n")
	b.WriteString(renderParamTable())
	b.WriteString("\n")

	return b.String()
}

// renderParamTable lists every parameter with its default value
func renderParamTable() string {
	d := models.DefaultPrintParameters()
	params := []struct {
		key  string
		desc string
	}{
		{"layer_height", "Layer height in mm (default " + gcode.FormatNumber(d.LayerHeight) + ")"},
		{"nozzle_temp", "Nozzle temperature in °C (default " + gcode.FormatNumber(d.NozzleTemp) + ")"},
		{"bed_temp", "Bed temperature in °C (default " + gcode.FormatNumber(d.BedTemp) + ")"},
		{"print_speed", "Print speed in mm/s (default " + gcode.FormatNumber(d.PrintSpeed) + ")"},
		{"infill_density", "Infill density in %, informational (default " + gcode.FormatNumber(d.InfillDensity) + ")"},
		{"infill_pattern", patternList() + " (default " + string(d.InfillPattern) + ")"},
		{"retraction_distance", "Retraction in mm, 0 disables (default " + gcode.FormatNumber(d.RetractionDistance) + ")"},
		{"retraction_speed", "Retraction speed in mm/s (default " + gcode.FormatNumber(d.RetractionSpeed) + ")"},
	}

	maxWidth := 0
	for _, p := range params {
		maxWidth = max(maxWidth, len(p.key))
	}

	var b strings.Builder
	for _, p := range params {
		padding := strings.Repeat(" ", maxWidth-len(p.key)+2)
		b.WriteString("  " + helpFlagStyle.Render(p.key) + padding + helpCommentStyle.Render(p.desc))
		b.WriteString("\n")
	}
	return b.String()
}

func patternList() string {
	names := make([]string, len(models.InfillPatterns))
	for i, p := range models.InfillPatterns {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}
