package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Out receives all terminal output except diagnostics printed alongside
// machine-readable output, which go to Err
var (
	Out io.Writer = os.Stdout
	Err io.Writer = os.Stderr
)

var (
	// Color palette
	primaryColor   = lipgloss.Color("#7D56F4") // Purple
	secondaryColor = lipgloss.Color("#00D9FF") // Cyan
	successColor   = lipgloss.Color("#04B575") // Green
	errorColor     = lipgloss.Color("#FF5F87") // Pink/Red
	warningColor   = lipgloss.Color("#FFAF00") // Orange
	mutedColor     = lipgloss.Color("#626262") // Gray
	accentColor    = lipgloss.Color("#FFD700") // Gold

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginTop(1).
			PaddingLeft(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(secondaryColor).
			MarginTop(1).
			PaddingLeft(1)

	successStyle = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(warningColor)

	infoStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	keyStyle = lipgloss.NewStyle().
			Foreground(secondaryColor).
			Bold(true)

	checkmark = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true).
			SetString("✓")

	cross = lipgloss.NewStyle().
		Foreground(errorColor).
		Bold(true).
		SetString("✗")

	arrow = lipgloss.NewStyle().
		Foreground(secondaryColor).
		SetString("→")

	star = lipgloss.NewStyle().
		Foreground(accentColor).
		SetString("★")

	stepStyle = lipgloss.NewStyle().
			PaddingLeft(2)

	highlightStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1).
			MarginTop(1).
			MarginBottom(1)
)

func emit(s string) {
	fmt.Fprintln(Out, s)
}

// PrintTitle prints a major title (for app name or major sections)
func PrintTitle(title string) {
	emit(titleStyle.Render("╭─ " + title + " ─╮"))
}

// PrintHeader prints a section header
func PrintHeader(title string) {
	emit(headerStyle.Render("▸ " + title))
}

// PrintStep prints a step with indentation
func PrintStep(step string) {
	emit(stepStyle.Render(arrow.String() + " " + step))
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	emit(stepStyle.Render(checkmark.String() + " " + successStyle.Render(message)))
}

// PrintError prints an error message
func PrintError(message string) {
	emit(stepStyle.Render(cross.String() + " " + errorStyle.Render(message)))
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	PrintWarningTo(Out, message)
}

// PrintWarningTo prints a warning message to w
func PrintWarningTo(w io.Writer, message string) {
	fmt.Fprintln(w, stepStyle.Render("⚠ "+warningStyle.Render(message)))
}

// PrintInfo prints an info message
func PrintInfo(message string) {
	emit(stepStyle.Render(infoStyle.Render(message)))
}

// PrintHighlight prints highlighted text
func PrintHighlight(message string) {
	emit(stepStyle.Render(star.String() + " " + highlightStyle.Render(message)))
}

// PrintBox prints text in a rounded box
func PrintBox(content string) {
	emit(boxStyle.Render(content))
}

// PrintKeyValue prints a key-value pair with nice formatting
func PrintKeyValue(key, value string) {
	emit(stepStyle.Render(keyStyle.Render(key+":") + " " + value))
}

// Table prints aligned rows. Cells longer than their column are truncated.
type Table struct {
	Widths []int
}

func (t Table) cells(columns []string) string {
	var row strings.Builder
	for i, col := range columns {
		if i >= len(t.Widths) {
			break
		}
		if i > 0 {
			row.WriteString(" │ ")
		}
		row.WriteString(fit(col, t.Widths[i]))
	}
	return row.String()
}

func fit(col string, width int) string {
	r := []rune(col)
	if len(r) > width {
		if width > 3 {
			return string(r[:width-3]) + "..."
		}
		return string(r[:width])
	}
	return col + strings.Repeat(" ", width-len(r))
}

// Header prints the column titles followed by a separator line
func (t Table) Header(headers ...string) {
	emit(stepStyle.Render(keyStyle.Render(t.cells(headers))))

	dashes := make([]string, min(len(headers), len(t.Widths)))
	for i := range dashes {
		dashes[i] = strings.Repeat("─", t.Widths[i])
	}
	emit(stepStyle.Render(infoStyle.Render(strings.Join(dashes, "─┼─"))))
}

// Row prints one table row
func (t Table) Row(columns ...string) {
	emit(stepStyle.Render(t.cells(columns)))
}
