package inspect

import (
	"fmt"
	"sort"
	"strings"

	"github.com/philipparndt/goslice/internal/ui"
)

// SummaryPrinter renders a Summary to the terminal
type SummaryPrinter struct{}

// NewSummaryPrinter creates a new SummaryPrinter
func NewSummaryPrinter() *SummaryPrinter {
	return &SummaryPrinter{}
}

// Print shows the summary of filename
func (p *SummaryPrinter) Print(filename string, s *Summary) {
	ui.PrintHeader(fmt.Sprintf("Inspecting: %s", filename))
	ui.PrintKeyValue("Lines", fmt.Sprintf("%d (%d commands, %d comments)", s.Lines, s.Commands, s.Comments))
	ui.PrintKeyValue("Layers", fmt.Sprintf("%d", s.Layers))
	if s.Truncated() {
		ui.PrintWarning(fmt.Sprintf("Truncated: the model needs %d layers", s.DeclaredLayers))
	}
	ui.PrintKeyValue("Max Z", fmt.Sprintf("%.2f mm", s.MaxZ))
	ui.PrintKeyValue("Extruded", fmt.Sprintf("%.4f mm of filament", s.Extruded))
	ui.PrintKeyValue("Retractions", fmt.Sprintf("%d (%d primed)", s.Retractions, s.Primes))

	ui.PrintHeader("Commands")
	ui.PrintInfo(formatCodes(s.Codes))
}

// formatCodes lists command codes by frequency, then by name
func formatCodes(codes map[string]int) string {
	names := make([]string, 0, len(codes))
	for code := range codes {
		names = append(names, code)
	}
	sort.Slice(names, func(i, j int) bool {
		if codes[names[i]] != codes[names[j]] {
			return codes[names[i]] > codes[names[j]]
		}
		return names[i] < names[j]
	})

	parts := make([]string, len(names))
	for i, code := range names {
		parts[i] = fmt.Sprintf("%s×%d", code, codes[code])
	}
	return strings.Join(parts, "  ")
}
