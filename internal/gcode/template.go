package gcode

import (
	"fmt"
	"math"
	"time"

	"github.com/philipparndt/goslice/internal/models"
)

const (
	// TravelFeed is the feed rate of non-extruding moves in mm/min
	TravelFeed = 3000.0
	// ParkLift is how far above the last layer the nozzle is lifted at the end
	ParkLift = 10.0

	dateLayout = "02/01/2006 15:04:05"
)

// Template renders the fixed header and footer blocks shared by the preview
// and the full document
type Template struct {
	Slicer string
	Clock  func() time.Time
}

// EstimatePrintMinutes returns the rough print time in minutes
func EstimatePrintMinutes(volume, printSpeed float64) float64 {
	return (volume / 1000) * 0.5 * (60 / printSpeed)
}

// SplitMinutes splits minutes into whole hours and whole remaining minutes.
// Hours saturate at math.MaxInt32; NaN and negative totals give 0h 0m.
func SplitMinutes(total float64) (hours, minutes int) {
	if !(total > 0) {
		return 0, 0
	}
	h := math.Floor(total / 60)
	if h > math.MaxInt32 {
		return math.MaxInt32, 0
	}
	return int(h), int(math.Floor(math.Mod(total, 60)))
}

// Header returns the banner, machine initialisation, purge line and the move
// to the first layer
func (t *Template) Header(p models.PrintParameters, s models.ModelStats) []string {
	hours, minutes := SplitMinutes(EstimatePrintMinutes(s.Volume, p.PrintSpeed))
	purgeFeed := p.PrintSpeed * 30
	d := s.Dimensions

	return []string{
		Comment(t.Slicer + " - generated G-code"),
		Comment("Date: " + t.Clock().Format(dateLayout)),
		Comment("Slicer: " + t.Slicer),
		Comment(""),
		Comment("PRINT PARAMETERS"),
		Comment(fmt.Sprintf("Layer Height: %s mm", FormatNumber(p.LayerHeight))),
		Comment(fmt.Sprintf("Nozzle Temperature: %s°C", FormatNumber(p.NozzleTemp))),
		Comment(fmt.Sprintf("Bed Temperature: %s°C", FormatNumber(p.BedTemp))),
		Comment(fmt.Sprintf("Print Speed: %s mm/s", FormatNumber(p.PrintSpeed))),
		Comment(fmt.Sprintf("Infill Density: %s%%", FormatNumber(p.InfillDensity))),
		Comment(fmt.Sprintf("Infill Pattern: %s", p.InfillPattern)),
		Comment(""),
		Comment("MODEL STATISTICS"),
		Comment(fmt.Sprintf("Dimensions: %.2f x %.2f x %.2f mm", d.Width, d.Depth, d.Height)),
		Comment(fmt.Sprintf("Volume: %.2f mm³", s.Volume)),
		Comment(fmt.Sprintf("Triangles: %d", s.TriangleCount)),
		Comment(fmt.Sprintf("Estimated Weight: %.2f g", s.EstimatedWeightG)),
		Comment(fmt.Sprintf("Estimated Filament: %.2f m", s.EstimatedFilamentM)),
		Comment(fmt.Sprintf("Estimated Print Time: %dh %dm", hours, minutes)),
		Comment(""),
		"",
		Comment("INITIALIZATION"),
		Cmd("M104").Num('S', p.NozzleTemp).With('T', "0").Note("Preheat nozzle").String(),
		Cmd("M140").Num('S', p.BedTemp).Note("Preheat bed").String(),
		Cmd("M115").Note("Report firmware info").String(),
		"M201 X500 Y500 Z100 E5000 ; Set max acceleration",
		"M203 X500 Y500 Z10 E50 ; Set max feedrate",
		"M204 P500 R1000 T500 ; Set print, retract and travel acceleration",
		"M205 X8.00 Y8.00 Z0.40 E5.00 ; Set jerk limits",
		"M220 S100 ; Speed factor 100%",
		"M221 S100 ; Extrusion factor 100%",
		"G28 ; Home all axes",
		"G29 ; Auto bed leveling",
		"G90 ; Absolute positioning",
		"G21 ; Millimetre units",
		"M83 ; Relative extrusion",
		Cmd("M190").Num('S', p.BedTemp).Note("Wait for bed temperature").String(),
		Cmd("M109").Num('S', p.NozzleTemp).With('T', "0").Note("Wait for nozzle temperature").String(),
		"",
		Comment("PURGE LINE"),
		"G1 Z5 F3000 ; Lift Z",
		"G1 X5 Y10 F3000 ; Move to purge start",
		"G1 Z0.3 F3000 ; Lower Z",
		Cmd("G1").With('X', "5").With('Y', "150").With('E', "15").Num('F', purgeFeed).Note("Purge line").String(),
		"G1 X5.4 Y150 F3000 ; Step over",
		Cmd("G1").With('X', "5.4").With('Y', "10").With('E', "15").Num('F', purgeFeed).Note("Purge line back").String(),
		"G1 Z1 F3000 ; Lift Z",
		"G92 E0 ; Reset extruder",
		"",
		Comment(fmt.Sprintf("LAYER 1 - %smm", FormatNumber(p.LayerHeight))),
		Cmd("G1").Num('Z', p.LayerHeight).Num('F', TravelFeed).Note("Move to first layer height").String(),
	}
}

// Footer returns the shutdown sequence. The Z lift clears the tallest layer
// the model would need.
func (t *Template) Footer(p models.PrintParameters, s models.ModelStats) []string {
	top := float64(LayerCount(s.Dimensions.Height, p.LayerHeight))*p.LayerHeight + ParkLift

	return []string{
		Comment("FINISH"),
		"G1 E-5 F2700 ; Final retraction",
		Cmd("G1").Fixed('Z', top, 2).Num('F', TravelFeed).Note("Lift Z clear of the print").String(),
		"G1 X0 Y220 F3000 ; Park X Y",
		"M104 S0 ; Nozzle heater off",
		"M140 S0 ; Bed heater off",
		"M107 ; Fan off",
		"M84 ; Disable motors",
		"M300 P300 S4000 ; Completion beep",
		Comment("PRINT COMPLETE"),
	}
}
