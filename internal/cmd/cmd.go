package cmd

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/dustin/go-humanize"
	"github.com/go-logr/logr"

	"github.com/philipparndt/goslice/internal/config"
	"github.com/philipparndt/goslice/internal/gcode"
	"github.com/philipparndt/goslice/internal/inspect"
	"github.com/philipparndt/goslice/internal/logging"
	"github.com/philipparndt/goslice/internal/mesh"
	"github.com/philipparndt/goslice/internal/models"
	"github.com/philipparndt/goslice/internal/pipeline"
	"github.com/philipparndt/goslice/internal/preconditions"
	"github.com/philipparndt/goslice/internal/ui"
	"github.com/philipparndt/goslice/version"
)

// Globals are flags shared by every command
type Globals struct {
	LogLevel string `help:"Log level for diagnostics on stderr" default:"warn" enum:"debug,info,warn,error"`
}

func (g *Globals) logger() logr.Logger {
	log, err := logging.New(g.LogLevel, true)
	if err != nil {
		return logr.Discard()
	}
	return log
}

type CLI struct {
	Globals `embed:""`

	Slice      *SliceCmd      `cmd:"" help:"Generate G-code for a mesh and write it to a file"`
	Preview    *PreviewCmd    `cmd:"" help:"Print the G-code preview (header and footer) of a mesh"`
	Stats      *StatsCmd      `cmd:"" help:"Show model statistics for one or more meshes"`
	Inspect    *InspectCmd    `cmd:"" help:"Summarize a G-code file"`
	Convert    *ConvertCmd    `cmd:"" help:"Repair a mesh and write it as STL"`
	Watch      *WatchCmd      `cmd:"" help:"Regenerate G-code whenever the mesh or parameter file changes"`
	Serve      *ServeCmd      `cmd:"" help:"Run the HTTP API"`
	Version    *VersionCmd    `cmd:"" help:"Show version information"`
	Completion *CompletionCmd `cmd:"" help:"Generate shell completion script"`
}

// MeshInput is the mesh argument and parameter file shared by the mesh commands
type MeshInput struct {
	Mesh   string `arg:"" help:"Mesh file (.stl or .obj)" type:"existingfile"`
	Params string `help:"Print parameters file (YAML or JSON)" short:"p" type:"existingfile"`
}

// run reads the mesh and parameters and runs the pipeline. warn receives the
// notice printed when the mesh could not be decoded.
func (in *MeshInput) run(ctx context.Context, log logr.Logger, mode pipeline.Mode, warn func(string)) (*pipeline.Result, models.PrintParameters, error) {
	params, err := config.NewLoader().LoadParams(in.Params)
	if err != nil {
		return nil, params, err
	}

	data, err := os.ReadFile(in.Mesh)
	if err != nil {
		return nil, params, fmt.Errorf("failed to read mesh: %w", err)
	}

	res, err := pipeline.New(log).Run(ctx, data, params, mode)
	if err != nil {
		return nil, params, err
	}
	if res.Load.Outcome == mesh.OutcomeExhausted {
		warn(fmt.Sprintf("%s could not be decoded, using a %gmm fallback cube", filepath.Base(in.Mesh), mesh.FallbackEdge))
	}
	return res, params, nil
}

type SliceCmd struct {
	MeshInput `embed:""`

	Output string `help:"Output file path (default: <mesh>.gcode)" short:"o"`
	Open   bool   `help:"Open the result file in the default application after slicing"`
}

// Help adds additional help text with examples
func (c *SliceCmd) Help() string {
	return renderSliceHelp()
}

func (c *SliceCmd) Run(g *Globals) error {
	output := c.Output
	if output == "" {
		output = defaultOutput(c.Mesh)
	}
	if err := preconditions.Check(preconditions.MeshFiles(c.Mesh), preconditions.OutputFile(output)); err != nil {
		return err
	}

	ui.PrintHeader("Slicing " + filepath.Base(c.Mesh))
	if err := sliceToFile(context.Background(), g.logger(), &c.MeshInput, output); err != nil {
		return err
	}

	if c.Open {
		if err := openFile(output); err != nil {
			ui.PrintError("Failed to open file: " + err.Error())
		}
	}
	return nil
}

// sliceToFile runs the full pipeline and writes the document to output
func sliceToFile(ctx context.Context, log logr.Logger, in *MeshInput, output string) error {
	res, params, err := in.run(ctx, log, pipeline.ModeFull, ui.PrintWarning)
	if err != nil {
		return err
	}

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	n, err := res.Document.WriteTo(f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	printStats(res, params)
	ui.PrintSuccess(fmt.Sprintf("Wrote %s (%s)", output, humanize.Bytes(uint64(n))))
	return nil
}

func defaultOutput(meshPath string) string {
	return strings.TrimSuffix(meshPath, filepath.Ext(meshPath)) + ".gcode"
}

func printStats(res *pipeline.Result, params models.PrintParameters) {
	s := res.Stats
	d := s.Dimensions
	ui.PrintKeyValue("Loaded via", res.Load.Strategy)
	ui.PrintKeyValue("Dimensions", fmt.Sprintf("%.2f x %.2f x %.2f mm", d.Width, d.Depth, d.Height))
	ui.PrintKeyValue("Volume", fmt.Sprintf("%.2f mm³ (%s)", s.Volume, res.Rule))
	ui.PrintKeyValue("Triangles", humanize.Comma(int64(s.TriangleCount)))
	ui.PrintKeyValue("Weight", fmt.Sprintf("%.2f g", s.EstimatedWeightG))
	ui.PrintKeyValue("Filament", fmt.Sprintf("%.2f m", s.EstimatedFilamentM))
	if layers := gcode.LayerCount(d.Height, params.LayerHeight); layers > gcode.MaxLayers {
		ui.PrintInfo(fmt.Sprintf("Only %d of %d layers are emitted", gcode.MaxLayers, layers))
	}
}

type PreviewCmd struct {
	MeshInput `embed:""`

	Color bool   `help:"Highlight the G-code"`
	Style string `help:"Highlight style" default:"monokai"`
}

func (c *PreviewCmd) Run(g *Globals) error {
	// stdout carries the G-code, so the fallback notice goes to stderr
	warn := func(msg string) { ui.PrintWarningTo(ui.Err, msg) }
	res, _, err := c.run(context.Background(), g.logger(), pipeline.ModePreview, warn)
	if err != nil {
		return err
	}
	if c.Color {
		return gcode.Highlight(ui.Out, res.Document.String(), c.Style)
	}
	_, err = res.Document.WriteTo(ui.Out)
	return err
}

type InspectCmd struct {
	File string `arg:"" help:"G-code file to inspect"`
}

func (c *InspectCmd) Run() error {
	inspector := inspect.NewInspector()
	return inspector.Inspect(c.File)
}

type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	info := version.Get()
	fmt.Fprintln(ui.Out, info.String())
	return nil
}

// openFile opens a file in the default application for the current platform
func openFile(filepath string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", filepath)
	case "linux":
		cmd = exec.Command("xdg-open", filepath)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", "", filepath)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}

// signalContext is cancelled on Ctrl+C or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// Parse parses command line arguments and executes the appropriate command
func Parse() {
	cli := &CLI{}
	ctx := kong.Parse(cli,
		kong.Name("goslice"),
		kong.Description("Mesh statistics and G-code generation for FDM printers"),
		kong.UsageOnError(),
	)
	if err := ctx.Run(&cli.Globals); err != nil {
		ui.PrintError(err.Error())
		os.Exit(1)
	}
}
