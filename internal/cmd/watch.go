package cmd

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/philipparndt/goslice/internal/preconditions"
	"github.com/philipparndt/goslice/internal/ui"
	"github.com/philipparndt/goslice/internal/watcher"
)

type WatchCmd struct {
	MeshInput `embed:""`

	Output   string        `help:"Output file path (default: <mesh>.gcode)" short:"o"`
	Debounce time.Duration `help:"Wait this long after the last change before regenerating" default:"300ms"`
}

func (c *WatchCmd) Run(g *Globals) error {
	output := c.Output
	if output == "" {
		output = defaultOutput(c.Mesh)
	}
	if err := preconditions.Check(preconditions.MeshFiles(c.Mesh), preconditions.OutputFile(output)); err != nil {
		return err
	}

	log := g.logger()
	ctx, stop := signalContext()
	defer stop()

	// Only one regeneration runs at a time
	var mu sync.Mutex
	regenerate := func(changed string) {
		mu.Lock()
		defer mu.Unlock()

		ui.PrintHeader("Change detected: " + filepath.Base(changed))
		if err := sliceToFile(ctx, log, &c.MeshInput, output); err != nil {
			ui.PrintError(err.Error())
		}
	}

	ui.PrintTitle("goslice watch")
	regenerate(c.Mesh)

	fw, err := watcher.NewFileWatcher(log, c.Debounce)
	if err != nil {
		return err
	}
	defer fw.Close()

	files := []string{c.Mesh}
	if c.Params != "" {
		files = append(files, c.Params)
	}
	if err := fw.Watch(files, regenerate); err != nil {
		return err
	}

	ui.PrintInfo("Watching for changes, press Ctrl+C to stop")
	fw.Run(ctx)

	if ctx.Err() == context.Canceled {
		ui.PrintInfo("Stopped")
	}
	return nil
}
