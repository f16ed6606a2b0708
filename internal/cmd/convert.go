package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/go-logr/logr"

	"github.com/philipparndt/goslice/internal/mesh"
	"github.com/philipparndt/goslice/internal/preconditions"
	"github.com/philipparndt/goslice/internal/stl"
	"github.com/philipparndt/goslice/internal/ui"
)

type ConvertCmd struct {
	Mesh   string `arg:"" help:"Mesh file (.stl or .obj)" type:"existingfile"`
	Output string `help:"Output STL path (default: <mesh>_repaired.stl)" short:"o"`
	ASCII  bool   `help:"Write ASCII STL instead of binary" name:"ascii"`
}

func (c *ConvertCmd) Run(g *Globals) error {
	output := c.Output
	if output == "" {
		output = strings.TrimSuffix(c.Mesh, filepath.Ext(c.Mesh)) + "_repaired.stl"
	}
	if err := preconditions.Check(preconditions.MeshFiles(c.Mesh), preconditions.OutputFile(output)); err != nil {
		return err
	}

	ui.PrintHeader("Converting " + filepath.Base(c.Mesh))
	res, n, err := convertMesh(g.logger(), c.Mesh, output, c.ASCII)
	if err != nil {
		return err
	}

	ui.PrintKeyValue("Loaded via", res.Strategy)
	ui.PrintKeyValue("Triangles", humanize.Comma(int64(res.Mesh.TriangleCount())))
	ui.PrintSuccess(fmt.Sprintf("Wrote %s (%s)", output, humanize.Bytes(uint64(n))))
	return nil
}

// convertMesh decodes meshPath through the loader chain and writes the
// repaired mesh as STL. Undecodable input is an error, the fallback cube is
// never written.
func convertMesh(log logr.Logger, meshPath, output string, ascii bool) (mesh.LoadResult, int64, error) {
	data, err := os.ReadFile(meshPath)
	if err != nil {
		return mesh.LoadResult{}, 0, fmt.Errorf("failed to read mesh: %w", err)
	}

	res := mesh.NewLoader(log).Load(data)
	if res.Outcome == mesh.OutcomeExhausted {
		return res, 0, fmt.Errorf("%s could not be decoded (%d attempts failed)", filepath.Base(meshPath), len(res.Errors))
	}

	name := strings.TrimSuffix(filepath.Base(meshPath), filepath.Ext(meshPath))
	out := res.Mesh.ToSTL(name)

	f, err := os.Create(output)
	if err != nil {
		return res, 0, fmt.Errorf("failed to create output: %w", err)
	}
	if ascii {
		err = stl.WriteASCII(f, out)
	} else {
		err = stl.WriteBinary(f, out)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return res, 0, fmt.Errorf("failed to write output: %w", err)
	}

	info, err := os.Stat(output)
	if err != nil {
		return res, 0, err
	}
	return res, info.Size(), nil
}
