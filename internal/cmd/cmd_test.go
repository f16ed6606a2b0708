package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/philipparndt/goslice/internal/models"
	"github.com/philipparndt/goslice/internal/mesh"
	"github.com/philipparndt/goslice/internal/pipeline"
	"github.com/philipparndt/goslice/internal/stl"
	"github.com/philipparndt/goslice/internal/ui"
)

const cubeOBJ = `v 0 0 0
v 20 0 0
v 20 20 0
v 0 20 0
v 0 0 20
v 20 0 20
v 20 20 20
v 0 20 20
f 1 3 2
f 1 4 3
f 5 6 7
f 5 7 8
f 1 2 6
f 1 6 5
f 2 3 7
f 2 7 6
f 3 4 8
f 3 8 7
f 4 1 5
f 4 5 8
`

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := ui.Out
	ui.Out = &buf
	t.Cleanup(func() { ui.Out = prev })
	return &buf
}

func TestWriteCompletion(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish"} {
		var buf bytes.Buffer
		require.NoError(t, writeCompletion(&buf, shell))
		assert.Contains(t, buf.String(), "goslice", shell)
		assert.Contains(t, buf.String(), "serve", shell)
	}

	assert.Error(t, writeCompletion(&bytes.Buffer{}, "powershell"))
}

func TestRenderParamTable(t *testing.T) {
	table := renderParamTable()
	for _, key := range []string{"layer_height", "nozzle_temp", "bed_temp", "print_speed",
		"infill_density", "infill_pattern", "retraction_distance", "retraction_speed"} {
		assert.Contains(t, table, key)
	}
	assert.Contains(t, table, "grid")
	assert.Contains(t, table, "triangles")
}

func TestDefaultOutput(t *testing.T) {
	assert.Equal(t, "model.gcode", defaultOutput("model.stl"))
	assert.Equal(t, filepath.Join("dir", "part.v2.gcode"), defaultOutput(filepath.Join("dir", "part.v2.OBJ")))
}

func TestExpandPatterns(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.stl", "b.OBJ", "notes.txt", filepath.Join("sub", "c.stl")} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	}

	files, err := expandPatterns([]string{filepath.Join(dir, "**", "*")})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.stl"),
		filepath.Join(dir, "b.OBJ"),
		filepath.Join(dir, "sub", "c.stl"),
	}, files)

	// plain paths and duplicates
	files, err = expandPatterns([]string{filepath.Join(dir, "a.stl"), filepath.Join(dir, "*.stl")})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.stl")}, files)

	// unmatched paths are kept for the preconditions to report
	missing := filepath.Join(dir, "missing.stl")
	files, err = expandPatterns([]string{missing})
	require.NoError(t, err)
	assert.Equal(t, []string{missing}, files)

	_, err = expandPatterns([]string{filepath.Join(dir, "[")})
	assert.Error(t, err)
}

func TestCollectStats(t *testing.T) {
	dir := t.TempDir()
	cube := filepath.Join(dir, "cube.obj")
	broken := filepath.Join(dir, "broken.stl")
	require.NoError(t, os.WriteFile(cube, []byte(cubeOBJ), 0644))
	require.NoError(t, os.WriteFile(broken, []byte("not a mesh"), 0644))

	files := []string{broken, cube}
	rows, err := collectStats(context.Background(), pipeline.New(logr.Discard()), files, models.DefaultPrintParameters(), 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, broken, rows[0].File)
	assert.True(t, rows[0].Fallback)
	assert.InDelta(t, 1e6, rows[0].Stats.Volume, 1e-6)

	assert.Equal(t, cube, rows[1].File)
	assert.False(t, rows[1].Fallback)
	assert.Equal(t, "obj", rows[1].Strategy)
	assert.InDelta(t, 8000, rows[1].Stats.Volume, 1e-6)
	assert.Equal(t, 12, rows[1].Stats.TriangleCount)

	_, err = collectStats(context.Background(), pipeline.New(logr.Discard()),
		[]string{filepath.Join(dir, "gone.stl")}, models.DefaultPrintParameters(), 1)
	assert.Error(t, err)
}

func TestSliceToFile(t *testing.T) {
	out := captureOutput(t)
	dir := t.TempDir()
	meshPath := filepath.Join(dir, "cube.obj")
	require.NoError(t, os.WriteFile(meshPath, []byte(cubeOBJ), 0644))

	output := filepath.Join(dir, "cube.gcode")
	in := &MeshInput{Mesh: meshPath}
	require.NoError(t, sliceToFile(context.Background(), logr.Discard(), in, output))

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.HasPrefix(text, "; goslice"))
	assert.True(t, strings.HasSuffix(text, "; PRINT COMPLETE\n"))
	assert.Contains(t, text, "; LAYER 3 - 0.6mm")

	assert.Contains(t, out.String(), "Wrote")
	assert.Contains(t, out.String(), "Only 3 of 100 layers are emitted")
}

func TestPreviewCmd(t *testing.T) {
	out := captureOutput(t)
	dir := t.TempDir()
	meshPath := filepath.Join(dir, "cube.obj")
	require.NoError(t, os.WriteFile(meshPath, []byte(cubeOBJ), 0644))

	c := &PreviewCmd{MeshInput: MeshInput{Mesh: meshPath}}
	require.NoError(t, c.Run(&Globals{LogLevel: "error"}))

	assert.Contains(t, out.String(), "; PRINT COMPLETE")
	assert.NotContains(t, out.String(), "; LAYER 2")
}

func TestPreviewCmd_FallbackNoticeOnStderr(t *testing.T) {
	out := captureOutput(t)
	var errOut bytes.Buffer
	prev := ui.Err
	ui.Err = &errOut
	t.Cleanup(func() { ui.Err = prev })

	meshPath := filepath.Join(t.TempDir(), "broken.stl")
	require.NoError(t, os.WriteFile(meshPath, []byte("not a mesh"), 0644))

	c := &PreviewCmd{MeshInput: MeshInput{Mesh: meshPath}}
	require.NoError(t, c.Run(&Globals{LogLevel: "error"}))

	assert.True(t, strings.HasPrefix(out.String(), "; goslice"), out.String())
	assert.NotContains(t, out.String(), "fallback cube")
	assert.Contains(t, errOut.String(), "broken.stl could not be decoded")
}

func TestConvertMesh(t *testing.T) {
	dir := t.TempDir()
	meshPath := filepath.Join(dir, "cube.obj")
	require.NoError(t, os.WriteFile(meshPath, []byte(cubeOBJ), 0644))

	for _, ascii := range []bool{false, true} {
		output := filepath.Join(dir, "cube.stl")
		res, n, err := convertMesh(logr.Discard(), meshPath, output, ascii)
		require.NoError(t, err)
		assert.Equal(t, "obj", res.Strategy)

		data, err := os.ReadFile(output)
		require.NoError(t, err)
		assert.Equal(t, int64(len(data)), n)

		parsed, err := stl.Parse(data)
		require.NoError(t, err)
		assert.Equal(t, "cube", parsed.Name)
		m := mesh.FromSTL(parsed).Process()
		assert.Len(t, m.Faces, 12)
		assert.True(t, m.IsWatertight())
	}
}

func TestConvertMesh_Undecodable(t *testing.T) {
	dir := t.TempDir()
	meshPath := filepath.Join(dir, "broken.stl")
	require.NoError(t, os.WriteFile(meshPath, []byte("not a mesh"), 0644))

	output := filepath.Join(dir, "out.stl")
	_, _, err := convertMesh(logr.Discard(), meshPath, output, false)
	require.Error(t, err)
	assert.NoFileExists(t, output)
}
