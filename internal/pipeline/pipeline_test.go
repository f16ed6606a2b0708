package pipeline

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/philipparndt/goslice/internal/gcode"
	"github.com/philipparndt/goslice/internal/mesh"
	"github.com/philipparndt/goslice/internal/models"
	"github.com/philipparndt/goslice/internal/stats"
)

const cubeOBJ = `# 20 mm cube
v 0 0 0
v 20 0 0
v 20 20 0
v 0 20 0
v 0 0 20
v 20 0 20
v 20 20 20
v 0 20 20
f 1 4 3 2
f 5 6 7 8
f 1 2 6 5
f 3 4 8 7
f 4 1 5 8
f 2 3 7 6
`

func newTestPipeline() *Pipeline {
	clock := func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }
	return New(logr.Discard(), gcode.WithClock(clock))
}

func TestRun_GarbageUsesFallbackCube(t *testing.T) {
	for _, input := range [][]byte{nil, []byte("not a mesh at all"), {0, 1, 2, 3}} {
		res, err := newTestPipeline().Run(context.Background(), input, models.DefaultPrintParameters(), ModeStats)
		require.NoError(t, err)

		assert.Equal(t, mesh.OutcomeExhausted, res.Load.Outcome)
		assert.Nil(t, res.Document)
		assert.Equal(t, stats.RuleExact, res.Rule)
		assert.Equal(t, models.Dimensions{Width: 100, Depth: 100, Height: 100}, res.Stats.Dimensions)
		assert.Equal(t, 12, res.Stats.TriangleCount)
		assert.InDelta(t, 1240.0, res.Stats.EstimatedWeightG, 1e-6)
		assert.InDelta(t, 415.96, res.Stats.EstimatedFilamentM, 0.01)
	}
}

func TestRun_OBJ(t *testing.T) {
	res, err := newTestPipeline().Run(context.Background(), []byte(cubeOBJ), models.DefaultPrintParameters(), ModeFull)
	require.NoError(t, err)

	assert.Equal(t, mesh.OutcomeLoaded, res.Load.Outcome)
	assert.Equal(t, "obj", res.Load.Strategy)
	assert.Equal(t, stats.RuleExact, res.Rule)
	assert.InDelta(t, 8000, res.Stats.Volume, 1e-9)
	require.NotNil(t, res.Document)

	text := res.Document.String()
	assert.Contains(t, text, "; LAYER 3 - 0.6mm")
	assert.Contains(t, text, "[... The complete model would have 100 layers ...]")
}

func TestRun_Preview(t *testing.T) {
	res, err := newTestPipeline().Run(context.Background(), []byte(cubeOBJ), models.DefaultPrintParameters(), ModePreview)
	require.NoError(t, err)
	require.NotNil(t, res.Document)

	_, ok := res.Document.Section(gcode.SectionPreview)
	assert.True(t, ok)
	assert.NotContains(t, res.Document.String(), "; Perimeter")
}

func TestRun_Idempotent(t *testing.T) {
	p := newTestPipeline()
	params := models.DefaultPrintParameters()
	params.InfillPattern = models.InfillLines

	a, err := p.Run(context.Background(), []byte(cubeOBJ), params, ModeFull)
	require.NoError(t, err)
	b, err := p.Run(context.Background(), []byte(cubeOBJ), params, ModeFull)
	require.NoError(t, err)

	assert.Equal(t, a.Document.String(), b.Document.String())
}

func TestRun_Concurrent(t *testing.T) {
	p := newTestPipeline()
	want, err := p.Run(context.Background(), []byte(cubeOBJ), models.DefaultPrintParameters(), ModeFull)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]string, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := p.Run(context.Background(), []byte(cubeOBJ), models.DefaultPrintParameters(), ModeFull)
			if err == nil {
				results[i] = res.Document.String()
			}
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want.Document.String(), got)
	}
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestPipeline().Run(ctx, []byte(cubeOBJ), models.DefaultPrintParameters(), ModeFull)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRun_NonFiniteParams(t *testing.T) {
	params := models.DefaultPrintParameters()
	params.PrintSpeed = math.Inf(1)

	_, err := newTestPipeline().Run(context.Background(), []byte(cubeOBJ), params, ModeFull)
	assert.True(t, errors.Is(err, gcode.ErrNonFinite))

	// preview has no toolpath and still succeeds
	res, err := newTestPipeline().Run(context.Background(), []byte(cubeOBJ), params, ModePreview)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.Document.String(), "; goslice"))
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "full", ModeFull.String())
	assert.Equal(t, "preview", ModePreview.String())
	assert.Equal(t, "stats", ModeStats.String())
}
