package app

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/newthinker/binsig/internal/config"
	"github.com/newthinker/binsig/internal/core"
	"github.com/newthinker/binsig/internal/export"
	"github.com/newthinker/binsig/internal/llm"
	"github.com/newthinker/binsig/internal/market"
	"github.com/newthinker/binsig/internal/metrics"
	"github.com/newthinker/binsig/internal/storage/archive"
	"github.com/newthinker/binsig/internal/storage/batch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seqRand replays draws in order, repeating the last one.
type seqRand struct {
	vals []int
	i    int
}

func (s *seqRand) IntN(n int) int {
	v := s.vals[min(s.i, len(s.vals)-1)]
	s.i++
	return v % n
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	cfg := config.Defaults()
	cfg.Generator.Delay = 0
	a := New(cfg, nil)
	a.UseRand(&seqRand{vals: []int{0}})
	a.now = func() time.Time { return time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC) }
	n := 0
	a.newID = func() string { n++; return fmt.Sprintf("batch-%d", n) }
	return a
}

func request() core.Request {
	return core.Request{
		Market:           "EUR/USD",
		Timeframe:        1,
		Accuracy:         99.9,
		Count:            3,
		Start:            "09:00",
		End:              "10:00",
		NewsFilter:       true,
		VolatilityFilter: true,
		TrendStrength:    core.TrendHigh,
		BacktestDays:     30,
	}
}

func TestApp_Submit(t *testing.T) {
	a := newTestApp(t)
	reg := metrics.NewRegistry()
	a.UseMetrics(reg)

	b, err := a.Submit(context.Background(), request())
	require.NoError(t, err)

	assert.Equal(t, "batch-1", b.ID)
	assert.Equal(t, 3, b.Requested)
	assert.False(t, b.Truncated)
	assert.Equal(t, 99.91, b.Confidence)
	require.Len(t, b.Records, 3)
	// IntN always returns 0: gaps of 3 minutes, all CALL
	assert.Equal(t, []core.Clock{540, 543, 546}, []core.Clock{b.Records[0].Time, b.Records[1].Time, b.Records[2].Time})
	assert.Equal(t, core.DirectionCall, b.Records[0].Direction)

	stored, err := a.Batch(context.Background(), "batch-1")
	require.NoError(t, err)
	assert.Equal(t, *b, *stored)
}

func TestApp_Submit_Truncated(t *testing.T) {
	a := newTestApp(t)
	a.UseRand(&seqRand{vals: []int{17}}) // gap of 20 minutes
	req := request()
	req.Count = 20
	req.End = "10:00"

	b, err := a.Submit(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, b.Truncated)
	assert.Len(t, b.Records, 4) // 09:00, 09:20, 09:40, 10:00
}

func TestApp_Submit_Rejected(t *testing.T) {
	a := newTestApp(t)
	reg := metrics.NewRegistry()
	a.UseMetrics(reg)

	req := request()
	req.End = "08:00"
	_, err := a.Submit(context.Background(), req)
	assert.ErrorIs(t, err, core.ErrInvalidTimeRange)

	batches, err := a.Batches(context.Background(), batch.ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, batches)
}

func TestApp_Submit_Cancelled(t *testing.T) {
	cfg := config.Defaults()
	cfg.Generator.Delay = time.Hour
	a := New(cfg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.Submit(ctx, request())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestApp_Batch_NotFound(t *testing.T) {
	_, err := newTestApp(t).Batch(context.Background(), "nope")
	assert.ErrorIs(t, err, core.ErrBatchNotFound)
}

func TestApp_Export(t *testing.T) {
	a := newTestApp(t)
	dir := t.TempDir()
	fs, err := archive.NewLocalFS(dir)
	require.NoError(t, err)
	a.UseArchive(fs)

	b, err := a.Submit(context.Background(), request())
	require.NoError(t, err)

	name, text, err := a.Export(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, export.Filename, name)
	assert.Equal(t, export.Text(b.Records, export.DefaultTimeLayout), text)
	assert.Contains(t, text, "09:00:00 | EUR/USD | CALL | 99.91% | News Filter: ON")

	stored, err := fs.Read(context.Background(), export.ArchivePath(b))
	require.NoError(t, err)
	assert.Equal(t, text, string(stored))
}

type failingArchive struct{ archive.Storage }

func (failingArchive) Write(ctx context.Context, path string, data []byte) error {
	return errors.New("disk full")
}

func TestApp_Export_ArchiveFailureStillReturnsText(t *testing.T) {
	a := newTestApp(t)
	a.UseArchive(failingArchive{})

	b, err := a.Submit(context.Background(), request())
	require.NoError(t, err)

	_, text, err := a.Export(context.Background(), b.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, text)
}

type echoProvider struct{}

func (echoProvider) Name() string { return "echo" }

func (echoProvider) Complete(ctx context.Context, p llm.Prompt) (*llm.Completion, error) {
	return &llm.Completion{Text: "steady market"}, nil
}

type brokenProvider struct{}

func (brokenProvider) Name() string { return "broken" }

func (brokenProvider) Complete(ctx context.Context, p llm.Prompt) (*llm.Completion, error) {
	return nil, errors.New("unavailable")
}

func TestApp_Insight(t *testing.T) {
	a := newTestApp(t)

	ins, err := a.Insight(context.Background(), "EUR/USD", true)
	require.NoError(t, err)
	assert.Nil(t, ins)

	sim := market.NewSimulator(signalSource{})
	a.UseMarket(sim, market.NewNarrator(echoProvider{}))
	ins, err = a.Insight(context.Background(), "EUR/USD", true)
	require.NoError(t, err)
	assert.Equal(t, "EUR/USD", ins.Analysis.Symbol)
	assert.Equal(t, "steady market", ins.Commentary)

	a.UseMarket(sim, market.NewNarrator(brokenProvider{}))
	ins, err = a.Insight(context.Background(), "EUR/USD", true)
	require.NoError(t, err)
	assert.NotNil(t, ins.Analysis)
	assert.Empty(t, ins.Commentary)
}

// signalSource is a flat market: every price sits on the base.
type signalSource struct{}

func (signalSource) Float64() float64 { return 0.5 }
func (signalSource) IntN(n int) int   { return 0 }
