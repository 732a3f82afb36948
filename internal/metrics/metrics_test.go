package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbl8/eoc/compiler"
	"github.com/sbl8/eoc/runtime"
)

const adder = `
ν0 ↦ ⟦ φ ↦ ν1 ⟧
ν1 ↦ ⟦ λ ↦ int-add, ρ ↦ ν2, 𝛼0 ↦ ν3 ⟧
ν2 ↦ ⟦ λ ↦ int-neg, ρ ↦ ν3 ⟧
ν3 ↦ ⟦ Δ ↦ 0x0007 ⟧
`

func dataize(t *testing.T) (*runtime.Engine, runtime.Perf) {
	t.Helper()
	tbl, err := compiler.ParseString(adder)
	require.NoError(t, err)
	e, err := runtime.NewEngine(tbl, nil)
	require.NoError(t, err)
	_, perf, err := e.Dataize()
	require.NoError(t, err)
	return e, perf
}

func TestRecord(t *testing.T) {
	t.Parallel()
	e, perf := dataize(t)
	c := NewCollector()

	c.Record(perf, time.Millisecond, nil)
	c.Record(perf, 2*time.Millisecond, nil)
	c.Record(runtime.Perf{}, time.Millisecond, errors.New("boom"))
	c.RecordBaskets(e.Baskets())

	assert.Equal(t, 2.0, testutil.ToFloat64(c.DataizationsTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.DataizationsTotal.WithLabelValues("error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.AtomsTotal.WithLabelValues("int-add")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.AtomsTotal.WithLabelValues("int-neg")))
	assert.Equal(t, float64(2*perf.Count(runtime.TransitionCopy)),
		testutil.ToFloat64(c.TransitionsTotal.WithLabelValues("copy")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.LiveBaskets))
	assert.Equal(t, 1, testutil.CollectAndCount(c.DataizeDuration, "eoc_dataize_duration_seconds"))
}

func TestCollectorsAreIsolated(t *testing.T) {
	t.Parallel()
	a, b := NewCollector(), NewCollector()
	a.Record(runtime.Perf{}, time.Millisecond, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(a.DataizationsTotal.WithLabelValues("ok")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.DataizationsTotal.WithLabelValues("ok")))
}

func TestWriteTextfile(t *testing.T) {
	t.Parallel()
	_, perf := dataize(t)
	c := NewCollector()
	c.Record(perf, time.Millisecond, nil)

	path := filepath.Join(t.TempDir(), "eoc.prom")
	require.NoError(t, c.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.Contains(text, `eoc_atoms_total{atom="int-add"} 1`), text)
	assert.Contains(t, text, "eoc_dataize_duration_seconds_count 1")

	err = c.WriteTextfile(filepath.Join(t.TempDir(), "missing", "eoc.prom"))
	assert.Error(t, err)
}

func TestRecordStats(t *testing.T) {
	t.Parallel()
	e, _ := dataize(t)
	c := NewCollector()
	c.RecordStats(e.Stats())

	stats := e.Stats()
	assert.Equal(t, float64(stats.LiveBaskets), testutil.ToFloat64(c.LiveBaskets))
	assert.Equal(t, float64(stats.PeakBaskets), testutil.ToFloat64(c.PeakBaskets))
	assert.GreaterOrEqual(t, testutil.ToFloat64(c.PeakBaskets), 1.0)
}
