package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/statengine/internal/stat"
	"github.com/udisondev/statengine/internal/tick"
)

func TestRecorder_Attach(t *testing.T) {
	reg := stat.NewRegistry(stat.WithAutoRecompute(false))
	loop := tick.NewLoop(reg, time.Hour, 4)
	rec := NewRecorder()
	rec.Attach(reg, loop)

	require.NoError(t, loop.Submit(func(r *stat.Registry) {
		r.SetBaseScalar(stat.KindPAtk, 40)
		r.AddModifier(stat.KindPAtk, stat.NewFlat(stat.LayerBonus, stat.ZoneBuff, 2))
	}))
	loop.Tick()
	loop.Tick()

	assert.Equal(t, 1.0, promtest.ToFloat64(rec.changes.WithLabelValues("pAtk", "base")))
	assert.Equal(t, 1.0, promtest.ToFloat64(rec.changes.WithLabelValues("pAtk", "bonus")))
	assert.Equal(t, 1.0, promtest.ToFloat64(rec.recomputes))
	assert.Equal(t, 2.0, promtest.ToFloat64(rec.ticks))
	assert.Equal(t, 42.0, promtest.ToFloat64(rec.totals.WithLabelValues("pAtk")))
}

func TestRecorder_Handler(t *testing.T) {
	rec := NewRecorder()
	rec.ObserveChange(stat.Change{Kind: stat.KindMaxHP, Layer: stat.LayerBase, Old: 0, New: 1})

	srv := httptest.NewServer(rec.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `statengine_changes_total{kind="maxHP",layer="base"} 1`)
}

func TestRecorder_AttachAutoRecompute(t *testing.T) {
	reg := stat.NewRegistry(stat.WithAutoRecompute(true))
	loop := tick.NewLoop(reg, time.Hour, 4)
	rec := NewRecorder()
	rec.Attach(reg, loop)

	require.NoError(t, loop.Submit(func(r *stat.Registry) { r.SetBaseScalar(stat.KindPAtk, 42) }))
	rep := loop.Tick()

	assert.Zero(t, rep.Recomputed, "recomputed on mutation, nothing dirty at tick")
	assert.Equal(t, 1.0, promtest.ToFloat64(rec.changes.WithLabelValues("pAtk", "base")))
	assert.Equal(t, 42.0, promtest.ToFloat64(rec.totals.WithLabelValues("pAtk")))

	h := reg.AddModifier(stat.KindPAtk, stat.NewPercent(stat.LayerBase, stat.ZoneBuff, 0.5))
	assert.Equal(t, 63.0, promtest.ToFloat64(rec.totals.WithLabelValues("pAtk")))
	reg.RemoveModifier(stat.KindPAtk, h)
	assert.Equal(t, 42.0, promtest.ToFloat64(rec.totals.WithLabelValues("pAtk")))
}
