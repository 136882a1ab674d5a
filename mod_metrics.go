package voxelverse

import (
	"errors"

	"github.com/gekko3d/voxelverse/editor"
	"github.com/gekko3d/voxelverse/merge"
	"github.com/gekko3d/voxelverse/world"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the editor's prometheus collectors.
type Metrics struct {
	Registry *prometheus.Registry

	mutations    *prometheus.CounterVec
	interactions *prometheus.CounterVec
	candidates   *prometheus.CounterVec
	voxels       prometheus.Gauge
	historyDepth prometheus.Gauge
}

func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		Registry: reg,
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voxelverse",
			Name:      "mutations_total",
			Help:      "World mutations applied, by operation.",
		}, []string{"op"}),
		interactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voxelverse",
			Name:      "interactions_total",
			Help:      "Pointer clicks, by result.",
		}, []string{"result"}),
		candidates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voxelverse",
			Name:      "merge_candidates_total",
			Help:      "Structure candidates seen by merge, by outcome.",
		}, []string{"outcome"}),
		voxels: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxelverse",
			Name:      "voxels",
			Help:      "Voxels currently in the world.",
		}),
		historyDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxelverse",
			Name:      "history_depth",
			Help:      "Undo steps available.",
		}),
	}
	reg.MustRegister(m.mutations, m.interactions, m.candidates, m.voxels, m.historyDepth)
	return m
}

// ObserveChange is an editor.Listener. Gauges are left to Sample since
// changes may be delivered out of order.
func (m *Metrics) ObserveChange(ch editor.Change) {
	if ch.Op != editor.OpLoad {
		m.mutations.WithLabelValues(string(ch.Op)).Inc()
	}
}

func (m *Metrics) ObserveInteraction(out editor.Outcome, err error) {
	result := "none"
	switch {
	case errors.Is(err, world.ErrAlreadyOccupied):
		result = "occupied"
	case errors.Is(err, world.ErrNotFound):
		result = "not_found"
	case err != nil:
		result = "error"
	case out.Added != nil:
		result = "added"
	case out.RemovedID != "":
		result = "removed"
	}
	m.interactions.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveMerge(res merge.Result) {
	m.candidates.WithLabelValues("inserted").Add(float64(len(res.Inserted)))
	m.candidates.WithLabelValues("collided").Add(float64(res.Collisions))
	m.candidates.WithLabelValues("overridden").Add(float64(res.Overridden))
	m.candidates.WithLabelValues("invalid").Add(float64(res.Invalid))
}

// Sample reads the world size and undo depth from the editor.
func (m *Metrics) Sample(ed *editor.Editor) {
	m.voxels.Set(float64(ed.Len()))
	m.historyDepth.Set(float64(ed.HistoryLen()))
}

// MetricsModule registers collectors and keeps them current. It needs
// EditorModule installed first.
type MetricsModule struct {
	Registry *prometheus.Registry
}

func (mod MetricsModule) Install(app *App, cmd *Commands) {
	ed := cmd.Editor()
	if ed == nil {
		panic("MetricsModule requires EditorModule")
	}
	m := NewMetrics(mod.Registry)
	ed.Subscribe(m.ObserveChange)
	m.Sample(ed)

	cmd.AddResources(m)
	app.UseSystem(
		System(metricsSystem).
			InStage(PostUpdate),
	)
}

func metricsSystem(m *Metrics, ed *editor.Editor) {
	m.Sample(ed)
}
