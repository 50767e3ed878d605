package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Resultados de fila de importación.
const (
	ImportRowCreated = "created"
	ImportRowUpdated = "updated"
	ImportRowMerged  = "merged"
	ImportRowSkipped = "skipped"
	ImportRowError   = "error"
)

// Metrics contadores del libro de inventario. Un *Metrics nil es válido y no registra nada.
type Metrics struct {
	mutations     *prometheus.CounterVec
	recomputes    prometheus.Counter
	recomputeTime prometheus.Histogram
	importRows    *prometheus.CounterVec
	importImages  prometheus.Counter
	auditDropped  prometheus.Counter
}

// New crea y registra las métricas en reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "envois",
			Name:      "ledger_mutations_total",
			Help:      "Mutaciones del libro por entidad, operación y resultado.",
		}, []string{"entity", "op", "outcome"}),
		recomputes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "envois",
			Name:      "stock_recomputes_total",
			Help:      "Recálculos completos de stock ejecutados.",
		}),
		recomputeTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "envois",
			Name:      "stock_recompute_seconds",
			Help:      "Duración de un recálculo de stock.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		importRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "envois",
			Name:      "import_rows_total",
			Help:      "Filas de importación procesadas por resultado.",
		}, []string{"outcome"}),
		importImages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "envois",
			Name:      "import_images_total",
			Help:      "Imágenes adjuntadas durante importaciones.",
		}),
		auditDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "envois",
			Name:      "audit_dropped_total",
			Help:      "Eventos de auditoría que no se pudieron guardar.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.mutations, m.recomputes, m.recomputeTime, m.importRows, m.importImages, m.auditDropped)
	}
	return m
}

// MutationApplied cuenta una mutación; err nil se registra como "ok".
func (m *Metrics) MutationApplied(entity, op string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.mutations.WithLabelValues(entity, op, outcome).Inc()
}

// StockRecomputed registra un recálculo y su duración.
func (m *Metrics) StockRecomputed(d time.Duration) {
	if m == nil {
		return
	}
	m.recomputes.Inc()
	m.recomputeTime.Observe(d.Seconds())
}

// ImportRow cuenta una fila importada con el resultado dado.
func (m *Metrics) ImportRow(outcome string) {
	if m == nil {
		return
	}
	m.importRows.WithLabelValues(outcome).Inc()
}

// ImportImages suma imágenes adjuntadas.
func (m *Metrics) ImportImages(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.importImages.Add(float64(n))
}

// AuditDropped cuenta un evento de auditoría perdido.
func (m *Metrics) AuditDropped() {
	if m == nil {
		return
	}
	m.auditDropped.Inc()
}
