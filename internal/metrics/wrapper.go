package metrics

// MetricsWrapper adapts Metrics to the narrow metric interfaces declared by the
// loader, ensemble and stream packages, so those packages never import prometheus.
type MetricsWrapper struct {
	m *Metrics
}

func NewWrapper(m *Metrics) *MetricsWrapper {
	return &MetricsWrapper{m: m}
}

// Loader metrics

func (w *MetricsWrapper) ModelRequestedInc() {
	w.m.ModelsRequested.Inc()
}

func (w *MetricsWrapper) ModelLoadFailedInc() {
	w.m.ModelLoadFailures.Inc()
	w.m.ErrorsTotal.Inc()
}

func (w *MetricsWrapper) ModelsLoadedSet(v float64) {
	w.m.ModelsLoaded.Set(v)
}

func (w *MetricsWrapper) DataWidthSet(v float64) {
	w.m.DataWidth.Set(v)
}

// Ensemble metrics

func (w *MetricsWrapper) EvaluationsInc() {
	w.m.Evaluations.Inc()
}

func (w *MetricsWrapper) EvaluationLatencyObserve(v float64) {
	w.m.EvaluationLatency.Observe(v)
}

// Stream metrics

func (w *MetricsWrapper) RecordsInc() {
	w.m.RecordsProcessed.Inc()
}

func (w *MetricsWrapper) ZeroWeightInc() {
	w.m.ZeroWeightRecords.Inc()
	w.m.ErrorsTotal.Inc()
}
