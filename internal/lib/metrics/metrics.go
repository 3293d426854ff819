// Package metrics содержит счётчики prometheus для вебхуков и генерации резюме.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics набор счётчиков сервиса. Нулевой указатель допустим: вызовы становятся no-op.
type Metrics struct {
	webhookEvents *prometheus.CounterVec
	textGen       *prometheus.CounterVec
}

// New регистрирует счётчики в переданном registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Processed payment webhook deliveries by resource, action and outcome.",
		}, []string{"resource", "action", "outcome"}),
		textGen: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "textgen_requests_total",
			Help: "Resume text generations by source.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(m.webhookEvents, m.textGen)
	return m
}

// WebhookEvent увеличивает счётчик обработанных вебхуков.
func (m *Metrics) WebhookEvent(resource, action, outcome string) {
	if m == nil {
		return
	}
	m.webhookEvents.WithLabelValues(label(resource), label(action), outcome).Inc()
}

// TextGen увеличивает счётчик генераций резюме (openai, fallback, cached).
func (m *Metrics) TextGen(outcome string) {
	if m == nil {
		return
	}
	m.textGen.WithLabelValues(outcome).Inc()
}

// label ограничивает кардинальность: значения приходят от внешнего отправителя.
func label(v string) string {
	switch v {
	case "subscription", "sale", "created", "cancelled", "ended", "failed", "renewed":
		return v
	case "":
		return "none"
	default:
		return "other"
	}
}
