package metrics

import "github.com/prometheus/client_golang/prometheus"

// BotMetrics exposes counters for the attendant's message handling.
type BotMetrics struct {
	inboundTotal  *prometheus.CounterVec
	outboundTotal *prometheus.CounterVec
	alertsTotal   prometheus.Counter
}

func NewBotMetrics(reg prometheus.Registerer) *BotMetrics {
	m := &BotMetrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicbot",
			Subsystem: "dialog",
			Name:      "inbound_total",
			Help:      "Total inbound messages handled by the dialog engine",
		}, []string{"status"}),
		outboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicbot",
			Subsystem: "dialog",
			Name:      "outbound_total",
			Help:      "Total outbound replies attempted",
		}, []string{"status"}),
		alertsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clinicbot",
			Subsystem: "dialog",
			Name:      "operator_alerts_total",
			Help:      "Total operator alerts fired",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.inboundTotal, m.outboundTotal, m.alertsTotal)
	return m
}

func (m *BotMetrics) ObserveInbound(status string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(status).Inc()
}

func (m *BotMetrics) ObserveOutbound(status string) {
	if m == nil {
		return
	}
	m.outboundTotal.WithLabelValues(status).Inc()
}

func (m *BotMetrics) ObserveAlert() {
	if m == nil {
		return
	}
	m.alertsTotal.Inc()
}
