package server

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	Connections      prometheus.Gauge
	MessagesRelayed  prometheus.Counter
	DeliveryFailures prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ghostchat_connections_active",
			Help: "Number of anonymous ids holding a live connection.",
		}),
		MessagesRelayed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ghostchat_messages_relayed_total",
			Help: "Message events processed by the relay loop.",
		}),
		DeliveryFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ghostchat_delivery_failures_total",
			Help: "Sends through a registered handle that returned an error.",
		}),
	}
	reg.MustRegister(m.Connections, m.MessagesRelayed, m.DeliveryFailures)
	return m
}
