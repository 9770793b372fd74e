package main

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/topichub/pubsub/pkg/pubsub"
)

func newMetrics(b *pubsub.Broker) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "pubsub_messages_published_total",
			Help: "Publish calls accepted by the broker.",
		}, func() float64 { return float64(b.PublishedCount()) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "pubsub_messages_delivered_total",
			Help: "Deliveries scheduled (messages times subscribers at snapshot time).",
		}, func() float64 { return float64(b.DeliveredCount()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "pubsub_active_subscriptions",
			Help: "Currently active subscriptions.",
		}, func() float64 { return float64(b.TotalSubscriptionCount()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "pubsub_active_topics",
			Help: "Topics with at least one active subscription.",
		}, func() float64 { return float64(len(b.ActiveTopics())) }),
	)
	return reg
}
