package network

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
)

// Metrics counts what a network did to its replicas.
type Metrics struct {
	Broadcasts   metrics.Counter
	Merges       metrics.Counter
	Syncs        metrics.Counter
	SyncFailures metrics.Counter
	Disconnects  metrics.Counter
	Reconnects   metrics.Counter
	Partitions   metrics.Gauge
}

// NewDiscardMetrics returns metrics that record nothing.
func NewDiscardMetrics() *Metrics {
	return &Metrics{
		Broadcasts:   discard.NewCounter(),
		Merges:       discard.NewCounter(),
		Syncs:        discard.NewCounter(),
		SyncFailures: discard.NewCounter(),
		Disconnects:  discard.NewCounter(),
		Reconnects:   discard.NewCounter(),
		Partitions:   discard.NewGauge(),
	}
}
