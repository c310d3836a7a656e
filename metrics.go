package main

import (
	"net/http"

	"library/crdtsim/network"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/go-kit/kit/metrics/prometheus"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// newNetworkMetrics returns prometheus backed metrics when they are
// exposed, discarding ones otherwise.
func newNetworkMetrics(prometheusAddr string) *network.Metrics {

	if prometheusAddr == "" {
		return network.NewDiscardMetrics()
	}

	counter := func(name, help string) *prometheus.Counter {
		return prometheus.NewCounterFrom(prom.CounterOpts{
			Namespace: "crdtsim",
			Subsystem: "network",
			Name:      name,
			Help:      help,
		}, nil)
	}

	return &network.Metrics{
		Broadcasts:   counter("broadcasts_total", "Number of broadcasts from an online replica"),
		Merges:       counter("merges_total", "Number of states merged into a replica"),
		Syncs:        counter("syncs_total", "Number of completed client/server exchanges"),
		SyncFailures: counter("sync_failures_total", "Number of syncs refused because the server was down"),
		Disconnects:  counter("disconnects_total", "Number of replicas taken offline"),
		Reconnects:   counter("reconnects_total", "Number of replicas brought back online"),
		Partitions: prometheus.NewGaugeFrom(prom.GaugeOpts{
			Namespace: "crdtsim",
			Subsystem: "network",
			Name:      "partitions",
			Help:      "Distinct values across replicas at the last dump",
		}, nil),
	}
}

func runPromHTTP(logger log.Logger, addr string) {

	if addr == "" {
		level.Debug(logger).Log("msg", "prometheus addr is empty, not exposing prometheus metrics")
		return
	}

	http.Handle("/metrics", promhttp.Handler())

	level.Info(logger).Log("msg", "prometheus handler listening", "addr", addr)
	if err := http.ListenAndServe(addr, nil); err != nil {
		level.Warn(logger).Log("msg", "failed to serve prometheus metrics", "err", err)
	}
}
