package worker

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the per-rank search counters, labelled with the rank.
type Metrics struct {
	Expanded       prometheus.Counter
	Pruned         *prometheus.CounterVec
	Solutions      prometheus.Counter
	Prefixes       prometheus.Counter
	StealsServed   prometheus.Counter
	StealsReceived prometheus.Counter
	JobRequests    prometheus.Counter
	TokenLaps      prometheus.Counter
	Bound          prometheus.Gauge
}

// NewMetrics builds the collectors of one rank and registers them on reg
// unless reg is nil.
func NewMetrics(reg prometheus.Registerer, rank int) *Metrics {
	labels := prometheus.Labels{"rank": strconv.Itoa(rank)}
	m := &Metrics{
		Expanded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bnb_nodes_expanded_total", Help: "Search nodes expanded into children", ConstLabels: labels,
		}),
		Pruned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bnb_nodes_pruned_total", Help: "Search nodes discarded, by failed test", ConstLabels: labels,
		}, []string{"reason"}),
		Solutions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bnb_solutions_total", Help: "Complete schedules that improved the local bound", ConstLabels: labels,
		}),
		Prefixes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bnb_optimal_prefixes_total", Help: "Optimality shortcuts taken", ConstLabels: labels,
		}),
		StealsServed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bnb_steals_served_total", Help: "Schedules given away to idle peers", ConstLabels: labels,
		}),
		StealsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bnb_steals_received_total", Help: "Schedules obtained from peers", ConstLabels: labels,
		}),
		JobRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bnb_job_requests_total", Help: "Job requests sent to peers", ConstLabels: labels,
		}),
		TokenLaps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bnb_token_laps_total", Help: "Termination token laps completed (rank 0 only)", ConstLabels: labels,
		}),
		Bound: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bnb_upper_bound", Help: "Best known makespan", ConstLabels: labels,
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Expanded, m.Pruned, m.Solutions, m.Prefixes,
			m.StealsServed, m.StealsReceived, m.JobRequests, m.TokenLaps, m.Bound)
	}
	return m
}
