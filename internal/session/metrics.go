package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "oai_sessions_total",
		Help: "Sessions run, by mode and outcome",
	}, []string{"mode", "outcome"})

	ticksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "oai_session_ticks_total",
		Help: "Environment steps taken by sessions",
	}, []string{"mode"})

	trialsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "oai_session_trials_total",
		Help: "Trials completed by sessions",
	}, []string{"mode"})

	transitionsPersisted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "oai_session_transitions_persisted_total",
		Help: "Transitions flushed to the trial store",
	})

	inputWait = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "oai_session_input_wait_seconds",
		Help:    "Time spent blocked on human input per seat",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	})
)
