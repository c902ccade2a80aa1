// Package metrics exposes the resolver's Prometheus collectors
package metrics

import (
	"time"

	"github.com/arnavshah/od-resolver-go/pkg/models"
	"github.com/arnavshah/od-resolver-go/pkg/resolver"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Upload outcomes
const (
	OutcomeResolved   = "resolved"
	OutcomeParseError = "parse_error"
	OutcomeBadRequest = "bad_request"
	OutcomeFailed     = "failed"
)

var (
	Uploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "od_uploads_total",
		Help: "Roster uploads by outcome.",
	}, []string{"outcome"})

	StudentsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "od_students_processed_total",
		Help: "Students resolved against the timetable.",
	})

	MissedLectures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "od_missed_lectures_total",
		Help: "Missed lectures attributed to students.",
	})

	UnresolvedStudents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "od_unresolved_students_total",
		Help: "Students whose program or section had no timetable.",
	})

	Warnings = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "od_warnings_total",
		Help: "Resolution warnings by code.",
	}, []string{"code"})

	ResolveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "od_resolve_duration_seconds",
		Help:    "Time spent resolving one roster.",
		Buckets: prometheus.DefBuckets,
	})
)

// ObserveRun records a finished resolution run
func ObserveRun(res resolver.Result, elapsed time.Duration) {
	Uploads.WithLabelValues(OutcomeResolved).Inc()
	StudentsProcessed.Add(float64(res.TotalStudents))
	MissedLectures.Add(float64(res.TotalMissed))
	ResolveDuration.Observe(elapsed.Seconds())

	for _, w := range res.Warnings {
		Warnings.WithLabelValues(w.Code).Inc()
		if w.Code == models.WarnUnresolvedProgram || w.Code == models.WarnUnresolvedSection {
			UnresolvedStudents.Inc()
		}
	}
}

// ObserveFailure counts an upload that did not reach resolution
func ObserveFailure(outcome string) {
	Uploads.WithLabelValues(outcome).Inc()
}
