package observability

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/riskibarqy/ctf-scoreboard/internal/usecase"
)

const metricsNamespace = "ctf_scoreboard"

// Metrics owns a private registry with the scoreboard's collectors. It is a
// score listener, an HTTP request observer and a cache lookup observer.
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	solves          *prometheus.CounterVec
	wrongFlags      *prometheus.CounterVec
	hints           *prometheus.CounterVec
	pointsAwarded   *prometheus.CounterVec
	pointsSpent     *prometheus.CounterVec
	teamChanges     *prometheus.CounterVec
	timerChanges    prometheus.Counter
	solveSeconds    prometheus.Histogram
	cacheLookups    *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"status", "method", "route"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		solves: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "solves_total",
			Help:      "Correct flag submissions",
		}, []string{"event", "challenge"}),
		wrongFlags: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "wrong_flags_total",
			Help:      "Rejected flag submissions",
		}, []string{"event", "challenge"}),
		hints: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "hints_purchased_total",
			Help:      "Hints bought by teams",
		}, []string{"event", "challenge"}),
		pointsAwarded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "points_awarded_total",
			Help:      "Points granted by solves",
		}, []string{"event"}),
		pointsSpent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "points_spent_total",
			Help:      "Points spent on hints",
		}, []string{"event"}),
		teamChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "team_changes_total",
			Help:      "Team registrations and removals",
		}, []string{"event", "kind"}),
		timerChanges: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "timer_changes_total",
			Help:      "Timer starts and extensions",
		}),
		solveSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "solve_time_seconds",
			Help:      "Time from attempt start to correct flag",
			Buckets:   []float64{30, 60, 120, 300, 600, 900, 1800, 3600, 7200},
		}),
		cacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "leaderboard_cache_lookups_total",
			Help:      "Leaderboard cache lookups by backend and result",
		}, []string{"backend", "result"}),
	}
}

// TrackGauge exposes a live value, such as connected websocket clients.
func (m *Metrics) TrackGauge(name, help string, fn func() float64) {
	if m == nil || fn == nil {
		return
	}
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      name,
		Help:      help,
	}, fn))
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRequest records a finished request under its route pattern so path
// parameters do not explode label cardinality.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(strconv.Itoa(status), method, route).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) ObserveCacheLookup(backend string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(backend, result).Inc()
}

func (m *Metrics) OnScoreEvent(_ context.Context, event usecase.ScoreEvent) {
	if m == nil {
		return
	}
	switch event.Kind {
	case usecase.ScoreEventSolved:
		m.solves.WithLabelValues(event.EventID, event.ChallengeID).Inc()
		if event.Points > 0 {
			m.pointsAwarded.WithLabelValues(event.EventID).Add(float64(event.Points))
		}
		if event.TimeTakenSeconds >= 0 {
			m.solveSeconds.Observe(float64(event.TimeTakenSeconds))
		}
	case usecase.ScoreEventWrongFlag:
		m.wrongFlags.WithLabelValues(event.EventID, event.ChallengeID).Inc()
	case usecase.ScoreEventHintPurchased:
		m.hints.WithLabelValues(event.EventID, event.ChallengeID).Inc()
		if event.Points < 0 {
			m.pointsSpent.WithLabelValues(event.EventID).Add(float64(-event.Points))
		}
	case usecase.ScoreEventTeamJoined:
		m.teamChanges.WithLabelValues(event.EventID, "joined").Inc()
	case usecase.ScoreEventTeamRemoved:
		m.teamChanges.WithLabelValues(event.EventID, "removed").Inc()
	case usecase.ScoreEventTimerChanged:
		m.timerChanges.Inc()
	}
}
