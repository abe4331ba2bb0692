package web

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/csheth/bioengine/internal/core"
	"github.com/csheth/bioengine/internal/nav"
)

// Metrics holds the collectors exported on /metrics. Each server gets its
// own registry so tests never collide on the global one.
type Metrics struct {
	registry    *prometheus.Registry
	sessions    prometheus.Gauge
	intents     *prometheus.CounterVec
	logins      *prometheus.CounterVec
	navigations *prometheus.CounterVec
	messages    prometheus.Counter
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bioengine_sessions_active",
			Help: "Number of live visitor sessions",
		}),
		intents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bioengine_intents_total",
			Help: "Intents applied, by kind and outcome",
		}, []string{"kind", "result"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bioengine_login_attempts_total",
			Help: "Login submissions, by whether they were accepted",
		}, []string{"accepted"}),
		navigations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bioengine_navigations_total",
			Help: "Successful page changes, by target page",
		}, []string{"page"}),
		messages: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bioengine_messages_sent_total",
			Help: "User chat messages accepted",
		}),
	}
	m.registry.MustRegister(
		m.sessions, m.intents, m.logins, m.navigations, m.messages,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Hooks feeds controller activity into the collectors. The callbacks run on
// each session's own goroutine.
func (m *Metrics) Hooks() core.Hooks {
	return core.Hooks{
		OnIntent: func(kind string, err error) {
			m.intents.WithLabelValues(kind, intentResult(err)).Inc()
		},
		OnLogin: func(ok bool) {
			m.logins.WithLabelValues(strconv.FormatBool(ok)).Inc()
		},
		OnNavigate: func(page nav.Page) {
			m.navigations.WithLabelValues(page.String()).Inc()
		},
		OnMessage: func() {
			m.messages.Inc()
		},
	}
}

func (m *Metrics) setSessions(n int) {
	m.sessions.Set(float64(n))
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func intentResult(err error) string {
	if err == nil {
		return "ok"
	}
	return errorCode(err)
}
