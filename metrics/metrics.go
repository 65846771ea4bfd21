// Package metrics wires a stock Inspector implementation to Prometheus
// collectors, grounded on the teacher's buffer_pool_prometheus.go
// (promauto-registered CounterVecs keyed by a label) and on
// hemzaz-freightliner's direct go.mod dependency on
// github.com/prometheus/client_golang. The core engine never imports this
// package itself — it only emits Inspector events (spec.md §1 names a
// JMX/metrics surface as an external collaborator) — so a caller who
// doesn't want Prometheus can simply not construct a Collector.
package metrics

import (
	"net"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/watt-toolkit/shockwave-engine/inspector"
)

// Collector is an Inspector that records lifecycle events as Prometheus
// metrics. Unlike the teacher's build-tagged, package-global promauto
// collectors, Collector takes its own prometheus.Registerer so multiple
// Engine instances in one process don't collide on collector names.
type Collector struct {
	requests       *prometheus.CounterVec
	resolveErrors  prometheus.Counter
	connects       prometheus.Counter
	connectErrors  prometheus.Counter
	responses      *prometheus.CounterVec
	httpErrors     *prometheus.CounterVec
	idleExpired    prometheus.Counter
	busyExpired    prometheus.Counter
	poolIdleSize   prometheus.Gauge
	poolBusySize   prometheus.Gauge
}

// NewCollector registers the engine's collectors on reg and returns a
// Collector ready to use as an Inspector.
func NewCollector(reg prometheus.Registerer, namespace string) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "engine", Name: "requests_total",
			Help: "Total requests submitted to the engine, by method.",
		}, []string{"method"}),
		resolveErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "engine", Name: "resolve_errors_total",
			Help: "Total DNS resolution failures.",
		}),
		connects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "engine", Name: "connects_total",
			Help: "Total new sockets dialed.",
		}),
		connectErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "engine", Name: "connect_errors_total",
			Help: "Total dial/TLS handshake failures.",
		}),
		responses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "engine", Name: "responses_total",
			Help: "Total responses received, by status class.",
		}, []string{"status_class"}),
		httpErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "engine", Name: "http_errors_total",
			Help: "Total HTTP errors observed, partitioned by whether the connection was idle.",
		}, []string{"was_idle"}),
		idleExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "pool", Name: "idle_expired_total",
			Help: "Total idle connections closed by the expiry sweeper.",
		}),
		busyExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "pool", Name: "busy_expired_total",
			Help: "Total busy connections closed by the expiry sweeper for exceeding the active deadline.",
		}),
		poolIdleSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "pool", Name: "idle_size",
			Help: "Current number of idle pooled connections.",
		}),
		poolBusySize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "pool", Name: "busy_size",
			Help: "Current number of busy pooled connections.",
		}),
	}

	reg.MustRegister(
		c.requests, c.resolveErrors, c.connects, c.connectErrors,
		c.responses, c.httpErrors, c.idleExpired, c.busyExpired,
		c.poolIdleSize, c.poolBusySize,
	)

	return c
}

// SetPoolSizes updates the idle/busy gauges. The reactor never calls it;
// callers (cmd/shockwave-bench) pass in sizes from an Engine.Stats
// snapshot, so they're plain gauge sets rather than events.
func (c *Collector) SetPoolSizes(idle, busy int) {
	c.poolIdleSize.Set(float64(idle))
	c.poolBusySize.Set(float64(busy))
}

func (c *Collector) OnRequest(method, url string) {
	c.requests.WithLabelValues(method).Inc()
}

func (c *Collector) OnResolve(host string, ips []net.IP) {}

func (c *Collector) OnResolveError(host string, err error) {
	c.resolveErrors.Inc()
}

func (c *Collector) OnConnect(peer string) {
	c.connects.Inc()
}

func (c *Collector) OnConnectError(peer string, err error) {
	c.connectErrors.Inc()
}

func (c *Collector) OnHTTPResponse(peer string, statusCode int) {
	c.responses.WithLabelValues(statusClass(statusCode)).Inc()
}

func (c *Collector) OnHTTPError(peer string, wasIdle bool, err error) {
	label := "false"
	if wasIdle {
		label = "true"
	}
	c.httpErrors.WithLabelValues(label).Inc()
}

func (c *Collector) OnIdleExpired(peer string) {
	c.idleExpired.Inc()
}

func (c *Collector) OnBusyExpired(peer string) {
	c.busyExpired.Inc()
}

func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	case code >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}

var _ inspector.Inspector = (*Collector)(nil)
