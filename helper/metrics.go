package helper

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	requests   *prometheus.CounterVec
	recoveries *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	return &metrics{
		requests: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ibhelper",
			Name:      "requests_total",
			Help:      "Logical Inkbunny operations by outcome, after recovery.",
		}, []string{"operation", "outcome"})),
		recoveries: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ibhelper",
			Name:      "recoveries_total",
			Help:      "Recovery actions run, by Inkbunny error code.",
		}, []string{"code"})),
	}
}

// register reuses an identical collector already registered by another Helper
func register(reg prometheus.Registerer, c *prometheus.CounterVec) *prometheus.CounterVec {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing
			}
		}
	}
	return c
}

func (m *metrics) request(operation, outcome string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(operation, outcome).Inc()
}

func (m *metrics) recovered(code int) {
	if m == nil {
		return
	}
	m.recoveries.WithLabelValues(strconv.Itoa(code)).Inc()
}
