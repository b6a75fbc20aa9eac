// Package observability holds the prometheus metrics shared by the client and the provider.
package observability

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/534591395/zoodubbo/protocol"
	"github.com/534591395/zoodubbo/registry"
	"github.com/534591395/zoodubbo/transport"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce sync.Once

	clientCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zoodubbo",
			Subsystem: "client",
			Name:      "calls_total",
			Help:      "Invocations by final outcome.",
		},
		[]string{"service", "method", "outcome"},
	)
	clientDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "zoodubbo",
			Subsystem: "client",
			Name:      "call_duration_seconds",
			Help:      "Invocation duration in seconds, reconnect delays included.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "outcome"},
	)
	clientReconnects = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zoodubbo",
			Subsystem: "client",
			Name:      "reconnects_total",
			Help:      "Reconnect cycles scheduled after transport errors.",
		},
		[]string{"service"},
	)
	providerRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zoodubbo",
			Subsystem: "provider",
			Name:      "requests_total",
			Help:      "Requests handled by the provider, by response status.",
		},
		[]string{"service", "method", "status"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(clientCalls, clientDuration, clientReconnects, providerRequests)
	})
}

// Handler serves the default registry in the prometheus text format.
func Handler() http.Handler {
	RegisterMetrics()
	return promhttp.Handler()
}

func RecordCall(service, method, outcome string, duration time.Duration) {
	RegisterMetrics()
	clientCalls.WithLabelValues(service, method, outcome).Inc()
	clientDuration.WithLabelValues(service, method, outcome).Observe(duration.Seconds())
}

func RecordReconnect(service string) {
	RegisterMetrics()
	clientReconnects.WithLabelValues(service).Inc()
}

func RecordProviderRequest(service, method string, status byte) {
	RegisterMetrics()
	providerRequests.WithLabelValues(service, method, strconv.Itoa(int(status))).Inc()
}

// OutcomeLabel names the class of a call's settlement.
func OutcomeLabel(err error, void bool) string {
	var (
		encErr     *protocol.EncodeError
		remoteErr  *protocol.RemoteError
		decodeErr  *protocol.DecodeError
		transErr   *transport.Error
		unknownErr *registry.UnknownMethodError
	)
	switch {
	case err == nil && void:
		return "void"
	case err == nil:
		return "ok"
	case errors.As(err, &encErr):
		return "encode_error"
	case errors.As(err, &unknownErr):
		return "unknown_method"
	case errors.As(err, &remoteErr):
		return "remote_error"
	case errors.As(err, &decodeErr):
		return "decode_error"
	case errors.As(err, &transErr):
		return "transport_error"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	}
	return "error"
}
