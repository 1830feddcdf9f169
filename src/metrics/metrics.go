// Package metrics provides Prometheus collectors for the swap service.
//
// Collectors are package-level and registered once through Register. Until
// then they still count, they are just not exported.
package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/MMN3003/megaswap/src/logger"
)

const namespace = "megaswap"

var (
	quotesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "quote",
			Name:      "requests_total",
			Help:      "Aggregator quote requests by outcome",
		},
		[]string{"outcome"},
	)

	quoteDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "quote",
			Name:      "duration_seconds",
			Help:      "Aggregator quote latency in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	gasDefaultedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "quote",
			Name:      "gas_estimate_defaulted_total",
			Help:      "Quotes whose gas estimate was missing and replaced by the configured default",
		},
	)

	valueCorrectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "value_corrections_total",
			Help:      "Native value corrections by reason (missing, zero, mismatch)",
		},
		[]string{"reason"},
	)

	approvalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "allowance",
			Name:      "approvals_total",
			Help:      "Approval handshakes by terminal status",
		},
		[]string{"status"},
	)

	receiptPollsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "allowance",
			Name:      "receipt_polls_total",
			Help:      "Receipt lookups issued while waiting for approvals",
		},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// Register adds every collector to the default registry.
func Register(log *logger.Logger) {
	registerIfNotExists(collectors.NewGoCollector(), "go_collector", log)
	registerIfNotExists(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}), "process_collector", log)
	registerIfNotExists(quotesTotal, "quote_requests_total", log)
	registerIfNotExists(quoteDuration, "quote_duration", log)
	registerIfNotExists(gasDefaultedTotal, "gas_estimate_defaulted_total", log)
	registerIfNotExists(valueCorrectionsTotal, "value_corrections_total", log)
	registerIfNotExists(approvalsTotal, "approvals_total", log)
	registerIfNotExists(receiptPollsTotal, "receipt_polls_total", log)
	registerIfNotExists(httpRequestsTotal, "http_requests_total", log)
	registerIfNotExists(httpRequestDuration, "http_request_duration", log)
}

func registerIfNotExists(c prometheus.Collector, name string, log *logger.Logger) {
	if err := prometheus.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			log.Debugf("%s already registered", name)
			return
		}
		log.Errorf("failed to register %s: %v", name, err)
	}
}

func ObserveQuote(outcome string, took time.Duration) {
	quotesTotal.WithLabelValues(outcome).Inc()
	quoteDuration.Observe(took.Seconds())
}

func GasEstimateDefaulted() { gasDefaultedTotal.Inc() }

func ValueCorrected(reason string) { valueCorrectionsTotal.WithLabelValues(reason).Inc() }

func ObserveApproval(status string) { approvalsTotal.WithLabelValues(status).Inc() }

func ReceiptPolled() { receiptPollsTotal.Inc() }

// HTTPMiddleware records request count and latency per route template.
func HTTPMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request.Method
		httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}
