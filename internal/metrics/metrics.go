package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all Inscrevo metrics
const namespace = "inscrevo"

// Registry is the global Prometheus registry for all metrics
var Registry = prometheus.NewRegistry()

// AppInfo is a gauge that exposes application version information as labels
var AppInfo = promauto.With(Registry).NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "app_info",
		Help:      "Application version information (always set to 1, version info in labels)",
	},
	[]string{"version", "commit", "build_date"},
)

// PaymentsCreatedTotal counts payment attempts created, by method.
var PaymentsCreatedTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payments_created_total",
		Help:      "Total number of payment attempts created",
	},
	[]string{"method"},
)

// PaymentTransitionsTotal counts ledger transitions applied, by edge and source.
var PaymentTransitionsTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payment_transitions_total",
		Help:      "Total number of payment status transitions applied by the ledger",
	},
	[]string{"from", "to", "source"},
)

// PaymentTransitionAnomaliesTotal counts illegal transitions rejected by the ledger.
var PaymentTransitionAnomaliesTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payment_transition_anomalies_total",
		Help:      "Total number of illegal payment status transitions rejected",
	},
	[]string{"from", "to", "source"},
)

// GatewayRequestsTotal counts outbound gateway calls by operation and outcome.
var GatewayRequestsTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gateway_requests_total",
		Help:      "Total number of outbound payment gateway requests",
	},
	[]string{"operation", "outcome"}, // outcome: success|denied|error
)

// GatewayRequestDuration records outbound gateway call latency in seconds.
var GatewayRequestDuration = promauto.With(Registry).NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "gateway_request_duration_seconds",
		Help:      "Outbound payment gateway request latency in seconds",
		Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	},
	[]string{"operation"},
)

// WebhookNotificationsTotal counts inbound gateway notifications by outcome.
var WebhookNotificationsTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "webhook_notifications_total",
		Help:      "Total number of inbound gateway webhook notifications",
	},
	[]string{"outcome"}, // outcome: applied|duplicate|unknown_charge|rejected|error
)

// Init sets the application info metric. Call once at startup.
func Init(version, commit, buildDate string) {
	AppInfo.WithLabelValues(version, commit, buildDate).Set(1)
}
