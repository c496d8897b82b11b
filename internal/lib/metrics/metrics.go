// Package metrics содержит Prometheus-метрики блога.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ArticleViewsTotal считает засчитанные просмотры статей.
	ArticleViewsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "blog",
			Name:      "article_views_total",
			Help:      "Total number of recorded article views",
		},
	)

	// AccessDeniedTotal считает отказы в доступе к платным статьям.
	AccessDeniedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "blog",
			Name:      "premium_access_denied_total",
			Help:      "Total number of premium article reads denied by access policy",
		},
	)

	// GatewayRequestsTotal считает обращения к платёжному провайдеру.
	GatewayRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "blog",
			Name:      "payment_gateway_requests_total",
			Help:      "Total number of payment gateway calls",
		},
		[]string{"method", "status"},
	)

	// GatewayRequestDuration измеряет длительность обращений к провайдеру.
	GatewayRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "blog",
			Name:      "payment_gateway_request_duration_seconds",
			Help:      "Duration of payment gateway calls in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)

// RecordGatewayCall фиксирует вызов метода провайдера.
func RecordGatewayCall(method string, err error, seconds float64) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	GatewayRequestsTotal.WithLabelValues(method, status).Inc()
	GatewayRequestDuration.WithLabelValues(method).Observe(seconds)
}
