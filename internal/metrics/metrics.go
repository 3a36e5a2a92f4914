// Package metrics provides Prometheus instrumentation for the marketplace
// engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// SharePurchasesTotal counts primary-market share purchases.
	SharePurchasesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "promorang_share_purchases_total",
		Help: "Total number of primary-market share purchases",
	})

	// ListingsTotal counts resale listings by outcome (created, filled,
	// cancelled).
	ListingsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "promorang_listings_total",
		Help: "Total resale listings by outcome",
	}, []string{"outcome"})

	// OffersTotal counts share offers by outcome (created, accepted,
	// declined).
	OffersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "promorang_offers_total",
		Help: "Total share offers by outcome",
	}, []string{"outcome"})

	// MovesRewardedTotal counts rewarded social moves by action.
	MovesRewardedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "promorang_moves_rewarded_total",
		Help: "Total rewarded social moves",
	}, []string{"action"})

	// PurchaseRejections counts purchases rejected by the eligibility or
	// affordability gates.
	PurchaseRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "promorang_purchase_rejections_total",
		Help: "Purchases rejected before execution",
	}, []string{"reason"})

	// AdvertiserCacheOps counts advertiser-cache hits and misses per family.
	AdvertiserCacheOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "promorang_advertiser_cache_ops_total",
		Help: "Advertiser client cache hits and misses",
	}, []string{"family", "result"})

	// WebSocketClients tracks connected WebSocket clients.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "promorang_websocket_clients",
		Help: "Number of connected WebSocket clients",
	})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "promorang_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "promorang_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		// Use the route pattern for path label to avoid high cardinality.
		path := r.URL.Path
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
