package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	RequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests being served",
		},
	)

	// RideTransitionsTotal counts lifecycle changes by target status.
	RideTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rideaxis_ride_transitions_total",
			Help: "Ride status transitions by target status",
		},
		[]string{"to"},
	)

	LocationPointsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rideaxis_location_points_total",
			Help: "Location points saved for departed rides",
		},
	)

	DriverRatingsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rideaxis_driver_ratings_total",
			Help: "Driver ratings submitted",
		},
	)

	WSClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rideaxis_ws_clients",
			Help: "Connected live tracking websocket clients",
		},
	)
)

// PrometheusMiddleware records request count, duration and in-flight requests.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		RequestsInFlight.Inc()
		defer RequestsInFlight.Dec()

		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()

		status := strconv.Itoa(c.Writer.Status())
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unknown"
		}

		RequestsTotal.WithLabelValues(c.Request.Method, endpoint, status).Inc()
		RequestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(duration)
	}
}

func TrackRideTransition(to string) {
	RideTransitionsTotal.WithLabelValues(to).Inc()
}

func TrackLocationPoints(n int) {
	LocationPointsTotal.Add(float64(n))
}

func TrackDriverRating() {
	DriverRatingsTotal.Inc()
}
