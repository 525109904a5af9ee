package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UsersRegisteredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "users_registered_total",
		Help: "Total number of users registered",
	})

	CartItemsAddedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cart_items_added_total",
		Help: "Total number of cart add operations",
	})

	CartItemsRemovedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cart_items_removed_total",
		Help: "Total number of cart remove operations",
	})

	CheckoutsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkouts_total",
		Help: "Total number of successful checkouts",
	})

	CheckoutsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkouts_failed_total",
		Help: "Total number of failed checkouts",
	}, []string{"reason"})

	CheckoutsPartialTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkouts_partial_total",
		Help: "Total number of checkouts where the purchase was recorded but the cart was not cleared",
	})

	PurchasesRecordedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "purchases_recorded_total",
		Help: "Total number of purchases recorded",
	})

	ActivityLinesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "activity_lines_total",
		Help: "Total number of lines appended to the activity log",
	})

	ActivityAppendsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "activity_appends_failed_total",
		Help: "Total number of failed activity log appends",
	})

	DocumentSaveLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "document_save_latency_seconds",
		Help:    "Latency of document store save operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"document"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
