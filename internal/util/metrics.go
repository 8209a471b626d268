package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pos_orders_created_total",
		Help: "Total number of orders posted to the ledger",
	})

	OrdersFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_orders_failed_total",
		Help: "Total number of rejected order attempts",
	}, []string{"reason"})

	OrderCreateLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pos_order_create_latency_seconds",
		Help:    "Latency of order creation transactions",
		Buckets: prometheus.DefBuckets,
	})

	CatalogMutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_catalog_mutations_total",
		Help: "Total number of catalog mutations",
	}, []string{"op"})

	RenumberPassesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pos_renumber_passes_total",
		Help: "Total number of renumbering passes run",
	})

	RenumberedRowsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_renumbered_rows_total",
		Help: "Total number of rows assigned a new identifier",
	}, []string{"entity"})

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
