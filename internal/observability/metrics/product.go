package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ProductOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inventario_product_operations_total",
			Help: "Total number of product operations by kind and outcome",
		},
		[]string{"operation", "outcome"},
	)

	ProductListResults = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "inventario_product_list_results",
			Help:    "Number of products returned per list query",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
		},
	)

	ListCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "inventario_list_cache_hits_total",
			Help: "Total number of list cache hits",
		},
	)

	ListCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "inventario_list_cache_misses_total",
			Help: "Total number of list cache misses",
		},
	)

	LoginAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inventario_login_attempts_total",
			Help: "Total number of login attempts by outcome",
		},
		[]string{"outcome"},
	)
)
