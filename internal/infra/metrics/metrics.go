package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SalesRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "buildmat",
		Name:      "sales_recorded_total",
		Help:      "Sales committed by the sale recorder.",
	})

	SalesRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "buildmat",
		Name:      "sales_rejected_total",
		Help:      "Sales rejected before or during commit, by reason.",
	}, []string{"reason"})

	SaleRecordSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "buildmat",
		Name:      "sale_record_seconds",
		Help:      "Time spent in the sale transaction.",
		Buckets:   prometheus.DefBuckets,
	})

	UnitsSold = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "buildmat",
		Name:      "units_sold_total",
		Help:      "Material units decremented from stock by sales.",
	})
)

// Причины отказа для SalesRejected.
const (
	ReasonValidation        = "validation"
	ReasonMaterialNotFound  = "material_not_found"
	ReasonCustomerNotFound  = "customer_not_found"
	ReasonInsufficientStock = "insufficient_stock"
	ReasonStore             = "store"
)
