package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// 业务指标
	calculationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promotion_calculation_total",
			Help: "Total number of discount calculations",
		},
		[]string{"outcome"},
	)

	discountAmount = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "promotion_discount_amount",
			Help:    "Distribution of per-order discount amounts",
			Buckets: []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000},
		},
	)

	limitClampTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promotion_limit_clamp_total",
			Help: "Total number of limit-chain clamps by reason",
		},
		[]string{"reason"},
	)

	// 库存指标
	stockOperationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promotion_stock_operation_total",
			Help: "Total number of stock ledger operations",
		},
		[]string{"op", "outcome"},
	)

	// 缓存指标
	summaryCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promotion_summary_cache_total",
			Help: "Summary cache lookups",
		},
		[]string{"result"},
	)
)

// RecordCalculation records one discount calculation by outcome
func RecordCalculation(outcome string) {
	calculationTotal.WithLabelValues(outcome).Inc()
}

// ObserveDiscountAmount records an order-level discount amount
func ObserveDiscountAmount(amount float64) {
	discountAmount.Observe(amount)
}

// RecordLimitClamp records one limit-chain clamp
func RecordLimitClamp(reason string) {
	limitClampTotal.WithLabelValues(reason).Inc()
}

// RecordStockOperation records one stock ledger operation
func RecordStockOperation(op, outcome string) {
	stockOperationTotal.WithLabelValues(op, outcome).Inc()
}

// RecordCacheLookup records a summary cache hit or miss
func RecordCacheLookup(hit bool) {
	if hit {
		summaryCacheTotal.WithLabelValues("hit").Inc()
	} else {
		summaryCacheTotal.WithLabelValues("miss").Inc()
	}
}
