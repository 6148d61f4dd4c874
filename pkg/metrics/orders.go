package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// OrderMetrics counts order lifecycle outcomes.
type OrderMetrics struct {
	placed        prometheus.Counter
	cancelled     prometheus.Counter
	stockRejected prometheus.Counter
	revenue       prometheus.Counter
}

// NewOrderMetrics registers the order counters on the provided registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	m := &OrderMetrics{
		placed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orders_placed_total",
			Help: "Orders created from a cart.",
		}),
		cancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orders_cancelled_total",
			Help: "Orders cancelled by their owner.",
		}),
		stockRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orders_rejected_stock_total",
			Help: "Order placements rejected for insufficient stock.",
		}),
		revenue: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orders_placed_amount_total",
			Help: "Sum of placed order totals.",
		}),
	}
	reg.MustRegister(m.placed, m.cancelled, m.stockRejected, m.revenue)
	return m
}

// IncPlaced records a placed order and its total.
func (m *OrderMetrics) IncPlaced(total decimal.Decimal) {
	if m == nil || m.placed == nil {
		return
	}
	m.placed.Inc()
	amount, _ := total.Float64()
	if amount > 0 {
		m.revenue.Add(amount)
	}
}

// IncCancelled records a cancellation.
func (m *OrderMetrics) IncCancelled() {
	if m == nil || m.cancelled == nil {
		return
	}
	m.cancelled.Inc()
}

// IncStockRejected records a placement that failed the stock check.
func (m *OrderMetrics) IncStockRejected() {
	if m == nil || m.stockRejected == nil {
		return
	}
	m.stockRejected.Inc()
}
