package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Причины отказа в создании заказа (значения label "reason").
const (
	ReasonValidation   = "validation"
	ReasonBusinessRule = "business_rule"
	ReasonStorage      = "storage"
)

// OrderMetrics содержит метрики операций над заказами.
// Методы безопасны для nil-получателя: сервис может работать без метрик.
type OrderMetrics struct {
	ordersCreated       prometheus.Counter
	createRejected      *prometheus.CounterVec
	lookups             *prometheus.CounterVec
	pagesServed         prometheus.Counter
	notificationsFailed prometheus.Counter
	opDuration          *prometheus.HistogramVec
}

// NewOrderMetrics регистрирует метрики в глобальном реестре.
func NewOrderMetrics() *OrderMetrics {
	return NewOrderMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewOrderMetricsWithRegisterer регистрирует метрики в переданном реестре.
func NewOrderMetricsWithRegisterer(registerer prometheus.Registerer) *OrderMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &OrderMetrics{
		ordersCreated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "oms_orders_created_total",
			Help: "Total number of orders created",
		}),
		createRejected: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "oms_orders_create_rejected_total",
			Help: "Total number of rejected order creation requests by reason",
		}, []string{"reason"}),
		lookups: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "oms_order_lookups_total",
			Help: "Total number of order lookups by result",
		}, []string{"result"}),
		pagesServed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "oms_order_pages_served_total",
			Help: "Total number of order pages served",
		}),
		notificationsFailed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "oms_notifications_failed_total",
			Help: "Total number of notifications that could not be delivered",
		}),
		opDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "oms_order_operation_duration_seconds",
			Help:    "Duration of order service operations in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"operation"}),
	}
}

// RecordOrderCreated увеличивает счётчик созданных заказов.
func (m *OrderMetrics) RecordOrderCreated() {
	if m == nil {
		return
	}
	m.ordersCreated.Inc()
}

// RecordCreateRejected учитывает отказ в создании заказа.
func (m *OrderMetrics) RecordCreateRejected(reason string) {
	if m == nil {
		return
	}
	m.createRejected.WithLabelValues(reason).Inc()
}

// RecordLookup учитывает поиск заказа по ID: found, not_found или error.
func (m *OrderMetrics) RecordLookup(result string) {
	if m == nil {
		return
	}
	m.lookups.WithLabelValues(result).Inc()
}

// RecordPageServed увеличивает счётчик отданных страниц.
func (m *OrderMetrics) RecordPageServed() {
	if m == nil {
		return
	}
	m.pagesServed.Inc()
}

// RecordNotificationFailed учитывает недоставленное уведомление.
func (m *OrderMetrics) RecordNotificationFailed() {
	if m == nil {
		return
	}
	m.notificationsFailed.Inc()
}

// ObserveOperation записывает длительность операции сервиса.
func (m *OrderMetrics) ObserveOperation(operation string, duration time.Duration) {
	if m == nil {
		return
	}
	m.opDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
