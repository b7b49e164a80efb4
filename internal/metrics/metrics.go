// Package metrics объявляет метрики Prometheus сервиса.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics - набор счётчиков сервиса. Методы безопасны для nil-получателя.
type Metrics struct {
	RemindersDispatched *prometheus.CounterVec
	RemindersTriggered  *prometheus.CounterVec
	SubscriptionOps     *prometheus.CounterVec
	HTTPRequests        *prometheus.CounterVec
}

// New создаёт метрики и регистрирует их в reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RemindersDispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "subscription_tracker",
			Name:      "reminders_dispatched_total",
			Help:      "Reminder dispatch attempts by outcome.",
		}, []string{"outcome"}),
		RemindersTriggered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "subscription_tracker",
			Name:      "reminders_triggered_total",
			Help:      "Background reminder trigger calls by result.",
		}, []string{"result"}),
		SubscriptionOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "subscription_tracker",
			Name:      "subscription_operations_total",
			Help:      "Subscription lifecycle operations by name and result.",
		}, []string{"operation", "result"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "subscription_tracker",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status code.",
		}, []string{"method", "code"}),
	}
	reg.MustRegister(m.RemindersDispatched, m.RemindersTriggered, m.SubscriptionOps, m.HTTPRequests)
	return m
}

// ReminderDispatched учитывает итог запуска напоминания.
func (m *Metrics) ReminderDispatched(outcome string) {
	if m == nil {
		return
	}
	m.RemindersDispatched.WithLabelValues(outcome).Inc()
}

// ReminderTriggered учитывает результат фонового вызова триггера.
func (m *Metrics) ReminderTriggered(err error) {
	if m == nil {
		return
	}
	m.RemindersTriggered.WithLabelValues(result(err)).Inc()
}

// SubscriptionOp учитывает операцию над подпиской.
func (m *Metrics) SubscriptionOp(operation string, err error) {
	if m == nil {
		return
	}
	m.SubscriptionOps.WithLabelValues(operation, result(err)).Inc()
}

// HTTPRequest учитывает обработанный HTTP-запрос.
func (m *Metrics) HTTPRequest(method string, code int) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, strconv.Itoa(code)).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
