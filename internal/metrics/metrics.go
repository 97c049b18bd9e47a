package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics 汇总控制台的 Prometheus 指标，所有方法在 nil 接收者上都是空操作
type Metrics struct {
	apiRequests   *prometheus.CounterVec
	apiLatency    *prometheus.HistogramVec
	httpRequests  *prometheus.CounterVec
	unplaced      prometheus.Counter
	notifications *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "myfan",
			Subsystem: "console",
			Name:      "api_requests_total",
			Help:      "Requests sent to the booking API",
		}, []string{"method", "status"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "myfan",
			Subsystem: "console",
			Name:      "api_request_duration_seconds",
			Help:      "Latency of booking API requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "myfan",
			Subsystem: "console",
			Name:      "http_requests_total",
			Help:      "Requests served by the console",
		}, []string{"method", "status"}),
		unplaced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "myfan",
			Subsystem: "console",
			Name:      "unplaced_bookings_total",
			Help:      "Bookings that could not be drawn on the time grid",
		}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "myfan",
			Subsystem: "console",
			Name:      "notifications_total",
			Help:      "Notification mails queued by the console",
		}, []string{"type", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.apiRequests, m.apiLatency, m.httpRequests, m.unplaced, m.notifications)
	return m
}

// ObserveAPI 记录一次后端请求，status 为 0 表示请求没有得到响应
func (m *Metrics) ObserveAPI(method string, status int, seconds float64) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.apiRequests.WithLabelValues(method, label).Inc()
	m.apiLatency.WithLabelValues(method).Observe(seconds)
}

func (m *Metrics) ObserveHTTP(method string, status int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

func (m *Metrics) ObserveUnplaced(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.unplaced.Add(float64(n))
}

func (m *Metrics) ObserveNotification(kind, status string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(kind, status).Inc()
}
