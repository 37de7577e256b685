// Package metrics 导出 Prometheus 指标：HTTP 请求、抽珠结果以及离线状态的实时汇总。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wfunc/moonbag/internal/game/engine"
	"github.com/wfunc/moonbag/internal/offline"
)

// StateSource 提供离线状态快照
type StateSource interface {
	Snapshot() *offline.State
}

// OnlineCounter 提供在线连接数
type OnlineCounter interface {
	GetOnlineCount() int
}

// Metrics 指标集合，每个实例使用独立的注册表
type Metrics struct {
	registry  *prometheus.Registry
	requests  *prometheus.CounterVec
	durations *prometheus.HistogramVec
	actions   *prometheus.CounterVec
	draws     *prometheus.CounterVec
	earnings  prometheus.Counter
}

// New 创建指标集合，source 和 online 可为空
func New(namespace string, source StateSource, online OnlineCounter) *Metrics {
	if namespace == "" {
		namespace = "moonbag"
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "offline",
			Name:      "actions_total",
			Help:      "Offline store actions by name and outcome.",
		}, []string{"action", "outcome"}),
		draws: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "offline",
			Name:      "draws_total",
			Help:      "Orbs drawn by category.",
		}, []string{"category"}),
		earnings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "offline",
			Name:      "pull_earnings_total",
			Help:      "Moonrocks credited directly by pulls.",
		}),
	}

	m.registry.MustRegister(m.requests, m.durations, m.actions, m.draws, m.earnings)
	if source != nil || online != nil {
		m.registry.MustRegister(newStateCollector(namespace, source, online))
	}
	return m
}

// Middleware 记录 HTTP 请求指标，路由使用注册时的模板
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		m.durations.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

// ObserveAction 记录一次离线操作结果
func (m *Metrics) ObserveAction(action string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.actions.WithLabelValues(action, outcome).Inc()
}

// ObservePull 记录一次抽珠的结果
func (m *Metrics) ObservePull(result *engine.PullResult) {
	if result == nil {
		return
	}
	for _, d := range result.Draws {
		m.draws.WithLabelValues(d.Orb.Category().String()).Inc()
	}
	if result.Earnings > 0 {
		m.earnings.Add(float64(result.Earnings))
	}
}

// Handler 指标导出接口
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry 返回注册表（用于测试）
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
