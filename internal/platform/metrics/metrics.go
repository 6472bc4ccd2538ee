package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// once 用来保证指标只注册一次。
	// Prometheus 的 registry 不允许重复注册同名指标，否则会直接 panic。
	once sync.Once

	// HTTPRequestsTotal：累计请求数（Counter）。
	//
	// labels：
	// - method：HTTP 方法，例如 GET/POST
	// - route：路由模板（推荐用 pattern，例如 /api/v1/rules/{slug}；不要用带 id 的真实 path，否则会产生无限label）
	// - status：HTTP 状态码字符串，例如 "200"/"401"/"500"
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "HTTP请求的总数",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDurationSeconds：请求耗时分布（Histogram），用于算 P95/P99。
	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency distributions.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// HTTPInflightRequests：当前正在处理中的请求数（Gauge）。
	HTTPInflightRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Current number of in-flight HTTP requests.",
		},
	)

	// CacheOperations：实体缓存操作计数。
	//
	// labels：
	// - entity：实体类型名（Rule/Campaign/...），基数有限，安全
	// - result：hit / miss / add / update / evict / expired
	CacheOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "entity_cache_operations_total",
			Help: "实体缓存操作计数",
		},
		[]string{"entity", "result"},
	)

	// StoreFailures：仓储层被吞掉（只记日志、返回零值）的存储错误。
	// 返回值上区分不出“没数据”和“存储故障”，报警只能靠这个指标和日志。
	StoreFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_failures_total",
			Help: "Store operations that degraded to zero-value results.",
		},
		[]string{"collection", "op"},
	)

	// RuleSearchFallbacks：规则全文检索降级为 regex 扫描的次数。
	// 持续增长说明 text index 缺失或被删，需要人工处理。
	RuleSearchFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rule_search_fallback_total",
			Help: "Rule queries that fell back from $text to regex search.",
		},
	)

	// NotificationEvents：通知管道收到的事件数。
	NotificationEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_events_total",
			Help: "Campaign events accepted by the notification collector.",
		},
		[]string{"type"},
	)
)

// Init 注册指标：只允许注册一次（否则 panic: duplicate metrics collector registration）
func Init() {
	once.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDurationSeconds,
			HTTPInflightRequests,
			CacheOperations,
			StoreFailures,
			RuleSearchFallbacks,
			NotificationEvents,
		)
	})
}
