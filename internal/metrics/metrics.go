// Package metrics 定义 Prometheus 指标，通过 /metrics 暴露。
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// APIRequestsTotal HTTP 请求数，按 method / route / status 区分
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hybridrec_api_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// APIRequestDuration HTTP 请求耗时
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hybridrec_api_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.005, .01, .05, .1, .5, 1, 5, 10, 30},
		},
		[]string{"method", "route"},
	)

	// RecommendDuration 一次推荐（训练 + 打分 + 融合）的耗时
	RecommendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hybridrec_recommend_duration_seconds",
			Help:    "Recommendation latency by mode",
			Buckets: []float64{.01, .05, .1, .5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"mode"},
	)

	// RecommendErrors 推荐失败次数，按错误码区分
	RecommendErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hybridrec_recommend_errors_total",
			Help: "Failed recommendations by error code",
		},
		[]string{"mode", "code"},
	)

	// ContentFallbacks 种子未命中、回退到纯协同过滤的次数
	ContentFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hybridrec_content_fallbacks_total",
			Help: "Requests where no seed matched and fusion fell back to collaborative ranking",
		},
	)

	// PipelineNodeDuration Pipeline 中每个 Node 的耗时
	PipelineNodeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hybridrec_pipeline_node_duration_seconds",
			Help:    "Pipeline node latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"node", "kind"},
	)

	// EnrichLookups Jikan 查询结果：hit（缓存）/ ok / not_found / error / open（熔断）
	EnrichLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hybridrec_enrich_lookups_total",
			Help: "Image lookups by outcome",
		},
		[]string{"outcome"},
	)

	// CircuitBreakerState 熔断器状态：0=closed, 1=half-open, 2=open
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hybridrec_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)
)
