// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// =============================================================================
// 📊 指标收集器
// =============================================================================

// Collector 指标收集器
type Collector struct {
	// 管线指标
	pipelinesStarted   prometheus.Counter
	pipelinesCompleted *prometheus.CounterVec
	pipelineDuration   prometheus.Histogram

	// Agent 指标
	agentExecutionsTotal   *prometheus.CounterVec
	agentExecutionDuration *prometheus.HistogramVec
	retriesTotal           *prometheus.CounterVec

	// LLM 路由指标
	llmRouterRequests  *prometheus.CounterVec
	llmRouterDuration  *prometheus.HistogramVec
	llmPromptTokens    *prometheus.HistogramVec

	// 缓存指标
	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec

	logger *zap.Logger
}

// NewCollector 创建指标收集器
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	// 管线指标
	c.pipelinesStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipelines_started_total",
			Help:      "Total number of pipelines started",
		},
	)

	c.pipelinesCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipelines_completed_total",
			Help:      "Total number of pipelines completed, by terminal status",
		},
		[]string{"status"},
	)

	c.pipelineDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_duration_seconds",
			Help:      "End-to-end pipeline duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// Agent 指标
	c.agentExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "agent_executions_total",
			Help:      "Total number of agent invocations, by agent and outcome",
		},
		[]string{"agent", "outcome"},
	)

	c.agentExecutionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "agent_execution_duration_seconds",
			Help:      "Single agent invocation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"agent"},
	)

	c.retriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "agent_retries_total",
			Help:      "Total number of retry loops taken, by agent",
		},
		[]string{"agent"},
	)

	// LLM 路由指标
	c.llmRouterRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_router_requests_total",
			Help:      "Total number of LLM routing decisions, by agent and status",
		},
		[]string{"agent", "status"},
	)

	c.llmRouterDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_router_duration_seconds",
			Help:      "LLM routing decision duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"agent"},
	)

	c.llmPromptTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_router_prompt_tokens",
			Help:      "Estimated prompt token count per routing decision",
			Buckets:   prometheus.ExponentialBuckets(64, 2, 8),
		},
		[]string{"agent"},
	)

	// 缓存指标
	c.cacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of cache hits",
		},
		[]string{"cache"},
	)

	c.cacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of cache misses",
		},
		[]string{"cache"},
	)

	c.logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// =============================================================================
// 🚇 管线指标记录
// =============================================================================

// RecordPipelineStarted 记录管线启动
func (c *Collector) RecordPipelineStarted() {
	c.pipelinesStarted.Inc()
}

// RecordPipelineCompleted 记录管线结束
func (c *Collector) RecordPipelineCompleted(status string, duration time.Duration) {
	c.pipelinesCompleted.WithLabelValues(status).Inc()
	c.pipelineDuration.Observe(duration.Seconds())
}

// =============================================================================
// 🎭 Agent 指标记录
// =============================================================================

// RecordAgentExecution 记录一次 Agent 调用
func (c *Collector) RecordAgentExecution(agent, outcome string, duration time.Duration) {
	c.agentExecutionsTotal.WithLabelValues(agent, outcome).Inc()
	c.agentExecutionDuration.WithLabelValues(agent).Observe(duration.Seconds())
}

// RecordRetry 记录一次重试
func (c *Collector) RecordRetry(agent string) {
	c.retriesTotal.WithLabelValues(agent).Inc()
}

// =============================================================================
// 🤖 LLM 路由指标记录
// =============================================================================

// RecordLLMRouterRequest 记录一次 LLM 路由决策
func (c *Collector) RecordLLMRouterRequest(agent, status string, duration time.Duration, promptTokens int) {
	c.llmRouterRequests.WithLabelValues(agent, status).Inc()
	c.llmRouterDuration.WithLabelValues(agent).Observe(duration.Seconds())
	if promptTokens > 0 {
		c.llmPromptTokens.WithLabelValues(agent).Observe(float64(promptTokens))
	}
}

// =============================================================================
// 💾 缓存指标记录
// =============================================================================

// RecordCacheHit 记录缓存命中
func (c *Collector) RecordCacheHit(cacheType string) {
	c.cacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss 记录缓存未命中
func (c *Collector) RecordCacheMiss(cacheType string) {
	c.cacheMisses.WithLabelValues(cacheType).Inc()
}
