// =============================================================================
// 📦 HiveFlow 默认配置
// =============================================================================
// 提供所有配置项的合理默认值
// =============================================================================
package config

import "time"

// 退避模式
const (
	BackoffLinear      = "linear"
	BackoffExponential = "exponential"
)

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Log:        DefaultLogConfig(),
		Retry:      DefaultRetryConfig(),
		LLM:        DefaultLLMConfig(),
		Cache:      DefaultCacheConfig(),
		Metrics:    DefaultMetricsConfig(),
		Telemetry:  DefaultTelemetryConfig(),
		Supervisor: DefaultSupervisorConfig(),
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:       "debug",
		Format:      "json",
		OutputPaths: []string{"stdout"},
	}
}

// DefaultRetryConfig 返回默认重试配置
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		DefaultAttempts: 3,
		Backoff:         BackoffExponential,
		BaseDelay:       1 * time.Second,
	}
}

// DefaultLLMConfig 返回默认 LLM 配置
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Provider: "openai",
		BaseURL:  "https://api.openai.com/v1",
		Model:    "gpt-4o-mini",
		Timeout:  30 * time.Second,
	}
}

// DefaultCacheConfig 返回默认缓存配置
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:   false,
		TTL:       10 * time.Minute,
		LocalSize: 1024,
	}
}

// DefaultMetricsConfig 返回默认指标配置
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled: false,
		Addr:    ":9091",
	}
}

// DefaultTelemetryConfig 返回默认链路追踪配置
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		ServiceName:  "hiveflow",
		OTLPEndpoint: "localhost:4317",
		SampleRate:   1.0,
	}
}

// DefaultSupervisorConfig 返回默认并发配置
func DefaultSupervisorConfig() SupervisorConfig {
	return SupervisorConfig{MaxConcurrent: 0}
}
