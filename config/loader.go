// =============================================================================
// 📦 HiveFlow 配置加载器
// =============================================================================
// 统一配置加载,支持 YAML 文件 + 环境变量覆盖
//
// 使用方法:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("config.yaml").
//	    Load()
//
// 配置优先级: 默认值 → YAML 文件 → 环境变量
// =============================================================================
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix 是环境变量覆盖的统一前缀
const EnvPrefix = "HIVEFLOW"

// Config 是 HiveFlow 的完整配置结构
// 进程范围只读:加载一次,运行期不再修改
type Config struct {
	// Log 日志配置
	Log LogConfig `yaml:"log"`

	// Retry 重试配置
	Retry RetryConfig `yaml:"retry"`

	// LLM 大语言模型配置
	LLM LLMConfig `yaml:"llm"`

	// Cache LLM 响应缓存配置
	Cache CacheConfig `yaml:"cache"`

	// Metrics 指标配置
	Metrics MetricsConfig `yaml:"metrics"`

	// Telemetry 遥测配置
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Supervisor 管线并发配置
	Supervisor SupervisorConfig `yaml:"supervisor"`
}

// LogConfig 日志配置
type LogConfig struct {
	// 日志级别: debug, info, warn, error
	Level string `yaml:"level"`
	// 输出格式: json, console
	Format string `yaml:"format"`
	// 输出路径
	OutputPaths []string `yaml:"output_paths"`
}

// RetryConfig 重试配置
type RetryConfig struct {
	// 默认最大重试次数
	DefaultAttempts int `yaml:"default_attempts"`
	// 退避模式: linear, exponential
	Backoff string `yaml:"backoff"`
	// 退避基准延迟
	BaseDelay time.Duration `yaml:"base_delay"`
}

// LLMConfig 大语言模型传输配置
type LLMConfig struct {
	// Provider 名称(当前支持 openai 兼容端点)
	Provider string `yaml:"provider"`
	// API Key
	APIKey string `yaml:"api_key"`
	// BaseURL 兼容端点地址
	BaseURL string `yaml:"base_url"`
	// 默认模型
	Model string `yaml:"model"`
	// 请求超时
	Timeout time.Duration `yaml:"timeout"`
	// 客户端限速(每秒请求数,0 表示不限速)
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	// 限速突发量
	Burst int `yaml:"burst"`
}

// CacheConfig LLM 响应缓存配置
type CacheConfig struct {
	// 是否启用
	Enabled bool `yaml:"enabled"`
	// Redis 地址(为空时只用本地缓存)
	RedisAddr string `yaml:"redis_addr"`
	// Redis 密码
	RedisPassword string `yaml:"redis_password"`
	// Redis DB 编号
	RedisDB int `yaml:"redis_db"`
	// 缓存条目存活时间
	TTL time.Duration `yaml:"ttl"`
	// 本地缓存条目上限
	LocalSize int `yaml:"local_size"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	// 是否启用
	Enabled bool `yaml:"enabled"`
	// Prometheus 暴露地址
	Addr string `yaml:"addr"`
}

// TelemetryConfig 链路追踪配置(指标走 Prometheus,见 MetricsConfig)
type TelemetryConfig struct {
	// 是否启用
	Enabled bool `yaml:"enabled"`
	// 服务名
	ServiceName string `yaml:"service_name"`
	// OTLP gRPC 端点
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	// 管线采样率,0.0–1.0
	SampleRate float64 `yaml:"sample_rate"`
}

// SupervisorConfig 管线并发配置
type SupervisorConfig struct {
	// 并行管线上限(0 表示不限)
	MaxConcurrent int `yaml:"max_concurrent"`
}

// Loader 配置加载器
type Loader struct {
	configPath string
	validators []func(*Config) error
}

// NewLoader 创建配置加载器
func NewLoader() *Loader {
	return &Loader{}
}

// WithConfigPath 指定 YAML 配置文件路径
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithValidator 追加自定义校验器
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load 执行加载:默认值 → 文件 → 环境变量 → 校验
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	l.loadFromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}

	return cfg, nil
}

func (l *Loader) loadFromFile(cfg *Config) error {
	raw, err := os.ReadFile(l.configPath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(raw, cfg)
}

// loadFromEnv 用 HIVEFLOW_* 环境变量覆盖已加载的配置
func (l *Loader) loadFromEnv(cfg *Config) {
	setString(&cfg.Log.Level, "LOG_LEVEL")
	setString(&cfg.Log.Format, "LOG_FORMAT")

	setInt(&cfg.Retry.DefaultAttempts, "RETRY_DEFAULT_ATTEMPTS")
	setString(&cfg.Retry.Backoff, "RETRY_BACKOFF")
	setDuration(&cfg.Retry.BaseDelay, "RETRY_BASE_DELAY")

	setString(&cfg.LLM.Provider, "LLM_PROVIDER")
	setString(&cfg.LLM.APIKey, "LLM_API_KEY")
	setString(&cfg.LLM.BaseURL, "LLM_BASE_URL")
	setString(&cfg.LLM.Model, "LLM_MODEL")
	setDuration(&cfg.LLM.Timeout, "LLM_TIMEOUT")

	setBool(&cfg.Cache.Enabled, "CACHE_ENABLED")
	setString(&cfg.Cache.RedisAddr, "CACHE_REDIS_ADDR")
	setString(&cfg.Cache.RedisPassword, "CACHE_REDIS_PASSWORD")
	setDuration(&cfg.Cache.TTL, "CACHE_TTL")

	setBool(&cfg.Metrics.Enabled, "METRICS_ENABLED")
	setString(&cfg.Metrics.Addr, "METRICS_ADDR")

	setBool(&cfg.Telemetry.Enabled, "TELEMETRY_ENABLED")
	setString(&cfg.Telemetry.ServiceName, "TELEMETRY_SERVICE_NAME")
	setString(&cfg.Telemetry.OTLPEndpoint, "TELEMETRY_OTLP_ENDPOINT")
	setFloat(&cfg.Telemetry.SampleRate, "TELEMETRY_SAMPLE_RATE")

	setInt(&cfg.Supervisor.MaxConcurrent, "SUPERVISOR_MAX_CONCURRENT")
}

// Validate 做轻量一致性检查
func (c *Config) Validate() error {
	switch c.Retry.Backoff {
	case BackoffLinear, BackoffExponential:
	default:
		return fmt.Errorf("config: unknown retry backoff %q", c.Retry.Backoff)
	}
	if c.Retry.DefaultAttempts < 0 {
		return fmt.Errorf("config: retry default_attempts cannot be negative")
	}
	if c.Retry.BaseDelay < 0 {
		return fmt.Errorf("config: retry base_delay cannot be negative")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("config: unknown log level %q", c.Log.Level)
	}
	if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		return fmt.Errorf("config: telemetry sample_rate must be in [0, 1]")
	}
	return nil
}

func envKey(suffix string) string { return EnvPrefix + "_" + suffix }

func setString(dst *string, suffix string) {
	if v := os.Getenv(envKey(suffix)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, suffix string) {
	if v := os.Getenv(envKey(suffix)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, suffix string) {
	if v := os.Getenv(envKey(suffix)); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setFloat(dst *float64, suffix string) {
	if v := os.Getenv(envKey(suffix)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setDuration(dst *time.Duration, suffix string) {
	if v := os.Getenv(envKey(suffix)); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
