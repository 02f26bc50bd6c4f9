// =============================================================================
// Package quick — One-Line Pipeline Runtime Construction
// =============================================================================
// Provides a convenience entry point for assembling the pipeline runtime
// (config, logger, LLM transport, cache, metrics, engine, supervisor) with
// minimal boilerplate.
//
// The package lives under quick/ (not root) to avoid an import cycle:
// root → quick → supervisor → pipeline → agent.
//
// Usage:
//
//	rt, err := quick.New()
//	rt, err := quick.New(quick.WithConfigPath("config.yaml"))
//	rt, err := quick.New(quick.WithClient(myClient))
//
//	rt.Register(greeter, formatter)
//	result, err := rt.Process(ctx, "greeter", types.DataMap{"language": "es"})
//
// =============================================================================
package quick

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/BaSui01/hiveflow/agent"
	"github.com/BaSui01/hiveflow/config"
	"github.com/BaSui01/hiveflow/internal/metrics"
	"github.com/BaSui01/hiveflow/internal/telemetry"
	"github.com/BaSui01/hiveflow/llm"
	"github.com/BaSui01/hiveflow/llm/cache"
	"github.com/BaSui01/hiveflow/pipeline"
	"github.com/BaSui01/hiveflow/providers/openai"
	"github.com/BaSui01/hiveflow/router"
	"github.com/BaSui01/hiveflow/supervisor"
	"github.com/BaSui01/hiveflow/types"
)

// Runtime bundles the assembled framework components: one registry, one
// engine, one supervisor. It is safe for concurrent use.
type Runtime struct {
	cfg        *config.Config
	logger     *zap.Logger
	client     llm.CompletionClient
	registry   *agent.Registry
	supervisor *supervisor.Supervisor
	tracing    *telemetry.Tracing
}

// Option configures the runtime created by New.
type Option func(*options)

type options struct {
	cfg        *config.Config
	configPath string
	client     llm.CompletionClient
	logger     *zap.Logger
	collector  *metrics.Collector
}

// WithConfig sets a pre-built configuration.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithConfigPath loads configuration from a YAML file.
func WithConfigPath(path string) Option {
	return func(o *options) { o.configPath = path }
}

// WithClient sets a pre-built LLM completion client, bypassing the
// provider selection from config.
func WithClient(c llm.CompletionClient) Option {
	return func(o *options) { o.client = c }
}

// WithLogger sets a pre-built logger instead of one derived from config.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithCollector sets a pre-built metrics collector.
func WithCollector(c *metrics.Collector) Option {
	return func(o *options) { o.collector = c }
}

// New assembles a runtime: configuration, logger, LLM transport (with
// optional response cache), metrics, engine, and supervisor.
func New(opts ...Option) (*Runtime, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	cfg := o.cfg
	if cfg == nil {
		loader := config.NewLoader()
		if o.configPath != "" {
			loader = loader.WithConfigPath(o.configPath)
		}
		loaded, err := loader.Load()
		if err != nil {
			return nil, fmt.Errorf("quick: load config: %w", err)
		}
		cfg = loaded
	}

	logger := o.logger
	if logger == nil {
		logger = config.BuildLogger(cfg.Log)
	}

	collector := o.collector
	if collector == nil && cfg.Metrics.Enabled {
		collector = metrics.NewCollector("hiveflow", logger)
	}

	client := o.client
	if client == nil {
		client = openai.New(cfg.LLM, logger)
	}
	if cfg.Cache.Enabled {
		var rdb *redis.Client
		if cfg.Cache.RedisAddr != "" {
			rdb = redis.NewClient(&redis.Options{
				Addr:     cfg.Cache.RedisAddr,
				Password: cfg.Cache.RedisPassword,
				DB:       cfg.Cache.RedisDB,
			})
		}
		client = cache.NewCachingClient(client, cache.New(rdb, &cache.Config{
			LocalMaxSize: cfg.Cache.LocalSize,
			LocalTTL:     cfg.Cache.TTL,
			RedisTTL:     cfg.Cache.TTL,
			EnableLocal:  true,
			EnableRedis:  rdb != nil,
		}, logger), collector, logger)
	}

	tracing, err := telemetry.Init(cfg.Telemetry, logger)
	if err != nil {
		return nil, fmt.Errorf("quick: init tracing: %w", err)
	}

	registry := agent.NewRegistry()
	engine := pipeline.New(registry, &cfg.Retry,
		pipeline.WithRouter(router.New(client, logger, router.WithCollector(collector))),
		pipeline.WithLogger(logger),
		pipeline.WithCollector(collector),
		pipeline.WithTracer(tracing.Tracer()),
	)
	sup := supervisor.New(engine,
		supervisor.WithLogger(logger),
		supervisor.WithMaxConcurrent(cfg.Supervisor.MaxConcurrent),
	)

	return &Runtime{
		cfg:        cfg,
		logger:     logger,
		client:     client,
		registry:   registry,
		supervisor: sup,
		tracing:    tracing,
	}, nil
}

// Register adds agent definitions to the runtime's registry.
func (r *Runtime) Register(defs ...*agent.Definition) error {
	for _, def := range defs {
		if err := r.registry.Register(def); err != nil {
			return err
		}
	}
	return nil
}

// MustRegister is Register for static wiring; it panics on error.
func (r *Runtime) MustRegister(defs ...*agent.Definition) {
	if err := r.Register(defs...); err != nil {
		panic(err)
	}
}

// Process runs one pipeline starting at the named agent and blocks for
// its terminal result.
func (r *Runtime) Process(ctx context.Context, agentName string, input types.DataMap) (*pipeline.Result, error) {
	def, err := r.registry.Resolve(agentName)
	if err != nil {
		return nil, err
	}
	return r.supervisor.Process(ctx, def, input)
}

// ProcessDef runs one pipeline starting at the given definition. The
// definition does not need to be registered unless it forwards by name.
func (r *Runtime) ProcessDef(ctx context.Context, def *agent.Definition, input types.DataMap) (*pipeline.Result, error) {
	return r.supervisor.Process(ctx, def, input)
}

// Start spawns a pipeline worker without waiting.
func (r *Runtime) Start(ctx context.Context, def *agent.Definition, input types.DataMap) *supervisor.Handle {
	return r.supervisor.Start(ctx, def, input)
}

// Registry exposes the runtime's agent registry.
func (r *Runtime) Registry() *agent.Registry { return r.registry }

// Config exposes the loaded configuration.
func (r *Runtime) Config() *config.Config { return r.cfg }

// Logger exposes the runtime logger.
func (r *Runtime) Logger() *zap.Logger { return r.logger }

// Close flushes pending trace spans and releases runtime resources.
func (r *Runtime) Close(ctx context.Context) error {
	return r.tracing.Shutdown(ctx)
}
