package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/BaSui01/hiveflow/agent"
	"github.com/BaSui01/hiveflow/config"
	"github.com/BaSui01/hiveflow/internal/metrics"
	"github.com/BaSui01/hiveflow/types"
)

// OutcomeRouter picks an outcome for an agent via an LLM. router.Router
// is the production implementation; tests substitute their own.
type OutcomeRouter interface {
	Decide(ctx context.Context, def *agent.Definition, data types.DataMap) (string, types.DataMap, error)
}

// Result is the terminal value of a pipeline run. Data always carries
// the pipeline ID.
type Result struct {
	Outcome string
	Data    types.DataMap
}

// Engine executes pipelines. It is immutable after New and safe for
// concurrent use; every Run drives one isolated worker loop.
type Engine struct {
	registry       *agent.Registry
	router         OutcomeRouter
	backoff        Backoff
	defaultRetries int
	logger         *zap.Logger
	collector      *metrics.Collector
	tracer         trace.Tracer
}

// Option configures an Engine.
type Option func(*Engine)

// WithRouter sets the LLM outcome router.
func WithRouter(r OutcomeRouter) Option {
	return func(e *Engine) { e.router = r }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithCollector sets the metrics collector.
func WithCollector(c *metrics.Collector) Option {
	return func(e *Engine) { e.collector = c }
}

// WithTracer sets the tracer agent invocation spans are recorded with;
// the default is the globally registered provider's tracer.
func WithTracer(tr trace.Tracer) Option {
	return func(e *Engine) {
		if tr != nil {
			e.tracer = tr
		}
	}
}

// New creates an engine over the given registry. cfg supplies the retry
// defaults; nil means framework defaults.
func New(registry *agent.Registry, cfg *config.RetryConfig, opts ...Option) *Engine {
	if registry == nil {
		registry = agent.NewRegistry()
	}
	if cfg == nil {
		c := config.DefaultRetryConfig()
		cfg = &c
	}
	e := &Engine{
		registry:       registry,
		backoff:        Backoff{Mode: cfg.Backoff, Base: cfg.BaseDelay},
		defaultRetries: cfg.DefaultAttempts,
		logger:         zap.NewNop(),
		tracer:         otel.Tracer("hiveflow/pipeline"),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With(zap.String("component", "pipeline"))
	return e
}

// Run executes one whole pipeline starting at def. It returns the
// terminal (outcome, data) pair, or an error when a fatal condition
// short-circuits the chain. The input map is never mutated.
func (e *Engine) Run(ctx context.Context, def *agent.Definition, input types.DataMap) (*Result, error) {
	start := time.Now()
	if input == nil {
		input = types.DataMap{}
	}
	data := input.Clone()

	pid, ok := data.PipelineID()
	if !ok {
		pid = nextPipelineID()
		data.SetPipelineID(pid)
	}

	if e.collector != nil {
		e.collector.RecordPipelineStarted()
	}
	logger := e.logger.With(zap.Int64("pipeline_id", pid))

	// Root span of the run: every agent span below is its child.
	ctx, span := e.tracer.Start(ctx, "pipeline", trace.WithAttributes(
		attribute.Int64("hiveflow.pipeline_id", pid),
	))
	defer span.End()

	current := def
	for {
		outcome, next, out, err := e.step(ctx, logger, current, data, pid)
		if err != nil {
			logger.Error("pipeline aborted",
				zap.String("agent", current.Name()),
				zap.Error(err))
			if e.collector != nil {
				e.collector.RecordPipelineCompleted("error", time.Since(start))
			}
			return nil, err
		}
		if next == nil {
			logger.Info("pipeline completed",
				zap.String("agent", current.Name()),
				zap.String("outcome", outcome))
			if e.collector != nil {
				e.collector.RecordPipelineCompleted(outcome, time.Since(start))
			}
			return &Result{Outcome: outcome, Data: out}, nil
		}
		current, data = next, out
	}
}

// step runs one agent invocation through validation, the user task, the
// optional LLM override, and routing resolution. It returns the next
// agent to enter (nil on a terminal outcome) together with the data to
// hand over.
func (e *Engine) step(
	ctx context.Context,
	logger *zap.Logger,
	cur *agent.Definition,
	data types.DataMap,
	pid int64,
) (string, *agent.Definition, types.DataMap, error) {
	agentStart := time.Now()
	logger.Info("agent starting", zap.String("agent", cur.Name()))

	ctx, span := e.tracer.Start(ctx, "agent."+cur.Name(), trace.WithAttributes(
		attribute.Int64("hiveflow.pipeline_id", pid),
		attribute.String("hiveflow.agent", cur.Name()),
	))
	defer span.End()

	// Validate input after default-merge.
	logger.Debug("phase", zap.String("agent", cur.Name()), zap.String("phase", string(PhaseValidatingInput)))
	merged := cur.InputSchema().MergeDefaults(data)
	if err := cur.InputSchema().Validate(merged); err != nil {
		return "", nil, nil, tagAgent(err, cur.Name())
	}

	// Run the user task.
	logger.Debug("phase", zap.String("agent", cur.Name()), zap.String("phase", string(PhaseRunning)))
	outcome, out, err := cur.HandleTask(ctx, merged)
	if err != nil {
		if _, ok := types.AsError(err); !ok {
			err = types.NewError(types.ErrUserTask, "handle task failed").WithCause(err)
		}
		return "", nil, nil, tagAgent(err, cur.Name())
	}
	if out == nil {
		out = types.DataMap{}
	}

	// Validate output.
	logger.Debug("phase", zap.String("agent", cur.Name()), zap.String("phase", string(PhaseValidatingOutput)))
	if err := cur.OutputSchema().Validate(out); err != nil {
		return "", nil, nil, tagAgent(err, cur.Name())
	}

	// Propagate pipeline context. The retry counter follows the data
	// unless the task wrote its own.
	out.SetPipelineID(pid)
	if _, present := out[types.KeyRetryAttempt]; !present {
		out.SetRetryAttempt(merged.RetryAttempt())
	}

	// LLM override. A router failure is non-fatal: keep the outcome
	// the task chose. The router records its own decision metrics.
	if cur.LLM() != nil && e.router != nil {
		logger.Debug("phase", zap.String("agent", cur.Name()), zap.String("phase", string(PhaseLLMRouting)))
		llmOutcome, llmData, rerr := e.router.Decide(ctx, cur, out)
		if rerr != nil {
			logger.Warn("llm routing failed, keeping task outcome",
				zap.String("agent", cur.Name()),
				zap.String("outcome", outcome),
				zap.Error(rerr))
		} else {
			outcome, out = llmOutcome, llmData
		}
	}

	// Resolve the routing rule by outcome name.
	logger.Debug("phase", zap.String("agent", cur.Name()), zap.String("phase", string(PhaseRouting)))
	oc, ok := cur.Outcome(outcome)
	if !ok {
		return "", nil, nil, types.NewError(types.ErrUnknownOutcome,
			fmt.Sprintf("agent %q resolved undeclared outcome %q", cur.Name(), outcome)).
			WithAgent(cur.Name())
	}

	if e.collector != nil {
		e.collector.RecordAgentExecution(cur.Name(), outcome, time.Since(agentStart))
	}

	switch route := oc.Route.(type) {
	case agent.Terminal:
		return outcome, nil, out, nil

	case agent.Forward:
		next, err := e.registry.Resolve(route.To)
		if err != nil {
			return "", nil, nil, tagAgent(err, cur.Name())
		}
		// The retry counter belongs to the agent being left behind.
		out.SetRetryAttempt(0)
		logger.Info("agent forwarding",
			zap.String("agent", cur.Name()),
			zap.String("outcome", outcome),
			zap.String("to", route.To))
		return outcome, next, out, nil

	case agent.Retry:
		max := route.MaxAttempts
		if max == 0 {
			max = e.defaultRetries
		}
		attempt := out.RetryAttempt() + 1
		if attempt > max {
			return "", nil, nil, types.NewError(types.ErrRetryExhausted,
				fmt.Sprintf("Max retry attempts (%d) exceeded", max)).
				WithAgent(cur.Name())
		}
		out.SetRetryAttempt(attempt)
		delay := e.backoff.Delay(attempt)
		logger.Info("agent retry attempt",
			zap.String("agent", cur.Name()),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", max),
			zap.Duration("delay", delay))
		if e.collector != nil {
			e.collector.RecordRetry(cur.Name())
		}
		if err := sleep(ctx, delay); err != nil {
			return "", nil, nil, types.WrapError(types.ErrTimeout, "retry backoff interrupted", err).
				WithAgent(cur.Name())
		}
		return outcome, cur, out, nil

	default:
		return "", nil, nil, types.NewError(types.ErrInvalidAgent,
			fmt.Sprintf("agent %q: outcome %q has no routing rule", cur.Name(), outcome)).
			WithAgent(cur.Name())
	}
}

func tagAgent(err error, name string) error {
	if e, ok := types.AsError(err); ok && e.Agent == "" {
		e.Agent = name
	}
	return err
}
