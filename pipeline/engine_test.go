package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/hiveflow/agent"
	"github.com/BaSui01/hiveflow/config"
	"github.com/BaSui01/hiveflow/schema"
	"github.com/BaSui01/hiveflow/types"
)

// fastRetry keeps sleep-dependent tests quick.
func fastRetry() *config.RetryConfig {
	return &config.RetryConfig{
		DefaultAttempts: 3,
		Backoff:         config.BackoffExponential,
		BaseDelay:       time.Millisecond,
	}
}

// buildGreeterRegistry wires the greeter pipeline: greeter forwards
// supported languages to formatter and terminates otherwise.
func buildGreeterRegistry(t *testing.T) (*agent.Registry, *agent.Definition) {
	t.Helper()

	greetings := map[string]string{"en": "Hello", "es": "¡Hola", "fr": "Bonjour"}

	greeter := agent.NewBuilder("greeter").
		Input(
			schema.Field{Name: "language", Type: schema.TypeString, Required: true},
			schema.Field{Name: "name", Type: schema.TypeString, Default: "friend"},
		).
		Outcome("supported_language", agent.ForwardTo("formatter")).
		Outcome("unsupported_language", agent.Terminate()).
		Handle(func(_ context.Context, in types.DataMap) (string, types.DataMap, error) {
			lang := in["language"].(string)
			greeting, ok := greetings[lang]
			if !ok {
				return "unsupported_language", types.DataMap{"unsupported_language": lang}, nil
			}
			return "supported_language", types.DataMap{
				"greeting": fmt.Sprintf("%s %s", greeting, in["name"]),
				"language": lang,
			}, nil
		}).
		MustBuild()

	formatter := agent.NewBuilder("formatter").
		Input(schema.Field{Name: "greeting", Type: schema.TypeString, Required: true}).
		Output(schema.Field{Name: "formatted_message", Type: schema.TypeString, Required: true}).
		Outcome("complete", agent.Terminate()).
		Handle(func(_ context.Context, in types.DataMap) (string, types.DataMap, error) {
			return "complete", types.DataMap{
				"formatted_message": strings.ToUpper(in["greeting"].(string)),
				"metadata":          map[string]any{"processed_at": time.Now().Unix()},
			}, nil
		}).
		MustBuild()

	reg := agent.NewRegistry()
	reg.MustRegister(greeter, formatter)
	return reg, greeter
}

func TestRun_GreeterSupportedLanguage(t *testing.T) {
	reg, greeter := buildGreeterRegistry(t)
	e := New(reg, fastRetry())

	res, err := e.Run(context.Background(), greeter, types.DataMap{"language": "es", "name": "Maria"})
	require.NoError(t, err)

	assert.Equal(t, "complete", res.Outcome)
	assert.Equal(t, "¡HOLA MARIA", res.Data["formatted_message"])

	id, ok := res.Data.PipelineID()
	assert.True(t, ok)
	assert.Positive(t, id)
}

func TestRun_GreeterUnsupportedLanguage(t *testing.T) {
	reg, greeter := buildGreeterRegistry(t)
	e := New(reg, fastRetry())

	res, err := e.Run(context.Background(), greeter, types.DataMap{"language": "de", "name": "Hans"})
	require.NoError(t, err)

	assert.Equal(t, "unsupported_language", res.Outcome)
	assert.Equal(t, "de", res.Data["unsupported_language"])
	_, ok := res.Data.PipelineID()
	assert.True(t, ok)
}

func TestRun_DefaultMergeVisibleToTask(t *testing.T) {
	reg, greeter := buildGreeterRegistry(t)
	e := New(reg, fastRetry())

	res, err := e.Run(context.Background(), greeter, types.DataMap{"language": "en"})
	require.NoError(t, err)
	assert.Equal(t, "HELLO FRIEND", res.Data["formatted_message"])
}

func TestRun_RequiredEnforcement(t *testing.T) {
	e := New(nil, fastRetry())

	called := false
	probe := agent.NewBuilder("probe").
		Input(schema.Field{Name: "language", Type: schema.TypeString, Required: true}).
		Outcome("done", agent.Terminate()).
		Handle(func(_ context.Context, in types.DataMap) (string, types.DataMap, error) {
			called = true
			return "done", in, nil
		}).
		MustBuild()

	_, err := e.Run(context.Background(), probe, types.DataMap{"name": "Maria"})
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrValidation))
	assert.False(t, called, "handle task must never see invalid input")
}

func TestRun_OutputValidation(t *testing.T) {
	bad := agent.NewBuilder("bad").
		Output(schema.Field{Name: "greeting", Type: schema.TypeString, Required: true}).
		Outcome("done", agent.Terminate()).
		Handle(func(_ context.Context, in types.DataMap) (string, types.DataMap, error) {
			return "done", types.DataMap{"greeting": 42}, nil
		}).
		MustBuild()

	e := New(nil, fastRetry())
	_, err := e.Run(context.Background(), bad, types.DataMap{})
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrValidation))
}

func TestRun_UserTaskError(t *testing.T) {
	boom := errors.New("downstream unavailable")
	failing := agent.NewBuilder("failing").
		Outcome("done", agent.Terminate()).
		Handle(func(_ context.Context, _ types.DataMap) (string, types.DataMap, error) {
			return "", nil, boom
		}).
		MustBuild()

	e := New(nil, fastRetry())
	_, err := e.Run(context.Background(), failing, types.DataMap{})
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrUserTask))
	assert.ErrorIs(t, err, boom)
}

func TestRun_UnknownOutcome(t *testing.T) {
	// The handler returns a name that was never declared; the engine
	// aborts rather than guessing.
	rogue := agent.NewBuilder("rogue").
		Outcome("comment_valid", agent.Terminate()).
		Handle(func(_ context.Context, in types.DataMap) (string, types.DataMap, error) {
			return "user_banned", in, nil
		}).
		MustBuild()

	e := New(nil, fastRetry())
	_, err := e.Run(context.Background(), rogue, types.DataMap{})
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrUnknownOutcome))
	assert.Contains(t, err.Error(), "user_banned")
}

func TestRun_ForwardTargetMissing(t *testing.T) {
	lost := agent.NewBuilder("lost").
		Outcome("next", agent.ForwardTo("nowhere")).
		Handle(func(_ context.Context, in types.DataMap) (string, types.DataMap, error) {
			return "next", in, nil
		}).
		MustBuild()

	e := New(agent.NewRegistry(), fastRetry())
	_, err := e.Run(context.Background(), lost, types.DataMap{})
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrAgentNotFound))
}

// retryAgent emits retry until succeedOn attempts have been observed.
func retryAgent(t *testing.T, name string, succeedOn int, maxAttempts int, invocations *int) *agent.Definition {
	t.Helper()
	return agent.NewBuilder(name).
		Outcome("retry", agent.RetrySelf(maxAttempts)).
		Outcome("success", agent.Terminate()).
		Handle(func(_ context.Context, in types.DataMap) (string, types.DataMap, error) {
			*invocations++
			if *invocations >= succeedOn {
				return "success", in.Clone(), nil
			}
			return "retry", in.Clone(), nil
		}).
		MustBuild()
}

func TestRun_RetryThenSuccess(t *testing.T) {
	invocations := 0
	def := retryAgent(t, "flaky", 3, 3, &invocations)

	cfg := &config.RetryConfig{
		DefaultAttempts: 3,
		Backoff:         config.BackoffExponential,
		BaseDelay:       10 * time.Millisecond,
	}
	e := New(nil, cfg)

	start := time.Now()
	res, err := e.Run(context.Background(), def, types.DataMap{})
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, "success", res.Outcome)
	assert.Equal(t, 3, invocations)

	// Exponential backoff: 10ms + 20ms before the third invocation.
	assert.GreaterOrEqual(t, elapsed, 30*time.Millisecond)

	// The retry counter is visible in the terminal data.
	assert.Equal(t, 2, res.Data.RetryAttempt())
}

func TestRun_RetryExhausted(t *testing.T) {
	invocations := 0
	def := retryAgent(t, "hopeless", 99, 2, &invocations)

	e := New(nil, fastRetry())
	_, err := e.Run(context.Background(), def, types.DataMap{})

	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrRetryExhausted))
	assert.Contains(t, err.Error(), "Max retry attempts (2) exceeded")
	// Initial invocation plus two retries.
	assert.Equal(t, 3, invocations)
}

func TestRun_RetryUsesFrameworkDefault(t *testing.T) {
	invocations := 0
	// MaxAttempts zero defers to the framework default of 2.
	def := retryAgent(t, "defaulted", 99, 0, &invocations)

	cfg := &config.RetryConfig{DefaultAttempts: 2, Backoff: config.BackoffLinear, BaseDelay: time.Millisecond}
	e := New(nil, cfg)

	_, err := e.Run(context.Background(), def, types.DataMap{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Max retry attempts (2) exceeded")
	assert.Equal(t, 3, invocations)
}

func TestRun_ForwardResetsRetryCounter(t *testing.T) {
	var observed int
	sink := agent.NewBuilder("sink").
		Outcome("done", agent.Terminate()).
		Handle(func(_ context.Context, in types.DataMap) (string, types.DataMap, error) {
			observed = in.RetryAttempt()
			return "done", in, nil
		}).
		MustBuild()

	invocations := 0
	hopper := agent.NewBuilder("hopper").
		Outcome("retry", agent.RetrySelf(3)).
		Outcome("next", agent.ForwardTo("sink")).
		Handle(func(_ context.Context, in types.DataMap) (string, types.DataMap, error) {
			invocations++
			if invocations < 3 {
				return "retry", in.Clone(), nil
			}
			return "next", in.Clone(), nil
		}).
		MustBuild()

	reg := agent.NewRegistry()
	reg.MustRegister(sink, hopper)

	e := New(reg, fastRetry())
	res, err := e.Run(context.Background(), hopper, types.DataMap{})
	require.NoError(t, err)
	assert.Equal(t, "done", res.Outcome)
	assert.Zero(t, observed, "retry counter must reset when entering another agent")
}

func TestRun_SelfForwardLoop(t *testing.T) {
	// Forward-to-self expresses retry-like patterns without the Retry
	// rule and without backoff.
	count := 0
	looper := agent.NewBuilder("looper").
		Outcome("again", agent.ForwardTo("looper")).
		Outcome("done", agent.Terminate()).
		Handle(func(_ context.Context, in types.DataMap) (string, types.DataMap, error) {
			count++
			if count < 5 {
				return "again", in.Clone(), nil
			}
			return "done", in.Clone(), nil
		}).
		MustBuild()

	reg := agent.NewRegistry()
	reg.MustRegister(looper)

	e := New(reg, fastRetry())
	res, err := e.Run(context.Background(), looper, types.DataMap{})
	require.NoError(t, err)
	assert.Equal(t, "done", res.Outcome)
	assert.Equal(t, 5, count)
}

func TestRun_PipelineIDPropagation(t *testing.T) {
	var idAtGreeter, idAtFormatter int64

	reg := agent.NewRegistry()
	first := agent.NewBuilder("first").
		Outcome("next", agent.ForwardTo("second")).
		Handle(func(_ context.Context, in types.DataMap) (string, types.DataMap, error) {
			idAtGreeter, _ = in.PipelineID()
			return "next", in.Clone(), nil
		}).
		MustBuild()
	second := agent.NewBuilder("second").
		Outcome("done", agent.Terminate()).
		Handle(func(_ context.Context, in types.DataMap) (string, types.DataMap, error) {
			idAtFormatter, _ = in.PipelineID()
			return "done", in.Clone(), nil
		}).
		MustBuild()
	reg.MustRegister(first, second)

	e := New(reg, fastRetry())
	res, err := e.Run(context.Background(), first, types.DataMap{})
	require.NoError(t, err)

	final, ok := res.Data.PipelineID()
	require.True(t, ok)
	assert.Equal(t, idAtGreeter, idAtFormatter)
	assert.Equal(t, idAtGreeter, final)
}

func TestRun_CallerContinuesPipeline(t *testing.T) {
	reg, greeter := buildGreeterRegistry(t)
	e := New(reg, fastRetry())

	input := types.DataMap{"language": "en", "name": "Ada"}
	input.SetPipelineID(777)

	res, err := e.Run(context.Background(), greeter, input)
	require.NoError(t, err)
	id, _ := res.Data.PipelineID()
	assert.Equal(t, int64(777), id)
}

func TestRun_ConcurrentPipelinesAreIsolated(t *testing.T) {
	reg, greeter := buildGreeterRegistry(t)
	e := New(reg, fastRetry())

	const n = 5
	names := []string{"Ada", "Grace", "Edsger", "Barbara", "Donald"}

	var wg sync.WaitGroup
	results := make([]*Result, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = e.Run(context.Background(),
				greeter, types.DataMap{"language": "en", "name": names[i]})
		}(i)
	}
	wg.Wait()

	ids := make(map[int64]bool, n)
	messages := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		id, ok := results[i].Data.PipelineID()
		require.True(t, ok)
		ids[id] = true
		messages[results[i].Data["formatted_message"].(string)] = true
	}
	assert.Len(t, ids, n, "pipeline IDs must be pairwise distinct")
	assert.Len(t, messages, n, "no cross-contamination between pipelines")
}

func TestRun_MonotonicIDs(t *testing.T) {
	reg, greeter := buildGreeterRegistry(t)
	e := New(reg, fastRetry())

	var prev int64
	for i := 0; i < 10; i++ {
		res, err := e.Run(context.Background(), greeter, types.DataMap{"language": "en"})
		require.NoError(t, err)
		id, _ := res.Data.PipelineID()
		assert.Greater(t, id, prev)
		prev = id
	}
}

func TestRun_ContextCancelDuringBackoff(t *testing.T) {
	invocations := 0
	def := retryAgent(t, "sleepy", 99, 5, &invocations)

	cfg := &config.RetryConfig{DefaultAttempts: 5, Backoff: config.BackoffLinear, BaseDelay: time.Hour}
	e := New(nil, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := e.Run(ctx, def, types.DataMap{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, invocations)
}

func TestRun_LoggingCarriesPipelineID(t *testing.T) {
	reg, greeter := buildGreeterRegistry(t)

	core, observed := observerCore()
	e := New(reg, fastRetry(), WithLogger(zap.New(core)))

	res, err := e.Run(context.Background(), greeter, types.DataMap{"language": "en"})
	require.NoError(t, err)
	id, _ := res.Data.PipelineID()

	entries := observed.All()
	require.NotEmpty(t, entries)
	var sawStart, sawForward, sawComplete bool
	for _, entry := range entries {
		fields := entry.ContextMap()
		if got, ok := fields["pipeline_id"]; ok {
			assert.EqualValues(t, id, got)
		}
		switch entry.Message {
		case "agent starting":
			sawStart = true
		case "agent forwarding":
			sawForward = true
		case "pipeline completed":
			sawComplete = true
		}
	}
	assert.True(t, sawStart)
	assert.True(t, sawForward)
	assert.True(t, sawComplete)
}
