package supervisor

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/hiveflow/agent"
	"github.com/BaSui01/hiveflow/config"
	"github.com/BaSui01/hiveflow/pipeline"
	"github.com/BaSui01/hiveflow/types"
)

func testEngine() *pipeline.Engine {
	cfg := &config.RetryConfig{
		DefaultAttempts: 3,
		Backoff:         config.BackoffExponential,
		BaseDelay:       time.Millisecond,
	}
	return pipeline.New(nil, cfg)
}

func echoAgent(name string) *agent.Definition {
	return agent.NewBuilder(name).
		Outcome("done", agent.Terminate()).
		Handle(func(_ context.Context, in types.DataMap) (string, types.DataMap, error) {
			out := in.Clone()
			out["echoed_by"] = name
			return "done", out, nil
		}).
		MustBuild()
}

func panicAgent(name string) *agent.Definition {
	return agent.NewBuilder(name).
		Outcome("done", agent.Terminate()).
		Handle(func(_ context.Context, _ types.DataMap) (string, types.DataMap, error) {
			panic("user code exploded")
		}).
		MustBuild()
}

func TestProcess_ReturnsWorkerResult(t *testing.T) {
	s := New(testEngine())

	res, err := s.Process(context.Background(), echoAgent("echo"), types.DataMap{"x": 1})
	require.NoError(t, err)
	assert.Equal(t, "done", res.Outcome)
	assert.Equal(t, "echo", res.Data["echoed_by"])
	_, ok := res.Data.PipelineID()
	assert.True(t, ok)
}

func TestProcess_CrashIsolation(t *testing.T) {
	s := New(testEngine())

	// The crashing worker reports PIPELINE_CRASHED to its own caller...
	_, err := s.Process(context.Background(), panicAgent("bomb"), types.DataMap{})
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrPipelineCrashed))
	assert.Contains(t, err.Error(), "user code exploded")

	// ...and the supervisor keeps serving other pipelines.
	res, err := s.Process(context.Background(), echoAgent("echo"), types.DataMap{})
	require.NoError(t, err)
	assert.Equal(t, "done", res.Outcome)
}

func TestStart_ConcurrentCrashDoesNotDisturbSiblings(t *testing.T) {
	s := New(testEngine())

	bomb := s.Start(context.Background(), panicAgent("bomb"), types.DataMap{})

	const n = 5
	handles := make([]*Handle, n)
	for i := 0; i < n; i++ {
		handles[i] = s.Start(context.Background(), echoAgent("echo"), types.DataMap{"i": i})
	}

	_, err := bomb.Wait()
	assert.True(t, types.IsErrorCode(err, types.ErrPipelineCrashed))

	ids := make(map[int64]bool, n)
	for _, h := range handles {
		res, err := h.Wait()
		require.NoError(t, err)
		id, ok := res.Data.PipelineID()
		require.True(t, ok)
		ids[id] = true
	}
	assert.Len(t, ids, n, "each worker gets its own pipeline ID")
}

func TestStart_HandleDoneChannel(t *testing.T) {
	s := New(testEngine())
	h := s.Start(context.Background(), echoAgent("echo"), types.DataMap{})

	select {
	case <-h.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not finish")
	}
	res, err := h.Wait()
	require.NoError(t, err)
	assert.Equal(t, "done", res.Outcome)
}

func TestMaxConcurrent_BoundsParallelism(t *testing.T) {
	var active, peak atomic.Int32

	gate := agent.NewBuilder("gate").
		Outcome("done", agent.Terminate()).
		Handle(func(_ context.Context, in types.DataMap) (string, types.DataMap, error) {
			cur := active.Add(1)
			for {
				p := peak.Load()
				if cur <= p || peak.CompareAndSwap(p, cur) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			active.Add(-1)
			return "done", in, nil
		}).
		MustBuild()

	s := New(testEngine(), WithMaxConcurrent(2))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Process(context.Background(), gate, types.DataMap{})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestStart_ContextCanceledBeforeSlot(t *testing.T) {
	s := New(testEngine(), WithMaxConcurrent(1))

	blocker := agent.NewBuilder("blocker").
		Outcome("done", agent.Terminate()).
		Handle(func(ctx context.Context, in types.DataMap) (string, types.DataMap, error) {
			time.Sleep(100 * time.Millisecond)
			return "done", in, nil
		}).
		MustBuild()

	first := s.Start(context.Background(), blocker, types.DataMap{})
	// Let the first worker claim the only slot before contending.
	time.Sleep(30 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	second := s.Start(ctx, echoAgent("echo"), types.DataMap{})

	_, err := second.Wait()
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrPipelineCrashed))

	_, err = first.Wait()
	require.NoError(t, err)
}
