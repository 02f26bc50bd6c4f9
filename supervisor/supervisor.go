// Copyright (c) HiveFlow Authors.
// Licensed under the MIT License.

/*
Package supervisor 以 worker-per-pipeline 的方式隔离管线执行。

每个顶层 Process 调用生成一个独立 goroutine 作为 Worker;Worker 之间
不共享可变状态,一条管线 panic 只会让它自己的调用方收到
PIPELINE_CRASHED,不会波及其它管线。崩溃的 Worker 只被观察,不会重启。
*/
package supervisor

import (
	"context"
	"fmt"
	"runtime/debug"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/BaSui01/hiveflow/agent"
	"github.com/BaSui01/hiveflow/pipeline"
	"github.com/BaSui01/hiveflow/types"
)

// Supervisor spawns one isolated pipeline worker per Process call and
// reports its result or crash to the caller.
type Supervisor struct {
	engine        *pipeline.Engine
	logger        *zap.Logger
	sem           *semaphore.Weighted
	maxConcurrent int
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Supervisor) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMaxConcurrent bounds the number of pipelines running in parallel.
// Zero means unbounded.
func WithMaxConcurrent(n int) Option {
	return func(s *Supervisor) { s.maxConcurrent = n }
}

// New creates a supervisor over the given engine.
func New(engine *pipeline.Engine, opts ...Option) *Supervisor {
	s := &Supervisor{
		engine: engine,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(zap.String("component", "supervisor"))
	if s.maxConcurrent > 0 {
		s.sem = semaphore.NewWeighted(int64(s.maxConcurrent))
	}
	return s
}

// Handle is the caller's view of one running pipeline worker.
type Handle struct {
	done   chan struct{}
	result *pipeline.Result
	err    error
}

// Wait blocks until the worker finishes and returns its result, or the
// crash error when the worker died.
func (h *Handle) Wait() (*pipeline.Result, error) {
	<-h.done
	return h.result, h.err
}

// Done exposes the completion channel for select-based callers.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Start spawns a fresh worker for one pipeline run and returns without
// waiting. The worker is monitored: a panic is recovered and surfaced as
// PIPELINE_CRASHED on the handle instead of taking the process down.
func (s *Supervisor) Start(ctx context.Context, def *agent.Definition, input types.DataMap) *Handle {
	h := &Handle{done: make(chan struct{})}

	go func() {
		defer close(h.done)

		if s.sem != nil {
			if err := s.sem.Acquire(ctx, 1); err != nil {
				h.err = types.WrapError(types.ErrPipelineCrashed, "pipeline never started", err)
				return
			}
			defer s.sem.Release(1)
		}

		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("pipeline worker crashed",
					zap.String("agent", def.Name()),
					zap.Any("panic", r),
					zap.ByteString("stack", debug.Stack()))
				h.result = nil
				h.err = types.NewError(types.ErrPipelineCrashed,
					fmt.Sprintf("pipeline worker crashed: %v", r)).
					WithAgent(def.Name())
			}
		}()

		h.result, h.err = s.engine.Run(ctx, def, input)
	}()

	return h
}

// Process runs one pipeline to completion: it spawns a worker and waits
// for its terminal result or crash.
func (s *Supervisor) Process(ctx context.Context, def *agent.Definition, input types.DataMap) (*pipeline.Result, error) {
	return s.Start(ctx, def, input).Wait()
}
