// =============================================================================
// 🎭 MockCompletionClient - LLM 补全客户端模拟实现
// =============================================================================
// 用于测试的 CompletionClient 模拟,支持自定义路由决策和错误注入
//
// 使用方法:
//
//	client := mocks.NewMockCompletionClient().
//	    WithDecision("filter", "contains banned phrase")
//
//	// 或者注入传输错误
//	client := mocks.NewMockCompletionClient().
//	    WithError(errors.New("connection refused"))
// =============================================================================
package mocks

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/BaSui01/hiveflow/llm"
	"github.com/BaSui01/hiveflow/types"
)

// MockCompletionClient 是 CompletionClient 的模拟实现
type MockCompletionClient struct {
	mu sync.Mutex

	// 响应配置
	content string
	err     error

	// 调用记录
	calls          []MockCall
	completionFunc func(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error)

	// 行为控制
	delay     time.Duration
	failAfter int // 在第 N 次调用后开始失败(0 表示不启用)
	callCount int
}

// MockCall 记录单次调用
type MockCall struct {
	Request  *llm.ChatRequest
	Response *llm.ChatResponse
	Err      error
}

// NewMockCompletionClient 创建新的 MockCompletionClient
func NewMockCompletionClient() *MockCompletionClient {
	return &MockCompletionClient{
		content: `{"outcome":"done","reasoning":"mock decision"}`,
	}
}

// WithDecision 配置返回指定的路由决策
func (m *MockCompletionClient) WithDecision(outcome, reasoning string) *MockCompletionClient {
	raw, _ := json.Marshal(types.LLMDecision{Outcome: outcome, Reasoning: reasoning})
	m.content = string(raw)
	return m
}

// WithContent 配置原始响应内容
func (m *MockCompletionClient) WithContent(content string) *MockCompletionClient {
	m.content = content
	return m
}

// WithError 配置传输错误
func (m *MockCompletionClient) WithError(err error) *MockCompletionClient {
	m.err = err
	return m
}

// WithDelay 配置模拟延迟
func (m *MockCompletionClient) WithDelay(d time.Duration) *MockCompletionClient {
	m.delay = d
	return m
}

// WithFailAfter 配置在第 n 次调用后开始失败
func (m *MockCompletionClient) WithFailAfter(n int, err error) *MockCompletionClient {
	m.failAfter = n
	m.err = err
	return m
}

// WithCompletionFunc 完全自定义补全行为
func (m *MockCompletionClient) WithCompletionFunc(
	fn func(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error),
) *MockCompletionClient {
	m.completionFunc = fn
	return m
}

// Name 实现 CompletionClient.Name
func (m *MockCompletionClient) Name() string { return "mock" }

// ChatCompletion 实现 CompletionClient.ChatCompletion
func (m *MockCompletionClient) ChatCompletion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	m.mu.Lock()
	m.callCount++
	count := m.callCount
	fn := m.completionFunc
	m.mu.Unlock()

	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if fn != nil {
		resp, err := fn(ctx, req)
		m.record(req, resp, err)
		return resp, err
	}

	if m.err != nil && (m.failAfter == 0 || count > m.failAfter) {
		m.record(req, nil, m.err)
		return nil, m.err
	}

	resp := &llm.ChatResponse{
		ID:        "mock-completion",
		Provider:  "mock",
		Model:     req.Model,
		Content:   m.content,
		Usage:     llm.Usage{PromptTokens: 10, CompletionTokens: 20, TotalTokens: 30},
		CreatedAt: time.Now(),
	}
	m.record(req, resp, nil)
	return resp, nil
}

// Calls 返回全部调用记录
func (m *MockCompletionClient) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount 返回调用次数
func (m *MockCompletionClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Reset 清空调用记录与计数
func (m *MockCompletionClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
	m.callCount = 0
}

func (m *MockCompletionClient) record(req *llm.ChatRequest, resp *llm.ChatResponse, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{Request: req, Response: resp, Err: err})
}
