package agent

import (
	"errors"
	"fmt"

	"github.com/BaSui01/hiveflow/schema"
	"github.com/BaSui01/hiveflow/types"
)

// Builder 提供流式构建 Definition 的能力
// 校验推迟到 Build,链式调用过程中累积错误
type Builder struct {
	name     string
	input    []schema.Field
	output   []schema.Field
	outcomes []Outcome
	handle   HandleTask
	llm      *LLMRouting

	errors []error
}

// NewBuilder 创建 Definition 构建器
func NewBuilder(name string) *Builder {
	return &Builder{name: name}
}

// Input 声明输入字段
func (b *Builder) Input(fields ...schema.Field) *Builder {
	b.input = append(b.input, fields...)
	return b
}

// Output 声明输出字段
func (b *Builder) Output(fields ...schema.Field) *Builder {
	b.output = append(b.output, fields...)
	return b
}

// Outcome 按声明顺序追加一个 Outcome
func (b *Builder) Outcome(name string, route RoutingRule, description ...string) *Builder {
	o := Outcome{Name: name, Route: route}
	if len(description) > 0 {
		o.Description = description[0]
	}
	b.outcomes = append(b.outcomes, o)
	return b
}

// Handle 设置任务处理函数
func (b *Builder) Handle(fn HandleTask) *Builder {
	if fn == nil {
		b.errors = append(b.errors, fmt.Errorf("handle task cannot be nil"))
		return b
	}
	b.handle = fn
	return b
}

// WithLLMRouting 启用 LLM 路由,model 为空时使用 DefaultModel
func (b *Builder) WithLLMRouting(model, prompt string) *Builder {
	if model == "" {
		model = DefaultModel
	}
	b.llm = &LLMRouting{Model: model, Prompt: prompt}
	return b
}

// Build 完成构建并执行加载期校验
func (b *Builder) Build() (*Definition, error) {
	if b.name == "" {
		b.errors = append(b.errors, fmt.Errorf("agent name cannot be empty"))
	}
	if b.handle == nil {
		b.errors = append(b.errors, fmt.Errorf("agent %q: handle task is required", b.name))
	}
	if len(b.outcomes) == 0 {
		b.errors = append(b.errors, fmt.Errorf("agent %q: at least one outcome is required", b.name))
	}

	inputSchema, err := schema.New(b.input...)
	if err != nil {
		b.errors = append(b.errors, fmt.Errorf("agent %q: input schema: %w", b.name, err))
	}
	outputSchema, err := schema.New(b.output...)
	if err != nil {
		b.errors = append(b.errors, fmt.Errorf("agent %q: output schema: %w", b.name, err))
	}

	idx := make(map[string]int, len(b.outcomes))
	for i, o := range b.outcomes {
		if o.Name == "" {
			b.errors = append(b.errors, fmt.Errorf("agent %q: outcome with empty name", b.name))
			continue
		}
		if _, dup := idx[o.Name]; dup {
			b.errors = append(b.errors, fmt.Errorf("agent %q: duplicate outcome %q", b.name, o.Name))
			continue
		}
		switch r := o.Route.(type) {
		case Forward:
			if r.To == "" {
				b.errors = append(b.errors, fmt.Errorf("agent %q: outcome %q: forward target cannot be empty", b.name, o.Name))
			}
		case Retry:
			if r.MaxAttempts < 0 {
				b.errors = append(b.errors, fmt.Errorf("agent %q: outcome %q: max attempts cannot be negative", b.name, o.Name))
			}
		case Terminal:
		case nil:
			b.errors = append(b.errors, fmt.Errorf("agent %q: outcome %q: routing rule is required", b.name, o.Name))
		}
		idx[o.Name] = i
	}

	if len(b.errors) > 0 {
		return nil, types.NewError(types.ErrInvalidAgent, "agent definition invalid").
			WithAgent(b.name).
			WithCause(errors.Join(b.errors...))
	}

	outcomes := make([]Outcome, len(b.outcomes))
	copy(outcomes, b.outcomes)

	return &Definition{
		name:         b.name,
		inputSchema:  inputSchema,
		outputSchema: outputSchema,
		outcomes:     outcomes,
		outcomeIdx:   idx,
		handle:       b.handle,
		llm:          b.llm,
	}, nil
}

// MustBuild Build 的 panic 版本,用于静态声明
func (b *Builder) MustBuild() *Definition {
	def, err := b.Build()
	if err != nil {
		panic(err)
	}
	return def
}
