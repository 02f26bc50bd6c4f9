package agent

import (
	"context"

	"github.com/BaSui01/hiveflow/schema"
	"github.com/BaSui01/hiveflow/types"
)

// DefaultModel is used for LLM routing when no model is configured.
const DefaultModel = "gpt-4o-mini"

// HandleTask is the user task of an agent: given validated, default-merged
// input it returns the name of an outcome plus the output data, or an
// error. It must never be called with input that failed validation.
type HandleTask func(ctx context.Context, input types.DataMap) (string, types.DataMap, error)

// LLMRouting configures LLM-based outcome selection for an agent.
type LLMRouting struct {
	Model  string
	Prompt string
}

// Definition is the static description of one agent. Definitions are
// created at program start through a Builder and never mutated during
// execution, so they are safe for concurrent use.
type Definition struct {
	name         string
	inputSchema  *schema.Schema
	outputSchema *schema.Schema
	outcomes     []Outcome
	outcomeIdx   map[string]int
	handle       HandleTask
	llm          *LLMRouting
}

// Name returns the agent's stable identifier.
func (d *Definition) Name() string { return d.name }

// InputSchema returns the declared input schema.
func (d *Definition) InputSchema() *schema.Schema { return d.inputSchema }

// OutputSchema returns the declared output schema.
func (d *Definition) OutputSchema() *schema.Schema { return d.outputSchema }

// Outcomes returns the outcomes in declaration order.
func (d *Definition) Outcomes() []Outcome {
	out := make([]Outcome, len(d.outcomes))
	copy(out, d.outcomes)
	return out
}

// Outcome resolves an outcome by name.
func (d *Definition) Outcome(name string) (Outcome, bool) {
	i, ok := d.outcomeIdx[name]
	if !ok {
		return Outcome{}, false
	}
	return d.outcomes[i], true
}

// LLM returns the LLM routing configuration, or nil when the agent routes
// purely by its own code.
func (d *Definition) LLM() *LLMRouting { return d.llm }

// HandleTask invokes the agent's task handler.
func (d *Definition) HandleTask(ctx context.Context, input types.DataMap) (string, types.DataMap, error) {
	return d.handle(ctx, input)
}
