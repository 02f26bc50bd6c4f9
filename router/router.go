package router

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/hiveflow/agent"
	"github.com/BaSui01/hiveflow/internal/metrics"
	"github.com/BaSui01/hiveflow/llm"
	"github.com/BaSui01/hiveflow/schema"
	"github.com/BaSui01/hiveflow/types"
)

// decisionSchema is the declared response shape for routing completions.
var decisionSchema = &llm.ResponseSchema{
	Name:   "llm_decision",
	Strict: true,
	Schema: &schema.JSONSchema{
		Type: "object",
		Properties: map[string]*schema.JSONSchema{
			"outcome":   {Type: "string", Description: "the chosen outcome name"},
			"reasoning": {Type: "string", Description: "why this outcome was chosen"},
			"next_step": {Type: "string", Description: "optional note on what should happen next"},
		},
		Required: []string{"outcome", "reasoning"},
	},
}

// Router asks an LLM to pick one of an agent's declared outcomes.
type Router struct {
	client    llm.CompletionClient
	logger    *zap.Logger
	collector *metrics.Collector
}

// Option configures a Router.
type Option func(*Router)

// WithCollector records per-decision metrics (status, latency, prompt
// token estimate) on the given collector.
func WithCollector(c *metrics.Collector) Option {
	return func(r *Router) { r.collector = c }
}

// New creates a router backed by the given completion client.
func New(client llm.CompletionClient, logger *zap.Logger, opts ...Option) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Router{
		client: client,
		logger: logger.With(zap.String("component", "llm_router")),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Decide asks the configured model to choose one of def's outcomes given
// the agent's current output data. On success it returns the matched
// outcome name and a copy of data with llm_reasoning added; data itself
// is never mutated. A transport failure or an undeclared outcome name in
// the reply yields an error; the caller decides whether that is fatal.
func (r *Router) Decide(ctx context.Context, def *agent.Definition, data types.DataMap) (string, types.DataMap, error) {
	cfg := def.LLM()
	if cfg == nil {
		return "", nil, types.NewError(types.ErrLLMRouter, "agent has no llm routing config").
			WithAgent(def.Name())
	}

	model := cfg.Model
	if model == "" {
		model = agent.DefaultModel
	}

	prompt := buildPrompt(cfg.Prompt, def.Outcomes(), data)
	promptTokens := countTokens(model, prompt)
	req := &llm.ChatRequest{
		TraceID:        uuid.NewString(),
		Model:          model,
		Messages:       []types.Message{types.NewUserMessage(prompt)},
		ResponseSchema: decisionSchema,
	}

	r.logger.Debug("requesting routing decision",
		zap.String("agent", def.Name()),
		zap.String("model", model),
		zap.String("trace_id", req.TraceID),
		zap.Int("prompt_tokens_estimate", promptTokens))

	start := time.Now()
	resp, err := r.client.ChatCompletion(ctx, req)
	if err != nil {
		r.record(def.Name(), "error", start, promptTokens)
		return "", nil, err
	}

	var decision types.LLMDecision
	if err := resp.Decode(&decision); err != nil {
		r.record(def.Name(), "error", start, promptTokens)
		return "", nil, types.NewError(types.ErrLLMRouter, "malformed routing decision").
			WithAgent(def.Name()).
			WithCause(err)
	}

	// Exact match only: case or whitespace variance is a router error,
	// never silently corrected.
	if _, ok := def.Outcome(decision.Outcome); !ok {
		r.record(def.Name(), "error", start, promptTokens)
		return "", nil, types.NewError(types.ErrLLMRouter,
			fmt.Sprintf("llm returned undeclared outcome %q", decision.Outcome)).
			WithAgent(def.Name())
	}

	out := data.Clone()
	out[types.KeyLLMReasoning] = decision.Reasoning

	r.record(def.Name(), "ok", start, promptTokens)
	r.logger.Debug("routing decision accepted",
		zap.String("agent", def.Name()),
		zap.String("outcome", decision.Outcome),
		zap.String("trace_id", req.TraceID))

	return decision.Outcome, out, nil
}

func (r *Router) record(agentName, status string, start time.Time, promptTokens int) {
	if r.collector != nil {
		r.collector.RecordLLMRouterRequest(agentName, status, time.Since(start), promptTokens)
	}
}

// buildPrompt assembles the routing prompt: the agent's configured prompt,
// the declared outcomes one per line with their descriptions, a dump of
// the current data, and the exact-name constraint clause.
func buildPrompt(base string, outcomes []agent.Outcome, data types.DataMap) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(base))
	b.WriteString("\n\nPossible outcomes:\n")
	names := make([]string, 0, len(outcomes))
	for _, o := range outcomes {
		names = append(names, o.Name)
		if o.Description != "" {
			fmt.Fprintf(&b, "- %s: %s\n", o.Name, o.Description)
		} else {
			fmt.Fprintf(&b, "- %s\n", o.Name)
		}
	}
	b.WriteString("\nCurrent data:\n")
	b.WriteString(dumpData(data))
	fmt.Fprintf(&b,
		"\n\nRespond with the outcome field set to exactly one of: %s. Do not invent new outcome names.",
		strings.Join(names, ", "))
	return b.String()
}

func dumpData(data types.DataMap) string {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(raw)
}
