package llm

import (
	"context"
	"encoding/json"
	"time"

	"github.com/BaSui01/hiveflow/schema"
	"github.com/BaSui01/hiveflow/types"
)

// CompletionClient is the structured-output chat completion transport the
// engine consumes. Implementations must honor ResponseSchema: the content
// of the first choice is a JSON document matching it.
type CompletionClient interface {
	// ChatCompletion sends a synchronous chat request.
	ChatCompletion(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// Name returns the client's unique identifier.
	Name() string
}

// ResponseSchema declares the structured shape a completion must return.
type ResponseSchema struct {
	Name   string             `json:"name"`
	Strict bool               `json:"strict"`
	Schema *schema.JSONSchema `json:"schema"`
}

// ChatRequest represents a chat completion request.
type ChatRequest struct {
	TraceID        string          `json:"trace_id,omitempty"`
	Model          string          `json:"model"`
	Messages       []types.Message `json:"messages"`
	ResponseSchema *ResponseSchema `json:"response_schema,omitempty"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    float32         `json:"temperature,omitempty"`
	Timeout        time.Duration   `json:"timeout,omitempty"`
}

// ChatResponse represents a chat completion response.
type ChatResponse struct {
	ID        string    `json:"id,omitempty"`
	Provider  string    `json:"provider,omitempty"`
	Model     string    `json:"model"`
	Content   string    `json:"content"`
	Usage     Usage     `json:"usage"`
	CreatedAt time.Time `json:"created_at"`
}

// Usage carries token accounting for one completion.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Decode unmarshals the response content into out. Providers return the
// structured document in Content when a ResponseSchema was declared.
func (r *ChatResponse) Decode(out any) error {
	if err := json.Unmarshal([]byte(r.Content), out); err != nil {
		return types.WrapError(types.ErrUpstreamError, "response does not match declared schema", err)
	}
	return nil
}
