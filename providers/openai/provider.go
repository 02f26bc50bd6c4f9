// Package openai implements the CompletionClient against any
// OpenAI-compatible chat completion endpoint.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/BaSui01/hiveflow/config"
	"github.com/BaSui01/hiveflow/llm"
	"github.com/BaSui01/hiveflow/schema"
	"github.com/BaSui01/hiveflow/types"
)

// Client implements llm.CompletionClient over the OpenAI-compatible
// chat completions API, using response_format json_schema for the
// declared response shape.
type Client struct {
	cfg     config.LLMConfig
	client  *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// New creates a client from the LLM transport configuration.
func New(cfg config.LLMConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return &Client{
		cfg:     cfg,
		client:  &http.Client{Timeout: timeout},
		limiter: limiter,
		logger:  logger.With(zap.String("component", "openai_client")),
	}
}

func (c *Client) Name() string { return "openai" }

// OpenAI-compatible wire types.
type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content,omitempty"`
}

type openAIResponseFormat struct {
	Type       string           `json:"type"`
	JSONSchema openAIJSONSchema `json:"json_schema"`
}

type openAIJSONSchema struct {
	Name   string             `json:"name"`
	Strict bool               `json:"strict"`
	Schema *schema.JSONSchema `json:"schema"`
}

type openAIRequest struct {
	Model          string                `json:"model"`
	Messages       []openAIMessage       `json:"messages"`
	MaxTokens      int                   `json:"max_tokens,omitempty"`
	Temperature    float32               `json:"temperature,omitempty"`
	ResponseFormat *openAIResponseFormat `json:"response_format,omitempty"`
}

type openAIChoice struct {
	Index        int           `json:"index"`
	FinishReason string        `json:"finish_reason"`
	Message      openAIMessage `json:"message"`
}

type openAIUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type openAIResponse struct {
	ID      string         `json:"id"`
	Model   string         `json:"model"`
	Choices []openAIChoice `json:"choices"`
	Usage   *openAIUsage   `json:"usage,omitempty"`
	Created int64          `json:"created,omitempty"`
}

type openAIErrorResp struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error"`
}

// ChatCompletion implements llm.CompletionClient.
func (c *Client) ChatCompletion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, types.WrapError(types.ErrRateLimited, "client-side rate limit", err)
		}
	}

	model := req.Model
	if model == "" {
		model = c.cfg.Model
	}

	body := openAIRequest{
		Model:       model,
		Messages:    convertMessages(req.Messages),
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	if req.ResponseSchema != nil {
		body.ResponseFormat = &openAIResponseFormat{
			Type: "json_schema",
			JSONSchema: openAIJSONSchema{
				Name:   req.ResponseSchema.Name,
				Strict: req.ResponseSchema.Strict,
				Schema: req.ResponseSchema.Schema,
			},
		}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, types.WrapError(types.ErrInvalidRequest, "marshal request", err)
	}

	endpoint := fmt.Sprintf("%s/chat/completions", strings.TrimRight(c.cfg.BaseURL, "/"))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, types.WrapError(types.ErrInvalidRequest, "build request", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")
	if req.TraceID != "" {
		httpReq.Header.Set("X-Trace-Id", req.TraceID)
	}

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, types.WrapError(types.ErrUpstreamError, "chat completion request failed", err).
			WithRetryable(true)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, types.WrapError(types.ErrUpstreamError, "read response body", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, mapError(resp.StatusCode, readErrMsg(raw))
	}

	var parsed openAIResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, types.WrapError(types.ErrUpstreamError, "decode response", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, types.NewError(types.ErrUpstreamError, "response contains no choices")
	}

	c.logger.Debug("chat completion",
		zap.String("model", model),
		zap.String("trace_id", req.TraceID),
		zap.Duration("latency", time.Since(start)),
		zap.Int("status", resp.StatusCode))

	out := &llm.ChatResponse{
		ID:        parsed.ID,
		Provider:  c.Name(),
		Model:     parsed.Model,
		Content:   parsed.Choices[0].Message.Content,
		CreatedAt: time.Unix(parsed.Created, 0),
	}
	if parsed.Usage != nil {
		out.Usage = llm.Usage{
			PromptTokens:     parsed.Usage.PromptTokens,
			CompletionTokens: parsed.Usage.CompletionTokens,
			TotalTokens:      parsed.Usage.TotalTokens,
		}
	}
	return out, nil
}

func convertMessages(msgs []types.Message) []openAIMessage {
	out := make([]openAIMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, openAIMessage{Role: string(m.Role), Content: m.Content})
	}
	return out
}

func readErrMsg(raw []byte) string {
	var parsed openAIErrorResp
	if err := json.Unmarshal(raw, &parsed); err == nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	msg := strings.TrimSpace(string(raw))
	if len(msg) > 512 {
		msg = msg[:512]
	}
	return msg
}

func mapError(status int, msg string) *types.Error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return types.NewError(types.ErrAuthentication, msg)
	case http.StatusTooManyRequests:
		return types.NewError(types.ErrRateLimited, msg).WithRetryable(true)
	case http.StatusNotFound:
		return types.NewError(types.ErrModelNotFound, msg)
	case http.StatusBadRequest:
		return types.NewError(types.ErrInvalidRequest, msg)
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return types.NewError(types.ErrServiceUnavailable, msg).WithRetryable(true)
	default:
		e := types.NewError(types.ErrUpstreamError, msg)
		if status >= 500 {
			e.WithRetryable(true)
		}
		return e
	}
}
