// Package anthropic drives the Anthropic messages API. Structured replies
// are requested as a single forced tool call whose input is the JSON.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/galassia/internal/adapters/driven/llm/llmapi"
	"github.com/custodia-labs/galassia/internal/adapters/driven/llm/llmerr"
	"github.com/custodia-labs/galassia/internal/core/ports/driven"
)

var _ driven.LLMService = (*LLMService)(nil)

const (
	DefaultBaseURL   = "https://api.anthropic.com"
	DefaultModel     = "claude-3-5-sonnet-latest"
	DefaultTimeout   = 120 * time.Second
	DefaultMaxTokens = 1024

	anthropicVersion = "2023-06-01"
)

// Config configures the adapter. APIKey is required.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// LLMService is a driven.LLMService over /v1/messages.
type LLMService struct {
	api   *llmapi.Client
	model string
}

type messagesRequest struct {
	Model       string            `json:"model"`
	Messages    []messagesMessage `json:"messages"`
	MaxTokens   int               `json:"max_tokens"`
	System      string            `json:"system,omitempty"`
	Temperature float64           `json:"temperature"`
	StopSeqs    []string          `json:"stop_sequences,omitempty"`
	Tools       []tool            `json:"tools,omitempty"`
	ToolChoice  *toolChoice       `json:"tool_choice,omitempty"`
}

type messagesMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"input_schema"`
}

type toolChoice struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

type contentBlock struct {
	Type  string          `json:"type"`
	Text  string          `json:"text"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

type messagesResponse struct {
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
	Error      *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func NewLLMService(cfg Config) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("anthropic: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	api := llmapi.New(cfg.BaseURL, cfg.Timeout, llmerr.ForLLM("anthropic"),
		llmapi.WithHeader("x-api-key", cfg.APIKey),
		llmapi.WithHeader("anthropic-version", anthropicVersion),
	)
	return &LLMService{api: api, model: cfg.Model}, nil
}

func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	messages := []driven.ChatMessage{{Role: driven.RoleUser, Content: prompt}}
	return s.send(ctx, "", messages, driven.ChatOptions{
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	}, opts.StopWords)
}

// Chat lifts system messages into the request's system field.
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	var system []string
	var turns []driven.ChatMessage
	for _, msg := range messages {
		if msg.Role == driven.RoleSystem {
			system = append(system, msg.Content)
			continue
		}
		turns = append(turns, msg)
	}
	return s.send(ctx, strings.Join(system, "\n\n"), turns, opts, nil)
}

func (s *LLMService) send(
	ctx context.Context, system string, messages []driven.ChatMessage, opts driven.ChatOptions, stop []string,
) (string, error) {
	// max_tokens is mandatory on this API.
	maxTokens := opts.MaxTokens
	if maxTokens == 0 {
		maxTokens = DefaultMaxTokens
	}

	req := messagesRequest{
		Model:       s.model,
		Messages:    make([]messagesMessage, len(messages)),
		MaxTokens:   maxTokens,
		System:      system,
		Temperature: opts.Temperature,
		StopSeqs:    stop,
	}
	for i, msg := range messages {
		req.Messages[i] = messagesMessage{Role: msg.Role, Content: msg.Content}
	}
	if opts.Format != nil {
		req.Tools = []tool{{
			Name:        opts.Format.Name,
			Description: "Record the answer as structured data.",
			InputSchema: opts.Format.Schema,
		}}
		req.ToolChoice = &toolChoice{Type: "tool", Name: opts.Format.Name}
	}

	var resp messagesResponse
	if err := s.api.Post(ctx, "/v1/messages", req, &resp); err != nil {
		return "", err
	}
	if resp.Error != nil {
		return "", fmt.Errorf("anthropic error: %s", resp.Error.Message)
	}
	if len(resp.Content) == 0 {
		return "", errors.New("anthropic: no response content returned")
	}

	if opts.Format != nil {
		if input, ok := toolInput(resp.Content, opts.Format.Name); ok {
			return input, nil
		}
	}
	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return text.String(), nil
}

// toolInput finds the forced tool call. Models occasionally answer in text
// instead; the caller then gets the text and the judge decides.
func toolInput(blocks []contentBlock, name string) (string, bool) {
	for _, block := range blocks {
		if block.Type == "tool_use" && block.Name == name {
			return string(block.Input), true
		}
	}
	return "", false
}

func (s *LLMService) ModelName() string {
	return s.model
}

// Ping lists models, which checks the key without running inference.
func (s *LLMService) Ping(ctx context.Context) error {
	return s.api.Get(ctx, "/v1/models", nil)
}

func (s *LLMService) Close() error {
	return nil
}
