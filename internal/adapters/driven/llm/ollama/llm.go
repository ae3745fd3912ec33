// Package ollama talks to a local Ollama server for chat and structured
// generation.
package ollama

import (
	"context"
	"time"

	"github.com/custodia-labs/galassia/internal/adapters/driven/llm/llmapi"
	"github.com/custodia-labs/galassia/internal/adapters/driven/llm/llmerr"
	"github.com/custodia-labs/galassia/internal/core/ports/driven"
)

var _ driven.LLMService = (*LLMService)(nil)

const (
	DefaultBaseURL    = "http://localhost:11434"
	DefaultLLMModel   = "llama3.2"
	DefaultLLMTimeout = 120 * time.Second

	// DefaultKeepAlive keeps the model loaded between the many short calls
	// of one workflow run.
	DefaultKeepAlive = "10m"
)

// LLMConfig configures the Ollama adapter. Zero fields take the defaults.
type LLMConfig struct {
	BaseURL   string
	Model     string
	Timeout   time.Duration
	KeepAlive string
}

// LLMService is a driven.LLMService backed by /api/chat and /api/generate.
type LLMService struct {
	api       *llmapi.Client
	model     string
	keepAlive string
}

type options struct {
	NumPredict  int      `json:"num_predict,omitempty"`
	Temperature float64  `json:"temperature"`
	Stop        []string `json:"stop,omitempty"`
}

type generateRequest struct {
	Model     string   `json:"model"`
	Prompt    string   `json:"prompt"`
	Stream    bool     `json:"stream"`
	KeepAlive string   `json:"keep_alive,omitempty"`
	Options   *options `json:"options,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// chatRequest carries a JSON schema in Format for structured outputs.
type chatRequest struct {
	Model     string         `json:"model"`
	Messages  []chatMessage  `json:"messages"`
	Stream    bool           `json:"stream"`
	KeepAlive string         `json:"keep_alive,omitempty"`
	Format    map[string]any `json:"format,omitempty"`
	Options   *options       `json:"options,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
}

func NewLLMService(cfg LLMConfig) *LLMService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}
	if cfg.KeepAlive == "" {
		cfg.KeepAlive = DefaultKeepAlive
	}

	return &LLMService{
		api:       llmapi.New(cfg.BaseURL, cfg.Timeout, llmerr.ForLLM("ollama")),
		model:     cfg.Model,
		keepAlive: cfg.KeepAlive,
	}
}

func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	req := generateRequest{
		Model:     s.model,
		Prompt:    prompt,
		KeepAlive: s.keepAlive,
		Options: &options{
			NumPredict:  opts.MaxTokens,
			Temperature: opts.Temperature,
			Stop:        opts.StopWords,
		},
	}

	var resp generateResponse
	if err := s.api.Post(ctx, "/api/generate", req, &resp); err != nil {
		return "", err
	}
	return resp.Response, nil
}

// Chat passes opts.Format to Ollama as the structured output schema.
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	req := chatRequest{
		Model:     s.model,
		Messages:  make([]chatMessage, len(messages)),
		KeepAlive: s.keepAlive,
		Options: &options{
			NumPredict:  opts.MaxTokens,
			Temperature: opts.Temperature,
		},
	}
	for i, msg := range messages {
		req.Messages[i] = chatMessage{Role: msg.Role, Content: msg.Content}
	}
	if opts.Format != nil {
		req.Format = opts.Format.Schema
	}

	var resp chatResponse
	if err := s.api.Post(ctx, "/api/chat", req, &resp); err != nil {
		return "", err
	}
	return resp.Message.Content, nil
}

func (s *LLMService) ModelName() string {
	return s.model
}

// Ping lists the installed models, which needs no inference.
func (s *LLMService) Ping(ctx context.Context) error {
	return s.api.Get(ctx, "/api/tags", nil)
}

func (s *LLMService) Close() error {
	return nil
}
