package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/custodia-labs/galassia/internal/core/domain"
	"github.com/custodia-labs/galassia/internal/core/ports/driven"
	"github.com/custodia-labs/galassia/internal/logger"
)

// Response formats for the closed judgment shapes.
var (
	binaryScoreFormat = &driven.ResponseFormat{
		Name: string(domain.ShapeBinaryScore),
		Schema: objectSchema(map[string]any{
			"binary_score": map[string]any{"type": "boolean"},
		}, "binary_score"),
	}

	routeFormat = &driven.ResponseFormat{
		Name: string(domain.ShapeRoute),
		Schema: objectSchema(map[string]any{
			"datasource": map[string]any{
				"type": "string",
				"enum": []string{string(domain.RouteVectorstore), string(domain.RouteWebsearch)},
			},
		}, "datasource"),
	}

	entityListFormat = &driven.ResponseFormat{
		Name: string(domain.ShapeEntityList),
		Schema: objectSchema(map[string]any{
			"entities": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		}, "entities"),
	}
)

// objectSchema builds a JSON Schema object with the given properties.
func objectSchema(properties map[string]any, required ...string) map[string]any {
	return map[string]any{
		"type":                 "object",
		"properties":           properties,
		"required":             required,
		"additionalProperties": false,
	}
}

// formatFor returns the response format for a judgment shape.
func formatFor(shape domain.JudgmentShape) (*driven.ResponseFormat, error) {
	switch shape {
	case domain.ShapeBinaryScore:
		return binaryScoreFormat, nil
	case domain.ShapeRoute:
		return routeFormat, nil
	case domain.ShapeEntityList:
		return entityListFormat, nil
	default:
		return nil, fmt.Errorf("%w: judgment shape %q", domain.ErrInvalidInput, shape)
	}
}

// StructuredJudge renders prompt templates, calls the LLM with a constrained
// output format and validates the payload against a closed shape.
// It never retries; callers own retry policy.
type StructuredJudge struct {
	llm      driven.LLMService
	prompts  driven.PromptStore
	cache    driven.JudgmentCache
	observer driven.WorkflowObserver
	timeout  time.Duration
}

// NewStructuredJudge creates a judge. A zero timeout uses domain.DefaultCallTimeout.
func NewStructuredJudge(llm driven.LLMService, prompts driven.PromptStore, timeout time.Duration) *StructuredJudge {
	if timeout <= 0 {
		timeout = domain.DefaultCallTimeout
	}
	return &StructuredJudge{
		llm:     llm,
		prompts: prompts,
		timeout: timeout,
	}
}

// SetCache enables memoisation of validated payloads.
func (j *StructuredJudge) SetCache(cache driven.JudgmentCache) {
	j.cache = cache
}

// SetObserver reports every structured call to an observer.
func (j *StructuredJudge) SetObserver(observer driven.WorkflowObserver) {
	j.observer = observer
}

// Judge asks for one of the closed judgment shapes.
func (j *StructuredJudge) Judge(
	ctx context.Context, prompt string, vars map[string]string, shape domain.JudgmentShape,
) (domain.Judgment, error) {
	format, err := formatFor(shape)
	if err != nil {
		return domain.Judgment{}, err
	}

	payload, err := j.structured(ctx, prompt, vars, format, func(raw string) error {
		_, err := decodeJudgment(raw, shape)
		return err
	})
	if err != nil {
		return domain.Judgment{}, err
	}

	judgment, err := decodeJudgment(payload, shape)
	if err != nil {
		return domain.Judgment{}, &domain.GenerationError{Kind: domain.GenerationNonConforming, Prompt: prompt, Err: err}
	}
	return judgment, nil
}

// Score is a convenience wrapper for binary judgments.
func (j *StructuredJudge) Score(ctx context.Context, prompt string, vars map[string]string) (bool, error) {
	judgment, err := j.Judge(ctx, prompt, vars, domain.ShapeBinaryScore)
	if err != nil {
		return false, err
	}
	return judgment.Score, nil
}

// Extract asks for a typed payload described by format and decodes it into out.
// Field-level validation is left to the caller.
func (j *StructuredJudge) Extract(
	ctx context.Context, prompt string, vars map[string]string, format *driven.ResponseFormat, out any,
) error {
	payload, err := j.structured(ctx, prompt, vars, format, func(raw string) error {
		return json.Unmarshal([]byte(raw), out)
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return &domain.GenerationError{Kind: domain.GenerationNonConforming, Prompt: prompt, Err: err}
	}
	return nil
}

// Generate produces free text from a prompt template.
func (j *StructuredJudge) Generate(ctx context.Context, prompt string, vars map[string]string) (string, error) {
	rendered, err := j.render(prompt, vars)
	if err != nil {
		return "", err
	}

	text, err := j.call(ctx, prompt, rendered, nil)
	j.observe(ctx, prompt, err)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// structured runs one constrained call with cache lookup. validate is applied
// to the raw payload before it is cached so only conforming payloads are stored.
func (j *StructuredJudge) structured(
	ctx context.Context,
	prompt string,
	vars map[string]string,
	format *driven.ResponseFormat,
	validate func(string) error,
) (string, error) {
	rendered, err := j.render(prompt, vars)
	if err != nil {
		return "", err
	}

	key := j.cacheKey(prompt, format.Name, rendered)
	if j.cache != nil {
		cached, ok, err := j.cache.Get(ctx, key)
		if err != nil {
			logger.FromContext(ctx).Warn("Judgment cache lookup failed: %v", err)
		} else if ok {
			logger.FromContext(ctx).Debug("Judgment cache hit for %s", prompt)
			return cached, nil
		}
	}

	raw, err := j.call(ctx, prompt, rendered, format)
	if err == nil {
		raw, err = extractJSONObject(raw)
		if err == nil {
			err = validate(raw)
		}
		if err != nil {
			err = &domain.GenerationError{Kind: domain.GenerationNonConforming, Prompt: prompt, Err: err}
		}
	}
	j.observe(ctx, prompt, err)
	if err != nil {
		return "", err
	}

	if j.cache != nil {
		if err := j.cache.Set(ctx, key, raw); err != nil {
			logger.FromContext(ctx).Warn("Judgment cache store failed: %v", err)
		}
	}
	return raw, nil
}

// call sends one chat request under the per-call timeout and classifies failures.
func (j *StructuredJudge) call(
	ctx context.Context, prompt, rendered string, format *driven.ResponseFormat,
) (string, error) {
	if j.llm == nil {
		return "", &domain.GenerationError{Kind: domain.GenerationUnreachable, Prompt: prompt, Err: domain.ErrLLMUnavailable}
	}

	callCtx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	messages := []driven.ChatMessage{{Role: driven.RoleUser, Content: rendered}}
	text, err := j.llm.Chat(callCtx, messages, driven.ChatOptions{Format: format})
	if err == nil {
		return text, nil
	}

	switch {
	case ctx.Err() != nil:
		return "", &domain.GenerationError{Kind: domain.GenerationUnreachable, Prompt: prompt, Err: ctx.Err()}
	case errors.Is(callCtx.Err(), context.DeadlineExceeded):
		return "", &domain.GenerationError{Kind: domain.GenerationTimeout, Prompt: prompt, Err: context.DeadlineExceeded}
	case errors.Is(err, domain.ErrUnavailable):
		return "", &domain.GenerationError{Kind: domain.GenerationUnreachable, Prompt: prompt, Err: err}
	default:
		return "", &domain.GenerationError{Kind: domain.GenerationNonConforming, Prompt: prompt, Err: err}
	}
}

// render loads a template and fills {name} placeholders.
func (j *StructuredJudge) render(prompt string, vars map[string]string) (string, error) {
	if j.prompts == nil {
		return "", fmt.Errorf("load prompt %q: no prompt store", prompt)
	}
	template, err := j.prompts.Load(prompt)
	if err != nil {
		return "", fmt.Errorf("load prompt %q: %w", prompt, err)
	}
	return interpolate(template, vars), nil
}

func (j *StructuredJudge) observe(ctx context.Context, prompt string, err error) {
	if j.observer != nil {
		j.observer.ObserveJudgment(prompt, err)
	}
	if err != nil {
		logger.FromContext(ctx).Warn("Structured call %s failed: %v", prompt, err)
	}
}

func (j *StructuredJudge) cacheKey(prompt, format, rendered string) string {
	model := ""
	if j.llm != nil {
		model = j.llm.ModelName()
	}
	sum := sha256.Sum256([]byte(model + "\x00" + prompt + "\x00" + format + "\x00" + rendered))
	return "judgment:" + hex.EncodeToString(sum[:])
}

// interpolate replaces {name} placeholders. Unknown placeholders are left as is.
func interpolate(template string, vars map[string]string) string {
	if len(vars) == 0 {
		return template
	}
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]string, 0, len(vars)*2)
	for _, name := range names {
		pairs = append(pairs, "{"+name+"}", vars[name])
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// extractJSONObject returns the outermost JSON object in raw, tolerating code fences.
func extractJSONObject(raw string) (string, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return "", fmt.Errorf("no JSON object in %q", truncate(raw, 80))
	}
	return raw[start : end+1], nil
}

// decodeJudgment validates a payload against a closed shape.
func decodeJudgment(raw string, shape domain.JudgmentShape) (domain.Judgment, error) {
	switch shape {
	case domain.ShapeBinaryScore:
		var payload struct {
			BinaryScore *bool `json:"binary_score"`
		}
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			return domain.Judgment{}, err
		}
		if payload.BinaryScore == nil {
			return domain.Judgment{}, errors.New("missing binary_score")
		}
		return domain.Judgment{Shape: shape, Score: *payload.BinaryScore}, nil

	case domain.ShapeRoute:
		var payload struct {
			Datasource domain.Route `json:"datasource"`
		}
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			return domain.Judgment{}, err
		}
		if !payload.Datasource.IsValid() {
			return domain.Judgment{}, fmt.Errorf("unknown datasource %q", payload.Datasource)
		}
		return domain.Judgment{Shape: shape, Route: payload.Datasource}, nil

	case domain.ShapeEntityList:
		var payload struct {
			Entities *[]string `json:"entities"`
		}
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			return domain.Judgment{}, err
		}
		if payload.Entities == nil {
			return domain.Judgment{}, errors.New("missing entities")
		}
		entities := make([]string, 0, len(*payload.Entities))
		for _, e := range *payload.Entities {
			if e = strings.TrimSpace(e); e != "" {
				entities = append(entities, e)
			}
		}
		return domain.Judgment{Shape: shape, Entities: entities}, nil

	default:
		return domain.Judgment{}, fmt.Errorf("unknown judgment shape %q", shape)
	}
}

// truncate keeps at most n bytes of s without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
