package lib

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// TokenUsage is the token accounting reported by one LLM response.
type TokenUsage struct {
	Model            string    `json:"model"`
	PromptTokens     int       `json:"promptTokens"`
	CompletionTokens int       `json:"completionTokens"`
	TotalTokens      int       `json:"totalTokens"`
	Timestamp        time.Time `json:"timestamp"`
}

func (u *TokenUsage) add(other TokenUsage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}

// UsageTracker accumulates token usage per model from LLM responses.
// It understands the OpenAI, Gemini and Ollama response shapes.
type UsageTracker struct {
	logger  *zerolog.Logger
	mu      sync.RWMutex
	byModel map[string]TokenUsage
}

func NewUsageTracker(logger *zerolog.Logger) *UsageTracker {
	return &UsageTracker{
		logger:  logger,
		byModel: make(map[string]TokenUsage),
	}
}

// usageEnvelope covers the usage fields of every supported provider.
type usageEnvelope struct {
	Model string `json:"model"`

	// Docs: https://platform.openai.com/docs/api-reference/chat/object#chat/object-usage
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`

	// Docs: https://ai.google.dev/api/generate-content#UsageMetadata
	ModelVersion  string `json:"modelVersion"`
	UsageMetadata *struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`

	// Docs: https://github.com/ollama/ollama/blob/main/docs/api.md#generate-a-completion
	PromptEvalCount int `json:"prompt_eval_count"`
	EvalCount       int `json:"eval_count"`
}

// TrackUsage extracts the usage block from resp. The body is read and then
// replaced, so the caller can still consume it.
// It returns nil when the response carries no usage information.
func (ut *UsageTracker) TrackUsage(resp *http.Response) (*TokenUsage, error) {
	if resp == nil || resp.Body == nil {
		return nil, fmt.Errorf("response or response body is nil")
	}
	if !strings.Contains(resp.Header.Get("Content-Type"), "json") {
		return nil, nil
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	var envelope usageEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("parse response usage: %w", err)
	}

	usage, ok := envelope.tokenUsage()
	if !ok {
		return nil, nil
	}
	usage.Timestamp = time.Now()

	ut.mu.Lock()
	total := ut.byModel[usage.Model]
	total.Model = usage.Model
	total.add(usage)
	ut.byModel[usage.Model] = total
	ut.mu.Unlock()

	ut.logger.Info().
		Str("model", usage.Model).
		Int("prompt_tokens", usage.PromptTokens).
		Int("completion_tokens", usage.CompletionTokens).
		Int("total_tokens", usage.TotalTokens).
		Msg("LLM usage tracked")

	return &usage, nil
}

func (e usageEnvelope) tokenUsage() (TokenUsage, bool) {
	switch {
	case e.Usage != nil:
		return TokenUsage{
			Model:            e.Model,
			PromptTokens:     e.Usage.PromptTokens,
			CompletionTokens: e.Usage.CompletionTokens,
			TotalTokens:      e.Usage.TotalTokens,
		}, true
	case e.UsageMetadata != nil:
		return TokenUsage{
			Model:            e.ModelVersion,
			PromptTokens:     e.UsageMetadata.PromptTokenCount,
			CompletionTokens: e.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      e.UsageMetadata.TotalTokenCount,
		}, true
	case e.PromptEvalCount > 0 || e.EvalCount > 0:
		return TokenUsage{
			Model:            e.Model,
			PromptTokens:     e.PromptEvalCount,
			CompletionTokens: e.EvalCount,
			TotalTokens:      e.PromptEvalCount + e.EvalCount,
		}, true
	default:
		return TokenUsage{}, false
	}
}

// TotalUsage sums usage over every model.
func (ut *UsageTracker) TotalUsage() TokenUsage {
	ut.mu.RLock()
	defer ut.mu.RUnlock()

	var total TokenUsage
	for _, u := range ut.byModel {
		total.add(u)
	}
	return total
}

func (ut *UsageTracker) UsageByModel() map[string]TokenUsage {
	ut.mu.RLock()
	defer ut.mu.RUnlock()

	out := make(map[string]TokenUsage, len(ut.byModel))
	for k, v := range ut.byModel {
		out[k] = v
	}
	return out
}
