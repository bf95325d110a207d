package matchpipe

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// DefaultAnthropicModel is the model used when AnthropicAnalyzer.Model is
// left unset.
const DefaultAnthropicModel = "claude-sonnet-4-5-20250929"

// AnthropicAnalyzer is a concrete Analyzer backed by the Anthropic Messages
// API. The video reference is passed as a content block naming
// the cache handle or file URI; the actual multimodal ingestion mechanism
// is a collaborator out of scope for this pipeline; this adapter only
// shapes the request and unwraps the response text.
type AnthropicAnalyzer struct {
	client anthropic.Client
	Model  string
}

// NewAnthropicAnalyzer creates an AnthropicAnalyzer using the given API key.
// An empty apiKey falls back to the client's default environment lookup.
func NewAnthropicAnalyzer(apiKey string) *AnthropicAnalyzer {
	var opts []option.RequestOption
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	return &AnthropicAnalyzer{
		client: anthropic.NewClient(opts...),
		Model:  DefaultAnthropicModel,
	}
}

// Analyze sends the prompt and video reference to the model and returns its
// text response for schema validation.
func (a *AnthropicAnalyzer) Analyze(ctx context.Context, ref VideoReference, prompt string) ([]byte, error) {
	if !ref.Valid() {
		return nil, ErrNoVideoReference
	}

	videoNote := ref.CacheHandle
	if videoNote == "" {
		videoNote = ref.FileURI
	}

	model := a.Model
	if model == "" {
		model = DefaultAnthropicModel
	}

	userMsg := fmt.Sprintf("Video reference: %s\n\n%s", videoNote, prompt)

	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: 4096,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userMsg)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic analyze call: %w", err)
	}

	return extractAnalyzerText(msg)
}

// extractAnalyzerText unwraps a Messages API response into the raw text
// handed to schema validation, or the distinct error kind the response
// signals. Split out from Analyze so the classification can be
// exercised directly against a constructed anthropic.Message without a live
// API call.
func extractAnalyzerText(msg *anthropic.Message) ([]byte, error) {
	if msg.StopReason == anthropic.StopReasonRefusal {
		return nil, ErrSafetyBlocked
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	if text == "" {
		return nil, ErrEmptyResponse
	}

	return []byte(text), nil
}
