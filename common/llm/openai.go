package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type openaiGenerator struct {
	client    openai.Client
	model     string
	maxTokens int
	schema    any
}

func newOpenAIGenerator(cfg Config) ReplyGenerator {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	return &openaiGenerator{
		client:    openai.NewClient(opts...),
		model:     model,
		maxTokens: cfg.MaxTokens,
		schema:    GenerateSchema[replyPayload](),
	}
}

func (g *openaiGenerator) Generate(ctx context.Context, instruction string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: g.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(instruction),
		},
		MaxTokens: openai.Int(int64(g.maxTokens)),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        "reply",
					Description: openai.String("Reply to post back to the user"),
					Schema:      g.schema,
					Strict:      openai.Bool(true),
				},
			},
		},
	}

	start := time.Now()
	resp, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai chat: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	slog.DebugContext(ctx, "llm reply generated",
		"provider", ProviderOpenAI,
		"model", g.model,
		"duration_ms", time.Since(start).Milliseconds(),
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		"finish_reason", resp.Choices[0].FinishReason)

	return parseStructuredReply(resp.Choices[0].Message.Content)
}

func (g *openaiGenerator) Model() string {
	return g.model
}

// parseStructuredReply reads the reply field of a JSON schema response.
// Gateways that ignore response_format return plain text, which is used as is.
func parseStructuredReply(content string) (string, error) {
	var payload replyPayload
	if err := json.Unmarshal([]byte(content), &payload); err == nil {
		return normalizeReply(payload.Reply)
	}
	return normalizeReply(content)
}
