package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/genai"
)

type geminiGenerator struct {
	client    *genai.Client
	model     string
	maxTokens int
}

func newGeminiGenerator(ctx context.Context, cfg Config) (ReplyGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}

	return &geminiGenerator{
		client:    client,
		model:     model,
		maxTokens: cfg.MaxTokens,
	}, nil
}

func (g *geminiGenerator) Generate(ctx context.Context, instruction string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(instruction, genai.RoleUser),
	}

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		MaxOutputTokens:   int32(g.maxTokens),
	})
	if err != nil {
		return "", fmt.Errorf("genai generate content: %w", err)
	}

	attrs := []any{
		"provider", ProviderGemini,
		"model", g.model,
		"duration_ms", time.Since(start).Milliseconds(),
	}
	if resp.UsageMetadata != nil {
		attrs = append(attrs,
			"prompt_tokens", resp.UsageMetadata.PromptTokenCount,
			"completion_tokens", resp.UsageMetadata.CandidatesTokenCount)
	}
	slog.DebugContext(ctx, "llm reply generated", attrs...)

	return normalizeReply(resp.Text())
}

func (g *geminiGenerator) Model() string {
	return g.model
}
