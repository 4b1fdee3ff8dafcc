package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
)

// Provider constants for LLM provider selection.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

const defaultMaxTokens = 256

// systemPrompt frames every instruction built by the context assembler.
const systemPrompt = "You write replies on behalf of an Instagram business account. " +
	"Answer with the reply text only, without quotes or commentary."

var (
	// ErrEmptyReply is returned when the provider answered with no usable text.
	ErrEmptyReply = errors.New("model returned an empty reply")

	ErrNotConfigured = errors.New("llm not configured")
)

// Config holds LLM client configuration.
type Config struct {
	Provider  string // "openai", "anthropic" or "gemini"
	APIKey    string // Required: API key for the provider
	BaseURL   string // Optional: custom API endpoint (OpenAI-compatible gateways)
	Model     string
	MaxTokens int
}

// ReplyGenerator turns a rendered instruction into reply text. Implementations
// are synchronous and safe for concurrent use.
type ReplyGenerator interface {
	Generate(ctx context.Context, instruction string) (string, error)
	Model() string
}

// NewReplyGenerator selects the adapter for cfg.Provider. OpenAI is the
// default, which also covers Gemini's OpenAI-compatible endpoint.
func NewReplyGenerator(ctx context.Context, cfg Config) (ReplyGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: API key is required", ErrNotConfigured)
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}

	provider := cfg.Provider
	if provider == "" {
		provider = ProviderOpenAI
	}

	switch provider {
	case ProviderOpenAI:
		return newOpenAIGenerator(cfg), nil
	case ProviderAnthropic:
		return newAnthropicGenerator(cfg), nil
	case ProviderGemini:
		return newGeminiGenerator(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", provider)
	}
}

// replyPayload is the structured output requested from providers that
// support JSON schema responses.
type replyPayload struct {
	Reply string `json:"reply" jsonschema:"description=The reply text to post"`
}

func GenerateSchema[T any]() any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

// normalizeReply trims surrounding whitespace and rejects empty output.
func normalizeReply(text string) (string, error) {
	reply := strings.TrimSpace(text)
	if reply == "" {
		return "", ErrEmptyReply
	}
	return reply, nil
}

type unavailableGenerator struct {
	reason error
}

// Unavailable returns a generator that fails every call with reason. It keeps
// the service accepting webhooks while the provider is misconfigured, with
// each event recorded as a generation failure.
func Unavailable(reason error) ReplyGenerator {
	return &unavailableGenerator{reason: reason}
}

func (g *unavailableGenerator) Generate(ctx context.Context, instruction string) (string, error) {
	return "", g.reason
}

func (g *unavailableGenerator) Model() string {
	return "unavailable"
}
