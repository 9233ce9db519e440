package llm

import (
	"context"
	"fmt"
	"strings"
)

// ProviderOpenAI is the only generation provider.
const ProviderOpenAI = "openai"

// BaseInstruction opens every generated system prompt. It ranks document
// context above web search results and general knowledge.
const BaseInstruction = "CRITICAL INSTRUCTION: You have access to 'Document Context' (from uploaded files) and 'Web Search Results'.\n" +
	"1. The 'Document Context' is your PRIMARY source of truth. It contains specific private information.\n" +
	"2. ALWAYS prioritize facts from 'Document Context' over 'Web Search Results' or general knowledge.\n" +
	"3. Only use 'Web Search Results' to answer questions NOT covered by the 'Document Context'.\n" +
	"4. If the 'Document Context' answers the query, ignore generic definitions from the web."

// DefaultPrompt is used when the caller supplies no custom prompt.
const DefaultPrompt = "You are a helpful assistant."

// GenerateRequest describes one generation call.
type GenerateRequest struct {
	Provider    string
	Model       string
	APIKey      string
	Temperature float64

	Query string

	// Context is document context, possibly followed by web search text.
	Context string

	// Prompt is a custom template. {context} and {query} are substituted.
	Prompt string
}

// Generator produces text for a query. Errors are returned, never swallowed.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// ClientFactory returns a Client for a provider and API key.
type ClientFactory func(provider, apiKey string) (Client, error)

// NewOpenAIFactory returns a ClientFactory for the openai provider.
// defaultKey is used when a request carries no key of its own.
func NewOpenAIFactory(defaultKey string, opts ...OpenAIOption) ClientFactory {
	return func(provider, apiKey string) (Client, error) {
		if provider != ProviderOpenAI {
			return nil, fmt.Errorf("%w: %s. Only OpenAI is supported", ErrUnsupportedProvider, provider)
		}
		if apiKey == "" {
			apiKey = defaultKey
		}
		if apiKey == "" {
			return nil, ErrMissingAPIKey
		}
		return NewOpenAI(apiKey, opts...), nil
	}
}

// StaticFactory returns a ClientFactory that serves c for every provider.
func StaticFactory(c Client) ClientFactory {
	return func(string, string) (Client, error) { return c, nil }
}

// ChatGenerator implements Generator over a chat Client.
type ChatGenerator struct {
	factory ClientFactory
}

var _ Generator = (*ChatGenerator)(nil)

// NewChatGenerator creates a ChatGenerator.
func NewChatGenerator(factory ClientFactory) *ChatGenerator {
	return &ChatGenerator{factory: factory}
}

// Generate implements Generator.
func (g *ChatGenerator) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	client, err := g.factory(req.Provider, req.APIKey)
	if err != nil {
		return "", err
	}

	resp, err := client.Complete(ctx, CompletionRequest{
		SystemPrompt: BuildSystemPrompt(req.Prompt, req.Context, req.Query),
		Messages:     []Message{{Role: RoleUser, Content: req.Query}},
		Model:        req.Model,
		Temperature:  req.Temperature,
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// BuildSystemPrompt assembles the system message for a generation call.
//
// With a custom prompt, {context} is replaced by docContext when both are
// present. Context without a placeholder is appended as a delimited block.
// {query} is then replaced by query. Without a custom prompt, DefaultPrompt
// is followed by the delimited context block when docContext is non-empty.
func BuildSystemPrompt(customPrompt, docContext, query string) string {
	var content string
	if customPrompt != "" {
		switch {
		case docContext != "" && strings.Contains(customPrompt, "{context}"):
			content = strings.ReplaceAll(customPrompt, "{context}", docContext)
		case docContext != "":
			content = customPrompt + contextBlock(docContext)
		default:
			content = customPrompt
		}
		content = strings.ReplaceAll(content, "{query}", query)
	} else {
		content = DefaultPrompt
		if docContext != "" {
			content += contextBlock(docContext)
		}
	}
	return BaseInstruction + "\n\n" + content
}

func contextBlock(docContext string) string {
	return "\n\n=== DOCUMENT CONTEXT ===\n" + docContext + "\n========================"
}
