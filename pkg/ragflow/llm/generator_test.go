package llm_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/randalmurphal/ragflow/pkg/ragflow/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSystemPrompt(t *testing.T) {
	block := "\n\n=== DOCUMENT CONTEXT ===\nDOC\n========================"

	tests := []struct {
		name    string
		prompt  string
		context string
		want    string
	}{
		{
			name: "default without context",
			want: llm.DefaultPrompt,
		},
		{
			name:    "default with context",
			context: "DOC",
			want:    llm.DefaultPrompt + block,
		},
		{
			name:    "custom with context placeholder",
			prompt:  "Use {context} to answer {query}",
			context: "DOC",
			want:    "Use DOC to answer Q",
		},
		{
			name:    "custom without placeholder appends context",
			prompt:  "Answer {query}",
			context: "DOC",
			want:    "Answer Q" + block,
		},
		{
			name:   "custom placeholder kept when context empty",
			prompt: "Use {context} for {query}",
			want:   "Use {context} for Q",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := llm.BuildSystemPrompt(tt.prompt, tt.context, "Q")
			assert.Equal(t, llm.BaseInstruction+"\n\n"+tt.want, got)
		})
	}
}

func TestBuildSystemPrompt_DocumentPrecedence(t *testing.T) {
	docs := "Document Context:\nAlice knows Go\n\n"
	web := "Web Search Results:\n1. Go\n   A language\n   Source: https://go.dev\n"

	got := llm.BuildSystemPrompt("", docs+web, "What does Alice know?")

	assert.True(t, strings.HasPrefix(got, llm.BaseInstruction))
	assert.Contains(t, got, "ALWAYS prioritize facts from 'Document Context'")
	assert.Less(t, strings.Index(got, "Alice knows Go"), strings.Index(got, "Web Search Results:\n1."))
}

func TestChatGenerator_Generate(t *testing.T) {
	mock := llm.NewMockClient("generated")
	gen := llm.NewChatGenerator(llm.StaticFactory(mock))

	out, err := gen.Generate(context.Background(), llm.GenerateRequest{
		Provider:    llm.ProviderOpenAI,
		Model:       "gpt-4o-mini",
		Temperature: 0.3,
		Query:       "hello",
	})

	require.NoError(t, err)
	assert.Equal(t, "generated", out)

	call := mock.LastCall()
	require.NotNil(t, call)
	assert.Equal(t, "gpt-4o-mini", call.Model)
	assert.InDelta(t, 0.3, call.Temperature, 1e-9)
	require.Len(t, call.Messages, 1)
	assert.Equal(t, llm.RoleUser, call.Messages[0].Role)
	assert.Equal(t, "hello", call.Messages[0].Content)
	assert.Equal(t, llm.BaseInstruction+"\n\n"+llm.DefaultPrompt, call.SystemPrompt)
}

func TestChatGenerator_ClientError(t *testing.T) {
	boom := errors.New("provider down")
	gen := llm.NewChatGenerator(llm.StaticFactory(llm.NewMockClient("").WithError(boom)))

	_, err := gen.Generate(context.Background(), llm.GenerateRequest{Query: "q"})
	assert.ErrorIs(t, err, boom)
}

func TestOpenAIFactory(t *testing.T) {
	t.Run("unsupported provider", func(t *testing.T) {
		_, err := llm.NewOpenAIFactory("key")("anthropic", "")
		require.ErrorIs(t, err, llm.ErrUnsupportedProvider)
		assert.Contains(t, err.Error(), "anthropic")
	})

	t.Run("missing key", func(t *testing.T) {
		_, err := llm.NewOpenAIFactory("")(llm.ProviderOpenAI, "")
		assert.ErrorIs(t, err, llm.ErrMissingAPIKey)
	})

	t.Run("default key", func(t *testing.T) {
		c, err := llm.NewOpenAIFactory("fallback")(llm.ProviderOpenAI, "")
		require.NoError(t, err)
		assert.IsType(t, &llm.OpenAI{}, c)
	})
}
