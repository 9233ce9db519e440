package llm_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/randalmurphal/ragflow/pkg/ragflow/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastRetry = llm.RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond, BackoffFactor: 2}

// flaky fails with err for the first n calls, then answers.
func flaky(n int, err error) *llm.MockClient {
	calls := 0
	m := llm.NewMockClient("")
	return m.WithCompleteFunc(func(_ context.Context, _ llm.CompletionRequest) (*llm.CompletionResponse, error) {
		calls++
		if calls <= n {
			return nil, err
		}
		return &llm.CompletionResponse{Content: "ok"}, nil
	})
}

func TestWithRetry_RecoversFromTransientErrors(t *testing.T) {
	mock := flaky(2, llm.NewError("complete", errors.New("status 429"), true))
	client := llm.WithRetry(mock, fastRetry)

	resp, err := client.Complete(context.Background(), llm.CompletionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
	assert.Equal(t, 3, mock.CallCount())
}

func TestWithRetry_GivesUpAfterMaxAttempts(t *testing.T) {
	mock := flaky(5, llm.NewError("complete", errors.New("status 503"), true))
	client := llm.WithRetry(mock, fastRetry)

	_, err := client.Complete(context.Background(), llm.CompletionRequest{})
	require.Error(t, err)
	assert.True(t, llm.IsRetryable(err))
	assert.Equal(t, 3, mock.CallCount())
}

func TestWithRetry_PermanentErrorNotRetried(t *testing.T) {
	mock := flaky(5, llm.NewError("complete", errors.New("status 401"), false))
	client := llm.WithRetry(mock, fastRetry)

	_, err := client.Complete(context.Background(), llm.CompletionRequest{})
	require.Error(t, err)
	assert.Equal(t, 1, mock.CallCount())
}

func TestWithRetry_StopsOnCancel(t *testing.T) {
	mock := flaky(5, llm.NewError("complete", errors.New("status 429"), true))
	client := llm.WithRetry(mock, llm.RetryConfig{MaxAttempts: 5, InitialBackoff: time.Hour})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Complete(ctx, llm.CompletionRequest{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, mock.CallCount())
}

func TestRetryFactory(t *testing.T) {
	mock := flaky(1, llm.NewError("complete", errors.New("status 500"), true))
	gen := llm.NewChatGenerator(llm.RetryFactory(llm.StaticFactory(mock), fastRetry))

	out, err := gen.Generate(context.Background(), llm.GenerateRequest{Query: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 2, mock.CallCount())

	failing := llm.RetryFactory(func(string, string) (llm.Client, error) {
		return nil, llm.ErrMissingAPIKey
	}, fastRetry)
	_, err = failing(llm.ProviderOpenAI, "")
	assert.ErrorIs(t, err, llm.ErrMissingAPIKey)
}

func TestWithRetry_ZeroAttemptsMeansOne(t *testing.T) {
	mock := flaky(1, llm.NewError("complete", errors.New("status 500"), true))
	_, err := llm.WithRetry(mock, llm.RetryConfig{}).Complete(context.Background(), llm.CompletionRequest{})
	require.Error(t, err)
	assert.Equal(t, 1, mock.CallCount())
}
