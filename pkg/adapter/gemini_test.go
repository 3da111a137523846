package adapter_test

import (
	"context"
	"os"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/pika/pkg/adapter"
	"github.com/m-mizutani/pika/pkg/interfaces"
	"github.com/m-mizutani/pika/pkg/model"
)

func newTestGemini(t *testing.T) *adapter.GeminiClient {
	t.Helper()
	projectID := os.Getenv("TEST_GEMINI_PROJECT")
	if projectID == "" {
		t.Skip("TEST_GEMINI_PROJECT is not set")
	}

	location := os.Getenv("TEST_GEMINI_LOCATION")
	if location == "" {
		location = "us-central1"
	}

	client, err := adapter.NewGemini(context.Background(), projectID, location)
	gt.NoError(t, err)
	return client
}

func TestGeminiComplete(t *testing.T) {
	client := newTestGemini(t)
	ctx := context.Background()

	answer, err := client.Complete(ctx, []model.Message{
		{Role: model.RoleUser, Content: "What is the capital of France? Answer in one word."},
	}, interfaces.CompletionOptions{})
	gt.NoError(t, err)
	gt.S(t, answer).Contains("Paris")
}

func TestGeminiCompleteWithSystem(t *testing.T) {
	client := newTestGemini(t)
	ctx := context.Background()

	answer, err := client.Complete(ctx, []model.Message{
		{Role: model.RoleSystem, Content: "Always answer in uppercase."},
		{Role: model.RoleUser, Content: "Say hello."},
	}, interfaces.CompletionOptions{MaxTokens: 64})
	gt.NoError(t, err)
	gt.NotEqual(t, answer, "")
}

func TestGeminiEmbed(t *testing.T) {
	client := newTestGemini(t)
	ctx := context.Background()

	vec, err := client.Embed(ctx, "retrieval augmented generation")
	gt.NoError(t, err)
	gt.A(t, vec).Length(client.Dimension())
}
