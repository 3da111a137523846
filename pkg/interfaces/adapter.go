package interfaces

import (
	"context"

	"github.com/m-mizutani/pika/pkg/model"
)

// CompletionOptions are per-request parameters for the text completion
// service. Zero values mean "use the adapter default".
type CompletionOptions struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// CompletionService is the external text-completion collaborator. The core
// does not retry transient failures; retry policy belongs to the caller.
type CompletionService interface {
	Complete(ctx context.Context, messages []model.Message, opts CompletionOptions) (string, error)
}

// EmbeddingService converts text into a fixed-dimension vector. The
// dimension is fixed per instance and must match the vector index's
// declared dimension.
type EmbeddingService interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}
