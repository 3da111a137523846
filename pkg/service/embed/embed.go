package embed

import (
	"context"

	"github.com/m-mizutani/pika/pkg/interfaces"
	"github.com/m-mizutani/pika/pkg/utils/logging"
)

// DefaultMaxInputRunes is the truncation limit applied to each text before
// it is sent to the embedding service.
const DefaultMaxInputRunes = 8000

// Result is one embedded text. Degraded marks a zero-vector fallback used
// when the embedding service failed for that text; the vector is the right
// dimension but carries no semantic signal.
type Result struct {
	Vector   []float32
	Degraded bool
}

// Gateway wraps an embedding service with truncation and a non-aborting
// failure policy: ingestion must always complete, so a service failure
// produces a degraded zero vector instead of an error.
type Gateway struct {
	service  interfaces.EmbeddingService
	maxInput int
}

type Option func(*Gateway)

// WithMaxInput overrides the per-text truncation limit (in runes).
func WithMaxInput(n int) Option {
	return func(g *Gateway) {
		if n > 0 {
			g.maxInput = n
		}
	}
}

func New(service interfaces.EmbeddingService, opts ...Option) *Gateway {
	g := &Gateway{
		service:  service,
		maxInput: DefaultMaxInputRunes,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Gateway) Dimension() int {
	return g.service.Dimension()
}

// Embed returns one result per input text, in input order. It never fails:
// texts the service could not embed come back as degraded zero vectors.
func (g *Gateway) Embed(ctx context.Context, texts []string) []Result {
	results := make([]Result, len(texts))
	for i, text := range texts {
		vector, err := g.service.Embed(ctx, g.truncate(text))
		if err != nil {
			logging.From(ctx).Warn("embedding failed, using zero-vector fallback",
				"index", i, "error", err)
			results[i] = Result{
				Vector:   make([]float32, g.service.Dimension()),
				Degraded: true,
			}
			continue
		}
		results[i] = Result{Vector: vector}
	}
	return results
}

// EmbedQuery embeds a single query text. Unlike ingestion, a query cannot
// proceed with a non-semantic vector, so failures are returned to the
// caller.
func (g *Gateway) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return g.service.Embed(ctx, g.truncate(text))
}

func (g *Gateway) truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= g.maxInput {
		return text
	}
	return string(runes[:g.maxInput])
}
