package retrieve

import (
	"github.com/m-mizutani/pika/pkg/interfaces"
	"github.com/m-mizutani/pika/pkg/service/chunk"
	"github.com/m-mizutani/pika/pkg/service/embed"
	"github.com/m-mizutani/pika/pkg/service/extract"
)

// AllCollections is the collection name that makes Search fan out over
// every collection in the index.
const AllCollections = "all"

// UseCase orchestrates the ingestion pipeline (extract, split, embed,
// upsert) and query-time retrieval (embed, query, rank).
type UseCase struct {
	extractor *extract.Extractor
	splitter  *chunk.Splitter
	gateway   *embed.Gateway
	index     interfaces.VectorIndex
}

type Input struct {
	Extractor *extract.Extractor
	Splitter  *chunk.Splitter
	Gateway   *embed.Gateway
	Index     interfaces.VectorIndex
}

func New(input Input) *UseCase {
	return &UseCase{
		extractor: input.Extractor,
		splitter:  input.Splitter,
		gateway:   input.Gateway,
		index:     input.Index,
	}
}
