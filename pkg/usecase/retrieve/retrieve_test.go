package retrieve_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/pika/pkg/model"
	"github.com/m-mizutani/pika/pkg/repository"
	"github.com/m-mizutani/pika/pkg/service/chunk"
	"github.com/m-mizutani/pika/pkg/service/embed"
	"github.com/m-mizutani/pika/pkg/service/extract"
	"github.com/m-mizutani/pika/pkg/usecase/retrieve"
)

type stubEmbedder struct {
	dimension int
	fail      bool
	byText    map[string][]float32
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if s.fail {
		return nil, goerr.New("embedding backend down")
	}
	if vec, ok := s.byText[text]; ok {
		return vec, nil
	}
	vec := make([]float32, s.dimension)
	vec[0] = 1
	return vec, nil
}

func (s *stubEmbedder) Dimension() int { return s.dimension }

func newUseCase(t *testing.T, svc *stubEmbedder, size, overlap int) (*retrieve.UseCase, *repository.Memory) {
	t.Helper()
	splitter, err := chunk.New(size, overlap)
	gt.NoError(t, err)
	index, err := repository.NewMemory(svc.dimension)
	gt.NoError(t, err)

	uc := retrieve.New(retrieve.Input{
		Extractor: extract.New(),
		Splitter:  splitter,
		Gateway:   embed.New(svc),
		Index:     index,
	})
	return uc, index
}

func writeDoc(t *testing.T, name, content string) *model.Document {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	gt.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return model.NewDocument(path)
}

func TestIngest(t *testing.T) {
	svc := &stubEmbedder{dimension: 4}
	uc, index := newUseCase(t, svc, 100, 20)
	ctx := context.Background()

	doc := writeDoc(t, "guide.txt", strings.Repeat("Retrieval systems index chunks of text. ", 10))
	report, err := uc.Ingest(ctx, doc, "documents")
	gt.NoError(t, err)

	gt.Equal(t, report.DocumentID, doc.ID)
	gt.True(t, report.Chunks > 1)
	gt.Equal(t, report.Indexed, report.Chunks)
	gt.Equal(t, report.Degraded, 0)

	infos, err := index.ListCollections(ctx)
	gt.NoError(t, err)
	gt.A(t, infos).Length(1)
	gt.Equal(t, infos[0].Name, "documents")
	gt.Equal(t, infos[0].Count, report.Indexed)

	matches, err := index.Query(ctx, "documents", []float32{1, 0, 0, 0}, 1)
	gt.NoError(t, err)
	gt.Equal(t, matches[0].Entry.Metadata[model.MetaFilename], "guide.txt")
	gt.Equal(t, matches[0].Entry.Metadata[model.MetaDocumentID], any(string(doc.ID)))
}

func TestIngestAllEmbeddingsFail(t *testing.T) {
	svc := &stubEmbedder{dimension: 4, fail: true}
	uc, index := newUseCase(t, svc, 100, 20)
	ctx := context.Background()

	doc := writeDoc(t, "guide.txt", strings.Repeat("Every chunk of this document will degrade. ", 10))
	report, err := uc.Ingest(ctx, doc, "documents")
	gt.NoError(t, err)

	// A broken embedding backend still indexes every chunk, just with
	// zero vectors marked as degraded.
	gt.True(t, report.Chunks > 0)
	gt.Equal(t, report.Indexed, report.Chunks)
	gt.Equal(t, report.Degraded, report.Chunks)

	matches, err := index.Query(ctx, "documents", []float32{1, 0, 0, 0}, 1)
	gt.NoError(t, err)
	gt.Equal(t, matches[0].Entry.Metadata[model.MetaDegraded], true)
	gt.Equal(t, matches[0].Score, 0.5)
}

func TestIngestEmptyDocument(t *testing.T) {
	svc := &stubEmbedder{dimension: 4}
	uc, index := newUseCase(t, svc, 100, 20)
	ctx := context.Background()

	doc := writeDoc(t, "empty.txt", "   \n  ")
	report, err := uc.Ingest(ctx, doc, "documents")
	gt.NoError(t, err)
	gt.Equal(t, report.Chunks, 0)
	gt.Equal(t, report.Indexed, 0)

	infos, err := index.ListCollections(ctx)
	gt.NoError(t, err)
	gt.A(t, infos).Length(0)
}

func TestIngestUnsupportedFormat(t *testing.T) {
	svc := &stubEmbedder{dimension: 4}
	uc, _ := newUseCase(t, svc, 100, 20)
	ctx := context.Background()

	doc := writeDoc(t, "legacy.doc", "binary word content")
	_, err := uc.Ingest(ctx, doc, "documents")
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrUnsupportedFormat))
}

func TestSearchSingleCollection(t *testing.T) {
	svc := &stubEmbedder{
		dimension: 2,
		byText: map[string][]float32{
			"target query": {1, 0},
		},
	}
	uc, index := newUseCase(t, svc, 100, 20)
	ctx := context.Background()

	gt.NoError(t, index.Upsert(ctx, "docs", []*model.Entry{
		{ID: "near", Vector: []float32{1, 0}, Text: "near passage"},
		{ID: "far", Vector: []float32{0, 1}, Text: "far passage"},
	}))

	matches, err := uc.Search(ctx, "target query", "docs", 1)
	gt.NoError(t, err)
	gt.A(t, matches).Length(1)
	gt.Equal(t, matches[0].Entry.ID, "near")
}

func TestSearchMissingCollection(t *testing.T) {
	svc := &stubEmbedder{dimension: 2}
	uc, _ := newUseCase(t, svc, 100, 20)

	_, err := uc.Search(context.Background(), "query", "nope", 5)
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrCollectionNotFound))
}

func TestSearchEmbeddingFailure(t *testing.T) {
	svc := &stubEmbedder{dimension: 2, fail: true}
	uc, _ := newUseCase(t, svc, 100, 20)

	_, err := uc.Search(context.Background(), "query", "docs", 5)
	gt.Error(t, err)
}

func TestSearchFanOut(t *testing.T) {
	svc := &stubEmbedder{
		dimension: 2,
		byText: map[string][]float32{
			"query": {1, 0},
		},
	}
	uc, index := newUseCase(t, svc, 100, 20)
	ctx := context.Background()

	gt.NoError(t, index.Upsert(ctx, "manuals", []*model.Entry{
		{ID: "m1", Vector: []float32{1, 0}, Text: "exact manual match"},
		{ID: "m2", Vector: []float32{0, 1}, Text: "unrelated manual"},
	}))
	gt.NoError(t, index.Upsert(ctx, "papers", []*model.Entry{
		{ID: "p1", Vector: []float32{0.9, 0.1}, Text: "close paper match"},
	}))

	matches, err := uc.Search(ctx, "query", retrieve.AllCollections, 2)
	gt.NoError(t, err)
	gt.A(t, matches).Length(2)

	// Best score wins across collections.
	gt.Equal(t, matches[0].Entry.ID, "m1")
	gt.Equal(t, matches[0].Collection, "manuals")
	gt.Equal(t, matches[1].Entry.ID, "p1")
	gt.Equal(t, matches[1].Collection, "papers")
}

func TestSearchFanOutDeterministicTiebreak(t *testing.T) {
	svc := &stubEmbedder{
		dimension: 2,
		byText: map[string][]float32{
			"query": {1, 0},
		},
	}
	uc, index := newUseCase(t, svc, 100, 20)
	ctx := context.Background()

	// Identical vectors in two collections tie on score; the merge
	// falls back to collection name, then entry ID.
	gt.NoError(t, index.Upsert(ctx, "zeta", []*model.Entry{
		{ID: "z1", Vector: []float32{1, 0}, Text: "tie"},
	}))
	gt.NoError(t, index.Upsert(ctx, "alpha", []*model.Entry{
		{ID: "a2", Vector: []float32{1, 0}, Text: "tie"},
		{ID: "a1", Vector: []float32{1, 0}, Text: "tie"},
	}))

	for i := 0; i < 5; i++ {
		matches, err := uc.Search(ctx, "query", "", 3)
		gt.NoError(t, err)
		gt.A(t, matches).Length(3)
		gt.Equal(t, matches[0].Collection, "alpha")
		gt.Equal(t, matches[1].Collection, "alpha")
		gt.Equal(t, matches[2].Collection, "zeta")
		gt.Equal(t, matches[0].Entry.ID, "a1")
		gt.Equal(t, matches[1].Entry.ID, "a2")
	}
}
