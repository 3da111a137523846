package retrieve

import (
	"context"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/pika/pkg/model"
	"github.com/m-mizutani/pika/pkg/service/extract"
	"github.com/m-mizutani/pika/pkg/utils/logging"
)

// IngestReport summarizes one document ingestion.
type IngestReport struct {
	DocumentID model.DocumentID
	Collection string
	Chunks     int

	// Indexed counts chunks written to the vector index, including
	// degraded ones. Ingestion is best-effort: embedding failures do not
	// reduce this count.
	Indexed int

	// Degraded counts chunks indexed with a zero-vector fallback.
	Degraded int
}

// Ingest runs the full pipeline for one document. A document with no
// readable text yields an empty report, not an error; extraction failures
// are returned per-document for the caller to report.
func (u *UseCase) Ingest(ctx context.Context, doc *model.Document, collection string) (*IngestReport, error) {
	logger := logging.From(ctx)
	report := &IngestReport{DocumentID: doc.ID, Collection: collection}

	text, err := u.extractor.Extract(ctx, doc.Path, doc.Format)
	if err != nil {
		if errors.Is(err, extract.ErrNoReadableText) {
			logger.Info("document has no readable text, skipping",
				"document", doc.Name)
			return report, nil
		}
		return nil, goerr.Wrap(err, "failed to extract document",
			goerr.V("document", doc.Name))
	}

	chunks := u.splitter.Split(doc.ID, text)
	report.Chunks = len(chunks)
	if len(chunks) == 0 {
		return report, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	results := u.gateway.Embed(ctx, texts)

	now := time.Now()
	entries := make([]*model.Entry, len(chunks))
	for i, c := range chunks {
		meta := map[string]any{
			model.MetaFilename:   doc.Name,
			model.MetaDocumentID: string(doc.ID),
			model.MetaChunkIndex: c.Index,
			model.MetaIngestedAt: now.Format(time.RFC3339),
		}
		if results[i].Degraded {
			meta[model.MetaDegraded] = true
			report.Degraded++
		}
		entries[i] = &model.Entry{
			ID:       c.EntryID(),
			Vector:   results[i].Vector,
			Text:     c.Text,
			Metadata: meta,
		}
	}

	if err := u.index.Upsert(ctx, collection, entries); err != nil {
		return nil, goerr.Wrap(err, "failed to index chunks",
			goerr.V("document", doc.Name), goerr.V("collection", collection))
	}
	report.Indexed = len(entries)

	logger.Info("document ingested",
		"document", doc.Name,
		"collection", collection,
		"chunks", report.Indexed,
		"degraded", report.Degraded)
	return report, nil
}
