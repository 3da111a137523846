package model

import "fmt"

// Chunk is a bounded segment of extracted document text. Chunks are the
// unit of embedding and retrieval. Start and End are rune offsets into the
// source text; adjacent chunks overlap so that no fact is severed at a
// window seam.
type Chunk struct {
	DocumentID DocumentID
	Index      int
	Text       string
	Start      int
	End        int
}

// EntryID returns the vector index entry ID for this chunk, unique within
// a collection as long as document IDs are unique.
func (c Chunk) EntryID() string {
	return fmt.Sprintf("%s_chunk_%d", c.DocumentID, c.Index)
}

// Metadata keys attached to vector index entries during ingestion.
const (
	MetaFilename   = "filename"
	MetaDocumentID = "document_id"
	MetaChunkIndex = "chunk_index"
	MetaIngestedAt = "ingested_at"

	// MetaDegraded marks an entry whose embedding fell back to a zero
	// vector because the embedding service failed.
	MetaDegraded = "degraded_embedding"
)

// Entry is a single record in a vector index collection.
type Entry struct {
	ID       string
	Vector   []float32
	Text     string
	Metadata map[string]any
}

// Match is a query result: an entry with its distance to the query vector.
// Distance is normalized to [0, 1]; Score is 1 - Distance, so higher means
// more similar.
type Match struct {
	Entry      *Entry
	Collection string
	Distance   float64
	Score      float64
}
