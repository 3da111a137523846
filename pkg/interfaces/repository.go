package interfaces

import (
	"context"

	"github.com/m-mizutani/pika/pkg/model"
)

// CollectionInfo describes one vector index collection.
type CollectionInfo struct {
	Name  string
	Count int
}

// VectorIndex is a named set of collections of (id, vector, text, metadata)
// entries supporting upsert and nearest-neighbor query. Collections are
// independent namespaces; cross-collection search is composed by the
// retriever, not the index.
type VectorIndex interface {
	// Upsert inserts or replaces entries in a collection, creating the
	// collection if it does not exist yet.
	Upsert(ctx context.Context, collection string, entries []*model.Entry) error

	// Query returns up to limit entries ranked by ascending distance to
	// the given vector. Querying a collection that was never created
	// returns model.ErrCollectionNotFound, not an empty result.
	Query(ctx context.Context, collection string, vector []float32, limit int) ([]*model.Match, error)

	ListCollections(ctx context.Context) ([]CollectionInfo, error)

	// DeleteCollection removes a collection and all of its entries.
	// Deletion is by whole collection; individual entries are append-only
	// from the caller's perspective.
	DeleteCollection(ctx context.Context, name string) error
}

// SessionRepository is durable storage for conversation sessions. Writes
// must be atomic per session; a missing session is model.ErrSessionNotFound.
type SessionRepository interface {
	Put(ctx context.Context, session *model.Session) error
	Get(ctx context.Context, id model.SessionID) (*model.Session, error)
	Delete(ctx context.Context, id model.SessionID) error

	// List returns all durably persisted sessions. Implementations must
	// skip corrupt or partial records instead of failing the listing.
	List(ctx context.Context) ([]*model.Session, error)
}
