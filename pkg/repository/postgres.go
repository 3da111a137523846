package repository

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/pika/pkg/interfaces"
	"github.com/m-mizutani/pika/pkg/model"
	pgvector "github.com/pgvector/pgvector-go"
)

// Postgres is a vector index backed by PostgreSQL with the pgvector
// extension. Entries live in a single table partitioned logically by
// collection name; similarity search uses cosine distance with an HNSW
// index. All methods are safe for concurrent use.
type Postgres struct {
	pool      *pgxpool.Pool
	dimension int
}

// NewPostgres connects to the database and ensures the schema exists.
// dimension must match the embedding gateway's output dimension.
func NewPostgres(ctx context.Context, dsn string, dimension int) (*Postgres, error) {
	if dimension <= 0 {
		return nil, goerr.New("vector dimension must be positive", goerr.V("dimension", dimension))
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create postgres pool")
	}

	p := &Postgres{pool: pool, dimension: dimension}
	if err := p.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

func (p *Postgres) Close() {
	p.pool.Close()
}

func (p *Postgres) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS collections (
			name       TEXT PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS entries (
			id         TEXT PRIMARY KEY,
			collection TEXT NOT NULL REFERENCES collections(name) ON DELETE CASCADE,
			embedding  vector(%d) NOT NULL,
			content    TEXT NOT NULL,
			metadata   JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, p.dimension),
		`CREATE INDEX IF NOT EXISTS entries_collection_idx ON entries (collection)`,
		`CREATE INDEX IF NOT EXISTS entries_embedding_idx ON entries
			USING hnsw (embedding vector_cosine_ops)`,
	}

	for _, stmt := range stmts {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return goerr.Wrap(err, "failed to ensure schema")
		}
	}
	return nil
}

// Upsert implements interfaces.VectorIndex. An entry with an existing ID
// is completely replaced.
func (p *Postgres) Upsert(ctx context.Context, collection string, entries []*model.Entry) error {
	for _, e := range entries {
		if len(e.Vector) != p.dimension {
			return goerr.New("vector dimension mismatch",
				goerr.V("expected", p.dimension), goerr.V("actual", len(e.Vector)),
				goerr.V("entry_id", e.ID))
		}
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO collections (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`,
		collection,
	); err != nil {
		return goerr.Wrap(err, "failed to ensure collection", goerr.V("collection", collection))
	}

	const q = `
		INSERT INTO entries (id, collection, embedding, content, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
		    collection = EXCLUDED.collection,
		    embedding  = EXCLUDED.embedding,
		    content    = EXCLUDED.content,
		    metadata   = EXCLUDED.metadata`

	for _, e := range entries {
		if _, err := tx.Exec(ctx, q,
			e.ID, collection, pgvector.NewVector(e.Vector), e.Text, e.Metadata, time.Now(),
		); err != nil {
			return goerr.Wrap(err, "failed to upsert entry",
				goerr.V("collection", collection), goerr.V("entry_id", e.ID))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return goerr.Wrap(err, "failed to commit upsert")
	}
	return nil
}

// Query implements interfaces.VectorIndex. pgvector's <=> operator yields
// cosine distance in [0, 2]; it is halved to fit the normalized [0, 1]
// contract.
func (p *Postgres) Query(ctx context.Context, collection string, vector []float32, limit int) ([]*model.Match, error) {
	if len(vector) != p.dimension {
		return nil, goerr.New("query vector dimension mismatch",
			goerr.V("expected", p.dimension), goerr.V("actual", len(vector)))
	}

	var exists bool
	if err := p.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM collections WHERE name = $1)`, collection,
	).Scan(&exists); err != nil {
		return nil, goerr.Wrap(err, "failed to check collection", goerr.V("collection", collection))
	}
	if !exists {
		return nil, goerr.Wrap(model.ErrCollectionNotFound, "cannot query collection",
			goerr.V("collection", collection))
	}

	const q = `
		SELECT id, content, metadata, embedding, embedding <=> $1 AS distance
		FROM   entries
		WHERE  collection = $2
		ORDER  BY distance, created_at
		LIMIT  $3`

	// limit <= 0 means unbounded, same as the in-memory backend.
	sqlLimit := any(limit)
	if limit <= 0 {
		sqlLimit = nil
	}

	rows, err := p.pool.Query(ctx, q, pgvector.NewVector(vector), collection, sqlLimit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query entries", goerr.V("collection", collection))
	}

	matches, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*model.Match, error) {
		var (
			entry model.Entry
			vec   pgvector.Vector
			dist  float64
		)
		if err := row.Scan(&entry.ID, &entry.Text, &entry.Metadata, &vec, &dist); err != nil {
			return nil, err
		}
		entry.Vector = vec.Slice()
		// <=> returns NaN when either vector has zero norm. Degraded
		// entries are stored as zero vectors, so map them to the
		// mid-range distance the in-memory backend uses.
		if math.IsNaN(dist) {
			dist = 1
		}
		d := dist / 2
		return &model.Match{
			Entry:      &entry,
			Collection: collection,
			Distance:   d,
			Score:      1 - d,
		}, nil
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to scan entries", goerr.V("collection", collection))
	}
	return matches, nil
}

func (p *Postgres) ListCollections(ctx context.Context) ([]interfaces.CollectionInfo, error) {
	const q = `
		SELECT c.name, count(e.id)
		FROM   collections c
		LEFT   JOIN entries e ON e.collection = c.name
		GROUP  BY c.name
		ORDER  BY c.name`

	rows, err := p.pool.Query(ctx, q)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list collections")
	}

	infos, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (interfaces.CollectionInfo, error) {
		var info interfaces.CollectionInfo
		err := row.Scan(&info.Name, &info.Count)
		return info, err
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to scan collections")
	}
	return infos, nil
}

func (p *Postgres) DeleteCollection(ctx context.Context, name string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM collections WHERE name = $1`, name)
	if err != nil {
		return goerr.Wrap(err, "failed to delete collection", goerr.V("collection", name))
	}
	if tag.RowsAffected() == 0 {
		return goerr.Wrap(model.ErrCollectionNotFound, "cannot delete collection",
			goerr.V("collection", name))
	}
	return nil
}
