package repository

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/pika/pkg/interfaces"
	"github.com/m-mizutani/pika/pkg/model"
)

// Memory is an in-process vector index using brute-force cosine similarity.
// It is the baseline backend for single-process use and tests; Postgres
// with pgvector covers durable deployments.
type Memory struct {
	mu          sync.RWMutex
	dimension   int
	collections map[string][]*model.Entry
}

// NewMemory creates an in-memory vector index with a fixed entry
// dimension. Entries with a different dimension are rejected as a
// configuration error.
func NewMemory(dimension int) (*Memory, error) {
	if dimension <= 0 {
		return nil, goerr.New("vector dimension must be positive", goerr.V("dimension", dimension))
	}
	return &Memory{
		dimension:   dimension,
		collections: make(map[string][]*model.Entry),
	}, nil
}

// Upsert implements interfaces.VectorIndex. The collection is created on
// first use; an entry with an existing ID replaces the old one in place so
// insertion order stays stable.
func (m *Memory) Upsert(ctx context.Context, collection string, entries []*model.Entry) error {
	for _, e := range entries {
		if len(e.Vector) != m.dimension {
			return goerr.New("vector dimension mismatch",
				goerr.V("expected", m.dimension), goerr.V("actual", len(e.Vector)),
				goerr.V("entry_id", e.ID))
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.collections[collection]
	if !ok {
		m.collections[collection] = append([]*model.Entry{}, entries...)
		return nil
	}

	byID := make(map[string]int, len(existing))
	for i, e := range existing {
		byID[e.ID] = i
	}
	for _, e := range entries {
		if i, ok := byID[e.ID]; ok {
			existing[i] = e
		} else {
			existing = append(existing, e)
			byID[e.ID] = len(existing) - 1
		}
	}
	m.collections[collection] = existing
	return nil
}

// Query implements interfaces.VectorIndex. Results are ordered by
// ascending distance; ties keep insertion order so identical queries are
// deterministic.
func (m *Memory) Query(ctx context.Context, collection string, vector []float32, limit int) ([]*model.Match, error) {
	if len(vector) != m.dimension {
		return nil, goerr.New("query vector dimension mismatch",
			goerr.V("expected", m.dimension), goerr.V("actual", len(vector)))
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	entries, ok := m.collections[collection]
	if !ok {
		return nil, goerr.Wrap(model.ErrCollectionNotFound, "cannot query collection",
			goerr.V("collection", collection))
	}

	matches := make([]*model.Match, 0, len(entries))
	for _, e := range entries {
		d := cosineDistance(vector, e.Vector)
		matches = append(matches, &model.Match{
			Entry:      e,
			Collection: collection,
			Distance:   d,
			Score:      1 - d,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (m *Memory) ListCollections(ctx context.Context) ([]interfaces.CollectionInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]interfaces.CollectionInfo, 0, len(m.collections))
	for name, entries := range m.collections {
		infos = append(infos, interfaces.CollectionInfo{Name: name, Count: len(entries)})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

func (m *Memory) DeleteCollection(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.collections[name]; !ok {
		return goerr.Wrap(model.ErrCollectionNotFound, "cannot delete collection",
			goerr.V("collection", name))
	}
	delete(m.collections, name)
	return nil
}

// cosineDistance maps cosine similarity from [-1, 1] onto a [0, 1]
// distance so that the exposed score (1 - distance) is also in [0, 1].
// A zero vector (degraded embedding) has no direction and lands at 0.5.
func cosineDistance(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0.5
	}
	cos := dot / (math.Sqrt(na) * math.Sqrt(nb))
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return (1 - cos) / 2
}
