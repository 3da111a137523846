package retrieve

import (
	"context"
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/pika/pkg/model"
	"golang.org/x/sync/errgroup"
)

// Search embeds the query once and returns the top limit passages ranked
// by similarity score. collection may be a single collection name, or
// AllCollections (or empty) to fan out over every collection; fan-out
// queries run concurrently since they are read-only and independent.
func (u *UseCase) Search(ctx context.Context, query, collection string, limit int) ([]*model.Match, error) {
	vector, err := u.gateway.EmbedQuery(ctx, query)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed query")
	}

	if collection != "" && collection != AllCollections {
		return u.index.Query(ctx, collection, vector, limit)
	}

	infos, err := u.index.ListCollections(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list collections")
	}

	var (
		mu     sync.Mutex
		merged []*model.Match
	)
	eg, ctx := errgroup.WithContext(ctx)
	for _, info := range infos {
		eg.Go(func() error {
			matches, err := u.index.Query(ctx, info.Name, vector, limit)
			if err != nil {
				return goerr.Wrap(err, "failed to query collection",
					goerr.V("collection", info.Name))
			}
			mu.Lock()
			merged = append(merged, matches...)
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	// Re-rank the merged set. Collection name is the tiebreaker so
	// fan-out results stay deterministic regardless of goroutine order.
	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].Score != merged[j].Score {
			return merged[i].Score > merged[j].Score
		}
		if merged[i].Collection != merged[j].Collection {
			return merged[i].Collection < merged[j].Collection
		}
		return merged[i].Entry.ID < merged[j].Entry.ID
	})

	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}
	return merged, nil
}
