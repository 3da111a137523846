package repository_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/pika/pkg/model"
	"github.com/m-mizutani/pika/pkg/repository"
)

func setupPostgres(t *testing.T) *repository.Postgres {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN must be set to run pgvector tests")
	}

	index, err := repository.NewPostgres(context.Background(), dsn, 3)
	gt.NoError(t, err)
	return index
}

func testCollection() string {
	return fmt.Sprintf("test_%d", time.Now().UnixNano())
}

func TestPostgresUpsertAndQuery(t *testing.T) {
	index := setupPostgres(t)
	ctx := context.Background()
	collection := testCollection()
	defer index.DeleteCollection(ctx, collection)

	gt.NoError(t, index.Upsert(ctx, collection, []*model.Entry{
		{ID: "a", Vector: []float32{1, 0, 0}, Text: "first"},
		{ID: "b", Vector: []float32{0, 1, 0}, Text: "second"},
	}))

	matches, err := index.Query(ctx, collection, []float32{1, 0, 0}, 10)
	gt.NoError(t, err)
	gt.A(t, matches).Length(2)
	gt.Equal(t, matches[0].Entry.ID, "a")
	gt.True(t, matches[0].Score > matches[1].Score)
}

func TestPostgresUpsertReplaces(t *testing.T) {
	index := setupPostgres(t)
	ctx := context.Background()
	collection := testCollection()
	defer index.DeleteCollection(ctx, collection)

	gt.NoError(t, index.Upsert(ctx, collection, []*model.Entry{
		{ID: "a", Vector: []float32{1, 0, 0}, Text: "before"},
	}))
	gt.NoError(t, index.Upsert(ctx, collection, []*model.Entry{
		{ID: "a", Vector: []float32{1, 0, 0}, Text: "after"},
	}))

	matches, err := index.Query(ctx, collection, []float32{1, 0, 0}, 10)
	gt.NoError(t, err)
	gt.A(t, matches).Length(1)
	gt.Equal(t, matches[0].Entry.Text, "after")
}

func TestPostgresZeroVectorEntry(t *testing.T) {
	index := setupPostgres(t)
	ctx := context.Background()
	collection := testCollection()
	defer index.DeleteCollection(ctx, collection)

	// Degraded entries carry zero vectors, for which <=> reports NaN.
	// They must rank below real matches at the mid-range distance,
	// matching the in-memory backend.
	gt.NoError(t, index.Upsert(ctx, collection, []*model.Entry{
		{ID: "zero", Vector: []float32{0, 0, 0}, Text: "degraded"},
		{ID: "real", Vector: []float32{1, 0, 0}, Text: "intact"},
	}))

	matches, err := index.Query(ctx, collection, []float32{1, 0, 0}, 10)
	gt.NoError(t, err)
	gt.A(t, matches).Length(2)
	gt.Equal(t, matches[0].Entry.ID, "real")
	gt.Equal(t, matches[1].Entry.ID, "zero")
	gt.Equal(t, matches[1].Distance, 0.5)
	gt.Equal(t, matches[1].Score, 0.5)
	gt.False(t, math.IsNaN(matches[1].Score))
}

func TestPostgresQueryMissingCollection(t *testing.T) {
	index := setupPostgres(t)
	ctx := context.Background()

	_, err := index.Query(ctx, testCollection(), []float32{1, 0, 0}, 10)
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrCollectionNotFound))
}

func TestPostgresListAndDelete(t *testing.T) {
	index := setupPostgres(t)
	ctx := context.Background()
	collection := testCollection()

	gt.NoError(t, index.Upsert(ctx, collection, []*model.Entry{
		{ID: "a", Vector: []float32{1, 0, 0}, Text: "first"},
	}))

	infos, err := index.ListCollections(ctx)
	gt.NoError(t, err)

	found := false
	for _, info := range infos {
		if info.Name == collection {
			found = true
			gt.Equal(t, info.Count, 1)
		}
	}
	gt.True(t, found)

	gt.NoError(t, index.DeleteCollection(ctx, collection))
	gt.True(t, errors.Is(index.DeleteCollection(ctx, collection), model.ErrCollectionNotFound))
}
