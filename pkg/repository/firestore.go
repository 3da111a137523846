package repository

import (
	"context"
	"sort"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/pika/pkg/model"
	"github.com/m-mizutani/pika/pkg/utils/logging"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const sessionCollection = "sessions"

// Firestore stores sessions as documents in a Firestore collection.
// Per-document writes are atomic, which satisfies the write-then-acknowledge
// persistence contract.
type Firestore struct {
	client *firestore.Client
}

// NewFirestore creates a Firestore-backed session repository.
func NewFirestore(ctx context.Context, projectID, databaseID string) (*Firestore, error) {
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("project", projectID), goerr.V("database", databaseID))
	}
	return &Firestore{client: client}, nil
}

func (f *Firestore) Close() error {
	return f.client.Close()
}

func (f *Firestore) Put(ctx context.Context, session *model.Session) error {
	_, err := f.client.Collection(sessionCollection).Doc(string(session.ID)).Set(ctx, session)
	if err != nil {
		return goerr.Wrap(err, "failed to save session", goerr.V("session_id", session.ID))
	}
	return nil
}

func (f *Firestore) Get(ctx context.Context, id model.SessionID) (*model.Session, error) {
	doc, err := f.client.Collection(sessionCollection).Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrSessionNotFound, "no session document",
				goerr.V("session_id", id))
		}
		return nil, goerr.Wrap(err, "failed to get session", goerr.V("session_id", id))
	}

	var session model.Session
	if err := doc.DataTo(&session); err != nil {
		return nil, goerr.Wrap(err, "failed to decode session", goerr.V("session_id", id))
	}
	return &session, nil
}

func (f *Firestore) Delete(ctx context.Context, id model.SessionID) error {
	ref := f.client.Collection(sessionCollection).Doc(string(id))
	if _, err := ref.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(model.ErrSessionNotFound, "no session document",
				goerr.V("session_id", id))
		}
		return goerr.Wrap(err, "failed to check session", goerr.V("session_id", id))
	}
	if _, err := ref.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete session", goerr.V("session_id", id))
	}
	return nil
}

// List implements interfaces.SessionRepository. Documents that fail to
// decode are skipped so one corrupt record never fails the listing.
func (f *Firestore) List(ctx context.Context) ([]*model.Session, error) {
	iter := f.client.Collection(sessionCollection).Documents(ctx)
	defer iter.Stop()

	var sessions []*model.Session
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate sessions")
		}

		var session model.Session
		if err := doc.DataTo(&session); err != nil {
			logging.From(ctx).Warn("skipping undecodable session document",
				"doc", doc.Ref.ID, "error", err)
			continue
		}
		sessions = append(sessions, &session)
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].LastUpdated.After(sessions[j].LastUpdated)
	})
	return sessions, nil
}
