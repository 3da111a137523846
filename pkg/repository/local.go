package repository

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/pika/pkg/model"
	"github.com/m-mizutani/pika/pkg/utils/logging"
)

// Local stores each session as a JSON file under a directory. Writes go
// through a temp file and rename so a crash never leaves a half-written
// session behind. Serialization of concurrent writers to one session is
// the conversation manager's job, not this store's.
type Local struct {
	dir string
}

func NewLocal(dir string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, goerr.Wrap(err, "failed to create session directory", goerr.V("dir", dir))
	}
	return &Local{dir: dir}, nil
}

func (l *Local) path(id model.SessionID) string {
	return filepath.Join(l.dir, string(id)+".json")
}

// Put implements interfaces.SessionRepository with an atomic
// write-then-rename.
func (l *Local) Put(ctx context.Context, session *model.Session) error {
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return goerr.Wrap(err, "failed to marshal session", goerr.V("session_id", session.ID))
	}

	tmp, err := os.CreateTemp(l.dir, "session-*.tmp")
	if err != nil {
		return goerr.Wrap(err, "failed to create temp file")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return goerr.Wrap(err, "failed to write session", goerr.V("session_id", session.ID))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return goerr.Wrap(err, "failed to close temp file")
	}

	if err := os.Rename(tmpName, l.path(session.ID)); err != nil {
		os.Remove(tmpName)
		return goerr.Wrap(err, "failed to persist session", goerr.V("session_id", session.ID))
	}
	return nil
}

func (l *Local) Get(ctx context.Context, id model.SessionID) (*model.Session, error) {
	data, err := os.ReadFile(l.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, goerr.Wrap(model.ErrSessionNotFound, "no session file",
				goerr.V("session_id", id))
		}
		return nil, goerr.Wrap(err, "failed to read session file", goerr.V("session_id", id))
	}

	var session model.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, goerr.Wrap(err, "failed to parse session file", goerr.V("session_id", id))
	}
	return &session, nil
}

func (l *Local) Delete(ctx context.Context, id model.SessionID) error {
	if err := os.Remove(l.path(id)); err != nil {
		if os.IsNotExist(err) {
			return goerr.Wrap(model.ErrSessionNotFound, "no session file",
				goerr.V("session_id", id))
		}
		return goerr.Wrap(err, "failed to delete session file", goerr.V("session_id", id))
	}
	return nil
}

// List implements interfaces.SessionRepository. Corrupt or partial session
// files are skipped with a warning; one bad file never fails the listing.
func (l *Local) List(ctx context.Context) ([]*model.Session, error) {
	dirents, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read session directory", goerr.V("dir", l.dir))
	}

	var sessions []*model.Session
	for _, ent := range dirents {
		if ent.IsDir() || !strings.HasSuffix(ent.Name(), ".json") {
			continue
		}
		id := model.SessionID(strings.TrimSuffix(ent.Name(), ".json"))
		session, err := l.Get(ctx, id)
		if err != nil {
			logging.From(ctx).Warn("skipping unreadable session file",
				"file", ent.Name(), "error", err)
			continue
		}
		sessions = append(sessions, session)
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].LastUpdated.After(sessions[j].LastUpdated)
	})
	return sessions, nil
}
