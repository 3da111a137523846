package conversation

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/pika/pkg/interfaces"
	"github.com/m-mizutani/pika/pkg/model"
	"github.com/m-mizutani/pika/pkg/utils/logging"
)

const (
	DefaultStrategy      = "generation"
	DefaultKnowledgeBase = "documents"

	// contextWindow bounds how many recent messages are handed to the
	// LLM regardless of session age.
	contextWindow = 10

	// summarizeEvery triggers the rolling-summary side effect after
	// every Nth message.
	summarizeEvery = 10
)

// Manager owns conversation session state. Every mutation is flushed to
// the repository before the call returns, so an acknowledged message is
// never lost. Reads go through an in-memory cache keyed by session ID.
// Concurrent mutations of one session are serialized by a per-session
// lock; distinct sessions proceed independently.
type Manager struct {
	repo interfaces.SessionRepository

	mu    sync.Mutex
	cache map[model.SessionID]*model.Session
	locks map[model.SessionID]*sync.Mutex
}

func New(repo interfaces.SessionRepository) *Manager {
	return &Manager{
		repo:  repo,
		cache: make(map[model.SessionID]*model.Session),
		locks: make(map[model.SessionID]*sync.Mutex),
	}
}

func (m *Manager) sessionLock(id model.SessionID) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[id] = lock
	}
	return lock
}

// Create starts a new session with the given settings. Empty settings fall
// back to the defaults.
func (m *Manager) Create(ctx context.Context, strategy, knowledgeBase string) (*model.Session, error) {
	if strategy == "" {
		strategy = DefaultStrategy
	}
	if knowledgeBase == "" {
		knowledgeBase = DefaultKnowledgeBase
	}

	now := time.Now()
	session := &model.Session{
		ID:            model.NewSessionID(),
		CreatedAt:     now,
		LastUpdated:   now,
		Messages:      []model.Message{},
		Strategy:      strategy,
		KnowledgeBase: knowledgeBase,
		Metadata:      map[string]any{},
	}

	if err := m.repo.Put(ctx, session); err != nil {
		return nil, goerr.Wrap(err, "failed to persist new session")
	}

	m.mu.Lock()
	m.cache[session.ID] = session
	m.mu.Unlock()

	logging.From(ctx).Debug("session created", "session_id", session.ID)
	return session.Clone(), nil
}

// Get returns the session, consulting the cache before durable storage.
// A session absent from both is model.ErrSessionNotFound.
func (m *Manager) Get(ctx context.Context, id model.SessionID) (*model.Session, error) {
	m.mu.Lock()
	if session, ok := m.cache[id]; ok {
		m.mu.Unlock()
		return session.Clone(), nil
	}
	m.mu.Unlock()

	session, err := m.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.cache[id] = session
	m.mu.Unlock()
	return session.Clone(), nil
}

// AddMessage appends one turn and persists the session before returning.
// After every 10th message the rolling summary is refreshed from recent
// user turns.
func (m *Manager) AddMessage(ctx context.Context, id model.SessionID, role model.Role, content string, metadata map[string]any) error {
	lock := m.sessionLock(id)
	lock.Lock()
	defer lock.Unlock()

	session, err := m.load(ctx, id)
	if err != nil {
		return err
	}

	if metadata == nil {
		metadata = map[string]any{}
	}
	session.Messages = append(session.Messages, model.Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
		Metadata:  metadata,
	})
	session.LastUpdated = time.Now()

	if len(session.Messages) >= summarizeEvery && len(session.Messages)%summarizeEvery == 0 {
		session.ContextSummary = summarize(session.Messages)
		logging.From(ctx).Debug("session summary refreshed",
			"session_id", id, "summary", session.ContextSummary)
	}

	if err := m.repo.Put(ctx, session); err != nil {
		return goerr.Wrap(err, "failed to persist session", goerr.V("session_id", id))
	}

	m.mu.Lock()
	m.cache[id] = session
	m.mu.Unlock()
	return nil
}

// load returns the mutable cached session (not a clone); callers must hold
// the session lock.
func (m *Manager) load(ctx context.Context, id model.SessionID) (*model.Session, error) {
	m.mu.Lock()
	if session, ok := m.cache[id]; ok {
		m.mu.Unlock()
		return session, nil
	}
	m.mu.Unlock()

	session, err := m.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.cache[id] = session
	m.mu.Unlock()
	return session, nil
}

// History returns up to limit most recent messages in chronological order.
// limit <= 0 returns the full history.
func (m *Manager) History(ctx context.Context, id model.SessionID, limit int) ([]model.Message, error) {
	session, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	messages := session.Messages
	if limit > 0 && len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}
	return messages, nil
}

// ContextForLLM assembles the bounded conversation context: the rolling
// summary as a system entry (when present and requested) followed by the
// last 10 messages in chronological order.
func (m *Manager) ContextForLLM(ctx context.Context, id model.SessionID, includeSummary bool) ([]model.Message, error) {
	session, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var messages []model.Message
	if includeSummary && session.ContextSummary != "" {
		messages = append(messages, model.Message{
			Role:    model.RoleSystem,
			Content: "Previous conversation summary: " + session.ContextSummary,
		})
	}

	recent := session.Messages
	if len(recent) > contextWindow {
		recent = recent[len(recent)-contextWindow:]
	}
	return append(messages, recent...), nil
}

// UpdateSettings changes the session's strategy and/or knowledge base.
// Empty values leave the current setting untouched.
func (m *Manager) UpdateSettings(ctx context.Context, id model.SessionID, strategy, knowledgeBase string) error {
	lock := m.sessionLock(id)
	lock.Lock()
	defer lock.Unlock()

	session, err := m.load(ctx, id)
	if err != nil {
		return err
	}

	if strategy != "" {
		session.Strategy = strategy
	}
	if knowledgeBase != "" {
		session.KnowledgeBase = knowledgeBase
	}
	session.LastUpdated = time.Now()

	if err := m.repo.Put(ctx, session); err != nil {
		return goerr.Wrap(err, "failed to persist session settings", goerr.V("session_id", id))
	}
	return nil
}

func (m *Manager) Delete(ctx context.Context, id model.SessionID) error {
	lock := m.sessionLock(id)
	lock.Lock()
	defer lock.Unlock()

	m.mu.Lock()
	delete(m.cache, id)
	delete(m.locks, id)
	m.mu.Unlock()

	return m.repo.Delete(ctx, id)
}

// List returns all durably persisted sessions, most recently updated
// first. Corrupt records are skipped by the repository.
func (m *Manager) List(ctx context.Context) ([]*model.Session, error) {
	return m.repo.List(ctx)
}

// SweepOlderThan deletes sessions whose last update is older than maxAge
// and returns how many were removed. This is the retention sweep; it runs
// when invoked, not as a background daemon.
func (m *Manager) SweepOlderThan(ctx context.Context, maxAge time.Duration) (int, error) {
	sessions, err := m.repo.List(ctx)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to list sessions for sweep")
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, session := range sessions {
		if session.LastUpdated.After(cutoff) {
			continue
		}
		if err := m.Delete(ctx, session.ID); err != nil {
			logging.From(ctx).Warn("failed to sweep session",
				"session_id", session.ID, "error", err)
			continue
		}
		removed++
	}
	return removed, nil
}
