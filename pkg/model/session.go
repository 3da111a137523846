package model

import (
	"time"

	"github.com/google/uuid"
)

type SessionID string

// NewSessionID generates a new unique SessionID
func NewSessionID() SessionID {
	return SessionID(uuid.New().String())
}

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"

	// RoleSystem only appears in the context assembled for the LLM
	// (e.g. the rolling summary); it is never stored in a session.
	RoleSystem Role = "system"
)

// Message is a single conversation turn. The JSON field names are the wire
// contract that any session storage backend must round-trip exactly.
type Message struct {
	Role      Role           `json:"role" firestore:"role"`
	Content   string         `json:"content" firestore:"content"`
	Timestamp time.Time      `json:"timestamp" firestore:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty" firestore:"metadata,omitempty"`
}

// Session is a durable multi-turn conversation. Sessions are mutated only
// through the conversation manager, which persists after every mutation.
type Session struct {
	ID             SessionID      `json:"session_id" firestore:"session_id"`
	CreatedAt      time.Time      `json:"created_at" firestore:"created_at"`
	LastUpdated    time.Time      `json:"last_updated" firestore:"last_updated"`
	Messages       []Message      `json:"messages" firestore:"messages"`
	ContextSummary string         `json:"context_summary" firestore:"context_summary"`
	Strategy       string         `json:"strategy" firestore:"strategy"`
	KnowledgeBase  string         `json:"knowledge_base" firestore:"knowledge_base"`
	Metadata       map[string]any `json:"metadata,omitempty" firestore:"metadata,omitempty"`
}

// Clone returns a deep enough copy for handing out from a cache: the
// message slice is copied so that appends through the manager do not alias
// a caller's view.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	dup := *s
	dup.Messages = make([]Message, len(s.Messages))
	copy(dup.Messages, s.Messages)
	return &dup
}
