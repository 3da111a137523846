package assist

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/pika/pkg/interfaces"
	"github.com/m-mizutani/pika/pkg/model"
	"github.com/m-mizutani/pika/pkg/usecase/conversation"
	"github.com/m-mizutani/pika/pkg/usecase/reason"
	"github.com/m-mizutani/pika/pkg/usecase/retrieve"
	"github.com/m-mizutani/pika/pkg/utils/logging"
)

// DefaultTopK is how many passages are retrieved per question unless the
// caller asks otherwise.
const DefaultTopK = 5

// UseCase runs the full question flow: load conversation context,
// retrieve passages, dispatch the reasoning strategy, and append the turn
// to the session.
type UseCase struct {
	retriever     *retrieve.UseCase
	conversations *conversation.Manager
	dispatcher    *reason.Dispatcher
	completion    interfaces.CompletionService
	options       interfaces.CompletionOptions
}

type Input struct {
	Retriever     *retrieve.UseCase
	Conversations *conversation.Manager
	Dispatcher    *reason.Dispatcher
	Completion    interfaces.CompletionService
	Options       interfaces.CompletionOptions
}

func New(input Input) *UseCase {
	return &UseCase{
		retriever:     input.Retriever,
		conversations: input.Conversations,
		dispatcher:    input.Dispatcher,
		completion:    input.Completion,
		options:       input.Options,
	}
}

// AskInput is one question. A zero SessionID starts a new session; zero
// Strategy/Collection fall back to the session settings.
type AskInput struct {
	SessionID  model.SessionID
	Question   string
	Strategy   string
	Collection string
	TopK       int

	// SkipRetrieval answers from conversation context only.
	SkipRetrieval bool
}

// Ask processes one question end to end. The returned Answer is always
// well-formed; a failed strategy or unknown strategy name comes back as
// Success=false, not an error. Errors are reserved for session and
// persistence problems the caller must handle.
func (u *UseCase) Ask(ctx context.Context, input *AskInput) (*model.Answer, error) {
	if input.Question == "" {
		return nil, goerr.New("question is empty")
	}
	logger := logging.From(ctx)

	session, err := u.session(ctx, input)
	if err != nil {
		return nil, err
	}

	history, err := u.conversations.ContextForLLM(ctx, session.ID, true)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to assemble conversation context")
	}

	var passages []*model.Match
	if !input.SkipRetrieval {
		passages = u.retrieveContext(ctx, session, input)
	}

	contexts := make([]string, len(passages))
	for i, p := range passages {
		contexts[i] = p.Entry.Text
	}

	strategyName := input.Strategy
	if strategyName == "" {
		strategyName = session.Strategy
	}

	answer, err := u.dispatcher.Process(ctx, strategyName, &reason.Input{
		Question:   input.Question,
		Context:    contexts,
		History:    history,
		Completion: u.completion,
		Options:    u.options,
	})
	if err != nil && !errors.Is(err, model.ErrStrategyNotFound) {
		return nil, err
	}
	answer.Sources = passages
	answer.SessionID = session.ID

	// Both turns are recorded even for failed answers: "could not
	// answer" is part of the conversation.
	if err := u.conversations.AddMessage(ctx, session.ID, model.RoleUser, input.Question, nil); err != nil {
		return nil, goerr.Wrap(err, "failed to record user message")
	}
	assistantMeta := map[string]any{
		"strategy": answer.Strategy,
		"success":  answer.Success,
		"sources":  len(passages),
	}
	if err := u.conversations.AddMessage(ctx, session.ID, model.RoleAssistant, answer.Answer, assistantMeta); err != nil {
		return nil, goerr.Wrap(err, "failed to record assistant message")
	}

	logger.Info("question answered",
		"session_id", session.ID,
		"strategy", answer.Strategy,
		"success", answer.Success,
		"sources", len(passages))
	return answer, nil
}

func (u *UseCase) session(ctx context.Context, input *AskInput) (*model.Session, error) {
	if input.SessionID == "" {
		session, err := u.conversations.Create(ctx, input.Strategy, input.Collection)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create session")
		}
		return session, nil
	}
	return u.conversations.Get(ctx, input.SessionID)
}

// retrieveContext searches the session's knowledge base. Retrieval
// problems degrade to an answer without context rather than failing the
// question: a missing collection or a broken embedding service still
// leaves the conversation usable.
func (u *UseCase) retrieveContext(ctx context.Context, session *model.Session, input *AskInput) []*model.Match {
	collection := input.Collection
	if collection == "" {
		collection = session.KnowledgeBase
	}
	topK := input.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}

	passages, err := u.retriever.Search(ctx, input.Question, collection, topK)
	if err != nil {
		logging.From(ctx).Warn("retrieval failed, answering without context",
			"collection", collection, "error", err)
		return nil
	}
	return passages
}
