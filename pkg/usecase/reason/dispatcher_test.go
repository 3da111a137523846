package reason_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/pika/pkg/interfaces"
	"github.com/m-mizutani/pika/pkg/model"
	"github.com/m-mizutani/pika/pkg/usecase/reason"
)

type stubCompletion struct {
	response string
	err      error
	requests [][]model.Message
}

func (s *stubCompletion) Complete(ctx context.Context, messages []model.Message, opts interfaces.CompletionOptions) (string, error) {
	s.requests = append(s.requests, messages)
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func TestDispatcherNames(t *testing.T) {
	d := reason.NewDispatcher()
	gt.Equal(t, d.Names(), []string{"generation", "self_ask", "atomic_decomposition"})
}

func TestDispatcherList(t *testing.T) {
	d := reason.NewDispatcher()
	infos := d.List()
	gt.A(t, infos).Length(3)
	gt.Equal(t, infos[0].Name, "generation")
	gt.NotEqual(t, infos[0].Description, "")
}

func TestDispatcherUnknownStrategy(t *testing.T) {
	d := reason.NewDispatcher()

	answer, err := d.Process(context.Background(), "chain_of_thought", &reason.Input{
		Question:   "anything",
		Completion: &stubCompletion{response: "unused"},
	})

	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrStrategyNotFound))

	gt.V(t, answer).NotNil()
	gt.False(t, answer.Success)
	gt.Equal(t, answer.Strategy, "chain_of_thought")
	gt.Equal(t, answer.AvailableStrategies, []string{"generation", "self_ask", "atomic_decomposition"})
	gt.S(t, answer.Answer).Contains("chain_of_thought")
}

func TestGenerationStrategy(t *testing.T) {
	d := reason.NewDispatcher()
	completion := &stubCompletion{response: "Paris is the capital of France."}

	answer, err := d.Process(context.Background(), "generation", &reason.Input{
		Question:   "What is the capital of France?",
		Context:    []string{"France is a country in Europe.", "Its capital is Paris."},
		Completion: completion,
	})
	gt.NoError(t, err)

	gt.True(t, answer.Success)
	gt.Equal(t, answer.Strategy, "generation")
	gt.Equal(t, answer.Answer, "Paris is the capital of France.")
	gt.A(t, answer.ReasoningSteps).Length(3)
	gt.S(t, answer.ReasoningSteps[0]).Contains("2 relevant passages")

	// Without history the prompt is a single user message carrying both
	// the question and the numbered context passages.
	gt.A(t, completion.requests).Length(1)
	gt.A(t, completion.requests[0]).Length(1)
	prompt := completion.requests[0][0].Content
	gt.S(t, prompt).Contains("What is the capital of France?")
	gt.S(t, prompt).Contains("Its capital is Paris.")
}

func TestGenerationIncludesRecentHistory(t *testing.T) {
	d := reason.NewDispatcher()
	completion := &stubCompletion{response: "ok"}

	history := make([]model.Message, 0, 8)
	for i := 0; i < 8; i++ {
		history = append(history, model.Message{Role: model.RoleUser, Content: "turn"})
	}

	_, err := d.Process(context.Background(), "generation", &reason.Input{
		Question:   "follow-up question",
		History:    history,
		Completion: completion,
	})
	gt.NoError(t, err)

	// System guidance, five history turns, then the prompt.
	gt.A(t, completion.requests[0]).Length(7)
	gt.Equal(t, completion.requests[0][0].Role, model.RoleSystem)
}

func TestReasoningStrategiesUseNarrowerWindow(t *testing.T) {
	history := make([]model.Message, 0, 8)
	for i := 0; i < 8; i++ {
		history = append(history, model.Message{Role: model.RoleUser, Content: "turn"})
	}

	for _, name := range []string{"self_ask", "atomic_decomposition"} {
		t.Run(name, func(t *testing.T) {
			d := reason.NewDispatcher()
			completion := &stubCompletion{response: "ok"}

			answer, err := d.Process(context.Background(), name, &reason.Input{
				Question:   "why",
				Context:    []string{"some context"},
				History:    history,
				Completion: completion,
			})
			gt.NoError(t, err)
			gt.True(t, answer.Success)
			gt.Equal(t, answer.Strategy, name)

			// Three history turns plus the prompt, no system message.
			gt.A(t, completion.requests[0]).Length(4)
			gt.Equal(t, completion.requests[0][0].Role, model.RoleUser)
		})
	}
}

func TestStrategyCompletionFailure(t *testing.T) {
	d := reason.NewDispatcher()
	completion := &stubCompletion{err: goerr.New("model unavailable")}

	answer, err := d.Process(context.Background(), "generation", &reason.Input{
		Question:   "anything",
		Completion: completion,
	})
	gt.NoError(t, err)

	gt.False(t, answer.Success)
	gt.Equal(t, answer.Strategy, "generation")
	gt.S(t, answer.Answer).Contains("Error in generation strategy:")
	gt.S(t, answer.Error).Contains("model unavailable")
}
