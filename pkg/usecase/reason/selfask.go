package reason

import (
	"context"
	_ "embed"

	"github.com/m-mizutani/pika/pkg/model"
)

//go:embed prompt/self_ask.md
var selfAskPromptRaw string

var selfAskPrompt = mustParsePrompt("self_ask", selfAskPromptRaw)

// reasoningHistoryWindow is shared by the decomposition strategies, which
// spend more tokens per turn and budget history accordingly.
const reasoningHistoryWindow = 3

// SelfAsk decomposes the question into explicit sub-questions and answers
// them step by step.
type SelfAsk struct{}

func (SelfAsk) Name() string { return "self_ask" }

func (SelfAsk) Description() string {
	return "Break complex questions into sub-questions and answer step by step"
}

func (s SelfAsk) Process(ctx context.Context, input *Input) *model.Answer {
	prompt, err := renderPrompt(selfAskPrompt, input)
	if err != nil {
		return failed(s.Name(), err)
	}

	messages := append([]model.Message{}, recentHistory(input.History, reasoningHistoryWindow)...)
	messages = append(messages, model.Message{Role: model.RoleUser, Content: prompt})

	response, err := input.Completion.Complete(ctx, messages, input.Options)
	if err != nil {
		return failed(s.Name(), err)
	}

	return &model.Answer{
		Success:   true,
		Strategy:  s.Name(),
		Answer:    response,
		Rationale: "Used self-ask reasoning to break down and answer the question step by step",
		ReasoningSteps: []string{
			"Analyzed question complexity for self-ask reasoning",
			"Broke down question into sub-questions",
			"Answered each sub-question systematically",
		},
	}
}
