package reason

import (
	"context"
	_ "embed"

	"github.com/m-mizutani/pika/pkg/model"
)

//go:embed prompt/atomic_decomposition.md
var atomicPromptRaw string

var atomicPrompt = mustParsePrompt("atomic_decomposition", atomicPromptRaw)

// AtomicDecomposition breaks the question into fact-level components and
// synthesizes the answer from them.
type AtomicDecomposition struct{}

func (AtomicDecomposition) Name() string { return "atomic_decomposition" }

func (AtomicDecomposition) Description() string {
	return "Decompose complex questions into atomic facts and reason systematically"
}

func (a AtomicDecomposition) Process(ctx context.Context, input *Input) *model.Answer {
	prompt, err := renderPrompt(atomicPrompt, input)
	if err != nil {
		return failed(a.Name(), err)
	}

	messages := append([]model.Message{}, recentHistory(input.History, reasoningHistoryWindow)...)
	messages = append(messages, model.Message{Role: model.RoleUser, Content: prompt})

	response, err := input.Completion.Complete(ctx, messages, input.Options)
	if err != nil {
		return failed(a.Name(), err)
	}

	return &model.Answer{
		Success:   true,
		Strategy:  a.Name(),
		Answer:    response,
		Rationale: "Used atomic decomposition to systematically analyze and answer the question",
		ReasoningSteps: []string{
			"Decomposed question into atomic facts",
			"Analyzed each atomic component against available context",
			"Synthesized atomic facts into comprehensive answer",
		},
	}
}
