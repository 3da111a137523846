package reason

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/m-mizutani/pika/pkg/model"
)

//go:embed prompt/generation.md
var generationPromptRaw string

var generationPrompt = mustParsePrompt("generation", generationPromptRaw)

// generationHistoryWindow is wider than the reasoning strategies' window:
// a direct answer spends fewer tokens per turn.
const generationHistoryWindow = 5

// Generation answers the question directly from the retrieved context.
type Generation struct{}

func (Generation) Name() string { return "generation" }

func (Generation) Description() string {
	return "Direct question answering with retrieved context"
}

func (g Generation) Process(ctx context.Context, input *Input) *model.Answer {
	prompt, err := renderPrompt(generationPrompt, input)
	if err != nil {
		return failed(g.Name(), err)
	}

	history := recentHistory(input.History, generationHistoryWindow)

	var messages []model.Message
	if len(history) > 0 {
		messages = append(messages, model.Message{
			Role:    model.RoleSystem,
			Content: "Continue the conversation naturally, taking into account the previous context.",
		})
		messages = append(messages, history...)
	}
	messages = append(messages, model.Message{Role: model.RoleUser, Content: prompt})

	response, err := input.Completion.Complete(ctx, messages, input.Options)
	if err != nil {
		return failed(g.Name(), err)
	}

	return &model.Answer{
		Success:   true,
		Strategy:  g.Name(),
		Answer:    response,
		Rationale: "Generated a direct answer grounded in the retrieved context",
		ReasoningSteps: []string{
			fmt.Sprintf("Retrieved %d relevant passages", len(input.Context)),
			fmt.Sprintf("Considered last %d conversation turns", len(history)),
			"Generated direct answer using context",
		},
	}
}
