package reason

import (
	"context"
	"strings"
	"text/template"

	"github.com/m-mizutani/pika/pkg/interfaces"
	"github.com/m-mizutani/pika/pkg/model"
)

// Input carries everything a strategy needs for one pass: the question,
// retrieved context passages, the bounded conversation history, and the
// completion service to call. Strategies are stateless; all variation
// lives in how they assemble the prompt.
type Input struct {
	Question   string
	Context    []string
	History    []model.Message
	Completion interfaces.CompletionService
	Options    interfaces.CompletionOptions
}

// Strategy is one named procedure for turning (question, context, history)
// into an answer.
type Strategy interface {
	Name() string
	Description() string
	Process(ctx context.Context, input *Input) *model.Answer
}

var promptFuncs = template.FuncMap{
	"join": strings.Join,
	"inc":  func(i int) int { return i + 1 },
}

func mustParsePrompt(name, raw string) *template.Template {
	return template.Must(template.New(name).Funcs(promptFuncs).Parse(raw))
}

func renderPrompt(tmpl *template.Template, input *Input) (string, error) {
	var sb strings.Builder
	if err := tmpl.Execute(&sb, input); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// recentHistory returns the last n turns of the history window. Reasoning
// strategies consume more tokens per turn than direct generation, so they
// budget a smaller window.
func recentHistory(history []model.Message, n int) []model.Message {
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}

// failed builds the well-formed failure Answer used when the completion
// service errors out. The caller always gets a result, never a crash.
func failed(strategy string, err error) *model.Answer {
	return &model.Answer{
		Success:  false,
		Strategy: strategy,
		Answer:   "Error in " + strategy + " strategy: " + err.Error(),
		Error:    err.Error(),
	}
}
