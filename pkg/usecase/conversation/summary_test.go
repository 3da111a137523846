package conversation

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/pika/pkg/model"
)

func user(content string) model.Message {
	return model.Message{Role: model.RoleUser, Content: content}
}

func assistant(content string) model.Message {
	return model.Message{Role: model.RoleAssistant, Content: content}
}

func TestSummarizeExtractsTopics(t *testing.T) {
	messages := []model.Message{
		user("explain vector embeddings and similarity search please"),
		assistant("Vector embeddings map text into..."),
	}

	summary := summarize(messages)
	gt.S(t, summary).Contains("Recent discussion topics:")
	gt.S(t, summary).Contains("explain")
	gt.S(t, summary).Contains("vector")
	gt.S(t, summary).Contains("embeddings")
}

func TestSummarizeSkipsShortAndAssistantTurns(t *testing.T) {
	messages := []model.Message{
		user("hi"),
		assistant("lengthy assistant explanation about quantum chromodynamics"),
		user("ok thanks"),
	}

	summary := summarize(messages)
	gt.Equal(t, summary, "Conversation with 3 messages")
}

func TestSummarizeIgnoresShortAndNonAlphabeticWords(t *testing.T) {
	messages := []model.Message{
		user("why does http2 use tcp and tls1.3 under multiplexed streams"),
	}

	summary := summarize(messages)
	// Tokens with digits or fewer than five letters never become topics.
	gt.S(t, summary).NotContains("http2")
	gt.S(t, summary).NotContains("tls1.3")
	gt.S(t, summary).NotContains("tcp")
	gt.S(t, summary).Contains("multiplexed")
}

func TestSummarizeCapsTopics(t *testing.T) {
	messages := []model.Message{
		user("alpha1 bravo charlie deltas echoes foxtrots golfs hotels indias"),
		user("juliet kilos limas mikes novembers oscars papas quebecs romeos"),
		user("sierra tangos uniforms victors whiskeys xrays yankees zulus"),
	}

	summary := summarize(messages)
	gt.S(t, summary).Contains("Recent discussion topics:")

	// Three turns at three topics each, capped to five in total.
	gt.S(t, summary).Contains("bravo")
	gt.S(t, summary).Contains("charlie")
	gt.S(t, summary).Contains("deltas")
	gt.S(t, summary).Contains("juliet")
	gt.S(t, summary).Contains("kilos")
	gt.S(t, summary).NotContains("limas")
	gt.S(t, summary).NotContains("sierra")
}

func TestSummarizeDeterministic(t *testing.T) {
	messages := []model.Message{
		user("comparing kafka streams against flink windowing semantics"),
		user("comparing kafka streams against flink windowing semantics"),
	}

	first := summarize(messages)
	second := summarize(messages)
	gt.Equal(t, first, second)
}
