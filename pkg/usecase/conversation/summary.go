package conversation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/m-mizutani/pika/pkg/model"
)

const (
	summaryScanWindow    = 10 // recent messages considered
	minTopicContentLen   = 20 // user turns shorter than this carry no topic
	minTopicWordLen      = 5  // keywords must be longer than 4 letters
	maxTopicsPerTurn     = 3
	maxTopicsInSummary   = 5
)

// summarize builds the rolling context summary from recent user turns.
// It is a deliberately crude keyword heuristic, not an LLM call: salient
// words are long alphabetic tokens from recent questions. Swapping in a
// smarter summarizer is a behavior change, not a bug fix.
func summarize(messages []model.Message) string {
	recent := messages
	if len(recent) > summaryScanWindow {
		recent = recent[len(recent)-summaryScanWindow:]
	}

	var topics []string
	seen := map[string]bool{}
	for _, msg := range recent {
		if msg.Role != model.RoleUser || len(msg.Content) <= minTopicContentLen {
			continue
		}
		count := 0
		for _, word := range strings.Fields(strings.ToLower(msg.Content)) {
			if count >= maxTopicsPerTurn {
				break
			}
			if len([]rune(word)) < minTopicWordLen || !isAlphabetic(word) {
				continue
			}
			count++
			if !seen[word] {
				seen[word] = true
				topics = append(topics, word)
			}
		}
	}

	if len(topics) == 0 {
		return fmt.Sprintf("Conversation with %d messages", len(messages))
	}
	if len(topics) > maxTopicsInSummary {
		topics = topics[:maxTopicsInSummary]
	}
	return "Recent discussion topics: " + strings.Join(topics, ", ")
}

func isAlphabetic(word string) bool {
	for _, r := range word {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return len(word) > 0
}
