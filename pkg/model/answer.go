package model

// Answer is the result of one reasoning pass over a question. A failed
// pass is still a well-formed Answer: Success is false and Answer carries
// text describing what went wrong. "Could not answer" is a valid terminal
// outcome, not a system fault.
type Answer struct {
	Success        bool
	Strategy       string
	Answer         string
	Rationale      string
	ReasoningSteps []string

	// Sources are the retrieved passages that were offered to the
	// strategy as context.
	Sources []*Match

	// AvailableStrategies is populated when the requested strategy name
	// was unknown.
	AvailableStrategies []string

	// SessionID is the conversation this answer was appended to.
	SessionID SessionID

	Error string
}
