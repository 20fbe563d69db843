package domain

// LabelError is the answer label used when a turn could not be answered.
// It is deliberately outside the routable Category set.
const LabelError = "error"

// SessionState is the router state of one conversation.
// Each session owns its own state; it is never shared between users.
type SessionState struct {
	// Label is the category assigned on the last successful turn.
	Label Category `json:"label,omitempty"`
}

// Handoff returns "<prev> -> <next>" when next differs from the current
// label, or "" when there is no previous label or it is unchanged.
func (s *SessionState) Handoff(next Category) string {
	if s == nil || s.Label == "" || s.Label == next {
		return ""
	}
	return string(s.Label) + " -> " + string(next)
}

// Advance records next as the current label and returns the handoff, if any.
func (s *SessionState) Advance(next Category) string {
	handoff := s.Handoff(next)
	if s != nil {
		s.Label = next
	}
	return handoff
}

// Prompt is the system and user prompt pair handed to the generator.
type Prompt struct {
	System string `json:"system"`
	User   string `json:"user"`
}

// Answer is the reply to one conversation turn.
// Failures use the same shape with Label set to LabelError.
type Answer struct {
	// Label is the routed category, or LabelError.
	Label string `json:"label"`

	// Reply is the generated text, or "Error: ..." on failure.
	Reply string `json:"reply"`

	// Sources is a numbered, human-readable rendering of the hits used.
	Sources string `json:"sources"`

	// Handoff is "<prev> -> <new>" when the category changed, else empty.
	Handoff string `json:"handoff,omitempty"`

	// Hits are the retrieved chunks the reply was grounded on.
	Hits []Hit `json:"hits,omitempty"`

	// PromptTokens is the token count of the composed prompt, when known.
	PromptTokens int `json:"prompt_tokens,omitempty"`
}

// IsError reports whether the answer is an error reply.
func (a Answer) IsError() bool {
	return a.Label == LabelError
}
