package domain

import "time"

// Turn is one completed question and answer exchange.
// Turns are append-only and kept in insertion order per session.
type Turn struct {
	// ID is the store-assigned sequence number.
	ID int64

	// SessionID groups turns into a conversation.
	SessionID string

	// Question is the user's question as asked.
	Question string

	// Answer is the generated answer.
	Answer string

	// Model is the generation model used for this turn.
	Model string

	// CreatedAt is when the turn was persisted.
	CreatedAt time.Time
}

// ChatRequest is a single question submitted to a session.
type ChatRequest struct {
	// SessionID is optional. A new one is generated when empty.
	SessionID string

	// Question is the user's question.
	Question string

	// Model overrides the configured generation model when set.
	Model string
}

// ChatResponse is the result of a completed turn.
type ChatResponse struct {
	Answer    string
	SessionID string
	Model     string

	// StandaloneQuestion is the rewritten question used for retrieval.
	StandaloneQuestion string

	// Sources are the chunks the answer was grounded on, best first.
	Sources []RetrievedChunk
}
