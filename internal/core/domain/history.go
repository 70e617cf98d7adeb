package domain

import "time"

// ChatRole identifies the author of a chat message.
type ChatRole string

// Chat roles.
const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// ChatMessage is one turn of a conversation, persisted by the history
// collaborator. Assistant turns carry the list of source documents that
// grounded the answer.
type ChatMessage struct {
	// ID is the unique message identifier.
	ID string

	// Role is who authored the message.
	Role ChatRole

	// Content is the message text.
	Content string

	// SourceIDs lists the documents cited by an assistant turn.
	SourceIDs []string

	// CreatedAt is when the message was logged.
	CreatedAt time.Time
}

// AIOperation is a structured record of one retrieval-augmented exchange.
type AIOperation struct {
	// ID is the unique operation identifier.
	ID string

	// Kind names the operation (e.g. "rag_answer").
	Kind string

	// Query is the user query.
	Query string

	// Backend and Model identify what produced the answer.
	Backend string
	Model   string

	// PassageCount is the number of passages used.
	PassageCount int

	// DurationMs is the total wall time in milliseconds.
	DurationMs int64

	// CacheHit is true when retrieval was served from the query cache.
	CacheHit bool

	// CreatedAt is when the operation was logged.
	CreatedAt time.Time
}
