package driven

import (
	"context"

	"github.com/arkivist-labs/arkivist-cli/internal/core/domain"
)

// HistoryStore persists conversation turns and operation records.
// Writes are fire-and-forget from the orchestrator's point of view:
// failures are logged and never fail the overall request.
type HistoryStore interface {
	// LogChatMessage appends one conversation turn.
	LogChatMessage(ctx context.Context, msg domain.ChatMessage) error

	// LogAIOperation appends one structured operation record.
	LogAIOperation(ctx context.Context, op domain.AIOperation) error

	// RecentMessages returns the most recent conversation turns,
	// newest first.
	RecentMessages(ctx context.Context, limit int) ([]domain.ChatMessage, error)

	// RecentOperations returns the most recent operation records,
	// newest first.
	RecentOperations(ctx context.Context, limit int) ([]domain.AIOperation, error)

	// Close releases resources.
	Close() error
}
