package driving

import (
	"context"

	"github.com/arkivist-labs/arkivist-cli/internal/core/domain"
)

// HistoryService exposes the persisted conversation and operation log.
// This is used by the CLI history command.
type HistoryService interface {
	// RecentMessages returns the most recent conversation turns,
	// newest first. Without a configured history store it returns an
	// empty slice.
	RecentMessages(ctx context.Context, limit int) ([]domain.ChatMessage, error)

	// RecentOperations returns the most recent operation records,
	// newest first. Without a configured history store it returns an
	// empty slice.
	RecentOperations(ctx context.Context, limit int) ([]domain.AIOperation, error)
}
