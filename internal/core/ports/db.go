package ports

import (
	"context"

	"github.com/sova-network/sova-sentinel/internal/core/domain"
)

// RepoManager gives access to the repositories and lets callers run a set of
// operations within a single storage transaction.
type RepoManager interface {
	SlotLockRepository() domain.SlotLockRepository

	// RunTransaction executes handler within a storage transaction carried by
	// the context passed to it: either every operation commits or none does.
	// Write transactions are serialized with one another, reads run against
	// the last committed snapshot.
	RunTransaction(
		ctx context.Context,
		readOnly bool,
		handler func(ctx context.Context) error,
	) error

	Close()
}
