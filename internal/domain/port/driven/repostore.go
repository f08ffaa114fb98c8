package driven

import (
	"context"

	"github.com/ericfisherdev/prgate/internal/domain/model"
)

// RepoStore defines the driven port for repository record persistence.
// Every method wraps store failures with ErrStorage.
type RepoStore interface {
	// Create inserts a record and returns it with its generated ID.
	Create(ctx context.Context, name, owner string) (model.Repository, error)
	// DeleteMatching removes every record with exactly this name and owner
	// and reports how many were removed. Zero matches is not an error.
	DeleteMatching(ctx context.Context, name, owner string) (int64, error)
	// ListAll returns every stored record.
	ListAll(ctx context.Context) ([]model.Repository, error)
}
