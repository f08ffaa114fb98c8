package driven

import (
	"context"

	"github.com/ericfisherdev/prgate/internal/domain/model"
)

// PullRequestClient defines the driven port for the provider's pull request API.
// Every method wraps remote failures with ErrRemoteCall.
type PullRequestClient interface {
	// ListPullRequests returns the first page of pull requests for owner/repo.
	ListPullRequests(ctx context.Context, owner, repo string) ([]model.PullRequest, error)
	// GetPullRequest returns a single pull request including its labels.
	GetPullRequest(ctx context.Context, owner, repo string, number int) (*model.PullRequest, error)
	// MergePullRequest merges the pull request with the repository's default method.
	MergePullRequest(ctx context.Context, owner, repo string, number int) (*model.MergeResult, error)
}
