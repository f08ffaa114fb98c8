package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ericfisherdev/prgate/internal/domain/model"
	"github.com/ericfisherdev/prgate/internal/domain/port/driven"
)

// ErrMergeVetoed is returned by MergePullRequest when the pull request carries
// the veto label. Its message is shown to API callers as-is.
var ErrMergeVetoed = errors.New(`Pull request has a "do not merge" label.`)

// PullRequestService proxies pull request reads to the provider and guards
// merges with the veto label check.
type PullRequestService struct {
	client driven.PullRequestClient
	logger *slog.Logger
}

// NewPullRequestService creates a PullRequestService backed by client.
func NewPullRequestService(client driven.PullRequestClient, logger *slog.Logger) *PullRequestService {
	return &PullRequestService{
		client: client,
		logger: logger,
	}
}

// ListPullRequests returns the provider's first page of pull requests for
// owner/repo without filtering.
func (s *PullRequestService) ListPullRequests(ctx context.Context, owner, repo string) ([]model.PullRequest, error) {
	return s.client.ListPullRequests(ctx, owner, repo)
}

// MergePullRequest fetches the pull request and merges it unless one of its
// labels is exactly model.VetoLabel, in which case ErrMergeVetoed is returned
// and no merge call is made. Provider errors from either step are returned
// unchanged.
func (s *PullRequestService) MergePullRequest(ctx context.Context, owner, repo string, number int) (*model.MergeResult, error) {
	pr, err := s.client.GetPullRequest(ctx, owner, repo, number)
	if err != nil {
		return nil, err
	}

	if pr.HasLabel(model.VetoLabel) {
		s.logger.Info("merge vetoed by label",
			"owner", owner,
			"repo", repo,
			"number", number,
			"label", model.VetoLabel,
		)
		return nil, ErrMergeVetoed
	}

	result, err := s.client.MergePullRequest(ctx, owner, repo, number)
	if err != nil {
		return nil, err
	}

	s.logger.Info("pull request merged",
		"owner", owner,
		"repo", repo,
		"number", number,
		"merged", result.Merged,
		"sha", result.SHA,
	)

	return result, nil
}
