package github

import (
	"context"
	"fmt"

	"github.com/ericfisherdev/prgate/internal/domain/model"
	"github.com/ericfisherdev/prgate/internal/domain/port/driven"
)

// MergePullRequest merges a pull request using the repository's default merge
// method and commit message. Conflicts, missing permissions and unmergeable
// states all come back from the API as errors.
func (c *Client) MergePullRequest(ctx context.Context, owner, repo string, number int) (*model.MergeResult, error) {
	result, resp, err := c.gh.PullRequests.Merge(ctx, owner, repo, number, "", nil)
	if err != nil {
		return nil, fmt.Errorf("merging pull request %s/%s#%d: %w: %w", owner, repo, number, driven.ErrRemoteCall, err)
	}

	logRateLimit(resp, fmt.Sprintf("%s/%s#%d/merge", owner, repo, number), 1)

	return &model.MergeResult{
		SHA:     result.GetSHA(),
		Merged:  result.GetMerged(),
		Message: result.GetMessage(),
	}, nil
}
