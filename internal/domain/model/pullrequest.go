package model

import "encoding/json"

// VetoLabel blocks a merge when present on a pull request. Matching is exact
// and case-sensitive.
const VetoLabel = "do not merge"

// PullRequest is a live view of a provider pull request. It is never persisted.
type PullRequest struct {
	Number int
	Title  string
	State  string
	Labels []string

	// Raw is the provider's JSON for this pull request, passed through to
	// API callers unchanged.
	Raw json.RawMessage
}

// HasLabel reports whether the pull request carries a label named exactly name.
func (pr PullRequest) HasLabel(name string) bool {
	for _, l := range pr.Labels {
		if l == name {
			return true
		}
	}
	return false
}

// MergeResult is the provider's answer to a merge request.
type MergeResult struct {
	SHA     string
	Merged  bool
	Message string
}
