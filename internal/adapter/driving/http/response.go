package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/prgate/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// RepositoryRequest is the JSON body for the add and remove repository endpoints.
type RepositoryRequest struct {
	RepositoryName string `json:"repository_name"`
	Owner          string `json:"owner"`
}

// RepositoryResponse is the JSON representation of a stored repository record.
type RepositoryResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Owner     string `json:"owner"`
	CreatedAt string `json:"created_at"`
}

// MessageResponse is a plain confirmation body.
type MessageResponse struct {
	Message string `json:"message"`
}

// MergeResponse mirrors the provider's merge result.
type MergeResponse struct {
	SHA     string `json:"sha"`
	Merged  bool   `json:"merged"`
	Message string `json:"message"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

func toRepositoryResponse(repo model.Repository) RepositoryResponse {
	return RepositoryResponse{
		ID:        repo.ID,
		Name:      repo.Name,
		Owner:     repo.Owner,
		CreatedAt: repo.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// toPullRequestList returns the provider's own JSON for each pull request so
// callers see every field the provider sent.
func toPullRequestList(prs []model.PullRequest) []json.RawMessage {
	resp := make([]json.RawMessage, 0, len(prs))
	for _, pr := range prs {
		resp = append(resp, pr.Raw)
	}
	return resp
}

func toMergeResponse(res model.MergeResult) MergeResponse {
	return MergeResponse(res)
}
