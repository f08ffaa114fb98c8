package httphandler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ericfisherdev/prgate/internal/application"
	"github.com/ericfisherdev/prgate/internal/domain/model"
	"github.com/ericfisherdev/prgate/internal/domain/port/driven"
)

// Failure messages returned to callers with a 500 status. The underlying
// error is logged, never exposed.
const (
	msgAddRepoFailed         = "Failed to add repository."
	msgRemoveRepoFailed      = "Failed to remove repository."
	msgListReposFailed       = "Failed to fetch repositories."
	msgListPullsFailed       = "Failed to fetch pull requests."
	msgMergeFailed           = "Failed to merge pull request."
	msgGenerateConfigsFailed = "Failed to generate configurations."

	msgRepoRemoved        = "Repository removed."
	msgConfigsGenerated   = "Configurations generated successfully."
	msgInvalidRequestBody = "invalid request body"
)

// PullRequestService is the application behaviour the handler needs for the
// pull request routes.
type PullRequestService interface {
	ListPullRequests(ctx context.Context, owner, repo string) ([]model.PullRequest, error)
	MergePullRequest(ctx context.Context, owner, repo string, number int) (*model.MergeResult, error)
}

var _ PullRequestService = (*application.PullRequestService)(nil)

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	repoStore driven.RepoStore
	prSvc     PullRequestService
	configs   driven.ConfigGenerator
	logger    *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(
	repoStore driven.RepoStore,
	prSvc PullRequestService,
	configs driven.ConfigGenerator,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		repoStore: repoStore,
		prSvc:     prSvc,
		configs:   configs,
		logger:    logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with request id, logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /repositories", h.handle(msgAddRepoFailed, h.AddRepository))
	mux.HandleFunc("DELETE /repositories", h.handle(msgRemoveRepoFailed, h.RemoveRepository))
	mux.HandleFunc("GET /repositories", h.handle(msgListReposFailed, h.ListRepositories))
	mux.HandleFunc("GET /repositories/{repository_name}/pull-requests",
		h.handle(msgListPullsFailed, h.ListPullRequests))
	mux.HandleFunc("POST /repositories/{repository_name}/pull-requests/{pull_request_id}/merge",
		h.handle(msgMergeFailed, h.MergePullRequest))
	mux.HandleFunc("GET /generate-configs", h.handle(msgGenerateConfigsFailed, h.GenerateConfigs))
	mux.HandleFunc("GET /health", h.Health)

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)
	wrapped = requestIDMiddleware(wrapped)

	return wrapped
}

// apiFunc is a route handler that reports failure by returning an error
// instead of writing the error response itself.
type apiFunc func(w http.ResponseWriter, r *http.Request) error

// statusError is an error that carries its own client-facing status and
// message. Any other error becomes a 500 with the route's failure message.
type statusError struct {
	status  int
	message string
	err     error
}

func (e *statusError) Error() string {
	if e.err == nil {
		return e.message
	}
	return e.message + ": " + e.err.Error()
}

func (e *statusError) Unwrap() error { return e.err }

// handle adapts fn to an http.HandlerFunc and translates its error into the
// JSON error body. This is the only place route errors are turned into
// responses.
func (h *Handler) handle(failureMessage string, fn apiFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := fn(w, r)
		if err == nil {
			return
		}

		var se *statusError
		if errors.As(err, &se) {
			h.logger.Debug("request rejected",
				"method", r.Method,
				"path", r.URL.Path,
				"status", se.status,
				"request_id", RequestIDFromContext(r.Context()),
				"error", err,
			)
			writeError(w, se.status, se.message)
			return
		}

		h.logger.Error(failureMessage,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", RequestIDFromContext(r.Context()),
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, failureMessage)
	}
}

// AddRepository stores a new repository record from the request body.
func (h *Handler) AddRepository(w http.ResponseWriter, r *http.Request) error {
	req, err := decodeRepositoryRequest(r)
	if err != nil {
		return err
	}

	repo, err := h.repoStore.Create(r.Context(), req.RepositoryName, req.Owner)
	if err != nil {
		return fmt.Errorf("create repository %s/%s: %w", req.Owner, req.RepositoryName, err)
	}

	writeJSON(w, http.StatusCreated, toRepositoryResponse(repo))
	return nil
}

// RemoveRepository deletes every record matching the name and owner in the
// request body. Removing nothing is still a success.
func (h *Handler) RemoveRepository(w http.ResponseWriter, r *http.Request) error {
	req, err := decodeRepositoryRequest(r)
	if err != nil {
		return err
	}

	n, err := h.repoStore.DeleteMatching(r.Context(), req.RepositoryName, req.Owner)
	if err != nil {
		return fmt.Errorf("delete repository %s/%s: %w", req.Owner, req.RepositoryName, err)
	}

	h.logger.Info("repository records removed",
		"owner", req.Owner,
		"name", req.RepositoryName,
		"count", n,
	)

	writeJSON(w, http.StatusOK, MessageResponse{Message: msgRepoRemoved})
	return nil
}

// ListRepositories returns every stored repository record.
func (h *Handler) ListRepositories(w http.ResponseWriter, r *http.Request) error {
	repos, err := h.repoStore.ListAll(r.Context())
	if err != nil {
		return fmt.Errorf("list repositories: %w", err)
	}

	resp := make([]RepositoryResponse, 0, len(repos))
	for _, repo := range repos {
		resp = append(resp, toRepositoryResponse(repo))
	}

	writeJSON(w, http.StatusOK, resp)
	return nil
}

// ListPullRequests proxies the provider's pull request list for the
// repository in the path and the owner in the query string.
func (h *Handler) ListPullRequests(w http.ResponseWriter, r *http.Request) error {
	owner := r.URL.Query().Get("owner")
	repo := r.PathValue("repository_name")

	prs, err := h.prSvc.ListPullRequests(r.Context(), owner, repo)
	if err != nil {
		return fmt.Errorf("list pull requests for %s/%s: %w", owner, repo, err)
	}

	writeJSON(w, http.StatusOK, toPullRequestList(prs))
	return nil
}

// MergePullRequest merges a pull request unless it carries the veto label.
func (h *Handler) MergePullRequest(w http.ResponseWriter, r *http.Request) error {
	owner := r.URL.Query().Get("owner")
	repo := r.PathValue("repository_name")
	rawID := r.PathValue("pull_request_id")

	number, err := parsePullRequestID(rawID)
	if err != nil {
		return err
	}

	result, err := h.prSvc.MergePullRequest(r.Context(), owner, repo, number)
	if errors.Is(err, application.ErrMergeVetoed) {
		return &statusError{status: http.StatusBadRequest, message: err.Error(), err: err}
	}
	if err != nil {
		return fmt.Errorf("merge pull request %s/%s#%d: %w", owner, repo, number, err)
	}

	writeJSON(w, http.StatusOK, toMergeResponse(*result))
	return nil
}

// GenerateConfigs writes the Dockerfile and Terraform templates.
func (h *Handler) GenerateConfigs(w http.ResponseWriter, r *http.Request) error {
	if err := h.configs.Generate(r.Context()); err != nil {
		return fmt.Errorf("generate configurations: %w", err)
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: msgConfigsGenerated})
	return nil
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// parsePullRequestID reads the leading integer of raw and ignores whatever
// follows it, so "12abc" is 12. Leading whitespace and a sign are allowed and
// a 0x prefix selects hex. Input that does not start with a digit is an error.
func parsePullRequestID(raw string) (int, error) {
	s := strings.TrimLeft(raw, " \t\n\r\v\f")

	negative := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		negative = s[0] == '-'
		s = s[1:]
	}

	base := 10
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		base = 16
		s = s[2:]
	}

	end := 0
	for end < len(s) && isDigit(s[end], base) {
		end++
	}
	if end == 0 {
		return 0, fmt.Errorf("parse pull request id %q: no leading digits", raw)
	}

	n, err := strconv.ParseInt(s[:end], base, 0)
	if err != nil {
		return 0, fmt.Errorf("parse pull request id %q: %w", raw, err)
	}
	if negative {
		n = -n
	}

	return int(n), nil
}

func isDigit(c byte, base int) bool {
	switch {
	case c >= '0' && c <= '9':
		return true
	case base == 16:
		return (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
	default:
		return false
	}
}

// decodeRepositoryRequest reads the repository body. An empty body yields
// empty fields; malformed JSON is a 400.
func decodeRepositoryRequest(r *http.Request) (RepositoryRequest, error) {
	var req RepositoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return req, &statusError{status: http.StatusBadRequest, message: msgInvalidRequestBody, err: err}
	}
	return req, nil
}
