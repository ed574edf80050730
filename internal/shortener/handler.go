package shortener

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/sundayezeilo/tinylink/internal/errx"
	"github.com/sundayezeilo/tinylink/internal/httpx"
)

// HTTPCreateLinkRequest represents the JSON request body for creating a link.
type HTTPCreateLinkRequest struct {
	URL  string `json:"url"`
	Code string `json:"code,omitempty"`
}

// LinkResponse is the JSON representation of a link.
type LinkResponse struct {
	Code          string     `json:"code"`
	URL           string     `json:"url"`
	ClickCount    int64      `json:"click_count"`
	LastClickedAt *time.Time `json:"last_clicked_at"`
	CreatedAt     time.Time  `json:"created_at"`
	ShortURL      string     `json:"short_url"`
}

// DeleteLinkResponse is returned after a successful delete.
type DeleteLinkResponse struct {
	OK bool `json:"ok"`
}

// Handler provides HTTP handlers for the URL shortener service.
type Handler struct {
	service Service
	logger  *slog.Logger
	baseURL string
}

// HandlerConfig holds configuration for the handler.
type HandlerConfig struct {
	Service Service
	Logger  *slog.Logger
	BaseURL string // Base URL for constructing short URLs (e.g., "https://short.ly")
}

// NewHandler creates a new Handler instance.
func NewHandler(cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		service: cfg.Service,
		logger:  logger,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}
}

func (h *Handler) requestLogger(r *http.Request) *slog.Logger {
	return h.logger.With(
		"request_id", httpx.GetRequestID(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
	)
}

func (h *Handler) toResponse(l Link) LinkResponse {
	return LinkResponse{
		Code:          l.Code,
		URL:           l.URL,
		ClickCount:    l.ClickCount,
		LastClickedAt: l.LastClickedAt,
		CreatedAt:     l.CreatedAt,
		ShortURL:      h.baseURL + "/" + l.Code,
	}
}

// CreateLink handles POST /api/links.
func (h *Handler) CreateLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)

	req, err := httpx.DecodeJSON[HTTPCreateLinkRequest](r)
	if err != nil {
		logger.WarnContext(ctx, "failed to decode request", "error", err.Error())
		httpx.WriteError(w, http.StatusBadRequest, "malformed_request", err.Error(), nil)
		return
	}

	link, err := h.service.Create(ctx, CreateLinkRequest{
		URL:  req.URL,
		Code: req.Code,
	})
	if err != nil {
		h.handleError(ctx, logger, w, err)
		return
	}

	logger.InfoContext(ctx, "link created",
		"code", link.Code,
		"custom_code", req.Code != "",
	)

	httpx.WriteJSON(w, http.StatusCreated, h.toResponse(link))
}

// ListLinks handles GET /api/links.
func (h *Handler) ListLinks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	links, err := h.service.List(ctx)
	if err != nil {
		h.handleError(ctx, h.requestLogger(r), w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, lo.Map(links, func(l Link, _ int) LinkResponse {
		return h.toResponse(l)
	}))
}

// GetLink handles GET /api/links/{code}. It reports stats without counting a click.
func (h *Handler) GetLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	code := codeFromRequest(r)

	link, err := h.service.Get(ctx, code)
	if err != nil {
		h.handleError(ctx, h.requestLogger(r).With("code", code), w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, h.toResponse(link))
}

// DeleteLink handles DELETE /api/links/{code}.
func (h *Handler) DeleteLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	code := codeFromRequest(r)
	logger := h.requestLogger(r).With("code", code)

	if err := h.service.Delete(ctx, code); err != nil {
		h.handleError(ctx, logger, w, err)
		return
	}

	logger.InfoContext(ctx, "link deleted")
	httpx.WriteJSON(w, http.StatusOK, DeleteLinkResponse{OK: true})
}

// ResolveLink handles GET /{code}: it counts the click and redirects to the
// target URL.
func (h *Handler) ResolveLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	code := codeFromRequest(r)

	target, err := h.service.Resolve(ctx, code)
	if err != nil {
		h.handleError(ctx, h.requestLogger(r).With("code", code), w, err)
		return
	}

	h.logger.DebugContext(ctx, "code resolved",
		"request_id", httpx.GetRequestID(ctx),
		"code", code,
		"referer", r.Referer(),
	)

	httpx.Redirect(w, r, target)
}

// handleError maps service errors to HTTP responses. Sentinels pick the
// response code; anything else falls back to its errx.Kind.
func (h *Handler) handleError(ctx context.Context, logger *slog.Logger, w http.ResponseWriter, err error) {
	kind := errx.KindOf(err)

	logAttrs := []any{
		"error", err.Error(),
		"error_kind", kind,
		"operation", errx.OpOf(err),
	}

	switch {
	case errors.Is(err, ErrInvalidURL):
		logger.WarnContext(ctx, "invalid url", logAttrs...)
		httpx.WriteError(w, http.StatusBadRequest, "invalid_url", err.Error(), nil)

	case errors.Is(err, ErrInvalidCode):
		logger.WarnContext(ctx, "invalid code", logAttrs...)
		httpx.WriteError(w, http.StatusBadRequest, "invalid_code", err.Error(), nil)

	case errors.Is(err, ErrCodeExists):
		logger.WarnContext(ctx, "code conflict", logAttrs...)
		httpx.WriteError(w, http.StatusConflict, "code_exists",
			"This code is already taken",
			map[string]string{
				"hint": "Try a different custom code or let us generate one for you",
			})

	case errors.Is(err, ErrNotFound):
		logger.InfoContext(ctx, "link not found", logAttrs...)
		// Deleted and never-created codes get the same response.
		httpx.WriteError(w, http.StatusNotFound, "not_found", "short link doesn't exist", nil)

	case errors.Is(err, ErrGenerationExhausted):
		logger.ErrorContext(ctx, "code generation exhausted", logAttrs...)
		httpx.WriteError(w, http.StatusInternalServerError, "generation_exhausted",
			"Unable to allocate a short code. Please try again.", nil)

	case kind == errx.Unavailable:
		logger.ErrorContext(ctx, "store unavailable", logAttrs...)
		httpx.WriteError(w, http.StatusServiceUnavailable, "unavailable",
			"The service is temporarily unavailable. Please try again.", nil)

	default:
		logger.ErrorContext(ctx, "unexpected error", logAttrs...)
		httpx.WriteError(w, httpx.ErrorKindToStatus(kind), httpx.ErrorKindToCode(kind),
			"An unexpected error occurred", nil)
	}
}

// codeFromRequest returns the {code} path value, falling back to the last path
// segment when the handler is invoked outside a pattern-matching mux.
func codeFromRequest(r *http.Request) string {
	if code := r.PathValue("code"); code != "" {
		return code
	}
	return extractCodeFromPath(r.URL.Path)
}

// extractCodeFromPath extracts the code from a URL path.
// For example, "/abc123" returns "abc123", "/api/links/abc123" returns "abc123".
func extractCodeFromPath(path string) string {
	path = strings.TrimSuffix(path, "/")
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}
