package shortener

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sundayezeilo/tinylink/internal/errx"
	"github.com/sundayezeilo/tinylink/internal/httpx"
)

/***************
 * Mocks
 ***************/

// mockService implements Service for handler tests.
type mockService struct {
	createFunc  func(ctx context.Context, req CreateLinkRequest) (Link, error)
	getFunc     func(ctx context.Context, code string) (Link, error)
	resolveFunc func(ctx context.Context, code string) (string, error)
	deleteFunc  func(ctx context.Context, code string) error
	listFunc    func(ctx context.Context) ([]Link, error)
}

func (m *mockService) Create(ctx context.Context, req CreateLinkRequest) (Link, error) {
	return m.createFunc(ctx, req)
}

func (m *mockService) Get(ctx context.Context, code string) (Link, error) {
	return m.getFunc(ctx, code)
}

func (m *mockService) Resolve(ctx context.Context, code string) (string, error) {
	return m.resolveFunc(ctx, code)
}

func (m *mockService) Delete(ctx context.Context, code string) error {
	return m.deleteFunc(ctx, code)
}

func (m *mockService) List(ctx context.Context) ([]Link, error) {
	return m.listFunc(ctx)
}

func newTestHandler(svc Service) *Handler {
	return NewHandler(HandlerConfig{
		Service: svc,
		Logger:  slog.New(slog.NewJSONHandler(io.Discard, nil)),
		BaseURL: "http://sho.rt/",
	})
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) httpx.ErrorResponse {
	t.Helper()
	var resp httpx.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal error response %q: %v", rr.Body.String(), err)
	}
	return resp
}

/***************
 * CreateLink
 ***************/

func TestHandlerCreateLink(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("201 with link body", func(t *testing.T) {
		svc := &mockService{createFunc: func(_ context.Context, req CreateLinkRequest) (Link, error) {
			if req.URL != "http://shop.example/sale" || req.Code != "promo24" {
				t.Errorf("unexpected request %+v", req)
			}
			return Link{Code: "promo24", URL: "http://shop.example/sale", CreatedAt: created}, nil
		}}

		req := httptest.NewRequest(http.MethodPost, "/api/links",
			strings.NewReader(`{"url":"http://shop.example/sale","code":"promo24"}`))
		rr := httptest.NewRecorder()
		newTestHandler(svc).CreateLink(rr, req)

		if rr.Code != http.StatusCreated {
			t.Fatalf("status = %d, want %d (body %s)", rr.Code, http.StatusCreated, rr.Body.String())
		}

		var body map[string]any
		if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if body["code"] != "promo24" {
			t.Errorf("code = %v", body["code"])
		}
		if body["short_url"] != "http://sho.rt/promo24" {
			t.Errorf("short_url = %v", body["short_url"])
		}
		if body["click_count"] != float64(0) {
			t.Errorf("click_count = %v", body["click_count"])
		}
		if v, ok := body["last_clicked_at"]; !ok || v != nil {
			t.Errorf("last_clicked_at = %v (present=%v), want null", v, ok)
		}
		if body["created_at"] != "2024-05-01T12:00:00Z" {
			t.Errorf("created_at = %v", body["created_at"])
		}
	})

	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"malformed json", `{"url":`, nil, http.StatusBadRequest, "malformed_request"},
		{"unknown field", `{"url":"http://x.example","slug":"abc"}`, nil, http.StatusBadRequest, "malformed_request"},
		{"empty body", ``, nil, http.StatusBadRequest, "malformed_request"},
		{"invalid url", `{"url":"ftp://x"}`, errx.E("svc", errx.Invalid, ErrInvalidURL), http.StatusBadRequest, "invalid_url"},
		{"invalid code", `{"url":"http://x.example","code":"ab-12"}`, errx.E("svc", errx.Invalid, ErrInvalidCode), http.StatusBadRequest, "invalid_code"},
		{"code exists", `{"url":"http://x.example","code":"promo24"}`, errx.E("svc", errx.Conflict, ErrCodeExists), http.StatusConflict, "code_exists"},
		{"generation exhausted", `{"url":"http://x.example"}`, errx.E("svc", errx.Internal, ErrGenerationExhausted), http.StatusInternalServerError, "generation_exhausted"},
		{"store unavailable", `{"url":"http://x.example"}`, errx.E("svc", errx.Unavailable, errors.New("pool exhausted")), http.StatusServiceUnavailable, "unavailable"},
		{"unclassified", `{"url":"http://x.example"}`, errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockService{createFunc: func(context.Context, CreateLinkRequest) (Link, error) {
				if tt.err == nil {
					t.Fatal("service should not be called")
				}
				return Link{}, tt.err
			}}

			req := httptest.NewRequest(http.MethodPost, "/api/links", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			newTestHandler(svc).CreateLink(rr, req)

			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			if got := decodeError(t, rr); got.Error != tt.wantCode {
				t.Errorf("error code = %q, want %q", got.Error, tt.wantCode)
			}
		})
	}
}

/***************
 * ListLinks / GetLink / DeleteLink
 ***************/

func TestHandlerListLinks(t *testing.T) {
	t.Run("returns links in service order", func(t *testing.T) {
		svc := &mockService{listFunc: func(context.Context) ([]Link, error) {
			return []Link{{Code: "newer1"}, {Code: "older1"}}, nil
		}}

		rr := httptest.NewRecorder()
		newTestHandler(svc).ListLinks(rr, httptest.NewRequest(http.MethodGet, "/api/links", nil))

		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rr.Code)
		}
		var body []LinkResponse
		if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if len(body) != 2 || body[0].Code != "newer1" || body[1].ShortURL != "http://sho.rt/older1" {
			t.Errorf("body = %+v", body)
		}
	})

	t.Run("empty list is a JSON array", func(t *testing.T) {
		svc := &mockService{listFunc: func(context.Context) ([]Link, error) { return []Link{}, nil }}

		rr := httptest.NewRecorder()
		newTestHandler(svc).ListLinks(rr, httptest.NewRequest(http.MethodGet, "/api/links", nil))

		if got := strings.TrimSpace(rr.Body.String()); got != "[]" {
			t.Errorf("body = %s, want []", got)
		}
	})
}

func TestHandlerGetLink(t *testing.T) {
	clicked := time.Date(2024, 5, 2, 8, 30, 0, 0, time.UTC)

	t.Run("returns stats", func(t *testing.T) {
		svc := &mockService{getFunc: func(_ context.Context, code string) (Link, error) {
			return Link{Code: code, URL: "http://shop.example/sale", ClickCount: 3, LastClickedAt: &clicked}, nil
		}}

		req := httptest.NewRequest(http.MethodGet, "/api/links/promo24", nil)
		req.SetPathValue("code", "promo24")
		rr := httptest.NewRecorder()
		newTestHandler(svc).GetLink(rr, req)

		var body LinkResponse
		if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if body.ClickCount != 3 || body.LastClickedAt == nil || !body.LastClickedAt.Equal(clicked) {
			t.Errorf("body = %+v", body)
		}
	})

	t.Run("404 when missing", func(t *testing.T) {
		svc := &mockService{getFunc: func(context.Context, string) (Link, error) {
			return Link{}, errx.E("svc", errx.NotFound, ErrNotFound)
		}}

		rr := httptest.NewRecorder()
		newTestHandler(svc).GetLink(rr, httptest.NewRequest(http.MethodGet, "/api/links/zzzzzz", nil))

		if rr.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rr.Code)
		}
		if got := decodeError(t, rr); got.Error != "not_found" {
			t.Errorf("error code = %q, want not_found", got.Error)
		}
	})
}

func TestHandlerDeleteLink(t *testing.T) {
	t.Run("returns ok", func(t *testing.T) {
		var deleted string
		svc := &mockService{deleteFunc: func(_ context.Context, code string) error {
			deleted = code
			return nil
		}}

		req := httptest.NewRequest(http.MethodDelete, "/api/links/promo24", nil)
		req.SetPathValue("code", "promo24")
		rr := httptest.NewRecorder()
		newTestHandler(svc).DeleteLink(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rr.Code)
		}
		if strings.TrimSpace(rr.Body.String()) != `{"ok":true}` {
			t.Errorf("body = %s", rr.Body.String())
		}
		if deleted != "promo24" {
			t.Errorf("deleted = %q, want promo24", deleted)
		}
	})

	t.Run("404 when missing", func(t *testing.T) {
		svc := &mockService{deleteFunc: func(context.Context, string) error {
			return errx.E("svc", errx.NotFound, ErrNotFound)
		}}

		req := httptest.NewRequest(http.MethodDelete, "/api/links/promo24", nil)
		rr := httptest.NewRecorder()
		newTestHandler(svc).DeleteLink(rr, req)

		if rr.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rr.Code)
		}
	})
}

/***************
 * ResolveLink
 ***************/

func TestHandlerResolveLink(t *testing.T) {
	t.Run("302 to target", func(t *testing.T) {
		svc := &mockService{resolveFunc: func(_ context.Context, code string) (string, error) {
			if code != "promo24" {
				t.Errorf("code = %q, want promo24", code)
			}
			return "http://shop.example/sale", nil
		}}

		rr := httptest.NewRecorder()
		newTestHandler(svc).ResolveLink(rr, httptest.NewRequest(http.MethodGet, "/promo24", nil))

		if rr.Code != http.StatusFound {
			t.Fatalf("status = %d, want 302", rr.Code)
		}
		if loc := rr.Header().Get("Location"); loc != "http://shop.example/sale" {
			t.Errorf("Location = %q", loc)
		}
	})

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", errx.E("svc", errx.NotFound, ErrNotFound), http.StatusNotFound, "not_found"},
		{"unavailable", errx.E("svc", errx.Unavailable, context.DeadlineExceeded), http.StatusServiceUnavailable, "unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockService{resolveFunc: func(context.Context, string) (string, error) {
				return "", tt.err
			}}

			rr := httptest.NewRecorder()
			newTestHandler(svc).ResolveLink(rr, httptest.NewRequest(http.MethodGet, "/abc123", nil))

			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			if got := decodeError(t, rr); got.Error != tt.wantCode {
				t.Errorf("error code = %q, want %q", got.Error, tt.wantCode)
			}
		})
	}
}

/***************
 * Helpers
 ***************/

func TestCodeFromRequest(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		pathValue string
		want      string
	}{
		{"path value wins", "/ignored", "promo24", "promo24"},
		{"root path", "/abc123", "", "abc123"},
		{"api path", "/api/links/abc123", "", "abc123"},
		{"trailing slash", "/api/links/abc123/", "", "abc123"},
		{"empty", "/", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.pathValue != "" {
				req.SetPathValue("code", tt.pathValue)
			}
			if got := codeFromRequest(req); got != tt.want {
				t.Errorf("codeFromRequest() = %q, want %q", got, tt.want)
			}
		})
	}
}
