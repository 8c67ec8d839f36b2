package httpapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "mathbot/internal/platform/errors"
	"mathbot/internal/platform/httpapi"
)

func TestStatusForMapsSentinels(t *testing.T) {
	t.Parallel()
	cases := []struct {
		err  error
		want int
	}{
		{err: fmt.Errorf("bad id: %w", apperrors.ErrInvalidInput), want: http.StatusBadRequest},
		{err: fmt.Errorf("lesson 9: %w", apperrors.ErrNotFound), want: http.StatusNotFound},
		{err: fmt.Errorf("%w: offline", apperrors.ErrCatalogUnavailable), want: http.StatusServiceUnavailable},
		{err: context.DeadlineExceeded, want: http.StatusGatewayTimeout},
		{err: errors.New("boom"), want: http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got, _ := httpapi.StatusFor(tc.err); got != tc.want {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.want, got)
		}
	}
}

func TestHandleErrorHidesInternalDetails(t *testing.T) {
	t.Parallel()
	rec := httptest.NewRecorder()
	httpapi.HandleError(rec, nil, errors.New("sqlite: disk I/O error"))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	body := httpapi.ErrorBody{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if strings.Contains(body.Error.Message, "sqlite") {
		t.Fatalf("internal error leaked: %s", body.Error.Message)
	}
}

func TestRouterAnswersCORSPreflight(t *testing.T) {
	t.Parallel()
	router := httpapi.NewRouter(nil, []string{"http://localhost:5173"})
	router.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		httpapi.RespondJSON(w, http.StatusOK, map[string]string{"ok": "yes"})
	})

	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("expected allowed origin header, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok":"yes"`) {
		t.Fatalf("unexpected response: %d %s", rec.Code, rec.Body.String())
	}
}

func TestDecodeJSONAllowsEmptyBody(t *testing.T) {
	t.Parallel()
	dst := struct{ Completed *bool }{}
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	if err := httpapi.DecodeJSON(req, &dst); err != nil || dst.Completed != nil {
		t.Fatalf("expected empty body to be ignored: %v", err)
	}
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"completed":`))
	if err := httpapi.DecodeJSON(req, &dst); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}
