package out_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	catalogadapter "mathbot/internal/modules/catalog/adapter/out"
	"mathbot/internal/modules/catalog/domain"
	apperrors "mathbot/internal/platform/errors"
	"mathbot/internal/platform/kv"
)

func TestHTTPFetcherExtractsUnidades(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/lessons/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"unidades": [{"id": 1, "titulo": "A"}], "total": 1}`))
	}))
	defer server.Close()

	fetcher := catalogadapter.NewHTTPFetcher(server.URL+"/", 0, server.Client())
	raw, err := fetcher.FetchUnits(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if string(raw) != `[{"id": 1, "titulo": "A"}]` {
		t.Fatalf("unexpected units payload: %s", raw)
	}
}

func TestHTTPFetcherHandlesMissingUnidadesAndErrors(t *testing.T) {
	t.Parallel()
	mux := http.NewServeMux()
	mux.HandleFunc("/empty/lessons/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"unidades": null}`))
	})
	mux.HandleFunc("/down/lessons/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	mux.HandleFunc("/html/lessons/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	raw, err := catalogadapter.NewHTTPFetcher(server.URL+"/empty", 0, server.Client()).FetchUnits(context.Background())
	if err != nil || string(raw) != "[]" {
		t.Fatalf("expected empty list, got %s / %v", raw, err)
	}
	if _, err := catalogadapter.NewHTTPFetcher(server.URL+"/down", 0, server.Client()).FetchUnits(context.Background()); err == nil {
		t.Fatalf("expected error for non-2xx")
	}
	if _, err := catalogadapter.NewHTTPFetcher(server.URL+"/html", 0, server.Client()).FetchUnits(context.Background()); err == nil {
		t.Fatalf("expected error for invalid json")
	}
}

func TestKVRawCacheMapsMissingKey(t *testing.T) {
	t.Parallel()
	store := kv.NewMemoryStore()
	cache := catalogadapter.NewKVRawCache(store)
	if _, err := cache.Load(context.Background()); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := cache.Save(context.Background(), []byte(`[]`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	raw, err := store.Get(context.Background(), catalogadapter.RawCacheKey)
	if err != nil || string(raw) != `[]` {
		t.Fatalf("expected raw payload under %s, got %s / %v", catalogadapter.RawCacheKey, raw, err)
	}
	if err := cache.Clear(context.Background()); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := cache.Load(context.Background()); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found after clear, got %v", err)
	}
	if err := cache.Clear(context.Background()); err != nil {
		t.Fatalf("clearing an empty cache must succeed: %v", err)
	}
}

func TestSQLiteLessonProjectorReplaceAndSearch(t *testing.T) {
	t.Parallel()
	projector, err := catalogadapter.NewSQLiteLessonProjector(filepath.Join(t.TempDir(), ".mathbot", "mathbot.db"))
	if err != nil {
		t.Fatalf("new projector: %v", err)
	}
	defer func() { _ = projector.Close() }()
	ctx := context.Background()

	idx := domain.Normalize([]any{
		map[string]any{"id": 1, "titulo": "Álgebra básica", "temas": []any{
			map[string]any{"id": 1, "titulo": "Ecuaciones", "lecciones": []any{
				map[string]any{"id": 10, "nombre": "Ecuación lineal", "preview": "50% de los casos"},
				map[string]any{"id": 11, "nombre": "Sistemas", "preview": "dos incógnitas"},
			}},
		}},
	})
	if err := projector.Replace(ctx, idx.Lessons); err != nil {
		t.Fatalf("replace: %v", err)
	}

	hits, err := projector.Search(ctx, "ÁLGEBRA", 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 2 || hits[0] != "10" || hits[1] != "11" {
		t.Fatalf("expected both lessons in catalog order, got %v", hits)
	}
	hits, err = projector.Search(ctx, "50%", 5)
	if err != nil || len(hits) != 1 || hits[0] != "10" {
		t.Fatalf("expected literal percent match, got %v / %v", hits, err)
	}

	if err := projector.Replace(ctx, idx.Lessons[1:]); err != nil {
		t.Fatalf("second replace: %v", err)
	}
	hits, err = projector.Search(ctx, "ecuaciones", 0)
	if err != nil || len(hits) != 1 || hits[0] != "11" {
		t.Fatalf("expected replaced projection, got %v / %v", hits, err)
	}
}
