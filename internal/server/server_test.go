package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/watchlist/internal/models"
	"github.com/desertthunder/watchlist/internal/repositories"
	"github.com/desertthunder/watchlist/internal/shared"
	th "github.com/desertthunder/watchlist/internal/testing"
)

func newTestStore(t *testing.T, opts StoreOpts) (*StoreHandler, *httptest.Server) {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if _, err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	catalog := repositories.NewCatalogRepository(db)
	if err := catalog.ReplaceAll(th.SampleCatalog()); err != nil {
		t.Fatalf("failed to seed catalog: %v", err)
	}

	handler := NewStoreHandler(catalog, repositories.NewListRepository(db), opts)
	router := NewBasicRouter()
	router.Use(RequestID, Recovery(shared.DiscardLogger()))
	router.Handler(handler)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return handler, srv
}

func do(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	return resp, data
}

func decodeList(t *testing.T, data []byte) models.WatchList {
	t.Helper()
	var list models.WatchList
	if err := json.Unmarshal(data, &list); err != nil {
		t.Fatalf("invalid list JSON %s: %v", data, err)
	}
	return list
}

func TestStoreHandler(t *testing.T) {
	t.Run("GET catalog", func(t *testing.T) {
		_, srv := newTestStore(t, StoreOpts{})

		resp, data := do(t, http.MethodGet, srv.URL+"/catalog", "")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		var items []models.CatalogItem
		if err := json.Unmarshal(data, &items); err != nil || len(items) != 4 {
			t.Errorf("unexpected catalog %s (%v)", data, err)
		}
		if resp.Header.Get(RequestIDHeader) == "" {
			t.Error("expected request id header")
		}
	})

	t.Run("custom catalog path", func(t *testing.T) {
		_, srv := newTestStore(t, StoreOpts{CatalogPath: "/movies"})

		if resp, _ := do(t, http.MethodGet, srv.URL+"/movies", ""); resp.StatusCode != http.StatusOK {
			t.Errorf("expected 200, got %d", resp.StatusCode)
		}
		if resp, _ := do(t, http.MethodGet, srv.URL+"/catalog", ""); resp.StatusCode != http.StatusNotFound {
			t.Errorf("expected 404, got %d", resp.StatusCode)
		}
	})

	t.Run("create then patch lifecycle", func(t *testing.T) {
		_, srv := newTestStore(t, StoreOpts{})

		resp, data := do(t, http.MethodPost, srv.URL+"/lists", `{"name":"My Movie List","movies":[]}`)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", resp.StatusCode, data)
		}
		created := decodeList(t, data)
		if created.ID != 1 || created.Items == nil {
			t.Fatalf("unexpected created list %+v", created)
		}

		resp, data = do(t, http.MethodPatch, srv.URL+"/lists/1", `{"movies":[3,1]}`)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", resp.StatusCode, data)
		}
		if got := decodeList(t, data); !slices.Equal(got.Items, []models.ID{3, 1}) || got.Name != "My Movie List" {
			t.Errorf("unexpected list after items patch %+v", got)
		}

		resp, data = do(t, http.MethodPatch, srv.URL+"/lists/1", `{"name":"Favorites"}`)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", resp.StatusCode, data)
		}

		_, data = do(t, http.MethodGet, srv.URL+"/lists/1", "")
		got := decodeList(t, data)
		if got.Name != "Favorites" || !slices.Equal(got.Items, []models.ID{3, 1}) {
			t.Errorf("unexpected stored list %+v", got)
		}

		_, data = do(t, http.MethodGet, srv.URL+"/lists", "")
		var lists []models.WatchList
		if err := json.Unmarshal(data, &lists); err != nil || len(lists) != 1 {
			t.Errorf("unexpected lists %s", data)
		}
	})

	t.Run("create without movies", func(t *testing.T) {
		_, srv := newTestStore(t, StoreOpts{})

		resp, data := do(t, http.MethodPost, srv.URL+"/lists", `{"name":"Bare"}`)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("expected 201, got %d", resp.StatusCode)
		}
		if !bytes.Contains(data, []byte(`"movies":[]`)) {
			t.Errorf("expected empty movies array, got %s", data)
		}
	})

	t.Run("error statuses", func(t *testing.T) {
		_, srv := newTestStore(t, StoreOpts{})
		do(t, http.MethodPost, srv.URL+"/lists", `{"name":"x"}`)

		tt := []struct {
			name   string
			method string
			path   string
			body   string
			want   int
		}{
			{name: "malformed create", method: http.MethodPost, path: "/lists", body: `{`, want: http.StatusBadRequest},
			{name: "blank name", method: http.MethodPost, path: "/lists", body: `{"name":""}`, want: http.StatusBadRequest},
			{name: "duplicate create", method: http.MethodPost, path: "/lists", body: `{"name":"d","movies":[1,1]}`, want: http.StatusBadRequest},
			{name: "empty patch", method: http.MethodPatch, path: "/lists/1", body: `{}`, want: http.StatusBadRequest},
			{name: "duplicate patch", method: http.MethodPatch, path: "/lists/1", body: `{"movies":[2,2]}`, want: http.StatusBadRequest},
			{name: "unknown list get", method: http.MethodGet, path: "/lists/99", want: http.StatusNotFound},
			{name: "unknown list patch", method: http.MethodPatch, path: "/lists/99", body: `{"name":"y"}`, want: http.StatusNotFound},
			{name: "bad id", method: http.MethodGet, path: "/lists/abc", want: http.StatusBadRequest},
			{name: "method not allowed", method: http.MethodDelete, path: "/lists/1", want: http.StatusMethodNotAllowed},
		}

		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				resp, data := do(t, tc.method, srv.URL+tc.path, tc.body)
				if resp.StatusCode != tc.want {
					t.Errorf("expected %d, got %d: %s", tc.want, resp.StatusCode, data)
				}
			})
		}
	})

	t.Run("fail writes", func(t *testing.T) {
		handler, srv := newTestStore(t, StoreOpts{FailWrites: true})

		if resp, _ := do(t, http.MethodPost, srv.URL+"/lists", `{"name":"x"}`); resp.StatusCode != http.StatusServiceUnavailable {
			t.Errorf("expected 503, got %d", resp.StatusCode)
		}
		if resp, _ := do(t, http.MethodGet, srv.URL+"/lists", ""); resp.StatusCode != http.StatusOK {
			t.Errorf("expected reads to succeed, got %d", resp.StatusCode)
		}

		handler.SetFailWrites(false)
		if resp, _ := do(t, http.MethodPost, srv.URL+"/lists", `{"name":"x"}`); resp.StatusCode != http.StatusCreated {
			t.Errorf("expected 201 after re-enabling writes, got %d", resp.StatusCode)
		}
	})
}

func TestBasicRouter(t *testing.T) {
	t.Run("middleware order", func(t *testing.T) {
		var order []string
		mw := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		router := NewBasicRouter()
		router.Use(mw("first"), mw("second"))
		router.Handle(http.MethodGet, "/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "handler")
		}))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

		if !slices.Equal(order, []string{"first", "second", "handler"}) {
			t.Errorf("unexpected order %v", order)
		}

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ping", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})
}

func TestMiddleware(t *testing.T) {
	t.Run("RequestID reuses incoming header", func(t *testing.T) {
		var seen string
		h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = GetRequestID(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if seen != "abc-123" || rec.Header().Get(RequestIDHeader) != "abc-123" {
			t.Errorf("expected request id to propagate, got %q / %q", seen, rec.Header().Get(RequestIDHeader))
		}
	})

	t.Run("RequestLogger records status", func(t *testing.T) {
		var buf bytes.Buffer
		logger := shared.NewLogger(&buf)
		h := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))

		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/lists", nil))

		out := buf.String()
		if !strings.Contains(out, "status=418") || !strings.Contains(out, "path=/lists") {
			t.Errorf("unexpected log output %q", out)
		}
	})

	t.Run("Recovery returns 500", func(t *testing.T) {
		h := Recovery(shared.DiscardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
	})
}

func TestServe(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, listener, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}), shared.DiscardLogger())
	}()

	resp, err := http.Get("http://" + listener.Addr().String())
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("expected 204, got %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not shut down")
	}
}
