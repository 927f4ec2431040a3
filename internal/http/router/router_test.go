package router_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/straye-as/erp-desk/internal/auth"
	"github.com/straye-as/erp-desk/internal/cache"
	"github.com/straye-as/erp-desk/internal/config"
	"github.com/straye-as/erp-desk/internal/export"
	"github.com/straye-as/erp-desk/internal/http/handler"
	"github.com/straye-as/erp-desk/internal/http/middleware"
	"github.com/straye-as/erp-desk/internal/http/router"
	"github.com/straye-as/erp-desk/internal/metrics"
	"github.com/straye-as/erp-desk/internal/normalize"
	"github.com/straye-as/erp-desk/internal/repository"
	"github.com/straye-as/erp-desk/internal/service"
	"github.com/straye-as/erp-desk/internal/testutil"
	"github.com/straye-as/erp-desk/internal/upstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "router-test-secret"

// erpServer is a minimal ERP API backed by in-memory inquiries
type erpServer struct {
	mu        sync.Mutex
	inquiries []map[string]any
	created   []map[string]any
	listCalls int
}

func (e *erpServer) handler() http.Handler {
	r := chi.NewRouter()
	writeJSON := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/inquiries", func(w http.ResponseWriter, r *http.Request) {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.listCalls++
		writeJSON(w, http.StatusOK, map[string]any{"data": e.inquiries})
	})
	r.Post("/inquiries", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		e.mu.Lock()
		defer e.mu.Unlock()
		e.created = append(e.created, body)
		body["id"] = "new-1"
		e.inquiries = append(e.inquiries, body)
		writeJSON(w, http.StatusCreated, body)
	})
	r.Get("/inquiries/{id}", func(w http.ResponseWriter, r *http.Request) {
		e.mu.Lock()
		defer e.mu.Unlock()
		for _, rec := range e.inquiries {
			if rec["id"] == chi.URLParam(r, "id") {
				writeJSON(w, http.StatusOK, rec)
				return
			}
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "not found"})
	})
	r.Delete("/inquiries/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Get("/inquiries/{id}/interactions", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []any{})
	})
	r.Get("/purchase-orders", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []any{})
	})
	r.Get("/users", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []any{})
	})
	return r
}

func (e *erpServer) calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.listCalls
}

type testServer struct {
	*httptest.Server
	erp *erpServer
	jwt *auth.JWTValidator
}

func newTestServer(t *testing.T, authEnabled bool) *testServer {
	t.Helper()
	logger := zap.NewNop()

	erp := &erpServer{inquiries: []map[string]any{
		{"id": "i1", "inquiryNumber": "INQ-1", "customerName": "Acme Paper", "status": "new"},
		{"id": "i2", "inquiryNumber": "INQ-2", "customerName": "Bharat Traders", "status": "PI Sent"},
	}}
	erpSrv := httptest.NewServer(erp.handler())
	t.Cleanup(erpSrv.Close)

	cfg := &config.Config{
		App:      config.AppConfig{Name: "erp-desk", Environment: "development"},
		Upstream: config.UpstreamConfig{BaseURL: erpSrv.URL, Timeout: 5},
		Auth:     config.AuthConfig{Enabled: authEnabled, JWTSecret: testSecret, Issuer: "erp-desk", DefaultTheme: "light"},
		Security: config.SecurityConfig{ContentTypeNosniff: true},
	}

	reg := prometheus.NewRegistry()
	m := metrics.New("erp_desk_test", reg, reg)
	client := upstream.NewClient(&cfg.Upstream, logger, upstream.WithObserver(m))
	store := cache.NewMemoryStore()
	normalizer := normalize.Default
	collections := service.NewCollections(client, store, cache.Keys{Prefix: "test:"}, time.Minute, normalizer, m, logger)
	db := testutil.SetupTestDB(t)

	inquiries := service.NewInquiryService(client, collections, normalizer, normalize.Detail, logger)
	purchaseOrders := service.NewPurchaseOrderService(client, collections, normalizer, logger)
	users := service.NewUserService(client, collections, normalizer, logger)
	dashboard := service.NewDashboardService(collections, logger)
	drafts := service.NewDraftService(repository.NewDraftRepository(db), client, collections, normalizer,
		inquiries, purchaseOrders, time.Hour, m, logger)

	authMiddleware := auth.NewMiddleware(&cfg.Auth, logger)
	rt := router.NewRouter(cfg, logger, authMiddleware, middleware.NewRateLimiter(&cfg.RateLimit, logger), m, router.Handlers{
		Health:        handler.NewHealthHandler(db, store, client, logger),
		Inquiry:       handler.NewInquiryHandler(inquiries, logger),
		PurchaseOrder: handler.NewPurchaseOrderHandler(purchaseOrders, logger),
		User:          handler.NewUserHandler(users, logger),
		Dashboard:     handler.NewDashboardHandler(dashboard, logger),
		Draft:         handler.NewDraftHandler(drafts, logger),
	})

	srv := httptest.NewServer(rt.Setup())
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, erp: erp, jwt: authMiddleware.Validator()}
}

func (s *testServer) do(t *testing.T, method, path, session string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, s.URL+path, reader)
	require.NoError(t, err)
	if session != "" {
		req.Header.Set(auth.SessionHeader, session)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		_ = json.NewDecoder(resp.Body).Decode(&out)
	}
	return resp, out
}

func TestRouter_Health(t *testing.T) {
	s := newTestServer(t, false)

	resp, _ := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := s.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])
	checks := body["checks"].(map[string]any)
	assert.Contains(t, checks, "database")
	assert.Contains(t, checks, "cache")
	assert.Contains(t, checks, "erp")

	resp, _ = s.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouter_InquiryList(t *testing.T) {
	s := newTestServer(t, false)

	resp, body := s.do(t, http.MethodGet, "/api/v1/inquiries", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	session := resp.Header.Get(auth.SessionHeader)
	require.NotEmpty(t, session, "anonymous callers get a session")
	assert.Equal(t, float64(2), body["total"])
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))

	// Same session reads the snapshot
	resp, _ = s.do(t, http.MethodGet, "/api/v1/inquiries?search=acme", session, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, session, resp.Header.Get(auth.SessionHeader))
	assert.Equal(t, 1, s.erp.calls())

	// Refresh goes back to the ERP
	resp, _ = s.do(t, http.MethodGet, "/api/v1/inquiries?refresh=true", session, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, s.erp.calls())

	t.Run("unknown tab", func(t *testing.T) {
		resp, _ := s.do(t, http.MethodGet, "/api/v1/inquiries?tab=bogus", session, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("bad paging", func(t *testing.T) {
		resp, body := s.do(t, http.MethodGet, "/api/v1/inquiries?page=zero", session, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, body["errors"], "page")
	})

	t.Run("get by id", func(t *testing.T) {
		resp, body := s.do(t, http.MethodGet, "/api/v1/inquiries/i2", session, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "pi_sent", body["status"])

		resp, _ = s.do(t, http.MethodGet, "/api/v1/inquiries/missing", session, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("export", func(t *testing.T) {
		resp, _ := s.do(t, http.MethodGet, "/api/v1/inquiries/export", session, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, export.ContentType, resp.Header.Get("Content-Type"))
		assert.Contains(t, resp.Header.Get("Content-Disposition"), "inquiries-")
	})
}

func TestRouter_DraftLifecycle(t *testing.T) {
	s := newTestServer(t, false)
	const session = "sess-drafts"

	resp, draft := s.do(t, http.MethodPost, "/api/v1/drafts/inquiries", session,
		map[string]any{"initial": map[string]any{"customerName": "Acme"}})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := draft["id"].(string)
	assert.Equal(t, "open", draft["state"])

	resp, draft = s.do(t, http.MethodPatch, "/api/v1/drafts/inquiries/"+id, session, map[string]any{
		"changes": []map[string]any{
			{"field": "lineItems", "index": 0, "value": map[string]any{"productName": "A4", "quantity": 4, "unitPrice": 2.5}},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(10), draft["draft"].(map[string]any)["totalAmount"])

	resp, listed := s.do(t, http.MethodGet, "/api/v1/drafts/inquiries/"+id, "other-session", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "drafts are scoped to their session")
	assert.NotNil(t, listed)

	resp, result := s.do(t, http.MethodPost, "/api/v1/drafts/inquiries/"+id+"/submit", session, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, result["refresh"])
	require.Len(t, s.erp.created, 1)
	assert.Equal(t, "Acme", s.erp.created[0]["customerName"])

	resp, _ = s.do(t, http.MethodGet, "/api/v1/drafts/inquiries/"+id, session, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "a submitted draft is closed")

	t.Run("validation keeps the draft", func(t *testing.T) {
		resp, draft := s.do(t, http.MethodPost, "/api/v1/drafts/inquiries", session, nil)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		id := draft["id"].(string)

		resp, body := s.do(t, http.MethodPost, "/api/v1/drafts/inquiries/"+id+"/submit", session, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, body["errors"], "customerName")

		resp, _ = s.do(t, http.MethodDelete, "/api/v1/drafts/inquiries/"+id, session, nil)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	})

	t.Run("edit dialog", func(t *testing.T) {
		resp, draft := s.do(t, http.MethodPost, "/api/v1/drafts/inquiries/edit/i1", session, nil)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Equal(t, "edit", draft["mode"])
		assert.Equal(t, "i1", draft["recordId"])
	})

	t.Run("unknown entity", func(t *testing.T) {
		resp, _ := s.do(t, http.MethodPost, "/api/v1/drafts/widgets", session, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("empty patch", func(t *testing.T) {
		resp, _ := s.do(t, http.MethodPatch, "/api/v1/drafts/inquiries/"+id, session, map[string]any{"changes": []any{}})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestRouter_Auth(t *testing.T) {
	s := newTestServer(t, true)

	resp, _ := s.do(t, http.MethodGet, "/api/v1/inquiries", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	bearer := func(user *auth.UserContext) string {
		token, err := s.jwt.IssueToken(user, "sess-auth", time.Hour)
		require.NoError(t, err)
		return "Bearer " + token
	}
	call := func(method, path, token string) *http.Response {
		req, err := http.NewRequest(method, s.URL+path, nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", token)
		req.Header.Set(auth.ThemeHeader, "dark")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		t.Cleanup(func() { _ = resp.Body.Close() })
		return resp
	}

	staff := bearer(&auth.UserContext{UserID: "u-1", DisplayName: "Staff", Roles: []string{"sales"}})
	admin := bearer(&auth.UserContext{UserID: "u-2", DisplayName: "Admin", IsAdmin: true})

	resp = call(http.MethodGet, "/api/v1/me", staff)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var me map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&me))
	assert.Equal(t, "u-1", me["userId"])
	assert.Equal(t, "dark", me["theme"])
	assert.Equal(t, "sess-auth", me["sessionId"])
	assert.Equal(t, false, me["anonymous"])

	assert.Equal(t, http.StatusForbidden, call(http.MethodDelete, "/api/v1/inquiries/i1", staff).StatusCode)
	assert.Equal(t, http.StatusNoContent, call(http.MethodDelete, "/api/v1/inquiries/i1", admin).StatusCode)
}
