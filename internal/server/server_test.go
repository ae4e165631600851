package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/lead-scraper/internal/config"
	"github.com/jonathan/lead-scraper/internal/db"
	"github.com/jonathan/lead-scraper/internal/pipeline"
	"github.com/jonathan/lead-scraper/internal/server/ratelimit"
	"github.com/jonathan/lead-scraper/internal/types"
)

var testLeads = []types.Lead{
	{Name: "Widget Co", Email: "info@widgetco.com", Website: "https://widgetco.com", Location: "Austin, TX", Source: "Google (Deep)"},
	{Name: "Gadget LLC", Email: "sales@gadget.biz", Website: "https://gadget.biz", Location: "Austin, TX", Source: "Google (AI)"},
}

// stubSearcher replays fixed leads through the observer.
type stubSearcher struct {
	leads []types.Lead
	err   error
	got   types.SearchRequest
}

func (s *stubSearcher) Stream(_ context.Context, req types.SearchRequest, obs pipeline.Observer) (*types.SearchResponse, error) {
	s.got = req
	if s.err != nil {
		return nil, s.err
	}
	if obs.OnProgress != nil {
		obs.OnProgress(pipeline.ProgressEvent{Step: "search", Category: "backend", Message: "Searching"})
	}
	for _, lead := range s.leads {
		if obs.OnLead != nil {
			obs.OnLead(lead)
		}
	}
	return &types.SearchResponse{Leads: s.leads, Meta: types.SearchMeta{CurrentPage: req.Page}}, nil
}

// memoryStore is an in-memory LeadStore.
type memoryStore struct {
	mu    sync.Mutex
	runs  map[uuid.UUID]*db.Run
	leads map[uuid.UUID][]types.Lead
}

func newMemoryStore() *memoryStore {
	return &memoryStore{runs: map[uuid.UUID]*db.Run{}, leads: map[uuid.UUID][]types.Lead{}}
}

func (m *memoryStore) CreateSearchRun(_ context.Context, req types.SearchRequest) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New()
	m.runs[id] = &db.Run{ID: id, Query: req.Query, Location: req.Location, Status: db.RunStatusRunning, CreatedAt: time.Now()}
	return id, nil
}

func (m *memoryStore) SaveLeads(_ context.Context, runID uuid.UUID, leads []types.Lead) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leads[runID] = append(m.leads[runID], leads...)
	return nil
}

func (m *memoryStore) CompleteRun(_ context.Context, runID uuid.UUID, status string, leadCount int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[runID]
	if !ok {
		return errors.New("no such run")
	}
	run.Status = status
	run.LeadCount = leadCount
	return nil
}

func (m *memoryStore) ListLeads(_ context.Context, runID uuid.UUID) ([]types.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.leads[runID], nil
}

func (m *memoryStore) GetRun(_ context.Context, runID uuid.UUID) (*db.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runs[runID], nil
}

func newTestServer(engine Searcher, store LeadStore) *Server {
	return newServer(engine, store, ratelimit.NewLimiter(&ratelimit.Config{Enabled: false}))
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp["error"]
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(&stubSearcher{}, nil)

	w := do(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, false, resp["persistence"])
}

func TestSearch_MissingQueryOrLocation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing query", `{"location": "Austin, TX"}`},
		{"missing location", `{"query": "plumbers"}`},
		{"blank query", `{"query": "   ", "location": "Austin, TX"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &stubSearcher{}
			w := do(t, newTestServer(engine, nil), http.MethodPost, "/search", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, decodeError(t, w), "Missing query or location.")
			assert.Empty(t, engine.got.Query, "engine must not run")
		})
	}
}

func TestSearch_InvalidBody(t *testing.T) {
	w := do(t, newTestServer(&stubSearcher{}, nil), http.MethodPost, "/search", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeError(t, w), "Invalid request body")
}

func TestSearch_InvalidPlatform(t *testing.T) {
	w := do(t, newTestServer(&stubSearcher{}, nil), http.MethodPost, "/search",
		`{"query": "plumbers", "location": "Austin, TX", "platform": "myspace"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	msg := decodeError(t, w)
	assert.Contains(t, msg, "platform")
	assert.Contains(t, msg, "yellowpages")
}

func TestSearch_Success(t *testing.T) {
	engine := &stubSearcher{leads: testLeads}
	store := newMemoryStore()
	s := newTestServer(engine, store)

	w := do(t, s, http.MethodPost, "/search", `{"query": " plumbers ", "location": "Austin, TX", "searchMethod": "ddg"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		RunID string           `json:"run_id"`
		Leads []types.Lead     `json:"leads"`
		Meta  types.SearchMeta `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, testLeads, resp.Leads)
	assert.Equal(t, 1, resp.Meta.CurrentPage)

	assert.Equal(t, "plumbers", engine.got.Query)
	assert.Equal(t, types.PlatformGoogle, engine.got.Platform)
	assert.Equal(t, types.MethodDDG, engine.got.SearchMethod)

	runID, err := uuid.Parse(resp.RunID)
	require.NoError(t, err)
	run, _ := store.GetRun(context.Background(), runID)
	require.NotNil(t, run)
	assert.Equal(t, db.RunStatusCompleted, run.Status)
	assert.Equal(t, 2, run.LeadCount)
	saved, _ := store.ListLeads(context.Background(), runID)
	assert.Equal(t, testLeads, saved)
}

func TestSearch_WithoutStore(t *testing.T) {
	w := do(t, newTestServer(&stubSearcher{leads: testLeads}, nil), http.MethodPost, "/search",
		`{"query": "plumbers", "location": "Austin, TX"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp SearchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	_, err := uuid.Parse(resp.RunID)
	assert.NoError(t, err)
	assert.Len(t, resp.Leads, 2)
}

func TestSearch_SearchErrorIsBadRequest(t *testing.T) {
	engine := &stubSearcher{err: &pipeline.SearchError{Message: "all backends failed"}}
	store := newMemoryStore()

	w := do(t, newTestServer(engine, store), http.MethodPost, "/search", `{"query": "plumbers", "location": "Austin, TX"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeError(t, w), "all backends failed")

	for _, run := range store.runs {
		assert.Equal(t, db.RunStatusFailed, run.Status)
	}
}

func TestSearch_InternalError(t *testing.T) {
	w := do(t, newTestServer(&stubSearcher{err: errors.New("boom")}, nil), http.MethodPost, "/search",
		`{"query": "plumbers", "location": "Austin, TX"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestSearchStream_Events(t *testing.T) {
	s := newTestServer(&stubSearcher{leads: testLeads}, nil)

	w := do(t, s, http.MethodPost, "/search/stream", `{"query": "plumbers", "location": "Austin, TX"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	body := w.Body.String()
	assert.Equal(t, 2, strings.Count(body, "event: lead\n"))
	assert.Contains(t, body, "event: progress\n")
	assert.Contains(t, body, `"info@widgetco.com"`)

	// complete is the last event
	last := body[strings.LastIndex(body, "event: "):]
	assert.True(t, strings.HasPrefix(last, "event: complete\n"), last)
	assert.Contains(t, last, `"total":2`)
}

func TestSearchStream_ProgressCarriesRunID(t *testing.T) {
	store := newMemoryStore()
	w := do(t, newTestServer(&stubSearcher{leads: testLeads}, store), http.MethodPost, "/search/stream",
		`{"query": "plumbers", "location": "Austin, TX"}`)
	require.Equal(t, http.StatusOK, w.Code)

	require.Len(t, store.runs, 1)
	for id := range store.runs {
		assert.Contains(t, w.Body.String(), `"run_id":"`+id.String()+`"`)
	}
}

func TestSearchStream_ValidationBeforeStream(t *testing.T) {
	w := do(t, newTestServer(&stubSearcher{}, nil), http.MethodPost, "/search/stream", `{"query": "plumbers"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
}

func TestSearchStream_Error(t *testing.T) {
	engine := &stubSearcher{err: &pipeline.SearchError{Message: "all backends failed"}}
	w := do(t, newTestServer(engine, nil), http.MethodPost, "/search/stream", `{"query": "plumbers", "location": "Austin, TX"}`)

	body := w.Body.String()
	assert.Contains(t, body, "event: error\n")
	assert.Contains(t, body, "all backends failed")
	assert.NotContains(t, body, "event: complete")
}

func TestRunLeads(t *testing.T) {
	store := newMemoryStore()
	runID, _ := store.CreateSearchRun(context.Background(), types.SearchRequest{Query: "plumbers", Location: "Austin, TX"})
	require.NoError(t, store.SaveLeads(context.Background(), runID, testLeads))
	require.NoError(t, store.CompleteRun(context.Background(), runID, db.RunStatusCompleted, 2))

	s := newTestServer(&stubSearcher{}, store)

	w := do(t, s, http.MethodGet, "/runs/"+runID.String()+"/leads", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp RunLeadsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, runID.String(), resp.RunID)
	assert.Equal(t, db.RunStatusCompleted, resp.Status)
	assert.Equal(t, "plumbers", resp.Query)
	assert.Equal(t, testLeads, resp.Leads)
}

func TestRunLeads_Errors(t *testing.T) {
	store := newMemoryStore()

	w := do(t, newTestServer(&stubSearcher{}, store), http.MethodGet, "/runs/not-a-uuid/leads", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, newTestServer(&stubSearcher{}, store), http.MethodGet, "/runs/"+uuid.New().String()+"/leads", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, newTestServer(&stubSearcher{}, nil), http.MethodGet, "/runs/"+uuid.New().String()+"/leads", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	w := do(t, newTestServer(&stubSearcher{}, nil), http.MethodOptions, "/search", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestRateLimit(t *testing.T) {
	limiter := ratelimit.NewLimiter(&ratelimit.Config{
		Enabled: true,
		EndpointConfigs: []ratelimit.EndpointConfig{
			{Path: "/search", Method: "POST", Limit: 1, Window: time.Hour, Burst: 1},
		},
	})
	defer limiter.Stop()
	s := newServer(&stubSearcher{leads: testLeads}, nil, limiter)

	body := `{"query": "plumbers", "location": "Austin, TX"}`
	w := do(t, s, http.MethodPost, "/search", body)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))

	w = do(t, s, http.MethodPost, "/search", body)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), `"error":"rate_limit_exceeded"`)

	// health is never limited
	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/health", "").Code)
}

func TestBearerAuth(t *testing.T) {
	s := newTestServer(&stubSearcher{leads: testLeads}, nil)
	s.jwtService = NewJWTService(&config.JWTConfig{Secret: testSecret, ExpirationHours: 1})
	body := `{"query": "plumbers", "location": "Austin, TX"}`

	w := do(t, s, http.MethodPost, "/search", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := s.jwtService.GenerateToken("crm-sync")
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// health stays open
	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/health", "").Code)
}

func TestNew_RequiresEngine(t *testing.T) {
	_, err := New(Config{Port: 8080})
	assert.Error(t, err)
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(&ErrValidation{Field: "query", Message: "x"}))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(&pipeline.SearchError{Message: "x"}))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(&ErrRunNotFound{RunID: uuid.New()}))
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatus(&ErrStoreUnavailable{}))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("x")))
}
