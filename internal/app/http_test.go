package app

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"xenios/compat/internal/config"
	"xenios/compat/internal/games"
	"xenios/compat/internal/schema"
	"xenios/compat/internal/session"
)

const testAPIKey = "test-api-key"

type fakeStore struct {
	mu        sync.Mutex
	list      []games.Game
	sha       string
	fetchErr  error
	commitErr error

	committed []games.Game
	messages  []string
}

func (f *fakeStore) Fetch(ctx context.Context) ([]games.Game, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, "", f.fetchErr
	}
	return f.list, f.sha, nil
}

func (f *fakeStore) Commit(ctx context.Context, list []games.Game, sha, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.commitErr != nil {
		return f.commitErr
	}
	f.committed = list
	f.messages = append(f.messages, message)
	return nil
}

func (f *fakeStore) lastMessage() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.messages) == 0 {
		return ""
	}
	return f.messages[len(f.messages)-1]
}

func (f *fakeStore) commitCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

type fakeThreader struct {
	mu      sync.Mutex
	url     string
	err     error
	reports []schema.Report
}

func (f *fakeThreader) Sync(ctx context.Context, report schema.Report) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports = append(f.reports, report)
	return f.url, f.err
}

type fakeNotifier struct {
	mu          sync.Mutex
	announced   []schema.Report
	refreshed   int
	announceErr error
	refreshErr  error
}

func (f *fakeNotifier) Announce(ctx context.Context, report schema.Report, issueURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.announced = append(f.announced, report)
	return f.announceErr
}

func (f *fakeNotifier) RefreshBoard(ctx context.Context, list []games.Game) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshed++
	return f.refreshErr
}

type fakeSessions struct {
	mu      sync.Mutex
	pending map[string]session.PendingReport
	pingErr error
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{pending: make(map[string]session.PendingReport)}
}

func (f *fakeSessions) Put(ctx context.Context, id string, pending session.PendingReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending[id] = pending
	return nil
}

func (f *fakeSessions) Take(ctx context.Context, id string) (session.PendingReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pending, ok := f.pending[id]
	if !ok {
		return session.PendingReport{}, session.ErrNotFound
	}
	delete(f.pending, id)
	return pending, nil
}

func (f *fakeSessions) Ping(ctx context.Context) error {
	return f.pingErr
}

type fakeFollowup struct {
	mu       sync.Mutex
	contents []string
}

func (f *fakeFollowup) EditOriginal(ctx context.Context, appID, token, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.contents = append(f.contents, content)
	return nil
}

func (f *fakeFollowup) last() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.contents) == 0 {
		return ""
	}
	return f.contents[len(f.contents)-1]
}

type testEnv struct {
	service  *Service
	server   *HTTPServer
	store    *fakeStore
	threader *fakeThreader
	notifier *fakeNotifier
	sessions *fakeSessions
	followup *fakeFollowup
	key      ed25519.PrivateKey
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	publicKey, privateKey, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	store := &fakeStore{sha: "abc123"}
	threader := &fakeThreader{url: "https://github.com/xenios-jp/xenios.jp/issues/7"}
	notifier := &fakeNotifier{}
	sessions := newFakeSessions()
	followup := &fakeFollowup{}

	service := New(config.Config{SiteBaseURL: "https://xenios.jp"}, store, threader, notifier, sessions, nil, followup)
	server := NewHTTPServer(service, testAPIKey, publicKey, "*")

	return &testEnv{
		service:  service,
		server:   server,
		store:    store,
		threader: threader,
		notifier: notifier,
		sessions: sessions,
		followup: followup,
		key:      privateKey,
	}
}

func (e *testEnv) do(t *testing.T, method, path, body string, authorized bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if authorized {
		req.Header.Set("Authorization", "Bearer "+testAPIKey)
	}
	rr := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rr, req)
	return rr
}

func validReportBody() string {
	return `{
		"titleId": "4d5307e6",
		"title": "Halo 3",
		"status": "playable",
		"perf": "great",
		"platform": "macos",
		"device": "MacBook Pro M3",
		"osVersion": "15.2",
		"arch": "arm64",
		"gpuBackend": "msl",
		"notes": "Full campaign completed"
	}`
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/", "/health"} {
		rr := env.do(t, http.MethodGet, path, "", false)
		if rr.Code != http.StatusOK {
			t.Errorf("GET %s: expected 200, got %d", path, rr.Code)
		}
		var response map[string]any
		if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
			t.Fatalf("parse response: %v", err)
		}
		if response["ok"] != true {
			t.Errorf("GET %s: expected ok=true, got %v", path, response["ok"])
		}
	}
}

func TestReadyEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/ready", "", false)
	if rr.Code != http.StatusOK {
		t.Errorf("expected 200 when sessions are reachable, got %d", rr.Code)
	}

	env.sessions.pingErr = context.DeadlineExceeded
	rr = env.do(t, http.MethodGet, "/ready", "", false)
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 when sessions are down, got %d", rr.Code)
	}
}

func TestSchemaEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/schema", "", false)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var got schema.Schema
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("parse schema: %v", err)
	}
	if len(got.Statuses) != 5 || got.Statuses[0].Value != schema.StatusPlayable {
		t.Errorf("unexpected statuses: %+v", got.Statuses)
	}
}

func TestGamesEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.store.list = []games.Game{{Slug: "halo-3", Title: "Halo 3", TitleID: "4D5307E6"}}

	rr := env.do(t, http.MethodGet, "/games", "", false)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var list []games.Game
	if err := json.Unmarshal(rr.Body.Bytes(), &list); err != nil {
		t.Fatalf("parse games: %v", err)
	}
	if len(list) != 1 || list[0].Slug != "halo-3" {
		t.Errorf("unexpected list: %+v", list)
	}
}

func TestGamesEndpointEmptyList(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/games", "", false)
	if body := strings.TrimSpace(rr.Body.String()); body != "[]" {
		t.Errorf("expected an empty JSON array, got %q", body)
	}
}

func TestReportRequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/report", validReportBody(), false)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without a bearer token, got %d", rr.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/report", strings.NewReader(validReportBody()))
	req.Header.Set("Authorization", "Bearer wrong-key")
	rr = httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 with a wrong key, got %d", rr.Code)
	}
	if env.store.commitCount() != 0 {
		t.Error("expected no commit for an unauthorized request")
	}
}

func TestReportSuccess(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/report", validReportBody(), true)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var result PipelineResult
	if err := json.Unmarshal(rr.Body.Bytes(), &result); err != nil {
		t.Fatalf("parse result: %v", err)
	}
	if !result.Success || result.Game != "Halo 3" || result.Status != schema.StatusPlayable {
		t.Errorf("unexpected result: %+v", result)
	}
	if result.IssueURL != "https://github.com/xenios-jp/xenios.jp/issues/7" {
		t.Errorf("unexpected issue url %q", result.IssueURL)
	}

	message := env.store.lastMessage()
	if !strings.HasPrefix(message, "compat: Halo 3 — playable on MacBook Pro M3 (macOS)") {
		t.Errorf("unexpected commit message %q", message)
	}
	if !strings.Contains(message, "[via app]") {
		t.Errorf("expected the default source in the message, got %q", message)
	}

	if len(env.threader.reports) != 1 {
		t.Errorf("expected one thread sync, got %d", len(env.threader.reports))
	}
	if len(env.notifier.announced) != 1 || env.notifier.refreshed != 1 {
		t.Errorf("expected one announcement and one board refresh, got %d/%d",
			len(env.notifier.announced), env.notifier.refreshed)
	}
}

func TestReportValidationFailure(t *testing.T) {
	env := newTestEnv(t)

	body := strings.Replace(validReportBody(), `"playable"`, `"perfect"`, 1)
	rr := env.do(t, http.MethodPost, "/report", body, true)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", rr.Code)
	}
	if env.store.commitCount() != 0 {
		t.Error("expected no commit for an invalid report")
	}
}

func TestReportVersionConflict(t *testing.T) {
	env := newTestEnv(t)
	env.store.commitErr = games.ErrVersionConflict

	rr := env.do(t, http.MethodPost, "/report", validReportBody(), true)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
	var response map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if response["code"] != "CONFLICT" {
		t.Errorf("expected code CONFLICT, got %v", response["code"])
	}
	if len(env.notifier.announced) != 0 {
		t.Error("expected no announcement after a rejected commit")
	}
}

func TestReportSurvivesProjectionFailures(t *testing.T) {
	env := newTestEnv(t)
	env.threader.err = context.DeadlineExceeded
	env.notifier.announceErr = context.DeadlineExceeded
	env.notifier.refreshErr = context.DeadlineExceeded
	env.threader.url = ""

	rr := env.do(t, http.MethodPost, "/report", validReportBody(), true)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 despite projection failures, got %d", rr.Code)
	}
	var result PipelineResult
	if err := json.Unmarshal(rr.Body.Bytes(), &result); err != nil {
		t.Fatalf("parse result: %v", err)
	}
	if !result.Success || result.IssueURL != "" {
		t.Errorf("unexpected result: %+v", result)
	}
	if env.store.commitCount() != 1 {
		t.Errorf("expected the commit to land, got %d", env.store.commitCount())
	}
}

func TestBoardEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/board", "", false)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without a bearer token, got %d", rr.Code)
	}

	rr = env.do(t, http.MethodPost, "/board", "", true)
	if rr.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rr.Code)
	}
	if env.notifier.refreshed != 1 {
		t.Errorf("expected one board refresh, got %d", env.notifier.refreshed)
	}
}

func TestUnknownRouteReturns404(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/nope", "", false)
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rr.Code)
	}
}
