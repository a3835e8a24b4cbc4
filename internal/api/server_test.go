package api

import (
	"bufio"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/smazurov/stripnode/internal/api/models"
	"github.com/smazurov/stripnode/internal/effects"
	"github.com/smazurov/stripnode/internal/effects/scatter"
	"github.com/smazurov/stripnode/internal/events"
	"github.com/smazurov/stripnode/internal/logging"
	"github.com/smazurov/stripnode/internal/metrics/exporters"
)

const (
	testUser = "admin"
	testPass = "secret"
)

type testEnv struct {
	bus    *events.Bus
	status *StatusCache
	ts     *httptest.Server
}

func newTestEnv(t *testing.T, auth bool) *testEnv {
	t.Helper()
	bus := events.New()
	status := NewStatusCache(bus, "noop", 80, []string{"scatter-vivid", "rainbow"}, 5*time.Minute)
	t.Cleanup(status.Close)

	opts := &Options{
		EventBus:          bus,
		Status:            status,
		StatusLED:         func() string { return "solid" },
		PrometheusHandler: exporters.HTTPHandler(),
	}
	if auth {
		opts.AuthUsername = testUser
		opts.AuthPassword = testPass
	}

	ts := httptest.NewServer(NewServer(opts).Handler())
	t.Cleanup(ts.Close)
	return &testEnv{bus: bus, status: status, ts: ts}
}

func basic(user, pass string) string {
	return base64.StdEncoding.EncodeToString([]byte(user + ":" + pass))
}

func (e *testEnv) get(t *testing.T, path, authHeader string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, e.ts.URL+path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

// eventually polls cond until it holds or a second passes.
func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timeout waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHealthAndVersion_NoAuth(t *testing.T) {
	env := newTestEnv(t, true)

	resp := env.get(t, "/api/health", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status = %d, want 200", resp.StatusCode)
	}
	if got := decode[models.HealthData](t, resp); got.Status != "ok" {
		t.Errorf("health = %+v, want status ok", got)
	}

	resp = env.get(t, "/api/version", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("version status = %d, want 200", resp.StatusCode)
	}
	if got := decode[models.VersionData](t, resp); got.GoVersion == "" {
		t.Errorf("version = %+v, want go_version set", got)
	}
}

func TestBasicAuth(t *testing.T) {
	env := newTestEnv(t, true)

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"missing", "/api/status", "", http.StatusUnauthorized},
		{"wrong password", "/api/status", "Basic " + basic(testUser, "nope"), http.StatusUnauthorized},
		{"wrong scheme", "/api/status", "Bearer token", http.StatusUnauthorized},
		{"not base64", "/api/status", "Basic !!!", http.StatusUnauthorized},
		{"no colon", "/api/status", "Basic " + base64.StdEncoding.EncodeToString([]byte("admin")), http.StatusUnauthorized},
		{"header", "/api/status", "Basic " + basic(testUser, testPass), http.StatusOK},
		{"query", "/api/effects?auth=" + url.QueryEscape(basic(testUser, testPass)), "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.get(t, tt.path, tt.header)
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
			if tt.want == http.StatusUnauthorized && resp.Header.Get("WWW-Authenticate") == "" {
				t.Error("WWW-Authenticate header missing")
			}
		})
	}
}

func TestStatus_FollowsEvents(t *testing.T) {
	env := newTestEnv(t, false)

	stats := scatter.Stats{Admitting: 2, Held: 10, Retiring: 1, Active: 13, Ticks: 42}
	env.bus.Publish(events.EffectChangedEvent{Effect: "rainbow", Position: 1, Reason: "dwell", Timestamp: "2025-01-27T10:30:00Z"})
	eventually(t, "effect change", func() bool { return env.status.Status().Effect == "rainbow" })

	env.bus.Publish(events.FrameRenderedEvent{Tick: 42, Effect: "scatter-vivid", Lit: 13, Render: 0.5, Scatter: &stats})
	eventually(t, "frame report", func() bool { return env.status.Status().Tick == 42 })

	resp := env.get(t, "/api/status", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	got := decode[models.StatusData](t, resp)
	if got.Effect != "scatter-vivid" || got.Lit != 13 || got.Sink != "noop" || got.Length != 80 {
		t.Errorf("status = %+v", got)
	}
	if got.Scatter == nil || *got.Scatter != stats {
		t.Errorf("scatter = %+v, want %+v", got.Scatter, stats)
	}
	if !got.Running {
		t.Error("running = false before any sink error")
	}
	if got.StatusLED != "solid" {
		t.Errorf("status_led = %q, want solid", got.StatusLED)
	}

	// A late frame from before must not roll the tick back.
	env.bus.Publish(events.FrameRenderedEvent{Tick: 40, Effect: "scatter-vivid"})
	env.bus.Publish(events.SinkErrorEvent{Sink: "ws281x", Tick: 43, Error: "ws281x sink: DMA error"})
	eventually(t, "sink error", func() bool { return !env.status.Status().Running })
	if got := env.status.Status(); got.Tick != 42 || got.LastError != "ws281x sink: DMA error" {
		t.Errorf("after error: tick = %d, last_error = %q", got.Tick, got.LastError)
	}
}

func TestEffects_ListsCatalogueAndPlaylist(t *testing.T) {
	env := newTestEnv(t, false)

	got := decode[models.EffectsData](t, env.get(t, "/api/effects", ""))
	if !slices.Equal(got.Available, effects.Names()) {
		t.Errorf("available = %v, want %v", got.Available, effects.Names())
	}
	if !slices.Equal(got.Sequence, []string{"scatter-vivid", "rainbow"}) || got.Dwell != "5m0s" {
		t.Errorf("playlist = %v / %s", got.Sequence, got.Dwell)
	}

	env.bus.Publish(events.PlaylistReloadedEvent{Sequence: []string{"wipe"}, Dwell: "1m0s", Timestamp: "2025-01-27T10:40:00Z"})
	eventually(t, "playlist reload", func() bool {
		seq, _ := env.status.Playlist()
		return slices.Equal(seq, []string{"wipe"})
	})

	got = decode[models.EffectsData](t, env.get(t, "/api/effects", ""))
	if got.Dwell != "1m0s" {
		t.Errorf("dwell after reload = %q, want 1m0s", got.Dwell)
	}
}

func TestMetricsEndpoint_NoAuth(t *testing.T) {
	env := newTestEnv(t, true)
	resp := env.get(t, "/metrics", "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("metrics status = %d, want 200", resp.StatusCode)
	}
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t, true)
	req, err := http.NewRequest(http.MethodOptions, env.ts.URL+"/api/status", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
	if got := resp.Header.Get("Access-Control-Allow-Methods"); got != "GET, OPTIONS" {
		t.Errorf("Access-Control-Allow-Methods = %q, want GET, OPTIONS", got)
	}
}

// sseLines streams the data lines of an SSE response.
func sseLines(t *testing.T, env *testEnv, path string) <-chan string {
	t.Helper()
	resp := env.get(t, path, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s status = %d, want 200", path, resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "text/event-stream") {
		t.Fatalf("Content-Type = %q, want text/event-stream", ct)
	}

	lines := make(chan string, 32)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			if line := scanner.Text(); strings.HasPrefix(line, "data:") {
				lines <- line
			}
		}
	}()
	return lines
}

func waitLine(t *testing.T, lines <-chan string, want string) {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case line := <-lines:
			if strings.Contains(line, want) {
				return
			}
		case <-timeout:
			t.Fatalf("timeout waiting for SSE data containing %q", want)
		}
	}
}

func TestEventStream(t *testing.T) {
	env := newTestEnv(t, false)
	lines := sseLines(t, env, "/api/events")

	waitLine(t, lines, `"reason":"connected"`)

	env.bus.Publish(events.SinkErrorEvent{Sink: "ws281x", Tick: 7, Error: "wire fault"})
	waitLine(t, lines, "wire fault")
}

func TestLogStream_HistoryThenLive(t *testing.T) {
	logging.Initialize(logging.Config{Level: "info", Format: "text"})
	env := newTestEnv(t, false)
	logging.SetLogCallback(func(entry logging.LogEntry) {
		env.bus.Publish(LogEvent(entry))
	})
	t.Cleanup(func() { logging.SetLogCallback(nil) })

	logger := logging.GetLogger("apitest")
	logger.Info("before connect", "n", 1)

	lines := sseLines(t, env, "/api/logs/stream")
	waitLine(t, lines, "before connect")

	logger.Warn("after connect")
	waitLine(t, lines, "after connect")
}

func TestRedactQuery(t *testing.T) {
	q := url.Values{"auth": {"c2VjcmV0"}, "x": {"1"}}
	got := redactQuery(q)
	if strings.Contains(got, "c2VjcmV0") {
		t.Errorf("redactQuery() = %q, leaked credentials", got)
	}
	if !strings.Contains(got, "x=1") {
		t.Errorf("redactQuery() = %q, dropped other parameters", got)
	}
	if got := redactQuery(url.Values{}); got != "" {
		t.Errorf("redactQuery(empty) = %q, want empty", got)
	}
}

func TestRequestLog_RedactsAuthQuery(t *testing.T) {
	logging.Initialize(logging.Config{Level: "info", Format: "text"})
	env := newTestEnv(t, false)

	secret := basic(testUser, testPass)
	resp := env.get(t, "/api/effects?x=1&auth="+url.QueryEscape(secret), "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var query string
	eventually(t, "request log entry", func() bool {
		for _, entry := range logging.GetBuffer().ReadAll() {
			if entry.Module != "http" || entry.Attributes["path"] != "/api/effects" {
				continue
			}
			query, _ = entry.Attributes["query"].(string)
			return true
		}
		return false
	})
	if strings.Contains(query, secret) || strings.Contains(query, url.QueryEscape(secret)) {
		t.Errorf("logged query = %q, leaked credentials", query)
	}
	if !strings.Contains(query, "auth=REDACTED") || !strings.Contains(query, "x=1") {
		t.Errorf("logged query = %q, want auth=REDACTED and x=1", query)
	}
}

func TestServer_StopBeforeStart(t *testing.T) {
	s := NewServer(&Options{})
	if err := s.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- s.Start("127.0.0.1:0") }()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() after Stop() error = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		_ = s.Stop()
		t.Fatal("Start() kept serving after Stop()")
	}
}

func TestServer_StartThenStop(t *testing.T) {
	s := NewServer(&Options{})
	done := make(chan error, 1)
	go func() { done <- s.Start("127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	if err := s.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() error = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start() did not return after Stop()")
	}
}

func TestRequestLevel(t *testing.T) {
	tests := []struct {
		method string
		path   string
		status int
		want   string
	}{
		{http.MethodGet, "/api/effects", 200, "INFO"},
		{http.MethodGet, "/api/status", 200, "DEBUG"},
		{http.MethodOptions, "/api/effects", 204, "DEBUG"},
		{http.MethodGet, "/api/status", 401, "WARN"},
		{http.MethodGet, "/api/effects", 500, "ERROR"},
	}
	for _, tt := range tests {
		if got := requestLevel(tt.method, tt.path, tt.status).String(); got != tt.want {
			t.Errorf("requestLevel(%s %s %d) = %s, want %s", tt.method, tt.path, tt.status, got, tt.want)
		}
	}
}
