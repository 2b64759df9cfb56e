package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/boxdeck/pkg/cache"
	"github.com/matzehuels/boxdeck/pkg/observability"
)

const testDeck = `
width: 320
height: 180
slides:
  - name: first
    root:
      children:
        - {name: title, height: 40, text: Hello}
  - name: second
    root: {name: box, rect: {fill: "#336699"}}
`

func newTestServer(t *testing.T, cfg Config) *httptest.Server {
	t.Helper()
	cfg.Fixed = true
	cfg.Logger = log.New(io.Discard)
	ts := httptest.NewServer(New(cfg).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, ts *httptest.Server, query, contentType, body string, header ...string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, ts.URL+"/v1/render"+query, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeError(t *testing.T, resp *http.Response) errorBody {
	t.Helper()
	var body errorBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body
}

func TestHealthAndFormats(t *testing.T) {
	ts := newTestServer(t, Config{})

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var health map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK || health["status"] != "ok" {
		t.Errorf("healthz = %d %v", resp.StatusCode, health)
	}

	resp, err = http.Get(ts.URL + "/v1/formats")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var formats struct{ Formats []string }
	if err := json.NewDecoder(resp.Body).Decode(&formats); err != nil {
		t.Fatal(err)
	}
	if len(formats.Formats) != 4 {
		t.Errorf("formats = %v", formats.Formats)
	}
}

func TestRender(t *testing.T) {
	ts := newTestServer(t, Config{})

	tests := []struct {
		name        string
		query       string
		contentType string
		wantType    string
		wantPrefix  string
	}{
		{"svg first page", "?format=svg", "application/yaml", "image/svg+xml", "<?xml"},
		{"svg second page", "?format=svg&page=1&syntax=yaml", "", "image/svg+xml", "<?xml"},
		{"png", "?format=png&scale=0.5", "application/x-yaml", "image/png", "\x89PNG"},
		{"json", "?format=JSON", "application/yaml; charset=utf-8", "application/json", "{"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, ts, tt.query, tt.contentType, testDeck)
			data, _ := io.ReadAll(resp.Body)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d: %s", resp.StatusCode, data)
			}
			if got := resp.Header.Get("Content-Type"); got != tt.wantType {
				t.Errorf("Content-Type = %q, want %q", got, tt.wantType)
			}
			if !bytes.HasPrefix(bytes.TrimSpace(data), []byte(tt.wantPrefix)) {
				t.Errorf("body starts with %q", data[:min(len(data), 16)])
			}
			if resp.Header.Get(HeaderDeckHash) == "" {
				t.Error("missing deck hash header")
			}
		})
	}
}

func TestRenderCache(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ts := newTestServer(t, Config{Cache: c})

	for _, want := range []string{"miss", "hit"} {
		resp := post(t, ts, "?format=svg", "application/yaml", testDeck)
		if got := resp.Header.Get(HeaderCache); got != want {
			t.Errorf("%s = %q, want %q", HeaderCache, got, want)
		}
	}

	// Another client does not see the first client's entries.
	resp := post(t, ts, "?format=svg", "application/yaml", testDeck, HeaderClientID, "team-b")
	if got := resp.Header.Get(HeaderCache); got != "miss" {
		t.Errorf("scoped %s = %q, want miss", HeaderCache, got)
	}
}

func TestRequestID(t *testing.T) {
	ts := newTestServer(t, Config{})

	id := "8f14e45f-ceea-467f-a9f1-3c1d6c5d0a3b"
	resp := post(t, ts, "?format=json", "application/yaml", testDeck, HeaderRequestID, id)
	if got := resp.Header.Get(HeaderRequestID); got != id {
		t.Errorf("request id = %q, want %q", got, id)
	}

	resp = post(t, ts, "?format=json", "application/yaml", testDeck, HeaderRequestID, "not a uuid")
	if got := resp.Header.Get(HeaderRequestID); got == "not a uuid" || got == "" {
		t.Errorf("malformed request id was echoed: %q", got)
	}
}

func TestRenderErrors(t *testing.T) {
	ts := newTestServer(t, Config{MaxBodyBytes: 512})

	tests := []struct {
		name        string
		query       string
		contentType string
		body        string
		status      int
		code        string
	}{
		{"bad format", "?format=gif", "application/yaml", testDeck, 400, "INVALID_FORMAT"},
		{"no syntax", "", "", testDeck, 400, "INVALID_FORMAT"},
		{"bad content type", "", "text/plain", testDeck, 400, "INVALID_FORMAT"},
		{"bad page", "?format=svg&page=-1", "application/yaml", testDeck, 400, "INVALID_INPUT"},
		{"page out of range", "?format=svg&page=9", "application/yaml", testDeck, 400, "INVALID_INPUT"},
		{"bad scale", "?format=png&scale=0", "application/yaml", testDeck, 400, "INVALID_INPUT"},
		{"empty body", "", "application/yaml", "", 400, "INVALID_INPUT"},
		{"too large", "", "application/yaml", strings.Repeat("#", 1024), 400, "INVALID_INPUT"},
		{"malformed deck", "", "application/yaml", "slides: [", 400, "INVALID_DECK"},
		{"no slides", "", "application/yaml", "width: 10\n", 400, "EMPTY_DECK"},
		{"sandboxed image", "?format=json", "application/yaml", "slides:\n  - root: {image: /etc/passwd}\n", 400, "INVALID_PATH"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, ts, tt.query, tt.contentType, tt.body)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			body := decodeError(t, resp)
			if body.Code != tt.code {
				t.Errorf("code = %q (%s), want %q", body.Code, body.Message, tt.code)
			}
			if body.RequestID == "" || body.RequestID != resp.Header.Get(HeaderRequestID) {
				t.Errorf("request_id = %q, header %q", body.RequestID, resp.Header.Get(HeaderRequestID))
			}
		})
	}
}

func TestRenderSlideErrors(t *testing.T) {
	ts := newTestServer(t, Config{})
	const broken = `
slides:
  - name: ok
    root: {name: a}
  - name: broken
    root: {name: b}
    lines:
      - points: [{x: 0, y: 0}, {anchor: ghost}]
`
	resp := post(t, ts, "?format=pdf", "application/yaml", broken)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := decodeError(t, resp)
	if body.Code != "UNKNOWN_ANCHOR" {
		t.Errorf("code = %q", body.Code)
	}
	if len(body.Slides) != 1 || body.Slides[0].Index != 1 || body.Slides[0].Name != "broken" {
		t.Errorf("slides = %+v", body.Slides)
	}
}

func TestNotFound(t *testing.T) {
	ts := newTestServer(t, Config{})
	resp, err := http.Get(ts.URL + "/v2/render")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if body := decodeError(t, resp); body.Code != "NOT_FOUND" {
		t.Errorf("code = %q", body.Code)
	}
}

func TestClientScope(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", "client:public:"},
		{"team-a_1", "client:team-a_1:"},
		{"../etc", "client:public:"},
		{strings.Repeat("a", 65), "client:public:"},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodPost, "/v1/render", nil)
		if tt.header != "" {
			r.Header.Set(HeaderClientID, tt.header)
		}
		if got := clientScope(r); got != tt.want {
			t.Errorf("clientScope(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}

type recordingServerHooks struct {
	observability.NoopServerHooks
	mu       sync.Mutex
	statuses []int
}

func (h *recordingServerHooks) OnResponse(_ context.Context, _, _, _ string, status int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.statuses = append(h.statuses, status)
}

func TestServerHooks(t *testing.T) {
	hooks := &recordingServerHooks{}
	observability.SetServerHooks(hooks)
	t.Cleanup(observability.Reset)

	ts := newTestServer(t, Config{})
	post(t, ts, "?format=json", "application/yaml", testDeck)
	post(t, ts, "?format=gif", "application/yaml", testDeck)

	hooks.mu.Lock()
	defer hooks.mu.Unlock()
	if len(hooks.statuses) != 2 || hooks.statuses[0] != 200 || hooks.statuses[1] != 400 {
		t.Errorf("statuses = %v, want [200 400]", hooks.statuses)
	}
}
