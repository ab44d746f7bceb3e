package adapthttp_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	adapthttp "mathtutor/internal/adapter/http"
	"mathtutor/internal/adapter/memory"
	"mathtutor/internal/app"
)

// ---------------------------------------------------------------------------
// Backend mocks (function-fields pattern)
// ---------------------------------------------------------------------------

type mockGenerator struct {
	completeFn func(ctx context.Context, system, prompt string) (string, error)
}

func (m *mockGenerator) Complete(ctx context.Context, system, prompt string) (string, error) {
	if m.completeFn != nil {
		return m.completeFn(ctx, system, prompt)
	}
	return "The answer is 4.", nil
}

type mockRecognizer struct {
	recognizeFn func(ctx context.Context, image []byte) (string, error)
}

func (m *mockRecognizer) RecognizeImage(ctx context.Context, image []byte) (string, error) {
	if m.recognizeFn != nil {
		return m.recognizeFn(ctx, image)
	}
	return "2+2", nil
}

type mockTranscriber struct {
	transcribeFn func(ctx context.Context, filename string, audio []byte) (string, error)
}

func (m *mockTranscriber) TranscribeAudio(ctx context.Context, filename string, audio []byte) (string, error) {
	if m.transcribeFn != nil {
		return m.transcribeFn(ctx, filename, audio)
	}
	return "what is two plus two", nil
}

// ---------------------------------------------------------------------------
// Test-server helpers
// ---------------------------------------------------------------------------

func newTestServer(t *testing.T, gen *mockGenerator, ocr *mockRecognizer, stt *mockTranscriber) *httptest.Server {
	t.Helper()

	if gen == nil {
		gen = &mockGenerator{}
	}
	if ocr == nil {
		ocr = &mockRecognizer{}
	}
	if stt == nil {
		stt = &mockTranscriber{}
	}

	users := memory.NewUserRepo()
	sessions := memory.NewSessionStore()
	authSvc := app.NewAuthService(users, sessions)
	tutorSvc := app.NewTutorService(gen, ocr, stt, sessions)

	webDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(webDir, "index.html"), []byte("<html></html>"), 0o600); err != nil {
		t.Fatal(err)
	}

	srv := adapthttp.New(authSvc, tutorSvc, nil, webDir)
	return httptest.NewServer(srv.Handler())
}

// newClient returns a cookie-carrying client so the session cookie rides along.
func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	return &http.Client{Jar: jar}
}

func postJSON(t *testing.T, c *http.Client, url string, payload map[string]any) *http.Response {
	t.Helper()
	b, _ := json.Marshal(payload)
	resp, err := c.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	return m
}

// login signs alice up and logs her in, leaving the session cookie in the jar.
func login(t *testing.T, c *http.Client, baseURL string) {
	t.Helper()

	resp := postJSON(t, c, baseURL+"/api/signup", map[string]any{"username": "alice", "password": "pw123"})
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("signup: expected 200, got %d", resp.StatusCode)
	}

	resp = postJSON(t, c, baseURL+"/api/login", map[string]any{"username": "alice", "password": "pw123"})
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", resp.StatusCode)
	}
}

func uploadFile(t *testing.T, c *http.Client, url, field, filename string, data []byte) *http.Response {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	resp, err := c.Post(url, mw.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t, nil, nil, nil)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["ok"] != true {
		t.Fatalf("expected ok=true, got %v", body["ok"])
	}
}

func TestSignupValidation(t *testing.T) {
	ts := newTestServer(t, nil, nil, nil)
	defer ts.Close()
	c := newClient(t)

	tests := []struct {
		name       string
		payload    map[string]any
		wantStatus int
	}{
		{"valid", map[string]any{"username": "alice", "password": "pw123"}, http.StatusOK},
		{"duplicate username", map[string]any{"username": "alice", "password": "other"}, http.StatusConflict},
		{"missing username", map[string]any{"username": "", "password": "pw"}, http.StatusBadRequest},
		{"missing password", map[string]any{"username": "bob", "password": ""}, http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := postJSON(t, c, ts.URL+"/api/signup", tc.payload)
			defer resp.Body.Close() //nolint:errcheck
			if resp.StatusCode != tc.wantStatus {
				t.Fatalf("expected %d, got %d", tc.wantStatus, resp.StatusCode)
			}
		})
	}
}

func TestLoginFlow(t *testing.T) {
	ts := newTestServer(t, nil, nil, nil)
	defer ts.Close()
	c := newClient(t)

	resp := postJSON(t, c, ts.URL+"/api/signup", map[string]any{"username": "alice", "password": "pw123"})
	_ = resp.Body.Close()

	// Signup alone does not grant a session.
	resp, err := c.Get(ts.URL + "/api/chat")
	if err != nil {
		t.Fatal(err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 before login, got %d", resp.StatusCode)
	}

	resp = postJSON(t, c, ts.URL+"/api/login", map[string]any{"username": "alice", "password": "wrong"})
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad login: expected 401, got %d", resp.StatusCode)
	}

	resp = postJSON(t, c, ts.URL+"/api/login", map[string]any{"username": "alice", "password": "pw123"})
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", resp.StatusCode)
	}

	resp, err = c.Get(ts.URL + "/api/chat")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("chat after login: expected 200, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["username"] != "alice" {
		t.Errorf("expected username alice, got %v", body["username"])
	}
	if entries, ok := body["entries"].([]any); !ok || len(entries) != 0 {
		t.Errorf("expected empty entries array, got %v", body["entries"])
	}
}

func TestAskText(t *testing.T) {
	ts := newTestServer(t, nil, nil, nil)
	defer ts.Close()
	c := newClient(t)
	login(t, c, ts.URL)

	resp := postJSON(t, c, ts.URL+"/api/ask/text", map[string]any{"question": "What is 2+2?"})
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body := decodeBody(t, resp)
	entries, ok := body["entries"].([]any)
	if !ok || len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %v", body["entries"])
	}
	user := entries[0].(map[string]any)
	ai := entries[1].(map[string]any)
	if user["role"] != "user" || user["text"] != "What is 2+2?" {
		t.Errorf("unexpected user entry: %v", user)
	}
	if ai["role"] != "ai" || ai["text"] == "" {
		t.Errorf("unexpected ai entry: %v", ai)
	}
}

func TestAskText_EmptyQuestion(t *testing.T) {
	ts := newTestServer(t, nil, nil, nil)
	defer ts.Close()
	c := newClient(t)
	login(t, c, ts.URL)

	resp := postJSON(t, c, ts.URL+"/api/ask/text", map[string]any{"question": "   "})
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestAskVoice(t *testing.T) {
	ts := newTestServer(t, nil, nil, nil)
	defer ts.Close()
	c := newClient(t)
	login(t, c, ts.URL)

	resp := uploadFile(t, c, ts.URL+"/api/ask/voice", "audio", "question.wav", []byte("RIFF..."))
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body := decodeBody(t, resp)
	entries := body["entries"].([]any)
	user := entries[0].(map[string]any)
	if user["text"] != "[Voice] what is two plus two" {
		t.Errorf("unexpected user entry: %v", user)
	}
}

func TestAskVoice_NoFile(t *testing.T) {
	ts := newTestServer(t, nil, nil, nil)
	defer ts.Close()
	c := newClient(t)
	login(t, c, ts.URL)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	_ = mw.Close()

	resp, err := c.Post(ts.URL+"/api/ask/voice", mw.FormDataContentType(), &body)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestAskImage_ExtractionErrorIsForwarded(t *testing.T) {
	var prompt string
	gen := &mockGenerator{
		completeFn: func(ctx context.Context, system, p string) (string, error) {
			prompt = p
			return "That does not look like a math question.", nil
		},
	}
	ocr := &mockRecognizer{
		recognizeFn: func(ctx context.Context, image []byte) (string, error) {
			return "", errors.New("decode image: image: unknown format")
		},
	}

	ts := newTestServer(t, gen, ocr, nil)
	defer ts.Close()
	c := newClient(t)
	login(t, c, ts.URL)

	resp := uploadFile(t, c, ts.URL+"/api/ask/image", "image", "scan.png", []byte("not-an-image"))
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body := decodeBody(t, resp)
	entries := body["entries"].([]any)
	user := entries[0].(map[string]any)
	if !strings.HasPrefix(user["text"].(string), "[Image] Error extracting text:") {
		t.Errorf("unexpected user entry: %v", user)
	}
	// The extraction error went to the model as if it were the question.
	if !strings.HasPrefix(prompt, "Error extracting text:") {
		t.Errorf("unexpected prompt: %q", prompt)
	}
	ai := entries[1].(map[string]any)
	if ai["text"] != "That does not look like a math question." {
		t.Errorf("unexpected ai entry: %v", ai)
	}
}

func TestClearChat(t *testing.T) {
	ts := newTestServer(t, nil, nil, nil)
	defer ts.Close()
	c := newClient(t)
	login(t, c, ts.URL)

	for _, q := range []string{"What is 2+2?", "What is 3+3?"} {
		resp := postJSON(t, c, ts.URL+"/api/ask/text", map[string]any{"question": q})
		_ = resp.Body.Close()
	}

	resp, err := c.Get(ts.URL + "/api/chat")
	if err != nil {
		t.Fatal(err)
	}
	body := decodeBody(t, resp)
	_ = resp.Body.Close()
	if entries := body["entries"].([]any); len(entries) != 4 {
		t.Fatalf("expected 4 entries before clear, got %d", len(entries))
	}

	resp, err = c.Post(ts.URL+"/api/chat/clear", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("clear: expected 200, got %d", resp.StatusCode)
	}

	resp, err = c.Get(ts.URL + "/api/chat")
	if err != nil {
		t.Fatal(err)
	}
	body = decodeBody(t, resp)
	_ = resp.Body.Close()
	if entries := body["entries"].([]any); len(entries) != 0 {
		t.Fatalf("expected 0 entries after clear, got %d", len(entries))
	}
}

func TestLogout(t *testing.T) {
	ts := newTestServer(t, nil, nil, nil)
	defer ts.Close()
	c := newClient(t)
	login(t, c, ts.URL)

	resp, err := c.Post(ts.URL+"/api/logout", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", resp.StatusCode)
	}

	resp, err = c.Get(ts.URL + "/api/chat")
	if err != nil {
		t.Fatal(err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", resp.StatusCode)
	}
}

func TestUnauthorizedWithoutCookie(t *testing.T) {
	ts := newTestServer(t, nil, nil, nil)
	defer ts.Close()

	paths := []struct{ method, path string }{
		{http.MethodGet, "/api/chat"},
		{http.MethodPost, "/api/chat/clear"},
		{http.MethodPost, "/api/ask/text"},
		{http.MethodPost, "/api/ask/voice"},
		{http.MethodPost, "/api/ask/image"},
	}

	for _, tc := range paths {
		req, err := http.NewRequest(tc.method, ts.URL+tc.path, nil)
		if err != nil {
			t.Fatal(err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		_ = resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("%s %s: expected 401, got %d", tc.method, tc.path, resp.StatusCode)
		}
	}
}

func TestSSODisabled(t *testing.T) {
	ts := newTestServer(t, nil, nil, nil)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/config")
	if err != nil {
		t.Fatal(err)
	}
	body := decodeBody(t, resp)
	_ = resp.Body.Close()
	if body["sso_enabled"] != false {
		t.Errorf("expected sso_enabled=false, got %v", body["sso_enabled"])
	}

	resp, err = http.Get(ts.URL + "/api/auth/sso/login")
	if err != nil {
		t.Fatal(err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for disabled SSO, got %d", resp.StatusCode)
	}
}

func TestSPAFallback(t *testing.T) {
	ts := newTestServer(t, nil, nil, nil)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Cache-Control"); got != "no-store" {
		t.Errorf("expected no-store cache header, got %q", got)
	}
	page, _ := io.ReadAll(resp.Body)
	if !bytes.Contains(page, []byte("<html>")) {
		t.Errorf("expected index page, got %q", page)
	}
}
