package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/m4xw311/palaver/config"
)

// fakeOllama answers both blocking and streaming chat requests with fixed
// text so sessions can run against a local endpoint.
func fakeOllama(t *testing.T, reply string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Stream bool `json:"stream"`
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.Stream {
			for _, part := range []string{reply[:len(reply)/2], reply[len(reply)/2:]} {
				fmt.Fprintf(w, `{"message":{"role":"assistant","content":%q},"done":false}`+"\n", part)
			}
			fmt.Fprintln(w, `{"message":{"role":"assistant","content":""},"done":true}`)
			return
		}
		fmt.Fprintf(w, `{"message":{"role":"assistant","content":%q},"done":true}`, reply)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestServer(t *testing.T, ollamaURL string) *httptest.Server {
	t.Helper()
	cfg := &config.Config{
		DefaultProvider: "ollama",
		DefaultModel:    "llama3",
		MaxHistory:      10,
		Port:            "0",
		ConversationDir: t.TempDir(),
		OllamaBaseURL:   ollamaURL,
	}
	s := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	srv := httptest.NewServer(s.Routes())
	t.Cleanup(srv.Close)
	return srv
}

func createSession(t *testing.T, srv *httptest.Server, body string) string {
	t.Helper()
	resp, err := http.Post(srv.URL+"/api/sessions", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("create session status = %d: %s", resp.StatusCode, b)
	}
	var out struct {
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if out.SessionID == "" {
		t.Fatal("empty session id")
	}
	return out.SessionID
}

func TestCreateSessionAndChat(t *testing.T) {
	ollama := fakeOllama(t, "Hello from the model.")
	srv := newTestServer(t, ollama.URL)

	id := createSession(t, srv, "")

	payload := bytes.NewBufferString(`{"message":"hi"}`)
	resp, err := http.Post(srv.URL+"/api/sessions/"+id+"/chat", "application/json", payload)
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("chat status = %d", resp.StatusCode)
	}
	var out struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Response != "Hello from the model." {
		t.Errorf("response = %q", out.Response)
	}
}

func TestCreateSessionUnknownProvider(t *testing.T) {
	srv := newTestServer(t, "http://localhost:1")

	resp, err := http.Post(srv.URL+"/api/sessions", "application/json",
		strings.NewReader(`{"provider":"skynet"}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestChatUnknownSession(t *testing.T) {
	srv := newTestServer(t, "http://localhost:1")

	resp, err := http.Post(srv.URL+"/api/sessions/nope/chat", "application/json",
		strings.NewReader(`{"message":"hi"}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestChatMissingMessage(t *testing.T) {
	ollama := fakeOllama(t, "unused")
	srv := newTestServer(t, ollama.URL)
	id := createSession(t, srv, "")

	resp, err := http.Post(srv.URL+"/api/sessions/"+id+"/chat", "application/json",
		strings.NewReader(`{}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestClearAndInfo(t *testing.T) {
	ollama := fakeOllama(t, "noted")
	srv := newTestServer(t, ollama.URL)
	id := createSession(t, srv, "")

	if _, err := http.Post(srv.URL+"/api/sessions/"+id+"/chat", "application/json",
		strings.NewReader(`{"message":"hello"}`)); err != nil {
		t.Fatal(err)
	}

	resp, err := http.Post(srv.URL+"/api/sessions/"+id+"/clear", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("clear status = %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/api/sessions/" + id + "/info")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var info map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		t.Fatal(err)
	}
	if info["provider"] != "ollama" || info["model"] != "llama3" {
		t.Errorf("info = %v", info)
	}
	// Only the re-seeded system message remains after the clear.
	if got := info["conversation_length"]; got != float64(1) {
		t.Errorf("conversation_length = %v", got)
	}
}

func TestDeleteSession(t *testing.T) {
	ollama := fakeOllama(t, "unused")
	srv := newTestServer(t, ollama.URL)
	id := createSession(t, srv, "")

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/api/sessions/"+id, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}

	// Second delete reports not found.
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", resp.StatusCode)
	}
}

func TestProvidersEndpoint(t *testing.T) {
	srv := newTestServer(t, "http://localhost:1")

	resp, err := http.Get(srv.URL + "/api/providers")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var out struct {
		Providers  []string        `json:"providers"`
		Configured map[string]bool `json:"configured"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.Providers) != 6 {
		t.Errorf("providers = %v", out.Providers)
	}
	if !out.Configured["ollama"] {
		t.Error("ollama should always report configured")
	}
	if out.Configured["openai"] {
		t.Error("openai should report unconfigured without an API key")
	}
}

func TestSaveLoadAndListConversations(t *testing.T) {
	ollama := fakeOllama(t, "noted")
	srv := newTestServer(t, ollama.URL)
	id := createSession(t, srv, "")

	if _, err := http.Post(srv.URL+"/api/sessions/"+id+"/chat", "application/json",
		strings.NewReader(`{"message":"remember me"}`)); err != nil {
		t.Fatal(err)
	}

	resp, err := http.Post(srv.URL+"/api/sessions/"+id+"/save", "application/json",
		strings.NewReader(`{"name":"trip"}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("save status = %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/api/conversations")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var listing struct {
		Conversations []string `json:"conversations"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		t.Fatal(err)
	}
	if len(listing.Conversations) != 1 || listing.Conversations[0] != "trip.json" {
		t.Errorf("conversations = %v", listing.Conversations)
	}

	// A second session can load the saved transcript.
	other := createSession(t, srv, "")
	resp, err = http.Post(srv.URL+"/api/sessions/"+other+"/load", "application/json",
		strings.NewReader(`{"name":"trip"}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("load status = %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/api/sessions/" + other + "/info")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var info map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		t.Fatal(err)
	}
	// system + user + assistant from the saved conversation.
	if info["conversation_length"] != float64(3) {
		t.Errorf("conversation_length = %v", info["conversation_length"])
	}
}

func TestSaveRejectsEscapingName(t *testing.T) {
	ollama := fakeOllama(t, "unused")
	srv := newTestServer(t, ollama.URL)
	id := createSession(t, srv, "")

	for _, name := range []string{"../../somewhere/evil", "..", "sub/dir"} {
		body, _ := json.Marshal(map[string]string{"name": name})
		resp, err := http.Post(srv.URL+"/api/sessions/"+id+"/save", "application/json",
			bytes.NewReader(body))
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("save %q status = %d, want 400", name, resp.StatusCode)
		}
	}
}

func TestLoadRejectsEscapingName(t *testing.T) {
	ollama := fakeOllama(t, "unused")
	srv := newTestServer(t, ollama.URL)
	id := createSession(t, srv, "")

	resp, err := http.Post(srv.URL+"/api/sessions/"+id+"/load", "application/json",
		strings.NewReader(`{"name":"../../etc/passwd"}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("load status = %d, want 400", resp.StatusCode)
	}
}

func TestLoadMissingConversation(t *testing.T) {
	ollama := fakeOllama(t, "unused")
	srv := newTestServer(t, ollama.URL)
	id := createSession(t, srv, "")

	resp, err := http.Post(srv.URL+"/api/sessions/"+id+"/load", "application/json",
		strings.NewReader(`{"name":"ghost"}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestToolsEndpoint(t *testing.T) {
	srv := newTestServer(t, "http://localhost:1")

	resp, err := http.Get(srv.URL + "/api/tools")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var out struct {
		Tools []struct {
			Name        string         `json:"name"`
			Description string         `json:"description"`
			Parameters  map[string]any `json:"parameters"`
		} `json:"tools"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.Tools) != 3 {
		t.Fatalf("tools = %+v", out.Tools)
	}
	// Registry listing is sorted by name.
	if out.Tools[0].Name != "calculator" {
		t.Errorf("first tool = %q", out.Tools[0].Name)
	}
	if out.Tools[0].Parameters["type"] != "object" {
		t.Errorf("calculator schema = %v", out.Tools[0].Parameters)
	}
}

func TestStreamTurnOverWebSocket(t *testing.T) {
	ollama := fakeOllama(t, "Hello world.")
	srv := newTestServer(t, ollama.URL)
	id := createSession(t, srv, "")

	ctx := context.Background()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/sessions/" + id + "/stream"
	ws, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer ws.Close(websocket.StatusNormalClosure, "")

	if err := wsjson.Write(ctx, ws, map[string]string{"message": "hi"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	var full strings.Builder
	for {
		var ev struct {
			Type string `json:"type"`
			Text string `json:"text"`
		}
		if err := wsjson.Read(ctx, ws, &ev); err != nil {
			t.Fatalf("read: %v", err)
		}
		switch ev.Type {
		case "fragment":
			full.WriteString(ev.Text)
		case "error":
			t.Fatalf("stream error: %s", ev.Text)
		case "done":
			if full.String() != "Hello world." {
				t.Errorf("streamed text = %q", full.String())
			}
			return
		default:
			t.Fatalf("unexpected event type %q", ev.Type)
		}
	}
}

func TestStreamUnknownSession(t *testing.T) {
	srv := newTestServer(t, "http://localhost:1")

	resp, err := http.Get(srv.URL + "/api/sessions/nope/stream")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}
