package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"trustblocks/pkg/cache"
	svc "trustblocks/pkg/services"

	"github.com/gin-gonic/gin"
)

var errFake = errors.New("provider down")

// fakeProvider is a deterministic ChatProvider substitute for handler tests.
type fakeProvider struct {
	reply  string
	chunks []string
	err    error
	calls  atomic.Int64
}

func (f *fakeProvider) SendChat(ctx context.Context, history []svc.ChatMessage) (string, error) {
	f.calls.Add(1)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeProvider) StreamChat(ctx context.Context, history []svc.ChatMessage, onDelta func(string)) (string, error) {
	f.calls.Add(1)
	if f.err != nil {
		return "", f.err
	}
	var b strings.Builder
	for _, ch := range f.chunks {
		if onDelta != nil {
			onDelta(ch)
		}
		b.WriteString(ch)
	}
	return b.String(), nil
}

func newChatRouter(p svc.ChatProvider) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/chat", Chat(p, cache.New(16), time.Minute))
	r.POST("/api/chat/stream", ChatStream(p))
	return r
}

func postJSON(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestChatRejectsInvalidInput(t *testing.T) {
	p := &fakeProvider{reply: "should not be reached"}
	r := newChatRouter(p)

	for _, body := range []string{
		`{}`,
		`{"message": "   "}`,
		`not json`,
		`{"message": "hi", "history": [{"role": "system", "content": "x"}]}`,
	} {
		w := postJSON(r, "/api/chat", body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("body %q: expected 400, got %d", body, w.Code)
		}
		if !strings.Contains(w.Body.String(), "Invalid input") {
			t.Fatalf("body %q: expected Invalid input message, got %s", body, w.Body.String())
		}
	}
	if p.calls.Load() != 0 {
		t.Fatalf("provider must not be called for invalid input, got %d calls", p.calls.Load())
	}
}

func TestChatReturnsProviderReply(t *testing.T) {
	p := &fakeProvider{reply: "A block is a batch of transactions."}
	r := newChatRouter(p)

	w := postJSON(r, "/api/chat", `{"message": "What is a block?"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "A block is a batch of transactions.") {
		t.Fatalf("unexpected body %s", w.Body.String())
	}
}

func TestChatFallbackEchoesMessage(t *testing.T) {
	r := newChatRouter(svc.NewLocalTutorService())

	w := postJSON(r, "/api/chat", `{"message": "What is a block?"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "What is a block?") {
		t.Fatalf("expected fallback to echo the message, got %s", w.Body.String())
	}
}

func TestChatProviderFailure(t *testing.T) {
	p := &fakeProvider{err: errFake}
	r := newChatRouter(p)

	w := postJSON(r, "/api/chat", `{"message": "hi"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Failed to get AI response") {
		t.Fatalf("unexpected body %s", w.Body.String())
	}
}

func TestChatCachesRepliesByHistory(t *testing.T) {
	p := &fakeProvider{reply: "cached answer"}
	r := newChatRouter(p)

	body := `{"message": "hi", "history": [{"role": "user", "content": "a"}, {"role": "assistant", "content": "b"}]}`
	for i := 0; i < 2; i++ {
		if w := postJSON(r, "/api/chat", body); w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, w.Code)
		}
	}
	if p.calls.Load() != 1 {
		t.Fatalf("expected one provider call for identical requests, got %d", p.calls.Load())
	}

	// a different message must miss the cache
	if w := postJSON(r, "/api/chat", `{"message": "different"}`); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if p.calls.Load() != 2 {
		t.Fatalf("expected a second provider call, got %d", p.calls.Load())
	}
}

func TestChatStreamEmitsContentAndDone(t *testing.T) {
	p := &fakeProvider{chunks: []string{"Hel", "lo"}}
	r := newChatRouter(p)

	w := postJSON(r, "/api/chat/stream", `{"message": "hi"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("expected event-stream content type, got %q", ct)
	}

	body := w.Body.String()
	for _, want := range []string{
		`data: {"content":"Hel"}`,
		`data: {"content":"lo"}`,
		`data: {"done":true}`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in stream, got:\n%s", want, body)
		}
	}
	if !strings.HasSuffix(strings.TrimSpace(body), `{"done":true}`) {
		t.Fatalf("expected the stream to end with the done event, got:\n%s", body)
	}
}

func TestChatStreamEmptyReplyStillEmitsDone(t *testing.T) {
	p := &fakeProvider{}
	r := newChatRouter(p)

	w := postJSON(r, "/api/chat/stream", `{"message": "hi"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if body := w.Body.String(); body != "data: {\"done\":true}\n\n" {
		t.Fatalf("expected only the terminal done event, got:\n%s", body)
	}
}

func TestChatStreamEmitsErrorEvent(t *testing.T) {
	p := &fakeProvider{err: errFake}
	r := newChatRouter(p)

	w := postJSON(r, "/api/chat/stream", `{"message": "hi"}`)
	body := w.Body.String()
	if !strings.Contains(body, `data: {"error":"Failed to get AI response"}`) {
		t.Fatalf("expected an error event, got:\n%s", body)
	}
	if strings.Contains(body, `"done"`) {
		t.Fatalf("a failed stream must not emit done, got:\n%s", body)
	}
}

func TestChatStreamRejectsInvalidInputBeforeStreaming(t *testing.T) {
	p := &fakeProvider{chunks: []string{"x"}}
	r := newChatRouter(p)

	w := postJSON(r, "/api/chat/stream", `{"history": [{"role": "user", "content": "a"}]}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); strings.Contains(ct, "text/event-stream") {
		t.Fatalf("validation failures must not open a stream, got content type %q", ct)
	}
}
