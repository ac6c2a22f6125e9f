package telegram

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path"
	"sync"
	"testing"
	"time"
)

const testToken = "123456:TEST-token_value"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// apiReply is what the fake Bot API answers for one call. A zero Code
// means success with Result (true when nil).
type apiReply struct {
	Result      any
	Code        int
	Description string
	RetryAfter  int
}

// apiCall is one request received by the fake Bot API.
type apiCall struct {
	Method string
	Form   url.Values
}

// fakeBotAPI is an httptest server speaking the Bot API wire format.
type fakeBotAPI struct {
	*httptest.Server

	mu     sync.Mutex
	calls  []apiCall
	handle func(method string, form url.Values) apiReply
}

func newFakeBotAPI(t *testing.T, handle func(method string, form url.Values) apiReply) *fakeBotAPI {
	t.Helper()

	f := &fakeBotAPI{handle: handle}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bot"+testToken+"/"+path.Base(r.URL.Path) {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		method := path.Base(r.URL.Path)

		f.mu.Lock()
		f.calls = append(f.calls, apiCall{Method: method, Form: r.PostForm})
		f.mu.Unlock()

		var reply apiReply
		if f.handle != nil {
			reply = f.handle(method, r.PostForm)
		}
		if method == "getMe" && reply.Result == nil && reply.Code == 0 {
			reply.Result = map[string]any{
				"id":         42,
				"is_bot":     true,
				"first_name": "Doorman",
				"username":   "doorman_bot",
			}
		}
		writeReply(t, w, reply)
	}))
	t.Cleanup(f.Close)
	return f
}

// Calls returns the recorded calls, excluding the getMe issued by NewClient.
func (f *fakeBotAPI) Calls() []apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []apiCall
	for _, c := range f.calls {
		if c.Method != "getMe" {
			out = append(out, c)
		}
	}
	return out
}

func writeReply(t *testing.T, w http.ResponseWriter, reply apiReply) {
	t.Helper()

	body := map[string]any{"ok": reply.Code == 0}
	if reply.Code == 0 {
		result := reply.Result
		if result == nil {
			result = true
		}
		body["result"] = result
	} else {
		body["error_code"] = reply.Code
		body["description"] = reply.Description
		if reply.RetryAfter > 0 {
			body["parameters"] = map[string]any{"retry_after": reply.RetryAfter}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if reply.Code != 0 {
		w.WriteHeader(reply.Code)
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		t.Errorf("encode response: %v", err)
	}
}

// newTestClient builds a Client against the fake API with fast retries.
func newTestClient(t *testing.T, api *fakeBotAPI, opts ...Option) *Client {
	t.Helper()

	opts = append([]Option{WithLogger(discardLogger())}, opts...)
	c, err := NewClient(Config{Token: testToken, APIURL: api.URL, Timeout: 5 * time.Second}, opts...)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	c.retryUnit = time.Millisecond
	return c
}
