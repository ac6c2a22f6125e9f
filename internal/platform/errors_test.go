package platform

import (
	"errors"
	"fmt"
	"testing"
)

func TestCallError_Unreachable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  *CallError
		want bool
	}{
		{"blocked", &CallError{Method: "sendMessage", Code: 403, Description: "Forbidden: bot was blocked by the user"}, true},
		{"never started", &CallError{Method: "sendMessage", Code: 403, Description: "Forbidden: bot can't initiate conversation with a user"}, true},
		{"chat not found", &CallError{Method: "sendMessage", Code: 400, Description: "Bad Request: chat not found"}, true},
		{"bad markdown", &CallError{Method: "sendMessage", Code: 400, Description: "Bad Request: can't parse entities"}, false},
		{"server error", &CallError{Method: "sendMessage", Code: 502, Description: "Bad Gateway"}, false},
		{"transport", &CallError{Method: "sendMessage", Err: errors.New("connection reset")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Unreachable(); got != tt.want {
				t.Errorf("Unreachable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsUnreachable_Wrapped(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("send welcome: %w", &CallError{Method: "sendMessage", Code: 403})
	if !IsUnreachable(err) {
		t.Error("IsUnreachable() = false for wrapped 403")
	}
	if IsUnreachable(errors.New("boom")) {
		t.Error("IsUnreachable() = true for plain error")
	}
}

func TestCallError_Unwrap(t *testing.T) {
	t.Parallel()

	limited := &CallError{Method: "sendMessage", Code: 429, Description: "Too Many Requests", RetryAfter: 3}
	if !errors.Is(limited, ErrRateLimited) {
		t.Error("429 should unwrap to ErrRateLimited")
	}

	cause := errors.New("dial tcp: timeout")
	transport := &CallError{Method: "approveChatJoinRequest", Err: cause}
	if !errors.Is(transport, cause) {
		t.Error("transport error should unwrap to its cause")
	}
	if got := transport.Error(); got != "platform: approveChatJoinRequest: dial tcp: timeout" {
		t.Errorf("Error() = %q", got)
	}
}
