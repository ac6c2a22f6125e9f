package platform

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrRateLimited indicates the platform kept rejecting a call with 429 after
// all retries were spent.
var ErrRateLimited = errors.New("platform: rate limited")

// CallError is a failed platform API call.
type CallError struct {
	// Method is the API method name, e.g. "sendMessage".
	Method string
	// Code is the platform error code (HTTP-like), or 0 for transport failures.
	Code int
	// Description is the platform's error description.
	Description string
	// RetryAfter is the platform's backoff hint in seconds, if any.
	RetryAfter int
	// Err is the underlying cause for transport failures.
	Err error
}

// Error implements the error interface.
func (e *CallError) Error() string {
	switch {
	case e.Code != 0:
		return fmt.Sprintf("platform: %s: %d %s", e.Method, e.Code, e.Description)
	case e.Err != nil:
		return fmt.Sprintf("platform: %s: %v", e.Method, e.Err)
	default:
		return fmt.Sprintf("platform: %s failed", e.Method)
	}
}

// Unwrap returns the underlying cause.
func (e *CallError) Unwrap() error {
	if e.Code == http.StatusTooManyRequests && e.Err == nil {
		return ErrRateLimited
	}
	return e.Err
}

// Unreachable reports whether the recipient cannot be messaged: the user
// blocked the bot, never started a conversation with it, or no longer exists.
func (e *CallError) Unreachable() bool {
	if e.Code == http.StatusForbidden {
		return true
	}
	desc := strings.ToLower(e.Description)
	return e.Code == http.StatusBadRequest &&
		(strings.Contains(desc, "chat not found") || strings.Contains(desc, "user not found"))
}

// IsUnreachable reports whether err is a CallError for an unreachable recipient.
func IsUnreachable(err error) bool {
	var ce *CallError
	return errors.As(err, &ce) && ce.Unreachable()
}
