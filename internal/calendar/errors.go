package calendar

import (
	"errors"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
)

// Common calendar provider errors.
var (
	// ErrUnauthorized indicates invalid or expired credentials.
	ErrUnauthorized = errors.New("calendar: unauthorized (invalid credentials)")

	// ErrNotFound indicates the requested event was not found.
	ErrNotFound = errors.New("calendar: event not found")

	// ErrRateLimited indicates the provider throttled the request.
	ErrRateLimited = errors.New("calendar: rate limit exceeded")
)

// IsRateLimited returns true if the error indicates provider throttling.
// It understands structured googleapi errors (429, and 403 with a
// rate/quota reason) and falls back to substring matching for providers
// that only surface throttling in the message text.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		if gerr.Code == http.StatusTooManyRequests {
			return true
		}
		if gerr.Code == http.StatusForbidden {
			for _, item := range gerr.Errors {
				switch item.Reason {
				case "rateLimitExceeded", "userRateLimitExceeded", "quotaExceeded", "dailyLimitExceeded":
					return true
				}
			}
		}
		return false
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "rate") || strings.Contains(msg, "usage") || strings.Contains(msg, "quota")
}

// IsNotFound returns true if the error indicates the event no longer
// exists. HTTP 410 (already deleted) counts the same as 404.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusNotFound || gerr.Code == http.StatusGone
	}
	return false
}

// IsUnauthorized returns true if the error indicates invalid credentials.
func IsUnauthorized(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUnauthorized) {
		return true
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusUnauthorized
	}
	return false
}
