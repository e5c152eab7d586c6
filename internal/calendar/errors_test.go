package calendar

import (
	"errors"
	"fmt"
	"testing"

	"google.golang.org/api/googleapi"
)

func TestIsRateLimited(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"sentinel", ErrRateLimited, true},
		{"wrapped sentinel", fmt.Errorf("inserting event: %w", ErrRateLimited), true},
		{"googleapi 429", &googleapi.Error{Code: 429}, true},
		{
			"googleapi 403 rateLimitExceeded",
			&googleapi.Error{Code: 403, Errors: []googleapi.ErrorItem{{Reason: "rateLimitExceeded"}}},
			true,
		},
		{
			"googleapi 403 userRateLimitExceeded",
			&googleapi.Error{Code: 403, Errors: []googleapi.ErrorItem{{Reason: "userRateLimitExceeded"}}},
			true,
		},
		{
			"googleapi 403 quotaExceeded",
			&googleapi.Error{Code: 403, Errors: []googleapi.ErrorItem{{Reason: "quotaExceeded"}}},
			true,
		},
		{
			"googleapi 403 forbidden for other reasons",
			&googleapi.Error{Code: 403, Errors: []googleapi.ErrorItem{{Reason: "insufficientPermissions"}}},
			false,
		},
		{"googleapi 500", &googleapi.Error{Code: 500}, false},
		{
			"wrapped googleapi 429",
			fmt.Errorf("inserting event: %w", &googleapi.Error{Code: 429}),
			true,
		},
		{"message mentions rate", errors.New("Rate Limit Exceeded"), true},
		{"message mentions usage", errors.New("Calendar usage limits exceeded"), true},
		{"message mentions quota", errors.New("quota exceeded for this user"), true},
		{"unrelated error", errors.New("connection reset by peer"), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsRateLimited(tc.err); got != tc.want {
				t.Errorf("IsRateLimited(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"sentinel", ErrNotFound, true},
		{"wrapped sentinel", fmt.Errorf("deleting event: %w", ErrNotFound), true},
		{"googleapi 404", &googleapi.Error{Code: 404}, true},
		{"googleapi 410 already deleted", &googleapi.Error{Code: 410}, true},
		{"googleapi 403", &googleapi.Error{Code: 403}, false},
		{"message text not matched", errors.New("event not found"), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsNotFound(tc.err); got != tc.want {
				t.Errorf("IsNotFound(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestIsUnauthorized(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"sentinel", ErrUnauthorized, true},
		{"wrapped sentinel", fmt.Errorf("listing events: %w", ErrUnauthorized), true},
		{"googleapi 401", &googleapi.Error{Code: 401}, true},
		{"googleapi 403", &googleapi.Error{Code: 403}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsUnauthorized(tc.err); got != tc.want {
				t.Errorf("IsUnauthorized(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}
