package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestRateLimitErrorMatchesSentinel(t *testing.T) {
	err := fmt.Errorf("gateway: %w", &RateLimitError{RetryAfter: 2 * time.Second, Detail: "API error 429"})
	if !errors.Is(err, ErrRateLimit) {
		t.Error("wrapped RateLimitError should match ErrRateLimit")
	}

	var rl *RateLimitError
	if !errors.As(err, &rl) {
		t.Fatal("errors.As failed")
	}
	if rl.RetryAfter != 2*time.Second {
		t.Errorf("RetryAfter = %v, want 2s", rl.RetryAfter)
	}
}

func TestErrorCodeOf(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorCode
	}{
		{nil, ""},
		{ErrNoActiveSpecialists, CodeNoActiveSpecialists},
		{NewDomainError("op", ErrNoActiveSpecialists, "org-1"), CodeNoActiveSpecialists},
		{&RateLimitError{}, CodeRateLimit},
		{ErrProviderNotConfigured, CodeProviderNotConfig},
		{ErrDuplicate, CodeDuplicate},
		{errors.New("boom"), CodeUnknown},
	}
	for _, tt := range tests {
		if got := ErrorCodeOf(tt.err); got != tt.want {
			t.Errorf("ErrorCodeOf(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestClampScore(t *testing.T) {
	tests := []struct{ in, want int }{
		{-5, 0}, {0, 0}, {55, 55}, {100, 100}, {140, 100},
	}
	for _, tt := range tests {
		if got := ClampScore(tt.in); got != tt.want {
			t.Errorf("ClampScore(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
