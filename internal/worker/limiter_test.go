package worker

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_New(t *testing.T) {
	limiter := NewLimiter(10, 5)
	if limiter.defaultBurst != 5 {
		t.Errorf("expected burst 5, got %d", limiter.defaultBurst)
	}

	l2 := NewLimiter(10, -1)
	if l2.defaultBurst != 1 {
		t.Errorf("expected default burst 1 for negative input, got %d", l2.defaultBurst)
	}
}

func TestLimiter_Wait(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "https://api.abuseipdb.com/api/v2/check?ipAddress=8.8.8.8"); err != nil {
		t.Errorf("wait failed: %v", err)
	}

	// Different host has its own budget
	if err := limiter.Wait(ctx, "https://ipqualityscore.com/api/json/ip/key/8.8.8.8"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
}

func TestLimiter_PacesSameHost(t *testing.T) {
	limiter := NewLimiter(20, 1) // one request every 50ms
	ctx := context.Background()
	url := "https://api.abuseipdb.com/api/v2/check"

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := limiter.Wait(ctx, url); err != nil {
			t.Fatalf("wait %d failed: %v", i, err)
		}
	}

	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Errorf("expected pacing to take at least 80ms, took %v", elapsed)
	}
}

func TestLimiter_ContextCancelled(t *testing.T) {
	limiter := NewLimiter(0.01, 1)
	url := "https://api.abuseipdb.com/api/v2/check"

	if err := limiter.Wait(context.Background(), url); err != nil {
		t.Fatalf("first wait failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := limiter.Wait(ctx, url); err == nil {
		t.Error("expected error once the token budget cannot be met before the deadline")
	}
}

func TestLimiter_Disabled(t *testing.T) {
	limiter := NewLimiter(0, 1)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 100; i++ {
		if err := limiter.Wait(ctx, "https://example.com"); err != nil {
			t.Fatalf("wait failed: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("expected no pacing with zero rate, took %v", elapsed)
	}
}

func TestLimiter_RefusesWaitPastDeadline(t *testing.T) {
	limiter := NewLimiter(0.01, 1)
	url := "https://api.abuseipdb.com/api/v2/check"

	if err := limiter.Wait(context.Background(), url); err != nil {
		t.Fatalf("first wait failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	start := time.Now()
	err := limiter.Wait(ctx, url)
	if err == nil {
		t.Fatal("expected the wait to be refused")
	}
	if ctx.Err() != nil {
		t.Error("expected refusal before the deadline passed")
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("expected an immediate refusal, took %v", elapsed)
	}
}

func TestExtractHost(t *testing.T) {
	tests := []struct {
		rawURL string
		want   string
	}{
		{"https://ipqualityscore.com/api/json/ip/secret/8.8.8.8", "ipqualityscore.com"},
		{"https://api.abuseipdb.com/api/v2/check", "api.abuseipdb.com"},
		{"::invalid", ""},
		{"/relative/secret", ""},
	}

	for _, tt := range tests {
		if got := extractHost(tt.rawURL); got != tt.want {
			t.Errorf("extractHost(%q) = %q, want %q", tt.rawURL, got, tt.want)
		}
	}
}

func TestLimiter_URLWithoutHost(t *testing.T) {
	limiter := NewLimiter(100, 1)
	if err := limiter.Wait(context.Background(), "/relative/secret"); err != nil {
		t.Errorf("expected hostless URLs to be paced, got %v", err)
	}
}
