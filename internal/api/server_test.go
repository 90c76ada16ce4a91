package api

import (
	"testing"
	"time"
)

func TestRateLimiterAllowsUnderLimit(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !rl.Allow("client1") {
			t.Errorf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("client1") {
		t.Error("request over the limit should be denied")
	}
}

func TestRateLimiterIsolatesKeys(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)

	if !rl.Allow("client1") {
		t.Error("first request for client1 should be allowed")
	}
	if !rl.Allow("client2") {
		t.Error("client2 should not be affected by client1's usage")
	}
	if rl.Allow("client1") {
		t.Error("client1 should be over its limit")
	}
}

func TestRateLimiterWindowExpiry(t *testing.T) {
	rl := NewRateLimiter(1, 10*time.Millisecond)

	if !rl.Allow("client") {
		t.Error("first request should be allowed")
	}
	if rl.Allow("client") {
		t.Error("second request inside the window should be denied")
	}

	time.Sleep(20 * time.Millisecond)

	if !rl.Allow("client") {
		t.Error("request after the window expired should be allowed")
	}
}
