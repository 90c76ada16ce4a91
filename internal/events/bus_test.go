package events

import (
	"sync"
	"testing"
	"time"
)

func TestPublishReachesTypedSubscriber(t *testing.T) {
	bus := NewEventBus()

	var mu sync.Mutex
	var got []Event
	bus.Subscribe(EventLicenseActivated, func(e Event) {
		mu.Lock()
		got = append(got, e)
		mu.Unlock()
	})

	bus.PublishLicenseActivated("CKERQ-AAAAA-BBBBB-CCCCC-DDDDD", "user-1", "pro")
	bus.PublishUserCreated("user-2", "x@example.com")

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	})

	mu.Lock()
	defer mu.Unlock()
	if got[0].Type != EventLicenseActivated {
		t.Errorf("expected %s, got %s", EventLicenseActivated, got[0].Type)
	}
	if got[0].Data["tier"] != "pro" {
		t.Errorf("expected tier pro, got %v", got[0].Data["tier"])
	}
	if got[0].Timestamp.IsZero() {
		t.Error("timestamp should be stamped on publish")
	}
}

func TestSubscribeAllSeesEveryEvent(t *testing.T) {
	bus := NewEventBus()

	var mu sync.Mutex
	count := 0
	bus.SubscribeAll(func(e Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	bus.PublishUserLogin("user-1", "a@example.com", "google")
	bus.PublishLicenseRevoked("CKERQ-AAAAA-BBBBB-CCCCC-DDDDD", "admin-1")
	bus.PublishConfigUpdated("feature_flags", "admin-1")

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return count == 3
	})
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
