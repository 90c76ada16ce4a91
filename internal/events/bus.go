package events

import (
	"sync"
	"time"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventUserLogin         EventType = "USER_LOGIN"
	EventUserCreated       EventType = "USER_CREATED"
	EventUserStatusChanged EventType = "USER_STATUS_CHANGED"
	EventLicenseIssued     EventType = "LICENSE_ISSUED"
	EventLicenseActivated  EventType = "LICENSE_ACTIVATED"
	EventLicenseExpired    EventType = "LICENSE_EXPIRED"
	EventLicenseRevoked    EventType = "LICENSE_REVOKED"
	EventEvaluationCreated EventType = "EVALUATION_CREATED"
	EventConfigUpdated     EventType = "CONFIG_UPDATED"
	EventError             EventType = "ERROR"
)

// Event represents a system event
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// Subscriber is a function that handles events
type Subscriber func(Event)

// EventBus manages event publishing and subscriptions
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[EventType][]Subscriber
	allSubs     []Subscriber // Subscribers to all events
}

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[EventType][]Subscriber),
		allSubs:     make([]Subscriber, 0),
	}
}

// Subscribe registers a subscriber for a specific event type
func (eb *EventBus) Subscribe(eventType EventType, subscriber Subscriber) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.subscribers[eventType] = append(eb.subscribers[eventType], subscriber)
}

// SubscribeAll registers a subscriber for all events
func (eb *EventBus) SubscribeAll(subscriber Subscriber) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.allSubs = append(eb.allSubs, subscriber)
}

// Publish sends an event to all subscribers
func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	// Notify specific subscribers
	if subs, ok := eb.subscribers[event.Type]; ok {
		for _, sub := range subs {
			go sub(event) // Run in goroutine to avoid blocking
		}
	}

	// Notify all-event subscribers
	for _, sub := range eb.allSubs {
		go sub(event)
	}
}

// PublishUserLogin publishes a successful sign-in event
func (eb *EventBus) PublishUserLogin(userID, email, provider string) {
	eb.Publish(Event{
		Type: EventUserLogin,
		Data: map[string]interface{}{
			"user_id":  userID,
			"email":    email,
			"provider": provider,
		},
	})
}

// PublishUserCreated publishes a new account provisioning event
func (eb *EventBus) PublishUserCreated(userID, email string) {
	eb.Publish(Event{
		Type: EventUserCreated,
		Data: map[string]interface{}{
			"user_id": userID,
			"email":   email,
		},
	})
}

// PublishUserStatusChanged publishes an account status transition event
func (eb *EventBus) PublishUserStatusChanged(userID, status string) {
	eb.Publish(Event{
		Type: EventUserStatusChanged,
		Data: map[string]interface{}{
			"user_id": userID,
			"status":  status,
		},
	})
}

// PublishLicenseIssued publishes a license batch issuance event
func (eb *EventBus) PublishLicenseIssued(tier string, count int) {
	eb.Publish(Event{
		Type: EventLicenseIssued,
		Data: map[string]interface{}{
			"tier":  tier,
			"count": count,
		},
	})
}

// PublishLicenseActivated publishes a license activation event
func (eb *EventBus) PublishLicenseActivated(key, userID, tier string) {
	eb.Publish(Event{
		Type: EventLicenseActivated,
		Data: map[string]interface{}{
			"license_key": key,
			"user_id":     userID,
			"tier":        tier,
		},
	})
}

// PublishLicenseExpired publishes a lazy expiry transition event
func (eb *EventBus) PublishLicenseExpired(key string) {
	eb.Publish(Event{
		Type: EventLicenseExpired,
		Data: map[string]interface{}{
			"license_key": key,
		},
	})
}

// PublishLicenseRevoked publishes a license revocation event
func (eb *EventBus) PublishLicenseRevoked(key, actorID string) {
	eb.Publish(Event{
		Type: EventLicenseRevoked,
		Data: map[string]interface{}{
			"license_key": key,
			"actor_id":    actorID,
		},
	})
}

// PublishEvaluationCreated publishes an evaluation recorded event
func (eb *EventBus) PublishEvaluationCreated(evaluationID, assessmentID, userID string) {
	eb.Publish(Event{
		Type: EventEvaluationCreated,
		Data: map[string]interface{}{
			"evaluation_id": evaluationID,
			"assessment_id": assessmentID,
			"user_id":       userID,
		},
	})
}

// PublishConfigUpdated publishes a system config change event
func (eb *EventBus) PublishConfigUpdated(key, actorID string) {
	eb.Publish(Event{
		Type: EventConfigUpdated,
		Data: map[string]interface{}{
			"key":      key,
			"actor_id": actorID,
		},
	})
}

// PublishError publishes an error event
func (eb *EventBus) PublishError(source, message string, err error) {
	data := map[string]interface{}{
		"source":  source,
		"message": message,
	}
	if err != nil {
		data["error"] = err.Error()
	}
	eb.Publish(Event{
		Type: EventError,
		Data: data,
	})
}
