package database

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Assessment statuses
const (
	AssessmentStatusDraft    = "draft"
	AssessmentStatusActive   = "active"
	AssessmentStatusArchived = "archived"
)

// Evaluation statuses
const (
	EvaluationStatusPending   = "pending"
	EvaluationStatusCompleted = "completed"
	EvaluationStatusFailed    = "failed"
)

// Assessment represents one scanned exam paper and its question set
type Assessment struct {
	ID          uuid.UUID       `json:"id"`
	UserID      uuid.UUID       `json:"user_id"`
	Title       string          `json:"title"`
	TeacherName string          `json:"teacher_name,omitempty"`
	Subject     string          `json:"subject,omitempty"`
	ClassRoom   string          `json:"class_room,omitempty"`
	PaperImages json.RawMessage `json:"paper_images,omitempty"`
	Questions   json.RawMessage `json:"questions,omitempty"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Evaluation represents one AI grading run against an assessment
type Evaluation struct {
	ID               uuid.UUID       `json:"id"`
	AssessmentID     uuid.UUID       `json:"assessment_id"`
	UserID           uuid.UUID       `json:"user_id"`
	StudentName      string          `json:"student_name,omitempty"`
	StudentImage     string          `json:"student_image,omitempty"`
	TotalMarks       *float64        `json:"total_marks,omitempty"`
	ObtainedMarks    *float64        `json:"obtained_marks,omitempty"`
	Results          json.RawMessage `json:"results,omitempty"`
	OverallFeedback  string          `json:"overall_feedback,omitempty"`
	AIModel          string          `json:"ai_model,omitempty"`
	ProcessingTimeMS *int64          `json:"processing_time_ms,omitempty"`
	Status           string          `json:"status"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// SystemConfig is a named configuration record
type SystemConfig struct {
	Key         string          `json:"key"`
	Value       json.RawMessage `json:"value"`
	Description string          `json:"description,omitempty"`
	UpdatedBy   *uuid.UUID      `json:"updated_by,omitempty"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// AnalyticsEvent is a recorded product usage event
type AnalyticsEvent struct {
	ID         uuid.UUID       `json:"id"`
	UserID     *uuid.UUID      `json:"user_id,omitempty"`
	EventType  string          `json:"event_type"`
	EventData  json.RawMessage `json:"event_data,omitempty"`
	DeviceInfo json.RawMessage `json:"device_info,omitempty"`
	AppVersion string          `json:"app_version,omitempty"`
	SessionID  string          `json:"session_id,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// AuditLog records an administrative action
type AuditLog struct {
	ID           uuid.UUID       `json:"id"`
	ActorID      *uuid.UUID      `json:"actor_id,omitempty"`
	Action       string          `json:"action"`
	ResourceType string          `json:"resource_type"`
	ResourceID   string          `json:"resource_id,omitempty"`
	Details      json.RawMessage `json:"details,omitempty"`
	IPAddress    string          `json:"ip_address,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}
