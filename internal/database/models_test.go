package database

import (
	"encoding/json"
	"testing"
)

// The mobile client depends on these exact field names.
func TestAssessmentWireFields(t *testing.T) {
	data, err := json.Marshal(&Assessment{
		Title:       "Midterm",
		TeacherName: "Ms. Rivera",
		ClassRoom:   "7B",
		PaperImages: json.RawMessage(`["p1.jpg"]`),
		Questions:   json.RawMessage(`[{"q":1}]`),
	})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	for _, field := range []string{"teacher_name", "class_room", "paper_images", "questions"} {
		if !jsonHasKey(t, data, field) {
			t.Errorf("assessment JSON missing %q", field)
		}
	}
}

func TestEvaluationWireFields(t *testing.T) {
	total, obtained := 100.0, 87.5
	ms := int64(4200)
	data, err := json.Marshal(&Evaluation{
		StudentName:      "Asha",
		StudentImage:     "asha.jpg",
		TotalMarks:       &total,
		ObtainedMarks:    &obtained,
		Results:          json.RawMessage(`[{"question":1,"marks":10}]`),
		OverallFeedback:  "Solid work",
		ProcessingTimeMS: &ms,
	})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	for _, field := range []string{"student_image", "total_marks", "obtained_marks", "results", "overall_feedback", "processing_time_ms"} {
		if !jsonHasKey(t, data, field) {
			t.Errorf("evaluation JSON missing %q", field)
		}
	}
}

func TestAnalyticsEventWireFields(t *testing.T) {
	data, err := json.Marshal(&AnalyticsEvent{
		EventType:  "evaluation_completed",
		DeviceInfo: json.RawMessage(`{"os":"android"}`),
		AppVersion: "2.4.1",
		SessionID:  "sess-91",
	})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	for _, field := range []string{"device_info", "app_version", "session_id"} {
		if !jsonHasKey(t, data, field) {
			t.Errorf("analytics event JSON missing %q", field)
		}
	}
}

func jsonHasKey(t *testing.T, data []byte, key string) bool {
	t.Helper()
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	_, ok := m[key]
	return ok
}
