package events

import "time"

const LeaveRequestReviewedTopic = "hr.leave.request.reviewed.v1"

type LeaveRequestReviewedEvent struct {
	EventType      string    `json:"event_type"`
	RequestID      string    `json:"request_id,omitempty"`
	SessionID      string    `json:"session_id"`
	LeaveRequestID string    `json:"leave_request_id"`
	Status         string    `json:"status"`
	OccurredAt     time.Time `json:"occurred_at"`
}
