// Package events publishes submission lifecycle events over watermill.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/etesthub-backend/internal/model"
)

// Type names a submission lifecycle event.
type Type string

const (
	TypeAttemptStarted   Type = "attempt.started"
	TypeAttemptSubmitted Type = "attempt.submitted"
)

// SubmissionEvent is the payload of every message on the submissions topic.
type SubmissionEvent struct {
	ID           string    `json:"id"`
	Type         Type      `json:"type"`
	SubmissionID string    `json:"submission_id"`
	ExamID       string    `json:"exam_id"`
	StudentID    string    `json:"student_id"`
	IsGraded     bool      `json:"is_graded"`
	Score        *float64  `json:"score,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// NewSubmissionEvent builds an event describing s.
func NewSubmissionEvent(t Type, s *model.Submission, at time.Time) SubmissionEvent {
	evt := SubmissionEvent{
		ID:           uuid.NewString(),
		Type:         t,
		SubmissionID: s.ID,
		ExamID:       s.ExamID,
		StudentID:    s.StudentID,
		IsGraded:     s.IsGraded,
		OccurredAt:   at.UTC(),
	}
	if s.IsGraded {
		score := s.Score
		evt.Score = &score
	}
	return evt
}

// Decode parses a message payload into a SubmissionEvent.
func Decode(msg *message.Message) (SubmissionEvent, error) {
	var evt SubmissionEvent
	if err := json.Unmarshal(msg.Payload, &evt); err != nil {
		return evt, fmt.Errorf("decode submission event: %w", err)
	}
	return evt, nil
}

// Publisher publishes submission events.
type Publisher interface {
	Publish(ctx context.Context, evt SubmissionEvent) error
}

// WatermillPublisher publishes submission events to a watermill topic.
type WatermillPublisher struct {
	pub   message.Publisher
	topic string
	log   zerolog.Logger
}

// NewWatermillPublisher creates a new WatermillPublisher.
func NewWatermillPublisher(pub message.Publisher, topic string, log zerolog.Logger) *WatermillPublisher {
	return &WatermillPublisher{
		pub:   pub,
		topic: topic,
		log:   log.With().Str("component", "event_publisher").Logger(),
	}
}

// Publish marshals evt and publishes it with type metadata.
func (p *WatermillPublisher) Publish(ctx context.Context, evt SubmissionEvent) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal submission event: %w", err)
	}

	msg := message.NewMessage(evt.ID, payload)
	msg.Metadata.Set("event_type", string(evt.Type))
	msg.Metadata.Set("exam_id", evt.ExamID)
	msg.Metadata.Set("occurred_at", evt.OccurredAt.Format(time.RFC3339))
	msg.SetContext(ctx)

	if err := p.pub.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("publish %s: %w", evt.Type, err)
	}

	p.log.Debug().
		Str("event_id", evt.ID).
		Str("event_type", string(evt.Type)).
		Str("topic", p.topic).
		Msg("Published submission event")
	return nil
}
