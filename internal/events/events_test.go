package events

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/etesthub-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSubmissionEvent_ScoreOnlyWhenGraded(t *testing.T) {
	at := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

	started := NewSubmissionEvent(TypeAttemptStarted, &model.Submission{ID: "s", ExamID: "e", StudentID: "u"}, at)
	assert.Nil(t, started.Score)
	assert.NotEmpty(t, started.ID)

	submitted := NewSubmissionEvent(TypeAttemptSubmitted, &model.Submission{ID: "s", IsGraded: true, Score: 7}, at)
	require.NotNil(t, submitted.Score)
	assert.Equal(t, 7.0, *submitted.Score)
}

func TestWatermillPublisher_RoundTripOverGoChannel(t *testing.T) {
	ps, err := NewPubSub(Config{}, zerolog.Nop())
	require.NoError(t, err)
	defer ps.Close()
	assert.Equal(t, "gochannel", ps.Transport)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	msgs, err := ps.Subscriber.Subscribe(ctx, "submissions")
	require.NoError(t, err)

	pub := NewWatermillPublisher(ps.Publisher, "submissions", zerolog.Nop())
	evt := NewSubmissionEvent(TypeAttemptSubmitted, &model.Submission{ID: "sub-1", ExamID: "e1", StudentID: "s1", IsGraded: true, Score: 9}, time.Now())
	require.NoError(t, pub.Publish(ctx, evt))

	select {
	case msg := <-msgs:
		got, err := Decode(msg)
		require.NoError(t, err)
		msg.Ack()
		assert.Equal(t, evt.ID, got.ID)
		assert.Equal(t, TypeAttemptSubmitted, got.Type)
		assert.Equal(t, "e1", msg.Metadata.Get("exam_id"))
		assert.Equal(t, string(TypeAttemptSubmitted), msg.Metadata.Get("event_type"))
	case <-ctx.Done():
		t.Fatal("event not delivered")
	}
}
