package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stemsi/etesthub-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cred = model.Credential{UserID: "u1", Token: "tok-123"}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(Config{BaseURL: srv.URL + "/api", Timeout: 2 * time.Second})
	require.NoError(t, err)
	return c
}

func TestNew_RejectsRelativeURL(t *testing.T) {
	_, err := New(Config{BaseURL: "/api"})
	assert.Error(t, err)
}

func TestNew_LeavesCallerClientUntouched(t *testing.T) {
	shared := &http.Client{Timeout: time.Minute}
	c, err := New(Config{BaseURL: "http://data.local/api", Timeout: 3 * time.Second, HTTPClient: shared})
	require.NoError(t, err)

	assert.Equal(t, time.Minute, shared.Timeout)
	assert.Equal(t, 3*time.Second, c.http.Timeout)
	assert.NotSame(t, shared, c.http)
}

func TestCreateSubmission_SendsInitialRecord(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/submissions", r.URL.Path)
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "e1", body["examId"])
		assert.Equal(t, "s1", body["studentId"])
		assert.Equal(t, []any{}, body["answers"])
		assert.Equal(t, false, body["isGraded"])
		assert.Contains(t, body, "submittedAt")
		assert.Nil(t, body["submittedAt"])

		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":"sub-1","examId":"e1","studentId":"s1","answers":[],"status":"in-progress","createdAt":"2025-01-01T09:00:00Z"}`)
	})

	got, err := c.CreateSubmission(context.Background(), cred, &model.Submission{
		ExamID: "e1", StudentID: "s1", Status: model.SubmissionStatusInProgress,
	})
	require.NoError(t, err)
	assert.Equal(t, "sub-1", got.ID)
	assert.Equal(t, model.SubmissionStatusInProgress, got.Status)
	assert.Equal(t, time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC), got.CreatedAt)
	assert.NotNil(t, got.Answers)
}

func TestCreateSubmission_MissingID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"examId":"e1"}`)
	})

	_, err := c.CreateSubmission(context.Background(), cred, &model.Submission{ExamID: "e1", StudentID: "s1"})
	assert.ErrorIs(t, err, ErrMissingID)
}

func TestUpdateSubmission_AutosaveBodyOnlyCarriesAnswers(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/submissions/sub-1", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Len(t, body, 1)
		assert.Len(t, body["answers"], 1)

		_, _ = io.WriteString(w, `{"id":"sub-1","examId":"e1","studentId":"s1","answers":[{"questionId":"q1","selectedOption":"A","score":0}],"status":"in-progress"}`)
	})

	got, err := c.UpdateSubmission(context.Background(), cred, "sub-1", model.SubmissionUpdate{
		Answers: []model.Answer{{QuestionID: "q1", SelectedOption: "A"}},
	})
	require.NoError(t, err)
	require.Len(t, got.Answers, 1)
	assert.Equal(t, "A", got.Answers[0].SelectedOption)
}

func TestUpdateSubmission_EmptyBodyRereads(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.Method == http.MethodPut {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = io.WriteString(w, `{"id":"sub-1","examId":"e1","studentId":"s1","isGraded":true,"score":7.5,"status":"graded"}`)
	})

	graded := true
	got, err := c.UpdateSubmission(context.Background(), cred, "sub-1", model.SubmissionUpdate{IsGraded: &graded})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.True(t, got.IsGraded)
	assert.Equal(t, 7.5, got.Score)
}

func TestDo_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		check  func(t *testing.T, err error)
	}{
		{"NotFound", http.StatusNotFound, func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrNotFound) }},
		{"Conflict", http.StatusConflict, func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrConflict) }},
		{"Unauthorized", http.StatusUnauthorized, func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrUnauthorized) }},
		{"ServerError", http.StatusInternalServerError, func(t *testing.T, err error) {
			var se *StatusError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, http.StatusInternalServerError, se.StatusCode)
			assert.Equal(t, "boom", se.Body)
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, "boom")
			})
			_, err := c.GetSubmission(context.Background(), cred, "x")
			tc.check(t, err)
		})
	}
}

func TestDo_MalformedBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{not json`)
	})
	_, err := c.GetSubmission(context.Background(), cred, "x")
	assert.ErrorContains(t, err, "decode")
}

func TestDo_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL, Timeout: 20 * time.Millisecond})
	require.NoError(t, err)

	_, err = c.GetSubmission(context.Background(), cred, "x")
	assert.Error(t, err)
}

func TestListSubmissions_Paths(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/submissions/user/s1", "/api/submissions/exam/e1":
			_, _ = io.WriteString(w, `[{"id":"a","examId":"e1","studentId":"s1"},{"id":"b","examId":"e1","studentId":"s2"}]`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})

	byUser, err := c.ListSubmissionsByStudent(context.Background(), cred, "s1")
	require.NoError(t, err)
	assert.Len(t, byUser, 2)

	byExam, err := c.ListSubmissionsByExam(context.Background(), cred, "e1")
	require.NoError(t, err)
	assert.Equal(t, "s2", byExam[1].StudentID)
}

func TestScheduleAndCatalog(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/schedules/sc1":
			_, _ = io.WriteString(w, `{"id":"sc1","examId":"e1","classId":"c1","startTime":"2025-01-01T08:00:00Z","endTime":"2025-01-01T10:00:00Z","isClosed":true}`)
		case "/api/exams/e1":
			_, _ = io.WriteString(w, `{"id":"e1","title":"Networks","duration":60,"questionIds":["q1","q2"],"passingScore":5,"isPublished":true}`)
		case "/api/questions/q1":
			_, _ = io.WriteString(w, `{"id":"q1","content":"?","options":["A","B"],"correctAnswer":"A","points":2}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	ctx := context.Background()

	sc, err := c.GetSchedule(ctx, cred, "sc1")
	require.NoError(t, err)
	assert.True(t, sc.IsClosed)
	assert.Equal(t, "c1", sc.ClassID)

	exam, err := c.GetExam(ctx, cred, "e1")
	require.NoError(t, err)
	assert.Equal(t, 60, exam.DurationMinutes)
	assert.Equal(t, []string{"q1", "q2"}, exam.QuestionIDs)

	q, err := c.GetQuestion(ctx, cred, "q1")
	require.NoError(t, err)
	assert.Equal(t, "A", q.CorrectAnswer)

	_, err = c.GetQuestion(ctx, cred, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLogin(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		var body loginRequestDTO
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = io.WriteString(w, `{"token":"remote-tok","user":{"id":"s1","name":"An","email":"an@uni.edu","role":"student","classIds":["c1"]}}`)
	})

	user, token, err := c.Login(context.Background(), "an@uni.edu", "secret")
	require.NoError(t, err)
	assert.Equal(t, "remote-tok", token)
	assert.Equal(t, model.RoleStudent, user.Role)
	assert.Equal(t, []string{"c1"}, user.ClassIDs)

	_, _, err = c.Login(context.Background(), "an@uni.edu", "wrong")
	assert.ErrorIs(t, err, ErrUnauthorized)
}
