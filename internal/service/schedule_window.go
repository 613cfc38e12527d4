package service

import (
	"time"

	"github.com/stemsi/etesthub-backend/internal/model"
)

// WindowState is the availability of a schedule at an instant.
type WindowState string

const (
	WindowUpcoming   WindowState = "UPCOMING"
	WindowInProgress WindowState = "IN_PROGRESS"
	WindowClosed     WindowState = "CLOSED"
)

// EvaluateWindow classifies s at now. The closed flag wins over the clock and
// both window boundaries count as open.
func EvaluateWindow(s *model.ExamSchedule, now time.Time) WindowState {
	switch {
	case s.IsClosed:
		return WindowClosed
	case now.Before(s.StartTime):
		return WindowUpcoming
	case now.After(s.EndTime):
		return WindowClosed
	default:
		return WindowInProgress
	}
}

// WindowStatus is EvaluateWindow plus countdowns for display.
type WindowStatus struct {
	State           WindowState `json:"state"`
	ClosedBy        string      `json:"closed_by,omitempty"`
	OpensInSeconds  int64       `json:"opens_in_seconds"`
	ClosesInSeconds int64       `json:"closes_in_seconds"`
}

// DescribeWindow reports the window state of s at now with countdowns.
func DescribeWindow(s *model.ExamSchedule, now time.Time) WindowStatus {
	st := WindowStatus{State: EvaluateWindow(s, now)}

	switch st.State {
	case WindowUpcoming:
		st.OpensInSeconds = ceilSeconds(s.StartTime.Sub(now))
		st.ClosesInSeconds = ceilSeconds(s.EndTime.Sub(now))
	case WindowInProgress:
		st.ClosesInSeconds = ceilSeconds(s.EndTime.Sub(now))
	case WindowClosed:
		if s.IsClosed {
			st.ClosedBy = "flag"
		} else {
			st.ClosedBy = "time"
		}
	}
	return st
}

func ceilSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	return int64((d + time.Second - 1) / time.Second)
}
