package model

import "time"

// ExamSchedule assigns one exam to one class for a time window.
// EndTime is strictly after StartTime.
type ExamSchedule struct {
	ID        string    `json:"id"`
	ExamID    string    `json:"exam_id"`
	ClassID   string    `json:"class_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	IsClosed  bool      `json:"is_closed"`
}

// CreateScheduleRequest is the payload for assigning an exam to a class.
type CreateScheduleRequest struct {
	ExamID    string    `json:"exam_id" binding:"required,objectid"`
	ClassID   string    `json:"class_id" binding:"required,objectid"`
	StartTime time.Time `json:"start_time" binding:"required"`
	EndTime   time.Time `json:"end_time" binding:"required,gtfield=StartTime"`
}

// UpdateScheduleRequest is the payload for moving a schedule's window.
type UpdateScheduleRequest struct {
	StartTime time.Time `json:"start_time" binding:"required"`
	EndTime   time.Time `json:"end_time" binding:"required,gtfield=StartTime"`
}

// SetClosedRequest toggles the manual closed flag.
type SetClosedRequest struct {
	Closed *bool `json:"closed" binding:"required"`
}
