package service

import (
	"context"
	"sort"
	"sync"

	"github.com/stemsi/etesthub-backend/internal/model"
)

// MonitorService orchestrates live exam monitoring.
type MonitorService struct {
	submissions *SubmissionService
	catalog     Catalog
}

// NewMonitorService creates a new MonitorService.
func NewMonitorService(submissions *SubmissionService, catalog Catalog) *MonitorService {
	return &MonitorService{submissions: submissions, catalog: catalog}
}

// StudentProgress is one student's attempt as seen by the monitor.
type StudentProgress struct {
	StudentID     string                 `json:"student_id"`
	SubmissionID  string                 `json:"submission_id"`
	Status        model.SubmissionStatus `json:"status"`
	AnsweredCount int                    `json:"answered_count"`
	Score         *float64               `json:"score,omitempty"`
}

// MonitorSnapshot holds the progress of every attempt at an exam.
type MonitorSnapshot struct {
	ExamID         string            `json:"exam_id"`
	TotalQuestions int               `json:"total_questions"`
	InProgress     int               `json:"in_progress"`
	Submitted      int               `json:"submitted"`
	Students       []StudentProgress `json:"students"`
}

// Snapshot returns the current progress of an exam. Submissions and the exam
// are fetched in parallel; the question count is best-effort.
func (s *MonitorService) Snapshot(ctx context.Context, cred model.Credential, examID string) (*MonitorSnapshot, error) {
	var (
		subs    []model.Submission
		exam    *model.Exam
		subsErr error
		examErr error
		wg      sync.WaitGroup
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		subs, subsErr = s.submissions.ListByExam(ctx, cred, examID)
	}()
	go func() {
		defer wg.Done()
		exam, examErr = s.catalog.GetExam(ctx, cred, examID)
	}()
	wg.Wait()

	if subsErr != nil {
		return nil, subsErr
	}

	snap := &MonitorSnapshot{ExamID: examID, Students: make([]StudentProgress, 0, len(subs))}
	if examErr == nil && exam != nil {
		snap.TotalQuestions = len(exam.QuestionIDs)
	}

	for _, sub := range subs {
		p := StudentProgress{
			StudentID:    sub.StudentID,
			SubmissionID: sub.ID,
			Status:       sub.Status,
		}
		for _, a := range sub.Answers {
			if a.SelectedOption != "" {
				p.AnsweredCount++
			}
		}
		if sub.IsGraded {
			score := sub.Score
			p.Score = &score
			snap.Submitted++
		} else {
			snap.InProgress++
		}
		snap.Students = append(snap.Students, p)
	}

	sort.Slice(snap.Students, func(i, j int) bool {
		return snap.Students[i].StudentID < snap.Students[j].StudentID
	})
	return snap, nil
}
