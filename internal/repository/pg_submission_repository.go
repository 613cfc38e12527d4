package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/etesthub-backend/internal/model"
)

const submissionColumns = `id::text, exam_id, student_id, answers, score, status, is_graded, created_at, submitted_at`

// PgSubmissionRepository stores submissions in PostgreSQL. The unique
// (exam_id, student_id) key makes concurrent starts collapse into one row.
type PgSubmissionRepository struct {
	pool *pgxpool.Pool
}

// NewPgSubmissionRepository creates a new PgSubmissionRepository.
func NewPgSubmissionRepository(pool *pgxpool.Pool) *PgSubmissionRepository {
	return &PgSubmissionRepository{pool: pool}
}

func scanSubmission(row pgx.Row) (*model.Submission, error) {
	s := &model.Submission{}
	var status string
	if err := row.Scan(&s.ID, &s.ExamID, &s.StudentID, &s.Answers, &s.Score, &status, &s.IsGraded, &s.CreatedAt, &s.SubmittedAt); err != nil {
		return nil, err
	}
	s.Status = model.SubmissionStatus(status)
	if s.Answers == nil {
		s.Answers = []model.Answer{}
	}
	return s, nil
}

func nonNilAnswers(a []model.Answer) []model.Answer {
	if a == nil {
		return []model.Answer{}
	}
	return a
}

// Create inserts a new submission. Returns ErrDuplicate if the pair already has one.
func (r *PgSubmissionRepository) Create(ctx context.Context, _ model.Credential, s *model.Submission) (*model.Submission, error) {
	created, err := scanSubmission(r.pool.QueryRow(ctx,
		`INSERT INTO submissions (exam_id, student_id, answers, score, status, is_graded, submitted_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (exam_id, student_id) DO NOTHING
		 RETURNING `+submissionColumns,
		s.ExamID, s.StudentID, nonNilAnswers(s.Answers), s.Score, string(s.Status), s.IsGraded, s.SubmittedAt,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrDuplicate
	}
	return created, err
}

// Update replaces the answers and applies the non-nil fields of upd. With
// upd.Unfinalized set, a graded row is left alone and ErrFinalized is returned.
func (r *PgSubmissionRepository) Update(ctx context.Context, _ model.Credential, id string, upd model.SubmissionUpdate) (*model.Submission, error) {
	sid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var status *string
	if upd.Status != nil {
		v := string(*upd.Status)
		status = &v
	}

	s, err := scanSubmission(r.pool.QueryRow(ctx,
		`UPDATE submissions
		 SET answers = $1,
		     status = COALESCE($2, status),
		     is_graded = COALESCE($3, is_graded),
		     score = COALESCE($4, score),
		     submitted_at = COALESCE($5, submitted_at)
		 WHERE id = $6 AND (NOT $7 OR is_graded = FALSE)
		 RETURNING `+submissionColumns,
		nonNilAnswers(upd.Answers), status, upd.IsGraded, upd.Score, upd.SubmittedAt, sid, upd.Unfinalized,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		if upd.Unfinalized {
			if _, gerr := r.GetByID(ctx, model.Credential{}, id); gerr == nil {
				return nil, ErrFinalized
			}
		}
		return nil, ErrNotFound
	}
	return s, err
}

// GetByID retrieves a submission by id.
func (r *PgSubmissionRepository) GetByID(ctx context.Context, _ model.Credential, id string) (*model.Submission, error) {
	sid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}
	s, err := scanSubmission(r.pool.QueryRow(ctx,
		`SELECT `+submissionColumns+` FROM submissions WHERE id = $1`, sid,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return s, err
}

// GetByExamAndStudent retrieves the submission for a specific exam-student combination.
func (r *PgSubmissionRepository) GetByExamAndStudent(ctx context.Context, _ model.Credential, examID, studentID string) (*model.Submission, error) {
	s, err := scanSubmission(r.pool.QueryRow(ctx,
		`SELECT `+submissionColumns+`
		 FROM submissions
		 WHERE exam_id = $1 AND student_id = $2`, examID, studentID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return s, err
}

// ListByStudent retrieves all submissions for a given student.
func (r *PgSubmissionRepository) ListByStudent(ctx context.Context, _ model.Credential, studentID string) ([]model.Submission, error) {
	return r.list(ctx,
		`SELECT `+submissionColumns+` FROM submissions WHERE student_id = $1 ORDER BY created_at DESC`, studentID)
}

// ListByExam retrieves all submissions for a given exam.
func (r *PgSubmissionRepository) ListByExam(ctx context.Context, _ model.Credential, examID string) ([]model.Submission, error) {
	return r.list(ctx,
		`SELECT `+submissionColumns+` FROM submissions WHERE exam_id = $1 ORDER BY created_at ASC`, examID)
}

func (r *PgSubmissionRepository) list(ctx context.Context, query string, arg string) ([]model.Submission, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Submission
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}
