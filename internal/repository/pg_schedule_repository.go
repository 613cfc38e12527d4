package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/etesthub-backend/internal/model"
)

const scheduleColumns = `id::text, exam_id, class_id, start_time, end_time, is_closed`

// pgCheckViolation is the SQLSTATE for CHECK constraint failures.
const pgCheckViolation = "23514"

// PgScheduleRepository stores exam schedules in PostgreSQL.
type PgScheduleRepository struct {
	pool *pgxpool.Pool
}

// NewPgScheduleRepository creates a new PgScheduleRepository.
func NewPgScheduleRepository(pool *pgxpool.Pool) *PgScheduleRepository {
	return &PgScheduleRepository{pool: pool}
}

func scanSchedule(row pgx.Row) (*model.ExamSchedule, error) {
	s := &model.ExamSchedule{}
	if err := row.Scan(&s.ID, &s.ExamID, &s.ClassID, &s.StartTime, &s.EndTime, &s.IsClosed); err != nil {
		return nil, err
	}
	return s, nil
}

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return ErrNotFound
	case errors.As(err, &pgErr) && pgErr.Code == pgCheckViolation:
		return ErrCheckViolation
	default:
		return err
	}
}

// Create inserts a new schedule.
func (r *PgScheduleRepository) Create(ctx context.Context, _ model.Credential, s *model.ExamSchedule) (*model.ExamSchedule, error) {
	created, err := scanSchedule(r.pool.QueryRow(ctx,
		`INSERT INTO exam_schedules (exam_id, class_id, start_time, end_time, is_closed)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+scheduleColumns,
		s.ExamID, s.ClassID, s.StartTime, s.EndTime, s.IsClosed,
	))
	return created, mapPgError(err)
}

// Update replaces a schedule's window and closed flag.
func (r *PgScheduleRepository) Update(ctx context.Context, _ model.Credential, s *model.ExamSchedule) (*model.ExamSchedule, error) {
	sid, err := uuid.Parse(s.ID)
	if err != nil {
		return nil, ErrNotFound
	}
	updated, err := scanSchedule(r.pool.QueryRow(ctx,
		`UPDATE exam_schedules
		 SET start_time = $1, end_time = $2, is_closed = $3, updated_at = NOW()
		 WHERE id = $4
		 RETURNING `+scheduleColumns,
		s.StartTime, s.EndTime, s.IsClosed, sid,
	))
	return updated, mapPgError(err)
}

// Delete removes a schedule by id.
func (r *PgScheduleRepository) Delete(ctx context.Context, _ model.Credential, id string) error {
	sid, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmdTag, err := r.pool.Exec(ctx, `DELETE FROM exam_schedules WHERE id = $1`, sid)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID retrieves a schedule by id.
func (r *PgScheduleRepository) GetByID(ctx context.Context, _ model.Credential, id string) (*model.ExamSchedule, error) {
	sid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}
	s, err := scanSchedule(r.pool.QueryRow(ctx,
		`SELECT `+scheduleColumns+` FROM exam_schedules WHERE id = $1`, sid))
	return s, mapPgError(err)
}

// ListByClass retrieves the schedules assigned to a class, soonest first.
func (r *PgScheduleRepository) ListByClass(ctx context.Context, _ model.Credential, classID string) ([]model.ExamSchedule, error) {
	return r.list(ctx,
		`SELECT `+scheduleColumns+` FROM exam_schedules WHERE class_id = $1 ORDER BY start_time ASC`, classID)
}

// ListByExam retrieves the schedules of an exam, soonest first.
func (r *PgScheduleRepository) ListByExam(ctx context.Context, _ model.Credential, examID string) ([]model.ExamSchedule, error) {
	return r.list(ctx,
		`SELECT `+scheduleColumns+` FROM exam_schedules WHERE exam_id = $1 ORDER BY start_time ASC`, examID)
}

func (r *PgScheduleRepository) list(ctx context.Context, query string, arg string) ([]model.ExamSchedule, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ExamSchedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}
