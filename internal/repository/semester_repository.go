package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/sgpa-planner/internal/grade"
	"github.com/stemsi/sgpa-planner/internal/semester"
)

// SemesterRepository persists semester sheets. A sheet is stored as one
// summary row in semesters plus its course rows in semester_courses, ordered
// by position.
type SemesterRepository struct {
	pool *pgxpool.Pool
}

// NewSemesterRepository creates a new SemesterRepository.
func NewSemesterRepository(pool *pgxpool.Pool) *SemesterRepository {
	return &SemesterRepository{pool: pool}
}

// GetRows loads the rows of one semester in display order. found is false
// when the semester has never been saved.
func (r *SemesterRepository) GetRows(ctx context.Context, studentID, number int) (semester.Rows, bool, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM semesters WHERE student_id = $1 AND number = $2)`,
		studentID, number,
	).Scan(&exists); err != nil {
		return nil, false, err
	}
	if !exists {
		return nil, false, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT module_name, module_code, credit, grade, credit_point
		 FROM semester_courses
		 WHERE student_id = $1 AND number = $2
		 ORDER BY position ASC`, studentID, number)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	var out semester.Rows
	for rows.Next() {
		var row semester.Row
		var g string
		if err := rows.Scan(&row.ModuleName, &row.ModuleCode, &row.Credit, &g, &row.CreditPoint); err != nil {
			return nil, false, err
		}
		row.Grade = grade.Grade(g)
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	return out, true, nil
}

// ListNumbers returns the saved semester numbers of a student, ascending.
func (r *SemesterRepository) ListNumbers(ctx context.Context, studentID int) ([]int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT number FROM semesters WHERE student_id = $1 ORDER BY number ASC`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var numbers []int
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		numbers = append(numbers, n)
	}
	return numbers, rows.Err()
}

// ReplaceRows overwrites a semester sheet in a single transaction: the summary
// is upserted and the course rows are rewritten in order. A snapshot that is
// not newer than the stored one is skipped and applied is false.
func (r *SemesterRepository) ReplaceRows(ctx context.Context, studentID, number int, rs semester.Rows, updatedAt time.Time) (applied bool, err error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`INSERT INTO semesters (student_id, number, sgpa, total_credits, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (student_id, number) DO UPDATE
		 SET sgpa = EXCLUDED.sgpa, total_credits = EXCLUDED.total_credits, updated_at = EXCLUDED.updated_at
		 WHERE semesters.updated_at < EXCLUDED.updated_at`,
		studentID, number, semester.ComputeSGPA(rs), rs.TotalCredits(), updatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("upsert semester: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM semester_courses WHERE student_id = $1 AND number = $2`,
		studentID, number,
	); err != nil {
		return false, fmt.Errorf("clear courses: %w", err)
	}

	if len(rs) > 0 {
		batch := &pgx.Batch{}
		for i, row := range rs {
			batch.Queue(
				`INSERT INTO semester_courses
				 (student_id, number, position, module_name, module_code, credit, grade, credit_point)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				studentID, number, i, row.ModuleName, row.ModuleCode, row.Credit, string(row.Grade), row.CreditPoint,
			)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return false, fmt.Errorf("insert courses: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit tx: %w", err)
	}
	return true, nil
}
