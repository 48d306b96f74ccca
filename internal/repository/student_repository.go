package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/sgpa-planner/internal/model"
)

var (
	ErrDuplicateStudentNumber = errors.New("student with this student number already exists")
	ErrStudentNotFound        = errors.New("student not found")
)

// StudentRepository handles student account data access.
type StudentRepository struct {
	pool *pgxpool.Pool
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(pool *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

// GetByID retrieves a student by ID.
func (r *StudentRepository) GetByID(ctx context.Context, id int) (*model.Student, error) {
	return r.getOne(ctx,
		`SELECT id, student_number, name, password_hash, created_at, updated_at
		 FROM students WHERE id = $1`, id)
}

// GetByStudentNumber retrieves a student by their unique student number.
func (r *StudentRepository) GetByStudentNumber(ctx context.Context, number string) (*model.Student, error) {
	return r.getOne(ctx,
		`SELECT id, student_number, name, password_hash, created_at, updated_at
		 FROM students WHERE student_number = $1`, number)
}

func (r *StudentRepository) getOne(ctx context.Context, query string, arg interface{}) (*model.Student, error) {
	s := &model.Student{}
	err := r.pool.QueryRow(ctx, query, arg).
		Scan(&s.ID, &s.StudentNumber, &s.Name, &s.PasswordHash, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrStudentNotFound
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Create inserts a new student account.
func (r *StudentRepository) Create(ctx context.Context, s *model.Student) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO students (student_number, name, password_hash)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at, updated_at`,
		s.StudentNumber, s.Name, s.PasswordHash,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateStudentNumber
		}
		return err
	}
	return nil
}
