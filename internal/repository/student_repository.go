package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/gocql/gocql"

	"github.com/pathfinder-edu/pathfinder-api/internal/models"
	"github.com/pathfinder-edu/pathfinder-api/pkg/database"
)

const studentColumns = "id, student_id, name, email, password_hash, gpa, semester, created_at, updated_at"

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *database.Cassandra
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *database.Cassandra) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByID returns the student with the given id, or nil when absent.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	stmt := fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", studentColumns, r.db.Table("students"))
	return r.scanOne(ctx, stmt, id)
}

// FindByEmail returns the student with the given email, or nil when absent.
// Served by the secondary index on email.
func (r *StudentRepository) FindByEmail(ctx context.Context, email string) (*models.Student, error) {
	stmt := fmt.Sprintf("SELECT %s FROM %s WHERE email = ?", studentColumns, r.db.Table("students"))
	return r.scanOne(ctx, stmt, email)
}

// FindByStudentID returns the student with the given external student id, or
// nil when absent.
func (r *StudentRepository) FindByStudentID(ctx context.Context, studentID string) (*models.Student, error) {
	stmt := fmt.Sprintf("SELECT %s FROM %s WHERE student_id = ?", studentColumns, r.db.Table("students"))
	return r.scanOne(ctx, stmt, studentID)
}

// Insert writes a new student row.
func (r *StudentRepository) Insert(ctx context.Context, s *models.Student) error {
	stmt := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.db.Table("students"), studentColumns)
	q, err := r.db.Query(ctx, stmt,
		s.ID, s.StudentID, s.Name, s.Email, s.PasswordHash, s.GPA, s.Semester, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return err
	}
	if err := q.Exec(); err != nil {
		return fmt.Errorf("insert student: %w", err)
	}
	return nil
}

// Update rewrites the mutable profile fields of an existing student.
func (r *StudentRepository) Update(ctx context.Context, s *models.Student) error {
	stmt := fmt.Sprintf(`UPDATE %s SET name = ?, gpa = ?, semester = ?, updated_at = ? WHERE id = ?`,
		r.db.Table("students"))
	q, err := r.db.Query(ctx, stmt, s.Name, s.GPA, s.Semester, s.UpdatedAt, s.ID)
	if err != nil {
		return err
	}
	if err := q.Exec(); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// List returns up to limit students.
func (r *StudentRepository) List(ctx context.Context, limit int) ([]models.Student, error) {
	if limit <= 0 {
		limit = 100
	}
	stmt := fmt.Sprintf("SELECT %s FROM %s LIMIT ?", studentColumns, r.db.Table("students"))
	q, err := r.db.Query(ctx, stmt, limit)
	if err != nil {
		return nil, err
	}

	iter := q.Iter()
	var students []models.Student
	var s models.Student
	for iter.Scan(&s.ID, &s.StudentID, &s.Name, &s.Email, &s.PasswordHash, &s.GPA, &s.Semester, &s.CreatedAt, &s.UpdatedAt) {
		students = append(students, s)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

func (r *StudentRepository) scanOne(ctx context.Context, stmt string, arg interface{}) (*models.Student, error) {
	q, err := r.db.Query(ctx, stmt, arg)
	if err != nil {
		return nil, err
	}

	var s models.Student
	if err := q.Scan(&s.ID, &s.StudentID, &s.Name, &s.Email, &s.PasswordHash, &s.GPA, &s.Semester, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find student: %w", err)
	}
	return &s, nil
}
