package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/pathfinder-edu/pathfinder-api/internal/models"
	"github.com/pathfinder-edu/pathfinder-api/pkg/database"
)

const enrollmentColumns = "id, student_id, course_id, semester, grade, status, attendance_rate, enrolled_at, completed_at"

// EnrollmentRepository manages persistence for enrollment records.
type EnrollmentRepository struct {
	db *database.Cassandra
}

// NewEnrollmentRepository constructs an EnrollmentRepository.
func NewEnrollmentRepository(db *database.Cassandra) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// FindByStudentID returns every enrollment for a student, in fetch order.
// Served by the secondary index on student_id. Rows with a status outside
// the known set are rejected, not silently defaulted.
func (r *EnrollmentRepository) FindByStudentID(ctx context.Context, studentID string) ([]models.Enrollment, error) {
	stmt := fmt.Sprintf("SELECT %s FROM %s WHERE student_id = ?", enrollmentColumns, r.db.Table("enrollments"))
	q, err := r.db.Query(ctx, stmt, studentID)
	if err != nil {
		return nil, err
	}

	iter := q.Iter()
	var enrollments []models.Enrollment
	var (
		e           models.Enrollment
		status      string
		completedAt time.Time
	)
	for iter.Scan(&e.ID, &e.StudentID, &e.CourseID, &e.Semester, &e.Grade, &status, &e.AttendanceRate, &e.EnrolledAt, &completedAt) {
		parsed, err := models.ParseEnrollmentStatus(status)
		if err != nil {
			_ = iter.Close()
			return nil, fmt.Errorf("enrollment %s: %w", e.ID, err)
		}
		e.Status = parsed
		e.CompletedAt = nil
		if !completedAt.IsZero() {
			ts := completedAt
			e.CompletedAt = &ts
		}
		enrollments = append(enrollments, e)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("find enrollments by student: %w", err)
	}
	return enrollments, nil
}

// Insert writes a new enrollment row. The writer is responsible for ensuring
// the referenced student and course exist and for per-semester uniqueness.
func (r *EnrollmentRepository) Insert(ctx context.Context, e *models.Enrollment) error {
	stmt := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.db.Table("enrollments"), enrollmentColumns)
	q, err := r.db.Query(ctx, stmt,
		e.ID, e.StudentID, e.CourseID, e.Semester, e.Grade, string(e.Status), e.AttendanceRate, e.EnrolledAt, e.CompletedAt)
	if err != nil {
		return err
	}
	if err := q.Exec(); err != nil {
		return fmt.Errorf("insert enrollment: %w", err)
	}
	return nil
}
