package models

import (
	"fmt"
	"time"
)

// EnrollmentStatus is the closed set of enrollment lifecycle states.
type EnrollmentStatus string

const (
	StatusEnrolled  EnrollmentStatus = "ENROLLED"
	StatusCompleted EnrollmentStatus = "COMPLETED"
	StatusFailed    EnrollmentStatus = "FAILED"
	StatusDropped   EnrollmentStatus = "DROPPED"
)

// ParseEnrollmentStatus rejects values outside the known set.
func ParseEnrollmentStatus(raw string) (EnrollmentStatus, error) {
	switch EnrollmentStatus(raw) {
	case StatusEnrolled, StatusCompleted, StatusFailed, StatusDropped:
		return EnrollmentStatus(raw), nil
	default:
		return "", fmt.Errorf("unknown enrollment status %q", raw)
	}
}

// Enrollment is one row per student-course-semester combination. Uniqueness
// is respected by writers, not enforced by storage.
type Enrollment struct {
	ID             string           `json:"id"`
	StudentID      string           `json:"student_id"`
	CourseID       string           `json:"course_id"`
	Semester       int              `json:"semester"`
	Grade          string           `json:"grade,omitempty"`
	Status         EnrollmentStatus `json:"status"`
	AttendanceRate float64          `json:"attendance_rate"`
	EnrolledAt     time.Time        `json:"enrolled_at"`
	CompletedAt    *time.Time       `json:"completed_at,omitempty"`
}
