package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pathfinder-edu/pathfinder-api/internal/models"
	appErrors "github.com/pathfinder-edu/pathfinder-api/pkg/errors"
)

type fakeStudentRepo struct {
	student *models.Student
	err     error
}

func (f *fakeStudentRepo) FindByID(context.Context, string) (*models.Student, error) {
	return f.student, f.err
}

type fakeEnrollmentRepo struct {
	enrollments []models.Enrollment
	err         error
}

func (f *fakeEnrollmentRepo) FindByStudentID(context.Context, string) ([]models.Enrollment, error) {
	return f.enrollments, f.err
}

type fakeCourseRepo struct {
	courses  []models.Course
	err      error
	askedIDs []string
	calls    int
}

func (f *fakeCourseRepo) FindByIDs(_ context.Context, ids []string) ([]models.Course, error) {
	f.calls++
	f.askedIDs = ids
	return f.courses, f.err
}

type fakePredictionRepo struct {
	predictions []models.RiskPrediction
	err         error
}

func (f *fakePredictionRepo) FindByStudentID(context.Context, string) ([]models.RiskPrediction, error) {
	return f.predictions, f.err
}

func newStatsService(students *fakeStudentRepo, enrollments *fakeEnrollmentRepo, courses *fakeCourseRepo, predictions *fakePredictionRepo) *StatsService {
	return NewStatsService(StatsServiceParams{
		Students:    students,
		Enrollments: enrollments,
		Courses:     courses,
		Predictions: predictions,
		Logger:      zap.NewNop(),
	})
}

func aStudent() *models.Student {
	return &models.Student{ID: "stu-1", Name: "Ada", Email: "ada@x.com", GPA: 3.2, Semester: 4}
}

func TestStudentStatsUnknownStudent(t *testing.T) {
	svc := newStatsService(&fakeStudentRepo{}, &fakeEnrollmentRepo{}, &fakeCourseRepo{}, &fakePredictionRepo{})

	_, err := svc.StudentStats(context.Background(), "stu-404")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestStudentStatsZeroEnrollments(t *testing.T) {
	svc := newStatsService(&fakeStudentRepo{student: aStudent()}, &fakeEnrollmentRepo{}, &fakeCourseRepo{}, &fakePredictionRepo{})

	stats, err := svc.StudentStats(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Empty(t, stats.CurrentCourses)
	assert.Equal(t, 0, stats.CompletedCourses)
	assert.Equal(t, 0, stats.TotalCredits)
	assert.Equal(t, 0.0, stats.AverageAttendance)
	assert.Empty(t, stats.RiskDistribution)
}

func TestStudentStatsJoinAndAggregates(t *testing.T) {
	enrollments := []models.Enrollment{
		{ID: "e1", CourseID: "c1", Status: models.StatusEnrolled, AttendanceRate: 0.9},
		{ID: "e2", CourseID: "c2", Status: models.StatusCompleted, AttendanceRate: 0.8},
		{ID: "e3", CourseID: "c3", Status: models.StatusEnrolled, AttendanceRate: 0.7},
		{ID: "e4", CourseID: "c-missing", Status: models.StatusEnrolled, AttendanceRate: 0.6},
		{ID: "e5", CourseID: "c4", Status: models.StatusDropped, AttendanceRate: 0.5},
	}
	courses := []models.Course{
		{ID: "c1", CourseCode: "CS101", Credits: 3},
		{ID: "c2", CourseCode: "CS100", Credits: 4},
		{ID: "c3", CourseCode: "MA200", Credits: 3},
		{ID: "c4", CourseCode: "EL110", Credits: 2},
	}
	older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(48 * time.Hour)
	predictions := []models.RiskPrediction{
		{ID: "p1", CourseID: "c1", RiskLevel: models.RiskLow, CreatedAt: older},
		{ID: "p2", CourseID: "c1", RiskLevel: models.RiskHigh, CreatedAt: newer},
		{ID: "p3", CourseID: "c4", RiskLevel: models.RiskMedium, CreatedAt: older},
	}

	courseRepo := &fakeCourseRepo{courses: courses}
	svc := newStatsService(&fakeStudentRepo{student: aStudent()}, &fakeEnrollmentRepo{enrollments: enrollments}, courseRepo, &fakePredictionRepo{predictions: predictions})

	stats, err := svc.StudentStats(context.Background(), "stu-1")
	require.NoError(t, err)

	// Current courses preserve enrollment order; the enrollment whose course
	// is missing is dropped, never an error.
	require.Len(t, stats.CurrentCourses, 2)
	assert.Equal(t, "e1", stats.CurrentCourses[0].Enrollment.ID)
	assert.Equal(t, "e3", stats.CurrentCourses[1].Enrollment.ID)

	// Deterministic prediction pick: latest CreatedAt wins for c1.
	require.NotNil(t, stats.CurrentCourses[0].RiskPrediction)
	assert.Equal(t, "p2", stats.CurrentCourses[0].RiskPrediction.ID)
	assert.Nil(t, stats.CurrentCourses[1].RiskPrediction)

	assert.Equal(t, 1, stats.CompletedCourses)
	assert.Equal(t, 4, stats.TotalCredits)
	assert.InDelta(t, 0.7, stats.AverageAttendance, 1e-9)

	// Distribution counts every fetched prediction, including the one for
	// the dropped course c4 and both c1 rows.
	assert.Equal(t, map[string]int{"LOW": 1, "HIGH": 1, "MEDIUM": 1}, stats.RiskDistribution)

	// Course ids are resolved in a single batched call.
	assert.Equal(t, 1, courseRepo.calls)
	assert.Len(t, courseRepo.askedIDs, 5)
}

func TestStudentStatsCompletedCourseWithoutRecordSkipsCredits(t *testing.T) {
	enrollments := []models.Enrollment{
		{ID: "e1", CourseID: "gone", Status: models.StatusCompleted, AttendanceRate: 1.0},
	}
	svc := newStatsService(&fakeStudentRepo{student: aStudent()}, &fakeEnrollmentRepo{enrollments: enrollments}, &fakeCourseRepo{}, &fakePredictionRepo{})

	stats, err := svc.StudentStats(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.CompletedCourses)
	assert.Equal(t, 0, stats.TotalCredits)
}

func TestStudentStatsStorageFailure(t *testing.T) {
	svc := newStatsService(&fakeStudentRepo{student: aStudent()}, &fakeEnrollmentRepo{err: errors.New("timeout")}, &fakeCourseRepo{}, &fakePredictionRepo{})

	_, err := svc.StudentStats(context.Background(), "stu-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrStorage.Code, appErrors.FromError(err).Code)
}

func TestCourseProgressLengthMatchesResolvableEnrollments(t *testing.T) {
	enrollments := []models.Enrollment{
		{ID: "e1", CourseID: "c1", Status: models.StatusEnrolled},
		{ID: "e2", CourseID: "c-missing", Status: models.StatusEnrolled},
		{ID: "e3", CourseID: "c2", Status: models.StatusCompleted},
	}
	courses := []models.Course{{ID: "c1"}, {ID: "c2"}}

	svc := newStatsService(&fakeStudentRepo{student: aStudent()}, &fakeEnrollmentRepo{enrollments: enrollments}, &fakeCourseRepo{courses: courses}, &fakePredictionRepo{})

	progress, err := svc.CourseProgress(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Len(t, progress, 1)
	assert.Equal(t, "e1", progress[0].Enrollment.ID)
}

func TestStudentRisksEmptyIsNotAnError(t *testing.T) {
	svc := newStatsService(&fakeStudentRepo{}, &fakeEnrollmentRepo{}, &fakeCourseRepo{}, &fakePredictionRepo{})

	risks, err := svc.StudentRisks(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.NotNil(t, risks)
	assert.Empty(t, risks)
}

func TestLatestPredictionTieBreakKeepsFirstSeen(t *testing.T) {
	ts := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	predictions := []models.RiskPrediction{
		{ID: "p1", CourseID: "c1", CreatedAt: ts},
		{ID: "p2", CourseID: "c1", CreatedAt: ts},
	}

	picked := latestPredictionForCourse(predictions, "c1")
	require.NotNil(t, picked)
	assert.Equal(t, "p1", picked.ID)
}
