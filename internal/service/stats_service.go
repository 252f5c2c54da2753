package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pathfinder-edu/pathfinder-api/internal/models"
	appErrors "github.com/pathfinder-edu/pathfinder-api/pkg/errors"
)

type statsStudentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type statsEnrollmentRepository interface {
	FindByStudentID(ctx context.Context, studentID string) ([]models.Enrollment, error)
}

type statsCourseRepository interface {
	FindByIDs(ctx context.Context, ids []string) ([]models.Course, error)
}

type statsPredictionRepository interface {
	FindByStudentID(ctx context.Context, studentID string) ([]models.RiskPrediction, error)
}

// StatsService assembles consolidated student views from independently
// stored entities. Enrollments and predictions are fetched concurrently,
// course ids are resolved in one batched read, and the join happens in
// memory at the scale of a single student's course load.
type StatsService struct {
	students    statsStudentRepository
	enrollments statsEnrollmentRepository
	courses     statsCourseRepository
	predictions statsPredictionRepository
	cache       *CacheService
	logger      *zap.Logger
}

// StatsServiceParams groups constructor dependencies.
type StatsServiceParams struct {
	Students    statsStudentRepository
	Enrollments statsEnrollmentRepository
	Courses     statsCourseRepository
	Predictions statsPredictionRepository
	Cache       *CacheService
	Logger      *zap.Logger
}

// NewStatsService constructs a StatsService.
func NewStatsService(params StatsServiceParams) *StatsService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsService{
		students:    params.Students,
		enrollments: params.Enrollments,
		courses:     params.Courses,
		predictions: params.Predictions,
		cache:       params.Cache,
		logger:      logger,
	}
}

// StudentStats returns the consolidated view for one student. A student with
// zero enrollments yields empty current courses and zero-valued aggregates,
// not an error.
func (s *StatsService) StudentStats(ctx context.Context, studentID string) (*models.StudentStats, error) {
	cacheKey := fmt.Sprintf("stats:%s", studentID)
	if s.cache.Enabled() {
		var cached models.StudentStats
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to fetch student")
	}
	if student == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}

	enrollments, predictions, err := s.fetchRecords(ctx, studentID)
	if err != nil {
		return nil, err
	}

	courses, err := s.resolveCourses(ctx, enrollments)
	if err != nil {
		return nil, err
	}

	stats := &models.StudentStats{
		Student:          *student,
		CurrentCourses:   joinCurrentCourses(enrollments, courses, predictions),
		RiskDistribution: map[string]int{},
	}

	completed := 0
	attendanceSum := 0.0
	for _, e := range enrollments {
		attendanceSum += e.AttendanceRate
		if e.Status == models.StatusCompleted {
			completed++
			if course, ok := courses[e.CourseID]; ok {
				stats.TotalCredits += course.Credits
			}
		}
	}
	stats.CompletedCourses = completed
	if len(enrollments) > 0 {
		stats.AverageAttendance = attendanceSum / float64(len(enrollments))
	}

	// Distribution spans every stored prediction for the student, not just
	// those attached to current courses. The dashboard shows full risk
	// history here; see DESIGN.md before aligning the two.
	for _, p := range predictions {
		stats.RiskDistribution[string(p.RiskLevel)]++
	}

	if err := s.cache.Set(ctx, cacheKey, stats); err != nil {
		s.logger.Warn("stats cache write failed", zap.String("student", studentID), zap.Error(err))
	}
	return stats, nil
}

// CourseProgress returns the current-course join for one student without the
// student record or aggregate counters.
func (s *StatsService) CourseProgress(ctx context.Context, studentID string) ([]models.CourseProgress, error) {
	cacheKey := fmt.Sprintf("progress:%s", studentID)
	if s.cache.Enabled() {
		var cached []models.CourseProgress
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return cached, nil
		}
	}

	enrollments, predictions, err := s.fetchRecords(ctx, studentID)
	if err != nil {
		return nil, err
	}

	courses, err := s.resolveCourses(ctx, enrollments)
	if err != nil {
		return nil, err
	}

	progress := joinCurrentCourses(enrollments, courses, predictions)
	if err := s.cache.Set(ctx, cacheKey, progress); err != nil {
		s.logger.Warn("progress cache write failed", zap.String("student", studentID), zap.Error(err))
	}
	return progress, nil
}

// StudentRisks lists every stored prediction for a student.
func (s *StatsService) StudentRisks(ctx context.Context, studentID string) ([]models.RiskPrediction, error) {
	predictions, err := s.predictions.FindByStudentID(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to fetch predictions")
	}
	if predictions == nil {
		predictions = []models.RiskPrediction{}
	}
	return predictions, nil
}

// fetchRecords issues the independent per-student reads concurrently and
// waits for all of them before returning.
func (s *StatsService) fetchRecords(ctx context.Context, studentID string) ([]models.Enrollment, []models.RiskPrediction, error) {
	var (
		enrollments []models.Enrollment
		predictions []models.RiskPrediction
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		enrollments, err = s.enrollments.FindByStudentID(gctx, studentID)
		return err
	})
	g.Go(func() error {
		var err error
		predictions, err = s.predictions.FindByStudentID(gctx, studentID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to fetch student records")
	}
	return enrollments, predictions, nil
}

// resolveCourses batches every course id referenced by the enrollments into
// a single multi-get and indexes the result by id.
func (s *StatsService) resolveCourses(ctx context.Context, enrollments []models.Enrollment) (map[string]models.Course, error) {
	if len(enrollments) == 0 {
		return map[string]models.Course{}, nil
	}

	seen := make(map[string]struct{}, len(enrollments))
	ids := make([]string, 0, len(enrollments))
	for _, e := range enrollments {
		if _, ok := seen[e.CourseID]; ok {
			continue
		}
		seen[e.CourseID] = struct{}{}
		ids = append(ids, e.CourseID)
	}

	courses, err := s.courses.FindByIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to fetch courses")
	}

	byID := make(map[string]models.Course, len(courses))
	for _, c := range courses {
		byID[c.ID] = c
	}
	return byID, nil
}

// joinCurrentCourses pairs each ENROLLED enrollment, in fetch order, with its
// course and the latest matching prediction. Enrollments whose course cannot
// be resolved are silently dropped; a missing prediction leaves the field nil.
func joinCurrentCourses(enrollments []models.Enrollment, courses map[string]models.Course, predictions []models.RiskPrediction) []models.CourseProgress {
	progress := make([]models.CourseProgress, 0, len(enrollments))
	for _, e := range enrollments {
		if e.Status != models.StatusEnrolled {
			continue
		}
		course, ok := courses[e.CourseID]
		if !ok {
			continue
		}
		progress = append(progress, models.CourseProgress{
			Course:         course,
			Enrollment:     e,
			RiskPrediction: latestPredictionForCourse(predictions, e.CourseID),
		})
	}
	return progress
}

// latestPredictionForCourse picks the deterministic winner when multiple
// predictions exist for the same course: most recent CreatedAt, first seen
// on ties.
func latestPredictionForCourse(predictions []models.RiskPrediction, courseID string) *models.RiskPrediction {
	var latest *models.RiskPrediction
	for i := range predictions {
		p := &predictions[i]
		if p.CourseID != courseID {
			continue
		}
		if latest == nil || p.CreatedAt.After(latest.CreatedAt) {
			latest = p
		}
	}
	if latest == nil {
		return nil
	}
	copied := *latest
	return &copied
}
