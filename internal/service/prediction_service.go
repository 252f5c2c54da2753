package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pathfinder-edu/pathfinder-api/internal/models"
	appErrors "github.com/pathfinder-edu/pathfinder-api/pkg/errors"
)

// Weight factors for the heuristic risk score.
const (
	gpaWeight          = 0.35
	attendanceWeight   = 0.25
	prerequisiteWeight = 0.20
	difficultyWeight   = 0.20
)

type predictionWriter interface {
	Insert(ctx context.Context, p *models.RiskPrediction) error
}

// PredictionService computes heuristic risk predictions for a student's
// current courses and persists them. It implements the
// predict-risks-for-student capability consumed by the dashboard; a trained
// model can replace the scoring internals without changing callers.
type PredictionService struct {
	students    statsStudentRepository
	enrollments statsEnrollmentRepository
	courses     statsCourseRepository
	writer      predictionWriter
	cache       *CacheService
	logger      *zap.Logger
	now         func() time.Time
}

// NewPredictionService constructs a PredictionService.
func NewPredictionService(students statsStudentRepository, enrollments statsEnrollmentRepository, courses statsCourseRepository, writer predictionWriter, cache *CacheService, logger *zap.Logger) *PredictionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PredictionService{
		students:    students,
		enrollments: enrollments,
		courses:     courses,
		writer:      writer,
		cache:       cache,
		logger:      logger,
		now:         time.Now,
	}
}

// Refresh recomputes predictions for every current course of the student,
// stores them, and invalidates cached views.
func (s *PredictionService) Refresh(ctx context.Context, studentID string) ([]models.RiskPrediction, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to fetch student")
	}
	if student == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}

	enrollments, err := s.enrollments.FindByStudentID(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to fetch enrollments")
	}

	ids := make([]string, 0, len(enrollments))
	for _, e := range enrollments {
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

	completedCodes := completedCourseCodes(enrollments, byID)

	predictions := make([]models.RiskPrediction, 0, len(enrollments))
	for _, e := range enrollments {
		if e.Status != models.StatusEnrolled {
			continue
		}
		course, ok := byID[e.CourseID]
		if !ok {
			continue
		}
		p := s.predict(student, course, enrollments, completedCodes)
		if err := s.writer.Insert(ctx, &p); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to store prediction")
		}
		predictions = append(predictions, p)
	}

	s.cache.Invalidate(ctx, fmt.Sprintf("stats:%s", studentID))
	s.cache.Invalidate(ctx, fmt.Sprintf("progress:%s", studentID))

	s.logger.Info("predictions refreshed",
		zap.String("student", studentID),
		zap.Int("count", len(predictions)))
	return predictions, nil
}

func (s *PredictionService) predict(student *models.Student, course models.Course, history []models.Enrollment, completedCodes map[string]struct{}) models.RiskPrediction {
	gpaFactor := gpaRisk(student.GPA)
	attendanceFactor := attendanceRisk(history)
	prereqFactor := prerequisiteRisk(course, completedCodes)
	difficultyFactor := difficultyRisk(course.Difficulty, student.GPA)

	score := gpaFactor*gpaWeight +
		attendanceFactor*attendanceWeight +
		prereqFactor*prerequisiteWeight +
		difficultyFactor*difficultyWeight

	level := models.RiskHigh
	switch {
	case score < 0.35:
		level = models.RiskLow
	case score < 0.65:
		level = models.RiskMedium
	}

	return models.RiskPrediction{
		ID:         uuid.NewString(),
		StudentID:  student.ID,
		CourseID:   course.ID,
		RiskLevel:  level,
		Confidence: confidence(len(history), student.Semester),
		Factors: map[string]float64{
			"gpa":           gpaFactor,
			"attendance":    attendanceFactor,
			"prerequisites": prereqFactor,
			"difficulty":    difficultyFactor,
		},
		Recommendations: recommendations(level, gpaFactor, attendanceFactor, prereqFactor, difficultyFactor, course),
		PredictedGrade:  predictGrade(score, student.GPA),
		CreatedAt:       s.now().UTC(),
	}
}

// Higher GPA lowers risk. GPA range 0.0-4.0.
func gpaRisk(gpa float64) float64 {
	return clamp01((4.0 - gpa) / 4.0)
}

// Lower historical attendance raises risk; neutral 0.5 with no history.
func attendanceRisk(history []models.Enrollment) float64 {
	if len(history) == 0 {
		return 0.5
	}
	sum := 0.0
	for _, e := range history {
		sum += e.AttendanceRate
	}
	return clamp01(1.0 - sum/float64(len(history)))
}

// Missing prerequisites raise risk; no prerequisites means none.
func prerequisiteRisk(course models.Course, completedCodes map[string]struct{}) float64 {
	if len(course.Prerequisites) == 0 {
		return 0.0
	}
	met := 0
	for _, code := range course.Prerequisites {
		if _, ok := completedCodes[strings.ToUpper(code)]; ok {
			met++
		}
	}
	return 1.0 - float64(met)/float64(len(course.Prerequisites))
}

// Risk grows when course difficulty (1.0-5.0) exceeds the student's
// capability proxy (GPA normalized to 0-1).
func difficultyRisk(difficulty, gpa float64) float64 {
	normalized := (difficulty - 1.0) / 4.0
	capability := gpa / 4.0
	if normalized <= capability {
		return 0.0
	}
	return normalized - capability
}

// More history and a later semester raise confidence.
func confidence(historyCount, semester int) float64 {
	historyFactor := minFloat(1.0, float64(historyCount)/10.0)
	semesterFactor := minFloat(1.0, float64(semester)/8.0)
	return (historyFactor + semesterFactor) / 2.0
}

func recommendations(level models.RiskLevel, gpaFactor, attendanceFactor, prereqFactor, difficultyFactor float64, course models.Course) []string {
	var recs []string

	switch level {
	case models.RiskHigh:
		recs = append(recs,
			"Consider postponing this course until prerequisites are completed",
			"Speak with your academic advisor about course load")
	case models.RiskMedium:
		recs = append(recs,
			"Allocate extra study time for this course",
			"Form a study group with classmates")
	default:
		recs = append(recs,
			"Maintain current study habits",
			"Consider taking on additional challenging courses")
	}

	if gpaFactor > 0.6 {
		recs = append(recs,
			"Focus on improving overall GPA through easier electives",
			"Seek tutoring services for challenging subjects")
	}
	if attendanceFactor > 0.6 {
		recs = append(recs,
			"Prioritize class attendance - aim for 90%+ attendance rate",
			"Set reminders for all class sessions")
	}
	if prereqFactor > 0.5 && len(course.Prerequisites) > 0 {
		recs = append(recs,
			fmt.Sprintf("Review prerequisite materials: %s", strings.Join(course.Prerequisites, ", ")),
			"Consider auditing prerequisite courses if needed")
	}
	if difficultyFactor > 0.6 {
		recs = append(recs,
			"Start studying early and create a structured study schedule",
			"Attend office hours regularly for additional support")
	}

	return recs
}

func predictGrade(score, gpa float64) string {
	predicted := ((1.0-score)*0.6 + (gpa/4.0)*0.4) * 100

	switch {
	case predicted >= 90:
		return "A"
	case predicted >= 85:
		return "A-"
	case predicted >= 80:
		return "B+"
	case predicted >= 75:
		return "B"
	case predicted >= 70:
		return "B-"
	case predicted >= 65:
		return "C+"
	case predicted >= 60:
		return "C"
	case predicted >= 55:
		return "C-"
	case predicted >= 50:
		return "D"
	default:
		return "F"
	}
}

func completedCourseCodes(enrollments []models.Enrollment, courses map[string]models.Course) map[string]struct{} {
	codes := make(map[string]struct{})
	for _, e := range enrollments {
		if e.Status != models.StatusCompleted {
			continue
		}
		if course, ok := courses[e.CourseID]; ok {
			codes[strings.ToUpper(course.CourseCode)] = struct{}{}
		}
	}
	return codes
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
