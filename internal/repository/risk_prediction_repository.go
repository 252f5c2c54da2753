package repository

import (
	"context"
	"fmt"

	"github.com/pathfinder-edu/pathfinder-api/internal/models"
	"github.com/pathfinder-edu/pathfinder-api/pkg/database"
)

const riskColumns = "id, student_id, course_id, risk_level, confidence, factors, recommendations, predicted_grade, created_at"

// RiskPredictionRepository manages persistence for risk prediction records.
// Predictions are produced by the predictor; this layer only reads and
// appends them.
type RiskPredictionRepository struct {
	db *database.Cassandra
}

// NewRiskPredictionRepository constructs a RiskPredictionRepository.
func NewRiskPredictionRepository(db *database.Cassandra) *RiskPredictionRepository {
	return &RiskPredictionRepository{db: db}
}

// FindByStudentID returns every stored prediction for a student, in fetch
// order. Served by the secondary index on student_id. Rows with an unknown
// risk level are rejected, not silently defaulted.
func (r *RiskPredictionRepository) FindByStudentID(ctx context.Context, studentID string) ([]models.RiskPrediction, error) {
	stmt := fmt.Sprintf("SELECT %s FROM %s WHERE student_id = ?", riskColumns, r.db.Table("risk_predictions"))
	q, err := r.db.Query(ctx, stmt, studentID)
	if err != nil {
		return nil, err
	}

	iter := q.Iter()
	var predictions []models.RiskPrediction
	var (
		p     models.RiskPrediction
		level string
	)
	for iter.Scan(&p.ID, &p.StudentID, &p.CourseID, &level, &p.Confidence, &p.Factors, &p.Recommendations, &p.PredictedGrade, &p.CreatedAt) {
		parsed, err := models.ParseRiskLevel(level)
		if err != nil {
			_ = iter.Close()
			return nil, fmt.Errorf("risk prediction %s: %w", p.ID, err)
		}
		p.RiskLevel = parsed
		predictions = append(predictions, p)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("find predictions by student: %w", err)
	}
	return predictions, nil
}

// Insert appends a new prediction row.
func (r *RiskPredictionRepository) Insert(ctx context.Context, p *models.RiskPrediction) error {
	stmt := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.db.Table("risk_predictions"), riskColumns)
	q, err := r.db.Query(ctx, stmt,
		p.ID, p.StudentID, p.CourseID, string(p.RiskLevel), p.Confidence, p.Factors, p.Recommendations, p.PredictedGrade, p.CreatedAt)
	if err != nil {
		return err
	}
	if err := q.Exec(); err != nil {
		return fmt.Errorf("insert risk prediction: %w", err)
	}
	return nil
}
