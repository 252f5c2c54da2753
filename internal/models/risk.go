package models

import (
	"fmt"
	"time"
)

// RiskLevel is the coarse categorical output of the risk predictor.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// ParseRiskLevel rejects values outside the known set.
func ParseRiskLevel(raw string) (RiskLevel, error) {
	switch RiskLevel(raw) {
	case RiskLow, RiskMedium, RiskHigh:
		return RiskLevel(raw), nil
	default:
		return "", fmt.Errorf("unknown risk level %q", raw)
	}
}

// RiskPrediction is one prediction for a (student, course) pair. Multiple
// predictions per pair may exist; readers pick the latest by CreatedAt.
type RiskPrediction struct {
	ID              string             `json:"id"`
	StudentID       string             `json:"student_id"`
	CourseID        string             `json:"course_id"`
	RiskLevel       RiskLevel          `json:"risk_level"`
	Confidence      float64            `json:"confidence"`
	Factors         map[string]float64 `json:"factors"`
	Recommendations []string           `json:"recommendations"`
	PredictedGrade  string             `json:"predicted_grade,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
}
