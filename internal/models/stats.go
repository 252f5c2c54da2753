package models

// CourseProgress pairs a current enrollment with its course and, when one
// exists, a matching risk prediction.
type CourseProgress struct {
	Course         Course          `json:"course"`
	Enrollment     Enrollment      `json:"enrollment"`
	RiskPrediction *RiskPrediction `json:"risk_prediction,omitempty"`
}

// StudentStats is the consolidated per-student view. It is derived on every
// request and never persisted.
type StudentStats struct {
	Student           Student          `json:"student"`
	CurrentCourses    []CourseProgress `json:"current_courses"`
	CompletedCourses  int              `json:"completed_courses"`
	TotalCredits      int              `json:"total_credits"`
	AverageAttendance float64          `json:"average_attendance"`
	RiskDistribution  map[string]int   `json:"risk_distribution"`
}
