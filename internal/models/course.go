package models

import "time"

// Course is immutable after creation. Prerequisites reference course codes,
// not ids.
type Course struct {
	ID            string    `json:"id"`
	CourseCode    string    `json:"course_code"`
	CourseName    string    `json:"course_name"`
	Credits       int       `json:"credits"`
	Difficulty    float64   `json:"difficulty"`
	Prerequisites []string  `json:"prerequisites"`
	Description   string    `json:"description"`
	CreatedAt     time.Time `json:"created_at"`
}
