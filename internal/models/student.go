package models

import "time"

// Student is the identity and credential root. Email uniqueness is enforced
// at the application layer (lookup before insert); the store does not
// guarantee it.
type Student struct {
	ID           string    `json:"id"`
	StudentID    string    `json:"student_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	GPA          float64   `json:"gpa"`
	Semester     int       `json:"semester"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
