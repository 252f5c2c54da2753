package models

// LoginRequest carries user credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest carries the fields required to create a student account.
// GPA defaults to 0.0 and Semester to 1 when absent.
type RegisterRequest struct {
	StudentID string  `json:"student_id" validate:"required"`
	Name      string  `json:"name" validate:"required"`
	Email     string  `json:"email" validate:"required,email"`
	Password  string  `json:"password" validate:"required,min=6"`
	GPA       float64 `json:"gpa" validate:"gte=0,lte=4"`
	Semester  int     `json:"semester" validate:"gte=0"`
}

// AuthResponse is returned by login and register. The student record never
// carries the password hash.
type AuthResponse struct {
	Token   string  `json:"token"`
	Student Student `json:"student"`
}
