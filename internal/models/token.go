package models

import "github.com/golang-jwt/jwt/v5"

// SessionClaims are embedded in the signed bearer token and never persisted
// server-side. The subject is the student's UUID.
type SessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// UserID returns the token subject.
func (c *SessionClaims) UserID() string {
	return c.Subject
}
