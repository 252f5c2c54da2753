package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pathfinder-edu/pathfinder-api/internal/models"
	appErrors "github.com/pathfinder-edu/pathfinder-api/pkg/errors"
)

type fakeVerifier struct {
	claims *models.SessionClaims
	err    error
}

func (f *fakeVerifier) VerifyBearer(string) (*models.SessionClaims, error) {
	return f.claims, f.err
}

func TestJWTMiddlewareStoresClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	verifier := &fakeVerifier{claims: &models.SessionClaims{
		Email:            "ada@x.com",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "stu-1"},
	}}

	router := gin.New()
	router.Use(JWT(verifier))
	var seen *models.SessionClaims
	router.GET("/protected", func(c *gin.Context) {
		value, _ := c.Get(ContextUserKey)
		seen, _ = value.(*models.SessionClaims)
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer token")
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, "stu-1", seen.UserID())
}

func TestJWTMiddlewareRejectsInvalidToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	verifier := &fakeVerifier{err: appErrors.ErrInvalidToken}

	router := gin.New()
	router.Use(JWT(verifier))
	handlerRan := false
	router.GET("/protected", func(c *gin.Context) {
		handlerRan = true
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, handlerRan)
}
