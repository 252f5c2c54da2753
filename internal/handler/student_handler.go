package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pathfinder-edu/pathfinder-api/internal/models"
	appErrors "github.com/pathfinder-edu/pathfinder-api/pkg/errors"
	"github.com/pathfinder-edu/pathfinder-api/pkg/response"
)

type statsService interface {
	StudentStats(ctx context.Context, studentID string) (*models.StudentStats, error)
	CourseProgress(ctx context.Context, studentID string) ([]models.CourseProgress, error)
	StudentRisks(ctx context.Context, studentID string) ([]models.RiskPrediction, error)
}

type predictionService interface {
	Refresh(ctx context.Context, studentID string) ([]models.RiskPrediction, error)
}

// StudentHandler wires HTTP endpoints to the aggregation and prediction
// services. Every route sits behind the JWT middleware.
type StudentHandler struct {
	stats       statsService
	predictions predictionService
}

// NewStudentHandler creates a new handler.
func NewStudentHandler(stats statsService, predictions predictionService) *StudentHandler {
	return &StudentHandler{stats: stats, predictions: predictions}
}

// Stats returns the consolidated view for the student in the path.
func (h *StudentHandler) Stats(c *gin.Context) {
	id, ok := h.studentID(c)
	if !ok {
		return
	}

	stats, err := h.stats.StudentStats(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, stats)
}

// Me returns the consolidated view for the authenticated subject.
func (h *StudentHandler) Me(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	stats, err := h.stats.StudentStats(c.Request.Context(), claims.UserID())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, stats)
}

// Risks lists every stored risk prediction for the student.
func (h *StudentHandler) Risks(c *gin.Context) {
	id, ok := h.studentID(c)
	if !ok {
		return
	}

	risks, err := h.stats.StudentRisks(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, risks)
}

// Progress returns the current-course join for the student.
func (h *StudentHandler) Progress(c *gin.Context) {
	id, ok := h.studentID(c)
	if !ok {
		return
	}

	progress, err := h.stats.CourseProgress(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, progress)
}

// Predict recomputes and stores predictions for the student's current
// courses.
func (h *StudentHandler) Predict(c *gin.Context) {
	id, ok := h.studentID(c)
	if !ok {
		return
	}

	predictions, err := h.predictions.Refresh(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, predictions)
}

func (h *StudentHandler) studentID(c *gin.Context) (string, bool) {
	raw := c.Param("id")
	if _, err := uuid.Parse(raw); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrMalformedID, "student id must be a UUID"))
		return "", false
	}
	return raw, true
}
