package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/pathfinder-edu/pathfinder-api/internal/models"
	appErrors "github.com/pathfinder-edu/pathfinder-api/pkg/errors"
)

type authStudentRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.Student, error)
	FindByStudentID(ctx context.Context, studentID string) (*models.Student, error)
	Insert(ctx context.Context, s *models.Student) error
}

type tokenProvider interface {
	Generate(subjectID, email string) (string, error)
	Validate(raw string) (*models.SessionClaims, bool)
}

// AuthService implements login, registration and bearer-token verification.
type AuthService struct {
	repo      authStudentRepository
	tokens    tokenProvider
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(repo authStudentRepository, tokens tokenProvider, validate *validator.Validate, logger *zap.Logger) *AuthService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{repo: repo, tokens: tokens, validator: validate, logger: logger}
}

// Login authenticates a student by email and password. An unknown email and a
// wrong password are intentionally indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	student, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to fetch student")
	}
	if student == nil {
		s.logger.Warn("login for unknown email", zap.String("email", req.Email))
		return nil, appErrors.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(student.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Warn("login with wrong password", zap.String("email", req.Email))
		return nil, appErrors.ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(student.ID, student.Email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to issue token")
	}

	s.logger.Info("student logged in", zap.String("student", student.ID))
	return &models.AuthResponse{Token: token, Student: *student}, nil
}

// Register creates a student account and returns a freshly issued token
// alongside the created record. Email uniqueness is checked by lookup before
// insert; the store does not enforce it.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}

	existing, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to check email")
	}
	if existing != nil {
		return nil, appErrors.ErrEmailTaken
	}

	existing, err = s.repo.FindByStudentID(ctx, req.StudentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to check student id")
	}
	if existing != nil {
		return nil, appErrors.ErrStudentIDTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	semester := req.Semester
	if semester == 0 {
		semester = 1
	}

	now := time.Now().UTC()
	student := &models.Student{
		ID:           uuid.NewString(),
		StudentID:    req.StudentID,
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		GPA:          req.GPA,
		Semester:     semester,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Insert(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to create student")
	}

	token, err := s.tokens.Generate(student.ID, student.Email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to issue token")
	}

	s.logger.Info("student registered", zap.String("student", student.ID), zap.String("email", student.Email))
	return &models.AuthResponse{Token: token, Student: *student}, nil
}

// VerifyBearer validates a bearer-scheme Authorization header and returns the
// embedded claims.
func (s *AuthService) VerifyBearer(header string) (*models.SessionClaims, error) {
	if header == "" {
		return nil, appErrors.ErrMissingToken
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, appErrors.Clone(appErrors.ErrMissingToken, "invalid authorization header")
	}

	claims, ok := s.tokens.Validate(parts[1])
	if !ok {
		return nil, appErrors.ErrInvalidToken
	}
	return claims, nil
}
