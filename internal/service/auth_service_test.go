package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/pathfinder-edu/pathfinder-api/internal/models"
	appErrors "github.com/pathfinder-edu/pathfinder-api/pkg/errors"
)

// TokenService is the production implementation behind the consumer-side
// interface; keep the two in lockstep.
var _ tokenProvider = (*TokenService)(nil)

type mockStudentRepo struct {
	byEmail        *models.Student
	byStudentID    *models.Student
	findEmailErr   error
	findStudentErr error
	insertErr      error
	inserted       *models.Student
}

func (m *mockStudentRepo) FindByEmail(ctx context.Context, email string) (*models.Student, error) {
	if m.findEmailErr != nil {
		return nil, m.findEmailErr
	}
	return m.byEmail, nil
}

func (m *mockStudentRepo) FindByStudentID(ctx context.Context, studentID string) (*models.Student, error) {
	if m.findStudentErr != nil {
		return nil, m.findStudentErr
	}
	return m.byStudentID, nil
}

func (m *mockStudentRepo) Insert(ctx context.Context, s *models.Student) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.inserted = s
	return nil
}

func newAuthService(repo *mockStudentRepo) *AuthService {
	tokens := NewTokenService("test-secret", time.Hour)
	return NewAuthService(repo, tokens, validator.New(), zap.NewNop())
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("pw123456"), bcrypt.DefaultCost)
	repo := &mockStudentRepo{byEmail: &models.Student{
		ID:           "0c9e1c3a-5b67-43a1-8c11-67d53f1f9a01",
		Email:        "ada@x.com",
		PasswordHash: string(hash),
	}}
	svc := newAuthService(repo)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "ada@x.com", Password: "pw123456"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "ada@x.com", res.Student.Email)

	// The issued token resolves back to the stored student.
	claims, ok := svc.tokens.Validate(res.Token)
	require.True(t, ok)
	assert.Equal(t, repo.byEmail.ID, claims.UserID())
}

func TestAuthServiceLoginUnknownEmailAndWrongPasswordIndistinguishable(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("correct"), bcrypt.DefaultCost)

	unknown := newAuthService(&mockStudentRepo{})
	_, errUnknown := unknown.Login(context.Background(), models.LoginRequest{Email: "ghost@x.com", Password: "whatever"})

	wrongPw := newAuthService(&mockStudentRepo{byEmail: &models.Student{ID: "id", Email: "ada@x.com", PasswordHash: string(hash)}})
	_, errWrong := wrongPw.Login(context.Background(), models.LoginRequest{Email: "ada@x.com", Password: "incorrect"})

	require.Error(t, errUnknown)
	require.Error(t, errWrong)
	assert.Equal(t, appErrors.FromError(errUnknown).Code, appErrors.FromError(errWrong).Code)
	assert.Equal(t, appErrors.FromError(errUnknown).Message, appErrors.FromError(errWrong).Message)
}

func TestAuthServiceLoginInvalidPayload(t *testing.T) {
	svc := newAuthService(&mockStudentRepo{})

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "not-an-email", Password: "pw"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginStorageFailure(t *testing.T) {
	svc := newAuthService(&mockStudentRepo{findEmailErr: errors.New("timeout")})

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "ada@x.com", Password: "pw123456"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrStorage.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRegisterSuccessWithDefaults(t *testing.T) {
	repo := &mockStudentRepo{}
	svc := newAuthService(repo)

	res, err := svc.Register(context.Background(), models.RegisterRequest{
		StudentID: "S1",
		Name:      "Ada",
		Email:     "ada@x.com",
		Password:  "pw123456",
	})
	require.NoError(t, err)
	require.NotNil(t, repo.inserted)

	assert.NotEmpty(t, res.Token)
	assert.NotEmpty(t, repo.inserted.ID)
	assert.Equal(t, 0.0, repo.inserted.GPA)
	assert.Equal(t, 1, repo.inserted.Semester)
	assert.NotEmpty(t, repo.inserted.PasswordHash)
	assert.NotEqual(t, "pw123456", repo.inserted.PasswordHash)
	assert.False(t, repo.inserted.CreatedAt.IsZero())

	// Round trip: the stored hash verifies the original password.
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.inserted.PasswordHash), []byte("pw123456")))
}

func TestAuthServiceRegisterDuplicateEmail(t *testing.T) {
	repo := &mockStudentRepo{byEmail: &models.Student{ID: "existing", Email: "ada@x.com"}}
	svc := newAuthService(repo)

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		StudentID: "S2",
		Name:      "Other Ada",
		Email:     "ada@x.com",
		Password:  "pw123456",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrEmailTaken.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.inserted, "existing record must not be mutated")
}

func TestAuthServiceRegisterDuplicateStudentID(t *testing.T) {
	repo := &mockStudentRepo{byStudentID: &models.Student{ID: "existing", StudentID: "S1"}}
	svc := newAuthService(repo)

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		StudentID: "S1",
		Name:      "Ada",
		Email:     "new@x.com",
		Password:  "pw123456",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrStudentIDTaken.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.inserted)
}

func TestAuthServiceRegisterMissingFields(t *testing.T) {
	svc := newAuthService(&mockStudentRepo{})

	_, err := svc.Register(context.Background(), models.RegisterRequest{Email: "ada@x.com"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceVerifyBearer(t *testing.T) {
	repo := &mockStudentRepo{}
	svc := newAuthService(repo)

	token, err := svc.tokens.Generate("8e9f5a14-3a6c-4a01-8b2d-0f6f7e8d9c10", "ada@x.com")
	require.NoError(t, err)

	claims, err := svc.VerifyBearer("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, "8e9f5a14-3a6c-4a01-8b2d-0f6f7e8d9c10", claims.UserID())

	// Scheme matching is case-insensitive.
	_, err = svc.VerifyBearer("bearer " + token)
	assert.NoError(t, err)
}

func TestAuthServiceVerifyBearerFailures(t *testing.T) {
	svc := newAuthService(&mockStudentRepo{})

	_, err := svc.VerifyBearer("")
	assert.Equal(t, appErrors.ErrMissingToken.Code, appErrors.FromError(err).Code)

	_, err = svc.VerifyBearer("Basic abc123")
	assert.Equal(t, appErrors.ErrMissingToken.Code, appErrors.FromError(err).Code)

	_, err = svc.VerifyBearer("Bearer not-a-token")
	assert.Equal(t, appErrors.ErrInvalidToken.Code, appErrors.FromError(err).Code)
}
