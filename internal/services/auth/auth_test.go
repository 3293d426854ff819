package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	customjwt "github.com/magabrotheeeer/resume-builder/internal/lib/jwt"
	"github.com/magabrotheeeer/resume-builder/internal/lib/password"
	"github.com/magabrotheeeer/resume-builder/internal/models"
	"github.com/magabrotheeeer/resume-builder/internal/services/auth"
	"github.com/magabrotheeeer/resume-builder/internal/storage/repository"
)

// Мок для UserRepository
type UserRepoMock struct {
	mock.Mock
}

func (m *UserRepoMock) CreateUser(ctx context.Context, user models.User) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}

func (m *UserRepoMock) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func TestService_Register(t *testing.T) {
	tests := []struct {
		name       string
		email      string
		setupMocks func(r *UserRepoMock)
		wantID     string
		wantErr    error
	}{
		{
			name:  "successful registration",
			email: " Test@Example.com ",
			setupMocks: func(r *UserRepoMock) {
				r.On("CreateUser", mock.Anything, mock.MatchedBy(func(user models.User) bool {
					return user.Email == "test@example.com" &&
						user.FullName == "Test User" &&
						user.PasswordHash != "" &&
						user.PasswordHash != "password123" &&
						!user.EmailConfirmed
				})).Return("some-uuid-string", nil).Once()
			},
			wantID: "some-uuid-string",
		},
		{
			name:  "duplicate email",
			email: "test@example.com",
			setupMocks: func(r *UserRepoMock) {
				r.On("CreateUser", mock.Anything, mock.Anything).Return("", repository.ErrUserExists).Once()
			},
			wantErr: repository.ErrUserExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			tt.setupMocks(repo)
			svc := auth.NewService(repo, customjwt.NewJWTMaker("secret", time.Hour))

			id, err := svc.Register(context.Background(), tt.email, "Test User", "password123")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantID, id)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestService_Login(t *testing.T) {
	hash, err := password.GetHash("password123")
	require.NoError(t, err)
	user := &models.User{ID: "u1", Email: "test@example.com", PasswordHash: hash}

	tests := []struct {
		name       string
		password   string
		setupMocks func(r *UserRepoMock)
		wantErr    error
		anyErr     bool
	}{
		{
			name:     "successful login",
			password: "password123",
			setupMocks: func(r *UserRepoMock) {
				r.On("GetUserByEmail", mock.Anything, "test@example.com").Return(user, nil)
			},
		},
		{
			name:     "wrong password",
			password: "wrong",
			setupMocks: func(r *UserRepoMock) {
				r.On("GetUserByEmail", mock.Anything, "test@example.com").Return(user, nil)
			},
			wantErr: auth.ErrInvalidCredentials,
		},
		{
			name:     "unknown user",
			password: "password123",
			setupMocks: func(r *UserRepoMock) {
				r.On("GetUserByEmail", mock.Anything, "test@example.com").Return(nil, repository.ErrNotFound)
			},
			wantErr: auth.ErrInvalidCredentials,
		},
		{
			name:     "storage error",
			password: "password123",
			setupMocks: func(r *UserRepoMock) {
				r.On("GetUserByEmail", mock.Anything, "test@example.com").Return(nil, errors.New("db down"))
			},
			anyErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			tt.setupMocks(repo)
			maker := customjwt.NewJWTMaker("secret", time.Hour)
			svc := auth.NewService(repo, maker)

			token, err := svc.Login(context.Background(), "Test@example.com", tt.password)
			switch {
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
			case tt.anyErr:
				require.Error(t, err)
				assert.False(t, errors.Is(err, auth.ErrInvalidCredentials))
			default:
				require.NoError(t, err)
				validated, err := svc.ValidateToken(context.Background(), token)
				require.NoError(t, err)
				assert.Equal(t, "u1", validated.ID)
				assert.Equal(t, "test@example.com", validated.Email)
			}
		})
	}
}

func TestService_ValidateToken_Invalid(t *testing.T) {
	svc := auth.NewService(new(UserRepoMock), customjwt.NewJWTMaker("secret", time.Hour))
	_, err := svc.ValidateToken(context.Background(), "not-a-token")
	require.Error(t, err)

	other, err := customjwt.NewJWTMaker("other", time.Hour).GenerateToken("u1", "a@b.c")
	require.NoError(t, err)
	_, err = svc.ValidateToken(context.Background(), other)
	require.Error(t, err)
}
