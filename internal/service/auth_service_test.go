package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"storefront/internal/auth"
	apperrors "storefront/internal/errors"
	"storefront/internal/model"
)

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByRefreshToken(ctx context.Context, token string) (*model.User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByLiveResetToken(ctx context.Context, digest string, now time.Time) (*model.User, error) {
	args := m.Called(ctx, digest, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) UpdateRefreshToken(ctx context.Context, id uint, token *string) error {
	args := m.Called(ctx, id, token)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateResetToken(ctx context.Context, id uint, digest *string, expiresAt *time.Time) error {
	args := m.Called(ctx, id, digest, expiresAt)
	return args.Error(0)
}

// MockMailer is a mock implementation of mail.Mailer.
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendPasswordReset(ctx context.Context, to, resetURL string) error {
	args := m.Called(ctx, to, resetURL)
	return args.Error(0)
}

const testBaseURL = "http://localhost:8080"

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
}

func newTestService(repo *MockUserRepository, mailer *MockMailer, jwtService *auth.JWTService) AuthService {
	if jwtService == nil {
		jwtService = newTestJWTService()
	}
	return NewAuthService(repo, jwtService, mailer, 10*time.Minute, testBaseURL)
}

func TestAuthService_Register(t *testing.T) {
	tests := []struct {
		name          string
		username      string
		password      string
		setupMock     func(*MockUserRepository)
		expectedError error
	}{
		{
			name:     "successful registration",
			username: "alice",
			password: "password123",
			setupMock: func(m *MockUserRepository) {
				m.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
				m.On("UpdateRefreshToken", mock.Anything, mock.Anything, mock.MatchedBy(func(t *string) bool { return t != nil })).Return(nil)
			},
			expectedError: nil,
		},
		{
			name:     "duplicate username or email",
			username: "alice",
			password: "password123",
			setupMock: func(m *MockUserRepository) {
				m.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(gorm.ErrDuplicatedKey)
			},
			expectedError: apperrors.ErrUserAlreadyExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			tt.setupMock(mockRepo)

			svc := newTestService(mockRepo, new(MockMailer), nil)
			accessToken, refreshToken, user, err := svc.Register(context.Background(), tt.username, "Alice", "a@x.com", tt.password)

			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.Equal(t, tt.expectedError, err)
				assert.Nil(t, user)
			} else {
				assert.NoError(t, err)
				assert.NotEmpty(t, accessToken)
				assert.NotEmpty(t, refreshToken)
				assert.NotNil(t, user)
				// the stored password is never the submitted plaintext
				assert.NotEqual(t, tt.password, user.PasswordHash)
				assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(tt.password)))
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), 10)

	tests := []struct {
		name          string
		username      string
		password      string
		setupMock     func(*MockUserRepository)
		expectedError error
	}{
		{
			name:     "successful login",
			username: "alice",
			password: "password123",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByUsername", mock.Anything, "alice").Return(&model.User{
					ID:           1,
					Username:     "alice",
					PasswordHash: string(hashedPassword),
				}, nil)
				m.On("UpdateRefreshToken", mock.Anything, uint(1), mock.MatchedBy(func(t *string) bool { return t != nil })).Return(nil)
			},
			expectedError: nil,
		},
		{
			name:     "unknown username",
			username: "nobody",
			password: "password123",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByUsername", mock.Anything, "nobody").Return(nil, gorm.ErrRecordNotFound)
			},
			expectedError: apperrors.ErrInvalidCredentials,
		},
		{
			name:     "wrong password",
			username: "alice",
			password: "wrongpw",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByUsername", mock.Anything, "alice").Return(&model.User{
					ID:           1,
					Username:     "alice",
					PasswordHash: string(hashedPassword),
				}, nil)
			},
			expectedError: apperrors.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			tt.setupMock(mockRepo)

			svc := newTestService(mockRepo, new(MockMailer), nil)
			accessToken, refreshToken, user, err := svc.Login(context.Background(), tt.username, tt.password)

			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.Equal(t, tt.expectedError, err)
				assert.Empty(t, accessToken)
				assert.Empty(t, refreshToken)
				assert.Nil(t, user)
			} else {
				assert.NoError(t, err)
				assert.NotEmpty(t, accessToken)
				assert.NotEmpty(t, refreshToken)
				assert.NotNil(t, user)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestAuthService_Login_IdenticalErrorForBothCauses(t *testing.T) {
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), 10)

	unknownRepo := new(MockUserRepository)
	unknownRepo.On("FindByUsername", mock.Anything, "ghost").Return(nil, gorm.ErrRecordNotFound)

	wrongPwRepo := new(MockUserRepository)
	wrongPwRepo.On("FindByUsername", mock.Anything, "alice").Return(&model.User{
		ID: 1, Username: "alice", PasswordHash: string(hashedPassword),
	}, nil)

	_, _, _, errUnknown := newTestService(unknownRepo, new(MockMailer), nil).Login(context.Background(), "ghost", "whatever")
	_, _, _, errWrongPw := newTestService(wrongPwRepo, new(MockMailer), nil).Login(context.Background(), "alice", "wrongpw")

	// an attacker cannot distinguish unknown users from wrong passwords
	assert.Equal(t, errUnknown, errWrongPw)
	assert.Equal(t, apperrors.ErrInvalidCredentials, errUnknown)
}

func TestAuthService_Logout(t *testing.T) {
	tests := []struct {
		name          string
		token         string
		setupMock     func(*MockUserRepository)
		expectedError error
	}{
		{
			name:  "clears stored refresh token",
			token: "some-refresh-token",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByRefreshToken", mock.Anything, "some-refresh-token").Return(&model.User{ID: 7}, nil)
				m.On("UpdateRefreshToken", mock.Anything, uint(7), (*string)(nil)).Return(nil)
			},
			expectedError: nil,
		},
		{
			name:  "no matching user is not an error",
			token: "stale-token",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByRefreshToken", mock.Anything, "stale-token").Return(nil, gorm.ErrRecordNotFound)
			},
			expectedError: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			tt.setupMock(mockRepo)

			svc := newTestService(mockRepo, new(MockMailer), nil)
			err := svc.Logout(context.Background(), tt.token)

			assert.NoError(t, err)
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestAuthService_ForgotPassword(t *testing.T) {
	t.Run("stores digest and mails the plaintext token", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockMailer := new(MockMailer)

		var storedDigest string
		var storedExpiry time.Time
		mockRepo.On("FindByEmail", mock.Anything, "a@x.com").Return(&model.User{ID: 1, Email: "a@x.com"}, nil)
		mockRepo.On("UpdateResetToken", mock.Anything, uint(1),
			mock.MatchedBy(func(d *string) bool { return d != nil }),
			mock.MatchedBy(func(e *time.Time) bool { return e != nil })).
			Run(func(args mock.Arguments) {
				storedDigest = *args.Get(2).(*string)
				storedExpiry = *args.Get(3).(*time.Time)
			}).Return(nil)

		var sentURL string
		mockMailer.On("SendPasswordReset", mock.Anything, "a@x.com", mock.AnythingOfType("string")).
			Run(func(args mock.Arguments) {
				sentURL = args.String(2)
			}).Return(nil)

		svc := newTestService(mockRepo, mockMailer, nil)
		err := svc.ForgotPassword(context.Background(), "a@x.com")

		assert.NoError(t, err)
		assert.True(t, storedExpiry.After(time.Now()))

		// only the digest is stored; the mail carries the plaintext
		plaintext := strings.TrimPrefix(sentURL, testBaseURL+"/api/auth/reset/")
		assert.NotEqual(t, plaintext, storedDigest)
		assert.Equal(t, auth.HashResetToken(plaintext), storedDigest)

		mockRepo.AssertExpectations(t)
		mockMailer.AssertExpectations(t)
	})

	t.Run("unknown email", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockRepo.On("FindByEmail", mock.Anything, "nobody@x.com").Return(nil, gorm.ErrRecordNotFound)

		svc := newTestService(mockRepo, new(MockMailer), nil)
		err := svc.ForgotPassword(context.Background(), "nobody@x.com")

		assert.Equal(t, apperrors.ErrEmailNotFound, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("rolls back the stored token on mail failure", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockMailer := new(MockMailer)

		mockRepo.On("FindByEmail", mock.Anything, "a@x.com").Return(&model.User{ID: 1, Email: "a@x.com"}, nil)
		mockRepo.On("UpdateResetToken", mock.Anything, uint(1),
			mock.MatchedBy(func(d *string) bool { return d != nil }),
			mock.MatchedBy(func(e *time.Time) bool { return e != nil })).Return(nil)
		mockMailer.On("SendPasswordReset", mock.Anything, "a@x.com", mock.AnythingOfType("string")).
			Return(errors.New("smtp unreachable"))
		// the digest must not survive an unnotified user
		mockRepo.On("UpdateResetToken", mock.Anything, uint(1), (*string)(nil), (*time.Time)(nil)).Return(nil)

		svc := newTestService(mockRepo, mockMailer, nil)
		err := svc.ForgotPassword(context.Background(), "a@x.com")

		assert.Equal(t, apperrors.ErrEmailSendFailed, err)
		mockRepo.AssertExpectations(t)
		mockMailer.AssertExpectations(t)
	})
}

func TestAuthService_ResetPassword(t *testing.T) {
	t.Run("successful reset clears the token and re-hashes the password", func(t *testing.T) {
		token, digest, err := auth.GenerateResetToken()
		assert.NoError(t, err)

		oldHash, _ := bcrypt.GenerateFromPassword([]byte("pw1"), 10)
		expiry := time.Now().Add(5 * time.Minute)
		user := &model.User{
			ID:                  1,
			Username:            "alice",
			PasswordHash:        string(oldHash),
			ResetTokenHash:      &digest,
			ResetTokenExpiresAt: &expiry,
		}

		mockRepo := new(MockUserRepository)
		mockRepo.On("FindByLiveResetToken", mock.Anything, digest, mock.AnythingOfType("time.Time")).Return(user, nil)
		mockRepo.On("Update", mock.Anything, user).Return(nil)
		mockRepo.On("UpdateRefreshToken", mock.Anything, uint(1), mock.MatchedBy(func(t *string) bool { return t != nil })).Return(nil)

		svc := newTestService(mockRepo, new(MockMailer), nil)
		accessToken, refreshToken, returned, err := svc.ResetPassword(context.Background(), token, "pw2")

		assert.NoError(t, err)
		assert.NotEmpty(t, accessToken)
		assert.NotEmpty(t, refreshToken)
		assert.NotNil(t, returned)
		assert.Nil(t, user.ResetTokenHash)
		assert.Nil(t, user.ResetTokenExpiresAt)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("pw2")))
		assert.Error(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("pw1")))

		mockRepo.AssertExpectations(t)
	})

	t.Run("wrong or expired token fails identically", func(t *testing.T) {
		// the repository query matches digest AND live expiry together, so a
		// consumed, wrong, or expired token all surface as record-not-found
		mockRepo := new(MockUserRepository)
		mockRepo.On("FindByLiveResetToken", mock.Anything, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).
			Return(nil, gorm.ErrRecordNotFound)

		svc := newTestService(mockRepo, new(MockMailer), nil)
		_, _, _, err := svc.ResetPassword(context.Background(), "bogus-token", "pw2")

		assert.Equal(t, apperrors.ErrResetTokenInvalid, err)
		mockRepo.AssertExpectations(t)
	})
}

func TestAuthService_UpdatePassword(t *testing.T) {
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("current-pw"), 10)

	tests := []struct {
		name            string
		currentPassword string
		newPassword     string
		setupMock       func(*MockUserRepository)
		expectedError   error
	}{
		{
			name:            "successful update",
			currentPassword: "current-pw",
			newPassword:     "brand-new-pw",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByID", mock.Anything, uint(1)).Return(&model.User{ID: 1, PasswordHash: string(hashedPassword)}, nil)
				m.On("Update", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
			},
			expectedError: nil,
		},
		{
			name:            "same password rejected",
			currentPassword: "current-pw",
			newPassword:     "current-pw",
			setupMock:       func(m *MockUserRepository) {},
			expectedError:   apperrors.ErrSamePassword,
		},
		{
			name:            "incorrect current password",
			currentPassword: "not-my-password",
			newPassword:     "brand-new-pw",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByID", mock.Anything, uint(1)).Return(&model.User{ID: 1, PasswordHash: string(hashedPassword)}, nil)
			},
			expectedError: apperrors.ErrIncorrectPassword,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			tt.setupMock(mockRepo)

			svc := newTestService(mockRepo, new(MockMailer), nil)
			err := svc.UpdatePassword(context.Background(), 1, tt.currentPassword, tt.newPassword)

			if tt.expectedError != nil {
				assert.Equal(t, tt.expectedError, err)
			} else {
				assert.NoError(t, err)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestAuthService_Refresh(t *testing.T) {
	jwtService := newTestJWTService()

	t.Run("issues a new access token", func(t *testing.T) {
		refreshToken, err := jwtService.GenerateRefreshToken(1)
		assert.NoError(t, err)

		mockRepo := new(MockUserRepository)
		mockRepo.On("FindByRefreshToken", mock.Anything, refreshToken).Return(&model.User{ID: 1, RefreshToken: &refreshToken}, nil)

		svc := newTestService(mockRepo, new(MockMailer), jwtService)
		accessToken, err := svc.Refresh(context.Background(), refreshToken)

		assert.NoError(t, err)
		assert.NotEmpty(t, accessToken)
		// the refresh token itself is never rotated here
		mockRepo.AssertNotCalled(t, "UpdateRefreshToken", mock.Anything, mock.Anything, mock.Anything)
		mockRepo.AssertExpectations(t)
	})

	t.Run("unknown stored token", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockRepo.On("FindByRefreshToken", mock.Anything, "unknown").Return(nil, gorm.ErrRecordNotFound)

		svc := newTestService(mockRepo, new(MockMailer), jwtService)
		_, err := svc.Refresh(context.Background(), "unknown")

		assert.Equal(t, apperrors.ErrAccessExpired, err)
	})

	t.Run("valid signature but wrong subject", func(t *testing.T) {
		// token signed for user 2 but stored on user 1, simulating reuse
		// across accounts
		refreshToken, err := jwtService.GenerateRefreshToken(2)
		assert.NoError(t, err)

		mockRepo := new(MockUserRepository)
		mockRepo.On("FindByRefreshToken", mock.Anything, refreshToken).Return(&model.User{ID: 1, RefreshToken: &refreshToken}, nil)

		svc := newTestService(mockRepo, new(MockMailer), jwtService)
		_, err = svc.Refresh(context.Background(), refreshToken)

		assert.Equal(t, apperrors.ErrAccessExpired, err)
	})

	t.Run("expired refresh token", func(t *testing.T) {
		expiredJWT := auth.NewJWTService("access-secret", "refresh-secret", 15*time.Minute, -time.Minute)
		refreshToken, err := expiredJWT.GenerateRefreshToken(1)
		assert.NoError(t, err)

		mockRepo := new(MockUserRepository)
		mockRepo.On("FindByRefreshToken", mock.Anything, refreshToken).Return(&model.User{ID: 1, RefreshToken: &refreshToken}, nil)

		svc := newTestService(mockRepo, new(MockMailer), expiredJWT)
		_, err = svc.Refresh(context.Background(), refreshToken)

		assert.Equal(t, apperrors.ErrAccessExpired, err)
	})
}
