package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"storefront/internal/auth"
	apperrors "storefront/internal/errors"
	"storefront/internal/mail"
	"storefront/internal/model"
	"storefront/internal/repository"
)

const bcryptCost = 10

// AuthService handles the authentication lifecycle: credentials, token
// issuance and rotation, and the password reset flow.
type AuthService interface {
	Register(ctx context.Context, username, name, email, password string) (accessToken, refreshToken string, user *model.User, err error)
	Login(ctx context.Context, username, password string) (accessToken, refreshToken string, user *model.User, err error)
	Logout(ctx context.Context, refreshToken string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) (accessToken, refreshToken string, user *model.User, err error)
	UpdatePassword(ctx context.Context, userID uint, currentPassword, newPassword string) error
	Refresh(ctx context.Context, refreshToken string) (accessToken string, err error)
}

type authService struct {
	userRepo      repository.UserRepository
	jwtService    *auth.JWTService
	mailer        mail.Mailer
	resetTokenTTL time.Duration
	publicBaseURL string
}

// NewAuthService creates a new authentication service.
func NewAuthService(userRepo repository.UserRepository, jwtService *auth.JWTService, mailer mail.Mailer, resetTokenTTL time.Duration, publicBaseURL string) AuthService {
	return &authService{
		userRepo:      userRepo,
		jwtService:    jwtService,
		mailer:        mailer,
		resetTokenTTL: resetTokenTTL,
		publicBaseURL: publicBaseURL,
	}
}

// Register creates a new user with the password hashed at write time and
// immediately issues a token pair.
func (s *authService) Register(ctx context.Context, username, name, email, password string) (string, string, *model.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", "", nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Username:     username,
		Name:         name,
		Email:        email,
		PasswordHash: string(hashedPassword),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if err == gorm.ErrDuplicatedKey {
			return "", "", nil, apperrors.ErrUserAlreadyExists
		}
		return "", "", nil, fmt.Errorf("create user: %w", err)
	}

	return s.issueTokens(ctx, user)
}

// Login verifies a username/password pair and issues a token pair. Unknown
// usernames and wrong passwords fail with the same error.
func (s *authService) Login(ctx context.Context, username, password string) (string, string, *model.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return "", "", nil, apperrors.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", "", nil, apperrors.ErrInvalidCredentials
	}

	return s.issueTokens(ctx, user)
}

// Logout clears the stored refresh token for whichever user holds the given
// one. An unknown token is not an error; logout always succeeds.
func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	user, err := s.userRepo.FindByRefreshToken(ctx, refreshToken)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		return fmt.Errorf("find user by refresh token: %w", err)
	}

	if err := s.userRepo.UpdateRefreshToken(ctx, user.ID, nil); err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}
	return nil
}

// ForgotPassword generates a reset token, stores only its digest plus an
// expiry, and emails the plaintext. If the email cannot be sent the stored
// digest is rolled back: a reset token must never survive an unnotified user.
func (s *authService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return apperrors.ErrEmailNotFound
		}
		return fmt.Errorf("find user by email: %w", err)
	}

	token, digest, err := auth.GenerateResetToken()
	if err != nil {
		return err
	}

	expiresAt := time.Now().Add(s.resetTokenTTL)
	if err := s.userRepo.UpdateResetToken(ctx, user.ID, &digest, &expiresAt); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	resetURL := fmt.Sprintf("%s/api/auth/reset/%s", s.publicBaseURL, token)
	if err := s.mailer.SendPasswordReset(ctx, user.Email, resetURL); err != nil {
		if rbErr := s.userRepo.UpdateResetToken(ctx, user.ID, nil, nil); rbErr != nil {
			return fmt.Errorf("roll back reset token after mail failure: %w", rbErr)
		}
		return apperrors.ErrEmailSendFailed
	}

	return nil
}

// ResetPassword validates a plaintext reset token against the stored digest
// and expiry, sets the new password and issues a token pair. Clearing the
// reset columns makes the token single-use.
func (s *authService) ResetPassword(ctx context.Context, token, newPassword string) (string, string, *model.User, error) {
	digest := auth.HashResetToken(token)
	user, err := s.userRepo.FindByLiveResetToken(ctx, digest, time.Now())
	if err != nil {
		// wrong token and expired token are indistinguishable here
		return "", "", nil, apperrors.ErrResetTokenInvalid
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return "", "", nil, fmt.Errorf("hash password: %w", err)
	}

	user.PasswordHash = string(hashedPassword)
	user.ResetTokenHash = nil
	user.ResetTokenExpiresAt = nil
	if err := s.userRepo.Update(ctx, user); err != nil {
		return "", "", nil, fmt.Errorf("update user: %w", err)
	}

	return s.issueTokens(ctx, user)
}

// UpdatePassword re-verifies the current password and replaces it. Tokens are
// not re-issued.
func (s *authService) UpdatePassword(ctx context.Context, userID uint, currentPassword, newPassword string) error {
	if currentPassword == newPassword {
		return apperrors.ErrSamePassword
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return apperrors.ErrIncorrectPassword
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user.PasswordHash = string(hashedPassword)
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

// Refresh validates a refresh token against both the persisted state and its
// signature, then issues a new access token only. Every failure mode returns
// the same error.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	user, err := s.userRepo.FindByRefreshToken(ctx, refreshToken)
	if err != nil {
		return "", apperrors.ErrAccessExpired
	}

	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return "", apperrors.ErrAccessExpired
	}

	// A valid signature is not enough: the signed subject must be the user
	// the stored token belongs to.
	if claims.Subject != strconv.FormatUint(uint64(user.ID), 10) {
		return "", apperrors.ErrAccessExpired
	}

	accessToken, err := s.jwtService.GenerateAccessToken(user.ID)
	if err != nil {
		return "", fmt.Errorf("generate access token: %w", err)
	}
	return accessToken, nil
}

// issueTokens generates an access/refresh pair and persists the refresh token
// on the user record, overwriting any prior value.
func (s *authService) issueTokens(ctx context.Context, user *model.User) (string, string, *model.User, error) {
	accessToken, err := s.jwtService.GenerateAccessToken(user.ID)
	if err != nil {
		return "", "", nil, fmt.Errorf("generate access token: %w", err)
	}

	refreshToken, err := s.jwtService.GenerateRefreshToken(user.ID)
	if err != nil {
		return "", "", nil, fmt.Errorf("generate refresh token: %w", err)
	}

	if err := s.userRepo.UpdateRefreshToken(ctx, user.ID, &refreshToken); err != nil {
		return "", "", nil, fmt.Errorf("store refresh token: %w", err)
	}
	user.RefreshToken = &refreshToken

	return accessToken, refreshToken, user, nil
}
