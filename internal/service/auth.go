package service

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/thorplatform/payout-service/internal/errs"
	"golang.org/x/crypto/bcrypt"
)

// Login authenticates a user within a tenant and returns a JWT token
func (s *Service) Login(ctx context.Context, tenantID int64, email, password string) (string, error) {
	user, err := s.repo.FindUserByEmail(ctx, tenantID, email)
	if err != nil {
		return "", errs.Authorizationf("invalid credentials")
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", errs.Authorizationf("invalid credentials")
	}

	profile, err := s.repo.GetProfileByUserID(ctx, tenantID, user.ID)
	if err != nil {
		return "", err
	}

	// Generate JWT
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":        fmt.Sprintf("%d", user.ID),
		"tenant_id":  tenantID,
		"profile_id": profile.ID,
		"exp":        jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
	})
	tokenString, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	s.log.Infof("User logged in: %s", user.Email)
	return tokenString, nil
}
