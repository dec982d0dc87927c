// file: service/token_service.go

package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"go-identity-api/logger"
	"go-identity-api/model"
	"go-identity-api/repository"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidSignature      = errors.New("access token signature or signing algorithm is invalid")
	ErrTokenValidationFailed = errors.New("access token could not be validated")
	ErrTokenNotYetExpired    = errors.New("access token has not yet expired")
	ErrRefreshTokenNotFound  = errors.New("refresh token does not exist")
	ErrRefreshTokenUsed      = errors.New("refresh token has already been used")
	ErrRefreshTokenRevoked   = errors.New("refresh token has been revoked")
	ErrTokenMismatch         = errors.New("refresh token does not belong to the access token")
	ErrUserNotFound          = errors.New("user not found")
	ErrPersistence           = errors.New("token store unavailable")
)

// refreshTokenLength is the number of random characters in a refresh token
// value before the unique suffix is appended.
const refreshTokenLength = 35

// ClaimsBuilder aggregates the claim set that goes into an access token.
type ClaimsBuilder interface {
	BuildClaims(ctx context.Context, user *model.User) (*model.AppClaims, error)
}

// TokenConfig carries the signing secret and the expiry policy. The secret
// is injected here once at construction and never read from global state.
type TokenConfig struct {
	SecretKey       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	Issuer          string
}

// TokenService owns access-token issuance and the refresh protocol.
// Every access token is issued together with a persisted refresh-token
// record; the record is single-use and the pair is bound through the jti.
type TokenService struct {
	tokenRepo repository.ITokenRepository
	userRepo  repository.IUserRepository
	claims    ClaimsBuilder

	secretKey       []byte
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
	issuer          string
}

// NewTokenService creates a new TokenService.
func NewTokenService(tokenRepo repository.ITokenRepository, userRepo repository.IUserRepository, claims ClaimsBuilder, cfg TokenConfig) *TokenService {
	return &TokenService{
		tokenRepo:       tokenRepo,
		userRepo:        userRepo,
		claims:          claims,
		secretKey:       []byte(cfg.SecretKey),
		accessTokenTTL:  cfg.AccessTokenTTL,
		refreshTokenTTL: cfg.RefreshTokenTTL,
		issuer:          cfg.Issuer,
	}
}

// IssueToken aggregates the user's claims, signs a short-lived access token
// and persists the paired refresh-token record. Issuance is all-or-nothing:
// if the record cannot be stored, no access token is returned.
func (s *TokenService) IssueToken(ctx context.Context, user *model.User) (*model.TokenPair, error) {
	claims, err := s.claims.BuildClaims(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("could not aggregate claims: %w", err)
	}

	now := time.Now().UTC()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.accessTokenTTL))
	claims.Issuer = s.issuer

	jwtToken := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	accessToken, err := jwtToken.SignedString(s.secretKey)
	if err != nil {
		logger.Log.WithError(err).WithField("user_id", user.ID).Error("Failed to sign access token")
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	refreshValue, err := randomTokenValue()
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	record := &model.RefreshToken{
		JwtID:      claims.ID,
		Token:      refreshValue,
		UserID:     user.ID,
		IsUsed:     false,
		IsRevoked:  false,
		ExpiryDate: now.Add(s.refreshTokenTTL),
	}
	if err := s.tokenRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("%w: storing refresh token: %v", ErrPersistence, err)
	}

	logger.Log.WithFields(logrus.Fields{
		"user_id": user.ID,
		"jwt_id":  claims.ID,
	}).Info("Issued new token pair")

	return &model.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: record.Token,
	}, nil
}

// Refresh exchanges an expired access token plus its refresh token for a new
// pair. The checks run in a fixed order and the first failure wins. The
// stored record is marked used before the replacement pair is issued, so a
// refresh token can succeed at most once even under concurrent requests; if
// issuance fails after that point the caller has to log in again.
func (s *TokenService) Refresh(ctx context.Context, accessToken, refreshValue string) (*model.TokenPair, error) {
	claims, err := s.parseExpiredToken(accessToken)
	if err != nil {
		return nil, err
	}

	// The refresh endpoint is only the path taken after the access token has
	// lapsed. A token whose expiry is still in the future cannot be traded in
	// early to extend a live session.
	if claims.ExpiresAt == nil || claims.ID == "" {
		return nil, ErrTokenValidationFailed
	}
	if claims.ExpiresAt.After(time.Now().UTC()) {
		return nil, ErrTokenNotYetExpired
	}

	record, err := s.tokenRepo.GetByToken(ctx, refreshValue)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRefreshTokenNotFound
		}
		return nil, fmt.Errorf("%w: looking up refresh token: %v", ErrPersistence, err)
	}

	if record.IsUsed {
		return nil, ErrRefreshTokenUsed
	}
	if record.IsRevoked {
		return nil, ErrRefreshTokenRevoked
	}
	if record.JwtID != claims.ID {
		return nil, ErrTokenMismatch
	}

	// Consume the record before issuing anything. The conditional update
	// succeeds for exactly one concurrent caller; everyone else sees the
	// token as already used.
	won, err := s.tokenRepo.MarkUsed(ctx, record.Token)
	if err != nil {
		return nil, fmt.Errorf("%w: consuming refresh token: %v", ErrPersistence, err)
	}
	if !won {
		return nil, ErrRefreshTokenUsed
	}

	// Roles and claims may have changed since the original issuance, so the
	// user is re-resolved and the claim set rebuilt from scratch.
	user, err := s.userRepo.GetUserByID(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: resolving user: %v", ErrPersistence, err)
	}

	return s.IssueToken(ctx, user)
}

// Revoke invalidates the active refresh-token record bound to the given jti.
func (s *TokenService) Revoke(ctx context.Context, jwtID string) error {
	revoked, err := s.tokenRepo.RevokeByJwtID(ctx, jwtID)
	if err != nil {
		return fmt.Errorf("%w: revoking refresh token: %v", ErrPersistence, err)
	}
	if !revoked {
		return ErrRefreshTokenNotFound
	}
	logger.Log.WithField("jwt_id", jwtID).Warn("Refresh token revoked")
	return nil
}

// ParseAccessToken verifies a live access token (signature, algorithm and
// expiry) and returns its typed claims. Used by the authentication
// middleware on every request.
func (s *TokenService) ParseAccessToken(tokenString string) (*model.AppClaims, error) {
	claims := &model.AppClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, s.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, ErrTokenValidationFailed
	}
	return claims, nil
}

// parseExpiredToken verifies structure, signature and algorithm but skips
// claim validation, because the refresh flow expects the expiry to be in the
// past. Parse failures are normalized and never leaked raw.
func (s *TokenService) parseExpiredToken(tokenString string) (*model.AppClaims, error) {
	claims := &model.AppClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, s.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return nil, ErrTokenValidationFailed
		}
		return nil, ErrInvalidSignature
	}
	return claims, nil
}

func (s *TokenService) keyFunc(token *jwt.Token) (interface{}, error) {
	return s.secretKey, nil
}

// randomTokenValue builds an opaque refresh-token value: a fixed-length
// crypto-random prefix plus a UUID suffix to rule out collisions.
func randomTokenValue() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	prefix := base64.RawURLEncoding.EncodeToString(buf)[:refreshTokenLength]
	return prefix + uuid.NewString(), nil
}
