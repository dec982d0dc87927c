// service/token_service_test.go
package service

import (
	"context"
	"database/sql"
	"errors"
	"go-identity-api/model"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-signing"

func testUser() *model.User {
	return &model.User{
		ID:       "6e3c1d7a-2f24-4c4f-bb1e-9a60f2e3ab01",
		Username: "alice",
		Email:    "alice@example.com",
	}
}

// newTestTokenService wires a TokenService against the given repos with a
// real ClaimsService on top of empty user claims and roles.
func newTestTokenService(tokenRepo *mockTokenRepo, userRepo *mockUserRepo, accessTTL time.Duration) *TokenService {
	claimsService := NewClaimsService(userRepo, &mockRoleRepo{})
	return NewTokenService(tokenRepo, userRepo, claimsService, TokenConfig{
		SecretKey:       testSecret,
		AccessTokenTTL:  accessTTL,
		RefreshTokenTTL: 24 * time.Hour,
		Issuer:          "go-identity-api-test",
	})
}

func expectEmptyClaims(userRepo *mockUserRepo, userID string) {
	userRepo.On("GetUserClaims", mock.Anything, userID).Return([]model.ClaimEntry{}, nil)
	userRepo.On("GetUserRoles", mock.Anything, userID).Return([]string{}, nil)
}

func TestTokenService_IssueToken(t *testing.T) {
	t.Run("issues a signed pair and stores the record", func(t *testing.T) {
		tokenRepo := new(mockTokenRepo)
		userRepo := new(mockUserRepo)
		user := testUser()
		expectEmptyClaims(userRepo, user.ID)

		var stored *model.RefreshToken
		tokenRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.RefreshToken")).
			Run(func(args mock.Arguments) {
				stored = args.Get(1).(*model.RefreshToken)
			}).Return(nil).Once()

		svc := newTestTokenService(tokenRepo, userRepo, 5*time.Minute)
		pair, err := svc.IssueToken(context.Background(), user)

		require.NoError(t, err)
		require.NotNil(t, pair)
		assert.NotEmpty(t, pair.AccessToken)
		assert.NotEmpty(t, pair.RefreshToken)

		// The stored record must be bound to the access token's jti.
		claims, err := svc.ParseAccessToken(pair.AccessToken)
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, claims.ID, stored.JwtID)
		assert.Equal(t, user.ID, stored.UserID)
		assert.False(t, stored.IsUsed)
		assert.False(t, stored.IsRevoked)
		assert.Equal(t, pair.RefreshToken, stored.Token)
		tokenRepo.AssertExpectations(t)
	})

	t.Run("access token carries identity and registered claims", func(t *testing.T) {
		tokenRepo := new(mockTokenRepo)
		userRepo := new(mockUserRepo)
		user := testUser()
		user.FirstName = "Alice"
		user.LastName = "Cooper"
		expectEmptyClaims(userRepo, user.ID)
		tokenRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

		svc := newTestTokenService(tokenRepo, userRepo, 5*time.Minute)
		pair, err := svc.IssueToken(context.Background(), user)
		require.NoError(t, err)

		claims, err := svc.ParseAccessToken(pair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, user.ID, claims.UserID)
		assert.Equal(t, user.ID, claims.Subject)
		assert.Equal(t, user.Email, claims.Email)
		assert.Equal(t, "Alice Cooper", claims.DisplayName)
		assert.Equal(t, "go-identity-api-test", claims.Issuer)
		assert.NotEmpty(t, claims.ID)
		require.NotNil(t, claims.ExpiresAt)
		assert.WithinDuration(t, time.Now().Add(5*time.Minute), claims.ExpiresAt.Time, 10*time.Second)
	})

	t.Run("no access token when the record cannot be stored", func(t *testing.T) {
		tokenRepo := new(mockTokenRepo)
		userRepo := new(mockUserRepo)
		user := testUser()
		expectEmptyClaims(userRepo, user.ID)
		tokenRepo.On("Create", mock.Anything, mock.Anything).Return(errors.New("connection refused")).Once()

		svc := newTestTokenService(tokenRepo, userRepo, 5*time.Minute)
		pair, err := svc.IssueToken(context.Background(), user)

		assert.Nil(t, pair)
		assert.ErrorIs(t, err, ErrPersistence)
	})

	t.Run("two issuances never share a jti or refresh value", func(t *testing.T) {
		tokenRepo := new(mockTokenRepo)
		userRepo := new(mockUserRepo)
		user := testUser()
		expectEmptyClaims(userRepo, user.ID)
		tokenRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

		svc := newTestTokenService(tokenRepo, userRepo, 5*time.Minute)
		first, err := svc.IssueToken(context.Background(), user)
		require.NoError(t, err)
		second, err := svc.IssueToken(context.Background(), user)
		require.NoError(t, err)

		assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
		firstClaims, _ := svc.ParseAccessToken(first.AccessToken)
		secondClaims, _ := svc.ParseAccessToken(second.AccessToken)
		assert.NotEqual(t, firstClaims.ID, secondClaims.ID)
	})
}

// issueExpiredPair issues a pair whose access token is already expired, so
// the refresh flow accepts it.
func issueExpiredPair(t *testing.T, svc *TokenService, user *model.User) (*model.TokenPair, *model.RefreshToken) {
	t.Helper()
	var stored *model.RefreshToken
	tokenRepo := svc.tokenRepo.(*mockTokenRepo)
	tokenRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.RefreshToken")).
		Run(func(args mock.Arguments) {
			stored = args.Get(1).(*model.RefreshToken)
		}).Return(nil)
	pair, err := svc.IssueToken(context.Background(), user)
	require.NoError(t, err)
	require.NotNil(t, stored)
	return pair, stored
}

func TestTokenService_Refresh(t *testing.T) {
	user := testUser()

	t.Run("rejects a token that has not expired yet", func(t *testing.T) {
		tokenRepo := new(mockTokenRepo)
		userRepo := new(mockUserRepo)
		expectEmptyClaims(userRepo, user.ID)
		tokenRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

		svc := newTestTokenService(tokenRepo, userRepo, 5*time.Minute)
		pair, err := svc.IssueToken(context.Background(), user)
		require.NoError(t, err)

		result, err := svc.Refresh(context.Background(), pair.AccessToken, pair.RefreshToken)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, ErrTokenNotYetExpired)
		tokenRepo.AssertNotCalled(t, "GetByToken")
	})

	t.Run("rejects garbage instead of a token", func(t *testing.T) {
		svc := newTestTokenService(new(mockTokenRepo), new(mockUserRepo), 5*time.Minute)
		_, err := svc.Refresh(context.Background(), "not-a-jwt", "whatever")
		assert.ErrorIs(t, err, ErrTokenValidationFailed)
	})

	t.Run("rejects a token signed with another key", func(t *testing.T) {
		foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			ID:        "some-jti",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		})
		signed, err := foreign.SignedString([]byte("a-different-secret"))
		require.NoError(t, err)

		svc := newTestTokenService(new(mockTokenRepo), new(mockUserRepo), 5*time.Minute)
		_, err = svc.Refresh(context.Background(), signed, "whatever")
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("rejects an unknown refresh token", func(t *testing.T) {
		tokenRepo := new(mockTokenRepo)
		userRepo := new(mockUserRepo)
		expectEmptyClaims(userRepo, user.ID)

		svc := newTestTokenService(tokenRepo, userRepo, -time.Minute)
		pair, _ := issueExpiredPair(t, svc, user)

		tokenRepo.On("GetByToken", mock.Anything, "unknown-value").Return(nil, sql.ErrNoRows).Once()
		_, err := svc.Refresh(context.Background(), pair.AccessToken, "unknown-value")
		assert.ErrorIs(t, err, ErrRefreshTokenNotFound)
	})

	t.Run("rejects an already used refresh token", func(t *testing.T) {
		tokenRepo := new(mockTokenRepo)
		userRepo := new(mockUserRepo)
		expectEmptyClaims(userRepo, user.ID)

		svc := newTestTokenService(tokenRepo, userRepo, -time.Minute)
		pair, stored := issueExpiredPair(t, svc, user)
		stored.IsUsed = true

		tokenRepo.On("GetByToken", mock.Anything, pair.RefreshToken).Return(stored, nil).Once()
		_, err := svc.Refresh(context.Background(), pair.AccessToken, pair.RefreshToken)
		assert.ErrorIs(t, err, ErrRefreshTokenUsed)
		tokenRepo.AssertNotCalled(t, "MarkUsed")
	})

	t.Run("rejects a revoked refresh token", func(t *testing.T) {
		tokenRepo := new(mockTokenRepo)
		userRepo := new(mockUserRepo)
		expectEmptyClaims(userRepo, user.ID)

		svc := newTestTokenService(tokenRepo, userRepo, -time.Minute)
		pair, stored := issueExpiredPair(t, svc, user)
		stored.IsRevoked = true

		tokenRepo.On("GetByToken", mock.Anything, pair.RefreshToken).Return(stored, nil).Once()
		_, err := svc.Refresh(context.Background(), pair.AccessToken, pair.RefreshToken)
		assert.ErrorIs(t, err, ErrRefreshTokenRevoked)
	})

	t.Run("rejects a refresh token bound to another access token", func(t *testing.T) {
		tokenRepo := new(mockTokenRepo)
		userRepo := new(mockUserRepo)
		expectEmptyClaims(userRepo, user.ID)

		svc := newTestTokenService(tokenRepo, userRepo, -time.Minute)
		pair, stored := issueExpiredPair(t, svc, user)
		stored.JwtID = "a-different-jti"

		tokenRepo.On("GetByToken", mock.Anything, pair.RefreshToken).Return(stored, nil).Once()
		_, err := svc.Refresh(context.Background(), pair.AccessToken, pair.RefreshToken)
		assert.ErrorIs(t, err, ErrTokenMismatch)
	})

	t.Run("losing the conditional update reads as already used", func(t *testing.T) {
		tokenRepo := new(mockTokenRepo)
		userRepo := new(mockUserRepo)
		expectEmptyClaims(userRepo, user.ID)

		svc := newTestTokenService(tokenRepo, userRepo, -time.Minute)
		pair, stored := issueExpiredPair(t, svc, user)

		tokenRepo.On("GetByToken", mock.Anything, pair.RefreshToken).Return(stored, nil).Once()
		tokenRepo.On("MarkUsed", mock.Anything, pair.RefreshToken).Return(false, nil).Once()

		_, err := svc.Refresh(context.Background(), pair.AccessToken, pair.RefreshToken)
		assert.ErrorIs(t, err, ErrRefreshTokenUsed)
	})

	t.Run("successful refresh issues a fresh pair with a new jti", func(t *testing.T) {
		tokenRepo := new(mockTokenRepo)
		userRepo := new(mockUserRepo)
		expectEmptyClaims(userRepo, user.ID)
		userRepo.On("GetUserByID", mock.Anything, user.ID).Return(user, nil).Once()

		svc := newTestTokenService(tokenRepo, userRepo, -time.Minute)
		pair, stored := issueExpiredPair(t, svc, user)

		tokenRepo.On("GetByToken", mock.Anything, pair.RefreshToken).Return(stored, nil).Once()
		tokenRepo.On("MarkUsed", mock.Anything, pair.RefreshToken).Return(true, nil).Once()

		newPair, err := svc.Refresh(context.Background(), pair.AccessToken, pair.RefreshToken)
		require.NoError(t, err)
		require.NotNil(t, newPair)
		assert.NotEqual(t, pair.RefreshToken, newPair.RefreshToken)

		oldClaims, err := svc.parseExpiredToken(pair.AccessToken)
		require.NoError(t, err)
		newClaims, err := svc.parseExpiredToken(newPair.AccessToken)
		require.NoError(t, err)
		assert.NotEqual(t, oldClaims.ID, newClaims.ID)
		tokenRepo.AssertExpectations(t)
		userRepo.AssertExpectations(t)
	})

	t.Run("user deleted after issuance", func(t *testing.T) {
		tokenRepo := new(mockTokenRepo)
		userRepo := new(mockUserRepo)
		expectEmptyClaims(userRepo, user.ID)
		userRepo.On("GetUserByID", mock.Anything, user.ID).Return(nil, sql.ErrNoRows).Once()

		svc := newTestTokenService(tokenRepo, userRepo, -time.Minute)
		pair, stored := issueExpiredPair(t, svc, user)

		tokenRepo.On("GetByToken", mock.Anything, pair.RefreshToken).Return(stored, nil).Once()
		tokenRepo.On("MarkUsed", mock.Anything, pair.RefreshToken).Return(true, nil).Once()

		_, err := svc.Refresh(context.Background(), pair.AccessToken, pair.RefreshToken)
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

// TestTokenService_Refresh_Concurrent races many refreshes of the same pair
// against an in-memory store with real conditional-update semantics. Exactly
// one request may win.
func TestTokenService_Refresh_Concurrent(t *testing.T) {
	user := testUser()
	userRepo := new(mockUserRepo)
	expectEmptyClaims(userRepo, user.ID)
	userRepo.On("GetUserByID", mock.Anything, user.ID).Return(user, nil)

	store := newMemoryTokenStore()
	claimsService := NewClaimsService(userRepo, &mockRoleRepo{})
	svc := NewTokenService(store, userRepo, claimsService, TokenConfig{
		SecretKey:       testSecret,
		AccessTokenTTL:  -time.Minute, // already expired, refresh-eligible
		RefreshTokenTTL: 24 * time.Hour,
		Issuer:          "go-identity-api-test",
	})

	pair, err := svc.IssueToken(context.Background(), user)
	require.NoError(t, err)

	const goroutines = 16
	var wg sync.WaitGroup
	results := make(chan error, goroutines)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Refresh(context.Background(), pair.AccessToken, pair.RefreshToken)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	winners, losers := 0, 0
	for err := range results {
		if err == nil {
			winners++
			continue
		}
		assert.ErrorIs(t, err, ErrRefreshTokenUsed)
		losers++
	}
	assert.Equal(t, 1, winners)
	assert.Equal(t, goroutines-1, losers)
}

func TestTokenService_Revoke(t *testing.T) {
	t.Run("revokes an active record", func(t *testing.T) {
		tokenRepo := new(mockTokenRepo)
		tokenRepo.On("RevokeByJwtID", mock.Anything, "some-jti").Return(true, nil).Once()

		svc := newTestTokenService(tokenRepo, new(mockUserRepo), 5*time.Minute)
		err := svc.Revoke(context.Background(), "some-jti")

		assert.NoError(t, err)
		tokenRepo.AssertExpectations(t)
	})

	t.Run("unknown jti", func(t *testing.T) {
		tokenRepo := new(mockTokenRepo)
		tokenRepo.On("RevokeByJwtID", mock.Anything, "missing-jti").Return(false, nil).Once()

		svc := newTestTokenService(tokenRepo, new(mockUserRepo), 5*time.Minute)
		err := svc.Revoke(context.Background(), "missing-jti")

		assert.ErrorIs(t, err, ErrRefreshTokenNotFound)
	})

	t.Run("revoked token is rejected on refresh", func(t *testing.T) {
		user := testUser()
		userRepo := new(mockUserRepo)
		expectEmptyClaims(userRepo, user.ID)

		store := newMemoryTokenStore()
		claimsService := NewClaimsService(userRepo, &mockRoleRepo{})
		svc := NewTokenService(store, userRepo, claimsService, TokenConfig{
			SecretKey:       testSecret,
			AccessTokenTTL:  -time.Minute,
			RefreshTokenTTL: 24 * time.Hour,
			Issuer:          "go-identity-api-test",
		})

		pair, err := svc.IssueToken(context.Background(), user)
		require.NoError(t, err)
		claims, err := svc.parseExpiredToken(pair.AccessToken)
		require.NoError(t, err)

		require.NoError(t, svc.Revoke(context.Background(), claims.ID))

		_, err = svc.Refresh(context.Background(), pair.AccessToken, pair.RefreshToken)
		assert.ErrorIs(t, err, ErrRefreshTokenRevoked)
	})
}

func TestTokenService_ParseAccessToken(t *testing.T) {
	t.Run("rejects an expired token", func(t *testing.T) {
		tokenRepo := new(mockTokenRepo)
		userRepo := new(mockUserRepo)
		user := testUser()
		expectEmptyClaims(userRepo, user.ID)
		tokenRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

		svc := newTestTokenService(tokenRepo, userRepo, -time.Minute)
		pair, err := svc.IssueToken(context.Background(), user)
		require.NoError(t, err)

		_, err = svc.ParseAccessToken(pair.AccessToken)
		assert.ErrorIs(t, err, ErrTokenValidationFailed)
	})

	t.Run("rejects a tampered token", func(t *testing.T) {
		tokenRepo := new(mockTokenRepo)
		userRepo := new(mockUserRepo)
		user := testUser()
		expectEmptyClaims(userRepo, user.ID)
		tokenRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

		svc := newTestTokenService(tokenRepo, userRepo, 5*time.Minute)
		pair, err := svc.IssueToken(context.Background(), user)
		require.NoError(t, err)

		_, err = svc.ParseAccessToken(pair.AccessToken + "x")
		assert.ErrorIs(t, err, ErrTokenValidationFailed)
	})
}
