// service/user_service_test.go
package service

import (
	"context"
	"database/sql"
	"go-identity-api/model"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestUserService(userRepo *mockUserRepo, roleRepo *mockRoleRepo, tokenRepo *mockTokenRepo) *UserService {
	authService := NewAuthService()
	claimsService := NewClaimsService(userRepo, roleRepo)
	tokenService := NewTokenService(tokenRepo, userRepo, claimsService, TokenConfig{
		SecretKey:       testSecret,
		AccessTokenTTL:  5 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
		Issuer:          "go-identity-api-test",
	})
	return NewUserService(userRepo, roleRepo, authService, tokenService)
}

func TestUserService_Register(t *testing.T) {
	t.Run("creates the user and issues a first pair", func(t *testing.T) {
		userRepo := new(mockUserRepo)
		roleRepo := new(mockRoleRepo)
		tokenRepo := new(mockTokenRepo)

		userRepo.On("GetUserByEmail", mock.Anything, "new@example.com").Return(nil, sql.ErrNoRows).Once()
		userRepo.On("CreateUser", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil).Once()
		userRepo.On("GetUserClaims", mock.Anything, mock.Anything).Return([]model.ClaimEntry{}, nil)
		userRepo.On("GetUserRoles", mock.Anything, mock.Anything).Return([]string{}, nil)
		tokenRepo.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

		svc := newTestUserService(userRepo, roleRepo, tokenRepo)
		pair, err := svc.Register(context.Background(), model.RegisterRequest{
			Username: "newuser",
			Email:    "new@example.com",
			Password: "password1234",
		})

		require.NoError(t, err)
		require.NotNil(t, pair)
		assert.NotEmpty(t, pair.AccessToken)
		assert.NotEmpty(t, pair.RefreshToken)
		userRepo.AssertExpectations(t)
		tokenRepo.AssertExpectations(t)
	})

	t.Run("duplicate email", func(t *testing.T) {
		userRepo := new(mockUserRepo)
		existing := &model.User{ID: "u-1", Email: "taken@example.com"}
		userRepo.On("GetUserByEmail", mock.Anything, "taken@example.com").Return(existing, nil).Once()

		svc := newTestUserService(userRepo, new(mockRoleRepo), new(mockTokenRepo))
		pair, err := svc.Register(context.Background(), model.RegisterRequest{
			Username: "dupe",
			Email:    "taken@example.com",
			Password: "password1234",
		})

		assert.Nil(t, pair)
		assert.ErrorIs(t, err, ErrEmailAlreadyRegistered)
		userRepo.AssertNotCalled(t, "CreateUser")
	})
}

func TestUserService_Login(t *testing.T) {
	authService := NewAuthService()
	hash, err := authService.HashPassword("correct-password")
	require.NoError(t, err)
	user := &model.User{ID: "u-1", Username: "alice", Email: "alice@example.com", PasswordHash: hash}

	t.Run("valid credentials", func(t *testing.T) {
		userRepo := new(mockUserRepo)
		tokenRepo := new(mockTokenRepo)
		userRepo.On("GetUserByEmail", mock.Anything, user.Email).Return(user, nil).Once()
		userRepo.On("GetUserClaims", mock.Anything, user.ID).Return([]model.ClaimEntry{}, nil)
		userRepo.On("GetUserRoles", mock.Anything, user.ID).Return([]string{}, nil)
		tokenRepo.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

		svc := newTestUserService(userRepo, new(mockRoleRepo), tokenRepo)
		pair, err := svc.Login(context.Background(), user.Email, "correct-password")

		require.NoError(t, err)
		assert.NotEmpty(t, pair.AccessToken)
	})

	t.Run("wrong password", func(t *testing.T) {
		userRepo := new(mockUserRepo)
		userRepo.On("GetUserByEmail", mock.Anything, user.Email).Return(user, nil).Once()

		svc := newTestUserService(userRepo, new(mockRoleRepo), new(mockTokenRepo))
		pair, err := svc.Login(context.Background(), user.Email, "wrong-password")

		assert.Nil(t, pair)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email reads the same as a wrong password", func(t *testing.T) {
		userRepo := new(mockUserRepo)
		userRepo.On("GetUserByEmail", mock.Anything, "nobody@example.com").Return(nil, sql.ErrNoRows).Once()

		svc := newTestUserService(userRepo, new(mockRoleRepo), new(mockTokenRepo))
		_, err := svc.Login(context.Background(), "nobody@example.com", "whatever-password")

		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestUserService_ChangePassword(t *testing.T) {
	authService := NewAuthService()
	hash, err := authService.HashPassword("old-password")
	require.NoError(t, err)
	user := &model.User{ID: "u-1", PasswordHash: hash}

	t.Run("success", func(t *testing.T) {
		userRepo := new(mockUserRepo)
		userRepo.On("GetUserByID", mock.Anything, user.ID).Return(user, nil).Once()
		userRepo.On("UpdatePassword", mock.Anything, user.ID, mock.AnythingOfType("string")).Return(nil).Once()

		svc := newTestUserService(userRepo, new(mockRoleRepo), new(mockTokenRepo))
		err := svc.ChangePassword(context.Background(), user.ID, "old-password", "new-password-123")

		assert.NoError(t, err)
		userRepo.AssertExpectations(t)
	})

	t.Run("wrong current password", func(t *testing.T) {
		userRepo := new(mockUserRepo)
		userRepo.On("GetUserByID", mock.Anything, user.ID).Return(user, nil).Once()

		svc := newTestUserService(userRepo, new(mockRoleRepo), new(mockTokenRepo))
		err := svc.ChangePassword(context.Background(), user.ID, "not-the-old-password", "new-password-123")

		assert.ErrorIs(t, err, ErrCurrentPasswordInvalid)
		userRepo.AssertNotCalled(t, "UpdatePassword")
	})
}

func TestUserService_UpdateUserRoles(t *testing.T) {
	user := &model.User{ID: "u-1"}

	t.Run("resolves role names to ids before replacing", func(t *testing.T) {
		userRepo := new(mockUserRepo)
		roleRepo := new(mockRoleRepo)
		userRepo.On("GetUserByID", mock.Anything, user.ID).Return(user, nil).Once()
		roleRepo.On("GetRoleByName", mock.Anything, "Auditor").Return(&model.Role{ID: "r-1", Name: "Auditor"}, nil).Once()
		roleRepo.On("GetRoleByName", mock.Anything, "Reporter").Return(&model.Role{ID: "r-2", Name: "Reporter"}, nil).Once()
		userRepo.On("ReplaceUserRoles", mock.Anything, user.ID, []string{"r-1", "r-2"}).Return(nil).Once()

		svc := newTestUserService(userRepo, roleRepo, new(mockTokenRepo))
		err := svc.UpdateUserRoles(context.Background(), user.ID, []string{"Auditor", "Reporter"})

		assert.NoError(t, err)
		userRepo.AssertExpectations(t)
		roleRepo.AssertExpectations(t)
	})

	t.Run("an unknown role rejects the whole set", func(t *testing.T) {
		userRepo := new(mockUserRepo)
		roleRepo := new(mockRoleRepo)
		userRepo.On("GetUserByID", mock.Anything, user.ID).Return(user, nil).Once()
		roleRepo.On("GetRoleByName", mock.Anything, "Nonexistent").Return(nil, sql.ErrNoRows).Once()

		svc := newTestUserService(userRepo, roleRepo, new(mockTokenRepo))
		err := svc.UpdateUserRoles(context.Background(), user.ID, []string{"Nonexistent"})

		assert.ErrorIs(t, err, ErrRoleNotAssignable)
		userRepo.AssertNotCalled(t, "ReplaceUserRoles")
	})

	t.Run("unknown user", func(t *testing.T) {
		userRepo := new(mockUserRepo)
		userRepo.On("GetUserByID", mock.Anything, "missing").Return(nil, sql.ErrNoRows).Once()

		svc := newTestUserService(userRepo, new(mockRoleRepo), new(mockTokenRepo))
		err := svc.UpdateUserRoles(context.Background(), "missing", []string{"Auditor"})

		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestUserService_UserClaims(t *testing.T) {
	user := &model.User{ID: "u-1"}
	claim := model.ClaimEntry{Type: "Department", Value: "Finance"}

	t.Run("add claim", func(t *testing.T) {
		userRepo := new(mockUserRepo)
		userRepo.On("GetUserByID", mock.Anything, user.ID).Return(user, nil).Once()
		userRepo.On("AddUserClaim", mock.Anything, user.ID, claim).Return(nil).Once()

		svc := newTestUserService(userRepo, new(mockRoleRepo), new(mockTokenRepo))
		err := svc.AddUserClaim(context.Background(), user.ID, claim)

		assert.NoError(t, err)
		userRepo.AssertExpectations(t)
	})

	t.Run("add claim to unknown user", func(t *testing.T) {
		userRepo := new(mockUserRepo)
		userRepo.On("GetUserByID", mock.Anything, "missing").Return(nil, sql.ErrNoRows).Once()

		svc := newTestUserService(userRepo, new(mockRoleRepo), new(mockTokenRepo))
		err := svc.AddUserClaim(context.Background(), "missing", claim)

		assert.ErrorIs(t, err, ErrUserNotFound)
		userRepo.AssertNotCalled(t, "AddUserClaim")
	})

	t.Run("remove claim", func(t *testing.T) {
		userRepo := new(mockUserRepo)
		userRepo.On("RemoveUserClaim", mock.Anything, user.ID, claim).Return(nil).Once()

		svc := newTestUserService(userRepo, new(mockRoleRepo), new(mockTokenRepo))
		err := svc.RemoveUserClaim(context.Background(), user.ID, claim)

		assert.NoError(t, err)
		userRepo.AssertExpectations(t)
	})
}
