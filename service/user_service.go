package service

import (
	"context"
	"database/sql"
	"errors"
	"go-identity-api/logger"
	"go-identity-api/model"
	"go-identity-api/repository"

	"github.com/google/uuid"
)

var (
	ErrEmailAlreadyRegistered = errors.New("this email is already registered")
	ErrInvalidCredentials     = errors.New("login details invalid")
	ErrCurrentPasswordInvalid = errors.New("current password is incorrect")
	ErrRoleNotAssignable      = errors.New("one or more roles do not exist")
)

// UserService handles registration, login and the user administration
// operations. Token minting itself is delegated to the TokenService.
type UserService struct {
	userRepo     repository.IUserRepository
	roleRepo     repository.IRoleRepository
	authService  *AuthService
	tokenService *TokenService
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.IUserRepository, roleRepo repository.IRoleRepository, authService *AuthService, tokenService *TokenService) *UserService {
	return &UserService{
		userRepo:     userRepo,
		roleRepo:     roleRepo,
		authService:  authService,
		tokenService: tokenService,
	}
}

// Register creates a new user and immediately issues the first token pair.
func (s *UserService) Register(ctx context.Context, req model.RegisterRequest) (*model.TokenPair, error) {
	_, err := s.userRepo.GetUserByEmail(ctx, req.Email)
	if err == nil {
		return nil, ErrEmailAlreadyRegistered
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	hash, err := s.authService.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
	}
	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	logger.Log.WithField("user_id", user.ID).Info("New user registered")
	return s.tokenService.IssueToken(ctx, user)
}

// Login verifies the credentials and issues a token pair. A missing user and
// a wrong password are deliberately indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, email, password string) (*model.TokenPair, error) {
	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.authService.CheckPasswordHash(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return s.tokenService.IssueToken(ctx, user)
}

// ChangePassword verifies the caller's current password before storing the
// new hash.
func (s *UserService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		}
		return err
	}

	if !s.authService.CheckPasswordHash(currentPassword, user.PasswordHash) {
		return ErrCurrentPasswordInvalid
	}

	hash, err := s.authService.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.userRepo.UpdatePassword(ctx, userID, hash)
}

// UpdateProfile updates the user's display name fields.
func (s *UserService) UpdateProfile(ctx context.Context, userID, firstName, lastName string) error {
	err := s.userRepo.UpdateProfile(ctx, userID, firstName, lastName)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrUserNotFound
	}
	return err
}

// ListUsers returns all users. For admin use only.
func (s *UserService) ListUsers(ctx context.Context) ([]*model.User, error) {
	return s.userRepo.GetAllUsers(ctx)
}

// UpdateUserRoles replaces the user's role assignments with the named set.
// Every role name must resolve to an existing role.
func (s *UserService) UpdateUserRoles(ctx context.Context, userID string, roleNames []string) error {
	if _, err := s.userRepo.GetUserByID(ctx, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		}
		return err
	}

	roleIDs := make([]string, 0, len(roleNames))
	for _, name := range roleNames {
		role, err := s.roleRepo.GetRoleByName(ctx, name)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrRoleNotAssignable
			}
			return err
		}
		roleIDs = append(roleIDs, role.ID)
	}

	return s.userRepo.ReplaceUserRoles(ctx, userID, roleIDs)
}

// AddUserClaim attaches a claim directly to the user.
func (s *UserService) AddUserClaim(ctx context.Context, userID string, claim model.ClaimEntry) error {
	if _, err := s.userRepo.GetUserByID(ctx, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		}
		return err
	}
	return s.userRepo.AddUserClaim(ctx, userID, claim)
}

// RemoveUserClaim removes a claim previously attached to the user.
func (s *UserService) RemoveUserClaim(ctx context.Context, userID string, claim model.ClaimEntry) error {
	return s.userRepo.RemoveUserClaim(ctx, userID, claim)
}
