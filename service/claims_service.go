// file: service/claims_service.go

package service

import (
	"context"
	"database/sql"
	"errors"
	"go-identity-api/model"
	"go-identity-api/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ClaimsService aggregates the full claim set for a user: identity claims,
// claims assigned to the user directly, role memberships, and the claims
// inherited from each role. It only reads; issuing and persisting tokens is
// the token service's job.
type ClaimsService struct {
	userRepo repository.IUserRepository
	roleRepo repository.IRoleRepository
}

// NewClaimsService creates a new ClaimsService.
func NewClaimsService(userRepo repository.IUserRepository, roleRepo repository.IRoleRepository) *ClaimsService {
	return &ClaimsService{
		userRepo: userRepo,
		roleRepo: roleRepo,
	}
}

// BuildClaims produces the typed token payload for a user. A fresh jti is
// generated on every call. Claims assigned to the user are deduplicated by
// (type, value); claims inherited from roles are appended as-is, since the
// consuming policy checks treat the set as an unordered multiset and
// duplicates across roles are harmless.
func (s *ClaimsService) BuildClaims(ctx context.Context, user *model.User) (*model.AppClaims, error) {
	claims := &model.AppClaims{
		UserID:      user.ID,
		Email:       user.Email,
		Username:    user.Username,
		DisplayName: user.DisplayName(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: user.ID,
			ID:      uuid.NewString(),
		},
	}

	userClaims, err := s.userRepo.GetUserClaims(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	seen := make(map[model.ClaimEntry]struct{}, len(userClaims))
	for _, claim := range userClaims {
		if _, ok := seen[claim]; ok {
			continue
		}
		seen[claim] = struct{}{}
		claims.Claims = append(claims.Claims, claim)
	}

	roleNames, err := s.userRepo.GetUserRoles(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	for _, roleName := range roleNames {
		role, err := s.roleRepo.GetRoleByName(ctx, roleName)
		if errors.Is(err, sql.ErrNoRows) {
			// The role was deleted after the assignment was read; skip it
			// rather than failing the whole aggregation.
			continue
		}
		if err != nil {
			return nil, err
		}

		claims.Roles = append(claims.Roles, role.Name)

		roleClaims, err := s.roleRepo.GetRoleClaims(ctx, role.ID)
		if err != nil {
			return nil, err
		}
		claims.Claims = append(claims.Claims, roleClaims...)
	}

	return claims, nil
}
