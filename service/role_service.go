// file: service/role_service.go

package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"go-identity-api/common"
	"go-identity-api/model"
	"go-identity-api/repository"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrRoleNotFound      = errors.New("role not found")
	ErrRoleAlreadyExists = errors.New("a role with this name already exists")
	ErrRoleProtected     = errors.New("the built-in administrator role cannot be modified")
)

const (
	roleListCacheKey = "roles:all"
	roleListCacheTTL = 10 * time.Minute
)

// RoleService handles role administration, utilizing a cache-aside strategy
// for the role list. The claims aggregator never reads through this cache;
// token issuance always sees the store directly.
type RoleService struct {
	repo        repository.IRoleRepository
	redisClient *redis.Client
}

// NewRoleService creates a new RoleService.
func NewRoleService(repo repository.IRoleRepository, redisClient *redis.Client) *RoleService {
	return &RoleService{
		repo:        repo,
		redisClient: redisClient,
	}
}

// ListRoles lists all roles, serving from Redis when possible.
func (s *RoleService) ListRoles(ctx context.Context) ([]*model.Role, error) {
	// 1. Try to get data from Redis.
	cached, err := s.redisClient.Get(ctx, roleListCacheKey).Result()
	if err == nil {
		var roles []*model.Role
		if err := json.Unmarshal([]byte(cached), &roles); err == nil {
			return roles, nil
		}
	}

	// 2. Cache miss. Fetch from the database.
	roles, err := s.repo.GetAllRoles(ctx)
	if err != nil {
		return nil, err
	}

	// 3. Store the result in Redis for future requests.
	if data, err := json.Marshal(roles); err == nil {
		s.redisClient.Set(ctx, roleListCacheKey, data, roleListCacheTTL)
	}

	return roles, nil
}

// CreateRole creates a new role and invalidates the role list cache.
func (s *RoleService) CreateRole(ctx context.Context, name, description string) (*model.Role, error) {
	_, err := s.repo.GetRoleByName(ctx, name)
	if err == nil {
		return nil, ErrRoleAlreadyExists
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	role := &model.Role{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
	}
	if err := s.repo.CreateRole(ctx, role); err != nil {
		return nil, err
	}

	s.redisClient.Del(ctx, roleListCacheKey)
	return role, nil
}

// UpdateRole renames a role or changes its description.
func (s *RoleService) UpdateRole(ctx context.Context, id, name, description string) (*model.Role, error) {
	role, err := s.repo.GetRoleByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoleNotFound
		}
		return nil, err
	}

	if role.Name == common.RoleAdministrator && name != common.RoleAdministrator {
		return nil, ErrRoleProtected
	}

	role.Name = name
	role.Description = description
	if err := s.repo.UpdateRole(ctx, role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoleNotFound
		}
		return nil, err
	}

	s.redisClient.Del(ctx, roleListCacheKey)
	return role, nil
}

// DeleteRole removes a role. The seeded Administrator role is protected.
func (s *RoleService) DeleteRole(ctx context.Context, id string) error {
	role, err := s.repo.GetRoleByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrRoleNotFound
		}
		return err
	}
	if role.Name == common.RoleAdministrator {
		return ErrRoleProtected
	}

	if err := s.repo.DeleteRole(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrRoleNotFound
		}
		return err
	}

	s.redisClient.Del(ctx, roleListCacheKey)
	return nil
}

// GetRoleClaims returns the claims attached to a role.
func (s *RoleService) GetRoleClaims(ctx context.Context, roleID string) ([]model.ClaimEntry, error) {
	if _, err := s.repo.GetRoleByID(ctx, roleID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoleNotFound
		}
		return nil, err
	}
	return s.repo.GetRoleClaims(ctx, roleID)
}

// UpdateRoleClaims replaces the role's claim set. Tokens issued afterwards
// pick up the new claims immediately because aggregation reads the store.
func (s *RoleService) UpdateRoleClaims(ctx context.Context, roleID string, claims []model.ClaimEntry) error {
	if _, err := s.repo.GetRoleByID(ctx, roleID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrRoleNotFound
		}
		return err
	}
	return s.repo.ReplaceRoleClaims(ctx, roleID, claims)
}
