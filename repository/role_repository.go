package repository

import (
	"context"
	"database/sql"
	"go-identity-api/logger"
	"go-identity-api/model"

	"github.com/sirupsen/logrus"
)

// IRoleRepository defines the contract for role database operations.
type IRoleRepository interface {
	CreateRole(ctx context.Context, role *model.Role) error
	GetRoleByName(ctx context.Context, name string) (*model.Role, error)
	GetRoleByID(ctx context.Context, id string) (*model.Role, error)
	GetAllRoles(ctx context.Context) ([]*model.Role, error)
	UpdateRole(ctx context.Context, role *model.Role) error
	DeleteRole(ctx context.Context, id string) error
	GetRoleClaims(ctx context.Context, roleID string) ([]model.ClaimEntry, error)
	ReplaceRoleClaims(ctx context.Context, roleID string, claims []model.ClaimEntry) error
}

// RoleRepository implements IRoleRepository.
type RoleRepository struct {
	DB *sql.DB
}

// NewRoleRepository creates a new RoleRepository.
func NewRoleRepository(db *sql.DB) *RoleRepository {
	return &RoleRepository{DB: db}
}

// CreateRole adds a new role to the database.
func (r *RoleRepository) CreateRole(ctx context.Context, role *model.Role) error {
	log := logger.Log.WithFields(logrus.Fields{
		"role_id":   role.ID,
		"role_name": role.Name,
	})
	log.Info("Executing query to create a new role")

	query := `INSERT INTO roles (id, name, description) VALUES ($1, $2, $3) RETURNING created_at`
	err := r.DB.QueryRowContext(ctx, query, role.ID, role.Name, role.Description).Scan(&role.CreatedAt)
	if err != nil {
		log.WithError(err).Error("Failed to execute create role query")
		return err
	}
	return nil
}

func (r *RoleRepository) GetRoleByName(ctx context.Context, name string) (*model.Role, error) {
	role := &model.Role{}
	query := `SELECT id, name, description, created_at FROM roles WHERE name = $1`
	err := r.DB.QueryRowContext(ctx, query, name).Scan(
		&role.ID, &role.Name, &role.Description, &role.CreatedAt,
	)
	if err != nil {
		return nil, err // Return sql.ErrNoRows if not found
	}
	return role, nil
}

func (r *RoleRepository) GetRoleByID(ctx context.Context, id string) (*model.Role, error) {
	role := &model.Role{}
	query := `SELECT id, name, description, created_at FROM roles WHERE id = $1`
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&role.ID, &role.Name, &role.Description, &role.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return role, nil
}

// GetAllRoles retrieves all roles from the database.
func (r *RoleRepository) GetAllRoles(ctx context.Context) ([]*model.Role, error) {
	log := logger.Log
	log.Info("Executing query to get all roles")

	query := `SELECT id, name, description, created_at FROM roles ORDER BY name`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		log.WithError(err).Error("Failed to execute query for all roles")
		return nil, err
	}
	defer rows.Close()

	var roles []*model.Role
	for rows.Next() {
		var role model.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt); err != nil {
			log.WithError(err).Error("Failed to scan role row")
			return nil, err
		}
		roles = append(roles, &role)
	}
	return roles, rows.Err()
}

func (r *RoleRepository) UpdateRole(ctx context.Context, role *model.Role) error {
	log := logger.Log.WithField("role_id", role.ID)
	log.Info("Executing query to update role")

	query := `UPDATE roles SET name = $1, description = $2 WHERE id = $3`
	res, err := r.DB.ExecContext(ctx, query, role.Name, role.Description, role.ID)
	if err != nil {
		log.WithError(err).Error("Failed to execute update role query")
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *RoleRepository) DeleteRole(ctx context.Context, id string) error {
	log := logger.Log.WithField("role_id", id)
	log.Info("Executing query to delete role")

	query := `DELETE FROM roles WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		log.WithError(err).Error("Failed to execute delete role query")
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// GetRoleClaims returns the claims attached to a role.
func (r *RoleRepository) GetRoleClaims(ctx context.Context, roleID string) ([]model.ClaimEntry, error) {
	query := `SELECT claim_type, claim_value FROM role_claims WHERE role_id = $1 ORDER BY id`
	rows, err := r.DB.QueryContext(ctx, query, roleID)
	if err != nil {
		logger.Log.WithField("role_id", roleID).WithError(err).Error("Failed to execute query for role claims")
		return nil, err
	}
	defer rows.Close()

	var claims []model.ClaimEntry
	for rows.Next() {
		var c model.ClaimEntry
		if err := rows.Scan(&c.Type, &c.Value); err != nil {
			return nil, err
		}
		claims = append(claims, c)
	}
	return claims, rows.Err()
}

// ReplaceRoleClaims swaps the role's full claim set inside one transaction.
func (r *RoleRepository) ReplaceRoleClaims(ctx context.Context, roleID string, claims []model.ClaimEntry) error {
	log := logger.Log.WithFields(logrus.Fields{
		"role_id":     roleID,
		"claim_count": len(claims),
	})
	log.Info("Executing queries to replace role claims")

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM role_claims WHERE role_id = $1`, roleID); err != nil {
		log.WithError(err).Error("Failed to clear existing role claims")
		return err
	}
	for _, claim := range claims {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO role_claims (role_id, claim_type, claim_value) VALUES ($1, $2, $3)`,
			roleID, claim.Type, claim.Value); err != nil {
			log.WithError(err).Error("Failed to insert role claim")
			return err
		}
	}
	return tx.Commit()
}
