package repository

import (
	"context"
	"database/sql"
	"go-identity-api/logger"
	"go-identity-api/model"

	"github.com/sirupsen/logrus"
)

// IUserRepository defines the contract for user database operations,
// including the role and claim lookups the claims aggregator depends on.
type IUserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetAllUsers(ctx context.Context) ([]*model.User, error)
	UpdateProfile(ctx context.Context, id, firstName, lastName string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	GetUserRoles(ctx context.Context, userID string) ([]string, error)
	ReplaceUserRoles(ctx context.Context, userID string, roleIDs []string) error
	GetUserClaims(ctx context.Context, userID string) ([]model.ClaimEntry, error)
	AddUserClaim(ctx context.Context, userID string, claim model.ClaimEntry) error
	RemoveUserClaim(ctx context.Context, userID string, claim model.ClaimEntry) error
}

// UserRepository implements IUserRepository.
type UserRepository struct {
	DB *sql.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) CreateUser(ctx context.Context, user *model.User) error {
	log := logger.Log.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"username": user.Username,
	})
	log.Info("Executing query to create a new user")

	query := `INSERT INTO users (id, username, email, password_hash, first_name, last_name)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at`
	err := r.DB.QueryRowContext(ctx, query,
		user.ID, user.Username, user.Email, user.PasswordHash, user.FirstName, user.LastName,
	).Scan(&user.CreatedAt)
	if err != nil {
		log.WithError(err).Error("Failed to execute create user query")
		return err
	}
	return nil
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	user := &model.User{}
	query := `SELECT id, username, email, password_hash, first_name, last_name, created_at
		FROM users WHERE email = $1`
	err := r.DB.QueryRowContext(ctx, query, email).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.FirstName, &user.LastName, &user.CreatedAt,
	)
	if err != nil {
		return nil, err // Return sql.ErrNoRows if not found
	}
	return user, nil
}

func (r *UserRepository) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	user := &model.User{}
	query := `SELECT id, username, email, password_hash, first_name, last_name, created_at
		FROM users WHERE id = $1`
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.FirstName, &user.LastName, &user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetAllUsers retrieves all users from the database. For admin use only.
func (r *UserRepository) GetAllUsers(ctx context.Context) ([]*model.User, error) {
	log := logger.Log
	log.Info("Executing query to get all users")

	query := `SELECT id, username, email, password_hash, first_name, last_name, created_at
		FROM users ORDER BY created_at`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		log.WithError(err).Error("Failed to execute query for all users")
		return nil, err
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash,
			&u.FirstName, &u.LastName, &u.CreatedAt); err != nil {
			log.WithError(err).Error("Failed to scan user row")
			return nil, err
		}
		users = append(users, &u)
	}
	return users, rows.Err()
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id, firstName, lastName string) error {
	log := logger.Log.WithField("user_id", id)
	log.Info("Executing query to update user profile")

	query := `UPDATE users SET first_name = $1, last_name = $2 WHERE id = $3`
	res, err := r.DB.ExecContext(ctx, query, firstName, lastName, id)
	if err != nil {
		log.WithError(err).Error("Failed to execute update profile query")
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	log := logger.Log.WithField("user_id", id)
	log.Info("Executing query to update user password")

	query := `UPDATE users SET password_hash = $1 WHERE id = $2`
	res, err := r.DB.ExecContext(ctx, query, passwordHash, id)
	if err != nil {
		log.WithError(err).Error("Failed to execute update password query")
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// GetUserRoles returns the names of all roles assigned to the user.
func (r *UserRepository) GetUserRoles(ctx context.Context, userID string) ([]string, error) {
	query := `SELECT r.name FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = $1 ORDER BY r.name`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		logger.Log.WithField("user_id", userID).WithError(err).Error("Failed to execute query for user roles")
		return nil, err
	}
	defer rows.Close()

	var roles []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		roles = append(roles, name)
	}
	return roles, rows.Err()
}

// ReplaceUserRoles swaps the user's full role set inside one transaction.
func (r *UserRepository) ReplaceUserRoles(ctx context.Context, userID string, roleIDs []string) error {
	log := logger.Log.WithFields(logrus.Fields{
		"user_id":    userID,
		"role_count": len(roleIDs),
	})
	log.Info("Executing queries to replace user roles")

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM user_roles WHERE user_id = $1`, userID); err != nil {
		log.WithError(err).Error("Failed to clear existing user roles")
		return err
	}
	for _, roleID := range roleIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2)`, userID, roleID); err != nil {
			log.WithError(err).Error("Failed to insert user role")
			return err
		}
	}
	return tx.Commit()
}

// GetUserClaims returns the claims assigned directly to the user.
func (r *UserRepository) GetUserClaims(ctx context.Context, userID string) ([]model.ClaimEntry, error) {
	query := `SELECT claim_type, claim_value FROM user_claims WHERE user_id = $1 ORDER BY id`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		logger.Log.WithField("user_id", userID).WithError(err).Error("Failed to execute query for user claims")
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

func (r *UserRepository) AddUserClaim(ctx context.Context, userID string, claim model.ClaimEntry) error {
	query := `INSERT INTO user_claims (user_id, claim_type, claim_value) VALUES ($1, $2, $3)
		ON CONFLICT (user_id, claim_type, claim_value) DO NOTHING`
	_, err := r.DB.ExecContext(ctx, query, userID, claim.Type, claim.Value)
	if err != nil {
		logger.Log.WithField("user_id", userID).WithError(err).Error("Failed to execute add user claim query")
	}
	return err
}

func (r *UserRepository) RemoveUserClaim(ctx context.Context, userID string, claim model.ClaimEntry) error {
	query := `DELETE FROM user_claims WHERE user_id = $1 AND claim_type = $2 AND claim_value = $3`
	_, err := r.DB.ExecContext(ctx, query, userID, claim.Type, claim.Value)
	if err != nil {
		logger.Log.WithField("user_id", userID).WithError(err).Error("Failed to execute remove user claim query")
	}
	return err
}
