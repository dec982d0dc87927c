// file: repository/token_repository.go

package repository

import (
	"context"
	"database/sql"
	"go-identity-api/logger"
	"go-identity-api/model"

	"github.com/sirupsen/logrus"
)

// ITokenRepository defines the contract for refresh token database operations.
// MarkUsed and RevokeByJwtID are conditional updates: they succeed for at
// most one caller per record, which is what makes a refresh token single-use
// under concurrent requests.
type ITokenRepository interface {
	Create(ctx context.Context, token *model.RefreshToken) error
	GetByToken(ctx context.Context, token string) (*model.RefreshToken, error)
	MarkUsed(ctx context.Context, token string) (bool, error)
	RevokeByJwtID(ctx context.Context, jwtID string) (bool, error)
}

// TokenRepository implements ITokenRepository.
type TokenRepository struct {
	DB *sql.DB
}

// NewTokenRepository creates a new TokenRepository.
func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{DB: db}
}

// Create inserts a new refresh token record into the database.
func (r *TokenRepository) Create(ctx context.Context, token *model.RefreshToken) error {
	log := logger.Log.WithFields(logrus.Fields{
		"user_id":     token.UserID,
		"jwt_id":      token.JwtID,
		"expiry_date": token.ExpiryDate,
	})
	log.Info("Executing query to create a new refresh token")

	query := `INSERT INTO refresh_tokens (jwt_id, token, user_id, is_used, is_revoked, expiry_date)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, added_date`
	err := r.DB.QueryRowContext(ctx, query,
		token.JwtID, token.Token, token.UserID, token.IsUsed, token.IsRevoked, token.ExpiryDate,
	).Scan(&token.ID, &token.AddedDate)
	if err != nil {
		log.WithError(err).Error("Failed to execute create refresh token query")
		return err
	}
	return nil
}

// GetByToken retrieves a refresh token record by its opaque token value.
func (r *TokenRepository) GetByToken(ctx context.Context, tokenValue string) (*model.RefreshToken, error) {
	token := &model.RefreshToken{}
	query := `SELECT id, jwt_id, token, user_id, is_used, is_revoked, added_date, expiry_date
		FROM refresh_tokens WHERE token = $1`
	err := r.DB.QueryRowContext(ctx, query, tokenValue).Scan(
		&token.ID, &token.JwtID, &token.Token, &token.UserID,
		&token.IsUsed, &token.IsRevoked, &token.AddedDate, &token.ExpiryDate,
	)
	if err != nil {
		if err != sql.ErrNoRows {
			logger.Log.WithError(err).Error("Failed to execute get refresh token query")
		}
		return nil, err // Return sql.ErrNoRows if not found
	}
	return token, nil
}

// MarkUsed flips is_used on the record only if it is still active. The
// returned bool reports whether this caller won the update; a false result
// with a nil error means another request consumed the token first.
func (r *TokenRepository) MarkUsed(ctx context.Context, tokenValue string) (bool, error) {
	log := logger.Log.WithField("token_suffix", tail(tokenValue))
	log.Info("Executing query to mark refresh token as used")

	query := `UPDATE refresh_tokens SET is_used = TRUE
		WHERE token = $1 AND is_used = FALSE AND is_revoked = FALSE`
	res, err := r.DB.ExecContext(ctx, query, tokenValue)
	if err != nil {
		log.WithError(err).Error("Failed to execute mark refresh token used query")
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// RevokeByJwtID flips is_revoked on the record bound to the given jti.
// Returns false when no active record matched.
func (r *TokenRepository) RevokeByJwtID(ctx context.Context, jwtID string) (bool, error) {
	log := logger.Log.WithField("jwt_id", jwtID)
	log.Info("Executing query to revoke refresh token")

	query := `UPDATE refresh_tokens SET is_revoked = TRUE
		WHERE jwt_id = $1 AND is_used = FALSE AND is_revoked = FALSE`
	res, err := r.DB.ExecContext(ctx, query, jwtID)
	if err != nil {
		log.WithError(err).Error("Failed to execute revoke refresh token query")
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// tail returns the last few characters of an opaque token for log context
// without writing the whole secret into the logs.
func tail(s string) string {
	if len(s) <= 8 {
		return s
	}
	return s[len(s)-8:]
}
