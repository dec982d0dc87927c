// file: model/token.go

package model

import "time"

// RefreshToken holds the data for a refresh token record in the database.
// At most one record may be active (not used, not revoked, not expired) per
// JwtID; once IsUsed is set the record can never mint another token.
type RefreshToken struct {
	ID         int       `json:"id"`
	JwtID      string    `json:"jwt_id"`
	Token      string    `json:"-"` // The opaque value is never exposed in JSON responses.
	UserID     string    `json:"user_id"`
	IsUsed     bool      `json:"is_used"`
	IsRevoked  bool      `json:"is_revoked"`
	AddedDate  time.Time `json:"added_date"`
	ExpiryDate time.Time `json:"expiry_date"`
}

// TokenPair is the authentication response: a signed access token and the
// opaque refresh token paired with it.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
