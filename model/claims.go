package model

import (
	"go-identity-api/common"

	"github.com/golang-jwt/jwt/v5"
)

// AppClaims is the typed access-token payload. The registered Subject carries
// the user id and the registered ID carries the jti that binds the access
// token to its refresh-token record. Role membership and permission claims
// are decoded directly into typed fields instead of being fished out of a
// generic claim map.
type AppClaims struct {
	UserID      string       `json:"uid"`
	Email       string       `json:"email"`
	Username    string       `json:"username"`
	DisplayName string       `json:"name,omitempty"`
	Roles       []string     `json:"roles,omitempty"`
	Claims      []ClaimEntry `json:"claims,omitempty"`
	jwt.RegisteredClaims
}

// HasRole reports whether the token carries a membership claim for the role.
func (c *AppClaims) HasRole(name string) bool {
	for _, role := range c.Roles {
		if role == name {
			return true
		}
	}
	return false
}

// HasPermission reports whether the token carries a Permission claim with the
// given value, either assigned to the user directly or inherited from a role.
func (c *AppClaims) HasPermission(value string) bool {
	for _, claim := range c.Claims {
		if claim.Type == common.ClaimTypePermission && claim.Value == value {
			return true
		}
	}
	return false
}
