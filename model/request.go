// file: model/request.go

package model

// RegisterRequest defines the payload for creating a new user.
// It includes validation tags to ensure data integrity at the entry point.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginRequest defines the payload for user authentication.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// RefreshRequest carries the expired access token together with the refresh
// token that was issued alongside it.
type RefreshRequest struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RevokeRequest defines the payload for the administrative token revocation.
type RevokeRequest struct {
	JwtID string `json:"jwt_id" validate:"required"`
}

// ChangePasswordRequest defines the payload for changing the caller's password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required,min=8"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// UpdateProfileRequest defines the payload for updating profile details.
type UpdateProfileRequest struct {
	FirstName string `json:"first_name" validate:"max=100"`
	LastName  string `json:"last_name" validate:"max=100"`
}

// RoleRequest defines the payload for creating or updating a role.
type RoleRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=50"`
	Description string `json:"description" validate:"max=255"`
}

// UpdateRoleClaimsRequest replaces the full claim set attached to a role.
type UpdateRoleClaimsRequest struct {
	Claims []ClaimEntry `json:"claims" validate:"required,dive"`
}

// UpdateUserRolesRequest replaces the full set of roles assigned to a user.
type UpdateUserRolesRequest struct {
	Roles []string `json:"roles" validate:"required"`
}

// UserClaimRequest adds or removes a single claim on a user.
type UserClaimRequest struct {
	Type  string `json:"type" validate:"required,min=1,max=100"`
	Value string `json:"value" validate:"required,min=1,max=255"`
}
