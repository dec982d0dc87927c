package handler

import (
	"encoding/json"
	"errors"
	"go-identity-api/common"
	"go-identity-api/logger"
	"go-identity-api/model"
	"go-identity-api/service"
	"net/http"
)

// AccountHandler serves the self-service endpoints: the caller manages their
// own profile and password.
type AccountHandler struct {
	userService *service.UserService
}

func NewAccountHandler(userService *service.UserService) *AccountHandler {
	return &AccountHandler{userService: userService}
}

// ChangePassword godoc
// @Summary      Change the caller's password
// @Tags         account
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request body model.ChangePasswordRequest true "Current and new password"
// @Success      204  "password changed"
// @Failure      400  {object}  common.AppError
// @Router       /api/account/password [put]
func (h *AccountHandler) ChangePassword(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.ChangePasswordRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user identity in token", nil)
	}

	err := h.userService.ChangePassword(r.Context(), claims.UserID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		if errors.Is(err, service.ErrCurrentPasswordInvalid) {
			return common.NewAppError(http.StatusBadRequest, err.Error(), nil)
		}
		if errors.Is(err, service.ErrUserNotFound) {
			return common.NewAppError(http.StatusNotFound, err.Error(), nil)
		}
		return common.NewAppError(http.StatusInternalServerError, "Password change could not be processed", err)
	}

	logger.Log.WithField("user_id", claims.UserID).Info("User changed password")
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// UpdateProfile godoc
// @Summary      Update the caller's profile details
// @Tags         account
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request body model.UpdateProfileRequest true "Profile details"
// @Success      204  "profile updated"
// @Failure      400  {object}  common.AppError
// @Router       /api/account/profile [put]
func (h *AccountHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.UpdateProfileRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user identity in token", nil)
	}

	err := h.userService.UpdateProfile(r.Context(), claims.UserID, req.FirstName, req.LastName)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return common.NewAppError(http.StatusNotFound, err.Error(), nil)
		}
		return common.NewAppError(http.StatusInternalServerError, "Profile update could not be processed", err)
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}

// Me godoc
// @Summary      Return the caller's token claims
// @Tags         account
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  model.AppClaims
// @Router       /api/account/me [get]
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) *common.AppError {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user identity in token", nil)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(claims)
	return nil
}
