package handler

import (
	"encoding/json"
	"errors"
	"go-identity-api/common"
	"go-identity-api/logger"
	"go-identity-api/model"
	"go-identity-api/service"
	"net/http"

	"github.com/sirupsen/logrus"
)

// UserHandler serves the user administration endpoints.
type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// ListUsers godoc
// @Summary      List all users
// @Tags         users
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}  model.User
// @Router       /api/admin/users [get]
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) *common.AppError {
	users, err := h.userService.ListUsers(r.Context())
	if err != nil {
		return common.NewAppError(http.StatusInternalServerError, "Could not list users", err)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(users)
	return nil
}

// UpdateUserRoles godoc
// @Summary      Replace a user's role assignments
// @Tags         users
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id      path  string                       true  "User ID"
// @Param        request body  model.UpdateUserRolesRequest true  "Role names"
// @Success      204  "roles updated"
// @Failure      400  {object}  common.AppError
// @Failure      404  {object}  common.AppError
// @Router       /api/admin/users/{id}/roles [put]
func (h *UserHandler) UpdateUserRoles(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID := r.PathValue("id")

	var req model.UpdateUserRolesRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	err := h.userService.UpdateUserRoles(r.Context(), userID, req.Roles)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return common.NewAppError(http.StatusNotFound, err.Error(), nil)
		}
		if errors.Is(err, service.ErrRoleNotAssignable) {
			return common.NewAppError(http.StatusBadRequest, err.Error(), nil)
		}
		return common.NewAppError(http.StatusInternalServerError, "Could not update user roles", err)
	}

	logger.Log.WithFields(logrus.Fields{
		"user_id": userID,
		"roles":   req.Roles,
	}).Info("User roles updated")
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// AddUserClaim godoc
// @Summary      Attach a claim to a user
// @Tags         users
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id      path  string                 true  "User ID"
// @Param        request body  model.UserClaimRequest true  "Claim type and value"
// @Success      204  "claim added"
// @Failure      404  {object}  common.AppError
// @Router       /api/admin/users/{id}/claims [post]
func (h *UserHandler) AddUserClaim(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID := r.PathValue("id")

	var req model.UserClaimRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	claim := model.ClaimEntry{Type: req.Type, Value: req.Value}
	if err := h.userService.AddUserClaim(r.Context(), userID, claim); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return common.NewAppError(http.StatusNotFound, err.Error(), nil)
		}
		return common.NewAppError(http.StatusInternalServerError, "Could not add user claim", err)
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}

// RemoveUserClaim godoc
// @Summary      Remove a claim from a user
// @Tags         users
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id      path  string                 true  "User ID"
// @Param        request body  model.UserClaimRequest true  "Claim type and value"
// @Success      204  "claim removed"
// @Router       /api/admin/users/{id}/claims [delete]
func (h *UserHandler) RemoveUserClaim(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID := r.PathValue("id")

	var req model.UserClaimRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	claim := model.ClaimEntry{Type: req.Type, Value: req.Value}
	if err := h.userService.RemoveUserClaim(r.Context(), userID, claim); err != nil {
		return common.NewAppError(http.StatusInternalServerError, "Could not remove user claim", err)
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}
