package handler

import (
	"encoding/json"
	"errors"
	"go-identity-api/common"
	"go-identity-api/model"
	"go-identity-api/service"
	"net/http"
)

// RoleHandler serves the role administration endpoints.
type RoleHandler struct {
	roleService *service.RoleService
}

func NewRoleHandler(roleService *service.RoleService) *RoleHandler {
	return &RoleHandler{roleService: roleService}
}

// ListRoles godoc
// @Summary      List all roles
// @Tags         roles
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}  model.Role
// @Router       /api/admin/roles [get]
func (h *RoleHandler) ListRoles(w http.ResponseWriter, r *http.Request) *common.AppError {
	roles, err := h.roleService.ListRoles(r.Context())
	if err != nil {
		return common.NewAppError(http.StatusInternalServerError, "Could not list roles", err)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(roles)
	return nil
}

// CreateRole godoc
// @Summary      Create a new role
// @Tags         roles
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request body model.RoleRequest true "Role name and description"
// @Success      201  {object}  model.Role
// @Failure      400  {object}  common.AppError
// @Router       /api/admin/roles [post]
func (h *RoleHandler) CreateRole(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.RoleRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	role, err := h.roleService.CreateRole(r.Context(), req.Name, req.Description)
	if err != nil {
		if errors.Is(err, service.ErrRoleAlreadyExists) {
			return common.NewAppError(http.StatusBadRequest, err.Error(), nil)
		}
		return common.NewAppError(http.StatusInternalServerError, "Could not create role", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(role)
	return nil
}

// UpdateRole godoc
// @Summary      Update a role's name or description
// @Tags         roles
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id      path  string            true  "Role ID"
// @Param        request body  model.RoleRequest true  "Role name and description"
// @Success      200  {object}  model.Role
// @Failure      404  {object}  common.AppError
// @Router       /api/admin/roles/{id} [put]
func (h *RoleHandler) UpdateRole(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.RoleRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	role, err := h.roleService.UpdateRole(r.Context(), r.PathValue("id"), req.Name, req.Description)
	if err != nil {
		return roleError(err, "Could not update role")
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(role)
	return nil
}

// DeleteRole godoc
// @Summary      Delete a role
// @Tags         roles
// @Security     BearerAuth
// @Produce      json
// @Param        id path string true "Role ID"
// @Success      204  "role deleted"
// @Failure      404  {object}  common.AppError
// @Router       /api/admin/roles/{id} [delete]
func (h *RoleHandler) DeleteRole(w http.ResponseWriter, r *http.Request) *common.AppError {
	if err := h.roleService.DeleteRole(r.Context(), r.PathValue("id")); err != nil {
		return roleError(err, "Could not delete role")
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}

// GetRoleClaims godoc
// @Summary      List the claims attached to a role
// @Tags         roles
// @Security     BearerAuth
// @Produce      json
// @Param        id path string true "Role ID"
// @Success      200  {array}  model.ClaimEntry
// @Failure      404  {object}  common.AppError
// @Router       /api/admin/roles/{id}/claims [get]
func (h *RoleHandler) GetRoleClaims(w http.ResponseWriter, r *http.Request) *common.AppError {
	claims, err := h.roleService.GetRoleClaims(r.Context(), r.PathValue("id"))
	if err != nil {
		return roleError(err, "Could not get role claims")
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(claims)
	return nil
}

// UpdateRoleClaims godoc
// @Summary      Replace the claims attached to a role
// @Tags         roles
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id      path  string                        true  "Role ID"
// @Param        request body  model.UpdateRoleClaimsRequest true  "The full claim set"
// @Success      204  "claims updated"
// @Failure      404  {object}  common.AppError
// @Router       /api/admin/roles/{id}/claims [put]
func (h *RoleHandler) UpdateRoleClaims(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.UpdateRoleClaimsRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	if err := h.roleService.UpdateRoleClaims(r.Context(), r.PathValue("id"), req.Claims); err != nil {
		return roleError(err, "Could not update role claims")
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}

func roleError(err error, fallback string) *common.AppError {
	switch {
	case errors.Is(err, service.ErrRoleNotFound):
		return common.NewAppError(http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, service.ErrRoleProtected):
		return common.NewAppError(http.StatusForbidden, err.Error(), nil)
	case errors.Is(err, service.ErrRoleAlreadyExists):
		return common.NewAppError(http.StatusBadRequest, err.Error(), nil)
	default:
		return common.NewAppError(http.StatusInternalServerError, fallback, err)
	}
}
