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

type AuthHandler struct {
	userService  *service.UserService
	tokenService *service.TokenService
}

func NewAuthHandler(userService *service.UserService, tokenService *service.TokenService) *AuthHandler {
	return &AuthHandler{
		userService:  userService,
		tokenService: tokenService,
	}
}

// Register godoc
// @Summary      Register a new user
// @Description  Creates a user account and returns the first token pair
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body model.RegisterRequest true "Registration details"
// @Success      201  {object}  model.TokenPair
// @Failure      400  {object}  common.AppError
// @Router       /register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.RegisterRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	pair, err := h.userService.Register(r.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrEmailAlreadyRegistered) {
			return common.NewAppError(http.StatusBadRequest, err.Error(), nil)
		}
		return common.NewAppError(http.StatusInternalServerError, "Registration could not be processed", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(pair)
	return nil
}

// Login godoc
// @Summary      Login an existing user
// @Description  Verifies credentials and returns a token pair
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body model.LoginRequest true "Login details"
// @Success      200  {object}  model.TokenPair
// @Failure      401  {object}  common.AppError
// @Router       /login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.LoginRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	pair, err := h.userService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return common.NewAppError(http.StatusUnauthorized, err.Error(), nil)
		}
		return common.NewAppError(http.StatusInternalServerError, "Login could not be processed", err)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(pair)
	return nil
}

// Refresh godoc
// @Summary      Refresh an expired access token
// @Description  Exchanges an expired access token and its refresh token for a new pair
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body model.RefreshRequest true "The expired access token and its refresh token"
// @Success      200  {object}  model.TokenPair
// @Failure      400  {object}  common.AppError
// @Failure      401  {object}  common.AppError
// @Router       /token/refresh [post]
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.RefreshRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	pair, err := h.tokenService.Refresh(r.Context(), req.AccessToken, req.RefreshToken)
	if err != nil {
		return refreshError(err)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(pair)
	return nil
}

// Revoke godoc
// @Summary      Revoke a refresh token
// @Description  Administratively invalidates the refresh token bound to a jti
// @Tags         auth
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request body model.RevokeRequest true "The jti whose refresh token should be revoked"
// @Success      204  "revoked"
// @Failure      404  {object}  common.AppError
// @Router       /api/admin/tokens/revoke [post]
func (h *AuthHandler) Revoke(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.RevokeRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	if err := h.tokenService.Revoke(r.Context(), req.JwtID); err != nil {
		if errors.Is(err, service.ErrRefreshTokenNotFound) {
			return common.NewAppError(http.StatusNotFound, "No active refresh token for this jti", nil)
		}
		return common.NewAppError(http.StatusInternalServerError, "Revocation could not be processed", err)
	}

	logger.Log.WithField("jwt_id", req.JwtID).Info("Refresh token revoked by administrator")
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// refreshError maps the token service's failure modes onto HTTP responses.
// Everything except a premature refresh and a store outage means the session
// is gone and the client has to authenticate again.
func refreshError(err error) *common.AppError {
	switch {
	case errors.Is(err, service.ErrTokenNotYetExpired):
		return common.NewAppError(http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, service.ErrPersistence):
		return common.NewAppError(http.StatusInternalServerError, "Token refresh could not be processed", err)
	case errors.Is(err, service.ErrInvalidSignature),
		errors.Is(err, service.ErrTokenValidationFailed),
		errors.Is(err, service.ErrRefreshTokenNotFound),
		errors.Is(err, service.ErrRefreshTokenUsed),
		errors.Is(err, service.ErrRefreshTokenRevoked),
		errors.Is(err, service.ErrTokenMismatch),
		errors.Is(err, service.ErrUserNotFound):
		return common.NewAppError(http.StatusUnauthorized, err.Error(), nil)
	default:
		return common.NewAppError(http.StatusInternalServerError, "Token refresh could not be processed", err)
	}
}
