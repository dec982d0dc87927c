package router

import (
	"go-identity-api/common"
	"go-identity-api/handler"
	"go-identity-api/service"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "go-identity-api/docs" // swagger docs registration
)

func NewRouter(
	authHandler *handler.AuthHandler,
	accountHandler *handler.AccountHandler,
	userHandler *handler.UserHandler,
	roleHandler *handler.RoleHandler,
	tokenService *service.TokenService,
) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handler.HealthCheck)
	mux.Handle("GET /swagger/", httpSwagger.Handler())

	// Public authentication endpoints.
	mux.Handle("POST /register", handler.ErrorHandlingMiddleware(authHandler.Register))
	mux.Handle("POST /login", handler.ErrorHandlingMiddleware(authHandler.Login))
	mux.Handle("POST /token/refresh", handler.ErrorHandlingMiddleware(authHandler.Refresh))

	authenticated := handler.AuthMiddleware(tokenService)
	adminOnly := handler.RequireRole(common.RoleAdministrator)

	// Self-service endpoints.
	mux.Handle("GET /api/account/me",
		authenticated(handler.ErrorHandlingMiddleware(accountHandler.Me)))
	mux.Handle("PUT /api/account/password",
		authenticated(handler.ErrorHandlingMiddleware(accountHandler.ChangePassword)))
	mux.Handle("PUT /api/account/profile",
		authenticated(handler.ErrorHandlingMiddleware(accountHandler.UpdateProfile)))

	// Demo endpoint, gated on a permission claim rather than a role.
	mux.Handle("GET /api/weatherforecast",
		authenticated(handler.RequirePermission(common.PermissionForecastView)(
			http.HandlerFunc(handler.GetWeatherForecast))))

	// Administration endpoints.
	mux.Handle("GET /api/admin/users",
		authenticated(adminOnly(handler.ErrorHandlingMiddleware(userHandler.ListUsers))))
	mux.Handle("PUT /api/admin/users/{id}/roles",
		authenticated(adminOnly(handler.ErrorHandlingMiddleware(userHandler.UpdateUserRoles))))
	mux.Handle("POST /api/admin/users/{id}/claims",
		authenticated(adminOnly(handler.ErrorHandlingMiddleware(userHandler.AddUserClaim))))
	mux.Handle("DELETE /api/admin/users/{id}/claims",
		authenticated(adminOnly(handler.ErrorHandlingMiddleware(userHandler.RemoveUserClaim))))

	mux.Handle("GET /api/admin/roles",
		authenticated(adminOnly(handler.ErrorHandlingMiddleware(roleHandler.ListRoles))))
	mux.Handle("POST /api/admin/roles",
		authenticated(adminOnly(handler.ErrorHandlingMiddleware(roleHandler.CreateRole))))
	mux.Handle("PUT /api/admin/roles/{id}",
		authenticated(adminOnly(handler.ErrorHandlingMiddleware(roleHandler.UpdateRole))))
	mux.Handle("DELETE /api/admin/roles/{id}",
		authenticated(adminOnly(handler.ErrorHandlingMiddleware(roleHandler.DeleteRole))))
	mux.Handle("GET /api/admin/roles/{id}/claims",
		authenticated(adminOnly(handler.ErrorHandlingMiddleware(roleHandler.GetRoleClaims))))
	mux.Handle("PUT /api/admin/roles/{id}/claims",
		authenticated(adminOnly(handler.ErrorHandlingMiddleware(roleHandler.UpdateRoleClaims))))

	mux.Handle("POST /api/admin/tokens/revoke",
		authenticated(adminOnly(handler.ErrorHandlingMiddleware(authHandler.Revoke))))

	return mux
}
