package api

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/erazemk/agrogestor/internal/farm"
	"github.com/erazemk/agrogestor/internal/model"
)

// Options tune the API beyond its collaborators.
type Options struct {
	TokenTTL      time.Duration
	AllowRegister bool
	SecureCookie  bool
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, farmStore *farm.Store, jwtSecret string, opts Options) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{
		DB:            db,
		JWTSecret:     jwtSecret,
		TokenTTL:      opts.TokenTTL,
		AllowRegister: opts.AllowRegister,
		SecureCookie:  opts.SecureCookie,
	}
	usersHandler := &UsersHandler{DB: db}
	farmHandler := &FarmHandler{Store: farmStore, DB: db}

	authMW := AuthMiddleware(jwtSecret, db)
	requireAdmin := RequireRole(model.RoleAdmin)
	requireManager := RequireRole(model.RoleManager)

	authed := func(h http.HandlerFunc) http.Handler { return authMW(h) }
	manager := func(h http.HandlerFunc) http.Handler { return authMW(requireManager(h)) }
	admin := func(h http.HandlerFunc) http.Handler { return authMW(requireAdmin(h)) }

	// Public.
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Session.
	mux.Handle("POST /api/auth/logout", authed(authHandler.Logout))
	mux.Handle("GET /api/auth/me", authed(authHandler.Me))
	mux.Handle("PUT /api/auth/password", authed(authHandler.ChangePassword))

	// Users (admin only).
	mux.Handle("GET /api/users", admin(usersHandler.List))
	mux.Handle("POST /api/users", admin(usersHandler.Create))
	mux.Handle("GET /api/users/{id}", admin(usersHandler.Get))
	mux.Handle("PUT /api/users/{id}", admin(usersHandler.UpdateRole))
	mux.Handle("PUT /api/users/{id}/password", admin(usersHandler.ResetPassword))
	mux.Handle("DELETE /api/users/{id}", admin(usersHandler.Delete))

	// Whole document and dashboard.
	mux.Handle("GET /api/db", authed(farmHandler.Document))
	mux.Handle("GET /api/dashboard", authed(farmHandler.Dashboard))

	// Inventory: deletes and photo uploads need manager+.
	mux.Handle("POST /api/estoque", authed(farmHandler.CreateItem))
	mux.Handle("GET /api/estoque/alertas", authed(farmHandler.Alerts))
	mux.Handle("DELETE /api/estoque/{id}", manager(farmHandler.DeleteItem))
	mux.Handle("POST /api/estoque/{id}/movimentacoes", authed(farmHandler.AddMovement))
	mux.Handle("PUT /api/estoque/{id}/foto", manager(farmHandler.UploadPhoto))
	mux.Handle("GET /api/estoque/{id}/foto", authed(farmHandler.GetPhoto))

	// Herd.
	mux.Handle("POST /api/animais", authed(farmHandler.CreateAnimal))
	mux.Handle("DELETE /api/animais/{id}", manager(farmHandler.DeleteAnimal))
	mux.Handle("POST /api/animais/{id}/pesagens", authed(farmHandler.AddWeighing))

	// Work orders.
	mux.Handle("POST /api/os", authed(farmHandler.CreateWorkOrder))
	mux.Handle("PUT /api/os/{id}/status", authed(farmHandler.UpdateWorkOrderStatus))
	mux.Handle("DELETE /api/os/{id}", manager(farmHandler.DeleteWorkOrder))

	return mux
}
