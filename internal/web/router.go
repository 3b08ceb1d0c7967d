package web

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/erazemk/agrogestor/internal/farm"
	webembed "github.com/erazemk/agrogestor/web"
)

// Options tune the views beyond their collaborators.
type Options struct {
	TokenTTL      time.Duration
	AllowRegister bool
	SecureCookie  bool
	Now           func() time.Time
}

// NewRouter creates the web page router with all page routes registered.
func NewRouter(db *sql.DB, farmStore *farm.Store, jwtSecret string, opts Options) (http.Handler, error) {
	templates, err := LoadTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		DB:            db,
		Farm:          farmStore,
		Templates:     templates,
		JWTSecret:     jwtSecret,
		TokenTTL:      opts.TokenTTL,
		AllowRegister: opts.AllowRegister,
		SecureCookie:  opts.SecureCookie,
		Now:           opts.Now,
	}

	mux := http.NewServeMux()
	cookieAuth := CookieAuthMiddleware(jwtSecret, db)
	authed := func(h http.HandlerFunc) http.Handler { return cookieAuth(h) }

	// Static assets.
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(webembed.StaticFS()))))

	// Public routes.
	mux.HandleFunc("GET /login", s.LoginPage)
	mux.HandleFunc("POST /login", s.LoginSubmit)
	mux.HandleFunc("GET /register", s.RegisterPage)
	mux.HandleFunc("POST /register", s.RegisterSubmit)
	mux.HandleFunc("POST /logout", s.Logout)

	// Authenticated routes.
	mux.Handle("GET /{$}", authed(s.Dashboard))

	mux.Handle("GET /estoque", authed(s.EstoquePage))
	mux.Handle("POST /estoque", authed(s.ItemCreateSubmit))
	mux.Handle("POST /estoque/{id}/movimentacoes", authed(s.MovementSubmit))
	mux.Handle("POST /estoque/{id}/excluir", authed(s.ItemDeleteSubmit))
	mux.Handle("POST /estoque/{id}/foto", authed(s.ItemPhotoSubmit))
	mux.Handle("GET /estoque/{id}/foto", authed(s.ItemPhotoGet))

	mux.Handle("GET /rebanho", authed(s.RebanhoPage))
	mux.Handle("POST /rebanho", authed(s.AnimalCreateSubmit))
	mux.Handle("POST /rebanho/{id}/pesagens", authed(s.WeighingSubmit))
	mux.Handle("POST /rebanho/{id}/excluir", authed(s.AnimalDeleteSubmit))

	mux.Handle("GET /os", authed(s.OSPage))
	mux.Handle("POST /os", authed(s.WorkOrderCreateSubmit))
	mux.Handle("POST /os/{id}/status", authed(s.WorkOrderStatusSubmit))
	mux.Handle("POST /os/{id}/excluir", authed(s.WorkOrderDeleteSubmit))
	mux.Handle("POST /os/{id}/{action}", authed(s.WorkOrderTransitionSubmit))

	mux.Handle("GET /usuarios", authed(s.UsersPage))
	mux.Handle("POST /usuarios", authed(s.UserCreateSubmit))
	mux.Handle("POST /usuarios/{id}/papel", authed(s.UserUpdateRoleSubmit))
	mux.Handle("POST /usuarios/{id}/senha", authed(s.UserResetPasswordSubmit))
	mux.Handle("POST /usuarios/{id}/excluir", authed(s.UserDeleteSubmit))

	mux.Handle("GET /conta", authed(s.AccountPage))
	mux.Handle("POST /conta", authed(s.AccountSubmit))

	return mux, nil
}
