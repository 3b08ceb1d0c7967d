package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/agrogestor/internal/auth"
	"github.com/erazemk/agrogestor/internal/model"
	"github.com/erazemk/agrogestor/internal/store"
)

type loginPage struct {
	PageData
	AllowRegister bool
	Email         string
}

type registerPage struct {
	PageData
	Name  string
	Email string
}

func (s *Server) renderLogin(w http.ResponseWriter, status int, data loginPage) {
	data.Title = "Entrar"
	data.AllowRegister = s.AllowRegister
	s.Templates.RenderStatus(w, status, "login.html", &data)
}

// LoginPage handles GET /login. A valid session goes straight to the dashboard.
func (s *Server) LoginPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := sessionClaims(r, s.JWTSecret, s.DB); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.renderLogin(w, http.StatusOK, loginPage{})
}

// LoginSubmit handles POST /login.
func (s *Server) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	email := model.NormalizeEmail(r.FormValue("email"))
	password := r.FormValue("password")

	if email == "" || password == "" {
		s.renderLogin(w, http.StatusBadRequest, loginPage{
			PageData: PageData{Error: "Informe email e senha."},
			Email:    email,
		})
		return
	}

	user, err := store.GetUserByEmail(r.Context(), s.DB, email)
	if err != nil {
		slog.Error("failed to look up user", "error", err)
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		slog.Warn("login failed", "email", email, "remote", r.RemoteAddr)
		s.renderLogin(w, http.StatusUnauthorized, loginPage{
			PageData: PageData{Error: "Email ou senha inválidos."},
			Email:    email,
		})
		return
	}

	token, err := auth.GenerateToken(s.JWTSecret, s.TokenTTL, user)
	if err != nil {
		s.renderLogin(w, http.StatusInternalServerError, loginPage{
			PageData: PageData{Error: "Erro ao entrar."},
			Email:    email,
		})
		return
	}

	auth.SetSessionCookie(w, token, s.TokenTTL, s.SecureCookie)
	slog.Info("user logged in", "user", user.Email, "role", user.Role)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// RegisterPage handles GET /register.
func (s *Server) RegisterPage(w http.ResponseWriter, r *http.Request) {
	if !s.AllowRegister {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	s.Templates.Render(w, "register.html", &registerPage{PageData: PageData{Title: "Criar conta"}})
}

// RegisterSubmit handles POST /register. New accounts get the user role and
// are sent to the login page.
func (s *Server) RegisterSubmit(w http.ResponseWriter, r *http.Request) {
	if !s.AllowRegister {
		http.Error(w, "cadastro desativado", http.StatusForbidden)
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	email := model.NormalizeEmail(r.FormValue("email"))
	password := r.FormValue("password")

	fail := func(status int, msg string) {
		s.Templates.RenderStatus(w, status, "register.html", &registerPage{
			PageData: PageData{Title: "Criar conta", Error: msg},
			Name:     name,
			Email:    email,
		})
	}

	if name == "" || email == "" || password == "" {
		fail(http.StatusBadRequest, "Informe nome, email e senha.")
		return
	}
	if err := model.ValidatePassword(password); err != nil {
		fail(http.StatusBadRequest, "A senha deve ter pelo menos 8 caracteres.")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		fail(http.StatusInternalServerError, "Erro ao cadastrar.")
		return
	}

	user, err := store.CreateUser(r.Context(), s.DB, name, email, string(hash), model.RoleUser)
	if errors.Is(err, store.ErrEmailTaken) {
		fail(http.StatusConflict, "Email já cadastrado.")
		return
	}
	if err != nil {
		slog.Error("failed to register user", "error", err)
		fail(http.StatusInternalServerError, "Erro ao cadastrar.")
		return
	}

	slog.Info("user registered", "user", user.Email)
	s.renderLogin(w, http.StatusOK, loginPage{
		PageData: PageData{Success: "Conta criada. Entre com seu email e senha."},
		Email:    user.Email,
	})
}

// Logout handles POST /logout. The session token is revoked when still valid.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	if claims, ok := sessionClaims(r, s.JWTSecret, s.DB); ok {
		if err := store.RevokeToken(r.Context(), s.DB, claims.ID, claims.Expiry()); err != nil {
			slog.Error("failed to revoke token", "error", err)
		} else {
			slog.Info("user logged out", "user", claims.Email)
		}
	}
	auth.ClearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
