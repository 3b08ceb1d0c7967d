package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/agrogestor/internal/model"
	"github.com/erazemk/agrogestor/internal/store"
)

type usuariosPage struct {
	PageData
	Users []model.User
	Roles []string
}

// UsersPage handles GET /usuarios (admin only).
func (s *Server) UsersPage(w http.ResponseWriter, r *http.Request) {
	if !requireRole(w, r, model.RoleAdmin) {
		return
	}
	s.renderUsers(w, r, http.StatusOK, s.page(r, "Usuários"))
}

func (s *Server) renderUsers(w http.ResponseWriter, r *http.Request, status int, pd PageData) {
	users, err := store.ListUsers(r.Context(), s.DB)
	if err != nil {
		slog.Error("failed to list users", "error", err)
	}
	s.Templates.RenderStatus(w, status, "usuarios.html", &usuariosPage{
		PageData: pd,
		Users:    users,
		Roles:    []string{model.RoleUser, model.RoleManager, model.RoleAdmin},
	})
}

func (s *Server) usersError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	pd := s.page(r, "Usuários")
	pd.Error = msg
	s.renderUsers(w, r, status, pd)
}

// UserCreateSubmit handles POST /usuarios (admin only).
func (s *Server) UserCreateSubmit(w http.ResponseWriter, r *http.Request) {
	if !requireRole(w, r, model.RoleAdmin) {
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	email := model.NormalizeEmail(r.FormValue("email"))
	password := r.FormValue("password")
	role := r.FormValue("role")

	if name == "" || email == "" || password == "" {
		s.usersError(w, r, http.StatusBadRequest, "Informe nome, email e senha.")
		return
	}
	if !model.ValidRole(role) {
		s.usersError(w, r, http.StatusBadRequest, "Papel inválido.")
		return
	}
	if err := model.ValidatePassword(password); err != nil {
		s.usersError(w, r, http.StatusBadRequest, "A senha deve ter pelo menos 8 caracteres.")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, "failed to hash password", http.StatusInternalServerError)
		return
	}

	user, err := store.CreateUser(r.Context(), s.DB, name, email, string(hash), role)
	if errors.Is(err, store.ErrEmailTaken) {
		s.usersError(w, r, http.StatusConflict, "Email já cadastrado.")
		return
	}
	if err != nil {
		slog.Error("failed to create user", "error", err)
		s.usersError(w, r, http.StatusInternalServerError, "Erro ao criar usuário.")
		return
	}

	slog.Info("user created", "user", GetWebClaims(r.Context()).Email, "created", user.Email, "role", role)
	http.Redirect(w, r, "/usuarios", http.StatusSeeOther)
}

// UserUpdateRoleSubmit handles POST /usuarios/{id}/papel (admin only). Admins
// cannot demote themselves.
func (s *Server) UserUpdateRoleSubmit(w http.ResponseWriter, r *http.Request) {
	if !requireRole(w, r, model.RoleAdmin) {
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Redirect(w, r, "/usuarios", http.StatusSeeOther)
		return
	}

	role := r.FormValue("role")
	if !model.ValidRole(role) {
		s.usersError(w, r, http.StatusBadRequest, "Papel inválido.")
		return
	}

	claims := GetWebClaims(r.Context())
	if id == claims.UserID && role != model.RoleAdmin {
		s.usersError(w, r, http.StatusBadRequest, "Você não pode remover seu próprio acesso de administrador.")
		return
	}

	if err := store.UpdateUserRole(r.Context(), s.DB, id, role); err != nil {
		slog.Error("failed to update role", "error", err)
		s.usersError(w, r, http.StatusInternalServerError, "Erro ao atualizar papel.")
		return
	}

	slog.Info("user role updated", "user", claims.Email, "target", id, "role", role)
	http.Redirect(w, r, "/usuarios", http.StatusSeeOther)
}

// UserResetPasswordSubmit handles POST /usuarios/{id}/senha (admin only).
func (s *Server) UserResetPasswordSubmit(w http.ResponseWriter, r *http.Request) {
	if !requireRole(w, r, model.RoleAdmin) {
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Redirect(w, r, "/usuarios", http.StatusSeeOther)
		return
	}

	newPassword := r.FormValue("new_password")
	if err := model.ValidatePassword(newPassword); err != nil {
		s.usersError(w, r, http.StatusBadRequest, "A senha deve ter pelo menos 8 caracteres.")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, "failed to hash password", http.StatusInternalServerError)
		return
	}

	if err := store.UpdateUserPassword(r.Context(), s.DB, id, string(hash)); err != nil {
		slog.Error("failed to reset password", "error", err)
		s.usersError(w, r, http.StatusInternalServerError, "Erro ao redefinir senha.")
		return
	}

	slog.Info("user password reset", "user", GetWebClaims(r.Context()).Email, "target", id)
	http.Redirect(w, r, "/usuarios", http.StatusSeeOther)
}

// UserDeleteSubmit handles POST /usuarios/{id}/excluir (admin only).
func (s *Server) UserDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	if !requireRole(w, r, model.RoleAdmin) {
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Redirect(w, r, "/usuarios", http.StatusSeeOther)
		return
	}

	claims := GetWebClaims(r.Context())
	if id == claims.UserID {
		s.usersError(w, r, http.StatusBadRequest, "Você não pode excluir sua própria conta.")
		return
	}

	if err := store.DeleteUser(r.Context(), s.DB, id); err != nil {
		slog.Error("failed to delete user", "error", err)
		s.usersError(w, r, http.StatusInternalServerError, "Erro ao excluir usuário.")
		return
	}

	slog.Info("user deleted", "user", claims.Email, "target", id)
	http.Redirect(w, r, "/usuarios", http.StatusSeeOther)
}

// AccountPage handles GET /conta.
func (s *Server) AccountPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "conta.html", &PageData{
		Title: "Minha conta",
		User:  GetWebClaims(r.Context()),
	})
}

// AccountSubmit handles POST /conta (change own password).
func (s *Server) AccountSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())

	render := func(status int, errMsg, okMsg string) {
		s.Templates.RenderStatus(w, status, "conta.html", &PageData{
			Title:   "Minha conta",
			User:    claims,
			Error:   errMsg,
			Success: okMsg,
		})
	}

	currentPassword := r.FormValue("current_password")
	newPassword := r.FormValue("new_password")

	if currentPassword == "" || newPassword == "" {
		render(http.StatusBadRequest, "Informe a senha atual e a nova.", "")
		return
	}
	if err := model.ValidatePassword(newPassword); err != nil {
		render(http.StatusBadRequest, "A nova senha deve ter pelo menos 8 caracteres.", "")
		return
	}

	user, err := store.GetUser(r.Context(), s.DB, claims.UserID)
	if err != nil || user == nil {
		render(http.StatusInternalServerError, "Erro ao carregar usuário.", "")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		render(http.StatusUnauthorized, "Senha atual incorreta.", "")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		render(http.StatusInternalServerError, "Erro ao salvar senha.", "")
		return
	}

	if err := store.UpdateUserPassword(r.Context(), s.DB, claims.UserID, string(hash)); err != nil {
		render(http.StatusInternalServerError, "Erro ao atualizar senha.", "")
		return
	}

	slog.Info("password changed", "user", claims.Email)
	render(http.StatusOK, "", "Senha alterada com sucesso.")
}
