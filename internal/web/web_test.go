package web

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/agrogestor/internal/auth"
	"github.com/erazemk/agrogestor/internal/db"
	"github.com/erazemk/agrogestor/internal/farm"
	"github.com/erazemk/agrogestor/internal/model"
	"github.com/erazemk/agrogestor/internal/store"
)

const testJWTSecret = "test-secret"

type testEnv struct {
	handler http.Handler
	db      *sql.DB
	farm    *farm.Store
}

func newTestEnv(t *testing.T, opts Options) *testEnv {
	t.Helper()
	database := db.NewTestDB(t)
	farmStore := farm.NewStore(farm.NewSQLiteBackend(database), farm.Options{})
	handler, err := NewRouter(database, farmStore, testJWTSecret, opts)
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	return &testEnv{handler: handler, db: database, farm: farmStore}
}

// sessionFor creates a user with the given role and returns a session cookie.
func (e *testEnv) sessionFor(t *testing.T, email, role string) *http.Cookie {
	t.Helper()
	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	user, err := store.CreateUser(context.Background(), e.db, "Test", email, string(hash), role)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	token, err := auth.GenerateToken(testJWTSecret, time.Hour, user)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	return &http.Cookie{Name: auth.CookieName, Value: token}
}

func (e *testEnv) get(path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) post(path string, cookie *http.Cookie, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func TestUnauthenticatedRedirectsToLogin(t *testing.T) {
	env := newTestEnv(t, Options{})

	for _, path := range []string{"/", "/estoque", "/rebanho", "/os", "/conta"} {
		rec := env.get(path, nil)
		if rec.Code != http.StatusSeeOther {
			t.Errorf("GET %s: expected 303, got %d", path, rec.Code)
			continue
		}
		if loc := rec.Header().Get("Location"); loc != "/login" {
			t.Errorf("GET %s: expected redirect to /login, got %q", path, loc)
		}
	}

	rec := env.get("/", &http.Cookie{Name: auth.CookieName, Value: "garbage"})
	if rec.Code != http.StatusSeeOther {
		t.Errorf("expected invalid cookie to redirect, got %d", rec.Code)
	}
}

func TestLoginSetsSessionCookie(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.sessionFor(t, "ana@fazenda.com", model.RoleUser)

	rec := env.post("/login", nil, url.Values{"email": {"ANA@fazenda.com"}, "password": {"password"}})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d: %s", rec.Code, rec.Body.String())
	}

	var session *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.CookieName {
			session = c
		}
	}
	if session == nil || session.Value == "" {
		t.Fatal("expected session cookie")
	}
	if !session.HttpOnly {
		t.Error("expected HttpOnly session cookie")
	}

	if rec := env.get("/", session); rec.Code != http.StatusOK {
		t.Errorf("expected dashboard with new session, got %d", rec.Code)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.sessionFor(t, "ana@fazenda.com", model.RoleUser)

	rec := env.post("/login", nil, url.Values{"email": {"ana@fazenda.com"}, "password": {"wrong"}})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Email ou senha inválidos.") {
		t.Error("expected error message on login page")
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	env := newTestEnv(t, Options{})
	cookie := env.sessionFor(t, "ana@fazenda.com", model.RoleUser)

	rec := env.post("/logout", cookie, nil)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}

	if rec := env.get("/", cookie); rec.Code != http.StatusSeeOther {
		t.Errorf("expected revoked session to redirect, got %d", rec.Code)
	}
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t, Options{AllowRegister: true})

	form := url.Values{"name": {"Bia"}, "email": {"bia@sitio.br"}, "password": {"senha-forte"}}
	if rec := env.post("/register", nil, form); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec := env.post("/register", nil, form); rec.Code != http.StatusConflict {
		t.Errorf("expected 409 for duplicate email, got %d", rec.Code)
	}

	user, _ := store.GetUserByEmail(context.Background(), env.db, "bia@sitio.br")
	if user == nil || user.Role != model.RoleUser {
		t.Errorf("expected registered user with role user, got %+v", user)
	}
}

func TestRegisterDisabled(t *testing.T) {
	env := newTestEnv(t, Options{})

	if rec := env.get("/register", nil); rec.Code != http.StatusSeeOther {
		t.Errorf("expected redirect, got %d", rec.Code)
	}
	form := url.Values{"name": {"Bia"}, "email": {"bia@sitio.br"}, "password": {"senha-forte"}}
	if rec := env.post("/register", nil, form); rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
}

func TestInventoryForms(t *testing.T) {
	env := newTestEnv(t, Options{})
	cookie := env.sessionFor(t, "ana@fazenda.com", model.RoleUser)
	ctx := context.Background()

	rec := env.post("/estoque", cookie, url.Values{
		"name": {"Sal mineral"}, "unit": {"kg"}, "balance": {"10"}, "minimum": {"2,5"},
	})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}

	doc := env.farm.Load(ctx)
	if len(doc.Inventory) != 1 {
		t.Fatalf("expected 1 item, got %d", len(doc.Inventory))
	}
	item := doc.Inventory[0]
	if item.Minimum != 2.5 {
		t.Errorf("expected decimal comma parsed, got minimum %v", item.Minimum)
	}

	env.post("/estoque/"+item.ID+"/movimentacoes", cookie, url.Values{
		"kind": {"SAIDA"}, "quantity": {"8"}, "note": {"cocho"},
	})

	doc = env.farm.Load(ctx)
	if got := doc.Inventory[0].Balance; got != 2 {
		t.Errorf("expected balance 2, got %v", got)
	}

	page := env.get("/estoque?item="+item.ID, cookie)
	if page.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", page.Code)
	}
	body := page.Body.String()
	for _, want := range []string{"Sal mineral", "Saída", "cocho"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q on inventory page", want)
		}
	}

	dash := env.get("/", cookie)
	if !strings.Contains(dash.Body.String(), "Sal mineral") {
		t.Error("expected item in dashboard alerts")
	}
}

func TestDeleteNeedsManager(t *testing.T) {
	env := newTestEnv(t, Options{})
	user := env.sessionFor(t, "user@x.com", model.RoleUser)
	manager := env.sessionFor(t, "manager@x.com", model.RoleManager)
	ctx := context.Background()

	doc, _ := env.farm.AddInventoryItem(ctx, "Ração", "sc", 5, 1)
	id := doc.Inventory[0].ID

	if rec := env.post("/estoque/"+id+"/excluir", user, nil); rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for user, got %d", rec.Code)
	}
	if rec := env.post("/estoque/"+id+"/excluir", manager, nil); rec.Code != http.StatusSeeOther {
		t.Errorf("expected 303 for manager, got %d", rec.Code)
	}
	if doc := env.farm.Load(ctx); len(doc.Inventory) != 0 {
		t.Errorf("expected item deleted, got %d items", len(doc.Inventory))
	}
}

func TestAnimalForms(t *testing.T) {
	env := newTestEnv(t, Options{})
	cookie := env.sessionFor(t, "ana@fazenda.com", model.RoleUser)
	ctx := context.Background()

	form := url.Values{"tag": {"BR-001"}, "sex": {"Fêmea"}, "category": {"Vaca"}}
	if rec := env.post("/rebanho", cookie, form); rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}

	rec := env.post("/rebanho", cookie, form)
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409 for duplicate tag, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), farm.ErrDuplicateTag.Error()) {
		t.Error("expected duplicate tag message on page")
	}

	if rec := env.post("/rebanho", cookie, url.Values{"tag": {"  "}}); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for empty tag, got %d", rec.Code)
	}

	doc := env.farm.Load(ctx)
	id := doc.Animals[0].ID
	env.post("/rebanho/"+id+"/pesagens", cookie, url.Values{"weight": {"412,5"}, "date": {"2026-03-01"}})

	page := env.get("/rebanho", cookie)
	if !strings.Contains(page.Body.String(), "412,5 kg") {
		t.Errorf("expected latest weight on herd page")
	}
}

func TestWorkOrderForms(t *testing.T) {
	env := newTestEnv(t, Options{})
	cookie := env.sessionFor(t, "ana@fazenda.com", model.RoleUser)
	ctx := context.Background()

	env.post("/os", cookie, url.Values{"title": {"Consertar cerca"}, "responsible": {"João"}})
	doc := env.farm.Load(ctx)
	if len(doc.WorkOrders) != 1 {
		t.Fatalf("expected 1 work order, got %d", len(doc.WorkOrders))
	}
	id := doc.WorkOrders[0].ID

	env.post("/os/"+id+"/status", cookie, url.Values{"status": {"EM_ANDAMENTO"}})
	doc = env.farm.Load(ctx)
	if doc.WorkOrders[0].Status != model.StatusInProgress || doc.WorkOrders[0].StartedAt == nil {
		t.Errorf("expected started order, got %+v", doc.WorkOrders[0])
	}

	page := env.get("/os", cookie)
	if !strings.Contains(page.Body.String(), "Em andamento") {
		t.Error("expected status name on page")
	}

	env.post("/os/"+id+"/finalizar", cookie, nil)
	env.post("/os/"+id+"/reabrir", cookie, nil)
	doc = env.farm.Load(ctx)
	order := doc.WorkOrders[0]
	if order.Status != model.StatusOpen {
		t.Errorf("expected reopened order, got %s", order.Status)
	}
	if order.StartedAt == nil || order.FinishedAt == nil {
		t.Error("expected phase timestamps kept after reopening")
	}

	if rec := env.post("/os/"+id+"/arquivar", cookie, nil); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown action, got %d", rec.Code)
	}
}

func TestUsersPageAdminOnly(t *testing.T) {
	env := newTestEnv(t, Options{})
	user := env.sessionFor(t, "user@x.com", model.RoleUser)
	admin := env.sessionFor(t, "admin@x.com", model.RoleAdmin)

	if rec := env.get("/usuarios", user); rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for user, got %d", rec.Code)
	}

	rec := env.post("/usuarios", admin, url.Values{
		"name": {"Carla"}, "email": {"carla@x.com"}, "password": {"senha-forte"}, "role": {"manager"},
	})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}

	page := env.get("/usuarios", admin)
	if page.Code != http.StatusOK || !strings.Contains(page.Body.String(), "carla@x.com") {
		t.Errorf("expected new user listed, got %d", page.Code)
	}
}

func TestChangeOwnPassword(t *testing.T) {
	env := newTestEnv(t, Options{})
	cookie := env.sessionFor(t, "ana@fazenda.com", model.RoleUser)

	rec := env.post("/conta", cookie, url.Values{"current_password": {"wrong"}, "new_password": {"nova-senha"}})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for wrong current password, got %d", rec.Code)
	}

	rec = env.post("/conta", cookie, url.Values{"current_password": {"password"}, "new_password": {"nova-senha"}})
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Senha alterada") {
		t.Errorf("expected success, got %d", rec.Code)
	}

	rec = env.post("/login", nil, url.Values{"email": {"ana@fazenda.com"}, "password": {"nova-senha"}})
	if rec.Code != http.StatusSeeOther {
		t.Errorf("expected login with new password, got %d", rec.Code)
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{2.5, "2,5"},
		{1000, "1000"},
		{-3.25, "-3,25"},
	}
	for _, tt := range tests {
		if got := formatNumber(tt.in); got != tt.want {
			t.Errorf("formatNumber(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
