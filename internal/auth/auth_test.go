package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/wordeo/wordeo/apps/go-server/assets"
	"github.com/wordeo/wordeo/apps/go-server/internal/database"
)

func testService(t *testing.T) *Service {
	t.Helper()
	db, err := database.OpenMigrated(filepath.Join(t.TempDir(), "auth.db"), assets.Migrations())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewService(db, Config{Secret: "test-secret", Expiry: time.Hour, CookieName: "tok"})
}

func TestValidateSignup(t *testing.T) {
	tests := []struct {
		user, pass string
		ok         bool
	}{
		{"alice", "password1", true},
		{"al", "password1", false},
		{"bad name", "password1", false},
		{"alice", "short", false},
	}
	for _, tt := range tests {
		if err := validateSignup(tt.user, tt.pass); (err == nil) != tt.ok {
			t.Errorf("validateSignup(%q, %q) = %v", tt.user, tt.pass, err)
		}
	}
}

func TestSignupLogin(t *testing.T) {
	ctx := context.Background()
	s := testService(t)

	u, err := s.Signup(ctx, " alice ", "password1")
	if err != nil {
		t.Fatal(err)
	}
	if u.Username != "alice" || u.ID == "" {
		t.Errorf("signup user %+v", u)
	}
	if _, err := s.Signup(ctx, "ALICE", "password2"); !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("duplicate signup err %v", err)
	}

	if _, err := s.Login(ctx, "Alice", "password1"); err != nil {
		t.Errorf("login: %v", err)
	}
	if _, err := s.Login(ctx, "alice", "wrong-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("bad password err %v", err)
	}
	if _, err := s.Login(ctx, "nobody", "password1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown user err %v", err)
	}
}

func TestInsertUser_DuplicateNameIsTaken(t *testing.T) {
	ctx := context.Background()
	s := testService(t)
	if _, err := s.Signup(ctx, "dana", "password1"); err != nil {
		t.Fatal(err)
	}

	// Same name arriving after the existence check already passed.
	late := &User{ID: GenID(), Username: "Dana", PasswordHash: "x", CreatedAt: time.Now().UTC()}
	if err := s.insertUser(ctx, late); !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("insert err %v, want ErrUsernameTaken", err)
	}
}

func TestAddCoins_FloorsAtZero(t *testing.T) {
	ctx := context.Background()
	s := testService(t)
	u, err := s.Signup(ctx, "bob", "password1")
	if err != nil {
		t.Fatal(err)
	}
	if n, err := s.AddCoins(ctx, u.ID, 15); err != nil || n != 15 {
		t.Fatalf("add 15: %d %v", n, err)
	}
	if n, _ := s.AddCoins(ctx, u.ID, -40); n != 0 {
		t.Errorf("balance %d, want 0", n)
	}
	if _, err := s.AddCoins(ctx, "missing", 1); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("missing user err %v", err)
	}
}

func TestSpendCoins(t *testing.T) {
	ctx := context.Background()
	s := testService(t)
	u, err := s.Signup(ctx, "erin", "password1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddCoins(ctx, u.ID, 30); err != nil {
		t.Fatal(err)
	}
	if n, err := s.SpendCoins(ctx, u.ID, 25); err != nil || n != 5 {
		t.Fatalf("spend 25: %d %v", n, err)
	}
	if _, err := s.SpendCoins(ctx, u.ID, 25); !errors.Is(err, ErrInsufficientCoins) {
		t.Errorf("overspend err %v", err)
	}
	if got, _ := s.FindByID(ctx, u.ID); got.Coins != 5 {
		t.Errorf("balance after refused spend %d, want 5", got.Coins)
	}
	if _, err := s.SpendCoins(ctx, "missing", 1); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("missing user err %v", err)
	}
}

func TestJWTRoundTrip(t *testing.T) {
	s := testService(t)
	tok, exp, err := s.SignJWT("id-1", "carol")
	if err != nil {
		t.Fatal(err)
	}
	if time.Until(exp) <= 0 {
		t.Error("expiry in the past")
	}
	id, err := s.ParseJWT(tok)
	if err != nil || id.ID != "id-1" || id.Username != "carol" {
		t.Fatalf("parse: %+v %v", id, err)
	}

	other := NewService(nil, Config{Secret: "different"})
	if _, err := other.ParseJWT(tok); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("foreign secret err %v", err)
	}
}

func TestAuthenticate_CookieAndBearer(t *testing.T) {
	ctx := context.Background()
	s := testService(t)
	u, err := s.Signup(ctx, "dave", "password1")
	if err != nil {
		t.Fatal(err)
	}
	tok, exp, _ := s.SignJWT(u.ID, u.Username)

	rec := httptest.NewRecorder()
	s.SetCookie(rec, tok, exp)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	if id, err := s.Authenticate(req); err != nil || id.ID != u.ID {
		t.Errorf("cookie auth: %+v %v", id, err)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	if _, err := s.Authenticate(req); err != nil {
		t.Errorf("bearer auth: %v", err)
	}

	if err := s.Delete(ctx, u.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Authenticate(req); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("deleted user err %v", err)
	}
}
