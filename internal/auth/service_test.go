package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/jw6ventures/filedav/internal/config"
	"github.com/jw6ventures/filedav/internal/store"
)

type fakeUserRepo struct {
	users map[string]*store.User
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int64) (*store.User, error) {
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (r *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*store.User, error) {
	if u, ok := r.users[username]; ok {
		return u, nil
	}
	return nil, store.ErrNotFound
}

func (r *fakeUserRepo) Create(ctx context.Context, username string) (*store.User, error) {
	if u, ok := r.users[username]; ok {
		return u, nil
	}
	u := &store.User{ID: int64(len(r.users) + 1), Username: username}
	r.users[username] = u
	return u, nil
}

type fakeAppPasswordRepo struct {
	tokens  []store.AppPassword
	touched []int64
}

func (r *fakeAppPasswordRepo) Create(ctx context.Context, token store.AppPassword) (*store.AppPassword, error) {
	token.ID = int64(len(r.tokens) + 1)
	r.tokens = append(r.tokens, token)
	return &token, nil
}

func (r *fakeAppPasswordRepo) FindValidByUser(ctx context.Context, userID int64) ([]store.AppPassword, error) {
	var valid []store.AppPassword
	for _, t := range r.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			valid = append(valid, t)
		}
	}
	return valid, nil
}

func (r *fakeAppPasswordRepo) Revoke(ctx context.Context, id int64) error {
	return nil
}

func (r *fakeAppPasswordRepo) TouchLastUsed(ctx context.Context, id int64) error {
	r.touched = append(r.touched, id)
	return nil
}

func newTestService(t *testing.T, username, password string) (*Service, *fakeAppPasswordRepo) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	users := &fakeUserRepo{users: map[string]*store.User{
		username: {ID: 1, Username: username},
	}}
	passwords := &fakeAppPasswordRepo{tokens: []store.AppPassword{
		{ID: 1, UserID: 1, TokenHash: string(hash)},
	}}
	st := &store.Store{Users: users, AppPasswords: passwords}
	return NewService(&config.Config{}, st), passwords
}

func TestRequireDAVAuthWithoutCredentials(t *testing.T) {
	svc, _ := newTestService(t, "alice", "secret")

	handler := svc.RequireDAVAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("expected handler not to run without credentials")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dav/files/x", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if rec.Header().Get("WWW-Authenticate") == "" {
		t.Errorf("expected WWW-Authenticate challenge")
	}
}

func TestRequireDAVAuthWithValidCredentials(t *testing.T) {
	svc, passwords := newTestService(t, "alice", "secret")

	var gotUser *store.User
	handler := svc.RequireDAVAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, _ = UserFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/dav/files/x", nil)
	req.SetBasicAuth("alice", "secret")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if gotUser == nil || gotUser.Username != "alice" {
		t.Fatalf("expected authenticated user in context, got %+v", gotUser)
	}
	if len(passwords.touched) != 1 {
		t.Errorf("expected last-used timestamp to be touched")
	}
}

func TestRequireDAVAuthWithWrongPassword(t *testing.T) {
	svc, _ := newTestService(t, "alice", "secret")

	handler := svc.RequireDAVAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("expected handler not to run with bad credentials")
	}))

	req := httptest.NewRequest(http.MethodGet, "/dav/files/x", nil)
	req.SetBasicAuth("alice", "wrong")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireDAVAuthUnknownUser(t *testing.T) {
	svc, _ := newTestService(t, "alice", "secret")

	req := httptest.NewRequest(http.MethodGet, "/dav/files/x", nil)
	req.SetBasicAuth("mallory", "secret")
	rec := httptest.NewRecorder()
	svc.RequireDAVAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestGenerateAppPasswordRoundTrip(t *testing.T) {
	svc, passwords := newTestService(t, "alice", "secret")

	token, err := svc.GenerateAppPassword(context.Background(), 1, "laptop")
	if err != nil {
		t.Fatalf("expected token, got error: %v", err)
	}
	if token == "" {
		t.Fatalf("expected non-empty token")
	}
	if len(passwords.tokens) != 2 {
		t.Fatalf("expected stored hash, got %d tokens", len(passwords.tokens))
	}

	user, err := svc.ValidateAppPassword(context.Background(), "alice", token)
	if err != nil {
		t.Fatalf("expected minted token to validate, got %v", err)
	}
	if user.ID != 1 {
		t.Fatalf("expected user 1, got %d", user.ID)
	}
}
