package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jw6ventures/filedav/internal/config"
	"github.com/jw6ventures/filedav/internal/store"
)

// Service authenticates DAV requests against app passwords.
type Service struct {
	cfg   *config.Config
	store *store.Store
}

var errInvalidCredentials = errors.New("invalid credentials")

func NewService(cfg *config.Config, st *store.Store) *Service {
	return &Service{cfg: cfg, store: st}
}

// RequireDAVAuth enforces Basic Auth for DAV endpoints and places the
// authenticated user in the request context.
func (s *Service) RequireDAVAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok {
			w.Header().Set("WWW-Authenticate", "Basic realm=\"FileDAV\"")
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}
		if username == "" || password == "" {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}

		user, err := s.ValidateAppPassword(r.Context(), username, password)
		if err != nil {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// ValidateAppPassword checks a username/password pair against the user's
// unrevoked app passwords.
func (s *Service) ValidateAppPassword(ctx context.Context, username, password string) (*store.User, error) {
	user, err := s.store.Users.GetByUsername(ctx, username)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, errInvalidCredentials
		}
		return nil, err
	}

	tokens, err := s.store.AppPasswords.FindValidByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	for _, token := range tokens {
		if bcrypt.CompareHashAndPassword([]byte(token.TokenHash), []byte(password)) == nil {
			_ = s.store.AppPasswords.TouchLastUsed(ctx, token.ID)
			return user, nil
		}
	}
	return nil, errInvalidCredentials
}

// GenerateAppPassword mints a random app password for a user and stores its
// bcrypt hash. The cleartext token is returned once and never persisted.
func (s *Service) GenerateAppPassword(ctx context.Context, userID int64, label string) (string, error) {
	token := uuid.NewString()
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	if _, err := s.store.AppPasswords.Create(ctx, store.AppPassword{
		UserID:    userID,
		Label:     label,
		TokenHash: string(hash),
	}); err != nil {
		return "", err
	}
	return token, nil
}

// EnsureBootstrapUser provisions the configured bootstrap user and app
// password if they are set. Returns the cleartext token when one was minted
// so operators can record it.
func (s *Service) EnsureBootstrapUser(ctx context.Context) (string, error) {
	if s.cfg.Bootstrap.Username == "" {
		return "", nil
	}

	user, err := s.store.Users.Create(ctx, s.cfg.Bootstrap.Username)
	if err != nil {
		return "", err
	}

	if s.cfg.Bootstrap.Password != "" {
		if _, err := s.ValidateAppPassword(ctx, user.Username, s.cfg.Bootstrap.Password); err == nil {
			return "", nil
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(s.cfg.Bootstrap.Password), bcrypt.DefaultCost)
		if err != nil {
			return "", err
		}
		_, err = s.store.AppPasswords.Create(ctx, store.AppPassword{
			UserID:    user.ID,
			Label:     "bootstrap",
			TokenHash: string(hash),
		})
		return "", err
	}

	tokens, err := s.store.AppPasswords.FindValidByUser(ctx, user.ID)
	if err != nil {
		return "", err
	}
	if len(tokens) > 0 {
		return "", nil
	}
	return s.GenerateAppPassword(ctx, user.ID, "bootstrap")
}
