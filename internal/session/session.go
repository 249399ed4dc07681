package session

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gorilla/securecookie"
)

// A worker logs in with a display name only; there is no password and
// no account record. The name lives in an encrypted cookie so a page
// reload restores the session without re-login.

const (
	cookieName = "dmlog_session"
	maxAge     = 30 * 24 * time.Hour

	MaxNameLen = 50
)

var ErrInvalidName = errors.New("display name must be 1-50 characters")

type ctxKey string

const workerKey ctxKey = "workerName"

type Store struct {
	sc *securecookie.SecureCookie
}

func NewStore(hashKey, blockKey []byte) *Store {
	sc := securecookie.New(hashKey, blockKey)
	sc.MaxAge(int(maxAge.Seconds()))
	return &Store{sc: sc}
}

// NormalizeName trims a login input and enforces the 1-50 rune bound.
func NormalizeName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" || utf8.RuneCountInString(name) > MaxNameLen {
		return "", ErrInvalidName
	}
	return name, nil
}

func (s *Store) SetSession(w http.ResponseWriter, r *http.Request, name string) error {
	val := map[string]any{"name": name, "v": 1}
	encoded, err := s.sc.Encode(cookieName, val)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil, // ok for local http; secure in https
		MaxAge:   int(maxAge.Seconds()),
	})
	return nil
}

func (s *Store) ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

func (s *Store) GetSession(r *http.Request) (string, bool) {
	c, err := r.Cookie(cookieName)
	if err != nil {
		return "", false
	}
	val := map[string]any{}
	if err := s.sc.Decode(cookieName, c.Value, &val); err != nil {
		return "", false
	}
	name, ok := val["name"].(string)
	if !ok || name == "" {
		return "", false
	}
	return name, true
}

func (s *Store) RequireWorker(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name, ok := s.GetSession(r)
		if !ok {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		ctx := context.WithValue(r.Context(), workerKey, name)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func WorkerFromContext(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(workerKey).(string)
	return name, ok
}
