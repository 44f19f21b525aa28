// Package auth guards the JSON API with hashed API keys and the admin pages
// with a bcrypt-checked Basic auth password.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// KeyPrefix starts every generated API key.
const KeyPrefix = "ss-"

var ErrEmptySecret = errors.New("empty secret")

// DenyFunc renders a rejected request.
type DenyFunc func(w http.ResponseWriter, r *http.Request, status int, message string)

type Authenticator struct {
	keyHashes  [][]byte
	adminUser  string
	adminHash  []byte
	deny       DenyFunc
	adminRealm string
}

type Config struct {
	// APIKeyHashes are hex sha256 digests of the accepted API keys. An empty
	// list leaves the API open.
	APIKeyHashes []string
	AdminUser    string
	// AdminPasswordHash is a bcrypt hash. Empty disables the admin pages.
	AdminPasswordHash string
}

func New(cfg Config, deny DenyFunc) *Authenticator {
	if deny == nil {
		deny = func(w http.ResponseWriter, _ *http.Request, status int, message string) {
			http.Error(w, message, status)
		}
	}
	a := &Authenticator{
		adminUser:  cfg.AdminUser,
		adminHash:  []byte(cfg.AdminPasswordHash),
		deny:       deny,
		adminRealm: "student-success admin",
	}
	if a.adminUser == "" {
		a.adminUser = "admin"
	}
	for _, h := range cfg.APIKeyHashes {
		h = strings.ToLower(strings.TrimSpace(h))
		if h != "" {
			a.keyHashes = append(a.keyHashes, []byte(h))
		}
	}
	return a
}

// HashKey returns the hex sha256 digest stored for an API key.
func HashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// GenerateKey creates a random API key and its stored hash.
func GenerateKey() (key, hash string, err error) {
	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		return "", "", err
	}
	key = KeyPrefix + hex.EncodeToString(raw)
	return key, HashKey(key), nil
}

// HashPassword returns the bcrypt hash of an admin password.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrEmptySecret
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// APIKeysEnabled reports whether the API requires a key.
func (a *Authenticator) APIKeysEnabled() bool { return len(a.keyHashes) > 0 }

// AdminEnabled reports whether an admin password is configured.
func (a *Authenticator) AdminEnabled() bool { return len(a.adminHash) > 0 }

// ValidKey checks a presented API key against the configured hashes.
func (a *Authenticator) ValidKey(key string) bool {
	if key == "" {
		return false
	}
	got := []byte(HashKey(key))
	ok := false
	for _, h := range a.keyHashes {
		if subtle.ConstantTimeCompare(got, h) == 1 {
			ok = true
		}
	}
	return ok
}

// RequireAPIKey checks the Authorization: Bearer header when keys are
// configured.
func (a *Authenticator) RequireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.APIKeysEnabled() {
			next.ServeHTTP(w, r)
			return
		}
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			a.deny(w, r, http.StatusUnauthorized, "missing Authorization header")
			return
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			a.deny(w, r, http.StatusUnauthorized, "invalid Authorization header format")
			return
		}
		if !a.ValidKey(strings.TrimSpace(parts[1])) {
			a.deny(w, r, http.StatusUnauthorized, "invalid API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin checks HTTP Basic credentials. Without a configured password
// every request is refused.
func (a *Authenticator) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.AdminEnabled() {
			a.deny(w, r, http.StatusForbidden, "admin pages are disabled")
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(user), []byte(a.adminUser)) != 1 ||
			bcrypt.CompareHashAndPassword(a.adminHash, []byte(pass)) != nil {
			w.Header().Set("WWW-Authenticate", `Basic realm="`+a.adminRealm+`", charset="UTF-8"`)
			a.deny(w, r, http.StatusUnauthorized, "invalid credentials")
			return
		}
		next.ServeHTTP(w, r)
	})
}
