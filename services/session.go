package services

import (
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/sessions"
	"golang.org/x/crypto/hkdf"

	"Reelrank/config"
)

const (
	sessionName = "reelrank-session"
	flashKey    = "_flash"
)

// SessionStore keeps short-lived UI state in a signed and encrypted cookie.
// The watchlist itself never lives in the session.
type SessionStore struct {
	store *sessions.CookieStore
}

// NewSessionStore derives separate signing and encryption keys from the
// configured secret.
func NewSessionStore(cfg *config.Config) (*SessionStore, error) {
	hashKey, blockKey, err := deriveKeys(cfg.SessionSecret)
	if err != nil {
		return nil, err
	}

	store := sessions.NewCookieStore(hashKey, blockKey)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	}

	return &SessionStore{store: store}, nil
}

func deriveKeys(secret string) (hashKey, blockKey []byte, err error) {
	kdf := hkdf.New(sha256.New, []byte(secret), nil, []byte("reelrank session v1"))

	hashKey = make([]byte, 64)
	blockKey = make([]byte, 32)
	if _, err := io.ReadFull(kdf, hashKey); err != nil {
		return nil, nil, fmt.Errorf("failed to derive session hash key: %w", err)
	}
	if _, err := io.ReadFull(kdf, blockKey); err != nil {
		return nil, nil, fmt.Errorf("failed to derive session block key: %w", err)
	}
	return hashKey, blockKey, nil
}

// AddFlash queues a message to show on the next rendered page.
func (s *SessionStore) AddFlash(w http.ResponseWriter, r *http.Request, msg string) error {
	session, err := s.store.Get(r, sessionName)
	if err != nil && session == nil {
		return fmt.Errorf("failed to get session: %w", err)
	}
	session.AddFlash(msg, flashKey)
	return session.Save(r, w)
}

// Flashes pops every queued message. A missing or tampered cookie yields no
// messages rather than an error.
func (s *SessionStore) Flashes(w http.ResponseWriter, r *http.Request) []string {
	session, err := s.store.Get(r, sessionName)
	if err != nil && session == nil {
		return nil
	}

	raw := session.Flashes(flashKey)
	if len(raw) == 0 {
		return nil
	}

	msgs := make([]string, 0, len(raw))
	for _, f := range raw {
		if msg, ok := f.(string); ok {
			msgs = append(msgs, msg)
		}
	}

	_ = session.Save(r, w)
	return msgs
}
