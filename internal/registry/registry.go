package registry

import (
	"errors"
	"math/rand"
	"sync"

	"github.com/rs/zerolog"

	"github.com/captionclash/server/internal/game"
)

var ErrSessionNotFound = errors.New("session not found")

// Registry owns the map of live sessions by join code. A session's
// termination callback points back here, so a code is free for reuse the
// moment its session tears down.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*game.Session

	cfg     game.SessionConfig
	newDeck func() (game.Deck, error)
	log     zerolog.Logger
}

func New(cfg game.SessionConfig, newDeck func() (game.Deck, error), log zerolog.Logger) *Registry {
	return &Registry{
		sessions: make(map[string]*game.Session),
		cfg:      cfg,
		newDeck:  newDeck,
		log:      log,
	}
}

func (r *Registry) CreateSession() (*game.Session, error) {
	deck, err := r.newDeck()
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	code := randomCode(5)
	for r.sessions[code] != nil {
		code = randomCode(5)
	}
	s := game.NewSession(code, r.cfg, deck, r.release, r.log)
	r.sessions[code] = s
	r.log.Info().Str("session", code).Msg("session created")
	return s, nil
}

func (r *Registry) Get(code string) (*game.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := r.sessions[code]
	if s == nil {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *Registry) release(s *game.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, s.Code)
	r.log.Info().Str("session", s.Code).Msg("session released")
}

func randomCode(n int) string {
	letters := []rune("ABCDEFGHJKLMNPQRSTUVWXYZ23456789")
	b := make([]rune, n)
	for i := range b {
		b[i] = letters[rand.Intn(len(letters))]
	}
	return string(b)
}
