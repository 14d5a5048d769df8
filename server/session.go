package server

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/santiagomed/edpgen/core"
	"github.com/santiagomed/edpgen/logger"
)

// Session is one browser tab's wizard. State lives only in memory.
type Session struct {
	ID        string
	CreatedAt time.Time
	Wizard    *core.Wizard
}

// Sessions keeps the most recently used sessions, evicting the oldest when full.
type Sessions struct {
	cache     *lru.Cache[string, *Session]
	newWizard func() *core.Wizard
	logger    logger.Logger
}

func NewSessions(size int, newWizard func() *core.Wizard, l logger.Logger) (*Sessions, error) {
	if l == nil {
		l = logger.NewNullLogger()
	}
	cache, err := lru.NewWithEvict[string, *Session](size, func(id string, _ *Session) {
		l.Debug(fmt.Sprintf("Evicted session %s", id))
	})
	if err != nil {
		return nil, fmt.Errorf("error creating session cache: %w", err)
	}
	return &Sessions{cache: cache, newWizard: newWizard, logger: l}, nil
}

// Create starts a session with a fresh wizard.
func (s *Sessions) Create() *Session {
	session := &Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Wizard:    s.newWizard(),
	}
	s.cache.Add(session.ID, session)
	s.logger.Debug(fmt.Sprintf("Created session %s", session.ID))
	return session
}

// Get looks up a session and marks it recently used.
func (s *Sessions) Get(id string) (*Session, bool) {
	return s.cache.Get(id)
}

func (s *Sessions) Delete(id string) bool {
	return s.cache.Remove(id)
}

func (s *Sessions) Len() int {
	return s.cache.Len()
}
