// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/jeranaias/vasi-tui/internal/model"
	"github.com/jeranaias/vasi-tui/internal/storage"
)

var (
	// ErrSessionNotFound is returned when a session id is not in the list.
	ErrSessionNotFound = errors.New("session not found")

	// ErrStoredListUnreadable is returned by writes while the persisted list
	// could not be read at startup. The stored value is left untouched until
	// a Reload succeeds.
	ErrStoredListUnreadable = errors.New("stored session list is unreadable; not overwriting it")
)

// =============================================================================
// SESSION STORE
// =============================================================================

// Store holds the session list (newest first) and the active session id.
// All methods are safe for concurrent use and return copies.
type Store struct {
	mu sync.Mutex

	repo   *storage.Repository
	logger *log.Logger

	sessions []model.Session
	activeID string

	// dirty is set when the last persist failed
	dirty bool
	// loadFailed blocks every write until the stored list reads cleanly
	loadFailed bool

	onChange func()
}

// NewStore creates an empty store. Call Init before use.
func NewStore(repo *storage.Repository, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Store{
		repo:   repo,
		logger: logger.With("component", "session"),
	}
}

// SetChangeCallback registers fn to run after every list change. fn runs
// without the store lock held.
func (s *Store) SetChangeCallback(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// Init loads the persisted list and activates its first session. When
// nothing is stored (or the stored list is unreadable) exactly one empty
// session is created and made active. A load error is returned after the
// store has been made usable.
func (s *Store) Init() error {
	sessions, loadErr := s.repo.LoadSessions()
	if loadErr != nil {
		s.logger.Warn("could not load sessions, starting fresh", "err", loadErr)
		sessions = nil
	}

	s.mu.Lock()
	s.sessions = sessions
	if len(s.sessions) > 0 {
		s.activeID = s.sessions[0].ID
		s.mu.Unlock()
		s.logger.Debug("sessions loaded", "count", len(sessions))
		return nil
	}
	s.mu.Unlock()

	// Don't overwrite a value we failed to parse
	if loadErr != nil {
		s.mu.Lock()
		fresh := model.NewSession()
		s.sessions = []model.Session{fresh}
		s.activeID = fresh.ID
		s.dirty = true
		s.loadFailed = true
		s.mu.Unlock()
		return loadErr
	}

	_, err := s.CreateSession()
	return err
}

// Reload re-reads the persisted list, keeping the active session when it
// still exists. Used when another process changed the stored list. A clean
// read also lifts the write block left by an unreadable list at Init.
func (s *Store) Reload() error {
	sessions, err := s.repo.LoadSessions()
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.loadFailed = false
	if len(sessions) == 0 {
		s.mu.Unlock()
		return nil
	}
	s.sessions = sessions
	if indexOf(s.sessions, s.activeID) < 0 {
		s.activeID = s.sessions[0].ID
	}
	s.dirty = false
	cb := s.onChange
	s.mu.Unlock()

	if cb != nil {
		cb()
	}
	return nil
}

// =============================================================================
// OPERATIONS
// =============================================================================

// CreateSession inserts a new empty session at the front of the list and
// makes it active. The returned error only reports a persistence failure;
// the session is created regardless.
func (s *Store) CreateSession() (model.Session, error) {
	fresh := model.NewSession()

	s.mu.Lock()
	s.sessions = append([]model.Session{fresh}, s.sessions...)
	s.activeID = fresh.ID
	err := s.persistLocked()
	cb := s.onChange
	s.mu.Unlock()

	s.logger.Debug("session created", "id", fresh.ID)
	if cb != nil {
		cb()
	}
	return fresh.Clone(), err
}

// LoadSession makes the session with the given id active and returns it.
// An unknown id leaves the active session unchanged.
func (s *Store) LoadSession(id string) (model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.sessions, id)
	if i < 0 {
		return model.Session{}, ErrSessionNotFound
	}
	s.activeID = id
	return s.sessions[i].Clone(), nil
}

// SetMessages replaces a session's messages, recomputes its title and
// persists the list. The session keeps its position in the list.
func (s *Store) SetMessages(id string, messages []model.Message) error {
	return s.mutate(id, func(sess *model.Session) {
		sess.SetMessages(messages)
	})
}

// AppendMessage adds msg to the end of a session's messages.
func (s *Store) AppendMessage(id string, msg model.Message) error {
	return s.mutate(id, func(sess *model.Session) {
		sess.SetMessages(append(sess.Messages, msg))
	})
}

// mutate applies fn to one session under the lock, then persists.
func (s *Store) mutate(id string, fn func(*model.Session)) error {
	s.mu.Lock()
	i := indexOf(s.sessions, id)
	if i < 0 {
		s.mu.Unlock()
		return ErrSessionNotFound
	}
	fn(&s.sessions[i])
	err := s.persistLocked()
	cb := s.onChange
	s.mu.Unlock()

	if cb != nil {
		cb()
	}
	return err
}

// =============================================================================
// ACCESSORS
// =============================================================================

// ActiveID returns the id of the active session.
func (s *Store) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// Active returns a copy of the active session.
func (s *Store) Active() model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := indexOf(s.sessions, s.activeID); i >= 0 {
		return s.sessions[i].Clone()
	}
	return model.Session{}
}

// Session returns a copy of the session with the given id.
func (s *Store) Session(id string) (model.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := indexOf(s.sessions, id); i >= 0 {
		return s.sessions[i].Clone(), true
	}
	return model.Session{}, false
}

// Messages returns a copy of a session's messages, or nil for an unknown id.
func (s *Store) Messages(id string) []model.Message {
	sess, ok := s.Session(id)
	if !ok {
		return nil
	}
	return sess.Messages
}

// Sessions returns a copy of the list, newest first.
func (s *Store) Sessions() []model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.CloneSessions(s.sessions)
}

// Len returns the number of sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// IsDirty reports whether the last write to storage failed.
func (s *Store) IsDirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Flush retries a failed write.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return nil
	}
	return s.persistLocked()
}

// =============================================================================
// PERSISTENCE
// =============================================================================

// persistLocked writes the full list. Caller must hold s.mu.
func (s *Store) persistLocked() error {
	if len(s.sessions) == 0 {
		return nil
	}
	if s.loadFailed {
		s.dirty = true
		return ErrStoredListUnreadable
	}
	if err := s.repo.SaveSessions(s.sessions); err != nil {
		s.dirty = true
		s.logger.Error("could not persist sessions", "err", err)
		return err
	}
	s.dirty = false
	return nil
}

func indexOf(sessions []model.Session, id string) int {
	for i := range sessions {
		if sessions[i].ID == id {
			return i
		}
	}
	return -1
}
