package realtime

import (
	"errors"
	"sync"

	"github.com/ViewsFromSaturn/Project-Tactics/internal/metrics"
	"github.com/ViewsFromSaturn/Project-Tactics/internal/wire"
)

var (
	// ErrAlreadyConnected is returned when a connection already owns a session.
	ErrAlreadyConnected = errors.New("registry: connection already has a session")

	// ErrNotConnected is returned when no session exists for the connection.
	ErrNotConnected = errors.New("registry: no session for connection")

	// ErrAlreadyBound is returned on an attempt to bind a second character
	// to a session. Switching characters requires a reconnect.
	ErrAlreadyBound = errors.New("registry: session already has a character")

	// ErrCharacterInUse is returned when the character is already bound by
	// another live session. The first session keeps the character.
	ErrCharacterInUse = errors.New("registry: character already bound by another session")

	// ErrNotBound is returned for operations that require a character.
	ErrNotBound = errors.New("registry: session has no character")
)

// Registry owns every live session. The forward map (connection id to
// session) and the reverse character index are guarded by one lock so
// they can never disagree.
type Registry struct {
	mu          sync.RWMutex
	byConn      map[string]*Session
	byCharacter map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
		byConn:      make(map[string]*Session),
		byCharacter: make(map[string]string),
	}
}

// Create registers a session for a freshly authenticated connection.
func (r *Registry) Create(connID, accountID string, isAdmin bool, conn ConnReadWriter) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byConn[connID]; exists {
		return nil, ErrAlreadyConnected
	}

	session := NewSession(connID, accountID, isAdmin, conn)
	r.byConn[connID] = session

	metrics.ActiveSessions.Inc()
	metrics.TotalSessions.Inc()
	return session, nil
}

// BindCharacter places the session in the world. Both maps are updated
// under the same lock acquisition.
func (r *Registry) BindCharacter(connID, characterID, name, rank, allegiance string, x, y float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.byConn[connID]
	if !ok {
		return ErrNotConnected
	}
	if session.InWorld() {
		return ErrAlreadyBound
	}
	if _, taken := r.byCharacter[characterID]; taken {
		return ErrCharacterInUse
	}

	session.CharacterID = characterID
	session.Name = name
	session.Rank = rank
	session.Allegiance = allegiance
	session.x = x
	session.y = y
	r.byCharacter[characterID] = connID

	metrics.PlayersInWorld.Inc()
	return nil
}

// UpdatePosition mutates the session coordinates and returns the new
// position, ready to broadcast. A session that was already removed or
// never entered the world yields an error, callers treat both as a
// no-op.
func (r *Registry) UpdatePosition(connID string, x, y float64) (wire.PlayerPosition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.byConn[connID]
	if !ok {
		return wire.PlayerPosition{}, ErrNotConnected
	}
	if !session.InWorld() {
		return wire.PlayerPosition{}, ErrNotBound
	}

	session.x = x
	session.y = y
	return wire.PlayerPosition{ID: session.CharacterID, X: x, Y: y}, nil
}

// Remove deletes the session and its reverse index entry. It is
// idempotent; the removed session is returned so the caller can
// broadcast a leave notification with the last-known state.
func (r *Registry) Remove(connID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.byConn[connID]
	if !ok {
		return nil, false
	}
	delete(r.byConn, connID)
	if session.InWorld() {
		delete(r.byCharacter, session.CharacterID)
		metrics.PlayersInWorld.Dec()
	}

	metrics.ActiveSessions.Dec()
	return session, true
}

// Get returns the live session for a connection.
func (r *Registry) Get(connID string) (*Session, bool) {
	r.mu.RLock()
	session, ok := r.byConn[connID]
	r.mu.RUnlock()
	return session, ok
}

// FindByCharacter resolves a character id to its connection.
func (r *Registry) FindByCharacter(characterID string) (string, bool) {
	r.mu.RLock()
	connID, ok := r.byCharacter[characterID]
	r.mu.RUnlock()
	return connID, ok
}

// FindByName returns the in-world session whose character display name
// matches exactly.
func (r *Registry) FindByName(name string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, session := range r.byConn {
		if session.InWorld() && session.Name == name {
			return session, true
		}
	}
	return nil, false
}

// InWorldSessions returns every bound session except the excluded
// connection. The slice is a snapshot; sessions joining afterwards are
// not visible to the caller.
func (r *Registry) InWorldSessions(excludeConnID string) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var sessions []*Session
	for connID, session := range r.byConn {
		if connID == excludeConnID || !session.InWorld() {
			continue
		}
		sessions = append(sessions, session)
	}
	return sessions
}

// Roster returns the wire state of every in-world session except the
// excluded connection, for the initial sync of a new arrival.
func (r *Registry) Roster(excludeConnID string) []wire.PlayerState {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var roster []wire.PlayerState
	for connID, session := range r.byConn {
		if connID == excludeConnID || !session.InWorld() {
			continue
		}
		roster = append(roster, session.state())
	}
	return roster
}

// StateOf returns the wire state of a single in-world session.
func (r *Registry) StateOf(connID string) (wire.PlayerState, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.byConn[connID]
	if !ok || !session.InWorld() {
		return wire.PlayerState{}, false
	}
	return session.state(), true
}

// Len returns the number of live sessions, bound or not.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byConn)
}

// forEachSession is a thread-safe method to iterate over all session entries.
func (r *Registry) forEachSession(f func(session *Session) bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, session := range r.byConn {
		if next := f(session); !next {
			return
		}
	}
}
