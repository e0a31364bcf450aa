package tracker

import (
	"sync"

	"github.com/patrolhub/patrolhub/internal/model"
)

// Session is the live binding between one connection and one unit.
// It caches the last position reported on this connection.
type Session struct {
	connID   string
	unitID   uint
	callsign string

	mx      sync.Mutex
	lastPos *model.PositionEvent
}

func (s *Session) ConnID() string {
	return s.connID
}

func (s *Session) UnitID() uint {
	return s.unitID
}

func (s *Session) Callsign() string {
	return s.callsign
}

func (s *Session) SetLastPosition(p *model.PositionEvent) {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.lastPos = p
}

func (s *Session) LastPosition() *model.PositionEvent {
	s.mx.Lock()
	defer s.mx.Unlock()

	return s.lastPos
}

// SessionTable holds all bound sessions keyed by connection id. It is
// the only shared mutable state in the process, so every access goes
// through one lock.
type SessionTable struct {
	mx       sync.Mutex
	sessions map[string]*Session
}

func NewSessionTable() *SessionTable {
	return &SessionTable{sessions: make(map[string]*Session)}
}

// Bind creates the session for connID. A connection may hold at most
// one session at a time.
func (t *SessionTable) Bind(connID string, unit *model.Unit) (*Session, error) {
	t.mx.Lock()
	defer t.mx.Unlock()

	if _, ok := t.sessions[connID]; ok {
		return nil, ErrAlreadyBound
	}

	s := &Session{connID: connID, unitID: unit.ID, callsign: unit.Callsign}
	t.sessions[connID] = s

	return s, nil
}

// Unbind removes the session for connID and reports whether it was the
// last session bound to that unit. Unbinding an unbound connection is
// a no-op.
func (t *SessionTable) Unbind(connID string) (*Session, bool) {
	t.mx.Lock()
	defer t.mx.Unlock()

	s, ok := t.sessions[connID]
	if !ok {
		return nil, false
	}

	delete(t.sessions, connID)

	for _, other := range t.sessions {
		if other.unitID == s.unitID {
			return s, false
		}
	}

	return s, true
}

func (t *SessionTable) Lookup(connID string) *Session {
	t.mx.Lock()
	defer t.mx.Unlock()

	return t.sessions[connID]
}

func (t *SessionTable) Count() int {
	t.mx.Lock()
	defer t.mx.Unlock()

	return len(t.sessions)
}

// LastPositionForUnit returns the freshest cached position over all
// sessions bound to the unit.
func (t *SessionTable) LastPositionForUnit(unitID uint) *model.PositionEvent {
	t.mx.Lock()
	sessions := make([]*Session, 0, 4)

	for _, s := range t.sessions {
		if s.unitID == unitID {
			sessions = append(sessions, s)
		}
	}
	t.mx.Unlock()

	var res *model.PositionEvent

	for _, s := range sessions {
		if p := s.LastPosition(); p != nil {
			if res == nil || p.Time.After(res.Time) {
				res = p
			}
		}
	}

	return res
}
