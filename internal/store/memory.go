package store

import (
	"context"
	"sync"
	"time"
)

// Memory is the in-process backend. A single mutex serializes every
// operation, which makes the compound steps trivially atomic.
type Memory struct {
	mu          sync.Mutex
	sessions    map[string]*Session
	assignments map[string]Assignment
	watching    map[string]string // playerID -> spectated session
	waiting     string
	waitingAt   int64
}

func NewMemory() *Memory {
	return &Memory{
		sessions:    map[string]*Session{},
		assignments: map[string]Assignment{},
		watching:    map[string]string{},
	}
}

func nowMillis() int64 { return time.Now().UnixMilli() }

func cloneSession(s *Session) *Session {
	out := *s
	out.Spectators = append([]string(nil), s.Spectators...)
	return &out
}

func (m *Memory) GetSession(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneSession(s), nil
}

func (m *Memory) SaveSession(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := cloneSession(s)
	cp.LastUpdated = nowMillis()
	s.LastUpdated = cp.LastUpdated
	prev := m.sessions[s.ID]
	m.sessions[s.ID] = cp
	if prev != nil {
		for _, id := range prev.Spectators {
			if !cp.IsSpectator(id) {
				delete(m.watching, id)
			}
		}
	}
	for _, id := range cp.Spectators {
		m.watching[id] = cp.ID
	}
	return nil
}

func (m *Memory) RemoveSession(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeSessionLocked(id)
	return nil
}

func (m *Memory) removeSessionLocked(id string) {
	s, ok := m.sessions[id]
	if !ok {
		return
	}
	delete(m.sessions, id)
	for _, p := range []string{s.White, s.Black} {
		if p == "" {
			continue
		}
		if a, ok := m.assignments[p]; ok && a.SessionID == id {
			delete(m.assignments, p)
		}
	}
	for _, p := range s.Spectators {
		if m.watching[p] == id {
			delete(m.watching, p)
		}
	}
}

func (m *Memory) GetAssignment(_ context.Context, playerID string) (*Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assignments[playerID]
	if !ok {
		return nil, ErrNotFound
	}
	out := a
	return &out, nil
}

func (m *Memory) SetAssignment(_ context.Context, playerID string, a Assignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assignments[playerID] = a
	return nil
}

func (m *Memory) RemoveAssignment(_ context.Context, playerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.assignments, playerID)
	return nil
}

func (m *Memory) ClaimWaitingSlot(_ context.Context, playerID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.waiting == "" || m.waiting == playerID {
		m.waiting = playerID
		m.waitingAt = nowMillis()
		return "", nil
	}
	prev := m.waiting
	m.waiting = ""
	return prev, nil
}

func (m *Memory) ClearWaitingSlot(_ context.Context, playerID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.waiting != playerID {
		return false, nil
	}
	m.waiting = ""
	return true, nil
}

func (m *Memory) RestoreWaitingSlot(_ context.Context, playerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.waiting = playerID
	m.waitingAt = nowMillis()
	return nil
}

func (m *Memory) JoinOrSpectate(_ context.Context, sessionID, playerID string, autoSeat bool) (*JoinResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok || s.Status == StatusFinished {
		return nil, ErrNotFound
	}
	if c, seated := s.SeatOf(playerID); seated {
		return &JoinResult{Outcome: JoinExisting, Color: c}, nil
	}
	canSeat := autoSeat && s.Status == StatusWaiting && s.SeatOpen()
	if !canSeat {
		if m.watching[playerID] != sessionID {
			m.detachWatchLocked(playerID)
		}
		if !s.IsSpectator(playerID) {
			s.Spectators = append(s.Spectators, playerID)
		}
		m.watching[playerID] = sessionID
		return &JoinResult{
			Outcome:  JoinSpectator,
			SeatOpen: s.SeatOpen() && s.Status == StatusWaiting,
		}, nil
	}
	color := White
	if s.White != "" {
		color = Black
	}
	m.seatLocked(s, playerID, color)
	return &JoinResult{Outcome: JoinSeated, Color: color}, nil
}

func (m *Memory) ClaimSeat(_ context.Context, sessionID, playerID string) (ClaimOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok || s.Status == StatusFinished {
		return "", ErrNotFound
	}
	switch {
	case s.White == playerID:
		return ClaimCreator, nil
	case s.Black == playerID:
		return ClaimAlreadyHeld, nil
	case s.Black != "":
		return ClaimTaken, nil
	}
	m.seatLocked(s, playerID, Black)
	return ClaimAssigned, nil
}

// seatLocked fills a seat, drops the player's spectator membership wherever
// it is, flips the session active once both seats are occupied and records
// the assignment.
func (m *Memory) seatLocked(s *Session, playerID string, color Color) {
	if color == White {
		s.White = playerID
	} else {
		s.Black = playerID
	}
	m.detachWatchLocked(playerID)
	if s.White != "" && s.Black != "" {
		s.Status = StatusActive
	}
	s.LastUpdated = nowMillis()
	m.assignments[playerID] = Assignment{SessionID: s.ID, Color: color}
}

// detachWatchLocked removes the player from the spectator set of whatever
// session they currently watch. A player watches at most one session, so
// taking a seat or watching somewhere else must clear the old membership.
func (m *Memory) detachWatchLocked(playerID string) {
	prev, ok := m.watching[playerID]
	if !ok {
		return
	}
	if s, found := m.sessions[prev]; found {
		for i, id := range s.Spectators {
			if id == playerID {
				s.Spectators = append(s.Spectators[:i], s.Spectators[i+1:]...)
				break
			}
		}
	}
	delete(m.watching, playerID)
}

func (m *Memory) GetSpectated(_ context.Context, playerID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.watching[playerID], nil
}

func (m *Memory) RemoveSpectator(_ context.Context, sessionID, playerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[sessionID]; ok {
		for i, id := range s.Spectators {
			if id == playerID {
				s.Spectators = append(s.Spectators[:i], s.Spectators[i+1:]...)
				break
			}
		}
	}
	if m.watching[playerID] == sessionID {
		delete(m.watching, playerID)
	}
	return nil
}

func (m *Memory) SweepStale(_ context.Context, cutoff int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stale := make([]string, 0)
	for id, s := range m.sessions {
		if s.LastUpdated < cutoff {
			stale = append(stale, id)
		}
	}
	for _, id := range stale {
		m.removeSessionLocked(id)
	}
	if m.waiting != "" && m.waitingAt < cutoff {
		m.waiting = ""
	}
	return len(stale), nil
}

func (m *Memory) Ping(context.Context) error { return nil }
