package attendance

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is a mutex-guarded Store for development and tests. The mutex
// gives it the same atomic insert-if-absent semantics the Postgres
// constraints give the real store.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]Session // by id
	byToken  map[string]string  // token -> session id
	claims   []Claim
	claimed  map[string]bool // subjectID + "\x00" + sessionID
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]Session),
		byToken:  make(map[string]string),
		claimed:  make(map[string]bool),
	}
}

func claimKey(subjectID, sessionID string) string {
	return subjectID + "\x00" + sessionID
}

func (m *MemoryStore) InsertSession(ctx context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byToken[s.Token]; ok {
		return ErrTokenExists
	}
	m.sessions[s.ID] = s
	m.byToken[s.Token] = s.ID
	return nil
}

func (m *MemoryStore) SessionByToken(ctx context.Context, token string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byToken[token]
	if !ok {
		return Session{}, ErrNotFound
	}
	return m.sessions[id], nil
}

func (m *MemoryStore) SessionByID(ctx context.Context, id string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	return s, nil
}

func (m *MemoryStore) SessionsByIssuer(ctx context.Context, issuerID string, limit int) ([]Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var res []Session
	for _, s := range m.sessions {
		if s.IssuerID == issuerID {
			res = append(res, s)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	if limit > 0 && len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

func (m *MemoryStore) DeactivateSession(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return ErrNotFound
	}
	s.Active = false
	m.sessions[id] = s
	return nil
}

func (m *MemoryStore) DeleteExpiredSessions(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, s := range m.sessions {
		if s.ExpiresAt.Before(cutoff) {
			delete(m.sessions, id)
			delete(m.byToken, s.Token)
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) InsertClaim(ctx context.Context, c Claim) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := claimKey(c.SubjectID, c.SessionID)
	if m.claimed[key] {
		return ErrAlreadyClaimed
	}
	m.claimed[key] = true
	m.claims = append(m.claims, c)
	return nil
}

func (m *MemoryStore) ClaimByID(ctx context.Context, id string) (Claim, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.claims {
		if c.ID == id {
			return c, nil
		}
	}
	return Claim{}, ErrNotFound
}

func (m *MemoryStore) ClaimsBySession(ctx context.Context, sessionID string) ([]Claim, error) {
	return m.filterClaims(func(c Claim) bool { return c.SessionID == sessionID }, 0), nil
}

func (m *MemoryStore) ClaimsBySubject(ctx context.Context, subjectID, unitCode string, limit int) ([]Claim, error) {
	return m.filterClaims(func(c Claim) bool {
		return c.SubjectID == subjectID && (unitCode == "" || c.UnitCode == unitCode)
	}, limit), nil
}

func (m *MemoryStore) ClaimsByIssuer(ctx context.Context, issuerID string, limit int) ([]Claim, error) {
	return m.filterClaims(func(c Claim) bool { return c.IssuerID == issuerID }, limit), nil
}

func (m *MemoryStore) AllClaims(ctx context.Context) ([]Claim, error) {
	return m.filterClaims(func(Claim) bool { return true }, 0), nil
}

func (m *MemoryStore) filterClaims(keep func(Claim) bool, limit int) []Claim {
	m.mu.Lock()
	defer m.mu.Unlock()
	var res []Claim
	for _, c := range m.claims {
		if keep(c) {
			res = append(res, c)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ScannedAt.After(res[j].ScannedAt) })
	if limit > 0 && len(res) > limit {
		res = res[:limit]
	}
	return res
}

func (m *MemoryStore) SessionCountsByIssuer(ctx context.Context, issuerID string) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[string]int)
	for _, s := range m.sessions {
		if s.IssuerID == issuerID {
			counts[s.UnitCode]++
		}
	}
	return counts, nil
}

func (m *MemoryStore) CountSessions(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.sessions)), nil
}

func (m *MemoryStore) CountClaims(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.claims)), nil
}
