// internal/app/store/sessions/memory.go
package sessions

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory keeps sessions in process. Used by tests and mtactl --memory.
type Memory struct {
	mu   sync.Mutex
	rows map[string]Session
	now  func() time.Time
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{rows: make(map[string]Session), now: func() time.Time { return time.Now().UTC() }}
}

// WithClock replaces the time source.
func (m *Memory) WithClock(now func() time.Time) *Memory {
	m.now = now
	return m
}

func (m *Memory) Start(_ context.Context, userID, role, ip, userAgent string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	m.closeLocked(func(s Session) bool { return s.UserID == userID }, ReasonNewLogin, now)
	sess := Session{
		ID:           uuid.NewString(),
		UserID:       userID,
		Role:         role,
		LoginAt:      now,
		LastActiveAt: now,
		IP:           ip,
		UserAgent:    userAgent,
	}
	m.rows[sess.ID] = sess
	return sess.ID, nil
}

func (m *Memory) Touch(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.rows[id]
	if !ok || !sess.Open() {
		return false, nil
	}
	sess.LastActiveAt = m.now()
	m.rows[id] = sess
	return true, nil
}

func (m *Memory) Close(_ context.Context, id, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeLocked(func(s Session) bool { return s.ID == id }, reason, m.now())
	return nil
}

func (m *Memory) CloseForUser(_ context.Context, userID, reason string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeLocked(func(s Session) bool { return s.UserID == userID }, reason, m.now()), nil
}

func (m *Memory) CloseInactive(_ context.Context, threshold time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeLocked(func(s Session) bool { return s.LastActiveAt.Before(threshold) }, ReasonInactive, m.now()), nil
}

func (m *Memory) closeLocked(match func(Session) bool, reason string, now time.Time) int64 {
	var n int64
	for id, sess := range m.rows {
		if !sess.Open() || !match(sess) {
			continue
		}
		at := now
		sess.LogoutAt = &at
		sess.EndReason = reason
		sess.DurationSecs = int64(now.Sub(sess.LoginAt).Seconds())
		m.rows[id] = sess
		n++
	}
	return n
}

func (m *Memory) GetByID(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &sess, nil
}

func (m *Memory) GetActiveByUser(_ context.Context, userID string) ([]Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Session
	for _, sess := range m.rows {
		if sess.UserID == userID && sess.Open() {
			out = append(out, sess)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LoginAt.After(out[j].LoginAt) })
	return out, nil
}
