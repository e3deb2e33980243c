// internal/app/store/sponsoraccess/memory.go
package sponsoraccess

import (
	"context"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Memory keeps access codes in process. Used by tests and mtactl --memory.
type Memory struct {
	mu          sync.Mutex
	codes       map[string]Access
	cost        int
	placeholder []byte
	compares    int
}

// NewMemory returns an empty Memory store. bcrypt runs at MinCost.
func NewMemory() *Memory {
	h, _ := bcrypt.GenerateFromPassword([]byte("no-access-code"), bcrypt.MinCost)
	return &Memory{codes: make(map[string]Access), cost: bcrypt.MinCost, placeholder: h}
}

// Compares returns how many bcrypt comparisons Check has run.
func (m *Memory) Compares() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.compares
}

func (m *Memory) SetCode(_ context.Context, sponsorID, code, by string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(code), m.cost)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[sponsorID] = Access{SponsorID: sponsorID, CodeHash: string(hash), UpdatedAt: time.Now().UTC(), UpdatedBy: by}
	return nil
}

func (m *Memory) Check(_ context.Context, sponsorID, code string) (bool, error) {
	m.mu.Lock()
	a, ok := m.codes[sponsorID]
	m.compares++
	m.mu.Unlock()
	if !ok {
		_ = bcrypt.CompareHashAndPassword(m.placeholder, []byte(code))
		return false, ErrNoCode
	}
	return bcrypt.CompareHashAndPassword([]byte(a.CodeHash), []byte(code)) == nil, nil
}

func (m *Memory) Delete(_ context.Context, sponsorID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.codes, sponsorID)
	return nil
}
