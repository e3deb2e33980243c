// internal/app/content/memory.go
package content

import (
	"context"
	"sort"
	"sync"

	"github.com/mta-community/mtahub/internal/domain/models"
)

// MemoryRepo is an in-process Repo used by tests and mtactl --memory.
type MemoryRepo[T any, PT Item[T]] struct {
	mu    sync.RWMutex
	items map[string]T
}

// NewMemoryRepo returns an empty MemoryRepo.
func NewMemoryRepo[T any, PT Item[T]]() *MemoryRepo[T, PT] {
	return &MemoryRepo[T, PT]{items: make(map[string]T)}
}

func meta[T any, PT Item[T]](v *T) *models.ContentMeta { return PT(v).Meta() }

func (m *MemoryRepo[T, PT]) List(_ context.Context, publishedOnly bool) ([]T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]T, 0, len(m.items))
	for _, it := range m.items {
		if publishedOnly && !meta[T, PT](&it).Published {
			continue
		}
		out = append(out, it)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := meta[T, PT](&out[i]), meta[T, PT](&out[j])
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	return out, nil
}

func (m *MemoryRepo[T, PT]) Get(_ context.Context, id string) (T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	it, ok := m.items[id]
	if !ok {
		var zero T
		return zero, ErrNotFound
	}
	return it, nil
}

func (m *MemoryRepo[T, PT]) Insert(_ context.Context, item T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[meta[T, PT](&item).ID] = item
	return nil
}

func (m *MemoryRepo[T, PT]) Replace(_ context.Context, item T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := meta[T, PT](&item).ID
	if _, ok := m.items[id]; !ok {
		return ErrNotFound
	}
	m.items[id] = item
	return nil
}

func (m *MemoryRepo[T, PT]) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return ErrNotFound
	}
	delete(m.items, id)
	return nil
}

// MemoryRepos returns a Repos backed entirely by memory.
func MemoryRepos() Repos {
	return Repos{
		Sponsors:   NewMemoryRepo[models.Sponsor](),
		Events:     NewMemoryRepo[models.Event](),
		Gallery:    NewMemoryRepo[models.GalleryImage](),
		Tiers:      NewMemoryRepo[models.MembershipTier](),
		Leadership: NewMemoryRepo[models.Leader](),
	}
}
