// internal/app/content/content.go
package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mta-community/mtahub/internal/app/system/authz"
	"github.com/mta-community/mtahub/internal/app/system/inputval"
	"github.com/mta-community/mtahub/internal/domain/models"
)

var (
	// ErrNotFound is returned when no item has the id (or, for public
	// reads, when the item is unpublished).
	ErrNotFound = errors.New("content item not found")

	// ErrPermissionDenied is authz.ErrPermissionDenied.
	ErrPermissionDenied = authz.ErrPermissionDenied

	// ErrUnknownCollection is returned by Registry.Get for an unknown name.
	ErrUnknownCollection = errors.New("unknown content collection")
)

// ValidationError wraps failed struct validation.
type ValidationError struct {
	Result *inputval.Result
}

func (e *ValidationError) Error() string { return e.Result.All() }

// Item is the constraint for content types: a pointer to a struct that
// embeds models.ContentMeta.
type Item[T any] interface {
	*T
	Meta() *models.ContentMeta
}

// Repo persists one collection.
type Repo[T any] interface {
	List(ctx context.Context, publishedOnly bool) ([]T, error)
	Get(ctx context.Context, id string) (T, error)
	Insert(ctx context.Context, item T) error
	Replace(ctx context.Context, item T) error
	Delete(ctx context.Context, id string) error
}

// Service applies the role gate and write-time preparation to one collection.
type Service[T any, PT Item[T]] struct {
	name    string
	repo    Repo[T]
	prepare func(PT)
	now     func() time.Time
}

// Collection is the untyped view of a Service used by the HTTP layer.
type Collection interface {
	Name() string
	Public(ctx context.Context) (any, error)
	PublicGet(ctx context.Context, id string) (any, error)
	List(ctx context.Context, actor authz.Actor) (any, error)
	Get(ctx context.Context, actor authz.Actor, id string) (any, error)
	CreateJSON(ctx context.Context, actor authz.Actor, body []byte) (any, error)
	UpdateJSON(ctx context.Context, actor authz.Actor, id string, body []byte) (any, error)
	Delete(ctx context.Context, actor authz.Actor, id string) error
}

// NewService builds a Service. prepare, if non-nil, runs on every item
// before validation on create and update (sanitizing rich text).
func NewService[T any, PT Item[T]](name string, repo Repo[T], prepare func(PT)) *Service[T, PT] {
	return &Service[T, PT]{name: name, repo: repo, prepare: prepare, now: func() time.Time { return time.Now().UTC() }}
}

// WithClock replaces the clock used for timestamps.
func (s *Service[T, PT]) WithClock(now func() time.Time) *Service[T, PT] {
	s.now = now
	return s
}

// Name is the collection name.
func (s *Service[T, PT]) Name() string { return s.name }

// PublicItems lists published items in display order.
func (s *Service[T, PT]) PublicItems(ctx context.Context) ([]T, error) {
	return s.repo.List(ctx, true)
}

// Items lists every item, published or not. Requires a staff role.
func (s *Service[T, PT]) Items(ctx context.Context, actor authz.Actor) ([]T, error) {
	if err := authz.Require(actor, authz.View); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, false)
}

// Item returns one item. Requires a staff role.
func (s *Service[T, PT]) Item(ctx context.Context, actor authz.Actor, id string) (T, error) {
	var zero T
	if err := authz.Require(actor, authz.View); err != nil {
		return zero, err
	}
	return s.repo.Get(ctx, id)
}

// Create stores a new item. Editor or admin.
func (s *Service[T, PT]) Create(ctx context.Context, actor authz.Actor, item T) (T, error) {
	var zero T
	if err := authz.Require(actor, authz.Edit); err != nil {
		return zero, err
	}
	if err := s.check(&item); err != nil {
		return zero, err
	}
	now := s.now()
	meta := PT(&item).Meta()
	meta.ID = uuid.NewString()
	meta.CreatedAt = now
	meta.UpdatedAt = now
	meta.UpdatedBy = actor.Name
	if err := s.repo.Insert(ctx, item); err != nil {
		return zero, fmt.Errorf("%s: insert: %w", s.name, err)
	}
	return item, nil
}

// Update replaces an existing item. Editor or admin. The id and creation
// time are kept from the stored item.
func (s *Service[T, PT]) Update(ctx context.Context, actor authz.Actor, id string, item T) (T, error) {
	var zero T
	if err := authz.Require(actor, authz.Edit); err != nil {
		return zero, err
	}
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return zero, err
	}
	if err := s.check(&item); err != nil {
		return zero, err
	}
	meta := PT(&item).Meta()
	meta.ID = id
	meta.CreatedAt = PT(&existing).Meta().CreatedAt
	meta.UpdatedAt = s.now()
	meta.UpdatedBy = actor.Name
	if err := s.repo.Replace(ctx, item); err != nil {
		return zero, err
	}
	return item, nil
}

// Remove deletes an item. Admin only.
func (s *Service[T, PT]) Remove(ctx context.Context, actor authz.Actor, id string) error {
	if err := authz.Require(actor, authz.Delete); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// Lookup returns an item whether or not it is published. Like Mutate it
// leaves authorization to the caller.
func (s *Service[T, PT]) Lookup(ctx context.Context, id string) (T, error) {
	return s.repo.Get(ctx, id)
}

// Mutate applies fn to a stored item and saves it. Authorization is the
// caller's job; the sponsor portal uses it after its own tier check.
func (s *Service[T, PT]) Mutate(ctx context.Context, id, updatedBy string, fn func(PT) error) (T, error) {
	var zero T
	item, err := s.repo.Get(ctx, id)
	if err != nil {
		return zero, err
	}
	if err := fn(PT(&item)); err != nil {
		return zero, err
	}
	if err := s.check(&item); err != nil {
		return zero, err
	}
	meta := PT(&item).Meta()
	meta.ID = id
	meta.UpdatedAt = s.now()
	meta.UpdatedBy = updatedBy
	if err := s.repo.Replace(ctx, item); err != nil {
		return zero, err
	}
	return item, nil
}

func (s *Service[T, PT]) check(item *T) error {
	if s.prepare != nil {
		s.prepare(PT(item))
	}
	if res := inputval.Validate(item); res.HasErrors() {
		return &ValidationError{Result: res}
	}
	return nil
}

// ---- Collection ----

func (s *Service[T, PT]) Public(ctx context.Context) (any, error) { return s.PublicItems(ctx) }

func (s *Service[T, PT]) PublicGet(ctx context.Context, id string) (any, error) {
	item, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !PT(&item).Meta().Published {
		return nil, ErrNotFound
	}
	return item, nil
}

func (s *Service[T, PT]) List(ctx context.Context, actor authz.Actor) (any, error) {
	return s.Items(ctx, actor)
}

func (s *Service[T, PT]) Get(ctx context.Context, actor authz.Actor, id string) (any, error) {
	return s.Item(ctx, actor, id)
}

func (s *Service[T, PT]) CreateJSON(ctx context.Context, actor authz.Actor, body []byte) (any, error) {
	// Gate before decoding so a denied caller never sees decode errors.
	if err := authz.Require(actor, authz.Edit); err != nil {
		return nil, err
	}
	var item T
	if err := json.Unmarshal(body, &item); err != nil {
		return nil, &ValidationError{Result: &inputval.Result{Errors: []inputval.FieldError{{Message: "Request body is not valid JSON."}}}}
	}
	return s.Create(ctx, actor, item)
}

func (s *Service[T, PT]) UpdateJSON(ctx context.Context, actor authz.Actor, id string, body []byte) (any, error) {
	if err := authz.Require(actor, authz.Edit); err != nil {
		return nil, err
	}
	var item T
	if err := json.Unmarshal(body, &item); err != nil {
		return nil, &ValidationError{Result: &inputval.Result{Errors: []inputval.FieldError{{Message: "Request body is not valid JSON."}}}}
	}
	return s.Update(ctx, actor, id, item)
}

func (s *Service[T, PT]) Delete(ctx context.Context, actor authz.Actor, id string) error {
	return s.Remove(ctx, actor, id)
}
