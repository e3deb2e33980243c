// internal/app/content/registry.go
package content

import (
	"fmt"
	"sort"

	"github.com/mta-community/mtahub/internal/app/system/htmlsanitize"
	"github.com/mta-community/mtahub/internal/domain/models"
)

// Collection names as they appear in URLs and Mongo.
const (
	Sponsors        = "sponsors"
	Events          = "events"
	Gallery         = "gallery"
	MembershipTiers = "membership_tiers"
	Leadership      = "leadership"
)

// Repos supplies one repository per collection.
type Repos struct {
	Sponsors   Repo[models.Sponsor]
	Events     Repo[models.Event]
	Gallery    Repo[models.GalleryImage]
	Tiers      Repo[models.MembershipTier]
	Leadership Repo[models.Leader]
}

// Registry holds the typed services and their untyped views by name.
type Registry struct {
	Sponsors   *Service[models.Sponsor, *models.Sponsor]
	Events     *Service[models.Event, *models.Event]
	Gallery    *Service[models.GalleryImage, *models.GalleryImage]
	Tiers      *Service[models.MembershipTier, *models.MembershipTier]
	Leadership *Service[models.Leader, *models.Leader]

	byName map[string]Collection
}

// NewRegistry wires a service for every collection.
func NewRegistry(r Repos) *Registry {
	reg := &Registry{
		Sponsors:   NewService(Sponsors, r.Sponsors, prepareSponsor),
		Events:     NewService(Events, r.Events, prepareEvent),
		Gallery:    NewService[models.GalleryImage](Gallery, r.Gallery, nil),
		Tiers:      NewService[models.MembershipTier](MembershipTiers, r.Tiers, nil),
		Leadership: NewService(Leadership, r.Leadership, prepareLeader),
	}
	reg.byName = map[string]Collection{
		Sponsors:        reg.Sponsors,
		Events:          reg.Events,
		Gallery:         reg.Gallery,
		MembershipTiers: reg.Tiers,
		"tiers":         reg.Tiers,
		Leadership:      reg.Leadership,
	}
	return reg
}

// Get returns the collection registered under name.
func (r *Registry) Get(name string) (Collection, error) {
	c, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCollection, name)
	}
	return c, nil
}

// Names lists the canonical collection names.
func (r *Registry) Names() []string {
	names := []string{Sponsors, Events, Gallery, MembershipTiers, Leadership}
	sort.Strings(names)
	return names
}

func prepareSponsor(s *models.Sponsor) {
	s.Description = htmlsanitize.Sanitize(s.Description)
	s.DescriptionTA = htmlsanitize.Sanitize(s.DescriptionTA)
	s.SpecialOffers = htmlsanitize.Sanitize(s.SpecialOffers)
}

func prepareEvent(e *models.Event) {
	e.Description = htmlsanitize.Sanitize(e.Description)
	e.DescriptionTA = htmlsanitize.Sanitize(e.DescriptionTA)
}

func prepareLeader(l *models.Leader) {
	l.Bio = htmlsanitize.Sanitize(l.Bio)
}
