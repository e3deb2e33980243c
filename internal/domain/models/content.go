// internal/domain/models/content.go
package models

import "time"

// ContentMeta is embedded in every CMS collection item.
type ContentMeta struct {
	ID        string    `bson:"_id" json:"id"`
	Order     int       `bson:"order" json:"order"`
	Published bool      `bson:"published" json:"published"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
	UpdatedBy string    `bson:"updated_by,omitempty" json:"updated_by,omitempty"`
}

// Meta gives generic stores access to the shared fields.
func (m *ContentMeta) Meta() *ContentMeta { return m }

// ItemID returns the item's id.
func (m ContentMeta) ItemID() string { return m.ID }

// Event is a community event shown on the public site.
type Event struct {
	ContentMeta     `bson:",inline"`
	Title           string     `bson:"title" json:"title" validate:"required,max=200"`
	TitleTA         string     `bson:"title_ta,omitempty" json:"title_ta,omitempty" validate:"max=200"`
	Description     string     `bson:"description,omitempty" json:"description,omitempty"`
	DescriptionTA   string     `bson:"description_ta,omitempty" json:"description_ta,omitempty"`
	Date            time.Time  `bson:"date" json:"date" validate:"required"`
	EndDate         *time.Time `bson:"end_date,omitempty" json:"end_date,omitempty"`
	Location        string     `bson:"location,omitempty" json:"location,omitempty" validate:"max=300"`
	ImageURL        string     `bson:"image_url,omitempty" json:"image_url,omitempty" validate:"omitempty,url"`
	RegistrationURL string     `bson:"registration_url,omitempty" json:"registration_url,omitempty" validate:"omitempty,url"`
	Category        string     `bson:"category,omitempty" json:"category,omitempty" validate:"max=60"`
}

// GalleryImage is a photo in the public gallery.
type GalleryImage struct {
	ContentMeta `bson:",inline"`
	URL         string     `bson:"url" json:"url" validate:"required,url"`
	Caption     string     `bson:"caption,omitempty" json:"caption,omitempty" validate:"max=300"`
	CaptionTA   string     `bson:"caption_ta,omitempty" json:"caption_ta,omitempty" validate:"max=300"`
	Album       string     `bson:"album,omitempty" json:"album,omitempty" validate:"max=100"`
	TakenAt     *time.Time `bson:"taken_at,omitempty" json:"taken_at,omitempty"`
}

// MembershipTier describes a membership type for the public pricing table.
type MembershipTier struct {
	ContentMeta `bson:",inline"`
	Type        MembershipType `bson:"type" json:"type" validate:"required,oneof=individual family student senior"`
	Name        string         `bson:"name" json:"name" validate:"required,max=100"`
	NameTA      string         `bson:"name_ta,omitempty" json:"name_ta,omitempty" validate:"max=100"`
	Price       Cents          `bson:"price" json:"price" validate:"gte=0"`
	Benefits    []string       `bson:"benefits,omitempty" json:"benefits,omitempty"`
	BenefitsTA  []string       `bson:"benefits_ta,omitempty" json:"benefits_ta,omitempty"`
}

// Leader is a member of the association's leadership team.
type Leader struct {
	ContentMeta `bson:",inline"`
	Name        string `bson:"name" json:"name" validate:"required,max=120"`
	NameTA      string `bson:"name_ta,omitempty" json:"name_ta,omitempty" validate:"max=120"`
	Position    string `bson:"position" json:"position" validate:"required,max=120"`
	PositionTA  string `bson:"position_ta,omitempty" json:"position_ta,omitempty" validate:"max=120"`
	Bio         string `bson:"bio,omitempty" json:"bio,omitempty"`
	PhotoURL    string `bson:"photo_url,omitempty" json:"photo_url,omitempty" validate:"omitempty,url"`
	Email       string `bson:"email,omitempty" json:"email,omitempty" validate:"omitempty,email"`
	Term        string `bson:"term,omitempty" json:"term,omitempty" validate:"max=40"`
}

// Page is a singleton rich-text page such as About.
type Page struct {
	Slug      string     `bson:"_id" json:"slug"`
	Title     string     `bson:"title" json:"title"`
	TitleTA   string     `bson:"title_ta,omitempty" json:"title_ta,omitempty"`
	Content   string     `bson:"content" json:"content"`
	ContentTA string     `bson:"content_ta,omitempty" json:"content_ta,omitempty"`
	Mission   string     `bson:"mission,omitempty" json:"mission,omitempty"`
	MissionTA string     `bson:"mission_ta,omitempty" json:"mission_ta,omitempty"`
	UpdatedAt *time.Time `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
	UpdatedBy string     `bson:"updated_by,omitempty" json:"updated_by,omitempty"`
}

// PageAbout is the slug of the about page.
const PageAbout = "about"
