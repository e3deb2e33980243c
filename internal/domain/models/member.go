// internal/domain/models/member.go
package models

import "time"

// MembershipType is the kind of membership a registrant signs up for.
type MembershipType string

const (
	MembershipIndividual MembershipType = "individual"
	MembershipFamily     MembershipType = "family"
	MembershipStudent    MembershipType = "student"
	MembershipSenior     MembershipType = "senior"
)

// AllMembershipTypes lists the membership types in display order.
var AllMembershipTypes = []MembershipType{
	MembershipIndividual,
	MembershipFamily,
	MembershipStudent,
	MembershipSenior,
}

// IsValid reports whether t is one of the fixed membership types.
func (t MembershipType) IsValid() bool {
	for _, v := range AllMembershipTypes {
		if t == v {
			return true
		}
	}
	return false
}

// MemberStatus tracks a member through registration, payment and activation.
type MemberStatus string

const (
	StatusPending        MemberStatus = "pending"
	StatusPaymentPending MemberStatus = "payment_pending"
	StatusActive         MemberStatus = "active"
	StatusExpired        MemberStatus = "expired"
	StatusCancelled      MemberStatus = "cancelled"
)

// IsValid reports whether s is a known member status.
func (s MemberStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusPaymentPending, StatusActive, StatusExpired, StatusCancelled:
		return true
	}
	return false
}

// Relationship tags a family member relative to the primary member.
type Relationship string

const (
	RelationshipSpouse Relationship = "spouse"
	RelationshipChild  Relationship = "child"
	RelationshipOther  Relationship = "other"
)

// Address is a postal address. Fields are free text.
type Address struct {
	Street     string `bson:"street,omitempty" json:"street,omitempty"`
	City       string `bson:"city,omitempty" json:"city,omitempty"`
	Province   string `bson:"province,omitempty" json:"province,omitempty"`
	PostalCode string `bson:"postal_code,omitempty" json:"postal_code,omitempty"`
}

// FamilyMember is a spouse or child covered by a family membership.
type FamilyMember struct {
	Name         string       `bson:"name" json:"name"`
	Relationship Relationship `bson:"relationship" json:"relationship"`
	Age          *int         `bson:"age,omitempty" json:"age,omitempty"`
}

// Preferences are the member's communication opt-ins.
type Preferences struct {
	Newsletter         bool `bson:"newsletter" json:"newsletter"`
	EventNotifications bool `bson:"event_notifications" json:"event_notifications"`
	SMS                bool `bson:"sms" json:"sms"`
}

// Member is a registrant of the association.
//
// RegistrationReference is assigned once at registration and never changes.
// MembershipNumber is assigned the first time the member becomes active.
type Member struct {
	ID                    string         `bson:"_id" json:"id"`
	RegistrationReference string         `bson:"registration_reference" json:"registration_reference"`
	FirstName             string         `bson:"first_name" json:"first_name"`
	LastName              string         `bson:"last_name" json:"last_name"`
	FullNameCI            string         `bson:"full_name_ci" json:"-"` // folded for search
	Email                 string         `bson:"email" json:"email"`
	EmailCI               string         `bson:"email_ci" json:"-"` // lowercase, unique
	Phone                 string         `bson:"phone,omitempty" json:"phone,omitempty"`
	Address               Address        `bson:"address" json:"address"`
	MembershipType        MembershipType `bson:"membership_type" json:"membership_type"`
	Status                MemberStatus   `bson:"status" json:"status"`
	MembershipNumber      string         `bson:"membership_number,omitempty" json:"membership_number,omitempty"`
	FamilyMembers         []FamilyMember `bson:"family_members,omitempty" json:"family_members,omitempty"`
	Preferences           Preferences    `bson:"preferences" json:"preferences"`
	Notes                 string         `bson:"notes,omitempty" json:"notes,omitempty"`

	RegistrationDate    time.Time  `bson:"registration_date" json:"registration_date"`
	MembershipStartDate *time.Time `bson:"membership_start_date,omitempty" json:"membership_start_date,omitempty"`
	MembershipEndDate   *time.Time `bson:"membership_end_date,omitempty" json:"membership_end_date,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// FullName joins first and last name.
func (m Member) FullName() string {
	switch {
	case m.FirstName == "":
		return m.LastName
	case m.LastName == "":
		return m.FirstName
	}
	return m.FirstName + " " + m.LastName
}

// EffectiveStatus reports the member's status as of now. An active member
// whose end date has passed is reported as expired; the stored status is
// left alone.
func (m Member) EffectiveStatus(now time.Time) MemberStatus {
	if m.Status == StatusActive && m.MembershipEndDate != nil && now.After(*m.MembershipEndDate) {
		return StatusExpired
	}
	return m.Status
}
