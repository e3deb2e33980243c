package testutil

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/google/uuid"
	"github.com/mta-community/mtahub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser creates a staff user. A non-empty password is stored as a
// bcrypt hash (minimum cost to keep tests fast).
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email, role, password string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:         uuid.NewString(),
		FullName:   fullName,
		FullNameCI: text.Fold(fullName),
		Email:      email,
		AuthMethod: "password",
		Role:       role,
		Status:     models.UserActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		if err != nil {
			f.t.Fatalf("failed to hash password: %v", err)
		}
		user.PasswordHash = string(hash)
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateAdmin creates a test admin user.
func (f *Fixtures) CreateAdmin(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, email, models.RoleAdmin, "")
}

// CreateMember inserts a member with the given status directly, bypassing
// the lifecycle manager.
func (f *Fixtures) CreateMember(ctx context.Context, first, last, email string, status models.MemberStatus) models.Member {
	f.t.Helper()

	now := time.Now().UTC()
	m := models.Member{
		ID:                    uuid.NewString(),
		RegistrationReference: "REG-" + strings.ToUpper(uuid.NewString()[:6]),
		FirstName:             first,
		LastName:              last,
		FullNameCI:            text.Fold(first + " " + last),
		Email:                 email,
		EmailCI:               text.Fold(email),
		MembershipType:        models.MembershipIndividual,
		Status:                status,
		RegistrationDate:      now,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if _, err := f.db.Collection("members").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to create test member: %v", err)
	}
	return m
}
