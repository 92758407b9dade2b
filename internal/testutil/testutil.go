// Package testutil provides an in-memory database and fixtures for tests.
package testutil

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"pemiyos/internal/db"
	"pemiyos/internal/models"
	"pemiyos/internal/utils"
)

// TestPassword is the plain password of every fixture user.
const TestPassword = "secret123"

// TestJWTSecret signs tokens in tests.
const TestJWTSecret = "test-secret"

// SetupTestDB opens a fresh, fully migrated in-memory database.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	utils.SetBcryptCost(bcrypt.MinCost)

	conn, err := db.Open("sqlite", ":memory:", nil)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := db.Migrate(conn); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close(conn) })
	return conn
}

// Logger writes through t.Log.
func Logger(t *testing.T) zerolog.Logger {
	return zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.WarnLevel)
}

func stamp(b *models.Base) {
	now := time.Now().UTC()
	b.ID = uuid.NewString()
	b.CreatedAt = now
	b.UpdatedAt = now
}

func create(t *testing.T, conn *gorm.DB, rec any) {
	t.Helper()
	if err := conn.Create(rec).Error; err != nil {
		t.Fatalf("Failed to create fixture %T: %v", rec, err)
	}
}

// CreateUser inserts an active user whose password is TestPassword.
func CreateUser(t *testing.T, conn *gorm.DB, nis, role string, opts ...func(*models.User)) *models.User {
	t.Helper()
	hash, err := utils.HashPassword(TestPassword)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	u := &models.User{
		NIS:         nis,
		Password:    hash,
		NamaLengkap: "User " + nis,
		Role:        role,
		Status:      models.StatusActive,
	}
	stamp(&u.Base)
	for _, opt := range opts {
		opt(u)
	}
	create(t, conn, u)
	return u
}

// Inactive marks a fixture user inactive.
func Inactive(u *models.User) { u.Status = models.StatusInactive }

// WithAttributes stores schemaless fields on a fixture user.
func WithAttributes(attrs map[string]any) func(*models.User) {
	return func(u *models.User) { u.Attributes = attrs }
}

func CreatePosition(t *testing.T, conn *gorm.DB, positionID int, name string) *models.Position {
	t.Helper()
	p := &models.Position{PositionID: positionID, Name: name, Status: models.StatusActive}
	stamp(&p.Base)
	create(t, conn, p)
	return p
}

func CreateElection(t *testing.T, conn *gorm.DB, start, end int, status string) *models.Election {
	t.Helper()
	e := &models.Election{PeriodStart: start, PeriodEnd: end, Status: status}
	stamp(&e.Base)
	create(t, conn, e)
	return e
}

func CreateCandidate(t *testing.T, conn *gorm.DB, positionID, number, start, end int, userID string) *models.Candidate {
	t.Helper()
	c := &models.Candidate{
		PositionID:      positionID,
		CandidateNumber: number,
		PeriodStart:     start,
		PeriodEnd:       end,
		UserID:          userID,
		Name:            "Candidate " + uuid.NewString()[:8],
		Profile:         "Profile",
		Status:          models.StatusActive,
	}
	stamp(&c.Base)
	create(t, conn, c)
	return c
}

// CreateVote casts a vote for cand, copying its position and period.
func CreateVote(t *testing.T, conn *gorm.DB, userID string, cand *models.Candidate) *models.Vote {
	t.Helper()
	v := &models.Vote{
		UserID:      userID,
		CandidateID: cand.ID,
		PositionID:  cand.PositionID,
		PeriodStart: cand.PeriodStart,
		PeriodEnd:   cand.PeriodEnd,
	}
	stamp(&v.Base)
	create(t, conn, v)
	return v
}

// SoftDelete marks a fixture deleted without going through the services.
func SoftDelete(t *testing.T, conn *gorm.DB, model any, id string) {
	t.Helper()
	now := time.Now().UTC()
	if err := conn.Model(model).Where("id = ?", id).Update("deleted_at", now).Error; err != nil {
		t.Fatalf("Failed to soft delete fixture: %v", err)
	}
}
