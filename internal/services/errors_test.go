package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestErrorFormatting(t *testing.T) {
	err := Validation("Validation failed", "NIS is required", "Password is required")
	assert.Equal(t, "Validation failed: NIS is required, Password is required", err.Error())

	cause := errors.New("connection reset")
	internal := Internal(cause, "Failed to fetch %s", "users")
	assert.Equal(t, "Failed to fetch users: connection reset", internal.Error())
	assert.ErrorIs(t, internal, cause)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(NotFound("user not found")))
	assert.Equal(t, KindConflict, KindOf(fmt.Errorf("wrapped: %w", ErrDuplicate)))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}

func TestStoreError(t *testing.T) {
	assert.NoError(t, storeError(nil, "x"))
	assert.Equal(t, ErrDuplicate, storeError(gorm.ErrDuplicatedKey, "x"))
	assert.Equal(t, ErrDuplicate, storeError(errors.New("UNIQUE constraint failed: users.nis"), "x"))
	assert.Equal(t, ErrDuplicate, storeError(errors.New(`ERROR: duplicate key value violates unique constraint "idx_vote_once" (SQLSTATE 23505)`), "x"))

	conflict := Conflict("taken")
	assert.Equal(t, conflict, storeError(conflict, "x"))
	assert.Equal(t, KindInternal, KindOf(storeError(errors.New("disk full"), "x")))
}

func TestParseCollection(t *testing.T) {
	c, err := ParseCollection("votes")
	assert.NoError(t, err)
	assert.Equal(t, "votes", string(c))

	_, err = ParseCollection("secrets")
	assert.ErrorIs(t, err, ErrInvalidCollection)
	assert.Equal(t, KindValidation, KindOf(err))
}
