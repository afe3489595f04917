package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestIsUniqueViolation(t *testing.T) {
	t.Run("Nil", func(t *testing.T) {
		assert.False(t, IsUniqueViolation(nil))
	})

	t.Run("PlainError", func(t *testing.T) {
		assert.False(t, IsUniqueViolation(errors.New("connection reset")))
	})

	t.Run("GormDuplicatedKey", func(t *testing.T) {
		assert.True(t, IsUniqueViolation(gorm.ErrDuplicatedKey))
	})

	t.Run("PgxUniqueViolation", func(t *testing.T) {
		err := &pgconn.PgError{Code: "23505", ConstraintName: "uk_webhook_events_uuid"}
		assert.True(t, IsUniqueViolation(err))
	})

	t.Run("PqUniqueViolation", func(t *testing.T) {
		err := &pq.Error{Code: "23505"}
		assert.True(t, IsUniqueViolation(err))
	})

	t.Run("OtherConstraintCode", func(t *testing.T) {
		// foreign key violation is not a dedup signal
		assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
		assert.False(t, IsUniqueViolation(&pq.Error{Code: "23503"}))
	})

	t.Run("WrappedViolation", func(t *testing.T) {
		inner := &pgconn.PgError{Code: "23505"}
		wrapped := fmt.Errorf("failed to insert webhook event: %w", inner)
		assert.True(t, IsUniqueViolation(wrapped))
	})
}
