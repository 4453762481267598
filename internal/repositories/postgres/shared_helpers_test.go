package postgres

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/pulsex/care-service/internal/repositories"
)

func TestTranslateError(t *testing.T) {
	other := errors.New("connection reset")

	tests := []struct {
		name      string
		err       error
		notFound  bool
		duplicate bool
	}{
		{name: "nil", err: nil},
		{name: "record not found", err: gorm.ErrRecordNotFound, notFound: true},
		{name: "gorm duplicated key", err: gorm.ErrDuplicatedKey, duplicate: true},
		{name: "pg unique violation", err: &pgconn.PgError{Code: "23505", ConstraintName: "idx_ratings_appointment_id"}, duplicate: true},
		{name: "pg check violation", err: &pgconn.PgError{Code: "23514"}},
		{name: "other", err: other},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateError(tt.err)
			if tt.err == nil {
				assert.NoError(t, got)
				return
			}
			assert.Equal(t, tt.notFound, repositories.IsNotFoundError(got))
			assert.Equal(t, tt.duplicate, errors.Is(got, repositories.ErrDuplicateKey))
		})
	}
}
