package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/stock-transfer-api/internal/domain"
	"github.com/jhoicas/stock-transfer-api/internal/domain/entity"
)

func TestWriteError_MapsConstraintViolations(t *testing.T) {
	wrapped := func(code string) error {
		return fmt.Errorf("exec: %w", &pgconn.PgError{Code: code, ConstraintName: "chk"})
	}
	cases := []struct {
		name string
		err  error
		want error
	}{
		{"unique", wrapped("23505"), domain.ErrDuplicate},
		{"foreign key", wrapped("23503"), domain.ErrNotFound},
		{"check: cantidad que redondea a cero", wrapped("23514"), domain.ErrInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, writeError(tc.err, "insert stock movement"), tc.want)
		})
	}

	other := errors.New("conn reset")
	err := writeError(other, "insert stock movement")
	assert.ErrorIs(t, err, other)
	assert.EqualError(t, err, "insert stock movement: conn reset")
	for _, sentinel := range []error{domain.ErrDuplicate, domain.ErrNotFound, domain.ErrInvalidInput} {
		assert.NotErrorIs(t, err, sentinel)
	}
}

func TestHasCode(t *testing.T) {
	assert.False(t, hasCode(nil, "23505"))
	assert.True(t, isCheckViolation(&pgconn.PgError{Code: "23514"}))
	assert.False(t, isCheckViolation(&pgconn.PgError{Code: "23505"}))
	assert.True(t, isUniqueViolation(errors.New("ERROR: duplicate key (SQLSTATE 23505)")), "errores sin PgError se reconocen por el texto")
}

func TestLinesEditable(t *testing.T) {
	assert.True(t, linesEditable(entity.TransferStatusCreated))
	for _, s := range []string{entity.TransferStatusShipped, entity.TransferStatusReceived, entity.TransferStatusCancelled} {
		assert.False(t, linesEditable(s), "en %s solo se actualiza quantity_received", s)
	}
}

func TestNullableAndUUID(t *testing.T) {
	assert.Nil(t, nullable(""))
	assert.Equal(t, "x", deref(nullable("x")))
	assert.Equal(t, "", deref(nil))

	assert.True(t, isUUID("11111111-1111-1111-1111-111111111111"))
	assert.False(t, isUUID("nope"))
}

func TestSnapshotTxOptions(t *testing.T) {
	assert.Equal(t, "repeatable read", string(snapshotTxOptions.IsoLevel))
	assert.Equal(t, "read only", string(snapshotTxOptions.AccessMode))
}
