package flaterr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_Error(t *testing.T) {
	inner := errors.New("boom")
	e := New(ErrTypeSchema, "unknown table: orders", inner)

	assert.Equal(t, ErrTypeSchema, e.Type)
	assert.ErrorIs(t, e, inner)
	assert.Contains(t, e.Error(), "SchemaError")
	assert.Contains(t, e.Error(), "unknown table: orders")
	assert.Contains(t, e.Error(), "boom")
}

func TestIsTypeHelpers(t *testing.T) {
	err := New(ErrTypeParse, "bad syntax", nil)
	assert.True(t, IsParseError(err))
	assert.False(t, IsSchemaError(err))
	assert.False(t, IsParseError(nil))
	assert.False(t, IsParseError(errors.New("plain")))
}

func TestWithContext_AttachesMetadata(t *testing.T) {
	e := New(ErrTypeType, "mismatch", nil).WithContext("column", "amount")
	assert.Equal(t, "amount", e.Context["column"])
	assert.Contains(t, e.Error(), "amount")
}

func TestWithSeverity(t *testing.T) {
	e := New(ErrTypeIO, "closed", nil).WithSeverity(SeverityCritical)
	assert.True(t, IsCriticalError(e))
}

func TestIsConnectionFatal(t *testing.T) {
	tests := []struct {
		typ   ErrorType
		fatal bool
	}{
		{ErrTypeProtocol, true},
		{ErrTypeAuth, true},
		{ErrTypeIO, true},
		{ErrTypeParse, false},
		{ErrTypeSchema, false},
		{ErrTypeFeature, false},
		{ErrTypeCancellation, false},
	}
	for _, tt := range tests {
		err := New(tt.typ, "x", nil)
		assert.Equal(t, tt.fatal, IsConnectionFatal(err), "type %s", tt.typ)
	}
	assert.False(t, IsConnectionFatal(errors.New("plain")))
}
