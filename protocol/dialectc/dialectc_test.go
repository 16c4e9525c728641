package dialectc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookup(t *testing.T) {
	tr := Lookup("parcel-c")
	assert.NotNil(t, tr)
	assert.Equal(t, "parcel-c", tr.Name())
	assert.Nil(t, Lookup("unknown-dialect"))
}

func TestGenericC_Translate(t *testing.T) {
	tr := Lookup("parcel-c")
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"SEL rewritten", "SEL * FRM users", "SELECT * FRM users"},
		{"lowercase keyword", "sel id frm t", "SELECT id frm t"},
		{"standard SQL untouched", "SELECT * FROM users", "SELECT * FROM users"},
		{"empty statement", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tr.Translate(tt.in))
		})
	}
}
