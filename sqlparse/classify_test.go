package sqlparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyRaw(t *testing.T) {
	tests := []struct {
		sql  string
		want Kind
	}{
		{"SELECT 1", KindSelect},
		{"  select 1", KindSelect},
		{"WITH r AS (SELECT 1) SELECT * FROM r", KindSelect},
		{"BEGIN", KindTransactionNoop},
		{"begin", KindTransactionNoop},
		{"COMMIT", KindTransactionNoop},
		{"ROLLBACK", KindTransactionNoop},
		{"START TRANSACTION", KindTransactionNoop},
		{"SET NAMES utf8", KindSessionSet},
		{"DELETE FROM t", KindUnsupported},
		{"CREATE TABLE t (id INT)", KindUnsupported},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, classifyRaw(tt.sql), tt.sql)
	}
}

func TestFirstWord(t *testing.T) {
	assert.Equal(t, "SELECT", firstWord("SELECT 1"))
	assert.Equal(t, "SELECT", firstWord("  SELECT 1"))
	assert.Equal(t, "SELECT", firstWord("SELECT(1)"))
	assert.Equal(t, "BEGIN", firstWord("BEGIN"))
}
