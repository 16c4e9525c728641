package sqlparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRewriteDistinctOn_Basic(t *testing.T) {
	got := rewriteDistinctOn("SELECT DISTINCT ON (dept) dept, name FROM emp")
	assert.Equal(t, "SELECT DISTINCT __DISTINCT_ON__(dept),dept, name FROM emp", got)
}

func TestRewriteDistinctOn_MultipleColumns(t *testing.T) {
	got := rewriteDistinctOn("SELECT DISTINCT ON (a, b) a, b, c FROM t")
	assert.Equal(t, "SELECT DISTINCT __DISTINCT_ON__(a, b),a, b, c FROM t", got)
}

func TestRewriteDistinctOn_CaseInsensitive(t *testing.T) {
	got := rewriteDistinctOn("select distinct on (dept) dept FROM emp")
	assert.Contains(t, got, "__DISTINCT_ON__(dept)")
}

func TestRewriteDistinctOn_NoOpWhenAbsent(t *testing.T) {
	sql := "SELECT DISTINCT name FROM emp"
	assert.Equal(t, sql, rewriteDistinctOn(sql))
}
