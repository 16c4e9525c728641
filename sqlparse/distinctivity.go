package sqlparse

import "regexp"

// distinctOnPattern matches PostgreSQL's `SELECT DISTINCT ON (e1, e2)`,
// a construct machparse's grammar has no production for (it only tracks
// a plain DISTINCT flag). rewriteDistinctOn folds the expression list
// into a leading pseudo-column call the parser accepts natively; exec
// recognizes that call by name, pulls the expression list back out, and
// excludes it from the projected output.
var distinctOnPattern = regexp.MustCompile(`(?i)\bSELECT\s+DISTINCT\s+ON\s*\(([^)]*)\)`)

func rewriteDistinctOn(sql string) string {
	return distinctOnPattern.ReplaceAllString(sql, "SELECT DISTINCT __DISTINCT_ON__($1),")
}
