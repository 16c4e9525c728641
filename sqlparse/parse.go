// Package sqlparse is a thin adapter over github.com/freeeve/machparse: it
// turns client SQL text into the machparse ast.Statement tree the
// executor consumes, and classifies statements so the protocol layer can
// dispose of no-op transaction/session statements without touching exec
// at all.
package sqlparse

import (
	"github.com/freeeve/machparse"
	"github.com/freeeve/machparse/ast"

	"github.com/mstgnz/flatsql/flaterr"
)

// Kind classifies a parsed statement for dispatch before it ever reaches
// the executor.
type Kind int

const (
	// KindSelect is the only statement kind the executor runs.
	KindSelect Kind = iota
	// KindTransactionNoop covers BEGIN/COMMIT/ROLLBACK/SET TRANSACTION:
	// accepted and acknowledged, never executed (spec.md Non-goals).
	KindTransactionNoop
	// KindSessionSet covers SET/SET NAMES and similar session-variable
	// statements real client drivers send during connection setup.
	KindSessionSet
	// KindUnsupported is any other syntactically valid statement this
	// engine does not serve (INSERT/UPDATE/DELETE/DDL): FeatureError.
	KindUnsupported
)

// Statement is one parsed client statement plus its dispatch Kind.
type Statement struct {
	Kind Kind
	Text string
	Stmt ast.Statement // nil for Kind != KindSelect
}

// Parse parses a single SQL statement and classifies it. Parse errors are
// always ErrTypeParse, per spec.md §7.
func Parse(sql string) (*Statement, error) {
	raw := classifyRaw(sql)
	if raw != KindSelect {
		return &Statement{Kind: raw, Text: sql}, nil
	}

	stmt, err := machparse.Parse(rewriteDistinctOn(rewriteSessionVars(sql)))
	if err != nil {
		return nil, flaterr.New(flaterr.ErrTypeParse, "parsing statement", err)
	}

	switch stmt.(type) {
	case *ast.SelectStmt, *ast.SetOp:
		return &Statement{Kind: KindSelect, Text: sql, Stmt: stmt}, nil
	default:
		return &Statement{Kind: KindUnsupported, Text: sql}, nil
	}
}

// SelectStmt returns the underlying select/set-op AST node, for callers
// that already know Kind == KindSelect.
func (s *Statement) SelectStmt() ast.Statement { return s.Stmt }
