// Package dialectc is the out-of-core collaborator for protocol family C
// (spec.md §4.5): a parcel-based wire protocol whose statements arrive in
// a non-standard SQL dialect. It performs pre-parse rewrites that fold a
// dialect's surface syntax into the SQL sqlparse/machparse already
// understands, the same way the teacher's per-dialect packages
// (postgres.Parser, oracle.Parser, ...) each normalize one dialect's SQL
// into the teacher's common sqlmapper.Schema before the rest of the
// pipeline touches it. Protocol family C's packet framing itself is
// genuinely out of scope (spec.md §1); this package only supplies the
// Translator seam a future protocol/parcel listener would call before
// handing text to sqlparse.Parse.
package dialectc

import "strings"

// Translator rewrites one dialect's statement text into the SQL surface
// sqlparse.Parse accepts. Implementations must be stateless and safe for
// concurrent use: one Translator instance is shared across every parcel
// connection, the same way a single machparse parser is shared.
type Translator interface {
	// Name identifies the dialect, for logging and the CLI's protocol
	// selector.
	Name() string
	// Translate rewrites stmt in place and returns the rewritten text.
	// A Translator that recognizes no special syntax in stmt returns it
	// unchanged.
	Translate(stmt string) string
}

// registry of known translators, keyed by Name(). Populated by init()
// below the way teacher dialect packages are each self-registering.
var registry = map[string]Translator{}

func register(t Translator) { registry[t.Name()] = t }

// Lookup returns the Translator registered for name, or nil if none is
// registered — callers fall back to passing statements through
// untranslated.
func Lookup(name string) Translator {
	return registry[name]
}

func init() {
	register(genericC{})
}

// genericC implements the minimal parcel dialect spec.md §4.5 names as
// its example: a handful of short keyword aliases real parcel-protocol
// clients use in place of standard SQL keywords. Only the statement's
// leading word is looked up in keywordAliases; an alias later in the
// statement, and anything else, passes through unchanged — this is not
// a full dialect grammar,
// matching spec.md's framing of protocol C as "pluggable... beyond
// noting it as a pluggable dialect translator".
type genericC struct{}

func (genericC) Name() string { return "parcel-c" }

var keywordAliases = map[string]string{
	"SEL":  "SELECT",
	"FRM":  "FROM",
	"WHR":  "WHERE",
	"ORDB": "ORDER BY",
}

func (genericC) Translate(stmt string) string {
	fields := strings.Fields(stmt)
	if len(fields) == 0 {
		return stmt
	}
	if repl, ok := keywordAliases[strings.ToUpper(fields[0])]; ok {
		return repl + strings.TrimPrefix(stmt, fields[0])
	}
	return stmt
}
