package docload

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mstgnz/flatsql/sqltypes"
)

// parseColumnSpec parses a document column-definition string like
// "INTEGER PRIMARY KEY" or "VARCHAR(50) NOT NULL UNIQUE" into its
// declared SqlType plus the PRIMARY KEY / NOT NULL / UNIQUE modifiers.
func parseColumnSpec(spec string) (sqltypes.SqlType, bool, bool, bool, error) {
	upper := strings.ToUpper(strings.TrimSpace(spec))

	primaryKey := false
	if idx := strings.Index(upper, "PRIMARY KEY"); idx >= 0 {
		primaryKey = true
		upper = strings.TrimSpace(upper[:idx] + " " + upper[idx+len("PRIMARY KEY"):])
	}

	notNull := false
	if idx := strings.Index(upper, "NOT NULL"); idx >= 0 {
		notNull = true
		upper = strings.TrimSpace(upper[:idx] + " " + upper[idx+len("NOT NULL"):])
	}

	unique := false
	if idx := strings.Index(upper, "UNIQUE"); idx >= 0 {
		unique = true
		upper = strings.TrimSpace(upper[:idx] + " " + upper[idx+len("UNIQUE"):])
	}

	upper = strings.TrimSpace(strings.Join(strings.Fields(upper), " "))
	typ, err := parseBaseType(upper)
	if err != nil {
		return sqltypes.SqlType{}, false, false, false, fmt.Errorf("docload: %q: %w", spec, err)
	}

	if primaryKey {
		notNull = true
	}
	return typ, primaryKey, notNull, unique, nil
}

func parseBaseType(s string) (sqltypes.SqlType, error) {
	name := s
	args := ""
	if i := strings.IndexByte(s, '('); i >= 0 && strings.HasSuffix(s, ")") {
		name = strings.TrimSpace(s[:i])
		args = s[i+1 : len(s)-1]
	}

	switch name {
	case "INTEGER", "INT", "INT4", "SERIAL":
		return sqltypes.SqlType{Kind: sqltypes.KindInteger}, nil
	case "BIGINT", "INT8", "BIGSERIAL":
		return sqltypes.SqlType{Kind: sqltypes.KindBigInt}, nil
	case "FLOAT", "DOUBLE", "REAL", "FLOAT8", "DOUBLE PRECISION":
		return sqltypes.SqlType{Kind: sqltypes.KindFloat}, nil
	case "DECIMAL", "NUMERIC":
		precision, scale := 18, 2
		if args != "" {
			parts := strings.Split(args, ",")
			if p, err := strconv.Atoi(strings.TrimSpace(parts[0])); err == nil {
				precision = p
			}
			if len(parts) > 1 {
				if sc, err := strconv.Atoi(strings.TrimSpace(parts[1])); err == nil {
					scale = sc
				}
			}
		}
		return sqltypes.SqlType{Kind: sqltypes.KindDecimal, Precision: precision, Scale: scale}, nil
	case "BOOLEAN", "BOOL":
		return sqltypes.SqlType{Kind: sqltypes.KindBoolean}, nil
	case "TEXT":
		return sqltypes.SqlType{Kind: sqltypes.KindText}, nil
	case "VARCHAR", "CHAR", "CHARACTER", "BPCHAR", "STRING":
		length := 0
		if args != "" {
			length, _ = strconv.Atoi(strings.TrimSpace(args))
		}
		return sqltypes.SqlType{Kind: sqltypes.KindChar, Length: length}, nil
	case "DATE":
		return sqltypes.SqlType{Kind: sqltypes.KindDate}, nil
	case "TIME":
		return sqltypes.SqlType{Kind: sqltypes.KindTime}, nil
	case "TIMESTAMP", "DATETIME":
		return sqltypes.SqlType{Kind: sqltypes.KindTimestamp}, nil
	case "UUID":
		return sqltypes.SqlType{Kind: sqltypes.KindUuid}, nil
	case "JSON", "JSONB":
		return sqltypes.SqlType{Kind: sqltypes.KindJson}, nil
	default:
		return sqltypes.SqlType{}, fmt.Errorf("unknown column type %q", name)
	}
}
