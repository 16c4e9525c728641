package sqlparse

import (
	"bufio"
	"io"
	"strings"
)

// Splitter breaks a simple-query message's text into its individual
// semicolon-separated statements (spec.md §4.5: a simple query may
// contain more than one statement). Adapted from the teacher's dump
// statement reader: it still has to track string-literal state and
// `--`/`/* */` comments while scanning for the delimiter, the same way
// a multi-statement dump file does.
type Splitter struct {
	reader *bufio.Reader
}

// NewSplitter wraps a statement-bearing string for iterative reading.
func NewSplitter(sql string) *Splitter {
	return &Splitter{reader: bufio.NewReader(strings.NewReader(sql))}
}

// Next returns the next statement's text (without the trailing `;`), or
// io.EOF when no more statements remain. Blank statements between two
// semicolons are skipped.
func (s *Splitter) Next() (string, error) {
	for {
		stmt, err := s.readOne()
		trimmed := strings.TrimSpace(stmt)
		if trimmed == "" {
			if err != nil {
				return "", err
			}
			continue
		}
		return trimmed, err
	}
}

func (s *Splitter) readOne() (string, error) {
	var statement []byte
	inString := false
	inComment := false
	lineComment := false
	escaped := false

	for {
		b, err := s.reader.ReadByte()
		if err != nil {
			if err == io.EOF && len(statement) > 0 {
				return string(statement), nil
			}
			return "", err
		}

		if b == '\'' && !inComment && !escaped {
			inString = !inString
		}

		if b == '\\' && !inComment {
			escaped = !escaped
		} else {
			escaped = false
		}

		if !inString && !inComment && b == '-' {
			next, err := s.reader.ReadByte()
			if err == nil && next == '-' {
				lineComment = true
				inComment = true
				continue
			}
			if err == nil {
				s.reader.UnreadByte()
			}
		}

		if !inString && !inComment && b == '/' {
			next, err := s.reader.ReadByte()
			if err == nil && next == '*' {
				inComment = true
				continue
			}
			if err == nil {
				s.reader.UnreadByte()
			}
		}

		if inComment && !lineComment && b == '*' {
			next, err := s.reader.ReadByte()
			if err == nil && next == '/' {
				inComment = false
				continue
			}
			if err == nil {
				s.reader.UnreadByte()
			}
		}

		if lineComment && b == '\n' {
			inComment = false
			lineComment = false
			continue
		}

		if inComment {
			continue
		}

		if !inString && b == ';' {
			return string(statement), nil
		}

		statement = append(statement, b)
	}
}

// Split is a convenience wrapper returning every statement in sql at once.
func Split(sql string) ([]string, error) {
	sp := NewSplitter(sql)
	var out []string
	for {
		stmt, err := sp.Next()
		if stmt != "" {
			out = append(out, stmt)
		}
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
	}
}
