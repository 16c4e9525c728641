package pg

import (
	"context"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgproto3"

	"github.com/mstgnz/flatsql/exec"
	"github.com/mstgnz/flatsql/flaterr"
	"github.com/mstgnz/flatsql/rowcodec"
	"github.com/mstgnz/flatsql/sqlparse"
	"github.com/mstgnz/flatsql/sqltypes"
)

// handleSimpleQuery implements spec.md §4.5's simple-query flow: split
// the message's text into its semicolon-separated statements, run each
// in turn, and always end the batch with ReadyForQuery.
func (c *Conn) handleSimpleQuery(ctx context.Context, sql string) error {
	stmts, err := sqlparse.Split(sql)
	if err != nil {
		c.sendError(err)
		c.sendReady()
		return c.flush()
	}
	if len(stmts) == 0 {
		c.backend.Send(&pgproto3.EmptyQueryResponse{})
		c.sendReady()
		return c.flush()
	}

	for _, raw := range stmts {
		if err := c.runSimpleStatement(ctx, raw); err != nil {
			c.sendError(err)
			break
		}
	}
	c.sendReady()
	return c.flush()
}

func (c *Conn) runSimpleStatement(ctx context.Context, raw string) error {
	parsed, err := sqlparse.Parse(raw)
	if err != nil {
		return err
	}

	switch parsed.Kind {
	case sqlparse.KindTransactionNoop, sqlparse.KindSessionSet:
		c.backend.Send(&pgproto3.CommandComplete{CommandTag: []byte(commandTag(raw))})
		return nil
	case sqlparse.KindUnsupported:
		return flaterr.New(flaterr.ErrTypeFeature, "statement not supported by this engine", nil)
	}

	rel, err := exec.Execute(ctx, c.store.Snapshot(), parsed.Stmt, nil)
	if err != nil {
		return err
	}

	c.sendRowDescription(rel.Schema, nil)
	for _, row := range rel.Rows {
		if err := c.sendDataRow(rel.Schema, row, nil); err != nil {
			return err
		}
	}
	c.backend.Send(&pgproto3.CommandComplete{CommandTag: []byte(fmt.Sprintf("SELECT %d", len(rel.Rows)))})
	return nil
}

func (c *Conn) sendRowDescription(schema exec.Schema, formats []rowcodec.PgFormat) {
	fields := make([]pgproto3.FieldDescription, len(schema))
	for i, col := range schema {
		fields[i] = pgproto3.FieldDescription{
			Name:         []byte(col.Name),
			DataTypeOID:  rowcodec.PgOID(col.Type),
			DataTypeSize: rowcodec.PgTypeSize(col.Type),
			TypeModifier: rowcodec.PgTypeMod(col.Type),
			Format:       int16(formatFor(formats, i)),
		}
	}
	c.backend.Send(&pgproto3.RowDescription{Fields: fields})
}

func (c *Conn) sendDataRow(schema exec.Schema, row sqltypes.Row, formats []rowcodec.PgFormat) error {
	values := make([][]byte, len(row))
	for i, v := range row {
		b, err := rowcodec.EncodePg(v, formatFor(formats, i))
		if err != nil {
			return err
		}
		values[i] = b
	}
	c.backend.Send(&pgproto3.DataRow{Values: values})
	return nil
}

// formatFor resolves column i's wire format: one format code per column,
// a single code applied to every column (Bind's common shorthand), or
// text when none was requested.
func formatFor(formats []rowcodec.PgFormat, i int) rowcodec.PgFormat {
	switch len(formats) {
	case 0:
		return rowcodec.PgText
	case 1:
		return formats[0]
	default:
		if i < len(formats) {
			return formats[i]
		}
		return rowcodec.PgText
	}
}

func commandTag(raw string) string {
	trimmed := strings.TrimSpace(raw)
	end := strings.IndexAny(trimmed, " \t\n\r")
	if end == -1 {
		end = len(trimmed)
	}
	return strings.ToUpper(trimmed[:end])
}

// handleParse registers a named (or unnamed) prepared statement.
func (c *Conn) handleParse(m *pgproto3.Parse) {
	parsed, err := sqlparse.Parse(m.Query)
	if err != nil {
		c.sendError(err)
		return
	}
	c.statements[m.Name] = &preparedStatement{name: m.Name, rawSQL: m.Query, parsed: parsed, paramOIDs: m.ParameterOIDs}
	c.backend.Send(&pgproto3.ParseComplete{})
}

// handleBind decodes bind parameters per their declared format code and
// creates a named portal bound to those values.
func (c *Conn) handleBind(m *pgproto3.Bind) {
	stmt, ok := c.statements[m.PreparedStatement]
	if !ok {
		c.sendError(flaterr.New(flaterr.ErrTypeProtocol, "unknown prepared statement "+m.PreparedStatement, nil))
		return
	}

	params := make([]sqltypes.Value, len(m.Parameters))
	for i, raw := range m.Parameters {
		format := rowcodec.PgText
		switch {
		case len(m.ParameterFormatCodes) == 1:
			format = rowcodec.PgFormat(m.ParameterFormatCodes[0])
		case i < len(m.ParameterFormatCodes):
			format = rowcodec.PgFormat(m.ParameterFormatCodes[i])
		}
		params[i] = decodeBindParam(raw, format)
	}

	formats := make([]rowcodec.PgFormat, len(m.ResultFormatCodes))
	for i, f := range m.ResultFormatCodes {
		formats[i] = rowcodec.PgFormat(f)
	}

	c.portals[m.DestinationPortal] = &portal{stmt: stmt, params: params, resultFormats: formats}
	c.backend.Send(&pgproto3.BindComplete{})
}

// decodeBindParam turns one raw Bind parameter into a Value. Without a
// system catalog to consult for the statement's declared parameter
// types, a binary parameter's width is used as a heuristic (the
// convention most pg drivers follow for int4/int8); everything else,
// and all text-format parameters, is carried as Text and coerced by
// eval's comparison/cast rules at evaluation time.
func decodeBindParam(raw []byte, format rowcodec.PgFormat) sqltypes.Value {
	if raw == nil {
		return sqltypes.Null(sqltypes.KindText)
	}
	if format == rowcodec.PgBinary {
		switch len(raw) {
		case 1:
			return sqltypes.Boolean(raw[0] != 0)
		case 4:
			return sqltypes.Integer(int64(int32(binary.BigEndian.Uint32(raw))))
		case 8:
			return sqltypes.BigInt(int64(binary.BigEndian.Uint64(raw)))
		}
	}
	return sqltypes.Text(string(raw))
}

// handleDescribe answers Describe(Statement) with the statement's bind
// parameter types (row shape is unknown before Bind, since this engine
// has no separate query planner — Describe(Portal), issued after Bind,
// gives the authoritative RowDescription most drivers actually rely on)
// and Describe(Portal) by running the bound query and describing its
// result schema.
func (c *Conn) handleDescribe(ctx context.Context, m *pgproto3.Describe) {
	switch m.ObjectType {
	case 'S':
		stmt, ok := c.statements[m.Name]
		if !ok {
			c.sendError(flaterr.New(flaterr.ErrTypeProtocol, "unknown prepared statement "+m.Name, nil))
			return
		}
		c.backend.Send(&pgproto3.ParameterDescription{ParameterOIDs: stmt.paramOIDs})
		c.backend.Send(&pgproto3.NoData{})
	case 'P':
		p, ok := c.portals[m.Name]
		if !ok {
			c.sendError(flaterr.New(flaterr.ErrTypeProtocol, "unknown portal "+m.Name, nil))
			return
		}
		rel, err := c.ensureExecuted(ctx, p)
		if err != nil {
			c.sendError(err)
			return
		}
		if len(rel.Schema) == 0 {
			c.backend.Send(&pgproto3.NoData{})
			return
		}
		c.sendRowDescription(rel.Schema, p.resultFormats)
	default:
		c.sendError(flaterr.New(flaterr.ErrTypeProtocol, "unknown describe target", nil))
	}
}

// handleExecute streams a bound portal's rows and completes the command.
// The MaxRows cap is not honored: spec.md bounds result materialization
// only by available memory, so every Execute streams the full result.
func (c *Conn) handleExecute(ctx context.Context, m *pgproto3.Execute) {
	p, ok := c.portals[m.Portal]
	if !ok {
		c.sendError(flaterr.New(flaterr.ErrTypeProtocol, "unknown portal "+m.Portal, nil))
		return
	}
	rel, err := c.ensureExecuted(ctx, p)
	if err != nil {
		c.sendError(err)
		return
	}
	if len(rel.Schema) == 0 {
		c.backend.Send(&pgproto3.CommandComplete{CommandTag: []byte(commandTag(p.stmt.rawSQL))})
		return
	}
	for _, row := range rel.Rows {
		if err := c.sendDataRow(rel.Schema, row, p.resultFormats); err != nil {
			c.sendError(err)
			return
		}
	}
	c.backend.Send(&pgproto3.CommandComplete{CommandTag: []byte(fmt.Sprintf("SELECT %d", len(rel.Rows)))})
}

// ensureExecuted runs a portal's statement at most once: every statement
// this engine serves is a pure read, so memoizing across a Describe
// followed by an Execute (or a re-Execute) is always safe.
func (c *Conn) ensureExecuted(ctx context.Context, p *portal) (*exec.Relation, error) {
	if p.rel != nil {
		return p.rel, nil
	}
	switch p.stmt.parsed.Kind {
	case sqlparse.KindTransactionNoop, sqlparse.KindSessionSet:
		p.rel = &exec.Relation{}
		return p.rel, nil
	case sqlparse.KindUnsupported:
		return nil, flaterr.New(flaterr.ErrTypeFeature, "statement not supported by this engine", nil)
	}
	rel, err := exec.Execute(ctx, c.store.Snapshot(), p.stmt.parsed.Stmt, p.params)
	if err != nil {
		return nil, err
	}
	p.rel = rel
	return rel, nil
}

func (c *Conn) handleClose(m *pgproto3.Close) {
	switch m.ObjectType {
	case 'S':
		delete(c.statements, m.Name)
	case 'P':
		delete(c.portals, m.Name)
	}
	c.backend.Send(&pgproto3.CloseComplete{})
}
