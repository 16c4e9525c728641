package mysql

import (
	"context"
	"net"
	"sync/atomic"

	"github.com/mstgnz/flatsql/exec"
	"github.com/mstgnz/flatsql/flaterr"
	"github.com/mstgnz/flatsql/logger"
	"github.com/mstgnz/flatsql/sqlparse"
	"github.com/mstgnz/flatsql/store"
)

const (
	comQuit   byte = 0x01
	comInitDB byte = 0x02
	comQuery  byte = 0x03
	comPing   byte = 0x0e
)

var connCounter uint32

// Conn is one protocol-B connection's state, from handshake through
// command dispatch.
type Conn struct {
	pc      *packetConn
	netConn net.Conn
	store   *store.Store
	log     *logger.Logger

	cliUsername string
	cliPassword string
	connID      uint32
}

// Serve drives one accepted connection through the handshake and the
// command loop until the client disconnects, errors, or ctx is
// cancelled by server.Supervisor's drain.
func Serve(ctx context.Context, conn net.Conn, st *store.Store, cliUsername, cliPassword string, log *logger.Logger) error {
	c := &Conn{
		pc:          newPacketConn(conn),
		netConn:     conn,
		store:       st,
		log:         log.WithConnContext(conn.RemoteAddr().String(), "mysql", conn.RemoteAddr().String()),
		cliUsername: cliUsername,
		cliPassword: cliPassword,
		connID:      atomic.AddUint32(&connCounter, 1),
	}

	if err := c.authenticate(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		c.pc.resetSeq()
		payload, err := c.pc.readPacket()
		if err != nil {
			return err
		}
		if len(payload) == 0 {
			continue
		}

		switch payload[0] {
		case comQuit:
			return nil
		case comInitDB, comPing:
			if err := c.pc.writePacket(okPacket(0, 0, 0, "")); err != nil {
				return err
			}
		case comQuery:
			if err := c.handleQuery(ctx, string(payload[1:])); err != nil {
				return err
			}
		default:
			if err := c.pc.writePacket(okPacket(0, 0, 0, "")); err != nil {
				return err
			}
		}
	}
}

func (c *Conn) handleQuery(ctx context.Context, sql string) error {
	parsed, err := sqlparse.Parse(sql)
	if err != nil {
		return c.sendErrPacket(1064, "42601", err.Error())
	}

	switch parsed.Kind {
	case sqlparse.KindTransactionNoop, sqlparse.KindSessionSet:
		return c.pc.writePacket(okPacket(0, 0, 0, ""))
	case sqlparse.KindUnsupported:
		return c.sendErrPacket(1235, "0A000", "statement not supported by this engine")
	}

	rel, err := exec.Execute(ctx, c.store.Snapshot(), parsed.Stmt, nil)
	if err != nil {
		return c.sendErrPacket(errCodeFor(err), sqlStateFor(err), err.Error())
	}
	if len(rel.Schema) == 0 {
		return c.pc.writePacket(okPacket(uint64(len(rel.Rows)), 0, 0, ""))
	}
	return c.sendResultSet(rel)
}

func errCodeFor(err error) uint16 {
	switch {
	case flaterr.IsParseError(err):
		return 1064
	case flaterr.IsSchemaError(err):
		return 1146
	case flaterr.IsTypeError(err):
		return 1241
	case flaterr.IsFeatureError(err):
		return 1235
	default:
		return 1105
	}
}

func sqlStateFor(err error) string {
	switch {
	case flaterr.IsParseError(err):
		return "42601"
	case flaterr.IsSchemaError(err):
		return "42S02"
	case flaterr.IsTypeError(err):
		return "22000"
	case flaterr.IsFeatureError(err):
		return "0A000"
	default:
		return "HY000"
	}
}
