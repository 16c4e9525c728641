// Package pg implements protocol A, the Postgres-family message-oriented
// wire protocol of spec.md §4.5, layered on pgx/v5/pgproto3 exactly the
// way the apecloud pgserver example builds a Postgres-wire frontend on
// the same package.
package pg

import (
	"context"
	"fmt"
	"net"
	"os"

	"github.com/jackc/pgx/v5/pgproto3"

	"github.com/mstgnz/flatsql/exec"
	"github.com/mstgnz/flatsql/flaterr"
	"github.com/mstgnz/flatsql/logger"
	"github.com/mstgnz/flatsql/rowcodec"
	"github.com/mstgnz/flatsql/server"
	"github.com/mstgnz/flatsql/sqlparse"
	"github.com/mstgnz/flatsql/sqltypes"
	"github.com/mstgnz/flatsql/store"
)

// preparedStatement is one Parse-named statement: the parsed AST plus
// the parameter type hints the client declared (possibly none, in which
// case bind-time values drive inference).
type preparedStatement struct {
	name      string
	rawSQL    string
	parsed    *sqlparse.Statement
	paramOIDs []uint32
}

// portal is one Bind-named, parameter-bound instance of a prepared
// statement. rel is populated lazily the first time Describe or Execute
// needs it — safe to compute more than once since every statement this
// engine runs is a pure, side-effect-free read.
type portal struct {
	stmt          *preparedStatement
	params        []sqltypes.Value
	resultFormats []rowcodec.PgFormat
	rel           *exec.Relation
}

// Conn is one protocol-A connection's state: the handshake having
// already completed, it owns the statement/portal namespaces spec.md
// §4.5 requires ("per-connection maps").
type Conn struct {
	backend *pgproto3.Backend
	netConn net.Conn
	store   *store.Store
	log     *logger.Logger

	cliUsername string
	cliPassword string

	statements map[string]*preparedStatement
	portals    map[string]*portal
}

// Serve drives one accepted connection through startup, authentication,
// and the simple/extended query loop until the client disconnects, the
// connection errors, or ctx is cancelled (server.Supervisor's drain).
func Serve(ctx context.Context, conn net.Conn, st *store.Store, cliUsername, cliPassword string, log *logger.Logger) error {
	c := &Conn{
		backend:     pgproto3.NewBackend(conn, conn),
		netConn:     conn,
		store:       st,
		log:         log.WithConnContext(conn.RemoteAddr().String(), "pg", conn.RemoteAddr().String()),
		cliUsername: cliUsername,
		cliPassword: cliPassword,
		statements:  make(map[string]*preparedStatement),
		portals:     make(map[string]*portal),
	}

	if err := c.handleStartup(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		msg, err := c.backend.Receive()
		if err != nil {
			return flaterr.New(flaterr.ErrTypeIO, "reading client message", err)
		}

		switch m := msg.(type) {
		case *pgproto3.Query:
			if err := c.handleSimpleQuery(ctx, m.String); err != nil {
				return err
			}
		case *pgproto3.Parse:
			c.handleParse(m)
		case *pgproto3.Bind:
			c.handleBind(m)
		case *pgproto3.Describe:
			c.handleDescribe(ctx, m)
		case *pgproto3.Execute:
			c.handleExecute(ctx, m)
		case *pgproto3.Sync:
			c.sendReady()
			if err := c.flush(); err != nil {
				return err
			}
		case *pgproto3.Close:
			c.handleClose(m)
		case *pgproto3.Terminate:
			return nil
		default:
			c.sendError(flaterr.New(flaterr.ErrTypeProtocol, fmt.Sprintf("unsupported message %T", msg), nil))
			if err := c.flush(); err != nil {
				return err
			}
		}
	}
}

// handleStartup negotiates the connection's pre-authentication phase:
// a refused SSL/GSS negotiation byte (spec.md §4.5: "refused with a
// single-byte denial, after which the client sends the real startup"),
// followed by the real startup message and a cleartext password
// challenge.
func (c *Conn) handleStartup() error {
	for {
		msg, err := c.backend.ReceiveStartupMessage()
		if err != nil {
			return flaterr.New(flaterr.ErrTypeIO, "reading startup message", err)
		}
		switch m := msg.(type) {
		case *pgproto3.SSLRequest:
			if _, err := c.netConn.Write([]byte{'N'}); err != nil {
				return flaterr.New(flaterr.ErrTypeIO, "writing SSL refusal", err)
			}
		case *pgproto3.GSSEncRequest:
			if _, err := c.netConn.Write([]byte{'N'}); err != nil {
				return flaterr.New(flaterr.ErrTypeIO, "writing GSS refusal", err)
			}
		case *pgproto3.StartupMessage:
			return c.authenticate(m)
		case *pgproto3.CancelRequest:
			return flaterr.New(flaterr.ErrTypeProtocol, "cancel requests are not supported", nil)
		default:
			return flaterr.New(flaterr.ErrTypeProtocol, fmt.Sprintf("unexpected startup message %T", msg), nil)
		}
	}
}

func (c *Conn) authenticate(startup *pgproto3.StartupMessage) error {
	creds := server.Resolve(c.cliUsername, c.cliPassword, c.store.Snapshot())

	c.backend.Send(&pgproto3.AuthenticationCleartextPassword{})
	if err := c.flush(); err != nil {
		return err
	}

	msg, err := c.backend.Receive()
	if err != nil {
		return flaterr.New(flaterr.ErrTypeIO, "reading password message", err)
	}
	pwd, ok := msg.(*pgproto3.PasswordMessage)
	if !ok {
		return flaterr.New(flaterr.ErrTypeProtocol, fmt.Sprintf("expected password message, got %T", msg), nil)
	}

	user := startup.Parameters["user"]
	if !creds.Accepts(user, pwd.Password) {
		c.backend.Send(&pgproto3.ErrorResponse{Severity: "FATAL", Code: "28P01", Message: "password authentication failed for user \"" + user + "\""})
		c.flush()
		return flaterr.New(flaterr.ErrTypeAuth, "password authentication failed for user "+user, nil)
	}

	c.backend.Send(&pgproto3.AuthenticationOk{})
	for _, kv := range [][2]string{
		{"server_version", "14.0 (flatsql)"},
		{"client_encoding", "UTF8"},
		{"server_encoding", "UTF8"},
		{"DateStyle", "ISO, MDY"},
		{"integer_datetimes", "on"},
		{"standard_conforming_strings", "on"},
	} {
		c.backend.Send(&pgproto3.ParameterStatus{Name: kv[0], Value: kv[1]})
	}
	c.backend.Send(&pgproto3.BackendKeyData{ProcessID: uint32(os.Getpid()), SecretKey: 0})
	c.sendReady()
	return c.flush()
}

func (c *Conn) sendReady() {
	c.backend.Send(&pgproto3.ReadyForQuery{TxStatus: 'I'})
}

// sendError reports err to the client as an ErrorResponse, mapping the
// engine's internal error taxonomy to a SQLSTATE-ish code so drivers
// that branch on error class still get something meaningful.
func (c *Conn) sendError(err error) {
	c.backend.Send(&pgproto3.ErrorResponse{
		Severity: "ERROR",
		Code:     pgErrorCode(err),
		Message:  err.Error(),
	})
}

func pgErrorCode(err error) string {
	switch {
	case flaterr.IsParseError(err):
		return "42601"
	case flaterr.IsSchemaError(err):
		return "42P01"
	case flaterr.IsTypeError(err):
		return "42804"
	case flaterr.IsFeatureError(err):
		return "0A000"
	case flaterr.IsProtocolError(err):
		return "08P01"
	case flaterr.IsAuthError(err):
		return "28P01"
	case flaterr.IsCancellationError(err):
		return "57014"
	default:
		return "XX000"
	}
}

func (c *Conn) flush() error {
	if err := c.backend.Flush(); err != nil {
		return flaterr.New(flaterr.ErrTypeIO, "flushing response", err)
	}
	return nil
}
