package pg

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"testing"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/mstgnz/flatsql/logger"
	"github.com/mstgnz/flatsql/sqltypes"
	"github.com/mstgnz/flatsql/store"
)

func startPgListener(t *testing.T) (addr string, stop func()) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	users := sqltypes.NewTable("users", []sqltypes.Column{
		{Name: "id", Type: sqltypes.SqlType{Kind: sqltypes.KindInteger}, PrimaryKey: true, NotNull: true},
		{Name: "name", Type: sqltypes.SqlType{Kind: sqltypes.KindText}},
	}, []sqltypes.Row{
		{sqltypes.Integer(1), sqltypes.Text("alice")},
		{sqltypes.Integer(2), sqltypes.Text("bob")},
	})
	db := sqltypes.NewDatabase("test", []*sqltypes.Table{users})
	st := store.New(db)
	log := logger.NewLogger(logger.Config{})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go Serve(ctx, conn, st, "", "", log)
		}
	}()

	return ln.Addr().String(), func() {
		cancel()
		ln.Close()
	}
}

func TestPgIntegration_SimpleQuery(t *testing.T) {
	addr, stop := startPgListener(t)
	defer stop()

	host, port, err := net.SplitHostPort(addr)
	require.NoError(t, err)

	dsn := fmt.Sprintf("host=%s port=%s user=anyone password=anyone dbname=test sslmode=disable", host, port)
	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	defer db.Close()

	rows, err := db.Query("SELECT id, name FROM users ORDER BY id")
	require.NoError(t, err)
	defer rows.Close()

	var got []struct {
		ID   int
		Name string
	}
	for rows.Next() {
		var id int
		var name string
		require.NoError(t, rows.Scan(&id, &name))
		got = append(got, struct {
			ID   int
			Name string
		}{id, name})
	}
	require.NoError(t, rows.Err())
	require.Len(t, got, 2)
	require.Equal(t, "alice", got[0].Name)
	require.Equal(t, "bob", got[1].Name)
}

func TestPgIntegration_PreparedStatement(t *testing.T) {
	addr, stop := startPgListener(t)
	defer stop()

	host, port, err := net.SplitHostPort(addr)
	require.NoError(t, err)

	dsn := fmt.Sprintf("host=%s port=%s user=anyone password=anyone dbname=test sslmode=disable", host, port)
	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	defer db.Close()

	var name string
	err = db.QueryRow("SELECT name FROM users WHERE id = $1", 2).Scan(&name)
	require.NoError(t, err)
	require.Equal(t, "bob", name)
}
