package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"

	"github.com/mstgnz/flatsql/logger"
	"github.com/mstgnz/flatsql/sqltypes"
	"github.com/mstgnz/flatsql/store"
)

func startMysqlListener(t *testing.T) (addr string, stop func()) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	emp := sqltypes.NewTable("emp", []sqltypes.Column{
		{Name: "id", Type: sqltypes.SqlType{Kind: sqltypes.KindInteger}, PrimaryKey: true, NotNull: true},
		{Name: "name", Type: sqltypes.SqlType{Kind: sqltypes.KindText}},
	}, []sqltypes.Row{
		{sqltypes.Integer(1), sqltypes.Text("alice")},
		{sqltypes.Integer(2), sqltypes.Text("bob")},
	})
	db := sqltypes.NewDatabase("test", []*sqltypes.Table{emp})
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

func TestMysqlIntegration_SimpleQuery(t *testing.T) {
	addr, stop := startMysqlListener(t)
	defer stop()

	dsn := fmt.Sprintf("anyone:anyone@tcp(%s)/test", addr)
	db, err := sql.Open("mysql", dsn)
	require.NoError(t, err)
	defer db.Close()

	rows, err := db.Query("SELECT id, name FROM emp ORDER BY id")
	require.NoError(t, err)
	defer rows.Close()

	var names []string
	for rows.Next() {
		var id int
		var name string
		require.NoError(t, rows.Scan(&id, &name))
		names = append(names, name)
	}
	require.NoError(t, rows.Err())
	require.Equal(t, []string{"alice", "bob"}, names)
}

func TestMysqlIntegration_Ping(t *testing.T) {
	addr, stop := startMysqlListener(t)
	defer stop()

	dsn := fmt.Sprintf("anyone:anyone@tcp(%s)/test", addr)
	db, err := sql.Open("mysql", dsn)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Ping())
}
