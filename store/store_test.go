package store

import (
	"testing"

	"github.com/mstgnz/flatsql/flaterr"
	"github.com/mstgnz/flatsql/sqltypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDB(name string) *sqltypes.Database {
	tbl := sqltypes.NewTable("users", []sqltypes.Column{
		{Name: "id", Type: sqltypes.SqlType{Kind: sqltypes.KindInteger}, PrimaryKey: true},
	}, []sqltypes.Row{{sqltypes.Integer(1)}})
	return sqltypes.NewDatabase(name, []*sqltypes.Table{tbl})
}

func TestStore_SnapshotAndPublish(t *testing.T) {
	s := New(sampleDB("v1"))
	assert.Equal(t, "v1", s.Snapshot().Name)

	s.Publish(sampleDB("v2"))
	assert.Equal(t, "v2", s.Snapshot().Name)
}

func TestStore_Publish_DoesNotTearRunningHandle(t *testing.T) {
	s := New(sampleDB("v1"))
	held := s.Snapshot()

	s.Publish(sampleDB("v2"))

	assert.Equal(t, "v1", held.Name, "a previously obtained snapshot handle must not observe a later reload")
	assert.Equal(t, "v2", s.Snapshot().Name)
}

func TestStore_Table_Found(t *testing.T) {
	s := New(sampleDB("v1"))
	tbl, err := s.Table("USERS")
	require.NoError(t, err)
	assert.Equal(t, "users", tbl.Name)
}

func TestStore_Table_NotFound(t *testing.T) {
	s := New(sampleDB("v1"))
	_, err := s.Table("orders")
	require.Error(t, err)
	assert.True(t, flaterr.IsSchemaError(err))
}
