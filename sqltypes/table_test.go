package sqltypes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func usersTable() *Table {
	return NewTable("Users", []Column{
		{Name: "id", Type: SqlType{Kind: KindInteger}, PrimaryKey: true, NotNull: true},
		{Name: "Name", Type: SqlType{Kind: KindText}},
	}, []Row{
		{Integer(1), Text("a")},
		{Integer(2), Text("b")},
	})
}

func TestTable_ColumnIndex_CaseInsensitive(t *testing.T) {
	tbl := usersTable()
	idx, ok := tbl.ColumnIndex("NAME")
	require.True(t, ok)
	assert.Equal(t, 1, idx)

	_, ok = tbl.ColumnIndex("missing")
	assert.False(t, ok)
}

func TestTable_Lookup_FastPK(t *testing.T) {
	tbl := usersTable()
	assert.True(t, tbl.HasFastPK())

	row, ok := tbl.Lookup(Integer(2))
	require.True(t, ok)
	assert.Equal(t, "b", row[1].Str)

	_, ok = tbl.Lookup(Integer(99))
	assert.False(t, ok)
}

func TestTable_CompositePK_NoFastPath(t *testing.T) {
	tbl := NewTable("line_items", []Column{
		{Name: "order_id", Type: SqlType{Kind: KindInteger}, PrimaryKey: true},
		{Name: "item_id", Type: SqlType{Kind: KindInteger}, PrimaryKey: true},
	}, []Row{{Integer(1), Integer(1)}})

	assert.False(t, tbl.HasFastPK())
	_, ok := tbl.Lookup(Integer(1))
	assert.False(t, ok)
}

func TestDatabase_TableLookup_CaseInsensitive(t *testing.T) {
	db := NewDatabase("test", []*Table{usersTable()})

	tbl, ok := db.Table("users")
	require.True(t, ok)
	assert.Equal(t, "Users", tbl.Name, "storage preserves original case even though lookup is case-insensitive")

	_, ok = db.Table("USERS")
	assert.True(t, ok)

	_, ok = db.Table("orders")
	assert.False(t, ok)
}

func TestNewDatabaseWithAuth(t *testing.T) {
	db := NewDatabaseWithAuth("test", "admin", "secret", nil)
	assert.Equal(t, "admin", db.Username)
	assert.Equal(t, "secret", db.Password)
}
