package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterConstructors(t *testing.T) {
	f := Eq("status", "active")
	assert.Equal(t, "status", f.Field())
	assert.Equal(t, OperatorEqual, f.Operator())
	assert.Equal(t, "active", f.Value())
	assert.Nil(t, f.Values())

	f = Gt("age", 18)
	assert.Equal(t, OperatorGreaterThan, f.Operator())
	assert.Equal(t, 18, f.Value())

	f = In("status", "active", "pending")
	assert.Equal(t, OperatorIn, f.Operator())
	assert.Equal(t, []interface{}{"active", "pending"}, f.Values())
	assert.Nil(t, f.Value())

	f = ArrayContainsAny("tags", "go", "db")
	assert.Equal(t, OperatorArrayContainsAny, f.Operator())
	assert.Len(t, f.Values(), 2)

	f = IsNull("deletedAt")
	assert.Equal(t, OperatorIsNull, f.Operator())
	assert.Nil(t, f.Value())
	assert.Nil(t, f.Values())
}

func TestQueryBuilder(t *testing.T) {
	q := NewQuery().
		Where(Eq("status", "active"), Gt("age", 18)).
		OrderBy("createdAt", Ascending).
		OrderBy("name", Descending).
		WithLimit(25).
		StartingAfter("2024-01-01")

	assert.Len(t, q.Filters, 2)
	assert.Equal(t, "createdAt", q.Orders[0].Field)
	assert.Equal(t, Ascending, q.Orders[0].Direction)
	assert.Equal(t, Descending, q.Orders[1].Direction)
	assert.Equal(t, 25, q.Limit)
	assert.Equal(t, []interface{}{"2024-01-01"}, q.StartAfter)
	assert.True(t, q.HasOrders())
	assert.True(t, q.HasCursor())
}

func TestQuery_HasCursor(t *testing.T) {
	assert.False(t, NewQuery().HasCursor())
	assert.True(t, NewQuery().StartingAt(1).HasCursor())
	assert.True(t, NewQuery().EndingBefore("z").HasCursor())
	assert.False(t, NewQuery().Where(Eq("a", 1)).HasCursor())
}

func TestOrderHelpers(t *testing.T) {
	assert.Equal(t, Order{Field: "createdAt", Direction: Ascending}, Asc("createdAt"))
	assert.Equal(t, Order{Field: "createdAt", Direction: Descending}, Desc("createdAt"))
}
