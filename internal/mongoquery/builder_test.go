package mongoquery

import (
	"testing"

	"docstore/model"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
)

func TestFilterDocument_Empty(t *testing.T) {
	assert.Equal(t, bson.M{}, FilterDocument(nil))
	assert.Equal(t, bson.M{}, FilterDocument([]model.Filter{}))
}

func TestFilterDocument_SingleOperators(t *testing.T) {
	tests := []struct {
		name   string
		filter model.Filter
		want   bson.M
	}{
		{"equal", model.Eq("status", "active"), bson.M{"fields.status": "active"}},
		{"lessThan", model.Lt("age", 30), bson.M{"fields.age": bson.M{"$lt": 30}}},
		{"lessOrEqual", model.Lte("age", 30), bson.M{"fields.age": bson.M{"$lte": 30}}},
		{"greaterThan", model.Gt("age", 18), bson.M{"fields.age": bson.M{"$gt": 18}}},
		{"greaterOrEqual", model.Gte("age", 18), bson.M{"fields.age": bson.M{"$gte": 18}}},
		{"arrayContains", model.ArrayContains("tags", "go"),
			bson.M{"fields.tags": bson.M{"$elemMatch": bson.M{"$eq": "go"}}}},
		{"arrayContainsAny", model.ArrayContainsAny("tags", "go", "db"),
			bson.M{"fields.tags": bson.M{"$in": []interface{}{"go", "db"}}}},
		{"in", model.In("status", "active", "pending"),
			bson.M{"fields.status": bson.M{"$in": []interface{}{"active", "pending"}}}},
		{"isNull", model.IsNull("deletedAt"),
			bson.M{"fields.deletedAt": bson.M{"$type": 10}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterDocument([]model.Filter{tt.filter}))
		})
	}
}

func TestFilterDocument_Conjunction(t *testing.T) {
	got := FilterDocument([]model.Filter{
		model.Eq("status", "active"),
		model.Gt("age", 18),
	})
	want := bson.M{"$and": []bson.M{
		{"fields.status": "active"},
		{"fields.age": bson.M{"$gt": 18}},
	}}
	assert.Equal(t, want, got)
}

func TestCursorFilter_IgnoredWithoutOrders(t *testing.T) {
	q := model.NewQuery().Where(model.Eq("status", "active")).StartingAfter("x")
	assert.Nil(t, CursorFilter(q))

	// The complete query filter equals the cursor-less one.
	assert.Equal(t, QueryFilter(q), FilterDocument(q.Filters))
}

func TestCursorFilter_AscendingBounds(t *testing.T) {
	q := model.NewQuery().OrderBy("createdAt", model.Ascending).
		StartingAt("2024-01-01").EndingAt("2024-12-31")

	got := CursorFilter(q)
	want := bson.M{"$and": []bson.M{
		{"fields.createdAt": bson.M{"$gte": "2024-01-01"}},
		{"fields.createdAt": bson.M{"$lte": "2024-12-31"}},
	}}
	assert.Equal(t, want, got)
}

func TestCursorFilter_DescendingFlipsBounds(t *testing.T) {
	q := model.NewQuery().OrderBy("createdAt", model.Descending).
		StartingAt("2024-12-31").EndingAt("2024-01-01")

	got := CursorFilter(q)
	want := bson.M{"$and": []bson.M{
		{"fields.createdAt": bson.M{"$lte": "2024-12-31"}},
		{"fields.createdAt": bson.M{"$gte": "2024-01-01"}},
	}}
	assert.Equal(t, want, got)
}

func TestCursorFilter_ExclusiveBounds(t *testing.T) {
	q := model.NewQuery().OrderBy("score", model.Ascending).
		StartingAfter(10).EndingBefore(90)

	got := CursorFilter(q)
	want := bson.M{"$and": []bson.M{
		{"fields.score": bson.M{"$gt": 10}},
		{"fields.score": bson.M{"$lt": 90}},
	}}
	assert.Equal(t, want, got)
}

func TestCursorFilter_MultiFieldPairsPositionally(t *testing.T) {
	q := model.NewQuery().
		OrderBy("createdAt", model.Ascending).
		OrderBy("name", model.Descending).
		StartingAt("2024-01-01", "mango")

	got := CursorFilter(q)
	want := bson.M{"$and": []bson.M{
		{"fields.createdAt": bson.M{"$gte": "2024-01-01"}},
		{"fields.name": bson.M{"$lte": "mango"}},
	}}
	assert.Equal(t, want, got)
}

func TestMergeAnd(t *testing.T) {
	a := bson.M{"fields.status": "active"}
	b := bson.M{"fields.age": bson.M{"$gt": 18}}

	assert.Equal(t, a, MergeAnd(a, bson.M{}))
	assert.Equal(t, b, MergeAnd(bson.M{}, b))
	assert.Equal(t, bson.M{"$and": []bson.M{a, b}}, MergeAnd(a, b))

	withAnd := bson.M{"$and": []bson.M{a}}
	assert.Equal(t, bson.M{"$and": []bson.M{a, b}}, MergeAnd(withAnd, b))
	assert.Equal(t, bson.M{"$and": []bson.M{b, a}}, MergeAnd(b, bson.M{"$and": []bson.M{a}}))
	assert.Equal(t, bson.M{"$and": []bson.M{a, b}},
		MergeAnd(bson.M{"$and": []bson.M{a}}, bson.M{"$and": []bson.M{b}}))
}

func TestFindOptions(t *testing.T) {
	q := model.NewQuery().
		OrderBy("createdAt", model.Ascending).
		OrderBy("name", model.Descending).
		WithLimit(10)

	opts := FindOptions(q)
	assert.Equal(t, int64(10), *opts.Limit)
	sort, ok := opts.Sort.(bson.D)
	assert.True(t, ok)
	assert.Equal(t, bson.D{
		{Key: "fields.createdAt", Value: 1},
		{Key: "fields.name", Value: -1},
	}, sort)
}

func TestFindOptions_NoLimitNoSort(t *testing.T) {
	opts := FindOptions(model.NewQuery())
	assert.Nil(t, opts.Limit)
	assert.Nil(t, opts.Sort)
}

func TestQueryFilter_CombinesFiltersAndCursor(t *testing.T) {
	q := model.NewQuery().
		Where(model.Eq("status", "active")).
		OrderBy("createdAt", model.Ascending).
		StartingAfter("2024-01-01")

	got := QueryFilter(q)
	want := bson.M{"$and": []bson.M{
		{"fields.status": "active"},
		{"fields.createdAt": bson.M{"$gt": "2024-01-01"}},
	}}
	assert.Equal(t, want, got)
}
