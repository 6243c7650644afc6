// Package mongoquery translates the model query grammar into MongoDB filter
// documents and find options. It is the only place that knows how the store
// represents fields, so operator semantics live here in one spot.
package mongoquery

import (
	"docstore/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// bsonTypeNull is the BSON type number for null, used to match explicit nulls
// without also matching missing fields.
const bsonTypeNull = 10

// fieldPath resolves a user-facing field name to its storage path.
func fieldPath(field string) string {
	return model.FieldsPrefix + field
}

// FilterDocument builds the conjunctive MongoDB filter for a set of filters.
func FilterDocument(filters []model.Filter) bson.M {
	if len(filters) == 0 {
		return bson.M{}
	}

	var andFilters []bson.M
	for _, f := range filters {
		single := singleFilter(f)
		if len(single) > 0 {
			andFilters = append(andFilters, single)
		}
	}

	if len(andFilters) == 0 {
		return bson.M{}
	}
	if len(andFilters) == 1 {
		return andFilters[0]
	}
	return bson.M{"$and": andFilters}
}

// singleFilter translates one filter predicate.
func singleFilter(f model.Filter) bson.M {
	path := fieldPath(f.Field())

	switch f.Operator() {
	case model.OperatorEqual:
		return bson.M{path: f.Value()}
	case model.OperatorLessThan:
		return bson.M{path: bson.M{"$lt": f.Value()}}
	case model.OperatorLessThanOrEqual:
		return bson.M{path: bson.M{"$lte": f.Value()}}
	case model.OperatorGreaterThan:
		return bson.M{path: bson.M{"$gt": f.Value()}}
	case model.OperatorGreaterThanOrEqual:
		return bson.M{path: bson.M{"$gte": f.Value()}}
	case model.OperatorArrayContains:
		return bson.M{path: bson.M{"$elemMatch": bson.M{"$eq": f.Value()}}}
	case model.OperatorArrayContainsAny:
		return bson.M{path: bson.M{"$in": f.Values()}}
	case model.OperatorIn:
		return bson.M{path: bson.M{"$in": f.Values()}}
	case model.OperatorIsNull:
		return bson.M{path: bson.M{"$type": bsonTypeNull}}
	default:
		return bson.M{}
	}
}

// CursorFilter builds the pagination bound filter for a query. Cursor values
// pair positionally with the query's orderings and bound direction follows the
// ordering direction, so a descending order flips the comparison. Without
// orderings there is nothing to pair against and the result is empty.
func CursorFilter(q model.Query) bson.M {
	if !q.HasOrders() {
		return nil
	}

	var filters []bson.M
	for i, order := range q.Orders {
		path := fieldPath(order.Field)
		descending := order.Direction == model.Descending

		if len(q.StartAt) > i {
			filters = append(filters, boundFilter(path, "$gte", "$lte", descending, q.StartAt[i]))
		}
		if len(q.StartAfter) > i {
			filters = append(filters, boundFilter(path, "$gt", "$lt", descending, q.StartAfter[i]))
		}
		if len(q.EndAt) > i {
			filters = append(filters, boundFilter(path, "$lte", "$gte", descending, q.EndAt[i]))
		}
		if len(q.EndBefore) > i {
			filters = append(filters, boundFilter(path, "$lt", "$gt", descending, q.EndBefore[i]))
		}
	}

	if len(filters) == 0 {
		return nil
	}
	if len(filters) == 1 {
		return filters[0]
	}
	return bson.M{"$and": filters}
}

// boundFilter picks the comparison operator matching the ordering direction.
func boundFilter(path, ascOp, descOp string, descending bool, value interface{}) bson.M {
	op := ascOp
	if descending {
		op = descOp
	}
	return bson.M{path: bson.M{op: value}}
}

// MergeAnd merges two filters with $and, flattening existing $and conditions.
func MergeAnd(filter1, filter2 bson.M) bson.M {
	if len(filter1) == 0 {
		return filter2
	}
	if len(filter2) == 0 {
		return filter1
	}

	and1, ok1 := andClauses(filter1)
	and2, ok2 := andClauses(filter2)

	switch {
	case ok1 && ok2:
		return bson.M{"$and": append(and1, and2...)}
	case ok1:
		return bson.M{"$and": append(and1, filter2)}
	case ok2:
		return bson.M{"$and": append([]bson.M{filter1}, and2...)}
	default:
		return bson.M{"$and": []bson.M{filter1, filter2}}
	}
}

// andClauses extracts the clause list when the filter is a single $and document.
func andClauses(filter bson.M) ([]bson.M, bool) {
	if len(filter) != 1 {
		return nil, false
	}
	raw, exists := filter["$and"]
	if !exists {
		return nil, false
	}
	clauses, ok := raw.([]bson.M)
	return clauses, ok
}

// FindOptions builds sort and limit options for a query.
func FindOptions(q model.Query) *options.FindOptions {
	opts := options.Find()
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}
	if q.HasOrders() {
		sort := bson.D{}
		for _, o := range q.Orders {
			direction := 1
			if o.Direction == model.Descending {
				direction = -1
			}
			sort = append(sort, bson.E{Key: fieldPath(o.Field), Value: direction})
		}
		opts.SetSort(sort)
	}
	return opts
}

// QueryFilter builds the complete filter for a query: the conjunctive where
// clauses merged with the cursor bounds.
func QueryFilter(q model.Query) bson.M {
	filter := FilterDocument(q.Filters)
	cursor := CursorFilter(q)
	if len(cursor) > 0 {
		filter = MergeAnd(filter, cursor)
	}
	return filter
}
