package model

// Operator identifies a filter comparison operator.
type Operator string

// Operator types for filters
const (
	OperatorEqual              Operator = "=="
	OperatorLessThan           Operator = "<"
	OperatorLessThanOrEqual    Operator = "<="
	OperatorGreaterThan        Operator = ">"
	OperatorGreaterThanOrEqual Operator = ">="
	OperatorArrayContains      Operator = "array-contains"
	OperatorArrayContainsAny   Operator = "array-contains-any"
	OperatorIn                 Operator = "in"
	OperatorIsNull             Operator = "is-null"
)

// Filter represents a single conjunctive predicate in a query (where clause).
// A Filter is built through one of the operator constructors below, so every
// operator carries exactly the operand shape it needs and no other operator
// slot can be populated at the same time.
type Filter struct {
	field  string
	op     Operator
	value  interface{}   // single operand (Eq, Lt, Lte, Gt, Gte, ArrayContains)
	values []interface{} // set operand (In, ArrayContainsAny)
}

// Field returns the document field the filter applies to.
func (f Filter) Field() string { return f.field }

// Operator returns the comparison operator of the filter.
func (f Filter) Operator() Operator { return f.op }

// Value returns the single operand of the filter, nil for set and null operators.
func (f Filter) Value() interface{} { return f.value }

// Values returns the operand set for In and ArrayContainsAny filters.
func (f Filter) Values() []interface{} { return f.values }

// Eq matches documents whose field equals value.
func Eq(field string, value interface{}) Filter {
	return Filter{field: field, op: OperatorEqual, value: value}
}

// Lt matches documents whose field is less than value.
func Lt(field string, value interface{}) Filter {
	return Filter{field: field, op: OperatorLessThan, value: value}
}

// Lte matches documents whose field is less than or equal to value.
func Lte(field string, value interface{}) Filter {
	return Filter{field: field, op: OperatorLessThanOrEqual, value: value}
}

// Gt matches documents whose field is greater than value.
func Gt(field string, value interface{}) Filter {
	return Filter{field: field, op: OperatorGreaterThan, value: value}
}

// Gte matches documents whose field is greater than or equal to value.
func Gte(field string, value interface{}) Filter {
	return Filter{field: field, op: OperatorGreaterThanOrEqual, value: value}
}

// ArrayContains matches documents whose array field contains value as an element.
func ArrayContains(field string, value interface{}) Filter {
	return Filter{field: field, op: OperatorArrayContains, value: value}
}

// ArrayContainsAny matches documents whose array field contains at least one of values.
func ArrayContainsAny(field string, values ...interface{}) Filter {
	return Filter{field: field, op: OperatorArrayContainsAny, values: values}
}

// In matches documents whose field equals any of values.
func In(field string, values ...interface{}) Filter {
	return Filter{field: field, op: OperatorIn, values: values}
}

// IsNull matches documents whose field is null.
func IsNull(field string) Filter {
	return Filter{field: field, op: OperatorIsNull}
}

// Direction represents an ordering direction.
type Direction string

const (
	// Ascending is used for ordering in ascending order.
	Ascending Direction = "asc"
	// Descending is used for ordering in descending order.
	Descending Direction = "desc"
)

// Order represents a single ordering condition in a query.
type Order struct {
	Field     string    // Document field to order by
	Direction Direction // Ascending or Descending
}

// Asc returns an ascending order on field.
func Asc(field string) Order {
	return Order{Field: field, Direction: Ascending}
}

// Desc returns a descending order on field.
func Desc(field string) Order {
	return Order{Field: field, Direction: Descending}
}

// Query represents a structured collection query: conjunctive filters, ordered
// orderings, a result limit, and cursor bounds. Cursor values pair positionally
// with Orders; they are only honored when at least one ordering is present.
type Query struct {
	Filters    []Filter      // Conjunctive where clauses
	Orders     []Order       // Order by clauses, applied in sequence
	Limit      int           // Limit number of documents, 0 means no limit
	StartAt    []interface{} // Values for the startAt cursor (inclusive)
	StartAfter []interface{} // Values for the startAfter cursor (exclusive)
	EndAt      []interface{} // Values for the endAt cursor (inclusive)
	EndBefore  []interface{} // Values for the endBefore cursor (exclusive)
}

// NewQuery returns an empty query.
func NewQuery() Query {
	return Query{}
}

// Where appends filters as conjunctive predicates.
func (q Query) Where(filters ...Filter) Query {
	q.Filters = append(q.Filters, filters...)
	return q
}

// OrderBy appends an ordering clause.
func (q Query) OrderBy(field string, direction Direction) Query {
	q.Orders = append(q.Orders, Order{Field: field, Direction: direction})
	return q
}

// WithLimit caps the number of returned documents.
func (q Query) WithLimit(limit int) Query {
	q.Limit = limit
	return q
}

// StartingAt sets the inclusive start cursor.
func (q Query) StartingAt(values ...interface{}) Query {
	q.StartAt = values
	return q
}

// StartingAfter sets the exclusive start cursor.
func (q Query) StartingAfter(values ...interface{}) Query {
	q.StartAfter = values
	return q
}

// EndingAt sets the inclusive end cursor.
func (q Query) EndingAt(values ...interface{}) Query {
	q.EndAt = values
	return q
}

// EndingBefore sets the exclusive end cursor.
func (q Query) EndingBefore(values ...interface{}) Query {
	q.EndBefore = values
	return q
}

// HasOrders reports whether at least one ordering clause is present.
func (q Query) HasOrders() bool {
	return len(q.Orders) > 0
}

// HasCursor reports whether any cursor bound is set.
func (q Query) HasCursor() bool {
	return len(q.StartAt) > 0 || len(q.StartAfter) > 0 ||
		len(q.EndAt) > 0 || len(q.EndBefore) > 0
}
