package gateway

// Op is a filter comparison operator.
type Op string

const (
	OpEq    Op = "eq"
	OpIn    Op = "in"
	OpILike Op = "ilike"
	OpGte   Op = "gte"
	OpLte   Op = "lte"
)

// Cond is a single column comparison.
type Cond struct {
	Column string
	Op     Op
	Value  interface{}
}

// Filter is an ANDed list of column conditions.
type Filter []Cond

// Eq starts a filter with an equality condition.
func Eq(column string, value interface{}) Filter {
	return Filter{{Column: column, Op: OpEq, Value: value}}
}

func (f Filter) Eq(column string, value interface{}) Filter {
	return append(f, Cond{Column: column, Op: OpEq, Value: value})
}

func (f Filter) In(column string, values ...interface{}) Filter {
	return append(f, Cond{Column: column, Op: OpIn, Value: values})
}

// ILike adds a case-insensitive pattern match; pattern uses % wildcards.
func (f Filter) ILike(column, pattern string) Filter {
	return append(f, Cond{Column: column, Op: OpILike, Value: pattern})
}

func (f Filter) Gte(column string, value interface{}) Filter {
	return append(f, Cond{Column: column, Op: OpGte, Value: value})
}

func (f Filter) Lte(column string, value interface{}) Filter {
	return append(f, Cond{Column: column, Op: OpLte, Value: value})
}

// Order is a single ordering key.
type Order struct {
	Column     string
	Descending bool
}

// Embed attaches a denormalized snapshot of a related row to each result,
// under Field in the row's JSON. ForeignKey names the referencing column on
// the queried table; implementations that resolve relations server-side may
// ignore it.
type Embed struct {
	Field      string
	Table      string
	Columns    []string
	ForeignKey string
}

// Query describes a table read: filter, ordering, row limit, and embedded
// relation snapshots.
type Query struct {
	Filter Filter
	Orders []Order
	Limit  int
	Embeds []Embed
}
