// Package query turns a filter snapshot into a dialect-neutral predicate
// list. Renderers for concrete stores live next to it.
package query

import (
	"strings"

	"storefront/internal/domain"
)

// Field names an item attribute a condition can test.
type Field string

const (
	FieldCategory Field = "category"
	FieldActive   Field = "active"
	FieldPrice    Field = "price"
	FieldIsNew    Field = "isNew"
	FieldFabrics  Field = "fabrics"
	FieldColors   Field = "colors"
	FieldSizes    Field = "sizes"
	FieldCreated  Field = "createdAt"
)

// Op is the comparison a condition applies.
type Op string

const (
	OpEq  Op = "eq"
	OpGte Op = "gte"
	OpLte Op = "lte"
	// OpAnyOf matches when at least one of the item's tags equals one of the
	// parameter values, compared case-insensitively.
	OpAnyOf Op = "any_of"
)

// Condition references its operand through Param, a key of Query.Params.
type Condition struct {
	Field Field  `json:"field"`
	Op    Op     `json:"op"`
	Param string `json:"param"`
}

// SortTerm orders by one field.
type SortTerm struct {
	Field Field `json:"field"`
	Desc  bool  `json:"desc"`
}

// Sort is the ordering chosen for a sort key.
type Sort struct {
	Key   domain.SortKey `json:"key"`
	Terms []SortTerm     `json:"terms"`
}

// Params binds condition operands by name.
type Params map[string]any

// Query is the complete predicate and order of one catalog request.
type Query struct {
	Conditions []Condition `json:"conditions"`
	Params     Params      `json:"params"`
	Sort       *Sort       `json:"sort,omitempty"`
}

// Parameter names used by Build.
const (
	ParamCategory = "category"
	ParamActive   = "active"
	ParamMinPrice = "minPrice"
	ParamMaxPrice = "maxPrice"
	ParamIsNew    = "isNew"
	ParamFabrics  = "fabrics"
	ParamColors   = "colors"
	ParamSizes    = "sizes"
)

var tagFields = []struct {
	dim   domain.Dimension
	field Field
	param string
}{
	{domain.DimensionFabric, FieldFabrics, ParamFabrics},
	{domain.DimensionColor, FieldColors, ParamColors},
	{domain.DimensionSize, FieldSizes, ParamSizes},
}

// TagField maps a dimension to the item field holding its tags.
func TagField(d domain.Dimension) Field {
	for _, tf := range tagFields {
		if tf.dim == d {
			return tf.field
		}
	}
	return ""
}

// Build composes the query for f within category. Only fields set on f add
// a condition: category and active-only are always present, everything
// else narrows the result only when chosen. Tag values are any-of within a
// dimension and AND across dimensions.
func Build(f domain.Filters, category domain.Category) Query {
	q := Query{Params: Params{}}

	q.add(FieldCategory, OpEq, ParamCategory, string(category))
	q.add(FieldActive, OpEq, ParamActive, true)

	if f.MinPrice != nil {
		q.add(FieldPrice, OpGte, ParamMinPrice, *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q.add(FieldPrice, OpLte, ParamMaxPrice, *f.MaxPrice)
	}
	if f.IsNew != nil {
		q.add(FieldIsNew, OpEq, ParamIsNew, *f.IsNew)
	}

	for _, tf := range tagFields {
		values := lowerAll(domain.NormalizeTags(f.Tags(tf.dim)))
		if len(values) == 0 {
			continue
		}
		q.add(tf.field, OpAnyOf, tf.param, values)
	}

	if f.SortBy != nil {
		q.Sort = SortFor(*f.SortBy)
	}
	return q
}

// SortFor returns the ordering of a sort key, or nil if it is unknown.
func SortFor(key domain.SortKey) *Sort {
	switch key {
	case domain.SortPriceAsc:
		return &Sort{Key: key, Terms: []SortTerm{{Field: FieldPrice}}}
	case domain.SortPriceDesc:
		return &Sort{Key: key, Terms: []SortTerm{{Field: FieldPrice, Desc: true}}}
	case domain.SortNew:
		return &Sort{Key: key, Terms: []SortTerm{
			{Field: FieldIsNew, Desc: true},
			{Field: FieldCreated, Desc: true},
		}}
	}
	return nil
}

func (q *Query) add(field Field, op Op, param string, value any) {
	q.Conditions = append(q.Conditions, Condition{Field: field, Op: op, Param: param})
	q.Params[param] = value
}

func lowerAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(v)
	}
	return out
}
