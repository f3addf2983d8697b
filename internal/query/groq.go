package query

import (
	"fmt"
	"strings"
)

// GROQ is a rendered Sanity filter with its parameter bindings.
type GROQ struct {
	Filter string
	Order  string
	Params map[string]any
}

// ProductType is the Sanity document type of catalog items.
const ProductType = "product"

var groqFields = map[Field]string{
	FieldCategory: "category",
	FieldActive:   "isActive",
	FieldPrice:    "price",
	FieldIsNew:    "isNew",
	FieldFabrics:  "fabrics",
	FieldColors:   "colors",
	FieldSizes:    "sizes",
	FieldCreated:  "_createdAt",
}

// DefaultGROQOrder lists newest documents first.
const DefaultGROQOrder = "order(_createdAt desc)"

// RenderGROQ renders q as a GROQ filter over product documents.
func RenderGROQ(q Query) (GROQ, error) {
	out := GROQ{Order: DefaultGROQOrder, Params: map[string]any{}}
	parts := []string{fmt.Sprintf("_type == %q", ProductType)}

	for _, c := range q.Conditions {
		field, ok := groqFields[c.Field]
		if !ok {
			return GROQ{}, fmt.Errorf("query: no GROQ field for %q", c.Field)
		}
		val, ok := q.Params[c.Param]
		if !ok {
			return GROQ{}, fmt.Errorf("query: missing param %q", c.Param)
		}

		switch c.Op {
		case OpEq:
			parts = append(parts, fmt.Sprintf("%s == $%s", field, c.Param))
		case OpGte:
			parts = append(parts, fmt.Sprintf("%s >= $%s", field, c.Param))
		case OpLte:
			parts = append(parts, fmt.Sprintf("%s <= $%s", field, c.Param))
		case OpAnyOf:
			values, ok := val.([]string)
			if !ok || len(values) == 0 {
				return GROQ{}, fmt.Errorf("query: param %q must be a non-empty string list", c.Param)
			}
			lowered := make([]string, len(values))
			for i, v := range values {
				lowered[i] = strings.ToLower(v)
			}
			val = lowered
			parts = append(parts, fmt.Sprintf("count(%s[lower(@) in $%s]) > 0", field, c.Param))
		default:
			return GROQ{}, fmt.Errorf("query: unsupported op %q", c.Op)
		}
		out.Params[c.Param] = val
	}
	out.Filter = strings.Join(parts, " && ")

	if q.Sort != nil && len(q.Sort.Terms) > 0 {
		terms := make([]string, 0, len(q.Sort.Terms))
		for _, t := range q.Sort.Terms {
			field, ok := groqFields[t.Field]
			if !ok {
				return GROQ{}, fmt.Errorf("query: no GROQ field for sort %q", t.Field)
			}
			dir := "asc"
			if t.Desc {
				dir = "desc"
			}
			terms = append(terms, field+" "+dir)
		}
		out.Order = "order(" + strings.Join(terms, ", ") + ")"
	}
	return out, nil
}
