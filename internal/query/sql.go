package query

import (
	"fmt"
	"strings"
)

// SQL is a rendered MySQL fragment over the products table aliased as p.
type SQL struct {
	Where   string
	Args    []any
	OrderBy string
}

var sqlColumns = map[Field]string{
	FieldCategory: "p.category",
	FieldActive:   "p.is_active",
	FieldPrice:    "p.price",
	FieldIsNew:    "p.is_new",
	FieldFabrics:  "p.fabrics",
	FieldColors:   "p.colors",
	FieldSizes:    "p.sizes",
	FieldCreated:  "p.created_at",
}

// DefaultSQLOrder lists newest items first when no sort was chosen.
const DefaultSQLOrder = "p.created_at DESC, p.id ASC"

// SQLColumn returns the column backing field.
func SQLColumn(f Field) (string, bool) {
	col, ok := sqlColumns[f]
	return col, ok
}

// RenderSQL renders q for MySQL 8. Tag columns hold JSON string arrays and
// are tested through JSON_TABLE so membership ignores case.
func RenderSQL(q Query) (SQL, error) {
	out := SQL{OrderBy: DefaultSQLOrder}
	parts := make([]string, 0, len(q.Conditions))

	for _, c := range q.Conditions {
		col, ok := sqlColumns[c.Field]
		if !ok {
			return SQL{}, fmt.Errorf("query: no column for field %q", c.Field)
		}
		val, ok := q.Params[c.Param]
		if !ok {
			return SQL{}, fmt.Errorf("query: missing param %q", c.Param)
		}

		switch c.Op {
		case OpEq:
			parts = append(parts, col+" = ?")
			out.Args = append(out.Args, val)
		case OpGte:
			parts = append(parts, col+" >= ?")
			out.Args = append(out.Args, val)
		case OpLte:
			parts = append(parts, col+" <= ?")
			out.Args = append(out.Args, val)
		case OpAnyOf:
			values, ok := val.([]string)
			if !ok || len(values) == 0 {
				return SQL{}, fmt.Errorf("query: param %q must be a non-empty string list", c.Param)
			}
			parts = append(parts, JSONAnyOf(col, len(values)))
			for _, v := range values {
				out.Args = append(out.Args, strings.ToLower(v))
			}
		default:
			return SQL{}, fmt.Errorf("query: unsupported op %q", c.Op)
		}
	}

	if len(parts) == 0 {
		out.Where = "1 = 1"
	} else {
		out.Where = strings.Join(parts, " AND ")
	}

	if q.Sort != nil && len(q.Sort.Terms) > 0 {
		terms := make([]string, 0, len(q.Sort.Terms)+1)
		for _, t := range q.Sort.Terms {
			col, ok := sqlColumns[t.Field]
			if !ok {
				return SQL{}, fmt.Errorf("query: no column for sort field %q", t.Field)
			}
			dir := "ASC"
			if t.Desc {
				dir = "DESC"
			}
			terms = append(terms, col+" "+dir)
		}
		terms = append(terms, "p.id ASC")
		out.OrderBy = strings.Join(terms, ", ")
	}
	return out, nil
}

// JSONAnyOf builds an EXISTS test for n lower-cased placeholders against a
// JSON string array column.
func JSONAnyOf(col string, n int) string {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
	return fmt.Sprintf(
		"EXISTS (SELECT 1 FROM JSON_TABLE(%s, '$[*]' COLUMNS (tag VARCHAR(255) PATH '$')) AS jt WHERE LOWER(jt.tag) IN (%s))",
		col, placeholders,
	)
}
