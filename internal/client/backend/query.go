package backend

import (
	"net/url"
	"strings"
)

// Query is a value-type builder for read queries against the table API.
// Builder methods return copies, so a partially built Query can be reused.
type Query struct {
	Table   string
	Columns string
	Filters []Filter
	OrderBy string
	Desc    bool
	One     bool
}

// Filter is a single equality condition.
type Filter struct {
	Column string
	Value  string
}

// NewQuery starts a query on table with all columns selected.
func NewQuery(table string) Query {
	return Query{Table: table, Columns: "*"}
}

// Select overrides the selected column list. Embedded resources use the
// backend's join syntax, e.g. "*,profiles:user_id(username,avatar_url)".
func (q Query) Select(columns string) Query {
	q.Columns = columns
	return q
}

// Eq appends an equality filter on column.
func (q Query) Eq(column, value string) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), Filter{Column: column, Value: value})
	return q
}

// Order sorts by column, descending when desc is true.
func (q Query) Order(column string, desc bool) Query {
	q.OrderBy = column
	q.Desc = desc
	return q
}

// Single marks the query as expecting exactly one row. Zero rows become a
// not-found error instead of an empty list.
func (q Query) Single() Query {
	q.One = true
	return q
}

// Encode renders the query as REST query parameters.
func (q Query) Encode() string {
	v := url.Values{}
	columns := q.Columns
	if columns == "" {
		columns = "*"
	}
	v.Set("select", columns)
	for _, f := range q.Filters {
		v.Set(f.Column, "eq."+f.Value)
	}
	if q.OrderBy != "" {
		dir := "asc"
		if q.Desc {
			dir = "desc"
		}
		v.Set("order", q.OrderBy+"."+dir)
	}
	// url.Values escapes the select-list syntax (star, commas, parens,
	// colons); the table API expects it literal.
	return strings.NewReplacer("%2A", "*", "%2C", ",", "%28", "(", "%29", ")", "%3A", ":").Replace(v.Encode())
}
