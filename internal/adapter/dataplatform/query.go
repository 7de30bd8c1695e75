package dataplatform

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Query builds the OData-style query string the platform's list endpoints
// accept. Zero values are omitted from the encoded output.
type Query struct {
	selects []string
	filters []string
	orderBy string
	top     int
	skip    int
}

// NewQuery creates an empty query.
func NewQuery() Query { return Query{} }

// Select restricts the returned fields.
func (q Query) Select(fields ...string) Query {
	q.selects = append(q.selects, fields...)
	return q
}

// FilterEq adds a field eq 'value' clause; clauses combine with and.
func (q Query) FilterEq(field, value string) Query {
	q.filters = append(q.filters, fmt.Sprintf("%s eq '%s'", field, escapeODataString(value)))
	return q
}

// FilterContains adds a contains(field,'value') clause.
func (q Query) FilterContains(field, value string) Query {
	q.filters = append(q.filters, fmt.Sprintf("contains(%s,'%s')", field, escapeODataString(value)))
	return q
}

// OrderBy sets the sort expression, e.g. "createdon desc".
func (q Query) OrderBy(expr string) Query {
	q.orderBy = expr
	return q
}

// Top caps the number of returned records.
func (q Query) Top(n int) Query {
	q.top = n
	return q
}

// Skip offsets into the result set (simple windowing).
func (q Query) Skip(n int) Query {
	q.skip = n
	return q
}

// Encode renders the query string without a leading "?".
func (q Query) Encode() string {
	values := url.Values{}
	if len(q.selects) > 0 {
		values.Set("$select", strings.Join(q.selects, ","))
	}
	if len(q.filters) > 0 {
		values.Set("$filter", strings.Join(q.filters, " and "))
	}
	if q.orderBy != "" {
		values.Set("$orderby", q.orderBy)
	}
	if q.top > 0 {
		values.Set("$top", strconv.Itoa(q.top))
	}
	if q.skip > 0 {
		values.Set("$skip", strconv.Itoa(q.skip))
	}
	return values.Encode()
}

// escapeODataString doubles single quotes per the OData literal rules.
func escapeODataString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
