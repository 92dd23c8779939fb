package query

import (
	"fmt"
	"reflect"
	"strings"
)

// placeholder marks an argument position in a predicate before the final
// parameter numbers are assigned.
const placeholder = "$?"

type predicate struct {
	sql  string
	args []any
}

// SortField names a logical field to order by. The field name is resolved
// to a column through the builder's ProjectionMap.
type SortField struct {
	Field      string
	Descending bool
}

// Builder accumulates filter predicates and sort fields, then renders them
// as positional-parameter SQL. A zero condition set renders no WHERE clause.
type Builder struct {
	projection  *ProjectionMap
	predicates  []predicate
	sortFields  []SortField
	defaultSort []SortField
}

// NewBuilder returns a Builder over the given projection. The default sort
// applies whenever OrderByFields is never called.
func NewBuilder(projection *ProjectionMap, defaultSort ...SortField) *Builder {
	return &Builder{
		projection:  projection,
		predicates:  make([]predicate, 0),
		defaultSort: defaultSort,
	}
}

// ParseSortFields splits a comma-separated sort expression such as
// "sender_email,-received_at" into sort fields. A leading "-" means
// descending. Empty input yields nil.
func ParseSortFields(s string) []SortField {
	if s == "" {
		return nil
	}

	var fields []SortField
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		field, descending := strings.CutPrefix(part, "-")
		fields = append(fields, SortField{Field: field, Descending: descending})
	}

	return fields
}

// Build renders a full SELECT with the accumulated predicates and ordering.
func (b *Builder) Build() (string, []any) {
	where, args := b.whereClause()
	sql := fmt.Sprintf(
		"SELECT %s FROM %s%s%s",
		b.projection.Columns(),
		b.projection.From(),
		where,
		b.orderClause(),
	)
	return sql, args
}

// BuildCount renders a COUNT(*) over the accumulated predicates.
func (b *Builder) BuildCount() (string, []any) {
	where, args := b.whereClause()
	return fmt.Sprintf("SELECT COUNT(*) FROM %s%s", b.projection.From(), where), args
}

// BuildPage renders a SELECT limited to one page. Pages are 1-based.
func (b *Builder) BuildPage(page, pageSize int) (string, []any) {
	where, args := b.whereClause()
	sql := fmt.Sprintf(
		"SELECT %s FROM %s%s%s LIMIT %d OFFSET %d",
		b.projection.Columns(),
		b.projection.From(),
		where,
		b.orderClause(),
		pageSize,
		(page-1)*pageSize,
	)
	return sql, args
}

// BuildSingle renders a SELECT for one record matched on idField. Predicates
// accumulated on the builder are ignored.
func (b *Builder) BuildSingle(idField string, id any) (string, []any) {
	sql := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s = $1",
		b.projection.Columns(),
		b.projection.From(),
		b.projection.Column(idField),
	)
	return sql, []any{id}
}

// BuildSingleOrNull renders a SELECT over the accumulated predicates capped
// at one row.
func (b *Builder) BuildSingleOrNull() (string, []any) {
	where, args := b.whereClause()
	sql := fmt.Sprintf(
		"SELECT %s FROM %s%s LIMIT 1",
		b.projection.Columns(),
		b.projection.From(),
		where,
	)
	return sql, args
}

// OrderByFields replaces the default sort with an explicit field list.
func (b *Builder) OrderByFields(fields []SortField) *Builder {
	b.sortFields = fields
	return b
}

// WhereContains adds a case-insensitive substring match. Nil and empty
// values add nothing.
func (b *Builder) WhereContains(field string, value *string) *Builder {
	if value == nil || *value == "" {
		return b
	}
	b.predicates = append(b.predicates, predicate{
		sql:  b.projection.Column(field) + " ILIKE " + placeholder,
		args: []any{"%" + *value + "%"},
	})
	return b
}

// WhereEquals adds an equality match. Nil values (including typed nil
// pointers) add nothing.
func (b *Builder) WhereEquals(field string, value any) *Builder {
	if isNil(value) {
		return b
	}
	b.predicates = append(b.predicates, predicate{
		sql:  b.projection.Column(field) + " = " + placeholder,
		args: []any{value},
	})
	return b
}

// WhereIn adds an IN match over the given values. Empty slices add nothing.
func (b *Builder) WhereIn(field string, values []any) *Builder {
	if len(values) == 0 {
		return b
	}
	slots := make([]string, len(values))
	for i := range slots {
		slots[i] = placeholder
	}
	b.predicates = append(b.predicates, predicate{
		sql:  fmt.Sprintf("%s IN (%s)", b.projection.Column(field), strings.Join(slots, ", ")),
		args: values,
	})
	return b
}

// WhereNullable matches equality for non-nil values and IS NULL for nil.
func (b *Builder) WhereNullable(field string, value any) *Builder {
	col := b.projection.Column(field)
	if isNil(value) {
		b.predicates = append(b.predicates, predicate{sql: col + " IS NULL"})
	} else {
		b.predicates = append(b.predicates, predicate{
			sql:  col + " = " + placeholder,
			args: []any{value},
		})
	}
	return b
}

// WhereSearch adds a single predicate matching the search term against any
// of the given fields. Nil and empty terms add nothing.
func (b *Builder) WhereSearch(search *string, fields ...string) *Builder {
	if search == nil || *search == "" || len(fields) == 0 {
		return b
	}

	clauses := make([]string, len(fields))
	args := make([]any, len(fields))
	term := "%" + *search + "%"
	for i, field := range fields {
		clauses[i] = b.projection.Column(field) + " ILIKE " + placeholder
		args[i] = term
	}

	b.predicates = append(b.predicates, predicate{
		sql:  "(" + strings.Join(clauses, " OR ") + ")",
		args: args,
	})
	return b
}

func (b *Builder) orderClause() string {
	fields := b.sortFields
	if len(fields) == 0 {
		fields = b.defaultSort
	}
	if len(fields) == 0 {
		return ""
	}

	parts := make([]string, len(fields))
	for i, f := range fields {
		dir := "ASC"
		if f.Descending {
			dir = "DESC"
		}
		parts[i] = b.projection.Column(f.Field) + " " + dir
	}

	return " ORDER BY " + strings.Join(parts, ", ")
}

// whereClause renders the predicates joined with AND, assigning positional
// parameter numbers in insertion order.
func (b *Builder) whereClause() (string, []any) {
	if len(b.predicates) == 0 {
		return "", nil
	}

	clauses := make([]string, 0, len(b.predicates))
	args := make([]any, 0)
	n := 1

	for _, p := range b.predicates {
		sql := p.sql
		for _, arg := range p.args {
			sql = strings.Replace(sql, placeholder, fmt.Sprintf("$%d", n), 1)
			args = append(args, arg)
			n++
		}
		clauses = append(clauses, sql)
	}

	return " WHERE " + strings.Join(clauses, " AND "), args
}

func isNil(value any) bool {
	if value == nil {
		return true
	}

	switch v := reflect.ValueOf(value); v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return v.IsNil()
	default:
		return false
	}
}
