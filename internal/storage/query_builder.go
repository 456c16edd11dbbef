package storage

import (
	"strings"

	"estate_bot/internal/filter"
)

type queryBuilder struct {
	conditions []string
	args       []any
}

func (qb *queryBuilder) addCondition(condition string, args ...any) {
	qb.conditions = append(qb.conditions, condition)
	qb.args = append(qb.args, args...)
}

// addIn restricts field to one of values. An empty list adds nothing.
func addIn[T any](qb *queryBuilder, field string, values []T) {
	if len(values) == 0 {
		return
	}
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	qb.addCondition(field+" IN ("+placeholders(len(values))+")", args...)
}

// addRanges restricts field to the union of ranges. An unconstrained union
// adds nothing.
func (qb *queryBuilder) addRanges(field string, ranges filter.Ranges) {
	if ranges.Unconstrained() {
		return
	}
	var parts []string
	var args []any
	for _, r := range ranges {
		var bounds []string
		if r.Min != nil {
			bounds = append(bounds, field+" >= ?")
			args = append(args, *r.Min)
		}
		if r.Max != nil {
			bounds = append(bounds, field+" <= ?")
			args = append(args, *r.Max)
		}
		parts = append(parts, "("+strings.Join(bounds, " AND ")+")")
	}
	qb.addCondition("("+strings.Join(parts, " OR ")+")", args...)
}

func (qb *queryBuilder) addSearch(term string) {
	if term == "" {
		return
	}
	qb.addCondition(`search_text LIKE ? ESCAPE '\'`, "%"+escapeLike(strings.ToLower(term))+"%")
}

func (qb *queryBuilder) build() (string, []any) {
	if len(qb.conditions) == 0 {
		return "", qb.args
	}
	return " WHERE " + strings.Join(qb.conditions, " AND "), qb.args
}

// applyFilters turns a parsed query into a WHERE clause and its arguments.
func applyFilters(q filter.Query) (string, []any) {
	qb := &queryBuilder{}

	addIn(qb, "type", q.Types)
	addIn(qb, "district", q.Districts)
	addIn(qb, "condition", q.Conditions)
	addIn(qb, "rooms", q.Rooms)

	qb.addRanges("area", q.Area)
	qb.addRanges("price", q.Price)

	qb.addSearch(q.Search)

	return qb.build()
}

func orderClause(o filter.Ordering) string {
	switch o {
	case filter.OrderCreatedDesc:
		return " ORDER BY created_at DESC, id DESC"
	case filter.OrderCreatedAsc:
		return " ORDER BY created_at ASC, id ASC"
	case filter.OrderPriceAsc:
		return " ORDER BY price ASC, id DESC"
	case filter.OrderPriceDesc:
		return " ORDER BY price DESC, id DESC"
	case filter.OrderAreaAsc:
		return " ORDER BY area ASC, id DESC"
	case filter.OrderAreaDesc:
		return " ORDER BY area DESC, id DESC"
	default:
		return " ORDER BY id DESC"
	}
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
