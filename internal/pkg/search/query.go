package search

import (
	"maternity-service/internal/app/models"
	"sort"
	"strconv"
	"strings"
)

type Comparator string

const (
	ComparatorEq Comparator = "eq"
	ComparatorGe Comparator = "ge"
	ComparatorGt Comparator = "gt"
	ComparatorLe Comparator = "le"
	ComparatorLt Comparator = "lt"
)

// Condition is one alternative of a clause. For dates Low and High bound
// the interval of the parameter value; other kinds only use Low.
type Condition struct {
	Comparator Comparator
	Low        string
	High       string
}

// Clause is a single parameter. Its conditions are OR-combined.
type Clause struct {
	Name       string
	Kind       Kind
	Conditions []Condition
}

// Query is the store independent predicate. Clauses are AND-combined.
// MatchNothing short-circuits the search to an empty result.
type Query struct {
	ResourceType string
	Clauses      []Clause
	Count        int
	MatchNothing bool
}

const NoLimit = -1

// Translate converts flat search parameters into a Query. Unknown
// parameters are ignored. An empty or unparseable value makes the query
// match nothing.
func Translate(resourceType string, params map[string]string) Query {
	query := Query{ResourceType: resourceType, Count: NoLimit}

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		value := strings.TrimSpace(params[name])
		if name == ParamCount {
			if count, err := strconv.Atoi(value); err == nil && count >= 0 {
				query.Count = count
			}
			continue
		}

		definition, ok := Lookup(resourceType, name)
		if !ok {
			continue
		}
		if value == "" {
			query.MatchNothing = true
			continue
		}

		clause := Clause{Name: definition.Name, Kind: definition.Kind}
		for _, alternative := range strings.Split(value, ",") {
			alternative = strings.TrimSpace(alternative)
			if alternative == "" {
				continue
			}
			condition, ok := buildCondition(definition, alternative)
			if !ok {
				continue
			}
			clause.Conditions = append(clause.Conditions, condition)
		}
		if len(clause.Conditions) == 0 {
			query.MatchNothing = true
			continue
		}
		query.Clauses = append(query.Clauses, clause)
	}
	return query
}

func buildCondition(definition Definition, value string) (Condition, bool) {
	switch definition.Kind {
	case KindReference:
		return Condition{Comparator: ComparatorEq, Low: models.CanonicalReference(value, definition.TargetType)}, true
	case KindText:
		return Condition{Comparator: ComparatorEq, Low: strings.ToLower(value)}, true
	case KindDate:
		comparator, rest := splitComparator(value)
		start, end, ok := parseDateRange(rest)
		if !ok {
			return Condition{}, false
		}
		return Condition{Comparator: comparator, Low: formatIndexTime(start), High: formatIndexTime(end)}, true
	default:
		return Condition{Comparator: ComparatorEq, Low: value}, true
	}
}

func splitComparator(value string) (Comparator, string) {
	if len(value) > 2 {
		switch prefix := Comparator(value[:2]); prefix {
		case ComparatorEq, ComparatorGe, ComparatorGt, ComparatorLe, ComparatorLt:
			return prefix, value[2:]
		}
	}
	return ComparatorEq, value
}

// Matches evaluates the query against an index.
func (q Query) Matches(index Index) bool {
	if q.MatchNothing {
		return false
	}
	for _, clause := range q.Clauses {
		if !clause.Matches(index[clause.Name]) {
			return false
		}
	}
	return true
}

func (c Clause) Matches(values []string) bool {
	for _, condition := range c.Conditions {
		for _, value := range values {
			if c.matchesValue(condition, value) {
				return true
			}
		}
	}
	return false
}

func (c Clause) matchesValue(condition Condition, value string) bool {
	switch c.Kind {
	case KindText:
		return strings.Contains(value, condition.Low)
	case KindDate:
		switch condition.Comparator {
		case ComparatorGe:
			return value >= condition.Low
		case ComparatorGt:
			return value >= condition.High
		case ComparatorLe:
			return value < condition.High
		case ComparatorLt:
			return value < condition.Low
		default:
			return value >= condition.Low && value < condition.High
		}
	default:
		return value == condition.Low
	}
}

// Limit applies the _count truncation to n matches.
func (q Query) Limit(n int) int {
	if q.Count == NoLimit || q.Count >= n {
		return n
	}
	return q.Count
}
