package mongodb

import (
	"maternity-service/internal/pkg/search"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
)

// compileFilter turns a translated query into a filter over the stored
// search index. Callers handle MatchNothing before reaching the database.
func compileFilter(query search.Query) bson.M {
	filter := bson.M{fieldResourceType: query.ResourceType}

	clauses := make([]bson.M, 0, len(query.Clauses))
	for _, clause := range query.Clauses {
		clauses = append(clauses, compileClause(clause))
	}
	if len(clauses) > 0 {
		filter["$and"] = clauses
	}
	return filter
}

func compileClause(clause search.Clause) bson.M {
	field := fieldSearch + "." + clause.Name

	switch clause.Kind {
	case search.KindText:
		alternatives := make([]bson.M, 0, len(clause.Conditions))
		for _, condition := range clause.Conditions {
			alternatives = append(alternatives, bson.M{field: bson.M{"$regex": regexp.QuoteMeta(condition.Low)}})
		}
		return anyOf(alternatives)
	case search.KindDate:
		alternatives := make([]bson.M, 0, len(clause.Conditions))
		for _, condition := range clause.Conditions {
			alternatives = append(alternatives, bson.M{field: compileDateCondition(condition)})
		}
		return anyOf(alternatives)
	default:
		values := make([]string, 0, len(clause.Conditions))
		for _, condition := range clause.Conditions {
			values = append(values, condition.Low)
		}
		return bson.M{field: bson.M{"$in": values}}
	}
}

// compileDateCondition mirrors search.Clause.Matches for a single stored
// instant against the [Low, High) interval of the parameter.
func compileDateCondition(condition search.Condition) bson.M {
	switch condition.Comparator {
	case search.ComparatorGe:
		return bson.M{"$gte": condition.Low}
	case search.ComparatorGt:
		return bson.M{"$gte": condition.High}
	case search.ComparatorLe:
		return bson.M{"$lt": condition.High}
	case search.ComparatorLt:
		return bson.M{"$lt": condition.Low}
	default:
		return bson.M{"$elemMatch": bson.M{"$gte": condition.Low, "$lt": condition.High}}
	}
}

func anyOf(alternatives []bson.M) bson.M {
	if len(alternatives) == 1 {
		return alternatives[0]
	}
	return bson.M{"$or": alternatives}
}
