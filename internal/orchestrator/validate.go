package orchestrator

import (
	"log/slog"

	"github.com/recalcitrant/querylib/internal/entity"
	"github.com/recalcitrant/querylib/internal/resultset"
)

// validateArguments implements C8's argument-validation sub-contract
// (spec.md §4.7): every bound value in args must satisfy the target
// query's declared AllowedTypes, and unknown variable names are allowed
// but logged.
func validateArguments(args resultset.ArgumentSet, q *entity.StoredQuery, sourceDescription, targetNodeID string) error {
	paramTypes := q.ParamTypes()

	for rowIdx, row := range args.Arguments {
		for varName, tv := range row {
			allowed, known := paramTypes[varName]
			if !known {
				slog.Warn("orchestrator: argument for unknown parameter, ignoring downstream",
					"var", varName, "target_node", targetNodeID, "source", sourceDescription)
				continue
			}
			if len(allowed) == 0 {
				continue
			}
			if !containsString(allowed, tv.Type) {
				return TypeMismatchError{
					ParamName:         varName,
					Expected:          allowed,
					Got:               tv.Type,
					RowIndex:          rowIdx,
					SourceDescription: sourceDescription,
					TargetNodeID:      targetNodeID,
				}
			}
		}
	}
	return nil
}

func containsString(xs []string, v string) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}
