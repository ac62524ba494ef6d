package match

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Fields is the view of an item that discard predicates may inspect.
// Only these whitelisted fields are reachable; predicates are data, not
// code, so a config file can never smuggle in arbitrary evaluation.
type Fields struct {
	Body       string
	Source     string
	Author     string
	CreatedUTC string
}

// Predicate is one discard rule from the matching config. An item matching
// any predicate is dropped before include/exclude evaluation.
type Predicate struct {
	Field string `yaml:"field"`
	Op    string `yaml:"op"`
	Value any    `yaml:"value"`
}

// Supported predicate operations.
const (
	OpLenLT       = "len_lt"
	OpLenGT       = "len_gt"
	OpContains    = "contains"
	OpNotContains = "not_contains"
	OpEq          = "eq"
	OpNumLT       = "num_lt"
	OpNumGT       = "num_gt"
)

func (p Predicate) fieldValue(f Fields) (string, error) {
	switch p.Field {
	case "body":
		return f.Body, nil
	case "source", "subreddit":
		return f.Source, nil
	case "author":
		return f.Author, nil
	case "created_utc":
		return f.CreatedUTC, nil
	default:
		return "", fmt.Errorf("predicate field %q not allowed", p.Field)
	}
}

func (p Predicate) numValue() (float64, error) {
	switch v := p.Value.(type) {
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case float64:
		return v, nil
	case string:
		return strconv.ParseFloat(v, 64)
	default:
		return 0, fmt.Errorf("predicate value %v is not numeric", p.Value)
	}
}

func (p Predicate) strValue() string {
	return fmt.Sprintf("%v", p.Value)
}

// Evaluate returns whether the predicate holds for the item. A malformed
// predicate returns an error; callers treat that as a non-match.
func (p Predicate) Evaluate(f Fields) (bool, error) {
	field, err := p.fieldValue(f)
	if err != nil {
		return false, err
	}

	switch p.Op {
	case OpLenLT:
		n, err := p.numValue()
		if err != nil {
			return false, err
		}
		return float64(len(field)) < n, nil
	case OpLenGT:
		n, err := p.numValue()
		if err != nil {
			return false, err
		}
		return float64(len(field)) > n, nil
	case OpContains:
		return strings.Contains(field, p.strValue()), nil
	case OpNotContains:
		return !strings.Contains(field, p.strValue()), nil
	case OpEq:
		return field == p.strValue(), nil
	case OpNumLT, OpNumGT:
		threshold, err := p.numValue()
		if err != nil {
			return false, err
		}
		fv, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return false, fmt.Errorf("predicate field %q is not numeric: %w", p.Field, err)
		}
		if p.Op == OpNumLT {
			return fv < threshold, nil
		}
		return fv > threshold, nil
	default:
		return false, fmt.Errorf("predicate op %q not allowed", p.Op)
	}
}

// Discard reports whether any predicate drops the item. A predicate that
// fails to evaluate never discards and never aborts the run; it is logged
// and skipped.
func Discard(preds []Predicate, f Fields, logger *zap.Logger) bool {
	for _, p := range preds {
		ok, err := p.Evaluate(f)
		if err != nil {
			logger.Warn("discard predicate failed to evaluate, treating as non-match",
				zap.String("field", p.Field),
				zap.String("op", p.Op),
				zap.Error(err),
			)
			continue
		}
		if ok {
			return true
		}
	}
	return false
}
