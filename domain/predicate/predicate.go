// Package predicate implements the typed operator set and the AND/OR
// rule combinator that drive the Filtering stage of the pipeline.
package predicate

import (
	"fmt"

	"github.com/flowbridge/flowbridge/domain/jsonvalue"
)

// Operator identifies one of the six recognized rule operators.
type Operator string

const (
	Equals      Operator = "equals"
	NotEquals   Operator = "not_equals"
	In          Operator = "in"
	ContainsAny Operator = "contains_any"
	LessThan    Operator = "less_than"
	GreaterThan Operator = "greater_than"
)

// ValidOperator reports whether op is one of the six recognized
// operators.
func ValidOperator(op Operator) bool {
	switch op {
	case Equals, NotEquals, In, ContainsAny, LessThan, GreaterThan:
		return true
	default:
		return false
	}
}

// Rule is a unit predicate: a field path, an operator, and the
// configured right-hand value the operator compares against.
type Rule struct {
	Field    jsonvalue.FieldPath
	Operator Operator
	Value    jsonvalue.Value
}

// Logic combines a Conditions' rules.
type Logic string

const (
	AND Logic = "AND"
	OR  Logic = "OR"
)

// Conditions is a logic operator over a non-empty, ordered list of
// rules.
type Conditions struct {
	Logic Logic
	Rules []Rule
}

// Summary reports how a Conditions evaluation reached its verdict:
// how many rules were evaluated, which (by index, in configuration
// order) matched, and whether the configured default action decided
// the outcome because the combined rule result was false.
type Summary struct {
	RulesEvaluated      int
	MatchedRules        []int
	DefaultActionApplied bool
}

// DefaultAction is the verdict applied when the combined rule result
// is false.
type DefaultAction string

const (
	Pass DefaultAction = "pass"
	Drop DefaultAction = "drop"
)

// Evaluate walks conditions.Rules in configuration order against
// body, combining them per conditions.Logic with short-circuit
// evaluation, then applies defaultAction if the combined result is
// false. admitted reports whether the request should proceed past
// filtering.
func Evaluate(conditions Conditions, defaultAction DefaultAction, body jsonvalue.Value) (admitted bool, summary Summary) {
	var matched []int
	combined := conditions.Logic == AND // AND starts true, OR starts false

loop:
	for i, rule := range conditions.Rules {
		summary.RulesEvaluated++
		m := matchRule(rule, body)
		if m {
			matched = append(matched, i)
		}

		switch conditions.Logic {
		case AND:
			if !m {
				combined = false
				break loop
			}
		case OR:
			if m {
				combined = true
				break loop
			}
			combined = false
		}
	}
	summary.MatchedRules = matched

	if combined {
		return true, summary
	}
	summary.DefaultActionApplied = true
	return defaultAction == Pass, summary
}

func matchRule(rule Rule, body jsonvalue.Value) bool {
	found, resolved := jsonvalue.Resolve(body, rule.Field)

	switch rule.Operator {
	case Equals:
		return found && jsonvalue.Equal(resolved, rule.Value)
	case NotEquals:
		return !found || !jsonvalue.Equal(resolved, rule.Value)
	case In:
		if !found {
			return false
		}
		items, _ := rule.Value.Sequence()
		for _, item := range items {
			if jsonvalue.Equal(resolved, item) {
				return true
			}
		}
		return false
	case ContainsAny:
		if !found || !resolved.IsSequence() {
			return false
		}
		lhsItems, _ := resolved.Sequence()
		rhsItems, _ := rule.Value.Sequence()
		for _, l := range lhsItems {
			for _, r := range rhsItems {
				if jsonvalue.Equal(l, r) {
					return true
				}
			}
		}
		return false
	case LessThan:
		if !found || !resolved.IsNumeric() || !rule.Value.IsNumeric() {
			return false
		}
		lhs, _ := resolved.Number()
		rhs, _ := rule.Value.Number()
		return lhs < rhs
	case GreaterThan:
		if !found || !resolved.IsNumeric() || !rule.Value.IsNumeric() {
			return false
		}
		lhs, _ := resolved.Number()
		rhs, _ := rule.Value.Number()
		return lhs > rhs
	default:
		return false
	}
}

// ValidateRule checks the operator/RHS type consistency required at
// load time by §4.5.6: numeric operators require numeric RHS, list
// operators require a non-empty list of scalars.
func ValidateRule(rule Rule) error {
	if !ValidOperator(rule.Operator) {
		return fmt.Errorf("unrecognized operator %q", rule.Operator)
	}

	switch rule.Operator {
	case LessThan, GreaterThan:
		if !rule.Value.IsNumeric() {
			return fmt.Errorf("operator %q requires a numeric value", rule.Operator)
		}
	case In, ContainsAny:
		items, ok := rule.Value.Sequence()
		if !ok || len(items) == 0 {
			return fmt.Errorf("operator %q requires a non-empty list", rule.Operator)
		}
		for _, item := range items {
			if item.IsSequence() || item.IsMapping() {
				return fmt.Errorf("operator %q list items must be scalars", rule.Operator)
			}
		}
	case Equals, NotEquals:
		if rule.Value.IsSequence() || rule.Value.IsMapping() {
			return fmt.Errorf("operator %q requires a scalar value", rule.Operator)
		}
	}
	return nil
}
