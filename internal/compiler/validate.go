package compiler

import (
	"fmt"

	"strategy-lab/internal/domain"
	"strategy-lab/internal/indicator"
)

// Validate checks a specification for well-formedness. Returns the list of
// problems found (empty means valid). Never panics; a spec failing
// validation must never be compiled.
func Validate(spec *domain.StrategySpecification) []string {
	var errs []string

	if spec == nil {
		return []string{"specification is nil"}
	}
	if spec.Name == "" {
		errs = append(errs, "strategy name is empty")
	}

	// Indicator names must be registered; output keys unique after
	// multi-output expansion.
	declared := make(map[string]struct{})
	for i, ind := range spec.Indicators {
		if !indicator.IsRegistered(ind.Name) {
			errs = append(errs, fmt.Sprintf("indicator %d: unknown indicator %q", i, ind.Name))
			continue
		}
		if ind.OutputKey == "" {
			errs = append(errs, fmt.Sprintf("indicator %d (%s): output_key is empty", i, ind.Name))
			continue
		}
		for _, key := range indicator.ExpandOutputKeys(ind.Name, ind.OutputKey) {
			if _, exists := declared[key]; exists {
				errs = append(errs, fmt.Sprintf("indicator %d (%s): duplicate output_key %q", i, ind.Name, key))
				continue
			}
			declared[key] = struct{}{}
		}
	}

	// Source references resolve to a price column or a declared output
	// key whose own indicator reads from prices (one hop only).
	for i, ind := range spec.Indicators {
		if ind.Source == "" || domain.IsPriceColumn(ind.Source) {
			continue
		}
		if _, ok := declared[ind.Source]; !ok {
			errs = append(errs, fmt.Sprintf("indicator %d (%s): source %q is not a declared output_key or price column", i, ind.Name, ind.Source))
			continue
		}
		for _, dep := range spec.Indicators {
			if !dependencyDeclares(dep, ind.Source) {
				continue
			}
			if dep.Source != "" && !domain.IsPriceColumn(dep.Source) {
				errs = append(errs, fmt.Sprintf("indicator %d (%s): source %q is itself derived; only one level of nesting is supported", i, ind.Name, ind.Source))
			}
		}
	}

	errs = append(errs, validateComposite("entry_conditions", spec.EntryConditions, declared, true)...)
	errs = append(errs, validateComposite("exit_conditions", spec.ExitConditions, declared, true)...)

	return errs
}

// dependencyDeclares reports whether spec's expanded output keys include key.
func dependencyDeclares(spec domain.IndicatorSpec, key string) bool {
	for _, k := range indicator.ExpandOutputKeys(spec.Name, spec.OutputKey) {
		if k == key {
			return true
		}
	}
	return false
}

func validateComposite(path string, cc domain.CompositeCondition, declared map[string]struct{}, allowNested bool) []string {
	var errs []string

	if cc.Logic != domain.LogicAllOf && cc.Logic != domain.LogicAnyOf {
		errs = append(errs, fmt.Sprintf("%s: logic must be %s or %s, got %q", path, domain.LogicAllOf, domain.LogicAnyOf, cc.Logic))
	}

	for i, cond := range cc.Conditions {
		errs = append(errs, validateCondition(fmt.Sprintf("%s.conditions[%d]", path, i), cond, declared)...)
	}

	for i, nested := range cc.Nested {
		nestedPath := fmt.Sprintf("%s.nested[%d]", path, i)
		if !allowNested {
			errs = append(errs, fmt.Sprintf("%s: only one level of nesting is permitted", nestedPath))
			continue
		}
		errs = append(errs, validateComposite(nestedPath, nested, declared, false)...)
	}

	return errs
}

// singleOperandOperator reports whether the operator evaluates the left
// operand alone.
func singleOperandOperator(op string) bool {
	switch op {
	case domain.OperatorBetween, domain.OperatorSlopePositive, domain.OperatorPercentChange:
		return true
	}
	return false
}

func validateCondition(path string, cond domain.ConditionSpec, declared map[string]struct{}) []string {
	var errs []string

	known := false
	for _, op := range domain.Operators {
		if cond.Operator == op {
			known = true
			break
		}
	}
	if !known {
		errs = append(errs, fmt.Sprintf("%s: unknown operator %q", path, cond.Operator))
	}

	for side, operand := range map[string]domain.Operand{"left": cond.Left, "right": cond.Right} {
		if operand.IsConstant() {
			continue
		}
		if operand.Key == "" {
			// Only the single-operand operators may omit the right side;
			// between reads its bounds from low/high, the other two read
			// only the left operand.
			if side == "right" && singleOperandOperator(cond.Operator) {
				continue
			}
			errs = append(errs, fmt.Sprintf("%s: %s operand is empty", path, side))
			continue
		}
		if domain.IsPriceColumn(operand.Key) {
			continue
		}
		if _, ok := declared[operand.Key]; !ok {
			errs = append(errs, fmt.Sprintf("%s: %s operand %q is not a declared output_key or price column", path, side, operand.Key))
		}
	}

	return errs
}
