package domain

// Condition operators recognized by the compiler.
const (
	OperatorCrossAbove    = "cross_above"
	OperatorCrossBelow    = "cross_below"
	OperatorGreaterThan   = "greater_than"
	OperatorLessThan      = "less_than"
	OperatorBetween       = "between"
	OperatorSlopePositive = "slope_positive"
	OperatorPercentChange = "percent_change"
)

// Operators lists every recognized condition operator.
var Operators = []string{
	OperatorCrossAbove,
	OperatorCrossBelow,
	OperatorGreaterThan,
	OperatorLessThan,
	OperatorBetween,
	OperatorSlopePositive,
	OperatorPercentChange,
}

// Composite logic modes.
const (
	LogicAllOf = "ALL_OF"
	LogicAnyOf = "ANY_OF"
)

// IndicatorSpec declares one indicator computation.
// Params may reference another indicator's output key via "source",
// resolved with exactly one hop of nesting.
type IndicatorSpec struct {
	Name      string             `json:"name"`
	Params    map[string]float64 `json:"params,omitempty"`
	Source    string             `json:"source,omitempty"`
	OutputKey string             `json:"output_key"`
}

// Operand is one side of a condition: either a numeric constant or a
// reference to an output key / price column.
type Operand struct {
	Key   string   `json:"key,omitempty"`
	Value *float64 `json:"value,omitempty"`
}

// IsConstant reports whether the operand is a numeric constant.
func (o Operand) IsConstant() bool {
	return o.Value != nil
}

// ConditionSpec declares one boolean condition over operands.
type ConditionSpec struct {
	Operator string  `json:"operator"`
	Left     Operand `json:"left"`
	Right    Operand `json:"right,omitempty"`

	// Operator parameters.
	Low       *float64 `json:"low,omitempty"`       // between
	High      *float64 `json:"high,omitempty"`      // between
	Lookback  int      `json:"lookback,omitempty"`  // slope_positive, percent_change
	Threshold *float64 `json:"threshold,omitempty"` // percent_change
}

// CompositeCondition combines conditions under ALL_OF / ANY_OF logic.
// One level of nesting is permitted.
type CompositeCondition struct {
	Logic      string               `json:"logic"`
	Conditions []ConditionSpec      `json:"conditions,omitempty"`
	Nested     []CompositeCondition `json:"nested,omitempty"`
}

// RiskParams are carried on the specification and enforced by the
// execution layer, not the compiler.
type RiskParams struct {
	StopLossPct        float64 `json:"stop_loss_pct,omitempty"`
	TakeProfitPct      float64 `json:"take_profit_pct,omitempty"`
	TrailingStopPct    float64 `json:"trailing_stop_pct,omitempty"`
	MaxHoldingDays     int     `json:"max_holding_days,omitempty"`
	PositionSizeMethod string  `json:"position_size_method,omitempty"`
	MaxPositions       int     `json:"max_positions,omitempty"`
}

// StrategySpecification is the declarative description of a strategy:
// indicators, entry/exit logic, risk parameters. It is the single source
// of truth for a strategy's logic and is immutable once compiled.
type StrategySpecification struct {
	Name            string             `json:"name"`
	Version         string             `json:"version,omitempty"`
	Description     string             `json:"description,omitempty"`
	Indicators      []IndicatorSpec    `json:"indicators"`
	EntryConditions CompositeCondition `json:"entry_conditions"`
	ExitConditions  CompositeCondition `json:"exit_conditions"`
	Risk            RiskParams         `json:"risk,omitempty"`
	Metadata        map[string]string  `json:"metadata,omitempty"`
}

// Constant returns an Operand holding a numeric constant.
func Constant(v float64) Operand {
	return Operand{Value: &v}
}

// Ref returns an Operand referencing an output key or price column.
func Ref(key string) Operand {
	return Operand{Key: key}
}
