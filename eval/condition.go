package eval

import (
	"github.com/agerun/agerun/data"
	"github.com/agerun/agerun/instruction"
	"github.com/agerun/agerun/runerrors"
)

// ConditionEvaluator executes if(cond, then, else) instructions.
type ConditionEvaluator struct {
	ev *InstructionEvaluator
}

// NewConditionEvaluator creates a condition evaluator sharing the
// facade's expression evaluator and log.
func NewConditionEvaluator(ev *InstructionEvaluator) *ConditionEvaluator {
	return &ConditionEvaluator{ev: ev}
}

// Evaluate runs the condition; in assignment context the chosen branch's
// value is stored, otherwise it is discarded.
func (e *ConditionEvaluator) Evaluate(frame *Frame, node *instruction.FunctionCallNode) *runerrors.RuntimeError {
	value, err := e.evaluateValue(frame, node)
	if err != nil {
		return err
	}
	if node.HasResultPath() {
		return e.ev.storeResult(frame, node.ResultPath, value)
	}
	e.ev.discard(value)
	return nil
}

// evaluateValue evaluates the condition and then only the chosen
// branch; the other branch was parsed but is never evaluated. Integer 0
// and the empty string are false, every other value is true.
func (e *ConditionEvaluator) evaluateValue(frame *Frame, node *instruction.FunctionCallNode) (data.Value, *runerrors.RuntimeError) {
	condValue, err := e.ev.evaluateArgOwned(frame, node.Args[0])
	if err != nil {
		return nil, err
	}
	truthy := isTruthy(condValue)
	e.ev.discard(condValue)

	branch := node.Args[2]
	if truthy {
		branch = node.Args[1]
	}
	return e.ev.evaluateArg(frame, branch)
}

// isTruthy applies the language's truth rule: Integer 0 and the empty
// string are false; everything else is true.
func isTruthy(value data.Value) bool {
	switch v := value.(type) {
	case *data.Integer:
		return v.Value != 0
	case *data.String:
		return v.Value != ""
	}
	return true
}
