package eval

import (
	"github.com/agerun/agerun/data"
	"github.com/agerun/agerun/instruction"
	"github.com/agerun/agerun/runerrors"
)

// AssignmentEvaluator executes memory.PATH := EXPR instructions.
type AssignmentEvaluator struct {
	ev *InstructionEvaluator
}

// NewAssignmentEvaluator creates an assignment evaluator sharing the
// facade's expression evaluator and log.
func NewAssignmentEvaluator(ev *InstructionEvaluator) *AssignmentEvaluator {
	return &AssignmentEvaluator{ev: ev}
}

// Evaluate computes the right-hand side and stores it at the target
// path. A borrowed result (memory access) is shallow-copied; an owned
// result is claimed by the memory map. Intermediate maps are created for
// missing path segments; a scalar on the way is a type mismatch.
func (e *AssignmentEvaluator) Evaluate(frame *Frame, node *instruction.AssignmentNode) *runerrors.RuntimeError {
	value, err := e.ev.expr.EvaluateOwned(frame, node.Expr)
	if err != nil {
		return err
	}
	if !data.SetByPath(frame.Memory, node.TargetPath, value) {
		e.ev.discard(value)
		rerr := runerrors.New(runerrors.TypeMismatch,
			"cannot assign %q: intermediate value is not a map", node.Literal())
		e.ev.log.Error(rerr.Message)
		return rerr
	}
	return nil
}
