package eval

import (
	"github.com/agerun/agerun/data"
	"github.com/agerun/agerun/instruction"
	"github.com/agerun/agerun/runerrors"
)

// DeprecateEvaluator executes deprecate(method, version) instructions.
type DeprecateEvaluator struct {
	ev *InstructionEvaluator
}

// NewDeprecateEvaluator creates a deprecate evaluator sharing the
// facade's expression evaluator, log and runtime hooks.
func NewDeprecateEvaluator(ev *InstructionEvaluator) *DeprecateEvaluator {
	return &DeprecateEvaluator{ev: ev}
}

// Evaluate runs the deprecate. In assignment context the 1/0 outcome is
// stored and the instruction succeeds either way; a bare deprecate of an
// unregistered method fails the instruction. Agents bound to the method
// keep running; only future lookups fail.
func (e *DeprecateEvaluator) Evaluate(frame *Frame, node *instruction.FunctionCallNode) *runerrors.RuntimeError {
	value, err := e.evaluateValue(frame, node)
	if err != nil {
		return err
	}
	if node.HasResultPath() {
		return e.ev.storeResult(frame, node.ResultPath, value)
	}
	if value.(*data.Integer).Value == 0 {
		return runerrors.New(runerrors.UnknownMethod, "deprecate target is not registered")
	}
	return nil
}

// evaluateValue unregisters the method and reports Integer 1 when an
// entry was removed, 0 otherwise. Both arguments must be strings.
func (e *DeprecateEvaluator) evaluateValue(frame *Frame, node *instruction.FunctionCallNode) (data.Value, *runerrors.RuntimeError) {
	name, err := e.stringArg(frame, node, 0, "name")
	if err != nil {
		return nil, err
	}
	version, err := e.stringArg(frame, node, 1, "version")
	if err != nil {
		return nil, err
	}

	if e.ev.rt == nil {
		return data.NewInteger(0), nil
	}
	return boolInteger(e.ev.rt.DeprecateMethod(name, version)), nil
}

// stringArg evaluates argument index and requires it to be a string.
func (e *DeprecateEvaluator) stringArg(frame *Frame, node *instruction.FunctionCallNode, index int, name string) (string, *runerrors.RuntimeError) {
	value, err := e.ev.evaluateArg(frame, node.Args[index])
	if err != nil {
		return "", err
	}
	s, ok := value.(*data.String)
	if !ok {
		e.ev.discard(value)
		rerr := runerrors.New(runerrors.TypeMismatch,
			"deprecate %s must be a string, found %s", name, value.GetType())
		e.ev.log.Error(rerr.Message)
		return "", rerr
	}
	text := s.Value
	e.ev.discard(value)
	return text, nil
}
