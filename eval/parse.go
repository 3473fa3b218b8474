package eval

import (
	"github.com/agerun/agerun/data"
	"github.com/agerun/agerun/instruction"
	"github.com/agerun/agerun/runerrors"
)

// ParseEvaluator executes parse(template, input) instructions.
type ParseEvaluator struct {
	ev *InstructionEvaluator
}

// NewParseEvaluator creates a parse evaluator sharing the facade's
// expression evaluator and log.
func NewParseEvaluator(ev *InstructionEvaluator) *ParseEvaluator {
	return &ParseEvaluator{ev: ev}
}

// Evaluate runs the parse; in assignment context the resulting map is
// stored, otherwise it is discarded.
func (e *ParseEvaluator) Evaluate(frame *Frame, node *instruction.FunctionCallNode) *runerrors.RuntimeError {
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

// evaluateValue matches the input against the template and returns the
// owned result map. Both arguments must be strings. A template that
// does not match the input yields an empty map; that is a success, not
// a failure.
func (e *ParseEvaluator) evaluateValue(frame *Frame, node *instruction.FunctionCallNode) (data.Value, *runerrors.RuntimeError) {
	template, err := e.stringArg(frame, node, 0, "template")
	if err != nil {
		return nil, err
	}
	input, err := e.stringArg(frame, node, 1, "input")
	if err != nil {
		return nil, err
	}
	return matchTemplate(template, input), nil
}

// stringArg evaluates argument index and requires it to be a string.
func (e *ParseEvaluator) stringArg(frame *Frame, node *instruction.FunctionCallNode, index int, name string) (string, *runerrors.RuntimeError) {
	value, err := e.ev.evaluateArg(frame, node.Args[index])
	if err != nil {
		return "", err
	}
	s, ok := value.(*data.String)
	if !ok {
		e.ev.discard(value)
		rerr := runerrors.New(runerrors.TypeMismatch,
			"parse %s must be a string, found %s", name, value.GetType())
		e.ev.log.Error(rerr.Message)
		return "", rerr
	}
	text := s.Value
	e.ev.discard(value)
	return text, nil
}
