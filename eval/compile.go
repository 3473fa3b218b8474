package eval

import (
	"github.com/agerun/agerun/data"
	"github.com/agerun/agerun/instruction"
	"github.com/agerun/agerun/runerrors"
)

// CompileEvaluator executes compile(name, source, version) instructions.
type CompileEvaluator struct {
	ev *InstructionEvaluator
}

// NewCompileEvaluator creates a compile evaluator sharing the facade's
// expression evaluator, log and runtime hooks.
func NewCompileEvaluator(ev *InstructionEvaluator) *CompileEvaluator {
	return &CompileEvaluator{ev: ev}
}

// Evaluate runs the compile. In assignment context the 1/0 outcome is
// stored and the instruction succeeds either way; a bare compile that
// fails to register fails the instruction. The parse failure itself has
// already been reported on the log by the method compiler.
func (e *CompileEvaluator) Evaluate(frame *Frame, node *instruction.FunctionCallNode) *runerrors.RuntimeError {
	value, err := e.evaluateValue(frame, node)
	if err != nil {
		return err
	}
	if node.HasResultPath() {
		return e.ev.storeResult(frame, node.ResultPath, value)
	}
	if value.(*data.Integer).Value == 0 {
		return runerrors.New(runerrors.ParseError, "compile did not register the method")
	}
	return nil
}

// evaluateValue registers the method and reports the outcome as Integer
// 1 or 0. All three arguments must be strings. A source that fails to
// parse is reported and yields 0 without registering anything.
func (e *CompileEvaluator) evaluateValue(frame *Frame, node *instruction.FunctionCallNode) (data.Value, *runerrors.RuntimeError) {
	name, err := e.stringArg(frame, node, 0, "name")
	if err != nil {
		return nil, err
	}
	source, err := e.stringArg(frame, node, 1, "source")
	if err != nil {
		return nil, err
	}
	version, err := e.stringArg(frame, node, 2, "version")
	if err != nil {
		return nil, err
	}

	if e.ev.rt == nil {
		return data.NewInteger(0), nil
	}
	return boolInteger(e.ev.rt.CompileMethod(name, source, version)), nil
}

// stringArg evaluates argument index and requires it to be a string.
func (e *CompileEvaluator) stringArg(frame *Frame, node *instruction.FunctionCallNode, index int, name string) (string, *runerrors.RuntimeError) {
	value, err := e.ev.evaluateArg(frame, node.Args[index])
	if err != nil {
		return "", err
	}
	s, ok := value.(*data.String)
	if !ok {
		e.ev.discard(value)
		rerr := runerrors.New(runerrors.TypeMismatch,
			"compile %s must be a string, found %s", name, value.GetType())
		e.ev.log.Error(rerr.Message)
		return "", rerr
	}
	text := s.Value
	e.ev.discard(value)
	return text, nil
}
