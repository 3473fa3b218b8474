package eval

import (
	"github.com/agerun/agerun/data"
	"github.com/agerun/agerun/eventlog"
	"github.com/agerun/agerun/instruction"
	"github.com/agerun/agerun/runerrors"
)

// InstructionEvaluator is the facade over the per-form instruction
// evaluators. All specialized evaluators share one expression evaluator,
// the log, and the runtime hooks; the facade dispatches on the node's
// form and also evaluates function-call arguments, which may themselves
// be nested instructions.
type InstructionEvaluator struct {
	log  *eventlog.Log
	expr *ExpressionEvaluator
	rt   Runtime

	assignment *AssignmentEvaluator
	send       *SendEvaluator
	condition  *ConditionEvaluator
	parse      *ParseEvaluator
	build      *BuildEvaluator
	compile    *CompileEvaluator
	spawn      *SpawnEvaluator
	exit       *ExitEvaluator
	deprecate  *DeprecateEvaluator
}

// NewInstructionEvaluator creates the facade and its specialized
// evaluators. rt provides the dispatcher operations; it may be nil when
// only pure instructions (assignment, if, parse, build) are evaluated.
func NewInstructionEvaluator(log *eventlog.Log, rt Runtime) *InstructionEvaluator {
	e := &InstructionEvaluator{
		log:  log,
		expr: NewExpressionEvaluator(log),
		rt:   rt,
	}
	e.assignment = NewAssignmentEvaluator(e)
	e.send = NewSendEvaluator(e)
	e.condition = NewConditionEvaluator(e)
	e.parse = NewParseEvaluator(e)
	e.build = NewBuildEvaluator(e)
	e.compile = NewCompileEvaluator(e)
	e.spawn = NewSpawnEvaluator(e)
	e.exit = NewExitEvaluator(e)
	e.deprecate = NewDeprecateEvaluator(e)
	return e
}

// Expression returns the shared expression evaluator.
func (e *InstructionEvaluator) Expression() *ExpressionEvaluator {
	return e.expr
}

// Evaluate executes one instruction against frame.
func (e *InstructionEvaluator) Evaluate(frame *Frame, node instruction.Node) *runerrors.RuntimeError {
	switch n := node.(type) {
	case *instruction.AssignmentNode:
		return e.assignment.Evaluate(frame, n)
	case *instruction.FunctionCallNode:
		switch n.Kind {
		case instruction.KindSend:
			return e.send.Evaluate(frame, n)
		case instruction.KindIf:
			return e.condition.Evaluate(frame, n)
		case instruction.KindParse:
			return e.parse.Evaluate(frame, n)
		case instruction.KindBuild:
			return e.build.Evaluate(frame, n)
		case instruction.KindCompile:
			return e.compile.Evaluate(frame, n)
		case instruction.KindSpawn:
			return e.spawn.Evaluate(frame, n)
		case instruction.KindExit:
			return e.exit.Evaluate(frame, n)
		case instruction.KindDeprecate:
			return e.deprecate.Evaluate(frame, n)
		}
	}
	err := runerrors.New(runerrors.TypeMismatch, "unknown instruction node")
	e.log.Error(err.Message)
	return err
}

// evaluateArg computes an argument's value, preserving borrows: a plain
// memory access returns the reference owned by its map, everything else
// is unowned.
func (e *InstructionEvaluator) evaluateArg(frame *Frame, arg instruction.Argument) (data.Value, *runerrors.RuntimeError) {
	if arg.IsCall() {
		return e.evaluateCallValue(frame, arg.Call)
	}
	return e.expr.Evaluate(frame, arg.Expr)
}

// evaluateArgOwned computes an argument's value, copying borrows so the
// caller may claim the result.
func (e *InstructionEvaluator) evaluateArgOwned(frame *Frame, arg instruction.Argument) (data.Value, *runerrors.RuntimeError) {
	if arg.IsCall() {
		return e.evaluateCallValue(frame, arg.Call)
	}
	return e.expr.EvaluateOwned(frame, arg.Expr)
}

// evaluateCallValue executes a nested instruction for its value: the
// stored value for assignments is reported as Integer 1, send/compile
// report their 1/0 outcome, if reports the chosen branch, parse a map,
// build a string, spawn the new agent id, exit and deprecate 1/0.
func (e *InstructionEvaluator) evaluateCallValue(frame *Frame, node instruction.Node) (data.Value, *runerrors.RuntimeError) {
	switch n := node.(type) {
	case *instruction.AssignmentNode:
		if err := e.assignment.Evaluate(frame, n); err != nil {
			return nil, err
		}
		return data.NewInteger(1), nil
	case *instruction.FunctionCallNode:
		switch n.Kind {
		case instruction.KindSend:
			return e.send.evaluateValue(frame, n)
		case instruction.KindIf:
			return e.condition.evaluateValue(frame, n)
		case instruction.KindParse:
			return e.parse.evaluateValue(frame, n)
		case instruction.KindBuild:
			return e.build.evaluateValue(frame, n)
		case instruction.KindCompile:
			return e.compile.evaluateValue(frame, n)
		case instruction.KindSpawn:
			value, _, err := e.spawn.evaluateValue(frame, n)
			return value, err
		case instruction.KindExit:
			return e.exit.evaluateValue(frame, n)
		case instruction.KindDeprecate:
			return e.deprecate.evaluateValue(frame, n)
		}
	}
	err := runerrors.New(runerrors.TypeMismatch, "unknown nested instruction")
	e.log.Error(err.Message)
	return nil, err
}

// storeResult claims value and stores it at path inside the frame's
// memory. Borrowed values are copied first. Intermediate path segments
// must be maps or absent.
func (e *InstructionEvaluator) storeResult(frame *Frame, path []string, value data.Value) *runerrors.RuntimeError {
	toStore := value
	if !data.Unowned(value) {
		toStore = data.ShallowCopy(value)
		if toStore == nil {
			err := runerrors.New(runerrors.TypeMismatch,
				"cannot store %s value with nested containers (no deep copy support)", value.GetType())
			e.log.Error(err.Message)
			return err
		}
	}
	if !data.SetByPath(frame.Memory, path, toStore) {
		data.DestroyIfOwned(toStore, e)
		err := runerrors.New(runerrors.TypeMismatch,
			"cannot store into memory path: intermediate value is not a map")
		e.log.Error(err.Message)
		return err
	}
	return nil
}

// discard releases a value the instruction no longer needs. Borrowed
// values stay with their owner; unowned ones are destroyed.
func (e *InstructionEvaluator) discard(value data.Value) {
	data.DestroyIfOwned(value, e)
}
