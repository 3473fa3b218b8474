package eval

import (
	"github.com/agerun/agerun/data"
	"github.com/agerun/agerun/instruction"
	"github.com/agerun/agerun/runerrors"
)

// SpawnEvaluator executes spawn(method, version, context) instructions.
type SpawnEvaluator struct {
	ev *InstructionEvaluator
}

// NewSpawnEvaluator creates a spawn evaluator sharing the facade's
// expression evaluator, log and runtime hooks.
func NewSpawnEvaluator(ev *InstructionEvaluator) *SpawnEvaluator {
	return &SpawnEvaluator{ev: ev}
}

// Evaluate runs the spawn. In assignment context the new agent id (or
// 0) is stored; a bare spawn naming a method that cannot be resolved
// fails the instruction, while spawn("") and spawn(0) are successful
// no-ops.
func (e *SpawnEvaluator) Evaluate(frame *Frame, node *instruction.FunctionCallNode) *runerrors.RuntimeError {
	value, noop, err := e.evaluateValue(frame, node)
	if err != nil {
		return err
	}
	if node.HasResultPath() {
		return e.ev.storeResult(frame, node.ResultPath, value)
	}
	if !noop && value.(*data.Integer).Value == 0 {
		return runerrors.New(runerrors.UnknownMethod, "spawn could not create the agent")
	}
	return nil
}

// evaluateValue creates the agent and returns its id as an Integer,
// with 0 for both the explicit no-op (empty or 0 method name) and for
// failure; noop distinguishes the two. The method name is a string (or
// Integer 0 for the no-op), the version a string or Integer 0 for the
// latest registered version, and the context a map or Integer 0 for an
// empty context. The dispatcher enqueues the wake message for the new
// agent.
func (e *SpawnEvaluator) evaluateValue(frame *Frame, node *instruction.FunctionCallNode) (data.Value, bool, *runerrors.RuntimeError) {
	nameValue, err := e.ev.evaluateArg(frame, node.Args[0])
	if err != nil {
		return nil, false, err
	}
	var name string
	switch v := nameValue.(type) {
	case *data.String:
		name = v.Value
	case *data.Integer:
		if v.Value != 0 {
			e.ev.discard(nameValue)
			rerr := runerrors.New(runerrors.TypeMismatch, "spawn method name must be a string or 0")
			e.ev.log.Error(rerr.Message)
			return nil, false, rerr
		}
	default:
		e.ev.discard(nameValue)
		rerr := runerrors.New(runerrors.TypeMismatch,
			"spawn method name must be a string, found %s", nameValue.GetType())
		e.ev.log.Error(rerr.Message)
		return nil, false, rerr
	}
	e.ev.discard(nameValue)

	if name == "" {
		return data.NewInteger(0), true, nil
	}

	versionValue, err := e.ev.evaluateArg(frame, node.Args[1])
	if err != nil {
		return nil, false, err
	}
	var version string
	switch v := versionValue.(type) {
	case *data.String:
		version = v.Value
	case *data.Integer:
		if v.Value == 0 {
			version = ""
		} else {
			version = v.ToString()
		}
	default:
		e.ev.discard(versionValue)
		rerr := runerrors.New(runerrors.TypeMismatch,
			"spawn version must be a string or integer, found %s", versionValue.GetType())
		e.ev.log.Error(rerr.Message)
		return nil, false, rerr
	}
	e.ev.discard(versionValue)

	contextValue, err := e.ev.evaluateArg(frame, node.Args[2])
	if err != nil {
		return nil, false, err
	}
	var context *data.Map
	switch v := contextValue.(type) {
	case *data.Map:
		context = v
	case *data.Integer:
		if v.Value != 0 {
			e.ev.discard(contextValue)
			rerr := runerrors.New(runerrors.TypeMismatch, "spawn context must be a map or 0")
			e.ev.log.Error(rerr.Message)
			return nil, false, rerr
		}
	default:
		e.ev.discard(contextValue)
		rerr := runerrors.New(runerrors.TypeMismatch,
			"spawn context must be a map, found %s", contextValue.GetType())
		e.ev.log.Error(rerr.Message)
		return nil, false, rerr
	}

	var id int64
	if e.ev.rt != nil {
		id = e.ev.rt.SpawnAgent(name, version, context)
	}
	e.ev.discard(contextValue)
	return data.NewInteger(id), false, nil
}
