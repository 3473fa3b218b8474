package eval

import (
	"github.com/agerun/agerun/data"
	"github.com/agerun/agerun/instruction"
	"github.com/agerun/agerun/runerrors"
)

// ExitEvaluator executes exit(agent_id) instructions.
type ExitEvaluator struct {
	ev *InstructionEvaluator
}

// NewExitEvaluator creates an exit evaluator sharing the facade's
// expression evaluator, log and runtime hooks.
func NewExitEvaluator(ev *InstructionEvaluator) *ExitEvaluator {
	return &ExitEvaluator{ev: ev}
}

// Evaluate runs the exit. In assignment context the 1/0 outcome is
// stored and the instruction succeeds either way; a bare exit naming an
// unknown agent fails the instruction.
func (e *ExitEvaluator) Evaluate(frame *Frame, node *instruction.FunctionCallNode) *runerrors.RuntimeError {
	value, err := e.evaluateValue(frame, node)
	if err != nil {
		return err
	}
	if node.HasResultPath() {
		return e.ev.storeResult(frame, node.ResultPath, value)
	}
	if value.(*data.Integer).Value == 0 {
		return runerrors.New(runerrors.UnknownAgent, "exit target is not a live agent")
	}
	return nil
}

// evaluateValue marks the agent inactive and reports Integer 1 when it
// existed, 0 otherwise. The dispatcher schedules destruction once the
// agent's inbox drains, delivering the sleep message first.
func (e *ExitEvaluator) evaluateValue(frame *Frame, node *instruction.FunctionCallNode) (data.Value, *runerrors.RuntimeError) {
	idValue, err := e.ev.evaluateArgOwned(frame, node.Args[0])
	if err != nil {
		return nil, err
	}
	id, ok := idValue.(*data.Integer)
	if !ok {
		e.ev.discard(idValue)
		rerr := runerrors.New(runerrors.TypeMismatch,
			"exit agent id must be an integer, found %s", idValue.GetType())
		e.ev.log.Error(rerr.Message)
		return nil, rerr
	}
	agentID := id.Value
	e.ev.discard(idValue)

	if e.ev.rt == nil {
		return data.NewInteger(0), nil
	}
	return boolInteger(e.ev.rt.ExitAgent(agentID)), nil
}
