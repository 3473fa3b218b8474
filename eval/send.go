package eval

import (
	"github.com/agerun/agerun/agent"
	"github.com/agerun/agerun/data"
	"github.com/agerun/agerun/instruction"
	"github.com/agerun/agerun/runerrors"
)

// SendEvaluator executes send(target, message) instructions.
type SendEvaluator struct {
	ev *InstructionEvaluator
}

// NewSendEvaluator creates a send evaluator sharing the facade's
// expression evaluator, log and runtime hooks.
func NewSendEvaluator(ev *InstructionEvaluator) *SendEvaluator {
	return &SendEvaluator{ev: ev}
}

// Evaluate performs the send. In assignment context the 1/0 outcome is
// stored and the instruction succeeds either way; a bare send to a
// missing agent fails the instruction. Send-to-gone is an expected
// outcome, so it is not reported on the log at ERROR severity.
func (e *SendEvaluator) Evaluate(frame *Frame, node *instruction.FunctionCallNode) *runerrors.RuntimeError {
	value, err := e.evaluateValue(frame, node)
	if err != nil {
		return err
	}
	if node.HasResultPath() {
		return e.ev.storeResult(frame, node.ResultPath, value)
	}
	if value.(*data.Integer).Value == 0 {
		return runerrors.New(runerrors.UnknownAgent, "send target is not a live agent")
	}
	return nil
}

// evaluateValue performs the send and reports the outcome as Integer 1
// or 0. The target must evaluate to an Integer. Target 0 is the no-op
// sink: the send succeeds and an unowned message is destroyed. For any
// other target the message is claimed (or shallow-copied out of the
// owning map) and ownership passes to the dispatcher at enqueue.
func (e *SendEvaluator) evaluateValue(frame *Frame, node *instruction.FunctionCallNode) (data.Value, *runerrors.RuntimeError) {
	targetValue, err := e.ev.evaluateArgOwned(frame, node.Args[0])
	if err != nil {
		return nil, err
	}
	target, ok := targetValue.(*data.Integer)
	if !ok {
		e.ev.discard(targetValue)
		rerr := runerrors.New(runerrors.TypeMismatch,
			"send target must be an integer, found %s", targetValue.GetType())
		e.ev.log.Error(rerr.Message)
		return nil, rerr
	}
	targetID := target.Value
	e.ev.discard(targetValue)

	messageValue, err := e.ev.evaluateArg(frame, node.Args[1])
	if err != nil {
		return nil, err
	}

	ownMessage := data.ClaimOrCopy(messageValue, e)
	if ownMessage == nil {
		rerr := runerrors.New(runerrors.TypeMismatch,
			"cannot send message with nested containers (no deep copy support)")
		e.ev.log.Error(rerr.Message)
		return nil, rerr
	}

	if targetID == agent.SinkID {
		// The sink accepts everything and keeps nothing
		data.DestroyIfOwned(ownMessage, e)
		return data.NewInteger(1), nil
	}

	data.DropOwnership(ownMessage, e)
	if e.ev.rt == nil {
		return data.NewInteger(0), nil
	}
	sent := e.ev.rt.SendMessage(targetID, ownMessage)
	return boolInteger(sent), nil
}
