package eval

import (
	"github.com/agerun/agerun/agent"
	"github.com/agerun/agerun/data"
	"github.com/agerun/agerun/eventlog"
	"github.com/agerun/agerun/runerrors"
)

// Interpreter drives one agent for one incoming message: it builds the
// execution frame from the agent's memory, context and the message, and
// hands the agent's method to the method evaluator. The interpreter
// does not own the agent; the registry does.
type Interpreter struct {
	log        *eventlog.Log
	methodEval *MethodEvaluator
}

// NewInterpreter creates an interpreter with its own evaluator stack.
// rt provides the dispatcher operations invoked by the lifecycle
// instructions.
func NewInterpreter(log *eventlog.Log, rt Runtime) *Interpreter {
	ev := NewInstructionEvaluator(log, rt)
	return &Interpreter{
		log:        log,
		methodEval: NewMethodEvaluator(log, ev),
	}
}

// Execute runs the agent's method with message as the frame's message.
// The message stays owned by the caller (the dispatcher); the method
// reads it through the frame and copies what it wants to keep.
func (in *Interpreter) Execute(a *agent.Agent, message data.Value) *runerrors.RuntimeError {
	if a == nil || a.Method == nil {
		err := runerrors.New(runerrors.UnknownAgent, "interpreter invoked without an agent method")
		in.log.Error(err.Message)
		return err
	}
	frame := NewFrame(a.Memory, a.Context, message)
	return in.methodEval.Evaluate(frame, a.Method)
}
