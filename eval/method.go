package eval

import (
	"github.com/agerun/agerun/eventlog"
	"github.com/agerun/agerun/method"
	"github.com/agerun/agerun/runerrors"
)

// MethodEvaluator runs a method's instruction list against a frame. It
// holds only borrowed references: the method belongs to the methodology
// (or to the agents keeping it alive) and is never mutated.
type MethodEvaluator struct {
	log *eventlog.Log
	ev  *InstructionEvaluator
}

// NewMethodEvaluator creates a method evaluator over the given
// instruction evaluator facade.
func NewMethodEvaluator(log *eventlog.Log, ev *InstructionEvaluator) *MethodEvaluator {
	return &MethodEvaluator{log: log, ev: ev}
}

// Evaluate executes the method's instructions in order, stopping at the
// first failure. The failing instruction's index is reported on the
// log; the error is returned so the caller can decide what to do with
// the agent (the dispatcher keeps it alive and tries the next message).
func (m *MethodEvaluator) Evaluate(frame *Frame, meth *method.Method) *runerrors.RuntimeError {
	for i, node := range meth.AST {
		if err := m.ev.Evaluate(frame, node); err != nil {
			m.log.Errorf("method %s version %s stopped at instruction %d: %s",
				meth.Name, meth.Version, i, err.Message)
			return err
		}
	}
	return nil
}
