// Package agent defines agents (live entities with private memory, a
// frozen context and a bound method version) and the registry that owns
// them. Agent ids are allocated monotonically starting at 1; id 0 is the
// reserved no-op sink that accepts sends without enqueueing.
package agent

import (
	"github.com/agerun/agerun/data"
	"github.com/agerun/agerun/method"
)

// SinkID is the reserved agent id that accepts any message and drops it.
const SinkID int64 = 0

// Agent is one live actor. Memory is the agent's private mutable map;
// Context is fixed at creation and never written again. Persistent is
// inherited from the method at creation. Active is cleared by exit();
// Draining marks an inactive agent still waiting for its inbox to empty.
type Agent struct {
	ID      int64
	Method  *method.Method
	Memory  *data.Map
	Context *data.Map

	Persistent bool
	Active     bool
	Draining   bool
}

// MethodName returns the name of the agent's bound method.
func (a *Agent) MethodName() string { return a.Method.Name }

// MethodVersion returns the version of the agent's bound method.
func (a *Agent) MethodVersion() method.Version { return a.Method.Version }
