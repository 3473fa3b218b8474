package eval

import "github.com/agerun/agerun/data"

// Runtime is what the instruction evaluators need from the dispatcher:
// message enqueueing, agent lifecycle and method registry operations.
// The dispatcher implements it; defining the interface here keeps the
// evaluators free of a dependency on the runtime package.
type Runtime interface {
	// SendMessage enqueues message for agentID, taking ownership of the
	// unowned message value. It reports false when agentID is neither
	// the sink nor a live agent; the message is destroyed in that case.
	SendMessage(agentID int64, message data.Value) bool

	// SpawnAgent creates an agent bound to the named method (latest
	// version when versionText is "" or "0"), seeds its context from a
	// shallow copy of context, and enqueues the wake message. Returns
	// the new agent id, or 0 on failure.
	SpawnAgent(methodName string, versionText string, context *data.Map) int64

	// ExitAgent marks the agent inactive and schedules destruction after
	// its inbox drains. Reports whether the agent existed.
	ExitAgent(agentID int64) bool

	// CompileMethod parses source and registers it under (name,
	// versionText). Reports whether the method was registered.
	CompileMethod(name string, source string, versionText string) bool

	// DeprecateMethod unregisters (name, versionText). Reports whether
	// an entry was removed.
	DeprecateMethod(name string, versionText string) bool
}
