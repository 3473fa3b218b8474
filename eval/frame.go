// Package eval executes parsed agerun methods. It holds the expression
// evaluator, one specialized evaluator per instruction form behind a
// facade, the method evaluator that drives an instruction list, and the
// interpreter that runs one agent against one incoming message.
//
// Evaluation is parameterized by a Frame: the agent's mutable memory
// map, its immutable context map, and the message being delivered.
// Ownership discipline follows the data package: literals and computed
// results are unowned until a store claims them; memory accesses return
// references owned by the enclosing map and must be copied to extract.
package eval

import (
	"github.com/agerun/agerun/data"
)

// Frame is the execution context of a single method run: the memory map
// the method may mutate, the read-only context map fixed at agent
// creation, and the read-only message being delivered.
type Frame struct {
	Memory  *data.Map
	Context *data.Map
	Message data.Value
}

// NewFrame creates a frame over the given maps and message.
func NewFrame(memory *data.Map, context *data.Map, message data.Value) *Frame {
	return &Frame{
		Memory:  memory,
		Context: context,
		Message: message,
	}
}
