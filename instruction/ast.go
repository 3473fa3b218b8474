// Package instruction implements the statement layer of the agerun
// language: the instruction AST and the parsers that recognize the two
// instruction shapes, assignments and function calls. A facade decides
// which specialized parser to hand an instruction to by scanning, outside
// string quotes, for the first := and the first opening parenthesis.
//
// Each instruction node keeps both the raw source strings (for
// diagnostics) and the pre-parsed ASTs for its arguments, so evaluators
// never re-parse text. A function-call argument is either a plain
// expression or a nested instruction (an assignment or another function
// call), which is what lets method code say
// if(message = "get", send(0, build("Count: {count}", memory)), "").
package instruction

import (
	"fmt"
	"strings"

	"github.com/agerun/agerun/expr"
)

// Kind identifies the form of an instruction.
type Kind string

const (
	// KindAssignment is memory.PATH := EXPR
	KindAssignment Kind = "ASSIGNMENT"
	// KindSend is send(target, message)
	KindSend Kind = "SEND"
	// KindIf is if(cond, then, else)
	KindIf Kind = "IF"
	// KindParse is parse(template, input)
	KindParse Kind = "PARSE"
	// KindBuild is build(template, values)
	KindBuild Kind = "BUILD"
	// KindCompile is compile(name, source, version)
	KindCompile Kind = "COMPILE"
	// KindSpawn is spawn(method, version, context)
	KindSpawn Kind = "SPAWN"
	// KindExit is exit(agent_id)
	KindExit Kind = "EXIT"
	// KindDeprecate is deprecate(method, version)
	KindDeprecate Kind = "DEPRECATE"
)

// Node is an instruction AST node.
type Node interface {
	// GetKind returns the instruction form
	GetKind() Kind
	// Literal returns the raw instruction source
	Literal() string
}

// Argument is one function-call argument: the raw text plus exactly one
// of a pre-parsed expression or a nested instruction.
type Argument struct {
	Text string
	Expr expr.Node
	Call Node
}

// IsCall reports whether the argument is a nested instruction.
func (a Argument) IsCall() bool { return a.Call != nil }

// Literal returns the canonical source form of the argument.
func (a Argument) Literal() string {
	if a.Call != nil {
		return a.Call.Literal()
	}
	return a.Expr.Literal()
}

// AssignmentNode is memory.PATH := EXPR. TargetPath holds the fields
// after the memory base, in order.
type AssignmentNode struct {
	Source     string
	TargetPath []string
	ExprText   string
	Expr       expr.Node
}

// GetKind returns KindAssignment
func (n *AssignmentNode) GetKind() Kind { return KindAssignment }

// Literal returns the raw instruction source
func (n *AssignmentNode) Literal() string { return n.Source }

// String renders the node for inspection and snapshot tests.
func (n *AssignmentNode) String() string {
	return fmt.Sprintf("ASSIGNMENT memory.%s := %s", strings.Join(n.TargetPath, "."), n.Expr.Literal())
}

// FunctionCallNode is one of the built-in function instructions, with an
// optional result path when the call appears on the right of :=.
type FunctionCallNode struct {
	Source     string
	Kind       Kind
	Name       string
	Args       []Argument
	ResultPath []string // nil when the call has no assignment context
}

// GetKind returns the function kind
func (n *FunctionCallNode) GetKind() Kind { return n.Kind }

// Literal returns the raw instruction source
func (n *FunctionCallNode) Literal() string { return n.Source }

// HasResultPath reports whether the call stores its result.
func (n *FunctionCallNode) HasResultPath() bool { return len(n.ResultPath) > 0 }

// String renders the node for inspection and snapshot tests.
func (n *FunctionCallNode) String() string {
	args := make([]string, len(n.Args))
	for i, a := range n.Args {
		args[i] = a.Literal()
	}
	if n.HasResultPath() {
		return fmt.Sprintf("%s memory.%s := %s(%s)", n.Kind, strings.Join(n.ResultPath, "."), n.Name, strings.Join(args, ", "))
	}
	return fmt.Sprintf("%s %s(%s)", n.Kind, n.Name, strings.Join(args, ", "))
}
