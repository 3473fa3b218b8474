package instruction

import (
	"strings"

	"github.com/agerun/agerun/eventlog"
	"github.com/agerun/agerun/expr"
	"github.com/agerun/agerun/runerrors"
)

// Specialized parsers, one per instruction form. Each shares the
// runtime's log for structured error reporting and keeps no mutable
// state between invocations. The function parsers differ only in the
// kind they produce and the arity they enforce, so they wrap a common
// core.

// AssignmentParser parses memory.PATH := EXPR instructions.
type AssignmentParser struct {
	log *eventlog.Log
}

// NewAssignmentParser creates an assignment parser reporting to log.
func NewAssignmentParser(log *eventlog.Log) *AssignmentParser {
	return &AssignmentParser{log: log}
}

// Parse parses a pure assignment. The target must be a dotted path
// rooted at memory; the right-hand side is handed to the expression
// parser.
func (p *AssignmentParser) Parse(source string) (*AssignmentNode, *runerrors.RuntimeError) {
	assignPos, _ := scanPositions(source)
	if assignPos < 0 {
		return nil, logError(p.log, runerrors.NewAt(runerrors.ParseError, 0, "assignment is missing ':='"))
	}

	targetText, targetOffset := trimOffset(source[:assignPos], 0)
	targetPath, err := parseMemoryTarget(targetText, targetOffset)
	if err != nil {
		return nil, logError(p.log, err)
	}

	exprText, exprOffset := trimOffset(source[assignPos+2:], assignPos+2)
	node, perr := expr.Parse(exprText)
	if perr != nil {
		return nil, logError(p.log, runerrors.NewAt(runerrors.ParseError, exprOffset+perr.Position,
			"invalid assignment expression: %s", perr.Message))
	}

	return &AssignmentNode{
		Source:     source,
		TargetPath: targetPath,
		ExprText:   exprText,
		Expr:       node,
	}, nil
}

// functionParser is the shared core of the per-form function parsers.
// nested is the facade, used to parse arguments that are themselves
// instructions.
type functionParser struct {
	log    *eventlog.Log
	nested *Parser
	kind   Kind
	name   string
	arity  int
}

// Parse parses NAME(arg, ...) with the form's exact arity. Each
// argument is pre-parsed: as a nested instruction when it has the shape
// of one, as an expression otherwise. resultPath is the raw text before
// := when the call appears in assignment context, or "".
func (p *functionParser) Parse(source string, resultPath string) (*FunctionCallNode, *runerrors.RuntimeError) {
	_, parenPos := scanPositions(source)
	if parenPos < 0 {
		return nil, logError(p.log, runerrors.NewAt(runerrors.ParseError, 0,
			"%s instruction is missing its argument list", p.name))
	}

	start, end, ok := argumentSpan(source, parenPos)
	if !ok {
		return nil, logError(p.log, runerrors.NewAt(runerrors.ParseError, parenPos,
			"malformed argument list for %s", p.name))
	}

	argTexts, argOffsets := splitArguments(source[start:end], start)
	if len(argTexts) != p.arity {
		return nil, logError(p.log, runerrors.NewAt(runerrors.ArityMismatch, parenPos,
			"%s expects %d arguments, found %d", p.name, p.arity, len(argTexts)))
	}

	args := make([]Argument, len(argTexts))
	for i, text := range argTexts {
		argText, argOffset := trimOffset(text, argOffsets[i])

		if isNestedInstruction(argText) {
			call, err := p.nested.Parse(argText)
			if err != nil {
				// Nested positions are relative to the argument text
				return nil, runerrors.NewAt(runerrors.ParseError, argOffset+err.Position,
					"invalid argument %d to %s: %s", i+1, p.name, err.Message)
			}
			args[i] = Argument{Text: argText, Call: call}
			continue
		}

		node, perr := expr.Parse(argText)
		if perr != nil {
			return nil, logError(p.log, runerrors.NewAt(runerrors.ParseError, argOffset+perr.Position,
				"invalid argument %d to %s: %s", i+1, p.name, perr.Message))
		}
		args[i] = Argument{Text: argText, Expr: node}
	}

	node := &FunctionCallNode{
		Source: source,
		Kind:   p.kind,
		Name:   p.name,
		Args:   args,
	}

	if resultPath != "" {
		path, err := parseMemoryTarget(resultPath, 0)
		if err != nil {
			return nil, logError(p.log, err)
		}
		node.ResultPath = path
	}

	return node, nil
}

// SendParser parses send(target, message) instructions.
type SendParser struct{ functionParser }

// NewSendParser creates a send parser reporting to log.
func NewSendParser(log *eventlog.Log, nested *Parser) *SendParser {
	return &SendParser{functionParser{log: log, nested: nested, kind: KindSend, name: "send", arity: 2}}
}

// ConditionParser parses if(cond, then, else) instructions.
type ConditionParser struct{ functionParser }

// NewConditionParser creates a condition parser reporting to log.
func NewConditionParser(log *eventlog.Log, nested *Parser) *ConditionParser {
	return &ConditionParser{functionParser{log: log, nested: nested, kind: KindIf, name: "if", arity: 3}}
}

// ParseParser parses parse(template, input) instructions.
type ParseParser struct{ functionParser }

// NewParseParser creates a parse parser reporting to log.
func NewParseParser(log *eventlog.Log, nested *Parser) *ParseParser {
	return &ParseParser{functionParser{log: log, nested: nested, kind: KindParse, name: "parse", arity: 2}}
}

// BuildParser parses build(template, values) instructions.
type BuildParser struct{ functionParser }

// NewBuildParser creates a build parser reporting to log.
func NewBuildParser(log *eventlog.Log, nested *Parser) *BuildParser {
	return &BuildParser{functionParser{log: log, nested: nested, kind: KindBuild, name: "build", arity: 2}}
}

// CompileParser parses compile(name, source, version) instructions.
type CompileParser struct{ functionParser }

// NewCompileParser creates a compile parser reporting to log.
func NewCompileParser(log *eventlog.Log, nested *Parser) *CompileParser {
	return &CompileParser{functionParser{log: log, nested: nested, kind: KindCompile, name: "compile", arity: 3}}
}

// SpawnParser parses spawn(method, version, context) instructions.
type SpawnParser struct{ functionParser }

// NewSpawnParser creates a spawn parser reporting to log.
func NewSpawnParser(log *eventlog.Log, nested *Parser) *SpawnParser {
	return &SpawnParser{functionParser{log: log, nested: nested, kind: KindSpawn, name: "spawn", arity: 3}}
}

// ExitParser parses exit(agent_id) instructions.
type ExitParser struct{ functionParser }

// NewExitParser creates an exit parser reporting to log.
func NewExitParser(log *eventlog.Log, nested *Parser) *ExitParser {
	return &ExitParser{functionParser{log: log, nested: nested, kind: KindExit, name: "exit", arity: 1}}
}

// DeprecateParser parses deprecate(method, version) instructions.
type DeprecateParser struct{ functionParser }

// NewDeprecateParser creates a deprecate parser reporting to log.
func NewDeprecateParser(log *eventlog.Log, nested *Parser) *DeprecateParser {
	return &DeprecateParser{functionParser{log: log, nested: nested, kind: KindDeprecate, name: "deprecate", arity: 2}}
}

// functionNames is the set of built-in function instruction names.
var functionNames = map[string]bool{
	"send":      true,
	"if":        true,
	"parse":     true,
	"build":     true,
	"compile":   true,
	"spawn":     true,
	"exit":      true,
	"deprecate": true,
}

// isNestedInstruction reports whether argument text has the shape of an
// instruction rather than an expression: an assignment (:= before any
// parenthesis) or a call of one of the built-in functions.
func isNestedInstruction(text string) bool {
	assignPos, parenPos := scanPositions(text)
	if assignPos >= 0 && (parenPos < 0 || parenPos > assignPos) {
		return true
	}
	if parenPos < 0 {
		return false
	}
	name := strings.TrimSpace(text[:parenPos])
	return functionNames[name]
}

// parseMemoryTarget validates a dotted assignment target. The target
// must be rooted at memory and name at least one field; any other base
// is read-only.
func parseMemoryTarget(text string, offset int) ([]string, *runerrors.RuntimeError) {
	segments := strings.Split(text, ".")
	if segments[0] != expr.BaseMemory {
		return nil, runerrors.NewAt(runerrors.ReadOnlyTarget, offset,
			"assignment target must begin with 'memory.', found %q", text)
	}
	if len(segments) < 2 {
		return nil, runerrors.NewAt(runerrors.ParseError, offset,
			"assignment target %q names no field", text)
	}
	path := make([]string, 0, len(segments)-1)
	for _, segment := range segments[1:] {
		if !isIdentifier(segment) {
			return nil, runerrors.NewAt(runerrors.ParseError, offset,
				"invalid field %q in assignment target", segment)
		}
		path = append(path, segment)
	}
	return path, nil
}

// isIdentifier reports whether s matches [A-Za-z_][A-Za-z0-9_]*.
func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		alpha := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
		digit := c >= '0' && c <= '9'
		if !alpha && !(digit && i > 0) {
			return false
		}
	}
	return true
}

// logError reports err on the log and passes it through.
func logError(log *eventlog.Log, err *runerrors.RuntimeError) *runerrors.RuntimeError {
	if log != nil && err != nil {
		if err.HasPosition() {
			log.ErrorAt(err.Message, err.Position)
		} else {
			log.Error(err.Message)
		}
	}
	return err
}
