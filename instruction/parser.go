package instruction

import (
	"strings"

	"github.com/agerun/agerun/eventlog"
	"github.com/agerun/agerun/runerrors"
)

// Parser is the instruction parser facade. It owns one specialized
// parser per instruction form and decides which to use by scanning the
// instruction, outside string quotes, for the first := and the first
// opening parenthesis:
//
//   - := present, ( absent or after := with no call shape → assignment
//   - := present and a function call follows it → function call with a
//     result path taken from the text before :=
//   - only ( present → bare function call
//   - neither → unknown instruction
type Parser struct {
	log *eventlog.Log

	assignment *AssignmentParser
	send       *SendParser
	condition  *ConditionParser
	parse      *ParseParser
	build      *BuildParser
	compile    *CompileParser
	spawn      *SpawnParser
	exit       *ExitParser
	deprecate  *DeprecateParser
}

// NewParser creates an instruction parser facade with all specialized
// parsers sharing log for error reporting.
func NewParser(log *eventlog.Log) *Parser {
	p := &Parser{log: log}
	p.assignment = NewAssignmentParser(log)
	p.send = NewSendParser(log, p)
	p.condition = NewConditionParser(log, p)
	p.parse = NewParseParser(log, p)
	p.build = NewBuildParser(log, p)
	p.compile = NewCompileParser(log, p)
	p.spawn = NewSpawnParser(log, p)
	p.exit = NewExitParser(log, p)
	p.deprecate = NewDeprecateParser(log, p)
	return p
}

// Parse parses a single instruction line into its AST node.
func (p *Parser) Parse(source string) (Node, *runerrors.RuntimeError) {
	assignPos, parenPos := scanPositions(source)

	if assignPos >= 0 && (parenPos < 0 || parenPos > assignPos) {
		if parenPos >= 0 {
			// A call after := is either a function with a result path or
			// an assignment whose expression merely contains parentheses.
			resultPath, _ := trimOffset(source[:assignPos], 0)
			nameStart := assignPos + 2
			funcName, _ := trimOffset(source[nameStart:parenPos], nameStart)
			if funcName != "" && isIdentifier(funcName) {
				return p.dispatchFunction(source, funcName, resultPath)
			}
		}
		// Pure assignment
		return p.assignment.Parse(source)
	}

	if parenPos >= 0 {
		// Any := further right belongs to a nested argument; this
		// instruction itself is a bare function call.
		funcName, _ := trimOffset(source[:parenPos], 0)
		return p.dispatchFunction(source, funcName, "")
	}

	// Diagnose = written where := was meant
	if eqPos := findBareEquals(source); eqPos >= 0 {
		return nil, logError(p.log, runerrors.NewAt(runerrors.ParseError, eqPos,
			"invalid assignment operator, expected ':='"))
	}

	return nil, logError(p.log, runerrors.NewAt(runerrors.ParseError, 0, "unknown instruction type"))
}

// dispatchFunction routes an instruction to the parser for funcName.
func (p *Parser) dispatchFunction(source string, funcName string, resultPath string) (Node, *runerrors.RuntimeError) {
	switch funcName {
	case "send":
		return orNil(p.send.Parse(source, resultPath))
	case "if":
		return orNil(p.condition.Parse(source, resultPath))
	case "parse":
		return orNil(p.parse.Parse(source, resultPath))
	case "build":
		return orNil(p.build.Parse(source, resultPath))
	case "compile":
		return orNil(p.compile.Parse(source, resultPath))
	case "spawn":
		return orNil(p.spawn.Parse(source, resultPath))
	case "exit":
		return orNil(p.exit.Parse(source, resultPath))
	case "deprecate":
		return orNil(p.deprecate.Parse(source, resultPath))
	}
	offset := strings.Index(source, funcName)
	if offset < 0 {
		offset = 0
	}
	return nil, logError(p.log, runerrors.NewAt(runerrors.ParseError, offset,
		"unknown function %q", funcName))
}

// orNil converts a typed nil node into an untyped nil Node so failed
// parses compare equal to nil at the interface level.
func orNil(node *FunctionCallNode, err *runerrors.RuntimeError) (Node, *runerrors.RuntimeError) {
	if err != nil {
		return nil, err
	}
	return node, nil
}
