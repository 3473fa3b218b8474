package method

import (
	"strings"

	"github.com/agerun/agerun/eventlog"
	"github.com/agerun/agerun/instruction"
	"github.com/agerun/agerun/runerrors"
)

// Method is a named, versioned piece of scripted source text together
// with its parsed AST: an ordered sequence of instruction nodes. A
// method is stateless and may be shared by any number of agents.
// Persistent marks whether agents bound to this method are written to
// the agents file; agents inherit the flag at creation.
type Method struct {
	Name       string
	Version    Version
	Source     string
	AST        []instruction.Node
	Persistent bool
}

// Compile parses source into a Method. Source is line oriented: one
// instruction per line, blank lines and lines starting with # are
// skipped. The first instruction that fails to parse aborts the compile;
// the error identifies the offending line.
func Compile(log *eventlog.Log, name string, version Version, source string) (*Method, *runerrors.RuntimeError) {
	parser := instruction.NewParser(log)

	ast := make([]instruction.Node, 0)
	lines := strings.Split(source, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		node, err := parser.Parse(trimmed)
		if err != nil {
			return nil, runerrors.NewAt(runerrors.ParseError, err.Position,
				"method %s line %d: %s", name, i+1, err.Message)
		}
		ast = append(ast, node)
	}

	return &Method{
		Name:    name,
		Version: version,
		Source:  source,
		AST:     ast,
	}, nil
}
