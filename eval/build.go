package eval

import (
	"github.com/agerun/agerun/data"
	"github.com/agerun/agerun/instruction"
	"github.com/agerun/agerun/runerrors"
)

// BuildEvaluator executes build(template, values) instructions.
type BuildEvaluator struct {
	ev *InstructionEvaluator
}

// NewBuildEvaluator creates a build evaluator sharing the facade's
// expression evaluator and log.
func NewBuildEvaluator(ev *InstructionEvaluator) *BuildEvaluator {
	return &BuildEvaluator{ev: ev}
}

// Evaluate runs the build; in assignment context the resulting string
// is stored, otherwise it is discarded.
func (e *BuildEvaluator) Evaluate(frame *Frame, node *instruction.FunctionCallNode) *runerrors.RuntimeError {
	value, err := e.evaluateValue(frame, node)
	if err != nil {
		return err
	}
	if node.HasResultPath() {
		return e.ev.storeResult(frame, node.ResultPath, value)
	}
	e.ev.discard(value)
	return nil
}

// evaluateValue substitutes values into the template and returns the
// owned result string. The template must be a string and the values a
// map; scalar map entries render as their string forms, missing keys
// leave the {name} placeholder untouched, and container entries are a
// type mismatch.
func (e *BuildEvaluator) evaluateValue(frame *Frame, node *instruction.FunctionCallNode) (data.Value, *runerrors.RuntimeError) {
	templateValue, err := e.ev.evaluateArg(frame, node.Args[0])
	if err != nil {
		return nil, err
	}
	template, ok := templateValue.(*data.String)
	if !ok {
		e.ev.discard(templateValue)
		rerr := runerrors.New(runerrors.TypeMismatch,
			"build template must be a string, found %s", templateValue.GetType())
		e.ev.log.Error(rerr.Message)
		return nil, rerr
	}
	templateText := template.Value
	e.ev.discard(templateValue)

	valuesValue, err := e.ev.evaluateArg(frame, node.Args[1])
	if err != nil {
		return nil, err
	}
	values, ok := valuesValue.(*data.Map)
	if !ok {
		e.ev.discard(valuesValue)
		rerr := runerrors.New(runerrors.TypeMismatch,
			"build values must be a map, found %s", valuesValue.GetType())
		e.ev.log.Error(rerr.Message)
		return nil, rerr
	}

	built, ok := buildTemplate(templateText, values)
	e.ev.discard(valuesValue)
	if !ok {
		rerr := runerrors.New(runerrors.TypeMismatch,
			"build values must be scalars; maps and lists cannot be rendered")
		e.ev.log.Error(rerr.Message)
		return nil, rerr
	}
	return data.NewString(built), nil
}
