package eval

import (
	"github.com/agerun/agerun/data"
	"github.com/agerun/agerun/eventlog"
	"github.com/agerun/agerun/expr"
	"github.com/agerun/agerun/runerrors"
)

// ExpressionEvaluator evaluates expression AST nodes against a frame.
// It is stateless over the AST; one instance is shared by all
// instruction evaluators of a runtime.
type ExpressionEvaluator struct {
	log *eventlog.Log
}

// NewExpressionEvaluator creates an expression evaluator reporting to
// log.
func NewExpressionEvaluator(log *eventlog.Log) *ExpressionEvaluator {
	return &ExpressionEvaluator{log: log}
}

// Evaluate computes the value of node within frame. Literal and binary
// operation results are unowned, free for the caller to claim; a memory
// access returns a reference owned by the enclosing map, which the
// caller must copy to extract.
func (e *ExpressionEvaluator) Evaluate(frame *Frame, node expr.Node) (data.Value, *runerrors.RuntimeError) {
	switch n := node.(type) {
	case *expr.LiteralIntNode:
		return data.NewInteger(n.Value), nil
	case *expr.LiteralDoubleNode:
		return data.NewDouble(n.Value), nil
	case *expr.LiteralStringNode:
		return data.NewString(n.Value), nil
	case *expr.MemoryAccessNode:
		return e.evaluateMemoryAccess(frame, n)
	case *expr.BinaryOpNode:
		return e.evaluateBinaryOp(frame, n)
	}
	err := runerrors.New(runerrors.TypeMismatch, "unknown expression node")
	e.log.Error(err.Message)
	return nil, err
}

// EvaluateOwned computes the value of node and guarantees the result is
// unowned: borrowed references are shallow-copied. Used wherever the
// caller needs a value it can claim, such as binary operands and stored
// results.
func (e *ExpressionEvaluator) EvaluateOwned(frame *Frame, node expr.Node) (data.Value, *runerrors.RuntimeError) {
	value, err := e.Evaluate(frame, node)
	if err != nil {
		return nil, err
	}
	if data.Unowned(value) {
		return value, nil
	}
	copied := data.ShallowCopy(value)
	if copied == nil {
		err := runerrors.New(runerrors.TypeMismatch,
			"cannot copy %s value with nested containers (no deep copy support)", value.GetType())
		e.log.Error(err.Message)
		return nil, err
	}
	return copied, nil
}

// evaluateMemoryAccess resolves base.field... against the frame. The
// result is a reference owned by the map it lives in.
func (e *ExpressionEvaluator) evaluateMemoryAccess(frame *Frame, node *expr.MemoryAccessNode) (data.Value, *runerrors.RuntimeError) {
	var current data.Value
	switch node.Base {
	case expr.BaseMemory:
		current = frame.Memory
	case expr.BaseContext:
		current = frame.Context
	case expr.BaseMessage:
		current = frame.Message
	default:
		err := runerrors.New(runerrors.UnknownField, "invalid accessor base %q", node.Base)
		e.log.Error(err.Message)
		return nil, err
	}
	if current == nil {
		err := runerrors.New(runerrors.UnknownField, "accessor base %q is not available", node.Base)
		e.log.Error(err.Message)
		return nil, err
	}

	for _, field := range node.Path {
		m, ok := current.(*data.Map)
		if !ok {
			err := runerrors.New(runerrors.UnknownField,
				"Cannot access field '%s' on %s value %s", field, current.GetType(), current.ToString())
			e.log.Error(err.Message)
			return nil, err
		}
		current = m.Get(field)
		if current == nil {
			err := runerrors.New(runerrors.UnknownField,
				"field '%s' not found in %s", field, node.Literal())
			e.log.Error(err.Message)
			return nil, err
		}
	}
	return current, nil
}

// evaluateBinaryOp applies a binary operator. Integer op Integer yields
// Integer; when either operand is a Double both are promoted and the
// arithmetic result is a Double while comparisons yield Integer 0/1;
// strings support + (concatenation) and the two equality comparisons.
// Division wraps on int64 overflow (MinInt64 / -1), which is Go's
// defined behavior, and fails on a zero divisor.
func (e *ExpressionEvaluator) evaluateBinaryOp(frame *Frame, node *expr.BinaryOpNode) (data.Value, *runerrors.RuntimeError) {
	left, err := e.EvaluateOwned(frame, node.Left)
	if err != nil {
		return nil, err
	}
	right, err := e.EvaluateOwned(frame, node.Right)
	if err != nil {
		data.DestroyIfOwned(left, e)
		return nil, err
	}
	defer data.DestroyIfOwned(left, e)
	defer data.DestroyIfOwned(right, e)

	leftInt, leftIsInt := left.(*data.Integer)
	rightInt, rightIsInt := right.(*data.Integer)
	if leftIsInt && rightIsInt {
		return e.integerOp(node.Op, leftInt.Value, rightInt.Value)
	}

	leftDouble, leftIsDouble := left.(*data.Double)
	rightDouble, rightIsDouble := right.(*data.Double)
	if (leftIsDouble || leftIsInt) && (rightIsDouble || rightIsInt) {
		var lv, rv float64
		if leftIsDouble {
			lv = leftDouble.Value
		} else {
			lv = float64(leftInt.Value)
		}
		if rightIsDouble {
			rv = rightDouble.Value
		} else {
			rv = float64(rightInt.Value)
		}
		return e.doubleOp(node.Op, lv, rv)
	}

	leftStr, leftIsStr := left.(*data.String)
	rightStr, rightIsStr := right.(*data.String)
	if leftIsStr && rightIsStr {
		return e.stringOp(node.Op, leftStr.Value, rightStr.Value)
	}

	rerr := runerrors.New(runerrors.TypeMismatch,
		"operator %s cannot combine %s and %s", node.Op, left.GetType(), right.GetType())
	e.log.Error(rerr.Message)
	return nil, rerr
}

// integerOp applies op to two int64 operands.
func (e *ExpressionEvaluator) integerOp(op expr.Operator, left int64, right int64) (data.Value, *runerrors.RuntimeError) {
	switch op {
	case expr.OpAdd:
		return data.NewInteger(left + right), nil
	case expr.OpSubtract:
		return data.NewInteger(left - right), nil
	case expr.OpMultiply:
		return data.NewInteger(left * right), nil
	case expr.OpDivide:
		if right == 0 {
			err := runerrors.New(runerrors.DivisionByZero, "division by zero")
			e.log.Error(err.Message)
			return nil, err
		}
		return data.NewInteger(left / right), nil
	case expr.OpEqual:
		return boolInteger(left == right), nil
	case expr.OpNotEqual:
		return boolInteger(left != right), nil
	case expr.OpLess:
		return boolInteger(left < right), nil
	case expr.OpGreater:
		return boolInteger(left > right), nil
	case expr.OpLessEq:
		return boolInteger(left <= right), nil
	case expr.OpGreaterEq:
		return boolInteger(left >= right), nil
	}
	err := runerrors.New(runerrors.TypeMismatch, "unknown operator %s for integers", op)
	e.log.Error(err.Message)
	return nil, err
}

// doubleOp applies op after promotion to float64. Comparisons still
// yield Integer 0/1.
func (e *ExpressionEvaluator) doubleOp(op expr.Operator, left float64, right float64) (data.Value, *runerrors.RuntimeError) {
	switch op {
	case expr.OpAdd:
		return data.NewDouble(left + right), nil
	case expr.OpSubtract:
		return data.NewDouble(left - right), nil
	case expr.OpMultiply:
		return data.NewDouble(left * right), nil
	case expr.OpDivide:
		if right == 0.0 {
			err := runerrors.New(runerrors.DivisionByZero, "division by zero")
			e.log.Error(err.Message)
			return nil, err
		}
		return data.NewDouble(left / right), nil
	case expr.OpEqual:
		return boolInteger(left == right), nil
	case expr.OpNotEqual:
		return boolInteger(left != right), nil
	case expr.OpLess:
		return boolInteger(left < right), nil
	case expr.OpGreater:
		return boolInteger(left > right), nil
	case expr.OpLessEq:
		return boolInteger(left <= right), nil
	case expr.OpGreaterEq:
		return boolInteger(left >= right), nil
	}
	err := runerrors.New(runerrors.TypeMismatch, "unknown operator %s for doubles", op)
	e.log.Error(err.Message)
	return nil, err
}

// stringOp applies op to two strings: + concatenates, = and <> compare
// by byte equality, everything else is a type mismatch.
func (e *ExpressionEvaluator) stringOp(op expr.Operator, left string, right string) (data.Value, *runerrors.RuntimeError) {
	switch op {
	case expr.OpAdd:
		return data.NewString(left + right), nil
	case expr.OpEqual:
		return boolInteger(left == right), nil
	case expr.OpNotEqual:
		return boolInteger(left != right), nil
	}
	err := runerrors.New(runerrors.TypeMismatch, "operator %s is not supported for strings", op)
	e.log.Error(err.Message)
	return nil, err
}

// boolInteger converts a comparison outcome to Integer 1 or 0.
func boolInteger(b bool) *data.Integer {
	if b {
		return data.NewInteger(1)
	}
	return data.NewInteger(0)
}
