package altar

import (
	"fmt"
	"strings"
)

// TestFunction is the shape of an `is` test: {{ x is divisibleby(3) }}
// evaluates to the bool TestFunction returns. Like filters, tests take
// positional args (rarely more than one in practice) but no kwargs.
type TestFunction func(in *Value, args []*Value) (bool, error)

var builtinTests = make(map[string]TestFunction)

func copyTests(src map[string]TestFunction) map[string]TestFunction {
	dst := make(map[string]TestFunction, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func registerTest(name string, fn TestFunction) {
	if _, exists := builtinTests[name]; exists {
		panic(fmt.Sprintf("test with name '%s' is already registered", name))
	}
	builtinTests[name] = fn
}

// nodeTestExpr wraps `expr is name` / `expr is not name(args)`.
type nodeTestExpr struct {
	token    *Token
	expr     IEvaluator
	name     string
	args     []IEvaluator
	negate   bool
}

func (n *nodeTestExpr) Evaluate(ctx *ExecutionContext) (*Value, error) {
	val, err := n.expr.Evaluate(ctx)
	if err != nil {
		return nil, err
	}

	engine := ctx.template.engine
	fn, exists := engine.tests[n.name]
	if !exists {
		return nil, ctx.Error(fmt.Sprintf("test '%s' not found", n.name), n.token)
	}

	var args []*Value
	for _, a := range n.args {
		av, err := a.Evaluate(ctx)
		if err != nil {
			return nil, err
		}
		args = append(args, av)
	}

	result, err := fn(val, args)
	if err != nil {
		return nil, updateErrorToken(ctx.WrapError(err, n.token), ctx.template, n.token)
	}
	if n.negate {
		result = !result
	}
	return AsValue(result), nil
}

func init() {
	registerTest("defined", func(in *Value, args []*Value) (bool, error) { return !in.IsUndefined(), nil })
	registerTest("undefined", func(in *Value, args []*Value) (bool, error) { return in.IsUndefined(), nil })
	registerTest("none", func(in *Value, args []*Value) (bool, error) { return in.IsNil(), nil })
	registerTest("boolean", func(in *Value, args []*Value) (bool, error) { return in.IsBool(), nil })
	registerTest("true", func(in *Value, args []*Value) (bool, error) { return in.IsBool() && in.Bool(), nil })
	registerTest("false", func(in *Value, args []*Value) (bool, error) { return in.IsBool() && !in.Bool(), nil })
	registerTest("number", func(in *Value, args []*Value) (bool, error) { return in.IsNumber(), nil })
	registerTest("integer", func(in *Value, args []*Value) (bool, error) { return in.IsInteger(), nil })
	registerTest("float", func(in *Value, args []*Value) (bool, error) { return in.IsFloat(), nil })
	registerTest("string", func(in *Value, args []*Value) (bool, error) { return in.IsString(), nil })
	registerTest("sequence", func(in *Value, args []*Value) (bool, error) { return in.IsSequence(), nil })
	registerTest("mapping", func(in *Value, args []*Value) (bool, error) { return in.IsMapping(), nil })
	registerTest("iterable", func(in *Value, args []*Value) (bool, error) { return in.IsIterable(), nil })

	registerTest("lower", func(in *Value, args []*Value) (bool, error) {
		s := in.String()
		return s == strings.ToLower(s), nil
	})
	registerTest("upper", func(in *Value, args []*Value) (bool, error) {
		s := in.String()
		return s == strings.ToUpper(s), nil
	})

	registerTest("odd", func(in *Value, args []*Value) (bool, error) { return in.Integer64()%2 != 0, nil })
	registerTest("even", func(in *Value, args []*Value) (bool, error) { return in.Integer64()%2 == 0, nil })
	registerTest("divisibleby", func(in *Value, args []*Value) (bool, error) {
		if len(args) != 1 {
			return false, fmt.Errorf("'divisibleby' test requires exactly one argument")
		}
		n := args[0].Integer64()
		if n == 0 {
			return false, fmt.Errorf("division by zero in 'divisibleby' test")
		}
		return in.Integer64()%n == 0, nil
	})

	eqFn := func(in *Value, args []*Value) (bool, error) {
		if len(args) != 1 {
			return false, fmt.Errorf("'eq' test requires exactly one argument")
		}
		return in.EqualValueTo(args[0]), nil
	}
	registerTest("eq", eqFn)
	registerTest("equalto", eqFn)
	registerTest("==", eqFn)

	registerTest("ne", func(in *Value, args []*Value) (bool, error) {
		ok, err := eqFn(in, args)
		return !ok, err
	})
	registerTest("lt", func(in *Value, args []*Value) (bool, error) {
		if len(args) != 1 {
			return false, fmt.Errorf("'lt' test requires exactly one argument")
		}
		return in.Compare(args[0]) < 0, nil
	})
	registerTest("le", func(in *Value, args []*Value) (bool, error) {
		if len(args) != 1 {
			return false, fmt.Errorf("'le' test requires exactly one argument")
		}
		return in.Compare(args[0]) <= 0, nil
	})
	registerTest("gt", func(in *Value, args []*Value) (bool, error) {
		if len(args) != 1 {
			return false, fmt.Errorf("'gt' test requires exactly one argument")
		}
		return in.Compare(args[0]) > 0, nil
	})
	registerTest("ge", func(in *Value, args []*Value) (bool, error) {
		if len(args) != 1 {
			return false, fmt.Errorf("'ge' test requires exactly one argument")
		}
		return in.Compare(args[0]) >= 0, nil
	})
	registerTest("in", func(in *Value, args []*Value) (bool, error) {
		if len(args) != 1 {
			return false, fmt.Errorf("'in' test requires exactly one argument")
		}
		return args[0].Contains(in), nil
	})
	registerTest("sameas", func(in *Value, args []*Value) (bool, error) {
		if len(args) != 1 {
			return false, fmt.Errorf("'sameas' test requires exactly one argument")
		}
		return in.Interface() == args[0].Interface(), nil
	})
	registerTest("escaped", func(in *Value, args []*Value) (bool, error) { return in.IsSafe(), nil })
}
