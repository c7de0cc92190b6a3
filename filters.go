package altar

import "fmt"

// FilterFunction is the shape every filter (builtin or custom) must
// implement. Unlike Django's single positional parameter, Jinja-style
// filters take both positional args and kwargs, e.g.
// {{ value|truncate(50, true, end='...') }}.
type FilterFunction func(in *Value, args []*Value, kwargs map[string]*Value) (out *Value, err error)

// builtinFilters holds every filter registered at package-init time;
// each Engine gets its own copy (see copyFilters).
var builtinFilters = make(map[string]FilterFunction)

func copyFilters(src map[string]FilterFunction) map[string]FilterFunction {
	dst := make(map[string]FilterFunction, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// registerFilter adds fn to builtinFilters; called from each filter's
// init() in filters_builtin.go.
func registerFilter(name string, fn FilterFunction) {
	if _, exists := builtinFilters[name]; exists {
		panic(fmt.Sprintf("filter with name '%s' is already registered", name))
	}
	builtinFilters[name] = fn
}

// filterArg is one parsed positional or keyword argument to a filter
// call, e.g. the `50`, `true` and `end='...'` in
// |truncate(50, true, end='...').
type filterArg struct {
	name string // "" for a positional argument
	expr IEvaluator
}

// nodeFilterExpr wraps a chain of |filter calls applied to an
// underlying expression: {{ name|upper|truncate(10) }}.
type nodeFilterExpr struct {
	token *Token
	expr  IEvaluator
	calls []*filterCall
}

type filterCall struct {
	token *Token
	name  string
	args  []*filterArg
}

func (n *nodeFilterExpr) Evaluate(ctx *ExecutionContext) (*Value, error) {
	val, err := n.expr.Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	for _, call := range n.calls {
		val, err = call.apply(ctx, val)
		if err != nil {
			return nil, err
		}
	}
	return val, nil
}

func (call *filterCall) apply(ctx *ExecutionContext, in *Value) (*Value, error) {
	engine := ctx.template.engine
	if _, banned := engine.bannedFilters[call.name]; banned {
		return nil, ctx.Error(fmt.Sprintf("usage of filter '%s' is not allowed (sandbox restriction active)", call.name), call.token)
	}

	var args []*Value
	kwargs := make(map[string]*Value)
	for _, a := range call.args {
		v, err := a.expr.Evaluate(ctx)
		if err != nil {
			return nil, err
		}
		if a.name == "" {
			args = append(args, v)
		} else {
			kwargs[a.name] = v
		}
	}

	out, err := engine.ApplyFilter(call.name, in, args, kwargs)
	if err != nil {
		return nil, updateErrorToken(ctx.WrapError(err, call.token), ctx.template, call.token)
	}
	return out, nil
}

// parseFilterCall parses one `| name` or `| name(arg, arg, kw=arg)`
// link in a filter chain; p is positioned just after the consumed '|'.
func (p *Parser) parseFilterCall() (*filterCall, error) {
	nameTok := p.MatchType(TokenName)
	if nameTok == nil {
		return nil, p.Error("filter name expected", nil)
	}
	call := &filterCall{token: nameTok, name: nameTok.Val}

	if p.Match(TokenPunct, "(") != nil {
		for p.Peek(TokenPunct, ")") == nil {
			arg := &filterArg{}
			if nameTok := p.PeekType(TokenName); nameTok != nil && p.PeekTypeN(1, TokenOperator) != nil && p.Get(p.idx+1).Val == "=" {
				p.Consume()
				p.Consume()
				arg.name = nameTok.Val
			}
			expr, err := p.parseExpressionNoCondition()
			if err != nil {
				return nil, err
			}
			arg.expr = expr
			call.args = append(call.args, arg)

			if p.Match(TokenPunct, ",") == nil {
				break
			}
		}
		if p.Match(TokenPunct, ")") == nil {
			return nil, p.Error("expected ')' to close filter arguments", nil)
		}
	}

	return call, nil
}
