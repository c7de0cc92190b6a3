package altar

import (
	"fmt"
	"reflect"
	"strconv"
)

var (
	typeOfValuePtr   = reflect.TypeFor[*Value]()
	typeOfExecCtxPtr = reflect.TypeFor[*ExecutionContext]()
)

// Literal leaf nodes. Each wraps a location token purely for error
// reporting; their Evaluate never fails.

type stringResolver struct {
	token *Token
	val   string
}

func (s *stringResolver) Evaluate(ctx *ExecutionContext) (*Value, error) { return AsValue(s.val), nil }

type intResolver struct {
	token *Token
	val   int64
}

func (i *intResolver) Evaluate(ctx *ExecutionContext) (*Value, error) { return AsValue(i.val), nil }

type floatResolver struct {
	token *Token
	val   float64
}

func (f *floatResolver) Evaluate(ctx *ExecutionContext) (*Value, error) { return AsValue(f.val), nil }

type boolResolver struct {
	token *Token
	val   bool
}

func (b *boolResolver) Evaluate(ctx *ExecutionContext) (*Value, error) { return AsValue(b.val), nil }

type nilResolver struct{ token *Token }

func (nilResolver) Evaluate(ctx *ExecutionContext) (*Value, error) { return AsValue(nil), nil }

// listLiteral is `[a, b, c]`.
type listLiteral struct {
	items []IEvaluator
}

func (l *listLiteral) Evaluate(ctx *ExecutionContext) (*Value, error) {
	out := make([]any, 0, len(l.items))
	for _, item := range l.items {
		v, err := item.Evaluate(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, v.Interface())
	}
	return AsValue(out), nil
}

// dictLiteral is `{k: v, ...}`.
type dictLiteral struct {
	keys   []IEvaluator
	values []IEvaluator
}

func (d *dictLiteral) Evaluate(ctx *ExecutionContext) (*Value, error) {
	out := make(map[string]any, len(d.keys))
	for i, keyExpr := range d.keys {
		kv, err := keyExpr.Evaluate(ctx)
		if err != nil {
			return nil, err
		}
		vv, err := d.values[i].Evaluate(ctx)
		if err != nil {
			return nil, err
		}
		out[kv.String()] = vv.Interface()
	}
	return AsValue(out), nil
}

// variableResolver resolves a dotted/subscripted/called name chain
// rooted at a single identifier, e.g. `user.addresses[0].city`.
type variableResolver struct {
	token *Token
	name  string
	parts []*variablePart
}

const (
	partIdent = iota
	partSubscript
	partSlice
	partCall
)

type variablePart struct {
	kind      int
	token     *Token
	name      string   // partIdent
	subscript IEvaluator // partSubscript
	from, to, step IEvaluator // partSlice, each nil if omitted
	callArgs  []*filterArg // partCall, reusing filterArg's name/expr shape for kwargs
}

func (vr *variableResolver) Evaluate(ctx *ExecutionContext) (*Value, error) {
	current := ctx.resolveName(vr.name)

	for _, part := range vr.parts {
		switch part.kind {
		case partIdent:
			if attr, ok := current.GetAttr(part.name); ok {
				current = attr
			} else if item, ok := current.GetItem(AsValue(part.name)); ok {
				current = item
			} else {
				current = Undefined()
			}

		case partSubscript:
			key, err := part.subscript.Evaluate(ctx)
			if err != nil {
				return nil, err
			}
			if item, ok := current.GetItem(key); ok {
				current = item
			} else {
				current = Undefined()
			}

		case partSlice:
			from, to, step := 0, current.Len(), 1
			if part.from != nil {
				v, err := part.from.Evaluate(ctx)
				if err != nil {
					return nil, err
				}
				from = v.Integer()
			}
			if part.to != nil {
				v, err := part.to.Evaluate(ctx)
				if err != nil {
					return nil, err
				}
				to = v.Integer()
			}
			if part.step != nil {
				v, err := part.step.Evaluate(ctx)
				if err != nil {
					return nil, err
				}
				step = v.Integer()
			}
			current = current.Slice(from, to, step)

		case partCall:
			result, err := vr.call(ctx, current, part)
			if err != nil {
				return nil, ctx.Error(err.Error(), part.token)
			}
			current = result
		}
	}

	return current, nil
}

// Callable is implemented by values that need both positional and
// keyword arguments at the call site, which a plain Go function value
// cannot express reflectively (Go has no kwargs). Macros (tags_macro.go)
// register themselves this way instead of as a bare func.
type Callable interface {
	Call(ctx *ExecutionContext, args []*Value, kwargs map[string]*Value) (*Value, error)
}

// call invokes fn with part's arguments. A Callable is dispatched
// directly with both positional and keyword arguments; anything else is
// assumed to be a Go function exposed via Value and is invoked
// reflectively, supporting an optional leading *ExecutionContext
// parameter and a trailing error return value, the way the teacher's
// handleFunctionCall does (kwargs are rejected there, since Go functions
// have no such concept).
func (vr *variableResolver) call(ctx *ExecutionContext, fn *Value, part *variablePart) (*Value, error) {
	if callable, ok := fn.Interface().(Callable); ok {
		var args []*Value
		kwargs := make(map[string]*Value)
		for _, a := range part.callArgs {
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
		return callable.Call(ctx, args, kwargs)
	}

	rv := fn.getResolvedValue()
	if rv.Kind() != reflect.Func {
		return nil, fmt.Errorf("'%s' is not callable", vr.name)
	}
	t := rv.Type()

	for _, a := range part.callArgs {
		if a.name != "" {
			return nil, fmt.Errorf("'%s' does not accept keyword arguments", vr.name)
		}
	}

	if t.NumOut() != 1 && t.NumOut() != 2 {
		return nil, fmt.Errorf("'%s' must return exactly 1 or 2 values, the second being an error", vr.name)
	}

	var argVals []*Value
	for _, a := range part.callArgs {
		v, err := a.expr.Evaluate(ctx)
		if err != nil {
			return nil, err
		}
		argVals = append(argVals, v)
	}

	numIn := t.NumIn()
	if numIn > 0 && t.In(0) == typeOfExecCtxPtr {
		argVals = append([]*Value{nil}, argVals...)
	}

	if len(argVals) != numIn && (!t.IsVariadic() || len(argVals) < numIn-1) {
		return nil, fmt.Errorf("'%s' expects %d argument(s), got %d", vr.name, numIn, len(argVals))
	}

	params := make([]reflect.Value, len(argVals))
	for i, av := range argVals {
		if i == 0 && numIn > 0 && t.In(0) == typeOfExecCtxPtr {
			params[i] = reflect.ValueOf(ctx)
			continue
		}
		var argType reflect.Type
		if t.IsVariadic() && i >= numIn-1 {
			argType = t.In(numIn - 1).Elem()
		} else {
			argType = t.In(i)
		}
		if argType == typeOfValuePtr {
			params[i] = reflect.ValueOf(av)
			continue
		}
		if av.IsNil() {
			params[i] = reflect.Zero(argType)
			continue
		}
		params[i] = reflect.ValueOf(av.Interface())
	}

	out := rv.Call(params)
	if t.NumOut() == 2 {
		if errVal := out[1].Interface(); errVal != nil {
			if err, ok := errVal.(error); ok {
				return nil, err
			}
		}
	}
	ret := out[0]
	if ret.Type() == typeOfValuePtr {
		return ret.Interface().(*Value), nil
	}
	return AsValue(ret.Interface()), nil
}

// parsePrimary parses a single literal or variable-chain root, without
// any postfix (., [], (), |filter) operators.
func (p *Parser) parsePrimary() (IEvaluator, error) {
	t := p.Current()
	if t == nil {
		return nil, p.Error("unexpected EOF, expected an expression", nil)
	}

	switch t.Typ {
	case TokenNumber:
		p.Consume()
		return parseNumberToken(p, t)

	case TokenString:
		p.Consume()
		return &stringResolver{token: t, val: t.Val}, nil

	case TokenPunct:
		switch t.Val {
		case "(":
			p.Consume()
			expr, err := p.ParseExpression()
			if err != nil {
				return nil, err
			}
			if p.Match(TokenPunct, ")") == nil {
				return nil, p.Error("expected ')' to close parenthesized expression", nil)
			}
			return expr, nil
		case "[":
			return p.parseListLiteral()
		case "{":
			return p.parseDictLiteral()
		}

	case TokenName:
		switch t.Val {
		case "true", "True":
			p.Consume()
			return &boolResolver{token: t, val: true}, nil
		case "false", "False":
			p.Consume()
			return &boolResolver{token: t, val: false}, nil
		case "none", "None", "null":
			p.Consume()
			return &nilResolver{token: t}, nil
		}
		p.Consume()
		return &variableResolver{token: t, name: t.Val}, nil
	}

	return nil, p.Error(fmt.Sprintf("unexpected token %s", t), t)
}

func parseNumberToken(p *Parser, t *Token) (IEvaluator, error) {
	if idx := indexOfByte(t.Val, '.'); idx >= 0 || hasExponent(t.Val) {
		f, err := strconv.ParseFloat(t.Val, 64)
		if err != nil {
			return nil, p.Error(err.Error(), t)
		}
		return &floatResolver{token: t, val: f}, nil
	}
	i, err := strconv.ParseInt(t.Val, 10, 64)
	if err != nil {
		return nil, p.Error(err.Error(), t)
	}
	return &intResolver{token: t, val: i}, nil
}

func indexOfByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}

func hasExponent(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == 'e' || s[i] == 'E' {
			return true
		}
	}
	return false
}

func (p *Parser) parseListLiteral() (IEvaluator, error) {
	p.Consume() // '['
	lit := &listLiteral{}
	if p.Match(TokenPunct, "]") != nil {
		return lit, nil
	}
	for {
		if p.Remaining() == 0 {
			return nil, p.Error("unexpected EOF, unclosed list literal", nil)
		}
		item, err := p.ParseExpression()
		if err != nil {
			return nil, err
		}
		lit.items = append(lit.items, item)
		if p.Match(TokenPunct, "]") != nil {
			break
		}
		if p.Match(TokenPunct, ",") == nil {
			return nil, p.Error("expected ',' or ']' in list literal", nil)
		}
		if p.Peek(TokenPunct, "]") != nil {
			p.Consume()
			break
		}
	}
	return lit, nil
}

func (p *Parser) parseDictLiteral() (IEvaluator, error) {
	p.Consume() // '{'
	lit := &dictLiteral{}
	if p.Match(TokenPunct, "}") != nil {
		return lit, nil
	}
	for {
		if p.Remaining() == 0 {
			return nil, p.Error("unexpected EOF, unclosed dict literal", nil)
		}
		key, err := p.ParseExpression()
		if err != nil {
			return nil, err
		}
		if p.Match(TokenPunct, ":") == nil {
			return nil, p.Error("expected ':' after dict key", nil)
		}
		val, err := p.ParseExpression()
		if err != nil {
			return nil, err
		}
		lit.keys = append(lit.keys, key)
		lit.values = append(lit.values, val)
		if p.Match(TokenPunct, "}") != nil {
			break
		}
		if p.Match(TokenPunct, ",") == nil {
			return nil, p.Error("expected ',' or '}' in dict literal", nil)
		}
		if p.Peek(TokenPunct, "}") != nil {
			p.Consume()
			break
		}
	}
	return lit, nil
}

// parsePostfix parses a primary followed by any chain of `.name`,
// `[expr]`/`[slice]`, `(args)`, `|filter` and `is test` postfix
// operators, per spec's postfix-chain precedence level (the tightest
// binding level, above all arithmetic and comparison operators).
func (p *Parser) parsePostfix() (IEvaluator, error) {
	primary, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	resolver, isResolver := primary.(*variableResolver)

postfixLoop:
	for p.Remaining() > 0 {
		switch {
		case p.Match(TokenPunct, ".") != nil:
			nameTok := p.MatchType(TokenName)
			if nameTok == nil {
				return nil, p.Error("expected a name after '.'", nil)
			}
			if !isResolver {
				return nil, p.Error("'.' postfix requires a variable expression", nameTok)
			}
			resolver.parts = append(resolver.parts, &variablePart{kind: partIdent, token: nameTok, name: nameTok.Val})

		case p.Peek(TokenPunct, "[") != nil:
			part, err := p.parseSubscriptOrSlice()
			if err != nil {
				return nil, err
			}
			if !isResolver {
				return nil, p.Error("'[]' postfix requires a variable expression", nil)
			}
			resolver.parts = append(resolver.parts, part)

		case p.Match(TokenPunct, "(") != nil:
			if !isResolver {
				return nil, p.Error("'()' postfix requires a variable expression", nil)
			}
			part := &variablePart{kind: partCall, token: p.Current()}
			for p.Peek(TokenPunct, ")") == nil {
				if p.Remaining() == 0 {
					return nil, p.Error("unexpected EOF in call arguments", nil)
				}
				arg := &filterArg{}
				if nameTok := p.PeekType(TokenName); nameTok != nil && p.PeekTypeN(1, TokenOperator) != nil && p.GetR(1).Val == "=" {
					p.ConsumeN(2)
					arg.name = nameTok.Val
				}
				expr, err := p.parseExpressionNoCondition()
				if err != nil {
					return nil, err
				}
				arg.expr = expr
				part.callArgs = append(part.callArgs, arg)
				if p.Match(TokenPunct, ",") == nil {
					break
				}
			}
			if p.Match(TokenPunct, ")") == nil {
				return nil, p.Error("expected ')' to close call arguments", nil)
			}
			resolver.parts = append(resolver.parts, part)

		case p.Match(TokenPunct, "|") != nil:
			call, err := p.parseFilterCall()
			if err != nil {
				return nil, err
			}
			primary = p.wrapFilter(primary, call)
			isResolver = false

		case p.Peek(TokenName, "is") != nil:
			isTok := p.Current()
			p.Consume()
			primary, err = p.parseTestExpr(primary, isTok)
			if err != nil {
				return nil, err
			}
			isResolver = false

		default:
			break postfixLoop
		}
	}

	return primary, nil
}

// wrapFilter folds call onto expr's filter chain, creating a
// nodeFilterExpr the first time a filter is applied.
func (p *Parser) wrapFilter(expr IEvaluator, call *filterCall) IEvaluator {
	if nf, ok := expr.(*nodeFilterExpr); ok {
		nf.calls = append(nf.calls, call)
		return nf
	}
	return &nodeFilterExpr{expr: expr, calls: []*filterCall{call}}
}

// parseSubscriptOrSlice parses `[expr]` or Python-style `[from:to:step]`
// slice syntax, any component of which may be omitted.
func (p *Parser) parseSubscriptOrSlice() (*variablePart, error) {
	startTok := p.Current()
	p.Consume() // '['

	var from, to, step IEvaluator
	sawColon := false

	if p.Peek(TokenPunct, ":") == nil && p.Peek(TokenPunct, "]") == nil {
		expr, err := p.ParseExpression()
		if err != nil {
			return nil, err
		}
		from = expr
	}
	if p.Match(TokenPunct, ":") != nil {
		sawColon = true
		if p.Peek(TokenPunct, ":") == nil && p.Peek(TokenPunct, "]") == nil {
			expr, err := p.ParseExpression()
			if err != nil {
				return nil, err
			}
			to = expr
		}
		if p.Match(TokenPunct, ":") != nil {
			if p.Peek(TokenPunct, "]") == nil {
				expr, err := p.ParseExpression()
				if err != nil {
					return nil, err
				}
				step = expr
			}
		}
	}

	if p.Match(TokenPunct, "]") == nil {
		return nil, p.Error("expected ']' to close subscript", nil)
	}

	if sawColon {
		return &variablePart{kind: partSlice, token: startTok, from: from, to: to, step: step}, nil
	}
	return &variablePart{kind: partSubscript, token: startTok, subscript: from}, nil
}
