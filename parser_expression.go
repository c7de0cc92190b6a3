package altar

import (
	"fmt"
	"math"
)

// This file implements the full expression precedence chain, lowest to
// highest: conditional (X if C else Y) -> or -> and -> not -> comparison
// chain (==, !=, <, <=, >, >=, in, not in, is, is not) -> + - -> concat
// ~ -> * / // % -> unary - + -> power ** -> postfix chain (handled in
// variable.go's parsePostfix, which also folds in |filter chains).
// Each level is its own small struct with one Evaluate method, in the
// teacher's layered-binary-expression style.

type condExpr struct {
	cond      IEvaluator
	ifTrue    IEvaluator
	ifFalse   IEvaluator // nil means "else" was omitted -> Undefined()
}

func (e *condExpr) Evaluate(ctx *ExecutionContext) (*Value, error) {
	cond, err := e.cond.Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	if cond.IsTrue() {
		return e.ifTrue.Evaluate(ctx)
	}
	if e.ifFalse == nil {
		return Undefined(), nil
	}
	return e.ifFalse.Evaluate(ctx)
}

type orExpr struct {
	left, right IEvaluator
}

func (e *orExpr) Evaluate(ctx *ExecutionContext) (*Value, error) {
	l, err := e.left.Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	if l.IsTrue() {
		return l, nil
	}
	return e.right.Evaluate(ctx)
}

type andExpr struct {
	left, right IEvaluator
}

func (e *andExpr) Evaluate(ctx *ExecutionContext) (*Value, error) {
	l, err := e.left.Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	if !l.IsTrue() {
		return l, nil
	}
	return e.right.Evaluate(ctx)
}

type notExpr struct {
	operand IEvaluator
}

func (e *notExpr) Evaluate(ctx *ExecutionContext) (*Value, error) {
	v, err := e.operand.Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	return AsValue(!v.IsTrue()), nil
}

// compareExpr covers the non-chaining comparison/membership operators;
// `is`/`is not` tests are parsed as a nodeTestExpr instead (tests.go).
type compareExpr struct {
	token       *Token
	left, right IEvaluator
	op          string // "==", "!=", "<", "<=", ">", ">=", "in", "not in"
}

func (e *compareExpr) Evaluate(ctx *ExecutionContext) (*Value, error) {
	l, err := e.left.Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	r, err := e.right.Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	switch e.op {
	case "==":
		return AsValue(l.EqualValueTo(r)), nil
	case "!=":
		return AsValue(!l.EqualValueTo(r)), nil
	case "<":
		return AsValue(l.Compare(r) < 0), nil
	case "<=":
		return AsValue(l.Compare(r) <= 0), nil
	case ">":
		return AsValue(l.Compare(r) > 0), nil
	case ">=":
		return AsValue(l.Compare(r) >= 0), nil
	case "in":
		return AsValue(r.Contains(l)), nil
	case "not in":
		return AsValue(!r.Contains(l)), nil
	default:
		return nil, ctx.Error(fmt.Sprintf("unimplemented comparison operator %q", e.op), e.token)
	}
}

type concatExpr struct {
	left, right IEvaluator
}

func (e *concatExpr) Evaluate(ctx *ExecutionContext) (*Value, error) {
	l, err := e.left.Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	r, err := e.right.Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	return AsValue(l.String() + r.String()), nil
}

type addExpr struct {
	token       *Token
	left, right IEvaluator
	op          string // "+", "-"
}

func (e *addExpr) Evaluate(ctx *ExecutionContext) (*Value, error) {
	l, err := e.left.Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	r, err := e.right.Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	floaty := l.IsFloat() || r.IsFloat()
	switch e.op {
	case "+":
		if floaty {
			return AsValue(l.Float() + r.Float()), nil
		}
		return AsValue(l.Integer64() + r.Integer64()), nil
	case "-":
		if floaty {
			return AsValue(l.Float() - r.Float()), nil
		}
		return AsValue(l.Integer64() - r.Integer64()), nil
	default:
		return nil, ctx.Error(fmt.Sprintf("unimplemented additive operator %q", e.op), e.token)
	}
}

type mulExpr struct {
	token       *Token
	left, right IEvaluator
	op          string // "*", "/", "//", "%"
}

func (e *mulExpr) Evaluate(ctx *ExecutionContext) (*Value, error) {
	l, err := e.left.Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	r, err := e.right.Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	floaty := l.IsFloat() || r.IsFloat()
	switch e.op {
	case "*":
		if floaty {
			return AsValue(l.Float() * r.Float()), nil
		}
		return AsValue(l.Integer64() * r.Integer64()), nil
	case "/":
		if floaty {
			return AsValue(l.Float() / r.Float()), nil
		}
		return AsValue(l.Integer64() / r.Integer64()), nil
	case "//":
		return AsValue(int64(math.Floor(l.Float() / r.Float()))), nil
	case "%":
		return AsValue(l.Integer64() % r.Integer64()), nil
	default:
		return nil, ctx.Error(fmt.Sprintf("unimplemented multiplicative operator %q", e.op), e.token)
	}
}

type unaryExpr struct {
	token   *Token
	negate  bool // "-"
	operand IEvaluator
}

func (e *unaryExpr) Evaluate(ctx *ExecutionContext) (*Value, error) {
	v, err := e.operand.Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	if !e.negate {
		return v, nil
	}
	if !v.IsNumber() {
		return nil, ctx.Error("negative sign on a non-number expression", e.token)
	}
	if v.IsFloat() {
		return AsValue(-v.Float()), nil
	}
	return AsValue(-v.Integer64()), nil
}

type powerExpr struct {
	base, exponent IEvaluator
}

func (e *powerExpr) Evaluate(ctx *ExecutionContext) (*Value, error) {
	b, err := e.base.Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	if e.exponent == nil {
		return b, nil
	}
	p, err := e.exponent.Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	return AsValue(math.Pow(b.Float(), p.Float())), nil
}

// ParseExpression parses a full expression, including the trailing
// `if C else Y` conditional modifier.
func (p *Parser) ParseExpression() (IEvaluator, error) {
	expr, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.Match(TokenName, "if") == nil {
		return expr, nil
	}
	cond, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	ce := &condExpr{cond: cond, ifTrue: expr}
	if p.Match(TokenName, "else") != nil {
		elseExpr, err := p.ParseExpression()
		if err != nil {
			return nil, err
		}
		ce.ifFalse = elseExpr
	}
	return ce, nil
}

// parseExpressionNoCondition parses an expression without the trailing
// ternary modifier; used for filter/function/test arguments, where a
// bare `if` would otherwise be ambiguous with argument-list separators.
func (p *Parser) parseExpressionNoCondition() (IEvaluator, error) {
	return p.parseOr()
}

func (p *Parser) parseOr() (IEvaluator, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.Match(TokenName, "or") != nil {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &orExpr{left: left, right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (IEvaluator, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.Match(TokenName, "and") != nil {
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &andExpr{left: left, right: right}
	}
	return left, nil
}

func (p *Parser) parseNot() (IEvaluator, error) {
	if p.Match(TokenName, "not") != nil {
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &notExpr{operand: operand}, nil
	}
	return p.parseCompare()
}

func (p *Parser) parseCompare() (IEvaluator, error) {
	left, err := p.parseConcat()
	if err != nil {
		return nil, err
	}

	if op := p.MatchOne(TokenOperator, "==", "!=", "<=", ">=", "<", ">"); op != nil {
		right, err := p.parseConcat()
		if err != nil {
			return nil, err
		}
		return &compareExpr{token: op, left: left, right: right, op: op.Val}, nil
	}

	if tok := p.Match(TokenName, "in"); tok != nil {
		right, err := p.parseConcat()
		if err != nil {
			return nil, err
		}
		return &compareExpr{token: tok, left: left, right: right, op: "in"}, nil
	}

	if tok := p.Peek(TokenName, "not"); tok != nil && p.PeekTypeN(1, TokenName) != nil && p.GetR(1).Val == "in" {
		p.ConsumeN(2)
		right, err := p.parseConcat()
		if err != nil {
			return nil, err
		}
		return &compareExpr{token: tok, left: left, right: right, op: "not in"}, nil
	}

	return left, nil
}

// parseTestExpr parses the remainder of `expr is [not] name[(args)]`,
// the parser having already consumed `expr` and the `is` token.
func (p *Parser) parseTestExpr(left IEvaluator, isTok *Token) (IEvaluator, error) {
	negate := p.Match(TokenName, "not") != nil

	nameTok := p.MatchType(TokenName)
	if nameTok == nil {
		return nil, p.Error("test name expected after 'is'", nil)
	}

	n := &nodeTestExpr{token: isTok, expr: left, name: nameTok.Val, negate: negate}

	if p.Match(TokenPunct, "(") != nil {
		for p.Peek(TokenPunct, ")") == nil {
			argExpr, err := p.parseExpressionNoCondition()
			if err != nil {
				return nil, err
			}
			n.args = append(n.args, argExpr)
			if p.Match(TokenPunct, ",") == nil {
				break
			}
		}
		if p.Match(TokenPunct, ")") == nil {
			return nil, p.Error("expected ')' to close test arguments", nil)
		}
	} else if argExpr, ok := p.maybeParseBareTestArg(); ok {
		n.args = append(n.args, argExpr)
	}

	return n, nil
}

// maybeParseBareTestArg supports the parenthesis-free single-argument
// test spelling some tests use, e.g. `x is divisibleby 3`. Only a
// single primary (no operators) is accepted here to avoid swallowing
// the rest of the expression.
func (p *Parser) maybeParseBareTestArg() (IEvaluator, bool) {
	switch {
	case p.PeekType(TokenNumber) != nil, p.PeekType(TokenString) != nil:
		expr, err := p.parsePostfix()
		if err != nil {
			return nil, false
		}
		return expr, true
	}
	return nil, false
}

func (p *Parser) parseConcat() (IEvaluator, error) {
	left, err := p.parseAdd()
	if err != nil {
		return nil, err
	}
	for p.Match(TokenOperator, "~") != nil {
		right, err := p.parseAdd()
		if err != nil {
			return nil, err
		}
		left = &concatExpr{left: left, right: right}
	}
	return left, nil
}

func (p *Parser) parseAdd() (IEvaluator, error) {
	left, err := p.parseMul()
	if err != nil {
		return nil, err
	}
	for {
		op := p.MatchOne(TokenOperator, "+", "-")
		if op == nil {
			return left, nil
		}
		right, err := p.parseMul()
		if err != nil {
			return nil, err
		}
		left = &addExpr{token: op, left: left, right: right, op: op.Val}
	}
}

func (p *Parser) parseMul() (IEvaluator, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		op := p.MatchOne(TokenOperator, "*", "//", "/", "%")
		if op == nil {
			return left, nil
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &mulExpr{token: op, left: left, right: right, op: op.Val}
	}
}

func (p *Parser) parseUnary() (IEvaluator, error) {
	if op := p.MatchOne(TokenOperator, "-", "+"); op != nil {
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &unaryExpr{token: op, negate: op.Val == "-", operand: operand}, nil
	}
	return p.parsePower()
}

func (p *Parser) parsePower() (IEvaluator, error) {
	base, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	if p.Match(TokenOperator, "**") != nil {
		exponent, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &powerExpr{base: base, exponent: exponent}, nil
	}
	return base, nil
}
