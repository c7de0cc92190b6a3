package altar

import (
	"fmt"
)

// Parser walks a flat token slice and builds the AST. The top-level
// parse creates one Parser over the whole template; tags get handed a
// second, bounded Parser over just their own argument tokens (see
// parseTagElement and WrapUntilTag's endtagArgs).
type Parser struct {
	name     string
	idx      int
	tokens   []*Token
	template *Template
}

// newParser builds a parser over tokens. template may be nil when a
// tag constructs a short-lived sub-parser purely to read its own
// arguments.
func newParser(name string, tokens []*Token, template *Template) *Parser {
	return &Parser{name: name, tokens: tokens, template: template}
}

func (p *Parser) Consume()            { p.ConsumeN(1) }
func (p *Parser) ConsumeN(count int)  { p.idx += count }
func (p *Parser) Current() *Token     { return p.Get(p.idx) }
func (p *Parser) Remaining() int      { return len(p.tokens) - p.idx }
func (p *Parser) Count() int          { return len(p.tokens) }

func (p *Parser) Get(i int) *Token {
	if i >= 0 && i < len(p.tokens) {
		return p.tokens[i]
	}
	return nil
}

func (p *Parser) GetR(shift int) *Token {
	return p.Get(p.idx + shift)
}

func (p *Parser) MatchType(typ TokenType) *Token {
	if t := p.PeekType(typ); t != nil {
		p.Consume()
		return t
	}
	return nil
}

func (p *Parser) PeekType(typ TokenType) *Token { return p.PeekTypeN(0, typ) }

func (p *Parser) PeekTypeN(shift int, typ TokenType) *Token {
	if t := p.Get(p.idx + shift); t != nil && t.Typ == typ {
		return t
	}
	return nil
}

func (p *Parser) Match(typ TokenType, val string) *Token {
	if t := p.Peek(typ, val); t != nil {
		p.Consume()
		return t
	}
	return nil
}

func (p *Parser) MatchOne(typ TokenType, vals ...string) *Token {
	for _, val := range vals {
		if t := p.Peek(typ, val); t != nil {
			p.Consume()
			return t
		}
	}
	return nil
}

func (p *Parser) Peek(typ TokenType, val string) *Token { return p.PeekN(0, typ, val) }

func (p *Parser) PeekOne(typ TokenType, vals ...string) *Token {
	for _, v := range vals {
		if t := p.PeekN(0, typ, v); t != nil {
			return t
		}
	}
	return nil
}

func (p *Parser) PeekN(shift int, typ TokenType, val string) *Token {
	if t := p.Get(p.idx + shift); t != nil && t.Typ == typ && t.Val == val {
		return t
	}
	return nil
}

// Error builds a ParseError positioned at token, defaulting to the
// parser's current (or else last) token when token is nil.
func (p *Parser) Error(msg string, token *Token) error {
	if token == nil {
		token = p.Current()
		if token == nil && len(p.tokens) > 0 {
			token = p.tokens[len(p.tokens)-1]
		}
	}
	name := p.name
	line, col := 0, 0
	if token != nil {
		name = token.Filename
		line, col = token.Line, token.Col
	}
	sender := "parser"
	if p.template != nil {
		sender = fmt.Sprintf("parser(level %d)", p.template.level)
	}
	return newError(ParseError, name, line, col, sender, "%s", msg)
}

// isBlockStartFor reports whether the tokens at the parser's current
// position open a block tag whose keyword is one of names, i.e.
// TokenBlockStart followed by a TokenName in names.
func (p *Parser) isBlockStartFor(names ...string) (*Token, bool) {
	if p.PeekType(TokenBlockStart) == nil {
		return nil, false
	}
	nameTok := p.PeekTypeN(1, TokenName)
	if nameTok == nil {
		return nil, false
	}
	for _, n := range names {
		if nameTok.Val == n {
			return nameTok, true
		}
	}
	return nil, false
}

// WrapUntilTag collects nodes until it finds a block tag whose keyword
// is one of names, then consumes that tag's start/name tokens and
// returns the wrapped nodes, a Parser over the matched tag's remaining
// arguments (everything up to TokenBlockEnd), and the matched name via
// wrapper.Endtag. Needed (vs. a no-args endtag) because e.g. "elif"
// carries a trailing condition expression.
func (p *Parser) WrapUntilTag(names ...string) (wrapper *NodeWrapper, endtagArgs *Parser, err error) {
	wrapper = &NodeWrapper{}

	for p.Remaining() > 0 {
		if nameTok, ok := p.isBlockStartFor(names...); ok {
			p.ConsumeN(2) // TokenBlockStart, TokenName
			wrapper.Endtag = nameTok.Val

			argStart := p.idx
			for p.PeekType(TokenBlockEnd) == nil {
				if p.Remaining() == 0 {
					return nil, nil, p.Error(fmt.Sprintf("unexpected EOF, tag '%s' not closed", nameTok.Val), nameTok)
				}
				p.Consume()
			}
			argTokens := p.tokens[argStart:p.idx]
			p.Consume() // TokenBlockEnd

			endtagArgs = newParser(p.name, argTokens, p.template)
			return wrapper, endtagArgs, nil
		}

		node, err := p.parseDocElement()
		if err != nil {
			return nil, nil, err
		}
		wrapper.nodes = append(wrapper.nodes, node)
	}

	return nil, nil, p.Error(fmt.Sprintf("unexpected EOF (expected end-tag(s) '%v')", names), nil)
}

// parseDocElement parses the next top-level construct: a text run, a
// {{ expr }} output, a {% tag %}, or raw-block content.
func (p *Parser) parseDocElement() (INode, error) {
	tok := p.Current()
	if tok == nil {
		return nil, p.Error("unexpected EOF", nil)
	}

	switch tok.Typ {
	case TokenText:
		p.Consume()
		return &nodeText{token: tok}, nil

	case TokenRawContent:
		p.Consume()
		return &nodeText{token: tok}, nil

	case TokenVariableStart:
		return p.parseOutput()

	case TokenBlockStart:
		return p.parseTagElement()

	default:
		return nil, p.Error(fmt.Sprintf("unexpected token %s", tok), tok)
	}
}

// parseOutput parses a {{ expr }} tag.
func (p *Parser) parseOutput() (INode, error) {
	start := p.Current()
	p.Consume() // TokenVariableStart

	expr, err := p.ParseExpression()
	if err != nil {
		return nil, err
	}

	if p.MatchType(TokenVariableEnd) == nil {
		return nil, p.Error("expected end of print statement ('}}')", nil)
	}

	return &nodeOutput{token: start, expr: expr}, nil
}

// parseDocument parses the whole token stream into a nodeDocument,
// erroring if a tag closes something that was never opened (the
// common case: a stray {% endif %}/{% endfor %} etc.).
func (p *Parser) parseDocument() (*nodeDocument, error) {
	doc := &nodeDocument{}
	for p.Remaining() > 0 {
		node, err := p.parseDocElement()
		if err != nil {
			return nil, err
		}
		doc.Nodes = append(doc.Nodes, node)
	}
	return doc, nil
}

// updateErrorToken rewrites a bubbling-up *Error's template/position
// fields to point at token (in tpl), if err doesn't already carry
// position information. Used when a macro call, include or import
// re-raises an error from the callee: the caller's call-site is far
// more useful than the callee's internal position for an undefined
// variable deep inside a library macro, but an error with its own
// position (e.g. raised by the callee itself) is left alone.
func updateErrorToken(err error, tpl *Template, token *Token) error {
	e, ok := err.(*Error)
	if !ok || e == nil {
		return err
	}
	if e.Line > 0 {
		return err
	}
	if token != nil {
		e.TemplateName = token.Filename
		e.Line = token.Line
		e.Column = token.Col
	} else if tpl != nil {
		e.TemplateName = tpl.name
	}
	return e
}
