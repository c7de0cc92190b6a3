package altar

import (
	"bytes"
	"fmt"
)

// tagCallNode represents the {% call %} tag: invokes a macro, passing
// the tag's body as a caller() callable the macro can invoke zero or
// more times to render caller-supplied content inline.
//
//	{% macro dump_users(users) %}
//	<ul>{% for u in users %}<li>{{ caller(u) }}</li>{% endfor %}</ul>
//	{% endmacro %}
//
//	{% call(user) dump_users(list_of_users) %}
//	    {{ user.name }} &lt;{{ user.email }}&gt;
//	{% endcall %}
type tagCallNode struct {
	position       *Token
	callerArgNames []string
	macroName      string
	callArgs       []*filterArg
	wrapper        *NodeWrapper
}

// callerCallable backs caller() inside the called macro: invoking it
// renders the {% call %} tag's own body, binding any caller(...)
// arguments to the names declared in call(...).
type callerCallable struct {
	node   *tagCallNode
	outer  *ExecutionContext
}

func (c callerCallable) Call(ctx *ExecutionContext, args []*Value, kwargs map[string]*Value) (*Value, error) {
	callCtx := NewChildExecutionContext(c.outer)
	for i, name := range c.node.callerArgNames {
		if i < len(args) {
			callCtx.Private[name] = args[i]
		}
	}

	var b bytes.Buffer
	if err := c.node.wrapper.Execute(callCtx, &templateWriter{&b}); err != nil {
		return AsSafeValue(""), err
	}
	return AsSafeValue(b.String()), nil
}

func (node *tagCallNode) Execute(ctx *ExecutionContext, writer TemplateWriter) error {
	fn := ctx.resolveName(node.macroName)
	macro, ok := fn.Interface().(macroCallable)
	if !ok {
		return ctx.Error(fmt.Sprintf("'%s' is not a macro", node.macroName), node.position)
	}
	macro = macro.withCaller(callerCallable{node: node, outer: ctx})

	var args []*Value
	kwargs := make(map[string]*Value)
	for _, a := range node.callArgs {
		v, err := a.expr.Evaluate(ctx)
		if err != nil {
			return err
		}
		if a.name == "" {
			args = append(args, v)
		} else {
			kwargs[a.name] = v
		}
	}

	result, err := macro.Call(ctx, args, kwargs)
	if err != nil {
		return err
	}
	_, err = writer.WriteString(result.String())
	return err
}

func parseCallArgs(arguments *Parser) ([]*filterArg, error) {
	if arguments.Match(TokenPunct, "(") == nil {
		return nil, arguments.Error("expected '(' to begin macro call arguments", nil)
	}
	var callArgs []*filterArg
	for arguments.Peek(TokenPunct, ")") == nil {
		if arguments.Remaining() == 0 {
			return nil, arguments.Error("unexpected EOF in call arguments", nil)
		}
		arg := &filterArg{}
		if nameTok := arguments.PeekType(TokenName); nameTok != nil && arguments.PeekTypeN(1, TokenOperator) != nil && arguments.GetR(1).Val == "=" {
			arguments.ConsumeN(2)
			arg.name = nameTok.Val
		}
		expr, err := arguments.parseExpressionNoCondition()
		if err != nil {
			return nil, err
		}
		arg.expr = expr
		callArgs = append(callArgs, arg)
		if arguments.Match(TokenPunct, ",") == nil {
			break
		}
	}
	if arguments.Match(TokenPunct, ")") == nil {
		return nil, arguments.Error("expected ')' to close call arguments", nil)
	}
	return callArgs, nil
}

func tagCallParser(doc *Parser, start *Token, arguments *Parser) (INodeTag, error) {
	node := &tagCallNode{position: start}

	if arguments.Match(TokenPunct, "(") != nil {
		for arguments.Peek(TokenPunct, ")") == nil {
			nameTok := arguments.MatchType(TokenName)
			if nameTok == nil {
				return nil, arguments.Error("expected a name in call(...) argument list", nil)
			}
			node.callerArgNames = append(node.callerArgNames, nameTok.Val)
			if arguments.Match(TokenPunct, ",") == nil {
				break
			}
		}
		if arguments.Match(TokenPunct, ")") == nil {
			return nil, arguments.Error("expected ')' to close call(...) argument list", nil)
		}
	}

	nameToken := arguments.MatchType(TokenName)
	if nameToken == nil {
		return nil, arguments.Error("expected macro name", nil)
	}
	node.macroName = nameToken.Val

	callArgs, err := parseCallArgs(arguments)
	if err != nil {
		return nil, err
	}
	node.callArgs = callArgs

	if arguments.Remaining() > 0 {
		return nil, arguments.Error("malformed call-tag", nil)
	}

	wrapper, endargs, err := doc.WrapUntilTag("endcall")
	if err != nil {
		return nil, err
	}
	node.wrapper = wrapper
	if endargs.Count() > 0 {
		return nil, endargs.Error("arguments not allowed here", nil)
	}

	return node, nil
}

func init() {
	mustRegisterTag("call", tagCallParser)
}
