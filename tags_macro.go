package altar

import (
	"bytes"
	"fmt"
)

// maxMacroDepth limits the maximum depth of recursive macro calls.
// This prevents infinite recursion (e.g., a macro calling itself without
// a base case) from causing a stack overflow.
const maxMacroDepth = 1000

// tagMacroNode represents the {% macro %} tag.
//
// The macro tag defines reusable template fragments that can be called like
// functions. Macros can accept positional and keyword arguments with
// optional default values, and a body passed via {% call %} is available
// inside the macro as caller().
//
//	{% macro greeting(name) %}
//	    Hello, {{ name }}!
//	{% endmacro %}
//
//	{{ greeting("World") }}
//
//	{% macro button(text, type="primary", disabled=false) %}
//	    <button class="btn-{{ type }}"{% if disabled %} disabled{% endif %}>{{ text }}</button>
//	{% endmacro %}
//
//	{{ button("Click me") }}
//	{{ button("Submit", type="success") }}
//
//	{% macro input_field(name, label) export %}
//	    <label for="{{ name }}">{{ label }}</label>
//	    <input type="text" id="{{ name }}" name="{{ name }}">
//	{% endmacro %}
//
// Exported macros can be imported with {% import %} or {% from ... import %}.
type tagMacroNode struct {
	position  *Token
	name      string
	argsOrder []string
	args      map[string]IEvaluator
	exported  bool

	wrapper *NodeWrapper
}

// macroCallable is the Callable installed in the context under the
// macro's name. It closes over the definition-time context so default
// argument expressions and free variables resolve in the scope where
// the macro was defined, like a closure.
type macroCallable struct {
	node   *tagMacroNode
	defCtx *ExecutionContext
	caller Callable // bound by {% call %}, nil otherwise
}

func (node *tagMacroNode) Execute(ctx *ExecutionContext, writer TemplateWriter) error {
	ctx.Private[node.name] = macroCallable{node: node, defCtx: ctx}
	return nil
}

func (m macroCallable) Call(ctx *ExecutionContext, args []*Value, kwargs map[string]*Value) (*Value, error) {
	node := m.node
	defCtx := m.defCtx

	defCtx.macroDepth++
	defer func() { defCtx.macroDepth-- }()
	if defCtx.macroDepth > maxMacroDepth {
		return nil, defCtx.Error(fmt.Sprintf("maximum recursive macro call depth reached (max is %v)", maxMacroDepth), node.position)
	}

	if len(args) > len(node.argsOrder) {
		return AsSafeValue(""), defCtx.Error(fmt.Sprintf("macro '%s' called with too many arguments (%d instead of %d)",
			node.name, len(args), len(node.argsOrder)), node.position)
	}

	macroCtx := NewChildExecutionContext(defCtx)

	for name, defaultExpr := range node.args {
		if defaultExpr == nil {
			continue
		}
		val, err := defaultExpr.Evaluate(defCtx)
		if err != nil {
			return AsSafeValue(""), err
		}
		macroCtx.Private[name] = val
	}

	for idx, argValue := range args {
		macroCtx.Private[node.argsOrder[idx]] = argValue
	}
	for name, val := range kwargs {
		found := false
		for _, argName := range node.argsOrder {
			if argName == name {
				found = true
				break
			}
		}
		if !found {
			return AsSafeValue(""), defCtx.Error(fmt.Sprintf("macro '%s' has no argument named '%s'", node.name, name), node.position)
		}
		macroCtx.Private[name] = val
	}

	if m.caller != nil {
		macroCtx.Private["caller"] = m.caller
	}

	var b bytes.Buffer
	if err := node.wrapper.Execute(macroCtx, &templateWriter{&b}); err != nil {
		return AsSafeValue(""), updateErrorToken(err, defCtx.template, node.position)
	}

	return AsSafeValue(b.String()), nil
}

// withCaller returns a copy of m bound to the given caller() callable,
// used by {% call %} to invoke a macro with a body.
func (m macroCallable) withCaller(caller Callable) macroCallable {
	m.caller = caller
	return m
}

func tagMacroParser(doc *Parser, start *Token, arguments *Parser) (INodeTag, error) {
	macroNode := &tagMacroNode{
		position: start,
		args:     make(map[string]IEvaluator),
	}

	nameToken := arguments.MatchType(TokenName)
	if nameToken == nil {
		return nil, arguments.Error("macro-tag needs at least a name", nil)
	}
	macroNode.name = nameToken.Val

	if arguments.Match(TokenPunct, "(") == nil {
		return nil, arguments.Error("expected '('", nil)
	}

	for arguments.Match(TokenPunct, ")") == nil {
		argNameToken := arguments.MatchType(TokenName)
		if argNameToken == nil {
			return nil, arguments.Error("expected argument name", nil)
		}
		macroNode.argsOrder = append(macroNode.argsOrder, argNameToken.Val)

		if arguments.Match(TokenOperator, "=") != nil {
			argDefaultExpr, err := arguments.ParseExpression()
			if err != nil {
				return nil, err
			}
			macroNode.args[argNameToken.Val] = argDefaultExpr
		} else {
			macroNode.args[argNameToken.Val] = nil
		}

		if arguments.Match(TokenPunct, ")") != nil {
			break
		}
		if arguments.Match(TokenPunct, ",") == nil {
			return nil, arguments.Error("expected ',' or ')'", nil)
		}
	}

	if arguments.Match(TokenName, "export") != nil {
		macroNode.exported = true
	}

	if arguments.Remaining() > 0 {
		return nil, arguments.Error("malformed macro-tag", nil)
	}

	wrapper, endargs, err := doc.WrapUntilTag("endmacro")
	if err != nil {
		return nil, err
	}
	macroNode.wrapper = wrapper

	if endargs.Count() > 0 {
		return nil, endargs.Error("arguments not allowed here", nil)
	}

	if macroNode.exported {
		if _, has := doc.template.exportedMacros[macroNode.name]; has {
			return nil, doc.Error(fmt.Sprintf("another macro with name '%s' already exported", macroNode.name), start)
		}
		doc.template.exportedMacros[macroNode.name] = macroNode
	}

	return macroNode, nil
}

func init() {
	mustRegisterTag("macro", tagMacroParser)
}
