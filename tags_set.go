package altar

import "bytes"

// tagSetNode represents the {% set %} tag, in its expression form and
// its block form.
//
//	{% set greeting = "Hello, World!" %}
//	{{ greeting }}
//
//	{% set full_name = user.first_name + " " + user.last_name %}
//	{% set slug = title|lower %}
//
//	{% set intro %}
//	    Welcome, {{ user.name }}!
//	{% endset %}
//	{{ intro }}
//
// Variables set with {% set %} live in the current template context and
// do not persist across {% include %}.
type tagSetNode struct {
	name       string
	expression IEvaluator
	wrapper    *NodeWrapper // block form only
}

func (node *tagSetNode) Execute(ctx *ExecutionContext, writer TemplateWriter) error {
	if node.wrapper != nil {
		var b bytes.Buffer
		if err := node.wrapper.Execute(ctx, &templateWriter{&b}); err != nil {
			return err
		}
		ctx.Private[node.name] = AsSafeValue(b.String())
		return nil
	}

	value, err := node.expression.Evaluate(ctx)
	if err != nil {
		return err
	}
	ctx.Private[node.name] = value
	return nil
}

func tagSetParser(doc *Parser, start *Token, arguments *Parser) (INodeTag, error) {
	node := &tagSetNode{}

	nameToken := arguments.MatchType(TokenName)
	if nameToken == nil {
		return nil, arguments.Error("expected a name", nil)
	}
	node.name = nameToken.Val

	if arguments.Match(TokenOperator, "=") == nil {
		if arguments.Remaining() > 0 {
			return nil, arguments.Error("expected '='", nil)
		}
		wrapper, endargs, err := doc.WrapUntilTag("endset")
		if err != nil {
			return nil, err
		}
		if endargs.Count() > 0 {
			return nil, endargs.Error("arguments not allowed here", nil)
		}
		node.wrapper = wrapper
		return node, nil
	}

	expr, err := arguments.ParseExpression()
	if err != nil {
		return nil, err
	}
	node.expression = expr

	if arguments.Remaining() > 0 {
		return nil, arguments.Error("malformed 'set'-tag arguments", nil)
	}

	return node, nil
}

func init() {
	mustRegisterTag("set", tagSetParser)
}
