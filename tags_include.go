package altar

// tagIncludeNode represents the {% include %} tag.
//
// The include tag renders another template and inserts its output at the
// current location.
//
//	{% include "header.html" %}
//	{% include "optional_sidebar.html" ignore missing %}
//	{% include ["custom.html", "default.html"] %}
//	{% include ["custom.html", "default.html"] ignore missing %}
//	{% include "partial.html" without context %}
//
// By default the included template sees the including template's full
// context ("with context" is the implicit default); "without context"
// excludes it. The template operand may be a string literal, a name
// evaluated at render time, or a list expression giving fallback
// candidates tried in order (the first one the loader can resolve is
// used). "ignore missing" converts a resulting TemplateNotFound into
// empty output instead of a render error.
type tagIncludeNode struct {
	templateExpr  IEvaluator
	ignoreMissing bool
	withContext   bool
}

func (node *tagIncludeNode) Execute(ctx *ExecutionContext, writer TemplateWriter) error {
	val, err := node.templateExpr.Evaluate(ctx)
	if err != nil {
		return err
	}

	var candidates []string
	if val.CanSlice() && !val.IsString() {
		val.Iterate(func(idx, count int, key, value *Value) bool {
			candidates = append(candidates, key.String())
			return true
		}, func() {})
	} else {
		candidates = []string{val.String()}
	}

	var includedTpl *Template
	var loadErr error
	for _, name := range candidates {
		resolved := ctx.template.engine.resolveFilename(ctx.template, name)
		includedTpl, loadErr = ctx.template.engine.FromFile(resolved)
		if loadErr == nil {
			break
		}
		if !IsTemplateNotFound(loadErr) {
			return loadErr
		}
	}
	if loadErr != nil {
		if node.ignoreMissing {
			return nil
		}
		return loadErr
	}

	includeCtx := make(Context)
	if node.withContext {
		includeCtx.Update(ctx.Public)
		includeCtx.Update(ctx.Private)
	}

	return includedTpl.ExecuteWriter(includeCtx, writer)
}

func tagIncludeParser(doc *Parser, start *Token, arguments *Parser) (INodeTag, error) {
	node := &tagIncludeNode{withContext: true}

	var expr IEvaluator
	var err error
	if arguments.Peek(TokenPunct, "[") != nil {
		expr, err = arguments.parseListLiteral()
	} else {
		expr, err = arguments.parseExpressionNoCondition()
	}
	if err != nil {
		return nil, err
	}
	node.templateExpr = expr

	if arguments.Match(TokenName, "ignore") != nil {
		if arguments.Match(TokenName, "missing") == nil {
			return nil, arguments.Error("expected 'missing' after 'ignore'", nil)
		}
		node.ignoreMissing = true
	}

	if arguments.Match(TokenName, "with") != nil {
		if arguments.Match(TokenName, "context") == nil {
			return nil, arguments.Error("expected 'context' after 'with'", nil)
		}
		node.withContext = true
	} else if arguments.Match(TokenName, "without") != nil {
		if arguments.Match(TokenName, "context") == nil {
			return nil, arguments.Error("expected 'context' after 'without'", nil)
		}
		node.withContext = false
	}

	if arguments.Remaining() > 0 {
		return nil, arguments.Error("malformed 'include'-tag arguments", nil)
	}

	return node, nil
}

func init() {
	mustRegisterTag("include", tagIncludeParser)
}
