package altar

import (
	"bytes"
	"fmt"
)

// tagBlockNode represents the {% block %} tag, the unit of template
// inheritance: a child template overrides a parent's block by name, and
// the most-derived definition is what renders. super() (installed into
// ctx.Private for the duration of the block body) invokes the next
// version up the inheritance chain.
//
//	<html>
//	<head><title>{% block title %}Default Title{% endblock %}</title></head>
//	<body>{% block content scoped %}{{ item }}{% endblock %}</body>
//	</html>
type tagBlockNode struct {
	name   string
	scoped bool
}

// blockWrappers collects every wrapper named name along tpl's
// inheritance chain, parent-most first, so the last entry is always the
// most-derived (child-most) definition.
func blockWrappers(tpl *Template, name string) []*NodeWrapper {
	var wrappers []*NodeWrapper
	for tpl != nil {
		if w := tpl.blocks[name]; w != nil {
			wrappers = append(wrappers, w)
		}
		tpl = tpl.child
	}
	return wrappers
}

func (node *tagBlockNode) Execute(ctx *ExecutionContext, writer TemplateWriter) error {
	tpl := ctx.template
	for tpl.parent != nil {
		tpl = tpl.parent
	}

	wrappers := blockWrappers(tpl, node.name)
	if len(wrappers) == 0 {
		return ctx.Error(fmt.Sprintf("internal error: no wrapper found for block '%s'", node.name), nil)
	}

	// Without `scoped`, a block override renders in the template's root
	// frame: it must not see for-loop/macro locals from wherever the
	// {% block %} tag happens to sit in the parent's body. `scoped` opts
	// into the call site's own Private scope instead.
	frame := ctx.root
	if node.scoped {
		frame = ctx
	}

	blockCtx := NewChildExecutionContext(frame)
	blockCtx.Private["super"] = superCallable{ctx: frame, remaining: wrappers[:len(wrappers)-1]}
	blockCtx.Private["self"] = &selfObject{rootTemplate: tpl, ctx: frame}

	return wrappers[len(wrappers)-1].Execute(blockCtx, writer)
}

// superCallable is installed as ctx.Private["super"]; calling it renders
// the next-outer parent version of the current block, if any.
type superCallable struct {
	ctx       *ExecutionContext
	remaining []*NodeWrapper
}

func (s superCallable) Call(ctx *ExecutionContext, args []*Value, kwargs map[string]*Value) (*Value, error) {
	if len(s.remaining) == 0 {
		return AsSafeValue(""), nil
	}
	superCtx := NewChildExecutionContext(s.ctx)
	superCtx.Private["super"] = superCallable{ctx: s.ctx, remaining: s.remaining[:len(s.remaining)-1]}

	var buf bytes.Buffer
	if err := s.remaining[len(s.remaining)-1].Execute(superCtx, &templateWriter{&buf}); err != nil {
		return AsSafeValue(""), err
	}
	return AsSafeValue(buf.String()), nil
}

// selfObject backs self.blockname(): attribute lookups dispatch to a
// callable rendering the most-derived version of that block name.
type selfObject struct {
	rootTemplate *Template
	ctx          *ExecutionContext
}

func (s *selfObject) GetDynamicAttr(name string) (*Value, bool) {
	return AsValue(selfBlockCallable{rootTemplate: s.rootTemplate, ctx: s.ctx, name: name}), true
}

type selfBlockCallable struct {
	rootTemplate *Template
	ctx          *ExecutionContext
	name         string
}

func (c selfBlockCallable) Call(ctx *ExecutionContext, args []*Value, kwargs map[string]*Value) (*Value, error) {
	wrappers := blockWrappers(c.rootTemplate, c.name)
	if len(wrappers) == 0 {
		return nil, fmt.Errorf("self.%s(): no such block", c.name)
	}
	selfCtx := NewChildExecutionContext(c.ctx)
	var buf bytes.Buffer
	if err := wrappers[len(wrappers)-1].Execute(selfCtx, &templateWriter{&buf}); err != nil {
		return nil, err
	}
	return AsSafeValue(buf.String()), nil
}

// tagBlockParser parses the {% block %} tag: a name, an optional
// `scoped` modifier, and a body up to {% endblock [name] %}.
func tagBlockParser(doc *Parser, start *Token, arguments *Parser) (INodeTag, error) {
	if arguments.Count() == 0 {
		return nil, arguments.Error("tag 'block' requires a name", nil)
	}

	nameToken := arguments.MatchType(TokenName)
	if nameToken == nil {
		return nil, arguments.Error("first argument for tag 'block' must be a name", nil)
	}

	node := &tagBlockNode{name: nameToken.Val}
	if arguments.Match(TokenName, "scoped") != nil {
		node.scoped = true
	}

	if arguments.Remaining() != 0 {
		return nil, arguments.Error("tag 'block' takes a name and an optional 'scoped' modifier", nil)
	}

	wrapper, endtagargs, err := doc.WrapUntilTag("endblock")
	if err != nil {
		return nil, err
	}
	if endtagargs.Remaining() > 0 {
		endtagNameToken := endtagargs.MatchType(TokenName)
		if endtagNameToken != nil && endtagNameToken.Val != nameToken.Val {
			return nil, endtagargs.Error(fmt.Sprintf("name for 'endblock' must equal the 'block'-tag's name ('%s' != '%s')",
				nameToken.Val, endtagNameToken.Val), nil)
		}
		if endtagNameToken == nil || endtagargs.Remaining() > 0 {
			return nil, endtagargs.Error("either no or only one argument (name) allowed for 'endblock'", nil)
		}
	}

	tpl := doc.template
	if _, exists := tpl.blocks[nameToken.Val]; exists {
		return nil, arguments.Error(fmt.Sprintf("block named '%s' already defined", nameToken.Val), nil)
	}
	tpl.blocks[nameToken.Val] = wrapper

	return node, nil
}

func init() {
	mustRegisterTag("block", tagBlockParser)
}
