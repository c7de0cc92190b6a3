package altar

import (
	stderrors "errors"
	"fmt"
	"maps"
)

// Context provides constants, variables, instances or functions to a
// template.
//
// Altar automatically provides meta-information through the "altar" key.
// Currently, context["altar"] contains:
//  1. version: the engine's Version string
//
// Template examples for accessing items from a Context:
//
//	{{ myconstant }}
//	{{ myfunc("test", 42) }}
//	{{ user.name }}
//	{{ altar.version }}
type Context map[string]any

func (c Context) checkForValidIdentifiers() error {
	for k, v := range c {
		if !isValidIdentifier(k) {
			return &Error{
				Sender: "checkForValidIdentifiers",
				Kind:   RenderError,
				Err:    fmt.Errorf("context key '%s' (value: '%+v') is not a valid identifier", k, v),
			}
		}
	}
	return nil
}

func isValidIdentifier(s string) bool {
	if len(s) == 0 {
		return false
	}
	for i := range s {
		if !isValidIdentifierChar(s[i]) {
			return false
		}
	}
	return true
}

func isValidIdentifierChar(c byte) bool {
	return (c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') ||
		c == '_'
}

// Update merges the key/value pairs from other into c, in place.
func (c Context) Update(other Context) Context {
	maps.Copy(c, other)
	return c
}

// ExecutionContext holds the runtime state during template rendering.
//
// Custom tags receive this in their Execute method. Use
// NewChildExecutionContext to create scoped child contexts (for, macro,
// call, block, with blocks).
//
// Context hierarchy:
//   - Public: user-provided render data (read-only by convention)
//   - Private: scoped engine data (copied per child context: the loop
//     local, set-assigned names, macro parameters, self/super/caller)
//   - Shared: global state, the same instance across every context
//     derived from one render (per-tag state is kept apart, in tagState)
type ExecutionContext struct {
	template *Template

	// root is the context the template's render started from, before
	// any for-loop/macro/scoped-block frame nested it. Non-scoped
	// {% block %} overrides render against root rather than the
	// call-site ctx, per the "without scoped, a child block renders in
	// the root frame only" rule.
	root *ExecutionContext

	macroDepth int

	// Autoescape toggles HTML-escaping of {{ expr }} output. Set from
	// the Engine/EngineConfig default and flipped locally by
	// {% autoescape on|off %}...{% endautoescape %}. The |safe filter
	// bypasses it regardless.
	Autoescape bool

	Public  Context
	Private Context
	Shared  Context

	// tagState stores per-tag-instance mutable state (cycle position,
	// ifchanged-style last-seen values), keyed by the tag node pointer
	// so each source occurrence of a stateful tag gets its own slot.
	// Shared across every child context of one render.
	tagState map[any]any
}

var altarMetaContext = Context{
	"version": Version,
}

func newExecutionContext(tpl *Template, ctx Context) *ExecutionContext {
	private := make(Context)
	private["altar"] = altarMetaContext

	ec := &ExecutionContext{
		template:   tpl,
		Public:     ctx,
		Private:    private,
		Autoescape: tpl.engine.config.AutoEscape,
		tagState:   make(map[any]any),
		Shared:     make(Context),
	}
	ec.root = ec

	// self.blockname() resolves against the root ancestor of the
	// {% extends %} chain, so it works outside any {% block %} too.
	rootTpl := tpl
	for rootTpl.parent != nil {
		rootTpl = rootTpl.parent
	}
	private["self"] = &selfObject{rootTemplate: rootTpl, ctx: ec}
	return ec
}

// NewChildExecutionContext creates an execution context that inherits
// from parent: it shares Public and Shared, and tagState, but gets its
// own Private context pre-populated with a copy of the parent's, so
// names set in the child don't leak back out once the child scope ends.
func NewChildExecutionContext(parent *ExecutionContext) *ExecutionContext {
	child := &ExecutionContext{
		template:   parent.template,
		root:       parent.root,
		Public:     parent.Public,
		Private:    make(Context),
		Autoescape: parent.Autoescape,
		tagState:   parent.tagState,
		Shared:     parent.Shared,
		macroDepth: parent.macroDepth,
	}
	child.Private.Update(parent.Private)
	return child
}

// Error builds a RenderError positioned at token (or the template's own
// position, if token is nil).
func (ctx *ExecutionContext) Error(msg string, token *Token) error {
	return ctx.WrapError(stderrors.New(msg), token)
}

// WrapError wraps an existing error into Altar's *Error shape, keeping
// it as the cause.
func (ctx *ExecutionContext) WrapError(err error, token *Token) error {
	filename := ctx.template.name
	var line, col int
	if token != nil {
		filename = token.Filename
		line = token.Line
		col = token.Col
	}
	return &Error{
		TemplateName: filename,
		Line:         line,
		Column:       col,
		Kind:         RenderError,
		Sender:       "execution",
		Err:          err,
	}
}

// Logf logs through the owning template's Engine, gated by that
// Engine's Debug flag.
func (ctx *ExecutionContext) Logf(format string, args ...any) {
	ctx.template.engine.logf(format, args...)
}

// resolveName looks up name across the frame's Private, Public, then
// Engine/package globals, in that order, returning Undefined() if not
// found anywhere.
func (ctx *ExecutionContext) resolveName(name string) *Value {
	if v, ok := ctx.Private[name]; ok {
		return AsValue(v)
	}
	if v, ok := ctx.Public[name]; ok {
		return AsValue(v)
	}
	if v, ok := ctx.template.engine.globals[name]; ok {
		return AsValue(v)
	}
	if v, ok := globals[name]; ok {
		return AsValue(v)
	}
	return Undefined()
}
