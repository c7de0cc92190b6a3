package altar

import "bytes"

// Template is a single parsed template: its own token stream and AST,
// plus the inheritance/import bookkeeping (parent/child, named
// blocks, exported macros) that {% extends %}, {% block %} and
// {% import %} thread through.
type Template struct {
	name   string
	source string

	// isTplString is true for templates parsed from a string/bytes
	// rather than loaded by name; relative include/extends/import
	// paths then resolve against the Engine's loader root instead of
	// this template's own directory.
	isTplString bool

	engine *Engine

	tokens []*Token
	root   *nodeDocument

	// level counts nested tag-parsing depth; {% extends %} only makes
	// sense at level 1 (the top of the document), mirroring Jinja.
	level int

	// parent/child form the inheritance chain built by {% extends %}:
	// parent is the template this one extends, child is the template
	// that extended this one (set on the parent when the child is
	// parsed). blocks maps a template's own {% block name %} bodies by
	// name; blockWrappers collects them from the root ancestor down the
	// child links, and superCallable steps back toward the root.
	parent *Template
	child  *Template
	blocks map[string]*NodeWrapper

	// exportedMacros holds this template's {% macro ... export %}
	// definitions, looked up by {% import %}/{% from ... import %}.
	exportedMacros map[string]*tagMacroNode
}

func newTemplateString(engine *Engine, name, source string) (*Template, error) {
	return newTemplate(engine, name, source, true)
}

func newTemplate(engine *Engine, name, source string, isTplString bool) (*Template, error) {
	tpl := &Template{
		name:           name,
		source:         source,
		isTplString:    isTplString,
		engine:         engine,
		blocks:         make(map[string]*NodeWrapper),
		exportedMacros: make(map[string]*tagMacroNode),
	}

	tokens, err := lex(name, source, engine.config.LexerConfig)
	if err != nil {
		return nil, err
	}
	tpl.tokens = tokens

	p := newParser(name, tokens, tpl)
	root, err := p.parseDocument()
	if err != nil {
		return nil, err
	}
	tpl.root = root

	return tpl, nil
}

// newExecutionContext builds the context a render starts from, after
// checking the caller's Context keys. Engine and package globals are
// not copied in; resolveName consults them after the Context.
func (tpl *Template) newExecutionContext(data Context) (*ExecutionContext, error) {
	if data == nil {
		data = make(Context)
	} else if err := data.checkForValidIdentifiers(); err != nil {
		return nil, err
	}
	return newExecutionContext(tpl, data), nil
}

// ExecuteWriter renders the template, writing output directly to
// writer as it's produced (no intermediate buffering), which is what
// lets a long template start flushing to an HTTP response before
// later blocks have even executed.
func (tpl *Template) ExecuteWriter(data Context, writer TemplateWriter) error {
	ctx, err := tpl.newExecutionContext(data)
	if err != nil {
		return err
	}

	// A child-most template's root only renders its own top-level
	// nodes when it has no parent; an {% extends %} chain renders from
	// the root ancestor downward so outer blocks wrap inner overrides.
	root := tpl
	for root.parent != nil {
		root = root.parent
	}
	return root.root.Execute(ctx, writer)
}

// Execute renders the template and returns the result as a string.
func (tpl *Template) Execute(data Context) (string, error) {
	buf := bytes.NewBuffer(make([]byte, 0, 4096))
	if err := tpl.ExecuteWriter(data, &templateWriter{buf}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
