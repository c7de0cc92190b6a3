package altar

import "io"

// TemplateWriter is the sink every node renders into. It mirrors
// io.Writer but adds WriteString so nodes that already hold a string
// (the common case: text runs, filter/test results) don't pay for an
// extra []byte conversion.
type TemplateWriter interface {
	io.Writer
	WriteString(string) (int, error)
}

// templateWriter adapts any io.Writer (typically a *bytes.Buffer, or
// the ResponseWriter/file handed to Template.ExecuteWriter) to
// TemplateWriter.
type templateWriter struct {
	w io.Writer
}

func (tw *templateWriter) WriteString(s string) (int, error) {
	return tw.w.Write([]byte(s))
}

func (tw *templateWriter) Write(b []byte) (int, error) {
	return tw.w.Write(b)
}

// IEvaluator is implemented by every AST node that produces a *Value:
// literals, names, attribute/item access, operators, filters, tests.
type IEvaluator interface {
	Evaluate(*ExecutionContext) (*Value, error)
}

// INode is implemented by every AST node that renders output directly:
// text runs, {{ expr }}, and every built-in/custom tag.
type INode interface {
	Execute(*ExecutionContext, TemplateWriter) error
}

// INodeEvaluator is satisfied by nodes that are both directly
// renderable and usable as an expression, such as a bare {{ expr }}.
type INodeEvaluator interface {
	INode
	IEvaluator
}

// INodeTag is the interface a tag's parsed AST node must satisfy;
// it's just INode, named separately so tag parser signatures read
// clearly.
type INodeTag interface {
	INode
}

// NodeWrapper holds the nodes between a starting tag and one of the
// names passed to Parser.WrapUntilTag, plus which of those names
// actually closed it (so e.g. {% if %} can tell "else" from "endif").
type NodeWrapper struct {
	Endtag string
	nodes  []INode
}

// Execute renders every wrapped node in order.
func (nw *NodeWrapper) Execute(ctx *ExecutionContext, writer TemplateWriter) error {
	for _, n := range nw.nodes {
		if err := n.Execute(ctx, writer); err != nil {
			return err
		}
	}
	return nil
}

// nodeDocument is the root of a parsed template: the top-level
// sequence of text runs, output expressions and tags.
type nodeDocument struct {
	Nodes []INode
}

func (doc *nodeDocument) Execute(ctx *ExecutionContext, writer TemplateWriter) error {
	for _, n := range doc.Nodes {
		if err := n.Execute(ctx, writer); err != nil {
			return err
		}
	}
	return nil
}

// nodeText is a verbatim run of source text (outside of any
// {{ }}/{% %}/{# #} delimiter), including raw-block content.
type nodeText struct {
	token *Token
}

func (n *nodeText) Execute(ctx *ExecutionContext, writer TemplateWriter) error {
	_, err := writer.WriteString(n.token.Val)
	return err
}

// nodeOutput is a {{ expr }} tag: evaluate expr and write its string
// form, HTML-escaping it unless the context's Autoescape is off or the
// value is marked safe (|safe, |escape already applied, raw markup
// from a trusted filter).
type nodeOutput struct {
	token *Token
	expr  IEvaluator
}

func (n *nodeOutput) Execute(ctx *ExecutionContext, writer TemplateWriter) error {
	val, err := n.expr.Evaluate(ctx)
	if err != nil {
		return err
	}
	s := val.String()
	if ctx.Autoescape && !val.IsSafe() {
		s = htmlEscape(s)
	}
	_, err = writer.WriteString(s)
	return err
}
