package altar

import (
	"bytes"
)

// tagFilterNode represents the {% filter %} tag.
//
// The filter tag applies one or more filters to a block of template
// content, useful when a filter should apply to a large rendered block
// rather than a single variable.
//
//	{% filter upper %}
//	    this text will be converted to uppercase.
//	{% endfilter %}
//
//	{% filter truncate(30) %}
//	    This is a longer text that will be truncated.
//	{% endfilter %}
//
//	{% filter escape|wordwrap(40) %}
//	Line 1
//	Line 2
//	{% endfilter %}
type tagFilterNode struct {
	position    *Token
	bodyWrapper *NodeWrapper
	filterChain []*filterCall
}

func (node *tagFilterNode) Execute(ctx *ExecutionContext, writer TemplateWriter) error {
	temp := bytes.NewBuffer(make([]byte, 0, 1024))

	if err := node.bodyWrapper.Execute(ctx, temp); err != nil {
		return err
	}

	value := AsValue(temp.String())

	var err error
	for _, call := range node.filterChain {
		value, err = call.apply(ctx, value)
		if err != nil {
			return ctx.Error(err.Error(), node.position)
		}
	}

	_, err = writer.WriteString(value.String())
	return err
}

// tagFilterParser parses the {% filter %} tag: at least one filter
// name, chained with | and given args/kwargs in parens.
func tagFilterParser(doc *Parser, start *Token, arguments *Parser) (INodeTag, error) {
	filterNode := &tagFilterNode{position: start}

	wrapper, _, err := doc.WrapUntilTag("endfilter")
	if err != nil {
		return nil, err
	}
	filterNode.bodyWrapper = wrapper

	if arguments.Count() == 0 {
		return nil, arguments.Error("tag 'filter' requires at least one filter", nil)
	}

	for {
		call, err := arguments.parseFilterCall()
		if err != nil {
			return nil, err
		}
		filterNode.filterChain = append(filterNode.filterChain, call)

		if arguments.Match(TokenPunct, "|") == nil {
			break
		}
	}

	if arguments.Remaining() > 0 {
		return nil, arguments.Error("malformed filter-tag arguments", nil)
	}

	return filterNode, nil
}

func init() {
	mustRegisterTag("filter", tagFilterParser)
}
