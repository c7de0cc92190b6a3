package altar

import "fmt"

// tagForNode represents the {% for %} tag: iteration over a sequence or
// mapping, exposing per-iteration metadata through the "loop" local.
//
//	{% for item in items %}{{ loop.index }}. {{ item }}{% endfor %}
//	{% for key, value in mapping %}{{ key }}: {{ value }}{% endfor %}
//	{% for item in items if item.active %}{{ item }}{% endfor %}
//	{% for item in items %}{{ item }}{% empty %}No items.{% endfor %}
type tagForNode struct {
	key             string
	value           string // only set for "for key, value in mapping"
	objectEvaluator IEvaluator
	filterCond      IEvaluator // optional "if cond" clause
	reversed        bool
	sorted          bool

	bodyWrapper  *NodeWrapper
	emptyWrapper *NodeWrapper
}

// loopInfo backs the "loop" local. Attribute names are lowercase
// (loop.index, not loop.Index) per Jinja convention, which an exported
// Go struct field can't express directly, so GetDynamicAttr is used
// instead of plain reflection (see value.go's DynamicAttrGetter).
type loopInfo struct {
	index, index0             int
	revindex, revindex0       int
	length                    int
	depth, depth0             int
	first, last               bool
	previtem, nextitem        *Value
	parent                    *loopInfo
}

func (l *loopInfo) GetDynamicAttr(name string) (*Value, bool) {
	switch name {
	case "index":
		return AsValue(l.index), true
	case "index0":
		return AsValue(l.index0), true
	case "revindex":
		return AsValue(l.revindex), true
	case "revindex0":
		return AsValue(l.revindex0), true
	case "first":
		return AsValue(l.first), true
	case "last":
		return AsValue(l.last), true
	case "length":
		return AsValue(l.length), true
	case "depth":
		return AsValue(l.depth), true
	case "depth0":
		return AsValue(l.depth0), true
	case "previtem":
		if l.previtem == nil {
			return Undefined(), true
		}
		return l.previtem, true
	case "nextitem":
		if l.nextitem == nil {
			return Undefined(), true
		}
		return l.nextitem, true
	case "parentloop":
		if l.parent == nil {
			return Undefined(), true
		}
		return AsValue(l.parent), true
	case "cycle":
		return AsValue(loopCycleCallable{loop: l}), true
	}
	return Undefined(), false
}

// loopCycleCallable backs loop.cycle(a, b, ...): cycles through its
// arguments in lockstep with the current (post-filter) iteration index.
type loopCycleCallable struct{ loop *loopInfo }

func (c loopCycleCallable) Call(ctx *ExecutionContext, args []*Value, kwargs map[string]*Value) (*Value, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("loop.cycle() requires at least one argument")
	}
	return args[c.loop.index0%len(args)], nil
}

type forPair struct {
	key, value *Value
}

func (node *tagForNode) Execute(ctx *ExecutionContext, writer TemplateWriter) error {
	forCtx := NewChildExecutionContext(ctx)

	var parent *loopInfo
	if pv, ok := forCtx.Private["loop"]; ok {
		parent, _ = pv.(*loopInfo)
	}

	obj, err := node.objectEvaluator.Evaluate(forCtx)
	if err != nil {
		return err
	}

	var all []forPair
	obj.IterateOrder(func(idx, count int, key, value *Value) bool {
		all = append(all, forPair{key, value})
		return true
	}, func() {}, node.reversed, node.sorted)

	preFilterLength := len(all)

	var items []forPair
	if node.filterCond == nil {
		items = all
	} else {
		for _, pair := range all {
			forCtx.Private[node.key] = pair.key
			if node.value != "" {
				forCtx.Private[node.value] = pair.value
			}
			cond, err := node.filterCond.Evaluate(forCtx)
			if err != nil {
				return err
			}
			if cond.IsTrue() {
				items = append(items, pair)
			}
		}
	}

	if len(items) == 0 {
		if node.emptyWrapper != nil {
			return node.emptyWrapper.Execute(forCtx, writer)
		}
		return nil
	}

	n := len(items)
	depth := 1
	depth0 := 0
	if parent != nil {
		depth = parent.depth + 1
		depth0 = parent.depth0 + 1
	}

	for i, pair := range items {
		loop := &loopInfo{
			index: i + 1, index0: i,
			revindex: n - i, revindex0: n - i - 1,
			length: preFilterLength,
			first:  i == 0,
			last:   i == n-1,
			depth:  depth, depth0: depth0,
			parent: parent,
		}
		if i > 0 {
			loop.previtem = items[i-1].key
		}
		if i < n-1 {
			loop.nextitem = items[i+1].key
		}

		forCtx.Private["loop"] = loop
		forCtx.Private[node.key] = pair.key
		if node.value != "" {
			forCtx.Private[node.value] = pair.value
		}

		if err := node.bodyWrapper.Execute(forCtx, writer); err != nil {
			return err
		}
	}

	return nil
}

func tagForParser(doc *Parser, start *Token, arguments *Parser) (INodeTag, error) {
	forNode := &tagForNode{}

	var valueToken *Token
	keyToken := arguments.MatchType(TokenName)
	if keyToken == nil {
		return nil, arguments.Error("expected a name as first argument for 'for'-tag", nil)
	}

	if arguments.Match(TokenPunct, ",") != nil {
		valueToken = arguments.MatchType(TokenName)
		if valueToken == nil {
			return nil, arguments.Error("value name must be a name", nil)
		}
	}

	if arguments.Match(TokenName, "in") == nil {
		return nil, arguments.Error("expected keyword 'in'", nil)
	}

	objectEvaluator, err := arguments.parseExpressionNoCondition()
	if err != nil {
		return nil, err
	}
	forNode.objectEvaluator = objectEvaluator
	forNode.key = keyToken.Val
	if valueToken != nil {
		forNode.value = valueToken.Val
	}

	if arguments.Match(TokenName, "if") != nil {
		cond, err := arguments.ParseExpression()
		if err != nil {
			return nil, err
		}
		forNode.filterCond = cond
	}

	if arguments.Match(TokenName, "reversed") != nil {
		forNode.reversed = true
	}
	if arguments.Match(TokenName, "sorted") != nil {
		forNode.sorted = true
	}

	if arguments.Remaining() > 0 {
		return nil, arguments.Error("malformed for-loop arguments", nil)
	}

	wrapper, endargs, err := doc.WrapUntilTag("empty", "endfor")
	if err != nil {
		return nil, err
	}
	forNode.bodyWrapper = wrapper
	if endargs.Count() > 0 {
		return nil, endargs.Error("arguments not allowed here", nil)
	}

	if wrapper.Endtag == "empty" {
		wrapper, endargs, err = doc.WrapUntilTag("endfor")
		if err != nil {
			return nil, err
		}
		forNode.emptyWrapper = wrapper
		if endargs.Count() > 0 {
			return nil, endargs.Error("arguments not allowed here", nil)
		}
	}

	return forNode, nil
}

func init() {
	mustRegisterTag("for", tagForParser)
}
