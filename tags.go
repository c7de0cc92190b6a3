package altar

import "fmt"

// tagParser builds a tag's AST node from its own argument tokens.
// doc is the enclosing document parser (for tags that wrap a body via
// doc.WrapUntilTag); start is the tag's name token; arguments is a
// parser bounded to the tokens between the name and the closing '%}'.
type tagParser func(doc *Parser, start *Token, arguments *Parser) (INodeTag, error)

type tag struct {
	name   string
	parser tagParser
}

// builtinTags holds every tag registered at package-init time via
// mustRegisterTag, independent of any Engine. Each Engine gets its own
// copy (see copyTags) so per-Engine bans and custom registrations
// never leak across engines.
var builtinTags = make(map[string]*tag)

// RegisterTag adds a new tag to builtinTags. It's meant for packages
// that extend Altar with their own tags via an init() function, before
// any Engine is created; returns an error on a name collision.
func RegisterTag(name string, parser tagParser) error {
	if _, exists := builtinTags[name]; exists {
		return fmt.Errorf("tag with name '%s' is already registered", name)
	}
	builtinTags[name] = &tag{name: name, parser: parser}
	return nil
}

// mustRegisterTag is RegisterTag for use in init(), where a collision
// is a programming error, not a runtime condition to handle.
func mustRegisterTag(name string, parser tagParser) {
	if err := RegisterTag(name, parser); err != nil {
		panic(err)
	}
}

// copyTags returns a shallow copy of a tag registry, used to seed each
// Engine's own registry from builtinTags.
func copyTags(src map[string]*tag) map[string]*tag {
	dst := make(map[string]*tag, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// parseTagElement parses a {% name ... %} tag: it looks up name in
// the owning template's Engine's tag registry (respecting that
// Engine's BanTag list), collects the raw argument tokens up to
// TokenBlockEnd into a bounded sub-parser, and hands both to the tag's
// parser function.
func (p *Parser) parseTagElement() (INode, error) {
	p.Consume() // TokenBlockStart

	nameTok := p.MatchType(TokenName)
	if nameTok == nil {
		return nil, p.Error("tag name (identifier) expected", nil)
	}

	engine := p.template.engine
	if _, banned := engine.bannedTags[nameTok.Val]; banned {
		return nil, p.Error(fmt.Sprintf("usage of tag '%s' is not allowed (sandbox restriction active)", nameTok.Val), nameTok)
	}
	t, exists := engine.tags[nameTok.Val]
	if !exists {
		return nil, p.Error(fmt.Sprintf("unknown tag '%s' (or beginning tag not provided)", nameTok.Val), nameTok)
	}

	argTokens := make([]*Token, 0)
	for p.PeekType(TokenBlockEnd) == nil {
		if p.Remaining() == 0 {
			return nil, p.Error(fmt.Sprintf("unexpectedly reached EOF, tag '%s' not closed", nameTok.Val), nameTok)
		}
		argTokens = append(argTokens, p.Current())
		p.Consume()
	}
	p.Consume() // TokenBlockEnd

	arguments := newParser(p.name, argTokens, p.template)

	p.template.level++
	node, err := t.parser(p, nameTok, arguments)
	p.template.level--
	if err != nil {
		return nil, err
	}

	if arguments.Remaining() > 0 {
		return nil, arguments.Error(fmt.Sprintf("malformed '%s'-tag arguments", nameTok.Val), nil)
	}

	return node, nil
}
