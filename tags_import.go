package altar

import (
	"fmt"
)

// tagImportNode represents the {% import %} and {% from ... import %} tags.
//
// The import tag imports macros from another template file, making them
// available as callable functions in the current template.
//
//	{% import "macros.html" input_field %}
//	{{ input_field("username", "Enter your name") }}
//
//	{% import "forms/macros.html" input_field, textarea, select_box %}
//
//	{% import "macros.html" input_field as field, textarea as ta %}
//	{{ field("name", "Your name") }}
//
//	{% from "macros.html" import input_field, textarea as ta %}
//
// Only macros marked with "export" can be imported.
type tagImportNode struct {
	position *Token
	filename string
	macros   map[string]*tagMacroNode // alias/name -> macro instance
}

func (node *tagImportNode) Execute(ctx *ExecutionContext, writer TemplateWriter) error {
	for name, macro := range node.macros {
		ctx.Private[name] = macroCallable{node: macro, defCtx: ctx}
	}
	return nil
}

func parseImportedMacroList(doc *Parser, arguments *Parser, filename string) (map[string]*tagMacroNode, error) {
	tpl, err := doc.template.engine.FromFile(filename)
	if err != nil {
		return nil, err
	}

	macros := make(map[string]*tagMacroNode)
	for arguments.Remaining() > 0 {
		macroNameToken := arguments.MatchType(TokenName)
		if macroNameToken == nil {
			return nil, arguments.Error("expected macro name", nil)
		}

		asName := macroNameToken.Val
		if arguments.Match(TokenName, "as") != nil {
			aliasToken := arguments.MatchType(TokenName)
			if aliasToken == nil {
				return nil, arguments.Error("expected macro alias name", nil)
			}
			asName = aliasToken.Val
		}

		macroInstance, has := tpl.exportedMacros[macroNameToken.Val]
		if !has {
			return nil, arguments.Error(fmt.Sprintf("macro '%s' not found (or not exported) in '%s'", macroNameToken.Val, filename), macroNameToken)
		}
		macros[asName] = macroInstance

		if arguments.Remaining() == 0 {
			break
		}
		if arguments.Match(TokenPunct, ",") == nil {
			return nil, arguments.Error("expected ','", nil)
		}
	}
	return macros, nil
}

// tagImportParser parses {% import "file" macro1, macro2 as alias %}.
func tagImportParser(doc *Parser, start *Token, arguments *Parser) (INodeTag, error) {
	filenameToken := arguments.MatchType(TokenString)
	if filenameToken == nil {
		return nil, arguments.Error("import-tag needs a filename as string", nil)
	}
	filename := doc.template.engine.resolveFilename(doc.template, filenameToken.Val)

	if arguments.Remaining() == 0 {
		return nil, arguments.Error("you must specify at least one macro to import", nil)
	}

	macros, err := parseImportedMacroList(doc, arguments, filename)
	if err != nil {
		return nil, updateErrorToken(err, doc.template, start)
	}

	return &tagImportNode{position: start, filename: filename, macros: macros}, nil
}

// tagFromParser parses {% from "file" import macro1, macro2 as alias %}.
func tagFromParser(doc *Parser, start *Token, arguments *Parser) (INodeTag, error) {
	filenameToken := arguments.MatchType(TokenString)
	if filenameToken == nil {
		return nil, arguments.Error("from-tag needs a filename as string", nil)
	}
	filename := doc.template.engine.resolveFilename(doc.template, filenameToken.Val)

	if arguments.Match(TokenName, "import") == nil {
		return nil, arguments.Error("expected keyword 'import'", nil)
	}
	if arguments.Remaining() == 0 {
		return nil, arguments.Error("you must specify at least one macro to import", nil)
	}

	macros, err := parseImportedMacroList(doc, arguments, filename)
	if err != nil {
		return nil, updateErrorToken(err, doc.template, start)
	}

	return &tagImportNode{position: start, filename: filename, macros: macros}, nil
}

func init() {
	mustRegisterTag("import", tagImportParser)
	mustRegisterTag("from", tagFromParser)
}
