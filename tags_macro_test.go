package altar

import "testing"

func TestMacroBasic(t *testing.T) {
	tpl := Must(FromString(`{% macro greeting(name) %}Hello, {{ name }}!{% endmacro %}{{ greeting("World") }}`))

	out, err := tpl.Execute(Context{})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if out != "Hello, World!" {
		t.Errorf("got %q", out)
	}
}

func TestMacroDefaultAndKwargs(t *testing.T) {
	tpl := Must(FromString(`{% macro button(text, type="primary") %}<{{ type }}>{{ text }}</{{ type }}>{% endmacro %}` +
		`{{ button("Click me") }}|{{ button("Go", type="success") }}`))

	out, err := tpl.Execute(Context{})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	want := "<primary>Click me</primary>|<success>Go</success>"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestMacroUnknownKwargError(t *testing.T) {
	tpl := Must(FromString(`{% macro m(a) %}{{ a }}{% endmacro %}{{ m(a=1, b=2) }}`))

	_, err := tpl.Execute(Context{})
	if err == nil {
		t.Error("expected an error for an unknown keyword argument")
	}
}

func TestCallBlockWithCaller(t *testing.T) {
	tpl := Must(FromString(
		`{% macro dialog(title) %}[{{ title }}]{{ caller() }}{% endmacro %}` +
			`{% call dialog("Confirm") %}Are you sure?{% endcall %}`))

	out, err := tpl.Execute(Context{})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if out != "[Confirm]Are you sure?" {
		t.Errorf("got %q", out)
	}
}

func TestCallBlockWithArgs(t *testing.T) {
	tpl := Must(FromString(
		`{% macro list_items(items) %}{% for i in items %}{{ caller(i) }}{% endfor %}{% endmacro %}` +
			`{% call(item) list_items([1, 2, 3]) %}<{{ item }}>{% endcall %}`))

	out, err := tpl.Execute(Context{})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if out != "<1><2><3>" {
		t.Errorf("got %q", out)
	}
}

func TestMacroRecursionDepthLimit(t *testing.T) {
	tpl := Must(FromString(`{% macro rec(n) %}{{ rec(n + 1) }}{% endmacro %}{{ rec(0) }}`))

	_, err := tpl.Execute(Context{})
	if err == nil {
		t.Error("expected a recursion-depth error for an unconditionally recursive macro")
	}
}
