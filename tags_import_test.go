package altar

import "testing"

func TestImportMacros(t *testing.T) {
	eng := NewEngine("test", MapLoader{
		"macros.alt": `{% macro add(a, b) export %}{{ a + b }}{% endmacro %}` +
			`{% macro mul(a, b) export %}{{ a * b }}{% endmacro %}`,
	})

	tpl, err := eng.FromString(`{% import "macros.alt" add, mul as times %}{{ add(2, 3) }}/{{ times(2, 3) }}`)
	if err != nil {
		t.Fatalf("FromString failed: %v", err)
	}
	out, err := tpl.Execute(Context{})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if out != "5/6" {
		t.Errorf("got %q, want %q", out, "5/6")
	}
}

func TestImportUnexportedMacroFails(t *testing.T) {
	eng := NewEngine("test", MapLoader{
		"macros.alt": `{% macro secret(a) %}{{ a }}{% endmacro %}`,
	})

	_, err := eng.FromString(`{% import "macros.alt" secret %}`)
	if err == nil {
		t.Error("expected an error importing a non-exported macro")
	}
}

func TestFromImportWithAlias(t *testing.T) {
	eng := NewEngine("test", MapLoader{
		"macros.alt": `{% macro add(a, b) export %}{{ a + b }}{% endmacro %}`,
	})

	tpl, err := eng.FromString(`{% from "macros.alt" import add as plus %}{{ plus(4, 5) }}`)
	if err != nil {
		t.Fatalf("FromString failed: %v", err)
	}
	out, err := tpl.Execute(Context{})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if out != "9" {
		t.Errorf("got %q, want %q", out, "9")
	}
}
