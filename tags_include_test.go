package altar

import "testing"

func TestIncludeBasic(t *testing.T) {
	eng := NewEngine("test", MapLoader{
		"main.alt":   `Header {% include "partial.alt" %} Footer`,
		"partial.alt": "MIDDLE",
	})

	out, err := eng.Render(`Header {% include "partial.alt" %} Footer`, Context{})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if out != "Header MIDDLE Footer" {
		t.Errorf("got %q", out)
	}
}

func TestIncludeArrayFallback(t *testing.T) {
	eng := NewEngine("test", MapLoader{"present.alt": "found it"})

	tpl, err := eng.FromString(`{% include ['missing.alt', 'present.alt'] %}`)
	if err != nil {
		t.Fatalf("FromString failed: %v", err)
	}
	out, err := tpl.Execute(Context{})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if out != "found it" {
		t.Errorf("got %q", out)
	}
}

func TestIncludeArrayFallbackAllMissingIgnored(t *testing.T) {
	eng := NewEngine("test", MapLoader{})

	tpl, err := eng.FromString(`[{% include ['a.alt', 'b.alt'] ignore missing %}]`)
	if err != nil {
		t.Fatalf("FromString failed: %v", err)
	}
	out, err := tpl.Execute(Context{})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if out != "[]" {
		t.Errorf("got %q, want %q", out, "[]")
	}
}

func TestIncludeMissingWithoutIgnoreErrors(t *testing.T) {
	eng := NewEngine("test", MapLoader{})

	tpl, err := eng.FromString(`{% include "nope.alt" %}`)
	if err != nil {
		t.Fatalf("FromString failed: %v", err)
	}
	_, err = tpl.Execute(Context{})
	if err == nil {
		t.Error("expected an error for a missing include without 'ignore missing'")
	}
}

func TestIncludeWithoutContext(t *testing.T) {
	eng := NewEngine("test", MapLoader{"partial.alt": "{{ name }}"})

	tpl, err := eng.FromString(`{% include "partial.alt" without context %}`)
	if err != nil {
		t.Fatalf("FromString failed: %v", err)
	}
	out, err := tpl.Execute(Context{"name": "World"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if out != "" {
		t.Errorf("got %q, want empty string since context should not propagate", out)
	}
}
