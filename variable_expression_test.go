package altar

import "testing"

func TestDelimiterRoundTrip(t *testing.T) {
	src := "Just plain text.\nNo statements or expressions here.\n"
	tpl := Must(FromString(src))

	out, err := tpl.Execute(Context{})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if out != src {
		t.Errorf("got %q, want verbatim input %q", out, src)
	}
}

func TestExpressionPrecedence(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"{{ 2 + 3 * 4 }}", "14"},
		{"{{ (2 + 3) * 4 }}", "20"},
		{"{{ 2 ** 3 ** 2 }}", "512.0"}, // right-associative power
		{"{{ 1 if true else 2 }}", "1"},
		{"{{ 1 if false else 2 }}", "2"},
		{"{{ not true and false }}", "False"},
		{"{{ 'a' ~ 'b' ~ 1 }}", "ab1"},
		{"{{ -2 ** 2 }}", "-4.0"}, // unary binds looser than power
	}

	for _, tt := range tests {
		tpl, err := FromString(tt.src)
		if err != nil {
			t.Fatalf("FromString(%q) failed: %v", tt.src, err)
		}
		out, err := tpl.Execute(Context{})
		if err != nil {
			t.Fatalf("Execute(%q) failed: %v", tt.src, err)
		}
		if out != tt.want {
			t.Errorf("%q = %q, want %q", tt.src, out, tt.want)
		}
	}
}

func TestRawBlockVerbatim(t *testing.T) {
	tpl := Must(FromString(`{% raw %}{{ not a variable }}{% endraw %}`))

	out, err := tpl.Execute(Context{})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if out != "{{ not a variable }}" {
		t.Errorf("got %q", out)
	}
}

func TestCommentStripped(t *testing.T) {
	tpl := Must(FromString(`before{# this is ignored #}after`))

	out, err := tpl.Execute(Context{})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if out != "beforeafter" {
		t.Errorf("got %q", out)
	}
}

func TestEqualityOnSequencesDoesNotPanic(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"{{ [1, 2] == [1, 2] }}", "True"},
		{"{{ [1, 2] == [1, 3] }}", "False"},
		{"{{ a == b }}", "True"},
		{"{{ a == c }}", "False"},
	}

	a := []int{1, 2, 3}
	b := []int{1, 2, 3}
	c := map[string]any{"x": 1}

	for _, tt := range tests {
		tpl, err := FromString(tt.src)
		if err != nil {
			t.Fatalf("FromString(%q) failed: %v", tt.src, err)
		}
		out, err := tpl.Execute(Context{"a": a, "b": b, "c": c})
		if err != nil {
			t.Fatalf("Execute(%q) failed: %v", tt.src, err)
		}
		if out != tt.want {
			t.Errorf("%q = %q, want %q", tt.src, out, tt.want)
		}
	}
}
