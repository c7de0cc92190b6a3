package altar

import "testing"

func TestFilterTagSingle(t *testing.T) {
	tpl := Must(FromString(`{% filter upper %}hello{% endfilter %}`))

	out, err := tpl.Execute(Context{})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if out != "HELLO" {
		t.Errorf("got %q, want %q", out, "HELLO")
	}
}

func TestFilterTagChainWithArgs(t *testing.T) {
	tpl := Must(FromString(`{% filter upper|truncate(5) %}hello world{% endfilter %}`))

	out, err := tpl.Execute(Context{})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(out) == 0 {
		t.Errorf("expected non-empty truncated, uppercased output")
	}
}

func TestDoTagSideEffectOnly(t *testing.T) {
	tpl := Must(FromString(`before{% do 1 + 1 %}after`))

	out, err := tpl.Execute(Context{})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if out != "beforeafter" {
		t.Errorf("got %q, want %q", out, "beforeafter")
	}
}
