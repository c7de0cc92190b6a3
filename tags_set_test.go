package altar

import "testing"

func TestSetExpression(t *testing.T) {
	tpl := Must(FromString(`{% set total = 2 + 3 %}{{ total }}`))

	out, err := tpl.Execute(Context{})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if out != "5" {
		t.Errorf("got %q, want %q", out, "5")
	}
}

func TestSetBlockForm(t *testing.T) {
	tpl := Must(FromString(`{% set greeting %}Hello, {{ name }}!{% endset %}{{ greeting }} {{ greeting }}`))

	out, err := tpl.Execute(Context{"name": "Ada"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	want := "Hello, Ada! Hello, Ada!"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}
