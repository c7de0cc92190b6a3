package altar

import (
	"testing"
	"time"
)

type attrTestStruct struct {
	Name string
}

func (s attrTestStruct) Method() string { return "method-result" }

func TestAttrFilterStructFieldOnly(t *testing.T) {
	tpl := Must(FromString(`{{ obj|attr("Name") }}`))

	out, err := tpl.Execute(Context{"obj": attrTestStruct{Name: "Ada"}})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if out != "Ada" {
		t.Errorf("got %q, want %q", out, "Ada")
	}
}

func TestAttrFilterDoesNotFallBackToMethods(t *testing.T) {
	tpl := Must(FromString(`[{{ obj|attr("Method") }}]`))

	out, err := tpl.Execute(Context{"obj": attrTestStruct{Name: "Ada"}})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	// attr() is attribute/item access only; it must not resolve methods,
	// unlike plain dotted attribute access.
	if out != "[]" {
		t.Errorf("got %q, want %q (attr() should not fall back to methods)", out, "[]")
	}
}

func TestAttrFilterMapKey(t *testing.T) {
	tpl := Must(FromString(`{{ m|attr("key") }}`))

	out, err := tpl.Execute(Context{"m": map[string]string{"key": "value"}})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if out != "value" {
		t.Errorf("got %q, want %q", out, "value")
	}
}

func TestDateformatFilterUsesStrftimeStyle(t *testing.T) {
	tpl := Must(FromString(`{{ when|dateformat("%Y-%m-%d") }}`))

	when := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)
	out, err := tpl.Execute(Context{"when": when})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if out != "2026-07-30" {
		t.Errorf("got %q, want %q", out, "2026-07-30")
	}
}

func TestRandomFilterPicksFromSequence(t *testing.T) {
	tpl := Must(FromString(`{{ items|random }}`))

	out, err := tpl.Execute(Context{"items": []string{"only"}})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if out != "only" {
		t.Errorf("got %q, want %q", out, "only")
	}
}

type groupbyTestItem struct {
	K string
	V int
}

func TestGroupbyFilterExposesLowercaseAttrs(t *testing.T) {
	tpl := Must(FromString(`{{ (items|groupby("K"))[0].grouper }}`))

	items := []groupbyTestItem{
		{K: "b", V: 1},
		{K: "a", V: 2},
		{K: "a", V: 3},
	}
	out, err := tpl.Execute(Context{"items": items})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if out != "a" {
		t.Errorf("got %q, want %q", out, "a")
	}
}

func TestGroupbyFilterListHoldsGroupedItems(t *testing.T) {
	tpl := Must(FromString(`{% for g in items|groupby("K") %}{{ g.grouper }}:{% for v in g.list %}{{ v.V }}{% endfor %} {% endfor %}`))

	items := []groupbyTestItem{
		{K: "b", V: 1},
		{K: "a", V: 2},
		{K: "a", V: 3},
	}
	out, err := tpl.Execute(Context{"items": items})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	want := "a:23 b:1 "
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}
