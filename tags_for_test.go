package altar

import "testing"

func TestForLoopLocals(t *testing.T) {
	tpl, err := FromString(`{% for x in items %}{{ loop.index }}:{{ loop.index0 }}:{{ loop.first }}:{{ loop.last }} {% endfor %}`)
	if err != nil {
		t.Fatalf("FromString failed: %v", err)
	}

	out, err := tpl.Execute(Context{"items": []string{"a", "b", "c"}})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	want := "1:0:True:False 2:1:False:False 3:2:False:True "
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestForLoopEmpty(t *testing.T) {
	tpl := Must(FromString(`{% for x in items %}{{ x }}{% empty %}nothing{% endfor %}`))

	out, err := tpl.Execute(Context{"items": []string{}})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if out != "nothing" {
		t.Errorf("got %q, want %q", out, "nothing")
	}
}

func TestForLoopPreFilterLength(t *testing.T) {
	// spec: loop.length reflects the pre-filter count, while index/last
	// track the post-filter iteration.
	tpl := Must(FromString(`{% for x in items if x > 1 %}{{ loop.index }}/{{ loop.length }}:{{ x }} {% endfor %}`))

	out, err := tpl.Execute(Context{"items": []int{1, 2, 3}})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	want := "1/3:2 2/3:3 "
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestForLoopNestedDepth(t *testing.T) {
	tpl := Must(FromString(`{% for row in rows %}{% for col in row %}{{ loop.depth }}{{ loop.parentloop.depth }} {% endfor %}{% endfor %}`))

	out, err := tpl.Execute(Context{"rows": [][]int{{1, 2}, {3}}})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	want := "21 21 21 "
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestForLoopCycle(t *testing.T) {
	tpl := Must(FromString(`{% for x in items %}{{ loop.cycle("a", "b") }}{% endfor %}`))

	out, err := tpl.Execute(Context{"items": []int{1, 2, 3, 4}})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if out != "abab" {
		t.Errorf("got %q, want %q", out, "abab")
	}
}

func TestForLoopMapping(t *testing.T) {
	tpl := Must(FromString(`{% for k in m %}{{ k }}={{ m[k] }} {% endfor %}`))

	out, err := tpl.Execute(Context{"m": map[string]int{"a": 1}})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if out != "a=1 " {
		t.Errorf("got %q, want %q", out, "a=1 ")
	}
}

func TestForLoopPreviousNextItem(t *testing.T) {
	tpl := Must(FromString(`{% for x in items %}[{{ loop.previtem }}|{{ x }}|{{ loop.nextitem }}]{% endfor %}`))

	out, err := tpl.Execute(Context{"items": []string{"a", "b"}})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	want := "[|a|b][a|b|]"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}
