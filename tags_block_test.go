package altar

import "testing"

func TestBlockInheritanceWithSuper(t *testing.T) {
	eng := NewEngine("test", MapLoader{
		"base.alt": `<title>{% block title %}Default{% endblock %}</title>` +
			`<body>{% block content %}base content{% endblock %}</body>`,
	})

	tpl, err := eng.FromString(
		`{% extends "base.alt" %}` +
			`{% block title %}{{ super() }} Extended{% endblock %}` +
			`{% block content %}child content{% endblock %}`)
	if err != nil {
		t.Fatalf("FromString failed: %v", err)
	}

	out, err := tpl.Execute(Context{})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	want := "<title>Default Extended</title><body>child content</body>"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestBlockSelfReference(t *testing.T) {
	eng := NewEngine("test", MapLoader{
		"base.alt": `{% block title %}Base Title{% endblock %}<nav>{{ self.title() }}</nav>`,
	})

	tpl, err := eng.FromString(`{% extends "base.alt" %}{% block title %}Child Title{% endblock %}`)
	if err != nil {
		t.Fatalf("FromString failed: %v", err)
	}

	out, err := tpl.Execute(Context{})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	want := "Child Title<nav>Child Title</nav>"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestBlockOverrideWithoutScopedDoesNotSeeParentLoopVar(t *testing.T) {
	eng := NewEngine("test", MapLoader{
		"base.alt": `{% for item in items %}[{% block x %}{{ item }}{% endblock %}]{% endfor %}`,
	})

	tpl, err := eng.FromString(`{% extends "base.alt" %}{% block x %}{{ item }}{% endblock %}`)
	if err != nil {
		t.Fatalf("FromString failed: %v", err)
	}

	out, err := tpl.Execute(Context{"items": []int{1, 2}})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	// Non-scoped override renders in the root frame, so it must not see
	// the parent's for-loop variable `item`: it renders empty twice, not
	// the loop values.
	want := "[][]"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestBlockOverrideWithScopedSeesParentLoopVar(t *testing.T) {
	eng := NewEngine("test", MapLoader{
		"base.alt": `{% for item in items %}[{% block x scoped %}{{ item }}{% endblock %}]{% endfor %}`,
	})

	tpl, err := eng.FromString(`{% extends "base.alt" %}{% block x %}{{ item }}{% endblock %}`)
	if err != nil {
		t.Fatalf("FromString failed: %v", err)
	}

	out, err := tpl.Execute(Context{"items": []int{1, 2}})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	want := "[1][2]"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestBlockScopedModifier(t *testing.T) {
	tpl := Must(FromString(`{% for item in items %}{% block row scoped %}{{ item }} {% endblock %}{% endfor %}`))

	out, err := tpl.Execute(Context{"items": []int{1, 2, 3}})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if out != "1 2 3 " {
		t.Errorf("got %q, want %q", out, "1 2 3 ")
	}
}
