// A Jinja/Django-syntax template engine: {{ expr }}, {% stmt %}, {# comment #}.
//
// Current caveats
//   - Parallelism: don't share a Context between concurrent Execute() calls
//     on the same *Template; build a fresh altar.Context per call.
//   - The dateformat filter accepts a handful of common strftime-style
//     directives (%Y, %m, %d, %H, %M, %S, ...), translated internally
//     to a Go time-format layout; exotic directives pass through
//     untranslated.
//
// A tiny example with template strings:
//
//	tpl, err := altar.FromString("Hello {{ name|capitalize }}!")
//	if err != nil {
//	    panic(err)
//	}
//	out, err := tpl.Execute(altar.Context{"name": "florian"})
//	if err != nil {
//	    panic(err)
//	}
//	fmt.Println(out) // Output: Hello Florian!
//
// Render with an independent engine (own cache, own filters/tests, own
// loader) instead of the package-level DefaultEngine:
//
//	eng := altar.NewEngine("mail", altar.MustNewLocalFileSystemLoader("templates/mail"))
//	tpl, err := eng.FromFile("welcome.alt")
package altar
