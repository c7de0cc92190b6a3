package altar

import (
	"encoding/json"
	"fmt"
	"html"
	"math"
	"math/rand"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/kr/pretty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// randomIndex picks a uniformly random index in [0, n) for the `random`
// filter. n is always > 0 at call sites.
func randomIndex(n int) int {
	return rand.Intn(n)
}

// groupPair is one group produced by the `groupby` filter. Template
// attribute access is lowercase (group.grouper, group.list), so it
// implements DynamicAttrGetter rather than relying on reflection over
// its exported fields, matching loopInfo and selfObject.
type groupPair struct {
	Grouper any
	List    []any
}

func (g groupPair) GetDynamicAttr(name string) (*Value, bool) {
	switch name {
	case "grouper":
		return AsValue(g.Grouper), true
	case "list":
		return AsValue(g.List), true
	}
	return Undefined(), false
}

func groupbyFilter(in *Value, args []*Value, kwargs map[string]*Value) (*Value, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("'groupby' filter requires an attribute argument")
	}
	attrName := args[0].String()
	items := valuesOf(in)

	groups := make(map[string][]any)
	var groupers []string
	groupVals := make(map[string]*Value)
	for _, v := range items {
		gv, ok := v.GetAttr(attrName)
		if !ok {
			gv = Undefined()
		}
		key := gv.String()
		if _, seen := groups[key]; !seen {
			groupers = append(groupers, key)
			groupVals[key] = gv
		}
		groups[key] = append(groups[key], v.Interface())
	}
	sort.Strings(groupers)

	var result []any
	for _, g := range groupers {
		result = append(result, groupPair{Grouper: groupVals[g].Interface(), List: groups[g]})
	}
	return AsValue(result), nil
}

// htmlEscape implements the `escape`/`e` filter's core, also used
// directly by nodeOutput for auto-escaping {{ }} output.
func htmlEscape(s string) string {
	return html.EscapeString(s)
}

func arg(args []*Value, i int) *Value {
	if i < len(args) {
		return args[i]
	}
	return nil
}

func kwarg(kwargs map[string]*Value, name string, positional []*Value, pos int) *Value {
	if v, ok := kwargs[name]; ok {
		return v
	}
	return arg(positional, pos)
}

func init() {
	titleCaser := cases.Title(language.Und)
	capitalCaser := cases.Title(language.Und, cases.Compact)

	// ---- String filters ----

	registerFilter("upper", func(in *Value, args []*Value, kwargs map[string]*Value) (*Value, error) {
		return AsValue(strings.ToUpper(in.String())), nil
	})
	registerFilter("lower", func(in *Value, args []*Value, kwargs map[string]*Value) (*Value, error) {
		return AsValue(strings.ToLower(in.String())), nil
	})
	registerFilter("capitalize", func(in *Value, args []*Value, kwargs map[string]*Value) (*Value, error) {
		s := strings.ToLower(in.String())
		if s == "" {
			return AsValue(""), nil
		}
		return AsValue(capitalCaser.String(s)), nil
	})
	registerFilter("title", func(in *Value, args []*Value, kwargs map[string]*Value) (*Value, error) {
		return AsValue(titleCaser.String(in.String())), nil
	})
	registerFilter("trim", func(in *Value, args []*Value, kwargs map[string]*Value) (*Value, error) {
		return AsValue(strings.TrimSpace(in.String())), nil
	})
	registerFilter("replace", func(in *Value, args []*Value, kwargs map[string]*Value) (*Value, error) {
		if len(args) < 2 {
			return nil, fmt.Errorf("'replace' filter requires old and new arguments")
		}
		count := -1
		if c := kwarg(kwargs, "count", args, 2); c != nil {
			count = c.Integer()
		}
		return AsValue(strings.Replace(in.String(), args[0].String(), args[1].String(), count)), nil
	})
	registerFilter("center", func(in *Value, args []*Value, kwargs map[string]*Value) (*Value, error) {
		width := 80
		if w := arg(args, 0); w != nil {
			width = w.Integer()
		}
		s := in.String()
		if len(s) >= width {
			return AsValue(s), nil
		}
		total := width - len(s)
		left := total / 2
		right := total - left
		return AsValue(strings.Repeat(" ", left) + s + strings.Repeat(" ", right)), nil
	})
	registerFilter("indent", func(in *Value, args []*Value, kwargs map[string]*Value) (*Value, error) {
		width := 4
		if w := arg(args, 0); w != nil {
			width = w.Integer()
		}
		first := false
		if f := kwarg(kwargs, "first", args, 1); f != nil {
			first = f.IsTrue()
		}
		blank := false
		if b := kwarg(kwargs, "blank", args, 2); b != nil {
			blank = b.IsTrue()
		}
		pad := strings.Repeat(" ", width)
		lines := strings.Split(in.String(), "\n")
		for i, line := range lines {
			if i == 0 && !first {
				continue
			}
			if line == "" && !blank {
				continue
			}
			lines[i] = pad + line
		}
		return AsValue(strings.Join(lines, "\n")), nil
	})
	registerFilter("truncate", func(in *Value, args []*Value, kwargs map[string]*Value) (*Value, error) {
		length := 255
		if l := arg(args, 0); l != nil {
			length = l.Integer()
		}
		killwords := false
		if k := kwarg(kwargs, "killwords", args, 1); k != nil {
			killwords = k.IsTrue()
		}
		end := "..."
		if e := kwarg(kwargs, "end", args, 2); e != nil {
			end = e.String()
		}
		leeway := 5
		if l := kwarg(kwargs, "leeway", args, 3); l != nil {
			leeway = l.Integer()
		}

		s := in.String()
		if len(s) <= length+leeway {
			return AsValue(s), nil
		}
		cut := length - len(end)
		if cut < 0 {
			cut = 0
		}
		if cut > len(s) {
			cut = len(s)
		}
		if killwords {
			return AsValue(s[:cut] + end), nil
		}
		truncated := s[:cut]
		if idx := strings.LastIndex(truncated, " "); idx > 0 {
			truncated = truncated[:idx]
		}
		return AsValue(truncated + end), nil
	})
	registerFilter("wordwrap", func(in *Value, args []*Value, kwargs map[string]*Value) (*Value, error) {
		width := 79
		if w := arg(args, 0); w != nil {
			width = w.Integer()
		}
		words := strings.Fields(in.String())
		var lines []string
		var cur strings.Builder
		for _, w := range words {
			if cur.Len() > 0 && cur.Len()+1+len(w) > width {
				lines = append(lines, cur.String())
				cur.Reset()
			}
			if cur.Len() > 0 {
				cur.WriteByte(' ')
			}
			cur.WriteString(w)
		}
		if cur.Len() > 0 {
			lines = append(lines, cur.String())
		}
		return AsValue(strings.Join(lines, "\n")), nil
	})
	registerFilter("wordcount", func(in *Value, args []*Value, kwargs map[string]*Value) (*Value, error) {
		return AsValue(len(strings.Fields(in.String()))), nil
	})
	registerFilter("striptags", func(in *Value, args []*Value, kwargs map[string]*Value) (*Value, error) {
		s := in.String()
		var b strings.Builder
		inTag := false
		for _, r := range s {
			switch {
			case r == '<':
				inTag = true
			case r == '>':
				inTag = false
			case !inTag:
				b.WriteRune(r)
			}
		}
		return AsValue(strings.Join(strings.Fields(b.String()), " ")), nil
	})
	registerFilter("ljust", func(in *Value, args []*Value, kwargs map[string]*Value) (*Value, error) {
		width := 80
		if w := arg(args, 0); w != nil {
			width = w.Integer()
		}
		s := in.String()
		if len(s) >= width {
			return AsValue(s), nil
		}
		return AsValue(s + strings.Repeat(" ", width-len(s))), nil
	})
	registerFilter("rjust", func(in *Value, args []*Value, kwargs map[string]*Value) (*Value, error) {
		width := 80
		if w := arg(args, 0); w != nil {
			width = w.Integer()
		}
		s := in.String()
		if len(s) >= width {
			return AsValue(s), nil
		}
		return AsValue(strings.Repeat(" ", width-len(s)) + s), nil
	})
	registerFilter("string", func(in *Value, args []*Value, kwargs map[string]*Value) (*Value, error) {
		return AsValue(in.String()), nil
	})
	registerFilter("reverse", func(in *Value, args []*Value, kwargs map[string]*Value) (*Value, error) {
		if in.IsString() {
			runes := []rune(in.String())
			for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
				runes[i], runes[j] = runes[j], runes[i]
			}
			return AsValue(string(runes)), nil
		}
		items := valuesOf(in)
		reverseValues(items)
		return AsValue(toInterfaceSlice(items)), nil
	})

	// ---- Escape filters ----

	escapeFn := func(in *Value, args []*Value, kwargs map[string]*Value) (*Value, error) {
		if in.IsSafe() {
			return in, nil
		}
		return AsSafeValue(htmlEscape(in.String())), nil
	}
	registerFilter("escape", escapeFn)
	registerFilter("e", escapeFn)
	registerFilter("forceescape", func(in *Value, args []*Value, kwargs map[string]*Value) (*Value, error) {
		return AsSafeValue(htmlEscape(in.String())), nil
	})
	registerFilter("safe", func(in *Value, args []*Value, kwargs map[string]*Value) (*Value, error) {
		return in.AsSafe(), nil
	})
	registerFilter("urlencode", func(in *Value, args []*Value, kwargs map[string]*Value) (*Value, error) {
		return AsValue(url.QueryEscape(in.String())), nil
	})

	// ---- Sequence filters ----

	registerFilter("first", func(in *Value, args []*Value, kwargs map[string]*Value) (*Value, error) {
		result := Undefined()
		in.Iterate(func(idx, count int, key, value *Value) bool {
			result = key
			return false
		}, func() {})
		return result, nil
	})
	registerFilter("last", func(in *Value, args []*Value, kwargs map[string]*Value) (*Value, error) {
		result := Undefined()
		in.Iterate(func(idx, count int, key, value *Value) bool {
			result = key
			return true
		}, func() {})
		return result, nil
	})
	lengthFn := func(in *Value, args []*Value, kwargs map[string]*Value) (*Value, error) {
		return AsValue(in.Len()), nil
	}
	registerFilter("length", lengthFn)
	registerFilter("count", lengthFn)

	registerFilter("sort", func(in *Value, args []*Value, kwargs map[string]*Value) (*Value, error) {
		reverse := false
		if r := kwarg(kwargs, "reverse", args, 0); r != nil {
			reverse = r.IsTrue()
		}
		caseSensitive := false
		if c := kwarg(kwargs, "case_sensitive", args, 1); c != nil {
			caseSensitive = c.IsTrue()
		}
		var attrName string
		if a := kwarg(kwargs, "attribute", args, 2); a != nil {
			attrName = a.String()
		}

		items := valuesOf(in)
		keyOf := func(v *Value) *Value {
			if attrName != "" {
				if av, ok := v.GetAttr(attrName); ok {
					return av
				}
				return Undefined()
			}
			return v
		}
		sort.SliceStable(items, func(i, j int) bool {
			a, b := keyOf(items[i]), keyOf(items[j])
			if !caseSensitive && a.IsString() && b.IsString() {
				return strings.ToLower(a.String()) < strings.ToLower(b.String())
			}
			return a.Compare(b) < 0
		})
		if reverse {
			reverseValues(items)
		}
		return AsValue(toInterfaceSlice(items)), nil
	})

	registerFilter("unique", func(in *Value, args []*Value, kwargs map[string]*Value) (*Value, error) {
		seen := make(map[any]bool)
		var out []any
		in.Iterate(func(idx, count int, key, value *Value) bool {
			k := key.Interface()
			if !seen[k] {
				seen[k] = true
				out = append(out, k)
			}
			return true
		}, func() {})
		return AsValue(out), nil
	})

	registerFilter("batch", func(in *Value, args []*Value, kwargs map[string]*Value) (*Value, error) {
		if len(args) < 1 {
			return nil, fmt.Errorf("'batch' filter requires a size argument")
		}
		size := args[0].Integer()
		if size <= 0 {
			return nil, fmt.Errorf("'batch' filter requires a positive size")
		}
		fill := arg(args, 1)
		items := valuesOf(in)
		var batches []any
		for i := 0; i < len(items); i += size {
			end := i + size
			var batch []any
			if end > len(items) {
				batch = toInterfaceSlice(items[i:])
				if fill != nil {
					for len(batch) < size {
						batch = append(batch, fill.Interface())
					}
				}
			} else {
				batch = toInterfaceSlice(items[i:end])
			}
			batches = append(batches, batch)
		}
		return AsValue(batches), nil
	})

	registerFilter("slice", func(in *Value, args []*Value, kwargs map[string]*Value) (*Value, error) {
		if len(args) < 1 {
			return nil, fmt.Errorf("'slice' filter requires a partition-count argument")
		}
		n := args[0].Integer()
		if n <= 0 {
			return nil, fmt.Errorf("'slice' filter requires a positive partition count")
		}
		items := valuesOf(in)
		total := len(items)
		perSlice := total / n
		extra := total % n

		var slices []any
		idx := 0
		for i := 0; i < n; i++ {
			sz := perSlice
			if i < extra {
				sz++
			}
			slices = append(slices, toInterfaceSlice(items[idx:idx+sz]))
			idx += sz
		}
		return AsValue(slices), nil
	})

	registerFilter("sum", func(in *Value, args []*Value, kwargs map[string]*Value) (*Value, error) {
		var attrName string
		if a := kwarg(kwargs, "attribute", args, 0); a != nil {
			attrName = a.String()
		}
		start := 0.0
		if s := kwarg(kwargs, "start", args, 1); s != nil {
			start = s.Float()
		}
		total := start
		in.Iterate(func(idx, count int, key, value *Value) bool {
			v := key
			if attrName != "" {
				if av, ok := v.GetAttr(attrName); ok {
					v = av
				}
			}
			total += v.Float()
			return true
		}, func() {})
		if total == math.Trunc(total) {
			return AsValue(int(total)), nil
		}
		return AsValue(total), nil
	})

	registerFilter("min", func(in *Value, args []*Value, kwargs map[string]*Value) (*Value, error) {
		items := valuesOf(in)
		if len(items) == 0 {
			return Undefined(), nil
		}
		m := items[0]
		for _, v := range items[1:] {
			if v.Compare(m) < 0 {
				m = v
			}
		}
		return m, nil
	})
	registerFilter("max", func(in *Value, args []*Value, kwargs map[string]*Value) (*Value, error) {
		items := valuesOf(in)
		if len(items) == 0 {
			return Undefined(), nil
		}
		m := items[0]
		for _, v := range items[1:] {
			if v.Compare(m) > 0 {
				m = v
			}
		}
		return m, nil
	})
	registerFilter("random", func(in *Value, args []*Value, kwargs map[string]*Value) (*Value, error) {
		items := valuesOf(in)
		if len(items) == 0 {
			return Undefined(), nil
		}
		return items[randomIndex(len(items))], nil
	})

	registerFilter("select", selectFilter(false, false))
	registerFilter("reject", selectFilter(true, false))
	registerFilter("selectattr", selectFilter(false, true))
	registerFilter("rejectattr", selectFilter(true, true))

	registerFilter("map", func(in *Value, args []*Value, kwargs map[string]*Value) (*Value, error) {
		items := valuesOf(in)
		if attr, ok := kwargs["attribute"]; ok {
			var out []any
			for _, v := range items {
				if av, ok := v.GetAttr(attr.String()); ok {
					out = append(out, av.Interface())
				} else {
					out = append(out, nil)
				}
			}
			return AsValue(out), nil
		}
		if len(args) < 1 {
			return nil, fmt.Errorf("'map' filter requires either attribute=... or a filter name")
		}
		filterName := args[0].String()
		fn, exists := builtinFilters[filterName]
		if !exists {
			return nil, fmt.Errorf("'map' filter: unknown filter '%s'", filterName)
		}
		rest := args[1:]
		var out []any
		for _, v := range items {
			mapped, err := fn(v, rest, nil)
			if err != nil {
				return nil, err
			}
			out = append(out, mapped.Interface())
		}
		return AsValue(out), nil
	})

	registerFilter("groupby", groupbyFilter)

	registerFilter("join", func(in *Value, args []*Value, kwargs map[string]*Value) (*Value, error) {
		sep := ""
		if s := arg(args, 0); s != nil {
			sep = s.String()
		}
		var attrName string
		if a := kwarg(kwargs, "attribute", args, 1); a != nil {
			attrName = a.String()
		}
		items := valuesOf(in)
		parts := make([]string, 0, len(items))
		for _, v := range items {
			if attrName != "" {
				if av, ok := v.GetAttr(attrName); ok {
					v = av
				}
			}
			parts = append(parts, v.String())
		}
		return AsValue(strings.Join(parts, sep)), nil
	})

	registerFilter("list", func(in *Value, args []*Value, kwargs map[string]*Value) (*Value, error) {
		return AsValue(toInterfaceSlice(valuesOf(in))), nil
	})

	// ---- Number filters ----

	registerFilter("abs", func(in *Value, args []*Value, kwargs map[string]*Value) (*Value, error) {
		if in.IsFloat() {
			return AsValue(math.Abs(in.Float())), nil
		}
		n := in.Integer64()
		if n < 0 {
			n = -n
		}
		return AsValue(n), nil
	})
	registerFilter("int", func(in *Value, args []*Value, kwargs map[string]*Value) (*Value, error) {
		base := 10
		if b := kwarg(kwargs, "base", args, 1); b != nil {
			base = b.Integer()
		}
		if in.IsString() {
			n, err := strconv.ParseInt(strings.TrimSpace(in.String()), base, 64)
			if err != nil {
				if d := kwarg(kwargs, "default", args, 0); d != nil {
					return d, nil
				}
				return AsValue(0), nil
			}
			return AsValue(n), nil
		}
		return AsValue(in.Integer64()), nil
	})
	registerFilter("float", func(in *Value, args []*Value, kwargs map[string]*Value) (*Value, error) {
		if in.IsString() {
			f, err := strconv.ParseFloat(strings.TrimSpace(in.String()), 64)
			if err != nil {
				if d := kwarg(kwargs, "default", args, 0); d != nil {
					return d, nil
				}
				return AsValue(0.0), nil
			}
			return AsValue(f), nil
		}
		return AsValue(in.Float()), nil
	})
	registerFilter("round", func(in *Value, args []*Value, kwargs map[string]*Value) (*Value, error) {
		precision := 0
		if p := arg(args, 0); p != nil {
			precision = p.Integer()
		}
		method := "common"
		if m := kwarg(kwargs, "method", args, 1); m != nil {
			method = m.String()
		}
		mul := math.Pow(10, float64(precision))
		v := in.Float() * mul
		switch method {
		case "floor":
			v = math.Floor(v)
		case "ceil":
			v = math.Ceil(v)
		default:
			v = math.Round(v)
		}
		return AsValue(v / mul), nil
	})
	registerFilter("filesizeformat", func(in *Value, args []*Value, kwargs map[string]*Value) (*Value, error) {
		binary := false
		if b := arg(args, 0); b != nil {
			binary = b.IsTrue()
		}
		return AsValue(formatFileSize(in.Float(), binary)), nil
	})

	// ---- Mapping filters ----

	registerFilter("dictsort", func(in *Value, args []*Value, kwargs map[string]*Value) (*Value, error) {
		caseSensitive := false
		if c := kwarg(kwargs, "case_sensitive", args, 0); c != nil {
			caseSensitive = c.IsTrue()
		}
		by := "key"
		if b := kwarg(kwargs, "by", args, 1); b != nil {
			by = b.String()
		}

		type kv struct{ key, value *Value }
		var pairs []kv
		in.Iterate(func(idx, count int, key, value *Value) bool {
			pairs = append(pairs, kv{key, value})
			return true
		}, func() {})

		sort.SliceStable(pairs, func(i, j int) bool {
			a, b := pairs[i].key, pairs[j].key
			if by == "value" {
				a, b = pairs[i].value, pairs[j].value
			}
			if !caseSensitive && a.IsString() && b.IsString() {
				return strings.ToLower(a.String()) < strings.ToLower(b.String())
			}
			return a.Compare(b) < 0
		})

		var out []any
		for _, p := range pairs {
			out = append(out, [2]any{p.key.Interface(), p.value.Interface()})
		}
		return AsValue(out), nil
	})

	registerFilter("items", func(in *Value, args []*Value, kwargs map[string]*Value) (*Value, error) {
		var out []any
		in.Iterate(func(idx, count int, key, value *Value) bool {
			out = append(out, [2]any{key.Interface(), value.Interface()})
			return true
		}, func() {})
		return AsValue(out), nil
	})

	registerFilter("attr", func(in *Value, args []*Value, kwargs map[string]*Value) (*Value, error) {
		if len(args) < 1 {
			return nil, fmt.Errorf("'attr' filter requires a name argument")
		}
		if v, ok := structOrMapAttr(in, args[0].String()); ok {
			return v, nil
		}
		return Undefined(), nil
	})

	// ---- Misc filters ----

	registerFilter("default", func(in *Value, args []*Value, kwargs map[string]*Value) (*Value, error) {
		if len(args) < 1 {
			return nil, fmt.Errorf("'default' filter requires a default-value argument")
		}
		boolean := false
		if b := kwarg(kwargs, "boolean", args, 1); b != nil {
			boolean = b.IsTrue()
		}
		if in.IsUndefined() || (boolean && !in.IsTrue()) {
			return args[0], nil
		}
		return in, nil
	})
	registerFilter("d", func(in *Value, args []*Value, kwargs map[string]*Value) (*Value, error) {
		return builtinFilters["default"](in, args, kwargs)
	})
	registerFilter("format", func(in *Value, args []*Value, kwargs map[string]*Value) (*Value, error) {
		conv := make([]any, len(args))
		for i, a := range args {
			conv[i] = a.Interface()
		}
		return AsValue(fmt.Sprintf(in.String(), conv...)), nil
	})
	registerFilter("xmlattr", func(in *Value, args []*Value, kwargs map[string]*Value) (*Value, error) {
		autospace := true
		if a := arg(args, 0); a != nil {
			autospace = a.IsTrue()
		}
		var b strings.Builder
		in.Iterate(func(idx, count int, key, value *Value) bool {
			if value.IsUndefined() || value.IsNil() {
				return true
			}
			if autospace {
				b.WriteByte(' ')
			}
			fmt.Fprintf(&b, `%s="%s"`, key.String(), htmlEscape(value.String()))
			return true
		}, func() {})
		return AsSafeValue(b.String()), nil
	})
	registerFilter("pprint", func(in *Value, args []*Value, kwargs map[string]*Value) (*Value, error) {
		return AsValue(pretty.Sprint(in.Interface())), nil
	})
	registerFilter("tojson", func(in *Value, args []*Value, kwargs map[string]*Value) (*Value, error) {
		var (
			b   []byte
			err error
		)
		if indent := arg(args, 0); indent != nil {
			b, err = json.MarshalIndent(in.Interface(), "", strings.Repeat(" ", indent.Integer()))
		} else {
			b, err = json.Marshal(in.Interface())
		}
		if err != nil {
			return nil, err
		}
		return AsSafeValue(string(b)), nil
	})
	registerFilter("dateformat", func(in *Value, args []*Value, kwargs map[string]*Value) (*Value, error) {
		if len(args) < 1 {
			return nil, fmt.Errorf("'dateformat' filter requires a format argument")
		}
		t, ok := in.Interface().(interface{ Format(string) string })
		if !ok {
			return nil, fmt.Errorf("'dateformat' filter requires a time.Time-like value")
		}
		return AsValue(t.Format(goTimeLayout(args[0].String()))), nil
	})
}

func selectFilter(reject, byAttr bool) FilterFunction {
	return func(in *Value, args []*Value, kwargs map[string]*Value) (*Value, error) {
		items := valuesOf(in)

		idx := 0
		var attrName string
		if byAttr {
			if len(args) < 1 {
				return nil, fmt.Errorf("selectattr/rejectattr requires an attribute name")
			}
			attrName = args[0].String()
			idx = 1
		}

		testName := "defined"
		var testArgVals []*Value
		if idx < len(args) {
			testName = args[idx].String()
			testArgVals = args[idx+1:]
		}

		var out []any
		for _, v := range items {
			subject := v
			if byAttr {
				av, ok := v.GetAttr(attrName)
				if !ok {
					av = Undefined()
				}
				subject = av
			}
			ok, err := evaluateNamedTest(testName, subject, testArgVals)
			if err != nil {
				return nil, err
			}
			if ok != reject {
				out = append(out, v.Interface())
			}
		}
		return AsValue(out), nil
	}
}

// evaluateNamedTest looks a test up by name from builtinTests;
// select/reject/selectattr/rejectattr only compose the always-available
// builtin test table, not tests registered on a particular Engine.
func evaluateNamedTest(name string, in *Value, args []*Value) (bool, error) {
	fn, exists := builtinTests[name]
	if !exists {
		return false, fmt.Errorf("test '%s' not found", name)
	}
	return fn(in, args)
}

// structOrMapAttr looks up name as a struct field or map key only,
// skipping the method fallback that Value.GetAttr applies. Used by the
// `attr` filter, which per Jinja semantics must not call methods.
func structOrMapAttr(in *Value, name string) (*Value, bool) {
	rv := in.getResolvedValue()
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return Undefined(), false
	}
	switch rv.Kind() {
	case reflect.Struct:
		f := rv.FieldByName(name)
		if f.IsValid() {
			return &Value{val: f}, true
		}
	case reflect.Map:
		key := reflect.ValueOf(name)
		if key.Type().AssignableTo(rv.Type().Key()) {
			if mv := rv.MapIndex(key); mv.IsValid() {
				return &Value{val: mv}, true
			}
		}
	}
	return Undefined(), false
}

func valuesOf(in *Value) []*Value {
	var out []*Value
	in.Iterate(func(idx, count int, key, value *Value) bool {
		out = append(out, key)
		return true
	}, func() {})
	return out
}

func toInterfaceSlice(vals []*Value) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = v.Interface()
	}
	return out
}

func reverseValues(vals []*Value) {
	for i, j := 0, len(vals)-1; i < j; i, j = i+1, j-1 {
		vals[i], vals[j] = vals[j], vals[i]
	}
}

func formatFileSize(bytes float64, binary bool) string {
	base := 1000.0
	units := []string{"KB", "MB", "GB", "TB", "PB"}
	if binary {
		base = 1024.0
		units = []string{"KiB", "MiB", "GiB", "TiB", "PiB"}
	}
	if bytes < base {
		return fmt.Sprintf("%d Bytes", int(bytes))
	}
	v := bytes
	for _, u := range units {
		v /= base
		if v < base {
			return fmt.Sprintf("%.1f %s", v, u)
		}
	}
	return fmt.Sprintf("%.1f %s", v, units[len(units)-1])
}

// goTimeLayout maps a handful of common strftime-style directives to
// Go's reference-time layout; unrecognized input passes through
// unchanged so a caller can also just supply a Go layout directly.
func goTimeLayout(format string) string {
	replacer := strings.NewReplacer(
		"%Y", "2006", "%m", "01", "%d", "02",
		"%H", "15", "%M", "04", "%S", "05",
		"%y", "06", "%b", "Jan", "%B", "January",
		"%a", "Mon", "%A", "Monday",
	)
	return replacer.Replace(format)
}
