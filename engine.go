package altar

import (
	"fmt"
	"sync"

	"github.com/juju/loggo"
)

// EngineConfig holds an Engine's per-instance configuration: the
// auto-escape default, the cache-enable flag and the lexer
// delimiter/line-statement options. Loaders, custom filters/tests and
// globals are not part of it; they are set on the Engine itself
// (NewEngine, AddLoader, RegisterFilter, RegisterTest, RegisterGlobal).
type EngineConfig struct {
	// AutoEscape sets the default for ExecutionContext.Autoescape on
	// every render from this Engine; {% autoescape on|off %} overrides
	// it locally.
	AutoEscape bool

	// CacheEnabled gates the compiled-template cache. When false, every
	// FromCache/RenderPath call reparses, which is what Debug-style
	// development loops want.
	CacheEnabled bool

	// LexerConfig carries the delimiter/line-statement/line-comment
	// configuration; see DefaultLexerConfig.
	LexerConfig LexerConfig
}

// DefaultEngineConfig returns the configuration a bare NewEngine uses:
// auto-escape on, caching on, default Jinja-style delimiters.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		AutoEscape:   true,
		CacheEnabled: true,
		LexerConfig:  DefaultLexerConfig(),
	}
}

// Engine is the façade a host embeds: it owns a set of loaders, a
// compiled-template cache, and its own copies of the tag/filter/test
// registries (so BanTag/BanFilter and custom registrations on one
// Engine never affect another).
type Engine struct {
	name    string
	loaders []Loader

	config EngineConfig

	// globals is merged in underneath every render's own Context (see
	// ExecutionContext.resolveName), and above the package-level
	// globals registered via RegisterGlobal (an Engine global of the
	// same name wins).
	globals map[string]any

	// Debug, when true, makes logf actually emit and disables the
	// template cache regardless of config.CacheEnabled (so edits to
	// on-disk templates take effect immediately).
	Debug bool

	logger loggo.Logger

	initOnce sync.Once
	tags     map[string]*tag
	filters  map[string]FilterFunction
	tests    map[string]TestFunction

	// firstTemplateCreated gates BanTag/BanFilter: bans are a static,
	// parse-time restriction, so they can't be changed once a template
	// may already have been parsed against the old registry.
	firstTemplateCreated bool
	bannedTags           map[string]bool
	bannedFilters        map[string]bool

	cacheMu       sync.RWMutex
	templateCache map[string]*Template
}

// NewEngine builds an Engine named name (used only in log lines) that
// resolves includes/extends/imports through loaders, in order, falling
// back to the next loader on a miss.
func NewEngine(name string, loaders ...Loader) *Engine {
	if len(loaders) == 0 {
		panic(fmt.Errorf("altar: at least one template loader must be specified"))
	}
	return &Engine{
		name:          name,
		loaders:       loaders,
		config:        DefaultEngineConfig(),
		globals:       make(Context),
		logger:        loggo.GetLogger("altar." + name),
		bannedTags:    make(map[string]bool),
		bannedFilters: make(map[string]bool),
		templateCache: make(map[string]*Template),
	}
}

func (e *Engine) initBuiltins() {
	e.tags = copyTags(builtinTags)
	e.filters = copyFilters(builtinFilters)
	e.tests = copyTests(builtinTests)
}

// AddLoader appends additional loaders, consulted after the existing
// ones on a miss.
func (e *Engine) AddLoader(loaders ...Loader) {
	e.loaders = append(e.loaders, loaders...)
}

// RegisterGlobal makes value available under name to every template
// rendered from this Engine specifically (see also the package-level
// RegisterGlobal, for process-wide globals).
func (e *Engine) RegisterGlobal(name string, value any) {
	e.globals[name] = value
}

func (e *Engine) resolveFilename(tpl *Template, path string) string {
	return e.resolveFilenameForLoader(e.loaders[0], tpl, path)
}

func (e *Engine) resolveFilenameForLoader(loader Loader, tpl *Template, path string) string {
	if tpl != nil && tpl.isTplString {
		return path
	}
	name := ""
	if tpl != nil {
		name = tpl.name
	}
	return loader.Abs(name, path)
}

func (e *Engine) resolveTemplate(tpl *Template, path string) (name, identity, source string, err error) {
	var lastErr error
	for _, loader := range e.loaders {
		name = e.resolveFilenameForLoader(loader, tpl, path)
		source, identity, lastErr = loader.Load(name)
		if lastErr == nil {
			return name, identity, source, nil
		}
	}
	return path, "", "", lastErr
}

// BanTag disables a tag for every template subsequently parsed by this
// Engine. It must be called before the first template is parsed
// (bans are checked at parse time, so changing the set afterward would
// leave already-parsed templates inconsistent with newly parsed ones).
func (e *Engine) BanTag(name string) error {
	e.initOnce.Do(e.initBuiltins)
	if _, has := e.tags[name]; !has {
		return fmt.Errorf("tag '%s' not found", name)
	}
	if e.firstTemplateCreated {
		return fmt.Errorf("cannot ban tags after the first template has been parsed")
	}
	e.bannedTags[name] = true
	return nil
}

// BanFilter disables a filter for every template subsequently parsed
// by this Engine; see BanTag for the same before-first-parse rule.
func (e *Engine) BanFilter(name string) error {
	e.initOnce.Do(e.initBuiltins)
	if _, has := e.filters[name]; !has {
		return fmt.Errorf("filter '%s' not found", name)
	}
	if e.firstTemplateCreated {
		return fmt.Errorf("cannot ban filters after the first template has been parsed")
	}
	e.bannedFilters[name] = true
	return nil
}

// RegisterFilter adds a custom filter to this Engine only.
func (e *Engine) RegisterFilter(name string, fn FilterFunction) error {
	e.initOnce.Do(e.initBuiltins)
	if _, exists := e.filters[name]; exists {
		return fmt.Errorf("filter with name '%s' is already registered", name)
	}
	e.filters[name] = fn
	return nil
}

// ReplaceFilter overrides an already-registered filter on this Engine.
func (e *Engine) ReplaceFilter(name string, fn FilterFunction) error {
	e.initOnce.Do(e.initBuiltins)
	if _, exists := e.filters[name]; !exists {
		return fmt.Errorf("filter with name '%s' does not exist (therefore cannot be overridden)", name)
	}
	e.filters[name] = fn
	return nil
}

// RegisterTest adds a custom `is` test to this Engine only.
func (e *Engine) RegisterTest(name string, fn TestFunction) error {
	e.initOnce.Do(e.initBuiltins)
	if _, exists := e.tests[name]; exists {
		return fmt.Errorf("test with name '%s' is already registered", name)
	}
	e.tests[name] = fn
	return nil
}

// RegisterTag adds a custom tag to this Engine only.
func (e *Engine) RegisterTag(name string, parser tagParser) error {
	e.initOnce.Do(e.initBuiltins)
	if _, exists := e.tags[name]; exists {
		return fmt.Errorf("tag with name '%s' is already registered", name)
	}
	e.tags[name] = &tag{name: name, parser: parser}
	return nil
}

// FilterExists reports whether name is registered (builtin or custom)
// on this Engine. A banned filter is still reported as existing.
func (e *Engine) FilterExists(name string) bool {
	e.initOnce.Do(e.initBuiltins)
	_, exists := e.filters[name]
	return exists
}

// TagExists reports whether name is registered (builtin or custom) on
// this Engine. A banned tag is still reported as existing.
func (e *Engine) TagExists(name string) bool {
	e.initOnce.Do(e.initBuiltins)
	_, exists := e.tags[name]
	return exists
}

// ApplyFilter runs a filter registered on this Engine against value,
// with positional args and kwargs (see FilterFunction).
func (e *Engine) ApplyFilter(name string, value *Value, args []*Value, kwargs map[string]*Value) (*Value, error) {
	e.initOnce.Do(e.initBuiltins)
	fn, exists := e.filters[name]
	if !exists {
		return nil, &Error{Sender: "filter:" + name, Kind: RenderError, Err: fmt.Errorf("filter '%s' not found", name)}
	}
	return fn(value, args, kwargs)
}

// CleanCache clears the compiled-template cache, entirely (no
// arguments) or just for the given names.
func (e *Engine) CleanCache(names ...string) {
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()

	if len(names) == 0 {
		e.templateCache = make(map[string]*Template)
		return
	}
	for _, name := range names {
		delete(e.templateCache, e.resolveFilename(nil, name))
	}
}

// FromCache loads and compiles the template at path, reusing a
// previous compilation when the Engine's cache is enabled, Debug is
// off, and the loader reports the same identity as before.
func (e *Engine) FromCache(path string) (*Template, error) {
	e.initOnce.Do(e.initBuiltins)
	if e.Debug || !e.config.CacheEnabled {
		return e.FromFile(path)
	}

	name, identity, source, err := e.resolveTemplate(nil, path)
	if err != nil {
		return nil, wrapError(TemplateNotFound, path, 0, 0, "fromcache", err)
	}

	e.cacheMu.RLock()
	tpl, has := e.templateCache[identity]
	e.cacheMu.RUnlock()
	if has {
		return tpl, nil
	}

	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()
	if tpl, has = e.templateCache[identity]; has {
		return tpl, nil
	}

	e.firstTemplateCreated = true
	tpl, err = newTemplate(e, name, source, false)
	if err != nil {
		return nil, err
	}
	e.templateCache[identity] = tpl
	return tpl, nil
}

// FromString compiles a template from an in-memory string; relative
// include/extends/import paths inside it resolve against the Engine's
// loader root rather than a sibling-of-this-file path.
func (e *Engine) FromString(source string) (*Template, error) {
	e.initOnce.Do(e.initBuiltins)
	e.firstTemplateCreated = true
	return newTemplateString(e, "<string>", source)
}

// FromFile loads and compiles the template at path without consulting
// or populating the cache; see FromCache for the cached variant.
func (e *Engine) FromFile(path string) (*Template, error) {
	e.initOnce.Do(e.initBuiltins)
	e.firstTemplateCreated = true

	name, _, source, err := e.resolveTemplate(nil, path)
	if err != nil {
		return nil, wrapError(TemplateNotFound, path, 0, 0, "fromfile", err)
	}
	return newTemplate(e, name, source, false)
}

// Render compiles templateSource as a one-off string template and
// renders it against context. Matches spec's render(template_source,
// context) entry point.
func (e *Engine) Render(templateSource string, context Context) (string, error) {
	tpl, err := e.FromString(templateSource)
	if err != nil {
		return "", err
	}
	return tpl.Execute(context)
}

// RenderPath loads the template at path (through the cache, if
// enabled) and renders it against context. Matches spec's
// render_path(path, context) entry point.
func (e *Engine) RenderPath(path string, context Context) (string, error) {
	tpl, err := e.FromCache(path)
	if err != nil {
		return "", err
	}
	return tpl.Execute(context)
}

// Parse compiles source under name without rendering it, for tests and
// tooling that want to inspect the AST. Matches spec's parse(source,
// name) entry point.
func (e *Engine) Parse(source, name string) (*Template, error) {
	e.initOnce.Do(e.initBuiltins)
	e.firstTemplateCreated = true
	return newTemplateString(e, name, source)
}

func (e *Engine) logf(format string, args ...any) {
	if e.Debug {
		e.logger.Infof(format, args...)
	}
}

var (
	// DefaultLoader is the un-sandboxed local filesystem loader used
	// by DefaultEngine.
	DefaultLoader = MustNewLocalFileSystemLoader("")

	// DefaultEngine is a ready-to-use Engine for programs that need
	// only one; the package-level FromString/FromFile/Render helpers
	// delegate to it.
	DefaultEngine = NewEngine("default", DefaultLoader)
)

// FromString compiles a template from a string using DefaultEngine.
func FromString(source string) (*Template, error) { return DefaultEngine.FromString(source) }

// FromFile loads and compiles a template from disk using DefaultEngine.
func FromFile(path string) (*Template, error) { return DefaultEngine.FromFile(path) }

// FromCache is the cached variant of FromFile using DefaultEngine.
func FromCache(path string) (*Template, error) { return DefaultEngine.FromCache(path) }

// Render renders a one-off string template using DefaultEngine.
func Render(templateSource string, context Context) (string, error) {
	return DefaultEngine.Render(templateSource, context)
}

// RenderPath renders a template loaded from disk using DefaultEngine.
func RenderPath(path string, context Context) (string, error) {
	return DefaultEngine.RenderPath(path, context)
}
