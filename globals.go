package altar

import (
	"github.com/juju/loggo"
)

// Version identifies the Altar language/AST version, for hosts that
// persist compiled templates or need to report diagnostics.
const Version = "v1"

// packageLogger is the root logger all per-Engine loggers descend from;
// a host can tune "altar" (and "altar.<engine-name>") independently via
// loggo's standard module-name configuration without Altar exposing any
// bespoke logging API.
var packageLogger = loggo.GetLogger("altar")

// globals holds context entries available to every Engine and every
// Template rendered from the package-level DefaultEngine, merged in
// underneath (and overridable by) a render's own Context.
var globals = make(Context)

// RegisterGlobal makes value available under name to every template
// rendered anywhere in the process, unless a render's own Context (or
// the owning Engine's globals) shadows it.
func RegisterGlobal(name string, value interface{}) {
	if name == "altar" {
		panic("global variable with name 'altar' is not allowed")
	}
	globals[name] = value
}

// Must panics if parsing tpl failed; intended for package-init-time use:
//
//	var base = altar.Must(altar.FromFile("templates/base.alt"))
func Must(tpl *Template, err error) *Template {
	if err != nil {
		panic(err)
	}
	return tpl
}
