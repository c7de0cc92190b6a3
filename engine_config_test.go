package altar

import "testing"

func TestParseEngineConfigDefaults(t *testing.T) {
	cfg, debug, err := ParseEngineConfig([]byte(`autoescape: false`))
	if err != nil {
		t.Fatalf("ParseEngineConfig failed: %v", err)
	}
	if cfg.AutoEscape {
		t.Error("expected autoescape to be false")
	}
	if debug {
		t.Error("expected debug to default to false")
	}
	if cfg.LexerConfig.VariableStart != DefaultLexerConfig().VariableStart {
		t.Errorf("expected default variable-start delimiter to be preserved, got %q", cfg.LexerConfig.VariableStart)
	}
}

func TestParseEngineConfigCustomDelimiters(t *testing.T) {
	cfg, _, err := ParseEngineConfig([]byte(`
debug: true
delimiters:
  variable_start: "<<"
  variable_end: ">>"
`))
	if err != nil {
		t.Fatalf("ParseEngineConfig failed: %v", err)
	}
	if cfg.LexerConfig.VariableStart != "<<" || cfg.LexerConfig.VariableEnd != ">>" {
		t.Errorf("got delimiters %q/%q", cfg.LexerConfig.VariableStart, cfg.LexerConfig.VariableEnd)
	}
}

func TestNewEngineFromConfigFileMissing(t *testing.T) {
	_, err := NewEngineFromConfigFile("test", "/nonexistent/path/altar.yaml", MapLoader{})
	if err == nil {
		t.Error("expected an error for a missing config file")
	}
}
