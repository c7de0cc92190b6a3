package altar

import (
	"os"

	"gopkg.in/yaml.v2"
)

// fileEngineConfig is the YAML-facing shape of EngineConfig: plain
// fields with lowercase keys, decoupled from the in-memory struct so
// the on-disk format can stay stable even if EngineConfig grows
// Go-only fields later (loaders, globals) that don't make sense to
// serialize.
type fileEngineConfig struct {
	AutoEscape   bool `yaml:"autoescape"`
	CacheEnabled bool `yaml:"cache_enabled"`
	Debug        bool `yaml:"debug"`
	Delimiters   struct {
		VariableStart       string `yaml:"variable_start"`
		VariableEnd         string `yaml:"variable_end"`
		BlockStart          string `yaml:"block_start"`
		BlockEnd            string `yaml:"block_end"`
		CommentStart        string `yaml:"comment_start"`
		CommentEnd          string `yaml:"comment_end"`
		LineStatementPrefix string `yaml:"line_statement_prefix"`
		LineCommentPrefix   string `yaml:"line_comment_prefix"`
	} `yaml:"delimiters"`
}

// ParseEngineConfig decodes a YAML document into an EngineConfig and
// the Engine-level Debug flag, seeded from DefaultEngineConfig so a
// file that only overrides a couple of fields still gets sane
// delimiters.
func ParseEngineConfig(raw []byte) (cfg EngineConfig, debug bool, err error) {
	cfg = DefaultEngineConfig()

	fc := fileEngineConfig{AutoEscape: cfg.AutoEscape, CacheEnabled: cfg.CacheEnabled}
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return EngineConfig{}, false, err
	}

	cfg.AutoEscape = fc.AutoEscape
	cfg.CacheEnabled = fc.CacheEnabled

	d := fc.Delimiters
	if d.VariableStart != "" {
		cfg.LexerConfig.VariableStart = d.VariableStart
	}
	if d.VariableEnd != "" {
		cfg.LexerConfig.VariableEnd = d.VariableEnd
	}
	if d.BlockStart != "" {
		cfg.LexerConfig.BlockStart = d.BlockStart
	}
	if d.BlockEnd != "" {
		cfg.LexerConfig.BlockEnd = d.BlockEnd
	}
	if d.CommentStart != "" {
		cfg.LexerConfig.CommentStart = d.CommentStart
	}
	if d.CommentEnd != "" {
		cfg.LexerConfig.CommentEnd = d.CommentEnd
	}
	cfg.LexerConfig.LineStatementPrefix = d.LineStatementPrefix
	cfg.LexerConfig.LineCommentPrefix = d.LineCommentPrefix

	return cfg, fc.Debug, nil
}

// LoadEngineConfigFile reads and decodes a YAML configuration file; see
// ParseEngineConfig.
func LoadEngineConfigFile(path string) (cfg EngineConfig, debug bool, err error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return EngineConfig{}, false, err
	}
	return ParseEngineConfig(raw)
}

// NewEngineFromConfigFile builds an Engine named name, using loaders,
// configured from the YAML file at configPath.
func NewEngineFromConfigFile(name, configPath string, loaders ...Loader) (*Engine, error) {
	cfg, debug, err := LoadEngineConfigFile(configPath)
	if err != nil {
		return nil, err
	}
	e := NewEngine(name, loaders...)
	e.config = cfg
	e.Debug = debug
	return e, nil
}
