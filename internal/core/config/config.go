package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// DefaultResultTemplate renders one search result per block in the
// search command's output. Override with result_template in config.toml.
const DefaultResultTemplate = `[{{index}}] {{sessionId}} (relevance {{relevance}})
    Project: {{projectPath}}
    When:    {{when}}
{{#matches}}    {{field}}: {{snippet}}
{{/matches}}`

// Config holds the user-tunable settings of the pipeline
type Config struct {
	ArchiveDir     string
	IndexPath      string
	HalfLifeDays   int
	SearchLimit    int
	ResultTemplate string
	// RedactPatterns are extra caller-supplied redaction patterns,
	// applied after the built-in detector table
	RedactPatterns map[string]string
}

type tomlConfig struct {
	ArchiveDir     string            `toml:"archive_dir"`
	IndexPath      string            `toml:"index_path"`
	HalfLifeDays   int               `toml:"half_life_days"`
	SearchLimit    int               `toml:"search_limit"`
	ResultTemplate string            `toml:"result_template"`
	RedactPatterns map[string]string `toml:"redact_patterns"`
}

// Load reads ~/.config/lore/config.toml, falling back to defaults on any
// failure - a broken config never blocks the pipeline
func Load() (*Config, error) {
	cfg := defaults()

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, nil
	}

	tomlPath := filepath.Join(home, ".config", "lore", "config.toml")
	if _, err := os.Stat(tomlPath); err != nil {
		return cfg, nil
	}

	var tc tomlConfig
	if _, err := toml.DecodeFile(tomlPath, &tc); err != nil {
		return cfg, nil
	}

	if tc.ArchiveDir != "" {
		cfg.ArchiveDir = tc.ArchiveDir
	}
	if tc.IndexPath != "" {
		cfg.IndexPath = tc.IndexPath
	}
	if tc.HalfLifeDays > 0 {
		cfg.HalfLifeDays = tc.HalfLifeDays
	}
	if tc.SearchLimit > 0 {
		cfg.SearchLimit = tc.SearchLimit
	}
	if tc.ResultTemplate != "" {
		cfg.ResultTemplate = tc.ResultTemplate
	}
	if len(tc.RedactPatterns) > 0 {
		cfg.RedactPatterns = tc.RedactPatterns
	}

	return cfg, nil
}

func defaults() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	base := filepath.Join(home, ".config", "lore")
	return &Config{
		ArchiveDir:     filepath.Join(base, "archive"),
		IndexPath:      filepath.Join(base, "index.db"),
		HalfLifeDays:   60,
		SearchLimit:    10,
		ResultTemplate: DefaultResultTemplate,
	}
}
