package config

import (
	"fmt"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"

	"ozzus/checkplugin/pkg/plugin"
)

// CheckSpec describes one check in a checks file.
type CheckSpec struct {
	Name      string         `yaml:"name" json:"name" toml:"name" edn:"name"`
	Host      string         `yaml:"host" json:"host" toml:"host" edn:"host"`
	Kind      string         `yaml:"kind" json:"kind" toml:"kind" edn:"kind"`
	Measure   string         `yaml:"measure" json:"measure" toml:"measure" edn:"measure"`
	Port      int            `yaml:"port" json:"port" toml:"port" edn:"port"`
	UseSSL    bool           `yaml:"use_ssl" json:"use_ssl" toml:"use_ssl" edn:"use_ssl"`
	VerifySSL bool           `yaml:"verify_ssl" json:"verify_ssl" toml:"verify_ssl" edn:"verify_ssl"`
	Warning   int            `yaml:"warning" json:"warning" toml:"warning" edn:"warning"`
	Critical  int            `yaml:"critical" json:"critical" toml:"critical" edn:"critical"`
	Params    map[string]any `yaml:"params" json:"params" toml:"params" edn:"params"`
}

// ChecksFile is the top level of a checks file.
type ChecksFile struct {
	// DefaultHost fills in checks that name no host.
	DefaultHost string      `yaml:"default_host" json:"default_host" toml:"default_host" edn:"default_host" env:"CHECK_DEFAULT_HOST"`
	Checks      []CheckSpec `yaml:"checks" json:"checks" toml:"checks" edn:"checks"`
}

// LoadChecks reads a checks file. The format follows the extension
// (.yaml, .yml, .json, .toml, .edn).
func LoadChecks(path string) ([]CheckSpec, error) {
	var f ChecksFile
	if err := cleanenv.ReadConfig(path, &f); err != nil {
		return nil, fmt.Errorf("failed to read checks file %s: %w", path, err)
	}

	for i := range f.Checks {
		c := &f.Checks[i]
		if c.Host == "" {
			c.Host = f.DefaultHost
		}
		c.Kind = strings.ToLower(strings.TrimSpace(c.Kind))
		if c.Kind == "" {
			c.Kind = "active"
		}
		if c.Measure == "" {
			c.Measure = "dummy"
		}
	}

	return f.Checks, nil
}

// PluginConfig converts c into the configuration the plugin package takes.
func (c CheckSpec) PluginConfig() plugin.Config {
	return plugin.Config{
		Host:      c.Host,
		Name:      c.Name,
		Port:      c.Port,
		UseSSL:    c.UseSSL,
		VerifySSL: c.VerifySSL,
		Warning:   c.Warning,
		Critical:  c.Critical,
		Blob:      c.Params,
	}
}
