package plugin

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	ErrConfiguration  = errors.New("configuration error")
	ErrNotImplemented = errors.New("measurement not implemented")
)

const (
	// UndefinedName is used when a plugin is given no name.
	UndefinedName = "<UNDEFINED>"
	DefaultPort   = 80
)

var scriptExts = map[string]struct{}{
	".rb":  {},
	".py":  {},
	".pl":  {},
	".sh":  {},
	".exe": {},
}

// Config is what a check plugin is started with. Parsing flags or files
// into it is up to the caller.
type Config struct {
	// Host to check. Required.
	Host string `mapstructure:"host" yaml:"host" json:"host"`
	// Name, usually check_<service>; see NormalizeName.
	Name      string `mapstructure:"name" yaml:"name" json:"name"`
	Port      int    `mapstructure:"port" yaml:"port" json:"port"`
	UseSSL    bool   `mapstructure:"use_ssl" yaml:"use_ssl" json:"use_ssl"`
	VerifySSL bool   `mapstructure:"verify_ssl" yaml:"verify_ssl" json:"verify_ssl"`
	// Warning and Critical are elapsed-time thresholds in seconds.
	Warning  int `mapstructure:"warning" yaml:"warning" json:"warning"`
	Critical int `mapstructure:"critical" yaml:"critical" json:"critical"`
	// Blob is handed to the measurement untouched.
	Blob map[string]any `mapstructure:"config" yaml:"config" json:"config"`
}

// Thresholds returns the escalation thresholds of c.
func (c Config) Thresholds() Thresholds {
	return Thresholds{Warning: c.Warning, Critical: c.Critical}
}

func (c *Config) applyDefaults() {
	c.Name = NormalizeName(c.Name)
	if c.Port <= 0 {
		c.Port = DefaultPort
	}
}

// Validate reports a missing host.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Host) == "" {
		return fmt.Errorf("%w: host must be provided", ErrConfiguration)
	}
	return nil
}

// NormalizeName turns a plugin name such as "check_http.rb" into the
// service label "HTTP". A blank name yields UndefinedName.
func NormalizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return UndefinedName
	}

	if ext := strings.ToLower(filepath.Ext(name)); ext != "" {
		if _, ok := scriptExts[ext]; ok {
			name = name[:len(name)-len(ext)]
		}
	}

	const prefix = "check_"
	if len(name) >= len(prefix) && strings.EqualFold(name[:len(prefix)], prefix) {
		name = name[len(prefix):]
	}

	if name == "" {
		return UndefinedName
	}
	return strings.ToUpper(name)
}
