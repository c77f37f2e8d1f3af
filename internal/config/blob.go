package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"ozzus/checkplugin/pkg/plugin"
)

// LoadBlob reads the YAML configuration file of a single plugin. An empty
// path yields a nil blob. Unreadable or invalid files are configuration
// errors.
func LoadBlob(path string) (map[string]any, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read config file: %v", plugin.ErrConfiguration, err)
	}

	var blob map[string]any
	if err := yaml.Unmarshal(data, &blob); err != nil {
		return nil, fmt.Errorf("%w: config file %s is not valid YAML: %v", plugin.ErrConfiguration, path, err)
	}

	return blob, nil
}
