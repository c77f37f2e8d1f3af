// Package checks holds the measurements that ship with the checkplugin
// binary. Real plugins bring their own plugin.Measurer.
package checks

import (
	"fmt"
	"sort"

	"ozzus/checkplugin/pkg/plugin"
	"ozzus/checkplugin/pkg/status"
)

// Factory builds a measurer for one check. Measurement-specific settings
// live in cfg.Blob.
type Factory func(kind status.Kind, cfg plugin.Config) (plugin.Measurer, error)

var registry = map[string]Factory{
	"dummy": func(kind status.Kind, cfg plugin.Config) (plugin.Measurer, error) {
		return NewDummy(kind, cfg.Blob)
	},
	"http": NewHTTP,
	"tcp":  NewTCP,
}

// New returns the measurer registered under name.
func New(name string, kind status.Kind, cfg plugin.Config) (plugin.Measurer, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: no measurement named %q", plugin.ErrNotImplemented, name)
	}
	return factory(kind, cfg)
}

// Names lists the registered measurements.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// outcome maps a measurement verdict onto the severities of kind.
func outcome(kind status.Kind, healthy bool) status.Severity {
	switch {
	case kind == status.KindHost && healthy:
		return status.UP
	case kind == status.KindHost:
		return status.DOWN
	case healthy:
		return status.OK
	default:
		return status.CRITICAL
	}
}

func newResult(kind status.Kind, sev status.Severity, message string) status.Result {
	switch kind {
	case status.KindHost:
		return status.NewHost(sev, message)
	case status.KindService:
		return status.NewService(sev, message)
	default:
		return status.NewActive(sev, message)
	}
}
