package slogpretty

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/fatih/color"
	. "github.com/onsi/gomega"
)

func TestPrettyHandler(t *testing.T) {
	RegisterTestingT(t)
	color.NoColor = true

	var buf bytes.Buffer
	opts := PrettyHandlerOptions{SlogOpts: &slog.HandlerOptions{Level: slog.LevelDebug}}
	log := slog.New(opts.NewPrettyHandler(&buf)).With("plugin", "QUEUE")

	log.Info("check finished", "severity", "OK")

	out := buf.String()
	Expect(out).To(ContainSubstring("INFO:"))
	Expect(out).To(ContainSubstring("check finished"))
	Expect(out).To(ContainSubstring(`"plugin": "QUEUE"`))
	Expect(out).To(ContainSubstring(`"severity": "OK"`))
}

func TestPrettyHandlerRespectsLevel(t *testing.T) {
	RegisterTestingT(t)

	var buf bytes.Buffer
	opts := PrettyHandlerOptions{SlogOpts: &slog.HandlerOptions{Level: slog.LevelInfo}}
	log := slog.New(opts.NewPrettyHandler(&buf))

	log.Debug("hidden")
	Expect(buf.Len()).To(BeZero())
}
