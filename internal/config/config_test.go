package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/onsi/gomega"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	RegisterTestingT(t)

	cfg, err := Load(t.TempDir())
	Expect(err).NotTo(HaveOccurred())
	Expect(cfg.Submit.Mode).To(Equal(SubmitStdout))
	Expect(cfg.Kafka.Topic).To(Equal("passive-check-results"))
	Expect(cfg.Kafka.Brokers).To(Equal([]string{"localhost:9092"}))
	Expect(cfg.GetNRDPTimeout()).To(Equal(10 * time.Second))
	Expect(cfg.GetConcurrency()).To(Equal(4))
}

func TestLoadFileAndEnv(t *testing.T) {
	RegisterTestingT(t)

	dir := t.TempDir()
	writeFile(t, dir, "checkplugin.yaml", `
env: local
submit:
  mode: nrdp
nrdp:
  url: http://nagios.example/nrdp/
  token: secret
  timeout: 3
runner:
  concurrency: 8
`)
	t.Setenv("KAFKA_TOPIC", "from-env")

	cfg, err := Load(dir)
	Expect(err).NotTo(HaveOccurred())
	Expect(cfg.Env).To(Equal("local"))
	Expect(cfg.Submit.Mode).To(Equal(SubmitNRDP))
	Expect(cfg.NRDP.Token).To(Equal("secret"))
	Expect(cfg.GetNRDPTimeout()).To(Equal(3 * time.Second))
	Expect(cfg.GetConcurrency()).To(Equal(8))
	Expect(cfg.Kafka.Topic).To(Equal("from-env"))
}

func TestLoadRejectsBadSubmitMode(t *testing.T) {
	RegisterTestingT(t)

	dir := t.TempDir()
	writeFile(t, dir, "checkplugin.yaml", "submit:\n  mode: carrier-pigeon\n")

	_, err := Load(dir)
	Expect(err).To(MatchError(ContainSubstring("unknown submit mode")))
}

func TestValidateNRDPNeedsURL(t *testing.T) {
	RegisterTestingT(t)

	cfg := &Config{Submit: SubmitConfig{Mode: SubmitNRDP}}
	Expect(cfg.Validate()).To(MatchError(ContainSubstring("nrdp.url")))

	cfg = &Config{Submit: SubmitConfig{Mode: SubmitKafka}}
	Expect(cfg.Validate()).To(MatchError(ContainSubstring("kafka.brokers")))
}
