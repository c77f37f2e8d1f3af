package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	SubmitStdout      = "stdout"
	SubmitCommandFile = "command_file"
	SubmitNRDP        = "nrdp"
	SubmitKafka       = "kafka"
)

// Config holds the settings of the checkplugin binary itself. Per-check
// settings come from flags or a checks file.
type Config struct {
	Env    string       `mapstructure:"env"`
	Submit SubmitConfig `mapstructure:"submit"`
	NRDP   NRDPConfig   `mapstructure:"nrdp"`
	Kafka  KafkaConfig  `mapstructure:"kafka"`
	Relay  RelayConfig  `mapstructure:"relay"`
	Runner RunnerConfig `mapstructure:"runner"`
}

type SubmitConfig struct {
	Mode        string `mapstructure:"mode"`
	CommandFile string `mapstructure:"command_file"`
}

type NRDPConfig struct {
	URL     string `mapstructure:"url"`
	Token   string `mapstructure:"token"`
	Timeout int    `mapstructure:"timeout"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	Group   string   `mapstructure:"group"`
}

type RelayConfig struct {
	ID         string `mapstructure:"id"`
	HealthPort string `mapstructure:"health_port"`
}

type RunnerConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// Load reads checkplugin.yaml from the given directories (./config and .
// when none are given). Environment variables such as SUBMIT_MODE or
// KAFKA_TOPIC override the file. A missing file is not an error.
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("checkplugin")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{"./config", "."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "prod")

	v.SetDefault("submit.mode", SubmitStdout)
	v.SetDefault("submit.command_file", "/usr/local/nagios/var/rw/nagios.cmd")

	v.SetDefault("nrdp.url", "")
	v.SetDefault("nrdp.token", "")
	v.SetDefault("nrdp.timeout", 10)

	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "passive-check-results")
	v.SetDefault("kafka.group", "checkplugin-relay")

	v.SetDefault("relay.id", "checkplugin-relay-01")
	v.SetDefault("relay.health_port", "8081")

	v.SetDefault("runner.concurrency", 4)
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	switch c.Submit.Mode {
	case SubmitStdout, SubmitCommandFile, SubmitKafka:
	case SubmitNRDP:
		if c.NRDP.URL == "" {
			return errors.New("nrdp.url is required for nrdp submission")
		}
	default:
		return fmt.Errorf("unknown submit mode %q", c.Submit.Mode)
	}

	if c.Submit.Mode == SubmitKafka && len(c.Kafka.Brokers) == 0 {
		return errors.New("kafka.brokers is required for kafka submission")
	}

	return nil
}

func (c *Config) GetNRDPTimeout() time.Duration {
	if c.NRDP.Timeout <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.NRDP.Timeout) * time.Second
}

func (c *Config) GetConcurrency() int {
	if c.Runner.Concurrency <= 0 {
		return 1
	}
	return c.Runner.Concurrency
}
