package config

import (
	"github.com/fluxorio/streamactor/pkg/stream"
)

// EnvPrefix prefixes every streamcat environment override
const EnvPrefix = "STREAMCAT"

// StreamConfig configures one streamcat copy
type StreamConfig struct {
	// Input and Output name files; "" or "-" mean stdin and stdout
	Input  string `yaml:"input" json:"input"`
	Output string `yaml:"output" json:"output"`

	// Encoding turns chunks into text on the way through
	Encoding string `yaml:"encoding" json:"encoding"`

	ChunkSize     int `yaml:"chunk_size" json:"chunk_size" env:"CHUNK_SIZE"`
	HighWaterMark int `yaml:"high_water_mark" json:"high_water_mark" env:"HIGH_WATER_MARK"`
	MailboxSize   int `yaml:"mailbox_size" json:"mailbox_size" env:"MAILBOX_SIZE"`

	// StaleWrites is "drop" or "report"
	StaleWrites string `yaml:"stale_writes" json:"stale_writes" env:"STALE_WRITES"`

	// MetricsAddr serves /metrics when set (":9090")
	MetricsAddr string `yaml:"metrics_addr" json:"metrics_addr" env:"METRICS_ADDR"`

	LogLevel string `yaml:"log_level" json:"log_level" env:"LOG_LEVEL"`
}

// DefaultStreamConfig returns default streamcat configuration
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		Input:         "-",
		Output:        "-",
		ChunkSize:     64 << 10,
		HighWaterMark: 256 << 10,
		MailboxSize:   4096,
		StaleWrites:   "drop",
		LogLevel:      "info",
	}
}

// LoadStreamConfig starts from the defaults, then applies the file at path
// (skipped when empty) and STREAMCAT_* environment overrides, and validates
// the result
func LoadStreamConfig(path string) (StreamConfig, error) {
	cfg := DefaultStreamConfig()
	if err := LoadWithEnv(path, EnvPrefix, &cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Validate checks sizes, the stale write policy, the log level and the encoding
func (c StreamConfig) Validate() error {
	return Validate(&c,
		RangeValidator("ChunkSize", 1, 16<<20),
		RangeValidator("HighWaterMark", 1, 1<<30),
		RangeValidator("MailboxSize", 1, 1<<20),
		OneOfValidator("StaleWrites", "drop", "report"),
		OneOfValidator("LogLevel", "debug", "info", "warn", "error"),
		ValidatorFunc(func(interface{}) error {
			_, err := stream.NormalizeEncoding(c.Encoding)
			return err
		}),
	)
}

// Stdio reports whether name stands for stdin or stdout
func Stdio(name string) bool {
	return name == "" || name == "-"
}
