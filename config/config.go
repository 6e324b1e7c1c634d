// Package config loads the YAML configuration of the VP8 bridge.
package config

import (
	"fmt"
	"net"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config represents the complete bridge configuration
type Config struct {
	Listen  string        `yaml:"listen"`
	Bridge  BridgeConfig  `yaml:"bridge"`
	Peers   []PeerConfig  `yaml:"peers"`
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
}

// BridgeConfig holds the RTP parameters of the bridge endpoint.
type BridgeConfig struct {
	// LocalSSRC is the SSRC feedback is sent as. Nil leaves it unknown, in
	// which case no FIR is sent until one is set at runtime.
	LocalSSRC   *uint32 `yaml:"local_ssrc"`
	PayloadType uint8   `yaml:"payload_type"`
	ClockRate   uint32  `yaml:"clock_rate"`
}

// PeerConfig maps a stream to the remote address it is exchanged with.
type PeerConfig struct {
	StreamID uint32 `yaml:"stream_id"`
	Address  string `yaml:"address"`
}

// MetricsConfig contains the Prometheus endpoint configuration
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used for any field a file leaves out.
func Default() *Config {
	return &Config{
		Listen: "0.0.0.0:5004",
		Bridge: BridgeConfig{
			PayloadType: 96,
			ClockRate:   90000,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Address: "127.0.0.1:9100",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads and parses the configuration file on top of Default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML data on top of Default and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks every section of the configuration.
func (c *Config) Validate() error {
	if _, err := net.ResolveUDPAddr("udp", c.Listen); err != nil {
		return fmt.Errorf("listen address %q: %w", c.Listen, err)
	}

	if err := c.Bridge.Validate(); err != nil {
		return fmt.Errorf("bridge config: %w", err)
	}

	seen := make(map[uint32]bool, len(c.Peers))
	for i := range c.Peers {
		if err := c.Peers[i].Validate(); err != nil {
			return fmt.Errorf("peer %d: %w", i, err)
		}
		if seen[c.Peers[i].StreamID] {
			return fmt.Errorf("peer %d: duplicate stream_id %d", i, c.Peers[i].StreamID)
		}
		seen[c.Peers[i].StreamID] = true
	}

	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates the RTP parameters
func (b *BridgeConfig) Validate() error {
	// Dynamic payload types per RFC 3551.
	if b.PayloadType < 96 || b.PayloadType > 127 {
		return fmt.Errorf("payload_type must be between 96 and 127, got %d", b.PayloadType)
	}

	if b.ClockRate == 0 {
		return fmt.Errorf("clock_rate must be positive")
	}

	return nil
}

// Validate validates a peer entry
func (p *PeerConfig) Validate() error {
	if p.Address == "" {
		return fmt.Errorf("address cannot be empty")
	}
	if _, err := net.ResolveUDPAddr("udp", p.Address); err != nil {
		return fmt.Errorf("address %q: %w", p.Address, err)
	}
	return nil
}

// Validate validates metrics configuration
func (m *MetricsConfig) Validate() error {
	if m.Enabled && m.Address == "" {
		return fmt.Errorf("metrics address cannot be empty when metrics are enabled")
	}
	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	if _, err := logrus.ParseLevel(l.Level); err != nil {
		return fmt.Errorf("level: %w", err)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'text', got '%s'", l.Format)
	}

	return nil
}

// ApplyLogging configures the standard logrus logger from l.
func (l *LoggingConfig) ApplyLogging() error {
	return l.apply(logrus.StandardLogger())
}

func (l *LoggingConfig) apply(logger *logrus.Logger) error {
	level, err := logrus.ParseLevel(l.Level)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	logger.SetLevel(level)

	switch l.Format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return nil
}
