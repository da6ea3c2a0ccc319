// Package config loads the engine-wide tunables that sit outside any
// single flow's Context: the option-index width, the option-value
// arena size, and capture-side defaults for cmd/rohccompress. It
// mirrors the teacher's config package (a plain struct with a
// DefaultX constructor) but loads from YAML, the teacher's declared
// but barely-used gopkg.in/yaml.v3 dependency, rather than from Go
// constants.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level engine configuration.
type Config struct {
	// MaxTCPOptionIndex bounds the TCP-option table: 16 (the default)
	// or 8, in which case dynamically allocated slots stay below index
	// 8. The compressed option list uses 8-bit items (1-bit
	// value-present + 7-bit index) with either setting; the 4-bit item
	// form is not implemented.
	MaxTCPOptionIndex int `yaml:"maxTcpOptionIndex"`

	// OptionValueArenaSize sizes the ring pool backing cached TCP
	// option values (rohc.TCPOptionTable has at most 16 slots, so
	// anything >= 16 never blocks on Pool.GetElement).
	OptionValueArenaSize int `yaml:"optionValueArenaSize"`

	// TTLIrregularOnAnyOuterChange is copied into rohc.EngineConfig,
	// but the engine does not read it: an outer TTL change always arms
	// the irregular-chain TTL flag for the one packet that follows the
	// commit which observed the change.
	TTLIrregularOnAnyOuterChange bool `yaml:"ttlIrregularOnAnyOuterChange"`

	// Capture holds cmd/rohccompress's demo-driver settings; the core
	// engine never reads it.
	Capture CaptureConfig `yaml:"capture"`
}

// CaptureConfig configures cmd/rohccompress's packet source.
type CaptureConfig struct {
	Interface  string `yaml:"interface"`
	PcapFile   string `yaml:"pcapFile"`
	ProtocolID uint8  `yaml:"protocolId"`

	// IPv6 selects an "ip6:tcp" raw socket instead of "ip4:tcp" on
	// unix platforms. Raw IPv6 sockets never deliver the IP header
	// itself (RFC 3542), so this path also reads ancillary control
	// data (hop limit, destination address) to rebuild one.
	IPv6 bool `yaml:"ipv6"`
}

// Default returns the engine's baseline configuration, matching the
// teacher's DefaultPcpCoreConfig constructor pattern.
func Default() *Config {
	return &Config{
		MaxTCPOptionIndex:            16,
		OptionValueArenaSize:         128,
		TTLIrregularOnAnyOuterChange: true,
		Capture: CaptureConfig{
			ProtocolID: 6,
		},
	}
}

// Load reads a YAML configuration file, falling back to Default for
// any field the file omits.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return cfg, nil
}
