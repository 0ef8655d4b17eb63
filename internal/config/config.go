// Package config loads and validates the YAML configuration described in
// §6: unknown keys are rejected, and the syslog output list accepts a
// small externally-tagged union (Localhost | TCP{address,port} |
// UDP{address,port}).
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SyslogKind selects which syslog.Dial network a SyslogOutput uses, or
// the local-daemon constructor for SyslogLocalhost.
type SyslogKind uint8

const (
	SyslogLocalhost SyslogKind = iota
	SyslogTCP
	SyslogUDP
)

// SyslogOutput is one entry of the `outputs.syslog` list.
type SyslogOutput struct {
	Kind    SyslogKind
	Address string
	Port    uint16
}

type syslogAddrPort struct {
	Address string `yaml:"address"`
	Port    uint16 `yaml:"port"`
}

// UnmarshalYAML accepts either the bare scalar "Localhost" or a one-key
// mapping tagged "TCP" or "UDP", mirroring the Rust original's
// externally-tagged enum.
func (s *SyslogOutput) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		if node.Value != "Localhost" {
			return fmt.Errorf("config: unknown syslog output %q", node.Value)
		}
		s.Kind = SyslogLocalhost
		return nil
	}

	if node.Kind == yaml.MappingNode {
		var raw map[string]syslogAddrPort
		if err := node.Decode(&raw); err != nil {
			return fmt.Errorf("config: decode syslog output: %w", err)
		}
		if v, ok := raw["TCP"]; ok {
			s.Kind, s.Address, s.Port = SyslogTCP, v.Address, v.Port
			return nil
		}
		if v, ok := raw["UDP"]; ok {
			s.Kind, s.Address, s.Port = SyslogUDP, v.Address, v.Port
			return nil
		}
		return fmt.Errorf("config: syslog output must be TCP or UDP")
	}

	return fmt.Errorf("config: unsupported syslog output node")
}

// Filters mirrors §4.5's Config.
type Filters struct {
	NonProcessConnections bool `yaml:"non_process_connections"`
	DNSRequests           bool `yaml:"dns_requests"`
	SelfConnections       bool `yaml:"self_connections"`
}

// Outputs mirrors §6's `outputs` key. Elasticsearch and TrackingEndpoint
// are empty strings when unset (YAML null or absent key).
type Outputs struct {
	Syslog           []SyslogOutput `yaml:"syslog"`
	Elasticsearch    string         `yaml:"elasticsearch"`
	TrackingEndpoint string         `yaml:"tracking_endpoint"`
}

// Config is the top-level `/etc/<product>/config.yaml` document. UUID is
// kept as the raw string form here and not validated at this layer;
// internal/supervisor parses it, treating an empty value as "not set" and
// a malformed one as a startup error.
type Config struct {
	Directory string  `yaml:"directory"`
	Name      string  `yaml:"name"`
	UUID      string  `yaml:"uuid"`
	Filters   Filters `yaml:"filters"`
	Outputs   Outputs `yaml:"outputs"`
}

// Load reads and strictly decodes the YAML document at path, rejecting
// unrecognized keys (§6).
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
