package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadParsesSyslogUnion(t *testing.T) {
	path := writeConfig(t, `
directory: /tmp
filters:
  non_process_connections: true
outputs:
  syslog:
    - Localhost
    - TCP:
        address: 127.0.0.1
        port: 514
    - UDP:
        address: 127.0.0.1
        port: 5514
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Outputs.Syslog) != 3 {
		t.Fatalf("expected 3 syslog outputs, got %d", len(cfg.Outputs.Syslog))
	}
	if cfg.Outputs.Syslog[0].Kind != SyslogLocalhost {
		t.Errorf("expected first output Localhost")
	}
	if cfg.Outputs.Syslog[1].Kind != SyslogTCP || cfg.Outputs.Syslog[1].Port != 514 {
		t.Errorf("unexpected TCP output: %+v", cfg.Outputs.Syslog[1])
	}
	if cfg.Outputs.Syslog[2].Kind != SyslogUDP || cfg.Outputs.Syslog[2].Port != 5514 {
		t.Errorf("unexpected UDP output: %+v", cfg.Outputs.Syslog[2])
	}
	if !cfg.Filters.NonProcessConnections {
		t.Errorf("expected non_process_connections true")
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, "directory: /tmp\nbogus_key: true\n")

	if _, err := Load(path); err == nil {
		t.Fatalf("expected unknown key to be rejected")
	}
}
