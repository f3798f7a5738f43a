package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the supervisor.
// Zero values mean "unspecified" and will be replaced by defaults in main.
type Config struct {
	Addr             string   `json:"addr" yaml:"addr" toml:"addr"`
	Hostname         string   `json:"hostname" yaml:"hostname" toml:"hostname"`
	ServerBin        string   `json:"server_bin" yaml:"server_bin" toml:"server_bin"`
	StateDir         string   `json:"state_dir" yaml:"state_dir" toml:"state_dir"`
	WellKnownPorts   []int    `json:"well_known_ports" yaml:"well_known_ports" toml:"well_known_ports"`
	ScanStart        int      `json:"scan_start" yaml:"scan_start" toml:"scan_start"`
	ScanEnd          int      `json:"scan_end" yaml:"scan_end" toml:"scan_end"`
	ScanStride       int      `json:"scan_stride" yaml:"scan_stride" toml:"scan_stride"`
	ScanBatch        int      `json:"scan_batch" yaml:"scan_batch" toml:"scan_batch"`
	ProbeTimeoutMS   int      `json:"probe_timeout_ms" yaml:"probe_timeout_ms" toml:"probe_timeout_ms"`
	ScanTimeoutMS    int      `json:"scan_timeout_ms" yaml:"scan_timeout_ms" toml:"scan_timeout_ms"`
	PollIntervalMS   int      `json:"poll_interval_ms" yaml:"poll_interval_ms" toml:"poll_interval_ms"`
	LaunchDeadlineMS int      `json:"launch_deadline_ms" yaml:"launch_deadline_ms" toml:"launch_deadline_ms"`
	CORSEnabled      bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSOrigins      []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}
