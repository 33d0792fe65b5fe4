package sync

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Policy names a reconciliation behavior for rows whose primary key already
// exists in the target. The two policies are materially different and are
// never merged: overwrite converges the target, append grows it.
type Policy string

const (
	// PolicyOverwrite updates every shared column on a key match and
	// inserts on a miss. Re-running with an unchanged source is a no-op.
	PolicyOverwrite Policy = "overwrite"

	// PolicyAppend inserts an additional history row when a key match
	// carries differing values; it never updates or deletes.
	PolicyAppend Policy = "append"
)

// ParsePolicy validates a policy name from configuration.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyOverwrite, PolicyAppend:
		return Policy(s), nil
	case "":
		return PolicyOverwrite, nil
	default:
		return "", fmt.Errorf("invalid reconcile policy: %s", s)
	}
}

// Endpoint locates one database.
type Endpoint struct {
	Driver string `yaml:"driver"` // postgres, mysql or sqlite
	DSN    string `yaml:"dsn"`
}

// Config is the YAML configuration for one synchronizer run.
type Config struct {
	Source Endpoint `yaml:"source"`
	Target Endpoint `yaml:"target"`

	// Tables to synchronize in order. Empty means every table reflected
	// from the source.
	Tables []string `yaml:"tables"`

	// Reconcile selects the policy; defaults to overwrite.
	Reconcile string `yaml:"reconcile"`

	// SnapshotDir, when set, receives a zstd-compressed CSV dump of each
	// source table before the target is mutated.
	SnapshotDir string `yaml:"snapshot_dir"`

	LogLevel string `yaml:"log_level"`
}

func (c *Config) validate() error {
	var missingFields []string

	if c.Source.Driver == "" {
		missingFields = append(missingFields, "source.driver")
	}
	if c.Source.DSN == "" {
		missingFields = append(missingFields, "source.dsn")
	}
	if c.Target.Driver == "" {
		missingFields = append(missingFields, "target.driver")
	}
	if c.Target.DSN == "" {
		missingFields = append(missingFields, "target.dsn")
	}

	if len(missingFields) > 0 {
		return fmt.Errorf("missing required fields: %v", missingFields)
	}

	if _, err := ParsePolicy(c.Reconcile); err != nil {
		return err
	}

	return nil
}

// LoadConfig reads and validates a YAML config file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
