package config

import (
	"strings"

	"library/crdtsim/scenario"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Structs

// Config holds all information parsed from
// supplied config file.
type Config struct {
	LogLevel  string
	LogFormat string
	Scenarios []string
	Random    Random
	Output    Output
}

// Random configures the randomized fault
// injection run executed after the scripted ones.
type Random struct {
	Enabled  bool
	Topology string
	Replicas int
	Steps    int
	Seed     int64
}

// Output names where artifacts of a run go.
type Output struct {
	DOTFile        string
	PrometheusAddr string
}

// Functions

// Default returns the configuration used when
// no config file is supplied: every scripted
// scenario, no random run, info logging.
func Default() *Config {

	return &Config{
		LogLevel:  "info",
		LogFormat: "logfmt",
		Scenarios: scenario.Names(),
		Random: Random{
			Topology: scenario.TopologyP2P,
			Replicas: 5,
			Steps:    200,
			Seed:     1,
		},
	}
}

// LoadConfig takes in the path to the main config
// file of the simulator in TOML syntax and places
// the values from the file on top of the defaults.
func LoadConfig(configFile string) (*Config, error) {

	conf := Default()
	conf.Scenarios = nil

	// Parse values from TOML file into struct.
	md, err := toml.DecodeFile(configFile, conf)
	if err != nil {
		return nil, errors.Wrapf(err, "[config.LoadConfig] failed to read in TOML config file at '%s'", configFile)
	}

	if !md.IsDefined("Scenarios") {
		conf.Scenarios = scenario.Names()
	}

	if err := conf.Validate(); err != nil {
		return nil, errors.Wrapf(err, "[config.LoadConfig] invalid config file '%s'", configFile)
	}

	return conf, nil
}

// Validate checks the values a run depends on.
func (c *Config) Validate() error {

	switch strings.ToLower(c.LogFormat) {
	case "logfmt", "json":
	default:
		return errors.Errorf("unknown log format %q", c.LogFormat)
	}

	for _, name := range c.Scenarios {
		if _, err := scenario.Lookup(name); err != nil {
			return err
		}
	}

	if !c.Random.Enabled {
		return nil
	}

	switch c.Random.Topology {
	case scenario.TopologyP2P, scenario.TopologyStar:
	default:
		return errors.Errorf("unknown random topology %q", c.Random.Topology)
	}

	if c.Random.Replicas < 1 {
		return errors.Errorf("random run needs at least one replica, got %d", c.Random.Replicas)
	}

	if c.Random.Steps < 0 {
		return errors.Errorf("random run needs a non-negative step count, got %d", c.Random.Steps)
	}

	return nil
}
