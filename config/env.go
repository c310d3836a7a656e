package config

import (
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Structs

// Env holds overrides specific to the
// machine the simulator runs on, read from
// an optional .env file and the environment.
type Env struct {
	LogLevel string
	Seed     string
}

// Functions

// LoadEnv reads the .env file at path into the
// environment, if there is one, and collects
// the simulator's variables.
func LoadEnv(path string) (*Env, error) {

	// Load environment file.
	err := godotenv.Load(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, errors.Wrapf(err, "[config.LoadEnv] failed to read in .env file '%s'", path)
	}

	env := new(Env)

	// Fill variables from .env into struct.
	env.LogLevel = os.Getenv("CRDTSIM_LOGLEVEL")
	env.Seed = os.Getenv("CRDTSIM_SEED")

	return env, nil
}

// Apply places the set variables on top of conf.
func (e *Env) Apply(conf *Config) error {

	if e.LogLevel != "" {
		conf.LogLevel = e.LogLevel
	}

	if e.Seed != "" {
		seed, err := strconv.ParseInt(e.Seed, 10, 64)
		if err != nil {
			return errors.Wrapf(err, "[config.Apply] CRDTSIM_SEED is not a number")
		}
		conf.Random.Seed = seed
	}

	return nil
}
