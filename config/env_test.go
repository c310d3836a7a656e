package config_test

import (
	"os"
	"testing"

	"library/crdtsim/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoadEnv checks that variables from an .env
// file end up on top of the config.
func TestLoadEnv(t *testing.T) {

	// t.Setenv restores the variables afterwards.
	t.Setenv("CRDTSIM_LOGLEVEL", "")
	t.Setenv("CRDTSIM_SEED", "")
	os.Unsetenv("CRDTSIM_LOGLEVEL")
	os.Unsetenv("CRDTSIM_SEED")

	// A missing file is fine.
	env, err := config.LoadEnv("testdata/missing.env")
	require.NoError(t, err)
	assert.Equal(t, "", env.LogLevel)

	// godotenv never overrides variables that are
	// already present in the environment.
	env, err = config.LoadEnv("testdata/test.env")
	require.NoError(t, err)

	conf := config.Default()
	require.NoError(t, env.Apply(conf))
	assert.Equal(t, "warn", conf.LogLevel)
	assert.Equal(t, int64(1234), conf.Random.Seed)

	env.Seed = "many"
	assert.Error(t, env.Apply(conf))
}
