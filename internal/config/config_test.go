package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	args := Default()
	require.NoError(t, args.Validate())
	assert.Equal(t, 30, args.FPS())
}

func TestLoadYAMLOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oai.yaml")
	require.NoError(t, os.WriteFile(path, []byte("layout_name: cramped_room\nslowmo_rate: 2\nstore: badger\n"), 0o644))

	args, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "cramped_room", args.LayoutName)
	assert.Equal(t, 15, args.FPS())
	assert.Equal(t, "flat", args.EncodingFn)
	assert.Equal(t, filepath.Join("data", "trials.badger"), args.StorePath())
	require.NoError(t, args.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"OAI_LAYOUT_NAME": "asymmetric_advantages",
		"OAI_HORIZON":     "400",
		"OAI_SEED":        "42",
		"OAI_SLOWMO_RATE": "0.5",
	}
	lookup := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}

	args := Default()
	require.NoError(t, args.ApplyEnv(lookup))
	assert.Equal(t, "asymmetric_advantages", args.LayoutName)
	assert.Equal(t, 400, args.Horizon)
	assert.EqualValues(t, 42, args.Seed)
	assert.Equal(t, 60, args.FPS())

	env["OAI_HORIZON"] = "many"
	require.Error(t, args.ApplyEnv(lookup))
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("OAI_TEST_ONLY_VALUE=from-file\n"), 0o644))
	t.Cleanup(func() { _ = os.Unsetenv("OAI_TEST_ONLY_VALUE") })

	require.NoError(t, LoadEnv(filepath.Join(t.TempDir(), "absent.env"), path))
	assert.Equal(t, "from-file", os.Getenv("OAI_TEST_ONLY_VALUE"))
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(*Args){
		"zero horizon":  func(a *Args) { a.Horizon = 0 },
		"bad store":     func(a *Args) { a.Store = "redis" },
		"no layout":     func(a *Args) { a.LayoutName = "" },
		"bad log level": func(a *Args) { a.LogLevel = "loud" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			args := Default()
			mutate(&args)
			require.Error(t, args.Validate())
		})
	}
}

func TestRuntimeSnapshot(t *testing.T) {
	args := Default()
	args.BaseDir = "/srv/oai"
	rt := args.Runtime()
	assert.Equal(t, "cpu", rt.Device)
	assert.Equal(t, filepath.Join("/srv/oai", "data"), rt.DataDir)
	assert.Equal(t, args.Seed, rt.Seed)
}
