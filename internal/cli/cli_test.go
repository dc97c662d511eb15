package cli

import (
	"bytes"
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, contents string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
}

func Test_ConfigCanBeLoadedFromYaml(t *testing.T) {
	require.NoError(t, os.Setenv("MIGRAPH_TEST_DB", "sqlite://graph.db"))
	defer os.Unsetenv("MIGRAPH_TEST_DB")

	path := filepath.Join(t.TempDir(), DefaultConfigFile)
	writeFile(t, path, `version: "1"
discovery:
  root: ./backend
  extension: py
diagram:
  output: docs/migrations.md
  direction: LR
export:
  database_url: "%%MIGRAPH_TEST_DB%%"
`)

	cfg, err := LoadYaml(path)
	require.NoError(t, err)

	assert.Equal(t, Config{
		Root:          "./backend",
		Output:        "docs/migrations.md",
		Direction:     "LR",
		Extension:     "py",
		Initializer:   "__init__",
		MigrationsDir: "migrations",
		DatabaseURL:   "sqlite://graph.db",
	}, cfg)
	assert.NoError(t, cfg.Validate())
}

func Test_ConfigErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadYaml(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("broken yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		writeFile(t, path, "discovery: [\n")

		_, err := LoadYaml(path)
		assert.Error(t, err)
	})

	tt := []struct {
		name   string
		mutate func(cfg *Config)
	}{
		{name: "empty root", mutate: func(cfg *Config) { cfg.Root = "" }},
		{name: "empty output", mutate: func(cfg *Config) { cfg.Output = "" }},
		{name: "unknown direction", mutate: func(cfg *Config) { cfg.Direction = "up" }},
		{name: "unknown database", mutate: func(cfg *Config) { cfg.DatabaseURL = "oracle://db" }},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)

			assert.True(t, errors.Is(cfg.Validate(), ErrConfigInvalid))
		})
	}
}

func Test_AppWritesDiagram(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "billing", "migrations", "0001_init.py"), "dependencies = []\n")
	writeFile(t, filepath.Join(root, "billing", "migrations", "0002_next.py"), "dependencies = [\n    ('billing', '0001_init'),\n]\n")

	t.Run("to a file", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Root = root
		cfg.Output = filepath.Join(t.TempDir(), "output.md")
		cfg.NoColor = true

		var logs bytes.Buffer
		app, closer, err := New(cfg, log.New(&logs, "", 0), io.Discard)
		require.NoError(t, err)
		defer closer()

		written, err := app.Run(context.Background())
		require.NoError(t, err)
		assert.True(t, written)

		b, err := os.ReadFile(cfg.Output)
		require.NoError(t, err)
		assert.Contains(t, string(b), "billing.0001_init --> billing.0002_next\n")
		assert.Contains(t, logs.String(), "Migraph: diagram written to "+cfg.Output)
	})

	t.Run("to stdout", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Root = root
		cfg.Output = StdoutOutput
		cfg.Direction = "RL"

		var stdout bytes.Buffer
		app, closer, err := New(cfg, log.New(io.Discard, "", 0), &stdout)
		require.NoError(t, err)
		defer closer()

		written, err := app.Run(context.Background())
		require.NoError(t, err)
		assert.True(t, written)
		assert.Contains(t, stdout.String(), "flowchart RL\n")
	})

	t.Run("nothing found is not an error", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Root = t.TempDir()
		cfg.Output = filepath.Join(t.TempDir(), "output.md")

		app, closer, err := New(cfg, log.New(io.Discard, "", 0), io.Discard)
		require.NoError(t, err)
		defer closer()

		written, err := app.Run(context.Background())
		require.NoError(t, err)
		assert.False(t, written)
		assert.False(t, FileExists(cfg.Output))
	})
}

func Test_ConfigStubCanBeCreatedOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultConfigFile)

	require.NoError(t, InitCfg(path))
	assert.True(t, FileExists(path))

	cfg, err := LoadYaml(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	err = InitCfg(path)
	assert.True(t, errors.Is(err, ErrConfigAlreadyExists))
}
