package cli

import (
	"os"
	"strings"

	"github.com/denismitr/migraph"
	"github.com/denismitr/migraph/internal/render"
	"github.com/denismitr/migraph/internal/source"
	"github.com/denismitr/migraph/internal/store"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

const DefaultConfigFile = ".migraph.yaml"

var ErrConfigInvalid = errors.New("migraph configuration is invalid")

type (
	Config struct {
		Root          string
		Output        string
		Direction     string
		Extension     string
		Initializer   string
		MigrationsDir string
		DatabaseURL   string
		Debug         bool
		NoColor       bool
	}

	discovery struct {
		Root          string `yaml:"root"`
		Extension     string `yaml:"extension"`
		Initializer   string `yaml:"initializer"`
		MigrationsDir string `yaml:"migrations_dir"`
	}

	diagram struct {
		Output    string `yaml:"output"`
		Direction string `yaml:"direction"`
	}

	export struct {
		DatabaseURL string `yaml:"database_url"`
	}

	configFile struct {
		Version   string    `yaml:"version"`
		Discovery discovery `yaml:"discovery"`
		Diagram   diagram   `yaml:"diagram"`
		Export    export    `yaml:"export"`
	}
)

func DefaultConfig() Config {
	return Config{
		Root:          ".",
		Output:        migraph.DefaultOutputFile,
		Direction:     string(render.TopToBottom),
		Extension:     source.DefaultExtension,
		Initializer:   source.DefaultInitializer,
		MigrationsDir: source.DefaultMigrationsDir,
	}
}

// LoadYaml reads a config file on top of the defaults. Values written as
// %%NAME%% are taken from the environment variable NAME.
func LoadYaml(path string) (Config, error) {
	cfg := DefaultConfig()

	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "could not read migraph configuration file")
	}

	var cf configFile
	if err := yaml.Unmarshal(b, &cf); err != nil {
		return cfg, errors.Wrap(err, "could not parse migraph configuration file")
	}

	override(&cfg.Root, cf.Discovery.Root)
	override(&cfg.Extension, cf.Discovery.Extension)
	override(&cfg.Initializer, cf.Discovery.Initializer)
	override(&cfg.MigrationsDir, cf.Discovery.MigrationsDir)
	override(&cfg.Output, cf.Diagram.Output)
	override(&cfg.Direction, cf.Diagram.Direction)
	override(&cfg.DatabaseURL, cf.Export.DatabaseURL)

	return cfg, nil
}

func override(dst *string, value string) {
	if v := resolveEnv(value); v != "" {
		*dst = v
	}
}

func resolveEnv(value string) string {
	if len(value) > 4 && strings.HasPrefix(value, "%%") && strings.HasSuffix(value, "%%") {
		return os.Getenv(strings.ReplaceAll(value, "%%", ""))
	}

	return value
}

func (cfg Config) Validate() error {
	if cfg.Root == "" {
		return errors.Wrap(ErrConfigInvalid, "root folder was not defined")
	}

	if cfg.Output == "" {
		return errors.Wrap(ErrConfigInvalid, "output file was not defined")
	}

	if _, err := render.ParseDirection(cfg.Direction); err != nil {
		return errors.Wrap(ErrConfigInvalid, err.Error())
	}

	if cfg.DatabaseURL != "" {
		if _, _, err := store.ParseURL(cfg.DatabaseURL); err != nil {
			return errors.Wrap(ErrConfigInvalid, err.Error())
		}
	}

	return nil
}
