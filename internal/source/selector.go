package source

import (
	"context"
	"runtime"
	"strings"

	"github.com/denismitr/migraph/internal/deps"
	"github.com/denismitr/migraph/migration"
	"github.com/pkg/errors"
)

var ErrNoMigrations = errors.New("no migrations")
var ErrRootInvalid = errors.New("migrations root is not a readable directory")

const (
	DefaultExtension     = "py"
	DefaultInitializer   = "__init__"
	DefaultMigrationsDir = "migrations"
)

type Selector interface {
	Select(ctx context.Context) (migration.Migrations, error)
}

// Rules decide which files are migrations and how they are read
type Rules struct {
	Extension     string
	Initializer   string
	MigrationsDir string
	Assignment    string
	Concurrency   int
}

func DefaultRules() Rules {
	return Rules{
		Extension:     DefaultExtension,
		Initializer:   DefaultInitializer,
		MigrationsDir: DefaultMigrationsDir,
		Assignment:    deps.DefaultAssignment,
		Concurrency:   runtime.NumCPU(),
	}
}

func (r Rules) withDefaults() Rules {
	d := DefaultRules()

	r.Extension = strings.TrimPrefix(r.Extension, ".")
	if r.Extension == "" {
		r.Extension = d.Extension
	}

	if r.Initializer == "" {
		r.Initializer = d.Initializer
	}

	if r.MigrationsDir == "" {
		r.MigrationsDir = d.MigrationsDir
	}

	if r.Assignment == "" {
		r.Assignment = d.Assignment
	}

	if r.Concurrency < 1 {
		r.Concurrency = d.Concurrency
	}

	return r
}
