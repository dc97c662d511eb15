package migraph

import (
	"github.com/denismitr/migraph/internal/logger"
	"github.com/denismitr/migraph/internal/render"
	"github.com/denismitr/migraph/internal/source"
	"github.com/denismitr/migraph/internal/store"
	"github.com/denismitr/migraph/migration"
	"github.com/pkg/errors"
)

var ErrSourceNotInitialized = errors.New("migration source has not been initialized")

type (
	OptionFunc func(*Grapher) error

	SourceConfigurator func(r *source.Rules)
)

func UseColorLogger(p logger.Printer, printSql, printDebug bool) OptionFunc {
	return func(gr *Grapher) error {
		gr.lg = logger.NewColorLogger(p, printSql, printDebug)
		return nil
	}
}

func UseLogger(p logger.Printer, printSql, printDebug bool) OptionFunc {
	return func(gr *Grapher) error {
		gr.lg = logger.NewBWLogger(p, printSql, printDebug)
		return nil
	}
}

func UseLocalFolderSource(root string, configurators ...SourceConfigurator) OptionFunc {
	rules := source.DefaultRules()
	for _, c := range configurators {
		c(&rules)
	}

	return func(gr *Grapher) error {
		gr.selectorFactory = localFolderFactory(root, rules)
		return nil
	}
}

func localFolderFactory(root string, rules source.Rules) func(lg logger.Logger) (source.Selector, error) {
	return func(lg logger.Logger) (source.Selector, error) {
		return source.NewLocalFSSource(root, lg, rules), nil
	}
}

func UseInMemorySource(factories ...migration.Factory) OptionFunc {
	return func(gr *Grapher) error {
		gr.selectorFactory = func(_ logger.Logger) (source.Selector, error) {
			return source.NewInMemorySource(factories...)
		}
		return nil
	}
}

func WithDirection(d string) OptionFunc {
	return func(gr *Grapher) error {
		direction, err := render.ParseDirection(d)
		if err != nil {
			return err
		}

		gr.direction = direction
		return nil
	}
}

// UseStore exports every assembled graph into the database behind url,
// sqlite://path or mysql://dsn
func UseStore(url string, options ...store.OptionFunc) OptionFunc {
	return func(gr *Grapher) error {
		if _, _, err := store.ParseURL(url); err != nil {
			return err
		}

		gr.exporterFactory = func(lg logger.Logger) (Exporter, CloserFunc, error) {
			s, err := store.Open(url, lg, options...)
			if err != nil {
				return nil, nil, err
			}

			return s, s.Close, nil
		}
		return nil
	}
}

func WithExtension(ext string) SourceConfigurator {
	return func(r *source.Rules) {
		r.Extension = ext
	}
}

func WithInitializer(stem string) SourceConfigurator {
	return func(r *source.Rules) {
		r.Initializer = stem
	}
}

func WithMigrationsDir(dir string) SourceConfigurator {
	return func(r *source.Rules) {
		r.MigrationsDir = dir
	}
}

func WithConcurrency(n int) SourceConfigurator {
	return func(r *source.Rules) {
		r.Concurrency = n
	}
}
