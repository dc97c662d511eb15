package migraph

import (
	"context"
	"io"
	"os"

	"github.com/denismitr/migraph/graph"
	"github.com/denismitr/migraph/internal/logger"
	"github.com/denismitr/migraph/internal/render"
	"github.com/denismitr/migraph/internal/source"
	"github.com/pkg/errors"
)

// ErrNoMigrations is returned when nothing was discovered; no output is
// produced in that case
var ErrNoMigrations = source.ErrNoMigrations

const DefaultOutputFile = "output.md"

type (
	CloserFunc func() error

	// Exporter receives the assembled graph before it is rendered
	Exporter interface {
		Save(ctx context.Context, g *graph.Graph) error
	}

	Grapher struct {
		lg        logger.Logger
		selector  source.Selector
		renderer  render.Renderer
		exporter  Exporter
		closerFns []CloserFunc

		selectorFactory func(lg logger.Logger) (source.Selector, error)
		exporterFactory func(lg logger.Logger) (Exporter, CloserFunc, error)
		direction       render.Direction
	}
)

// NewGrapher creates a grapher configured by option callbacks; without
// a source option the current directory is scanned
func NewGrapher(opts ...OptionFunc) (*Grapher, CloserFunc, error) {
	gr := new(Grapher)
	gr.lg = &logger.NullLogger{}

	for _, oFunc := range opts {
		if err := oFunc(gr); err != nil {
			return nil, nil, err
		}
	}

	if gr.selectorFactory == nil {
		gr.selectorFactory = localFolderFactory(".", source.DefaultRules())
	}

	selector, err := gr.selectorFactory(gr.lg)
	if err != nil {
		return nil, nil, err
	}
	gr.selector = selector

	if gr.renderer == nil {
		gr.renderer = render.NewMermaid(gr.direction)
	}

	if gr.exporterFactory != nil {
		exporter, closer, err := gr.exporterFactory(gr.lg)
		if err != nil {
			return nil, nil, err
		}

		gr.exporter = exporter
		gr.closerFns = append(gr.closerFns, closer)
	}

	return gr, gr.close, nil
}

// Build discovers the migrations, extracts their dependencies and
// assembles the graph
func (gr *Grapher) Build(ctx context.Context) (*graph.Graph, error) {
	if gr.selector == nil {
		return nil, ErrSourceNotInitialized
	}

	migrations, err := gr.selector.Select(ctx)
	if err != nil {
		return nil, err
	}

	g := graph.Build(migrations)

	for _, m := range g.Duplicates() {
		kept, _ := g.Migration(m.Ref())
		gr.lg.Warnf("%s at %s is already defined at %s, ignoring it", m.Key(), m.Path, kept.Path)
	}

	for _, e := range g.Dangling() {
		gr.lg.Warnf("%s depends on %s which was not found", e.To.Key(), e.From.Key())
	}

	gr.lg.Debugf("assembled %d migrations in %d apps with %d edges", g.Len(), len(g.Apps()), len(g.Edges()))

	return g, nil
}

// Render runs the whole pipeline and returns the diagram. When an exporter
// is configured the graph is saved before rendering.
func (gr *Grapher) Render(ctx context.Context) ([]byte, error) {
	g, err := gr.Build(ctx)
	if err != nil {
		return nil, err
	}

	if gr.exporter != nil {
		if err := gr.exporter.Save(ctx, g); err != nil {
			return nil, errors.Wrap(err, "could not export graph")
		}
		gr.lg.Debugf("graph exported")
	}

	return gr.renderer.Render(g)
}

func (gr *Grapher) Write(ctx context.Context, w io.Writer) error {
	out, err := gr.Render(ctx)
	if err != nil {
		return err
	}

	if _, err := w.Write(out); err != nil {
		return errors.Wrap(err, "could not write diagram")
	}

	return nil
}

// WriteFile renders the diagram into path. Nothing is created when there
// are no migrations.
func (gr *Grapher) WriteFile(ctx context.Context, path string) error {
	out, err := gr.Render(ctx)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, out, 0644); err != nil {
		return errors.Wrapf(err, "could not write diagram to %s", path)
	}

	gr.lg.Successf("diagram written to %s", path)

	return nil
}

func (gr *Grapher) close() error {
	var result error
	for _, fn := range gr.closerFns {
		if err := fn(); err != nil {
			if result == nil {
				result = err
			} else {
				result = errors.Wrap(result, err.Error())
			}
		}
	}

	return result
}
