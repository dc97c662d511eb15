package source

import (
	"context"

	"github.com/denismitr/migraph/migration"
)

type InMemorySource struct {
	migrations migration.Migrations
}

var _ Selector = (*InMemorySource)(nil)

func (c *InMemorySource) Select(ctx context.Context) (migration.Migrations, error) {
	if len(c.migrations) == 0 {
		return nil, ErrNoMigrations
	}

	return c.migrations.Ordered(), nil
}

func NewInMemorySource(factories ...migration.Factory) (*InMemorySource, error) {
	m, err := migration.NewMigrations(factories...)
	if err != nil {
		return nil, err
	}

	return &InMemorySource{
		migrations: m,
	}, nil
}
