package store

import (
	"context"
	"strings"
	"time"

	"github.com/denismitr/migraph/graph"
	"github.com/denismitr/migraph/internal/logger"
	"github.com/denismitr/migraph/internal/retry"
	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

var ErrUnknownDriver = errors.New("unknown database driver")

const (
	SqliteDriver = "sqlite3"
	MySQLDriver  = "mysql"

	DefaultConnectionAttempts    = 5
	DefaultConnectionAttemptStep = 500 * time.Millisecond
)

type (
	Options struct {
		MigrationsTable string
		EdgesTable      string
		MaxAttempts     int
		RetryStep       time.Duration
	}

	OptionFunc func(*Options)

	MigrationRow struct {
		App  string `db:"app"`
		Name string `db:"name"`
		Path string `db:"path"`
	}

	EdgeRow struct {
		FromApp  string `db:"from_app"`
		FromName string `db:"from_name"`
		ToApp    string `db:"to_app"`
		ToName   string `db:"to_name"`
		Kind     string `db:"kind"`
	}

	// Store exports an assembled graph into a SQL database so it can be
	// queried with regular tools
	Store struct {
		db     *sqlx.DB
		lg     logger.Logger
		schema schema
		opts   Options
	}
)

func WithTables(migrationsTable, edgesTable string) OptionFunc {
	return func(o *Options) {
		o.MigrationsTable = migrationsTable
		o.EdgesTable = edgesTable
	}
}

func WithMaxConnectionAttempts(attempts int) OptionFunc {
	return func(o *Options) {
		o.MaxAttempts = attempts
	}
}

func WithRetryStep(step time.Duration) OptionFunc {
	return func(o *Options) {
		o.RetryStep = step
	}
}

// ParseURL maps sqlite://path and mysql://dsn urls to a driver name and dsn
func ParseURL(url string) (string, string, error) {
	switch {
	case strings.HasPrefix(url, "sqlite3://"):
		return SqliteDriver, strings.TrimPrefix(url, "sqlite3://"), nil
	case strings.HasPrefix(url, "sqlite://"):
		return SqliteDriver, strings.TrimPrefix(url, "sqlite://"), nil
	case strings.HasPrefix(url, "mysql://"):
		return MySQLDriver, strings.TrimPrefix(url, "mysql://"), nil
	}

	return "", "", errors.Wrapf(ErrUnknownDriver, "[%s]", url)
}

func Open(url string, lg logger.Logger, opts ...OptionFunc) (*Store, error) {
	driver, dsn, err := ParseURL(url)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open %s database", driver)
	}

	s, err := New(db, lg, opts...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

func New(db *sqlx.DB, lg logger.Logger, opts ...OptionFunc) (*Store, error) {
	o := Options{
		MigrationsTable: DefaultMigrationsTable,
		EdgesTable:      DefaultEdgesTable,
		MaxAttempts:     DefaultConnectionAttempts,
		RetryStep:       DefaultConnectionAttemptStep,
	}

	for _, fn := range opts {
		fn(&o)
	}

	s := &Store{db: db, lg: lg, opts: o}

	switch db.DriverName() {
	case SqliteDriver:
		// every connection to an in-memory sqlite database is a new database
		db.SetMaxOpenConns(1)
		s.schema = sqliteSchema{migrationsTable: o.MigrationsTable, edgesTable: o.EdgesTable}
	case MySQLDriver:
		s.schema = mysqlSchema{migrationsTable: o.MigrationsTable, edgesTable: o.EdgesTable}
	default:
		return nil, errors.Wrapf(ErrUnknownDriver, "[%s]", db.DriverName())
	}

	return s, nil
}

func (s *Store) Connect(ctx context.Context) error {
	return retry.Incremental(ctx, s.opts.RetryStep, s.opts.MaxAttempts, func(attempt int) error {
		if err := s.db.PingContext(ctx); err != nil {
			s.lg.Debugf("database ping attempt %d failed: %s", attempt, err.Error())
			return retry.Error(errors.Wrap(err, "could not establish DB connection"), attempt)
		}

		return nil
	})
}

// Save replaces whatever a previous run stored with the migrations and
// edges of g
func (s *Store) Save(ctx context.Context, g *graph.Graph) error {
	if err := s.Connect(ctx); err != nil {
		return err
	}

	for _, q := range s.schema.createQueries() {
		s.lg.SQL(q)
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return errors.Wrap(err, "could not create graph tables")
		}
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "could not start transaction")
	}

	if err := s.write(ctx, tx, g); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Wrap(err, rbErr.Error())
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "could not commit graph export")
	}

	return nil
}

func (s *Store) write(ctx context.Context, tx *sqlx.Tx, g *graph.Graph) error {
	for _, q := range s.schema.clearQueries() {
		s.lg.SQL(q)
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return errors.Wrap(err, "could not clear previous export")
		}
	}

	insertMigration, err := tx.PreparexContext(ctx, s.schema.insertMigrationQuery())
	if err != nil {
		return errors.Wrap(err, "could not prepare migration insert")
	}
	defer insertMigration.Close()

	for _, app := range g.Apps() {
		for _, m := range app.Migrations {
			s.lg.SQL(s.schema.insertMigrationQuery(), m.App, m.Name, m.Path)
			if _, err := insertMigration.ExecContext(ctx, m.App, m.Name, m.Path); err != nil {
				return errors.Wrapf(err, "could not insert migration %s", m.Key())
			}
		}
	}

	insertEdge, err := tx.PreparexContext(ctx, s.schema.insertEdgeQuery())
	if err != nil {
		return errors.Wrap(err, "could not prepare edge insert")
	}
	defer insertEdge.Close()

	for _, e := range g.Edges() {
		args := []interface{}{e.From.App, e.From.Name, e.To.App, e.To.Name, string(e.Kind)}
		s.lg.SQL(s.schema.insertEdgeQuery(), args...)
		if _, err := insertEdge.ExecContext(ctx, args...); err != nil {
			return errors.Wrapf(err, "could not insert edge %s --> %s", e.From.Key(), e.To.Key())
		}
	}

	return nil
}

func (s *Store) Migrations(ctx context.Context) ([]MigrationRow, error) {
	var rows []MigrationRow
	q := "SELECT app, name, path FROM " + s.opts.MigrationsTable + " ORDER BY app, name"
	if err := s.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "could not read exported migrations")
	}

	return rows, nil
}

func (s *Store) Edges(ctx context.Context) ([]EdgeRow, error) {
	var rows []EdgeRow
	q := "SELECT from_app, from_name, to_app, to_name, kind FROM " + s.opts.EdgesTable +
		" ORDER BY to_app, to_name, from_app, from_name"
	if err := s.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "could not read exported edges")
	}

	return rows, nil
}

func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return errors.Wrap(err, "could not close graph store")
	}

	return nil
}
