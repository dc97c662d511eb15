package store

import "fmt"

const (
	DefaultMigrationsTable = "migraph_migrations"
	DefaultEdgesTable      = "migraph_edges"
)

type schema interface {
	createQueries() []string
	clearQueries() []string
	insertMigrationQuery() string
	insertEdgeQuery() string
}

type sqliteSchema struct {
	migrationsTable, edgesTable string
}

var _ schema = (*sqliteSchema)(nil)

func (s sqliteSchema) createQueries() []string {
	const createMigrations = `
		CREATE TABLE IF NOT EXISTS %s (
			app TEXT NOT NULL,
			name TEXT NOT NULL,
			path TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (app, name)
		);`

	const createEdges = `
		CREATE TABLE IF NOT EXISTS %s (
			from_app TEXT NOT NULL,
			from_name TEXT NOT NULL,
			to_app TEXT NOT NULL,
			to_name TEXT NOT NULL,
			kind TEXT NOT NULL,
			PRIMARY KEY (from_app, from_name, to_app, to_name)
		);`

	return []string{
		fmt.Sprintf(createMigrations, s.migrationsTable),
		fmt.Sprintf(createEdges, s.edgesTable),
	}
}

func (s sqliteSchema) clearQueries() []string {
	return clearQueries(s.migrationsTable, s.edgesTable)
}

func (s sqliteSchema) insertMigrationQuery() string {
	return insertMigrationQuery(s.migrationsTable)
}

func (s sqliteSchema) insertEdgeQuery() string {
	return insertEdgeQuery(s.edgesTable)
}

type mysqlSchema struct {
	migrationsTable, edgesTable string
}

var _ schema = (*mysqlSchema)(nil)

func (s mysqlSchema) createQueries() []string {
	const createMigrations = `
		CREATE TABLE IF NOT EXISTS %s (
			app VARCHAR(191) NOT NULL,
			name VARCHAR(191) NOT NULL,
			path TEXT NOT NULL,
			PRIMARY KEY (app, name)
		) ENGINE=INNODB;`

	const createEdges = `
		CREATE TABLE IF NOT EXISTS %s (
			from_app VARCHAR(191) NOT NULL,
			from_name VARCHAR(191) NOT NULL,
			to_app VARCHAR(191) NOT NULL,
			to_name VARCHAR(191) NOT NULL,
			kind VARCHAR(16) NOT NULL,
			PRIMARY KEY (from_app, from_name, to_app, to_name)
		) ENGINE=INNODB;`

	return []string{
		fmt.Sprintf(createMigrations, s.migrationsTable),
		fmt.Sprintf(createEdges, s.edgesTable),
	}
}

func (s mysqlSchema) clearQueries() []string {
	return clearQueries(s.migrationsTable, s.edgesTable)
}

func (s mysqlSchema) insertMigrationQuery() string {
	return insertMigrationQuery(s.migrationsTable)
}

func (s mysqlSchema) insertEdgeQuery() string {
	return insertEdgeQuery(s.edgesTable)
}

func clearQueries(migrationsTable, edgesTable string) []string {
	return []string{
		fmt.Sprintf("DELETE FROM %s;", edgesTable),
		fmt.Sprintf("DELETE FROM %s;", migrationsTable),
	}
}

func insertMigrationQuery(table string) string {
	return fmt.Sprintf("INSERT INTO %s (app, name, path) VALUES (?, ?, ?);", table)
}

func insertEdgeQuery(table string) string {
	return fmt.Sprintf("INSERT INTO %s (from_app, from_name, to_app, to_name, kind) VALUES (?, ?, ?, ?, ?);", table)
}
