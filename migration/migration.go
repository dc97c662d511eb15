package migration

import (
	"bytes"
	"path/filepath"
	"sort"
	"strings"
)

type (
	// Ref points at a single migration by app and name
	Ref struct {
		App  string
		Name string
	}

	// Dependency is a (app, name) tuple declared in a migration's
	// dependency list
	Dependency = Ref

	Migration struct {
		App          string
		Name         string
		Path         string
		Dependencies []Dependency
	}

	Factory func() (*Migration, error)
)

// Key renders a ref as the node label used in diagrams: app.name
func (r Ref) Key() string {
	var result bytes.Buffer
	result.WriteString(r.App)
	result.WriteString(".")
	result.WriteString(r.Name)
	return result.String()
}

func (r Ref) String() string {
	return r.Key()
}

func (m *Migration) Ref() Ref {
	return Ref{App: m.App, Name: m.Name}
}

func (m *Migration) Key() string {
	return m.Ref().Key()
}

// DependsOn reports whether ref is among the explicitly declared dependencies
func (m *Migration) DependsOn(ref Ref) bool {
	for i := range m.Dependencies {
		if m.Dependencies[i] == ref {
			return true
		}
	}

	return false
}

// NewMigrationFromFile derives app and name from the file location:
// the app is the directory two levels above the file and the name is
// the filename without its extension. ext may contain dots, as in
// "up.sql"; when empty the last dot starts the extension.
func NewMigrationFromFile(path, ext string, deps []Dependency) Factory {
	return func() (*Migration, error) {
		return &Migration{
			App:          AppFromPath(path),
			Name:         NameFromPath(path, ext),
			Path:         path,
			Dependencies: deps,
		}, nil
	}
}

func New(app, name string, deps ...Dependency) Factory {
	return func() (*Migration, error) {
		return &Migration{
			App:          app,
			Name:         name,
			Dependencies: deps,
		}, nil
	}
}

func AppFromPath(path string) string {
	return filepath.Base(filepath.Dir(filepath.Dir(path)))
}

func NameFromPath(path, ext string) string {
	base := filepath.Base(path)

	ext = strings.TrimPrefix(ext, ".")
	if ext != "" && strings.HasSuffix(base, "."+ext) {
		return strings.TrimSuffix(base, "."+ext)
	}

	return strings.TrimSuffix(base, filepath.Ext(base))
}

type Migrations []*Migration

func NewMigrations(factories ...Factory) (Migrations, error) {
	migrations := make(Migrations, len(factories))

	for i := range factories {
		m, err := factories[i]()
		if err != nil {
			return nil, err
		}

		migrations[i] = m
	}

	return migrations, nil
}

func (m Migrations) Keys() (result []string) {
	for i := range m {
		result = append(result, m[i].Key())
	}
	return result
}

func (m Migrations) Len() int {
	return len(m)
}

// Less orders by app first and then by name, byte-wise. Migration names
// are zero padded sequence numbers, so byte order is also the order in
// which they were written. Path breaks ties between duplicates.
func (m Migrations) Less(i, j int) bool {
	if m[i].App != m[j].App {
		return m[i].App < m[j].App
	}

	if m[i].Name != m[j].Name {
		return m[i].Name < m[j].Name
	}

	return m[i].Path < m[j].Path
}

func (m Migrations) Swap(i, j int) {
	m[i], m[j] = m[j], m[i]
}

// Ordered returns a sorted copy, leaving m untouched
func (m Migrations) Ordered() Migrations {
	result := make(Migrations, len(m))
	copy(result, m)
	sort.Stable(result)
	return result
}
