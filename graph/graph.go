// Package graph assembles discovered migrations into a dependency graph.
//
// Migrations are grouped by app. Apps are ordered by name and the
// migrations of an app are ordered by migration name, byte-wise. Every
// migration implicitly follows its predecessor in that order, and
// explicitly follows each dependency it declares. The same ordered pair of
// migrations is never connected twice.
package graph

import (
	"github.com/denismitr/migraph/migration"
)

type EdgeKind string

const (
	// Implicit edges connect neighbours in an app's ordered sequence
	Implicit EdgeKind = "implicit"
	// Explicit edges come from declared dependencies
	Explicit EdgeKind = "explicit"
)

type (
	Edge struct {
		From migration.Ref
		To   migration.Ref
		Kind EdgeKind
	}

	App struct {
		Name       string
		Migrations migration.Migrations
	}

	// Graph is immutable once built
	Graph struct {
		apps       []*App
		nodes      map[migration.Ref]*migration.Migration
		incoming   map[migration.Ref][]Edge
		edges      []Edge
		dangling   []Edge
		duplicates migration.Migrations
	}

	pair struct {
		from, to migration.Ref
	}
)

func Build(migrations migration.Migrations) *Graph {
	g := &Graph{
		nodes:    make(map[migration.Ref]*migration.Migration, len(migrations)),
		incoming: make(map[migration.Ref][]Edge, len(migrations)),
	}

	var current *App
	for _, m := range migrations.Ordered() {
		if _, ok := g.nodes[m.Ref()]; ok {
			g.duplicates = append(g.duplicates, m)
			continue
		}

		g.nodes[m.Ref()] = m

		if current == nil || current.Name != m.App {
			current = &App{Name: m.App}
			g.apps = append(g.apps, current)
		}

		current.Migrations = append(current.Migrations, m)
	}

	seen := make(map[pair]bool)
	connect := func(from, to migration.Ref, kind EdgeKind) {
		p := pair{from: from, to: to}
		if seen[p] {
			return
		}

		seen[p] = true
		e := Edge{From: from, To: to, Kind: kind}
		g.edges = append(g.edges, e)
		g.incoming[to] = append(g.incoming[to], e)

		if _, ok := g.nodes[from]; !ok {
			g.dangling = append(g.dangling, e)
		}
	}

	for _, app := range g.apps {
		for i, m := range app.Migrations {
			if i > 0 {
				prev := app.Migrations[i-1].Ref()
				// an explicit dependency on the predecessor replaces the chain edge
				if !m.DependsOn(prev) {
					connect(prev, m.Ref(), Implicit)
				}
			}

			for _, dep := range m.Dependencies {
				connect(dep, m.Ref(), Explicit)
			}
		}
	}

	return g
}

// Apps returns the apps in name order, each with its migrations in order
func (g *Graph) Apps() []*App {
	return g.apps
}

// Incoming returns the edges pointing at ref: the chain edge from the
// predecessor first, followed by declared dependencies in source order.
func (g *Graph) Incoming(ref migration.Ref) []Edge {
	return g.incoming[ref]
}

func (g *Graph) Edges() []Edge {
	return g.edges
}

func (g *Graph) Migration(ref migration.Ref) (*migration.Migration, bool) {
	m, ok := g.nodes[ref]
	return m, ok
}

// Dangling returns the edges whose source was never discovered
func (g *Graph) Dangling() []Edge {
	return g.dangling
}

// Duplicates returns the migrations dropped because another file already
// resolved to the same app and name
func (g *Graph) Duplicates() migration.Migrations {
	return g.duplicates
}

func (g *Graph) Len() int {
	return len(g.nodes)
}

func (g *Graph) IsEmpty() bool {
	return len(g.nodes) == 0
}
