package render

import (
	"bytes"
	"strings"

	"github.com/denismitr/migraph/graph"
	"github.com/pkg/errors"
)

var ErrInvalidDirection = errors.New("invalid diagram direction")
var ErrEmptyGraph = errors.New("nothing to render")

type Direction string

const (
	TopToBottom Direction = "TB"
	LeftToRight Direction = "LR"
	BottomToTop Direction = "BT"
	RightToLeft Direction = "RL"
)

var directions = []Direction{TopToBottom, LeftToRight, BottomToTop, RightToLeft}

// ParseDirection accepts the mermaid direction codes in any case, TD being
// an alias of TB. An empty string means TB.
func ParseDirection(s string) (Direction, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" || s == "TD" {
		return TopToBottom, nil
	}

	for _, d := range directions {
		if string(d) == s {
			return d, nil
		}
	}

	return "", errors.Wrapf(ErrInvalidDirection, "[%s]", s)
}

type Renderer interface {
	Render(g *graph.Graph) ([]byte, error)
}

type Mermaid struct {
	direction Direction
}

var _ Renderer = (*Mermaid)(nil)

func NewMermaid(d Direction) *Mermaid {
	if d == "" {
		d = TopToBottom
	}

	return &Mermaid{direction: d}
}

// Render writes a fenced mermaid flowchart with one subgraph per app.
// Inside a subgraph every migration is listed in order, each followed by
// the edges that point at it.
func (r *Mermaid) Render(g *graph.Graph) ([]byte, error) {
	if g == nil || g.IsEmpty() {
		return nil, ErrEmptyGraph
	}

	var buf bytes.Buffer

	buf.WriteString("```mermaid\n")
	buf.WriteString("flowchart ")
	buf.WriteString(string(r.direction))
	buf.WriteString("\n")

	for _, app := range g.Apps() {
		buf.WriteString("subgraph ")
		buf.WriteString(app.Name)
		buf.WriteString("\n")

		for _, m := range app.Migrations {
			buf.WriteString(m.Key())
			buf.WriteString("\n")

			for _, e := range g.Incoming(m.Ref()) {
				buf.WriteString(e.From.Key())
				buf.WriteString(" --> ")
				buf.WriteString(e.To.Key())
				buf.WriteString("\n")
			}
		}

		buf.WriteString("end\n")
	}

	buf.WriteString("```\n")

	return buf.Bytes(), nil
}
