// Package dispatch binds a fetched payload's matched nodes to the media
// templates that
// declared how to select them, windowed by a skip/count pagination range
// that accumulates across every template in declaration order.
package dispatch

import (
	"context"
	"fmt"

	"github.com/antflydb/xmlsource/internal/payload"
)

// Template is one provide/media template's selection rule: a
// query/select path (XPath for an XML payload, JSONPath-style for JSON)
// plus the XML namespace table it was declared under, if any.
type Template struct {
	Select     string
	Namespaces map[string]string
}

// Emit is called once per matched node that falls inside the requested
// skip/count window, with the index of the Template that produced it and
// the matched node itself.
type Emit func(templateIndex int, node payload.Node) error

// Dispatcher evaluates a Document against a set of Templates.
type Dispatcher struct{}

// New builds a Dispatcher. It is stateless; one instance may be shared.
func New() *Dispatcher {
	return &Dispatcher{}
}

// Dispatch evaluates every template against doc, in declaration order,
// accumulating a single running index across all of them, and calls emit
// for each match whose index falls in [skip, skip+count) - or
// [skip, +inf) when count <= 0, treating an omitted count as unbounded.
// It returns the total number of nodes matched
// across all templates, which a caller uses to tell whether more pages
// remain beyond the requested window.
func (d *Dispatcher) Dispatch(ctx context.Context, doc *payload.Document, templates []Template, skip, count int, emit Emit) (matched int, err error) {
	index := 0
	for ti, tmpl := range templates {
		if err := ctx.Err(); err != nil {
			return matched, err
		}

		nodes, err := doc.EvalAll(tmpl.Select, tmpl.Namespaces)
		if err != nil {
			return matched, fmt.Errorf("dispatch template %d (%q): %w", ti, tmpl.Select, err)
		}

		for _, node := range nodes {
			inWindow := index >= skip && (count <= 0 || index < skip+count)
			if inWindow {
				if err := emit(ti, node); err != nil {
					return matched + 1, err
				}
			}
			index++
			matched++
		}
	}
	return matched, nil
}
