// Package diff compares two model states. It is used to describe what an
// external edit of the project file changed before it replaces the state.
package diff

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/ritzau/archmodel/pkg/model"
)

// Selection and computed validation do not count as modifications
var contentEqual = cmp.Options{
	cmpopts.IgnoreFields(model.Node{}, "Selected"),
	cmpopts.IgnoreFields(model.NodeData{}, "ValidationIssues"),
	cmpopts.EquateEmpty(),
}

// Changes lists the ids that differ between two states, sorted
type Changes struct {
	Added    []string `json:"added"`
	Removed  []string `json:"removed"`
	Modified []string `json:"modified"`
}

// Empty reports whether nothing changed
func (c Changes) Empty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0 && len(c.Modified) == 0
}

// StateDiff represents the difference between two states
type StateDiff struct {
	Nodes      Changes `json:"nodes"`
	Edges      Changes `json:"edges"`
	Properties Changes `json:"properties"`
	Lists      Changes `json:"lists"`
	Metadata   bool    `json:"metadata"` // Project name or description changed
}

// Empty reports whether the states have the same content
func (d StateDiff) Empty() bool {
	return !d.Metadata && d.Nodes.Empty() && d.Edges.Empty() && d.Properties.Empty() && d.Lists.Empty()
}

// String renders a compact count summary, e.g. "nodes +1 ~2, edges -1"
func (d StateDiff) String() string {
	if d.Empty() {
		return "no changes"
	}
	var parts []string
	for _, part := range []struct {
		name string
		c    Changes
	}{
		{"nodes", d.Nodes},
		{"edges", d.Edges},
		{"properties", d.Properties},
		{"lists", d.Lists},
	} {
		if part.c.Empty() {
			continue
		}
		var counts []string
		if n := len(part.c.Added); n > 0 {
			counts = append(counts, fmt.Sprintf("+%d", n))
		}
		if n := len(part.c.Removed); n > 0 {
			counts = append(counts, fmt.Sprintf("-%d", n))
		}
		if n := len(part.c.Modified); n > 0 {
			counts = append(counts, fmt.Sprintf("~%d", n))
		}
		parts = append(parts, part.name+" "+strings.Join(counts, " "))
	}
	if d.Metadata {
		parts = append(parts, "metadata")
	}
	return strings.Join(parts, ", ")
}

// Compute computes the difference from before to after. A nil before
// counts as empty, so everything in after is added.
func Compute(before, after *model.State) StateDiff {
	if before == nil {
		before = model.EmptyState()
		before.ProjectName = after.ProjectName
	}
	return StateDiff{
		Nodes:      compare(index(before.Nodes, nodeID), index(after.Nodes, nodeID)),
		Edges:      compare(index(before.Edges, edgeID), index(after.Edges, edgeID)),
		Properties: compare(index(before.Properties, propertyID), index(after.Properties, propertyID)),
		Lists:      compare(index(before.Lists, listID), index(after.Lists, listID)),
		Metadata:   before.ProjectName != after.ProjectName || before.ProjectDescription != after.ProjectDescription,
	}
}

func nodeID(n *model.Node) string { return n.ID }
func edgeID(e *model.Edge) string { return e.ID }
func propertyID(p *model.GlobalProperty) string { return p.ID }
func listID(l *model.ListPropertySet) string { return l.ID }

func index[T any](items []T, id func(T) string) map[string]T {
	m := make(map[string]T, len(items))
	for _, item := range items {
		m[id(item)] = item
	}
	return m
}

func compare[T any](before, after map[string]T) Changes {
	c := Changes{
		Added:    make([]string, 0),
		Removed:  make([]string, 0),
		Modified: make([]string, 0),
	}

	// Find added and modified items
	for id, item := range after {
		prev, exists := before[id]
		if !exists {
			c.Added = append(c.Added, id)
			continue
		}
		if !cmp.Equal(prev, item, contentEqual) {
			c.Modified = append(c.Modified, id)
		}
	}

	// Find removed items
	for id := range before {
		if _, exists := after[id]; !exists {
			c.Removed = append(c.Removed, id)
		}
	}

	sort.Strings(c.Added)
	sort.Strings(c.Removed)
	sort.Strings(c.Modified)
	return c
}
