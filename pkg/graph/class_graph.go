// Package graph derives the class-level reference graph of a model: which
// entity classes point at which other classes through relational properties.
package graph

import (
	"sort"

	"github.com/ritzau/archmodel/pkg/model"
	"gonum.org/v1/gonum/graph/simple"
)

// Reference is one class-to-class edge and the properties that induce it
type Reference struct {
	Source     string
	Target     string
	Properties []string // Sorted, unique
}

// ClassGraph is a directed graph with one vertex per class name.
// Self references (a class pointing at itself) are kept aside because the
// underlying simple graph has no loops.
type ClassGraph struct {
	graph *simple.DirectedGraph
	ids   map[string]int64
	names []string // Indexed by graph id

	props map[[2]string]map[string]bool
	self  map[string]map[string]bool
}

// NewClassGraph creates an empty class graph
func NewClassGraph() *ClassGraph {
	return &ClassGraph{
		graph: simple.NewDirectedGraph(),
		ids:   make(map[string]int64),
		props: make(map[[2]string]map[string]bool),
		self:  make(map[string]map[string]bool),
	}
}

// Build creates the graph for a state: every entity class on the canvas is a
// vertex, and every relational property with a target class that is linked
// on an entity adds an edge from the entity's class to the target class.
func Build(s *model.State) *ClassGraph {
	cg := NewClassGraph()

	for _, n := range s.Nodes {
		if n.IsEntity() && n.Data.ClassName != "" {
			cg.AddClass(n.Data.ClassName)
		}
	}

	for _, n := range s.Nodes {
		if !n.IsEntity() || n.Data.ClassName == "" {
			continue
		}
		for _, pid := range n.Data.LinkedProperties {
			prop, ok := s.Property(pid)
			if !ok || !prop.Type.IsRelational() {
				continue
			}
			if target := prop.TargetClass(); target != "" {
				cg.AddReference(n.Data.ClassName, target, prop.ID)
			}
		}
	}

	return cg
}

// AddClass adds a vertex if it does not exist yet
func (cg *ClassGraph) AddClass(name string) {
	if _, exists := cg.ids[name]; exists {
		return
	}
	id := int64(len(cg.names))
	cg.ids[name] = id
	cg.names = append(cg.names, name)
	cg.graph.AddNode(simple.Node(id))
}

// AddReference records that class source refers to class target through propertyID
func (cg *ClassGraph) AddReference(source, target, propertyID string) {
	cg.AddClass(source)
	cg.AddClass(target)

	if source == target {
		if cg.self[source] == nil {
			cg.self[source] = make(map[string]bool)
		}
		cg.self[source][propertyID] = true
		return
	}

	from, to := cg.ids[source], cg.ids[target]
	if !cg.graph.HasEdgeFromTo(from, to) {
		cg.graph.SetEdge(cg.graph.NewEdge(cg.graph.Node(from), cg.graph.Node(to)))
	}

	key := [2]string{source, target}
	if cg.props[key] == nil {
		cg.props[key] = make(map[string]bool)
	}
	cg.props[key][propertyID] = true
}

// Graph returns the underlying directed graph
func (cg *ClassGraph) Graph() *simple.DirectedGraph {
	return cg.graph
}

// ID returns the graph id of a class
func (cg *ClassGraph) ID(name string) (int64, bool) {
	id, ok := cg.ids[name]
	return id, ok
}

// Name returns the class name for a graph id
func (cg *ClassGraph) Name(id int64) string {
	if id < 0 || id >= int64(len(cg.names)) {
		return ""
	}
	return cg.names[id]
}

// Classes returns every class name, sorted
func (cg *ClassGraph) Classes() []string {
	out := append([]string(nil), cg.names...)
	sort.Strings(out)
	return out
}

// References returns every class-to-class edge including self references,
// sorted by source then target
func (cg *ClassGraph) References() []Reference {
	refs := make([]Reference, 0, len(cg.props)+len(cg.self))
	for key, props := range cg.props {
		refs = append(refs, Reference{Source: key[0], Target: key[1], Properties: sortedKeys(props)})
	}
	for class, props := range cg.self {
		refs = append(refs, Reference{Source: class, Target: class, Properties: sortedKeys(props)})
	}
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Source != refs[j].Source {
			return refs[i].Source < refs[j].Source
		}
		return refs[i].Target < refs[j].Target
	})
	return refs
}

// SelfReferences returns the classes that refer to themselves, sorted
func (cg *ClassGraph) SelfReferences() []string {
	return sortedKeys(cg.self)
}

// Targets returns the classes that name refers to (excluding itself), sorted
func (cg *ClassGraph) Targets(name string) []string {
	id, ok := cg.ids[name]
	if !ok {
		return nil
	}
	var out []string
	iter := cg.graph.From(id)
	for iter.Next() {
		out = append(out, cg.names[iter.Node().ID()])
	}
	sort.Strings(out)
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
