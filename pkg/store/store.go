// Package store owns the editor state tree and exposes every operation that
// mutates it. Graph operations (graph.go), ontology operations (ontology.go)
// and the clipboard (clipboard.go) all work on the same *model.State so the
// links between properties and edges can be kept consistent in a single call.
//
// Rejected mutations are silent no-ops. Methods report whether anything
// happened through their return values but never return errors.
package store

import (
	"fmt"

	"github.com/ritzau/archmodel/pkg/idgen"
	"github.com/ritzau/archmodel/pkg/model"
)

// Store applies editing operations to a state tree
type Store struct {
	state *model.State
	ids   idgen.Generator
}

// New creates a store over state. A nil state starts a fresh project with the
// default ontology; a nil generator uses random uuid tokens.
func New(state *model.State, ids idgen.Generator) *Store {
	if state == nil {
		state = model.NewState()
	}
	if ids == nil {
		ids = idgen.NewUUID()
	}
	return &Store{state: state, ids: ids}
}

// State returns the live state tree. Callers must not keep it across operations
// they do not control; use State().Clone() for a snapshot.
func (s *Store) State() *model.State {
	return s.state
}

// Replace swaps the whole state tree (used by undo/redo and project loading)
func (s *Store) Replace(state *model.State) {
	if state == nil {
		state = model.NewState()
	}
	s.state = state
}

// SelectNode makes id the primary node selection
func (s *Store) SelectNode(id string) {
	s.state.SelectedNodeID = id
	s.state.SelectedEdgeID = ""
	s.state.SelectedPropertyID = ""
}

// SelectEdge makes id the selected edge
func (s *Store) SelectEdge(id string) {
	s.state.SelectedEdgeID = id
	s.state.SelectedNodeID = ""
	s.state.SelectedPropertyID = ""
}

// SelectProperty focuses a property in the inspector. The node selection is kept.
func (s *Store) SelectProperty(id string) {
	s.state.SelectedPropertyID = id
	s.state.SelectedEdgeID = ""
}

// UpdateProjectMetadata changes the project name and/or description
func (s *Store) UpdateProjectMetadata(name, description *string) {
	if name != nil {
		s.state.ProjectName = *name
	}
	if description != nil {
		s.state.ProjectDescription = *description
	}
}

// newNodeID builds a node id that is not yet in use
func (s *Store) newNodeID(kind model.NodeKind, infix string) string {
	for {
		id := fmt.Sprintf("%s_%s%s", kind, infix, s.ids.Next())
		if s.state.NodeIndex(id) < 0 && s.state.EdgeIndex(id) < 0 {
			return id
		}
	}
}

// newEdgeID builds an edge id that is not yet in use
func (s *Store) newEdgeID(source, target string) string {
	for {
		id := fmt.Sprintf("e_%s_%s_%s", source, target, s.ids.Next())
		if s.state.EdgeIndex(id) < 0 && s.state.NodeIndex(id) < 0 {
			return id
		}
	}
}

// propertyEdge creates an edge that mirrors a relational property
func (s *Store) propertyEdge(prop *model.GlobalProperty, source, target string) *model.Edge {
	card := prop.EdgeCardinality()
	reverse := prop.Type.IsReverse()
	return &model.Edge{
		ID:               s.newEdgeID(source, target),
		Source:           source,
		Target:           target,
		Kind:             model.EdgeAssociation,
		Cardinality:      card,
		DisplayLabel:     string(card),
		LinkedPropertyID: prop.ID,
		Reverse:          reverse,
		Dashed:           reverse,
	}
}

// syncPropertyEdges makes every edge spawned by prop agree with it
func (s *Store) syncPropertyEdges(prop *model.GlobalProperty) {
	card := prop.EdgeCardinality()
	reverse := prop.Type.IsReverse()
	for _, e := range s.state.Edges {
		if e.LinkedPropertyID != prop.ID {
			continue
		}
		e.Cardinality = card
		e.DisplayLabel = string(card)
		e.Reverse = reverse
		e.Dashed = reverse
	}
}

// removeEdges drops every edge matching drop and returns the removed ones
func (s *Store) removeEdges(drop func(*model.Edge) bool) []*model.Edge {
	kept := make([]*model.Edge, 0, len(s.state.Edges))
	var removed []*model.Edge
	for _, e := range s.state.Edges {
		if drop(e) {
			removed = append(removed, e)
			continue
		}
		kept = append(kept, e)
	}
	s.state.Edges = kept

	for _, e := range removed {
		if s.state.SelectedEdgeID == e.ID {
			s.state.SelectedEdgeID = ""
		}
	}
	return removed
}

// releaseLink strips propertyID from the node once no edge from that node
// carries it anymore. A property with edges must stay linked to their source.
func (s *Store) releaseLink(nodeID, propertyID string) {
	for _, e := range s.state.Edges {
		if e.Source == nodeID && e.LinkedPropertyID == propertyID {
			return
		}
	}
	if node, ok := s.state.Node(nodeID); ok {
		node.Data.RemoveProperty(propertyID)
	}
}
