package store

import (
	"cmp"
	"slices"

	"github.com/ritzau/archmodel/pkg/model"
	"github.com/ritzau/archmodel/pkg/validation"
)

// Alignment is an edge or center line to align the selection on
type Alignment string

const (
	AlignLeft   Alignment = "left"
	AlignCenter Alignment = "center"
	AlignRight  Alignment = "right"
	AlignTop    Alignment = "top"
	AlignMiddle Alignment = "middle"
	AlignBottom Alignment = "bottom"
)

// Direction is the axis to distribute the selection along
type Direction string

const (
	DistributeHorizontal Direction = "horizontal"
	DistributeVertical   Direction = "vertical"
)

const (
	duplicateOffset = 50
	duplicateSuffix = " (Copy)"
)

// AddNode validates the node, appends it and selects it.
// Nodes without an id or with an id already in use are rejected.
func (s *Store) AddNode(node *model.Node) bool {
	if node == nil || node.ID == "" {
		return false
	}
	if s.state.NodeIndex(node.ID) >= 0 || s.state.EdgeIndex(node.ID) >= 0 {
		return false
	}

	validation.Revalidate(node)
	s.state.Nodes = append(s.state.Nodes, node)
	s.state.SelectedNodeID = node.ID
	return true
}

// DeleteNode removes a node or an edge, whichever collection holds id.
//
// Deleting a node removes its incident edges, unlinks the properties those
// edges carried from the surviving source nodes, and lifts its children into
// its own coordinate frame. Children are never deleted.
func (s *Store) DeleteNode(id string) bool {
	if i := s.state.NodeIndex(id); i >= 0 {
		s.deleteNodeAt(i)
		return true
	}
	if i := s.state.EdgeIndex(id); i >= 0 {
		s.deleteEdgeAt(i)
		return true
	}
	return false
}

func (s *Store) deleteNodeAt(index int) {
	node := s.state.Nodes[index]
	id := node.ID

	removed := s.removeEdges(func(e *model.Edge) bool {
		return e.Source == id || e.Target == id
	})
	for _, e := range removed {
		if e.Source != id && e.LinkedPropertyID != "" {
			s.releaseLink(e.Source, e.LinkedPropertyID)
		}
	}

	for _, child := range s.state.Nodes {
		if child.ParentID == id {
			child.Position = child.Position.Add(node.Position)
			child.ParentID = node.ParentID
		}
	}

	s.state.Nodes = slices.Delete(s.state.Nodes, index, index+1)

	if s.state.SelectedNodeID == id {
		s.state.SelectedNodeID = ""
	}
}

func (s *Store) deleteEdgeAt(index int) {
	edge := s.state.Edges[index]
	s.state.Edges = slices.Delete(s.state.Edges, index, index+1)

	if edge.LinkedPropertyID != "" {
		s.releaseLink(edge.Source, edge.LinkedPropertyID)
	}
	if s.state.SelectedEdgeID == edge.ID {
		s.state.SelectedEdgeID = ""
	}
}

// DeleteSelection deletes the selected node and the selected edge
func (s *Store) DeleteSelection() {
	if id := s.state.SelectedNodeID; id != "" {
		s.DeleteNode(id)
	}
	if id := s.state.SelectedEdgeID; id != "" {
		s.DeleteNode(id)
	}
}

// DuplicateNode copies a node next to the original and selects the copy.
// Edges are not duplicated. Returns the new id or "" if id is unknown.
func (s *Store) DuplicateNode(id string) string {
	original, ok := s.state.Node(id)
	if !ok {
		return ""
	}

	dup := original.Clone()
	dup.ID = s.newNodeID(original.Kind, "")
	dup.Position = original.Position.Add(model.Position{X: duplicateOffset, Y: duplicateOffset})
	dup.Data.Label = original.Data.Label + duplicateSuffix
	dup.Selected = true
	validation.Revalidate(dup)

	s.state.Nodes = append(s.state.Nodes, dup)
	s.state.SelectedNodeID = dup.ID
	return dup.ID
}

// ReparentNode moves a node into a group (parentID != "") or out of one
// (parentID == ""), converting its position between the absolute and the
// parent-relative frame so the node does not move on screen.
func (s *Store) ReparentNode(nodeID, parentID string) bool {
	node, ok := s.state.Node(nodeID)
	if !ok || node.ParentID == parentID {
		return false
	}

	var parent *model.Node
	if parentID != "" {
		parent, ok = s.state.Node(parentID)
		if !ok || s.isAncestor(nodeID, parent) {
			return false
		}
	}

	// Leave the current frame
	if node.ParentID != "" {
		if oldParent, ok := s.state.Node(node.ParentID); ok {
			node.Position = node.Position.Add(s.absolutePosition(oldParent))
		}
		node.ParentID = ""
	}

	// Enter the new one
	if parent != nil {
		node.Position = node.Position.Sub(s.absolutePosition(parent))
		node.ParentID = parent.ID
	}

	return true
}

// absolutePosition resolves a node's position through its chain of parents
func (s *Store) absolutePosition(n *model.Node) model.Position {
	pos := n.Position
	seen := map[string]bool{n.ID: true}
	for n.ParentID != "" && !seen[n.ParentID] {
		parent, ok := s.state.Node(n.ParentID)
		if !ok {
			break
		}
		seen[parent.ID] = true
		pos = pos.Add(parent.Position)
		n = parent
	}
	return pos
}

// isAncestor reports whether id is n itself or one of its parents
func (s *Store) isAncestor(id string, n *model.Node) bool {
	seen := make(map[string]bool)
	for n != nil && !seen[n.ID] {
		if n.ID == id {
			return true
		}
		seen[n.ID] = true
		next, ok := s.state.Node(n.ParentID)
		if !ok {
			return false
		}
		n = next
	}
	return false
}

// AlignNodes aligns every selected, unlocked node to the primary selection
func (s *Store) AlignNodes(alignment Alignment) bool {
	primary, ok := s.state.Node(s.state.SelectedNodeID)
	if !ok {
		return false
	}

	for _, n := range s.state.Nodes {
		if n.ID == primary.ID || !n.Selected || n.Data.Locked {
			continue
		}
		switch alignment {
		case AlignLeft:
			n.Position.X = primary.Position.X
		case AlignCenter:
			n.Position.X = primary.Position.X + primary.Width()/2 - n.Width()/2
		case AlignRight:
			n.Position.X = primary.Position.X + primary.Width() - n.Width()
		case AlignTop:
			n.Position.Y = primary.Position.Y
		case AlignMiddle:
			n.Position.Y = primary.Position.Y + primary.Height()/2 - n.Height()/2
		case AlignBottom:
			n.Position.Y = primary.Position.Y + primary.Height() - n.Height()
		}
	}
	return true
}

// DistributeNodes spaces the selected nodes evenly between the two outermost
// ones. At least three nodes must be selected. Locked nodes keep their place
// but still count as anchors.
func (s *Store) DistributeNodes(direction Direction) bool {
	var selected []*model.Node
	for _, n := range s.state.Nodes {
		if n.Selected {
			selected = append(selected, n)
		}
	}
	if len(selected) < 3 {
		return false
	}

	axis := func(n *model.Node) float64 {
		if direction == DistributeHorizontal {
			return n.Position.X
		}
		return n.Position.Y
	}

	slices.SortStableFunc(selected, func(a, b *model.Node) int {
		return cmp.Compare(axis(a), axis(b))
	})

	first := axis(selected[0])
	last := axis(selected[len(selected)-1])
	step := (last - first) / float64(len(selected)-1)

	for i, n := range selected {
		if n.Data.Locked {
			continue
		}
		if direction == DistributeHorizontal {
			n.Position.X = first + step*float64(i)
		} else {
			n.Position.Y = first + step*float64(i)
		}
	}
	return true
}

// Connect draws an edge from source to target.
//
// Connecting two entities infers a reference property named after the target
// (id "ref" + target class), links it to the source and makes the new edge
// carry it. The property is shared by every source that connects to the same
// class. Returns the id of the new (or already existing) edge.
func (s *Store) Connect(sourceID, targetID string) string {
	source, ok := s.state.Node(sourceID)
	if !ok {
		return ""
	}
	target, ok := s.state.Node(targetID)
	if !ok {
		return ""
	}

	var edge *model.Edge
	if source.IsEntity() && target.IsEntity() && target.Data.ClassName != "" {
		edge = s.connectEntities(source, target)
	} else {
		edge = s.connectPlain(source, target)
	}
	if edge == nil {
		return ""
	}

	s.SelectEdge(edge.ID)
	return edge.ID
}

func (s *Store) connectEntities(source, target *model.Node) *model.Edge {
	targetClass := target.Data.ClassName
	propID := "ref" + targetClass

	prop, exists := s.state.Property(propID)
	if !exists {
		prop = &model.GlobalProperty{
			ID:     propID,
			Name:   target.Data.Label,
			Type:   model.TypeReference,
			Config: model.ReferenceConfig{TargetClass: targetClass, MultiSelect: true},
		}
		s.state.Properties = append(s.state.Properties, prop)
	}

	if !source.Data.HasProperty(propID) {
		source.Data.LinkedProperties = append(source.Data.LinkedProperties, propID)
	}

	for _, e := range s.state.Edges {
		if e.Source == source.ID && e.Target == target.ID && e.LinkedPropertyID == propID {
			return e
		}
	}

	edge := s.propertyEdge(prop, source.ID, target.ID)
	s.state.Edges = append(s.state.Edges, edge)
	return edge
}

func (s *Store) connectPlain(source, target *model.Node) *model.Edge {
	for _, e := range s.state.Edges {
		if e.Source == source.ID && e.Target == target.ID && e.LinkedPropertyID == "" {
			return e
		}
	}

	edge := &model.Edge{
		ID:     s.newEdgeID(source.ID, target.ID),
		Source: source.ID,
		Target: target.ID,
		Kind:   model.EdgeAssociation,
	}
	s.state.Edges = append(s.state.Edges, edge)
	return edge
}

// UpdateNodeLabel changes the display label only
func (s *Store) UpdateNodeLabel(id, label string) bool {
	node, ok := s.state.Node(id)
	if !ok {
		return false
	}
	node.Data.Label = label
	return true
}

// NodeDataUpdate is a partial update of NodeData. Nil fields are left alone.
type NodeDataUpdate struct {
	Label          *string `json:"label,omitempty"`
	ClassName      *string `json:"className,omitempty"`
	Namespace      *string `json:"namespace,omitempty"`
	Icon           *string `json:"iconType,omitempty"`
	Color          *string `json:"color,omitempty"`
	Description    *string `json:"description,omitempty"`
	NameFieldLabel *string `json:"nameFieldLabel,omitempty"`
	DescFieldLabel *string `json:"descFieldLabel,omitempty"`
	Locked         *bool   `json:"locked,omitempty"`
}

// UpdateNodeMetadata applies a partial update and re-validates the node
func (s *Store) UpdateNodeMetadata(id string, u NodeDataUpdate) bool {
	node, ok := s.state.Node(id)
	if !ok {
		return false
	}

	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&node.Data.Label, u.Label)
	set(&node.Data.ClassName, u.ClassName)
	set(&node.Data.Namespace, u.Namespace)
	set(&node.Data.Icon, u.Icon)
	set(&node.Data.Color, u.Color)
	set(&node.Data.Description, u.Description)
	set(&node.Data.NameFieldLabel, u.NameFieldLabel)
	set(&node.Data.DescFieldLabel, u.DescFieldLabel)
	if u.Locked != nil {
		node.Data.Locked = *u.Locked
	}

	validation.Revalidate(node)
	return true
}

// UpdateNodeZIndex changes the stacking order of a node
func (s *Store) UpdateNodeZIndex(id string, zIndex int) bool {
	node, ok := s.state.Node(id)
	if !ok {
		return false
	}
	node.ZIndex = zIndex
	return true
}

// ToggleLock flips the lock flag; locked nodes ignore drags, align and distribute
func (s *Store) ToggleLock(id string) bool {
	node, ok := s.state.Node(id)
	if !ok {
		return false
	}
	node.Data.Locked = !node.Data.Locked
	return true
}

// EdgeDataUpdate is a partial update of an edge. Nil fields are left alone.
type EdgeDataUpdate struct {
	Label       *string            `json:"label,omitempty"`
	Kind        *model.EdgeKind    `json:"type,omitempty"`
	Cardinality *model.Cardinality `json:"cardinality,omitempty"`
	Reverse     *bool              `json:"isReverse,omitempty"`
}

// UpdateEdgeData edits an edge. Cardinality and direction of a property edge
// are written back to the property, and every edge of that property follows.
func (s *Store) UpdateEdgeData(id string, u EdgeDataUpdate) bool {
	edge, ok := s.state.Edge(id)
	if !ok {
		return false
	}

	if u.Label != nil {
		edge.Label = *u.Label
	}
	if u.Kind != nil {
		edge.Kind = *u.Kind
	}

	prop, linked := s.state.Property(edge.LinkedPropertyID)
	linked = linked && prop.Type.IsRelational()

	if u.Cardinality != nil {
		edge.Cardinality = *u.Cardinality
		edge.DisplayLabel = string(*u.Cardinality)
		if linked {
			ref, _ := prop.Reference()
			ref.MultiSelect = *u.Cardinality != model.CardinalityOne
			prop.Config = ref
		}
	}

	if u.Reverse != nil {
		edge.Reverse = *u.Reverse
		edge.Dashed = *u.Reverse
		if linked {
			if *u.Reverse {
				prop.Type = model.TypeReverseReference
			} else {
				prop.Type = model.TypeReference
			}
		}
	}

	if linked && (u.Cardinality != nil || u.Reverse != nil) {
		s.syncPropertyEdges(prop)
	}
	return true
}

// ClearCanvas removes every node and edge. The ontology is kept.
func (s *Store) ClearCanvas() {
	s.state.Nodes = make([]*model.Node, 0)
	s.state.Edges = make([]*model.Edge, 0)
	s.state.SelectedNodeID = ""
	s.state.SelectedEdgeID = ""
	s.state.SelectedPropertyID = ""
}

// LoadGraph replaces nodes and edges wholesale, re-validating every node.
// Nil entries are dropped.
func (s *Store) LoadGraph(nodes []*model.Node, edges []*model.Edge) {
	nodes = slices.DeleteFunc(slices.Clone(nodes), func(n *model.Node) bool { return n == nil })
	edges = slices.DeleteFunc(slices.Clone(edges), func(e *model.Edge) bool { return e == nil })
	if nodes == nil {
		nodes = make([]*model.Node, 0)
	}
	if edges == nil {
		edges = make([]*model.Edge, 0)
	}
	for _, n := range nodes {
		validation.Revalidate(n)
	}
	s.state.Nodes = nodes
	s.state.Edges = edges
	s.state.SelectedNodeID = ""
	s.state.SelectedEdgeID = ""
}
