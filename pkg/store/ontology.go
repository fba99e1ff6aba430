package store

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"unicode"

	"github.com/ritzau/archmodel/pkg/logging"
	"github.com/ritzau/archmodel/pkg/model"
)

// AddGlobalProperty registers a property. Unknown types and id collisions are rejected.
func (s *Store) AddGlobalProperty(prop *model.GlobalProperty) bool {
	if prop == nil || prop.ID == "" || !prop.Type.Valid() {
		return false
	}
	if _, exists := s.state.Property(prop.ID); exists {
		return false
	}
	prop.Config = model.ConvertConfig(prop.Type, prop.Config)
	s.state.Properties = append(s.state.Properties, prop)
	return true
}

// PropertyUpdate is a partial update of a GlobalProperty. Nil fields are left
// alone; config fields that do not apply to the (new) type are ignored.
type PropertyUpdate struct {
	Name      *string             `json:"name,omitempty"`
	Type      *model.PropertyType `json:"type,omitempty"`
	ColorCode *string             `json:"colorCode,omitempty"`

	DecimalPlaces *int    `json:"decimalPlaces,omitempty"`
	FormatPostfix *string `json:"formatPostfix,omitempty"`
	TargetClass   *string `json:"targetClass,omitempty"`
	MultiSelect   *bool   `json:"multiSelect,omitempty"`
	ListID        *string `json:"listId,omitempty"`
	Expression    *string `json:"expression,omitempty"`
}

func (u PropertyUpdate) apply(cfg model.PropertyConfig) model.PropertyConfig {
	switch c := cfg.(type) {
	case model.NumberConfig:
		if u.DecimalPlaces != nil {
			c.DecimalPlaces = *u.DecimalPlaces
		}
		if u.FormatPostfix != nil {
			c.FormatPostfix = *u.FormatPostfix
		}
		return c
	case model.ListConfig:
		if u.ListID != nil {
			c.ListID = *u.ListID
		}
		return c
	case model.ReferenceConfig:
		if u.TargetClass != nil {
			c.TargetClass = *u.TargetClass
		}
		if u.MultiSelect != nil {
			c.MultiSelect = *u.MultiSelect
		}
		return c
	case model.ExtendedConfig:
		if u.Expression != nil {
			c.Expression = *u.Expression
		}
		return c
	}
	return cfg
}

// UpdateGlobalProperty applies a partial update and keeps the property's edges
// in sync with it:
//
//   - a multiSelect or direction change rewrites the cardinality and style of
//     every edge carrying the property;
//   - a new, non-empty target class rebuilds the property's edge set: all its
//     edges are dropped and one edge is created from every node linking the
//     property to every node of the new class (source-major order);
//   - a property that stops being relational loses its edges.
//
// Edges of other properties are never touched.
func (s *Store) UpdateGlobalProperty(id string, u PropertyUpdate) bool {
	prop, ok := s.state.Property(id)
	if !ok {
		return false
	}

	wasRelational := prop.Type.IsRelational()
	oldTarget := prop.TargetClass()

	if u.Name != nil {
		prop.Name = *u.Name
	}
	if u.ColorCode != nil {
		prop.ColorCode = *u.ColorCode
	}

	retyped := false
	if u.Type != nil && *u.Type != prop.Type && u.Type.Valid() {
		prop.Type = *u.Type
		prop.Config = model.ConvertConfig(prop.Type, prop.Config)
		retyped = true
	}
	prop.Config = u.apply(prop.Config)

	switch {
	case wasRelational && !prop.Type.IsRelational():
		s.removeEdges(func(e *model.Edge) bool { return e.LinkedPropertyID == id })
	case prop.Type.IsRelational():
		if target := prop.TargetClass(); target != "" && target != oldTarget {
			s.relink(prop)
		} else if u.MultiSelect != nil || retyped {
			s.syncPropertyEdges(prop)
		}
	}
	return true
}

// relink rebuilds the edge set of a relational property against its current target class
func (s *Store) relink(prop *model.GlobalProperty) {
	var sources []*model.Node
	for _, n := range s.state.Nodes {
		if n.Data.HasProperty(prop.ID) {
			sources = append(sources, n)
		}
	}

	removed := s.removeEdges(func(e *model.Edge) bool { return e.LinkedPropertyID == prop.ID })

	targets := s.state.NodesOfClass(prop.TargetClass())
	for _, src := range sources {
		for _, tgt := range targets {
			s.state.Edges = append(s.state.Edges, s.propertyEdge(prop, src.ID, tgt.ID))
		}
	}

	logging.Debug("relinked property",
		"property", prop.ID,
		"targetClass", prop.TargetClass(),
		"removed", len(removed),
		"created", len(sources)*len(targets))
}

// RenameGlobalProperty changes a property id and rewrites every reference to it.
// Renaming onto an existing id is rejected.
func (s *Store) RenameGlobalProperty(oldID, newID string) bool {
	if newID == "" || oldID == newID {
		return false
	}
	if _, taken := s.state.Property(newID); taken {
		return false
	}
	prop, ok := s.state.Property(oldID)
	if !ok {
		return false
	}

	prop.ID = newID

	for _, n := range s.state.Nodes {
		for i, pid := range n.Data.LinkedProperties {
			if pid == oldID {
				n.Data.LinkedProperties[i] = newID
			}
		}
		n.Data.LinkedProperties = dedupe(n.Data.LinkedProperties)
	}
	for _, e := range s.state.Edges {
		if e.LinkedPropertyID == oldID {
			e.LinkedPropertyID = newID
		}
	}
	if s.state.SelectedPropertyID == oldID {
		s.state.SelectedPropertyID = newID
	}
	return true
}

// DeleteGlobalProperty removes a property, unlinks it from every node and
// removes every edge carrying it
func (s *Store) DeleteGlobalProperty(id string) bool {
	_, exists := s.state.Property(id)
	s.removeProperties(map[string]bool{id: true})
	return exists
}

// removeProperties is the cascade shared by property and vocabulary deletion
func (s *Store) removeProperties(ids map[string]bool) {
	s.state.Properties = slices.DeleteFunc(s.state.Properties, func(p *model.GlobalProperty) bool {
		return ids[p.ID]
	})
	for _, n := range s.state.Nodes {
		n.Data.LinkedProperties = slices.DeleteFunc(n.Data.LinkedProperties, func(pid string) bool {
			return ids[pid]
		})
	}
	s.removeEdges(func(e *model.Edge) bool {
		return e.LinkedPropertyID != "" && ids[e.LinkedPropertyID]
	})
	if ids[s.state.SelectedPropertyID] {
		s.state.SelectedPropertyID = ""
	}
}

// AddListPropertySet registers a vocabulary; id collisions are rejected
func (s *Store) AddListPropertySet(list *model.ListPropertySet) bool {
	if list == nil || list.ID == "" {
		return false
	}
	if _, exists := s.state.List(list.ID); exists {
		return false
	}
	s.state.Lists = append(s.state.Lists, list)
	return true
}

// ListUpdate is a partial update of a vocabulary. A nil Items leaves the items alone.
type ListUpdate struct {
	Name  *string          `json:"name,omitempty"`
	Items []model.ListItem `json:"items,omitempty"`
}

// UpdateListPropertySet renames a vocabulary and/or replaces its items
func (s *Store) UpdateListPropertySet(id string, u ListUpdate) bool {
	list, ok := s.state.List(id)
	if !ok {
		return false
	}
	if u.Name != nil {
		list.Name = *u.Name
	}
	if u.Items != nil {
		list.Items = slices.Clone(u.Items)
	}
	return true
}

// DeleteListPropertySet removes a vocabulary and, through the property
// cascade, every list property that referenced it
func (s *Store) DeleteListPropertySet(id string) bool {
	_, exists := s.state.List(id)
	s.state.Lists = slices.DeleteFunc(s.state.Lists, func(l *model.ListPropertySet) bool {
		return l.ID == id
	})

	doomed := make(map[string]bool)
	for _, p := range s.state.Properties {
		if p.ListID() == id {
			doomed[p.ID] = true
		}
	}
	if len(doomed) > 0 {
		s.removeProperties(doomed)
	}
	return exists
}

// PropertyTemplate describes a property dropped onto a node
type PropertyTemplate struct {
	Type   model.PropertyType   `json:"type"`
	Label  string               `json:"label"`
	ListID string               `json:"listId,omitempty"`
	Config model.PropertyConfig `json:"-"`
}

// CreateAndLinkProperty creates a new property from a template and links it to
// the node. No edges are created. Returns the new property id, or "" when the
// node is unknown or the type is invalid.
func (s *Store) CreateAndLinkProperty(nodeID string, t PropertyTemplate) string {
	node, ok := s.state.Node(nodeID)
	if !ok || !t.Type.Valid() {
		return ""
	}

	id := s.newPropertyID(t.Label)
	cfg := model.ConvertConfig(t.Type, t.Config)

	switch c := cfg.(type) {
	case model.NumberConfig:
		if t.Type == model.TypeHistoricalNumber {
			c.DecimalPlaces = 2
		}
		cfg = c
	case model.ListConfig:
		if t.ListID != "" {
			c.ListID = t.ListID
		}
		cfg = c
	}

	s.state.Properties = append(s.state.Properties, &model.GlobalProperty{
		ID:     id,
		Name:   t.Label,
		Type:   t.Type,
		Config: cfg,
	})
	node.Data.LinkedProperties = append(node.Data.LinkedProperties, id)
	return id
}

// newPropertyID derives "p<Label>_<token>" from a label, unique among properties
func (s *Store) newPropertyID(label string) string {
	clean := strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return r
		}
		return -1
	}, label)

	for {
		id := fmt.Sprintf("p%s_%s", clean, s.ids.Next())
		if _, taken := s.state.Property(id); !taken {
			return id
		}
	}
}

// LinkExistingProperty attaches a property to a node. For a relational
// property with a target class, one edge is created to every node of that
// class unless an edge for the same (source, target, property) already exists.
func (s *Store) LinkExistingProperty(nodeID, propertyID string) bool {
	node, ok := s.state.Node(nodeID)
	if !ok {
		return false
	}
	prop, ok := s.state.Property(propertyID)
	if !ok {
		return false
	}

	if !node.Data.HasProperty(propertyID) {
		node.Data.LinkedProperties = append(node.Data.LinkedProperties, propertyID)
	}

	target := prop.TargetClass()
	if target == "" {
		return true
	}
	for _, tgt := range s.state.NodesOfClass(target) {
		if s.state.HasEdge(nodeID, tgt.ID, propertyID) {
			continue
		}
		s.state.Edges = append(s.state.Edges, s.propertyEdge(prop, nodeID, tgt.ID))
	}
	return true
}

// UnlinkProperty detaches a property from one node and removes the edges that
// node sourced for it. Other nodes sharing the property keep theirs.
func (s *Store) UnlinkProperty(nodeID, propertyID string) bool {
	node, ok := s.state.Node(nodeID)
	if !ok {
		return false
	}
	node.Data.RemoveProperty(propertyID)
	s.removeEdges(func(e *model.Edge) bool {
		return e.Source == nodeID && e.LinkedPropertyID == propertyID
	})
	return true
}

// AvailableClasses returns the distinct class names on the canvas, sorted
func (s *Store) AvailableClasses() []string {
	seen := make(map[string]bool)
	classes := make([]string, 0)
	for _, n := range s.state.Nodes {
		if !n.IsEntity() || n.Data.ClassName == "" || seen[n.Data.ClassName] {
			continue
		}
		seen[n.Data.ClassName] = true
		classes = append(classes, n.Data.ClassName)
	}
	sort.Strings(classes)
	return classes
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
