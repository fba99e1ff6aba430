package model

import "slices"

// NodeKind represents the type of a canvas node
type NodeKind string

const (
	NodeKindEntity     NodeKind = "entity"     // Modeled business object class
	NodeKindGroup      NodeKind = "group"      // Container for other nodes (cosmetic)
	NodeKindAnnotation NodeKind = "annotation" // Free text note (cosmetic)
)

// Cardinality of a relationship between two entities
type Cardinality string

const (
	CardinalityOne  Cardinality = "1:1"
	CardinalityMany Cardinality = "1:N"
	CardinalityM2M  Cardinality = "M:N"
)

// EdgeKind represents the UML-ish flavor of an edge
type EdgeKind string

const (
	EdgeAssociation EdgeKind = "association"
	EdgeDependency  EdgeKind = "dependency"
	EdgeAggregation EdgeKind = "aggregation"
	EdgeComposition EdgeKind = "composition"
)

// Severity of a validation issue
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Position is a 2D point. For nodes with a parent it is relative to the parent.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p translated by o
func (p Position) Add(o Position) Position {
	return Position{X: p.X + o.X, Y: p.Y + o.Y}
}

// Sub returns p translated by -o
func (p Position) Sub(o Position) Position {
	return Position{X: p.X - o.X, Y: p.Y - o.Y}
}

// Size is the measured size of a node
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ValidationIssue is a structural problem attached to a node
type ValidationIssue struct {
	Severity Severity `json:"type"`
	Message  string   `json:"message"`
}

// NodeData holds the editable metadata of a node
type NodeData struct {
	Label       string `json:"label"`               // Display name
	ClassName   string `json:"className"`           // System name (e.g., "CeRiskAssessment")
	Namespace   string `json:"namespace"`           // Prefix (e.g., "ceras")
	Icon        string `json:"iconType,omitempty"`  // Icon tag (e.g., "shield", "chart")
	Color       string `json:"color,omitempty"`     // Background hex code
	Description string `json:"description,omitempty"`

	NameFieldLabel string `json:"nameFieldLabel,omitempty"` // Default: "name"
	DescFieldLabel string `json:"descFieldLabel,omitempty"` // Default: "description"

	// LinkedProperties holds GlobalProperty ids. Order is kept, duplicates are not added.
	LinkedProperties []string `json:"linkedProperties"`

	Locked           bool              `json:"locked,omitempty"`
	ValidationIssues []ValidationIssue `json:"validationIssues,omitempty"`
}

// HasProperty reports whether the property id is linked
func (d *NodeData) HasProperty(id string) bool {
	for _, p := range d.LinkedProperties {
		if p == id {
			return true
		}
	}
	return false
}

// RemoveProperty strips every occurrence of id and reports whether anything was removed
func (d *NodeData) RemoveProperty(id string) bool {
	kept := d.LinkedProperties[:0]
	removed := false
	for _, p := range d.LinkedProperties {
		if p == id {
			removed = true
			continue
		}
		kept = append(kept, p)
	}
	d.LinkedProperties = kept
	return removed
}

// Node represents a positioned element on the canvas
type Node struct {
	ID       string   `json:"id"`
	Kind     NodeKind `json:"type"`
	Position Position `json:"position"`
	Size     *Size    `json:"size,omitempty"`
	ParentID string   `json:"parentId,omitempty"` // Containing group, position is then relative
	ZIndex   int      `json:"zIndex,omitempty"`
	Selected bool     `json:"selected,omitempty"`
	Data     NodeData `json:"data"`
}

// IsEntity returns true for nodes that model a business class
func (n *Node) IsEntity() bool {
	return n.Kind == NodeKindEntity
}

// Width returns the measured width or 0
func (n *Node) Width() float64 {
	if n.Size == nil {
		return 0
	}
	return n.Size.Width
}

// Height returns the measured height or 0
func (n *Node) Height() float64 {
	if n.Size == nil {
		return 0
	}
	return n.Size.Height
}

// Clone returns a deep copy of the node
func (n *Node) Clone() *Node {
	c := *n
	if n.Size != nil {
		size := *n.Size
		c.Size = &size
	}
	c.Data.LinkedProperties = slices.Clone(n.Data.LinkedProperties)
	c.Data.ValidationIssues = slices.Clone(n.Data.ValidationIssues)
	return &c
}

// Edge represents a directed relationship between two nodes
type Edge struct {
	ID          string      `json:"id"`
	Source      string      `json:"source"`
	Target      string      `json:"target"`
	Kind        EdgeKind    `json:"type"`
	Cardinality Cardinality `json:"cardinality,omitempty"`

	// DisplayLabel is what the canvas renders; it mirrors the cardinality for property edges
	DisplayLabel string `json:"displayLabel,omitempty"`
	Label        string `json:"label,omitempty"` // Free text

	LinkedPropertyID string `json:"linkedPropertyId,omitempty"` // Property that spawned the edge
	Reverse          bool   `json:"isReverse,omitempty"`
	Dashed           bool   `json:"dashed,omitempty"`
}

// Clone returns a copy of the edge
func (e *Edge) Clone() *Edge {
	c := *e
	return &c
}

// ListItem is one selectable value of a list vocabulary
type ListItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ListPropertySet is a named, ordered vocabulary referenced by list-typed properties
type ListPropertySet struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Items []ListItem `json:"items"`
}

// Clone returns a deep copy of the vocabulary
func (l *ListPropertySet) Clone() *ListPropertySet {
	c := *l
	c.Items = slices.Clone(l.Items)
	return &c
}
