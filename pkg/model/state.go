package model

// State is the single mutable tree owned by an editing session.
// The graph, the ontology and the selection live side by side so every
// store operation can keep them consistent in one step.
type State struct {
	ProjectName        string
	ProjectDescription string

	Nodes      []*Node
	Edges      []*Edge
	Properties []*GlobalProperty
	Lists      []*ListPropertySet

	SelectedNodeID     string
	SelectedEdgeID     string
	SelectedPropertyID string

	// Clipboard holds the single copied node, if any
	Clipboard *Node
}

// EmptyState returns a state without nodes or ontology
func EmptyState() *State {
	return &State{
		ProjectName: "Untitled Project",
		Nodes:       make([]*Node, 0),
		Edges:       make([]*Edge, 0),
		Properties:  make([]*GlobalProperty, 0),
		Lists:       make([]*ListPropertySet, 0),
	}
}

// NewState returns an empty canvas with the default ontology seeded
func NewState() *State {
	s := EmptyState()
	s.Lists = DefaultLists()
	s.Properties = DefaultProperties()
	return s
}

// DefaultLists returns the vocabularies every new project starts with
func DefaultLists() []*ListPropertySet {
	return []*ListPropertySet{
		{
			ID:   "lStatus",
			Name: "Status",
			Items: []ListItem{
				{ID: "lStatus_draft", Name: "Draft"},
				{ID: "lStatus_progress", Name: "In Progress"},
				{ID: "lStatus_closed", Name: "Closed"},
			},
		},
		{
			ID:   "lPriority",
			Name: "Priority",
			Items: []ListItem{
				{ID: "lPriority_high", Name: "High"},
				{ID: "lPriority_med", Name: "Medium"},
				{ID: "lPriority_low", Name: "Low"},
			},
		},
		{
			ID:   "lApproval",
			Name: "Approval Status",
			Items: []ListItem{
				{ID: "lps_approved", Name: "Approved"},
				{ID: "lps_rejected", Name: "Rejected"},
				{ID: "lps_pending", Name: "Pending Review"},
			},
		},
	}
}

// DefaultProperties returns the properties every new project starts with
func DefaultProperties() []*GlobalProperty {
	return []*GlobalProperty{
		{
			ID:        "pImpact",
			Name:      "Impact",
			Type:      TypeHistoricalNumber,
			Config:    NumberConfig{DecimalPlaces: 0, FormatPostfix: " USD"},
			ColorCode: "#ef4444",
		},
		{
			ID:        "pProbability",
			Name:      "Probability",
			Type:      TypeHistoricalNumber,
			Config:    NumberConfig{DecimalPlaces: 2, FormatPostfix: "%"},
			ColorCode: "#3b82f6",
		},
		{
			ID:     "refOwner",
			Name:   "Owner",
			Type:   TypeReference,
			Config: ReferenceConfig{TargetClass: "user", MultiSelect: false},
		},
	}
}

// Clone returns a deep copy that shares no mutable memory with s
func (s *State) Clone() *State {
	c := *s

	c.Nodes = make([]*Node, len(s.Nodes))
	for i, n := range s.Nodes {
		c.Nodes[i] = n.Clone()
	}
	c.Edges = make([]*Edge, len(s.Edges))
	for i, e := range s.Edges {
		c.Edges[i] = e.Clone()
	}
	c.Properties = make([]*GlobalProperty, len(s.Properties))
	for i, p := range s.Properties {
		c.Properties[i] = p.Clone()
	}
	c.Lists = make([]*ListPropertySet, len(s.Lists))
	for i, l := range s.Lists {
		c.Lists[i] = l.Clone()
	}
	if s.Clipboard != nil {
		c.Clipboard = s.Clipboard.Clone()
	}

	return &c
}

// Node returns the node with the given id
func (s *State) Node(id string) (*Node, bool) {
	i := s.NodeIndex(id)
	if i < 0 {
		return nil, false
	}
	return s.Nodes[i], true
}

// NodeIndex returns the position of the node in s.Nodes or -1
func (s *State) NodeIndex(id string) int {
	for i, n := range s.Nodes {
		if n.ID == id {
			return i
		}
	}
	return -1
}

// Edge returns the edge with the given id
func (s *State) Edge(id string) (*Edge, bool) {
	i := s.EdgeIndex(id)
	if i < 0 {
		return nil, false
	}
	return s.Edges[i], true
}

// EdgeIndex returns the position of the edge in s.Edges or -1
func (s *State) EdgeIndex(id string) int {
	for i, e := range s.Edges {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// Property returns the global property with the given id
func (s *State) Property(id string) (*GlobalProperty, bool) {
	for _, p := range s.Properties {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

// List returns the vocabulary with the given id
func (s *State) List(id string) (*ListPropertySet, bool) {
	for _, l := range s.Lists {
		if l.ID == id {
			return l, true
		}
	}
	return nil, false
}

// NodesOfClass returns the entity nodes whose class name equals className, in collection order
func (s *State) NodesOfClass(className string) []*Node {
	var nodes []*Node
	for _, n := range s.Nodes {
		if n.IsEntity() && n.Data.ClassName == className {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// HasEdge reports whether an edge source -> target carrying propertyID exists
func (s *State) HasEdge(source, target, propertyID string) bool {
	for _, e := range s.Edges {
		if e.Source == source && e.Target == target && e.LinkedPropertyID == propertyID {
			return true
		}
	}
	return false
}
