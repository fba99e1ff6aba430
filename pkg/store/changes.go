package store

import "github.com/ritzau/archmodel/pkg/model"

// NodeChangeType is the kind of change the canvas reports for a node
type NodeChangeType string

const (
	NodeChangePosition   NodeChangeType = "position"
	NodeChangeDimensions NodeChangeType = "dimensions"
	NodeChangeSelect     NodeChangeType = "select"
	NodeChangeRemove     NodeChangeType = "remove"
)

// NodeChange is one entry of a change list produced by the canvas
type NodeChange struct {
	Type     NodeChangeType  `json:"type"`
	ID       string          `json:"id"`
	Position *model.Position `json:"position,omitempty"`
	Size     *model.Size     `json:"dimensions,omitempty"`
	Selected bool            `json:"selected,omitempty"`
}

// EdgeChangeType is the kind of change the canvas reports for an edge
type EdgeChangeType string

const (
	EdgeChangeSelect EdgeChangeType = "select"
	EdgeChangeRemove EdgeChangeType = "remove"
)

// EdgeChange is one entry of an edge change list
type EdgeChange struct {
	Type     EdgeChangeType `json:"type"`
	ID       string         `json:"id"`
	Selected bool           `json:"selected,omitempty"`
}

// ApplyNodeChanges applies a canvas change list in order. Removals go through
// DeleteNode so edges, links and children are handled as for any deletion.
// Position changes of locked nodes are ignored.
func (s *Store) ApplyNodeChanges(changes []NodeChange) {
	for _, c := range changes {
		if c.Type == NodeChangeRemove {
			s.DeleteNode(c.ID)
			continue
		}

		node, ok := s.state.Node(c.ID)
		if !ok {
			continue
		}

		switch c.Type {
		case NodeChangePosition:
			if c.Position != nil && !node.Data.Locked {
				node.Position = *c.Position
			}
		case NodeChangeDimensions:
			if c.Size != nil {
				size := *c.Size
				node.Size = &size
			}
		case NodeChangeSelect:
			node.Selected = c.Selected
		}
	}
}

// ApplyEdgeChanges applies an edge change list in order
func (s *Store) ApplyEdgeChanges(changes []EdgeChange) {
	for _, c := range changes {
		switch c.Type {
		case EdgeChangeRemove:
			if s.state.EdgeIndex(c.ID) >= 0 {
				s.DeleteNode(c.ID)
			}
		case EdgeChangeSelect:
			if s.state.EdgeIndex(c.ID) < 0 {
				continue
			}
			if c.Selected {
				s.state.SelectedEdgeID = c.ID
			} else if s.state.SelectedEdgeID == c.ID {
				s.state.SelectedEdgeID = ""
			}
		}
	}
}
