package store

import (
	"github.com/ritzau/archmodel/pkg/model"
	"github.com/ritzau/archmodel/pkg/validation"
)

const (
	pasteOffset = 30
	pasteSuffix = " Copy"
)

// CopySelection puts a snapshot of the selected node on the clipboard.
// The clipboard has a single slot; copying again replaces it.
func (s *Store) CopySelection() bool {
	node, ok := s.state.Node(s.state.SelectedNodeID)
	if !ok {
		return false
	}
	s.state.Clipboard = node.Clone()
	return true
}

// PasteSelection inserts a copy of the clipboard node and selects it.
// The clipboard is left intact so the same copy can be pasted repeatedly.
func (s *Store) PasteSelection() string {
	source := s.state.Clipboard
	if source == nil {
		return ""
	}

	pasted := source.Clone()
	pasted.ID = s.newNodeID(source.Kind, "copy_")
	pasted.Position = source.Position.Add(model.Position{X: pasteOffset, Y: pasteOffset})
	pasted.Data.Label = source.Data.Label + pasteSuffix
	if _, ok := s.state.Node(pasted.ParentID); !ok {
		pasted.ParentID = ""
	}
	validation.Revalidate(pasted)

	s.state.Nodes = append(s.state.Nodes, pasted)
	s.state.SelectedNodeID = pasted.ID
	return pasted.ID
}
