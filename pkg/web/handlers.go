package web

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/ritzau/archmodel/pkg/model"
	"github.com/ritzau/archmodel/pkg/store"
)

// lookup reports whether an id resolves in the current state, answering 404 if not
func (s *Server) lookup(w http.ResponseWriter, kind, id string) bool {
	var found bool
	s.session.View(func(st *model.State) {
		switch kind {
		case "node":
			_, found = st.Node(id)
		case "edge":
			_, found = st.Edge(id)
		case "property":
			_, found = st.Property(id)
		case "list":
			_, found = st.List(id)
		}
	})
	if !found {
		http.Error(w, fmt.Sprintf("Unknown %s: %s", kind, id), http.StatusNotFound)
	}
	return found
}

func (s *Server) handleProjectMetadata(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.apply(w, r, "updateProjectMetadata", func(st *store.Store) {
		st.UpdateProjectMetadata(req.Name, req.Description)
	})
}

func (s *Server) handleLoadGraph(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Nodes []*model.Node `json:"nodes"`
		Edges []*model.Edge `json:"edges"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.apply(w, r, "loadGraph", func(st *store.Store) { st.LoadGraph(req.Nodes, req.Edges) })
}

func (s *Server) handleClearCanvas(w http.ResponseWriter, r *http.Request) {
	s.apply(w, r, "clearCanvas", func(st *store.Store) { st.ClearCanvas() })
}

func (s *Server) handleAddNode(w http.ResponseWriter, r *http.Request) {
	var node model.Node
	if !decode(w, r, &node) {
		return
	}
	if node.ID == "" || node.Kind == "" {
		http.Error(w, "Node id and type required", http.StatusBadRequest)
		return
	}
	s.applyCreate(w, r, "addNode", func(st *store.Store) string {
		if st.AddNode(&node) {
			return node.ID
		}
		return ""
	})
}

func (s *Server) handleNodeChanges(w http.ResponseWriter, r *http.Request) {
	var changes []store.NodeChange
	if !decode(w, r, &changes) {
		return
	}
	s.apply(w, r, "applyNodeChanges", func(st *store.Store) { st.ApplyNodeChanges(changes) })
}

func (s *Server) handleUpdateNode(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var update store.NodeDataUpdate
	if !decode(w, r, &update) || !s.lookup(w, "node", id) {
		return
	}
	s.apply(w, r, "updateNodeMetadata", func(st *store.Store) { st.UpdateNodeMetadata(id, update) })
}

func (s *Server) handleDeleteNode(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !s.lookup(w, "node", id) {
		return
	}
	s.apply(w, r, "deleteNode", func(st *store.Store) { st.DeleteNode(id) })
}

func (s *Server) handleNodeLabel(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req struct {
		Label string `json:"label"`
	}
	if !decode(w, r, &req) || !s.lookup(w, "node", id) {
		return
	}
	s.apply(w, r, "updateNodeLabel", func(st *store.Store) { st.UpdateNodeLabel(id, req.Label) })
}

func (s *Server) handleNodeZIndex(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req struct {
		ZIndex int `json:"zIndex"`
	}
	if !decode(w, r, &req) || !s.lookup(w, "node", id) {
		return
	}
	s.apply(w, r, "updateNodeZIndex", func(st *store.Store) { st.UpdateNodeZIndex(id, req.ZIndex) })
}

func (s *Server) handleToggleLock(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !s.lookup(w, "node", id) {
		return
	}
	s.apply(w, r, "toggleLock", func(st *store.Store) { st.ToggleLock(id) })
}

// handleReparent moves a node into a group, or to the top level when
// parentId is empty
func (s *Server) handleReparent(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req struct {
		ParentID string `json:"parentId"`
	}
	if !decode(w, r, &req) || !s.lookup(w, "node", id) {
		return
	}
	if req.ParentID != "" && !s.lookup(w, "node", req.ParentID) {
		return
	}
	s.apply(w, r, "reparentNode", func(st *store.Store) { st.ReparentNode(id, req.ParentID) })
}

func (s *Server) handleDuplicate(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !s.lookup(w, "node", id) {
		return
	}
	s.applyCreate(w, r, "duplicateNode", func(st *store.Store) string { return st.DuplicateNode(id) })
}

func (s *Server) handleLinkProperty(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req struct {
		PropertyID string `json:"propertyId"`
	}
	if !decode(w, r, &req) || !s.lookup(w, "node", id) || !s.lookup(w, "property", req.PropertyID) {
		return
	}
	s.apply(w, r, "linkExistingProperty", func(st *store.Store) { st.LinkExistingProperty(id, req.PropertyID) })
}

func (s *Server) handleCreateProperty(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var tmpl store.PropertyTemplate
	if !decode(w, r, &tmpl) || !s.lookup(w, "node", id) {
		return
	}
	if !tmpl.Type.Valid() {
		http.Error(w, fmt.Sprintf("Unknown property type: %s", tmpl.Type), http.StatusBadRequest)
		return
	}
	s.applyCreate(w, r, "createAndLinkProperty", func(st *store.Store) string {
		return st.CreateAndLinkProperty(id, tmpl)
	})
}

func (s *Server) handleUnlinkProperty(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, propertyID := vars["id"], vars["propertyId"]
	if !s.lookup(w, "node", id) {
		return
	}
	s.apply(w, r, "unlinkProperty", func(st *store.Store) { st.UnlinkProperty(id, propertyID) })
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Source string `json:"source"`
		Target string `json:"target"`
	}
	if !decode(w, r, &req) || !s.lookup(w, "node", req.Source) || !s.lookup(w, "node", req.Target) {
		return
	}
	s.applyCreate(w, r, "connect", func(st *store.Store) string { return st.Connect(req.Source, req.Target) })
}

func (s *Server) handleEdgeChanges(w http.ResponseWriter, r *http.Request) {
	var changes []store.EdgeChange
	if !decode(w, r, &changes) {
		return
	}
	s.apply(w, r, "applyEdgeChanges", func(st *store.Store) { st.ApplyEdgeChanges(changes) })
}

func (s *Server) handleUpdateEdge(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var update store.EdgeDataUpdate
	if !decode(w, r, &update) || !s.lookup(w, "edge", id) {
		return
	}
	s.apply(w, r, "updateEdgeData", func(st *store.Store) { st.UpdateEdgeData(id, update) })
}

// handleSelect sets the selection. Each field present replaces the
// corresponding selection; an empty string clears it.
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NodeID     *string `json:"nodeId"`
		EdgeID     *string `json:"edgeId"`
		PropertyID *string `json:"propertyId"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.apply(w, r, "select", func(st *store.Store) {
		if req.NodeID != nil {
			st.SelectNode(*req.NodeID)
		}
		if req.EdgeID != nil {
			st.SelectEdge(*req.EdgeID)
		}
		if req.PropertyID != nil {
			st.SelectProperty(*req.PropertyID)
		}
	})
}

func (s *Server) handleDeleteSelection(w http.ResponseWriter, r *http.Request) {
	s.apply(w, r, "deleteSelection", func(st *store.Store) { st.DeleteSelection() })
}

func (s *Server) handleAlign(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Alignment store.Alignment `json:"alignment"`
	}
	if !decode(w, r, &req) {
		return
	}
	switch req.Alignment {
	case store.AlignLeft, store.AlignCenter, store.AlignRight, store.AlignTop, store.AlignMiddle, store.AlignBottom:
	default:
		http.Error(w, fmt.Sprintf("Unknown alignment: %s", req.Alignment), http.StatusBadRequest)
		return
	}
	s.apply(w, r, "alignNodes", func(st *store.Store) { st.AlignNodes(req.Alignment) })
}

func (s *Server) handleDistribute(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Direction store.Direction `json:"direction"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Direction != store.DistributeHorizontal && req.Direction != store.DistributeVertical {
		http.Error(w, fmt.Sprintf("Unknown direction: %s", req.Direction), http.StatusBadRequest)
		return
	}
	s.apply(w, r, "distributeNodes", func(st *store.Store) { st.DistributeNodes(req.Direction) })
}

func (s *Server) handleCopy(w http.ResponseWriter, r *http.Request) {
	var copied bool
	s.session.Apply(r.Context(), "copySelection", func(st *store.Store) { copied = st.CopySelection() })
	writeJSON(w, http.StatusOK, MutationResponse{Changed: copied, Revision: s.session.Revision()})
}

func (s *Server) handlePaste(w http.ResponseWriter, r *http.Request) {
	s.applyCreate(w, r, "pasteSelection", func(st *store.Store) string { return st.PasteSelection() })
}

func (s *Server) handleAddProperty(w http.ResponseWriter, r *http.Request) {
	var prop model.GlobalProperty
	if !decode(w, r, &prop) {
		return
	}
	if prop.ID == "" {
		http.Error(w, "Property id required", http.StatusBadRequest)
		return
	}
	s.applyCreate(w, r, "addGlobalProperty", func(st *store.Store) string {
		if st.AddGlobalProperty(&prop) {
			return prop.ID
		}
		return ""
	})
}

func (s *Server) handleUpdateProperty(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var update store.PropertyUpdate
	if !decode(w, r, &update) || !s.lookup(w, "property", id) {
		return
	}
	if update.Type != nil && !update.Type.Valid() {
		http.Error(w, fmt.Sprintf("Unknown property type: %s", *update.Type), http.StatusBadRequest)
		return
	}
	s.apply(w, r, "updateGlobalProperty", func(st *store.Store) { st.UpdateGlobalProperty(id, update) })
}

func (s *Server) handleDeleteProperty(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !s.lookup(w, "property", id) {
		return
	}
	s.apply(w, r, "deleteGlobalProperty", func(st *store.Store) { st.DeleteGlobalProperty(id) })
}

func (s *Server) handleRenameProperty(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req struct {
		ID string `json:"id"`
	}
	if !decode(w, r, &req) || !s.lookup(w, "property", id) {
		return
	}
	s.applyCreate(w, r, "renameGlobalProperty", func(st *store.Store) string {
		if st.RenameGlobalProperty(id, req.ID) {
			return req.ID
		}
		return ""
	})
}

func (s *Server) handleAddList(w http.ResponseWriter, r *http.Request) {
	var list model.ListPropertySet
	if !decode(w, r, &list) {
		return
	}
	if list.ID == "" {
		http.Error(w, "List id required", http.StatusBadRequest)
		return
	}
	s.applyCreate(w, r, "addListPropertySet", func(st *store.Store) string {
		if st.AddListPropertySet(&list) {
			return list.ID
		}
		return ""
	})
}

func (s *Server) handleUpdateList(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var update store.ListUpdate
	if !decode(w, r, &update) || !s.lookup(w, "list", id) {
		return
	}
	s.apply(w, r, "updateListPropertySet", func(st *store.Store) { st.UpdateListPropertySet(id, update) })
}

func (s *Server) handleDeleteList(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !s.lookup(w, "list", id) {
		return
	}
	s.apply(w, r, "deleteListPropertySet", func(st *store.Store) { st.DeleteListPropertySet(id) })
}
