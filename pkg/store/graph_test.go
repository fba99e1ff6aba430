package store

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ritzau/archmodel/pkg/idgen"
	"github.com/ritzau/archmodel/pkg/model"
)

func newTestStore() *Store {
	return New(model.EmptyState(), idgen.NewSequence())
}

func entity(id, className string, x, y float64) *model.Node {
	return &model.Node{
		ID:       id,
		Kind:     model.NodeKindEntity,
		Position: model.Position{X: x, Y: y},
		Data: model.NodeData{
			Label:     className + " label",
			ClassName: className,
		},
	}
}

func group(id string, x, y float64) *model.Node {
	return &model.Node{
		ID:       id,
		Kind:     model.NodeKindGroup,
		Position: model.Position{X: x, Y: y},
		Data:     model.NodeData{Label: "Group"},
	}
}

func mustNode(t *testing.T, s *Store, id string) *model.Node {
	t.Helper()
	n, ok := s.State().Node(id)
	if !ok {
		t.Fatalf("Node %s not found", id)
	}
	return n
}

// assertLinksConsistent checks that every property edge refers to an existing
// property which is linked on the edge's source node
func assertLinksConsistent(t *testing.T, s *Store) {
	t.Helper()
	st := s.State()
	for _, e := range st.Edges {
		if e.LinkedPropertyID == "" {
			continue
		}
		if _, ok := st.Property(e.LinkedPropertyID); !ok {
			t.Errorf("Edge %s carries unknown property %s", e.ID, e.LinkedPropertyID)
		}
		src, ok := st.Node(e.Source)
		if !ok {
			t.Errorf("Edge %s has unknown source %s", e.ID, e.Source)
			continue
		}
		if !src.Data.HasProperty(e.LinkedPropertyID) {
			t.Errorf("Edge %s carries %s but source %s does not link it", e.ID, e.LinkedPropertyID, e.Source)
		}
	}
}

func edgesOf(s *Store, propertyID string) []*model.Edge {
	var edges []*model.Edge
	for _, e := range s.State().Edges {
		if e.LinkedPropertyID == propertyID {
			edges = append(edges, e)
		}
	}
	return edges
}

func TestAddNodeValidatesAndSelects(t *testing.T) {
	s := newTestStore()

	if !s.AddNode(entity("a", "", 0, 0)) {
		t.Fatal("AddNode rejected a valid node")
	}

	n := mustNode(t, s, "a")
	if len(n.Data.ValidationIssues) != 1 {
		t.Errorf("Expected 1 validation issue for missing class name, got %d", len(n.Data.ValidationIssues))
	}
	if s.State().SelectedNodeID != "a" {
		t.Errorf("Expected new node to be selected, got %q", s.State().SelectedNodeID)
	}
}

func TestAddNodeRejectsDuplicateID(t *testing.T) {
	s := newTestStore()
	s.AddNode(entity("a", "Risk", 0, 0))

	if s.AddNode(entity("a", "Control", 10, 10)) {
		t.Error("Expected duplicate id to be rejected")
	}
	if len(s.State().Nodes) != 1 {
		t.Errorf("Expected 1 node, got %d", len(s.State().Nodes))
	}
}

func TestDeleteNodeLiftsChildrenToAbsoluteFrame(t *testing.T) {
	s := newTestStore()
	s.AddNode(group("A", 100, 100))
	child := entity("C", "Control", 10, 10)
	child.ParentID = "A"
	s.AddNode(child)

	if !s.DeleteNode("A") {
		t.Fatal("DeleteNode returned false for existing node")
	}

	c := mustNode(t, s, "C")
	if c.ParentID != "" {
		t.Errorf("Expected child to be unparented, got parent %q", c.ParentID)
	}
	if diff := cmp.Diff(model.Position{X: 110, Y: 110}, c.Position); diff != "" {
		t.Errorf("Child position mismatch (-want +got):\n%s", diff)
	}
	if s.State().SelectedNodeID != "" {
		t.Errorf("Expected selection to be cleared, got %q", s.State().SelectedNodeID)
	}
}

func TestDeleteNestedGroupKeepsChildInGrandparent(t *testing.T) {
	s := newTestStore()
	s.AddNode(group("G", 100, 100))
	inner := group("P", 20, 20)
	inner.ParentID = "G"
	s.AddNode(inner)
	child := entity("C", "Control", 5, 5)
	child.ParentID = "P"
	s.AddNode(child)

	s.DeleteNode("P")

	c := mustNode(t, s, "C")
	if c.ParentID != "G" {
		t.Errorf("Expected child to move to grandparent G, got %q", c.ParentID)
	}
	if c.Position != (model.Position{X: 25, Y: 25}) {
		t.Errorf("Expected position (25,25) relative to G, got %+v", c.Position)
	}
}

func TestDeleteTargetNodeStripsLinkFromSource(t *testing.T) {
	s := newTestStore()
	s.AddNode(entity("A", "Risk", 0, 0))
	s.AddNode(entity("B", "Control", 200, 0))
	s.Connect("A", "B")

	s.DeleteNode("B")

	if len(s.State().Edges) != 0 {
		t.Errorf("Expected incident edges to be removed, got %d", len(s.State().Edges))
	}
	if mustNode(t, s, "A").Data.HasProperty("refControl") {
		t.Error("Expected refControl to be unlinked from A")
	}
	if _, ok := s.State().Property("refControl"); !ok {
		t.Error("Expected the property itself to survive node deletion")
	}
	assertLinksConsistent(t, s)
}

func TestDeleteOneTargetKeepsLinkForRemainingEdges(t *testing.T) {
	s := newTestStore()
	s.AddNode(entity("A", "Risk", 0, 0))
	s.AddNode(entity("C1", "Control", 200, 0))
	s.AddNode(entity("C2", "Control", 200, 200))
	s.AddGlobalProperty(&model.GlobalProperty{
		ID:     "refControl",
		Name:   "Control",
		Type:   model.TypeReference,
		Config: model.ReferenceConfig{TargetClass: "Control", MultiSelect: true},
	})
	s.LinkExistingProperty("A", "refControl")

	s.DeleteNode("C1")

	if !mustNode(t, s, "A").Data.HasProperty("refControl") {
		t.Error("Expected A to keep refControl while an edge to C2 remains")
	}
	if got := len(edgesOf(s, "refControl")); got != 1 {
		t.Errorf("Expected 1 remaining edge, got %d", got)
	}
	assertLinksConsistent(t, s)
}

func TestDeleteEdgeStripsLinkFromSource(t *testing.T) {
	s := newTestStore()
	s.AddNode(entity("A", "Risk", 0, 0))
	s.AddNode(entity("B", "Control", 200, 0))
	edgeID := s.Connect("A", "B")

	if !s.DeleteNode(edgeID) {
		t.Fatal("DeleteNode returned false for existing edge")
	}

	if len(s.State().Edges) != 0 {
		t.Errorf("Expected edge to be removed, got %d edges", len(s.State().Edges))
	}
	if mustNode(t, s, "A").Data.HasProperty("refControl") {
		t.Error("Expected refControl to be unlinked from A")
	}
	if s.State().SelectedEdgeID != "" {
		t.Errorf("Expected edge selection to be cleared, got %q", s.State().SelectedEdgeID)
	}
}

func TestDeleteUnknownIDIsNoop(t *testing.T) {
	s := newTestStore()
	s.AddNode(entity("A", "Risk", 0, 0))
	before := s.State().Clone()

	if s.DeleteNode("missing") {
		t.Error("Expected DeleteNode to report false for unknown id")
	}
	if diff := cmp.Diff(before, s.State()); diff != "" {
		t.Errorf("State changed on no-op delete (-before +after):\n%s", diff)
	}
}

func TestDuplicateNode(t *testing.T) {
	s := newTestStore()
	a := entity("A", "Risk", 10, 20)
	a.Data.LinkedProperties = []string{"pImpact"}
	s.AddNode(a)
	s.AddNode(entity("B", "Control", 200, 0))
	s.Connect("A", "B")
	edgesBefore := len(s.State().Edges)

	id := s.DuplicateNode("A")
	if id == "" {
		t.Fatal("DuplicateNode returned empty id")
	}
	if id != "entity_2" {
		t.Errorf("Expected deterministic id entity_2, got %s", id)
	}

	dup := mustNode(t, s, id)
	if dup.Position != (model.Position{X: 60, Y: 70}) {
		t.Errorf("Expected offset position (60,70), got %+v", dup.Position)
	}
	if dup.Data.Label != "Risk label (Copy)" {
		t.Errorf("Expected suffixed label, got %q", dup.Data.Label)
	}
	if s.State().SelectedNodeID != id {
		t.Errorf("Expected duplicate to be selected")
	}
	if len(s.State().Edges) != edgesBefore {
		t.Errorf("Expected edges not to be duplicated, got %d want %d", len(s.State().Edges), edgesBefore)
	}

	// The copy must not share its property list with the original
	dup.Data.LinkedProperties[0] = "changed"
	if mustNode(t, s, "A").Data.LinkedProperties[0] != "pImpact" {
		t.Error("Duplicate shares linked properties with the original")
	}
}

func TestReparentRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		node   model.Position
		parent model.Position
	}{
		{"integers", model.Position{X: 150, Y: 220}, model.Position{X: 100, Y: 100}},
		{"negative", model.Position{X: -40, Y: 15}, model.Position{X: 300, Y: -75}},
		{"fractions", model.Position{X: 12.5, Y: -3.25}, model.Position{X: 100.75, Y: 40.5}},
		{"origin parent", model.Position{X: 7, Y: 9}, model.Position{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore()
			s.AddNode(group("P", tt.parent.X, tt.parent.Y))
			s.AddNode(entity("N", "Risk", tt.node.X, tt.node.Y))

			if !s.ReparentNode("N", "P") {
				t.Fatal("ReparentNode into P returned false")
			}
			n := mustNode(t, s, "N")
			if want := tt.node.Sub(tt.parent); n.Position != want {
				t.Errorf("Expected relative position %+v, got %+v", want, n.Position)
			}

			if !s.ReparentNode("N", "") {
				t.Fatal("ReparentNode out of P returned false")
			}
			if n.Position != tt.node || n.ParentID != "" {
				t.Errorf("Expected %+v without parent, got %+v parent=%q", tt.node, n.Position, n.ParentID)
			}
		})
	}
}

func TestReparentBetweenGroups(t *testing.T) {
	s := newTestStore()
	s.AddNode(group("P1", 100, 100))
	s.AddNode(group("P2", 400, 50))
	n := entity("N", "Risk", 10, 10)
	n.ParentID = "P1"
	s.AddNode(n)

	s.ReparentNode("N", "P2")

	// Absolute (110,110) expressed relative to P2
	if n.Position != (model.Position{X: -290, Y: 60}) || n.ParentID != "P2" {
		t.Errorf("Unexpected position %+v parent %q", n.Position, n.ParentID)
	}
}

func TestReparentNoops(t *testing.T) {
	s := newTestStore()
	s.AddNode(group("P", 100, 100))
	inner := group("Q", 10, 10)
	inner.ParentID = "P"
	s.AddNode(inner)
	s.AddNode(entity("N", "Risk", 5, 5))

	if s.ReparentNode("N", "") {
		t.Error("Expected leaving with no parent to be a no-op")
	}
	if s.ReparentNode("N", "missing") {
		t.Error("Expected unknown parent to be rejected")
	}
	if s.ReparentNode("P", "Q") {
		t.Error("Expected parenting a group into its own child to be rejected")
	}
	if s.ReparentNode("P", "P") {
		t.Error("Expected parenting a node into itself to be rejected")
	}
	if mustNode(t, s, "N").Position != (model.Position{X: 5, Y: 5}) {
		t.Error("Rejected reparent moved the node")
	}
}

func selectNodes(s *Store, ids ...string) {
	for _, id := range ids {
		if n, ok := s.State().Node(id); ok {
			n.Selected = true
		}
	}
}

func TestAlignNodes(t *testing.T) {
	s := newTestStore()
	primary := entity("P", "Risk", 100, 50)
	primary.Size = &model.Size{Width: 200, Height: 80}
	s.AddNode(primary)
	other := entity("O", "Control", 10, 300)
	other.Size = &model.Size{Width: 100, Height: 40}
	s.AddNode(other)
	locked := entity("L", "Vendor", 7, 7)
	locked.Data.Locked = true
	s.AddNode(locked)
	s.AddNode(entity("U", "Asset", 3, 3)) // not selected

	selectNodes(s, "P", "O", "L")
	s.SelectNode("P")

	tests := []struct {
		alignment Alignment
		want      model.Position
	}{
		{AlignLeft, model.Position{X: 100, Y: 300}},
		{AlignCenter, model.Position{X: 150, Y: 300}},
		{AlignRight, model.Position{X: 200, Y: 300}},
		{AlignTop, model.Position{X: 200, Y: 50}},
		{AlignMiddle, model.Position{X: 200, Y: 70}},
		{AlignBottom, model.Position{X: 200, Y: 90}},
	}
	for _, tt := range tests {
		if !s.AlignNodes(tt.alignment) {
			t.Fatalf("AlignNodes(%s) returned false", tt.alignment)
		}
		if got := mustNode(t, s, "O").Position; got != tt.want {
			t.Errorf("AlignNodes(%s): expected %+v, got %+v", tt.alignment, tt.want, got)
		}
	}

	if got := mustNode(t, s, "L").Position; got != (model.Position{X: 7, Y: 7}) {
		t.Errorf("Locked node moved to %+v", got)
	}
	if got := mustNode(t, s, "U").Position; got != (model.Position{X: 3, Y: 3}) {
		t.Errorf("Unselected node moved to %+v", got)
	}
}

func TestAlignWithoutPrimaryIsNoop(t *testing.T) {
	s := newTestStore()
	s.AddNode(entity("A", "Risk", 0, 0))
	s.SelectNode("")
	if s.AlignNodes(AlignLeft) {
		t.Error("Expected AlignNodes without primary selection to be rejected")
	}
}

func TestDistributeNodes(t *testing.T) {
	s := newTestStore()
	s.AddNode(entity("A", "Risk", 0, 0))
	s.AddNode(entity("B", "Risk", 90, 10))
	s.AddNode(entity("C", "Risk", 300, 20))
	s.AddNode(entity("D", "Risk", 120, 30))
	selectNodes(s, "A", "B", "C", "D")

	if !s.DistributeNodes(DistributeHorizontal) {
		t.Fatal("DistributeNodes returned false")
	}

	want := map[string]float64{"A": 0, "B": 100, "D": 200, "C": 300}
	for id, x := range want {
		if got := mustNode(t, s, id).Position.X; got != x {
			t.Errorf("Node %s: expected x=%v, got %v", id, x, got)
		}
	}
}

func TestDistributeSkipsLockedAndNeedsThree(t *testing.T) {
	s := newTestStore()
	s.AddNode(entity("A", "Risk", 0, 0))
	s.AddNode(entity("B", "Risk", 0, 10))
	selectNodes(s, "A", "B")

	if s.DistributeNodes(DistributeVertical) {
		t.Error("Expected distribute with 2 nodes to be rejected")
	}

	locked := entity("C", "Risk", 0, 15)
	locked.Data.Locked = true
	s.AddNode(locked)
	s.AddNode(entity("D", "Risk", 0, 90))
	selectNodes(s, "C", "D")

	s.DistributeNodes(DistributeVertical)

	if got := mustNode(t, s, "C").Position.Y; got != 15 {
		t.Errorf("Locked node moved to y=%v", got)
	}
	if got := mustNode(t, s, "B").Position.Y; got != 30 {
		t.Errorf("Expected B at y=30, got %v", got)
	}
}

func TestConnectInfersReferenceProperty(t *testing.T) {
	s := newTestStore()
	a := entity("A", "Risk", 0, 0)
	s.AddNode(a)
	b := entity("B", "Control", 200, 0)
	b.Data.Label = "Control"
	s.AddNode(b)

	edgeID := s.Connect("A", "B")
	if edgeID == "" {
		t.Fatal("Connect returned empty edge id")
	}

	st := s.State()
	if len(st.Properties) != 1 {
		t.Fatalf("Expected exactly 1 property, got %d", len(st.Properties))
	}
	prop := st.Properties[0]
	if prop.ID != "refControl" || prop.Name != "Control" || prop.Type != model.TypeReference {
		t.Errorf("Unexpected property %+v", prop)
	}
	if diff := cmp.Diff(model.ReferenceConfig{TargetClass: "Control", MultiSelect: true}, prop.Config); diff != "" {
		t.Errorf("Property config mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"refControl"}, a.Data.LinkedProperties); diff != "" {
		t.Errorf("Linked properties mismatch (-want +got):\n%s", diff)
	}

	if len(st.Edges) != 1 {
		t.Fatalf("Expected exactly 1 edge, got %d", len(st.Edges))
	}
	e := st.Edges[0]
	if e.ID != edgeID || e.Source != "A" || e.Target != "B" {
		t.Errorf("Unexpected edge %+v", e)
	}
	if e.Cardinality != model.CardinalityMany || e.DisplayLabel != "1:N" {
		t.Errorf("Expected cardinality 1:N, got %s (%s)", e.Cardinality, e.DisplayLabel)
	}
	if e.LinkedPropertyID != "refControl" {
		t.Errorf("Expected linked property refControl, got %q", e.LinkedPropertyID)
	}
	if st.SelectedEdgeID != edgeID || st.SelectedNodeID != "" {
		t.Errorf("Expected the new edge to be selected")
	}
	assertLinksConsistent(t, s)
}

func TestConnectReusesSharedProperty(t *testing.T) {
	s := newTestStore()
	s.AddNode(entity("A1", "Risk", 0, 0))
	s.AddNode(entity("A2", "Incident", 0, 100))
	s.AddNode(entity("B", "Control", 200, 0))

	s.Connect("A1", "B")
	s.Connect("A2", "B")
	s.Connect("A1", "B") // same connection again

	if got := len(s.State().Properties); got != 1 {
		t.Errorf("Expected one shared property, got %d", got)
	}
	if got := len(s.State().Edges); got != 2 {
		t.Errorf("Expected 2 edges, got %d", got)
	}
	assertLinksConsistent(t, s)
}

func TestConnectCosmeticNodesCreatesPlainEdge(t *testing.T) {
	s := newTestStore()
	s.AddNode(entity("A", "Risk", 0, 0))
	s.AddNode(&model.Node{ID: "note", Kind: model.NodeKindAnnotation})

	edgeID := s.Connect("A", "note")
	e, ok := s.State().Edge(edgeID)
	if !ok {
		t.Fatal("Expected a plain edge to be created")
	}
	if e.LinkedPropertyID != "" {
		t.Errorf("Expected no linked property, got %q", e.LinkedPropertyID)
	}
	if len(s.State().Properties) != 0 {
		t.Errorf("Expected no inferred property, got %d", len(s.State().Properties))
	}
	if s.Connect("A", "missing") != "" {
		t.Error("Expected connect to unknown node to be rejected")
	}
}

func TestUpdateNodeMetadataRevalidates(t *testing.T) {
	s := newTestStore()
	s.AddNode(entity("A", "", 0, 0))

	class := "Risk"
	locked := true
	s.UpdateNodeMetadata("A", NodeDataUpdate{ClassName: &class, Locked: &locked})

	n := mustNode(t, s, "A")
	if len(n.Data.ValidationIssues) != 0 {
		t.Errorf("Expected issues to clear, got %v", n.Data.ValidationIssues)
	}
	if !n.Data.Locked {
		t.Error("Expected node to be locked")
	}

	s.ToggleLock("A")
	if n.Data.Locked {
		t.Error("Expected ToggleLock to unlock")
	}
}

func TestUpdateEdgeDataWritesBackToProperty(t *testing.T) {
	s := newTestStore()
	s.AddNode(entity("A", "Risk", 0, 0))
	s.AddNode(entity("B", "Control", 200, 0))
	s.AddNode(entity("C", "Incident", 0, 200))
	e1 := s.Connect("A", "B")
	e2 := s.Connect("C", "B")

	one := model.CardinalityOne
	s.UpdateEdgeData(e1, EdgeDataUpdate{Cardinality: &one})

	prop, _ := s.State().Property("refControl")
	ref, _ := prop.Reference()
	if ref.MultiSelect {
		t.Error("Expected multiSelect to be cleared on the property")
	}
	for _, id := range []string{e1, e2} {
		e, _ := s.State().Edge(id)
		if e.Cardinality != model.CardinalityOne || e.DisplayLabel != "1:1" {
			t.Errorf("Edge %s: expected 1:1, got %s/%s", id, e.Cardinality, e.DisplayLabel)
		}
	}

	reverse := true
	s.UpdateEdgeData(e1, EdgeDataUpdate{Reverse: &reverse})
	if prop.Type != model.TypeReverseReference {
		t.Errorf("Expected property to become reverse reference, got %s", prop.Type)
	}
	for _, id := range []string{e1, e2} {
		e, _ := s.State().Edge(id)
		if !e.Reverse || !e.Dashed || e.Cardinality != model.CardinalityMany {
			t.Errorf("Edge %s not restyled as reverse: %+v", id, e)
		}
	}
}

func TestApplyNodeChangesRemoveCascades(t *testing.T) {
	s := newTestStore()
	s.AddNode(entity("A", "Risk", 0, 0))
	s.AddNode(entity("B", "Control", 200, 0))
	locked := entity("L", "Vendor", 1, 1)
	locked.Data.Locked = true
	s.AddNode(locked)
	s.Connect("A", "B")

	s.ApplyNodeChanges([]NodeChange{
		{Type: NodeChangePosition, ID: "A", Position: &model.Position{X: 5, Y: 6}},
		{Type: NodeChangePosition, ID: "L", Position: &model.Position{X: 50, Y: 60}},
		{Type: NodeChangeDimensions, ID: "A", Size: &model.Size{Width: 120, Height: 40}},
		{Type: NodeChangeSelect, ID: "A", Selected: true},
		{Type: NodeChangeRemove, ID: "B"},
		{Type: NodeChangePosition, ID: "missing", Position: &model.Position{}},
	})

	a := mustNode(t, s, "A")
	if a.Position != (model.Position{X: 5, Y: 6}) || a.Width() != 120 || !a.Selected {
		t.Errorf("Unexpected node A after changes: %+v", a)
	}
	if mustNode(t, s, "L").Position != (model.Position{X: 1, Y: 1}) {
		t.Error("Locked node accepted a position change")
	}
	if len(s.State().Edges) != 0 || a.Data.HasProperty("refControl") {
		t.Error("Expected remove change to cascade like DeleteNode")
	}
}

func TestApplyEdgeChanges(t *testing.T) {
	s := newTestStore()
	s.AddNode(entity("A", "Risk", 0, 0))
	s.AddNode(entity("B", "Control", 200, 0))
	edgeID := s.Connect("A", "B")
	s.SelectNode("A")

	s.ApplyEdgeChanges([]EdgeChange{{Type: EdgeChangeSelect, ID: edgeID, Selected: true}})
	if s.State().SelectedEdgeID != edgeID {
		t.Errorf("Expected edge to be selected")
	}

	s.ApplyEdgeChanges([]EdgeChange{{Type: EdgeChangeRemove, ID: edgeID}})
	if len(s.State().Edges) != 0 {
		t.Error("Expected edge to be removed")
	}
	if mustNode(t, s, "A").Data.HasProperty("refControl") {
		t.Error("Expected edge removal to unlink the property from its source")
	}
}

func TestClearCanvasKeepsOntology(t *testing.T) {
	s := New(model.NewState(), idgen.NewSequence())
	s.AddNode(entity("A", "Risk", 0, 0))
	s.AddNode(entity("B", "Control", 200, 0))
	s.Connect("A", "B")

	s.ClearCanvas()

	st := s.State()
	if len(st.Nodes) != 0 || len(st.Edges) != 0 {
		t.Errorf("Expected empty canvas, got %d nodes %d edges", len(st.Nodes), len(st.Edges))
	}
	if len(st.Properties) != 4 || len(st.Lists) != 3 {
		t.Errorf("Expected ontology to be kept, got %d properties %d lists", len(st.Properties), len(st.Lists))
	}
}

func TestLoadGraphDropsNilEntries(t *testing.T) {
	s := newTestStore()
	s.LoadGraph(
		[]*model.Node{nil, entity("A", "Risk", 0, 0), nil},
		[]*model.Edge{nil, {ID: "e1", Source: "A", Target: "A"}},
	)

	st := s.State()
	if len(st.Nodes) != 1 || st.Nodes[0].ID != "A" {
		t.Fatalf("Expected only node A, got %d nodes", len(st.Nodes))
	}
	if len(st.Edges) != 1 || st.Edges[0].ID != "e1" {
		t.Fatalf("Expected only edge e1, got %d edges", len(st.Edges))
	}
	// Must not panic on the loaded state
	_ = st.Clone()
}
