package cycles

import (
	"sort"
	"strings"

	"github.com/ritzau/archmodel/pkg/graph"
)

// ReferenceCycle is a set of classes that refer to each other, directly or
// through other classes in the set. A self-referencing class is a cycle of one.
type ReferenceCycle struct {
	Classes []string `json:"classes"` // Sorted
}

// String renders the cycle as "A -> B -> A"
func (c ReferenceCycle) String() string {
	if len(c.Classes) == 0 {
		return ""
	}
	return strings.Join(append(append([]string(nil), c.Classes...), c.Classes[0]), " -> ")
}

// FindReferenceCycles finds every reference cycle in the class graph,
// sorted by their first class
func FindReferenceCycles(cg *graph.ClassGraph) []ReferenceCycle {
	tarjan := NewTarjanSCC(cg.Graph())

	cycles := make([]ReferenceCycle, 0)
	for _, scc := range tarjan.FindSCCs() {
		classes := make([]string, 0, len(scc))
		for _, id := range scc {
			if name := cg.Name(id); name != "" {
				classes = append(classes, name)
			}
		}
		sort.Strings(classes)
		cycles = append(cycles, ReferenceCycle{Classes: classes})
	}

	for _, class := range cg.SelfReferences() {
		cycles = append(cycles, ReferenceCycle{Classes: []string{class}})
	}

	sort.Slice(cycles, func(i, j int) bool {
		a, b := cycles[i].Classes, cycles[j].Classes
		if a[0] != b[0] {
			return a[0] < b[0]
		}
		return len(a) > len(b)
	})
	return cycles
}
