// Package analysis inspects a model for problems the editor tolerates but a
// modeler wants to know about before exporting the script.
package analysis

import (
	"slices"
	"sort"
	"strings"

	"github.com/ritzau/archmodel/pkg/cycles"
	"github.com/ritzau/archmodel/pkg/graph"
	"github.com/ritzau/archmodel/pkg/model"
)

// builtinClasses exist on the target platform without being drawn
var builtinClasses = map[string]bool{"user": true}

// Summary counts the parts of the model
type Summary struct {
	Nodes      int `json:"nodes"`
	Entities   int `json:"entities"`
	Edges      int `json:"edges"`
	Properties int `json:"properties"`
	Lists      int `json:"lists"`
	Classes    int `json:"classes"`
}

// NodeIssues are the validation issues of one node
type NodeIssues struct {
	NodeID string                  `json:"nodeId"`
	Label  string                  `json:"label"`
	Issues []model.ValidationIssue `json:"issues"`
}

// UnresolvedTarget is a relational property pointing at a class nobody drew
type UnresolvedTarget struct {
	PropertyID  string `json:"propertyId"`
	TargetClass string `json:"targetClass"`
}

// ClassReferences lists the classes one class points at through its
// relational properties. Drawn is false for classes only known as targets.
type ClassReferences struct {
	Class   string   `json:"class"`
	Drawn   bool     `json:"drawn"`
	Targets []string `json:"targets"`
}

// DanglingEdge is a property edge whose property is gone or no longer linked on its source
type DanglingEdge struct {
	EdgeID     string `json:"edgeId"`
	PropertyID string `json:"propertyId"`
	Reason     string `json:"reason"`
}

// MissingProperty is a node link to a property id that does not exist
type MissingProperty struct {
	NodeID     string `json:"nodeId"`
	PropertyID string `json:"propertyId"`
}

// Report is the result of Analyze
type Report struct {
	Summary           Summary                 `json:"summary"`
	Classes           []ClassReferences       `json:"classes"`
	NodeIssues        []NodeIssues            `json:"nodeIssues"`
	Cycles            []cycles.ReferenceCycle `json:"cycles"`
	UnresolvedTargets []UnresolvedTarget      `json:"unresolvedTargets"`
	DanglingEdges     []DanglingEdge          `json:"danglingEdges"`
	MissingProperties []MissingProperty       `json:"missingProperties"`
	UnusedProperties  []string                `json:"unusedProperties"`
	UnusedLists       []string                `json:"unusedLists"`
}

// Errors counts findings that make the model inconsistent or not exportable as drawn
func (r *Report) Errors() int {
	n := len(r.DanglingEdges) + len(r.MissingProperties)
	for _, ni := range r.NodeIssues {
		for _, is := range ni.Issues {
			if is.Severity == model.SeverityError {
				n++
			}
		}
	}
	return n
}

// Warnings counts findings that are legal but probably unintended
func (r *Report) Warnings() int {
	n := len(r.Cycles) + len(r.UnresolvedTargets) + len(r.UnusedProperties) + len(r.UnusedLists)
	for _, ni := range r.NodeIssues {
		for _, is := range ni.Issues {
			if is.Severity == model.SeverityWarning {
				n++
			}
		}
	}
	return n
}

// OK reports whether the model has no errors
func (r *Report) OK() bool {
	return r.Errors() == 0
}

// Analyze builds a report for s. It never modifies s.
func Analyze(s *model.State) Report {
	cg := graph.Build(s)

	r := Report{
		Summary: Summary{
			Nodes:      len(s.Nodes),
			Edges:      len(s.Edges),
			Properties: len(s.Properties),
			Lists:      len(s.Lists),
		},
		Classes:           make([]ClassReferences, 0),
		NodeIssues:        make([]NodeIssues, 0),
		Cycles:            cycles.FindReferenceCycles(cg),
		UnresolvedTargets: make([]UnresolvedTarget, 0),
		DanglingEdges:     make([]DanglingEdge, 0),
		MissingProperties: make([]MissingProperty, 0),
		UnusedProperties:  make([]string, 0),
		UnusedLists:       make([]string, 0),
	}

	drawn := make(map[string]bool)
	linked := make(map[string]bool)
	for _, n := range s.Nodes {
		if n.IsEntity() {
			r.Summary.Entities++
			if n.Data.ClassName != "" {
				drawn[n.Data.ClassName] = true
			}
		}
		if len(n.Data.ValidationIssues) > 0 {
			r.NodeIssues = append(r.NodeIssues, NodeIssues{
				NodeID: n.ID,
				Label:  n.Data.Label,
				Issues: n.Data.ValidationIssues,
			})
		}
		for _, pid := range n.Data.LinkedProperties {
			linked[pid] = true
			if _, ok := s.Property(pid); !ok {
				r.MissingProperties = append(r.MissingProperties, MissingProperty{NodeID: n.ID, PropertyID: pid})
			}
		}
	}
	r.Summary.Classes = len(drawn)

	for _, class := range cg.Classes() {
		targets := cg.Targets(class)
		if targets == nil {
			targets = make([]string, 0)
		}
		r.Classes = append(r.Classes, ClassReferences{Class: class, Drawn: drawn[class], Targets: targets})
	}
	for _, ref := range cg.References() {
		if drawn[ref.Target] || builtinClasses[strings.ToLower(ref.Target)] {
			continue
		}
		for _, pid := range ref.Properties {
			if !slices.ContainsFunc(r.UnresolvedTargets, func(u UnresolvedTarget) bool { return u.PropertyID == pid }) {
				r.UnresolvedTargets = append(r.UnresolvedTargets, UnresolvedTarget{PropertyID: pid, TargetClass: ref.Target})
			}
		}
	}

	usedLists := make(map[string]bool)
	for _, p := range s.Properties {
		if !linked[p.ID] {
			r.UnusedProperties = append(r.UnusedProperties, p.ID)
			continue
		}
		if id := p.ListID(); id != "" {
			usedLists[id] = true
		}
	}
	for _, l := range s.Lists {
		if !usedLists[l.ID] {
			r.UnusedLists = append(r.UnusedLists, l.ID)
		}
	}

	for _, e := range s.Edges {
		if e.LinkedPropertyID == "" {
			continue
		}
		if _, ok := s.Property(e.LinkedPropertyID); !ok {
			r.DanglingEdges = append(r.DanglingEdges, DanglingEdge{EdgeID: e.ID, PropertyID: e.LinkedPropertyID, Reason: "unknown property"})
			continue
		}
		src, ok := s.Node(e.Source)
		if !ok || !src.Data.HasProperty(e.LinkedPropertyID) {
			r.DanglingEdges = append(r.DanglingEdges, DanglingEdge{EdgeID: e.ID, PropertyID: e.LinkedPropertyID, Reason: "not linked on source"})
		}
	}

	sort.Slice(r.UnresolvedTargets, func(i, j int) bool {
		return r.UnresolvedTargets[i].PropertyID < r.UnresolvedTargets[j].PropertyID
	})
	return r
}
