package output

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/ritzau/archmodel/pkg/analysis"
	"github.com/ritzau/archmodel/pkg/model"
)

// PrintModelReport prints a nicely formatted analysis report with colors
func PrintModelReport(w io.Writer, projectName string, r analysis.Report) {
	// Color definitions
	bold := color.New(color.Bold)
	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	// Header
	bold.Fprintln(w, "Ontology Model - Analysis Report")
	bold.Fprintln(w, "================================")
	fmt.Fprintf(w, "Project: %s\n", projectName)
	fmt.Fprintf(w, "Nodes: %d (%d entities, %d classes)\n", r.Summary.Nodes, r.Summary.Entities, r.Summary.Classes)
	fmt.Fprintf(w, "Edges: %d\n", r.Summary.Edges)
	fmt.Fprintf(w, "Ontology: %d properties, %d lists\n", r.Summary.Properties, r.Summary.Lists)
	fmt.Fprintln(w)

	if len(r.NodeIssues) > 0 {
		red.Fprintln(w, "VALIDATION ISSUES:")
		for _, ni := range r.NodeIssues {
			yellow.Fprintf(w, "  %s (%s)\n", ni.Label, ni.NodeID)
			for _, is := range ni.Issues {
				issueColor := yellow
				if is.Severity == model.SeverityError {
					issueColor = red
				}
				issueColor.Fprintf(w, "    %s: %s\n", is.Severity, is.Message)
			}
		}
		fmt.Fprintln(w)
	}

	if len(r.DanglingEdges) > 0 {
		red.Fprintln(w, "DANGLING EDGES:")
		for _, d := range r.DanglingEdges {
			fmt.Fprintf(w, "  %s -> %s: %s\n", d.EdgeID, d.PropertyID, d.Reason)
		}
		fmt.Fprintln(w)
	}

	if len(r.MissingProperties) > 0 {
		red.Fprintln(w, "MISSING PROPERTIES:")
		for _, m := range r.MissingProperties {
			fmt.Fprintf(w, "  %s links unknown property %s\n", m.NodeID, m.PropertyID)
		}
		fmt.Fprintln(w)
	}

	if len(r.Cycles) > 0 {
		yellow.Fprintln(w, "REFERENCE CYCLES:")
		for _, c := range r.Cycles {
			cyan.Fprintf(w, "  %s\n", c.String())
		}
		fmt.Fprintln(w)
	}

	if len(r.UnresolvedTargets) > 0 {
		yellow.Fprintln(w, "UNRESOLVED TARGET CLASSES:")
		for _, u := range r.UnresolvedTargets {
			fmt.Fprintf(w, "  %s -> %s\n", u.PropertyID, u.TargetClass)
			fmt.Fprintf(w, "    Suggestion: Draw a %s entity or retarget the property\n", u.TargetClass)
		}
		fmt.Fprintln(w)
	}

	if len(r.UnusedProperties) > 0 || len(r.UnusedLists) > 0 {
		cyan.Fprintln(w, "UNUSED (left out of the script):")
		for _, id := range r.UnusedProperties {
			fmt.Fprintf(w, "  property %s\n", id)
		}
		for _, id := range r.UnusedLists {
			fmt.Fprintf(w, "  list %s\n", id)
		}
		fmt.Fprintln(w)
	}

	// Summary with color based on the findings
	summaryColor := green
	if r.Warnings() > 0 {
		summaryColor = yellow
	}
	if !r.OK() {
		summaryColor = red
	}
	summaryColor.Fprintf(w, "Summary: %d error(s), %d warning(s)\n", r.Errors(), r.Warnings())

	if r.OK() && r.Warnings() == 0 {
		green.Fprintln(w, "✓ Model is consistent and ready to export!")
	}
}
