package validation

import (
	"testing"

	"github.com/ritzau/archmodel/pkg/model"
)

func TestValidateNode(t *testing.T) {
	tests := []struct {
		name       string
		kind       model.NodeKind
		className  string
		wantIssues int
	}{
		{"entity with class", model.NodeKindEntity, "CeRisk", 0},
		{"entity missing class", model.NodeKindEntity, "", 1},
		{"entity short class", model.NodeKindEntity, "R", 1},
		{"entity two chars", model.NodeKindEntity, "Rk", 0},
		{"group is never checked", model.NodeKindGroup, "", 0},
		{"annotation is never checked", model.NodeKindAnnotation, "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := ValidateNode(tt.kind, model.NodeData{ClassName: tt.className})
			if len(issues) != tt.wantIssues {
				t.Fatalf("Expected %d issues, got %d: %v", tt.wantIssues, len(issues), issues)
			}
			for _, issue := range issues {
				if issue.Severity != model.SeverityError {
					t.Errorf("Expected severity error, got %s", issue.Severity)
				}
			}
		})
	}
}

func TestRevalidateReplacesStaleIssues(t *testing.T) {
	n := &model.Node{ID: "n1", Kind: model.NodeKindEntity}
	Revalidate(n)
	if len(n.Data.ValidationIssues) != 1 {
		t.Fatalf("Expected 1 issue for empty class name, got %d", len(n.Data.ValidationIssues))
	}

	n.Data.ClassName = "Control"
	Revalidate(n)
	if len(n.Data.ValidationIssues) != 0 {
		t.Errorf("Expected issues to clear after fixing class name, got %v", n.Data.ValidationIssues)
	}
}
