package validation

import "github.com/ritzau/archmodel/pkg/model"

// MinClassNameLength is the shortest class name the target platform accepts
const MinClassNameLength = 2

// ValidateNode computes the structural issues of a node's data.
// Only entity nodes are checked; groups and annotations are cosmetic.
func ValidateNode(kind model.NodeKind, data model.NodeData) []model.ValidationIssue {
	issues := make([]model.ValidationIssue, 0)

	if kind != model.NodeKindEntity {
		return issues
	}

	if len(data.ClassName) < MinClassNameLength {
		issues = append(issues, model.ValidationIssue{
			Severity: model.SeverityError,
			Message:  "Class Name required.",
		})
	}

	return issues
}

// Revalidate refreshes the issue list stored on the node
func Revalidate(n *model.Node) {
	n.Data.ValidationIssues = ValidateNode(n.Kind, n.Data)
}
