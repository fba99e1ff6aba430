// Package compiler turns a committed model snapshot into the define/call
// script dialect consumed by the target platform.
//
// Compilation never fails. Properties no node links, vocabularies no emitted
// property uses and links to unknown properties are left out, so the script
// never defines something it does not use nor references something it did
// not define. Identical input and options give byte-identical output.
package compiler

import (
	"strings"
	"time"

	"github.com/ritzau/archmodel/pkg/model"
)

// DefaultTitle is the first header line when Options.Title is empty
const DefaultTitle = "Visual Architect - Generated Specification"

const (
	listCategoryVar  = "_cat_lists"
	listCategoryID   = "generated_lists"
	listCategoryName = "Generated Lists"
	propertyCategory = "General Information"
	userClass        = "user"
)

// Snapshot is the read-only input of a compilation
type Snapshot struct {
	Nodes      []*model.Node
	Properties []*model.GlobalProperty
	Lists      []*model.ListPropertySet
}

// Options controls the header block
type Options struct {
	Title       string
	ProjectName string

	// GeneratedAt is written to the header when set. Leave it zero for
	// reproducible output.
	GeneratedAt time.Time
}

// CompileState compiles the committed part of a state tree
func CompileState(s *model.State, opts Options) string {
	return Compile(Snapshot{Nodes: s.Nodes, Properties: s.Properties, Lists: s.Lists}, opts)
}

// Compile emits, in order: the used list vocabularies, the used properties
// and one link statement per (node, used property).
func Compile(snap Snapshot, opts Options) string {
	b := NewScriptBuilder(header(opts))

	props, lists := prune(snap)

	if len(lists) > 0 {
		b.Comment("--- LIST PROPERTY SETS ---")
		b.Define(listCategoryVar, "root.portal", "add", "Category", Params{
			{Key: "id", Value: listCategoryID},
			{Key: "name", Value: listCategoryName},
		})
		b.NewLine()

		for _, list := range lists {
			writeList(b, list)
		}
	}

	if len(props) > 0 {
		b.Comment("--- GLOBAL PROPERTIES ---")
		b.NewLine()

		for _, prop := range props {
			b.Define(VarName(prop.ID), "root.property", "add", string(prop.Type), propertyParams(prop, lists))
		}
		b.NewLine()
	}

	if len(snap.Nodes) > 0 {
		b.Comment("--- OBJECT CONFIGURATION & LINKING ---")
		b.NewLine()

		used := make(map[string]bool, len(props))
		for _, p := range props {
			used[p.ID] = true
		}
		for _, node := range snap.Nodes {
			writeLinks(b, node, used)
		}
	}

	return b.String()
}

func header(opts Options) string {
	title := opts.Title
	if title == "" {
		title = DefaultTitle
	}
	lines := []string{title}
	if opts.ProjectName != "" {
		lines = append(lines, "Project: "+opts.ProjectName)
	}
	if !opts.GeneratedAt.IsZero() {
		lines = append(lines, "Generated: "+opts.GeneratedAt.UTC().Format(time.RFC3339))
	}
	return strings.Join(lines, "\n")
}

// prune returns the properties linked by at least one node and the
// vocabularies those properties reference, both in collection order
func prune(snap Snapshot) ([]*model.GlobalProperty, []*model.ListPropertySet) {
	linked := make(map[string]bool)
	for _, n := range snap.Nodes {
		for _, id := range n.Data.LinkedProperties {
			linked[id] = true
		}
	}

	var props []*model.GlobalProperty
	listIDs := make(map[string]bool)
	for _, p := range snap.Properties {
		if !linked[p.ID] {
			continue
		}
		props = append(props, p)
		if id := p.ListID(); id != "" {
			listIDs[id] = true
		}
	}

	var lists []*model.ListPropertySet
	for _, l := range snap.Lists {
		if listIDs[l.ID] {
			lists = append(lists, l)
		}
	}
	return props, lists
}

func writeList(b *ScriptBuilder, list *model.ListPropertySet) {
	v := VarName(list.ID)
	b.Define(v, listCategoryVar, "add", "ListPropertySet", Params{
		{Key: "id", Value: list.ID},
		{Key: "name", Value: list.Name},
	})

	b.Indent()
	for _, item := range list.Items {
		b.Call(v, "add", "ListPropertySetItem", Params{
			{Key: "id", Value: item.ID},
			{Key: "name", Value: item.Name},
		})
	}
	b.Outdent()
	b.NewLine()
}

// propertyParams builds the keyword arguments for one property definition.
// Only the arguments meaningful for the property's config variant are added.
func propertyParams(prop *model.GlobalProperty, lists []*model.ListPropertySet) Params {
	params := Params{
		{Key: "id", Value: prop.ID},
		{Key: "name", Value: prop.Name},
		{Key: "category", Value: propertyCategory},
	}

	switch cfg := prop.Config.(type) {
	case model.NumberConfig:
		params.Set("decimalPlaces", cfg.DecimalPlaces)
		if cfg.FormatPostfix != "" {
			params.Set("formatPostfix", cfg.FormatPostfix)
		}

	case model.ListConfig:
		// A vocabulary that is not part of the snapshot was never defined
		if cfg.ListID != "" && containsList(lists, cfg.ListID) {
			params.Set("listPropertySet", Raw(VarName(cfg.ListID)))
			params.Set("allowBlank", true)
		}

	case model.ReferenceConfig:
		params.Set("advanced", true)
		params.Set("allowBlank", true)
		if cfg.TargetClass == "" {
			break
		}

		reverse := prop.Type.IsReverse()
		toUser := strings.EqualFold(cfg.TargetClass, userClass)
		switch {
		case toUser:
			params.Set("expression", "select User from root.user")
		case reverse:
			params.Set("filter", Raw("filter("+cfg.TargetClass+", *everywhere)"))
		default:
			params.Set("expression", "select "+cfg.TargetClass+" from root."+cfg.TargetClass)
		}
		if !toUser && !reverse {
			if cfg.MultiSelect {
				params.Set("multiselect", true)
			}
			params.Set("listDisplayType", "FLAT_LIST")
		}

	case model.ExtendedConfig:
		if cfg.Expression != "" {
			params.Set("expression", Raw(cfg.Expression))
		}
	}

	return params
}

func containsList(lists []*model.ListPropertySet, id string) bool {
	for _, l := range lists {
		if l.ID == id {
			return true
		}
	}
	return false
}

// writeLinks emits the link statements of one node. Nodes without a class
// name or without any used property produce nothing.
func writeLinks(b *ScriptBuilder, node *model.Node, used map[string]bool) {
	className := node.Data.ClassName
	if className == "" {
		return
	}

	var ids []string
	seen := make(map[string]bool)
	for _, id := range node.Data.LinkedProperties {
		if used[id] && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return
	}

	b.Comment("Link Properties for: " + node.Data.Label + " (" + className + ")")
	for _, id := range ids {
		b.Expression("c.get("+className+".name)", "link", Raw(VarName(id)))
	}
	b.NewLine()
}

// VarName derives the script variable for an id: "_" followed by the id with
// every character outside [a-zA-Z0-9] replaced by "_", lower-cased.
func VarName(id string) string {
	var sb strings.Builder
	sb.Grow(len(id) + 1)
	sb.WriteByte('_')
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			sb.WriteRune(r + ('a' - 'A'))
		default:
			sb.WriteByte('_')
		}
	}
	return sb.String()
}
