// Package project reads and writes the JSON project snapshot.
//
// The file carries the graph, the ontology and the project metadata. Selection
// and clipboard are session state and are not persisted. There is a single
// format version and no migration.
package project

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/ritzau/archmodel/pkg/model"
	"github.com/ritzau/archmodel/pkg/validation"
)

// Version is written to every file
const Version = 1

// ErrInvalidFormat is returned for files that are not project snapshots
var ErrInvalidFormat = errors.New("invalid project file")

// File is the on-disk shape of a project
type File struct {
	Version     int                      `json:"version"`
	Name        string                   `json:"name,omitempty"`
	Description string                   `json:"description,omitempty"`
	Nodes       []*model.Node            `json:"nodes"`
	Edges       []*model.Edge            `json:"edges"`
	Properties  []*model.GlobalProperty  `json:"properties"`
	Lists       []*model.ListPropertySet `json:"lists"`
}

// FromState captures the persisted part of a state
func FromState(s *model.State) File {
	return File{
		Version:     Version,
		Name:        s.ProjectName,
		Description: s.ProjectDescription,
		Nodes:       s.Nodes,
		Edges:       s.Edges,
		Properties:  s.Properties,
		Lists:       s.Lists,
	}
}

// State builds a fresh state from the file. A file without an ontology gets
// the default one, and every node is re-validated.
func (f File) State() *model.State {
	s := model.EmptyState()
	if f.Name != "" {
		s.ProjectName = f.Name
	}
	s.ProjectDescription = f.Description
	if f.Nodes != nil {
		s.Nodes = f.Nodes
	}
	if f.Edges != nil {
		s.Edges = f.Edges
	}

	if f.Properties == nil && f.Lists == nil {
		s.Properties = model.DefaultProperties()
		s.Lists = model.DefaultLists()
	} else {
		if f.Properties != nil {
			s.Properties = f.Properties
		}
		if f.Lists != nil {
			s.Lists = f.Lists
		}
	}

	for _, n := range s.Nodes {
		validation.Revalidate(n)
	}
	return s
}

// Marshal encodes the state as indented JSON
func Marshal(s *model.State) ([]byte, error) {
	data, err := json.MarshalIndent(FromState(s), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode project: %w", err)
	}
	return append(data, '\n'), nil
}

// Unmarshal decodes a project. Both "nodes" and "edges" must be present.
func Unmarshal(data []byte) (*model.State, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}
	if _, ok := probe["nodes"]; !ok {
		return nil, fmt.Errorf("%w: missing nodes", ErrInvalidFormat)
	}
	if _, ok := probe["edges"]; !ok {
		return nil, fmt.Errorf("%w: missing edges", ErrInvalidFormat)
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}
	if f.Version > Version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidFormat, f.Version)
	}
	if err := f.checkEntries(); err != nil {
		return nil, err
	}
	return f.State(), nil
}

// checkEntries rejects null elements, which decode to nil pointers
func (f *File) checkEntries() error {
	if i := slices.Index(f.Nodes, nil); i >= 0 {
		return fmt.Errorf("%w: null node at %d", ErrInvalidFormat, i)
	}
	if i := slices.Index(f.Edges, nil); i >= 0 {
		return fmt.Errorf("%w: null edge at %d", ErrInvalidFormat, i)
	}
	if i := slices.Index(f.Properties, nil); i >= 0 {
		return fmt.Errorf("%w: null property at %d", ErrInvalidFormat, i)
	}
	if i := slices.Index(f.Lists, nil); i >= 0 {
		return fmt.Errorf("%w: null list at %d", ErrInvalidFormat, i)
	}
	return nil
}

// Read decodes a project from r
func Read(r io.Reader) (*model.State, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read project: %w", err)
	}
	return Unmarshal(data)
}

// Write encodes s to w
func Write(w io.Writer, s *model.State) error {
	data, err := Marshal(s)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write project: %w", err)
	}
	return nil
}

// Load reads a project file and returns its state and content hash
func Load(path string) (*model.State, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	s, err := Unmarshal(data)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", path, err)
	}
	return s, Hash(data), nil
}

// Save writes the project atomically (temp file + rename) and returns the
// hash of the written content
func Save(path string, s *model.State) (string, error) {
	data, err := Marshal(s)
	if err != nil {
		return "", err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return Hash(data), nil
}

// Hash returns the hex sha256 of data
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
