package tree

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

// ErrNoTree is returned by [Decode] when a model document carries neither a
// full nor a compact module tree.
var ErrNoTree = errors.New("document contains no module tree")

// Document is a complete model document as written by the upstream
// generator. Only the fields the compiler reads are modeled; the model
// section is kept as loosely typed metadata.
type Document struct {
	SchemaVersion any            `json:"schema_version,omitempty"`
	GeneratedAt   string         `json:"generated_at,omitempty"`
	Status        string         `json:"status,omitempty"`
	Model         map[string]any `json:"model,omitempty"`
	Modules       *Modules       `json:"modules,omitempty"`
}

// Modules is the "modules" section of a model document.
type Modules struct {
	ModuleCount *int     `json:"module_count,omitempty"`
	Tree        *RawNode `json:"tree,omitempty"`
	CompactTree *RawNode `json:"compact_tree,omitempty"`
}

// Select returns the tree for the requested view, falling back to the other
// one when the preferred tree is absent.
func (m *Modules) Select(compact bool) (RawNode, error) {
	first, second := m.Tree, m.CompactTree
	if compact {
		first, second = second, first
	}
	switch {
	case first != nil:
		return *first, nil
	case second != nil:
		return *second, nil
	}
	return RawNode{}, ErrNoTree
}

// Decode parses data as either a bare module tree or a full model document.
// For documents the full tree is preferred; use [DecodeView] to pick the
// compact tree instead.
func Decode(data []byte) (RawNode, error) {
	return DecodeView(data, false)
}

// DecodeView is like [Decode] but prefers the compact tree of a model
// document when compact is true. Bare trees are returned as they are.
func DecodeView(data []byte, compact bool) (RawNode, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return RawNode{}, fmt.Errorf("decode module tree: %w", err)
	}
	if doc.Modules != nil {
		return doc.Modules.Select(compact)
	}

	var raw RawNode
	if err := json.Unmarshal(data, &raw); err != nil {
		return RawNode{}, fmt.Errorf("decode module tree: %w", err)
	}
	return raw, nil
}

// Encode serializes a raw tree as compact JSON.
func Encode(raw RawNode) ([]byte, error) {
	return json.Marshal(raw)
}
