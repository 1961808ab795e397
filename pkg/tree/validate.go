package tree

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyPath is returned by [Validate] when a record has no path.
	ErrEmptyPath = errors.New("module path must not be empty")

	// ErrDuplicatePath is returned by [Validate] when two records share a path.
	ErrDuplicatePath = errors.New("duplicate module path")
)

// Validate checks the identity constraints of a raw tree: every record must
// have a non-empty path and paths must be unique across the whole tree.
//
// The first violation found in depth-first order is reported, wrapped with
// the offending path or the name of the record.
func Validate(root RawNode) error {
	seen := make(map[string]struct{})
	var walk func(n *RawNode, parent string) error
	walk = func(n *RawNode, parent string) error {
		if n.Path == "" {
			return fmt.Errorf("%w: record %q under %q", ErrEmptyPath, n.Name, parent)
		}
		if _, dup := seen[n.Path]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicatePath, n.Path)
		}
		seen[n.Path] = struct{}{}
		for i := range n.Children {
			if err := walk(&n.Children[i], n.Path); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(&root, "")
}
