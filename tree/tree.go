package tree

import "errors"

// Common errors.
var (
	// ErrNilNode indicates a nil node was passed to a tree operation.
	ErrNilNode = errors.New("nil tree node")

	// ErrForeignNode indicates the node belongs to a different tree.
	ErrForeignNode = errors.New("node belongs to a different tree")
)

// Tree is the task-tree collaborator interface. Implementations must
// make Resolve and Clear atomic with respect to concurrent callers;
// plan code running on many tasks addresses the same tree at once.
type Tree interface {
	// ID returns the unique identifier of this tree.
	ID() string

	// Root returns the root node.
	Root() *Node

	// Resolve returns the node at path, creating it (and any missing
	// intermediate nodes) if necessary. created reports whether the
	// final node was created by this call.
	Resolve(path Path) (node *Node, created bool)

	// Clear discards every descendant of n while keeping n itself,
	// its path identity and its bound parameter. It returns the
	// number of nodes discarded.
	Clear(n *Node) (int, error)
}
