package tree

import (
	"sync"

	"github.com/google/uuid"
)

// MemoryTree implements Tree with in-process storage.
// Safe for concurrent use by multiple tasks.
type MemoryTree struct {
	id   string
	root *Node

	// mu guards structural mutation (node creation, subtree clears).
	// Reads of already-resolved nodes don't need it.
	mu sync.Mutex
}

// NewMemoryTree creates an empty task tree with a fresh identity.
func NewMemoryTree() *MemoryTree {
	return &MemoryTree{
		id:   uuid.NewString(),
		root: newNode(Path{}),
	}
}

// ID returns the tree's unique identifier.
func (t *MemoryTree) ID() string {
	return t.id
}

// Root returns the root node.
func (t *MemoryTree) Root() *Node {
	return t.root
}

// Resolve returns the node at path, creating missing nodes on the way.
func (t *MemoryTree) Resolve(path Path) (*Node, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	node := t.root
	created := false
	for _, segment := range path {
		node, created = node.child(segment)
	}
	return node, created
}

// Clear discards all descendants of n. The node itself survives with
// its path and parameter slot intact.
func (t *MemoryTree) Clear(n *Node) (int, error) {
	if n == nil {
		return 0, ErrNilNode
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	// Verify the node is still reachable in this tree. A node that was
	// itself discarded by an enclosing clear must not be cleared again.
	if !t.contains(n) {
		return 0, ErrForeignNode
	}

	discarded := n.descendants()
	n.clearChildren()
	return discarded, nil
}

// contains walks from the root along n's path and checks pointer
// identity. Caller must hold t.mu.
func (t *MemoryTree) contains(n *Node) bool {
	node := t.root
	for _, segment := range n.path {
		node.mu.Lock()
		next, ok := node.children[segment]
		node.mu.Unlock()
		if !ok {
			return false
		}
		node = next
	}
	return node == n
}
