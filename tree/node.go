package tree

import "sync"

// Node is a single call position in the task tree. Nodes are created
// by Tree.Resolve and keep their identity across retries and subtree
// clears.
type Node struct {
	path Path

	mu       sync.Mutex
	children map[string]*Node
	param    any
	bound    bool
}

func newNode(path Path) *Node {
	return &Node{
		path:     path,
		children: make(map[string]*Node),
	}
}

// Path returns the node's code path.
func (n *Node) Path() Path {
	return n.path
}

// BindParam stores v in the node's set-once parameter slot. The first
// bind wins: stored is the value now held by the slot, and bound
// reports whether this call was the one that stored it. Subsequent
// calls return the original value with bound == false, which is what
// guarantees deterministic parameter replay across retries.
func (n *Node) BindParam(v any) (stored any, bound bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.bound {
		return n.param, false
	}
	n.param = v
	n.bound = true
	return v, true
}

// Param returns the bound parameter, if any.
func (n *Node) Param() (any, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.param, n.bound
}

// child resolves or creates a direct child. Caller must hold the
// tree's structural lock.
func (n *Node) child(segment string) (*Node, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if c, ok := n.children[segment]; ok {
		return c, false
	}
	c := newNode(n.path.Child(segment))
	n.children[segment] = c
	return c, true
}

// descendants counts all nodes below this one. Caller must hold the
// tree's structural lock.
func (n *Node) descendants() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	count := 0
	for _, c := range n.children {
		count += 1 + c.descendants()
	}
	return count
}

// clearChildren discards all children. Caller must hold the tree's
// structural lock.
func (n *Node) clearChildren() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.children = make(map[string]*Node)
}
