// Package tree provides the shared task tree that mirrors nested plan
// calls. Every distinct call position in a running plan owns one node,
// identified by its code path. Nodes survive retries: re-entering the
// same call position resolves the existing node instead of creating a
// new one, which is what makes parameter replay and transformative
// retry possible.
//
// # Code Paths
//
// A Path is the ordered list of call-site identifiers from the tree
// root down to a frame:
//
//	p := tree.NewPath("deliver-order", "grasp-object")
//	p.Child("move-arm") // /deliver-order/grasp-object/move-arm
//
// Two paths are equal iff their segment sequences are equal.
//
// # Trees
//
// MemoryTree is the in-process implementation. All operations are safe
// for concurrent use by many tasks:
//
//	tr := tree.NewMemoryTree()
//	node, created := tr.Resolve(tree.NewPath("deliver-order"))
//
// Clearing a node discards all of its descendants but keeps the node
// itself, so its path identity (and bound parameter, if any) survive:
//
//	tr.Clear(node)
//
// # Parameter Slots
//
// Each node carries a set-once parameter slot used by parameterized
// plan functions. The first bind wins; later binds return the stored
// value:
//
//	stored, bound := node.BindParam(v)
//
// # Thread Safety
//
// MemoryTree and Node are safe for concurrent use.
package tree
