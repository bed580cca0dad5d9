// SPDX-License-Identifier: MPL-2.0

package discovery

import "github.com/invowk/nestcmd/pkg/typemeta"

// Node is a command and its discovered descendants.
type Node[C any] struct {
	Subcommand[C]
	Children []*Node[C]
}

// Tree materializes root and recursively discovers its subcommands. It
// reports false when root is not a nominal type satisfying C.
func (f *Finder[C]) Tree(root typemeta.Handle) (*Node[C], bool) {
	sub, ok := f.Materialize(root)
	if !ok {
		return nil, false
	}
	return f.grow(sub), true
}

func (f *Finder[C]) grow(sub Subcommand[C]) *Node[C] {
	node := &Node[C]{Subcommand: sub}
	for _, child := range f.FindSubcommands(sub.Handle) {
		node.Children = append(node.Children, f.grow(child))
	}
	return node
}

// Walk visits n and its descendants depth-first, parents first. depth is 0
// for n. Returning false from fn skips the node's children.
func (n *Node[C]) Walk(fn func(node *Node[C], depth int) bool) {
	n.walk(fn, 0)
}

func (n *Node[C]) walk(fn func(*Node[C], int) bool, depth int) {
	if !fn(n, depth) {
		return
	}
	for _, child := range n.Children {
		child.walk(fn, depth+1)
	}
}

// Len counts n and all its descendants.
func (n *Node[C]) Len() int {
	count := 0
	n.Walk(func(*Node[C], int) bool {
		count++
		return true
	})
	return count
}
