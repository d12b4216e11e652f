package classtree

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyPath is returned by Insert when no classification level is given.
	ErrEmptyPath = errors.New("classification levels must be provided")
	// ErrNodeExists means the value is already a direct child of the target node.
	// It is terminal: the insertion aborts without touching other branches.
	ErrNodeExists = errors.New("node exists")
	// ErrSuperNodeNotFound means no node currently holds the requested parent value.
	// Inside the recursive add it only tells the caller to try the next sibling.
	ErrSuperNodeNotFound = errors.New("super node not found")
)

// Node is one element of a classification tree. Children are owned exclusively
// by their parent and kept in insertion order; there are no back-references.
type Node struct {
	value    Value
	children []*Node
}

func (n *Node) Value() Value { return n.value }

// Children returns the node's direct children in insertion order.
// Callers must not modify the returned slice.
func (n *Node) Children() []*Node { return n.children }

// IsLeaf reports whether the node holds a field identity.
func (n *Node) IsLeaf() bool { return n.value.kind == KindLeaf }

// find returns the first node in pre-order whose value equals v.
func (n *Node) find(v Value) *Node {
	if n.value == v {
		return n
	}
	for _, c := range n.children {
		if found := c.find(v); found != nil {
			return found
		}
	}
	return nil
}

// add attaches value under the first node, in pre-order, holding super.
// ErrNodeExists stops the search immediately; ErrSuperNodeNotFound from a
// child subtree moves on to the next sibling.
func (n *Node) add(super, value Value) error {
	if n.value == super {
		if n.value.kind == KindLeaf {
			return fmt.Errorf("field node %s cannot have children", n.value)
		}
		for _, c := range n.children {
			if c.value == value {
				return ErrNodeExists
			}
		}
		n.children = append(n.children, &Node{value: value})
		return nil
	}
	for _, c := range n.children {
		err := c.add(super, value)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrSuperNodeNotFound) {
			return err
		}
	}
	return ErrSuperNodeNotFound
}

// Tree is a classification tree rooted at a single Root node.
// It is built once and treated as read-only afterwards; Find and AllLeaves
// never mutate it, so a built tree may be read from several goroutines.
type Tree struct {
	root *Node
}

func New() *Tree {
	return &Tree{root: &Node{value: RootValue()}}
}

func (t *Tree) Root() *Node { return t.root }

// Insert records leaf under the classification chain path.
//
// Every level is ensured by value: a level label is attached under the first
// node anywhere in the tree that carries the previous label, so a label reused
// under two different parents resolves to whichever occurrence comes first.
func (t *Tree) Insert(path []string, leaf FieldIdentity) error {
	if len(path) == 0 {
		return ErrEmptyPath
	}

	if err := t.root.add(RootValue(), Class(path[0])); err != nil && !errors.Is(err, ErrNodeExists) {
		return fmt.Errorf("add classification level %q: %w", path[0], err)
	}

	for i := 0; i+1 < len(path); i++ {
		err := t.root.add(Class(path[i]), Class(path[i+1]))
		if err == nil || errors.Is(err, ErrNodeExists) {
			continue
		}
		return fmt.Errorf("add classification level %q under %q: %w", path[i+1], path[i], err)
	}

	last := path[len(path)-1]
	if err := t.root.add(Class(last), Leaf(leaf)); err != nil {
		return fmt.Errorf("add field %s under %q: %w", leaf, last, err)
	}
	return nil
}

// Find returns the first node, in pre-order depth-first order, whose value
// equals v, or nil. The match may sit in any branch.
func (t *Tree) Find(v Value) *Node {
	return t.root.find(v)
}

// AllLeaves returns one path per field node: the chain of nodes from a
// top-level classification down to and including the field. Top-level
// classifications are visited in insertion order and each subtree pre-order.
func (t *Tree) AllLeaves() [][]*Node {
	var res [][]*Node
	var cur []*Node
	for _, top := range t.root.children {
		cur = collectLeaves(top, cur[:0], &res)
	}
	return res
}

func collectLeaves(n *Node, cur []*Node, res *[][]*Node) []*Node {
	cur = append(cur, n)
	if n.IsLeaf() {
		p := make([]*Node, len(cur))
		copy(p, cur)
		*res = append(*res, p)
	}
	for _, c := range n.children {
		cur = collectLeaves(c, cur, res)
	}
	return cur[:len(cur)-1]
}

// Len returns the number of field nodes in the tree.
func (t *Tree) Len() int {
	return countLeaves(t.root)
}

func countLeaves(n *Node) int {
	if n.IsLeaf() {
		return 1
	}
	total := 0
	for _, c := range n.children {
		total += countLeaves(c)
	}
	return total
}

// String renders the tree as an indented outline, one node per line.
// The root itself is omitted.
func (t *Tree) String() string {
	var b strings.Builder
	for _, c := range t.root.children {
		writeOutline(&b, c, 0)
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeOutline(b *strings.Builder, n *Node, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	switch n.value.kind {
	case KindLeaf:
		b.WriteString(n.value.field.String())
	default:
		b.WriteString(n.value.label)
	}
	b.WriteByte('\n')
	for _, c := range n.children {
		writeOutline(b, c, depth+1)
	}
}
