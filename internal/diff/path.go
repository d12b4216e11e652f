package diff

import "github.com/agentic-research/clsprobe/internal/classtree"

// Path is the strict matcher: a reference field is matched only when the
// candidate holds the same field under the same chain of labels, starting at
// the root. It emits exactly one unit per reference field.
type Path struct{}

func (Path) Diff(reference, candidate *classtree.Tree) Result {
	var res Result
	for _, path := range reference.AllLeaves() {
		unit := Unit{
			Path:  labels(path),
			Field: path[len(path)-1].Value().Field().String(),
		}
		unit.Matched = hasChain(candidate.Root(), path)
		res = append(res, unit)
	}
	return res
}

func hasChain(n *classtree.Node, path []*classtree.Node) bool {
	for _, seg := range path {
		next := child(n, seg.Value())
		if next == nil {
			return false
		}
		n = next
	}
	return true
}

func child(n *classtree.Node, v classtree.Value) *classtree.Node {
	for _, c := range n.Children() {
		if c.Value() == v {
			return c
		}
	}
	return nil
}
