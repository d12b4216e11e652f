package diff

import "github.com/agentic-research/clsprobe/internal/classtree"

// Presence scores by value presence: a segment of a reference path counts as
// found when its value exists anywhere in the candidate, regardless of where.
//
// Every segment of every reference path is probed. A found field emits a
// matched unit carrying the labels found so far; if any segment of the path
// was missing, one unmatched unit with the reference labels follows. A single
// reference field can therefore produce both a matched and an unmatched unit.
type Presence struct{}

func (Presence) Diff(reference, candidate *classtree.Tree) Result {
	var res Result
	for _, path := range reference.AllLeaves() {
		var matched []string
		missed := false
		for _, seg := range path {
			node := candidate.Find(seg.Value())
			if node == nil {
				missed = true
				continue
			}
			switch v := node.Value(); v.Kind() {
			case classtree.KindClass:
				matched = append(matched, v.Label())
			case classtree.KindLeaf:
				res = append(res, Unit{
					Path:    append([]string(nil), matched...),
					Field:   v.Field().String(),
					Matched: true,
				})
			}
		}
		if missed {
			res = append(res, Unit{
				Path:    labels(path),
				Field:   path[len(path)-1].Value().Field().String(),
				Matched: false,
			})
		}
	}
	return res
}
