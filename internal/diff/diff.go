package diff

import (
	"errors"
	"fmt"
	"strings"

	"github.com/agentic-research/clsprobe/internal/classtree"
)

var ErrUnknownMatcher = errors.New("unknown matcher")

// Unit is one scoring record for a reference field.
type Unit struct {
	// Path is the classification chain the unit is attributed to. For matched
	// units it holds the labels found in the candidate; for unmatched units
	// it holds the reference's own labels.
	Path    []string
	Field   string
	Matched bool
}

// Category returns the top-level label of the unit, or "" for an empty path.
func (u Unit) Category() string {
	if len(u.Path) == 0 {
		return ""
	}
	return u.Path[0]
}

func (u Unit) String() string {
	state := "miss"
	if u.Matched {
		state = "hit"
	}
	return fmt.Sprintf("%s [%s] %s", state, strings.Join(u.Path, "/"), u.Field)
}

// Result lists units in reference leaf-enumeration order.
type Result []Unit

// Matched returns the number of matched units.
func (r Result) Matched() int {
	n := 0
	for _, u := range r {
		if u.Matched {
			n++
		}
	}
	return n
}

// Matcher compares a reference tree against a candidate tree.
// Neither tree is modified.
type Matcher interface {
	Diff(reference, candidate *classtree.Tree) Result
}

// Names of the available matchers.
const (
	MatcherPresence = "presence"
	MatcherPath     = "path"
)

// Select returns the matcher registered under name. The empty name selects
// the presence matcher.
func Select(name string) (Matcher, error) {
	switch name {
	case "", MatcherPresence:
		return Presence{}, nil
	case MatcherPath:
		return Path{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMatcher, name)
	}
}

// Diff compares two trees with the presence matcher.
func Diff(reference, candidate *classtree.Tree) Result {
	return Presence{}.Diff(reference, candidate)
}

// labels returns the classification labels of a leaf path, leaf excluded.
func labels(path []*classtree.Node) []string {
	out := make([]string, 0, len(path))
	for _, n := range path {
		if n.Value().Kind() == classtree.KindClass {
			out = append(out, n.Value().Label())
		}
	}
	return out
}
