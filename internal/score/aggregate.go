package score

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/RoaringBitmap/roaring"

	"github.com/agentic-research/clsprobe/internal/diff"
)

// ErrEmptyScoreSet is returned when there is nothing to score.
var ErrEmptyScoreSet = errors.New("no diff units to score")

// Tally counts matched units out of a total.
type Tally struct {
	Matched int
	Total   int
}

// Ratio returns Matched/Total in [0, 1]. A zero Total yields 0.
func (t Tally) Ratio() float64 {
	if t.Total == 0 {
		return 0
	}
	return float64(t.Matched) / float64(t.Total)
}

// Percent returns the ratio as a percentage rounded to two decimals, the
// same value String prints.
func (t Tally) Percent() float64 {
	p, _ := strconv.ParseFloat(t.percentText(), 64) // always a valid float
	return p
}

// String formats the percentage with two decimals, e.g. "50.00%".
func (t Tally) String() string {
	return t.percentText() + "%"
}

func (t Tally) percentText() string {
	return fmt.Sprintf("%.2f", t.Ratio()*100)
}

// Category is the tally of one top-level classification.
type Category struct {
	Name string
	Tally
}

// Report is the aggregated accuracy of a diff result.
type Report struct {
	Overall    Tally
	Categories []Category
	Units      diff.Result

	// unit indexes per category and the matched unit indexes
	byCategory map[string]*roaring.Bitmap
	matched    *roaring.Bitmap
}

// Aggregate reduces a diff result to overall and per-category accuracy.
// Units are grouped by the first label of their path; categories keep the
// order in which they first appear in the result.
func Aggregate(res diff.Result) (*Report, error) {
	if len(res) == 0 {
		return nil, ErrEmptyScoreSet
	}

	rep := &Report{
		Units:      res,
		byCategory: make(map[string]*roaring.Bitmap),
		matched:    roaring.New(),
	}

	var order []string
	for i, u := range res {
		idx := uint32(i)
		name := u.Category()
		bm, ok := rep.byCategory[name]
		if !ok {
			bm = roaring.New()
			rep.byCategory[name] = bm
			order = append(order, name)
		}
		bm.Add(idx)
		if u.Matched {
			rep.matched.Add(idx)
		}
	}

	rep.Overall = Tally{
		Matched: int(rep.matched.GetCardinality()),
		Total:   len(res),
	}
	for _, name := range order {
		bm := rep.byCategory[name]
		rep.Categories = append(rep.Categories, Category{
			Name: name,
			Tally: Tally{
				Matched: int(bm.AndCardinality(rep.matched)),
				Total:   int(bm.GetCardinality()),
			},
		})
	}
	return rep, nil
}

// Misses returns the unmatched units of a category in result order.
func (r *Report) Misses(category string) []diff.Unit {
	bm, ok := r.byCategory[category]
	if !ok {
		return nil
	}
	missed := roaring.AndNot(bm, r.matched)
	out := make([]diff.Unit, 0, missed.GetCardinality())
	it := missed.Iterator()
	for it.HasNext() {
		out = append(out, r.Units[it.Next()])
	}
	return out
}
