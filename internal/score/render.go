package score

import (
	"fmt"
	"io"

	"github.com/ohler55/ojg"
	"github.com/ohler55/ojg/oj"

	"github.com/agentic-research/clsprobe/api"
)

// NoCategory is how the text report names units that carry no label.
const NoCategory = "(none)"

// WriteText prints the overall accuracy followed by one line per category.
func (r *Report) WriteText(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "total classification accuracy: %s\n", r.Overall); err != nil {
		return err
	}
	for _, c := range r.Categories {
		name := c.Name
		if name == "" {
			name = NoCategory
		}
		if _, err := fmt.Fprintf(w, "classification [%s] accuracy: %s\n", name, c.Tally); err != nil {
			return err
		}
	}
	return nil
}

// API converts the report into its document form. Units are included only
// when withUnits is set.
func (r *Report) API(candidate, matcher string, withUnits bool) *api.Report {
	doc := &api.Report{
		Version:   api.ReportVersion,
		Candidate: candidate,
		Matcher:   matcher,
		Overall:   apiScore(r.Overall),
	}
	for _, c := range r.Categories {
		doc.Categories = append(doc.Categories, api.Category{Name: c.Name, Score: apiScore(c.Tally)})
	}
	if withUnits {
		for _, u := range r.Units {
			doc.Units = append(doc.Units, api.Unit{Path: u.Path, Field: u.Field, Matched: u.Matched})
		}
	}
	return doc
}

func apiScore(t Tally) api.Score {
	return api.Score{Matched: t.Matched, Total: t.Total, Accuracy: t.Percent()}
}

// WriteJSON writes v as JSON with sorted keys. v is usually the Generic form
// of an api.Report or the output of Select.
func WriteJSON(w io.Writer, v any, indent int) error {
	opts := ojg.DefaultOptions
	opts.Indent = indent
	opts.Sort = true
	_, err := io.WriteString(w, oj.JSON(v, &opts)+"\n")
	return err
}
