package api

// Version of the report document layout.
const ReportVersion = "v1"

// Report is the machine-readable outcome of scoring one candidate.
type Report struct {
	// Version of the report layout.
	Version string `json:"version"`
	// Candidate names the scored input (usually its file name).
	Candidate string `json:"candidate,omitempty"`
	// Matcher is the diff strategy that produced Units.
	Matcher string `json:"matcher"`
	// Overall accuracy across every unit.
	Overall Score `json:"overall"`
	// Categories in order of first appearance.
	Categories []Category `json:"categories"`
	// Units is the full diff result.
	Units []Unit `json:"units,omitempty"`
}

// Score is a matched/total tally with its percentage (two decimals).
type Score struct {
	Matched  int     `json:"matched"`
	Total    int     `json:"total"`
	Accuracy float64 `json:"accuracy"`
}

// Category is the score of one top-level classification.
type Category struct {
	Name  string `json:"name"`
	Score Score  `json:"score"`
}

// Unit is one diff record.
type Unit struct {
	Path    []string `json:"path"`
	Field   string   `json:"field"`
	Matched bool     `json:"matched"`
}

// Generic converts the report into plain maps and slices, the form consumed
// by the JSON writer and JSONPath selection.
func (r *Report) Generic() map[string]any {
	cats := make([]any, 0, len(r.Categories))
	for _, c := range r.Categories {
		cats = append(cats, map[string]any{
			"name":  c.Name,
			"score": c.Score.generic(),
		})
	}
	doc := map[string]any{
		"version":    r.Version,
		"matcher":    r.Matcher,
		"overall":    r.Overall.generic(),
		"categories": cats,
	}
	if r.Candidate != "" {
		doc["candidate"] = r.Candidate
	}
	if len(r.Units) > 0 {
		units := make([]any, 0, len(r.Units))
		for _, u := range r.Units {
			path := make([]any, 0, len(u.Path))
			for _, p := range u.Path {
				path = append(path, p)
			}
			units = append(units, map[string]any{
				"path":    path,
				"field":   u.Field,
				"matched": u.Matched,
			})
		}
		doc["units"] = units
	}
	return doc
}

func (s Score) generic() map[string]any {
	return map[string]any{
		"matched":  int64(s.Matched),
		"total":    int64(s.Total),
		"accuracy": s.Accuracy,
	}
}
