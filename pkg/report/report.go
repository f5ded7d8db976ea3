// Package report projects a possibly sparse analysis result into labelled sections.
package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"propintel-console/pkg/analysis"
)

const (
	// Missing is shown for a scalar the model did not report.
	Missing = "—"
	// NoneNoted is shown for an empty or missing list.
	NoneNoted = "None noted"
)

type Row struct {
	Label       string   `json:"label"`
	Value       string   `json:"value,omitempty"`
	Items       []string `json:"items,omitempty"`
	List        bool     `json:"list"`
	Placeholder bool     `json:"placeholder"`
}

type Section struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	Rows  []Row  `json:"rows"`
}

type Report struct {
	Kind     analysis.Kind `json:"kind"`
	ModelID  string        `json:"model_id,omitempty"`
	Sections []Section     `json:"sections"`
}

// Render decodes raw for the given kind and renders every section present in it.
// A nil report is returned when there is no result yet.
func Render(kind analysis.Kind, raw json.RawMessage) (*Report, error) {
	switch kind {
	case analysis.KindRoof:
		res, err := analysis.DecodeRoofResult(raw)
		if err != nil || res == nil {
			return nil, err
		}
		return &Report{Kind: kind, ModelID: res.ModelID, Sections: roofSections(res.Analysis)}, nil
	case analysis.KindConstruction:
		res, err := analysis.DecodeConstructionResult(raw)
		if err != nil || res == nil {
			return nil, err
		}
		return &Report{Kind: kind, ModelID: res.ModelID, Sections: constructionSections(res.Analysis)}, nil
	default:
		return nil, fmt.Errorf("report: unsupported kind %q", kind)
	}
}

func scalar[T fmt.Stringer](label string, v *T) Row {
	if v == nil {
		return Row{Label: label, Value: Missing, Placeholder: true}
	}
	s := strings.TrimSpace((*v).String())
	if s == "" {
		return Row{Label: label, Value: Missing, Placeholder: true}
	}
	return Row{Label: label, Value: s}
}

func list(label string, l analysis.List) Row {
	items := l.Strings()
	if len(items) == 0 {
		return Row{Label: label, Value: NoneNoted, List: true, Placeholder: true}
	}
	return Row{Label: label, Items: items, List: true}
}

// section appends the rendered section when v is present.
func section[T any](out []Section, key, title string, v *T, rows func(*T) []Row) []Section {
	if v == nil {
		return out
	}
	return append(out, Section{Key: key, Title: title, Rows: rows(v)})
}
