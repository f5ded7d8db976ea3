package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// WriteText prints the report for a terminal. Colors are only emitted when colored is set.
func WriteText(w io.Writer, r *Report, colored bool) error {
	title := color.New(color.FgCyan, color.Bold)
	label := color.New(color.Bold)
	muted := color.New(color.FgHiBlack)
	badge := color.New(color.FgGreen)
	for _, c := range []*color.Color{title, label, muted, badge} {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	if r == nil {
		_, err := muted.Fprintln(w, "No result yet")
		return err
	}

	heading := strings.ToUpper(string(r.Kind)) + " ANALYSIS"
	if r.ModelID != "" {
		heading += " (" + r.ModelID + ")"
	}
	if _, err := title.Fprintln(w, heading); err != nil {
		return err
	}

	for _, s := range r.Sections {
		if _, err := title.Fprintf(w, "\n%s\n", s.Title); err != nil {
			return err
		}
		for _, row := range s.Rows {
			if _, err := label.Fprintf(w, "  %s: ", row.Label); err != nil {
				return err
			}
			if err := writeValue(w, row, muted, badge); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeValue(w io.Writer, row Row, muted, badge *color.Color) error {
	if row.Placeholder {
		_, err := muted.Fprintln(w, row.Value)
		return err
	}
	if !row.List {
		_, err := fmt.Fprintln(w, row.Value)
		return err
	}
	parts := make([]string, len(row.Items))
	for i, item := range row.Items {
		parts[i] = badge.Sprintf("[%s]", item)
	}
	_, err := fmt.Fprintln(w, strings.Join(parts, " "))
	return err
}
