package analysis

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Text is a scalar reported by the model. Numbers and booleans are kept in their JSON spelling
// so a score reported as 7, "7" or "7/10" all decode.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*t = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
	default:
		// numbers, booleans and nested values keep their JSON spelling
		*t = Text(data)
	}
	return nil
}

func (t Text) String() string { return string(t) }

// List is a list of model-reported values. A single scalar is accepted as a one-item list.
type List []Text

func (l *List) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	if len(data) > 0 && data[0] == '[' {
		var items []Text
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*l = items
		return nil
	}
	var single Text
	if err := single.UnmarshalJSON(data); err != nil {
		return err
	}
	if strings.TrimSpace(single.String()) == "" {
		*l = List{}
		return nil
	}
	*l = List{single}
	return nil
}

// Strings returns the non-blank items.
func (l List) Strings() []string {
	out := make([]string, 0, len(l))
	for _, item := range l {
		if s := strings.TrimSpace(item.String()); s != "" {
			out = append(out, s)
		}
	}
	return out
}
