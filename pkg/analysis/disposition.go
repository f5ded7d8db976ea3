package analysis

import (
	"net/url"
	"strings"
)

// ParseContentDisposition extracts the download filename from a Content-Disposition header.
// The RFC 5987 filename* form wins over the quoted form; jobID.pdf is used when neither is present.
func ParseContentDisposition(header, jobID string) string {
	var plain, extended string

	for _, part := range strings.Split(header, ";") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		value = strings.TrimSpace(value)

		switch strings.ToLower(strings.TrimSpace(key)) {
		case "filename*":
			if _, encoded, ok := strings.Cut(value, "''"); ok {
				value = encoded
			}
			if decoded, err := url.PathUnescape(strings.Trim(value, `"`)); err == nil {
				extended = decoded
			}
		case "filename":
			plain = strings.Trim(value, `"`)
		}
	}

	if extended != "" {
		return extended
	}
	if plain != "" {
		return plain
	}
	return jobID + ".pdf"
}
