// Package launch assembles gst-launch pipeline descriptions.
package launch

import "strings"

// Desc collects pipeline segments joined with the `!` link operator.
// A segment may itself contain links or branch restarts (`t. ! queue`),
// so a whole sink topology can be added as a single segment.
type Desc struct {
	segments []string
}

// Add appends one segment. Empty segments are skipped, so optional
// parts can be passed through unconditionally.
func (d *Desc) Add(segment string) *Desc {
	if segment != "" {
		d.segments = append(d.segments, segment)
	}
	return d
}

func (d *Desc) String() string {
	return strings.Join(d.segments, " ! ")
}

// Expand replaces every `{name}` placeholder in template with its value.
func Expand(template string, vars map[string]string) string {
	for name, value := range vars {
		template = strings.ReplaceAll(template, "{"+name+"}", value)
	}
	return template
}
