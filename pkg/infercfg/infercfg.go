// Package infercfg works with nvinfer configuration files - INI-like text
// documents made of `[section]` headers followed by `key=value` lines.
// Values are opaque strings, comments and blank lines are kept verbatim,
// so an untouched document always round-trips byte to byte (a missing final
// newline is the only thing that gets normalized).
package infercfg

import (
	"strings"
)

// AllClasses is the section whose thresholds apply to every detection class
// unless a more specific [class-attrs-N] section overrides them.
const AllClasses = "[class-attrs-all]"

// Threshold values understood by nvinfer post-clustering.
// 1.0 is outside any real confidence range, so it suppresses everything.
const (
	PermissiveThreshold  = "pre-cluster-threshold=0.25"
	RestrictiveThreshold = "pre-cluster-threshold=1.0"
)

// Section is one `[header]` block with its body lines kept verbatim.
type Section struct {
	Header string   // header line as written, e.g. "[class-attrs-all]"
	Lines  []string // body lines without trailing newline
}

// Document is an ordered inference configuration: lines before the first
// header, then the sections in file order. Section names are not unique.
type Document struct {
	Preamble []string
	Sections []Section
}

// Parse splits text into a Document. Any line whose trimmed form opens
// with `[` starts a new section, everything else belongs to the current
// section body (or the preamble before the first header).
func Parse(text string) *Document {
	doc := &Document{}

	lines := strings.Split(text, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1] // trailing newline
	}

	cur := -1
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "[") {
			doc.Sections = append(doc.Sections, Section{Header: line})
			cur++
			continue
		}
		if cur < 0 {
			doc.Preamble = append(doc.Preamble, line)
		} else {
			doc.Sections[cur].Lines = append(doc.Sections[cur].Lines, line)
		}
	}

	return doc
}

// Strip removes every section whose trimmed header equals header and
// returns the number of removed sections. Matching is exact and
// case-sensitive, same as the consuming engine.
func (d *Document) Strip(header string) (n int) {
	kept := d.Sections[:0]
	for _, s := range d.Sections {
		if strings.TrimSpace(s.Header) == header {
			n++
			continue
		}
		kept = append(kept, s)
	}
	d.Sections = kept
	return
}

// Append adds a new section at the end of the document, separated from the
// previous content by a blank line.
func (d *Document) Append(header string, lines ...string) {
	if n := len(d.Sections); n > 0 {
		d.Sections[n-1].Lines = append(d.Sections[n-1].Lines, "")
	} else {
		d.Preamble = append(d.Preamble, "")
	}
	d.Sections = append(d.Sections, Section{Header: header, Lines: lines})
}

// Set replaces the value of every `key=...` line in the document.
// Lines are matched on their trimmed form and rewritten without the
// original surrounding whitespace.
func (d *Document) Set(key, value string) {
	line := key + "=" + value

	replace := func(lines []string) {
		for i, s := range lines {
			if strings.HasPrefix(strings.TrimSpace(s), key+"=") {
				lines[i] = line
			}
		}
	}

	replace(d.Preamble)
	for i := range d.Sections {
		replace(d.Sections[i].Lines)
	}
}

// String renders the document back to its line-oriented text form.
// Every line, including the last one, is newline-terminated.
func (d *Document) String() string {
	var b strings.Builder

	for _, line := range d.Preamble {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	for _, s := range d.Sections {
		b.WriteString(s.Header)
		b.WriteByte('\n')
		for _, line := range s.Lines {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}

	return b.String()
}
