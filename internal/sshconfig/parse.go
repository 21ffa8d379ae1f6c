// Package sshconfig edits the ssh client config file and discovers private
// keys in the ssh directory.
//
// The config file is handled as raw lines. A single pass splits it into host
// blocks:
//
//	file      := item*
//	item      := marker? hostLine directive* | other
//	marker    := "# GitSwitch:" profile-name
//	hostLine  := "Host " patterns
//	directive := any line up to the next hostLine, marker or end of file
//
// A marker owns a block only when the very next line is a Host line; a marker
// anywhere else is ordinary content. Leading whitespace is ignored when
// classifying lines, so indentation of directives is cosmetic.
package sshconfig

import (
	"strings"
)

// MarkerPrefix starts the comment line that marks a block as owned.
const MarkerPrefix = "# GitSwitch:"

// Block is one Host declaration and the lines that belong to it.
type Block struct {
	// Owned is set when the block is preceded by a marker line.
	Owned bool
	// Marker is the profile name from the marker line.
	Marker string
	// Start is the first line of the block: the marker line when owned,
	// the Host line otherwise.
	Start int
	// HostLine is the index of the Host line.
	HostLine int
	// End is one past the last line of the block.
	End int
	// Patterns is the text after "Host", trimmed.
	Patterns string
}

// Aliases returns the individual host patterns of the block.
func (b Block) Aliases() []string {
	return strings.Fields(b.Patterns)
}

// Document is a parsed config file.
type Document struct {
	Lines  []string
	Blocks []Block
}

// Parse splits content into lines and host blocks. Joining Lines with "\n"
// reproduces content exactly.
func Parse(content string) *Document {
	lines := strings.Split(content, "\n")
	doc := &Document{Lines: lines}

	var current *Block
	closeCurrent := func(end int) {
		if current != nil {
			current.End = end
			doc.Blocks = append(doc.Blocks, *current)
			current = nil
		}
	}

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		switch {
		case isMarker(line):
			closeCurrent(i)
			if i+1 < len(lines) {
				if patterns, ok := hostPatterns(lines[i+1]); ok {
					current = &Block{
						Owned:    true,
						Marker:   markerName(line),
						Start:    i,
						HostLine: i + 1,
						Patterns: patterns,
					}
					i++
				}
			}
		default:
			if patterns, ok := hostPatterns(line); ok {
				closeCurrent(i)
				current = &Block{
					Start:    i,
					HostLine: i,
					Patterns: patterns,
				}
			}
		}
	}
	closeCurrent(len(lines))

	return doc
}

// String joins the lines back into file content.
func (d *Document) String() string {
	return strings.Join(d.Lines, "\n")
}

// Directives returns the lines following the Host line of b.
func (d *Document) Directives(b Block) []string {
	return d.Lines[b.HostLine+1 : b.End]
}

// HasAlias reports whether any block, owned or not, declares alias as one
// of its patterns.
func (d *Document) HasAlias(alias string) bool {
	for _, b := range d.Blocks {
		for _, a := range b.Aliases() {
			if a == alias {
				return true
			}
		}
	}
	return false
}

// Without returns a document with the owned blocks whose Host line names
// exactly alias removed. Every other line is kept as is.
func (d *Document) Without(alias string) (*Document, int) {
	return d.without(func(b Block) bool { return b.Patterns == alias })
}

// WithoutOwned is Without restricted to blocks whose marker names marker.
func (d *Document) WithoutOwned(alias, marker string) (*Document, int) {
	return d.without(func(b Block) bool { return b.Patterns == alias && b.Marker == marker })
}

func (d *Document) without(match func(Block) bool) (*Document, int) {
	var kept []string
	removed := 0
	next := 0
	for _, b := range d.Blocks {
		if !b.Owned || !match(b) {
			continue
		}
		kept = append(kept, d.Lines[next:b.Start]...)
		next = b.End
		removed++
	}
	if removed == 0 {
		return d, 0
	}
	kept = append(kept, d.Lines[next:]...)
	return Parse(strings.Join(kept, "\n")), removed
}

func trimmed(line string) string {
	return strings.TrimSpace(line)
}

func isMarker(line string) bool {
	return strings.HasPrefix(trimmed(line), MarkerPrefix)
}

func markerName(line string) string {
	return strings.TrimSpace(strings.TrimPrefix(trimmed(line), MarkerPrefix))
}

// hostPatterns reports whether line is a Host line and returns its patterns.
// HostName and other keywords starting with "Host" do not match.
func hostPatterns(line string) (string, bool) {
	t := trimmed(line)
	if !strings.HasPrefix(t, "Host ") && !strings.HasPrefix(t, "Host\t") {
		return "", false
	}
	return strings.TrimSpace(t[len("Host"):]), true
}

// directive splits a config line into keyword and value. Blank lines and
// comments return ok=false.
func directive(line string) (keyword, value string, ok bool) {
	t := trimmed(line)
	if t == "" || strings.HasPrefix(t, "#") {
		return "", "", false
	}
	i := strings.IndexAny(t, " \t=")
	if i < 0 {
		return t, "", true
	}
	keyword = t[:i]
	value = strings.TrimLeft(t[i:], " \t=")
	return keyword, unquote(strings.TrimSpace(value)), true
}

func unquote(v string) string {
	if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
		return v[1 : len(v)-1]
	}
	return v
}

func quoteIfNeeded(v string) string {
	if strings.ContainsAny(v, " \t") {
		return `"` + v + `"`
	}
	return v
}
