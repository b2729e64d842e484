package core

import (
	"fmt"
	"strings"
)

// Record is a single feed item as it moves from the source, through the
// history, to the notifiers. Two records are the same item iff their Identity
// matches; Title, Body and Link are display data only.
type Record struct {
	Identity string `json:"identity" yaml:"identity"`
	Title    string `json:"title" yaml:"title"`
	Body     string `json:"body" yaml:"body"`
	Link     string `json:"link,omitempty" yaml:"link,omitempty"`
}

// NewRecord builds a Record from raw feed fields. The description is stripped
// of markup once, here, so every downstream consumer sees plain text.
func NewRecord(identity, title, description string) Record {
	return Record{
		Identity: identity,
		Title:    title,
		Body:     StripHTML(description),
	}
}

// SameItem reports whether both records describe the same feed item.
func (r Record) SameItem(other Record) bool {
	return r.Identity == other.Identity
}

// Message is the text delivered to notifiers.
func (r Record) Message() string {
	return fmt.Sprintf("Title: %s\n%s", r.Title, r.Body)
}

func (r Record) String() string {
	return r.Message()
}

// StripHTML removes every '<'...'>' span from s. A '<' opens a tag and the next
// '>' closes it, regardless of newlines in between. Outside a tag every
// character is kept, including a '>' that has no open tag.
func StripHTML(s string) string {
	if !strings.ContainsRune(s, '<') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>' && inTag:
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return b.String()
}
