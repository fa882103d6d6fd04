package ir

import (
	"strings"
)

// Entry is one paragraph of a Snapshot.
type Entry struct {
	Key  Key
	Text string
}

// Snapshot is the ordered LocationKey -> text mapping captured by one
// indexing pass. Entry order is document order.
//
// INVARIANTS:
//   - Keys are unique
//   - Every paragraph in the document appears exactly once
//   - DocPos values are dense 0..N-1 in entry order
//
// A Snapshot is never mutated after it is built.
type Snapshot struct {
	entries []Entry
	byKey   map[string]int
}

// NewSnapshot builds a Snapshot from entries in document order.
func NewSnapshot(entries []Entry) Snapshot {
	s := Snapshot{
		entries: make([]Entry, len(entries)),
		byKey:   make(map[string]int, len(entries)),
	}
	copy(s.entries, entries)
	for i, e := range s.entries {
		s.byKey[e.Key.String()] = i
	}
	return s
}

// Len returns the number of paragraphs.
func (s Snapshot) Len() int {
	return len(s.entries)
}

// Entries returns a copy of the entries in document order.
func (s Snapshot) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Keys returns the LocationKeys in document order.
func (s Snapshot) Keys() []string {
	keys := make([]string, len(s.entries))
	for i, e := range s.entries {
		keys[i] = e.Key.String()
	}
	return keys
}

// Text returns the text recorded for key.
func (s Snapshot) Text(key string) (string, bool) {
	i, ok := s.byKey[key]
	if !ok {
		return "", false
	}
	return s.entries[i].Text, true
}

// Render returns the "<key>: <text>" lines joined by newlines, the form
// handed to an agent as the addressable view of the document.
func (s Snapshot) Render() string {
	lines := make([]string, len(s.entries))
	for i, e := range s.entries {
		lines[i] = e.Key.String() + ": " + e.Text
	}
	return strings.Join(lines, "\n")
}

// Fingerprint hashes the concatenation of "<key>: <text>\n" for every entry
// in snapshot order. Identical content and ordering always yield the same
// fingerprint; any text or structural change yields a different one.
func (s Snapshot) Fingerprint() string {
	var b strings.Builder
	for _, e := range s.entries {
		b.WriteString(e.Key.String())
		b.WriteString(": ")
		b.WriteString(e.Text)
		b.WriteByte('\n')
	}
	return hashWithDomain(DomainSnapshot, []byte(b.String()))
}
