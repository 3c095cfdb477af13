// Package knowledge maintains the bot's knowledge base: text pulled from
// external sources, held in memory as an immutable snapshot that is
// replaced wholesale on each refresh.
package knowledge

import "time"

// Document is one ingested knowledge source's content. Documents are
// immutable once fetched; a refresh replaces them, never patches them.
type Document struct {
	SourceID  string
	Text      string
	FetchedAt time.Time
}

// Snapshot is a fully-formed view of the knowledge base at one refresh.
// Readers obtain a *Snapshot from the Store and must not mutate it.
type Snapshot struct {
	Documents   []Document
	RefreshedAt time.Time
}

// TotalChars returns the combined length of all document text.
func (s *Snapshot) TotalChars() int {
	var n int
	for _, d := range s.Documents {
		n += len(d.Text)
	}
	return n
}
