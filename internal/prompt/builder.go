// Package prompt composes grounded completion prompts from the knowledge
// snapshot, the conversation history and the user's message.
package prompt

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/knamoah/kasabot/internal/knowledge"
	"github.com/knamoah/kasabot/internal/llm"
)

const preamble = `You are a friendly and knowledgeable assistant for a student association. Provide clear, accurate, and helpful responses.`

const groundingInstructions = `IMPORTANT: Answer questions directly using the information provided. Never tell users to "check the document" or "visit the website" - give them the answer directly.`

const formattingGuidelines = `FORMATTING GUIDELINES:
- Structure responses with clear sections
- Use **bold** for headings and key terms
- Use *italic* for emphasis and notes
- Use bullet points (- ) for lists and multiple items
- Use ` + "`code format`" + ` for dates, times, locations, and numbers
- Keep paragraphs short (2-3 sentences max)
- Use line breaks to improve readability
- End with actionable next steps when relevant
- Be warm, friendly, and encouraging in tone`

// Builder builds prompts. Budget bounds the total size, in characters, of
// the knowledge text embedded in the system prompt; oversized knowledge is
// truncated deterministically, never an error.
type Builder struct {
	Budget int
}

// Build assembles the full message list for one completion: grounded
// system prompt, prior turns, then the user's message. Output is
// deterministic for identical inputs.
func (b *Builder) Build(userMessage string, history []llm.Message, snap *knowledge.Snapshot) []llm.Message {
	msgs := make([]llm.Message, 0, len(history)+2)
	msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: b.System(snap)})
	msgs = append(msgs, history...)
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: userMessage})
	return msgs
}

// System returns the system prompt for the given snapshot.
func (b *Builder) System(snap *knowledge.Snapshot) string {
	var sb strings.Builder
	sb.WriteString(preamble)
	sb.WriteString("\n\n")

	if block := b.knowledgeBlock(snap); block != "" {
		sb.WriteString("Use this official information to answer questions:\n\n")
		sb.WriteString(block)
		sb.WriteString("\n\n")
		sb.WriteString(groundingInstructions)
		sb.WriteString("\n\n")
	}

	sb.WriteString(formattingGuidelines)
	return sb.String()
}

// knowledgeBlock renders the snapshot's documents into labelled sections,
// spending the character budget on the most recently fetched documents
// first. Documents that do not fit are truncated or omitted; the result
// never exceeds the budget.
func (b *Builder) knowledgeBlock(snap *knowledge.Snapshot) string {
	if snap == nil || len(snap.Documents) == 0 || b.Budget <= 0 {
		return ""
	}

	docs := make([]knowledge.Document, len(snap.Documents))
	copy(docs, snap.Documents)
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].FetchedAt.After(docs[j].FetchedAt)
	})

	remaining := b.Budget
	var sections []string
	for _, d := range docs {
		if d.Text == "" {
			continue
		}
		header := fmt.Sprintf("=== SOURCE %s ===\n", d.SourceID)
		need := len(header) + 1 // at least one character of content
		if remaining < need {
			break
		}
		text := d.Text
		if len(header)+len(text) > remaining {
			text = truncate(text, remaining-len(header))
		}
		sections = append(sections, header+text)
		remaining -= len(header) + len(text)
	}

	block := strings.Join(sections, "\n\n")
	if len(block) > b.Budget {
		// Join separators can push past the budget; trim to honor it.
		block = truncate(block, b.Budget)
	}
	return block
}

// truncate cuts s to at most n bytes, backing off to the previous rune
// boundary so scraped multi-byte text never ends mid-rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
