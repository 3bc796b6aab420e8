package service

import (
	"fmt"
	"strings"

	"github.com/legalmind/legalmind/internal/domain"
)

// SystemPrompt carries the grounding and citation mandates. The answer is only
// as trustworthy as the rules that constrain it: context-only grounding, an
// inline citation after every claim, an explicit refusal phrasing when the
// context is insufficient, and a standing disclaimer.
const SystemPrompt = `You are LegalMind, an AI assistant for a law firm's internal knowledge base.

STRICT RULES -- you must follow these at all times:

1. GROUNDING: You may ONLY use information explicitly present in the CONTEXT provided below.
   Do not use any external knowledge, training data, or assumptions.

2. CITATIONS: After every factual claim, include a citation in this exact format:
   [SOURCE: {document_id}:{chunk_id}]
   You MUST cite the specific chunk ID from the context that supports each claim.

3. UNKNOWN INFORMATION: If the provided context does not contain sufficient information
   to answer the question, you MUST respond with:
   "I don't know based on the provided documents. Please consult a qualified attorney
   or search for additional documents."
   Do not guess, extrapolate, or fill gaps with general legal knowledge.

4. DISCLAIMER: End every response with:
   "⚠️ This response is for informational purposes only and does not constitute legal advice."

5. STRUCTURE: Organise long answers with clear headings. Use bullet points for lists of clauses.

6. ACCURACY: Legal precision matters. Quote exact clause numbers, dates, party names, and
   monetary figures verbatim from the source text. Do not paraphrase critical terms.
`

// FallbackAnswer is returned verbatim when retrieval finds nothing, and is the
// phrasing rule 3 of the system prompt instructs the model to use.
const FallbackAnswer = "I don't know based on the provided documents. Please consult a qualified attorney or search for additional documents."

// Disclaimer is appended to every response per rule 4 of the system prompt.
const Disclaimer = "⚠️ This response is for informational purposes only and does not constitute legal advice."

// fallbackMarker is the substring that identifies an insufficient-context
// answer regardless of surrounding wording.
const fallbackMarker = "I don't know"

// IsFallbackAnswer reports whether the answer admits insufficient context.
func IsFallbackAnswer(answer string) bool {
	return strings.Contains(answer, fallbackMarker)
}

// BuildUserMessage injects the retrieved chunks as labelled context blocks.
// Each block carries the document id and chunk id so the model can emit
// resolvable citations, and so citation verification stays mechanical.
func BuildUserMessage(query string, chunks []*domain.Chunk) string {
	blocks := make([]string, 0, len(chunks))
	for _, c := range chunks {
		blocks = append(blocks, fmt.Sprintf("[DOCUMENT: %s | ID: %s | CHUNK: %s]\n%s",
			c.Metadata.Filename, c.DocumentID, c.ID, c.Text))
	}

	var b strings.Builder
	b.WriteString("CONTEXT (retrieved from internal legal documents):\n\n")
	b.WriteString(strings.Join(blocks, "\n\n---\n\n"))
	b.WriteString("\n\n---\n\nUSER QUESTION:\n")
	b.WriteString(query)
	b.WriteString("\n\nRemember: cite every fact with [SOURCE: document_id:chunk_id] and follow all system rules.")
	return b.String()
}
