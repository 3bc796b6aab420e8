package domain

import (
	"fmt"
	"regexp"
)

// The inline citation marker format is a compatibility contract between the
// generator prompt, the citation extractor, and the Shepardizer: all three
// must produce and parse it identically.
//
//	[SOURCE: <document_id>:<chunk_id>]
//
// Document and chunk ids are lowercase hex/hyphenated identifiers (UUIDs).
var citationMarkerPattern = regexp.MustCompile(`(?i)\[SOURCE:\s*([a-f0-9\-]+):([a-f0-9\-]+)\]`)

// CitationMarker is one parsed [SOURCE: ...] marker from generated text.
type CitationMarker struct {
	DocumentID string
	ChunkID    string
}

// String renders the marker back in its wire format.
func (m CitationMarker) String() string {
	return FormatCitationMarker(m.DocumentID, m.ChunkID)
}

// FormatCitationMarker renders a marker in the mandated wire format.
func FormatCitationMarker(documentID, chunkID string) string {
	return fmt.Sprintf("[SOURCE: %s:%s]", documentID, chunkID)
}

// ExtractCitationMarkers parses every citation marker from generated text, in
// order of appearance. Malformed markers are ignored.
func ExtractCitationMarkers(text string) []CitationMarker {
	matches := citationMarkerPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	markers := make([]CitationMarker, 0, len(matches))
	for _, m := range matches {
		markers = append(markers, CitationMarker{DocumentID: m[1], ChunkID: m[2]})
	}
	return markers
}
