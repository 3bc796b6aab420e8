package domain

import "time"

// DocumentType classifies a legal document.
type DocumentType string

const (
	DocumentTypeContract       DocumentType = "contract"
	DocumentTypeCaseFile       DocumentType = "case_file"
	DocumentTypePleading       DocumentType = "pleading"
	DocumentTypeBrief          DocumentType = "brief"
	DocumentTypeCorrespondence DocumentType = "correspondence"
	DocumentTypeUnknown        DocumentType = "unknown"
)

// ParseDocumentType maps a string to a DocumentType, defaulting to unknown.
func ParseDocumentType(s string) DocumentType {
	switch DocumentType(s) {
	case DocumentTypeContract, DocumentTypeCaseFile, DocumentTypePleading,
		DocumentTypeBrief, DocumentTypeCorrespondence:
		return DocumentType(s)
	}
	return DocumentTypeUnknown
}

// DocumentMetadata is the document-level descriptive record extracted during
// ingestion. It is owned by the ingestion path and denormalized onto every
// chunk of the document.
type DocumentMetadata struct {
	DocumentID   string       `json:"document_id"`
	Filename     string       `json:"filename"`
	DocumentType DocumentType `json:"document_type"`
	Date         *time.Time   `json:"date,omitempty"`
	Parties      []string     `json:"parties,omitempty"`
	ClientID     string       `json:"client_id,omitempty"`
}

// Chunk is the smallest retrievable unit of document text. Chunks are created
// during ingestion and read-only afterwards.
type Chunk struct {
	ID         string
	DocumentID string
	Text       string
	// ChunkIndex is the 0-based position within the source document.
	ChunkIndex int
	Metadata   DocumentMetadata
	// RelevanceScore is transient: assigned by retrieval or re-ranking for the
	// current pass only, overwritten on the next one, never part of identity.
	RelevanceScore float64
}

// ValidateChunk checks the chunk invariants: unique identity is enforced by
// the store, non-empty id and text are enforced here.
func ValidateChunk(c *Chunk) error {
	if c == nil {
		return ErrMissingRequiredField
	}
	if c.ID == "" || c.DocumentID == "" {
		return ErrMissingRequiredField
	}
	if c.Text == "" {
		return ErrEmptyChunkText
	}
	return nil
}
