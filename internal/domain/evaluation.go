package domain

// EvaluationResult is the output of a verification agent over a single
// response. Scores are independent; an agent fills only the ones it computes.
// Results are reported, never persisted as system state.
type EvaluationResult struct {
	Query  string `json:"query"`
	Answer string `json:"answer"`

	FaithfulnessScore     *float64 `json:"faithfulness_score,omitempty"`
	RelevanceScore        *float64 `json:"relevance_score,omitempty"`
	ContextPrecisionScore *float64 `json:"context_precision_score,omitempty"`

	UnsupportedClaims []string `json:"unsupported_claims,omitempty"`
	BrokenCitations   []string `json:"broken_citations,omitempty"`

	Passed bool `json:"passed"`
}

// Score is a helper for constructing optional score pointers.
func Score(v float64) *float64 { return &v }

// GoldenDatasetEntry is a single question/answer pair in the evaluation
// golden dataset produced by the adversarial generator.
type GoldenDatasetEntry struct {
	EntryID           string   `json:"entry_id"`
	Question          string   `json:"question"`
	ReferenceContext  string   `json:"reference_context"`
	ExpectedAnswer    string   `json:"expected_answer"`
	SourceDocumentIDs []string `json:"source_document_ids"`
	IsMultiHop        bool     `json:"is_multi_hop"`
}
