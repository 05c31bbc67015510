package domain

// DefaultTopK is how many documents are retrieved per question when the
// caller does not say.
const DefaultTopK = 10

// InsufficientDataAnswer is the reply the model is told to give when the
// catalog context cannot answer the question.
const InsufficientDataAnswer = "I don't have enough information in the catalog to answer that."

// Answer is the grounded reply to one question.
type Answer struct {
	// Text is the model's answer.
	Text string `json:"answer"`

	// Sources lists the product IDs the answer used, in the model's order.
	// Every entry is guaranteed to be one of the retrieved documents.
	Sources []string `json:"sources"`

	// Confidence is the model's self-reported confidence in [0,1], if given.
	Confidence *float64 `json:"confidence,omitempty"`

	// Warning is set when citations outside the retrieved set were removed.
	Warning *UngroundedCitationWarning `json:"warning,omitempty"`

	// Generation identifies the index generation the answer was retrieved from.
	Generation string `json:"generation,omitempty"`

	// ContextTruncated is true when retrieved documents were dropped or cut
	// to fit the model's input budget.
	ContextTruncated bool `json:"context_truncated,omitempty"`

	// Retrieved holds the documents the answer was grounded on.
	Retrieved []RetrievalResult `json:"-"`
}

// AskOptions configures a single question.
type AskOptions struct {
	// K is the number of documents to retrieve. Zero means the configured default.
	K int
}
