package driven

import "github.com/custodia-labs/shelfwise/internal/core/domain"

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names.
const (
	// PromptAnswer instructs the model to answer from catalog context as JSON.
	// The template uses the {{context}} and {{question}} placeholders.
	PromptAnswer = "answer"
)

// Placeholders substituted into PromptAnswer.
const (
	PlaceholderContext  = "{{context}}"
	PlaceholderQuestion = "{{question}}"
)

// DefaultAnswerPrompt is the built-in PromptAnswer template.
const DefaultAnswerPrompt = `You are a product catalog assistant. Answer the question using ONLY the
products in the context below. Each product starts with a line of the form
[source: ID].

Rules:
- Use only facts stated in the context. Never invent products, prices or ratings.
- List the ID of every product your answer relies on in "sources".
- If the context does not answer the question, reply with the answer
  "` + domain.InsufficientDataAnswer + `" and an empty sources list.
- Reply with one JSON object and nothing else:
  {"answer": "<answer text>", "sources": ["<ID>"], "confidence": <number from 0 to 1>}

Context:
{{context}}

Question: {{question}}`
