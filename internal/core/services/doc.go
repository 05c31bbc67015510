// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The answering pipeline lives here: the document builder renders records
// as text, the index builder embeds them into a vectorindex generation and
// publishes it, the retriever queries the published generation and the
// synthesizer turns retrieved documents into a grounded answer.
//
// Services are pure Go with no CGO.
package services
