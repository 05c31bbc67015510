// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - EmbeddingService: Turns document and question text into vectors
//   - BlobStore: Durable storage for published index generations
//   - ProductStore: The imported product catalog
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: Answer synthesis. Without it, only retrieval is available.
//   - RecordSource: Reads scraped records from files for import.
//   - RebuildLock: Cross-process single-writer lock. Without it, only
//     rebuilds inside one process are serialised.
//   - PromptStore: Customisable prompts. Without it, built-in prompts are used.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
