// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the workflow engine to run:
//
//   - LLMService: Structured and free-text generation
//   - DocumentStore: Partitioned similarity search over menus, code and manual
//   - RecordStore: Structured record queries and schema description
//   - PromptStore: Prompt templates
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the engine skips the work they would do:
//
//   - GraphStore: Strict multi-ingredient dish queries
//   - WebSearcher: Out-of-domain web results
//   - DistanceTable: Planet distance lookups
//   - JudgmentCache: Memoised structured judgments
//   - WorkflowObserver: Stage and run metrics
//   - DishCatalog / ResultSink: Batch result formatting
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
