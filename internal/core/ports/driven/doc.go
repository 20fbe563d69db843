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
//   - PageFetcher: Fetches one URL, rate limited
//   - RobotsPolicy: Answers robots.txt questions per URL
//   - Normaliser: Turns fetched HTML into a Document
//   - PostProcessorPipeline: Chunks and tags a Document
//   - EmbeddingService: Generates vector embeddings
//   - KnowledgeBaseStore: Publishes and opens index/docstore pairs
//   - PageManifestStore: Persists the crawl's page manifest
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: Generation. Without it, answers are error replies.
//   - LeadForwarder: Webhook copy of captured leads.
//   - TokenCounter: Prompt token accounting.
//   - PromptStore: User-editable prompt text. Defaults are compiled in.
//   - ProviderProbe: Reachability check used by the settings wizard.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
