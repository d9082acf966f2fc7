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
//   - CatalogFileScanner: Streams discovery targets from the hosting service
//   - CatalogConnection: Applies full/delta mutations to the catalog
//   - SchedulerStore: Scheduled-task state persistence
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - CatalogAPI + TokenProvider: Without both, event-triggered delta
//     refresh is disabled (logged once, then ignored). Scheduled full
//     refresh keeps working.
//   - EventBus: Without it, only scheduled full refresh runs.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or connector package
package driven
