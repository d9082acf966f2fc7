// Package services contains the core reconciliation logic: the per-provider
// engine that keeps the catalog's location records in sync with upstream
// discovery, the bounded-concurrency mutation gateway, and the scheduler
// that drives periodic full refreshes.
package services
