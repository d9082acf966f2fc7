// Package domain defines the core business entities for the catalog
// discovery service.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - DiscoveryTarget: A catalog file located upstream, not yet registered
//   - LocationRecord: A catalog entry pointing at a discovered file
//   - Mutation: A full or delta update to the provider-owned record set
//   - ProviderConfig: One configured discovery provider instance
//   - PushEvent: A repository push notification from the hosting service
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
