package domain

// DiscoveryTarget is a catalog file located by an upstream scan, not yet
// converted into a catalog record. Targets are ephemeral: a scan produces
// them, the engine consumes them, nothing persists them.
type DiscoveryTarget struct {
	// FileURL is the canonical raw-file URL of the discovered catalog file.
	// It is the target's identity; two targets with equal FileURL are the
	// same discovery.
	FileURL string

	// RepoURL is the canonical web URL of the repository that owns the file.
	RepoURL string
}

// Repository is the subset of the hosting service's repository model the
// discovery engine needs: identity for filtering, web URL for provenance,
// default branch for raw-file URL construction.
type Repository struct {
	// ProjectKey is the key of the project grouping this repository.
	ProjectKey string

	// Slug is the repository's URL-safe short name within its workspace.
	Slug string

	// WebURL is the repository's canonical web URL.
	WebURL string

	// DefaultBranch is the name of the main branch. May be empty when the
	// repository has no commits yet; callers fall back to "master".
	DefaultBranch string
}
