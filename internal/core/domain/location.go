package domain

// Location record constants. These strings are part of the catalog
// contract and must not change between releases.
const (
	// LocationKind is the record kind for every entity this service manages.
	LocationKind = "Location"

	// LocationType is the location spec type: all discovered files are
	// addressed by URL.
	LocationType = "url"

	// LocationPresence marks managed locations as required: the catalog
	// treats a fetch failure as an error rather than silently dropping the
	// record.
	LocationPresence = "required"

	// AnnotationRepoURL is the provenance annotation key. Its value is the
	// canonical web URL of the repository that produced the record, and it
	// is what scopes delta refreshes to a single repository.
	AnnotationRepoURL = "bitbucket.org/repo-url"
)

// LocationRecord is a catalog entry pointing at one discovered catalog file.
// Records are created exclusively by this service; the ownership key ties
// each record to the provider instance that produced it so unrelated
// providers' records are never touched.
type LocationRecord struct {
	// Kind is always LocationKind.
	Kind string

	// Type is always LocationType.
	Type string

	// Target is the raw-file URL the catalog should ingest. It is the
	// record's natural key: diffs compare Target strings byte-for-byte.
	Target string

	// Presence is always LocationPresence.
	Presence string

	// Annotations carries record metadata. Every managed record has an
	// AnnotationRepoURL entry.
	Annotations map[string]string

	// OwnershipKey is the name of the provider instance that owns this
	// record.
	OwnershipKey string
}

// NewLocationRecord builds the catalog record for one discovery target,
// owned by the named provider.
func NewLocationRecord(target DiscoveryTarget, providerName string) LocationRecord {
	return LocationRecord{
		Kind:     LocationKind,
		Type:     LocationType,
		Target:   target.FileURL,
		Presence: LocationPresence,
		Annotations: map[string]string{
			AnnotationRepoURL: target.RepoURL,
		},
		OwnershipKey: providerName,
	}
}

// MaterializeLocations converts discovery targets into catalog records,
// order-preserving and 1:1 with the input.
func MaterializeLocations(targets []DiscoveryTarget, providerName string) []LocationRecord {
	records := make([]LocationRecord, 0, len(targets))
	for _, t := range targets {
		records = append(records, NewLocationRecord(t, providerName))
	}
	return records
}

// MutationType distinguishes full-replace from incremental catalog updates.
type MutationType string

const (
	// MutationFull replaces the provider's entire owned record set.
	MutationFull MutationType = "full"

	// MutationDelta applies additions and removals relative to the current
	// owned set.
	MutationDelta MutationType = "delta"
)

// Removal names one record to delete. The ownership key is explicit on the
// removal so the catalog can enforce, independently of this engine, that a
// provider only ever deletes its own records.
type Removal struct {
	Record       LocationRecord
	OwnershipKey string
}

// Mutation is one catalog update. Type selects which fields are meaningful:
// Entities for full mutations, Added/Removed for delta mutations.
//
// A full mutation is all-or-nothing by contract with the catalog; a delta
// mutation batches additions and removals into the one call precisely so no
// half-applied state is observable.
type Mutation struct {
	Type     MutationType
	Entities []LocationRecord
	Added    []LocationRecord
	Removed  []Removal
}

// FullMutation builds a mutation replacing the entire owned set.
func FullMutation(entities []LocationRecord) Mutation {
	return Mutation{Type: MutationFull, Entities: entities}
}

// DeltaMutation builds an incremental mutation.
func DeltaMutation(added []LocationRecord, removed []Removal) Mutation {
	return Mutation{Type: MutationDelta, Added: added, Removed: removed}
}
