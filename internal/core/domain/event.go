package domain

// Event topics and metadata fields for the hosting service's webhook
// deliveries.
const (
	// TopicRepoPush is the event topic the engine subscribes to.
	TopicRepoPush = ServiceID + "/repo:push"

	// MetaEventKey is the metadata field carrying the delivery's event kind.
	MetaEventKey = "x-event-key"

	// EventKindRepoPush is the only event kind the engine acts on.
	EventKindRepoPush = "repo:push"
)

// PushEvent is the payload of a repository push notification.
type PushEvent struct {
	// Workspace is the slug of the workspace the push happened in.
	Workspace string

	// RepoSlug is the pushed repository's slug.
	RepoSlug string

	// ProjectKey is the key of the pushed repository's project.
	ProjectKey string

	// RepoURL is the pushed repository's canonical web URL.
	RepoURL string
}

// Event is one delivery from the event bus: a topic, transport metadata,
// and a typed payload.
type Event struct {
	// ID uniquely identifies the delivery, for logging.
	ID string

	// Topic is the topic the event was published on.
	Topic string

	// Metadata carries transport-level fields such as MetaEventKey.
	Metadata map[string]string

	// Push is the decoded payload for TopicRepoPush events.
	Push PushEvent
}

// EventKind returns the delivery's event kind from metadata, or "" when
// absent.
func (e Event) EventKind() string {
	return e.Metadata[MetaEventKey]
}
