package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/jbogarthyde/backstage/internal/core/domain"
	"github.com/jbogarthyde/backstage/internal/core/ports/driven"
	"github.com/jbogarthyde/backstage/internal/core/ports/driving"
	"github.com/jbogarthyde/backstage/internal/logger"
)

// Ensure Engine implements the driving interfaces.
var (
	_ driving.Refreshable   = (*Engine)(nil)
	_ driving.EventConsumer = (*Engine)(nil)
)

// Engine reconciles the catalog's provider-owned location records with the
// catalog files that actually exist upstream. One Engine serves one
// provider config; it is driven from two sides, the periodic scheduler
// (full refresh) and the event bus (delta refresh), and the two may overlap
// in time. The catalog serializes mutations at the record level, so an
// overlap converges on the next full refresh.
type Engine struct {
	config  domain.ProviderConfig
	name    string
	scanner driven.CatalogFileScanner
	gateway *Gateway

	// Optional delta-refresh collaborators. Without both, push events are
	// ignored after a single logged configuration error.
	catalogAPI driven.CatalogAPI
	tokens     driven.TokenProvider

	mu   sync.RWMutex
	conn driven.CatalogConnection

	// misconfig guards the one-time ErrDeltaUnconfigured report. Best
	// effort under concurrent event delivery; a duplicate log line under
	// contention is acceptable.
	misconfig sync.Once
}

// EngineOption customises an Engine.
type EngineOption func(*Engine)

// WithCatalogAPI enables event-triggered delta refresh by supplying the
// catalog query API and its token provider.
func WithCatalogAPI(api driven.CatalogAPI, tokens driven.TokenProvider) EngineOption {
	return func(e *Engine) {
		e.catalogAPI = api
		e.tokens = tokens
	}
}

// WithGateway overrides the mutation gateway. Used by tests to tighten the
// concurrency bound.
func WithGateway(g *Gateway) EngineOption {
	return func(e *Engine) {
		e.gateway = g
	}
}

// NewEngine creates the reconciliation engine for one provider config.
func NewEngine(config domain.ProviderConfig, scanner driven.CatalogFileScanner, opts ...EngineOption) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if scanner == nil {
		return nil, fmt.Errorf("%w: scanner is required", domain.ErrInvalidConfig)
	}

	e := &Engine{
		config:  config,
		name:    config.ProviderName(),
		scanner: scanner,
		gateway: NewGateway(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// ProviderName returns the provider instance's unique name. Every record
// the engine creates carries it as ownership key.
func (e *Engine) ProviderName() string {
	return e.name
}

// TaskID returns the scheduled-task identifier for this engine's full
// refresh.
func (e *Engine) TaskID() string {
	return e.config.TaskID()
}

// Topics returns the event topics the engine subscribes to.
func (e *Engine) Topics() []string {
	return []string{domain.TopicRepoPush}
}

// Connect stores the catalog mutation channel. Must be called before
// Refresh or OnEvent; the connection is never reassigned afterwards.
func (e *Engine) Connect(conn driven.CatalogConnection) error {
	if conn == nil {
		return fmt.Errorf("%w: nil connection", domain.ErrInvalidConfig)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.conn != nil {
		return fmt.Errorf("%w: %s already connected", domain.ErrInvalidConfig, e.name)
	}
	e.conn = conn
	return nil
}

// connection returns the stored mutation channel, or nil before Connect.
func (e *Engine) connection() driven.CatalogConnection {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.conn
}

// Refresh rebuilds the provider's entire owned record set from upstream:
// one unscoped scan, one full mutation. Either the complete set commits or
// the refresh fails and the next scheduled tick retries from scratch.
func (e *Engine) Refresh(ctx context.Context) (int, error) {
	conn := e.connection()
	if conn == nil {
		return 0, fmt.Errorf("%s: %w", e.name, domain.ErrNotConnected)
	}

	logger.Info("%s: full refresh started", e.name)

	targets, err := e.collect(ctx, "")
	if err != nil {
		return 0, fmt.Errorf("%s: discovery scan: %w", e.name, err)
	}

	records := domain.MaterializeLocations(targets, e.name)
	if err := conn.ApplyMutation(ctx, domain.FullMutation(records)); err != nil {
		return 0, fmt.Errorf("%s: full mutation: %w", e.name, err)
	}

	logger.Info("%s: full refresh committed %d location records", e.name, len(records))
	return len(records), nil
}

// OnEvent processes one push-event delivery: a scoped scan of the pushed
// repository, a diff against the records this provider owns for that exact
// repository, and the resulting refresh calls plus one delta mutation.
// Records owned for other repositories are never touched.
func (e *Engine) OnEvent(ctx context.Context, event domain.Event) error {
	if event.EventKind() != domain.EventKindRepoPush {
		return nil
	}
	if event.Push.Workspace != e.config.Workspace {
		return nil
	}
	eventRepo := domain.Repository{
		ProjectKey: event.Push.ProjectKey,
		Slug:       event.Push.RepoSlug,
		WebURL:     event.Push.RepoURL,
	}
	if !e.config.Filters.Matches(eventRepo) {
		return nil
	}

	if e.catalogAPI == nil || e.tokens == nil {
		var raised error
		e.misconfig.Do(func() {
			logger.Error("%s: push event ignored: %v", e.name, domain.ErrDeltaUnconfigured)
			raised = fmt.Errorf("%s: %w", e.name, domain.ErrDeltaUnconfigured)
		})
		return raised
	}

	conn := e.connection()
	if conn == nil {
		return fmt.Errorf("%s: %w", e.name, domain.ErrNotConnected)
	}

	targets, err := e.collect(ctx, event.Push.RepoSlug)
	if err != nil {
		return fmt.Errorf("%s: scoped scan of %s: %w", e.name, event.Push.RepoSlug, err)
	}

	token, err := e.tokens.GetToken(ctx)
	if err != nil {
		return fmt.Errorf("%s: issue catalog token: %w", e.name, err)
	}

	existing, err := e.catalogAPI.GetEntities(ctx, driven.EntityFilter{
		"kind": domain.LocationKind,
		"annotations." + domain.AnnotationRepoURL: event.Push.RepoURL,
	}, token)
	if err != nil {
		return fmt.Errorf("%s: query existing records: %w", e.name, err)
	}

	added, removed, stillPresent := diff(targets, existing, e.name)

	logger.Debug("%s: delta for %s: %d added, %d removed, %d refreshed",
		e.name, event.Push.RepoSlug, len(added), len(removed), len(stillPresent))

	ops := make([]func(context.Context) error, 0, len(stillPresent)+1)
	for _, record := range stillPresent {
		target := record.Target
		ops = append(ops, func(ctx context.Context) error {
			return e.catalogAPI.RefreshEntity(ctx, target, token)
		})
	}
	if len(added) > 0 || len(removed) > 0 {
		ops = append(ops, func(ctx context.Context) error {
			return conn.ApplyMutation(ctx, domain.DeltaMutation(added, removed))
		})
	}

	if err := e.gateway.RunAll(ctx, ops); err != nil {
		return fmt.Errorf("%s: delta refresh for %s: %w", e.name, event.Push.RepoSlug, err)
	}
	return nil
}

// collect drains one scan into a slice, preserving scan order. The error
// channel is read after the target channel closes; a scan failure discards
// the partial result.
func (e *Engine) collect(ctx context.Context, scopeRepo string) ([]domain.DiscoveryTarget, error) {
	targetCh, errCh := e.scanner.Scan(ctx, scopeRepo)

	var targets []domain.DiscoveryTarget
	for target := range targetCh {
		targets = append(targets, target)
	}
	if err := <-errCh; err != nil {
		return nil, err
	}
	return targets, nil
}

// diff computes the delta between one repository's live discovery targets
// and the records this provider currently owns for it. Comparison is by
// target URL, byte-for-byte: every URL on both sides was produced by the
// same resolver, so no normalisation is needed.
func diff(
	targets []domain.DiscoveryTarget,
	existing []domain.LocationRecord,
	providerName string,
) (added []domain.LocationRecord, removed []domain.Removal, stillPresent []domain.LocationRecord) {
	existingByTarget := make(map[string]struct{}, len(existing))
	for _, record := range existing {
		existingByTarget[record.Target] = struct{}{}
	}
	discovered := make(map[string]struct{}, len(targets))
	for _, target := range targets {
		discovered[target.FileURL] = struct{}{}
	}

	for _, target := range targets {
		if _, ok := existingByTarget[target.FileURL]; !ok {
			added = append(added, domain.NewLocationRecord(target, providerName))
		}
	}
	for _, record := range existing {
		if _, ok := discovered[record.Target]; ok {
			stillPresent = append(stillPresent, record)
		} else {
			removed = append(removed, domain.Removal{
				Record:       record,
				OwnershipKey: providerName,
			})
		}
	}
	return added, removed, stillPresent
}
