// Package archsync keeps a remote work-item store and its
// Live-Documents consistent with an engineering model graph. A run is
// one single logical pass: elements are bound to their matching
// configuration, serialized into drafts, linked, diffed against the
// remote inventory by checksum, and finally the configured documents
// are rendered and reconciled.
package archsync

import (
	"context"

	"github.com/archsync/archsync/pkg/config"
	"github.com/archsync/archsync/pkg/document"
	"github.com/archsync/archsync/pkg/errors"
	"github.com/archsync/archsync/pkg/links"
	"github.com/archsync/archsync/pkg/logging"
	"github.com/archsync/archsync/pkg/model"
	"github.com/archsync/archsync/pkg/serialize"
	"github.com/archsync/archsync/pkg/sync"
	"github.com/archsync/archsync/pkg/workitem"
)

// Engine wires the pipeline stages together for one or more runs
// against the same stores.
type Engine struct {
	cfg        *config.Config
	store      sync.Store
	documents  document.Store
	rasterizer serialize.Rasterizer
	templates  serialize.TemplateEngine
	syncOpts   []sync.Option
}

// Option configures an Engine.
type Option func(*Engine)

// WithDocumentStore sets the remote document store. Without one,
// document rendering is unavailable.
func WithDocumentStore(store document.Store) Option {
	return func(e *Engine) { e.documents = store }
}

// WithRasterizer sets the diagram rasterization collaborator.
func WithRasterizer(r serialize.Rasterizer) Option {
	return func(e *Engine) { e.rasterizer = r }
}

// WithTemplateEngine sets the template-expansion collaborator.
func WithTemplateEngine(t serialize.TemplateEngine) Option {
	return func(e *Engine) { e.templates = t }
}

// WithSyncOptions forwards options to the sync driver.
func WithSyncOptions(opts ...sync.Option) Option {
	return func(e *Engine) { e.syncOpts = append(e.syncOpts, opts...) }
}

// New creates an Engine over a matching configuration and a work-item
// store.
func New(cfg *config.Config, store sync.Store, opts ...Option) *Engine {
	e := &Engine{cfg: cfg, store: store}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SyncState carries the session and inventory of a completed element
// pass, which document rendering builds on.
type SyncState struct {
	Session   config.Session
	Inventory *workitem.Inventory
	Result    *sync.Result
}

// DocumentResult reports the reconciliation outcome of one document.
type DocumentResult struct {
	Space    string
	Name     string
	Created  bool
	Sections int
	Skipped  int
	Err      error
}

// SyncElements runs the element pipeline: bind, serialize, create
// missing, resolve links, patch changed, mark removed. Per-element
// failures are collected on the result; only a failing inventory load
// aborts the run.
func (e *Engine) SyncElements(ctx context.Context, elements []model.Element) (*SyncState, error) {
	inventory := workitem.NewInventory()
	driver := sync.NewDriver(e.store, inventory, e.cfg.TargetTypes, e.syncOpts...)
	if err := driver.LoadRemote(ctx); err != nil {
		return nil, err
	}

	session, unmatched := config.NewSession(e.cfg, elements)
	result := driver.Result()
	for _, err := range unmatched.Errors() {
		result.Errors = append(result.Errors, sync.ItemError{Err: err})
	}

	serializer := serialize.New(session, inventory,
		serialize.WithRasterizer(e.rasterizer),
		serialize.WithTemplateEngine(e.templates))
	serializer.SerializeAll()

	driver.CreateMissing(ctx, session)
	links.NewResolver(session, inventory).ResolveAll()
	driver.PatchChanged(ctx, session)
	driver.MarkRemoved(ctx, session)

	for _, key := range session.Keys() {
		for _, err := range session[key].Errors.Errors() {
			result.Errors = append(result.Errors, sync.ItemError{ExternalKey: key, Err: err})
		}
	}

	logging.Info().Str("summary", result.Summary()).Msg("Element synchronization finished")
	return &SyncState{Session: session, Inventory: inventory, Result: result}, nil
}

// RenderDocuments renders and reconciles every configured document
// against the synchronized state. ForEach configs expand over the
// given root element. A failing document is reported and never stops
// the others.
func (e *Engine) RenderDocuments(ctx context.Context, state *SyncState, configs []document.Config, root model.Element) []DocumentResult {
	var results []DocumentResult
	if e.documents == nil {
		return results
	}
	renderer := document.NewRenderer(state.Session, state.Inventory)
	for _, cfg := range configs {
		instances, err := cfg.Instances(root)
		if err != nil {
			results = append(results, DocumentResult{Space: cfg.Space, Name: cfg.Name, Err: err})
			continue
		}
		for _, instance := range instances {
			results = append(results, e.renderDocument(ctx, renderer, instance))
		}
	}
	return results
}

// renderDocument runs the full lifecycle of one document instance:
// template expansion, reconciliation, work-item upserts, then the
// document create or update.
func (e *Engine) renderDocument(ctx context.Context, renderer *document.Renderer, cfg document.Config) DocumentResult {
	result := DocumentResult{Space: cfg.Space, Name: cfg.Name}
	fail := func(err error) DocumentResult {
		result.Err = err
		logging.Error().Err(err).
			Str("space", cfg.Space).
			Str("document", cfg.Name).
			Msg("Document reconciliation failed")
		return result
	}

	tpl, err := document.LoadTemplate(cfg.Template)
	if err != nil {
		return fail(err)
	}
	candidates, err := renderer.Render(cfg, tpl)
	if err != nil {
		return fail(err)
	}

	remote, err := e.documents.GetDocument(ctx, cfg.Space, cfg.Name)
	if err != nil {
		if !errors.Is(err, errors.ErrNotFound) {
			return fail(err)
		}
		remote = nil
	}

	patch, err := document.Reconcile(cfg, remote, candidates)
	if err != nil {
		return fail(err)
	}

	// Headings and text blocks are work items themselves and must
	// exist before the document references them.
	if upserts := patch.Upserts(); len(upserts) > 0 {
		created, err := e.store.CreateBatch(ctx, upserts)
		if err != nil {
			return fail(errors.WrapRemote("create", cfg.Space+"/"+cfg.Name, err))
		}
		ids := make(map[string]string, len(created))
		for _, item := range created {
			ids[item.ExternalKey] = item.ID
		}
		patch.Assign(ids)
	}

	if patch.Create {
		err = e.documents.CreateDocument(ctx, patch.Document())
	} else {
		err = e.documents.UpdateDocument(ctx, patch.Document())
	}
	if err != nil {
		return fail(err)
	}

	result.Created = patch.Create
	result.Sections = len(patch.Sections)
	result.Skipped = patch.Skipped
	logging.Info().
		Str("space", cfg.Space).
		Str("document", cfg.Name).
		Int("sections", result.Sections).
		Bool("created", result.Created).
		Msg("Document reconciled")
	return result
}
