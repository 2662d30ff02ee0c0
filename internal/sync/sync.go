// Package sync implements the per-source sync state machine and batch runs.
package sync

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mkedev/planning-sync/internal/clock"
	"github.com/mkedev/planning-sync/internal/clock/system"
	"github.com/mkedev/planning-sync/internal/convex"
	"github.com/mkedev/planning-sync/internal/filesearch"
	"github.com/mkedev/planning-sync/internal/id/uuid"
	"github.com/mkedev/planning-sync/internal/progress"
	"github.com/mkedev/planning-sync/internal/scrape"
	"github.com/mkedev/planning-sync/internal/sources"
)

// DefaultStoreDisplayName is the file search store holding every published
// document.
const DefaultStoreDisplayName = "Milwaukee Planning Documents"

// Orchestrator drives the sync state machine: fetch, fingerprint, change
// check, persist, publish, finalize. Sources are processed strictly
// sequentially; one source's failure never aborts the batch.
type Orchestrator struct {
	store     Store
	index     Index
	scraper   Scraper
	hasher    Hasher
	clk       clock.Clock
	ids       IDGenerator
	emitter   progress.Emitter
	logger    *zap.Logger
	catalog   []sources.Source
	storeName string
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithClock replaces the time source.
func WithClock(clk clock.Clock) Option {
	return func(o *Orchestrator) { o.clk = clk }
}

// WithIDs replaces the run ID generator.
func WithIDs(ids IDGenerator) Option {
	return func(o *Orchestrator) { o.ids = ids }
}

// WithEmitter attaches a progress emitter.
func WithEmitter(emitter progress.Emitter) Option {
	return func(o *Orchestrator) { o.emitter = emitter }
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// WithSources replaces the configured source list.
func WithSources(list []sources.Source) Option {
	return func(o *Orchestrator) { o.catalog = list }
}

// WithStoreDisplayName overrides the file search store name.
func WithStoreDisplayName(name string) Option {
	return func(o *Orchestrator) { o.storeName = name }
}

// New constructs an Orchestrator over the given collaborators.
func New(store Store, index Index, scraper Scraper, hasher Hasher, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:     store,
		index:     index,
		scraper:   scraper,
		hasher:    hasher,
		clk:       system.New(),
		ids:       uuid.New(),
		logger:    zap.NewNop(),
		catalog:   sources.All(),
		storeName: DefaultStoreDisplayName,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// SyncAll runs the state machine over every configured source.
func (o *Orchestrator) SyncAll(ctx context.Context, force bool) Summary {
	return o.run(ctx, "all", o.catalog, force)
}

// SyncByCadence runs the sources tagged with the given cadence.
func (o *Orchestrator) SyncByCadence(ctx context.Context, cadence sources.Cadence, force bool) Summary {
	var selected []sources.Source
	for _, src := range o.catalog {
		if src.Cadence == cadence {
			selected = append(selected, src)
		}
	}
	return o.run(ctx, string(cadence), selected, force)
}

// SyncOne runs a single source. An unknown id yields a Failed outcome
// without touching any collaborator.
func (o *Orchestrator) SyncOne(ctx context.Context, id string, force bool) Summary {
	for _, src := range o.catalog {
		if src.ID == id {
			return o.run(ctx, id, []sources.Source{src}, force)
		}
	}
	return o.missingSource(id)
}

func (o *Orchestrator) run(ctx context.Context, scope string, selected []sources.Source, force bool) Summary {
	runUUID := o.ids.NewUUID()
	runID := progress.UUIDToBytes(runUUID)
	started := o.clk.Now()
	o.logger.Info("sync run starting",
		zap.String("run_id", runUUID.String()),
		zap.String("scope", scope),
		zap.Int("sources", len(selected)),
		zap.Bool("force", force),
	)
	o.emit(progress.Event{RunID: runID, TS: started, Stage: progress.StageRunStart, Scope: scope})

	summary := Summary{RunID: runUUID.String(), Scope: scope}
	for _, src := range selected {
		srcStarted := o.clk.Now()
		o.emit(progress.Event{
			RunID:    runID,
			TS:       srcStarted,
			Stage:    progress.StageSourceStart,
			SourceID: src.ID,
			Kind:     string(src.Kind),
		})

		out := o.syncSource(ctx, src, force)

		srcFinished := o.clk.Now()
		o.emit(progress.Event{
			RunID:    runID,
			TS:       srcFinished,
			Stage:    progress.StageSourceDone,
			SourceID: src.ID,
			Kind:     string(src.Kind),
			Action:   string(out.Action),
			Note:     out.Message,
			Dur:      srcFinished.Sub(srcStarted),
		})
		summary.add(out)
	}

	finished := o.clk.Now()
	summary.Duration = finished.Sub(started)
	o.emit(runDoneEvent(runID, finished, summary))
	o.logger.Info("sync run finished",
		zap.String("run_id", summary.RunID),
		zap.Int("total", summary.Total),
		zap.Int("created", summary.Created),
		zap.Int("updated", summary.Updated),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
		zap.Duration("duration", summary.Duration),
	)
	return summary
}

func (o *Orchestrator) missingSource(id string) Summary {
	runUUID := o.ids.NewUUID()
	runID := progress.UUIDToBytes(runUUID)
	started := o.clk.Now()
	o.logger.Warn("unknown source id", zap.String("source_id", id))

	out := failure(id, "Source not found: "+id)
	summary := Summary{RunID: runUUID.String(), Scope: id}
	o.emit(progress.Event{RunID: runID, TS: started, Stage: progress.StageRunStart, Scope: id})
	o.emit(progress.Event{
		RunID:    runID,
		TS:       started,
		Stage:    progress.StageSourceDone,
		SourceID: id,
		Action:   string(out.Action),
		Note:     out.Message,
	})
	summary.add(out)

	finished := o.clk.Now()
	summary.Duration = finished.Sub(started)
	o.emit(runDoneEvent(runID, finished, summary))
	return summary
}

// syncSource walks one source through the state machine. Panics are
// recovered here so the batch keeps going.
func (o *Orchestrator) syncSource(ctx context.Context, src sources.Source, force bool) (out Outcome) {
	logger := o.logger.With(zap.String("source_id", src.ID), zap.String("url", src.URL))
	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprintf("unexpected failure: %v", r)
			logger.Error("source sync panicked", zap.Any("cause", r))
			o.reportError(ctx, src.ID, msg, logger)
			out = failure(src.ID, msg)
		}
	}()

	existing := o.lookup(ctx, src.ID, logger)

	res, err := o.fetch(ctx, src)
	if err != nil {
		logger.Warn("fetch failed", zap.Error(err))
		if existing != nil {
			o.reportError(ctx, src.ID, err.Error(), logger)
		}
		return failure(src.ID, err.Error())
	}

	hash, err := o.hasher.Hash(res.Payload.Content())
	if err != nil {
		logger.Error("fingerprint failed", zap.Error(err))
		o.reportError(ctx, src.ID, err.Error(), logger)
		return failure(src.ID, err.Error())
	}

	if !force {
		check, checkErr := o.store.CheckHash(ctx, src.ID, hash)
		if checkErr != nil {
			logger.Warn("hash check failed", zap.Error(checkErr))
			o.reportError(ctx, src.ID, checkErr.Error(), logger)
			return failure(src.ID, checkErr.Error())
		}
		if check.Exists && !check.Changed {
			logger.Debug("content unchanged", zap.String("content_hash", hash))
			return Outcome{SourceID: src.ID, Success: true, Action: ActionSkipped, Message: "Content unchanged"}
		}
	}

	// Persist before publishing: a later publish failure leaves the record
	// at status crawled with the fresh hash, so the next unforced run skips
	// instead of re-fetching forever.
	if err := o.persist(ctx, src, res, hash); err != nil {
		logger.Warn("persist failed", zap.Error(err))
		o.reportError(ctx, src.ID, err.Error(), logger)
		return failure(src.ID, err.Error())
	}

	reference, storeName, err := o.publish(ctx, src, res)
	if err != nil {
		msg := "Gemini upload failed: " + err.Error()
		logger.Warn("publish failed", zap.Error(err))
		o.reportError(ctx, src.ID, msg, logger)
		return failure(src.ID, msg)
	}

	if err := o.store.UpdateStatus(ctx, convex.StatusUpdate{
		SourceID:          src.ID,
		Status:            convex.StatusIndexed,
		GeminiFileURI:     reference,
		FileSearchStoreID: storeName,
	}); err != nil {
		logger.Warn("finalize failed", zap.Error(err))
		o.reportError(ctx, src.ID, err.Error(), logger)
		return failure(src.ID, err.Error())
	}

	action, message := ActionUpdated, "Successfully updated"
	if existing == nil {
		action, message = ActionCreated, "Successfully created"
	}
	logger.Info("source synced",
		zap.String("action", string(action)),
		zap.String("content_hash", hash),
		zap.String("index_reference", reference),
	)
	return Outcome{SourceID: src.ID, Success: true, Action: action, Message: message}
}

// lookup reads the stored record. Lookup failures degrade to "not found"
// rather than blocking the sync.
func (o *Orchestrator) lookup(ctx context.Context, sourceID string, logger *zap.Logger) *convex.Document {
	doc, err := o.store.Get(ctx, sourceID)
	if err != nil {
		logger.Warn("record lookup failed, treating as new", zap.Error(err))
		return nil
	}
	return doc
}

func (o *Orchestrator) fetch(ctx context.Context, src sources.Source) (*scrape.Result, error) {
	if src.Kind == sources.KindDocument {
		return o.scraper.FetchDocument(ctx, src.URL)
	}
	return o.scraper.FetchPage(ctx, src.URL)
}

func (o *Orchestrator) persist(ctx context.Context, src sources.Source, res *scrape.Result, hash string) error {
	doc := convex.Document{
		SourceID:      src.ID,
		SourceURL:     src.URL,
		Title:         pickTitle(src, res),
		ContentType:   string(src.Kind),
		Category:      src.Category,
		SyncFrequency: string(src.Cadence),
		ContentHash:   hash,
		Status:        convex.StatusCrawled,
	}
	if res.Payload.IsBinary() {
		doc.MarkdownContent = base64.StdEncoding.EncodeToString(res.Payload.Content())
	} else {
		doc.MarkdownContent = res.Payload.Text()
	}
	return o.store.Upsert(ctx, doc)
}

func (o *Orchestrator) publish(ctx context.Context, src sources.Source, res *scrape.Result) (string, string, error) {
	storeName, _, err := o.index.ResolveStore(ctx, o.storeName)
	if err != nil {
		return "", "", err
	}

	doc := filesearch.UploadDoc{
		DisplayName: src.Category + "/" + src.ID,
		MIME:        filesearch.MIMEMarkdown,
		Data:        res.Payload.Content(),
	}
	if res.Payload.IsBinary() {
		doc.DisplayName += ".pdf"
		doc.MIME = filesearch.MIMEPDF
	}

	up, err := o.index.Upload(ctx, storeName, doc)
	if err != nil {
		return "", "", err
	}
	return up.Reference, storeName, nil
}

// reportError records an error status once. A failed update is logged and
// dropped, never propagated.
func (o *Orchestrator) reportError(ctx context.Context, sourceID, message string, logger *zap.Logger) {
	update := convex.StatusUpdate{
		SourceID:     sourceID,
		Status:       convex.StatusError,
		ErrorMessage: message,
	}
	if err := o.store.UpdateStatus(ctx, update); err != nil {
		logger.Warn("error status update failed", zap.Error(err))
	}
}

func (o *Orchestrator) emit(evt progress.Event) {
	if o.emitter == nil {
		return
	}
	o.emitter.Emit(evt)
}

func pickTitle(src sources.Source, res *scrape.Result) string {
	if res.Title != "" {
		return res.Title
	}
	return src.Title
}

func runDoneEvent(runID [16]byte, ts time.Time, s Summary) progress.Event {
	return progress.Event{
		RunID:   runID,
		TS:      ts,
		Stage:   progress.StageRunDone,
		Dur:     s.Duration,
		Total:   int64(s.Total),
		Created: int64(s.Created),
		Updated: int64(s.Updated),
		Skipped: int64(s.Skipped),
		Failed:  int64(s.Failed),
	}
}
