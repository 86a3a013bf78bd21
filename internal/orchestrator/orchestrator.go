// Package orchestrator drives a run (§4.13): platform by platform, it
// scans, evaluates, schedules the workers through the Provider pipeline,
// commits the catalog, and writes the summary artifact. Platforms are
// strictly sequential; all parallelism lives inside one platform's queue.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sargunv/curateur/internal/catalog"
	"github.com/sargunv/curateur/internal/decision"
	"github.com/sargunv/curateur/internal/dedup"
	"github.com/sargunv/curateur/internal/identity"
	"github.com/sargunv/curateur/internal/media"
	"github.com/sargunv/curateur/internal/merge"
	"github.com/sargunv/curateur/internal/platform"
	"github.com/sargunv/curateur/internal/provider"
	"github.com/sargunv/curateur/internal/providercache"
	"github.com/sargunv/curateur/internal/scheduler"
	"github.com/sargunv/curateur/internal/throttle"
	"github.com/sargunv/curateur/internal/ui"
	"github.com/sargunv/curateur/lib/esde"
)

// Orchestrator owns the long-lived engine state for one invocation. All
// dependencies arrive by injection; nothing here is process-global.
type Orchestrator struct {
	cfg      Config
	client   *provider.Client
	prompter ui.Prompter
	emit     func(ui.Event)

	skipExpr *decision.SkipExpr

	workers int
	thr     *throttle.Throttle
}

// New builds an orchestrator. emit may be nil for headless runs; prompter
// defaults to the non-interactive resolver.
func New(cfg Config, client *provider.Client, prompter ui.Prompter, emit func(ui.Event)) *Orchestrator {
	if prompter == nil {
		prompter = ui.NonInteractive{}
	}
	if emit == nil {
		emit = func(ui.Event) {}
	}
	return &Orchestrator{cfg: cfg, client: client, prompter: prompter, emit: emit}
}

// PlatformResult is one platform's accounting, the source of its summary
// artifact.
type PlatformResult struct {
	Platform platform.Platform
	Start    time.Time
	End      time.Time

	Scanned     int
	Skipped     int
	FullScraped int
	MediaOnly   int
	Updated     int

	Conflicts     []identity.ConflictReport
	NotFoundNames []string
	FailedItems   []scheduler.FailedItem
	Pending       []string
	Changes       []merge.ChangeReport
	CleanupMoves  []string
	Warnings      []string

	ThrottleStats map[string]throttle.EndpointStats
}

// RunResult is the whole invocation's outcome.
type RunResult struct {
	Platforms []PlatformResult
	Cancelled bool
}

// Run executes the platform loop. The returned error is non-nil only for
// fatal conditions (§7); not-found and per-ROM failures live in the
// results. Cancellation is reported via RunResult.Cancelled, not an error.
func (o *Orchestrator) Run(ctx context.Context) (*RunResult, error) {
	if err := o.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	platforms, err := o.loadPlatforms()
	if err != nil {
		return nil, err
	}

	caps, err := o.client.Authenticate(ctx)
	if err != nil {
		return nil, err
	}

	o.workers = throttle.EffectiveLimit(caps.MaxThreads, o.cfg.OverrideMaxWorkers)
	if o.workers < 1 {
		o.workers = 1
	}

	rpm := throttle.EffectiveLimit(caps.RequestsPerMinute, o.cfg.OverrideRequestsPerMinute)
	daily := throttle.EffectiveLimit(caps.RequestsPerDay, o.cfg.OverrideDailyQuota)

	limit := throttle.Limit{Calls: rpm, Window: time.Minute}
	o.thr = throttle.New(map[string]throttle.Limit{
		provider.EndpointMatch:  limit,
		provider.EndpointSearch: limit,
		provider.EndpointMedia:  limit,
	}, daily, o.cfg.InitialRetryDelay)
	o.thr.SeedDailyUsage(caps.RequestsToday)

	if daily > 0 && float64(caps.RequestsToday) >= o.cfg.QuotaWarningRatio*float64(daily) {
		o.emit(ui.Event{Type: ui.EventMessage, Message: fmt.Sprintf(
			"daily quota warning: %d of %d requests already used", caps.RequestsToday, daily)})
	}

	result := &RunResult{}
	for _, plat := range platforms {
		if ctx.Err() != nil {
			result.Cancelled = true
			break
		}

		platResult, fatal := o.runPlatform(ctx, plat)
		result.Platforms = append(result.Platforms, platResult)

		if fatal != nil {
			if errors.Is(fatal, context.Canceled) {
				result.Cancelled = true
				break
			}
			return result, fatal
		}
		if ctx.Err() != nil {
			result.Cancelled = true
			break
		}
	}

	return result, nil
}

// Stats snapshots the run's live counters for the UI.
func (o *Orchestrator) Stats() ui.Stats {
	if o.thr == nil {
		return ui.Stats{}
	}
	used, dailyCap := o.thr.DailyUsage()
	var totalWait time.Duration
	var events429 int
	for _, s := range o.thr.Stats() {
		totalWait += s.TotalWait
		events429 += s.RateExceededEvents
	}
	return ui.Stats{
		APICalls:     used,
		TotalWait:    totalWait,
		RateExceeded: events429,
		DailyUsed:    used,
		DailyCap:     dailyCap,
	}
}

func (o *Orchestrator) loadPlatforms() ([]platform.Platform, error) {
	data, err := os.ReadFile(o.cfg.PlatformIndex)
	if err != nil {
		return nil, fmt.Errorf("read platform index: %w", err)
	}
	platforms, err := platform.ParseIndex(data, o.cfg.RomRoot, platform.DefaultProviderCodes)
	if err != nil {
		return nil, err
	}
	platforms = platform.Select(platforms, o.cfg.Platforms)
	if len(platforms) == 0 {
		return nil, fmt.Errorf("no platforms selected")
	}

	if o.cfg.SkipExpr != "" {
		expr, err := decision.CompileSkipExpr(o.cfg.SkipExpr)
		if err != nil {
			return nil, err
		}
		o.skipExpr = expr
	}

	return platforms, nil
}

// runPlatform runs one platform end to end. The second return is non-nil
// only for fatal conditions that must stop the whole run.
func (o *Orchestrator) runPlatform(ctx context.Context, plat platform.Platform) (result PlatformResult, fatal error) {
	result = PlatformResult{Platform: plat, Start: time.Now()}
	statsBefore := o.thr.Stats()

	defer func() {
		result.End = time.Now()
		result.ThrottleStats = diffStats(statsBefore, o.thr.Stats())
		if !o.cfg.DryRun {
			if err := writeSummary(o.cfg.CatalogRoot, &result); err != nil {
				result.Warnings = append(result.Warnings, fmt.Sprintf("write summary: %v", err))
			}
		}
	}()

	if plat.ProviderCode == "" {
		result.Warnings = append(result.Warnings, "no provider platform code known; skipping")
		return result, nil
	}

	store := catalog.New(
		filepath.Join(o.cfg.CatalogRoot, plat.ID, "gamelist.xml"),
		filepath.Join(o.cfg.CatalogRoot, plat.ID, "provenance.json"),
	)
	existing, err := store.Load()
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("load catalog: %v", err))
		return result, nil
	}
	result.Warnings = append(result.Warnings, existing.Warnings...)

	entities, conflicts, err := identity.Scan(plat)
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("scan roms: %v", err))
		return result, nil
	}
	result.Conflicts = conflicts
	for _, c := range conflicts {
		o.emit(ui.Event{Type: ui.EventMessage, Message: "conflict: " + c.String()})
	}

	layout := media.Layout{MediaRoot: o.cfg.MediaRoot, PlatformID: plat.ID}
	pruned := o.integrityCheck(plat, layout, entities, existing, &result)
	o.disabledMediaCleanup(plat, layout, &result)

	// Identity pass (C2), dropping unreadable entities with a report.
	identityOpts := identity.Options{Algorithm: o.cfg.HashAlgorithm, SizeCapBytes: o.cfg.HashSizeCap}
	kept := entities[:0]
	for i := range entities {
		if err := identity.BuildIdentity(&entities[i], identityOpts); err != nil {
			report := identity.ConflictReport{
				BaseName: entities[i].DisplayBaseName,
				Reason:   identity.ReasonUnreadable,
				Detail:   err.Error(),
			}
			result.Conflicts = append(result.Conflicts, report)
			o.emit(ui.Event{Type: ui.EventMessage, Message: "conflict: " + report.String()})
			continue
		}
		kept = append(kept, entities[i])
	}
	entities = kept
	result.Scanned = len(entities)

	cache, err := providercache.New(
		filepath.Join(o.cfg.CatalogRoot, plat.ID, ".cache", "response_cache"), o.cfg.CacheTTL)
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("open response cache: %v", err))
		return result, nil
	}

	worker := &platformWorker{
		o:           o,
		plat:        plat,
		layout:      layout,
		fetcher:     &media.Fetcher{Client: o.client, PlatformCode: plat.ProviderCode},
		cache:       cache,
		dedup:       dedup.New(),
		gamelistDir: filepath.Join(o.cfg.CatalogRoot, plat.ID),
		staged:      make(map[string]catalog.Entry),
	}

	items := o.buildWorkItems(entities, existing, worker, &result)

	schedResult := scheduler.Run(ctx, items, scheduler.Config{
		Workers:    o.workers,
		MaxRetries: o.cfg.MaxRetries,
	}, worker.process)

	result.NotFoundNames = schedResult.NotFound
	result.FailedItems = schedResult.Failed
	result.Pending = schedResult.Pending

	worker.mu.Lock()
	result.FullScraped = worker.fullScraped
	result.MediaOnly = worker.mediaOnly
	result.Updated = worker.updated
	result.Changes = worker.changes
	result.Warnings = append(result.Warnings, worker.warnings...)
	worker.mu.Unlock()

	// Commit whatever completed, including on cancel: the catalog write
	// observes all finished merges, never partial ones. A run that staged
	// nothing and pruned nothing leaves the catalog file untouched, so a
	// fully-scraped library re-run writes only its summary artifact.
	if !o.cfg.DryRun && (len(worker.staged) > 0 || len(pruned) > 0) {
		entries := assembleEntries(entities, existing, worker.staged, pruned)
		if err := store.Commit(entries, existing.Folders); err != nil {
			return result, fmt.Errorf("commit catalog for %s: %w", plat.ID, err)
		}
	}
	if !o.cfg.DryRun && len(result.NotFoundNames) > 0 {
		if err := writeNotFound(o.cfg.CatalogRoot, plat.ID, result.NotFoundNames); err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("write not-found list: %v", err))
		}
	}

	if schedResult.FatalErr != nil {
		return result, schedResult.FatalErr
	}
	if ctx.Err() != nil {
		return result, context.Canceled
	}
	return result, nil
}

// integrityCheck implements §4.3.1: compute the presence ratio and, below
// threshold, offer to prune orphans (move-never-delete). Returns the set of
// basenames pruned from the catalog.
func (o *Orchestrator) integrityCheck(plat platform.Platform, layout media.Layout,
	entities []identity.RomEntity, existing *catalog.LoadResult, result *PlatformResult) map[string]bool {

	if len(existing.Entries) == 0 {
		return nil
	}

	found := make(map[string]bool, len(entities))
	for _, e := range entities {
		found[e.DisplayBaseName] = true
	}

	ratio := catalog.PresenceRatio(found, existing.Entries)
	if ratio >= o.cfg.IntegrityThreshold {
		return nil
	}

	orphans := catalog.Orphans(found, existing.Entries)
	if !o.prompter.ConfirmIntegrityCleanup(plat.ID, len(orphans), ratio) {
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"presence ratio %.2f below threshold %.2f; %d orphan entries kept",
			ratio, o.cfg.IntegrityThreshold, len(orphans)))
		return nil
	}

	pruned := make(map[string]bool, len(orphans))
	for _, orphan := range orphans {
		stem, full := catalog.PathKeys(orphan.Game.Path)
		pruned[stem] = true
		pruned[full] = true
		for _, t := range media.AllTypes() {
			base := stem
			if path := media.ExistingPath(layout, t, full); path != "" {
				base = full
			}
			if path := media.ExistingPath(layout, t, base); path != "" {
				dest, err := media.MoveToCleanup(layout, t, path)
				if err != nil {
					result.Warnings = append(result.Warnings, fmt.Sprintf("cleanup move: %v", err))
					continue
				}
				result.CleanupMoves = append(result.CleanupMoves, dest)
			}
		}
	}
	return pruned
}

// disabledMediaCleanup offers to relocate assets of media types that are
// no longer enabled (§6.3, third prompt hook).
func (o *Orchestrator) disabledMediaCleanup(plat platform.Platform, layout media.Layout, result *PlatformResult) {
	enabled := make(map[string]bool, len(o.cfg.MediaTypes))
	for _, t := range o.cfg.MediaTypes {
		enabled[t] = true
	}

	var stale []string
	for _, t := range media.AllTypes() {
		if enabled[t] {
			continue
		}
		dirEntries, err := os.ReadDir(layout.Dir(t))
		if err == nil && len(dirEntries) > 0 {
			stale = append(stale, t)
		}
	}
	if len(stale) == 0 {
		return
	}

	if !o.prompter.ConfirmMediaCleanup(plat.ID, stale) {
		return
	}

	for _, t := range stale {
		dirEntries, err := os.ReadDir(layout.Dir(t))
		if err != nil {
			continue
		}
		for _, de := range dirEntries {
			if de.IsDir() {
				continue
			}
			dest, err := media.MoveToCleanup(layout, t, filepath.Join(layout.Dir(t), de.Name()))
			if err != nil {
				result.Warnings = append(result.Warnings, fmt.Sprintf("cleanup move: %v", err))
				continue
			}
			result.CleanupMoves = append(result.CleanupMoves, dest)
		}
	}
}

// buildWorkItems runs the decision evaluator (C4) over the inventory and
// queues everything that needs work. SKIP entries are counted immediately.
func (o *Orchestrator) buildWorkItems(entities []identity.RomEntity,
	existing *catalog.LoadResult, worker *platformWorker, result *PlatformResult) []*scheduler.Item {

	var items []*scheduler.Item
	for i := range entities {
		entity := &entities[i]
		entry, inCatalog := existing.Lookup(entity.DisplayBaseName)

		input := decision.Input{
			InCatalog:         inCatalog && entry.Game != nil,
			EnabledMediaTypes: o.cfg.MediaTypes,
			PresentMediaTypes: media.PresentTypes(worker.layout, entity.DisplayBaseName,
				o.cfg.MediaTypes, o.cfg.Validation, o.cfg.MinImageSide),
			Policy: decision.Policy{SkipScraped: o.cfg.SkipScraped, Update: o.cfg.UpdatePolicy},
		}
		if input.InCatalog {
			input.ProviderFieldsComplete = providerFieldsComplete(entry.Game)
			if entry.Provenance != nil && entry.Provenance.IdentityHash != "" && entity.Hash != "" {
				input.HashChanged = entry.Provenance.IdentityHash != entity.Hash
			}
		}

		dec, err := decision.DecideWithOverride(input, o.skipExpr)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"%s: skip expression: %v", entity.DisplayBaseName, err))
		}

		if dec.Action == decision.ActionSkip {
			result.Skipped++
			o.emit(ui.Event{Type: ui.EventSkipped, Entry: entity.DisplayBaseName})
			continue
		}

		priority := scheduler.PriorityNormal
		if dec.Action == decision.ActionMediaOnly {
			priority = scheduler.PriorityLow
		}

		payload := &workPayload{entity: *entity, dec: dec}
		if inCatalog {
			payload.existing = entry.Game
			payload.prov = entry.Provenance
		}

		items = append(items, &scheduler.Item{
			Key:      entity.DisplayBaseName,
			Priority: priority,
			Payload:  payload,
		})
	}
	return items
}

// assembleEntries builds the commit set in scan order: staged merges win,
// untouched entities keep their existing entry, and pre-existing entries
// whose ROMs vanished ride along unless pruned (the engine is
// non-destructive by default).
func assembleEntries(entities []identity.RomEntity, existing *catalog.LoadResult,
	staged map[string]catalog.Entry, pruned map[string]bool) []catalog.Entry {

	var out []catalog.Entry
	seen := make(map[string]bool, len(entities))

	for _, entity := range entities {
		base := entity.DisplayBaseName
		seen[base] = true
		if entry, ok := staged[base]; ok {
			out = append(out, entry)
			continue
		}
		if entry, ok := existing.Lookup(base); ok {
			out = append(out, *entry)
		}
	}

	for i := range existing.Entries {
		stem, full := catalog.PathKeys(existing.Entries[i].Game.Path)
		if seen[stem] || seen[full] || pruned[stem] || pruned[full] {
			continue
		}
		out = append(out, existing.Entries[i])
	}

	return out
}

// providerFieldsComplete is the "complete" test from the decision table:
// the fields a scrape always populates are all non-empty.
func providerFieldsComplete(g *esde.Game) bool {
	return g != nil && g.Name != "" && g.Desc != ""
}

func diffStats(before, after map[string]throttle.EndpointStats) map[string]throttle.EndpointStats {
	out := make(map[string]throttle.EndpointStats, len(after))
	for name, a := range after {
		b := before[name]
		out[name] = throttle.EndpointStats{
			TotalWait:          a.TotalWait - b.TotalWait,
			RateExceededEvents: a.RateExceededEvents - b.RateExceededEvents,
			MaxMultiplier:      a.MaxMultiplier,
		}
	}
	return out
}
