package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/sargunv/curateur/internal/catalog"
	"github.com/sargunv/curateur/internal/decision"
	"github.com/sargunv/curateur/internal/dedup"
	"github.com/sargunv/curateur/internal/identity"
	"github.com/sargunv/curateur/internal/match"
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

// workPayload is the per-ROM state a queue item carries through the
// pipeline.
type workPayload struct {
	entity   identity.RomEntity
	existing *esde.Game
	prov     *catalog.ProvenanceRecord
	dec      decision.Decision
}

// platformWorker holds one platform's shared pipeline state. process is
// called concurrently from the scheduler's pool; all mutation happens
// under mu and never while blocked on I/O.
type platformWorker struct {
	o       *Orchestrator
	plat    platform.Platform
	layout  media.Layout
	fetcher *media.Fetcher
	cache   *providercache.Cache
	dedup   *dedup.Deduplicator

	// gamelistDir anchors the media references written into the catalog.
	gamelistDir string

	mu          sync.Mutex
	staged      map[string]catalog.Entry
	changes     []merge.ChangeReport
	warnings    []string
	fullScraped int
	mediaOnly   int
	updated     int
}

// process runs the per-ROM pipeline (§4.13): cache → throttle → match →
// search fallback → media (parallel per asset) → merge staging.
func (w *platformWorker) process(ctx context.Context, item *scheduler.Item) scheduler.Outcome {
	p := item.Payload.(*workPayload)
	base := p.entity.DisplayBaseName

	w.o.emit(ui.Event{Type: ui.EventStarted, Entry: base, MediaTotal: len(p.dec.MediaTypes)})

	rec, cached, err := w.lookupRecord(ctx, w.identityOf(&p.entity))
	if err != nil {
		if outcome, handled := w.classifyLookupError(ctx, p, item, err); handled {
			return outcome
		}
		// Not-found from match: try the name-search fallback.
		var searchOutcome *scheduler.Outcome
		rec, searchOutcome = w.searchFallback(ctx, p)
		if searchOutcome != nil {
			return *searchOutcome
		}
		if rec == nil {
			w.o.emit(ui.Event{Type: ui.EventNotFound, Entry: base})
			return scheduler.Outcome{Kind: scheduler.NotFound}
		}
	}

	if w.o.cfg.DryRun {
		w.recordAction(p.dec.Action)
		w.o.emit(ui.Event{Type: ui.EventScraped, Entry: base, CacheHit: cached})
		return scheduler.Outcome{Kind: scheduler.Done}
	}

	fetched := w.fetchMedia(ctx, p, rec)

	merged, report := merge.Merge(merge.Inputs{
		Existing:      p.existing,
		Record:        rec,
		Path:          catalogPathFor(&p.entity),
		RomRegions:    p.entity.Regions,
		ConfigRegions: w.o.cfg.Regions,
		MediaPaths:    fetched.paths,
	}, w.o.cfg.MergePolicy)
	report.BaseName = base

	prov := &catalog.ProvenanceRecord{
		BaseName:         base,
		ProviderRecordID: rec.ID,
		IdentityHash:     p.entity.Hash,
		MediaHashes:      fetched.hashes,
		LastScraped:      time.Now(),
	}

	w.mu.Lock()
	w.staged[base] = catalog.Entry{Game: merged, Provenance: prov}
	if len(report.Changes) > 0 {
		w.changes = append(w.changes, report)
	}
	w.recordActionLocked(p.dec.Action)
	w.mu.Unlock()

	eventType := ui.EventScraped
	if p.dec.Action == decision.ActionMediaOnly {
		eventType = ui.EventMediaOnly
	}
	w.o.emit(ui.Event{
		Type:         eventType,
		Entry:        base,
		MediaDone:    fetched.done,
		MediaFailed:  fetched.failed,
		MediaMissing: fetched.missing,
		MediaTotal:   len(p.dec.MediaTypes),
		CacheHit:     cached,
	})

	return scheduler.Outcome{Kind: scheduler.Done}
}

// identityOf maps a RomEntity to the Provider lookup tuple.
func (w *platformWorker) identityOf(e *identity.RomEntity) provider.Identity {
	id := provider.Identity{
		PlatformCode: w.plat.ProviderCode,
		FileName:     filepath.Base(e.PrimaryFile),
		Size:         e.Size,
	}
	switch e.HashAlgorithm {
	case identity.HashCRC32:
		id.CRC32 = e.Hash
	case identity.HashMD5:
		id.MD5 = e.Hash
	case identity.HashSHA1:
		id.SHA1 = e.Hash
	}
	return id
}

// lookupRecord resolves a record through cache, dedup, throttle, network,
// in that order. The cached flag is true on a cache hit (no network call).
func (w *platformWorker) lookupRecord(ctx context.Context, id provider.Identity) (*provider.Record, bool, error) {
	if rec, ok := w.cache.Get(id); ok {
		return rec, true, nil
	}

	rec, err := dedup.DoTyped(w.dedup, "match:"+providercache.Key(id), func() (*provider.Record, error) {
		if err := w.o.thr.Wait(ctx, provider.EndpointMatch); err != nil {
			return nil, err
		}
		rec, err := w.o.client.Match(ctx, id)
		if err != nil {
			return nil, err
		}
		w.o.thr.OnSuccess(provider.EndpointMatch)
		if !w.o.cfg.DryRun {
			if cerr := w.cache.Put(id, rec); cerr != nil {
				w.warn("cache write: %v", cerr)
			}
		}
		return rec, nil
	})
	return rec, false, err
}

// classifyLookupError translates a lookup failure into a scheduler outcome.
// handled=false means "not found": the caller proceeds to search fallback.
func (w *platformWorker) classifyLookupError(ctx context.Context, p *workPayload, item *scheduler.Item, err error) (scheduler.Outcome, bool) {
	base := p.entity.DisplayBaseName

	if errors.Is(err, throttle.ErrDailyQuotaExceeded) {
		w.o.emit(ui.Event{Type: ui.EventFailed, Entry: base, Err: err})
		return scheduler.Outcome{Kind: scheduler.Fatal, Err: err}, true
	}
	if ctx.Err() != nil {
		return scheduler.Outcome{Kind: scheduler.Retry, Err: ctx.Err()}, true
	}
	if provider.IsRateExceeded(err) {
		w.o.thr.OnRateExceeded(provider.EndpointMatch, provider.RetryAfter(err))
		return scheduler.Outcome{Kind: scheduler.Retry, Err: err}, true
	}

	switch provider.Classify(err) {
	case provider.KindFatal:
		w.o.emit(ui.Event{Type: ui.EventFailed, Entry: base, Err: err})
		return scheduler.Outcome{Kind: scheduler.Fatal, Err: err}, true
	case provider.KindRetryable:
		return scheduler.Outcome{Kind: scheduler.Retry, Err: err}, true
	case provider.KindMalformed:
		if item.Retries < provider.MalformedRetryBound {
			return scheduler.Outcome{Kind: scheduler.Retry, Err: err}, true
		}
		w.warn("%s: malformed response demoted to not-found: %v", base, err)
		return scheduler.Outcome{}, false
	default: // KindNotFound
		return scheduler.Outcome{}, false
	}
}

// searchFallback runs the name search (§4.8) when match-by-identity found
// nothing. A non-nil outcome short-circuits (retry/fatal); a nil record
// with nil outcome means genuinely unmatched.
func (w *platformWorker) searchFallback(ctx context.Context, p *workPayload) (*provider.Record, *scheduler.Outcome) {
	if !w.o.cfg.SearchFallback {
		return nil, nil
	}
	base := p.entity.DisplayBaseName

	if err := w.o.thr.Wait(ctx, provider.EndpointSearch); err != nil {
		if errors.Is(err, throttle.ErrDailyQuotaExceeded) {
			return nil, &scheduler.Outcome{Kind: scheduler.Fatal, Err: err}
		}
		return nil, &scheduler.Outcome{Kind: scheduler.Retry, Err: err}
	}

	candidates, err := w.o.client.Search(ctx, w.plat.ProviderCode, match.Normalize(base))
	if err != nil {
		if provider.IsRateExceeded(err) {
			w.o.thr.OnRateExceeded(provider.EndpointSearch, provider.RetryAfter(err))
			return nil, &scheduler.Outcome{Kind: scheduler.Retry, Err: err}
		}
		switch provider.Classify(err) {
		case provider.KindFatal:
			return nil, &scheduler.Outcome{Kind: scheduler.Fatal, Err: err}
		case provider.KindRetryable:
			return nil, &scheduler.Outcome{Kind: scheduler.Retry, Err: err}
		default:
			return nil, nil
		}
	}
	w.o.thr.OnSuccess(provider.EndpointSearch)

	if max := w.o.cfg.SearchMaxResults; max > 0 && len(candidates) > max {
		candidates = candidates[:max]
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	in := match.Input{BaseName: base, Regions: p.entity.Regions, SizeBytes: p.entity.Size}
	index, _, ok := match.Select(candidates, in, match.Threshold(w.o.cfg.NameVerification))
	if ok {
		return candidates[index], nil
	}

	if w.o.cfg.Interactive {
		summaries := make([]ui.Candidate, len(candidates))
		for i, c := range candidates {
			name := ""
			if len(c.Names) > 0 {
				name = c.Names[0].Text
			}
			region := ""
			if regions := c.Regions(); len(regions) > 0 {
				region = regions[0]
			}
			summaries[i] = ui.Candidate{Name: name, Region: region, Confidence: match.Score(c, in)}
		}
		if chosen, picked := w.o.prompter.SelectCandidate(base, summaries); picked {
			return candidates[chosen], nil
		}
	}

	return nil, nil
}

// fetchResult accumulates one ROM's media outcomes.
type fetchResult struct {
	mu      sync.Mutex
	paths   map[string]string
	hashes  map[string]string
	done    int
	failed  int
	missing int
}

// fetchMedia downloads the decision's media types, one goroutine per asset
// (§4.13: media fetches for one ROM run in parallel).
func (w *platformWorker) fetchMedia(ctx context.Context, p *workPayload, rec *provider.Record) *fetchResult {
	result := &fetchResult{
		paths:  make(map[string]string),
		hashes: make(map[string]string),
	}

	var wg sync.WaitGroup
	for _, mediaType := range p.dec.MediaTypes {
		wg.Add(1)
		go func(mediaType string) {
			defer wg.Done()
			w.fetchOne(ctx, p, rec, mediaType, result)
		}(mediaType)
	}
	wg.Wait()

	return result
}

func (w *platformWorker) fetchOne(ctx context.Context, p *workPayload, rec *provider.Record, mediaType string, result *fetchResult) {
	base := p.entity.DisplayBaseName

	// Presence short-circuits: skip_existing_media, or an unchanged file
	// per the stored provenance hash. Provenance is re-recorded either way.
	if existingPath := media.ExistingPath(w.layout, mediaType, base); existingPath != "" {
		skip := w.o.cfg.SkipExistingMedia
		hash, hashErr := media.HashFile(existingPath)
		if !skip && hashErr == nil && p.prov != nil && p.prov.MediaHashes[mediaType] == hash {
			skip = true
		}
		if skip {
			result.mu.Lock()
			result.paths[mediaType] = w.mediaRef(existingPath)
			if hashErr == nil {
				result.hashes[mediaType] = hash
			}
			result.done++
			result.mu.Unlock()
			return
		}
	}

	item := media.Select(rec.Media, mediaType, media.Preferences{
		RomRegions:      p.entity.Regions,
		ConfigRegions:   w.o.cfg.Regions,
		RomLanguages:    p.entity.Languages,
		ConfigLanguages: w.o.cfg.Languages,
	})
	if item == nil {
		result.mu.Lock()
		result.missing++
		result.mu.Unlock()
		return
	}

	dest := w.layout.PathFor(mediaType, base, media.ExtensionFor(item))
	opts := media.FetchOptions{
		Validation:   w.o.cfg.Validation,
		MinBytes:     w.o.cfg.MinMediaBytes,
		MinImageSide: w.o.cfg.MinImageSide,
	}

	var hash string
	var err error
	for attempt := 0; attempt <= w.o.cfg.MaxRetries; attempt++ {
		if err = w.o.thr.Wait(ctx, provider.EndpointMedia); err != nil {
			break
		}
		hash, err = w.fetcher.Fetch(ctx, item, rec.ID, dest, opts)
		if err == nil {
			w.o.thr.OnSuccess(provider.EndpointMedia)
			break
		}
		if errors.Is(err, provider.ErrNoMedia) || errors.Is(err, provider.ErrMediaUnchanged) {
			break
		}
		if provider.IsRateExceeded(err) {
			w.o.thr.OnRateExceeded(provider.EndpointMedia, provider.RetryAfter(err))
			continue
		}
		if provider.Classify(err) != provider.KindRetryable {
			break
		}
	}

	result.mu.Lock()
	defer result.mu.Unlock()

	switch {
	case err == nil:
		result.paths[mediaType] = w.mediaRef(dest)
		result.hashes[mediaType] = hash
		result.done++
	case errors.Is(err, provider.ErrMediaUnchanged):
		// Server says our copy is current; keep the provenance hash.
		if p.prov != nil && p.prov.MediaHashes[mediaType] != "" {
			result.hashes[mediaType] = p.prov.MediaHashes[mediaType]
		}
		result.done++
	case errors.Is(err, provider.ErrNoMedia):
		result.missing++
	default:
		// Soft-degrade: one asset's failure never fails the ROM (§7).
		result.failed++
		w.warn("%s: %s: %v", base, mediaType, err)
	}

	w.o.emit(ui.Event{
		Type:         ui.EventProgress,
		Entry:        base,
		MediaDone:    result.done,
		MediaFailed:  result.failed,
		MediaMissing: result.missing,
		MediaTotal:   len(p.dec.MediaTypes),
		CurrentMedia: mediaType,
	})
}

// mediaRef converts an on-disk media path to the reference written into
// the catalog: relative to the gamelist's directory when possible.
func (w *platformWorker) mediaRef(path string) string {
	rel, err := filepath.Rel(w.gamelistDir, path)
	if err != nil {
		return path
	}
	return rel
}

// catalogPathFor is the path field the downstream frontend launches: the
// ROM file for single, the playlist for playlist, the folder itself for
// disc_folder.
func catalogPathFor(e *identity.RomEntity) string {
	switch e.Kind {
	case identity.KindDiscFolder:
		return "./" + e.DisplayBaseName
	default:
		return "./" + filepath.Base(e.Path)
	}
}

func (w *platformWorker) recordAction(action decision.Action) {
	w.mu.Lock()
	w.recordActionLocked(action)
	w.mu.Unlock()
}

func (w *platformWorker) recordActionLocked(action decision.Action) {
	switch action {
	case decision.ActionFullScrape:
		w.fullScraped++
	case decision.ActionMediaOnly:
		w.mediaOnly++
	case decision.ActionUpdate:
		w.updated++
	}
}

func (w *platformWorker) warn(format string, args ...any) {
	w.mu.Lock()
	w.warnings = append(w.warnings, fmt.Sprintf(format, args...))
	w.mu.Unlock()
}
