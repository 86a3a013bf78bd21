package scrape

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sargunv/curateur/internal/decision"
	"github.com/sargunv/curateur/internal/identity"
	"github.com/sargunv/curateur/internal/match"
	"github.com/sargunv/curateur/internal/media"
	"github.com/sargunv/curateur/internal/merge"
	"github.com/sargunv/curateur/internal/orchestrator"
	"github.com/sargunv/curateur/internal/provider"
	"github.com/sargunv/curateur/internal/ui"
	"github.com/sargunv/curateur/lib/screenscraper"
)

// ErrCancelled reports an operator-cancelled run up to main for its exit
// code.
var ErrCancelled = errors.New("cancelled")

var (
	// Paths
	romRoot       string
	mediaRoot     string
	catalogRoot   string
	platformIndex string

	// Selection and preferences
	platforms []string
	regions   []string
	languages []string

	// Media
	mediaTypes        []string
	validation        string
	skipExistingMedia bool
	minImageSide      int

	// Scraping policy
	updatePolicy       string
	skipScraped        bool
	mergePolicy        string
	integrityThreshold float64
	nameVerification   string
	skipExpr           string

	// Search
	searchFallback   bool
	searchMaxResults int
	interactive      bool

	// API
	requestTimeout    time.Duration
	maxRetries        int
	initialRetryDelay time.Duration
	quotaWarningRatio float64
	maxWorkers        int
	requestsPerMinute int
	dailyQuota        int

	// Runtime
	hashAlgorithm string
	hashSizeCap   int64
	cacheTTL      time.Duration
	dryRun        bool
	verbose       bool
)

var Cmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape metadata and media for a ROM library",
	Long: `Scan each selected platform's ROM directory, look games up on the
Provider by content hash (falling back to name search), download media,
and write the platform's gamelist catalog.

Example:
  curateur scrape \
      --rom-root ~/roms --media-root ~/roms/media \
      --catalog-root ~/roms/gamelists \
      --platform-index ~/.emulationstation/es_systems.xml \
      --platforms nes,snes \
      --media covers,screenshots,videos \
      --regions us,eu,jp`,
	RunE: runScrape,
}

func init() {
	Cmd.Flags().StringVar(&romRoot, "rom-root", "", "Base directory containing per-platform ROM directories")
	Cmd.Flags().StringVar(&mediaRoot, "media-root", "", "Directory for downloaded media trees")
	Cmd.Flags().StringVar(&catalogRoot, "catalog-root", "", "Directory for per-platform gamelist catalogs")
	Cmd.Flags().StringVar(&platformIndex, "platform-index", "", "Path to the frontend's platform index XML")
	Cmd.MarkFlagRequired("rom-root")
	Cmd.MarkFlagRequired("media-root")
	Cmd.MarkFlagRequired("catalog-root")
	Cmd.MarkFlagRequired("platform-index")

	Cmd.Flags().StringSliceVarP(&platforms, "platforms", "p", nil, "Platform allowlist (empty = all platforms in the index)")
	Cmd.Flags().StringSliceVarP(&regions, "regions", "r", []string{"us", "eu", "jp"}, "Preferred regions in order")
	Cmd.Flags().StringSliceVarP(&languages, "languages", "l", nil, "Preferred languages in order (default: OS locale)")

	Cmd.Flags().StringSliceVarP(&mediaTypes, "media", "m", media.DefaultTypes(),
		"Media types to download: screenshots,titlescreens,covers,3dboxes,marquees,fanart,videos,physicalmedia,backcovers")
	Cmd.Flags().StringVar(&validation, "media-validation", "normal", "Media validation: disabled, normal, strict")
	Cmd.Flags().BoolVar(&skipExistingMedia, "skip-existing-media", false, "Never re-download media that already exists on disk")
	Cmd.Flags().IntVar(&minImageSide, "min-image-side", 0, "Strict validation: minimum image width/height in pixels")

	Cmd.Flags().StringVar(&updatePolicy, "update", "never", "Update policy for complete entries: never, changed_only, always")
	Cmd.Flags().BoolVar(&skipScraped, "skip-scraped", true, "Skip entries that are complete and unchanged")
	Cmd.Flags().StringVar(&mergePolicy, "merge-policy", string(merge.PolicyPreserveUserEdits), "Merge policy: preserve_user_edits, provider_wins")
	Cmd.Flags().Float64Var(&integrityThreshold, "integrity-threshold", 0.95, "Catalog presence ratio below which orphan cleanup is offered")
	Cmd.Flags().StringVar(&nameVerification, "name-verification", "normal", "Search match strictness: strict, normal, lenient, disabled")
	Cmd.Flags().StringVar(&skipExpr, "skip-expr", "", "Expression forcing SKIP, e.g. 'not changed and len(missing) == 0'")

	Cmd.Flags().BoolVar(&searchFallback, "search-fallback", true, "Fall back to name search when hash lookup finds nothing")
	Cmd.Flags().IntVar(&searchMaxResults, "search-max-results", 10, "Maximum search candidates to score")
	Cmd.Flags().BoolVar(&interactive, "interactive", false, "Prompt for candidate selection when no candidate meets the threshold")

	Cmd.Flags().DurationVar(&requestTimeout, "http-timeout", 30*time.Second, "HTTP request timeout")
	Cmd.Flags().IntVar(&maxRetries, "max-retries", 3, "Retries per item for transient failures")
	Cmd.Flags().DurationVar(&initialRetryDelay, "retry-delay", 2*time.Second, "Backoff base when the Provider sends no Retry-After")
	Cmd.Flags().Float64Var(&quotaWarningRatio, "quota-warning-ratio", 0.9, "Warn when daily usage crosses this fraction of the cap")
	Cmd.Flags().IntVar(&maxWorkers, "threads", 0, "Max concurrent workers (0 = Provider-reported cap)")
	Cmd.Flags().IntVar(&requestsPerMinute, "requests-per-minute", 0, "Lower the per-minute call cap (never raises the Provider's)")
	Cmd.Flags().IntVar(&dailyQuota, "daily-quota", 0, "Lower the daily call cap (never raises the Provider's)")

	Cmd.Flags().StringVar(&hashAlgorithm, "hash", "crc32", "Identity hash algorithm: crc32, md5, sha1")
	Cmd.Flags().Int64Var(&hashSizeCap, "hash-size-cap", 0, "Skip hashing files larger than this many bytes (0 = no cap)")
	Cmd.Flags().DurationVar(&cacheTTL, "cache-ttl", 0, "Response cache validity (default 7 days)")
	Cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Scan, evaluate, and look up, but write nothing")
	Cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log unchanged and removed fields in change reports")
}

func runScrape(cmd *cobra.Command, args []string) error {
	cfg := orchestrator.DefaultConfig()
	cfg.RomRoot = romRoot
	cfg.MediaRoot = mediaRoot
	cfg.CatalogRoot = catalogRoot
	cfg.PlatformIndex = platformIndex
	cfg.Platforms = platforms
	cfg.Regions = regions
	cfg.Languages = languages
	cfg.MediaTypes = mediaTypes
	cfg.Validation = media.ValidationMode(validation)
	cfg.SkipExistingMedia = skipExistingMedia
	cfg.MinImageSide = minImageSide
	cfg.UpdatePolicy = decision.UpdateMode(updatePolicy)
	cfg.SkipScraped = skipScraped
	cfg.MergePolicy = merge.Policy(mergePolicy)
	cfg.IntegrityThreshold = integrityThreshold
	cfg.NameVerification = match.VerificationMode(nameVerification)
	cfg.SkipExpr = skipExpr
	cfg.SearchFallback = searchFallback
	cfg.SearchMaxResults = searchMaxResults
	cfg.Interactive = interactive
	cfg.RequestTimeout = requestTimeout
	cfg.MaxRetries = maxRetries
	cfg.InitialRetryDelay = initialRetryDelay
	cfg.QuotaWarningRatio = quotaWarningRatio
	cfg.OverrideMaxWorkers = maxWorkers
	cfg.OverrideRequestsPerMinute = requestsPerMinute
	cfg.OverrideDailyQuota = dailyQuota
	cfg.HashAlgorithm = identity.HashAlgorithm(hashAlgorithm)
	cfg.HashSizeCap = hashSizeCap
	if cacheTTL > 0 {
		cfg.CacheTTL = cacheTTL
	}
	cfg.DryRun = dryRun
	cfg.Verbose = verbose

	client, err := newClientFromEnv(requestTimeout)
	if err != nil {
		return err
	}

	cmd.SilenceUsage = true

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	useTUI := isTerminal() && !dryRun
	var prompter ui.Prompter = ui.NonInteractive{}
	if isTerminal() && !useTUI {
		prompter = ui.NewTerminalPrompter(os.Stdin, os.Stderr)
	}

	events := make(chan ui.Event, 256)
	emit := func(ev ui.Event) {
		select {
		case events <- ev:
		default: // UI lagging; drop rather than stall a worker
		}
	}

	o := orchestrator.New(cfg, client, prompter, emit)

	type runOutcome struct {
		result *orchestrator.RunResult
		err    error
	}
	outcomeCh := make(chan runOutcome, 1)
	go func() {
		result, err := o.Run(ctx)
		close(events)
		outcomeCh <- runOutcome{result, err}
	}()

	if useTUI {
		model := ui.NewModel("curateur", 0, events, o.Stats)
		p := tea.NewProgram(model, tea.WithContext(ctx))
		if _, err := p.Run(); err != nil && ctx.Err() == nil {
			return fmt.Errorf("TUI error: %w", err)
		}
		// TUI exited first (user pressed q): stop the engine.
		cancel()
	} else {
		for ev := range events {
			printEvent(ev)
		}
	}

	outcome := <-outcomeCh
	if outcome.err != nil {
		return outcome.err
	}

	printRunSummary(outcome.result)

	if outcome.result.Cancelled || ctx.Err() != nil {
		return ErrCancelled
	}
	return nil
}

func newClientFromEnv(timeout time.Duration) (*provider.Client, error) {
	devID := os.Getenv("SCREENSCRAPER_DEV_USER")
	devPassword := os.Getenv("SCREENSCRAPER_DEV_PASSWORD")
	if devID == "" || devPassword == "" {
		return nil, fmt.Errorf("developer credentials required: set SCREENSCRAPER_DEV_USER and SCREENSCRAPER_DEV_PASSWORD")
	}

	ss := screenscraper.NewClient(
		devID,
		devPassword,
		"curateur",
		os.Getenv("SCREENSCRAPER_ID"),
		os.Getenv("SCREENSCRAPER_PASSWORD"),
	).WithTimeout(timeout)

	return provider.NewClient(ss), nil
}

func printEvent(ev ui.Event) {
	switch ev.Type {
	case ui.EventScraped:
		fmt.Printf("scraped    %s (%d media)\n", ev.Entry, ev.MediaDone)
	case ui.EventMediaOnly:
		fmt.Printf("media-only %s (%d media)\n", ev.Entry, ev.MediaDone)
	case ui.EventSkipped:
		fmt.Printf("skipped    %s\n", ev.Entry)
	case ui.EventNotFound:
		fmt.Printf("not found  %s\n", ev.Entry)
	case ui.EventFailed:
		fmt.Printf("failed     %s: %v\n", ev.Entry, ev.Err)
	case ui.EventMessage:
		fmt.Println(ev.Message)
	}
}

func printRunSummary(result *orchestrator.RunResult) {
	for _, pr := range result.Platforms {
		fmt.Printf("\n%s: scanned %d, skipped %d, scraped %d, media-only %d, updated %d, not found %d, failed %d\n",
			pr.Platform.ID, pr.Scanned, pr.Skipped, pr.FullScraped, pr.MediaOnly, pr.Updated,
			len(pr.NotFoundNames), len(pr.FailedItems))
	}
	if result.Cancelled {
		fmt.Println("\nrun cancelled; partial summaries written")
	}
}

func isTerminal() bool {
	fileInfo, _ := os.Stdout.Stat()
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}
