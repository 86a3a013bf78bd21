package orchestrator

import (
	"fmt"
	"time"

	"github.com/sargunv/curateur/internal/decision"
	"github.com/sargunv/curateur/internal/identity"
	"github.com/sargunv/curateur/internal/match"
	"github.com/sargunv/curateur/internal/media"
	"github.com/sargunv/curateur/internal/merge"
	"github.com/sargunv/curateur/internal/providercache"
	"github.com/sargunv/curateur/internal/region"
)

// Config is the engine's run configuration (§6.7). The CLI builds one from
// flags and environment; the engine only consumes the finished value.
type Config struct {
	// Paths.
	RomRoot       string
	MediaRoot     string
	CatalogRoot   string
	PlatformIndex string

	// Platform allowlist; empty selects all platforms from the index.
	Platforms []string

	// Preference orders for media and text selection.
	Regions   []string
	Languages []string

	// Media.
	MediaTypes        []string
	Validation        media.ValidationMode
	SkipExistingMedia bool
	MinImageSide      int
	MinMediaBytes     int64

	// Scraping.
	UpdatePolicy       decision.UpdateMode
	SkipScraped        bool
	MergePolicy        merge.Policy
	IntegrityThreshold float64
	NameVerification   match.VerificationMode
	SkipExpr           string

	// Search fallback.
	SearchFallback   bool
	SearchMaxResults int
	Interactive      bool

	// API / network.
	RequestTimeout    time.Duration
	MaxRetries        int
	InitialRetryDelay time.Duration
	QuotaWarningRatio float64

	// Operator overrides; always lower-bounded by the Provider's caps.
	OverrideMaxWorkers        int
	OverrideRequestsPerMinute int
	OverrideDailyQuota        int

	// Runtime.
	HashAlgorithm identity.HashAlgorithm
	HashSizeCap   int64
	CacheTTL      time.Duration
	DryRun        bool
	Verbose       bool
}

// DefaultConfig returns the documented defaults; the CLI starts from here.
func DefaultConfig() Config {
	return Config{
		Regions:            []string{"us", "eu", "jp"},
		MediaTypes:         media.DefaultTypes(),
		Validation:         media.ValidationNormal,
		MinMediaBytes:      64,
		UpdatePolicy:       decision.UpdateNever,
		SkipScraped:        true,
		MergePolicy:        merge.PolicyPreserveUserEdits,
		IntegrityThreshold: 0.95,
		NameVerification:   match.VerificationNormal,
		SearchFallback:     true,
		SearchMaxResults:   10,
		RequestTimeout:     30 * time.Second,
		MaxRetries:         3,
		InitialRetryDelay:  2 * time.Second,
		QuotaWarningRatio:  0.9,
		HashAlgorithm:      identity.HashCRC32,
		CacheTTL:           providercache.DefaultTTL,
	}
}

// Validate rejects configurations the engine can't run with. It also fills
// derived defaults: an empty language list is seeded from the operator's
// locale (never overriding a supplied list).
func (c *Config) Validate() error {
	if c.RomRoot == "" {
		return fmt.Errorf("rom root is required")
	}
	if c.MediaRoot == "" {
		return fmt.Errorf("media root is required")
	}
	if c.CatalogRoot == "" {
		return fmt.Errorf("catalog root is required")
	}
	if c.PlatformIndex == "" {
		return fmt.Errorf("platform index path is required")
	}
	if c.IntegrityThreshold < 0 || c.IntegrityThreshold > 1 {
		return fmt.Errorf("integrity threshold %v outside [0,1]", c.IntegrityThreshold)
	}
	if c.QuotaWarningRatio < 0 || c.QuotaWarningRatio > 1 {
		return fmt.Errorf("quota warning ratio %v outside [0,1]", c.QuotaWarningRatio)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries must be >= 0")
	}

	switch c.HashAlgorithm {
	case identity.HashCRC32, identity.HashMD5, identity.HashSHA1, "":
	default:
		return fmt.Errorf("unknown hash algorithm %q", c.HashAlgorithm)
	}

	switch c.Validation {
	case media.ValidationDisabled, media.ValidationNormal, media.ValidationStrict, "":
	default:
		return fmt.Errorf("unknown media validation mode %q", c.Validation)
	}

	switch c.MergePolicy {
	case merge.PolicyPreserveUserEdits, merge.PolicyProviderWins, "":
	default:
		return fmt.Errorf("unknown merge policy %q", c.MergePolicy)
	}

	switch c.UpdatePolicy {
	case decision.UpdateNever, decision.UpdateChangedOnly, decision.UpdateAlways, "":
	default:
		return fmt.Errorf("unknown update policy %q", c.UpdatePolicy)
	}

	for _, t := range c.MediaTypes {
		if !media.IsKnownType(t) {
			return fmt.Errorf("unknown media type %q", t)
		}
	}

	if len(c.Languages) == 0 {
		c.Languages = region.DefaultLanguages()
	}

	return nil
}
