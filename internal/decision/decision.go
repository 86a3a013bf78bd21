// Package decision implements the pure per-ROM scrape/skip evaluator
// (§4.4): given what's already in the catalog and the operator's update
// policy, it decides what work, if any, a ROM needs this run.
package decision

// Action is what the evaluator decided to do about one RomEntity.
type Action string

const (
	ActionSkip       Action = "SKIP"
	ActionMediaOnly  Action = "MEDIA_ONLY"
	ActionFullScrape Action = "FULL_SCRAPE"
	ActionUpdate     Action = "UPDATE"
)

// UpdateMode controls how the evaluator treats entries whose provider
// fields are already complete.
type UpdateMode string

const (
	UpdateNever       UpdateMode = "never"
	UpdateChangedOnly UpdateMode = "changed_only"
	UpdateAlways      UpdateMode = "always"
)

// Policy is the operator-configured decision policy (§6.7 runtime.*).
type Policy struct {
	SkipScraped bool
	Update      UpdateMode
}

// Input captures everything the §4.4 table conditions on for one ROM.
type Input struct {
	InCatalog              bool
	ProviderFieldsComplete bool
	// EnabledMediaTypes is the full set of media types this run cares
	// about; PresentMediaTypes is the subset already on disk for this ROM.
	EnabledMediaTypes []string
	PresentMediaTypes map[string]bool
	HashChanged       bool
	Policy            Policy
}

// Decision is the evaluator's verdict: an Action plus the media types that
// must be fetched to carry it out.
type Decision struct {
	Action       Action
	MediaTypes   []string
	RequiresHTTP bool
}

// Decide applies the §4.4 decision table. It is pure: no I/O, no clock, no
// randomness, so the same Input always yields the same Decision.
func Decide(in Input) Decision {
	// Row 1: not in catalog at all.
	if !in.InCatalog {
		return Decision{Action: ActionFullScrape, MediaTypes: in.EnabledMediaTypes, RequiresHTTP: true}
	}

	// Row 2: in catalog but provider fields incomplete.
	if !in.ProviderFieldsComplete {
		return Decision{Action: ActionFullScrape, MediaTypes: in.EnabledMediaTypes, RequiresHTTP: true}
	}

	missing := missingMediaTypes(in.EnabledMediaTypes, in.PresentMediaTypes)
	allPresent := len(missing) == 0

	// Rows 3-4: hash unchanged and operator wants scraped entries left alone.
	if !in.HashChanged && in.Policy.SkipScraped {
		if allPresent {
			return Decision{Action: ActionSkip}
		}
		return Decision{Action: ActionMediaOnly, MediaTypes: missing, RequiresHTTP: true}
	}

	// Row 5: changed_only policy updates only when the hash actually moved.
	if in.Policy.Update == UpdateChangedOnly {
		if in.HashChanged {
			return Decision{Action: ActionUpdate, MediaTypes: in.EnabledMediaTypes, RequiresHTTP: true}
		}
		if allPresent {
			return Decision{Action: ActionSkip}
		}
		return Decision{Action: ActionMediaOnly, MediaTypes: missing, RequiresHTTP: true}
	}

	// Row 6: operator always wants a refresh.
	if in.Policy.Update == UpdateAlways {
		return Decision{Action: ActionUpdate, MediaTypes: in.EnabledMediaTypes, RequiresHTTP: true}
	}

	// Row 7: update=never and skip_scraped=false falls through to a full
	// re-scrape, since neither policy told the evaluator to leave it alone.
	if in.Policy.Update == UpdateNever && !in.Policy.SkipScraped {
		return Decision{Action: ActionFullScrape, MediaTypes: in.EnabledMediaTypes, RequiresHTTP: true}
	}

	// Default: nothing in the table licenses more work than filling gaps.
	if allPresent {
		return Decision{Action: ActionSkip}
	}
	return Decision{Action: ActionMediaOnly, MediaTypes: missing, RequiresHTTP: true}
}

func missingMediaTypes(enabled []string, present map[string]bool) []string {
	var missing []string
	for _, t := range enabled {
		if !present[t] {
			missing = append(missing, t)
		}
	}
	return missing
}
