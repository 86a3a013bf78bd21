package catalog

// DefaultPresenceThreshold is the default floor below which the engine
// offers to prune orphan catalog entries (§4.3.1).
const DefaultPresenceThreshold = 0.95

// PresenceRatio computes (RomEntities found ∩ existing catalog entries) /
// (existing catalog entries). An empty catalog has a ratio of 1: there is
// nothing to be missing.
func PresenceRatio(foundBaseNames map[string]bool, existing []Entry) float64 {
	if len(existing) == 0 {
		return 1
	}
	var present int
	for _, e := range existing {
		if stillPresent(foundBaseNames, e) {
			present++
		}
	}
	return float64(present) / float64(len(existing))
}

func stillPresent(foundBaseNames map[string]bool, e Entry) bool {
	stem, full := PathKeys(e.Game.Path)
	return foundBaseNames[stem] || foundBaseNames[full]
}

// Orphans returns the existing catalog entries whose ROM no longer appears
// among foundBaseNames: candidates for the prune-and-move-to-CLEANUP flow.
func Orphans(foundBaseNames map[string]bool, existing []Entry) []Entry {
	var orphans []Entry
	for _, e := range existing {
		if !stillPresent(foundBaseNames, e) {
			orphans = append(orphans, e)
		}
	}
	return orphans
}
