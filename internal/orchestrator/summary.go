package orchestrator

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// summaryTimeFormat names the artifact: curateur_summary_<date>_<time>.log.
const summaryTimeFormat = "20060102_150405"

// writeSummary renders the per-platform summary artifact (§6.5) into the
// platform's catalog directory. The format is plain text, stable enough to
// grep.
func writeSummary(catalogRoot string, r *PlatformResult) error {
	dir := filepath.Join(catalogRoot, r.Platform.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "platform: %s\n", r.Platform.ID)
	fmt.Fprintf(&b, "started: %s\n", r.Start.Format(time.RFC3339))
	fmt.Fprintf(&b, "finished: %s\n", r.End.Format(time.RFC3339))
	b.WriteString("\n")

	fmt.Fprintf(&b, "scanned: %d\n", r.Scanned)
	fmt.Fprintf(&b, "skipped: %d\n", r.Skipped)
	fmt.Fprintf(&b, "full_scraped: %d\n", r.FullScraped)
	fmt.Fprintf(&b, "media_only: %d\n", r.MediaOnly)
	fmt.Fprintf(&b, "updated: %d\n", r.Updated)
	fmt.Fprintf(&b, "failed: %d\n", len(r.FailedItems))
	fmt.Fprintf(&b, "not_found: %d\n", len(r.NotFoundNames))
	if len(r.Pending) > 0 {
		fmt.Fprintf(&b, "pending_at_exit: %d\n", len(r.Pending))
	}
	b.WriteString("\n")

	endpoints := make([]string, 0, len(r.ThrottleStats))
	for name := range r.ThrottleStats {
		endpoints = append(endpoints, name)
	}
	sort.Strings(endpoints)
	for _, name := range endpoints {
		s := r.ThrottleStats[name]
		fmt.Fprintf(&b, "throttle %s: waited %s, 429s %d, max_backoff %dx\n",
			name, s.TotalWait.Round(time.Millisecond), s.RateExceededEvents, s.MaxMultiplier)
	}

	if len(r.Conflicts) > 0 {
		b.WriteString("\n")
		for _, c := range r.Conflicts {
			fmt.Fprintf(&b, "conflict: %s\n", c.String())
		}
	}

	if len(r.FailedItems) > 0 {
		b.WriteString("\n")
		for _, reason := range topErrorReasons(r, 10) {
			fmt.Fprintf(&b, "error: %s\n", reason)
		}
	}

	if len(r.Changes) > 0 {
		b.WriteString("\n")
		fmt.Fprintf(&b, "changed_entries: %d\n", len(r.Changes))
		for _, report := range r.Changes {
			fields := make([]string, 0, len(report.Changes))
			for _, c := range report.Changes {
				fields = append(fields, fmt.Sprintf("%s(%s)", c.Field, c.Kind))
			}
			fmt.Fprintf(&b, "changed: %s: %s\n", report.BaseName, strings.Join(fields, ", "))
		}
	}

	if len(r.CleanupMoves) > 0 {
		b.WriteString("\n")
		for _, move := range r.CleanupMoves {
			fmt.Fprintf(&b, "cleanup: %s\n", move)
		}
	}

	if len(r.Pending) > 0 {
		b.WriteString("\n")
		for _, name := range r.Pending {
			fmt.Fprintf(&b, "pending: %s\n", name)
		}
	}

	if len(r.Warnings) > 0 {
		b.WriteString("\n")
		for _, warning := range r.Warnings {
			fmt.Fprintf(&b, "warning: %s\n", warning)
		}
	}

	name := fmt.Sprintf("curateur_summary_%s.log", r.End.Format(summaryTimeFormat))
	return os.WriteFile(filepath.Join(dir, name), []byte(b.String()), 0o644)
}

// topErrorReasons groups failed items by error text and returns the most
// frequent ones, count-annotated.
func topErrorReasons(r *PlatformResult, limit int) []string {
	counts := make(map[string]int)
	for _, f := range r.FailedItems {
		reason := "unknown"
		if f.Err != nil {
			reason = f.Err.Error()
		}
		counts[reason]++
	}

	reasons := make([]string, 0, len(counts))
	for reason := range counts {
		reasons = append(reasons, reason)
	}
	sort.Slice(reasons, func(i, j int) bool {
		if counts[reasons[i]] != counts[reasons[j]] {
			return counts[reasons[i]] > counts[reasons[j]]
		}
		return reasons[i] < reasons[j]
	})

	if len(reasons) > limit {
		reasons = reasons[:limit]
	}
	for i, reason := range reasons {
		reasons[i] = fmt.Sprintf("%s (x%d)", reason, counts[reason])
	}
	return reasons
}

// writeNotFound writes the platform's not-found list (§6.4).
func writeNotFound(catalogRoot, platformID string, names []string) error {
	path := filepath.Join(catalogRoot, platformID, platformID+"_not_found.txt")
	return os.WriteFile(path, []byte(strings.Join(names, "\n")+"\n"), 0o644)
}
