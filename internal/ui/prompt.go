package ui

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
)

// Candidate summarizes one search result for the selection prompt.
type Candidate struct {
	Name       string
	Region     string
	Confidence float64
}

// Prompter is the §6.3 operator interaction surface. Implementations must
// serialize so at most one prompt is in flight at a time; workers block on
// the reply.
type Prompter interface {
	// ConfirmIntegrityCleanup asks whether to prune orphan catalog entries
	// and move their media to the CLEANUP tree. Default no.
	ConfirmIntegrityCleanup(platformID string, orphans int, ratio float64) bool

	// SelectCandidate surfaces search candidates that all fell below the
	// confidence threshold. Returns the chosen index, or ok=false to skip.
	SelectCandidate(entry string, candidates []Candidate) (index int, ok bool)

	// ConfirmMediaCleanup asks whether files of now-disabled media types
	// should be moved to the CLEANUP tree. Default no.
	ConfirmMediaCleanup(platformID string, types []string) bool
}

// NonInteractive resolves every prompt to its safe default: no cleanup, no
// candidate. Used for non-TTY runs (§6.3).
type NonInteractive struct{}

func (NonInteractive) ConfirmIntegrityCleanup(string, int, float64) bool { return false }
func (NonInteractive) SelectCandidate(string, []Candidate) (int, bool)   { return -1, false }
func (NonInteractive) ConfirmMediaCleanup(string, []string) bool         { return false }

// TerminalPrompter asks on the operator's terminal. A single mutex
// serializes prompts across all workers.
type TerminalPrompter struct {
	mu  sync.Mutex
	in  *bufio.Reader
	out io.Writer
}

// NewTerminalPrompter wires a prompter to the given streams.
func NewTerminalPrompter(in io.Reader, out io.Writer) *TerminalPrompter {
	return &TerminalPrompter{in: bufio.NewReader(in), out: out}
}

func (p *TerminalPrompter) ConfirmIntegrityCleanup(platformID string, orphans int, ratio float64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "\n%s: only %.0f%% of catalog entries still have ROMs; %d orphan entries found.\n",
		platformID, ratio*100, orphans)
	fmt.Fprint(p.out, "Prune orphans and move their media to CLEANUP? [y/N] ")
	return p.readYesNo()
}

func (p *TerminalPrompter) SelectCandidate(entry string, candidates []Candidate) (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "\nNo confident match for %q. Candidates:\n", entry)
	for i, c := range candidates {
		region := c.Region
		if region == "" {
			region = "?"
		}
		fmt.Fprintf(p.out, "  %d) %-50s [%s] %.0f%%\n", i+1, c.Name, region, c.Confidence*100)
	}
	fmt.Fprint(p.out, "Select a number, or press Enter to skip: ")

	line, err := p.in.ReadString('\n')
	if err != nil {
		return -1, false
	}
	choice, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || choice < 1 || choice > len(candidates) {
		return -1, false
	}
	return choice - 1, true
}

func (p *TerminalPrompter) ConfirmMediaCleanup(platformID string, types []string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "\n%s: media types no longer enabled: %s.\n", platformID, strings.Join(types, ", "))
	fmt.Fprint(p.out, "Move their files to CLEANUP? [y/N] ")
	return p.readYesNo()
}

func (p *TerminalPrompter) readYesNo() bool {
	line, err := p.in.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
