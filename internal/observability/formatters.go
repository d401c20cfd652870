// Package observability provides the process logger, Prometheus collectors,
// and boxed summaries printed by CLI commands.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/jobni/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted CLI output
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintSeedSummary outputs what a fixture import created and skipped.
func (p *Printer) PrintSeedSummary(s *types.SeedSummary) {
	if s == nil {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Users created: %d\n", s.UsersCreated)
	fmt.Fprintf(&sb, "Users skipped: %d (already registered)\n", s.UsersSkipped)
	fmt.Fprintf(&sb, "Jobs created:  %d", s.JobsCreated)

	if len(s.Warnings) > 0 {
		sb.WriteString("\n\nWarnings:\n")
		count := min(len(s.Warnings), maxItemsToShow)
		for i := 0; i < count; i++ {
			fmt.Fprintf(&sb, "  • %s\n", s.Warnings[i])
		}
		if len(s.Warnings) > maxItemsToShow {
			fmt.Fprintf(&sb, "  ... and %d more\n", len(s.Warnings)-maxItemsToShow)
		}
	}

	p.printBox("SEED SUMMARY", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintAdminStats outputs the platform-wide counters.
func (p *Printer) PrintAdminStats(s *types.AdminStats) {
	if s == nil {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Users:        %d (%d employers, %d job seekers)\n", s.TotalUsers, s.Employers, s.JobSeekers)
	fmt.Fprintf(&sb, "Jobs:         %d (%d active)\n", s.TotalJobs, s.ActiveJobs)
	fmt.Fprintf(&sb, "Applications: %d (%d pending)", s.TotalApplications, s.PendingApplications)

	p.printBox("PLATFORM STATS", sb.String())
}
