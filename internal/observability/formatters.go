// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/lead-scraper/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 72
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 25
)

// Printer handles formatted output for verbose mode
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
	fmt.Fprintf(p.out, "│ %s │\n", pad(title, boxWidth-4))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(strings.TrimRight(content, "\n"), "\n") {
		fmt.Fprintf(p.out, "│ %s │\n", pad(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// pad truncates or right-pads s to width runes.
func pad(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n > width {
		r := []rune(s)
		return string(r[:width-3]) + "..."
	}
	return s + strings.Repeat(" ", width-n)
}

// PrintLeads outputs one entry per lead.
func (p *Printer) PrintLeads(leads []types.Lead) {
	if len(leads) == 0 {
		p.printBox("LEADS", "No leads found")
		return
	}

	var sb strings.Builder
	count := min(len(leads), maxItemsToShow)
	for i := 0; i < count; i++ {
		lead := leads[i]
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, lead.Name))
		sb.WriteString(fmt.Sprintf("   %s", lead.Email))
		if lead.Phone != "" {
			sb.WriteString(fmt.Sprintf("  %s", lead.Phone))
		}
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("   %s\n", lead.Website))
		line := "   " + lead.Source
		if lead.Industry != "" {
			line += " · " + lead.Industry
		}
		sb.WriteString(line + "\n")
	}
	if len(leads) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("... and %d more\n", len(leads)-maxItemsToShow))
	}

	p.printBox(fmt.Sprintf("LEADS (%d)", len(leads)), sb.String())
}

// PrintSummary outputs lead counts by source, pagination and backend failures.
func (p *Printer) PrintSummary(resp *types.SearchResponse) {
	if resp == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Leads:    %d\n", len(resp.Leads)))

	withEmail := 0
	bySource := map[string]int{}
	for _, lead := range resp.Leads {
		if lead.Email != types.EmailPlaceholder && lead.Email != "" {
			withEmail++
		}
		bySource[lead.Source]++
	}
	sb.WriteString(fmt.Sprintf("Emails:   %d\n", withEmail))

	if resp.Meta.CurrentPage > 0 {
		page := fmt.Sprintf("Page:     %d", resp.Meta.CurrentPage)
		if resp.Meta.TotalPagesEstimate > 0 {
			page += fmt.Sprintf(" of ~%d", resp.Meta.TotalPagesEstimate)
		}
		if resp.Meta.HasNext {
			page += " (more available)"
		}
		sb.WriteString(page + "\n")
	}

	if len(bySource) > 0 {
		sources := make([]string, 0, len(bySource))
		for source := range bySource {
			sources = append(sources, source)
		}
		sort.Strings(sources)

		sb.WriteString("\nBy source:\n")
		for _, source := range sources {
			sb.WriteString(fmt.Sprintf("  • %s: %d\n", source, bySource[source]))
		}
	}

	if len(resp.Errors) > 0 {
		sb.WriteString("\nBackend errors:\n")
		for _, f := range resp.Errors {
			sb.WriteString(fmt.Sprintf("⚠ %s [%s] %s\n", f.Backend, f.Kind, f.Message))
		}
	}

	p.printBox("SEARCH SUMMARY", sb.String())
}
