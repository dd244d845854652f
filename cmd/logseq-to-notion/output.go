package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/sleroq/logseq-to-notion/internal/app/converter"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

func printResults(w io.Writer, results []converter.Result) {
	for _, res := range results {
		printReport(w, res.Collection, res.Report)
		fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("output:"), res.NotesDir)
		if res.Archive != "" {
			fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("archive:"), res.Archive)
		}
	}
}

func printReport(w io.Writer, name string, r converter.Report) {
	s := r.Stats
	fmt.Fprintln(w, titleStyle.Render(name))
	fmt.Fprintf(w, "  %s %d pages, %d journals, %d assets\n", labelStyle.Render("converted:"), s.Pages, s.Journals, s.Assets)

	unresolved, skipped := 0, 0
	for _, rec := range r.Records {
		unresolved += len(rec.Unresolved)
		if rec.Skipped {
			skipped++
		}
	}
	status := okStyle.Render(fmt.Sprintf("%d warnings", s.Warnings))
	if s.Warnings > 0 {
		status = warnStyle.Render(fmt.Sprintf("%d warnings", s.Warnings))
	}
	fmt.Fprintf(w, "  %s %s, %d unresolved links, %d skipped notes\n", labelStyle.Render("issues:"), status, unresolved, skipped)
}
