package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/JakeFAU/inat-harvester/internal/inat"
	"github.com/JakeFAU/inat-harvester/internal/pipeline"
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

// renderSummary prints the per-species table and where the output went.
func renderSummary(w io.Writer, result pipeline.Result, photosDir string) {
	t := newTable(w)
	t.SetTitle(fmt.Sprintf("Observations %s", result.Window))
	t.AppendHeader(table.Row{"Species", "Taxon", "Taxon ID", "Observations", "Rows", "Note"})
	for _, s := range result.Species {
		row := table.Row{s.Species, "", "", s.Observations, s.Records, ""}
		if s.Found {
			row[1] = s.Taxon.DisplayName()
			row[2] = s.Taxon.ID
		}
		row[5] = note(s)
		t.AppendRow(row)
	}
	t.AppendFooter(table.Row{"Total", "", "", "", result.Records, ""})
	t.Render()

	if result.Place != nil {
		_, _ = fmt.Fprintf(w, "Place: %s (ID %d)\n", result.Place.Name, result.Place.ID)
	}
	if result.Outcome == pipeline.OutcomeNothingFound {
		_, _ = fmt.Fprintln(w, "No observations found for any species.")
		return
	}
	_, _ = fmt.Fprintf(w, "Export written: %s\n", result.Path)
	_, _ = fmt.Fprintf(w, "Photos saved to: %s\n", photosDir)
}

func note(s pipeline.SpeciesSummary) string {
	switch {
	case errors.Is(s.Err, inat.ErrNotFound):
		return "not found"
	case !s.Found && s.Err != nil:
		return "lookup failed"
	case s.Err != nil:
		return "partial results"
	case s.Observations == 0:
		return "no observations"
	default:
		return ""
	}
}

