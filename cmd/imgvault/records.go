package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"imgvault/internal/catalog"
)

type recordView struct {
	Author      string `json:"author_name"`
	Name        string `json:"experiment_name"`
	ArchivePath string `json:"archive_path"`
	Metadata    string `json:"metadata"`
	CreatedAt   string `json:"created_at,omitempty"`
}

func toRecordViews(records []catalog.Record) []recordView {
	views := make([]recordView, 0, len(records))
	for _, rec := range records {
		view := recordView{
			Author:      rec.Author,
			Name:        rec.Name,
			ArchivePath: rec.ArchivePath,
			Metadata:    rec.Metadata,
		}
		if !rec.CreatedAt.IsZero() {
			view.CreatedAt = rec.CreatedAt.Local().Format("2006-01-02 15:04:05")
		}
		views = append(views, view)
	}
	return views
}

// renderRecords writes the catalog as a table, or a hint when it is empty.
func renderRecords(out io.Writer, records []catalog.Record) {
	if len(records) == 0 {
		fmt.Fprintln(out, "No experiments in the catalog")
		return
	}
	rows := make([][]string, 0, len(records))
	for _, view := range toRecordViews(records) {
		rows = append(rows, []string{view.Author, view.Name, view.ArchivePath, summarizeMetadata(view.Metadata), view.CreatedAt})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Author Name", "Experiment Name", "Path", "MetaData", "Created"},
		rows,
		nil,
	))
}

// summarizeMetadata keeps table cells on one line.
func summarizeMetadata(text string) string {
	clean := strings.Join(strings.Fields(text), " ")
	const limit = 60
	if runes := []rune(clean); len(runes) > limit {
		return string(runes[:limit]) + "..."
	}
	return clean
}

// writeRecordsJSON prints the query result as an indented JSON array.
func writeRecordsJSON(w io.Writer, records []catalog.Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(toRecordViews(records))
}
