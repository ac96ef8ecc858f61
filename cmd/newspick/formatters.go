package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pevans/newspick/news"
	"github.com/pevans/newspick/roundup"
)

// Output formats accepted by --format.
const (
	formatTable   = "table"
	formatJSON    = "json"
	formatCompact = "compact"
)

func validFormat(format string) bool {
	switch format {
	case formatTable, formatJSON, formatCompact:
		return true
	}
	return false
}

// printReport writes the report in the requested format
func printReport(w io.Writer, format string, report *roundup.Report, limit int) error {
	switch format {
	case formatJSON:
		return printReportJSON(w, report)
	case formatCompact:
		printReportCompact(w, report)
		return nil
	default:
		printReportTable(w, report, limit)
		return nil
	}
}

// printReportTable prints one block per category, one line per publisher
func printReportTable(w io.Writer, report *roundup.Report, limit int) {
	perSource := "One per Source"
	if limit > 1 {
		perSource = fmt.Sprintf("Up to %d per Source", limit)
	}

	for _, cat := range report.Categories {
		fmt.Fprintf(w, "\nTop %s News Stories (%s):\n", cat.Name, perSource)
		for _, pick := range cat.Selection.Picks() {
			if !pick.Found() {
				fmt.Fprintf(w, "%s: No story found.\n", pick.Publisher)
				continue
			}
			for _, story := range pick.Stories {
				fmt.Fprintf(w, "%s: %s\n", pick.Publisher, story.Label())
			}
		}
	}
}

// printReportCompact prints one tab-separated line per selected story
func printReportCompact(w io.Writer, report *roundup.Report) {
	if len(report.Rows) == 0 {
		fmt.Fprintln(w, "No stories found.")
		return
	}

	for _, row := range report.Rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", row.Category, row.Source, row.Title, row.Link)
	}
}

type pickJSON struct {
	Publisher string         `json:"publisher"`
	Stories   []news.Article `json:"stories"`
}

type categoryJSON struct {
	Name    string     `json:"name"`
	Query   string     `json:"query"`
	Status  string     `json:"status"`
	Error   string     `json:"error,omitempty"`
	Message string     `json:"message,omitempty"`
	Picks   []pickJSON `json:"picks"`
}

type appendJSON struct {
	HeaderWritten bool `json:"header_written"`
	RowsWritten   int  `json:"rows_written"`
}

type reportJSON struct {
	RunID      string         `json:"run_id"`
	Date       string         `json:"date"`
	Categories []categoryJSON `json:"categories"`
	Append     *appendJSON    `json:"append,omitempty"`
}

// printReportJSON prints the report in JSON format
func printReportJSON(w io.Writer, report *roundup.Report) error {
	out := reportJSON{
		RunID: report.RunID,
		Date:  report.Date,
	}

	for _, cat := range report.Categories {
		c := categoryJSON{
			Name:    cat.Name,
			Query:   cat.Query,
			Status:  string(cat.Status),
			Message: cat.Message,
			Picks:   []pickJSON{},
		}
		if cat.Err != nil {
			c.Error = cat.Err.Error()
		}
		for _, pick := range cat.Selection.Picks() {
			stories := pick.Stories
			if stories == nil {
				stories = []news.Article{}
			}
			c.Picks = append(c.Picks, pickJSON{Publisher: pick.Publisher, Stories: stories})
		}
		out.Categories = append(out.Categories, c)
	}

	if report.Append != nil {
		out.Append = &appendJSON{
			HeaderWritten: report.Append.HeaderWritten,
			RowsWritten:   report.Append.RowsWritten,
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	fmt.Fprintln(w, string(data))
	return nil
}
