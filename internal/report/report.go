// Package report renders fetch results for the terminal.
package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/fetchkit/internal/types"
)

const maxTitleLen = 60

// Row is one line of the report.
type Row struct {
	Locator  string
	Status   string
	Bytes    int
	Duration time.Duration
	Title    string
	Err      error
}

// Summarize builds one row per result. HTML bodies contribute their <title>.
func Summarize(results []types.Result) []Row {
	rows := make([]Row, 0, len(results))
	for _, r := range results {
		row := Row{
			Locator:  r.Locator,
			Status:   types.KindOf(r.Err),
			Bytes:    len(r.Body),
			Duration: r.Duration,
			Err:      r.Err,
		}
		if r.OK() {
			row.Title = Title(r.Body)
		}
		rows = append(rows, row)
	}
	return rows
}

// Title returns the trimmed <title> of an HTML document, or "" when there is none.
func Title(body string) string {
	if !looksLikeHTML(body) {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return ""
	}
	title := strings.Join(strings.Fields(doc.Find("title").First().Text()), " ")
	if r := []rune(title); len(r) > maxTitleLen {
		title = string(r[:maxTitleLen-3]) + "..."
	}
	return title
}

// Write prints rows as an aligned table.
func Write(w io.Writer, rows []Row) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STATUS\tBYTES\tTIME\tLOCATOR\tTITLE")
	for _, r := range rows {
		title := r.Title
		if r.Err != nil {
			title = r.Err.Error()
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n",
			r.Status, r.Bytes, r.Duration.Round(time.Millisecond), r.Locator, title)
	}
	return tw.Flush()
}

func looksLikeHTML(body string) bool {
	head := body
	if len(head) > 1024 {
		head = head[:1024]
	}
	head = strings.ToLower(head)
	return strings.Contains(head, "<html") || strings.Contains(head, "<!doctype html") || strings.Contains(head, "<title")
}
