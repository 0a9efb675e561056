package grid

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"statement_engine/pkg/models"
)

// looksLikeHTML sniffs the start of the byte stream for markup. Excel's
// "Save as Web Page" exports and some accounting systems emit statements
// as HTML tables with an .xls extension.
func looksLikeHTML(data []byte) bool {
	head := bytes.TrimLeft(data[:min(len(data), 512)], " \t\r\n\xef\xbb\xbf")
	lower := bytes.ToLower(head)
	return bytes.HasPrefix(lower, []byte("<!doctype html")) ||
		bytes.HasPrefix(lower, []byte("<html")) ||
		bytes.HasPrefix(lower, []byte("<table"))
}

// loadHTML maps each <table> element to one sheet. Cell text is coerced
// to numbers where possible so downstream reads behave like xlsx cells.
func loadHTML(data []byte) (*Grid, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrUnreadableWorkbook, err)
	}

	tables := doc.Find("table")
	if tables.Length() == 0 {
		return nil, fmt.Errorf("%w: no tables in HTML document", models.ErrUnreadableWorkbook)
	}

	names := make([]string, tables.Length())
	for i := range names {
		names[i] = fmt.Sprintf("Table%d", i+1)
	}
	g := newGrid(names)

	tables.Each(func(sheetIdx int, table *goquery.Selection) {
		table.Find("tr").Each(func(rowIdx int, tr *goquery.Selection) {
			colNum := 1
			tr.Find("td, th").Each(func(_ int, td *goquery.Selection) {
				text := strings.TrimSpace(td.Text())
				span := 1
				if cs, ok := td.Attr("colspan"); ok {
					if n, err := strconv.Atoi(cs); err == nil && n > 1 {
						span = n
					}
				}
				if text != "" {
					cell := models.Cell{
						Sheet: sheetIdx,
						Row:   rowIdx + 1,
						Col:   colNum,
						Type:  models.CellText,
						Text:  text,
					}
					if n, err := strconv.ParseFloat(normalizeHTMLNumber(text), 64); err == nil {
						cell.Type = models.CellNumber
						cell.Number = n
					}
					g.set(sheetIdx, cell)
				}
				colNum += span
			})
		})
	})
	return g, nil
}

// normalizeHTMLNumber strips thousands separators and currency noise that
// HTML exports embed in cell text.
func normalizeHTMLNumber(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, " ", "")
	return s
}
