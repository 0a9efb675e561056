// Package grid provides the in-memory workbook model the inference engine
// works on: a sparse (sheet, row, col) -> cell view over xlsx bytes or an
// HTML table export, with formula-cached values as the default reading.
package grid

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"statement_engine/pkg/models"
)

// Grid is an immutable snapshot of one workbook. Sheet indices are
// 0-based; rows and columns are 1-based, matching spreadsheet convention.
type Grid struct {
	sheetNames []string
	cells      []map[cellKey]models.Cell
	rowCounts  []int
	colCounts  []int
}

type cellKey struct {
	row int
	col int
}

// Load decodes workbook bytes into a Grid. It accepts xlsx (zip magic
// "PK") and HTML table exports; anything else, or a workbook with zero
// sheets, fails with models.ErrUnreadableWorkbook.
func Load(data []byte) (*Grid, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", models.ErrUnreadableWorkbook)
	}
	if bytes.HasPrefix(data, []byte("PK")) {
		return loadXLSX(data)
	}
	if looksLikeHTML(data) {
		return loadHTML(data)
	}
	return nil, fmt.Errorf("%w: unrecognized format", models.ErrUnreadableWorkbook)
}

func loadXLSX(data []byte) (*Grid, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrUnreadableWorkbook, err)
	}
	defer f.Close()

	sheetList := f.GetSheetList()
	if len(sheetList) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", models.ErrUnreadableWorkbook)
	}

	g := newGrid(sheetList)
	for sheetIdx, name := range sheetList {
		rows, err := f.GetRows(name)
		if err != nil {
			continue
		}
		for rowIdx, row := range rows {
			for colIdx, formatted := range row {
				if formatted == "" {
					continue
				}
				rowNum, colNum := rowIdx+1, colIdx+1
				cellName, _ := excelize.CoordinatesToCellName(colNum, rowNum)

				cell := models.Cell{
					Sheet: sheetIdx,
					Row:   rowNum,
					Col:   colNum,
					Type:  models.CellText,
					Text:  strings.TrimSpace(formatted),
				}

				// The raw value exposes date serials hidden behind
				// display formats like "Jan-24".
				raw, _ := f.GetCellValue(name, cellName, excelize.Options{RawCellValue: true})
				if n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
					cell.Type = models.CellNumber
					cell.Number = n
				}
				if formula, _ := f.GetCellFormula(name, cellName); formula != "" {
					cell.Formula = formula
				}
				if styleID, err := f.GetCellStyle(name, cellName); err == nil && styleID != 0 {
					cell.Format = strconv.Itoa(styleID)
				}
				g.set(sheetIdx, cell)
			}
		}
	}
	return g, nil
}

func newGrid(sheetNames []string) *Grid {
	g := &Grid{
		sheetNames: sheetNames,
		cells:      make([]map[cellKey]models.Cell, len(sheetNames)),
		rowCounts:  make([]int, len(sheetNames)),
		colCounts:  make([]int, len(sheetNames)),
	}
	for i := range g.cells {
		g.cells[i] = make(map[cellKey]models.Cell)
	}
	return g
}

func (g *Grid) set(sheet int, cell models.Cell) {
	g.cells[sheet][cellKey{cell.Row, cell.Col}] = cell
	if cell.Row > g.rowCounts[sheet] {
		g.rowCounts[sheet] = cell.Row
	}
	if cell.Col > g.colCounts[sheet] {
		g.colCounts[sheet] = cell.Col
	}
}

// Cell returns the cell at (sheet, row, col). Out-of-range reads return
// an empty cell rather than erroring.
func (g *Grid) Cell(sheet, row, col int) models.Cell {
	if sheet < 0 || sheet >= len(g.cells) {
		return models.Cell{Sheet: sheet, Row: row, Col: col, Type: models.CellEmpty}
	}
	if c, ok := g.cells[sheet][cellKey{row, col}]; ok {
		return c
	}
	return models.Cell{Sheet: sheet, Row: row, Col: col, Type: models.CellEmpty}
}

// Dimensions returns the populated extent of a sheet.
func (g *Grid) Dimensions(sheet int) (rows, cols int) {
	if sheet < 0 || sheet >= len(g.cells) {
		return 0, 0
	}
	return g.rowCounts[sheet], g.colCounts[sheet]
}

// SheetNames lists the workbook's sheets in file order.
func (g *Grid) SheetNames() []string {
	return g.sheetNames
}

// SheetCount returns the number of sheets.
func (g *Grid) SheetCount() int {
	return len(g.sheetNames)
}

// Sample serializes a bounded window of the first sheet as pipe-separated
// rows, the shape sent to the external structure advisor. Row numbers are
// 1-based so the advisor can answer with exact coordinates.
func (g *Grid) Sample(sheet, maxRows, maxCols int) string {
	rows, cols := g.Dimensions(sheet)
	if rows > maxRows {
		rows = maxRows
	}
	if cols > maxCols {
		cols = maxCols
	}
	var b strings.Builder
	for r := 1; r <= rows; r++ {
		b.WriteString(fmt.Sprintf("R%d:", r))
		for c := 1; c <= cols; c++ {
			cell := g.Cell(sheet, r, c)
			b.WriteString(" | ")
			switch cell.Type {
			case models.CellNumber:
				// Prefer the display text when it differs (dates, percents).
				if cell.Text != "" && cell.Text != strconv.FormatFloat(cell.Number, 'f', -1, 64) {
					b.WriteString(cell.Text)
				} else {
					b.WriteString(strconv.FormatFloat(cell.Number, 'f', -1, 64))
				}
			default:
				b.WriteString(cell.Text)
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Formula wraps a precomputed value together with its formula source, for
// building synthetic grids that carry calculated cells.
type Formula struct {
	Expr  string
	Value float64
}

// FromRows builds a single-sheet Grid from literal row data. Cells may be
// string, int, float64, time.Time or Formula values; nil and "" leave a
// gap. Intended for tests and for replaying manual mappings against
// tabular data that never came from a file.
func FromRows(sheetName string, rows [][]interface{}) *Grid {
	g := newGrid([]string{sheetName})
	for rowIdx, row := range rows {
		for colIdx, v := range row {
			if v == nil {
				continue
			}
			cell := models.Cell{Sheet: 0, Row: rowIdx + 1, Col: colIdx + 1}
			switch tv := v.(type) {
			case string:
				if tv == "" {
					continue
				}
				cell.Type = models.CellText
				cell.Text = tv
			case int:
				cell.Type = models.CellNumber
				cell.Number = float64(tv)
				cell.Text = strconv.Itoa(tv)
			case float64:
				cell.Type = models.CellNumber
				cell.Number = tv
				cell.Text = strconv.FormatFloat(tv, 'f', -1, 64)
			case time.Time:
				cell.Type = models.CellDate
				cell.Date = tv
				cell.Text = tv.Format("Jan-06")
			case Formula:
				cell.Type = models.CellNumber
				cell.Number = tv.Value
				cell.Text = strconv.FormatFloat(tv.Value, 'f', -1, 64)
				cell.Formula = tv.Expr
			default:
				continue
			}
			g.set(0, cell)
		}
	}
	return g
}
