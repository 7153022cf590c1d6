package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

func writeCSV(w io.Writer, doc Document) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(doc.Headers); err != nil {
		return err
	}
	record := make([]string, len(doc.Headers))
	for _, row := range doc.Rows {
		for i, cell := range row {
			record[i] = cellString(cell)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func cellString(v any) string {
	switch c := v.(type) {
	case string:
		return c
	case decimal.Decimal:
		return c.StringFixed(2)
	default:
		return fmt.Sprint(c)
	}
}

func writeJSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc.Records)
}

// writeXLSX lays out the title on row 1, headers on row 2, data from row 3.
func writeXLSX(w io.Writer, doc Document) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := doc.Sheet
	if sheet == "" {
		sheet = "Sheet1"
	}
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	lastCol, err := excelize.ColumnNumberToName(max(len(doc.Headers), 1))
	if err != nil {
		return err
	}

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 13},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}

	// Title row
	if err := f.SetCellValue(sheet, "A1", doc.Title); err != nil {
		return err
	}
	if lastCol != "A" {
		if err := f.MergeCell(sheet, "A1", lastCol+"1"); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(sheet, "A1", "A1", titleStyle); err != nil {
		return err
	}

	// Header row
	for i, h := range doc.Headers {
		c, err := excelize.CoordinatesToCellName(i+1, 2)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, c, h); err != nil {
			return err
		}
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, float64(max(len(h)+2, 12))); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(sheet, "A2", lastCol+"2", headerStyle); err != nil {
		return err
	}

	// Data rows
	for r, row := range doc.Rows {
		for i, cell := range row {
			c, err := excelize.CoordinatesToCellName(i+1, r+3)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, c, xlsxValue(cell)); err != nil {
				return err
			}
		}
	}
	if err := f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 2, TopLeftCell: "A3", ActivePane: "bottomLeft"}); err != nil {
		return err
	}

	return f.Write(w)
}

func xlsxValue(v any) any {
	if d, ok := v.(decimal.Decimal); ok {
		return d.InexactFloat64()
	}
	return v
}
