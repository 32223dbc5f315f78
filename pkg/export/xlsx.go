package export

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

const (
	defaultSheet  = "Sheet1"
	maxSheetName  = 31
	xlsxColWidth  = 15
	xlsxDateStyle = 22 // built-in "m/d/yy h:mm"
)

// writeXLSX writes a single worksheet with a styled header row.
func (e *Exporter) writeXLSX(path string, headers []string, rows [][]any) (string, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := e.opts.SheetName
	if sheet == "" {
		sheet = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	sheet = sheetName(sheet)

	if sheet != defaultSheet {
		if err := f.SetSheetName(defaultSheet, sheet); err != nil {
			return "", fmt.Errorf("failed to name sheet: %w", err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create header style: %w", err)
	}
	dateStyle, err := f.NewStyle(&excelize.Style{NumFmt: xlsxDateStyle})
	if err != nil {
		return "", fmt.Errorf("failed to create date style: %w", err)
	}

	for col, h := range headers {
		cell := columnName(col+1) + "1"
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return "", err
		}
		f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	for r, row := range rows {
		for col, v := range row {
			cell := columnName(col+1) + strconv.Itoa(r+2)
			if err := f.SetCellValue(sheet, cell, cellValue(v)); err != nil {
				return "", fmt.Errorf("failed to write cell %s: %w", cell, err)
			}
			if _, ok := v.(time.Time); ok {
				f.SetCellStyle(sheet, cell, cell, dateStyle)
			}
		}
	}

	for col := range headers {
		name := columnName(col + 1)
		f.SetColWidth(sheet, name, name, xlsxColWidth)
	}

	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save workbook: %w", err)
	}
	return path, nil
}

// cellValue keeps numbers and times typed; everything else is text.
func cellValue(v any) any {
	switch val := v.(type) {
	case nil:
		return ""
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64, bool, time.Time:
		return val
	default:
		return FormatValue(val)
	}
}

// sheetName makes name acceptable to Excel.
func sheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, strings.Trim(name, "'"))

	if utf8.RuneCountInString(name) > maxSheetName {
		name = string([]rune(name)[:maxSheetName])
	}
	if strings.TrimSpace(name) == "" {
		return defaultSheet
	}
	return name
}

// columnName converts a 1-based column number to Excel letters (1 -> A, 27 -> AA).
func columnName(col int) string {
	name := ""
	for col > 0 {
		col--
		name = string(rune('A'+col%26)) + name
		col /= 26
	}
	return name
}
