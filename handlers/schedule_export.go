package handlers

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"p9e.in/eicr/models"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	csvContentType  = "text/csv"

	// Circuit rows start below the title block and the header row.
	exportHeaderRow = 4
)

// ExportColumns are the circuit fields written to an export, in order.
func ExportColumns() []models.Field {
	var out []models.Field
	for _, f := range models.EditableFields() {
		if f == models.FieldSourceCircuitID || f == models.FieldAutoFilled {
			continue
		}
		out = append(out, f)
	}
	return out
}

// BuildScheduleWorkbook renders a schedule as an xlsx workbook.
func BuildScheduleWorkbook(sched models.Schedule, now time.Time) (*excelize.File, error) {
	f := excelize.NewFile()
	sheetName := "Schedule"

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
			Size: 16,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "left",
			Vertical:   "center",
		},
	})
	title := sched.Name
	if sched.BoardReference != "" && sched.BoardReference != sched.Name {
		title = fmt.Sprintf("%s (%s)", sched.Name, sched.BoardReference)
	}
	f.SetCellValue(sheetName, "A1", title)
	f.SetCellStyle(sheetName, "A1", "A1", titleStyle)
	f.SetRowHeight(sheetName, 1, 30)

	subtitle := fmt.Sprintf("Generated: %s", now.Format("2006-01-02 15:04:05"))
	if sched.Location != "" {
		subtitle = sched.Location + " | " + subtitle
	}
	f.SetCellValue(sheetName, "A2", subtitle)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold:  true,
			Color: "#FFFFFF",
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#4472C4"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
			WrapText:   true,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	cols := ExportColumns()
	for colIdx, field := range cols {
		cell, _ := excelize.CoordinatesToCellName(colIdx+1, exportHeaderRow)
		colName, _ := excelize.ColumnNumberToName(colIdx + 1)
		f.SetCellValue(sheetName, cell, field.Label())
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
		f.SetColWidth(sheetName, colName, colName, 14)
	}

	dataStyle, _ := f.NewStyle(&excelize.Style{
		Border: []excelize.Border{
			{Type: "left", Color: "CCCCCC", Style: 1},
			{Type: "right", Color: "CCCCCC", Style: 1},
			{Type: "top", Color: "CCCCCC", Style: 1},
			{Type: "bottom", Color: "CCCCCC", Style: 1},
		},
	})
	// Auto-filled rows get a tinted background, matching the border cue.
	autoStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#FFF2CC"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "CCCCCC", Style: 1},
			{Type: "right", Color: "CCCCCC", Style: 1},
			{Type: "top", Color: "CCCCCC", Style: 1},
			{Type: "bottom", Color: "CCCCCC", Style: 1},
		},
	})

	for rowIdx, circuit := range sched.Circuits {
		style := dataStyle
		if circuit.AutoFilled || circuit.SourceCircuitID != "" {
			style = autoStyle
		}
		for colIdx, field := range cols {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, exportHeaderRow+1+rowIdx)
			value, _ := circuit.Get(field)
			f.SetCellValue(sheetName, cell, value)
			f.SetCellStyle(sheetName, cell, cell, style)
		}
	}

	f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		XSplit:      1,
		YSplit:      exportHeaderRow,
		TopLeftCell: fmt.Sprintf("B%d", exportHeaderRow+1),
		ActivePane:  "bottomRight",
	})

	f.DeleteSheet("Sheet1")
	return f, nil
}

// BuildScheduleCSV renders a schedule's circuits as CSV with a header row.
func BuildScheduleCSV(sched models.Schedule) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	cols := ExportColumns()
	headers := make([]string, len(cols))
	for i, f := range cols {
		headers[i] = f.Label()
	}
	writer.Write(headers)

	for _, circuit := range sched.Circuits {
		record := make([]string, len(cols))
		for i, f := range cols {
			record[i], _ = circuit.Get(f)
		}
		writer.Write(record)
	}

	writer.Flush()
	return buf.Bytes(), writer.Error()
}

func exportFilename(sched models.Schedule, ext string, now time.Time) string {
	return fmt.Sprintf("%s_%s.%s", sanitizeFilename(sched.Name), now.Format("20060102_150405"), ext)
}

func sanitizeFilename(filename string) string {
	replacements := map[rune]rune{
		'/':  '_',
		'\\': '_',
		':':  '_',
		'*':  '_',
		'?':  '_',
		'"':  '_',
		'<':  '_',
		'>':  '_',
		'|':  '_',
		' ':  '_',
	}

	result := []rune{}
	for _, char := range filename {
		if replacement, exists := replacements[char]; exists {
			result = append(result, replacement)
		} else {
			result = append(result, char)
		}
	}
	if len(result) == 0 {
		return "schedule"
	}
	return string(result)
}
