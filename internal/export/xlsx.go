package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/vbonduro/bitacora/internal/domain"
)

const sheetName = "Reportes"

// XLSXFilename is the download name of the review spreadsheet.
const XLSXFilename = "bitacora_reportes.xlsx"

// WriteXLSX writes the reports as one spreadsheet row each, in the order given.
func WriteXLSX(w io.Writer, reports []*domain.Report) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	headers := []any{"Fecha", "Supervisor", "Proyecto", "Fabricación", "Instalación", "Supervisión"}
	for _, m := range MetricColumns {
		headers = append(headers, m.Label)
	}
	headers = append(headers, "Tiempo muerto", "Pendiente", "Fotos", "ID")

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"1F4E78"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := f.SetSheetRow(sheetName, "A1", &headers); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(sheetName, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	if err := f.SetColWidth(sheetName, "A", lastCol, 18); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}

	for i, r := range reports {
		row := []any{
			r.Date,
			r.SupervisorName,
			r.ProjectName,
			strings.Join(r.Fabrication, ", "),
			strings.Join(r.Installation, ", "),
			strings.Join(r.Supervision, ", "),
		}
		for _, m := range MetricColumns {
			if v := m.Value(r.Metrics); v != nil {
				row = append(row, *v)
			} else {
				row = append(row, nil)
			}
		}
		row = append(row,
			withOther(r.Downtime, r.DowntimeOther),
			withOther(r.Pending, r.PendingOther),
			len(r.Photos),
			r.ID,
		)

		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write report %s: %w", r.ID, err)
		}
	}

	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write spreadsheet: %w", err)
	}
	return nil
}
