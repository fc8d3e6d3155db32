// Package export renders the document working set as an XLSX workbook for
// offline archival review.
package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/expedium/mesa-partes/internal/core/domain"
)

const sheetName = "Expedientes"

var headers = []string{
	"ID", "Título", "Archivo", "URL", "Tipo", "Urgencia", "Estado",
	"Resumen", "Etiquetas", "Asignado a", "Área", "Registrado", "Modificado",
}

// Workbook renders the records, one row per document, preserving the order
// given by the caller.
func Workbook(records []domain.DocumentRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("drop default sheet: %w", err)
	}

	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return nil, fmt.Errorf("write header %q: %w", h, err)
		}
	}

	for row, rec := range records {
		values := []any{
			rec.ID,
			rec.Title,
			rec.FileName,
			rec.FileURL,
			string(rec.Type),
			string(rec.Urgency),
			string(rec.Status),
			rec.Summary,
			strings.Join(rec.Tags, ", "),
			rec.AssignedTo,
			rec.AssignedArea,
			rec.CreatedAt.Format("2006-01-02 15:04:05"),
			rec.LastModified.Format("2006-01-02 15:04:05"),
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return nil, fmt.Errorf("write row %d: %w", row+1, err)
			}
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}
