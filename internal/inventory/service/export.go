package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aussiebroadwan/stocktake/internal/inventory/store"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Listas Enviadas"

var exportHeader = []string{
	"EAN", "DESCRIÇÃO", "QUANTIDADE", "USUÁRIO", "DATA_ENVIO",
	"VALIDADO", "VALIDADOR", "DATA_VALIDACAO", "RESPONSÁVEL",
}

// ExportService renders all submitted entries as an Excel workbook for
// offline review.
type ExportService struct {
	Store store.Store
}

// Workbook returns the spreadsheet bytes and a timestamped filename.
func (s *ExportService) Workbook(ctx context.Context) ([]byte, string, error) {
	products, err := s.Store.Products().ListSent(ctx, false)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", exportSheet)

	for col, title := range exportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, "", err
		}
		if err := f.SetCellValue(exportSheet, cell, title); err != nil {
			return nil, "", err
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDDDDD"}},
	})
	if err == nil {
		endCell, _ := excelize.CoordinatesToCellName(len(exportHeader), 1)
		_ = f.SetCellStyle(exportSheet, "A1", endCell, headerStyle)
	}

	for i, p := range products {
		row := i + 2
		values := []any{
			p.EAN,
			p.Name,
			p.Quantity,
			p.UserName,
			formatExportTime(p.SentAt),
			formatValidated(p.Validated),
			deref(p.ValidatorName),
			formatExportTime(p.ValidatedAt),
			deref(p.ResponsibleName),
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return nil, "", err
			}
			if err := f.SetCellValue(exportSheet, cell, v); err != nil {
				return nil, "", err
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("listas_enviadas_%s.xlsx", time.Now().UTC().Format("20060102_150405"))
	return buf.Bytes(), filename, nil
}

func formatExportTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("02/01/2006 15:04")
}

func formatValidated(validated bool) string {
	if validated {
		return "SIM"
	}
	return "NÃO"
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
