package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/rezonia/invoice-renderer/internal/document"
	"github.com/rezonia/invoice-renderer/internal/layout"
	"github.com/rezonia/invoice-renderer/internal/model"
)

// Sheet names of the summary workbook
const (
	SummarySheet = "Facture"
	LinesSheet   = "Lignes"
)

// euroFormat is the custom number format for amount cells
const euroFormat = `#,##0.00\ "€"`

// RenderXLSX writes a two-sheet workbook: the invoice summary and its lines
func (r *Renderer) RenderXLSX(w io.Writer, doc *document.Document) error {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			r.log.Debug("failed to close workbook", zap.Error(err))
		}
	}()

	if err := buildWorkbook(f, doc); err != nil {
		return model.NewRenderError("xlsx", "", err)
	}
	if err := f.Write(w); err != nil {
		return model.NewRenderError("write", "", err)
	}
	return nil
}

func buildWorkbook(f *excelize.File, doc *document.Document) error {
	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(LinesSheet); err != nil {
		return err
	}

	amountFmt := euroFormat
	amountStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &amountFmt})
	if err != nil {
		return err
	}
	boldStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	summary := [][2]interface{}{
		{doc.Title, doc.CopyLabel},
		{"Numéro", doc.Meta.Number.Value},
		{"Date", doc.Meta.IssueDate.Value},
		{"Date de règlement", doc.Meta.DueDate.Value},
		{"Date de vente", doc.Meta.SaleDate.Value},
		{"Statut", doc.Meta.Status.Value},
		{"Émetteur", doc.Emitter.Name.Value},
		{"SIRET", doc.Emitter.SIRET.Value},
		{"TVA émetteur", doc.Emitter.VATNumber.Value},
		{"Client", doc.Client.Name.Value},
		{"Adresse client", strings.Join(doc.Client.BillingAddress.Value, ", ")},
		{doc.Totals.HTLabel, doc.Totals.HT.InexactFloat64()},
		{doc.Totals.VATLabel, doc.Totals.VAT.InexactFloat64()},
		{doc.Totals.TTCLabel, doc.Totals.TTC.InexactFloat64()},
	}
	firstAmountRow := len(summary) - 2
	for i, kv := range summary {
		row := i + 1
		if err := f.SetCellValue(SummarySheet, fmt.Sprintf("A%d", row), kv[0]); err != nil {
			return err
		}
		if err := f.SetCellValue(SummarySheet, fmt.Sprintf("B%d", row), kv[1]); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(SummarySheet, "A1", fmt.Sprintf("A%d", len(summary)), boldStyle); err != nil {
		return err
	}
	if err := f.SetCellStyle(SummarySheet, fmt.Sprintf("B%d", firstAmountRow), fmt.Sprintf("B%d", len(summary)), amountStyle); err != nil {
		return err
	}
	if err := f.SetColWidth(SummarySheet, "A", "B", 28); err != nil {
		return err
	}

	for i, c := range layout.Columns() {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(LinesSheet, cell, c.Title); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(LinesSheet, "A1", "D1", boldStyle); err != nil {
		return err
	}
	for i, row := range doc.Rows {
		r := i + 2
		values := []interface{}{
			row.Description,
			row.Quantity.InexactFloat64(),
			row.UnitPrice.InexactFloat64(),
			row.Amount.InexactFloat64(),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, r)
			if err := f.SetCellValue(LinesSheet, cell, v); err != nil {
				return err
			}
		}
	}
	if len(doc.Rows) > 0 {
		last := len(doc.Rows) + 1
		if err := f.SetCellStyle(LinesSheet, "C2", fmt.Sprintf("D%d", last), amountStyle); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(LinesSheet, "A", "A", 48); err != nil {
		return err
	}
	return f.SetColWidth(LinesSheet, "B", "D", 18)
}
