package render

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/rezonia/invoice-renderer/internal/document"
	"github.com/rezonia/invoice-renderer/internal/layout"
	"github.com/rezonia/invoice-renderer/internal/model"
)

const fontFamily = "Helvetica"

// fallbackCreationDate pins the PDF metadata when the issue date is unparsable
var fallbackCreationDate = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// RenderPDF lays doc out and writes the PDF to w. It returns the page count.
//
// Output is byte-identical for identical input: the creation and
// modification dates are the invoice issue date and the catalog is sorted.
func (r *Renderer) RenderPDF(w io.Writer, doc *document.Document) (int, error) {
	pdf := r.newPDF(doc)
	sink := &pdfSink{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}

	pages, err := layout.LayoutTo(doc, r.geom, sink,
		layout.WithLogger(r.log),
		layout.WithMeasure(sink.width),
	)
	if err != nil {
		return pages, model.NewRenderError("layout", "", err)
	}

	if err := pdf.Output(w); err != nil {
		return pages, model.NewRenderError("write", "", err)
	}
	return pages, nil
}

func (r *Renderer) newPDF(doc *document.Document) *gofpdf.Fpdf {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: r.geom.PageWidth(), Ht: r.geom.PageHeight()},
	})

	// Pages come from the layout plan only
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(r.geom.Left(), r.geom.Top(), r.geom.MarginRightMM*layout.MM)
	pdf.SetCompression(r.compress)
	pdf.SetCatalogSort(true)

	created := doc.IssuedAt
	if created.IsZero() {
		created = fallbackCreationDate
	}
	pdf.SetCreationDate(created)
	pdf.SetModificationDate(created)

	pdf.SetTitle(fmt.Sprintf("%s %s", doc.Title, doc.Meta.Number.Value), true)
	pdf.SetAuthor(doc.Emitter.Name.Value, true)
	pdf.SetSubject(doc.CopyLabel, true)
	pdf.SetCreator("invoice-renderer", false)
	pdf.SetFont(fontFamily, "", 10)
	return pdf
}

// pdfSink replays layout ops onto a gofpdf document
type pdfSink struct {
	pdf *gofpdf.Fpdf
	tr  func(string) string
}

// width measures text with the core font metrics gofpdf writes with
func (s *pdfSink) width(text string, font layout.Font) float64 {
	s.pdf.SetFont(fontFamily, font.Style(), font.Size)
	return s.pdf.GetStringWidth(s.tr(text))
}

func (s *pdfSink) Emit(op layout.Op) error {
	pdf := s.pdf

	switch op.Kind {
	case layout.OpPageOpen:
		pdf.AddPage()

	case layout.OpPageClose:
		// gofpdf closes a page when the next one is added or on output

	case layout.OpText:
		pdf.SetFont(fontFamily, op.Font.Style(), op.Font.Size)
		pdf.SetTextColor(op.Color.R, op.Color.G, op.Color.B)
		pdf.SetXY(op.X, op.Y)
		pdf.CellFormat(op.W, op.H, s.tr(op.Text), "", 0, string(op.Align)+"M", false, 0, "")

	case layout.OpRect:
		style := ""
		if op.Filled {
			pdf.SetFillColor(op.Fill.R, op.Fill.G, op.Fill.B)
			style += "F"
		}
		if op.Stroked {
			pdf.SetDrawColor(op.Color.R, op.Color.G, op.Color.B)
			pdf.SetLineWidth(op.LineWidth)
			style += "D"
		}
		if style != "" {
			pdf.Rect(op.X, op.Y, op.W, op.H, style)
		}

	case layout.OpLine:
		pdf.SetDrawColor(op.Color.R, op.Color.G, op.Color.B)
		pdf.SetLineWidth(op.LineWidth)
		pdf.Line(op.X, op.Y, op.X2, op.Y2)

	case layout.OpImage:
		pdf.ImageOptions(op.Path, op.X, op.Y, op.W, op.H, false, gofpdf.ImageOptions{ReadDpi: true}, 0, "")

	case layout.OpWatermark:
		pdf.SetFont(fontFamily, op.Font.Style(), op.Font.Size)
		pdf.SetTextColor(op.Color.R, op.Color.G, op.Color.B)
		text := s.tr(op.Text)
		width := pdf.GetStringWidth(text)

		pdf.TransformBegin()
		pdf.TransformRotate(op.Angle, op.X, op.Y)
		pdf.SetAlpha(op.Opacity, "Normal")
		pdf.Text(op.X-width/2, op.Y+op.Font.Size*0.35, text)
		pdf.SetAlpha(1, "Normal")
		pdf.TransformEnd()

	default:
		return fmt.Errorf("unknown op kind %s", op.Kind)
	}

	return pdf.Error()
}

// RenderPDF renders doc with the default A4 renderer
func RenderPDF(w io.Writer, doc *document.Document) (int, error) {
	return New().RenderPDF(w, doc)
}

// RenderPDFFile renders doc with the default A4 renderer to path
func RenderPDFFile(path string, doc *document.Document) (*Result, error) {
	return New().RenderPDFFile(path, doc)
}
