package render_test

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/rezonia/invoice-renderer/internal/document"
	"github.com/rezonia/invoice-renderer/internal/layout"
	"github.com/rezonia/invoice-renderer/internal/model"
	"github.com/rezonia/invoice-renderer/internal/render"
)

func sampleInvoice(rows int) *model.InvoiceRecord {
	lines := []model.LineItem{
		{Description: "Conseil", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(10)},
		{Description: "Support", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(20)},
	}
	for i := len(lines); i < rows; i++ {
		lines = append(lines, model.LineItem{
			Description: fmt.Sprintf("Prestation %d", i+1),
			Quantity:    decimal.NewFromInt(1),
			UnitPrice:   decimal.NewFromInt(5),
		})
	}
	return &model.InvoiceRecord{
		ID:        "inv-render",
		Number:    "FACT-2024-001",
		IssueDate: "2024-03-15",
		DueDate:   "2024-04-14",
		Status:    model.StatusUnpaid,
		Lines:     lines[:max(rows, 0)],
		Emitter: model.EmitterSnapshot{
			Name:      "Atelier Dupont",
			Street:    "12 rue des Lilas",
			City:      "Paris",
			SIRET:     "12345678900012",
			VATNumber: "FR12345678901",
		},
		Client: model.ClientSnapshot{Name: "Jean Martin", Address: "1 avenue Foch"},
	}
}

func buildDoc(inv *model.InvoiceRecord, variant document.Variant) *document.Document {
	return document.Build(inv, nil, nil,
		document.WithVariant(variant),
		document.WithFileChecker(func(string) bool { return false }),
	)
}

func renderPDF(t *testing.T, r *render.Renderer, doc *document.Document) ([]byte, int) {
	t.Helper()
	var buf bytes.Buffer
	pages, err := r.RenderPDF(&buf, doc)
	require.NoError(t, err)
	return buf.Bytes(), pages
}

func writePNG(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 30, B: 45, A: 255})
		}
	}

	path := filepath.Join(t.TempDir(), "logo.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func TestParseBackend(t *testing.T) {
	tests := []struct {
		in   string
		want render.Backend
	}{
		{"pdf", render.BackendBinary},
		{"PDF", render.BackendBinary},
		{".html", render.BackendFlow},
		{"xlsx", render.BackendSheet},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := render.ParseBackend(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := render.ParseBackend("docx")
	assert.Error(t, err)

	assert.Equal(t, "application/pdf", render.BackendBinary.ContentType())
	assert.Equal(t, ".xlsx", render.BackendSheet.Extension())
}

func TestRenderPDF_SinglePage(t *testing.T) {
	data, pages := renderPDF(t, render.New(), buildDoc(sampleInvoice(2), document.VariantClient))

	assert.Equal(t, 1, pages)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))

	report, err := render.InspectBytes(data)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Pages)
	assert.True(t, report.Valid, report.ValidationError)
	assert.Equal(t, int64(len(data)), report.Bytes)
}

func TestRenderPDF_PageCountMatchesLayout(t *testing.T) {
	first, _ := layout.Capacity(layout.A4())
	doc := buildDoc(sampleInvoice(first+1), document.VariantClient)

	data, pages := renderPDF(t, render.New(), doc)
	require.Equal(t, 2, pages)

	report, err := render.InspectBytes(data)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Pages)
}

func TestRenderPDF_Deterministic(t *testing.T) {
	r := render.New()
	a, _ := renderPDF(t, r, buildDoc(sampleInvoice(40), document.VariantCompany))
	b, _ := renderPDF(t, r, buildDoc(sampleInvoice(40), document.VariantCompany))

	assert.True(t, bytes.Equal(a, b), "identical input must give identical bytes")
}

func TestRenderPDF_DeterministicAcrossSeconds(t *testing.T) {
	r := render.New(render.WithCompression(false))
	a, _ := renderPDF(t, r, buildDoc(sampleInvoice(3), document.VariantClient))
	time.Sleep(1100 * time.Millisecond)
	b, _ := renderPDF(t, r, buildDoc(sampleInvoice(3), document.VariantClient))

	assert.Contains(t, string(a), "/ModDate (D:20240315")
	assert.True(t, bytes.Equal(a, b), "no wall-clock time may reach the output")
}

func TestRenderPDF_LongDescriptionWrapped(t *testing.T) {
	inv := sampleInvoice(2)
	inv.Lines[0].Description = "Developpement du module de facturation et integration avec la suite comptable existante"

	data, _ := renderPDF(t, render.New(render.WithCompression(false)), buildDoc(inv, document.VariantClient))

	assert.Contains(t, string(data), "(Developpement du module de facturation")
	assert.Contains(t, string(data), "existante)")
}

func TestRenderPDF_WatermarkPerPage(t *testing.T) {
	r := render.New(render.WithCompression(false))
	first, _ := layout.Capacity(layout.A4())
	inv := sampleInvoice(first + 1)

	company, pages := renderPDF(t, r, buildDoc(inv, document.VariantCompany))
	require.Equal(t, 2, pages)
	assert.Equal(t, pages, bytes.Count(company, []byte("(COPIE ENTREPRISE)")))

	client, _ := renderPDF(t, r, buildDoc(inv, document.VariantClient))
	assert.Equal(t, 0, bytes.Count(client, []byte("(COPIE ENTREPRISE)")))
}

func TestRenderPDF_VATExemptionNotice(t *testing.T) {
	inv := sampleInvoice(2)
	inv.Emitter.VATNumber = ""

	data, _ := renderPDF(t, render.New(render.WithCompression(false)), buildDoc(inv, document.VariantClient))

	// Emitter block and legal footer
	assert.GreaterOrEqual(t, bytes.Count(data, []byte("TVA non applicable")), 2)
}

func TestRenderPDF_MissingImageFails(t *testing.T) {
	inv := sampleInvoice(1)
	inv.LogoPath = filepath.Join(t.TempDir(), "missing.png")
	doc := document.Build(inv, nil, nil, document.WithFileChecker(func(string) bool { return true }))

	var buf bytes.Buffer
	_, err := render.New().RenderPDF(&buf, doc)
	require.Error(t, err)

	var renderErr *model.RenderError
	assert.True(t, errors.As(err, &renderErr))
}

func TestRenderPDF_WithLogo(t *testing.T) {
	logo := writePNG(t)
	inv := sampleInvoice(1)
	inv.LogoPath = logo

	doc := document.Build(inv, nil, nil)
	require.Equal(t, logo, doc.Logo.Path)

	data, pages := renderPDF(t, render.New(), doc)
	assert.Equal(t, 1, pages)
	assert.Contains(t, string(data), "/Subtype /Image")
}

func TestRenderFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "nested", "facture.pdf")

	res, err := render.New().RenderFile(path, buildDoc(sampleInvoice(3), document.VariantClient), render.BackendBinary)
	require.NoError(t, err)
	assert.Equal(t, path, res.Path)
	assert.Equal(t, 1, res.Pages)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, res.Bytes, info.Size())

	report, err := render.InspectFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Pages)
}

func TestRenderFile_RemovesPartialOutput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "facture.pdf")

	inv := sampleInvoice(1)
	inv.LogoPath = filepath.Join(dir, "missing.png")
	doc := document.Build(inv, nil, nil, document.WithFileChecker(func(string) bool { return true }))

	_, err := render.New().RenderFile(path, doc, render.BackendBinary)
	require.Error(t, err)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "partial file must be removed")
}

func TestRenderFile_BadDirectory(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	_, err := render.New().RenderFile(filepath.Join(blocker, "facture.pdf"), buildDoc(sampleInvoice(1), document.VariantClient), render.BackendBinary)
	require.Error(t, err)

	var renderErr *model.RenderError
	require.True(t, errors.As(err, &renderErr))
	assert.Equal(t, "mkdir", renderErr.Op)
}

func TestRenderHTML(t *testing.T) {
	inv := sampleInvoice(2)
	inv.Lines[0].Description = "<script>alert(1)</script>"
	doc := buildDoc(inv, document.VariantClient)

	var buf bytes.Buffer
	require.NoError(t, render.New().RenderHTML(&buf, doc))
	html := buf.String()

	assert.Contains(t, html, "@page { size: A4; margin: 20mm 15mm; }")
	assert.Contains(t, html, "FACTURE N° FACT-2024-001")
	assert.Contains(t, html, "40,00 €")
	assert.Contains(t, html, "8,00 €")
	assert.Contains(t, html, "48,00 €")
	assert.Contains(t, html, "VOTRE LOGO")
	assert.NotContains(t, html, "<script>alert(1)</script>")
	assert.NotContains(t, html, `class="watermark"`)

	// Same section order as the paginated document
	order := []string{"Exemplaire client", "Émetteur", "Client", "FACTURE N°", "Désignation", "Total TTC", "Modalité : règlement à réception"}
	last := -1
	for _, marker := range order {
		idx := strings.Index(html, marker)
		require.GreaterOrEqual(t, idx, 0, marker)
		assert.Greater(t, idx, last, "%q out of order", marker)
		last = idx
	}
}

func TestRenderHTML_CompanyWatermark(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, render.New().RenderHTML(&buf, buildDoc(sampleInvoice(2), document.VariantCompany)))

	assert.Contains(t, buf.String(), `<div class="watermark">COPIE ENTREPRISE</div>`)
}

func TestRenderXLSX(t *testing.T) {
	doc := buildDoc(sampleInvoice(3), document.VariantClient)

	var buf bytes.Buffer
	res, err := render.New().Render(&buf, doc, render.BackendSheet)
	require.NoError(t, err)
	assert.Equal(t, "xlsx", res.Format)
	assert.Equal(t, int64(buf.Len()), res.Bytes)

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	number, err := f.GetCellValue(render.SummarySheet, "B2")
	require.NoError(t, err)
	assert.Equal(t, "FACT-2024-001", number)

	label, err := f.GetCellValue(render.SummarySheet, "A14")
	require.NoError(t, err)
	assert.Equal(t, "Total TTC", label)

	rows, err := f.GetRows(render.LinesSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Désignation", rows[0][0])
	assert.Equal(t, "Conseil", rows[1][0])
}

func TestRender_Result(t *testing.T) {
	inv := sampleInvoice(2)
	inv.Emitter.Phone = ""
	doc := buildDoc(inv, document.VariantClient)

	var buf bytes.Buffer
	res, err := render.New().Render(&buf, doc, render.BackendBinary)
	require.NoError(t, err)

	assert.Equal(t, "pdf", res.Format)
	assert.Equal(t, 1, res.Pages)
	assert.Equal(t, int64(buf.Len()), res.Bytes)
	assert.Equal(t, doc.Warnings, res.Warnings)
}

func BenchmarkRenderPDF(b *testing.B) {
	doc := buildDoc(sampleInvoice(100), document.VariantCompany)
	r := render.New()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var buf bytes.Buffer
		if _, err := r.RenderPDF(&buf, doc); err != nil {
			b.Fatal(err)
		}
	}
}
