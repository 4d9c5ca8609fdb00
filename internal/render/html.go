package render

import (
	"embed"
	"html/template"
	"io"

	"github.com/rezonia/invoice-renderer/internal/document"
	"github.com/rezonia/invoice-renderer/internal/layout"
	"github.com/rezonia/invoice-renderer/internal/model"
)

//go:embed templates/invoice.html.tmpl
var templateFS embed.FS

var invoiceTemplate = template.Must(template.ParseFS(templateFS, "templates/invoice.html.tmpl"))

type htmlColumn struct {
	Title string
	Class string
}

type htmlView struct {
	*document.Document
	Columns []htmlColumn
}

func htmlColumns() []htmlColumn {
	cols := layout.Columns()
	out := make([]htmlColumn, len(cols))
	for i, c := range cols {
		out[i] = htmlColumn{Title: c.Title}
		switch c.Align {
		case layout.AlignCenter:
			out[i].Class = "qty"
		case layout.AlignRight:
			out[i].Class = "price"
		}
	}
	return out
}

// RenderHTML writes doc as a single HTML page. Pagination is left to the
// browser's print engine; the watermark is fixed so it repeats on every
// printed page.
func (r *Renderer) RenderHTML(w io.Writer, doc *document.Document) error {
	view := htmlView{Document: doc, Columns: htmlColumns()}
	if err := invoiceTemplate.Execute(w, view); err != nil {
		return model.NewRenderError("html", "", err)
	}
	return nil
}
