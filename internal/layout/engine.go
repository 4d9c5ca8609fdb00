package layout

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/rezonia/invoice-renderer/internal/document"
)

// PageCursor is the current page index and vertical offset in points
type PageCursor struct {
	Page int
	Y    float64
}

// PageHook draws decorations each time a page opens, before any content
type PageHook func(w *Writer, g Geometry)

// Option configures a layout run
type Option func(*engine)

// WithPageHook adds a hook run after the built-in watermark and footer hooks
func WithPageHook(h PageHook) Option {
	return func(e *engine) {
		if h != nil {
			e.hooks = append(e.hooks, h)
		}
	}
}

// WithLogger sets the logger used for page break diagnostics
func WithLogger(l *zap.Logger) Option {
	return func(e *engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithMeasure sets the text width function used to wrap descriptions and
// party lines. Backends pass their own font metrics.
func WithMeasure(m Measure) Option {
	return func(e *engine) {
		if m != nil {
			e.measure = m
		}
	}
}

// Column is a table column: its header title, share of the content width and alignment
type Column struct {
	Title string
	Frac  float64
	Align Align
}

var columns = []Column{
	{"Désignation", 0.46, AlignLeft},
	{"Quantité", 0.14, AlignCenter},
	{"Prix unitaire HT", 0.20, AlignRight},
	{"Total HT", 0.20, AlignRight},
}

// Columns returns the invoice table columns in display order
func Columns() []Column {
	return append([]Column(nil), columns...)
}

const cellPadding = 4.0

var (
	titleFont  = Font{Bold: true, Size: 22}
	labelFont  = Font{Bold: true, Size: 8}
	bodyFont   = Font{Size: 9}
	boldFont   = Font{Bold: true, Size: 9}
	metaFont   = Font{Size: 10}
	headerFont = Font{Bold: true, Size: 9}
	footerFont = Font{Size: FooterFontSize}
)

type engine struct {
	doc    *document.Document
	g      Geometry
	w      *Writer
	m      machine
	cursor PageCursor
	hooks  []PageHook
	log    *zap.Logger

	measure  Measure
	blockH   float64
	tableTop float64
}

// Layout paginates doc into a recorded Plan
func Layout(doc *document.Document, g Geometry, opts ...Option) (*Plan, error) {
	plan := &Plan{}
	if _, err := LayoutTo(doc, g, plan, opts...); err != nil {
		return nil, err
	}
	return plan, nil
}

// LayoutTo paginates doc, streaming ops to sink, and returns the page count.
//
// The first page carries the title banner, the emitter and client boxes and
// the meta line above the table; following pages repeat the table header at
// the top margin. Descriptions wrap inside their column and a row is as tall
// as its longest cell; the party boxes grow to hold every line. Rows break to
// a new page when they would cross ContentBottom. The totals box sits at the bottom right of the last page's
// content area. Watermark and footer hooks run on every page.
func LayoutTo(doc *document.Document, g Geometry, sink Sink, opts ...Option) (int, error) {
	if doc == nil {
		return 0, errors.New("layout: nil document")
	}
	if err := g.Validate(); err != nil {
		return 0, fmt.Errorf("layout: invalid geometry: %w", err)
	}

	e := &engine{
		doc:    doc,
		g:      g,
		w:      &Writer{sink: sink, page: -1},
		cursor: PageCursor{Page: -1},
		log:    zap.NewNop(),

		measure: approxWidth,
	}
	if doc.HasWatermark() {
		e.hooks = append(e.hooks, WatermarkHook(doc.Watermark))
	}
	e.hooks = append(e.hooks, FooterHook(doc.LegalFooter))
	for _, opt := range opts {
		opt(e)
	}

	if err := e.run(); err != nil {
		return e.cursor.Page + 1, err
	}
	return e.cursor.Page + 1, nil
}

func (e *engine) run() error {
	if err := e.openPage(); err != nil {
		return err
	}

	bottom := e.g.ContentBottom()

	e.drawBanner()
	e.drawParties()
	e.drawMeta()

	if e.tableTop+HeaderHeight > bottom {
		return fmt.Errorf("layout: party boxes leave no room for the table (header at %.1fpt)", e.tableTop)
	}
	e.cursor.Y = e.tableTop
	e.drawTableHeader()

	for i, row := range e.doc.Rows {
		desc := e.descriptionLines(row)
		height := rowHeight(len(desc))
		if overflows(e.cursor.Y, height, bottom) {
			e.log.Debug("page break",
				zap.Int("page", e.cursor.Page),
				zap.Int("row", i),
				zap.Float64("y", e.cursor.Y),
			)
			if err := e.breakPage(true); err != nil {
				return err
			}
		}
		if err := e.m.to(StateEmittingRow); err != nil {
			return err
		}
		e.drawRow(row, desc, height)
		e.cursor.Y += height

		if err := e.w.Err(); err != nil {
			return err
		}
	}

	totalsTop := bottom - TotalsHeight()
	if e.cursor.Y+SectionGap > totalsTop {
		if err := e.breakPage(false); err != nil {
			return err
		}
	}
	e.drawTotals(totalsTop)

	if err := e.closePage(); err != nil {
		return err
	}
	return e.w.Err()
}

func (e *engine) openPage() error {
	if err := e.m.to(StatePageOpen); err != nil {
		return err
	}
	e.cursor.Page++
	e.cursor.Y = e.g.Top()
	e.w.page = e.cursor.Page
	e.w.emit(Op{Kind: OpPageOpen, W: e.g.PageWidth(), H: e.g.PageHeight()})

	for _, h := range e.hooks {
		h(e.w, e.g)
	}
	return e.w.Err()
}

func (e *engine) closePage() error {
	if err := e.m.to(StatePageClosed); err != nil {
		return err
	}
	e.w.emit(Op{Kind: OpPageClose})
	return e.w.Err()
}

// breakPage closes the current page and opens the next, optionally redrawing the table header
func (e *engine) breakPage(withHeader bool) error {
	if err := e.m.to(StatePageBreakNeeded); err != nil {
		return err
	}
	if err := e.closePage(); err != nil {
		return err
	}
	if err := e.openPage(); err != nil {
		return err
	}
	if withHeader {
		e.drawTableHeader()
	}
	return e.w.Err()
}

func (e *engine) drawBanner() {
	g, w, doc := e.g, e.w, e.doc
	textW := g.ContentWidth() - BannerHeight - SectionGap

	w.Text("title", g.Left(), g.Top(), textW, 26, doc.Title, titleFont, AlignLeft, DarkGrey)
	w.Text("copy-label", g.Left(), g.Top()+28, textW, 12, doc.CopyLabel, Font{Italic: true, Size: 9}, AlignLeft, MidGrey)

	x := g.Right() - BannerHeight
	if doc.Logo.Path != "" {
		w.Image("logo", doc.Logo.Path, x, g.Top(), BannerHeight, BannerHeight)
		return
	}
	w.Box("logo", x, g.Top(), BannerHeight, BannerHeight, MidGrey)
	w.Text("logo", x, g.Top()+BannerHeight/2-6, BannerHeight, 12, doc.Logo.Placeholder, Font{Size: 8}, AlignCenter, MidGrey)
}

func (e *engine) drawParties() {
	g := e.g
	y := g.Top() + BannerHeight + SectionGap
	half := (g.ContentWidth() - 10) / 2
	textW := half - 2*BlockPadding

	emitter := e.wrapBlock(emitterLines(e.doc.Emitter), textW)
	client := e.wrapBlock(clientLines(e.doc.Client), textW)

	n := max(len(emitter), len(client), BlockMinLines)
	if n > BlockMinLines {
		e.log.Debug("party boxes grown",
			zap.Int("lines", n),
			zap.Int("default_lines", BlockMinLines),
		)
	}
	e.blockH = blockHeight(n)
	e.tableTop = g.Top() + BannerHeight + SectionGap + e.blockH + SectionGap + MetaHeight + SectionGap

	e.drawBlock("emitter", "Émetteur", g.Left(), y, half, emitter)
	e.drawBlock("client", "Client", g.Left()+half+10, y, half, client)
}

type blockLine struct {
	text string
	bold bool
}

func (l blockLine) font() Font {
	if l.bold {
		return boldFont
	}
	return bodyFont
}

// wrapBlock splits every party line to the box's text width
func (e *engine) wrapBlock(lines []blockLine, width float64) []blockLine {
	out := make([]blockLine, 0, len(lines))
	for _, l := range lines {
		for _, part := range wrap(l.text, width, l.font(), e.measure) {
			out = append(out, blockLine{text: part, bold: l.bold})
		}
	}
	return out
}

func (e *engine) drawBlock(tag, label string, x, y, width float64, lines []blockLine) {
	w := e.w
	w.Text(tag+".label", x, y, width, BlockLabelH, label, labelFont, AlignLeft, MidGrey)
	w.Box(tag, x, y+BlockLabelH, width, e.blockH-BlockLabelH, MidGrey)

	textW := width - 2*BlockPadding
	for i, l := range lines {
		ly := y + BlockLabelH + BlockPadding + float64(i)*BlockLineH
		w.Text(tag, x+BlockPadding, ly, textW, BlockLineH, l.text, l.font(), AlignLeft, Black)
	}
}

func emitterLines(em document.Emitter) []blockLine {
	lines := []blockLine{{text: em.Name.Value, bold: true}}
	for _, a := range em.Address.Value {
		lines = append(lines, blockLine{text: a})
	}

	siret := "SIRET : " + em.SIRET.Value
	if em.RCS != "" {
		siret += " – " + em.RCS
	}
	lines = append(lines, blockLine{text: siret}, blockLine{text: "APE : " + em.APE.Value})

	if em.VATExempt() {
		lines = append(lines, blockLine{text: em.VATNumber.Value})
	} else {
		lines = append(lines, blockLine{text: "TVA : " + em.VATNumber.Value})
	}

	return append(lines,
		blockLine{text: "Email : " + em.Email.Value},
		blockLine{text: "Tél : " + em.Phone.Value},
	)
}

func clientLines(c document.Client) []blockLine {
	lines := []blockLine{{text: c.Name.Value, bold: true}}
	if c.Contact != "" {
		lines = append(lines, blockLine{text: c.Contact})
	}
	for _, a := range c.BillingAddress.Value {
		lines = append(lines, blockLine{text: a})
	}
	if c.VATNumber != "" {
		lines = append(lines, blockLine{text: "TVA : " + c.VATNumber})
	}
	for i, a := range c.DeliveryAddress {
		if i == 0 {
			a = "Livraison : " + a
		}
		lines = append(lines, blockLine{text: a})
	}
	return lines
}

func (e *engine) drawMeta() {
	g, w, m := e.g, e.w, e.doc.Meta
	y := g.Top() + BannerHeight + SectionGap + e.blockH + SectionGap

	w.Box("meta.number", g.Left(), y, 180, MetaHeight, DarkGrey)
	w.Text("meta", g.Left()+cellPadding, y, 180-2*cellPadding, MetaHeight, "FACTURE N° "+m.Number.Value, Font{Bold: true, Size: 10}, AlignLeft, Black)
	w.Text("meta", g.Left()+190, y, 140, MetaHeight, "Date : "+m.IssueDate.Value, metaFont, AlignLeft, Black)
	w.Text("meta", g.Right()-140, y, 140, MetaHeight, "Statut : "+m.Status.Value, metaFont, AlignRight, Black)
}

func (e *engine) drawTableHeader() {
	g, w := e.g, e.w
	y := e.cursor.Y

	w.FillRect("table.header", g.Left(), y, g.ContentWidth(), HeaderHeight, DarkGrey)
	x := g.Left()
	for _, c := range columns {
		cw := g.ContentWidth() * c.Frac
		w.Text("table.header", x+cellPadding, y, cw-2*cellPadding, HeaderHeight, c.Title, headerFont, c.Align, White)
		x += cw
	}
	e.cursor.Y += HeaderHeight
}

// descriptionLines wraps the designation to the first column
func (e *engine) descriptionLines(r document.Row) []string {
	width := e.g.ContentWidth()*columns[0].Frac - 2*cellPadding
	return wrap(r.Description, width, bodyFont, e.measure)
}

// rowHeight is RowHeight for one line, growing by RowLineH per extra line
func rowHeight(lines int) float64 {
	if lines <= 1 {
		return RowHeight
	}
	return RowHeight + float64(lines-1)*RowLineH
}

func (e *engine) drawRow(r document.Row, desc []string, height float64) {
	g, w := e.g, e.w
	y := e.cursor.Y

	if r.Shaded() {
		w.FillRect("row.shade", g.Left(), y, g.ContentWidth(), height, LightGrey)
	}

	x := g.Left()
	for i, c := range columns {
		cw := g.ContentWidth() * c.Frac
		textW := cw - 2*cellPadding
		switch {
		case i > 0:
			cells := [...]string{r.QuantityText, r.UnitPriceText, r.AmountText}
			w.Text("row", x+cellPadding, y, textW, RowHeight, cells[i-1], bodyFont, c.Align, Black)
		case len(desc) == 1:
			w.Text("row", x+cellPadding, y, textW, RowHeight, desc[0], bodyFont, c.Align, Black)
		default:
			pad := (RowHeight - RowLineH) / 2
			for j, l := range desc {
				w.Text("row.desc", x+cellPadding, y+pad+float64(j)*RowLineH, textW, RowLineH, l, bodyFont, c.Align, Black)
			}
		}
		x += cw
	}
	w.Line("row.rule", g.Left(), y+height, g.Right(), y+height, LightGrey, 0.3)
}

func (e *engine) drawTotals(top float64) {
	g, w, t := e.g, e.w, e.doc.Totals
	x := g.Right() - TotalsWidth

	w.Box("totals", x, top, TotalsWidth, TotalsHeight(), DarkGrey)

	rows := []struct {
		label, value string
		strong       bool
	}{
		{t.HTLabel, t.HTText, false},
		{t.VATLabel, t.VATText, false},
		{t.TTCLabel, t.TTCText, true},
	}
	for i, r := range rows {
		y := top + BlockPadding + float64(i)*TotalsLineH
		font := Font{Size: 10}
		if r.strong {
			font.Bold = true
			w.FillRect("totals.ttc", x+1, y, TotalsWidth-2, TotalsLineH, LightGrey)
		}
		w.Text("totals", x+6, y, 104, TotalsLineH, r.label, font, AlignLeft, Black)
		w.Text("totals", x+110, y, TotalsWidth-116, TotalsLineH, r.value, font, AlignRight, Black)
	}
}

// WatermarkHook draws text diagonally across the page centre at 30% opacity
func WatermarkHook(text string) PageHook {
	return func(w *Writer, g Geometry) {
		w.Watermark("watermark", text, g.PageWidth()/2, g.PageHeight()/2,
			Font{Bold: true, Size: 60}, Crimson, 45, 0.3)
	}
}

// FooterHook draws the legal footer band between ContentBottom and the bottom margin
func FooterHook(lines []string) PageHook {
	return func(w *Writer, g Geometry) {
		top := g.ContentBottom() + 4
		w.Line("footer.rule", g.Left(), top, g.Right(), top, MidGrey, 0.5)

		colW := g.ContentWidth() / 2
		for i, l := range lines {
			if i >= 2*FooterRows {
				break
			}
			x := g.Left() + float64(i/FooterRows)*colW
			y := top + 4 + float64(i%FooterRows)*FooterLineH
			w.Text("footer", x, y, colW-cellPadding, FooterLineH, fit(l, colW-cellPadding, FooterFontSize), footerFont, AlignLeft, DarkGrey)
		}

		w.Text("footer.page", g.Left(), g.FooterBottom()-FooterLineH, g.ContentWidth(), FooterLineH,
			fmt.Sprintf("Page %d", w.Page()+1), footerFont, AlignRight, MidGrey)
	}
}

// fit truncates text to the approximate width of a Helvetica run (half an em per glyph)
func fit(text string, width, size float64) string {
	limit := int(width / (size * 0.5))
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	if limit <= 3 {
		return string([]rune(text)[:limit])
	}
	return string([]rune(text)[:limit-3]) + "..."
}
