package layout

import "fmt"

// MM is the number of PDF points in one millimetre
const MM = 2.83465

// Fixed vertical metrics, in points
const (
	RowHeight      = 18.0
	RowLineH       = 11.0
	HeaderHeight   = 20.0
	BannerHeight   = 25 * MM
	BlockLabelH    = 12.0
	BlockLineH     = 11.0
	BlockMinLines  = 8
	BlockPadding   = 6.0
	MetaHeight     = 20.0
	SectionGap     = 12.0
	TotalsLineH    = 18.0
	TotalsWidth    = 200.0
	FooterFontSize = 7.0
	FooterLineH    = 9.0
	FooterRows     = 4
)

// Geometry describes the page in millimetres
type Geometry struct {
	PageWidthMM      float64
	PageHeightMM     float64
	MarginTopMM      float64
	MarginBottomMM   float64
	MarginLeftMM     float64
	MarginRightMM    float64
	FooterReservedMM float64
}

// A4 returns the default geometry: A4 portrait, 20 mm margins, 20 mm footer band
func A4() Geometry {
	return Geometry{
		PageWidthMM:      210,
		PageHeightMM:     297,
		MarginTopMM:      20,
		MarginBottomMM:   20,
		MarginLeftMM:     20,
		MarginRightMM:    20,
		FooterReservedMM: 20,
	}
}

// WithMargins returns a copy with all four margins set to mm
func (g Geometry) WithMargins(mm float64) Geometry {
	g.MarginTopMM, g.MarginBottomMM, g.MarginLeftMM, g.MarginRightMM = mm, mm, mm, mm
	return g
}

// WithFooter returns a copy with the footer band height set to mm
func (g Geometry) WithFooter(mm float64) Geometry {
	g.FooterReservedMM = mm
	return g
}

func (g Geometry) PageWidth() float64    { return g.PageWidthMM * MM }
func (g Geometry) PageHeight() float64   { return g.PageHeightMM * MM }
func (g Geometry) Left() float64         { return g.MarginLeftMM * MM }
func (g Geometry) Right() float64        { return g.PageWidth() - g.MarginRightMM*MM }
func (g Geometry) Top() float64          { return g.MarginTopMM * MM }
func (g Geometry) ContentWidth() float64 { return g.Right() - g.Left() }

// ContentBottom is the lowest y any table row or totals box may reach
func (g Geometry) ContentBottom() float64 {
	return g.PageHeight() - g.MarginBottomMM*MM - g.FooterReservedMM*MM
}

// FooterBottom is the absolute bottom margin line the footer band is anchored to
func (g Geometry) FooterBottom() float64 {
	return g.PageHeight() - g.MarginBottomMM*MM
}

// TableTop is where the table header starts on the first page when the
// party boxes keep their default height
func (g Geometry) TableTop() float64 {
	return g.Top() + BannerHeight + SectionGap + BlockHeight() + SectionGap + MetaHeight + SectionGap
}

// BlockHeight is the default height of the emitter and client boxes, label included
func BlockHeight() float64 {
	return blockHeight(BlockMinLines)
}

func blockHeight(lines int) float64 {
	return BlockLabelH + 2*BlockPadding + float64(lines)*BlockLineH
}

// TotalsHeight is the height of the totals box
func TotalsHeight() float64 {
	return 3*TotalsLineH + 2*BlockPadding
}

// Validate checks the geometry leaves room for the fixed blocks
func (g Geometry) Validate() error {
	if g.PageWidthMM <= 0 || g.PageHeightMM <= 0 {
		return fmt.Errorf("page size must be positive (got %.1fx%.1f mm)", g.PageWidthMM, g.PageHeightMM)
	}
	if g.MarginTopMM < 0 || g.MarginBottomMM < 0 || g.MarginLeftMM < 0 || g.MarginRightMM < 0 || g.FooterReservedMM < 0 {
		return fmt.Errorf("margins must not be negative")
	}
	if g.ContentWidth() < TotalsWidth {
		return fmt.Errorf("content width %.1fpt is narrower than the totals box", g.ContentWidth())
	}
	if g.FooterReservedMM*MM < FooterRows*FooterLineH+4 {
		return fmt.Errorf("footer band %.1f mm cannot hold %d lines", g.FooterReservedMM, FooterRows)
	}
	if g.TableTop()+HeaderHeight > g.ContentBottom() {
		return fmt.Errorf("first page header does not fit above %.1fpt", g.ContentBottom())
	}
	if _, following := Capacity(g); following < 1 {
		return fmt.Errorf("following pages cannot hold a single row")
	}
	if g.Top()+TotalsHeight() > g.ContentBottom() {
		return fmt.Errorf("totals box does not fit on a page")
	}
	return nil
}

// Capacity reports how many single-line rows fit on the first page and on
// each following page, with party boxes at their default height
func Capacity(g Geometry) (first, following int) {
	return rowsFitting(g.TableTop()+HeaderHeight, g.ContentBottom()),
		rowsFitting(g.Top()+HeaderHeight, g.ContentBottom())
}

// rowsFitting accumulates y the same way the engine does
func rowsFitting(y, bottom float64) int {
	n := 0
	for !overflows(y, RowHeight, bottom) {
		n++
		y += RowHeight
	}
	return n
}

func overflows(y, h, bottom float64) bool {
	return y+h > bottom
}
