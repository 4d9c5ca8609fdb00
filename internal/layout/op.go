package layout

// OpKind identifies a drawing instruction
type OpKind int

const (
	OpPageOpen OpKind = iota
	OpPageClose
	OpText
	OpRect
	OpLine
	OpImage
	OpWatermark
)

func (k OpKind) String() string {
	switch k {
	case OpPageOpen:
		return "page-open"
	case OpPageClose:
		return "page-close"
	case OpText:
		return "text"
	case OpRect:
		return "rect"
	case OpLine:
		return "line"
	case OpImage:
		return "image"
	case OpWatermark:
		return "watermark"
	default:
		return "unknown"
	}
}

// Align is horizontal text alignment within a cell
type Align string

const (
	AlignLeft   Align = "L"
	AlignCenter Align = "C"
	AlignRight  Align = "R"
)

// Color is an RGB triple
type Color struct {
	R, G, B int
}

var (
	Black     = Color{0, 0, 0}
	White     = Color{255, 255, 255}
	DarkGrey  = Color{64, 64, 64}
	MidGrey   = Color{150, 150, 150}
	LightGrey = Color{240, 240, 240}
	Crimson   = Color{200, 30, 45}
)

// Font is a Helvetica variant
type Font struct {
	Bold   bool
	Italic bool
	Size   float64
}

// Style returns the gofpdf style string ("", "B", "I", "BI")
func (f Font) Style() string {
	s := ""
	if f.Bold {
		s += "B"
	}
	if f.Italic {
		s += "I"
	}
	return s
}

// Op is one drawing instruction in page coordinates (points, origin top-left).
//
// Text ops draw Text inside the X,Y,W,H cell. Rect ops fill and/or stroke
// the box. Line ops go from X,Y to X2,Y2. Image ops place Path in the box.
// Watermark ops draw Text rotated by Angle around X,Y at Opacity.
type Op struct {
	Kind OpKind
	Page int
	Tag  string

	X, Y, W, H float64
	X2, Y2     float64

	Text  string
	Font  Font
	Align Align
	Color Color

	Fill      Color
	Filled    bool
	Stroked   bool
	LineWidth float64

	Path    string
	Angle   float64
	Opacity float64
}

// Sink receives ops in order
type Sink interface {
	Emit(op Op) error
}

// SinkFunc adapts a function to Sink
type SinkFunc func(op Op) error

func (f SinkFunc) Emit(op Op) error {
	return f(op)
}

// Plan is a recorded, replayable sequence of ops
type Plan struct {
	Ops   []Op
	Pages int
}

// Emit appends op to the plan
func (p *Plan) Emit(op Op) error {
	if op.Kind == OpPageOpen {
		p.Pages++
	}
	p.Ops = append(p.Ops, op)
	return nil
}

// Replay sends every op to sink, stopping at the first error
func (p *Plan) Replay(sink Sink) error {
	for _, op := range p.Ops {
		if err := sink.Emit(op); err != nil {
			return err
		}
	}
	return nil
}

// Page returns the ops drawn on page i
func (p *Plan) Page(i int) []Op {
	var out []Op
	for _, op := range p.Ops {
		if op.Page == i {
			out = append(out, op)
		}
	}
	return out
}

// Count returns the number of ops of the given kind
func (p *Plan) Count(kind OpKind) int {
	n := 0
	for _, op := range p.Ops {
		if op.Kind == kind {
			n++
		}
	}
	return n
}

// Texts returns the text of every text op with tag on page i
func (p *Plan) Texts(page int, tag string) []string {
	var out []string
	for _, op := range p.Ops {
		if op.Page == page && op.Kind == OpText && op.Tag == tag {
			out = append(out, op.Text)
		}
	}
	return out
}

// Writer emits ops for the current page. The first sink error is kept and
// every later call becomes a no-op.
type Writer struct {
	sink Sink
	page int
	err  error
}

// Page returns the index of the page being drawn
func (w *Writer) Page() int {
	return w.page
}

// Err returns the first sink error
func (w *Writer) Err() error {
	return w.err
}

func (w *Writer) emit(op Op) {
	if w.err != nil {
		return
	}
	op.Page = w.page
	w.err = w.sink.Emit(op)
}

// Text draws a single-line cell
func (w *Writer) Text(tag string, x, y, width, height float64, text string, font Font, align Align, color Color) {
	w.emit(Op{Kind: OpText, Tag: tag, X: x, Y: y, W: width, H: height, Text: text, Font: font, Align: align, Color: color})
}

// Box strokes a rectangle
func (w *Writer) Box(tag string, x, y, width, height float64, stroke Color) {
	w.emit(Op{Kind: OpRect, Tag: tag, X: x, Y: y, W: width, H: height, Color: stroke, Stroked: true, LineWidth: 0.5})
}

// FillRect fills a rectangle without border
func (w *Writer) FillRect(tag string, x, y, width, height float64, fill Color) {
	w.emit(Op{Kind: OpRect, Tag: tag, X: x, Y: y, W: width, H: height, Fill: fill, Filled: true})
}

// Line draws a straight rule
func (w *Writer) Line(tag string, x1, y1, x2, y2 float64, color Color, width float64) {
	w.emit(Op{Kind: OpLine, Tag: tag, X: x1, Y: y1, X2: x2, Y2: y2, Color: color, LineWidth: width})
}

// Image places an image file in the box
func (w *Writer) Image(tag, path string, x, y, width, height float64) {
	w.emit(Op{Kind: OpImage, Tag: tag, Path: path, X: x, Y: y, W: width, H: height})
}

// Watermark draws rotated translucent text centred on x,y
func (w *Writer) Watermark(tag, text string, x, y float64, font Font, color Color, angle, opacity float64) {
	w.emit(Op{Kind: OpWatermark, Tag: tag, Text: text, X: x, Y: y, Font: font, Color: color, Angle: angle, Opacity: opacity})
}
