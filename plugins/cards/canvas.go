package cards

import (
	"bytes"
	"image"
	"image/png"
	"time"

	"github.com/fogleman/gg"
)

// Layout is the fixed geometry of a card: a header block followed by n
// uniform rows. Canvas height is derived from the item count rather than
// fit to content, so card sizes stay predictable.
type Layout struct {
	Width   int
	HeaderH int
	RowH    int
}

// Height is the canvas height for n rows.
func (l Layout) Height(n int) int {
	return l.HeaderH + n*l.RowH
}

// RowTop is the y offset of row i.
func (l Layout) RowTop(i int) float64 {
	return float64(l.HeaderH + i*l.RowH)
}

// Canvas wraps a drawing context with the configured card typeface.
type Canvas struct {
	*gg.Context

	font string
}

// NewCanvas creates a white canvas sized for n rows of the layout.
func (p *Cards) NewCanvas(l Layout, n int) *Canvas {
	m := gg.NewContext(l.Width, l.Height(n))
	m.SetHexColor("#1b2838")
	m.Clear()
	return &Canvas{Context: m, font: p.FontPath()}
}

// SetFont loads the card typeface at the given size. Rendering fails loudly
// here if the font went missing after startup.
func (cv *Canvas) SetFont(size float64) error {
	return cv.LoadFontFace(cv.font, size)
}

// Timestamp draws the render-time wall clock at (x, y).
func (cv *Canvas) Timestamp(x, y float64) {
	cv.DrawString(time.Now().Format("2006-01-02 15:04:05"), x, y)
}

// Strikethrough draws text with a line through its middle, for discounted
// original prices.
func (cv *Canvas) Strikethrough(text string, x, y float64) {
	cv.DrawString(text, x, y)
	w, h := cv.MeasureString(text)
	cv.DrawLine(x, y-h/3, x+w, y-h/3)
	cv.Stroke()
}

// Separator draws a full-width hairline at y.
func (cv *Canvas) Separator(y float64) {
	cv.DrawLine(0, y, float64(cv.Width()), y)
	cv.Stroke()
}

// WrappedText draws text word-wrapped to width, one line per lineH, drawing
// at most maxLines lines. Returns the number of lines drawn.
func (cv *Canvas) WrappedText(text string, x, y, width, lineH float64, maxLines int) int {
	lines := cv.WordWrap(text, width)
	if len(lines) > maxLines {
		lines = lines[:maxLines]
	}
	for i, line := range lines {
		cv.DrawString(line, x, y+float64(i)*lineH)
	}
	return len(lines)
}

// Thumbnail draws img with its top-left corner at (x, y).
func (cv *Canvas) Thumbnail(img image.Image, x, y int) {
	cv.DrawImage(img, x, y)
}

// PNG serializes the canvas.
func (cv *Canvas) PNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, cv.Image()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
