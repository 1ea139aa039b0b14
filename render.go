package glyphart

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/muesli/termenv"
	"golang.org/x/net/html"
)

const (
	// FragmentClass is the class of the element wrapping an HTML fragment.
	FragmentClass = "ascii-content"

	// LineBreak ends every row of an HTML fragment, the last one included,
	// so a fragment of N rows carries exactly N breaks.
	LineBreak = "<br/>"

	htmlBytesPerCell = 40 // `<span style="color: rgb(255,255,255)">♥</span>`
)

// Renderer serializes art into some textual format.
type Renderer interface {
	Render(w io.Writer, a *Art) error
}

// RenderString renders a with r into a string.
func RenderString(r Renderer, a *Art) (string, error) {
	var sb strings.Builder
	if err := r.Render(&sb, a); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// HTMLRenderer writes a div of colored spans, one per cell.
type HTMLRenderer struct{}

func (HTMLRenderer) Render(w io.Writer, a *Art) error {
	var sb strings.Builder
	sb.Grow(len(a.Cells)*htmlBytesPerCell + a.Rows*len(LineBreak) + 64)

	sb.WriteString(`<div class="` + FragmentClass + `">`)
	for y := range a.Rows {
		for _, c := range a.Row(y) {
			sb.WriteString(`<span style="color: rgb(`)
			sb.WriteString(strconv.Itoa(int(c.Color.R)))
			sb.WriteByte(',')
			sb.WriteString(strconv.Itoa(int(c.Color.G)))
			sb.WriteByte(',')
			sb.WriteString(strconv.Itoa(int(c.Color.B)))
			sb.WriteString(`)">`)
			sb.WriteString(html.EscapeString(string(c.Glyph)))
			sb.WriteString(`</span>`)
		}
		sb.WriteString(LineBreak)
	}
	sb.WriteString(`</div>`)

	_, err := io.WriteString(w, sb.String())
	return err
}

// TextRenderer writes glyphs only, one line per row.
type TextRenderer struct{}

func (TextRenderer) Render(w io.Writer, a *Art) error {
	var sb strings.Builder
	sb.Grow((a.Columns*3 + 1) * a.Rows)
	for y := range a.Rows {
		for _, c := range a.Row(y) {
			sb.WriteRune(c.Glyph)
		}
		sb.WriteByte('\n')
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// ANSIRenderer colors glyphs with terminal escape sequences. The Ascii
// profile produces plain text.
type ANSIRenderer struct {
	Profile termenv.Profile
}

func (r ANSIRenderer) Render(w io.Writer, a *Art) error {
	var sb strings.Builder
	for y := range a.Rows {
		for _, c := range a.Row(y) {
			hex := fmt.Sprintf("#%02x%02x%02x", c.Color.R, c.Color.G, c.Color.B)
			sb.WriteString(r.Profile.String(string(c.Glyph)).Foreground(r.Profile.Color(hex)).String())
		}
		sb.WriteByte('\n')
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
