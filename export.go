package glyphart

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/language"
)

const (
	ExportFilename = "sakura_art.html"
	ExportMIME     = "text/html"
)

// Theme controls how an exported document looks.
type Theme struct {
	Title   string
	Heading string
	Lang    language.Tag

	Background colorful.Color
	Panel      colorful.Color
	Text       colorful.Color
	// Accent is the border color. WithAccent also uses it for Glow and Shadow.
	Accent colorful.Color
	Glow   colorful.Color
	Shadow colorful.Color

	// FontSizeNarrow applies when the exporting viewport is at most
	// NarrowBreakpoint wide, FontSizeWide otherwise.
	FontSizeNarrow   string
	FontSizeWide     string
	NarrowBreakpoint int
}

func mustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}

func DefaultTheme() Theme {
	return Theme{
		Title:            "Sakura Art",
		Heading:          "🌸 SAKURA ART",
		Lang:             language.Russian,
		Background:       mustHex("#0d020d"),
		Panel:            mustHex("#000000"),
		Text:             mustHex("#ffdae9"),
		Accent:           mustHex("#ff69b4"),
		Glow:             mustHex("#ff1493"),
		Shadow:           mustHex("#ff1493"),
		FontSizeNarrow:   "2.2vw",
		FontSizeWide:     "8px",
		NarrowBreakpoint: NarrowViewport,
	}
}

// WithAccent returns a copy of t that uses accent for border, glow and shadow.
func (t Theme) WithAccent(accent colorful.Color) Theme {
	t.Accent = accent.Clamped()
	t.Glow = t.Accent
	t.Shadow = t.Accent
	return t
}

// FontSize returns the art font size for a viewport width.
func (t Theme) FontSize(viewportWidth int) string {
	if viewportWidth <= t.NarrowBreakpoint {
		return t.FontSizeNarrow
	}
	return t.FontSizeWide
}

func rgba(c colorful.Color, alpha float64) string {
	r, g, b := c.Clamped().RGB255()
	return fmt.Sprintf("rgba(%d, %d, %d, %g)", r, g, b, alpha)
}

func (t Theme) css(viewportWidth int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "body { background: %s; margin: 0; display: flex; flex-direction: column; align-items: center; justify-content: center; min-height: 100vh; color: %s; font-family: monospace; padding: 20px; }\n",
		t.Background.Hex(), t.Text.Hex())
	fmt.Fprintf(&sb, ".%s { background: %s; font-size: %s; line-height: 1; white-space: pre; padding: 25px; border: 1px solid %s; border-radius: 25px; box-shadow: 0 0 40px %s; overflow-x: auto; max-width: 95vw; }\n",
		FragmentClass, t.Panel.Hex(), t.FontSize(viewportWidth), t.Accent.Hex(), rgba(t.Glow, 0.3))
	fmt.Fprintf(&sb, "h2 { font-family: sans-serif; letter-spacing: 4px; text-shadow: 0 0 10px %s; }\n", t.Shadow.Hex())
	return sb.String()
}

// Sink receives an exported document. It is the download side effect.
type Sink interface {
	Download(name, mimeType string, data []byte) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(name, mimeType string, data []byte) error

func (f SinkFunc) Download(name, mimeType string, data []byte) error {
	return f(name, mimeType, data)
}

// DirSink writes documents into a directory, creating it when needed.
type DirSink string

func (d DirSink) Download(name, _ string, data []byte) error {
	if err := os.MkdirAll(string(d), 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	return os.WriteFile(filepath.Join(string(d), filepath.Base(name)), data, 0o644)
}

// WriterSink copies documents to an io.Writer.
type WriterSink struct {
	W io.Writer
}

func (s WriterSink) Download(_, _ string, data []byte) error {
	_, err := s.W.Write(data)
	return err
}

// Exporter wraps rendered fragments into standalone documents.
type Exporter struct {
	Theme    Theme
	Filename string
}

func NewExporter(theme Theme) *Exporter {
	return &Exporter{Theme: theme, Filename: ExportFilename}
}

func element(a atom.Atom, attrs ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// Document builds the standalone document around fragment. The font size is
// chosen from viewportWidth now, not when the fragment was rendered.
func (e *Exporter) Document(fragment string, viewportWidth int) ([]byte, error) {
	if fragment == "" {
		return nil, ErrNoContent
	}
	t := e.Theme

	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	root := element(atom.Html, "lang", t.Lang.String())
	doc.AppendChild(root)

	head := element(atom.Head)
	root.AppendChild(head)
	head.AppendChild(element(atom.Meta, "charset", "UTF-8"))
	head.AppendChild(element(atom.Meta, "name", "viewport", "content", "width=device-width, initial-scale=1.0"))
	title := element(atom.Title)
	title.AppendChild(text(t.Title))
	head.AppendChild(title)
	style := element(atom.Style)
	style.AppendChild(text(t.css(viewportWidth)))
	head.AppendChild(style)

	body := element(atom.Body)
	root.AppendChild(body)
	h2 := element(atom.H2)
	h2.AppendChild(text(t.Heading))
	body.AppendChild(h2)
	body.AppendChild(&html.Node{Type: html.RawNode, Data: fragment})

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return nil, fmt.Errorf("rendering document: %w", err)
	}
	return buf.Bytes(), nil
}

// Export builds the document and hands it to sink.
func (e *Exporter) Export(fragment string, viewportWidth int, sink Sink) error {
	data, err := e.Document(fragment, viewportWidth)
	if err != nil {
		return err
	}
	name := e.Filename
	if name == "" {
		name = ExportFilename
	}
	if err := sink.Download(name, ExportMIME, data); err != nil {
		return fmt.Errorf("downloading %s: %w", name, err)
	}
	return nil
}
