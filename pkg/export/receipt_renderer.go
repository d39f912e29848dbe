package export

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/jung-kurt/gofpdf"
	"golang.org/x/text/unicode/norm"
)

// ContentTypePDF is the media type of rendered receipts.
const ContentTypePDF = "application/pdf"

// ErrMissingLogo is returned when a render is attempted without logo bytes.
var ErrMissingLogo = errors.New("receipt logo not available")

// Document is a rendered, self-contained receipt.
type Document struct {
	Filename    string
	ContentType string
	Bytes       []byte
	Pages       int
}

// ReceiptRenderer paints receipt layouts with gofpdf. It holds no per-render
// state, so one renderer serves concurrent requests.
type ReceiptRenderer struct {
	compress bool
}

// RendererOption customises a ReceiptRenderer.
type RendererOption func(*ReceiptRenderer)

// WithCompression toggles PDF stream compression (on by default).
func WithCompression(enabled bool) RendererOption {
	return func(r *ReceiptRenderer) {
		r.compress = enabled
	}
}

// NewReceiptRenderer constructs a renderer.
func NewReceiptRenderer(opts ...RendererOption) *ReceiptRenderer {
	r := &ReceiptRenderer{compress: true}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render lays out and paints one receipt. logo must be JPEG bytes; it is
// embedded in the document so printing never needs the network.
func (r *ReceiptRenderer) Render(data ReceiptData, logo []byte) (*Document, error) {
	if len(logo) == 0 {
		return nil, ErrMissingLogo
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetCompression(r.compress)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator("folios-console", true)
	pdf.SetTitle("Recibo de pago "+data.Folio, true)

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	layout := BuildReceiptLayout(data, translatingMeasurer{pdf: pdf, tr: tr})

	pdf.RegisterImageOptionsReader(logoImageName, gofpdf.ImageOptions{ImageType: "JPG"}, bytes.NewReader(logo))
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("register logo: %w", err)
	}

	paint(pdf, layout, tr)

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render receipt: %w", err)
	}

	return &Document{
		Filename:    ReceiptFilename(data.Folio),
		ContentType: ContentTypePDF,
		Bytes:       buf.Bytes(),
		Pages:       layout.Pages,
	}, nil
}

func paint(pdf *gofpdf.Fpdf, layout Layout, tr func(string) string) {
	for page := 1; page <= layout.Pages; page++ {
		pdf.AddPage()
		for _, el := range layout.Elements {
			if el.Page != page {
				continue
			}
			switch el.Kind {
			case KindImage:
				pdf.ImageOptions(el.Image, el.X, el.Y, el.W, el.H, false, gofpdf.ImageOptions{ImageType: "JPG"}, 0, "")
			case KindRect:
				pdf.SetDrawColor(0, 0, 0)
				pdf.SetLineWidth(el.LineWidth)
				pdf.Rect(el.X, el.Y, el.W, el.H, "D")
			case KindText:
				pdf.SetFont(fontFamily, el.Style, el.Size)
				pdf.SetTextColor(el.Color.R, el.Color.G, el.Color.B)
				pdf.Text(el.X, el.Y, tr(el.Text))
			}
		}
	}
}

// translatingMeasurer measures text after cp1252 translation, which is what
// the painter actually writes.
type translatingMeasurer struct {
	pdf *gofpdf.Fpdf
	tr  func(string) string
}

func (m translatingMeasurer) SetFont(family, style string, size float64) {
	m.pdf.SetFont(family, style, size)
}

func (m translatingMeasurer) GetStringWidth(s string) float64 {
	return m.pdf.GetStringWidth(m.tr(s))
}

// ReceiptFilename returns "folio_<folio>.pdf", or "folio_pago.pdf" when the
// folio has nothing usable in a file name.
func ReceiptFilename(folio string) string {
	name := safeName(folio)
	if name == "" {
		return "folio_pago.pdf"
	}
	return "folio_" + name + ".pdf"
}

func safeName(s string) string {
	var b strings.Builder
	for _, r := range norm.NFD.String(strings.TrimSpace(s)) {
		switch {
		case unicode.Is(unicode.Mn, r):
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_'):
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	return strings.Trim(b.String(), "-")
}
