package export

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ivc-chiapas/folios-console/pkg/money"
	"github.com/ivc-chiapas/folios-console/pkg/textflow"
)

// Page geometry for a landscape A4 receipt, in millimetres.
const (
	PageWidth  = 297.0
	PageHeight = 210.0

	pageBottom     = 195.0
	continuedTop   = 20.0
	descX          = 32.0
	descWidth      = 175.0
	descLineHeight = 6.0
	descStartY     = 80.0
	tableTop       = 70.0
	tableMinBottom = 110.0
	wordsX         = 62.0
	wordsWidth     = 146.0
	wordsLineH     = 4.0
	fontFamily     = "Helvetica"
)

const (
	institutionName = "INSTITUTO VALLE DE CHIAPAS, SC"
	paidMarker      = "PAGADO COMPLETAMENTE"
	partialMarker   = "PAGO PARCIAL - SALDO PENDIENTE"
	disclaimer      = "ESTE DOCUMENTO NO ES COMPROBANTE CON VALOR FISCAL"
	logoImageName   = "logo"
)

var headerLines = []string{
	"Sistema Educativo",
	"R.F.C. IVC-080414-R45",
	"AV. CENTRAL PONIENTE No. 429 COL. CENTRO  CP. 29000",
	"TEL. 61 3 61 56  TUXTLA GUTIERREZ, CHIAPAS",
	"REGIMEN SIMPLIFICADO DE CONFIANZA",
}

var monthNames = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// upper is not shared: a cases.Caser is stateful.
func upper(s string) string {
	return cases.Upper(language.Spanish).String(s)
}

// RGB is a fill/text colour.
type RGB struct {
	R, G, B int
}

var (
	black = RGB{}
	red   = RGB{R: 255}
	green = RGB{G: 128}
)

// ElementKind identifies how an element is painted.
type ElementKind string

const (
	KindText  ElementKind = "text"
	KindRect  ElementKind = "rect"
	KindImage ElementKind = "image"
)

// Element is one positioned drawing instruction. Text elements are anchored at
// their baseline.
type Element struct {
	Kind      ElementKind
	Page      int
	X, Y      float64
	W, H      float64
	Text      string
	Style     string
	Size      float64
	Color     RGB
	LineWidth float64
	Image     string
}

// Layout is the complete, paint-ready description of a receipt.
type Layout struct {
	Pages    int
	Elements []Element
}

// Texts returns the text of every text element, in paint order.
func (l Layout) Texts() []string {
	out := make([]string, 0, len(l.Elements))
	for _, el := range l.Elements {
		if el.Kind == KindText {
			out = append(out, el.Text)
		}
	}
	return out
}

// Find returns the first text element with the given text.
func (l Layout) Find(text string) (Element, bool) {
	for _, el := range l.Elements {
		if el.Kind == KindText && el.Text == text {
			return el, true
		}
	}
	return Element{}, false
}

// ReceiptData is a payment merged with its denormalised student fields.
type ReceiptData struct {
	Folio         string
	CreatedAt     time.Time
	Month         string
	Year          string
	StudentName   string
	Level         string
	Tutor         string
	TutorPhone    string
	DueDay        string
	MonthlyAmount money.Value
	Note          string
	Balance       money.Balance
}

// Measurer measures text in the font it was last set to. *gofpdf.Fpdf
// satisfies it.
type Measurer interface {
	SetFont(family, style string, size float64)
	GetStringWidth(s string) float64
}

type builder struct {
	m      Measurer
	page   int
	layout Layout
}

func (b *builder) text(x, y float64, style string, size float64, color RGB, s string) {
	b.layout.Elements = append(b.layout.Elements, Element{
		Kind: KindText, Page: b.page, X: x, Y: y, Text: s, Style: style, Size: size, Color: color,
	})
}

func (b *builder) centered(cx, y float64, style string, size float64, s string) {
	b.m.SetFont(fontFamily, style, size)
	b.text(cx-b.m.GetStringWidth(s)/2, y, style, size, black, s)
}

func (b *builder) rect(x, y, w, h, lineWidth float64) {
	b.layout.Elements = append(b.layout.Elements, Element{
		Kind: KindRect, Page: b.page, X: x, Y: y, W: w, H: h, LineWidth: lineWidth,
	})
}

func (b *builder) newPage() {
	b.page++
	b.layout.Pages = b.page
}

// tableSegment is the part of the item table drawn on one page.
type tableSegment struct {
	page   int
	frame  float64
	top    float64
	bottom float64
}

// BuildReceiptLayout positions every region of the receipt. The item table
// grows with its description and everything below it shifts by the same
// amount; when the totals would run off the page they continue on a new one.
func BuildReceiptLayout(data ReceiptData, m Measurer) Layout {
	b := &builder{m: m}
	b.newPage()

	b.writeHeader(data)
	segments := b.writeItems(data)
	last := segments[len(segments)-1]

	for _, seg := range segments {
		b.page = seg.page
		b.rect(10, seg.frame, 270, seg.bottom-seg.frame+10, 0.5)
		b.rect(10, seg.top, 20, seg.bottom-seg.top, 0.5)
		b.rect(30, seg.top, 180, seg.bottom-seg.top, 0.5)
		b.rect(210, seg.top, 70, seg.bottom-seg.top, 0.5)
	}
	b.page = last.page

	if data.Balance.Outstanding() {
		b.text(descX, last.bottom+5, "B", 10, red, partialMarker)
	} else {
		b.text(descX, last.bottom+5, "B", 10, green, paidMarker)
	}

	b.writeTotals(data, last.bottom+10)
	return b.layout
}

func (b *builder) writeHeader(data ReceiptData) {
	b.layout.Elements = append(b.layout.Elements, Element{
		Kind: KindImage, Page: 1, X: 10, Y: 10, W: 30, H: 30, Image: logoImageName,
	})

	b.text(60, 18, "B", 18, black, institutionName)
	for i, line := range headerLines {
		b.text(60, 24+float64(i)*5, "", 10, black, line)
	}

	b.rect(220, 15, 70, 35, 0.5)
	b.centered(255, 25, "B", 16, "IUCH")
	b.text(230, 33, "", 12, black, "RECIBO DE PAGO")
	b.text(230, 39, "", 8, black, "UN PASO ADELANTE EN EDUCACION")
	b.text(230, 46, "", 10, black, "FOLIO No "+data.Folio)

	const locality = "Tuxtla Gutiérrez, Chiapas; a"
	b.m.SetFont(fontFamily, "", 10)
	dateX := 10 + b.m.GetStringWidth(locality) + 2
	b.text(10, 55, "", 10, black, locality)
	b.text(dateX, 55, "", 10, black, LongDate(data.CreatedAt))
}

func (b *builder) writeItems(data ReceiptData) []tableSegment {
	b.text(15, 68, "B", 10, black, "CANTIDAD")
	b.text(100, 68, "B", 10, black, "CONCEPTO")
	b.text(235, 68, "B", 10, black, "IMPORTE")

	b.text(18, descStartY, "", 10, black, "1")
	b.text(235, descStartY, "", 10, black, money.Fixed2(data.Balance.Total))
	b.text(210+2, 95, "", 10, black, "ABONO:")
	b.text(235, 95, "", 10, black, money.Fixed2(data.Balance.Abono))
	if data.Balance.Outstanding() {
		b.text(210+2, 105, "", 10, black, "RESTANTE:")
		b.text(235, 105, "", 10, black, money.Fixed2(data.Balance.Remaining))
	}

	current := tableSegment{page: 1, frame: 60, top: tableTop, bottom: tableMinBottom}
	segments := make([]tableSegment, 0, 1)
	offset := 0.0
	lastY := 0.0

	b.m.SetFont(fontFamily, "", 10)
	for p := range textflow.Flow(DescriptionLines(data), descWidth, descLineHeight, descStartY, b.m) {
		y := p.Y - offset
		if y+descLineHeight > pageBottom-10 {
			current.bottom = pageBottom - 10
			segments = append(segments, current)
			b.newPage()
			current = tableSegment{page: b.page, frame: continuedTop, top: continuedTop, bottom: 0}
			offset = p.Y - (continuedTop + 8)
			y = continuedTop + 8
		}
		b.text(descX, y, "", 10, black, p.Text)
		lastY = y
	}

	if bottom := lastY + descLineHeight; bottom > current.bottom {
		current.bottom = bottom
	}
	return append(segments, current)
}

func (b *builder) writeTotals(data ReceiptData, top float64) {
	amountText := money.Words(data.Balance.Total) + " (" + money.Currency(data.Balance.Total) + ")"
	b.m.SetFont(fontFamily, "", 8)
	wordLines := textflow.Count([]string{amountText}, wordsWidth, b.m)
	rowHeight := float64(wordLines)*wordsLineH + 4
	if rowHeight < 10 {
		rowHeight = 10
	}

	footerY := top + rowHeight + 10
	end := footerY
	if data.Balance.Outstanding() {
		end += 10
	}
	if end > pageBottom {
		b.newPage()
		top = continuedTop
		footerY = top + rowHeight + 10
	}

	b.rect(10, top, 200, rowHeight, 0.5)
	b.rect(210, top, 70, rowHeight, 0.5)
	b.text(12, top+7, "", 10, black, "IMPORTE TOTAL CON LETRA:")
	start := top + (rowHeight-float64(wordLines-1)*wordsLineH)/2 + 1.5
	b.m.SetFont(fontFamily, "", 8)
	for p := range textflow.Flow([]string{amountText}, wordsWidth, wordsLineH, start, b.m) {
		b.text(wordsX, p.Y, "", 8, black, p.Text)
	}
	b.text(212, top+7, "B", 10, black, "TOTAL")
	b.text(250, top+7, "", 10, black, money.Fixed2(data.Balance.Total))

	b.text(60, footerY, "", 9, black, disclaimer)
	if data.Balance.Outstanding() {
		b.text(60, footerY+10, "B", 9, black, "PENDIENTE POR PAGAR: "+money.Currency(data.Balance.Remaining))
	}
}

// DescriptionLines is the fixed concept template followed by the optional
// guardian, due-day, monthly-amount and note lines.
func DescriptionLines(data ReceiptData) []string {
	lines := []string{
		"PAGO DE COLEGIATURA CORRESPONDIENTE",
		strings.TrimSpace(fmt.Sprintf("AL MES DE %s %s", MonthLabel(data.Month), strings.TrimSpace(data.Year))),
		"ALUMNO: " + upper(strings.TrimSpace(data.StudentName)),
		"NIVEL EDUCATIVO: " + upper(strings.TrimSpace(data.Level)),
	}
	if v := strings.TrimSpace(data.Tutor); v != "" {
		lines = append(lines, "TUTOR: "+upper(v))
	}
	if v := strings.TrimSpace(data.TutorPhone); v != "" {
		lines = append(lines, "TEL. TUTOR: "+v)
	}
	if v := strings.TrimSpace(data.DueDay); v != "" {
		lines = append(lines, "DIA DE PAGO: "+v)
	}
	if data.MonthlyAmount.Valid() {
		lines = append(lines, "MONTO MENSUAL: "+money.Currency(data.MonthlyAmount.Decimal()))
	}
	if v := strings.TrimSpace(data.Note); v != "" {
		lines = append(lines, "NOTA: "+v)
	}
	return lines
}

// MonthName returns the uppercase Spanish month name, or the number itself
// when it is out of range.
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return strconv.Itoa(month)
	}
	return upper(monthNames[month-1])
}

// MonthLabel accepts either a month number ("10") or a month name
// ("octubre") and returns the uppercase name.
func MonthLabel(raw string) string {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.Atoi(raw); err == nil {
		return MonthName(n)
	}
	return upper(raw)
}

// LongDate formats t as "15 DE OCTUBRE DE 2024".
func LongDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return fmt.Sprintf("%d DE %s DE %d", t.Day(), MonthName(int(t.Month())), t.Year())
}
