// Package docx writes minimal WordprocessingML (.docx) packages.
//
// It covers exactly what exam documents need: one section with page
// orientation, margins and a column count, plus paragraphs of styled runs.
// Output is byte-for-byte deterministic for identical input, which the
// rendering layer relies on; zip entry metadata carries no timestamps.
package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
)

// Align is a paragraph justification value.
type Align string

const (
	// AlignLeft is the default justification.
	AlignLeft Align = ""
	// AlignCenter centers the paragraph.
	AlignCenter Align = "center"
)

// Run is a span of text with uniform formatting.
type Run struct {
	Text string
	Bold bool
}

// Paragraph is a block of runs with paragraph-level formatting. Spacing and
// indent values are in points.
type Paragraph struct {
	Runs        []Run
	Align       Align
	IndentPt    int
	SpaceBefore int
	SpaceAfter  int
}

// Margins holds page margins in inches.
type Margins struct {
	Top, Bottom, Left, Right float64
}

// Document is a single-section Word document under construction.
type Document struct {
	Landscape  bool
	Columns    int
	Margins    Margins
	Font       string
	FontSizePt int

	paragraphs []Paragraph
}

// A4 page dimensions in twips (portrait).
const (
	pageWidthTwips  = 11906
	pageHeightTwips = 16838
)

// New returns a document with the defaults shared by all exam layouts.
func New() *Document {
	return &Document{
		Columns:    1,
		Margins:    Margins{Top: 1, Bottom: 1, Left: 1, Right: 1},
		Font:       "Times New Roman",
		FontSizePt: 11,
	}
}

// AddParagraph appends a paragraph to the document body.
func (d *Document) AddParagraph(p Paragraph) {
	d.paragraphs = append(d.paragraphs, p)
}

// Bytes serializes the document as a .docx package.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	parts := []struct {
		name string
		body string
	}{
		{"[Content_Types].xml", contentTypesXML},
		{"_rels/.rels", relsXML},
		{"word/document.xml", d.documentXML()},
	}
	for _, p := range parts {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: p.name, Method: zip.Deflate})
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", p.name, err)
		}
		if _, err := w.Write([]byte(p.body)); err != nil {
			return nil, fmt.Errorf("write %s: %w", p.name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close package: %w", err)
	}
	return buf.Bytes(), nil
}

const contentTypesXML = xml.Header +
	`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
	`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
	`<Default Extension="xml" ContentType="application/xml"/>` +
	`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
	`</Types>`

const relsXML = xml.Header +
	`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
	`</Relationships>`

func (d *Document) documentXML() string {
	var b strings.Builder
	b.WriteString(xml.Header)
	b.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)

	for _, p := range d.paragraphs {
		d.writeParagraph(&b, p)
	}
	d.writeSectPr(&b)

	b.WriteString(`</w:body></w:document>`)
	return b.String()
}

func (d *Document) writeParagraph(b *strings.Builder, p Paragraph) {
	b.WriteString(`<w:p><w:pPr>`)
	fmt.Fprintf(b, `<w:spacing w:before="%d" w:after="%d"/>`, p.SpaceBefore*20, p.SpaceAfter*20)
	if p.IndentPt > 0 {
		fmt.Fprintf(b, `<w:ind w:left="%d"/>`, p.IndentPt*20)
	}
	if p.Align == AlignCenter {
		b.WriteString(`<w:jc w:val="center"/>`)
	}
	b.WriteString(`</w:pPr>`)

	for _, r := range p.Runs {
		b.WriteString(`<w:r><w:rPr>`)
		fmt.Fprintf(b, `<w:rFonts w:ascii="%s" w:hAnsi="%s"/>`, d.Font, d.Font)
		if r.Bold {
			b.WriteString(`<w:b/>`)
		}
		// w:sz is in half-points.
		fmt.Fprintf(b, `<w:sz w:val="%d"/>`, d.FontSizePt*2)
		b.WriteString(`</w:rPr><w:t xml:space="preserve">`)
		writeEscaped(b, r.Text)
		b.WriteString(`</w:t></w:r>`)
	}

	b.WriteString(`</w:p>`)
}

func (d *Document) writeSectPr(b *strings.Builder) {
	width, height := pageWidthTwips, pageHeightTwips
	orient := ""
	if d.Landscape {
		width, height = height, width
		orient = ` w:orient="landscape"`
	}

	b.WriteString(`<w:sectPr>`)
	fmt.Fprintf(b, `<w:pgSz w:w="%d" w:h="%d"%s/>`, width, height, orient)
	fmt.Fprintf(b, `<w:pgMar w:top="%d" w:bottom="%d" w:left="%d" w:right="%d"/>`,
		twips(d.Margins.Top), twips(d.Margins.Bottom), twips(d.Margins.Left), twips(d.Margins.Right))
	if d.Columns > 1 {
		fmt.Fprintf(b, `<w:cols w:num="%d" w:space="708"/>`, d.Columns)
	}
	b.WriteString(`</w:sectPr>`)
}

// twips converts inches to twentieths of a point.
func twips(inches float64) int {
	return int(inches * 1440)
}

func writeEscaped(b *strings.Builder, s string) {
	// xml.EscapeText also escapes newlines and tabs, which is harmless here.
	_ = xml.EscapeText(b, []byte(s))
}
