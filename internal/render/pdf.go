package render

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/jung-kurt/gofpdf"

	"github.com/noah-isme/objective-paper-api/internal/models"
	appErrors "github.com/noah-isme/objective-paper-api/pkg/errors"
)

// Page geometry (mm). A4 portrait with ~1 inch margins, matching the fixed
// academic template.
const (
	pageWidth   = 210.0
	pageHeight  = 297.0
	pageMargin  = 25.4
	usableWidth = pageWidth - 2*pageMargin
)

// Typography (mm per line).
const (
	bodyLine  = 5.5
	titleLine = 6.5
	cellPad   = 2.0
)

// Embedded question images are fitted into a fixed bounding box.
const imageBoxSize = 50.0

// Logo slot in the header.
const (
	logoWidth  = 110.0
	logoHeight = 20.0
)

// PDFRenderer walks the paper model and produces a paginated A4 document.
// Every block is measured first, the pure paginator decides the page breaks,
// and only then is anything drawn; gofpdf's automatic page breaking stays
// disabled so a block can never be split.
type PDFRenderer struct {
	logo []byte
}

// NewPDFRenderer constructs the paginated renderer. logo may be nil, in
// which case the header simply renders without one.
func NewPDFRenderer(logo []byte) *PDFRenderer {
	return &PDFRenderer{logo: logo}
}

// Extension implements Renderer.
func (r *PDFRenderer) Extension() string { return "pdf" }

// ContentType implements Renderer.
func (r *PDFRenderer) ContentType() string { return "application/pdf" }

// Render implements Renderer.
func (r *PDFRenderer) Render(model models.PaperModel) ([]byte, error) {
	doc := r.newDoc()

	// Measure pass: draw every block at the top margin of a scratch page.
	// The scratch doc shares fonts and registered images with nothing, so
	// heights are identical to the placement pass by construction.
	scratch := r.newDoc()
	scratch.AddPage()
	heights := make([]float64, len(model.Blocks))
	spacings := make([]float64, len(model.Blocks))
	for i, block := range model.Blocks {
		h, err := r.drawBlock(scratch, block, pageMargin)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrExport.Code, appErrors.ErrExport.Status, "measure paper block")
		}
		heights[i] = h
		spacings[i] = block.SpacingAfter
	}

	pages := Paginate(heights, spacings, pageHeight-2*pageMargin)

	for _, page := range pages {
		doc.AddPage()
		y := pageMargin
		for _, idx := range page {
			if _, err := r.drawBlock(doc, model.Blocks[idx], y); err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrExport.Code, appErrors.ErrExport.Status, "draw paper block")
			}
			y += heights[idx] + spacings[idx]
		}
	}

	buf := &bytes.Buffer{}
	if err := doc.Output(buf); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrExport.Code, appErrors.ErrExport.Status, "render pdf")
	}
	return buf.Bytes(), nil
}

func (r *PDFRenderer) newDoc() *gofpdf.Fpdf {
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetMargins(pageMargin, pageMargin, pageMargin)
	doc.SetAutoPageBreak(false, 0)
	return doc
}

func (r *PDFRenderer) drawBlock(doc *gofpdf.Fpdf, block models.Block, y float64) (float64, error) {
	switch block.Kind {
	case models.BlockHeader:
		return r.drawHeader(doc, *block.Header, y)
	case models.BlockNote:
		return r.drawNote(doc, *block.Note, y), nil
	case models.BlockSectionHeader:
		return r.drawSectionHeader(doc, *block.SectionHeader, y), nil
	case models.BlockQuestionRow:
		return r.drawQuestionRow(doc, *block.QuestionRow, y)
	case models.BlockFooter:
		return r.drawFooter(doc, *block.Footer, y), nil
	default:
		return 0, fmt.Errorf("unknown block kind %q", block.Kind)
	}
}

func (r *PDFRenderer) drawHeader(doc *gofpdf.Fpdf, h models.Header, y float64) (float64, error) {
	top := y

	doc.SetFont("Arial", "B", 12)
	doc.SetXY(pageMargin, y)
	doc.CellFormat(usableWidth, bodyLine, "Subject Code: "+h.SubjectCode, "", 0, "L", false, 0, "")
	y += bodyLine + 1

	// An unusable logo renders as a header without one; it never aborts.
	if len(r.logo) > 0 && decodableImage(r.logo) {
		if name, opts, err := registerImage(doc, "logo", r.logo); err == nil {
			doc.ImageOptions(name, pageMargin+(usableWidth-logoWidth)/2, y, logoWidth, logoHeight, false, opts, 0, "")
			y += logoHeight + 1
		}
	}

	// Rule under the masthead.
	doc.Line(pageMargin, y, pageMargin+usableWidth, y)
	y += 2

	doc.SetFont("Arial", "B", 14)
	lines := doc.SplitText(h.Title, usableWidth)
	for _, line := range lines {
		doc.SetXY(pageMargin, y)
		doc.CellFormat(usableWidth, titleLine, line, "", 0, "C", false, 0, "")
		y += titleLine
	}

	doc.SetFont("Arial", "", 12)
	doc.SetXY(pageMargin, y)
	doc.CellFormat(usableWidth, bodyLine, h.Regulation, "", 0, "C", false, 0, "")
	y += bodyLine + 1

	doc.SetFont("Arial", "B", 12)
	doc.SetXY(pageMargin, y)
	doc.CellFormat(usableWidth/2, bodyLine, h.TimeLimit, "", 0, "L", false, 0, "")
	doc.CellFormat(usableWidth/2, bodyLine, h.MaxMarks, "", 0, "R", false, 0, "")
	y += bodyLine + 1

	doc.SetXY(pageMargin, y)
	doc.CellFormat(usableWidth*0.4, bodyLine, "Subject: "+h.Subject, "", 0, "L", false, 0, "")
	doc.CellFormat(usableWidth*0.35, bodyLine, "Branch: "+h.Branch, "", 0, "L", false, 0, "")
	doc.CellFormat(usableWidth*0.25, bodyLine, "Date: "+h.ExamDate, "", 0, "R", false, 0, "")
	y += bodyLine + 1

	doc.Line(pageMargin, y, pageMargin+usableWidth, y)
	y += 1

	return y - top, nil
}

func (r *PDFRenderer) drawNote(doc *gofpdf.Fpdf, n models.Note, y float64) float64 {
	doc.SetFont("Arial", "", 12)
	lines := doc.SplitText(n.Text, usableWidth)
	for i, line := range lines {
		doc.SetXY(pageMargin, y+float64(i)*bodyLine)
		doc.CellFormat(usableWidth, bodyLine, line, "", 0, "L", false, 0, "")
	}
	return float64(len(lines)) * bodyLine
}

func (r *PDFRenderer) drawSectionHeader(doc *gofpdf.Fpdf, s models.SectionHeader, y float64) float64 {
	top := y

	doc.SetFont("Arial", "B", 12)
	doc.SetXY(pageMargin, y)
	doc.CellFormat(usableWidth, bodyLine, s.Label, "", 0, "L", false, 0, "")
	y += bodyLine + 1

	headerRow := bodyLine + 2*cellPad
	x := pageMargin
	doc.SetFont("Arial", "B", 11)
	for _, col := range s.Columns {
		w := usableWidth * col.Width / 100
		doc.Rect(x, y, w, headerRow, "D")
		doc.SetXY(x, y+cellPad)
		doc.CellFormat(w, bodyLine, col.Label, "", 0, "C", false, 0, "")
		x += w
	}
	y += headerRow

	return y - top
}

func (r *PDFRenderer) drawQuestionRow(doc *gofpdf.Fpdf, row models.QuestionRow, y float64) (float64, error) {
	cols := rowColumns(row)

	questionWidth := usableWidth*cols.question/100 - 2*cellPad
	doc.SetFont("Arial", "", 11)
	questionLines := doc.SplitText(row.Question, questionWidth)
	optionLines := make([][]string, 0, len(row.Options))
	for _, opt := range row.Options {
		optionLines = append(optionLines, doc.SplitText(opt, questionWidth-6))
	}

	contentHeight := float64(len(questionLines)) * bodyLine
	for _, lines := range optionLines {
		contentHeight += float64(len(lines)) * bodyLine
	}

	var imgName string
	var imgOpts gofpdf.ImageOptions
	var imgW, imgH float64
	if row.ImageDataURL != nil {
		// A question whose image cannot be decoded renders without it; image
		// failures never abort an export.
		if data, _, err := decodeDataURL(*row.ImageDataURL); err == nil && decodableImage(data) {
			name, opts, regErr := registerImage(doc, fmt.Sprintf("q%d", row.SequenceNumber), data)
			if regErr == nil {
				if info := doc.GetImageInfo(name); info != nil {
					w, h := info.Extent()
					imgW, imgH = fitBox(w, h, imageBoxSize, imageBoxSize)
					imgName, imgOpts = name, opts
					contentHeight += imgH + 2
				}
			}
		}
	}

	rowHeight := contentHeight + 2*cellPad

	// Borders first, then cell content.
	x := pageMargin
	for _, w := range cols.widths() {
		doc.Rect(x, y, usableWidth*w/100, rowHeight, "D")
		x += usableWidth * w / 100
	}

	// S.No cell.
	doc.SetXY(pageMargin, y+cellPad)
	doc.CellFormat(usableWidth*cols.seq/100, bodyLine, fmt.Sprintf("%d", row.SequenceNumber), "", 0, "C", false, 0, "")

	// Question cell.
	cy := y + cellPad
	qx := pageMargin + usableWidth*cols.seq/100 + cellPad
	for _, line := range questionLines {
		doc.SetXY(qx, cy)
		doc.CellFormat(questionWidth, bodyLine, line, "", 0, "L", false, 0, "")
		cy += bodyLine
	}
	for _, lines := range optionLines {
		for _, line := range lines {
			doc.SetXY(qx+6, cy)
			doc.CellFormat(questionWidth-6, bodyLine, line, "", 0, "L", false, 0, "")
			cy += bodyLine
		}
	}
	if imgName != "" {
		doc.ImageOptions(imgName, qx, cy+1, imgW, imgH, false, imgOpts, 0, "")
	}

	// Trailing centered cells: answer box (MCQ only), unit, CO.
	x = pageMargin + usableWidth*(cols.seq+cols.question)/100
	if row.AnswerBox {
		doc.SetXY(x, y+cellPad)
		doc.CellFormat(usableWidth*cols.box/100, bodyLine, "[    ]", "", 0, "C", false, 0, "")
		x += usableWidth * cols.box / 100
	}
	doc.SetXY(x, y+cellPad)
	doc.CellFormat(usableWidth*cols.unit/100, bodyLine, fmt.Sprintf("%d", row.Unit), "", 0, "C", false, 0, "")
	x += usableWidth * cols.unit / 100
	doc.SetXY(x, y+cellPad)
	doc.CellFormat(usableWidth*cols.co/100, bodyLine, row.CO, "", 0, "C", false, 0, "")

	return rowHeight, nil
}

func (r *PDFRenderer) drawFooter(doc *gofpdf.Fpdf, f models.Footer, y float64) float64 {
	doc.SetFont("Arial", "B", 12)
	doc.SetXY(pageMargin, y+3)
	doc.CellFormat(usableWidth, bodyLine, f.Text, "", 0, "C", false, 0, "")
	return bodyLine + 3
}

// rowCols captures the per-section column split (percent widths).
type rowCols struct {
	seq, question, box, unit, co float64
}

func (c rowCols) widths() []float64 {
	if c.box > 0 {
		return []float64{c.seq, c.question, c.box, c.unit, c.co}
	}
	return []float64{c.seq, c.question, c.unit, c.co}
}

func rowColumns(row models.QuestionRow) rowCols {
	if row.AnswerBox {
		return rowCols{seq: 10, question: 70, box: 10, unit: 5, co: 5}
	}
	return rowCols{seq: 10, question: 80, unit: 5, co: 5}
}

// registerImage makes raw image bytes available to the document under a
// stable name, sniffing the payload type.
func registerImage(doc *gofpdf.Fpdf, name string, data []byte) (string, gofpdf.ImageOptions, error) {
	imageType := sniffImageType(data)
	if imageType == "" {
		return "", gofpdf.ImageOptions{}, fmt.Errorf("unrecognized image payload")
	}
	opts := gofpdf.ImageOptions{ImageType: imageType, ReadDpi: true}
	if doc.GetImageInfo(name) == nil {
		doc.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
		if doc.Err() {
			return "", opts, doc.Error()
		}
	}
	return name, opts, nil
}

// decodableImage reports whether the payload parses as an actual raster
// image. Registering a corrupt payload would poison the whole gofpdf
// document, which must not happen for a recoverable per-question image.
func decodableImage(data []byte) bool {
	_, _, err := image.DecodeConfig(bytes.NewReader(data))
	return err == nil
}

func sniffImageType(data []byte) string {
	switch {
	case len(data) > 8 && bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		return "PNG"
	case len(data) > 3 && bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF}):
		return "JPEG"
	case len(data) > 6 && (bytes.HasPrefix(data, []byte("GIF87a")) || bytes.HasPrefix(data, []byte("GIF89a"))):
		return "GIF"
	default:
		return ""
	}
}

// fitBox scales (w, h) to fit inside (maxW, maxH) preserving aspect ratio.
func fitBox(w, h, maxW, maxH float64) (float64, float64) {
	if w <= 0 || h <= 0 {
		return maxW, maxH
	}
	scale := maxW / w
	if s := maxH / h; s < scale {
		scale = s
	}
	if scale > 1 {
		scale = 1
	}
	return w * scale, h * scale
}
