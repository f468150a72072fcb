package render

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/noah-isme/objective-paper-api/internal/models"
	appErrors "github.com/noah-isme/objective-paper-api/pkg/errors"
)

// DocxRenderer walks the paper model and emits a WordprocessingML package.
// Unlike the PDF path it performs no pagination of its own: rows carry the
// cantSplit hint and the host word processor's layout engine does the rest.
type DocxRenderer struct {
	logo []byte
}

// NewDocxRenderer constructs the flow renderer. When logo is nil or not a
// usable image, a baked-in placeholder is embedded instead so assembly never
// aborts on a missing logo.
func NewDocxRenderer(logo []byte) *DocxRenderer {
	return &DocxRenderer{logo: logo}
}

// Extension implements Renderer.
func (r *DocxRenderer) Extension() string { return "docx" }

// ContentType implements Renderer.
func (r *DocxRenderer) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
}

// Fixed typography: Times New Roman, 12pt body, 14pt title (w:sz is in
// half-points).
const (
	docxBodySize  = 24
	docxTitleSize = 28
)

// Inline image extents in EMUs (1 px = 9525 EMU at 96 dpi).
const (
	emuPerPixel   = 9525
	questionImgPx = 200
	logoImgWidth  = 600
	logoImgHeight = 60
)

// docxMedia is one embedded binary part plus its relationship id.
type docxMedia struct {
	name string
	data []byte
	ext  string
}

type docxBuilder struct {
	body  strings.Builder
	media []docxMedia
}

// Render implements Renderer.
func (r *DocxRenderer) Render(model models.PaperModel) ([]byte, error) {
	b := &docxBuilder{}

	var openSection *models.SectionHeader
	var pendingRows []models.QuestionRow
	flush := func() {
		if openSection != nil {
			b.writeQuestionTable(*openSection, pendingRows)
			openSection = nil
			pendingRows = nil
		}
	}

	for i := range model.Blocks {
		block := model.Blocks[i]
		switch block.Kind {
		case models.BlockHeader:
			flush()
			b.writeHeader(*block.Header, r.resolveLogo())
		case models.BlockNote:
			flush()
			b.writeParagraph(paraProps(`<w:spacing w:after="100"/>`),
				boldRun("Note: ", docxBodySize)+textRun(strings.TrimPrefix(block.Note.Text, "Note: "), docxBodySize))
		case models.BlockSectionHeader:
			flush()
			b.writeParagraph(paraProps(`<w:spacing w:before="100" w:after="50"/>`),
				boldRun(block.SectionHeader.Label, docxBodySize))
			openSection = block.SectionHeader
		case models.BlockQuestionRow:
			pendingRows = append(pendingRows, *block.QuestionRow)
		case models.BlockFooter:
			flush()
			b.writeParagraph(paraProps(`<w:jc w:val="center"/><w:spacing w:before="100"/>`),
				boldRun(block.Footer.Text, docxBodySize))
		}
	}
	flush()

	pkg, err := b.pack()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrExport.Code, appErrors.ErrExport.Status, "assemble docx package")
	}
	return pkg, nil
}

// resolveLogo returns usable logo bytes, falling back to the embedded
// placeholder.
func (r *DocxRenderer) resolveLogo() []byte {
	if len(r.logo) > 0 && decodableImage(r.logo) {
		return r.logo
	}
	return fallbackLogo()
}

func (b *docxBuilder) writeHeader(h models.Header, logo []byte) {
	b.writeParagraph("", boldRun("Subject Code: "+h.SubjectCode, docxBodySize))

	rid := b.addMedia(logo)
	b.writeParagraph(paraProps(`<w:jc w:val="center"/><w:spacing w:after="100"/>`),
		imageRun(rid, logoImgWidth*emuPerPixel, logoImgHeight*emuPerPixel))

	b.writeParagraph(paraProps(`<w:jc w:val="center"/><w:spacing w:after="50"/>`),
		boldRun(h.Title, docxTitleSize))
	b.writeParagraph(paraProps(`<w:jc w:val="center"/><w:spacing w:after="50"/>`),
		textRun(h.Regulation, docxBodySize))

	// Time / marks and subject / branch / date lines as borderless two-column
	// tables, so left and right content stay aligned.
	b.writeLayoutTable([2]string{
		cellParagraph("", boldRun(h.TimeLimit, docxBodySize)),
		cellParagraph(paraProps(`<w:jc w:val="right"/>`), boldRun(h.MaxMarks, docxBodySize)),
	})
	b.writeLayoutTable([2]string{
		cellParagraph("", boldRun("Subject: "+h.Subject, docxBodySize)) +
			cellParagraph(paraProps(`<w:spacing w:before="50"/>`), boldRun("Branch: "+h.Branch, docxBodySize)) +
			cellParagraph(paraProps(`<w:spacing w:before="50"/>`), boldRun("Name: ______________________", docxBodySize)),
		cellParagraph(paraProps(`<w:jc w:val="right"/>`), boldRun("Date: "+h.ExamDate, docxBodySize)) +
			cellParagraph(paraProps(`<w:jc w:val="right"/><w:spacing w:before="50"/>`), boldRun("Roll.No: ________________________", docxBodySize)),
	})

	// Horizontal rule.
	b.writeParagraph(paraProps(`<w:pBdr><w:bottom w:val="single" w:sz="6" w:space="1" w:color="000000"/></w:pBdr><w:spacing w:after="100"/>`), "")
}

// writeLayoutTable emits a borderless 50/50 table used for header alignment.
func (b *docxBuilder) writeLayoutTable(cells [2]string) {
	b.body.WriteString(`<w:tbl><w:tblPr><w:tblW w:w="5000" w:type="pct"/><w:tblBorders>` +
		`<w:top w:val="none" w:sz="0" w:space="0"/><w:left w:val="none" w:sz="0" w:space="0"/>` +
		`<w:bottom w:val="none" w:sz="0" w:space="0"/><w:right w:val="none" w:sz="0" w:space="0"/>` +
		`<w:insideH w:val="none" w:sz="0" w:space="0"/><w:insideV w:val="none" w:sz="0" w:space="0"/>` +
		`</w:tblBorders></w:tblPr><w:tr>`)
	for _, content := range cells {
		b.body.WriteString(`<w:tc><w:tcPr><w:tcW w:w="2500" w:type="pct"/></w:tcPr>` + content + `</w:tc>`)
	}
	b.body.WriteString(`</w:tr></w:tbl>`)
}

func (b *docxBuilder) writeQuestionTable(section models.SectionHeader, rows []models.QuestionRow) {
	b.body.WriteString(`<w:tbl><w:tblPr><w:tblW w:w="5000" w:type="pct"/><w:tblBorders>` +
		`<w:top w:val="single" w:sz="4" w:space="0"/><w:left w:val="single" w:sz="4" w:space="0"/>` +
		`<w:bottom w:val="single" w:sz="4" w:space="0"/><w:right w:val="single" w:sz="4" w:space="0"/>` +
		`<w:insideH w:val="single" w:sz="4" w:space="0"/><w:insideV w:val="single" w:sz="4" w:space="0"/>` +
		`</w:tblBorders></w:tblPr>`)

	// Header row repeats after a page break (tblHeader).
	b.body.WriteString(`<w:tr><w:trPr><w:tblHeader/></w:trPr>`)
	for _, col := range section.Columns {
		b.body.WriteString(tableCell(col.Width,
			cellParagraph(paraProps(`<w:jc w:val="center"/>`), boldRun(col.Label, docxBodySize))))
	}
	b.body.WriteString(`</w:tr>`)

	for _, row := range rows {
		b.writeQuestionRow(section.Columns, row)
	}
	b.body.WriteString(`</w:tbl>`)
}

func (b *docxBuilder) writeQuestionRow(columns []models.Column, row models.QuestionRow) {
	// cantSplit keeps the whole row on one page; it is the only explicit
	// pagination control in this renderer.
	b.body.WriteString(`<w:tr><w:trPr><w:cantSplit/></w:trPr>`)

	cells := make([]string, 0, len(columns))
	cells = append(cells, cellParagraph(paraProps(`<w:jc w:val="center"/>`),
		textRun(fmt.Sprintf("%d", row.SequenceNumber), docxBodySize)))
	cells = append(cells, b.questionCell(row))
	if row.AnswerBox {
		cells = append(cells, cellParagraph(paraProps(`<w:jc w:val="center"/>`), textRun("[    ]", docxBodySize)))
	}
	cells = append(cells, cellParagraph(paraProps(`<w:jc w:val="center"/>`),
		textRun(fmt.Sprintf("%d", row.Unit), docxBodySize)))
	cells = append(cells, cellParagraph(paraProps(`<w:jc w:val="center"/>`), textRun(row.CO, docxBodySize)))

	for i, col := range columns {
		if i < len(cells) {
			b.body.WriteString(tableCell(col.Width, cells[i]))
		}
	}
	b.body.WriteString(`</w:tr>`)
}

func (b *docxBuilder) questionCell(row models.QuestionRow) string {
	var cell strings.Builder
	cell.WriteString(cellParagraph(paraProps(`<w:keepLines/>`), textRun(" "+row.Question, docxBodySize)))
	for _, opt := range row.Options {
		cell.WriteString(cellParagraph(paraProps(`<w:keepLines/><w:ind w:left="360"/>`), textRun(opt, docxBodySize)))
	}
	if row.ImageDataURL != nil {
		data, _, err := decodeDataURL(*row.ImageDataURL)
		if err == nil && decodableImage(data) {
			rid := b.addMedia(data)
			cell.WriteString(cellParagraph(paraProps(`<w:jc w:val="center"/><w:keepLines/><w:spacing w:before="50"/>`),
				imageRun(rid, questionImgPx*emuPerPixel, questionImgPx*emuPerPixel)))
		} else {
			// Per-row image failures degrade, never abort.
			cell.WriteString(cellParagraph(paraProps(`<w:keepLines/>`), textRun("[Image could not be loaded]", docxBodySize)))
		}
	}
	return cell.String()
}

// addMedia registers an embedded image and returns its relationship index.
func (b *docxBuilder) addMedia(data []byte) int {
	ext := "png"
	switch sniffImageType(data) {
	case "JPEG":
		ext = "jpeg"
	case "GIF":
		ext = "gif"
	}
	idx := len(b.media) + 1
	b.media = append(b.media, docxMedia{
		name: fmt.Sprintf("image%d.%s", idx, ext),
		data: data,
		ext:  ext,
	})
	return idx
}

func (b *docxBuilder) writeParagraph(props, runs string) {
	b.body.WriteString(`<w:p>` + props + runs + `</w:p>`)
}

func (b *docxBuilder) pack() ([]byte, error) {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)

	files := []struct {
		name    string
		content []byte
	}{
		{"[Content_Types].xml", b.contentTypes()},
		{"_rels/.rels", []byte(rootRels)},
		{"word/document.xml", b.document()},
		{"word/_rels/document.xml.rels", b.documentRels()},
	}
	for _, m := range b.media {
		files = append(files, struct {
			name    string
			content []byte
		}{"word/media/" + m.name, m.data})
	}

	for _, f := range files {
		w, err := zw.Create(f.name)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", f.name, err)
		}
		if _, err := w.Write(f.content); err != nil {
			return nil, fmt.Errorf("write %s: %w", f.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize package: %w", err)
	}
	return buf.Bytes(), nil
}

func (b *docxBuilder) document() []byte {
	var doc strings.Builder
	doc.WriteString(xml.Header)
	doc.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"` +
		` xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"` +
		` xmlns:wp="http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"` +
		` xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"` +
		` xmlns:pic="http://schemas.openxmlformats.org/drawingml/2006/picture"><w:body>`)
	doc.WriteString(b.body.String())
	// 0.5 inch margins (720 twips), as in the fixed template.
	doc.WriteString(`<w:sectPr><w:pgSz w:w="11906" w:h="16838"/>` +
		`<w:pgMar w:top="720" w:right="720" w:bottom="720" w:left="720" w:header="708" w:footer="708" w:gutter="0"/>` +
		`</w:sectPr></w:body></w:document>`)
	return []byte(doc.String())
}

func (b *docxBuilder) contentTypes() []byte {
	var ct strings.Builder
	ct.WriteString(xml.Header)
	ct.WriteString(`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
		`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
		`<Default Extension="xml" ContentType="application/xml"/>` +
		`<Default Extension="png" ContentType="image/png"/>` +
		`<Default Extension="jpeg" ContentType="image/jpeg"/>` +
		`<Default Extension="gif" ContentType="image/gif"/>` +
		`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
		`</Types>`)
	return []byte(ct.String())
}

func (b *docxBuilder) documentRels() []byte {
	var rels strings.Builder
	rels.WriteString(xml.Header)
	rels.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	for i, m := range b.media {
		rels.WriteString(fmt.Sprintf(`<Relationship Id="rId%d" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="media/%s"/>`, i+1, m.name))
	}
	rels.WriteString(`</Relationships>`)
	return []byte(rels.String())
}

const rootRels = xml.Header + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
	`</Relationships>`

func paraProps(inner string) string {
	return `<w:pPr>` + inner + `</w:pPr>`
}

func cellParagraph(props, runs string) string {
	return `<w:p>` + props + runs + `</w:p>`
}

func tableCell(widthPct float64, content string) string {
	// tcW is in fiftieths of a percent.
	return fmt.Sprintf(`<w:tc><w:tcPr><w:tcW w:w="%d" w:type="pct"/></w:tcPr>%s</w:tc>`, int(widthPct*50), content)
}

func textRun(text string, size int) string {
	return fmt.Sprintf(`<w:r><w:rPr><w:rFonts w:ascii="Times New Roman" w:hAnsi="Times New Roman"/><w:sz w:val="%d"/></w:rPr><w:t xml:space="preserve">%s</w:t></w:r>`,
		size, escapeXML(text))
}

func boldRun(text string, size int) string {
	return fmt.Sprintf(`<w:r><w:rPr><w:rFonts w:ascii="Times New Roman" w:hAnsi="Times New Roman"/><w:b/><w:sz w:val="%d"/></w:rPr><w:t xml:space="preserve">%s</w:t></w:r>`,
		size, escapeXML(text))
}

func imageRun(rid int, cx, cy int) string {
	return fmt.Sprintf(`<w:r><w:drawing><wp:inline distT="0" distB="0" distL="0" distR="0">`+
		`<wp:extent cx="%d" cy="%d"/>`+
		`<wp:docPr id="%d" name="image%d"/>`+
		`<a:graphic><a:graphicData uri="http://schemas.openxmlformats.org/drawingml/2006/picture">`+
		`<pic:pic>`+
		`<pic:nvPicPr><pic:cNvPr id="%d" name="image%d"/><pic:cNvPicPr/></pic:nvPicPr>`+
		`<pic:blipFill><a:blip r:embed="rId%d"/><a:stretch><a:fillRect/></a:stretch></pic:blipFill>`+
		`<pic:spPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="%d" cy="%d"/></a:xfrm>`+
		`<a:prstGeom prst="rect"><a:avLst/></a:prstGeom></pic:spPr>`+
		`</pic:pic></a:graphicData></a:graphic></wp:inline></w:drawing></w:r>`,
		cx, cy, rid, rid, rid, rid, rid, cx, cy)
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

// fallbackLogo decodes the baked-in placeholder used when no real logo is
// available.
func fallbackLogo() []byte {
	data, err := base64.StdEncoding.DecodeString(fallbackLogoBase64)
	if err != nil {
		return nil
	}
	return data
}

const fallbackLogoBase64 = "iVBORw0KGgoAAAANSUhEUgAAADIAAAAyCAYAAAAeP4ixAAAACXBIWXMAAAsTAAALEwEAmpwYAAAAvElEQVR4nO3YQQqDMBAF0L/KnW+/Q6+xu1oSLeI4DAgAAAAAAAAA7rZpm7Zt2/9eNpvNZrPZdrsdANxut9vt9nq9PgAwGo1Go9FoNBr9MabX6/U2m01mM5vNZnO5XC6X+wDAXC6Xy+VyuVwul8sFAKPRaDQajUaj0Wg0Go1Goz8A8Hg8Ho/H4/F4PB6Px+MBgMFoNBqNRqPRaDQajUaj0Wg0Go1Goz8AAAAAAAAA7rYBAK3eVREcAAAAAElFTkSuQmCC"
