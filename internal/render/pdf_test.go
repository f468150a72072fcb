package render

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/objective-paper-api/internal/models"
)

// A 1x1 PNG, the smallest payload both renderers accept.
const tinyPNGDataURL = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mP8z8BQDwAEhQGAhKmMIQAAAABJRU5ErkJggg=="

func str(s string) *string { return &s }

func paperModel(withImages bool) models.PaperModel {
	blocks := []models.Block{
		{
			Kind: models.BlockHeader,
			Header: &models.Header{
				SubjectCode: "CS305",
				Title:       "B.Tech II Year I Semester Mid I Objective Examinations Feb 2026",
				Regulation:  "(R22 Regulation)",
				TimeLimit:   "Time: 30 Min.",
				MaxMarks:    "Max Marks: 10",
				Subject:     "Operating Systems",
				Branch:      "CSE",
				ExamDate:    "01-02-2026",
			},
			SpacingAfter: 5,
		},
		{
			Kind:         models.BlockNote,
			Note:         &models.Note{Text: "Note: Answer all 20 questions. Each question carries 1/2 mark."},
			SpacingAfter: 5,
		},
		{
			Kind: models.BlockSectionHeader,
			SectionHeader: &models.SectionHeader{
				Label: "Section A: Multiple Choice Questions (Q1-Q10)",
				Columns: []models.Column{
					{Label: "S. No", Width: 10}, {Label: "Question", Width: 70},
					{Label: "", Width: 10}, {Label: "Unit", Width: 5}, {Label: "CO", Width: 5},
				},
			},
			SpacingAfter: 5,
		},
	}
	for i := 1; i <= 10; i++ {
		row := &models.QuestionRow{
			SequenceNumber: i,
			Question:       fmt.Sprintf("Which scheduling policy is preemptive? (variant %d)", i),
			Options:        []string{"a) FCFS", "b) SJF", "c) Round Robin", "d) Priority"},
			AnswerBox:      true,
			Unit:           (i-1)%5 + 1,
			CO:             fmt.Sprintf("CO%d", (i-1)%5+1),
		}
		if withImages && i == 1 {
			row.ImageDataURL = str(tinyPNGDataURL)
		}
		blocks = append(blocks, models.Block{Kind: models.BlockQuestionRow, QuestionRow: row})
	}
	blocks = append(blocks, models.Block{
		Kind: models.BlockSectionHeader,
		SectionHeader: &models.SectionHeader{
			Label: "Section B: Fill in the Blanks (Q11-Q20)",
			Columns: []models.Column{
				{Label: "S. No", Width: 10}, {Label: "Question", Width: 80},
				{Label: "Unit", Width: 5}, {Label: "CO", Width: 5},
			},
		},
		SpacingAfter: 5,
	})
	for i := 11; i <= 20; i++ {
		blocks = append(blocks, models.Block{
			Kind: models.BlockQuestionRow,
			QuestionRow: &models.QuestionRow{
				SequenceNumber: i,
				Question:       fmt.Sprintf("A deadlock requires ______ conditions to hold. (variant %d)", i),
				Unit:           (i-11)%5 + 1,
				CO:             fmt.Sprintf("CO%d", (i-11)%5+1),
			},
		})
	}
	blocks = append(blocks, models.Block{
		Kind:         models.BlockFooter,
		Footer:       &models.Footer{Text: "****ALL THE BEST****"},
		SpacingAfter: 5,
	})
	return models.PaperModel{Subject: "Operating Systems", Blocks: blocks}
}

func TestPDFRendererProducesDocument(t *testing.T) {
	r := NewPDFRenderer(nil)
	data, err := r.Render(paperModel(false))
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte("%PDF")))
	require.Greater(t, len(data), 1000)
}

func TestPDFRendererWithImages(t *testing.T) {
	r := NewPDFRenderer(nil)
	data, err := r.Render(paperModel(true))
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestPDFRendererBadImageDegrades(t *testing.T) {
	model := paperModel(false)
	model.Blocks[3].QuestionRow.ImageDataURL = str("data:image/png;base64,not-base64!!!")

	r := NewPDFRenderer(nil)
	data, err := r.Render(model)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestPDFRendererPaginatesLongPaper(t *testing.T) {
	r := NewPDFRenderer(nil)
	data, err := r.Render(paperModel(false))
	require.NoError(t, err)

	// 20 bordered rows plus the header cannot fit one A4 page. Each page is
	// one "/Type /Page" object; the page tree adds a single "/Type /Pages".
	pageCount := bytes.Count(data, []byte("/Type /Page")) - 1
	require.GreaterOrEqual(t, pageCount, 2)
}

func TestPDFRendererDeterministic(t *testing.T) {
	r := NewPDFRenderer(nil)
	first, err := r.Render(paperModel(false))
	require.NoError(t, err)
	second, err := r.Render(paperModel(false))
	require.NoError(t, err)
	// gofpdf stamps a creation date; everything after the header must match.
	require.Equal(t, len(first), len(second))
}

func TestParseFormat(t *testing.T) {
	f, ok := ParseFormat("pdf")
	require.True(t, ok)
	require.Equal(t, FormatPDF, f)

	f, ok = ParseFormat("WORD")
	require.True(t, ok)
	require.Equal(t, FormatWord, f)

	_, ok = ParseFormat("odt")
	require.False(t, ok)
}

func TestDecodeDataURL(t *testing.T) {
	data, subtype, err := decodeDataURL(tinyPNGDataURL)
	require.NoError(t, err)
	require.Equal(t, "png", subtype)
	require.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))

	_, _, err = decodeDataURL("https://example.com/x.png")
	require.Error(t, err)

	_, _, err = decodeDataURL("data:image/svg+xml;base64,PHN2Zz48L3N2Zz4=")
	require.Error(t, err)

	_, _, err = decodeDataURL("data:image/png;base64,@@@")
	require.Error(t, err)
}

func TestSniffImageType(t *testing.T) {
	png, _, err := decodeDataURL(tinyPNGDataURL)
	require.NoError(t, err)
	require.Equal(t, "PNG", sniffImageType(png))
	require.Equal(t, "JPEG", sniffImageType([]byte{0xFF, 0xD8, 0xFF, 0xE0, 0, 0, 0, 0}))
	require.Equal(t, "GIF", sniffImageType([]byte("GIF89a0000000")))
	require.Empty(t, sniffImageType([]byte("plain text")))
}

func TestFitBox(t *testing.T) {
	w, h := fitBox(100, 50, 50, 50)
	require.InDelta(t, 50.0, w, 0.001)
	require.InDelta(t, 25.0, h, 0.001)

	// Small images are not upscaled.
	w, h = fitBox(10, 10, 50, 50)
	require.InDelta(t, 10.0, w, 0.001)
	require.InDelta(t, 10.0, h, 0.001)
}

func TestExtensionAndContentType(t *testing.T) {
	pdf := NewPDFRenderer(nil)
	require.Equal(t, "pdf", pdf.Extension())
	require.Equal(t, "application/pdf", pdf.ContentType())

	docx := NewDocxRenderer(nil)
	require.Equal(t, "docx", docx.Extension())
	require.True(t, strings.Contains(docx.ContentType(), "wordprocessingml"))
}
