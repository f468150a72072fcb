// Package layout turns a question list plus paper metadata into the abstract
// paper model consumed by both renderers. Everything here is pure: identical
// inputs produce an identical block sequence, which is what makes exports
// reproducible.
package layout

import (
	"fmt"

	"github.com/noah-isme/objective-paper-api/internal/models"
	appErrors "github.com/noah-isme/objective-paper-api/pkg/errors"
)

// Spacing (mm) applied after header-like blocks; question rows get none so
// consecutive rows form a contiguous table.
const blockSpacing = 5.0

const (
	noteText   = "Note: Answer all 20 questions. Each question carries 1/2 mark."
	footerText = "****ALL THE BEST****"
)

// Compose builds the paper model. Questions are partitioned by type and the
// first ten of each partition are used in their original order; extras are
// silently dropped. Fewer than ten in either partition aborts with
// ErrInsufficientQuestions before any block is produced.
func Compose(questions []models.Question, details models.PaperDetails, overrides models.Overrides) (models.PaperModel, error) {
	mcq := filterByType(questions, models.QuestionTypeMultipleChoice)
	fib := filterByType(questions, models.QuestionTypeFillInTheBlank)

	if len(mcq) < models.SectionSize || len(fib) < models.SectionSize {
		return models.PaperModel{}, appErrors.Clone(appErrors.ErrInsufficientQuestions,
			fmt.Sprintf("insufficient questions: %d MCQs, %d FIBs (need %d of each)", len(mcq), len(fib), models.SectionSize))
	}
	mcq = mcq[:models.SectionSize]
	fib = fib[:models.SectionSize]

	resolved := overrides.Resolve(details)

	blocks := make([]models.Block, 0, 5+2*models.SectionSize)
	blocks = append(blocks, headerBlock(resolved))
	blocks = append(blocks, models.Block{
		Kind:         models.BlockNote,
		Note:         &models.Note{Text: noteText},
		SpacingAfter: blockSpacing,
	})

	blocks = append(blocks, sectionHeaderBlock("Section A: Multiple Choice Questions (Q1-Q10)", mcqColumns()))
	for i, q := range mcq {
		blocks = append(blocks, questionRowBlock(q, i+1, true))
	}

	blocks = append(blocks, sectionHeaderBlock("Section B: Fill in the Blanks (Q11-Q20)", fibColumns()))
	for i, q := range fib {
		blocks = append(blocks, questionRowBlock(q, models.SectionSize+i+1, false))
	}

	blocks = append(blocks, models.Block{
		Kind:         models.BlockFooter,
		Footer:       &models.Footer{Text: footerText},
		SpacingAfter: blockSpacing,
	})

	return models.PaperModel{Subject: details.Subject, Blocks: blocks}, nil
}

func headerBlock(d models.ResolvedDetails) models.Block {
	title := fmt.Sprintf("B.Tech %s Year %s Semester %s Objective Examinations %s",
		d.Year, d.Semester, d.PaperType.MidTermLabel(), d.MonthYear)
	return models.Block{
		Kind: models.BlockHeader,
		Header: &models.Header{
			SubjectCode: d.SubjectCode,
			Title:       title,
			Regulation:  fmt.Sprintf("(%s Regulation)", d.Regulation),
			TimeLimit:   "Time: 30 Min.",
			MaxMarks:    "Max Marks: 10",
			Subject:     d.Subject,
			Branch:      d.Branch,
			ExamDate:    d.ExamDate,
		},
		SpacingAfter: blockSpacing,
	}
}

func sectionHeaderBlock(label string, columns []models.Column) models.Block {
	return models.Block{
		Kind:          models.BlockSectionHeader,
		SectionHeader: &models.SectionHeader{Label: label, Columns: columns},
		SpacingAfter:  blockSpacing,
	}
}

func questionRowBlock(q models.Question, seq int, answerBox bool) models.Block {
	row := &models.QuestionRow{
		SequenceNumber: seq,
		Question:       q.Question,
		ImageDataURL:   q.ImageDataURL,
		AnswerBox:      answerBox,
		Unit:           q.Unit,
		CO:             CourseOutcome(q.Unit),
	}
	if q.HasAllOptions() {
		row.Options = []string{
			"a) " + *q.OptionA,
			"b) " + *q.OptionB,
			"c) " + *q.OptionC,
			"d) " + *q.OptionD,
		}
	}
	return models.Block{Kind: models.BlockQuestionRow, QuestionRow: row}
}

func mcqColumns() []models.Column {
	return []models.Column{
		{Label: "S. No", Width: 10},
		{Label: "Question", Width: 70},
		{Label: "", Width: 10},
		{Label: "Unit", Width: 5},
		{Label: "CO", Width: 5},
	}
}

func fibColumns() []models.Column {
	return []models.Column{
		{Label: "S. No", Width: 10},
		{Label: "Question", Width: 80},
		{Label: "Unit", Width: 5},
		{Label: "CO", Width: 5},
	}
}

func filterByType(questions []models.Question, t models.QuestionType) []models.Question {
	out := make([]models.Question, 0, len(questions))
	for _, q := range questions {
		if q.Type == t {
			out = append(out, q)
		}
	}
	return out
}
