package models

// BlockKind tags the variants of the paper model.
type BlockKind string

const (
	BlockHeader        BlockKind = "header"
	BlockNote          BlockKind = "note"
	BlockSectionHeader BlockKind = "section-header"
	BlockQuestionRow   BlockKind = "question-row"
	BlockFooter        BlockKind = "footer"
)

// Block is one atomic, non-splittable unit of the paper layout. Exactly one
// of the payload pointers is set, matching Kind. SpacingAfter is the vertical
// gap (mm) the paginated renderer leaves after the block.
type Block struct {
	Kind          BlockKind      `json:"kind"`
	Header        *Header        `json:"header,omitempty"`
	Note          *Note          `json:"note,omitempty"`
	SectionHeader *SectionHeader `json:"sectionHeader,omitempty"`
	QuestionRow   *QuestionRow   `json:"questionRow,omitempty"`
	Footer        *Footer        `json:"footer,omitempty"`
	SpacingAfter  float64        `json:"spacingAfter"`
}

// Header is the paper masthead: subject code, logo slot, title and metadata
// lines.
type Header struct {
	SubjectCode string `json:"subjectCode"`
	Title       string `json:"title"`
	Regulation  string `json:"regulation"`
	TimeLimit   string `json:"timeLimit"`
	MaxMarks    string `json:"maxMarks"`
	Subject     string `json:"subject"`
	Branch      string `json:"branch"`
	ExamDate    string `json:"examDate"`
}

// Note is the instruction line below the header.
type Note struct {
	Text string `json:"text"`
}

// SectionHeader introduces a question table. Columns carry the header labels
// with their widths as percentages of the table width.
type SectionHeader struct {
	Label   string   `json:"label"`
	Columns []Column `json:"columns"`
}

// Column is one header cell of a section table.
type Column struct {
	Label string  `json:"label"`
	Width float64 `json:"width"`
}

// QuestionRow is a single bordered table row for one question. AnswerBox is
// set for multiple-choice rows (the "[    ]" cell); Options is either all
// four options or empty.
type QuestionRow struct {
	SequenceNumber int      `json:"sequenceNumber"`
	Question       string   `json:"question"`
	Options        []string `json:"options,omitempty"`
	ImageDataURL   *string  `json:"imageDataUrl,omitempty"`
	AnswerBox      bool     `json:"answerBox"`
	Unit           int      `json:"unit"`
	CO             string   `json:"co"`
}

// Footer closes the paper.
type Footer struct {
	Text string `json:"text"`
}

// PaperModel is the renderer-agnostic intermediate representation: an ordered
// block sequence recomputed on every layout invocation, owning no
// presentation state.
type PaperModel struct {
	Subject string  `json:"subject"`
	Blocks  []Block `json:"blocks"`
}

// QuestionRows returns the row blocks in layout order.
func (m PaperModel) QuestionRows() []QuestionRow {
	rows := make([]QuestionRow, 0, 2*SectionSize)
	for _, b := range m.Blocks {
		if b.Kind == BlockQuestionRow && b.QuestionRow != nil {
			rows = append(rows, *b.QuestionRow)
		}
	}
	return rows
}
