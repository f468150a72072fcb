package models

// QuestionType enumerates the two question categories of an objective paper.
type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "multiple-choice"
	QuestionTypeFillInTheBlank QuestionType = "fill-in-the-blank"
)

// SectionSize is the required number of questions per type partition.
const SectionSize = 10

// Question is one question record as delivered by the question bank. Options
// are only meaningful for multiple-choice questions; ImageDataURL is derived
// from ImageURL through the image proxy and must be re-derived whenever
// ImageURL changes.
type Question struct {
	Type         QuestionType `json:"type"`
	Question     string       `json:"question"`
	OptionA      *string      `json:"optionA,omitempty"`
	OptionB      *string      `json:"optionB,omitempty"`
	OptionC      *string      `json:"optionC,omitempty"`
	OptionD      *string      `json:"optionD,omitempty"`
	Unit         int          `json:"unit"`
	ImageURL     *string      `json:"imageUrl,omitempty"`
	ImageDataURL *string      `json:"imageDataUrl,omitempty"`
}

// HasAllOptions reports whether every one of the four options is present.
// Rendering of the options block is all-or-nothing: one missing option
// suppresses the whole block.
func (q Question) HasAllOptions() bool {
	return q.Type == QuestionTypeMultipleChoice &&
		q.OptionA != nil && q.OptionB != nil && q.OptionC != nil && q.OptionD != nil
}

// PaperType enumerates the mid-term variants.
type PaperType string

const (
	PaperTypeMid1 PaperType = "mid1"
	PaperTypeMid2 PaperType = "mid2"
)

// MidTermLabel resolves the display label for the paper type. Unknown values
// fall through to the generic "Mid".
func (p PaperType) MidTermLabel() string {
	switch p {
	case PaperTypeMid1:
		return "Mid I"
	case PaperTypeMid2:
		return "Mid II"
	default:
		return "Mid"
	}
}

// PaperDetails carries the exam metadata supplied by the question bank.
type PaperDetails struct {
	PaperType   PaperType `json:"paperType"`
	Year        string    `json:"year"`
	Semester    string    `json:"semester"`
	Regulation  string    `json:"regulation"`
	Subject     string    `json:"subject"`
	Branch      string    `json:"branch"`
	SubjectCode string    `json:"subjectCode"`
}

// OverrideField identifies the four operator-editable metadata fields.
type OverrideField string

const (
	OverrideBranch      OverrideField = "branch"
	OverrideSubjectCode OverrideField = "subjectCode"
	OverrideExamDate    OverrideField = "examDate"
	OverrideMonthYear   OverrideField = "monthyear"
)

// OverrideFields lists every valid override key, in stable order.
var OverrideFields = []OverrideField{OverrideBranch, OverrideSubjectCode, OverrideExamDate, OverrideMonthYear}

// Valid reports whether the field names a known override.
func (f OverrideField) Valid() bool {
	switch f {
	case OverrideBranch, OverrideSubjectCode, OverrideExamDate, OverrideMonthYear:
		return true
	}
	return false
}

// Overrides holds the session-scoped operator edits that shadow the
// server-supplied paper details. Empty string means "not set".
type Overrides struct {
	Branch      string `json:"branch,omitempty"`
	SubjectCode string `json:"subjectCode,omitempty"`
	ExamDate    string `json:"examDate,omitempty"`
	MonthYear   string `json:"monthyear,omitempty"`
}

// ResolvedDetails is the single place where override precedence is applied:
// an override, once set, is authoritative over the server value for the
// remainder of the session.
type ResolvedDetails struct {
	PaperDetails
	ExamDate  string
	MonthYear string
}

// Resolve merges overrides on top of the server-supplied details.
func (o Overrides) Resolve(details PaperDetails) ResolvedDetails {
	resolved := ResolvedDetails{PaperDetails: details}
	if o.Branch != "" {
		resolved.Branch = o.Branch
	}
	if o.SubjectCode != "" {
		resolved.SubjectCode = o.SubjectCode
	}
	resolved.ExamDate = o.ExamDate
	resolved.MonthYear = o.MonthYear
	return resolved
}
