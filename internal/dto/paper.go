package dto

import "github.com/noah-isme/objective-paper-api/internal/models"

// GenerateResponse is returned after a successful paper generation.
type GenerateResponse struct {
	SessionID    string              `json:"sessionId"`
	Questions    []models.Question   `json:"questions"`
	PaperDetails models.PaperDetails `json:"paperDetails"`
}

// UploadResponse acknowledges a forwarded spreadsheet.
type UploadResponse struct {
	Message string `json:"message"`
}

// UpdateQuestionTextRequest captures an inline text edit on the preview
// table. Only the question text changes on this path.
type UpdateQuestionTextRequest struct {
	Text string `json:"text" binding:"required"`
}

// ReplaceQuestionRequest captures the edit dialog's Save action. Option and
// image fields apply as given; empty strings clear them.
type ReplaceQuestionRequest struct {
	Question string `json:"question" binding:"required"`
	OptionA  string `json:"optionA"`
	OptionB  string `json:"optionB"`
	OptionC  string `json:"optionC"`
	OptionD  string `json:"optionD"`
	ImageURL string `json:"imageUrl"`
}

// OverridesRequest sets any subset of the four session override fields.
// Nil means "leave as is"; an empty string stores an empty override.
type OverridesRequest struct {
	Branch      *string `json:"branch"`
	SubjectCode *string `json:"subjectCode"`
	ExamDate    *string `json:"examDate"`
	MonthYear   *string `json:"monthyear"`
}

// Fields expands the request into (field, value) pairs for the set entries.
func (r OverridesRequest) Fields() map[models.OverrideField]string {
	out := make(map[models.OverrideField]string, 4)
	if r.Branch != nil {
		out[models.OverrideBranch] = *r.Branch
	}
	if r.SubjectCode != nil {
		out[models.OverrideSubjectCode] = *r.SubjectCode
	}
	if r.ExamDate != nil {
		out[models.OverrideExamDate] = *r.ExamDate
	}
	if r.MonthYear != nil {
		out[models.OverrideMonthYear] = *r.MonthYear
	}
	return out
}
